package service

import (
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/typez/typezd/internal/bus"
	"github.com/typez/typezd/internal/fault"
	"github.com/typez/typezd/internal/store"
)

// Groups manages group chat creation, membership and profile changes.
type Groups struct {
	db  *store.DB
	bus *bus.Bus
	log *zap.Logger
}

// NewGroups creates the group engine.
func NewGroups(db *store.DB, b *bus.Bus, log *zap.Logger) *Groups {
	return &Groups{db: db, bus: b, log: log}
}

// ProfilePatch carries a partial update of a chat's profile. Nil fields are
// left untouched.
type ProfilePatch struct {
	Title       *string
	AvatarURL   *string
	Description *string
}

// Create creates a group chat. The member set is the caller plus the given
// ids, deduplicated; the caller becomes owner, everyone else a member. The
// chat row, membership rows and the creator's settings row are written in
// one transaction.
func (s *Groups) Create(callerID, title string, memberIDs []string, description string) (*store.Chat, error) {
	if strings.TrimSpace(title) == "" {
		return nil, fault.New(fault.Validation, "group title must not be empty")
	}

	seen := map[string]bool{callerID: true}
	members := []string{callerID}
	for _, id := range memberIDs {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		members = append(members, id)
	}
	if err := s.requireUsers(members); err != nil {
		return nil, err
	}

	now := time.Now().UnixMilli()
	chat := &store.Chat{
		ID:          uuid.New().String(),
		Type:        store.ChatGroup,
		Title:       title,
		Description: description,
		MemberCount: len(members),
		CreatedBy:   callerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	err := s.db.WithTx(func(tx *sql.Tx) error {
		if err := store.InsertChat(tx, chat); err != nil {
			return err
		}
		for _, uid := range members {
			role := store.RoleMember
			if uid == callerID {
				role = store.RoleOwner
			}
			m := &store.Member{
				ID:       uuid.New().String(),
				ChatID:   chat.ID,
				UserID:   uid,
				Role:     role,
				JoinedAt: now,
			}
			if err := store.AddMember(tx, m); err != nil {
				return err
			}
		}
		return store.EnsureSettings(tx, callerID, chat.ID, now)
	})
	if err != nil {
		return nil, err
	}

	s.bus.Publish(bus.KindChatCreated, chat)
	s.log.Info("group created",
		zap.String("chat_id", chat.ID),
		zap.String("created_by", callerID),
		zap.Int("members", len(members)))
	return chat, nil
}

// AddMembers adds users to a group. The caller must already be an active
// member. Duplicate ids are absorbed, and member_count is recomputed from
// the live membership count so partial or duplicate inserts cannot drift it.
func (s *Groups) AddMembers(callerID, chatID string, memberIDs []string) error {
	if _, err := requireMember(s.db, chatID, callerID); err != nil {
		return err
	}

	seen := map[string]bool{}
	var members []string
	for _, id := range memberIDs {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		members = append(members, id)
	}
	if len(members) == 0 {
		return nil
	}
	if err := s.requireUsers(members); err != nil {
		return err
	}

	now := time.Now().UnixMilli()
	err := s.db.WithTx(func(tx *sql.Tx) error {
		for _, uid := range members {
			m := &store.Member{
				ID:       uuid.New().String(),
				ChatID:   chatID,
				UserID:   uid,
				Role:     store.RoleMember,
				JoinedAt: now,
			}
			if err := store.AddMember(tx, m); err != nil {
				return err
			}
		}
		return store.RecomputeMemberCount(tx, chatID)
	})
	if err != nil {
		return err
	}

	s.bus.Publish(bus.KindChatMembersAdded, chatID)
	return nil
}

// requireUsers checks every id resolves to a live user before any
// membership row is written.
func (s *Groups) requireUsers(ids []string) error {
	for _, id := range ids {
		u, err := store.GetUser(s.db, id)
		if err != nil {
			return store.Classify(err)
		}
		if u == nil || u.DeletedAt != 0 {
			return fault.Newf(fault.NotFound, "user %q not found", id)
		}
	}
	return nil
}

// UpdateProfile applies a partial patch of title, avatar and description.
// The caller must be an active member.
func (s *Groups) UpdateProfile(callerID, chatID string, patch ProfilePatch) (*store.Chat, error) {
	if _, err := requireMember(s.db, chatID, callerID); err != nil {
		return nil, err
	}
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return nil, fault.New(fault.Validation, "group title must not be empty")
	}

	sets := "updated_at = ?"
	args := []any{time.Now().UnixMilli()}
	if patch.Title != nil {
		sets += ", title = ?"
		args = append(args, *patch.Title)
	}
	if patch.AvatarURL != nil {
		sets += ", avatar_url = ?"
		args = append(args, *patch.AvatarURL)
	}
	if patch.Description != nil {
		sets += ", description = ?"
		args = append(args, *patch.Description)
	}
	args = append(args, chatID)

	if _, err := s.db.Exec(`UPDATE chats SET `+sets+` WHERE id = ?`, args...); err != nil {
		return nil, store.Classify(err)
	}

	chat, err := store.GetChat(s.db, chatID)
	if err != nil {
		return nil, store.Classify(err)
	}
	if chat == nil {
		return nil, fault.Newf(fault.NotFound, "chat %q not found", chatID)
	}
	return chat, nil
}
