package service

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/typez/typezd/internal/bus"
	"github.com/typez/typezd/internal/fault"
	"github.com/typez/typezd/internal/store"
)

// Chats is the messaging engine: membership-scoped listing, atomic message
// append with unread and last-message propagation, and the per-user read
// state projection.
type Chats struct {
	db  *store.DB
	bus *bus.Bus
	log *zap.Logger
}

// NewChats creates the messaging engine.
func NewChats(db *store.DB, b *bus.Bus, log *zap.Logger) *Chats {
	return &Chats{db: db, bus: b, log: log}
}

// requireMember returns the caller's active membership or PermissionDenied.
func requireMember(q store.DBTX, chatID, callerID string) (*store.Member, error) {
	m, err := store.GetActiveMember(q, chatID, callerID)
	if err != nil {
		return nil, store.Classify(err)
	}
	if m == nil {
		return nil, fault.New(fault.PermissionDenied, "not a member of this chat")
	}
	return m, nil
}

// List returns the chats where the caller holds an active membership,
// most recently active first.
func (s *Chats) List(callerID string) ([]store.Chat, error) {
	chats, err := store.ListChatsForUser(s.db, callerID)
	if err != nil {
		return nil, store.Classify(err)
	}
	return chats, nil
}

// Get returns one chat, but only when the caller is an active member.
// Non-members get NotFound rather than chat metadata.
func (s *Chats) Get(callerID, chatID string) (*store.Chat, error) {
	m, err := store.GetActiveMember(s.db, chatID, callerID)
	if err != nil {
		return nil, store.Classify(err)
	}
	if m == nil {
		return nil, fault.Newf(fault.NotFound, "chat %q not found", chatID)
	}
	c, err := store.GetChat(s.db, chatID)
	if err != nil {
		return nil, store.Classify(err)
	}
	if c == nil || c.DeletedAt != 0 {
		return nil, fault.Newf(fault.NotFound, "chat %q not found", chatID)
	}
	return c, nil
}

// Messages returns a chat's messages newest-first, paginated. It fails
// closed: a non-member gets an empty result, never an error that would
// confirm the chat exists.
func (s *Chats) Messages(callerID, chatID string, limit, offset int) ([]store.Message, error) {
	m, err := store.GetActiveMember(s.db, chatID, callerID)
	if err != nil {
		return nil, store.Classify(err)
	}
	if m == nil {
		return nil, nil
	}
	msgs, err := store.ListMessages(s.db, chatID, limit, offset)
	if err != nil {
		return nil, store.Classify(err)
	}
	return msgs, nil
}

// Send appends a message. In one transaction it inserts the message with
// its search shadow, advances the chat's last-message pointer, and adjusts
// every active member's settings row: the sender is reset to zero unread
// with the new message acknowledged, everyone else gains one unread.
func (s *Chats) Send(callerID, chatID, content string) (*store.Message, error) {
	if content == "" {
		return nil, fault.New(fault.Validation, "message content must not be empty")
	}
	if _, err := requireMember(s.db, chatID, callerID); err != nil {
		return nil, err
	}

	now := time.Now().UnixMilli()
	msg := &store.Message{
		ID:        uuid.New().String(),
		ChatID:    chatID,
		SenderID:  callerID,
		Content:   content,
		Type:      "text",
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := s.db.WithTx(func(tx *sql.Tx) error {
		if err := store.InsertMessage(tx, msg); err != nil {
			return err
		}
		if err := store.SetChatLastMessage(tx, chatID, msg.ID, now); err != nil {
			return err
		}
		members, err := store.ListActiveMemberIDs(tx, chatID)
		if err != nil {
			return err
		}
		for _, uid := range members {
			if uid == callerID {
				if err := store.MarkRead(tx, uid, chatID, msg.ID, now); err != nil {
					return err
				}
				continue
			}
			if err := store.IncrementUnread(tx, uid, chatID, now); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.bus.Publish(bus.KindMessageSent, msg)
	s.log.Debug("message sent",
		zap.String("chat_id", chatID), zap.String("message_id", msg.ID))
	return msg, nil
}

// Edit rewrites a message's content. Only the sender may edit; the search
// shadow is replaced in the same transaction.
func (s *Chats) Edit(callerID, messageID, content string) (*store.Message, error) {
	if content == "" {
		return nil, fault.New(fault.Validation, "message content must not be empty")
	}
	msg, err := s.ownMessage(callerID, messageID)
	if err != nil {
		return nil, err
	}

	err = s.db.WithTx(func(tx *sql.Tx) error {
		return store.UpdateMessageContent(tx, msg.ID, content)
	})
	if err != nil {
		return nil, err
	}

	s.bus.Publish(bus.KindMessageEdited, messageID)
	updated, err := store.GetMessage(s.db, messageID)
	if err != nil {
		return nil, store.Classify(err)
	}
	return updated, nil
}

// Delete soft-deletes a message. Only the sender may delete; the shadow row
// is dropped in the same transaction so the content stops matching searches.
func (s *Chats) Delete(callerID, messageID string) error {
	msg, err := s.ownMessage(callerID, messageID)
	if err != nil {
		return err
	}

	err = s.db.WithTx(func(tx *sql.Tx) error {
		return store.SoftDeleteMessage(tx, msg.ID)
	})
	if err != nil {
		return err
	}

	s.bus.Publish(bus.KindMessageDeleted, messageID)
	return nil
}

func (s *Chats) ownMessage(callerID, messageID string) (*store.Message, error) {
	msg, err := store.GetMessage(s.db, messageID)
	if err != nil {
		return nil, store.Classify(err)
	}
	if msg == nil || msg.DeletedAt != 0 {
		return nil, fault.Newf(fault.NotFound, "message %q not found", messageID)
	}
	if msg.SenderID != callerID {
		return nil, fault.New(fault.PermissionDenied, "only the sender may modify a message")
	}
	return msg, nil
}

// Settings returns the caller's settings row for a chat, materializing an
// empty projection when none exists yet. Membership-gated.
func (s *Chats) Settings(callerID, chatID string) (*store.ChatUserSettings, error) {
	if _, err := requireMember(s.db, chatID, callerID); err != nil {
		return nil, err
	}
	settings, err := store.GetSettings(s.db, callerID, chatID)
	if err != nil {
		return nil, store.Classify(err)
	}
	if settings == nil {
		return &store.ChatUserSettings{UserID: callerID, ChatID: chatID}, nil
	}
	return settings, nil
}

// UpdateSettings applies a partial patch of the pinned/muted/archived flags.
func (s *Chats) UpdateSettings(callerID, chatID string, patch store.SettingsPatch) (*store.ChatUserSettings, error) {
	if _, err := requireMember(s.db, chatID, callerID); err != nil {
		return nil, err
	}

	var updated *store.ChatUserSettings
	err := s.db.WithTx(func(tx *sql.Tx) error {
		var err error
		updated, err = store.PatchSettings(tx, callerID, chatID, patch, time.Now().UnixMilli())
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// MarkRead resets the caller's unread counter to zero and records the
// supplied message id as acknowledged. The id is stored as given; it is not
// checked against the newest message.
func (s *Chats) MarkRead(callerID, chatID, messageID string) error {
	if _, err := requireMember(s.db, chatID, callerID); err != nil {
		return err
	}
	return s.db.WithTx(func(tx *sql.Tx) error {
		return store.MarkRead(tx, callerID, chatID, messageID, time.Now().UnixMilli())
	})
}
