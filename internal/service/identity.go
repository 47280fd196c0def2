// Package service holds the engines that keep derived state consistent with
// the stream of message and contact events. Every operation takes the
// caller's user id explicitly; there is no ambient session, so the engines
// are safe under multiple concurrent callers.
package service

import (
	"database/sql"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/typez/typezd/internal/fault"
	"github.com/typez/typezd/internal/store"
)

var usernameRe = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

func validateUsername(username string) error {
	switch {
	case strings.TrimSpace(username) == "":
		return fault.New(fault.Validation, "username must not be empty")
	case len(username) < 3:
		return fault.New(fault.Validation, "username must be at least 3 characters")
	case len(username) > 20:
		return fault.New(fault.Validation, "username must be at most 20 characters")
	case !usernameRe.MatchString(username):
		return fault.New(fault.Validation, "username may only contain letters, digits and underscores")
	}
	return nil
}

func validatePassword(password string) error {
	switch {
	case len(password) < 6:
		return fault.New(fault.Validation, "password must be at least 6 characters")
	case len(password) > 100:
		return fault.New(fault.Validation, "password must be at most 100 characters")
	}
	return nil
}

func validateDisplayName(displayName string) error {
	switch {
	case strings.TrimSpace(displayName) == "":
		return fault.New(fault.Validation, "display name must not be empty")
	case len(displayName) > 50:
		return fault.New(fault.Validation, "display name must be at most 50 characters")
	}
	return nil
}

// Identity resolves and manages caller identities. Every other engine
// depends on its CurrentUser lookup for authorization.
type Identity struct {
	db  *store.DB
	log *zap.Logger
}

// NewIdentity creates the identity engine.
func NewIdentity(db *store.DB, log *zap.Logger) *Identity {
	return &Identity{db: db, log: log}
}

// Register creates a new account. The username must be unique; the user row
// and its search shadow are written in one transaction.
func (s *Identity) Register(username, displayName, password string) (*store.User, error) {
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}
	if err := validateDisplayName(displayName); err != nil {
		return nil, err
	}

	existing, err := store.GetUserByUsername(s.db, username)
	if err != nil {
		return nil, store.Classify(err)
	}
	if existing != nil {
		return nil, fault.Newf(fault.Conflict, "username %q already taken", username)
	}

	now := time.Now().UnixMilli()
	u := &store.User{
		ID:          uuid.New().String(),
		Username:    strings.TrimSpace(username),
		DisplayName: strings.TrimSpace(displayName),
		Password:    password,
		Status:      "online",
		Kind:        "human",
		LastSeen:    now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	err = s.db.WithTx(func(tx *sql.Tx) error {
		return store.InsertUser(tx, u)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("user registered", zap.String("user_id", u.ID), zap.String("username", u.Username))
	return u, nil
}

// Login checks credentials and marks the user online.
func (s *Identity) Login(username, password string) (*store.User, error) {
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	u, err := store.GetUserByUsername(s.db, username)
	if err != nil {
		return nil, store.Classify(err)
	}
	if u == nil || u.DeletedAt != 0 {
		return nil, fault.Newf(fault.NotFound, "user %q not found", username)
	}
	if u.Password != password {
		return nil, fault.New(fault.PermissionDenied, "invalid password")
	}

	if err := store.SetUserPresence(s.db, u.ID, "online"); err != nil {
		return nil, store.Classify(err)
	}
	s.log.Info("user logged in", zap.String("user_id", u.ID))

	refreshed, err := store.GetUser(s.db, u.ID)
	if err != nil {
		return nil, store.Classify(err)
	}
	return refreshed, nil
}

// Logout marks the user offline.
func (s *Identity) Logout(userID string) error {
	if err := store.SetUserPresence(s.db, userID, "offline"); err != nil {
		return store.Classify(err)
	}
	s.log.Info("user logged out", zap.String("user_id", userID))
	return nil
}

// UpdateDisplayName changes the caller's display name, keeping the user
// search shadow in step within one transaction.
func (s *Identity) UpdateDisplayName(callerID, displayName string) (*store.User, error) {
	if err := validateDisplayName(displayName); err != nil {
		return nil, err
	}
	u, err := s.CurrentUser(callerID)
	if err != nil {
		return nil, err
	}

	err = s.db.WithTx(func(tx *sql.Tx) error {
		return store.UpdateUserDisplayName(tx, u.ID, strings.TrimSpace(displayName))
	})
	if err != nil {
		return nil, err
	}
	refreshed, err := store.GetUser(s.db, u.ID)
	if err != nil {
		return nil, store.Classify(err)
	}
	return refreshed, nil
}

// CurrentUser resolves the caller's identity. This is the lookup every
// authorization check goes through.
func (s *Identity) CurrentUser(callerID string) (*store.User, error) {
	if callerID == "" {
		return nil, fault.New(fault.Validation, "caller id required")
	}
	u, err := store.GetUser(s.db, callerID)
	if err != nil {
		return nil, store.Classify(err)
	}
	if u == nil || u.DeletedAt != 0 {
		return nil, fault.Newf(fault.NotFound, "user %q not found", callerID)
	}
	return u, nil
}
