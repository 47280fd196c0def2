package service

import (
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/typez/typezd/internal/bus"
	"github.com/typez/typezd/internal/store"
)

type env struct {
	db       *store.DB
	bus      *bus.Bus
	identity *Identity
	chats    *Chats
	groups   *Groups
	contacts *Contacts
	search   *Search
}

func newEnv(t *testing.T) *env {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := store.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Migrate(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })

	log := zap.NewNop()
	b := bus.New()
	return &env{
		db:       db,
		bus:      b,
		identity: NewIdentity(db, log),
		chats:    NewChats(db, b, log),
		groups:   NewGroups(db, b, log),
		contacts: NewContacts(db, b, log),
		search:   NewSearch(db, log),
	}
}

func (e *env) register(t *testing.T, username string) *store.User {
	t.Helper()
	u, err := e.identity.Register(username, username, "hunter22")
	if err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
	return u
}

func (e *env) settings(t *testing.T, userID, chatID string) *store.ChatUserSettings {
	t.Helper()
	s, err := store.GetSettings(e.db, userID, chatID)
	if err != nil {
		t.Fatal(err)
	}
	if s == nil {
		t.Fatalf("no settings row for user %s chat %s", userID, chatID)
	}
	return s
}
