package service

import (
	"testing"

	"github.com/typez/typezd/internal/fault"
)

func TestRegisterValidation(t *testing.T) {
	e := newEnv(t)

	cases := []struct {
		name                            string
		username, displayName, password string
	}{
		{"empty username", "", "Alice", "hunter22"},
		{"short username", "al", "Alice", "hunter22"},
		{"long username", "alice_alice_alice_alice", "Alice", "hunter22"},
		{"bad characters", "alice!", "Alice", "hunter22"},
		{"short password", "alice", "Alice", "12345"},
		{"empty display name", "alice", "  ", "hunter22"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := e.identity.Register(tc.username, tc.displayName, tc.password)
			if !fault.IsKind(err, fault.Validation) {
				t.Errorf("got %v, want Validation", err)
			}
		})
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	e := newEnv(t)
	e.register(t, "alice")

	_, err := e.identity.Register("alice", "Another Alice", "hunter22")
	if !fault.IsKind(err, fault.Conflict) {
		t.Errorf("got %v, want Conflict", err)
	}
}

func TestLoginAndCurrentUser(t *testing.T) {
	e := newEnv(t)
	u := e.register(t, "alice")

	got, err := e.identity.Login("alice", "hunter22")
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != u.ID || got.Status != "online" {
		t.Errorf("login returned %+v", got)
	}

	cur, err := e.identity.CurrentUser(u.ID)
	if err != nil {
		t.Fatal(err)
	}
	if cur.Username != "alice" {
		t.Errorf("current user = %q", cur.Username)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	e := newEnv(t)
	e.register(t, "alice")

	_, err := e.identity.Login("alice", "wrong-password")
	if !fault.IsKind(err, fault.PermissionDenied) {
		t.Errorf("got %v, want PermissionDenied", err)
	}
}

func TestLoginUnknownUser(t *testing.T) {
	e := newEnv(t)

	_, err := e.identity.Login("nobody", "hunter22")
	if !fault.IsKind(err, fault.NotFound) {
		t.Errorf("got %v, want NotFound", err)
	}
}

func TestLogoutMarksOffline(t *testing.T) {
	e := newEnv(t)
	u := e.register(t, "alice")

	if err := e.identity.Logout(u.ID); err != nil {
		t.Fatal(err)
	}
	cur, err := e.identity.CurrentUser(u.ID)
	if err != nil {
		t.Fatal(err)
	}
	if cur.Status != "offline" {
		t.Errorf("status = %q, want offline", cur.Status)
	}
}

func TestCurrentUserMissingCaller(t *testing.T) {
	e := newEnv(t)

	_, err := e.identity.CurrentUser("")
	if !fault.IsKind(err, fault.Validation) {
		t.Errorf("got %v, want Validation", err)
	}

	_, err = e.identity.CurrentUser("no-such-id")
	if !fault.IsKind(err, fault.NotFound) {
		t.Errorf("got %v, want NotFound", err)
	}
}

func TestUpdateDisplayNameRefreshesSearch(t *testing.T) {
	e := newEnv(t)
	u := e.register(t, "alice")

	got, err := e.identity.UpdateDisplayName(u.ID, "Wonderland")
	if err != nil {
		t.Fatal(err)
	}
	if got.DisplayName != "Wonderland" {
		t.Errorf("display name = %q", got.DisplayName)
	}

	users, err := e.search.Users("Wonderland", 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(users) != 1 || users[0].ID != u.ID {
		t.Errorf("new display name not searchable: %d hits", len(users))
	}

	if _, err := e.identity.UpdateDisplayName(u.ID, "   "); !fault.IsKind(err, fault.Validation) {
		t.Errorf("got %v, want Validation", err)
	}
}

func TestRegisteredUserIsSearchable(t *testing.T) {
	e := newEnv(t)
	e.register(t, "zephyrine")

	users, err := e.search.Users("zephyrine", 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(users) != 1 {
		t.Errorf("got %d users, want 1", len(users))
	}
}
