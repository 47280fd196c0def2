package service

import (
	"testing"

	"github.com/typez/typezd/internal/fault"
	"github.com/typez/typezd/internal/store"
)

func TestCreateDeduplicatesMembers(t *testing.T) {
	e := newEnv(t)
	a := e.register(t, "alice")
	b := e.register(t, "bob")

	// Caller repeated in the member list and B listed twice.
	chat, err := e.groups.Create(a.ID, "g", []string{b.ID, a.ID, b.ID}, "desc")
	if err != nil {
		t.Fatal(err)
	}
	if chat.MemberCount != 2 {
		t.Errorf("member_count = %d, want 2", chat.MemberCount)
	}

	owner, err := store.GetActiveMember(e.db, chat.ID, a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if owner == nil || owner.Role != store.RoleOwner {
		t.Errorf("creator role = %v, want owner", owner)
	}
	member, err := store.GetActiveMember(e.db, chat.ID, b.ID)
	if err != nil {
		t.Fatal(err)
	}
	if member == nil || member.Role != store.RoleMember {
		t.Errorf("B role = %v, want member", member)
	}

	// Creator's settings row is initialized with zero unread.
	if got := e.settings(t, a.ID, chat.ID).UnreadCount; got != 0 {
		t.Errorf("creator unread = %d, want 0", got)
	}
}

func TestCreateUnknownMember(t *testing.T) {
	e := newEnv(t)
	a := e.register(t, "alice")

	_, err := e.groups.Create(a.ID, "g", []string{"no-such-user"}, "")
	if !fault.IsKind(err, fault.NotFound) {
		t.Errorf("got %v, want NotFound", err)
	}

	// Nothing may be written when a member id fails to resolve.
	chats, err := e.chats.List(a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(chats) != 0 {
		t.Errorf("failed create left %d chats behind", len(chats))
	}
}

func TestAddMembersUnknownMember(t *testing.T) {
	e := newEnv(t)
	a := e.register(t, "alice")

	chat, err := e.groups.Create(a.ID, "g", nil, "")
	if err != nil {
		t.Fatal(err)
	}

	err = e.groups.AddMembers(a.ID, chat.ID, []string{"no-such-user"})
	if !fault.IsKind(err, fault.NotFound) {
		t.Errorf("got %v, want NotFound", err)
	}

	got, err := store.GetChat(e.db, chat.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.MemberCount != 1 {
		t.Errorf("member_count = %d, want 1", got.MemberCount)
	}
}

func TestCreateRequiresTitle(t *testing.T) {
	e := newEnv(t)
	a := e.register(t, "alice")

	_, err := e.groups.Create(a.ID, "   ", nil, "")
	if !fault.IsKind(err, fault.Validation) {
		t.Errorf("got %v, want Validation", err)
	}
}

func TestAddMembersRecomputesCount(t *testing.T) {
	e := newEnv(t)
	a := e.register(t, "alice")
	b := e.register(t, "bob")
	c := e.register(t, "carol")

	chat, err := e.groups.Create(a.ID, "g", []string{b.ID}, "")
	if err != nil {
		t.Fatal(err)
	}

	// Mix of an already-member id, a duplicate, and one new member.
	if err := e.groups.AddMembers(a.ID, chat.ID, []string{b.ID, c.ID, c.ID}); err != nil {
		t.Fatal(err)
	}

	got, err := store.GetChat(e.db, chat.ID)
	if err != nil {
		t.Fatal(err)
	}
	var live int
	if err := e.db.QueryRow(
		`SELECT COUNT(1) FROM chat_members WHERE chat_id = ? AND left_at IS NULL`,
		chat.ID).Scan(&live); err != nil {
		t.Fatal(err)
	}
	if got.MemberCount != live {
		t.Errorf("member_count = %d, live rows = %d", got.MemberCount, live)
	}
	if got.MemberCount != 3 {
		t.Errorf("member_count = %d, want 3", got.MemberCount)
	}
}

func TestAddMembersRequiresMembership(t *testing.T) {
	e := newEnv(t)
	a := e.register(t, "alice")
	outsider := e.register(t, "mallory")

	chat, err := e.groups.Create(a.ID, "g", nil, "")
	if err != nil {
		t.Fatal(err)
	}

	err = e.groups.AddMembers(outsider.ID, chat.ID, []string{outsider.ID})
	if !fault.IsKind(err, fault.PermissionDenied) {
		t.Errorf("got %v, want PermissionDenied", err)
	}
}

func TestUpdateProfilePartialPatch(t *testing.T) {
	e := newEnv(t)
	a := e.register(t, "alice")
	chat, err := e.groups.Create(a.ID, "old title", nil, "old desc")
	if err != nil {
		t.Fatal(err)
	}

	title := "new title"
	got, err := e.groups.UpdateProfile(a.ID, chat.ID, ProfilePatch{Title: &title})
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "new title" {
		t.Errorf("title = %q", got.Title)
	}
	if got.Description != "old desc" {
		t.Errorf("description changed by unrelated patch: %q", got.Description)
	}
}

func TestUpdateProfileRequiresMembership(t *testing.T) {
	e := newEnv(t)
	a := e.register(t, "alice")
	outsider := e.register(t, "mallory")
	chat, err := e.groups.Create(a.ID, "g", nil, "")
	if err != nil {
		t.Fatal(err)
	}

	title := "defaced"
	_, err = e.groups.UpdateProfile(outsider.ID, chat.ID, ProfilePatch{Title: &title})
	if !fault.IsKind(err, fault.PermissionDenied) {
		t.Errorf("got %v, want PermissionDenied", err)
	}
}
