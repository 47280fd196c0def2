package service

import (
	"testing"

	"github.com/typez/typezd/internal/fault"
	"github.com/typez/typezd/internal/store"
)

func TestAcceptCreatesSymmetricRows(t *testing.T) {
	e := newEnv(t)
	a := e.register(t, "alice")
	b := e.register(t, "bob")

	req, err := e.contacts.Request(a.ID, b.ID, "hi")
	if err != nil {
		t.Fatal(err)
	}

	mine, err := e.contacts.Accept(b.ID, req.ID)
	if err != nil {
		t.Fatal(err)
	}
	if mine == nil || mine.ContactUserID != a.ID {
		t.Errorf("accept returned %+v", mine)
	}

	// Second accept is idempotent: status unchanged, no duplicate rows.
	if _, err := e.contacts.Accept(b.ID, req.ID); err != nil {
		t.Fatal(err)
	}
	var count int
	if err := e.db.QueryRow(`SELECT COUNT(*) FROM contacts`).Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Errorf("contact rows = %d, want exactly 2", count)
	}

	got, err := store.GetRequest(e.db, req.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != store.RequestAccepted {
		t.Errorf("status = %q, want accepted", got.Status)
	}
}

func TestAcceptOnlyByRecipient(t *testing.T) {
	e := newEnv(t)
	a := e.register(t, "alice")
	b := e.register(t, "bob")

	req, err := e.contacts.Request(a.ID, b.ID, "")
	if err != nil {
		t.Fatal(err)
	}

	// Neither the requester nor a third party may accept.
	if _, err := e.contacts.Accept(a.ID, req.ID); !fault.IsKind(err, fault.PermissionDenied) {
		t.Errorf("requester accept: got %v, want PermissionDenied", err)
	}
	mallory := e.register(t, "mallory")
	if _, err := e.contacts.Accept(mallory.ID, req.ID); !fault.IsKind(err, fault.PermissionDenied) {
		t.Errorf("third-party accept: got %v, want PermissionDenied", err)
	}
}

func TestRejectAndCancelParties(t *testing.T) {
	e := newEnv(t)
	a := e.register(t, "alice")
	b := e.register(t, "bob")

	req, err := e.contacts.Request(a.ID, b.ID, "")
	if err != nil {
		t.Fatal(err)
	}

	// Requester cannot reject; recipient cannot cancel.
	if _, err := e.contacts.Reject(a.ID, req.ID); !fault.IsKind(err, fault.PermissionDenied) {
		t.Errorf("requester reject: got %v, want PermissionDenied", err)
	}
	if _, err := e.contacts.Cancel(b.ID, req.ID); !fault.IsKind(err, fault.PermissionDenied) {
		t.Errorf("recipient cancel: got %v, want PermissionDenied", err)
	}

	// A reject with no prior relationship reports absence, not a phantom row.
	row, err := e.contacts.Reject(b.ID, req.ID)
	if err != nil {
		t.Fatal(err)
	}
	if row != nil {
		t.Errorf("reject fabricated a contact row: %+v", row)
	}
	got, err := store.GetRequest(e.db, req.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != store.RequestRejected {
		t.Errorf("status = %q, want rejected", got.Status)
	}

	var count int
	if err := e.db.QueryRow(`SELECT COUNT(*) FROM contacts`).Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Errorf("reject created %d contact rows, want 0", count)
	}
}

func TestResendReopensSameRow(t *testing.T) {
	e := newEnv(t)
	a := e.register(t, "alice")
	b := e.register(t, "bob")

	req, err := e.contacts.Request(a.ID, b.ID, "first try")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.contacts.Reject(b.ID, req.ID); err != nil {
		t.Fatal(err)
	}

	again, err := e.contacts.Request(a.ID, b.ID, "second try")
	if err != nil {
		t.Fatal(err)
	}
	if again.ID != req.ID {
		t.Error("re-request created a new row")
	}
	if again.Status != store.RequestPending || again.Message != "second try" {
		t.Errorf("reopened request = %+v", again)
	}

	var count int
	if err := e.db.QueryRow(
		`SELECT COUNT(*) FROM contact_requests WHERE from_user_id = ? AND to_user_id = ?`,
		a.ID, b.ID).Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("request rows = %d, want 1", count)
	}
}

func TestCancelByRequester(t *testing.T) {
	e := newEnv(t)
	a := e.register(t, "alice")
	b := e.register(t, "bob")

	req, err := e.contacts.Request(a.ID, b.ID, "")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.contacts.Cancel(a.ID, req.ID); err != nil {
		t.Fatal(err)
	}

	got, err := store.GetRequest(e.db, req.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != store.RequestCancelled {
		t.Errorf("status = %q, want cancelled", got.Status)
	}
}

func TestRequestUnknownRecipient(t *testing.T) {
	e := newEnv(t)
	a := e.register(t, "alice")

	_, err := e.contacts.Request(a.ID, "no-such-user", "")
	if !fault.IsKind(err, fault.NotFound) {
		t.Errorf("got %v, want NotFound", err)
	}

	_, err = e.contacts.Request(a.ID, a.ID, "")
	if !fault.IsKind(err, fault.Validation) {
		t.Errorf("self-request: got %v, want Validation", err)
	}
}

func TestBlockWithoutRelationship(t *testing.T) {
	e := newEnv(t)
	a := e.register(t, "alice")
	b := e.register(t, "bob")

	if err := e.contacts.Block(a.ID, b.ID, true); err != nil {
		t.Fatal(err)
	}

	contacts, err := e.contacts.List(a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(contacts) != 1 || !contacts[0].Blocked {
		t.Errorf("list = %+v, want one blocked row", contacts)
	}

	// The block is one-directional.
	theirs, err := e.contacts.List(b.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(theirs) != 0 {
		t.Errorf("target gained %d rows", len(theirs))
	}
}
