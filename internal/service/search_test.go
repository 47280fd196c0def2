package service

import (
	"testing"

	"github.com/typez/typezd/internal/fault"
)

func TestSearchRejectsMalformedQuery(t *testing.T) {
	e := newEnv(t)
	e.register(t, "alice")

	if _, err := e.search.Messages(`"unbalanced`, MessageOptions{}); !fault.IsKind(err, fault.Validation) {
		t.Errorf("messages: got %v, want Validation", err)
	}
	if _, err := e.search.Users(`"unbalanced`, 10, 0); !fault.IsKind(err, fault.Validation) {
		t.Errorf("users: got %v, want Validation", err)
	}
}

func TestSearchEmptyQueryMatchesNothing(t *testing.T) {
	e := newEnv(t)
	e.register(t, "alice")

	msgs, err := e.search.Messages("   ", MessageOptions{})
	if err != nil || msgs != nil {
		t.Errorf("messages: got (%v, %v), want empty and no error", msgs, err)
	}
	users, err := e.search.Users("", 10, 0)
	if err != nil || users != nil {
		t.Errorf("users: got (%v, %v), want empty and no error", users, err)
	}
}
