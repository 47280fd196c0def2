package fault

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	err := New(NotFound, "user missing")
	if KindOf(err) != NotFound {
		t.Errorf("KindOf = %q, want %q", KindOf(err), NotFound)
	}
}

func TestKindOfDefaultsToInternal(t *testing.T) {
	if KindOf(errors.New("plain")) != Internal {
		t.Error("plain error should classify as Internal")
	}
}

func TestKindSurvivesWrapping(t *testing.T) {
	inner := New(StoreBusy, "database is locked")
	outer := fmt.Errorf("send message: %w", inner)

	if !IsKind(outer, StoreBusy) {
		t.Errorf("wrapped error lost kind: %v", outer)
	}
}

func TestWrapNil(t *testing.T) {
	if Wrap(Internal, nil, "ignored") != nil {
		t.Error("Wrap(nil) should return nil")
	}
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("disk io")
	err := Wrap(Internal, cause, "insert user")
	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the wrapped cause")
	}
}
