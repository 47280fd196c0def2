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

// Contacts runs the request/accept/reject/cancel state machine and
// materializes symmetric contact relationships on acceptance.
type Contacts struct {
	db  *store.DB
	bus *bus.Bus
	log *zap.Logger
}

// NewContacts creates the contact engine.
func NewContacts(db *store.DB, b *bus.Bus, log *zap.Logger) *Contacts {
	return &Contacts{db: db, bus: b, log: log}
}

// List returns the caller's directed contact rows, newest-first.
func (s *Contacts) List(callerID string) ([]store.Contact, error) {
	contacts, err := store.ListContacts(s.db, callerID)
	if err != nil {
		return nil, store.Classify(err)
	}
	return contacts, nil
}

// Request sends (or re-sends) a contact request to another user. A request
// already in a terminal state is reopened to pending on the same row; the
// (from, to) pair never holds more than one row.
func (s *Contacts) Request(callerID, toUserID, message string) (*store.ContactRequest, error) {
	if toUserID == "" || toUserID == callerID {
		return nil, fault.New(fault.Validation, "invalid request recipient")
	}
	target, err := store.GetUser(s.db, toUserID)
	if err != nil {
		return nil, store.Classify(err)
	}
	if target == nil || target.DeletedAt != 0 {
		return nil, fault.Newf(fault.NotFound, "user %q not found", toUserID)
	}

	now := time.Now().UnixMilli()
	existing, err := store.GetRequestByPair(s.db, callerID, toUserID)
	if err != nil {
		return nil, store.Classify(err)
	}
	if existing != nil {
		if err := store.ReopenRequest(s.db, existing.ID, message, now); err != nil {
			return nil, store.Classify(err)
		}
		reopened, err := store.GetRequest(s.db, existing.ID)
		if err != nil {
			return nil, store.Classify(err)
		}
		s.bus.Publish(bus.KindContactRequested, reopened)
		return reopened, nil
	}

	req := &store.ContactRequest{
		ID:         uuid.New().String(),
		FromUserID: callerID,
		ToUserID:   toUserID,
		Message:    message,
		Status:     store.RequestPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := store.InsertRequest(s.db, req); err != nil {
		return nil, store.Classify(err)
	}

	s.bus.Publish(bus.KindContactRequested, req)
	s.log.Info("contact request sent",
		zap.String("from", callerID), zap.String("to", toUserID))
	return req, nil
}

// Accept transitions a pending request to accepted and, in the same
// transaction, materializes both directional contact rows. A second accept
// is a no-op: existing rows are never duplicated. Only the recipient may
// accept. Returns the caller's own directional row.
func (s *Contacts) Accept(callerID, requestID string) (*store.Contact, error) {
	req, err := s.request(requestID)
	if err != nil {
		return nil, err
	}
	if req.ToUserID != callerID {
		return nil, fault.New(fault.PermissionDenied, "only the recipient may accept a request")
	}

	now := time.Now().UnixMilli()
	err = s.db.WithTx(func(tx *sql.Tx) error {
		if err := store.SetRequestStatus(tx, req.ID, store.RequestAccepted, now); err != nil {
			return err
		}
		if err := store.EnsureContact(tx, req.FromUserID, req.ToUserID, now); err != nil {
			return err
		}
		return store.EnsureContact(tx, req.ToUserID, req.FromUserID, now)
	})
	if err != nil {
		return nil, err
	}

	s.bus.Publish(bus.KindContactAccepted, req)
	s.log.Info("contact request accepted", zap.String("request_id", req.ID))

	mine, err := store.GetContact(s.db, callerID, req.FromUserID)
	if err != nil {
		return nil, store.Classify(err)
	}
	return mine, nil
}

// Reject transitions a request to rejected. Only the recipient may reject.
// No contact rows are created; the returned row is the caller's existing
// directional contact if one happens to exist, else nil.
func (s *Contacts) Reject(callerID, requestID string) (*store.Contact, error) {
	req, err := s.request(requestID)
	if err != nil {
		return nil, err
	}
	if req.ToUserID != callerID {
		return nil, fault.New(fault.PermissionDenied, "only the recipient may reject a request")
	}
	return s.closeRequest(callerID, req, store.RequestRejected, req.FromUserID)
}

// Cancel transitions a request to cancelled. Only the requester may cancel.
func (s *Contacts) Cancel(callerID, requestID string) (*store.Contact, error) {
	req, err := s.request(requestID)
	if err != nil {
		return nil, err
	}
	if req.FromUserID != callerID {
		return nil, fault.New(fault.PermissionDenied, "only the requester may cancel a request")
	}
	return s.closeRequest(callerID, req, store.RequestCancelled, req.ToUserID)
}

func (s *Contacts) closeRequest(callerID string, req *store.ContactRequest, status, otherID string) (*store.Contact, error) {
	if err := store.SetRequestStatus(s.db, req.ID, status, time.Now().UnixMilli()); err != nil {
		return nil, store.Classify(err)
	}
	existing, err := store.GetContact(s.db, callerID, otherID)
	if err != nil {
		return nil, store.Classify(err)
	}
	return existing, nil
}

func (s *Contacts) request(requestID string) (*store.ContactRequest, error) {
	req, err := store.GetRequest(s.db, requestID)
	if err != nil {
		return nil, store.Classify(err)
	}
	if req == nil {
		return nil, fault.Newf(fault.NotFound, "contact request %q not found", requestID)
	}
	return req, nil
}

// Block upserts the caller's directed row toward target with the blocked
// flag. No pre-existing relationship is required; a block-only row may be
// created from nothing.
func (s *Contacts) Block(callerID, targetID string, blocked bool) error {
	if targetID == "" || targetID == callerID {
		return fault.New(fault.Validation, "invalid block target")
	}
	if err := store.SetContactBlocked(s.db, callerID, targetID, blocked); err != nil {
		return store.Classify(err)
	}
	s.log.Info("contact block flag set",
		zap.String("user", callerID), zap.String("target", targetID), zap.Bool("blocked", blocked))
	return nil
}
