package store

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

const contactCols = `id, user_id, contact_user_id, COALESCE(nickname, ''),
	blocked, favorite, created_at`

func scanContact(row interface{ Scan(...any) error }) (*Contact, error) {
	var c Contact
	err := row.Scan(&c.ID, &c.UserID, &c.ContactUserID, &c.Nickname,
		&c.Blocked, &c.Favorite, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetContact returns the directed (user -> contact) row, or nil when absent.
func GetContact(q DBTX, userID, contactUserID string) (*Contact, error) {
	return scanContact(q.QueryRow(`
		SELECT `+contactCols+` FROM contacts
		WHERE user_id = ? AND contact_user_id = ?`, userID, contactUserID))
}

// ListContacts returns all directed contact rows owned by the user,
// newest-first.
func ListContacts(q DBTX, userID string) ([]Contact, error) {
	rows, err := q.Query(`
		SELECT `+contactCols+` FROM contacts
		WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var contacts []Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		contacts = append(contacts, *c)
	}
	return contacts, rows.Err()
}

// EnsureContact inserts the directed (user -> contact) row if absent. The
// existing row is left untouched, which makes a second accept a no-op.
func EnsureContact(q DBTX, userID, contactUserID string, now int64) error {
	_, err := q.Exec(`
		INSERT INTO contacts (id, user_id, contact_user_id, blocked, favorite, created_at)
		VALUES (?, ?, ?, 0, 0, ?)
		ON CONFLICT(user_id, contact_user_id) DO NOTHING`,
		uuid.New().String(), userID, contactUserID, now)
	return err
}

// SetContactBlocked upserts the directed row with the blocked flag. A
// block-only row may be created where no relationship existed before.
func SetContactBlocked(q DBTX, userID, contactUserID string, blocked bool) error {
	now := time.Now().UnixMilli()
	_, err := q.Exec(`
		INSERT INTO contacts (id, user_id, contact_user_id, blocked, favorite, created_at)
		VALUES (?, ?, ?, ?, 0, ?)
		ON CONFLICT(user_id, contact_user_id) DO UPDATE SET blocked = excluded.blocked`,
		uuid.New().String(), userID, contactUserID, blocked, now)
	return err
}

const requestCols = `id, from_user_id, to_user_id, COALESCE(message, ''),
	status, created_at, updated_at`

func scanRequest(row interface{ Scan(...any) error }) (*ContactRequest, error) {
	var r ContactRequest
	err := row.Scan(&r.ID, &r.FromUserID, &r.ToUserID, &r.Message,
		&r.Status, &r.CreatedAt, &r.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// GetRequest returns a contact request by id, or nil when absent.
func GetRequest(q DBTX, id string) (*ContactRequest, error) {
	return scanRequest(q.QueryRow(`
		SELECT `+requestCols+` FROM contact_requests WHERE id = ?`, id))
}

// GetRequestByPair returns the request for the ordered (from, to) pair, or
// nil when absent. The pair is unique, so re-requests reuse this row.
func GetRequestByPair(q DBTX, fromUserID, toUserID string) (*ContactRequest, error) {
	return scanRequest(q.QueryRow(`
		SELECT `+requestCols+` FROM contact_requests
		WHERE from_user_id = ? AND to_user_id = ?`, fromUserID, toUserID))
}

// InsertRequest inserts a new pending contact request.
func InsertRequest(q DBTX, r *ContactRequest) error {
	_, err := q.Exec(`
		INSERT INTO contact_requests (id, from_user_id, to_user_id, message, status,
			created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.FromUserID, r.ToUserID, nullable(r.Message), r.Status,
		r.CreatedAt, r.UpdatedAt)
	return err
}

// SetRequestStatus transitions a request's status.
func SetRequestStatus(q DBTX, id, status string, now int64) error {
	_, err := q.Exec(`
		UPDATE contact_requests SET status = ?, updated_at = ? WHERE id = ?`,
		status, now, id)
	return err
}

// ReopenRequest transitions the same row back to pending, optionally
// replacing the attached message. No duplicate row is ever created.
func ReopenRequest(q DBTX, id, message string, now int64) error {
	if message != "" {
		_, err := q.Exec(`
			UPDATE contact_requests SET message = ?, status = ?, updated_at = ?
			WHERE id = ?`,
			message, RequestPending, now, id)
		return err
	}
	_, err := q.Exec(`
		UPDATE contact_requests SET status = ?, updated_at = ? WHERE id = ?`,
		RequestPending, now, id)
	return err
}
