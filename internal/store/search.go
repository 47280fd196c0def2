package store

import (
	"strings"

	"github.com/typez/typezd/internal/fault"
)

// classifyMatch maps the FTS module's query-syntax errors to Validation,
// since they are caused by the caller's query text, not by the store.
func classifyMatch(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	if strings.Contains(msg, "malformed MATCH expression") ||
		strings.Contains(msg, "fts5: syntax error") {
		return fault.Wrap(fault.Validation, err, "malformed search query")
	}
	return err
}

// SearchMessages performs a full-text match over message content, optionally
// scoped to one chat, and hydrates full primary rows newest-first. The
// shadow holds only indexed text plus the foreign key used to rejoin here.
func SearchMessages(q DBTX, query, chatID string, limit, offset int) ([]Message, error) {
	if limit <= 0 {
		limit = 50
	}

	sqlq := `
		SELECT ` + messageColsPrefixed + `
		FROM messages_fts f
		JOIN messages m ON m.id = f.message_id
		WHERE messages_fts MATCH ? AND m.deleted_at IS NULL`
	args := []any{query}
	if chatID != "" {
		sqlq += " AND m.chat_id = ?"
		args = append(args, chatID)
	}
	sqlq += " ORDER BY m.created_at DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := q.Query(sqlq, args...)
	if err != nil {
		return nil, classifyMatch(err)
	}
	defer func() { _ = rows.Close() }()

	var msgs []Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, *m)
	}
	return msgs, classifyMatch(rows.Err())
}

const messageColsPrefixed = `m.id, m.chat_id, m.sender_id, m.content, m.type,
	COALESCE(m.reply_to_id, ''), COALESCE(m.forwarded_from_id, ''),
	m.edited, COALESCE(m.edited_at, 0), m.read, COALESCE(m.deleted_at, 0),
	m.created_at, m.updated_at`

// SearchUsers performs a full-text match over usernames and display names,
// hydrated back to full user rows.
func SearchUsers(q DBTX, query string, limit, offset int) ([]User, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := q.Query(`
		SELECT `+userColsPrefixed+`
		FROM users_fts f
		JOIN users u ON u.id = f.user_id
		WHERE users_fts MATCH ? AND u.deleted_at IS NULL
		LIMIT ? OFFSET ?`, query, limit, offset)
	if err != nil {
		return nil, classifyMatch(err)
	}
	defer func() { _ = rows.Close() }()

	var users []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, classifyMatch(rows.Err())
}

const userColsPrefixed = `u.id, u.username, u.display_name, u.password,
	COALESCE(u.avatar_url, ''), COALESCE(u.phone, ''), COALESCE(u.bio, ''),
	u.status, u.kind, COALESCE(u.last_seen, 0), COALESCE(u.deleted_at, 0),
	u.created_at, u.updated_at`
