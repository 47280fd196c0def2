package store

import (
	"database/sql"
	"time"
)

const messageCols = `id, chat_id, sender_id, content, type,
	COALESCE(reply_to_id, ''), COALESCE(forwarded_from_id, ''),
	edited, COALESCE(edited_at, 0), read, COALESCE(deleted_at, 0),
	created_at, updated_at`

func scanMessage(row interface{ Scan(...any) error }) (*Message, error) {
	var m Message
	err := row.Scan(&m.ID, &m.ChatID, &m.SenderID, &m.Content, &m.Type,
		&m.ReplyToID, &m.ForwardedFromID,
		&m.Edited, &m.EditedAt, &m.Read, &m.DeletedAt,
		&m.CreatedAt, &m.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// InsertMessage inserts a message row together with its messages_fts shadow
// row. Both writes share the caller's transaction so search can never
// observe a message the primary table does not hold.
func InsertMessage(q DBTX, m *Message) error {
	_, err := q.Exec(`
		INSERT INTO messages (id, chat_id, sender_id, content, type,
			reply_to_id, forwarded_from_id, edited, read, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.ChatID, m.SenderID, m.Content, m.Type,
		nullable(m.ReplyToID), nullable(m.ForwardedFromID),
		m.Edited, m.Read, m.CreatedAt, m.UpdatedAt)
	if err != nil {
		return err
	}
	_, err = q.Exec(`
		INSERT INTO messages_fts (content, chat_id, sender_id, message_id)
		VALUES (?, ?, ?, ?)`,
		m.Content, m.ChatID, m.SenderID, m.ID)
	return err
}

// GetMessage returns a message by id, or nil when absent.
func GetMessage(q DBTX, id string) (*Message, error) {
	return scanMessage(q.QueryRow(`SELECT `+messageCols+` FROM messages WHERE id = ?`, id))
}

// ListMessages returns a chat's messages newest-first, paginated.
// Soft-deleted messages are excluded.
func ListMessages(q DBTX, chatID string, limit, offset int) ([]Message, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := q.Query(`
		SELECT `+messageCols+`
		FROM messages
		WHERE chat_id = ? AND deleted_at IS NULL
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?`, chatID, limit, offset)
	if err != nil {
		return nil, err
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
	return msgs, rows.Err()
}

// UpdateMessageContent rewrites a message's content and replaces its shadow
// row, so the old text immediately stops matching searches.
func UpdateMessageContent(q DBTX, id, content string) error {
	now := time.Now().UnixMilli()
	_, err := q.Exec(`
		UPDATE messages SET content = ?, edited = 1, edited_at = ?, updated_at = ?
		WHERE id = ?`,
		content, now, now, id)
	if err != nil {
		return err
	}
	_, err = q.Exec(`UPDATE messages_fts SET content = ? WHERE message_id = ?`, content, id)
	return err
}

// SoftDeleteMessage marks the message deleted and removes its shadow row.
// The primary row stays to preserve referential history.
func SoftDeleteMessage(q DBTX, id string) error {
	now := time.Now().UnixMilli()
	_, err := q.Exec(`
		UPDATE messages SET deleted_at = ?, updated_at = ? WHERE id = ?`,
		now, now, id)
	if err != nil {
		return err
	}
	_, err = q.Exec(`DELETE FROM messages_fts WHERE message_id = ?`, id)
	return err
}
