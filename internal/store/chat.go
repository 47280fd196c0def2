package store

import (
	"database/sql"
	"time"
)

const chatCols = `id, type, COALESCE(title, ''), COALESCE(avatar_url, ''),
	COALESCE(description, ''), member_count,
	COALESCE(last_message_id, ''), COALESCE(last_message_at, 0),
	COALESCE(created_by, ''), COALESCE(deleted_at, 0), created_at, updated_at`

func scanChat(row interface{ Scan(...any) error }) (*Chat, error) {
	var c Chat
	err := row.Scan(&c.ID, &c.Type, &c.Title, &c.AvatarURL,
		&c.Description, &c.MemberCount,
		&c.LastMessageID, &c.LastMessageAt,
		&c.CreatedBy, &c.DeletedAt, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// InsertChat inserts a new chat row.
func InsertChat(q DBTX, c *Chat) error {
	_, err := q.Exec(`
		INSERT INTO chats (id, type, title, avatar_url, description, member_count,
			last_message_id, last_message_at, created_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Type, nullable(c.Title), nullable(c.AvatarURL), nullable(c.Description),
		c.MemberCount, nullable(c.LastMessageID), zeroNull(c.LastMessageAt),
		nullable(c.CreatedBy), c.CreatedAt, c.UpdatedAt)
	return err
}

// GetChat returns a chat by id, or nil when absent.
func GetChat(q DBTX, id string) (*Chat, error) {
	return scanChat(q.QueryRow(`SELECT `+chatCols+` FROM chats WHERE id = ?`, id))
}

// ListChatsForUser returns the chats where the user holds an active
// membership, most recently active first.
func ListChatsForUser(q DBTX, userID string) ([]Chat, error) {
	rows, err := q.Query(`
		SELECT `+chatColsPrefixed+`
		FROM chats c
		JOIN chat_members m ON m.chat_id = c.id
		WHERE m.user_id = ? AND m.left_at IS NULL AND c.deleted_at IS NULL
		ORDER BY c.last_message_at DESC, c.updated_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var chats []Chat
	for rows.Next() {
		c, err := scanChat(rows)
		if err != nil {
			return nil, err
		}
		chats = append(chats, *c)
	}
	return chats, rows.Err()
}

const chatColsPrefixed = `c.id, c.type, COALESCE(c.title, ''), COALESCE(c.avatar_url, ''),
	COALESCE(c.description, ''), c.member_count,
	COALESCE(c.last_message_id, ''), COALESCE(c.last_message_at, 0),
	COALESCE(c.created_by, ''), COALESCE(c.deleted_at, 0), c.created_at, c.updated_at`

// SetChatLastMessage updates the chat's cached last-message pointer.
func SetChatLastMessage(q DBTX, chatID, messageID string, at int64) error {
	_, err := q.Exec(`
		UPDATE chats SET last_message_id = ?, last_message_at = ?, updated_at = ?
		WHERE id = ?`,
		messageID, at, at, chatID)
	return err
}

// RecomputeMemberCount sets member_count from the live count of active
// membership rows. Always recomputed, never incremented, so duplicate or
// partial inserts cannot drift the cache.
func RecomputeMemberCount(q DBTX, chatID string) error {
	now := time.Now().UnixMilli()
	_, err := q.Exec(`
		UPDATE chats SET member_count = (
			SELECT COUNT(1) FROM chat_members
			WHERE chat_id = ? AND left_at IS NULL
		), updated_at = ?
		WHERE id = ?`,
		chatID, now, chatID)
	return err
}

func zeroNull(v int64) any {
	if v == 0 {
		return nil
	}
	return v
}
