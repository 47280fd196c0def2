package store

import (
	"database/sql"

	"github.com/google/uuid"
)

const settingsCols = `id, user_id, chat_id, pinned, muted, archived,
	COALESCE(last_read_message_id, ''), COALESCE(last_read_at, 0),
	unread_count, updated_at`

func scanSettings(row interface{ Scan(...any) error }) (*ChatUserSettings, error) {
	var s ChatUserSettings
	err := row.Scan(&s.ID, &s.UserID, &s.ChatID, &s.Pinned, &s.Muted, &s.Archived,
		&s.LastReadMessageID, &s.LastReadAt, &s.UnreadCount, &s.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetSettings returns the (user, chat) settings row, or nil when it has not
// been materialized yet.
func GetSettings(q DBTX, userID, chatID string) (*ChatUserSettings, error) {
	return scanSettings(q.QueryRow(`
		SELECT `+settingsCols+` FROM chat_user_settings
		WHERE user_id = ? AND chat_id = ?`, userID, chatID))
}

// EnsureSettings materializes the (user, chat) settings row if absent.
// The unique constraint keeps the pair at one row even under concurrent
// materialization.
func EnsureSettings(q DBTX, userID, chatID string, now int64) error {
	_, err := q.Exec(`
		INSERT INTO chat_user_settings (id, user_id, chat_id, unread_count, updated_at)
		VALUES (?, ?, ?, 0, ?)
		ON CONFLICT(user_id, chat_id) DO NOTHING`,
		uuid.New().String(), userID, chatID, now)
	return err
}

// IncrementUnread adds one to the unread counter, materializing the row
// first if needed.
func IncrementUnread(q DBTX, userID, chatID string, now int64) error {
	if err := EnsureSettings(q, userID, chatID, now); err != nil {
		return err
	}
	_, err := q.Exec(`
		UPDATE chat_user_settings
		SET unread_count = unread_count + 1, updated_at = ?
		WHERE user_id = ? AND chat_id = ?`,
		now, userID, chatID)
	return err
}

// MarkRead resets the unread counter to zero and stores the acknowledged
// message id. The id is recorded as supplied; it is not checked against the
// newest message.
func MarkRead(q DBTX, userID, chatID, messageID string, now int64) error {
	if err := EnsureSettings(q, userID, chatID, now); err != nil {
		return err
	}
	_, err := q.Exec(`
		UPDATE chat_user_settings
		SET last_read_message_id = ?, last_read_at = ?, unread_count = 0, updated_at = ?
		WHERE user_id = ? AND chat_id = ?`,
		nullable(messageID), now, now, userID, chatID)
	return err
}

// SettingsPatch carries a partial update of the per-chat flags. Nil fields
// are left untouched.
type SettingsPatch struct {
	Pinned   *bool
	Muted    *bool
	Archived *bool
}

// PatchSettings applies a partial update to the (user, chat) settings row,
// materializing it first if needed, and returns the updated row.
func PatchSettings(q DBTX, userID, chatID string, p SettingsPatch, now int64) (*ChatUserSettings, error) {
	if err := EnsureSettings(q, userID, chatID, now); err != nil {
		return nil, err
	}

	sets := "updated_at = ?"
	args := []any{now}
	if p.Pinned != nil {
		sets += ", pinned = ?"
		args = append(args, *p.Pinned)
	}
	if p.Muted != nil {
		sets += ", muted = ?"
		args = append(args, *p.Muted)
	}
	if p.Archived != nil {
		sets += ", archived = ?"
		args = append(args, *p.Archived)
	}
	args = append(args, userID, chatID)

	if _, err := q.Exec(`
		UPDATE chat_user_settings SET `+sets+`
		WHERE user_id = ? AND chat_id = ?`, args...); err != nil {
		return nil, err
	}
	return GetSettings(q, userID, chatID)
}
