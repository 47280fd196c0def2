package store

import (
	"database/sql"
	"time"
)

const userCols = `id, username, display_name, password,
	COALESCE(avatar_url, ''), COALESCE(phone, ''), COALESCE(bio, ''),
	status, kind, COALESCE(last_seen, 0), COALESCE(deleted_at, 0),
	created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.DisplayName, &u.Password,
		&u.AvatarURL, &u.Phone, &u.Bio,
		&u.Status, &u.Kind, &u.LastSeen, &u.DeletedAt,
		&u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// InsertUser inserts a user row and its users_fts shadow row in the same
// write. Callers that need atomicity pass a transaction.
func InsertUser(q DBTX, u *User) error {
	_, err := q.Exec(`
		INSERT INTO users (id, username, display_name, password, avatar_url, phone, bio,
			status, kind, last_seen, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Username, u.DisplayName, u.Password, nullable(u.AvatarURL), nullable(u.Phone),
		nullable(u.Bio), u.Status, u.Kind, u.LastSeen, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return err
	}
	_, err = q.Exec(`
		INSERT INTO users_fts (username, display_name, user_id)
		VALUES (?, ?, ?)`,
		u.Username, u.DisplayName, u.ID)
	return err
}

// GetUser returns a user by id, or nil when absent.
func GetUser(q DBTX, id string) (*User, error) {
	return scanUser(q.QueryRow(`SELECT `+userCols+` FROM users WHERE id = ?`, id))
}

// GetUserByUsername returns a user by username, or nil when absent.
func GetUserByUsername(q DBTX, username string) (*User, error) {
	return scanUser(q.QueryRow(`SELECT `+userCols+` FROM users WHERE username = ?`, username))
}

// UpdateUserDisplayName rewrites the display name and keeps the users_fts
// shadow in step. Both writes share the caller's transaction.
func UpdateUserDisplayName(q DBTX, id, displayName string) error {
	now := time.Now().UnixMilli()
	_, err := q.Exec(`
		UPDATE users SET display_name = ?, updated_at = ? WHERE id = ?`,
		displayName, now, id)
	if err != nil {
		return err
	}
	_, err = q.Exec(`UPDATE users_fts SET display_name = ? WHERE user_id = ?`, displayName, id)
	return err
}

// SetUserPresence updates a user's presence status and last-seen marker.
func SetUserPresence(q DBTX, id, status string) error {
	now := time.Now().UnixMilli()
	_, err := q.Exec(`
		UPDATE users SET status = ?, last_seen = ?, updated_at = ? WHERE id = ?`,
		status, now, now, id)
	return err
}

// nullable maps "" to NULL so optional text columns stay NULL on disk.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
