package store

import "database/sql"

// AddMember inserts a membership row. Duplicate (chat, user) pairs are
// absorbed: the existing row wins and no error is returned.
func AddMember(q DBTX, m *Member) error {
	_, err := q.Exec(`
		INSERT INTO chat_members (id, chat_id, user_id, role, joined_at, left_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(chat_id, user_id) DO NOTHING`,
		m.ID, m.ChatID, m.UserID, m.Role, m.JoinedAt, zeroNull(m.LeftAt))
	return err
}

// GetActiveMember returns the active membership row for (chat, user), or
// nil when the user is not an active member.
func GetActiveMember(q DBTX, chatID, userID string) (*Member, error) {
	var m Member
	var leftAt sql.NullInt64
	err := q.QueryRow(`
		SELECT id, chat_id, user_id, role, joined_at, left_at
		FROM chat_members
		WHERE chat_id = ? AND user_id = ? AND left_at IS NULL`,
		chatID, userID).
		Scan(&m.ID, &m.ChatID, &m.UserID, &m.Role, &m.JoinedAt, &leftAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	m.LeftAt = leftAt.Int64
	return &m, nil
}

// ListActiveMemberIDs returns the user ids of all active members of a chat.
func ListActiveMemberIDs(q DBTX, chatID string) ([]string, error) {
	rows, err := q.Query(`
		SELECT user_id FROM chat_members
		WHERE chat_id = ? AND left_at IS NULL`, chatID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
