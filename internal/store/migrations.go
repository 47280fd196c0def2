package store

import "database/sql"

// migrations returns the ordered manifest. Append only: steps are never
// removed or renamed once a released build has recorded them in the ledger,
// and no step drops or renames what an earlier step created.
func migrations() []migration {
	return []migration{
		{id: "001_init", apply: applyInit},
		{id: "002_im_core", apply: applyIMCore},
		{id: "003_search", apply: applySearch},
	}
}

// applyInit creates the base tables.
func applyInit(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id           TEXT PRIMARY KEY,
			username     TEXT NOT NULL UNIQUE,
			display_name TEXT NOT NULL,
			password     TEXT NOT NULL,
			avatar_url   TEXT,
			phone        TEXT,
			bio          TEXT,
			status       TEXT NOT NULL DEFAULT 'offline'
				CHECK(status IN ('online', 'offline', 'away', 'busy')),
			last_seen    INTEGER,
			created_at   INTEGER NOT NULL,
			updated_at   INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS chats (
			id              TEXT PRIMARY KEY,
			type            TEXT NOT NULL CHECK(type IN ('direct', 'group', 'channel')),
			title           TEXT,
			avatar_url      TEXT,
			description     TEXT,
			member_count    INTEGER NOT NULL DEFAULT 0,
			last_message_id TEXT,
			last_message_at INTEGER,
			created_at      INTEGER NOT NULL,
			updated_at      INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS chat_members (
			id        TEXT PRIMARY KEY,
			chat_id   TEXT NOT NULL REFERENCES chats(id) ON DELETE CASCADE,
			user_id   TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			role      TEXT NOT NULL DEFAULT 'member'
				CHECK(role IN ('owner', 'admin', 'member')),
			joined_at INTEGER NOT NULL,
			left_at   INTEGER,
			UNIQUE(chat_id, user_id)
		);
		CREATE INDEX IF NOT EXISTS idx_chat_members_user ON chat_members(user_id);
		CREATE INDEX IF NOT EXISTS idx_chat_members_chat ON chat_members(chat_id);

		CREATE TABLE IF NOT EXISTS messages (
			id                TEXT PRIMARY KEY,
			chat_id           TEXT NOT NULL REFERENCES chats(id) ON DELETE CASCADE,
			sender_id         TEXT NOT NULL REFERENCES users(id),
			content           TEXT NOT NULL,
			type              TEXT NOT NULL DEFAULT 'text',
			reply_to_id       TEXT,
			forwarded_from_id TEXT,
			edited            INTEGER NOT NULL DEFAULT 0,
			read              INTEGER NOT NULL DEFAULT 0,
			created_at        INTEGER NOT NULL,
			updated_at        INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_messages_chat_created
			ON messages(chat_id, created_at DESC);

		CREATE TABLE IF NOT EXISTS contacts (
			id              TEXT PRIMARY KEY,
			user_id         TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			contact_user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			nickname        TEXT,
			blocked         INTEGER NOT NULL DEFAULT 0,
			favorite        INTEGER NOT NULL DEFAULT 0,
			created_at      INTEGER NOT NULL,
			UNIQUE(user_id, contact_user_id)
		);
		CREATE INDEX IF NOT EXISTS idx_contacts_user ON contacts(user_id, created_at DESC);
	`)
	return err
}

// applyIMCore extends the base tables with soft-delete markers and adds the
// contact request and per-user chat settings tables.
func applyIMCore(tx *sql.Tx) error {
	cols := []struct {
		table, column, definition string
	}{
		{"users", "kind", `TEXT NOT NULL DEFAULT 'human' CHECK(kind IN ('human', 'bot', 'system'))`},
		{"users", "deleted_at", "INTEGER"},
		{"chats", "created_by", "TEXT"},
		{"chats", "deleted_at", "INTEGER"},
		{"messages", "edited_at", "INTEGER"},
		{"messages", "deleted_at", "INTEGER"},
	}
	for _, c := range cols {
		if err := addColumnIfAbsent(tx, c.table, c.column, c.definition); err != nil {
			return err
		}
	}

	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS contact_requests (
			id           TEXT PRIMARY KEY,
			from_user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			to_user_id   TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			message      TEXT,
			status       TEXT NOT NULL DEFAULT 'pending'
				CHECK(status IN ('pending', 'accepted', 'rejected', 'cancelled')),
			created_at   INTEGER NOT NULL,
			updated_at   INTEGER NOT NULL,
			UNIQUE(from_user_id, to_user_id)
		);
		CREATE INDEX IF NOT EXISTS idx_contact_requests_to
			ON contact_requests(to_user_id, created_at DESC);
		CREATE INDEX IF NOT EXISTS idx_contact_requests_from
			ON contact_requests(from_user_id, created_at DESC);

		CREATE TABLE IF NOT EXISTS chat_user_settings (
			id                   TEXT PRIMARY KEY,
			user_id              TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			chat_id              TEXT NOT NULL REFERENCES chats(id) ON DELETE CASCADE,
			pinned               INTEGER NOT NULL DEFAULT 0,
			muted                INTEGER NOT NULL DEFAULT 0,
			archived             INTEGER NOT NULL DEFAULT 0,
			last_read_message_id TEXT,
			last_read_at         INTEGER,
			unread_count         INTEGER NOT NULL DEFAULT 0,
			updated_at           INTEGER NOT NULL,
			UNIQUE(user_id, chat_id)
		);
		CREATE INDEX IF NOT EXISTS idx_chat_user_settings_user ON chat_user_settings(user_id);
		CREATE INDEX IF NOT EXISTS idx_chat_user_settings_chat ON chat_user_settings(chat_id);
	`)
	return err
}

// applySearch creates the full-text shadow tables. fts4 is the module the
// stock mattn/go-sqlite3 build ships with; fts5 is gated behind a build tag
// and a plain go build would abort this step. The shadows are written
// explicitly in the same transaction as every primary write; there are no
// triggers and no background reconciliation.
func applySearch(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS messages_fts USING fts4(
			content,
			chat_id,
			sender_id,
			message_id,
			tokenize=unicode61,
			notindexed=chat_id,
			notindexed=sender_id,
			notindexed=message_id
		);

		CREATE VIRTUAL TABLE IF NOT EXISTS users_fts USING fts4(
			username,
			display_name,
			user_id,
			tokenize=unicode61,
			notindexed=user_id
		);
	`)
	return err
}
