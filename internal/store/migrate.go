package store

import (
	"database/sql"
	"fmt"
	"time"
)

// migration is one ordered, idempotent schema-change step. The engine
// guarantees each id runs at most once; apply itself must tolerate being
// re-invoked against a partially upgraded schema (column guards, CREATE IF
// NOT EXISTS), which covers a crashed prior run whose DDL stuck but whose
// ledger entry did not.
type migration struct {
	id          string
	shouldApply func() bool // nil means always
	apply       func(tx *sql.Tx) error
}

// MigrateResult describes what happened during a migration pass.
type MigrateResult struct {
	Applied []string
	Changed bool
}

// Migrate runs all pending migrations in manifest order. The whole pass
// executes inside one transaction: a mid-pass failure commits no new ledger
// entries. Running Migrate twice leaves the schema and ledger unchanged.
func (db *DB) Migrate() (*MigrateResult, error) {
	return db.migrate(migrations())
}

func (db *DB) migrate(manifest []migration) (*MigrateResult, error) {
	if err := db.checkFTSModule(); err != nil {
		return nil, err
	}
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			id         TEXT PRIMARY KEY,
			applied_at INTEGER NOT NULL
		)`); err != nil {
		return nil, fmt.Errorf("create migration ledger: %w", err)
	}

	applied, err := db.appliedMigrations()
	if err != nil {
		return nil, err
	}

	result := &MigrateResult{}
	now := time.Now().UnixMilli()
	err = db.WithTx(func(tx *sql.Tx) error {
		for _, m := range manifest {
			if m.shouldApply != nil && !m.shouldApply() {
				continue
			}
			if applied[m.id] {
				continue
			}
			if err := m.apply(tx); err != nil {
				return fmt.Errorf("apply migration %s: %w", m.id, err)
			}
			if _, err := tx.Exec(
				`INSERT INTO schema_migrations (id, applied_at) VALUES (?, ?)`,
				m.id, now); err != nil {
				return fmt.Errorf("record migration %s: %w", m.id, err)
			}
			result.Applied = append(result.Applied, m.id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	result.Changed = len(result.Applied) > 0
	return result, nil
}

// checkFTSModule verifies the driver carries the fts4 module the search
// shadows are built on, so a driver compiled without it fails with a named
// cause instead of a mid-pass DDL error. The throwaway table lives in the
// temp schema; the transaction pins both statements to one connection.
func (db *DB) checkFTSModule() error {
	return db.WithTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`CREATE VIRTUAL TABLE IF NOT EXISTS temp.fts_check USING fts4(x)`); err != nil {
			return fmt.Errorf("sqlite driver lacks the fts4 module required for search shadows: %w", err)
		}
		_, err := tx.Exec(`DROP TABLE IF EXISTS temp.fts_check`)
		return err
	})
}

func (db *DB) appliedMigrations() (map[string]bool, error) {
	rows, err := db.Query(`SELECT id FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("read migration ledger: %w", err)
	}
	defer func() { _ = rows.Close() }()

	applied := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		applied[id] = true
	}
	return applied, rows.Err()
}

// hasColumn reports whether table already has the named column. Used by
// migrations to keep ALTER TABLE steps re-invocable.
func hasColumn(tx *sql.Tx, table, column string) (bool, error) {
	rows, err := tx.Query(fmt.Sprintf(`PRAGMA table_info(%s)`, table))
	if err != nil {
		return false, err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var (
			cid        int
			name, typ  string
			notNull    int
			defaultVal sql.NullString
			pk         int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &defaultVal, &pk); err != nil {
			return false, err
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}

// addColumnIfAbsent issues ALTER TABLE ADD COLUMN only when the column is
// missing, so a crashed prior run cannot make the step fail.
func addColumnIfAbsent(tx *sql.Tx, table, column, definition string) error {
	ok, err := hasColumn(tx, table, column)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	_, err = tx.Exec(fmt.Sprintf(`ALTER TABLE %s ADD COLUMN %s %s`, table, column, definition))
	return err
}
