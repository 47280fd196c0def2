package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"

	"github.com/typez/typezd/internal/fault"
)

// DB wraps the SQLite connection holding the app-owned typez.db.
type DB struct {
	*sql.DB
}

// DBTX is satisfied by both *sql.DB and *sql.Tx, so row-level operations
// can run standalone or composed inside a transaction.
type DBTX interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// Open creates a new SQLite connection with WAL mode and recommended pragmas.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// Verify connection.
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return &DB{db}, nil
}

// WithTx runs fn inside a single transaction. Any error aborts the whole
// transaction, so no partial effect is ever visible to readers.
func (db *DB) WithTx(fn func(tx *sql.Tx) error) error {
	tx, err := db.Begin()
	if err != nil {
		return Classify(fmt.Errorf("begin tx: %w", err))
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return Classify(err)
	}
	if err := tx.Commit(); err != nil {
		return Classify(fmt.Errorf("commit tx: %w", err))
	}
	return nil
}

// Classify maps SQLite driver errors to fault kinds. Lock contention
// surfaces as StoreBusy so callers can retry; errors that already carry a
// kind pass through unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	var fe *fault.Error
	if errors.As(err, &fe) {
		return err
	}
	var se sqlite3.Error
	if errors.As(err, &se) {
		switch se.Code {
		case sqlite3.ErrBusy, sqlite3.ErrLocked:
			return fault.Wrap(fault.StoreBusy, err, "store busy")
		case sqlite3.ErrConstraint:
			return fault.Wrap(fault.Conflict, err, "constraint violation")
		}
	}
	return fault.Wrap(fault.Internal, err, "store failure")
}
