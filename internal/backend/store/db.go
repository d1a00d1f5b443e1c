// Package store holds the backend's authoritative fixture state in SQLite.
// Posted messages and created chats persist here for the lifetime of the
// backend, so repeated reads within a session stay consistent.
package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps the SQLite connection backing the mock chat service.
type DB struct {
	*sql.DB
}

// Open creates a SQLite connection at path. An empty path opens a private
// in-memory database, which is the default for the mock backend.
func Open(path string) (*DB, error) {
	var (
		db  *sql.DB
		err error
	)
	if path == "" || path == ":memory:" {
		db, err = sql.Open("sqlite3", "file::memory:?_foreign_keys=on")
		if err == nil {
			// A second pool connection would see an empty database.
			db.SetMaxOpenConns(1)
		}
	} else {
		db, err = sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	}
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return &DB{db}, nil
}
