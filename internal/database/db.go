// Package database provides database connection management.
package database

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// Open opens the SQLite database at path. The connection pool is capped at a
// single connection: the attach/detach discipline of the item store assumes
// every statement runs on the connection holding the attachment.
func Open(path string) (*sqlx.DB, error) {
	dsn := fmt.Sprintf("file:%s?_fk=1&_busy_timeout=5000", path)
	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlx.Open() > %w", err)
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

// OpenInMemory opens a private in-memory database, used by tests.
func OpenInMemory() (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("sqlx.Open() > %w", err)
	}
	db.SetMaxOpenConns(1)
	return db, nil
}
