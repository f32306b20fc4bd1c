package db

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// memoryDSN is a private in-memory database. It lives as long as the single
// pooled connection does, so the pool must never close that connection.
const memoryDSN = ":memory:"

// Open opens the in-memory SQLite registry database and configures pragmas.
// The pool is pinned to one connection: every statement is serialized through
// it, which gives the registry its single-writer discipline.
func Open() (*sql.DB, error) {
	db, err := sql.Open("sqlite", memoryDSN)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	pragmas := []string{
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting pragma %q: %w", p, err)
		}
	}

	return db, nil
}
