package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema.
//
// AUTOINCREMENT keeps ids strictly monotonic: SQLite remembers the highest id
// ever handed out in sqlite_sequence, so deleting the newest item does not
// make its id available again.
const schema = `
CREATE TABLE IF NOT EXISTS items (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    name        TEXT NOT NULL CHECK (name <> ''),
    description TEXT NOT NULL DEFAULT '',
    photo       TEXT
);
`

// EnsureSchema creates all tables if they don't already exist.
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
