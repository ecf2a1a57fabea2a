package shared

import (
	"database/sql"
	"fmt"
	"os"

	_ "github.com/mattn/go-sqlite3"
)

// MemoryDatabase is the DSN of a private in-memory database.
const MemoryDatabase = ":memory:"

// NewDatabase opens the SQLite database at path, or an in-memory one for [MemoryDatabase].
//
// File databases use WAL with a busy timeout so a second intmo process waits for the write
// lock, and the file is restricted to the owner since it holds credentials.
func NewDatabase(path string) (*sql.DB, error) {
	dsn := path
	if path != MemoryDatabase {
		dsn = "file:" + path + "?_busy_timeout=5000&_journal_mode=WAL"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if path != MemoryDatabase {
		if err := os.Chmod(path, 0o600); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to restrict database permissions: %w", err)
		}
	}
	return db, nil
}

// ConfigureDatabase sizes the connection pool. Each connection to [MemoryDatabase] sees its
// own database, so in-memory callers pass 1 and 1.
func ConfigureDatabase(db *sql.DB, maxOpenConns, maxIdleConns int) {
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
}
