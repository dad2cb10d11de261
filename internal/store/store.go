package store

import (
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("gritscan.store")

// ErrNoCheckpoint is returned when no checkpoint is stored at or before the
// requested offset.
var ErrNoCheckpoint = errors.New("no checkpoint")

// Store is the SQLite data access layer for indexed files and their scanner
// checkpoints.
type Store struct {
	db *sql.DB
}

// NewStore opens a SQLite database at dbPath with WAL mode enabled.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	log.Debugf("opened %s", dbPath)
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for use in transactions.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Migrate creates the tables and indexes. Idempotent.
func (s *Store) Migrate() error {
	_, err := s.db.Exec(schemaDDL)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS files (
  id              INTEGER PRIMARY KEY,
  path            TEXT NOT NULL UNIQUE,
  language        TEXT NOT NULL,
  hash            TEXT NOT NULL,
  indexed_at      TIMESTAMP
);

CREATE TABLE IF NOT EXISTS checkpoints (
  id              INTEGER PRIMARY KEY,
  file_id         INTEGER NOT NULL REFERENCES files(id) ON DELETE CASCADE,
  ordinal         INTEGER NOT NULL,
  end_byte        INTEGER NOT NULL,
  end_row         INTEGER NOT NULL,
  end_col         INTEGER NOT NULL,
  state           INTEGER NOT NULL,
  scanner_state   BLOB
);

CREATE INDEX IF NOT EXISTS idx_checkpoints_file_byte ON checkpoints(file_id, end_byte);
`
