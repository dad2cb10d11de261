package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// --- File operations ---

func (s *Store) FileByPath(path string) (*File, error) {
	f := &File{}
	err := s.db.QueryRow(
		"SELECT id, path, language, hash, indexed_at FROM files WHERE path = ?", path,
	).Scan(&f.ID, &f.Path, &f.Language, &f.Hash, &f.IndexedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("file by path: %w", err)
	}
	return f, nil
}

// FileHash returns the source hash recorded for path, or "" if the file has
// not been indexed.
func (s *Store) FileHash(path string) (string, error) {
	f, err := s.FileByPath(path)
	if err != nil || f == nil {
		return "", err
	}
	return f.Hash, nil
}

// Files returns every indexed file ordered by path.
func (s *Store) Files() ([]*File, error) {
	rows, err := s.db.Query("SELECT id, path, language, hash, indexed_at FROM files ORDER BY path")
	if err != nil {
		return nil, fmt.Errorf("files: %w", err)
	}
	defer rows.Close()
	var files []*File
	for rows.Next() {
		f := &File{}
		if err := rows.Scan(&f.ID, &f.Path, &f.Language, &f.Hash, &f.IndexedAt); err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

// DeleteFile removes path and its checkpoints. Deleting an unknown path is
// not an error.
func (s *Store) DeleteFile(path string) error {
	if _, err := s.db.Exec("DELETE FROM files WHERE path = ?", path); err != nil {
		return fmt.Errorf("delete file: %w", err)
	}
	return nil
}

// --- Checkpoint operations ---

// ReplaceCheckpoints records path as indexed at hash and replaces its stored
// checkpoints with cps, all in one transaction.
func (s *Store) ReplaceCheckpoints(path, language, hash string, cps []Checkpoint) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("replace checkpoints: begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO files (path, language, hash, indexed_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET language = excluded.language, hash = excluded.hash, indexed_at = excluded.indexed_at`,
		path, language, hash, time.Now().UTC().Truncate(time.Second),
	)
	if err != nil {
		return fmt.Errorf("replace checkpoints: upsert file: %w", err)
	}
	var fileID int64
	if err := tx.QueryRow("SELECT id FROM files WHERE path = ?", path).Scan(&fileID); err != nil {
		return fmt.Errorf("replace checkpoints: file id: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM checkpoints WHERE file_id = ?", fileID); err != nil {
		return fmt.Errorf("replace checkpoints: clear: %w", err)
	}

	stmt, err := tx.Prepare(
		"INSERT INTO checkpoints (file_id, ordinal, end_byte, end_row, end_col, state, scanner_state) VALUES (?, ?, ?, ?, ?, ?, ?)",
	)
	if err != nil {
		return fmt.Errorf("replace checkpoints: prepare: %w", err)
	}
	defer stmt.Close()
	for i, cp := range cps {
		if _, err := stmt.Exec(fileID, i, cp.EndByte, cp.EndRow, cp.EndCol, cp.State, scannerBlob(cp.ScannerState)); err != nil {
			return fmt.Errorf("replace checkpoints: insert %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("replace checkpoints: commit: %w", err)
	}
	log.Infof("stored %d checkpoints for %s", len(cps), path)
	return nil
}

// Checkpoints returns the stored checkpoints for path in scan order.
func (s *Store) Checkpoints(path string) ([]Checkpoint, error) {
	rows, err := s.db.Query(
		`SELECT c.ordinal, c.end_byte, c.end_row, c.end_col, c.state, c.scanner_state
		 FROM checkpoints c JOIN files f ON f.id = c.file_id
		 WHERE f.path = ? ORDER BY c.ordinal`, path,
	)
	if err != nil {
		return nil, fmt.Errorf("checkpoints: %w", err)
	}
	defer rows.Close()
	var cps []Checkpoint
	for rows.Next() {
		cp, err := scanCheckpoint(rows)
		if err != nil {
			return nil, err
		}
		cps = append(cps, cp)
	}
	return cps, rows.Err()
}

// NearestCheckpoint returns the last checkpoint whose end byte is at or
// before offset. It returns ErrNoCheckpoint if there is none.
func (s *Store) NearestCheckpoint(path string, offset uint32) (Checkpoint, error) {
	row := s.db.QueryRow(
		`SELECT c.ordinal, c.end_byte, c.end_row, c.end_col, c.state, c.scanner_state
		 FROM checkpoints c JOIN files f ON f.id = c.file_id
		 WHERE f.path = ? AND c.end_byte <= ?
		 ORDER BY c.end_byte DESC, c.ordinal DESC LIMIT 1`, path, offset,
	)
	cp, err := scanCheckpoint(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Checkpoint{}, fmt.Errorf("%s at offset %d: %w", path, offset, ErrNoCheckpoint)
	}
	return cp, err
}

func scanCheckpoint(scanner interface{ Scan(...any) error }) (Checkpoint, error) {
	var cp Checkpoint
	err := scanner.Scan(&cp.Ordinal, &cp.EndByte, &cp.EndRow, &cp.EndCol, &cp.State, &cp.ScannerState)
	if errors.Is(err, sql.ErrNoRows) {
		return Checkpoint{}, err
	}
	if err != nil {
		return Checkpoint{}, fmt.Errorf("scan checkpoint: %w", err)
	}
	if len(cp.ScannerState) == 0 {
		cp.ScannerState = nil
	}
	return cp, nil
}

// scannerBlob stores the default scanner state as NULL.
func scannerBlob(state []byte) any {
	if len(state) == 0 {
		return nil
	}
	return state
}
