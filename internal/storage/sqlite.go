package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

// SQLite stores runs in a single table with JSON payloads.
type SQLite struct {
	db   *sql.DB
	path string
}

func NewSQLite(path string) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		created_at TEXT NOT NULL,
		slice_id INTEGER NOT NULL,
		metadata BLOB NOT NULL,
		fields BLOB NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create runs table: %w", err)
	}
	return &SQLite{db: db, path: path}, nil
}

func (s *SQLite) Path() string { return s.path }

func (s *SQLite) Close() error { return s.db.Close() }

func (s *SQLite) Save(meta RunMetadata, fields *Fields) (string, error) {
	if err := prepare(&meta, fields); err != nil {
		return "", err
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return "", fmt.Errorf("encode metadata: %w", err)
	}
	fieldsJSON, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("encode fields: %w", err)
	}
	if _, err := s.db.Exec(`INSERT INTO runs(id, created_at, slice_id, metadata, fields) VALUES(?,?,?,?,?)`,
		meta.ID, meta.Timestamp.UTC().Format(time.RFC3339Nano), meta.SliceID, metaJSON, fieldsJSON); err != nil {
		return "", fmt.Errorf("insert run %s: %w", meta.ID, err)
	}
	return meta.ID, nil
}

func (s *SQLite) List() ([]RunMetadata, error) {
	rows, err := s.db.Query(`SELECT metadata FROM runs ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("select runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	runs := make([]RunMetadata, 0)
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		var meta RunMetadata
		if err := json.Unmarshal(payload, &meta); err != nil {
			return nil, fmt.Errorf("decode metadata: %w", err)
		}
		runs = append(runs, meta)
	}
	return runs, rows.Err()
}

func (s *SQLite) Load(runID string) (*RunMetadata, error) {
	var meta RunMetadata
	if err := s.loadColumn("metadata", runID, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *SQLite) LoadFields(runID string) (*Fields, error) {
	var f Fields
	if err := s.loadColumn("fields", runID, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

func (s *SQLite) loadColumn(column, runID string, dst any) error {
	var payload []byte
	err := s.db.QueryRow(`SELECT `+column+` FROM runs WHERE id = ?`, runID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return fmt.Errorf("select %s: %w", column, err)
	}
	if err := json.Unmarshal(payload, dst); err != nil {
		return fmt.Errorf("decode %s: %w", column, err)
	}
	return nil
}
