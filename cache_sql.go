package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

const (
	createSlotTable = `CREATE TABLE IF NOT EXISTS kv (key TEXT PRIMARY KEY, value BLOB NOT NULL)`
	selectSlot      = `SELECT value FROM kv WHERE key = ?`
	upsertSlot      = `INSERT INTO kv (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`
	deleteSlot      = `DELETE FROM kv WHERE key = ?`
)

// sqlCache stores the slot as one row of a key/value table.
type sqlCache struct {
	db  *sql.DB
	key string
}

// openSQLiteCache opens (or creates) the database file at path.
func openSQLiteCache(ctx context.Context, path, key string) (*sqlCache, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}

	dsn := filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	c, err := newSQLCache(ctx, db, key)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return c, nil
}

func newSQLCache(ctx context.Context, db *sql.DB, key string) (*sqlCache, error) {
	if _, err := db.ExecContext(ctx, createSlotTable); err != nil {
		return nil, fmt.Errorf("create kv table: %w", err)
	}

	return &sqlCache{db: db, key: key}, nil
}

func (s *sqlCache) Read(ctx context.Context) ([]byte, bool, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, selectSlot, s.key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read slot %q: %w", s.key, err)
	}

	return data, true, nil
}

func (s *sqlCache) Write(ctx context.Context, data []byte) error {
	if _, err := s.db.ExecContext(ctx, upsertSlot, s.key, data); err != nil {
		return fmt.Errorf("write slot %q: %w", s.key, err)
	}

	return nil
}

func (s *sqlCache) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, deleteSlot, s.key); err != nil {
		return fmt.Errorf("clear slot %q: %w", s.key, err)
	}

	return nil
}

func (s *sqlCache) Close() error {
	if s == nil || s.db == nil {
		return nil
	}

	return s.db.Close()
}
