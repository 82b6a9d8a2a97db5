package kvstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// DefaultTable is the table holding cached payloads in the device database.
const DefaultTable = "no_sql"

// SQLiteStore keeps values in a two-column SQLite table.
type SQLiteStore struct {
	db    *sql.DB
	table string
}

// NewSQLiteStore opens (or creates) the database at path and ensures the
// key-value table exists. Use ":memory:" for a throwaway database.
func NewSQLiteStore(ctx context.Context, path, table string) (*SQLiteStore, error) {
	if table == "" {
		table = DefaultTable
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	// A single connection keeps ":memory:" databases alive and serializes writers.
	db.SetMaxOpenConns(1)

	schema := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %q (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`, table)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create table %s: %w", table, err)
	}

	return &SQLiteStore{
		db:    db,
		table: table,
	}, nil
}

// GetValue implements Store.
func (s *SQLiteStore) GetValue(ctx context.Context, key string) (string, bool, error) {
	query := fmt.Sprintf(`SELECT value FROM %q WHERE key = ?`, s.table)

	var value string
	err := s.db.QueryRowContext(ctx, query, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		if errors.Is(err, sql.ErrConnDone) {
			return "", false, ErrClosed
		}
		return "", false, fmt.Errorf("sqlite get: %w", err)
	}
	return value, true, nil
}

// SetValue implements Store.
func (s *SQLiteStore) SetValue(ctx context.Context, key, value string) error {
	query := fmt.Sprintf(`INSERT INTO %q (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, s.table)

	if _, err := s.db.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("sqlite set: %w", err)
	}
	return nil
}

// Close closes the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
