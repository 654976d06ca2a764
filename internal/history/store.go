// Package history remembers the last destination chosen per scope so a
// later dispatch can offer it again. Designations are stable across
// restarts, so the stored keys stay meaningful.
package history

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/xerrors"
	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, xerrors.Errorf("failed to create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, xerrors.Errorf("failed to open history db: %w", err)
	}

	statements := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
		`CREATE TABLE IF NOT EXISTS last_choices (
            scope TEXT PRIMARY KEY,
            destination TEXT NOT NULL,
            chosen_at TEXT NOT NULL
        )`,
	}
	for _, statement := range statements {
		if _, err := db.Exec(statement); err != nil {
			_ = db.Close()
			return nil, xerrors.Errorf("failed to prepare history db: %w", err)
		}
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Record(ctx context.Context, scope string, key string) error {
	if _, err := s.db.ExecContext(
		ctx,
		`INSERT INTO last_choices (scope, destination, chosen_at) VALUES (?, ?, ?)
        ON CONFLICT(scope) DO UPDATE SET destination = excluded.destination, chosen_at = excluded.chosen_at`,
		scope,
		key,
		time.Now().UTC().Format(time.RFC3339Nano),
	); err != nil {
		return xerrors.Errorf("failed to record choice: %w", err)
	}
	return nil
}

func (s *Store) Last(ctx context.Context, scope string) (string, bool, error) {
	var key string
	err := s.db.QueryRowContext(ctx, `SELECT destination FROM last_choices WHERE scope = ?`, scope).Scan(&key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, xerrors.Errorf("failed to read last choice: %w", err)
	}
	return key, true, nil
}
