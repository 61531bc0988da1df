// Package sqlite persists the state snapshot in a SQLite database.
// Like the bolt backend it keeps one JSON document per slot; SQLite
// buys crash-safe writes and lets the snapshot be inspected with
// ordinary SQL tooling.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"atelie/internal/core"

	_ "modernc.org/sqlite"
)

const slotKey = "agendamento-storage"

type Snapshotter struct {
	db *sql.DB
}

func Open(dbPath string) (*Snapshotter, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Snapshotter{db: db}, nil
}

func (s *Snapshotter) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Snapshotter) Load(ctx context.Context) (core.State, bool, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM snapshots WHERE slot = ?`, slotKey).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return core.State{}, false, nil
	}
	if err != nil {
		return core.State{}, false, fmt.Errorf("read snapshot: %w", err)
	}

	var state core.State
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return core.State{}, false, fmt.Errorf("decode snapshot: %w", err)
	}
	return state, true, nil
}

func (s *Snapshotter) Save(ctx context.Context, state core.State) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO snapshots (slot, data, updated_at)
		VALUES (?, ?, datetime('now'))
		ON CONFLICT (slot) DO UPDATE SET
			data = excluded.data,
			updated_at = excluded.updated_at`,
		slotKey, string(raw))
	if err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}
