// Package backend selects and wires the snapshot storage for the
// configured data backend.
package backend

import (
	"fmt"
	"log/slog"

	boltstore "atelie/internal/persist/bolt"
	"atelie/internal/persist/memory"
	sqlitestore "atelie/internal/persist/sqlite"
	"atelie/internal/store"
)

// BackendType represents the type of snapshot backend
type BackendType string

const (
	MemoryBackend BackendType = "memory"
	BoltBackend   BackendType = "bolt"
	SQLiteBackend BackendType = "sqlite"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, BoltBackend, SQLiteBackend:
		return true
	default:
		return false
	}
}

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// Result contains the snapshotter and optional cleanup function
type Result struct {
	Snapshotter store.Snapshotter
	Cleanup     CleanupFunc
}

// Config holds configuration for backend creation
type Config struct {
	Type         BackendType
	BoltDBPath   string
	SQLiteDBPath string
}

// CreateSnapshotter creates the snapshot backend for the given config.
func CreateSnapshotter(logger *slog.Logger, cfg Config) (*Result, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if !cfg.Type.IsValid() {
		return nil, fmt.Errorf("invalid backend type: %s", cfg.Type)
	}

	switch cfg.Type {
	case BoltBackend:
		snap, err := boltstore.Open(cfg.BoltDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize bolt backend: %w", err)
		}
		logger.Info("Initialized bolt backend", "db_path", cfg.BoltDBPath)
		return &Result{Snapshotter: snap, Cleanup: snap.Close}, nil

	case SQLiteBackend:
		snap, err := sqlitestore.Open(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize sqlite backend: %w", err)
		}
		logger.Info("Initialized sqlite backend", "db_path", cfg.SQLiteDBPath)
		return &Result{Snapshotter: snap, Cleanup: snap.Close}, nil

	case MemoryBackend:
		logger.Info("Initialized memory backend")
		return &Result{Snapshotter: memory.New(), Cleanup: nil}, nil

	default:
		return nil, fmt.Errorf("unsupported backend type: %s", cfg.Type)
	}
}
