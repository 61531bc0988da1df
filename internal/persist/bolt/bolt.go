// Package bolt persists the state snapshot in a single-file BoltDB
// database. The whole state is serialized as one JSON value under a
// fixed key, mirroring how the app stores a single snapshot per
// installation rather than per-entity rows.
package bolt

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "github.com/boltdb/bolt"

	"atelie/internal/core"
)

const (
	bucketName = "snapshots"
	slotKey    = "agendamento-storage"
)

type Snapshotter struct {
	db *bolt.DB
}

// Open creates or opens the database file and ensures the snapshot
// bucket exists.
func Open(path string) (*Snapshotter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create bucket: %w", err)
	}

	return &Snapshotter{db: db}, nil
}

// Close releases the database file lock.
func (s *Snapshotter) Close() error {
	return s.db.Close()
}

func (s *Snapshotter) Load(ctx context.Context) (core.State, bool, error) {
	var raw []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket([]byte(bucketName)).Get([]byte(slotKey)); v != nil {
			raw = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return core.State{}, false, fmt.Errorf("read snapshot: %w", err)
	}
	if raw == nil {
		return core.State{}, false, nil
	}

	var state core.State
	if err := json.Unmarshal(raw, &state); err != nil {
		return core.State{}, false, fmt.Errorf("decode snapshot: %w", err)
	}
	return state, true, nil
}

func (s *Snapshotter) Save(ctx context.Context, state core.State) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).Put([]byte(slotKey), raw)
	})
	if err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}
