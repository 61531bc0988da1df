// Package memory is the in-memory snapshot backend, used in tests and
// when running without durability.
package memory

import (
	"context"
	"sync"

	"atelie/internal/core"
)

type Snapshotter struct {
	mu    sync.Mutex
	state core.State
	ok    bool
}

func New() *Snapshotter {
	return &Snapshotter{}
}

func (s *Snapshotter) Load(ctx context.Context) (core.State, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ok {
		return core.State{}, false, nil
	}
	return s.state.Clone(), true, nil
}

func (s *Snapshotter) Save(ctx context.Context, state core.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state.Clone()
	s.ok = true
	return nil
}
