// Package memory is an in-process ledger used when no spreadsheet is
// configured, and in tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"atelie/internal/events"
	ports "atelie/internal/ledger"
)

type Ledger struct {
	mu      sync.Mutex
	entries []events.LedgerEntryMessage
}

var _ ports.Appender = (*Ledger)(nil)

func New() *Ledger {
	return &Ledger{}
}

// Append stores the entry and returns a synthetic row reference.
func (l *Ledger) Append(_ context.Context, entry events.LedgerEntryMessage) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, entry)
	return fmt.Sprintf("mem:%d", len(l.entries)), nil
}

// Entries returns a copy of everything appended so far.
func (l *Ledger) Entries() []events.LedgerEntryMessage {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]events.LedgerEntryMessage(nil), l.entries...)
}

// Balance is the signed sum of all entries in cents.
func (l *Ledger) Balance() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	var cents int64
	for _, e := range l.entries {
		cents += ports.SignedCents(e)
	}
	return cents
}
