package ledger

import (
	"context"

	"atelie/internal/events"
)

// Ports for outbound adapters.
type (
	// Appender writes a bookkeeping entry to the external ledger and
	// returns a reference to where it landed.
	Appender interface {
		Append(ctx context.Context, entry events.LedgerEntryMessage) (rowRef string, err error)
	}
)

// SignedCents is the amount a ledger entry contributes to the cash
// book: revenues are positive, expenses negative, and a reversal flips
// the sign of the original entry.
func SignedCents(entry events.LedgerEntryMessage) int64 {
	cents := entry.AmountCents
	if entry.Kind == events.KindExpense {
		cents = -cents
	}
	if entry.Reversal {
		cents = -cents
	}
	return cents
}
