package worker

import (
	"context"
	"fmt"
	"log/slog"

	"atelie/internal/events"
	"atelie/internal/ledger"
)

// LedgerWorker exports bookkeeping entries from the message queue to
// the external cash book. Entries arrive self-contained, so the worker
// only translates and appends; retries come from the queue's redelivery.
type LedgerWorker struct {
	appender ledger.Appender
}

func NewLedgerWorker(appender ledger.Appender) *LedgerWorker {
	return &LedgerWorker{appender: appender}
}

// HandleEntry processes one ledger entry message. An error here causes
// the message to be requeued by the consumer loop.
func (w *LedgerWorker) HandleEntry(ctx context.Context, msg *events.LedgerEntryMessage) error {
	slog.InfoContext(ctx, "Processing ledger entry",
		"kind", msg.Kind,
		"ref_id", msg.RefID,
		"reversal", msg.Reversal,
		"amount_cents", msg.AmountCents)

	ref, err := w.appender.Append(ctx, *msg)
	if err != nil {
		return fmt.Errorf("append ledger entry: %w", err)
	}

	slog.InfoContext(ctx, "Ledger entry exported",
		"kind", msg.Kind,
		"ref_id", msg.RefID,
		"row_ref", ref,
		"signed_cents", ledger.SignedCents(*msg))

	return nil
}
