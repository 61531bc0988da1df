package ledger

import (
	"testing"
	"time"

	"atelie/internal/events"
)

func TestSignedCents(t *testing.T) {
	date := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		entry events.LedgerEntryMessage
		want  int64
	}{
		{"revenue", events.LedgerEntryMessage{Kind: events.KindRevenue, Date: date, AmountCents: 4500}, 4500},
		{"expense", events.LedgerEntryMessage{Kind: events.KindExpense, Date: date, AmountCents: 10000}, -10000},
		{"revenue reversal", events.LedgerEntryMessage{Kind: events.KindRevenue, Date: date, AmountCents: 4500, Reversal: true}, -4500},
		{"expense reversal", events.LedgerEntryMessage{Kind: events.KindExpense, Date: date, AmountCents: 10000, Reversal: true}, 10000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SignedCents(tt.entry); got != tt.want {
				t.Errorf("SignedCents() = %d, want %d", got, tt.want)
			}
		})
	}
}
