package events

import (
	"testing"
	"time"
)

func TestLedgerEntryMessageRoundTrip(t *testing.T) {
	msg := NewLedgerEntryMessage(KindRevenue, 7, "Pedicure", "Maria Silva",
		time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC), 3000, false)

	data, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}

	got, err := LedgerEntryMessageFromJSON(data)
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}
	if got.Kind != KindRevenue || got.RefID != 7 || got.AmountCents != 3000 || got.Reversal {
		t.Fatalf("unexpected message: %+v", got)
	}
	if !got.Date.Equal(msg.Date) {
		t.Fatalf("date mismatch: %v vs %v", got.Date, msg.Date)
	}
}

func TestLedgerEntryMessageFromJSONInvalid(t *testing.T) {
	if _, err := LedgerEntryMessageFromJSON([]byte("not json")); err == nil {
		t.Fatalf("expected error for invalid JSON")
	}
}
