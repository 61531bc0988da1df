package events

import (
	"encoding/json"
	"time"
)

type EntryKind string

const (
	KindRevenue EntryKind = "receita"
	KindExpense EntryKind = "despesa"
)

// LedgerEntryMessage carries one bookkeeping entry to the export worker.
// It is self-contained so the worker never has to read the snapshot back:
// the store's state may have moved on by the time the message is consumed.
type LedgerEntryMessage struct {
	Kind        EntryKind `json:"kind"`
	RefID       int64     `json:"refId"` // revenue or expense ID
	Description string    `json:"description"`
	Client      string    `json:"client,omitempty"`
	Date        time.Time `json:"date"`
	AmountCents int64     `json:"amountCents"`
	Reversal    bool      `json:"reversal"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewLedgerEntryMessage creates an entry message stamped with the current time.
func NewLedgerEntryMessage(kind EntryKind, refID int64, description, client string, date time.Time, amountCents int64, reversal bool) *LedgerEntryMessage {
	return &LedgerEntryMessage{
		Kind:        kind,
		RefID:       refID,
		Description: description,
		Client:      client,
		Date:        date,
		AmountCents: amountCents,
		Reversal:    reversal,
		Timestamp:   time.Now(),
	}
}

// ToJSON converts the message to JSON bytes.
func (m *LedgerEntryMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerEntryMessageFromJSON creates a message from JSON bytes.
func LedgerEntryMessageFromJSON(data []byte) (*LedgerEntryMessage, error) {
	var msg LedgerEntryMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
