package bolt

import (
	"context"
	"path/filepath"
	"testing"

	"atelie/internal/core"
)

func TestLoadEmptySlot(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "atelie.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	_, ok, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if ok {
		t.Error("empty database reported a snapshot")
	}
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "atelie.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	want := core.SeedState()
	if err := s.Save(context.Background(), want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// Reopen to prove the snapshot survives the process.
	s2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()

	got, ok, err := s2.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !ok {
		t.Fatal("snapshot missing after reopen")
	}
	if len(got.Appointments) != len(want.Appointments) || len(got.Clients) != len(want.Clients) {
		t.Errorf("snapshot mismatch: %d appointments, %d clients", len(got.Appointments), len(got.Clients))
	}
	if got.NextRevenueID != want.NextRevenueID {
		t.Errorf("NextRevenueID = %d, want %d", got.NextRevenueID, want.NextRevenueID)
	}
}

func TestSaveOverwritesSlot(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "atelie.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	first := core.SeedState()
	if err := s.Save(context.Background(), first); err != nil {
		t.Fatalf("Save: %v", err)
	}

	second := first.Clone()
	second.Appointments = nil
	if err := s.Save(context.Background(), second); err != nil {
		t.Fatalf("second Save: %v", err)
	}

	got, ok, err := s.Load(context.Background())
	if err != nil || !ok {
		t.Fatalf("Load: ok=%v err=%v", ok, err)
	}
	if len(got.Appointments) != 0 {
		t.Errorf("old snapshot leaked through: %d appointments", len(got.Appointments))
	}
}
