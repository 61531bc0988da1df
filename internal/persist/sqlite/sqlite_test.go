package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"atelie/internal/core"
)

func TestRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "atelie.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	if _, ok, err := s.Load(context.Background()); err != nil || ok {
		t.Fatalf("fresh database: ok=%v err=%v", ok, err)
	}

	want := core.SeedState()
	if err := s.Save(context.Background(), want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

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
	if len(got.Revenues) != 2 || got.Revenues[0].AppointmentID != 3 {
		t.Errorf("unexpected revenues: %+v", got.Revenues)
	}
	if got.NextAppointmentID != want.NextAppointmentID {
		t.Errorf("NextAppointmentID = %d, want %d", got.NextAppointmentID, want.NextAppointmentID)
	}
}

func TestSaveUpserts(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "atelie.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	state := core.SeedState()
	for i := 0; i < 3; i++ {
		state.NextExpenseID++
		if err := s.Save(context.Background(), state); err != nil {
			t.Fatalf("Save %d: %v", i, err)
		}
	}

	got, ok, err := s.Load(context.Background())
	if err != nil || !ok {
		t.Fatalf("Load: ok=%v err=%v", ok, err)
	}
	if got.NextExpenseID != state.NextExpenseID {
		t.Errorf("NextExpenseID = %d, want %d", got.NextExpenseID, state.NextExpenseID)
	}
}
