package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"atelie/internal/core"
	"atelie/internal/events"
)

type fakeSnapshotter struct {
	state   core.State
	ok      bool
	saveErr error
	saves   int
}

func (f *fakeSnapshotter) Load(ctx context.Context) (core.State, bool, error) {
	return f.state.Clone(), f.ok, nil
}

func (f *fakeSnapshotter) Save(ctx context.Context, state core.State) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.state = state.Clone()
	f.ok = true
	f.saves++
	return nil
}

type fakePublisher struct {
	messages []*events.LedgerEntryMessage
	err      error
}

func (f *fakePublisher) PublishLedgerEntry(ctx context.Context, msg *events.LedgerEntryMessage) error {
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, msg)
	return nil
}

func newSeededStore(t *testing.T) (*Store, *fakeSnapshotter, *fakePublisher) {
	t.Helper()
	snap := &fakeSnapshotter{}
	pub := &fakePublisher{}
	s, err := Open(context.Background(), snap, pub)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	s.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return s, snap, pub
}

func TestOpenFallsBackToSeed(t *testing.T) {
	s, _, _ := newSeededStore(t)

	state := s.Snapshot()
	if len(state.Appointments) != 4 || len(state.Clients) != 4 {
		t.Fatalf("expected seed data, got %d appointments and %d clients", len(state.Appointments), len(state.Clients))
	}
	if got := s.TotalRevenue().Cents; got != 5500 {
		t.Errorf("seed total revenue = %d, want 5500", got)
	}
	if got := s.TotalExpenses().Cents; got != 45000 {
		t.Errorf("seed total expenses = %d, want 45000", got)
	}
	if got := s.NetProfit().Cents; got != -39500 {
		t.Errorf("seed net profit = %d, want -39500", got)
	}
}

func TestOpenLoadsPersistedState(t *testing.T) {
	persisted := core.State{
		Appointments: []core.Appointment{
			{ID: 7, Service: "Manicure", Client: "Rita", Date: core.NewDate(2025, 7, 1), Time: "10:00", DurationMin: 45, Status: core.StatusScheduled, Value: core.Money{Cents: 2500}},
		},
	}
	snap := &fakeSnapshotter{state: persisted, ok: true}

	s, err := Open(context.Background(), snap, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	state := s.Snapshot()
	if len(state.Appointments) != 1 || state.Appointments[0].ID != 7 {
		t.Fatalf("expected persisted appointment, got %+v", state.Appointments)
	}
	// Normalize must bump counters past existing ids.
	if state.NextAppointmentID != 8 {
		t.Errorf("NextAppointmentID = %d, want 8", state.NextAppointmentID)
	}
}

func TestCompletionCreatesExactlyOneRevenue(t *testing.T) {
	s, _, pub := newSeededStore(t)

	// Appointment 1: Unhas em Gel, João Santos, stored value 45.00.
	apt, err := s.UpdateAppointmentStatus(context.Background(), 1, core.StatusCompleted, nil)
	if err != nil {
		t.Fatalf("UpdateAppointmentStatus: %v", err)
	}
	if apt.Status != core.StatusCompleted {
		t.Errorf("status = %q, want %q", apt.Status, core.StatusCompleted)
	}

	state := s.Snapshot()
	var matched []core.Revenue
	for _, r := range state.Revenues {
		if r.AppointmentID == 1 {
			matched = append(matched, r)
		}
	}
	if len(matched) != 1 {
		t.Fatalf("expected exactly one revenue for appointment 1, got %d", len(matched))
	}
	if matched[0].Value.Cents != 4500 {
		t.Errorf("revenue value = %d, want stored value 4500", matched[0].Value.Cents)
	}
	if matched[0].Service != "Unhas em Gel" || matched[0].Client != "João Santos" {
		t.Errorf("revenue carries wrong appointment fields: %+v", matched[0])
	}

	if len(pub.messages) != 1 || pub.messages[0].Kind != events.KindRevenue || pub.messages[0].Reversal {
		t.Errorf("expected one non-reversal revenue message, got %+v", pub.messages)
	}
}

func TestCompletionExplicitValueWins(t *testing.T) {
	s, _, _ := newSeededStore(t)

	value := core.Money{Cents: 9900}
	apt, err := s.UpdateAppointmentStatus(context.Background(), 1, core.StatusCompleted, &value)
	if err != nil {
		t.Fatalf("UpdateAppointmentStatus: %v", err)
	}
	if apt.Value.Cents != 9900 {
		t.Errorf("appointment value = %d, want explicit 9900", apt.Value.Cents)
	}

	state := s.Snapshot()
	ri := revenueIndexByAppointment(state.Revenues, 1)
	if ri < 0 {
		t.Fatal("no revenue created")
	}
	if got := state.Revenues[ri].Value.Cents; got != 9900 {
		t.Errorf("revenue value = %d, want explicit 9900", got)
	}
}

func TestCompletionZeroValueFallback(t *testing.T) {
	s, _, _ := newSeededStore(t)

	added, err := s.AddAppointment(context.Background(), core.Appointment{
		Service: "Escova", Client: "Maria Silva",
		Date: core.NewDate(2025, 7, 2), Time: "09:00", DurationMin: 30,
	})
	if err != nil {
		t.Fatalf("AddAppointment: %v", err)
	}

	if _, err := s.UpdateAppointmentStatus(context.Background(), added.ID, core.StatusCompleted, nil); err != nil {
		t.Fatalf("UpdateAppointmentStatus: %v", err)
	}

	state := s.Snapshot()
	ri := revenueIndexByAppointment(state.Revenues, added.ID)
	if ri < 0 {
		t.Fatal("no revenue created")
	}
	if got := state.Revenues[ri].Value.Cents; got != 0 {
		t.Errorf("revenue value = %d, want 0", got)
	}
}

func TestRecompletionNeverDuplicatesRevenue(t *testing.T) {
	s, _, _ := newSeededStore(t)

	for i := 0; i < 3; i++ {
		if _, err := s.UpdateAppointmentStatus(context.Background(), 1, core.StatusCompleted, nil); err != nil {
			t.Fatalf("completion %d: %v", i, err)
		}
	}

	state := s.Snapshot()
	count := 0
	for _, r := range state.Revenues {
		if r.AppointmentID == 1 {
			count++
		}
	}
	if count != 1 {
		t.Errorf("expected one revenue after repeated completion, got %d", count)
	}
}

func TestRevertRemovesRevenueAndRestoresCounters(t *testing.T) {
	s, _, pub := newSeededStore(t)

	before := s.Snapshot()
	ci := clientIndexByName(before.Clients, "João Santos")
	spentBefore := before.Clients[ci].TotalSpent.Cents
	countBefore := before.Clients[ci].TotalAppointments

	if _, err := s.UpdateAppointmentStatus(context.Background(), 1, core.StatusCompleted, nil); err != nil {
		t.Fatalf("complete: %v", err)
	}

	mid := s.Snapshot()
	mc := mid.Clients[clientIndexByName(mid.Clients, "João Santos")]
	if mc.TotalSpent.Cents != spentBefore+4500 || mc.TotalAppointments != countBefore+1 {
		t.Fatalf("counters not credited: spent=%d count=%d", mc.TotalSpent.Cents, mc.TotalAppointments)
	}

	if _, err := s.UpdateAppointmentStatus(context.Background(), 1, core.StatusScheduled, nil); err != nil {
		t.Fatalf("revert: %v", err)
	}

	after := s.Snapshot()
	if ri := revenueIndexByAppointment(after.Revenues, 1); ri >= 0 {
		t.Error("revenue survived the revert")
	}
	ac := after.Clients[clientIndexByName(after.Clients, "João Santos")]
	if ac.TotalSpent.Cents != spentBefore || ac.TotalAppointments != countBefore {
		t.Errorf("counters not restored: spent=%d count=%d", ac.TotalSpent.Cents, ac.TotalAppointments)
	}

	last := pub.messages[len(pub.messages)-1]
	if !last.Reversal {
		t.Error("revert did not publish a reversal entry")
	}
}

func TestCancelRemovesRevenueToo(t *testing.T) {
	s, _, _ := newSeededStore(t)

	if _, err := s.UpdateAppointmentStatus(context.Background(), 1, core.StatusCompleted, nil); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if _, err := s.UpdateAppointmentStatus(context.Background(), 1, core.StatusCancelled, nil); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	state := s.Snapshot()
	if ri := revenueIndexByAppointment(state.Revenues, 1); ri >= 0 {
		t.Error("revenue survived the cancellation")
	}
}

func TestDeleteAppointmentCascadesToRevenue(t *testing.T) {
	s, _, _ := newSeededStore(t)

	// Seed appointment 3 is Completed and owns revenue 1.
	if err := s.DeleteAppointment(context.Background(), 3); err != nil {
		t.Fatalf("DeleteAppointment: %v", err)
	}

	state := s.Snapshot()
	if appointmentIndex(state.Appointments, 3) >= 0 {
		t.Error("appointment 3 still present")
	}
	if ri := revenueIndexByAppointment(state.Revenues, 3); ri >= 0 {
		t.Error("revenue for appointment 3 still present")
	}
	if got := s.TotalRevenue().Cents; got != 2500 {
		t.Errorf("total revenue = %d, want 2500", got)
	}
}

func TestDeleteAppointmentMissing(t *testing.T) {
	s, snap, _ := newSeededStore(t)
	savesBefore := snap.saves

	if err := s.DeleteAppointment(context.Background(), 999); !errors.Is(err, ErrAppointmentNotFound) {
		t.Fatalf("err = %v, want ErrAppointmentNotFound", err)
	}
	if snap.saves != savesBefore {
		t.Error("missing delete should not persist anything")
	}
}

func TestUpdateAppointmentStatusInvalid(t *testing.T) {
	s, _, _ := newSeededStore(t)

	if _, err := s.UpdateAppointmentStatus(context.Background(), 1, core.Status("Pendente"), nil); !errors.Is(err, core.ErrInvalidStatus) {
		t.Errorf("err = %v, want ErrInvalidStatus", err)
	}
	if _, err := s.UpdateAppointmentStatus(context.Background(), 999, core.StatusCompleted, nil); !errors.Is(err, ErrAppointmentNotFound) {
		t.Errorf("err = %v, want ErrAppointmentNotFound", err)
	}
	bad := core.Money{Cents: -100}
	if _, err := s.UpdateAppointmentStatus(context.Background(), 1, core.StatusCompleted, &bad); !errors.Is(err, core.ErrInvalidAmount) {
		t.Errorf("err = %v, want ErrInvalidAmount", err)
	}
}

func TestNetProfitIdentity(t *testing.T) {
	s, _, _ := newSeededStore(t)

	if _, err := s.UpdateAppointmentStatus(context.Background(), 1, core.StatusCompleted, nil); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if _, err := s.AddExpense(context.Background(), core.Expense{
		Name: "Removedor", Category: "Materiais",
		Date: core.NewDate(2025, 6, 10), Supplier: "Distribuidora Bela", Value: core.Money{Cents: 1800},
	}); err != nil {
		t.Fatalf("AddExpense: %v", err)
	}

	want := s.TotalRevenue().Cents - s.TotalExpenses().Cents
	if got := s.NetProfit().Cents; got != want {
		t.Errorf("NetProfit = %d, want %d", got, want)
	}
}

func TestMonotonicIDsSurviveDeletions(t *testing.T) {
	s, _, _ := newSeededStore(t)

	a1, err := s.AddAppointment(context.Background(), core.Appointment{
		Service: "Manicure", Client: "Ana Pereira",
		Date: core.NewDate(2025, 7, 3), Time: "11:00", DurationMin: 45, Value: core.Money{Cents: 2500},
	})
	if err != nil {
		t.Fatalf("AddAppointment: %v", err)
	}
	if err := s.DeleteAppointment(context.Background(), a1.ID); err != nil {
		t.Fatalf("DeleteAppointment: %v", err)
	}
	a2, err := s.AddAppointment(context.Background(), core.Appointment{
		Service: "Manicure", Client: "Ana Pereira",
		Date: core.NewDate(2025, 7, 4), Time: "11:00", DurationMin: 45, Value: core.Money{Cents: 2500},
	})
	if err != nil {
		t.Fatalf("AddAppointment: %v", err)
	}
	if a2.ID <= a1.ID {
		t.Errorf("id %d not greater than deleted id %d", a2.ID, a1.ID)
	}
}

func TestAddAppointmentRefreshesNextAppointment(t *testing.T) {
	s, _, _ := newSeededStore(t)

	if _, err := s.AddAppointment(context.Background(), core.Appointment{
		Service: "Pedicure", Client: "Maria Silva",
		Date: core.NewDate(2025, 1, 2), Time: "08:00", DurationMin: 60, Value: core.Money{Cents: 3000},
	}); err != nil {
		t.Fatalf("AddAppointment: %v", err)
	}

	state := s.Snapshot()
	c := state.Clients[clientIndexByName(state.Clients, "Maria Silva")]
	if c.NextAppointment == nil {
		t.Fatal("next appointment not set")
	}
	if c.NextAppointment.Service != "Pedicure" || c.NextAppointment.Time != "08:00" {
		t.Errorf("next appointment = %+v, want the new Pedicure booking", c.NextAppointment)
	}
}

func TestCompletionClearsNextAppointment(t *testing.T) {
	s, _, _ := newSeededStore(t)

	// Appointment 1 is João Santos' only Scheduled booking in the seed.
	if _, err := s.UpdateAppointmentStatus(context.Background(), 1, core.StatusCompleted, nil); err != nil {
		t.Fatalf("complete: %v", err)
	}

	state := s.Snapshot()
	c := state.Clients[clientIndexByName(state.Clients, "João Santos")]
	if c.NextAppointment != nil {
		t.Errorf("next appointment should be cleared, got %+v", c.NextAppointment)
	}
}

func TestExpensesPrependNewestFirst(t *testing.T) {
	s, _, _ := newSeededStore(t)

	e, err := s.AddExpense(context.Background(), core.Expense{
		Name: "Acetona", Category: "Materiais",
		Date: core.NewDate(2025, 6, 11), Supplier: "Distribuidora Bela", Value: core.Money{Cents: 900},
	})
	if err != nil {
		t.Fatalf("AddExpense: %v", err)
	}

	state := s.Snapshot()
	if state.Expenses[0].ID != e.ID {
		t.Errorf("newest expense not first: %+v", state.Expenses[0])
	}
}

func TestAddExpenseInvalidCategory(t *testing.T) {
	s, _, _ := newSeededStore(t)

	_, err := s.AddExpense(context.Background(), core.Expense{
		Name: "Acetona", Category: "Diversos",
		Date: core.NewDate(2025, 6, 11), Supplier: "Distribuidora Bela", Value: core.Money{Cents: 900},
	})
	if !errors.Is(err, core.ErrInvalidCategory) {
		t.Errorf("err = %v, want ErrInvalidCategory", err)
	}
}

func TestAddRevenueRejectsDuplicateAppointment(t *testing.T) {
	s, _, _ := newSeededStore(t)

	// Seed revenue 1 already references appointment 3.
	_, err := s.AddRevenue(context.Background(), core.Revenue{
		AppointmentID: 3, Service: "Pedicure", Client: "Maria Silva",
		Date: core.NewDate(2025, 1, 10), Value: core.Money{Cents: 3000},
	})
	if !errors.Is(err, ErrRevenueExists) {
		t.Errorf("err = %v, want ErrRevenueExists", err)
	}
}

func TestAddRevenueManualEntry(t *testing.T) {
	s, _, _ := newSeededStore(t)

	r, err := s.AddRevenue(context.Background(), core.Revenue{
		Service: "Venda de esmalte", Client: "Balcão",
		Date: core.NewDate(2025, 6, 12), Value: core.Money{Cents: 1500},
	})
	if err != nil {
		t.Fatalf("AddRevenue: %v", err)
	}
	if r.AppointmentID != 0 {
		t.Errorf("manual entry should keep AppointmentID 0, got %d", r.AppointmentID)
	}
	if got := s.TotalRevenue().Cents; got != 5500+1500 {
		t.Errorf("total revenue = %d, want 7000", got)
	}
}

func TestDeleteRevenueLeavesAppointmentUntouched(t *testing.T) {
	s, _, _ := newSeededStore(t)

	if err := s.DeleteRevenue(context.Background(), 1); err != nil {
		t.Fatalf("DeleteRevenue: %v", err)
	}

	state := s.Snapshot()
	idx := appointmentIndex(state.Appointments, 3)
	if idx < 0 {
		t.Fatal("appointment 3 disappeared")
	}
	if state.Appointments[idx].Status != core.StatusCompleted {
		t.Errorf("appointment status = %q, want still Completed", state.Appointments[idx].Status)
	}
}

func TestDeleteClientCascadesToAppointments(t *testing.T) {
	s, _, _ := newSeededStore(t)

	state := s.Snapshot()
	ci := clientIndexByName(state.Clients, "Carolina Mendes")
	if ci < 0 {
		t.Fatal("seed client missing")
	}
	id := state.Clients[ci].ID
	revenuesBefore := s.TotalRevenue().Cents

	if err := s.DeleteClient(context.Background(), id); err != nil {
		t.Fatalf("DeleteClient: %v", err)
	}

	after := s.Snapshot()
	for _, a := range after.Appointments {
		if a.Client == "Carolina Mendes" {
			t.Errorf("appointment %d survived the client delete", a.ID)
		}
	}
	if got := s.TotalRevenue().Cents; got != revenuesBefore {
		t.Errorf("revenues changed on client delete: %d != %d", got, revenuesBefore)
	}
}

func TestUpdateClientPatch(t *testing.T) {
	s, _, _ := newSeededStore(t)

	state := s.Snapshot()
	id := state.Clients[clientIndexByName(state.Clients, "Ana Pereira")].ID

	notes := "Prefere horários de manhã"
	rating := 5
	updated, err := s.UpdateClient(context.Background(), id, ClientPatch{Notes: &notes, Rating: &rating})
	if err != nil {
		t.Fatalf("UpdateClient: %v", err)
	}
	if updated.Notes != notes || updated.Rating != 5 {
		t.Errorf("patch not applied: %+v", updated)
	}
	if updated.Name != "Ana Pereira" {
		t.Errorf("untouched field changed: %q", updated.Name)
	}

	bad := 9
	if _, err := s.UpdateClient(context.Background(), id, ClientPatch{Rating: &bad}); !errors.Is(err, core.ErrInvalidRating) {
		t.Errorf("err = %v, want ErrInvalidRating", err)
	}
}

func TestSaveFailureLeavesStateUntouched(t *testing.T) {
	s, snap, _ := newSeededStore(t)
	snap.saveErr = errors.New("disk full")

	before := s.Snapshot()
	_, err := s.UpdateAppointmentStatus(context.Background(), 1, core.StatusCompleted, nil)
	if err == nil {
		t.Fatal("expected persistence error")
	}

	after := s.Snapshot()
	if len(after.Revenues) != len(before.Revenues) {
		t.Error("failed mutation leaked into memory")
	}
	idx := appointmentIndex(after.Appointments, 1)
	if after.Appointments[idx].Status != core.StatusScheduled {
		t.Error("failed mutation changed the appointment status")
	}
}

func TestPublishFailureDoesNotFailMutation(t *testing.T) {
	s, _, pub := newSeededStore(t)
	pub.err = errors.New("broker down")

	if _, err := s.UpdateAppointmentStatus(context.Background(), 1, core.StatusCompleted, nil); err != nil {
		t.Fatalf("mutation failed on publish error: %v", err)
	}

	state := s.Snapshot()
	if ri := revenueIndexByAppointment(state.Revenues, 1); ri < 0 {
		t.Error("revenue missing despite successful mutation")
	}
}

func TestEveryMutationPersistsFullState(t *testing.T) {
	s, snap, _ := newSeededStore(t)

	if _, err := s.AddExpense(context.Background(), core.Expense{
		Name: "Aluguel junho", Category: "Aluguel",
		Date: core.NewDate(2025, 6, 5), Supplier: "Imobiliária Central", Value: core.Money{Cents: 20000},
	}); err != nil {
		t.Fatalf("AddExpense: %v", err)
	}

	if snap.saves != 1 {
		t.Fatalf("saves = %d, want 1", snap.saves)
	}
	if len(snap.state.Appointments) != 4 || len(snap.state.Expenses) != 4 {
		t.Errorf("snapshot is not the full state: %d appointments, %d expenses",
			len(snap.state.Appointments), len(snap.state.Expenses))
	}
}
