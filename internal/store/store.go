// Package store holds the single source of truth for appointments,
// clients, expenses and revenues.
//
// The store enforces the one cross-entity invariant of the system: an
// appointment in the Completed status has exactly one revenue record
// referencing it, and no revenue outlives a completion. Because that
// invariant spans two collections, every mutation runs under one
// coarse mutex; mutations build a cloned state, persist it as a full
// snapshot, and only then swap it in, so readers never observe a
// partially-updated state.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"atelie/internal/core"
	"atelie/internal/events"
)

// Snapshotter is the persistence capability injected into the store.
// Save writes the full state under a single named slot; Load reads it
// back on startup, reporting ok=false when the slot is empty.
type Snapshotter interface {
	Load(ctx context.Context) (state core.State, ok bool, err error)
	Save(ctx context.Context, state core.State) error
}

// Publisher emits bookkeeping entries for the ledger export worker.
type Publisher interface {
	PublishLedgerEntry(ctx context.Context, msg *events.LedgerEntryMessage) error
}

var (
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrClientNotFound      = errors.New("client not found")
	ErrExpenseNotFound     = errors.New("expense not found")
	ErrRevenueNotFound     = errors.New("revenue not found")
	ErrRevenueExists       = errors.New("appointment already has a revenue")
)

type Store struct {
	mu        sync.Mutex
	state     core.State
	snapshots Snapshotter
	publisher Publisher // optional; publishing is best-effort

	now func() time.Time
}

// Open loads the persisted snapshot, falling back to the seed dataset
// when the slot is empty.
func Open(ctx context.Context, snapshots Snapshotter, publisher Publisher) (*Store, error) {
	s := &Store{
		snapshots: snapshots,
		publisher: publisher,
		now:       time.Now,
	}

	if snapshots != nil {
		state, ok, err := snapshots.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("load snapshot: %w", err)
		}
		if ok {
			state.Normalize()
			s.state = state
			slog.InfoContext(ctx, "Loaded persisted state",
				"appointments", len(state.Appointments),
				"clients", len(state.Clients),
				"expenses", len(state.Expenses),
				"revenues", len(state.Revenues))
			return s, nil
		}
	}

	s.state = core.SeedState()
	slog.InfoContext(ctx, "No persisted state found, using seed data")
	return s, nil
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() core.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// commit persists next and swaps it in. On a persistence failure the
// in-memory state is left untouched, so a failed mutation is invisible.
func (s *Store) commit(ctx context.Context, next core.State) error {
	if s.snapshots != nil {
		if err := s.snapshots.Save(ctx, next); err != nil {
			return fmt.Errorf("save snapshot: %w", err)
		}
	}
	s.state = next
	return nil
}

func (s *Store) publish(ctx context.Context, msg *events.LedgerEntryMessage) {
	if msg == nil || s.publisher == nil {
		return
	}
	if err := s.publisher.PublishLedgerEntry(ctx, msg); err != nil {
		// The mutation already succeeded locally; the ledger export is
		// best-effort and must not fail the request.
		slog.WarnContext(ctx, "Ledger publish failed, entry will not be exported",
			"error", err, "kind", msg.Kind, "ref_id", msg.RefID)
	}
}

// ---- appointments ----

// AddAppointment books a new appointment. The status defaults to
// Scheduled; the client's next-appointment summary is recomputed.
func (s *Store) AddAppointment(ctx context.Context, a core.Appointment) (core.Appointment, error) {
	if a.Status == "" {
		a.Status = core.StatusScheduled
	}
	if err := a.Validate(); err != nil {
		return core.Appointment{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.state.Clone()
	a.ID = next.NextAppointmentID
	next.NextAppointmentID++
	next.Appointments = append(next.Appointments, a)
	refreshNextAppointment(&next, a.Client)

	if err := s.commit(ctx, next); err != nil {
		return core.Appointment{}, err
	}
	return a, nil
}

// UpdateAppointmentStatus transitions an appointment and keeps the
// revenue collection in sync:
//
//   - →Completed with no revenue referencing the appointment creates
//     one, valued by the explicit value if given, else the stored
//     value, else zero.
//   - any non-Completed status removes the referencing revenue.
//
// Re-completing an already-Completed appointment only updates fields;
// the existing-revenue guard prevents duplicates.
func (s *Store) UpdateAppointmentStatus(ctx context.Context, id int64, status core.Status, value *core.Money) (core.Appointment, error) {
	if !status.Valid() {
		return core.Appointment{}, core.ErrInvalidStatus
	}
	if value != nil && value.Cents < 0 {
		return core.Appointment{}, core.ErrInvalidAmount
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.state.Clone()
	idx := appointmentIndex(next.Appointments, id)
	if idx < 0 {
		return core.Appointment{}, ErrAppointmentNotFound
	}

	apt := &next.Appointments[idx]
	apt.Status = status
	if value != nil {
		apt.Value = *value
	}

	var msg *events.LedgerEntryMessage
	if status == core.StatusCompleted {
		if revenueIndexByAppointment(next.Revenues, id) < 0 {
			// apt.Value already carries the explicit value when one was
			// passed, so this covers the explicit→stored→zero priority.
			rev := core.Revenue{
				ID:            next.NextRevenueID,
				AppointmentID: id,
				Service:       apt.Service,
				Client:        apt.Client,
				Date:          apt.Date,
				Value:         apt.Value,
				CreatedAt:     s.now(),
			}
			next.NextRevenueID++
			next.Revenues = append(next.Revenues, rev)
			creditClient(&next, apt.Client, apt.Date, rev.Value)
			msg = events.NewLedgerEntryMessage(events.KindRevenue, rev.ID, rev.Service, rev.Client, rev.Date.Time, rev.Value.Cents, false)
		}
	} else if ri := revenueIndexByAppointment(next.Revenues, id); ri >= 0 {
		rev := next.Revenues[ri]
		next.Revenues = append(next.Revenues[:ri], next.Revenues[ri+1:]...)
		debitClient(&next, apt.Client, rev.Value)
		msg = events.NewLedgerEntryMessage(events.KindRevenue, rev.ID, rev.Service, rev.Client, rev.Date.Time, rev.Value.Cents, true)
	}

	refreshNextAppointment(&next, apt.Client)
	out := *apt

	if err := s.commit(ctx, next); err != nil {
		return core.Appointment{}, err
	}
	s.publish(ctx, msg)
	return out, nil
}

// DeleteAppointment removes the appointment and any revenue referencing
// it. A missing id leaves the state unchanged.
func (s *Store) DeleteAppointment(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.state.Clone()
	idx := appointmentIndex(next.Appointments, id)
	if idx < 0 {
		return ErrAppointmentNotFound
	}

	clientName := next.Appointments[idx].Client
	next.Appointments = append(next.Appointments[:idx], next.Appointments[idx+1:]...)

	var msg *events.LedgerEntryMessage
	if ri := revenueIndexByAppointment(next.Revenues, id); ri >= 0 {
		rev := next.Revenues[ri]
		next.Revenues = append(next.Revenues[:ri], next.Revenues[ri+1:]...)
		debitClient(&next, clientName, rev.Value)
		msg = events.NewLedgerEntryMessage(events.KindRevenue, rev.ID, rev.Service, rev.Client, rev.Date.Time, rev.Value.Cents, true)
	}

	refreshNextAppointment(&next, clientName)

	if err := s.commit(ctx, next); err != nil {
		return err
	}
	s.publish(ctx, msg)
	return nil
}

// ---- expenses ----

// AddExpense records an outgoing expense, newest first.
func (s *Store) AddExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.state.Clone()
	e.ID = next.NextExpenseID
	next.NextExpenseID++
	next.Expenses = append([]core.Expense{e}, next.Expenses...)

	if err := s.commit(ctx, next); err != nil {
		return core.Expense{}, err
	}
	s.publish(ctx, events.NewLedgerEntryMessage(events.KindExpense, e.ID, e.Name, "", e.Date.Time, e.Value.Cents, false))
	return e, nil
}

func (s *Store) DeleteExpense(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.state.Clone()
	idx := -1
	for i, e := range next.Expenses {
		if e.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrExpenseNotFound
	}
	exp := next.Expenses[idx]
	next.Expenses = append(next.Expenses[:idx], next.Expenses[idx+1:]...)

	if err := s.commit(ctx, next); err != nil {
		return err
	}
	s.publish(ctx, events.NewLedgerEntryMessage(events.KindExpense, exp.ID, exp.Name, "", exp.Date.Time, exp.Value.Cents, true))
	return nil
}

// ---- revenues (administrative corrections) ----

// AddRevenue records a manual revenue entry. This is a correction path
// that bypasses the completion flow: entries normally use
// AppointmentID 0, and an appointment that already has a revenue is
// rejected so the completion invariant cannot be broken.
func (s *Store) AddRevenue(ctx context.Context, r core.Revenue) (core.Revenue, error) {
	if err := r.Validate(); err != nil {
		return core.Revenue{}, err
	}
	if r.Value.Cents == 0 {
		return core.Revenue{}, core.ErrInvalidAmount
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.state.Clone()
	if r.AppointmentID != 0 && revenueIndexByAppointment(next.Revenues, r.AppointmentID) >= 0 {
		return core.Revenue{}, ErrRevenueExists
	}

	r.ID = next.NextRevenueID
	next.NextRevenueID++
	r.CreatedAt = s.now()
	next.Revenues = append(next.Revenues, r)

	if err := s.commit(ctx, next); err != nil {
		return core.Revenue{}, err
	}
	s.publish(ctx, events.NewLedgerEntryMessage(events.KindRevenue, r.ID, r.Service, r.Client, r.Date.Time, r.Value.Cents, false))
	return r, nil
}

// DeleteRevenue removes a revenue directly, without touching the
// appointment it may reference. Client counters are not adjusted here;
// only status transitions maintain them.
func (s *Store) DeleteRevenue(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.state.Clone()
	idx := -1
	for i, r := range next.Revenues {
		if r.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrRevenueNotFound
	}
	rev := next.Revenues[idx]
	next.Revenues = append(next.Revenues[:idx], next.Revenues[idx+1:]...)

	if err := s.commit(ctx, next); err != nil {
		return err
	}
	s.publish(ctx, events.NewLedgerEntryMessage(events.KindRevenue, rev.ID, rev.Service, rev.Client, rev.Date.Time, rev.Value.Cents, true))
	return nil
}

// ---- clients ----

// ClientPatch carries the editable client fields; nil means unchanged.
type ClientPatch struct {
	Name       *string
	Phone      *string
	BirthDate  *core.Date
	Notes      *string
	Rating     *int
	ReferredBy *string
}

func (s *Store) AddClient(ctx context.Context, c core.Client) (core.Client, error) {
	if err := c.Validate(); err != nil {
		return core.Client{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.state.Clone()
	c.ID = next.NextClientID
	next.NextClientID++
	next.Clients = append(next.Clients, c)
	// A brand-new client may already have appointments booked under the
	// same name.
	refreshNextAppointment(&next, c.Name)

	if err := s.commit(ctx, next); err != nil {
		return core.Client{}, err
	}

	idx := clientIndexByID(next.Clients, c.ID)
	return next.Clients[idx], nil
}

func (s *Store) UpdateClient(ctx context.Context, id int64, patch ClientPatch) (core.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.state.Clone()
	idx := clientIndexByID(next.Clients, id)
	if idx < 0 {
		return core.Client{}, ErrClientNotFound
	}

	c := &next.Clients[idx]
	if patch.Name != nil {
		c.Name = *patch.Name
	}
	if patch.Phone != nil {
		c.Phone = *patch.Phone
	}
	if patch.BirthDate != nil {
		c.BirthDate = *patch.BirthDate
	}
	if patch.Notes != nil {
		c.Notes = *patch.Notes
	}
	if patch.Rating != nil {
		c.Rating = *patch.Rating
	}
	if patch.ReferredBy != nil {
		c.ReferredBy = *patch.ReferredBy
	}
	if err := c.Validate(); err != nil {
		return core.Client{}, err
	}
	if patch.Name != nil {
		// Appointments link by name, so a rename changes which bookings
		// the summary is derived from.
		refreshNextAppointment(&next, c.Name)
	}
	out := *c

	if err := s.commit(ctx, next); err != nil {
		return core.Client{}, err
	}
	return out, nil
}

// DeleteClient removes the client and cascades to that client's
// appointments. Revenues are kept: historical financial records outlive
// the client they came from.
func (s *Store) DeleteClient(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.state.Clone()
	idx := clientIndexByID(next.Clients, id)
	if idx < 0 {
		return ErrClientNotFound
	}
	name := next.Clients[idx].Name
	next.Clients = append(next.Clients[:idx], next.Clients[idx+1:]...)

	kept := next.Appointments[:0]
	for _, a := range next.Appointments {
		if a.Client != name {
			kept = append(kept, a)
		}
	}
	next.Appointments = kept

	return s.commit(ctx, next)
}

// ---- financial aggregates ----

// TotalRevenue sums all revenue values. Aggregate queries never fail.
func (s *Store) TotalRevenue() core.Money {
	s.mu.Lock()
	defer s.mu.Unlock()
	var cents int64
	for _, r := range s.state.Revenues {
		cents += r.Value.Cents
	}
	return core.Money{Cents: cents}
}

// TotalExpenses sums all expense values.
func (s *Store) TotalExpenses() core.Money {
	s.mu.Lock()
	defer s.mu.Unlock()
	var cents int64
	for _, e := range s.state.Expenses {
		cents += e.Value.Cents
	}
	return core.Money{Cents: cents}
}

// NetProfit is total revenue minus total expenses.
func (s *Store) NetProfit() core.Money {
	return core.Money{Cents: s.TotalRevenue().Cents - s.TotalExpenses().Cents}
}

// ---- helpers ----

func appointmentIndex(apts []core.Appointment, id int64) int {
	for i, a := range apts {
		if a.ID == id {
			return i
		}
	}
	return -1
}

func revenueIndexByAppointment(revs []core.Revenue, appointmentID int64) int {
	for i, r := range revs {
		if r.AppointmentID == appointmentID {
			return i
		}
	}
	return -1
}

func clientIndexByID(clients []core.Client, id int64) int {
	for i, c := range clients {
		if c.ID == id {
			return i
		}
	}
	return -1
}

func clientIndexByName(clients []core.Client, name string) int {
	for i, c := range clients {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// creditClient updates the aggregate counters when a revenue is
// recorded for an appointment. Appointments reference clients by
// free-text name; an unknown name is simply skipped.
func creditClient(state *core.State, name string, date core.Date, amount core.Money) {
	idx := clientIndexByName(state.Clients, name)
	if idx < 0 {
		return
	}
	c := &state.Clients[idx]
	c.TotalAppointments++
	c.TotalSpent.Cents += amount.Cents
	d := date
	c.LastAppointment = &d
}

func debitClient(state *core.State, name string, amount core.Money) {
	idx := clientIndexByName(state.Clients, name)
	if idx < 0 {
		return
	}
	c := &state.Clients[idx]
	if c.TotalAppointments > 0 {
		c.TotalAppointments--
	}
	c.TotalSpent.Cents -= amount.Cents
	if c.TotalSpent.Cents < 0 {
		c.TotalSpent.Cents = 0
	}
}

// refreshNextAppointment recomputes the denormalized next-appointment
// summary for the named client. The summary is a cache over the
// appointment collection, invalidated here on every appointment
// mutation that touches the client: the earliest Scheduled appointment
// wins, or nil when there is none.
func refreshNextAppointment(state *core.State, name string) {
	idx := clientIndexByName(state.Clients, name)
	if idx < 0 {
		return
	}

	var upcoming []core.Appointment
	for _, a := range state.Appointments {
		if a.Client == name && a.Status == core.StatusScheduled {
			upcoming = append(upcoming, a)
		}
	}
	if len(upcoming) == 0 {
		state.Clients[idx].NextAppointment = nil
		return
	}

	sort.Slice(upcoming, func(i, j int) bool {
		if !upcoming[i].Date.SameDay(upcoming[j].Date) {
			return upcoming[i].Date.Before(upcoming[j].Date.Time)
		}
		return upcoming[i].Time < upcoming[j].Time
	})

	first := upcoming[0]
	state.Clients[idx].NextAppointment = &core.AppointmentSummary{
		Service: first.Service,
		Date:    first.Date,
		Time:    first.Time,
	}
}
