package core

import "time"

// State is the full snapshot of the four collections plus the monotonic
// ID counters. The counters never reuse values, so deletions cannot lead
// to ID collisions. State is what the persistence backends serialize;
// the whole snapshot is written on every mutation and read on startup.
type State struct {
	Appointments []Appointment `json:"appointments"`
	Clients      []Client      `json:"clients"`
	Expenses     []Expense     `json:"expenses"`
	Revenues     []Revenue     `json:"revenues"`

	NextAppointmentID int64 `json:"nextAppointmentId"`
	NextClientID      int64 `json:"nextClientId"`
	NextExpenseID     int64 `json:"nextExpenseId"`
	NextRevenueID     int64 `json:"nextRevenueId"`
}

// Clone returns a deep copy. Readers always get cloned state so a held
// snapshot is never exposed to a later partial update.
func (s State) Clone() State {
	out := s
	out.Appointments = append([]Appointment(nil), s.Appointments...)
	out.Expenses = append([]Expense(nil), s.Expenses...)
	out.Revenues = append([]Revenue(nil), s.Revenues...)
	out.Clients = make([]Client, len(s.Clients))
	for i, c := range s.Clients {
		if c.LastAppointment != nil {
			d := *c.LastAppointment
			c.LastAppointment = &d
		}
		if c.NextAppointment != nil {
			n := *c.NextAppointment
			c.NextAppointment = &n
		}
		out.Clients[i] = c
	}
	return out
}

// Normalize repairs counters loaded from older snapshots that predate
// monotonic ID assignment, bumping each counter past the highest ID seen.
func (s *State) Normalize() {
	for _, a := range s.Appointments {
		if a.ID >= s.NextAppointmentID {
			s.NextAppointmentID = a.ID + 1
		}
	}
	for _, c := range s.Clients {
		if c.ID >= s.NextClientID {
			s.NextClientID = c.ID + 1
		}
	}
	for _, e := range s.Expenses {
		if e.ID >= s.NextExpenseID {
			s.NextExpenseID = e.ID + 1
		}
	}
	for _, r := range s.Revenues {
		if r.ID >= s.NextRevenueID {
			s.NextRevenueID = r.ID + 1
		}
	}
}

func datePtr(d Date) *Date { return &d }

// SeedState returns the default dataset used when no stored snapshot
// exists yet.
func SeedState() State {
	now := time.Now()
	s := State{
		Appointments: []Appointment{
			{ID: 1, Service: "Unhas em Gel", Client: "João Santos", Date: NewDate(2025, 5, 15), Time: "11:00", DurationMin: 90, Status: StatusScheduled, Value: Money{Cents: 4500}},
			{ID: 2, Service: "Molde F1", Client: "Carolina Mendes", Date: NewDate(2025, 5, 15), Time: "11:00", DurationMin: 120, Status: StatusScheduled, Value: Money{Cents: 8000}},
			{ID: 3, Service: "Pedicure", Client: "Maria Silva", Date: NewDate(2025, 5, 10), Time: "14:00", DurationMin: 60, Status: StatusCompleted, Value: Money{Cents: 3000}},
			{ID: 4, Service: "Manicure", Client: "Ana Pereira", Date: NewDate(2025, 5, 8), Time: "16:00", DurationMin: 45, Status: StatusCompleted, Value: Money{Cents: 2500}},
		},
		Expenses: []Expense{
			{ID: 1, Name: "Máquina de lixar", Category: "Equipamentos", Date: NewDate(2025, 7, 18), Supplier: "Loja para profissionais", Value: Money{Cents: 10000}},
			{ID: 2, Name: "Polideira", Category: "Equipamentos", Date: NewDate(2025, 7, 18), Supplier: "Loja para profissionais", Value: Money{Cents: 15000}},
			{ID: 3, Name: "Lixa elétrica", Category: "Equipamentos", Date: NewDate(2025, 7, 18), Supplier: "MM Cosméticos", Value: Money{Cents: 20000}},
		},
		Revenues: []Revenue{
			{ID: 1, AppointmentID: 3, Service: "Pedicure", Client: "Maria Silva", Date: NewDate(2025, 5, 10), Value: Money{Cents: 3000}, CreatedAt: now},
			{ID: 2, AppointmentID: 4, Service: "Manicure", Client: "Ana Pereira", Date: NewDate(2025, 5, 8), Value: Money{Cents: 2500}, CreatedAt: now},
		},
		Clients: []Client{
			{ID: 1, Name: "Maria Silva", Phone: "(11) 99876-5432", BirthDate: NewDate(1985, 3, 15), Notes: "Prefere designs naturais e cores neutras", Rating: 5, LastAppointment: datePtr(NewDate(2024, 1, 10)), TotalAppointments: 15, TotalSpent: Money{Cents: 120000}},
			{ID: 2, Name: "Ana Pereira", Phone: "(11) 98765-4321", BirthDate: NewDate(1990, 7, 22), Notes: "Alérgica a alguns esmaltes - verificar sempre", Rating: 4, ReferredBy: "Maria Silva", LastAppointment: datePtr(NewDate(2024, 1, 8)), NextAppointment: &AppointmentSummary{Service: "Molde F1 Completo", Date: NewDate(2025, 6, 20), Time: "14:00"}, TotalAppointments: 12, TotalSpent: Money{Cents: 96000}},
			{ID: 3, Name: "João Santos", Phone: "(11) 97654-3210", BirthDate: NewDate(1988, 11, 10), Rating: 3},
			{ID: 4, Name: "Carolina Mendes", Phone: "(11) 96543-2109", BirthDate: NewDate(1992, 5, 8), Notes: "Cliente VIP - sempre pontual e educada", Rating: 5, ReferredBy: "Ana Pereira", LastAppointment: datePtr(NewDate(2024, 1, 5)), TotalAppointments: 8, TotalSpent: Money{Cents: 64000}},
		},
		NextAppointmentID: 5,
		NextClientID:      5,
		NextExpenseID:     4,
		NextRevenueID:     3,
	}
	return s
}
