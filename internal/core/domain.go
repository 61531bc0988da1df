package core

import (
	"errors"
	"strings"
	"time"
)

const (
	StatusScheduled Status = "Agendado"
	StatusCompleted Status = "Concluído"
	StatusCancelled Status = "Cancelado"
)

// Expense categories are a fixed set maintained by the studio owner.
var ExpenseCategories = []string{"Equipamentos", "Materiais", "Aluguel", "Marketing"}

type (
	Status string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Appointment is a scheduled service booking. Client is a free-text
	// name, not a foreign key into the client collection.
	Appointment struct {
		ID          int64  `json:"id"`
		Service     string `json:"service"`
		Client      string `json:"client"`
		Date        Date   `json:"date"`
		Time        string `json:"time"` // "15:04"
		DurationMin int    `json:"durationMin"`
		Status      Status `json:"status"`
		Value       Money  `json:"value"` // optional; zero means not priced yet
	}

	// AppointmentSummary is the denormalized copy of an appointment kept
	// on a client record. It is a cache, not a reference: the store
	// recomputes it on every appointment mutation affecting the client.
	AppointmentSummary struct {
		Service string `json:"service"`
		Date    Date   `json:"date"`
		Time    string `json:"time"`
	}

	Client struct {
		ID                int64               `json:"id"`
		Name              string              `json:"name"`
		Phone             string              `json:"phone"`
		BirthDate         Date                `json:"birthDate"`
		Notes             string              `json:"notes"`
		Rating            int                 `json:"rating"` // 1-5
		ReferredBy        string              `json:"referredBy"`
		LastAppointment   *Date               `json:"lastAppointment"`
		NextAppointment   *AppointmentSummary `json:"nextAppointment"`
		TotalAppointments int                 `json:"totalAppointments"`
		TotalSpent        Money               `json:"totalSpent"`
	}

	Expense struct {
		ID       int64  `json:"id"`
		Name     string `json:"name"`
		Category string `json:"category"`
		Date     Date   `json:"date"`
		Supplier string `json:"supplier"`
		Value    Money  `json:"value"`
	}

	// Revenue is a financial record derived from a completed appointment.
	// AppointmentID is a soft reference: deleting the appointment removes
	// the revenue, deleting the revenue leaves the appointment alone.
	// Manual corrections carry AppointmentID 0.
	Revenue struct {
		ID            int64     `json:"id"`
		AppointmentID int64     `json:"appointmentId"`
		Service       string    `json:"service"`
		Client        string    `json:"client"`
		Date          Date      `json:"date"`
		Value         Money     `json:"value"`
		CreatedAt     time.Time `json:"createdAt"`
	}
)

var (
	ErrInvalidStatus   = errors.New("invalid status")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidRating   = errors.New("rating must be between 1 and 5")
	ErrInvalidCategory = errors.New("unknown expense category")
	ErrInvalidTime     = errors.New("invalid time of day")
	ErrEmptyService    = errors.New("empty service name")
	ErrEmptyName       = errors.New("empty name")
	ErrEmptyPhone      = errors.New("empty phone")
)

func (s Status) Valid() bool {
	switch s {
	case StatusScheduled, StatusCompleted, StatusCancelled:
		return true
	default:
		return false
	}
}

// NewDate creates a Date from year, month, day at UTC midnight.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	return nil
}

// SameDay reports whether two dates fall on the same calendar day.
func (d Date) SameDay(other Date) bool {
	y1, m1, d1 := d.Date()
	y2, m2, d2 := other.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// ValidateTimeOfDay checks an "HH:MM" wall-clock string.
func ValidateTimeOfDay(s string) error {
	if _, err := time.Parse("15:04", s); err != nil {
		return ErrInvalidTime
	}
	return nil
}

func (a Appointment) Validate() error {
	if strings.TrimSpace(a.Service) == "" {
		return ErrEmptyService
	}
	if strings.TrimSpace(a.Client) == "" {
		return ErrEmptyName
	}
	if err := a.Date.Validate(); err != nil {
		return err
	}
	if err := ValidateTimeOfDay(a.Time); err != nil {
		return err
	}
	if !a.Status.Valid() {
		return ErrInvalidStatus
	}
	if a.Value.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (c Client) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if strings.TrimSpace(c.Phone) == "" {
		return ErrEmptyPhone
	}
	if c.Rating < 1 || c.Rating > 5 {
		return ErrInvalidRating
	}
	return nil
}

func (e Expense) Validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return ErrEmptyName
	}
	if !validCategory(e.Category) {
		return ErrInvalidCategory
	}
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if e.Value.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (r Revenue) Validate() error {
	if strings.TrimSpace(r.Service) == "" {
		return ErrEmptyService
	}
	if err := r.Date.Validate(); err != nil {
		return err
	}
	if r.Value.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

func validCategory(name string) bool {
	for _, c := range ExpenseCategories {
		if c == name {
			return true
		}
	}
	return false
}
