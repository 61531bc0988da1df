package http

import (
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"atelie/internal/core"
	"atelie/internal/store"
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if s.templates == nil {
		slog.ErrorContext(r.Context(), "Templates not loaded", "url", r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	data := struct {
		Today      string
		Services   []core.Service
		Categories []string
	}{
		Today:      time.Now().Format("2006-01-02"),
		Services:   core.Services,
		Categories: core.ExpenseCategories,
	}

	if err := s.templates.ExecuteTemplate(w, "index.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Index template execution failed", "error", err, "template", "index.html")
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

type appointmentRow struct {
	ID       int64
	Service  string
	Client   string
	Date     string
	Time     string
	Duration int
	Status   core.Status
	Value    string
}

// agendaRows renders the appointments for one day, ordered by time. An
// empty date renders the whole agenda ordered by date then time.
func (s *Server) agendaRows(state core.State, date string) []appointmentRow {
	var day core.Date
	if date != "" {
		if d, err := parseDate(date); err == nil {
			day = d
		}
	}

	var apts []core.Appointment
	for _, a := range state.Appointments {
		if date == "" || a.Date.SameDay(day) {
			apts = append(apts, a)
		}
	}
	sort.Slice(apts, func(i, j int) bool {
		if !apts[i].Date.SameDay(apts[j].Date) {
			return apts[i].Date.Before(apts[j].Date.Time)
		}
		return apts[i].Time < apts[j].Time
	})

	rows := make([]appointmentRow, 0, len(apts))
	for _, a := range apts {
		rows = append(rows, appointmentRow{
			ID:       a.ID,
			Service:  a.Service,
			Client:   a.Client,
			Date:     a.Date.Format("02/01/2006"),
			Time:     a.Time,
			Duration: a.DurationMin,
			Status:   a.Status,
			Value:    core.FormatBRL(a.Value.Cents),
		})
	}
	return rows
}

func (s *Server) handleCreateAppointment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		slog.ErrorContext(r.Context(), "Parse form error", "error", err, "method", r.Method, "url", r.URL.Path)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`<div class="error">Formato de requisição inválido</div>`))
		return
	}

	service := sanitizeInput(r.Form.Get("service"))
	client := sanitizeInput(r.Form.Get("client"))
	timeOfDay := strings.TrimSpace(r.Form.Get("time"))

	date, err := parseDate(strings.TrimSpace(r.Form.Get("date")))
	if err != nil {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`<div class="error">Data inválida</div>`))
		return
	}

	duration := 0
	if v := strings.TrimSpace(r.Form.Get("duration")); v != "" {
		if d, err := strconv.Atoi(v); err == nil {
			duration = d
		}
	}
	value := core.Money{}
	if v, err := parseOptionalMoney(r, "value"); err != nil {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`<div class="error">Valor inválido</div>`))
		return
	} else if v != nil {
		value = *v
	}
	// Price and duration default from the service catalog.
	if svc, ok := core.ServiceByName(service); ok {
		if value.Cents == 0 {
			value = svc.Price
		}
		if duration == 0 {
			duration = svc.DurationMin
		}
	}

	// Double-booking check: the same day and start time can hold only
	// one active appointment.
	if s.hasTimeConflict(date, timeOfDay) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`<div class="error">Horário já ocupado nesta data</div>`))
		return
	}

	apt := core.Appointment{
		Service:     service,
		Client:      client,
		Date:        date,
		Time:        timeOfDay,
		DurationMin: duration,
		Value:       value,
	}
	created, err := s.store.AddAppointment(r.Context(), apt)
	if err != nil {
		if isValidationError(err) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`<div class="error">Dados inválidos: ` + template.HTMLEscapeString(err.Error()) + `</div>`))
			return
		}
		slog.ErrorContext(r.Context(), "Failed to save appointment",
			"error", err,
			"service", service,
			"client", client,
			"component", "appointment_handler",
			"operation", "create")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`<div class="error">Erro ao salvar o agendamento</div>`))
		return
	}

	slog.InfoContext(r.Context(), "Appointment created",
		"id", created.ID,
		"service", created.Service,
		"client", created.Client,
		"date", created.Date.Format("2006-01-02"),
		"time", created.Time)

	successMsg := fmt.Sprintf("Agendamento #%d: %s — %s às %s",
		created.ID,
		template.HTMLEscapeString(created.Service),
		template.HTMLEscapeString(created.Client),
		template.HTMLEscapeString(created.Time))

	w.Header().Set("HX-Trigger", fmt.Sprintf(`{
		"form:reset": {},
		"show-notification": {"type": "success", "message": "%s", "duration": 3000},
		"agenda:refresh": {}
	}`, template.JSEscapeString(successMsg)))

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(""))
}

// hasTimeConflict reports whether a Scheduled appointment already holds
// the given day and start time.
func (s *Server) hasTimeConflict(date core.Date, timeOfDay string) bool {
	state := s.store.Snapshot()
	for _, a := range state.Appointments {
		if a.Status == core.StatusScheduled && a.Time == timeOfDay && a.Date.SameDay(date) {
			return true
		}
	}
	return false
}

func (s *Server) handleAppointmentStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`<div class="error">Formato de requisição inválido</div>`))
		return
	}

	id, err := parseID(r, "id")
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`<div class="error">ID do agendamento ausente</div>`))
		return
	}
	status := core.Status(sanitizeInput(r.Form.Get("status")))
	value, err := parseOptionalMoney(r, "value")
	if err != nil {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`<div class="error">Valor inválido</div>`))
		return
	}

	updated, err := s.store.UpdateAppointmentStatus(r.Context(), id, status, value)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrAppointmentNotFound):
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`<div class="error">Agendamento não encontrado</div>`))
		case isValidationError(err):
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`<div class="error">Dados inválidos: ` + template.HTMLEscapeString(err.Error()) + `</div>`))
		default:
			slog.ErrorContext(r.Context(), "Failed to update appointment status",
				"error", err,
				"id", id,
				"status", string(status),
				"component", "appointment_handler",
				"operation", "status")
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`<div class="error">Erro ao atualizar o agendamento</div>`))
		}
		return
	}

	slog.InfoContext(r.Context(), "Appointment status updated",
		"id", updated.ID,
		"status", string(updated.Status),
		"value_cents", updated.Value.Cents)

	w.Header().Set("HX-Trigger", `{"agenda:refresh": {}, "finance:refresh": {}}`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(""))
}

func (s *Server) handleDeleteAppointment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete && r.Method != http.MethodPost {
		w.Header().Set("Allow", "DELETE, POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`<div class="error">Formato de requisição inválido</div>`))
		return
	}

	id, err := parseID(r, "id")
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`<div class="error">ID do agendamento ausente</div>`))
		return
	}

	if err := s.store.DeleteAppointment(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrAppointmentNotFound) {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`<div class="error">Agendamento não encontrado</div>`))
			return
		}
		slog.ErrorContext(r.Context(), "Failed to delete appointment",
			"error", err,
			"id", id,
			"component", "appointment_handler",
			"operation", "delete")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`<div class="error">Erro ao excluir o agendamento</div>`))
		return
	}

	slog.InfoContext(r.Context(), "Appointment deleted", "id", id)

	w.Header().Set("HX-Trigger", `{"agenda:refresh": {}, "finance:refresh": {}}`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(""))
}

func (s *Server) handleAgendaPartial(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	date := strings.TrimSpace(r.URL.Query().Get("date"))
	if date != "" {
		if _, err := parseDate(date); err != nil {
			slog.WarnContext(r.Context(), "Invalid date parameter", "date", date)
			date = time.Now().Format("2006-01-02")
		}
	}

	data := struct {
		Date string
		Rows []appointmentRow
	}{
		Date: date,
		Rows: s.agendaRows(s.store.Snapshot(), date),
	}

	if err := s.templates.ExecuteTemplate(w, "agenda", data); err != nil {
		slog.ErrorContext(r.Context(), "Agenda template execution failed", "error", err, "template", "agenda")
		_, _ = w.Write([]byte(`<div class="agenda"><div class="row placeholder">Erro no template</div></div>`))
	}
}

// isValidationError separates caller mistakes from infrastructure
// failures for status-code selection.
func isValidationError(err error) bool {
	return errors.Is(err, core.ErrInvalidStatus) ||
		errors.Is(err, core.ErrInvalidAmount) ||
		errors.Is(err, core.ErrInvalidRating) ||
		errors.Is(err, core.ErrInvalidCategory) ||
		errors.Is(err, core.ErrInvalidTime) ||
		errors.Is(err, core.ErrEmptyService) ||
		errors.Is(err, core.ErrEmptyName) ||
		errors.Is(err, core.ErrEmptyPhone) ||
		errors.Is(err, store.ErrRevenueExists)
}
