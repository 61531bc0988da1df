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

	"atelie/internal/core"
	"atelie/internal/store"
)

func (s *Server) handleCreateClient(w http.ResponseWriter, r *http.Request) {
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

	c := core.Client{
		Name:       sanitizeInput(r.Form.Get("name")),
		Phone:      sanitizeInput(r.Form.Get("phone")),
		Notes:      sanitizeInput(r.Form.Get("notes")),
		ReferredBy: sanitizeInput(r.Form.Get("referredBy")),
		Rating:     5,
	}
	if v := strings.TrimSpace(r.Form.Get("rating")); v != "" {
		if rating, err := strconv.Atoi(v); err == nil {
			c.Rating = rating
		}
	}
	if v := strings.TrimSpace(r.Form.Get("birthDate")); v != "" {
		d, err := parseDate(v)
		if err != nil {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`<div class="error">Data de nascimento inválida</div>`))
			return
		}
		c.BirthDate = d
	}

	created, err := s.store.AddClient(r.Context(), c)
	if err != nil {
		if isValidationError(err) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`<div class="error">Dados inválidos: ` + template.HTMLEscapeString(err.Error()) + `</div>`))
			return
		}
		slog.ErrorContext(r.Context(), "Failed to save client",
			"error", err,
			"name", c.Name,
			"component", "client_handler",
			"operation", "create")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`<div class="error">Erro ao salvar a cliente</div>`))
		return
	}

	slog.InfoContext(r.Context(), "Client created", "id", created.ID, "name", created.Name)

	successMsg := fmt.Sprintf("Cliente cadastrada: %s", template.HTMLEscapeString(created.Name))
	w.Header().Set("HX-Trigger", fmt.Sprintf(`{
		"form:reset": {},
		"show-notification": {"type": "success", "message": "%s", "duration": 3000},
		"clients:refresh": {}
	}`, template.JSEscapeString(successMsg)))

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(""))
}

func (s *Server) handleUpdateClient(w http.ResponseWriter, r *http.Request) {
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
		_, _ = w.Write([]byte(`<div class="error">ID da cliente ausente</div>`))
		return
	}

	// Only fields present in the form are patched.
	var patch store.ClientPatch
	if r.Form.Has("name") {
		v := sanitizeInput(r.Form.Get("name"))
		patch.Name = &v
	}
	if r.Form.Has("phone") {
		v := sanitizeInput(r.Form.Get("phone"))
		patch.Phone = &v
	}
	if r.Form.Has("notes") {
		v := sanitizeInput(r.Form.Get("notes"))
		patch.Notes = &v
	}
	if r.Form.Has("referredBy") {
		v := sanitizeInput(r.Form.Get("referredBy"))
		patch.ReferredBy = &v
	}
	if v := strings.TrimSpace(r.Form.Get("rating")); v != "" {
		rating, err := strconv.Atoi(v)
		if err != nil {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`<div class="error">Avaliação inválida</div>`))
			return
		}
		patch.Rating = &rating
	}
	if v := strings.TrimSpace(r.Form.Get("birthDate")); v != "" {
		d, err := parseDate(v)
		if err != nil {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`<div class="error">Data de nascimento inválida</div>`))
			return
		}
		patch.BirthDate = &d
	}

	updated, err := s.store.UpdateClient(r.Context(), id, patch)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrClientNotFound):
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`<div class="error">Cliente não encontrada</div>`))
		case isValidationError(err):
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`<div class="error">Dados inválidos: ` + template.HTMLEscapeString(err.Error()) + `</div>`))
		default:
			slog.ErrorContext(r.Context(), "Failed to update client",
				"error", err,
				"id", id,
				"component", "client_handler",
				"operation", "update")
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`<div class="error">Erro ao atualizar a cliente</div>`))
		}
		return
	}

	slog.InfoContext(r.Context(), "Client updated", "id", updated.ID, "name", updated.Name)

	w.Header().Set("HX-Trigger", `{"clients:refresh": {}}`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(""))
}

func (s *Server) handleDeleteClient(w http.ResponseWriter, r *http.Request) {
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
		_, _ = w.Write([]byte(`<div class="error">ID da cliente ausente</div>`))
		return
	}

	if err := s.store.DeleteClient(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrClientNotFound) {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`<div class="error">Cliente não encontrada</div>`))
			return
		}
		slog.ErrorContext(r.Context(), "Failed to delete client",
			"error", err,
			"id", id,
			"component", "client_handler",
			"operation", "delete")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`<div class="error">Erro ao excluir a cliente</div>`))
		return
	}

	slog.InfoContext(r.Context(), "Client deleted", "id", id)

	w.Header().Set("HX-Trigger", `{"clients:refresh": {}, "agenda:refresh": {}}`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(""))
}

type clientRow struct {
	ID                int64
	Name              string
	Phone             string
	Notes             string
	Rating            int
	ReferredBy        string
	LastAppointment   string
	NextAppointment   string
	TotalAppointments int
	TotalSpent        string
}

func (s *Server) handleClientsPartial(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	state := s.store.Snapshot()
	sort.Slice(state.Clients, func(i, j int) bool {
		return state.Clients[i].Name < state.Clients[j].Name
	})

	rows := make([]clientRow, 0, len(state.Clients))
	for _, c := range state.Clients {
		row := clientRow{
			ID:                c.ID,
			Name:              c.Name,
			Phone:             c.Phone,
			Notes:             c.Notes,
			Rating:            c.Rating,
			ReferredBy:        c.ReferredBy,
			TotalAppointments: c.TotalAppointments,
			TotalSpent:        core.FormatBRL(c.TotalSpent.Cents),
		}
		if c.LastAppointment != nil {
			row.LastAppointment = c.LastAppointment.Format("02/01/2006")
		}
		if c.NextAppointment != nil {
			row.NextAppointment = fmt.Sprintf("%s — %s às %s",
				c.NextAppointment.Service,
				c.NextAppointment.Date.Format("02/01/2006"),
				c.NextAppointment.Time)
		}
		rows = append(rows, row)
	}

	data := struct {
		Rows []clientRow
	}{Rows: rows}

	if err := s.templates.ExecuteTemplate(w, "clientes", data); err != nil {
		slog.ErrorContext(r.Context(), "Clients template execution failed", "error", err, "template", "clientes")
		_, _ = w.Write([]byte(`<div class="clients"><div class="row placeholder">Erro no template</div></div>`))
	}
}
