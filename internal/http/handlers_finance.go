package http

import (
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"atelie/internal/core"
	"atelie/internal/store"
)

type financeData struct {
	TotalRevenue  string
	TotalExpenses string
	NetProfit     string
	Negative      bool
	Revenues      []revenueRow
	Expenses      []expenseRow
}

type revenueRow struct {
	ID      int64
	Service string
	Client  string
	Date    string
	Value   string
}

type expenseRow struct {
	ID       int64
	Name     string
	Category string
	Date     string
	Supplier string
	Value    string
}

// financeData derives the financial panel from a state snapshot. The
// aggregates always satisfy net = revenue - expenses because all three
// are computed over the same snapshot.
func (s *Server) financeData(state core.State) financeData {
	var revCents, expCents int64

	revenues := make([]revenueRow, 0, len(state.Revenues))
	for i := len(state.Revenues) - 1; i >= 0; i-- {
		r := state.Revenues[i]
		revCents += r.Value.Cents
		revenues = append(revenues, revenueRow{
			ID:      r.ID,
			Service: r.Service,
			Client:  r.Client,
			Date:    r.Date.Format("02/01/2006"),
			Value:   core.FormatBRL(r.Value.Cents),
		})
	}

	expenses := make([]expenseRow, 0, len(state.Expenses))
	for _, e := range state.Expenses {
		expCents += e.Value.Cents
		expenses = append(expenses, expenseRow{
			ID:       e.ID,
			Name:     e.Name,
			Category: e.Category,
			Date:     e.Date.Format("02/01/2006"),
			Supplier: e.Supplier,
			Value:    core.FormatBRL(e.Value.Cents),
		})
	}

	net := revCents - expCents
	return financeData{
		TotalRevenue:  core.FormatBRL(revCents),
		TotalExpenses: core.FormatBRL(expCents),
		NetProfit:     core.FormatBRL(net),
		Negative:      net < 0,
		Revenues:      revenues,
		Expenses:      expenses,
	}
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
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

	date, err := parseDate(strings.TrimSpace(r.Form.Get("date")))
	if err != nil {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`<div class="error">Data inválida</div>`))
		return
	}

	amountStr := strings.TrimSpace(r.Form.Get("value"))
	cents, err := core.ParseDecimalToCents(amountStr)
	if err != nil {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`<div class="error">Valor inválido</div>`))
		return
	}

	exp := core.Expense{
		Name:     sanitizeInput(r.Form.Get("name")),
		Category: sanitizeInput(r.Form.Get("category")),
		Date:     date,
		Supplier: sanitizeInput(r.Form.Get("supplier")),
		Value:    core.Money{Cents: cents},
	}
	created, err := s.store.AddExpense(r.Context(), exp)
	if err != nil {
		if isValidationError(err) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`<div class="error">Dados inválidos: ` + template.HTMLEscapeString(err.Error()) + `</div>`))
			return
		}
		slog.ErrorContext(r.Context(), "Failed to save expense",
			"error", err,
			"name", exp.Name,
			"amount_cents", exp.Value.Cents,
			"category", exp.Category,
			"component", "expense_handler",
			"operation", "create")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`<div class="error">Erro ao salvar a despesa</div>`))
		return
	}

	slog.InfoContext(r.Context(), "Expense created",
		"id", created.ID,
		"name", created.Name,
		"amount_cents", created.Value.Cents,
		"category", created.Category)

	successMsg := fmt.Sprintf("Despesa registrada: %s — R$ %s",
		template.HTMLEscapeString(created.Name),
		template.HTMLEscapeString(amountStr))

	w.Header().Set("HX-Trigger", fmt.Sprintf(`{
		"form:reset": {},
		"show-notification": {"type": "success", "message": "%s", "duration": 3000},
		"finance:refresh": {}
	}`, template.JSEscapeString(successMsg)))

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(""))
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
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
		_, _ = w.Write([]byte(`<div class="error">ID da despesa ausente</div>`))
		return
	}

	if err := s.store.DeleteExpense(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrExpenseNotFound) {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`<div class="error">Despesa não encontrada</div>`))
			return
		}
		slog.ErrorContext(r.Context(), "Failed to delete expense",
			"error", err,
			"id", id,
			"component", "expense_handler",
			"operation", "delete")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`<div class="error">Erro ao excluir a despesa</div>`))
		return
	}

	slog.InfoContext(r.Context(), "Expense deleted", "id", id)

	w.Header().Set("HX-Trigger", `{"finance:refresh": {}, "show-notification": {"type": "success", "message": "Despesa excluída", "duration": 2000}}`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(""))
}

func (s *Server) handleCreateRevenue(w http.ResponseWriter, r *http.Request) {
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

	date, err := parseDate(strings.TrimSpace(r.Form.Get("date")))
	if err != nil {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`<div class="error">Data inválida</div>`))
		return
	}
	cents, err := core.ParseDecimalToCents(strings.TrimSpace(r.Form.Get("value")))
	if err != nil {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`<div class="error">Valor inválido</div>`))
		return
	}

	rev := core.Revenue{
		Service: sanitizeInput(r.Form.Get("service")),
		Client:  sanitizeInput(r.Form.Get("client")),
		Date:    date,
		Value:   core.Money{Cents: cents},
	}
	created, err := s.store.AddRevenue(r.Context(), rev)
	if err != nil {
		if isValidationError(err) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`<div class="error">Dados inválidos: ` + template.HTMLEscapeString(err.Error()) + `</div>`))
			return
		}
		slog.ErrorContext(r.Context(), "Failed to save revenue",
			"error", err,
			"service", rev.Service,
			"amount_cents", rev.Value.Cents,
			"component", "revenue_handler",
			"operation", "create")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`<div class="error">Erro ao salvar a receita</div>`))
		return
	}

	slog.InfoContext(r.Context(), "Revenue created",
		"id", created.ID,
		"service", created.Service,
		"amount_cents", created.Value.Cents)

	w.Header().Set("HX-Trigger", `{"form:reset": {}, "finance:refresh": {}}`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(""))
}

func (s *Server) handleDeleteRevenue(w http.ResponseWriter, r *http.Request) {
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
		_, _ = w.Write([]byte(`<div class="error">ID da receita ausente</div>`))
		return
	}

	if err := s.store.DeleteRevenue(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrRevenueNotFound) {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`<div class="error">Receita não encontrada</div>`))
			return
		}
		slog.ErrorContext(r.Context(), "Failed to delete revenue",
			"error", err,
			"id", id,
			"component", "revenue_handler",
			"operation", "delete")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`<div class="error">Erro ao excluir a receita</div>`))
		return
	}

	slog.InfoContext(r.Context(), "Revenue deleted", "id", id)

	w.Header().Set("HX-Trigger", `{"finance:refresh": {}}`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(""))
}

func (s *Server) handleFinancePartial(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	data := s.financeData(s.store.Snapshot())
	if err := s.templates.ExecuteTemplate(w, "financeiro", data); err != nil {
		slog.ErrorContext(r.Context(), "Finance template execution failed", "error", err, "template", "financeiro")
		_, _ = w.Write([]byte(`<div class="finance"><div class="row placeholder">Erro no template</div></div>`))
	}
}
