package http

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"salesjournal/internal/core"
	"salesjournal/internal/journal"
	applog "salesjournal/internal/log"
	"salesjournal/internal/report"
)

const requestTimeout = 7 * time.Second

type journalView struct {
	Form          journal.Form
	Products      []core.Product
	Transactions  []core.Transaction
	Total         float64
	DeletePrompt  string
	NoticeMessage string
}

type dashboardView struct {
	Dashboard report.Dashboard
	Period    core.Period
	TopSort   core.SortKey
	MaxDaily  float64
}

func (s *Server) newJournalView(st journal.State) journalView {
	v := journalView{
		Form:         st.Form,
		Products:     s.journal.Catalog().Products(),
		Transactions: report.SortForJournal(st.Transactions),
		Total:        report.TotalSales(st.Transactions),
		DeletePrompt: journal.DeletePrompt,
	}
	if msg, ok := s.journal.Notice().Current(); ok {
		v.NoticeMessage = msg
	}
	return v
}

func newDashboardView(d report.Dashboard) dashboardView {
	v := dashboardView{Dashboard: d, Period: d.Summary.Period, TopSort: d.TopSort}
	for _, p := range d.Daily {
		if p.Sales > v.MaxDaily {
			v.MaxDaily = p.Sales
		}
	}
	return v
}

// render executes name into a buffer first so a template error never
// produces a half-written page.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	if s.templates == nil {
		s.logger.ErrorContext(r.Context(), "Templates not loaded")
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		s.logger.ErrorContext(r.Context(), "Template execution failed", "template", name, "error", err)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) renderString(ctx context.Context, name string, data any) (string, error) {
	if s.templates == nil {
		return "", fmt.Errorf("templates not loaded")
	}
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("execute %s: %w", name, err)
	}
	return buf.String(), nil
}

// failRequest logs err and writes the matching error fragment with an
// error notification.
func (s *Server) failRequest(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := statusForError(err)
	logger := applog.FromContext(r.Context())
	if status >= 500 {
		s.events.LogError(r.Context(), "Journal operation failed", err, applog.ComponentHTTP, op)
	} else {
		logger.InfoContext(r.Context(), "Journal request rejected",
			applog.FieldOperation, op, applog.FieldError, err.Error(), applog.FieldErrorType, applog.ErrorType(err))
	}
	msg := userMessage(err)
	ErrorResponse(status, msg).TriggerErrorNotification(msg).Write(w)
}

func (s *Server) handleDashboardPage(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		MethodNotAllowedError("GET").Write(w)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	opts := parseDashboardOptions(r)
	d, err := s.dashboard(ctx, opts)
	if err != nil {
		s.failRequest(w, r, applog.OpSummary, err)
		return
	}
	s.render(w, r, http.StatusOK, "dashboard_page", newDashboardView(d))
}

// handleDashboardPartial re-renders the dashboard panel for a new period or
// ranking key.
func (s *Server) handleDashboardPartial(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		MethodNotAllowedError("GET").Write(w)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	opts := parseDashboardOptions(r)
	d, err := s.dashboard(ctx, opts)
	if err != nil {
		s.failRequest(w, r, applog.OpSummary, err)
		return
	}
	s.render(w, r, http.StatusOK, "dashboard_panel", newDashboardView(d))
}

func (s *Server) handleJournalPage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		MethodNotAllowedError("GET").Write(w)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	st, err := s.journal.Load(ctx)
	if err != nil {
		s.failRequest(w, r, applog.OpList, err)
		return
	}
	s.render(w, r, http.StatusOK, "journal_page", s.newJournalView(st))
}

// handleCreateSale records one sale and answers with the refreshed
// transaction list.
func (s *Server) handleCreateSale(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		MethodNotAllowedError("POST").Write(w)
		return
	}
	if err := r.ParseForm(); err != nil {
		BadRequestError("invalid form").Write(w)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	txs, err := s.journal.List(ctx)
	if err != nil {
		s.failRequest(w, r, applog.OpRecord, err)
		return
	}

	st := journal.State{
		Form: journal.Form{
			ProductName: sanitizeInput(r.Form.Get("product")),
			Quantity:    parseQuantity(r.Form.Get("quantity")),
			Date:        sanitizeInput(r.Form.Get("date")),
		},
		Transactions: txs,
	}
	next, err := s.journal.Submit(ctx, st)
	if err != nil {
		s.failRequest(w, r, applog.OpRecord, err)
		return
	}

	created := next.Transactions[len(next.Transactions)-1]
	atomic.AddInt64(&s.appMetrics.salesRecorded, 1)
	s.invalidateDashboard()
	s.events.LogSaleRecorded(ctx, created)

	body, err := s.renderString(ctx, "transaction_list", s.newJournalView(next))
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to render transaction list", "error", err)
	}

	msg, _ := s.journal.Notice().Current()
	NewHTMXResponse().
		TriggerSaleCreated(created.ID, created.Date).
		TriggerFormReset().
		TriggerDashboardRefresh().
		TriggerNotification(NotificationSuccess, msg, int(s.journal.Notice().Duration().Milliseconds())).
		BodyHTML(body).
		Write(w)
}

// handleDeleteSale removes one sale. The browser asks for confirmation
// before sending the request.
func (s *Server) handleDeleteSale(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost && r.Method != http.MethodDelete {
		MethodNotAllowedError("POST, DELETE").Write(w)
		return
	}
	if err := r.ParseForm(); err != nil {
		BadRequestError("invalid form").Write(w)
		return
	}

	raw := strings.TrimSpace(r.Form.Get("id"))
	if raw == "" {
		raw = strings.TrimSpace(r.URL.Query().Get("id"))
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		BadRequestError("invalid transaction id").Write(w)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	st, err := s.journal.Load(ctx)
	if err != nil {
		s.failRequest(w, r, applog.OpDelete, err)
		return
	}
	st, err = s.journal.ConfirmDelete(ctx, st, id, nil)
	if err != nil {
		s.failRequest(w, r, applog.OpDelete, err)
		return
	}

	atomic.AddInt64(&s.appMetrics.salesDeleted, 1)
	s.invalidateDashboard()
	s.events.LogSaleDeleted(ctx, id, len(st.Transactions))

	body, err := s.renderString(ctx, "transaction_list", s.newJournalView(st))
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to render transaction list", "error", err)
	}
	NewHTMXResponse().
		TriggerSaleDeleted(id).
		TriggerDashboardRefresh().
		BodyHTML(body).
		Write(w)
}
