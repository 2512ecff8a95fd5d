package http

import (
	"encoding/json"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"salesjournal/internal/core"
	"salesjournal/internal/report"
)

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"currency": core.FormatCurrency,
		"count":    func(n int) string { return humanize.Comma(int64(n)) },
		"periods":  func() []core.Period { return []core.Period{core.Daily, core.Weekly, core.Monthly} },
		"barWidth": barWidth,
		"add":      func(a, b int) int { return a + b },
	}
}

// barWidth scales v against max to a CSS percentage for the dashboard bars.
func barWidth(v, max float64) string {
	if max <= 0 || v <= 0 {
		return "0%"
	}
	pct := v / max * 100
	if pct > 100 {
		pct = 100
	}
	return strconv.FormatFloat(pct, 'f', 1, 64) + "%"
}

// parseDashboardOptions reads period, top and n from the query string,
// falling back to the dashboard defaults.
func parseDashboardOptions(r *http.Request) report.Options {
	q := r.URL.Query()
	opts := report.DefaultOptions()
	opts.Period = core.ParsePeriod(q.Get("period"))
	opts.TopSort = core.ParseSortKey(q.Get("top"))
	if v := strings.TrimSpace(q.Get("n")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 50 {
			opts.TopN = n
		}
	}
	if v := strings.TrimSpace(q.Get("days")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 366 {
			opts.WindowDays = n
		}
	}
	return opts
}

// parseQuantity returns 0 for anything that is not a whole number, which
// the journal rejects as an invalid quantity.
func parseQuantity(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// statusForError maps the journal error taxonomy to an HTTP status.
func statusForError(err error) int {
	switch {
	case core.IsValidation(err):
		return http.StatusUnprocessableEntity
	case core.IsCorruption(err), core.IsUnavailable(err):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// userMessage is the text shown for err. Validation messages are safe to
// echo; storage failures are not.
func userMessage(err error) string {
	switch {
	case core.IsValidation(err):
		return err.Error()
	case core.IsCorruption(err):
		return "Stored sales data is unreadable. Nothing was changed."
	case core.IsUnavailable(err):
		return "Sales storage is unavailable. Please try again."
	default:
		return "Something went wrong."
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
