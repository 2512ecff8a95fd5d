package core

import (
	"errors"
	"strings"
	"time"
)

// DateLayout is the calendar-day format used by Transaction.Date.
const DateLayout = "2006-01-02"

const (
	Daily   Period = "daily"
	Weekly  Period = "weekly"
	Monthly Period = "monthly"
)

const (
	SortByTotal    SortKey = "total"
	SortByQuantity SortKey = "quantity"
)

type (
	// Period selects the window of a period summary.
	Period string

	// SortKey selects the ranking key for top-N lists.
	SortKey string

	// Product is read-only catalog reference data.
	Product struct {
		Name      string  `json:"itemName" yaml:"itemName"`
		Category  string  `json:"category" yaml:"category"`
		UnitPrice float64 `json:"unitPrice" yaml:"unitPrice"`
	}

	// Draft is a transaction that has not been persisted yet.
	Draft struct {
		ProductName string
		Category    string
		UnitPrice   float64
		Quantity    int
		Total       float64
		Date        string
	}

	// Transaction is a persisted sale. Category, UnitPrice and Total are
	// snapshots taken at creation and never recomputed.
	Transaction struct {
		ID          int64   `json:"id"`
		ProductName string  `json:"productName"`
		Category    string  `json:"category"`
		UnitPrice   float64 `json:"unitPrice"`
		Quantity    int     `json:"quantity"`
		Total       float64 `json:"total"`
		Date        string  `json:"date"`
		CreatedAt   string  `json:"createdAt"`
	}
)

var (
	ErrNoProduct       = errors.New("no product selected")
	ErrUnknownProduct  = errors.New("product not in catalog")
	ErrInvalidQuantity = errors.New("quantity must be a positive integer")
	ErrInvalidDate     = errors.New("date must be in YYYY-MM-DD form")
	ErrInvalidPrice    = errors.New("unit price must not be negative")
)

// IsValid reports whether p is one of the supported periods.
func (p Period) IsValid() bool {
	switch p {
	case Daily, Weekly, Monthly:
		return true
	default:
		return false
	}
}

// Label returns the display label of the period.
func (p Period) Label() string {
	switch p {
	case Weekly:
		return "This Week"
	case Monthly:
		return "This Month"
	default:
		return "Today"
	}
}

// ParsePeriod maps free text to a Period, falling back to Daily.
func ParsePeriod(s string) Period {
	p := Period(strings.ToLower(strings.TrimSpace(s)))
	if !p.IsValid() {
		return Daily
	}
	return p
}

// ParseSortKey maps free text to a SortKey, falling back to SortByTotal.
func ParseSortKey(s string) SortKey {
	switch SortKey(strings.ToLower(strings.TrimSpace(s))) {
	case SortByQuantity:
		return SortByQuantity
	default:
		return SortByTotal
	}
}

// FormatDay renders t as a calendar day in its own location.
func FormatDay(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDay parses a calendar day at midnight in loc.
func ParseDay(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

func (p Product) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrNoProduct
	}
	if p.UnitPrice < 0 {
		return ErrInvalidPrice
	}
	return nil
}

func (d Draft) Validate() error {
	if strings.TrimSpace(d.ProductName) == "" {
		return ErrNoProduct
	}
	if d.Quantity < 1 {
		return ErrInvalidQuantity
	}
	if d.UnitPrice < 0 {
		return ErrInvalidPrice
	}
	if _, err := time.Parse(DateLayout, d.Date); err != nil {
		return ErrInvalidDate
	}
	return nil
}
