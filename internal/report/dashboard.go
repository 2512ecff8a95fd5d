package report

import (
	"time"

	"salesjournal/internal/core"
)

// Options selects the variable parts of a dashboard.
type Options struct {
	Period     core.Period
	TopSort    core.SortKey
	TopN       int
	WindowDays int
}

// DefaultOptions mirrors the dashboard's initial state.
func DefaultOptions() Options {
	return Options{
		Period:     core.Daily,
		TopSort:    core.SortByTotal,
		TopN:       DefaultTopN,
		WindowDays: DefaultWindowDays,
	}
}

// Dashboard is every derived view the dashboard page renders.
type Dashboard struct {
	GeneratedAt      time.Time            `json:"generatedAt"`
	TotalSales       float64              `json:"totalSales"`
	TransactionCount int                  `json:"transactionCount"`
	ProductsSold     int                  `json:"productsSold"`
	Summary          core.PeriodSummary   `json:"summary"`
	TopSort          core.SortKey         `json:"topSort"`
	Top              []core.ProductSales  `json:"top"`
	Products         []core.ProductSales  `json:"products"`
	Daily            []core.DailyPoint    `json:"daily"`
	Categories       []core.CategorySales `json:"categories"`
}

// Build computes a full dashboard snapshot at now.
func Build(txs []core.Transaction, now time.Time, opts Options) Dashboard {
	if opts.TopN <= 0 {
		opts.TopN = DefaultTopN
	}
	if opts.WindowDays <= 0 {
		opts.WindowDays = DefaultWindowDays
	}
	if opts.TopSort != core.SortByQuantity {
		opts.TopSort = core.SortByTotal
	}

	products := ProductRollup(txs)
	return Dashboard{
		GeneratedAt:      now,
		TotalSales:       TotalSales(txs),
		TransactionCount: len(txs),
		ProductsSold:     len(products),
		Summary:          Summarize(txs, opts.Period, now),
		TopSort:          opts.TopSort,
		Top:              TopN(products, opts.TopSort, opts.TopN),
		Products:         products,
		Daily:            DailySeries(txs, opts.WindowDays, now),
		Categories:       CategoryRollup(txs),
	}
}
