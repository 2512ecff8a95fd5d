// Package report derives dashboard views from a list of transactions.
//
// Every function here is a pure function of its arguments: no I/O, no hidden
// state, and no dependency on the wall clock other than the explicit now.
package report

import (
	"sort"
	"time"

	"salesjournal/internal/core"
)

const (
	// DefaultTopN is the size of the top-selling list on the dashboard.
	DefaultTopN = 5
	// DefaultWindowDays is the length of the daily sales series.
	DefaultWindowDays = 30
)

// TotalSales sums Total over all transactions.
func TotalSales(txs []core.Transaction) float64 {
	var acc core.Accumulator
	for _, t := range txs {
		acc.Add(t.Total)
	}
	return acc.Value()
}

// PeriodStart returns the lower bound of the period window ending at now.
func PeriodStart(period core.Period, now time.Time) time.Time {
	switch period {
	case core.Weekly:
		return now.AddDate(0, 0, -7)
	case core.Monthly:
		return subMonths(now, 1)
	default:
		return startOfDay(now)
	}
}

// InPeriod reports whether a transaction dated day falls in the window that
// starts at start. Dates carry no time component, so a transaction on the
// same calendar day as start is included even when start is later that day.
func InPeriod(day string, start time.Time) bool {
	d, err := core.ParseDay(day, start.Location())
	if err != nil {
		return false
	}
	return d.After(start) || core.FormatDay(d) == core.FormatDay(start)
}

// Summarize computes the period summary for now.
func Summarize(txs []core.Transaction, period core.Period, now time.Time) core.PeriodSummary {
	if !period.IsValid() {
		period = core.Daily
	}
	start := PeriodStart(period, now)

	summary := core.PeriodSummary{Period: period, Label: period.Label()}
	var acc core.Accumulator
	for _, t := range txs {
		if !InPeriod(t.Date, start) {
			continue
		}
		acc.Add(t.Total)
		summary.TransactionCount++
		summary.TotalItemsSold += t.Quantity
	}
	summary.TotalSales = acc.Value()
	return summary
}

// ProductRollup groups by product name, sorted by total descending. The
// category is the one seen on the first record of each group.
func ProductRollup(txs []core.Transaction) []core.ProductSales {
	type group struct {
		row core.ProductSales
		acc core.Accumulator
	}
	index := make(map[string]int)
	groups := make([]*group, 0)

	for _, t := range txs {
		i, ok := index[t.ProductName]
		if !ok {
			i = len(groups)
			index[t.ProductName] = i
			groups = append(groups, &group{row: core.ProductSales{Name: t.ProductName, Category: t.Category}})
		}
		g := groups[i]
		g.row.Quantity += t.Quantity
		g.acc.Add(t.Total)
	}

	out := make([]core.ProductSales, 0, len(groups))
	for _, g := range groups {
		g.row.Total = g.acc.Value()
		out = append(out, g.row)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Total > out[j].Total })
	return out
}

// TopN re-sorts a product rollup by key (descending, stable) and keeps the
// first n rows.
func TopN(rollup []core.ProductSales, key core.SortKey, n int) []core.ProductSales {
	if n <= 0 {
		return []core.ProductSales{}
	}
	sorted := make([]core.ProductSales, len(rollup))
	copy(sorted, rollup)
	sort.SliceStable(sorted, func(i, j int) bool {
		if key == core.SortByQuantity {
			return sorted[i].Quantity > sorted[j].Quantity
		}
		return sorted[i].Total > sorted[j].Total
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// DailySeries returns exactly windowDays buckets, oldest first, ending with
// the calendar day of now. Buckets match Transaction.Date by string equality.
func DailySeries(txs []core.Transaction, windowDays int, now time.Time) []core.DailyPoint {
	if windowDays <= 0 {
		return []core.DailyPoint{}
	}
	byDay := make(map[string]*core.Accumulator)
	for _, t := range txs {
		acc, ok := byDay[t.Date]
		if !ok {
			acc = &core.Accumulator{}
			byDay[t.Date] = acc
		}
		acc.Add(t.Total)
	}

	out := make([]core.DailyPoint, 0, windowDays)
	for i := windowDays - 1; i >= 0; i-- {
		day := now.AddDate(0, 0, -i)
		key := core.FormatDay(day)
		p := core.DailyPoint{Day: key, Label: day.Format("Jan 02")}
		if acc, ok := byDay[key]; ok {
			p.Sales = acc.Value()
		}
		out = append(out, p)
	}
	return out
}

// CategoryRollup sums totals per category in first-seen order.
func CategoryRollup(txs []core.Transaction) []core.CategorySales {
	index := make(map[string]int)
	accs := make([]core.Accumulator, 0)
	out := make([]core.CategorySales, 0)
	for _, t := range txs {
		i, ok := index[t.Category]
		if !ok {
			i = len(out)
			index[t.Category] = i
			out = append(out, core.CategorySales{Category: t.Category})
			accs = append(accs, core.Accumulator{})
		}
		accs[i].Add(t.Total)
	}
	for i := range out {
		out[i].Total = accs[i].Value()
	}
	return out
}

// SortForJournal returns a copy ordered newest date first, then highest id.
func SortForJournal(txs []core.Transaction) []core.Transaction {
	out := make([]core.Transaction, len(txs))
	copy(out, txs)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date > out[j].Date
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// subMonths moves t back n calendar months, clamping the day to the length
// of the target month (Mar 31 - 1 month = Feb 28/29).
func subMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	target := time.Date(y, m-time.Month(n), 1, 0, 0, 0, 0, t.Location())
	if last := daysIn(target.Year(), target.Month(), t.Location()); d > last {
		d = last
	}
	return time.Date(target.Year(), target.Month(), d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}
