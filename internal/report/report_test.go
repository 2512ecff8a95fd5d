package report

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"salesjournal/internal/core"
)

func tx(id int64, name, cat string, price float64, qty int, date string) core.Transaction {
	return core.Transaction{
		ID:          id,
		ProductName: name,
		Category:    cat,
		UnitPrice:   price,
		Quantity:    qty,
		Total:       core.LineTotal(price, qty),
		Date:        date,
	}
}

func at(s string) time.Time {
	t, err := time.ParseInLocation("2006-01-02T15:04", s, time.UTC)
	if err != nil {
		panic(err)
	}
	return t
}

func randomTxs(r *rand.Rand, n int, now time.Time) []core.Transaction {
	names := []string{"Coffee", "Tea", "Bagel", "Muffin", "Juice", "Water", "Cookie"}
	cats := []string{"Beverage", "Bakery", "Snack"}
	out := make([]core.Transaction, 0, n)
	for i := 0; i < n; i++ {
		day := now.AddDate(0, 0, -r.Intn(60))
		price := float64(r.Intn(2000)) / 100
		out = append(out, tx(int64(i+1), names[r.Intn(len(names))], cats[r.Intn(len(cats))], price, 1+r.Intn(9), core.FormatDay(day)))
	}
	return out
}

func TestEmptyListYieldsZeroValues(t *testing.T) {
	now := at("2024-01-10T15:00")
	if TotalSales(nil) != 0 {
		t.Fatalf("total sales should be zero")
	}
	if got := ProductRollup(nil); got == nil || len(got) != 0 {
		t.Fatalf("rollup should be empty, got %v", got)
	}
	if got := TopN(ProductRollup(nil), core.SortByTotal, 5); len(got) != 0 {
		t.Fatalf("topN should be empty, got %v", got)
	}
	if got := CategoryRollup(nil); len(got) != 0 {
		t.Fatalf("category rollup should be empty, got %v", got)
	}
	series := DailySeries(nil, 30, now)
	if len(series) != 30 {
		t.Fatalf("series len=%d want 30", len(series))
	}
	for _, p := range series {
		if p.Sales != 0 {
			t.Fatalf("expected zero bucket, got %+v", p)
		}
	}
	for _, p := range []core.Period{core.Daily, core.Weekly, core.Monthly} {
		s := Summarize(nil, p, now)
		if s.TotalSales != 0 || s.TransactionCount != 0 || s.TotalItemsSold != 0 {
			t.Fatalf("%s summary should be zero: %+v", p, s)
		}
	}
}

func TestCoffeeScenario(t *testing.T) {
	txs := []core.Transaction{
		tx(1, "Coffee", "Beverage", 3.50, 2, "2024-01-10"),
		tx(2, "Coffee", "Beverage", 3.50, 1, "2024-01-10"),
	}
	if txs[0].Total != 7.00 {
		t.Fatalf("first total=%v want 7.00", txs[0].Total)
	}
	rollup := ProductRollup(txs)
	if len(rollup) != 1 {
		t.Fatalf("rollup len=%d want 1", len(rollup))
	}
	if got := rollup[0]; got.Name != "Coffee" || got.Quantity != 3 || got.Total != 10.50 || got.Category != "Beverage" {
		t.Fatalf("unexpected rollup row %+v", got)
	}
}

func TestDailySummaryIncludesOnlyToday(t *testing.T) {
	now := at("2024-01-10T15:00")
	txs := []core.Transaction{
		tx(1, "Coffee", "Beverage", 3.5, 1, "2024-01-10"),
		tx(2, "Tea", "Beverage", 2, 4, "2024-01-09"),
	}
	s := Summarize(txs, core.Daily, now)
	if s.TransactionCount != 1 || s.TotalSales != 3.5 || s.TotalItemsSold != 1 || s.Label != "Today" {
		t.Fatalf("unexpected daily summary %+v", s)
	}
}

func TestPeriodWindows(t *testing.T) {
	now := at("2024-03-31T10:00")
	txs := []core.Transaction{
		tx(1, "A", "X", 1, 1, "2024-03-31"),
		tx(2, "A", "X", 1, 1, "2024-03-24"), // exactly one week back: same calendar day as start
		tx(3, "A", "X", 1, 1, "2024-03-23"),
		tx(4, "A", "X", 1, 1, "2024-02-29"), // clamped month start
		tx(5, "A", "X", 1, 1, "2024-02-28"),
		tx(6, "A", "X", 1, 1, "not-a-date"),
	}
	cases := []struct {
		period core.Period
		count  int
		label  string
	}{
		{core.Daily, 1, "Today"},
		{core.Weekly, 2, "This Week"},
		{core.Monthly, 4, "This Month"},
	}
	for _, tc := range cases {
		s := Summarize(txs, tc.period, now)
		if s.TransactionCount != tc.count || s.Label != tc.label {
			t.Fatalf("%s: got %+v want count=%d label=%s", tc.period, s, tc.count, tc.label)
		}
	}
}

func TestPeriodStartMonthlyClamps(t *testing.T) {
	cases := map[string]string{
		"2024-03-31T10:00": "2024-02-29",
		"2023-03-31T10:00": "2023-02-28",
		"2024-01-15T10:00": "2023-12-15",
		"2024-05-31T10:00": "2024-04-30",
	}
	for in, want := range cases {
		if got := core.FormatDay(PeriodStart(core.Monthly, at(in))); got != want {
			t.Fatalf("PeriodStart(monthly, %s)=%s want %s", in, got, want)
		}
	}
}

func TestRollupSumMatchesTotalSales(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	now := at("2024-06-15T12:00")
	for n := 0; n < 40; n++ {
		txs := randomTxs(r, n*3, now)
		if n%2 == 1 {
			// payloads written by older clients may carry sub-cent totals
			for i := range txs {
				txs[i].Total += float64(r.Intn(10)) / 1000
			}
		}
		var acc core.Accumulator
		for _, row := range ProductRollup(txs) {
			acc.Add(row.Total)
		}
		if acc.Value() != TotalSales(txs) {
			t.Fatalf("n=%d rollup sum %v != total %v", n, acc.Value(), TotalSales(txs))
		}
		var cacc core.Accumulator
		for _, row := range CategoryRollup(txs) {
			cacc.Add(row.Total)
		}
		if cacc.Value() != TotalSales(txs) {
			t.Fatalf("n=%d category sum %v != total %v", n, cacc.Value(), TotalSales(txs))
		}
	}
}

func TestRollupSumMatchesTotalSalesWithSubCentTotals(t *testing.T) {
	txs := []core.Transaction{
		{ID: 1, ProductName: "Coffee", Category: "Beverage", Quantity: 1, Total: 0.333, Date: "2024-01-01"},
		{ID: 2, ProductName: "Bagel", Category: "Bakery", Quantity: 1, Total: 0.333, Date: "2024-01-01"},
		{ID: 3, ProductName: "Cookie", Category: "Snack", Quantity: 1, Total: 0.333, Date: "2024-01-01"},
	}
	var acc core.Accumulator
	for _, row := range ProductRollup(txs) {
		acc.Add(row.Total)
	}
	if got, want := acc.Value(), TotalSales(txs); got != want || want != 0.99 {
		t.Fatalf("rollup sum %v, total %v, want both 0.99", got, want)
	}
}

func TestProductRollupSortedByTotal(t *testing.T) {
	txs := []core.Transaction{
		tx(1, "Tea", "Beverage", 2, 1, "2024-01-01"),
		tx(2, "Bagel", "Bakery", 4, 3, "2024-01-01"),
		tx(3, "Tea", "Other", 2, 1, "2024-01-02"),
	}
	got := ProductRollup(txs)
	if len(got) != 2 || got[0].Name != "Bagel" || got[1].Name != "Tea" {
		t.Fatalf("unexpected order %+v", got)
	}
	if got[1].Category != "Beverage" {
		t.Fatalf("category should come from first record, got %q", got[1].Category)
	}
}

func TestTopNProperties(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	now := at("2024-06-15T12:00")
	for round := 0; round < 30; round++ {
		rollup := ProductRollup(randomTxs(r, round*2, now))
		for _, key := range []core.SortKey{core.SortByTotal, core.SortByQuantity} {
			value := func(p core.ProductSales) float64 {
				if key == core.SortByQuantity {
					return float64(p.Quantity)
				}
				return p.Total
			}
			top := TopN(rollup, key, 5)
			if len(top) > 5 {
				t.Fatalf("top has %d entries", len(top))
			}
			for i := 1; i < len(top); i++ {
				if value(top[i-1]) < value(top[i]) {
					t.Fatalf("%s: not descending at %d: %+v", key, i, top)
				}
			}
			included := map[string]bool{}
			for _, p := range top {
				included[p.Name] = true
			}
			if len(top) == 0 {
				continue
			}
			floor := value(top[len(top)-1])
			for _, p := range rollup {
				if !included[p.Name] && value(p) > floor {
					t.Fatalf("%s: excluded %+v beats included floor %v", key, p, floor)
				}
			}
		}
	}
}

func TestTopNStableOnTies(t *testing.T) {
	rollup := []core.ProductSales{
		{Name: "A", Quantity: 2, Total: 10},
		{Name: "B", Quantity: 5, Total: 10},
		{Name: "C", Quantity: 5, Total: 8},
	}
	byQty := TopN(rollup, core.SortByQuantity, 2)
	if byQty[0].Name != "B" || byQty[1].Name != "C" {
		t.Fatalf("unexpected quantity order %+v", byQty)
	}
	byTotal := TopN(rollup, core.SortByTotal, 5)
	if byTotal[0].Name != "A" || byTotal[1].Name != "B" || byTotal[2].Name != "C" {
		t.Fatalf("ties must keep rollup order: %+v", byTotal)
	}
	if rollup[0].Name != "A" {
		t.Fatalf("TopN must not reorder its input")
	}
	if len(TopN(rollup, core.SortByTotal, 0)) != 0 {
		t.Fatalf("n=0 should yield empty list")
	}
}

func TestDailySeriesShape(t *testing.T) {
	now := at("2024-03-05T23:30")
	txs := []core.Transaction{
		tx(1, "A", "X", 2, 1, "2024-03-05"),
		tx(2, "A", "X", 3, 1, "2024-03-05"),
		tx(3, "A", "X", 1, 1, "2024-02-05"), // first bucket
		tx(4, "A", "X", 9, 1, "2024-02-04"), // outside the window
		tx(5, "A", "X", 1, 1, "2024-02-29"),
	}
	series := DailySeries(txs, 30, now)
	if len(series) != 30 {
		t.Fatalf("len=%d want 30", len(series))
	}
	if series[0].Day != "2024-02-05" || series[29].Day != "2024-03-05" {
		t.Fatalf("unexpected bounds %s..%s", series[0].Day, series[29].Day)
	}
	for i := 1; i < len(series); i++ {
		prev, _ := time.Parse(core.DateLayout, series[i-1].Day)
		cur, _ := time.Parse(core.DateLayout, series[i].Day)
		if !cur.Equal(prev.AddDate(0, 0, 1)) {
			t.Fatalf("days not consecutive at %d: %s -> %s", i, series[i-1].Day, series[i].Day)
		}
	}
	if series[29].Sales != 5 || series[0].Sales != 1 || series[29].Label != "Mar 05" {
		t.Fatalf("unexpected buckets first=%+v last=%+v", series[0], series[29])
	}
	var total float64
	for _, p := range series {
		total += p.Sales
	}
	if total != 7 {
		t.Fatalf("series total=%v want 7", total)
	}
}

func TestDailySeriesAlwaysWindowLength(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	now := at("2024-12-31T08:00")
	for _, n := range []int{0, 1, 10, 500} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			if got := len(DailySeries(randomTxs(r, n, now), 30, now)); got != 30 {
				t.Fatalf("len=%d want 30", got)
			}
		})
	}
}

func TestCategoryRollupFirstSeenOrder(t *testing.T) {
	txs := []core.Transaction{
		tx(1, "Bagel", "Bakery", 2, 1, "2024-01-01"),
		tx(2, "Coffee", "Beverage", 3.5, 4, "2024-01-01"),
		tx(3, "Muffin", "Bakery", 2.25, 2, "2024-01-02"),
	}
	got := CategoryRollup(txs)
	if len(got) != 2 || got[0].Category != "Bakery" || got[0].Total != 6.5 || got[1].Total != 14 {
		t.Fatalf("unexpected category rollup %+v", got)
	}
}

func TestSortForJournal(t *testing.T) {
	txs := []core.Transaction{
		{ID: 1, Date: "2024-01-09"},
		{ID: 3, Date: "2024-01-10"},
		{ID: 2, Date: "2024-01-10"},
	}
	got := SortForJournal(txs)
	if got[0].ID != 3 || got[1].ID != 2 || got[2].ID != 1 {
		t.Fatalf("unexpected order %+v", got)
	}
	if txs[0].ID != 1 {
		t.Fatalf("input must not be reordered")
	}
}

func TestBuildDashboard(t *testing.T) {
	now := at("2024-01-10T15:00")
	txs := []core.Transaction{
		tx(1, "Coffee", "Beverage", 3.5, 2, "2024-01-10"),
		tx(2, "Bagel", "Bakery", 2, 10, "2024-01-08"),
	}
	d := Build(txs, now, Options{Period: core.Weekly, TopSort: core.SortByQuantity})
	if d.TotalSales != 27 || d.TransactionCount != 2 || d.ProductsSold != 2 {
		t.Fatalf("unexpected headline numbers %+v", d)
	}
	if d.Summary.Period != core.Weekly || d.Summary.TransactionCount != 2 {
		t.Fatalf("unexpected summary %+v", d.Summary)
	}
	if d.Top[0].Name != "Bagel" || d.TopSort != core.SortByQuantity {
		t.Fatalf("unexpected top %+v", d.Top)
	}
	if len(d.Daily) != DefaultWindowDays || len(d.Categories) != 2 {
		t.Fatalf("unexpected series/categories %d/%d", len(d.Daily), len(d.Categories))
	}
}
