// Package core provides money handling utilities.
//
// Amounts are kept as float64 on the wire so the persisted payload stays a
// plain JSON number, but every computation goes through decimal arithmetic
// and is rounded to cents.
package core

import (
	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// LineTotal returns unitPrice × quantity rounded to cents.
func LineTotal(unitPrice float64, quantity int) float64 {
	return decimal.NewFromFloat(unitPrice).
		Mul(decimal.NewFromInt(int64(quantity))).
		Round(2).
		InexactFloat64()
}

// Sum adds amounts exactly, each rounded to cents first.
func Sum(amounts ...float64) float64 {
	var acc Accumulator
	for _, a := range amounts {
		acc.Add(a)
	}
	return acc.Value()
}

// Accumulator sums amounts one at a time without float drift. Every addend
// is rounded to cents before it is added, so totals built from any grouping
// of the same amounts agree to the cent.
type Accumulator struct {
	total decimal.Decimal
}

// Add adds amount, rounded to cents, to the running total.
func (a *Accumulator) Add(amount float64) {
	a.total = a.total.Add(decimal.NewFromFloat(amount).Round(2))
}

// Value returns the running total.
func (a Accumulator) Value() float64 {
	return a.total.InexactFloat64()
}

// FormatCurrency renders a dollar amount with thousands separators and two
// decimals ("$1,234.50").
func FormatCurrency(amount float64) string {
	neg := amount < 0
	if neg {
		amount = -amount
	}
	s := humanize.FormatFloat("#,###.##", amount)
	if neg {
		return "-$" + s
	}
	return "$" + s
}
