// Package credit evaluates a client's credit-line capacity against a
// requested exposure.
package credit

import "github.com/shopspring/decimal"

// Line is one credit line: an authorized ceiling and the amount currently
// utilized under it.
type Line struct {
	Ceiling  decimal.Decimal
	Utilized decimal.Decimal
}

// Capacity is the result of evaluating a line against a requested exposure.
// Available is ceiling - utilized and is deliberately not clamped: an
// over-utilized line reports a negative figure, which always fails the
// sufficiency comparison.
type Capacity struct {
	Sufficient bool            `json:"sufficient"`
	Available  decimal.Decimal `json:"available"`
	Ceiling    decimal.Decimal `json:"ceiling"`
}

// Evaluate reports whether the line can absorb the requested exposure.
func Evaluate(line Line, requested decimal.Decimal) Capacity {
	available := line.Ceiling.Sub(line.Utilized)
	return Capacity{
		Sufficient: requested.LessThanOrEqual(available),
		Available:  available,
		Ceiling:    line.Ceiling,
	}
}
