// Package finance holds the interest and rate arithmetic shared by the
// operation lifecycle. Amounts are decimal end to end; the only float detour
// is the fractional exponent of the effective-rate conversion.
package finance

import (
	"math"

	"github.com/shopspring/decimal"
)

// DaysPerYear is the day-count convention for interest and annualization.
const DaysPerYear = 365

// TotalCapital returns principal + expenses.
func TotalCapital(principal, expenses decimal.Decimal) decimal.Decimal {
	return principal.Add(expenses)
}

// SimpleInterest returns principal * (nominalPct/100) * days/365. Callers are
// expected to invoke it only when all three inputs are present and positive;
// a non-positive term yields zero.
func SimpleInterest(principal, nominalPct decimal.Decimal, days int) decimal.Decimal {
	if days <= 0 {
		return decimal.Zero
	}
	return principal.
		Mul(nominalPct).
		Mul(decimal.NewFromInt(int64(days))).
		Div(decimal.NewFromInt(100 * DaysPerYear))
}

// EffectiveRate converts a simple nominal rate over a term of the given days
// into the annualized compounding-equivalent percentage:
//
//	((1 + r*t)^(1/t) - 1) * 100, with r = nominalPct/100, t = days/365
//
// A non-positive term returns zero, guarding the exponent's division.
func EffectiveRate(nominalPct decimal.Decimal, days int) decimal.Decimal {
	if days <= 0 {
		return decimal.Zero
	}

	r := nominalPct.InexactFloat64() / 100
	t := float64(days) / DaysPerYear

	effective := math.Pow(1+r*t, 1/t) - 1
	return decimal.NewFromFloat(effective * 100)
}
