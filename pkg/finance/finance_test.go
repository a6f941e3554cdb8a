package finance

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestTotalCapital(t *testing.T) {
	total := TotalCapital(decimal.NewFromInt(10000), decimal.NewFromFloat(250.50))
	require.True(t, total.Equal(decimal.NewFromFloat(10250.50)))

	require.True(t, TotalCapital(decimal.Zero, decimal.Zero).IsZero())
}

func TestSimpleInterest(t *testing.T) {
	// 10000 at 10% a year over 30 days: 10000 * 0.10 * 30/365
	interest := SimpleInterest(decimal.NewFromInt(10000), decimal.NewFromInt(10), 30)
	require.InDelta(t, 82.1918, interest.InexactFloat64(), 0.001)

	// A full year at 10% yields exactly 10%.
	interest = SimpleInterest(decimal.NewFromInt(10000), decimal.NewFromInt(10), 365)
	require.InDelta(t, 1000.0, interest.InexactFloat64(), 0.0001)
}

func TestSimpleInterestNonPositiveTerm(t *testing.T) {
	require.True(t, SimpleInterest(decimal.NewFromInt(10000), decimal.NewFromInt(10), 0).IsZero())
	require.True(t, SimpleInterest(decimal.NewFromInt(10000), decimal.NewFromInt(10), -5).IsZero())
}

func TestEffectiveRate(t *testing.T) {
	// Over exactly one year the effective rate equals the nominal rate.
	effective := EffectiveRate(decimal.NewFromInt(10), 365)
	require.InDelta(t, 10.0, effective.InexactFloat64(), 0.0001)

	// Over a shorter term the annualized equivalent exceeds the nominal rate.
	effective = EffectiveRate(decimal.NewFromInt(10), 30)
	require.Greater(t, effective.InexactFloat64(), 10.0)
}

func TestEffectiveRateNonPositiveTerm(t *testing.T) {
	require.True(t, EffectiveRate(decimal.NewFromInt(10), 0).IsZero())
	require.True(t, EffectiveRate(decimal.NewFromInt(10), -1).IsZero())
}
