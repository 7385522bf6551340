package kyv

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

const (
	// NoPriorSnapshot marks the first element of an interval chain.
	NoPriorSnapshot = "-"
	// UndefinedAPR marks a pair whose denominator is zero.
	UndefinedAPR = "n/a"

	secondsPerYear = 365 * 86400
	aprPlaces      = 3
)

var annualPercent = decimal.NewFromInt(secondsPerYear * 100)

// APR annualizes the reward accrual between h1 and h2 as a percentage of
// h2's delegated amount:
//
//	(h2.rewards - h1.rewards) * 31536000 * 100 / (h2.delegated * (h2.ts - h1.ts))
//
// The result is exact up to decimal's division precision and is not rounded.
// It is direction sensitive: APR(h1, h2) and APR(h2, h1) differ in general
// since the later snapshot's delegation is the base. A zero denominator
// returns ErrUndefinedAPR.
func APR(h1, h2 ValidatorMetric) (decimal.Decimal, error) {
	r1, err := parseAmount("rewards", h1.RewardsAccrued)
	if err != nil {
		return decimal.Zero, err
	}
	r2, err := parseAmount("rewards", h2.RewardsAccrued)
	if err != nil {
		return decimal.Zero, err
	}
	d2, err := parseAmount("delegated_amount", h2.DelegatedAmount)
	if err != nil {
		return decimal.Zero, err
	}
	elapsed := decimal.NewFromInt(int64(h2.Timestamp)).Sub(decimal.NewFromInt(int64(h1.Timestamp)))

	denominator := d2.Mul(elapsed)
	if denominator.IsZero() {
		return decimal.Zero, ErrUndefinedAPR
	}
	numerator := r2.Sub(r1).Mul(annualPercent)
	return numerator.Div(denominator), nil
}

// FormatAPR renders an APR with three decimals, rounding half away from zero.
func FormatAPR(apr decimal.Decimal) string {
	return apr.StringFixed(aprPlaces)
}

// ComputeAPR is APR formatted for display. An undefined APR yields the
// UndefinedAPR sentinel; malformed amounts are still reported as errors.
func ComputeAPR(h1, h2 ValidatorMetric) (string, error) {
	apr, err := APR(h1, h2)
	switch {
	case errors.Is(err, ErrUndefinedAPR):
		return UndefinedAPR, nil
	case err != nil:
		return "", err
	}
	return FormatAPR(apr), nil
}

func parseAmount(field, s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s %q", ErrInvalidAmount, field, s)
	}
	return d, nil
}
