package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Granularity is the rollup period of a balance snapshot.
type Granularity string

const (
	GranularityDay   Granularity = "day"
	GranularityMonth Granularity = "month"
)

// ValidGranularity reports whether g is day or month.
func ValidGranularity(g Granularity) bool {
	return g == GranularityDay || g == GranularityMonth
}

// BalanceSnapshot is a precomputed rollup of one account's activity over one
// period. Keyed uniquely by (owner, account, granularity, period_start).
// ClosingBalance chains off the previous period's closing balance, so a
// backdated entry invalidates the containing period and every later one.
type BalanceSnapshot struct {
	ID             string
	OwnerID        string
	AccountID      string
	Granularity    Granularity
	PeriodStart    time.Time
	DebitTotal     decimal.Decimal
	CreditTotal    decimal.Decimal
	ClosingBalance decimal.Decimal
	Stale          bool
	ComputedAt     time.Time
}

// PeriodStart truncates t to the start of its period in UTC.
func PeriodStart(g Granularity, t time.Time) time.Time {
	t = t.UTC()
	if g == GranularityMonth {
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	}

	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// NextPeriod returns the start of the period following the one containing t.
func NextPeriod(g Granularity, t time.Time) time.Time {
	start := PeriodStart(g, t)
	if g == GranularityMonth {
		return start.AddDate(0, 1, 0)
	}

	return start.AddDate(0, 0, 1)
}
