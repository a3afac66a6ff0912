package domain

import (
	"testing"
	"time"
)

func TestPeriodStart(t *testing.T) {
	at := time.Date(2024, 2, 17, 15, 4, 5, 0, time.UTC)

	day := PeriodStart(GranularityDay, at)
	if !day.Equal(time.Date(2024, 2, 17, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("day period start = %s", day)
	}

	month := PeriodStart(GranularityMonth, at)
	if !month.Equal(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("month period start = %s", month)
	}
}

func TestNextPeriod(t *testing.T) {
	at := time.Date(2024, 1, 31, 10, 0, 0, 0, time.UTC)

	day := NextPeriod(GranularityDay, at)
	if !day.Equal(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("next day = %s", day)
	}

	month := NextPeriod(GranularityMonth, at)
	if !month.Equal(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("next month = %s", month)
	}

	// December rolls into the next year.
	dec := time.Date(2023, 12, 15, 0, 0, 0, 0, time.UTC)
	if next := NextPeriod(GranularityMonth, dec); !next.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("next month after december = %s", next)
	}
}

func TestPeriodStart_NonUTC(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*3600)
	at := time.Date(2024, 3, 1, 2, 0, 0, 0, loc) // 2024-02-29T21:00Z

	month := PeriodStart(GranularityMonth, at)
	if !month.Equal(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("month period start for non-UTC time = %s", month)
	}
}
