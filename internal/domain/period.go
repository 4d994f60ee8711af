package domain

import (
	"fmt"
	"time"
)

// Period is a calendar month of one account's ledger.
type Period struct {
	Year  int
	Month int
}

// PeriodOf returns the period containing t, in t's location.
func PeriodOf(t time.Time) Period {
	return Period{Year: t.Year(), Month: int(t.Month())}
}

// Validate rejects months outside 1..12 and non-positive years.
func (p Period) Validate() error {
	if p.Month < 1 || p.Month > 12 || p.Year < 1 {
		return fmt.Errorf("%w: %04d-%02d", ErrInvalidPeriod, p.Year, p.Month)
	}
	return nil
}

// After reports whether p is strictly later than o.
func (p Period) After(o Period) bool {
	if p.Year != o.Year {
		return p.Year > o.Year
	}
	return p.Month > o.Month
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
}

// ClosedPeriod records that an account's month is locked. It is never mutated.
type ClosedPeriod struct {
	ID        string
	AccountID string
	Year      int
	Month     int
	ClosedAt  time.Time
	ClosedBy  string
	Notes     string
}

// Period returns the closed month.
func (c *ClosedPeriod) Period() Period {
	return Period{Year: c.Year, Month: c.Month}
}
