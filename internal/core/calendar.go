package core

import (
	"errors"
	"fmt"
	"time"
)

var ErrMalformedDate = errors.New("malformed date")

// Date is a calendar day normalized to UTC midnight. All day arithmetic in
// this package runs over these normalized instants, so DST transitions in
// the user's zone can never produce off-by-one day counts.
type Date struct {
	time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf takes the calendar day of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

func (d Date) AddDays(n int) Date {
	return Date{d.Time.AddDate(0, 0, n)}
}

func (d Date) IsZero() bool {
	return d.Time.IsZero()
}

// Before, After and Equal compare calendar days.
func (d Date) Before(other Date) bool { return d.Time.Before(other.Time) }
func (d Date) After(other Date) bool  { return d.Time.After(other.Time) }
func (d Date) Equal(other Date) bool  { return d.Time.Equal(other.Time) }

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year(), int(d.Month()), d.Day())
}

// DaysBetween returns b - a in whole days. Negative when b precedes a.
func DaysBetween(a, b Date) int {
	return int(b.Time.Sub(a.Time) / (24 * time.Hour))
}

// ParseLocalDate parses a strict "YYYY-MM-DD" calendar date. The components
// are taken literally, never reinterpreted through a timezone, so the day a
// user wrote is the day they get back. Impossible dates such as 2026-02-31
// are rejected rather than normalized.
func ParseLocalDate(s string) (Date, error) {
	if len(s) != 10 || s[4] != '-' || s[7] != '-' {
		return Date{}, fmt.Errorf("%w: %q", ErrMalformedDate, s)
	}
	for i, r := range s {
		if i == 4 || i == 7 {
			continue
		}
		if r < '0' || r > '9' {
			return Date{}, fmt.Errorf("%w: %q", ErrMalformedDate, s)
		}
	}
	year := atoi(s[0:4])
	month := atoi(s[5:7])
	day := atoi(s[8:10])
	d := NewDate(year, time.Month(month), day)
	if d.Year() != year || int(d.Month()) != month || d.Day() != day {
		return Date{}, fmt.Errorf("%w: %q", ErrMalformedDate, s)
	}
	return d, nil
}

func atoi(s string) int {
	n := 0
	for _, r := range s {
		n = n*10 + int(r-'0')
	}
	return n
}

// TodayDateString formats now's calendar day in its own location as a
// zero-padded "YYYY-MM-DD" string, the canonical stored-payment format.
func TodayDateString(now time.Time) string {
	y, m, d := now.Date()
	return fmt.Sprintf("%04d-%02d-%02d", y, int(m), d)
}

// PaySchedule describes a fixed-length paycheck cycle anchored at a known
// payday. Periods extend infinitely in both directions from the anchor.
type PaySchedule struct {
	Anchor Date
	Days   int
}

// PayPeriod is an inclusive calendar-day range.
type PayPeriod struct {
	Start Date
	End   Date
}

func (p PayPeriod) Contains(d Date) bool {
	return !d.Before(p.Start) && !d.After(p.End)
}

// PeriodAt returns the pay period containing today. Days before the anchor
// fall into negative-numbered periods rather than clamping to the first one.
func (s PaySchedule) PeriodAt(today Date) PayPeriod {
	n := floorDiv(DaysBetween(s.Anchor, today), s.Days)
	start := s.Anchor.AddDays(n * s.Days)
	return PayPeriod{Start: start, End: start.AddDays(s.Days - 1)}
}

// floorDiv rounds toward negative infinity, unlike Go's integer division.
func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// AccrualAnchor is the month from which recurring credit / past-due
// reconciliation counts elapsed due dates.
type AccrualAnchor struct {
	Year  int
	Month time.Month
}
