package core

import (
	"sort"
	"time"
)

// Ledger is the payment history. Query functions are order-independent;
// display ordering is a separate, explicit sort.
type Ledger []Payment

func (l Ledger) ForCategory(expenseID string) []Payment {
	var out []Payment
	for _, p := range l {
		if p.Category == expenseID {
			out = append(out, p)
		}
	}
	return out
}

func (l Ledger) TotalForCategory(expenseID string) Money {
	var cents int64
	for _, p := range l {
		if p.Category == expenseID {
			cents += p.Amount.Cents
		}
	}
	return Money{Cents: cents}
}

func (l Ledger) CountForCategory(expenseID string) int {
	n := 0
	for _, p := range l {
		if p.Category == expenseID {
			n++
		}
	}
	return n
}

// PaidInMonth reports whether any payment for the expense falls in the
// given calendar month. Payments with unparseable dates are skipped, never
// fatal: stored data must not be able to break aggregation.
func (l Ledger) PaidInMonth(expenseID string, month time.Month, year int) bool {
	for _, p := range l {
		if p.Category != expenseID {
			continue
		}
		d, err := ParseLocalDate(p.Date)
		if err != nil {
			continue
		}
		if d.Month() == month && d.Year() == year {
			return true
		}
	}
	return false
}

// PaidInPeriod reports whether any payment for the expense falls inside the
// pay period, boundaries inclusive.
func (l Ledger) PaidInPeriod(expenseID string, period PayPeriod) bool {
	for _, p := range l {
		if p.Category != expenseID {
			continue
		}
		d, err := ParseLocalDate(p.Date)
		if err != nil {
			continue
		}
		if period.Contains(d) {
			return true
		}
	}
	return false
}

// Recent returns up to n payments for the expense, newest date first.
// ISO dates compare lexicographically, so no parsing is needed here.
func (l Ledger) Recent(expenseID string, n int) []Payment {
	matched := l.ForCategory(expenseID)
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Date > matched[j].Date
	})
	if len(matched) > n {
		matched = matched[:n]
	}
	return matched
}

// Average is the arithmetic mean of at most the n most recent payments.
// The second return is false iff no payments exist, so callers can tell
// "no history" apart from "zero spend".
func (l Ledger) Average(expenseID string, n int) (Money, bool) {
	recent := l.Recent(expenseID, n)
	if len(recent) == 0 {
		return Money{}, false
	}
	var sum int64
	for _, p := range recent {
		sum += p.Amount.Cents
	}
	return Money{Cents: divRound(sum, int64(len(recent)))}, true
}

// Trend describes the short-term direction of a variable expense.
type Trend string

const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendStable Trend = "stable"
	TrendNone   Trend = "none"
)

// TrendFor compares the most recent payment against the one before it,
// considering the latest three. A move larger than 10% either way counts.
func (l Ledger) TrendFor(expenseID string) Trend {
	recent := l.Recent(expenseID, 3)
	if len(recent) < 2 {
		return TrendNone
	}
	latest := recent[0].Amount.Cents
	previous := recent[1].Amount.Cents
	diff := latest - previous
	switch {
	case diff*10 > previous:
		return TrendUp
	case diff*10 < -previous:
		return TrendDown
	default:
		return TrendStable
	}
}

// SortedNewestFirst returns a display-ordered copy, newest date first.
func (l Ledger) SortedNewestFirst() Ledger {
	out := make(Ledger, len(l))
	copy(out, l)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date > out[j].Date
	})
	return out
}
