package core

import "sort"

// CreditOrPastDue reconciles cumulative payments against the cumulative
// expectation since the accrual anchor month. It never resets monthly: pay
// less than expected-to-date and you are behind, pay more and you are ahead.
// Only recurring expenses accrue; every other variant reports zeros.
//
// At most one of credit and pastDue is nonzero.
func CreditOrPastDue(e Expense, l Ledger, today Date, anchor AccrualAnchor) (credit, pastDue Money) {
	if e.Variant != VariantRecurring {
		return Money{}, Money{}
	}
	dueDay := e.DueDay
	if dueDay == 0 {
		dueDay = 1
	}
	monthsElapsed := (today.Year()-anchor.Year)*12 + int(today.Month()) - int(anchor.Month)
	if today.Day() >= dueDay {
		monthsElapsed++
	}
	expected := int64(monthsElapsed) * e.Amount.Cents
	diff := l.TotalForCategory(e.ID).Cents - expected
	switch {
	case diff > 0:
		return Money{Cents: diff}, Money{}
	case diff < 0:
		return Money{}, Money{Cents: -diff}
	default:
		return Money{}, Money{}
	}
}

// Progress is a completion ratio rounded to a whole percentage.
type Progress struct {
	PaymentsMade int
	Percentage   int
}

func LoanProgress(e Expense, l Ledger) Progress {
	count := l.CountForCategory(e.ID)
	if e.TotalPayments <= 0 || count >= e.TotalPayments {
		return Progress{PaymentsMade: count, Percentage: 100}
	}
	pct := int(divRound(int64(count)*100, int64(e.TotalPayments)))
	return Progress{PaymentsMade: count, Percentage: pct}
}

// GoalStanding is a goal's accumulated balance against its target.
type GoalStanding struct {
	Saved      Money
	Remaining  Money
	Percentage int
}

func GoalProgress(e Expense, l Ledger) GoalStanding {
	saved := l.TotalForCategory(e.ID)
	pct := 0
	if e.Amount.Cents > 0 {
		pct = int(divRound(saved.Cents*100, e.Amount.Cents))
	}
	if pct > 100 {
		pct = 100
	}
	if pct < 0 {
		pct = 0
	}
	return GoalStanding{
		Saved:      saved,
		Remaining:  Money{Cents: e.Amount.Cents - saved.Cents},
		Percentage: pct,
	}
}

// MonthlyRemaining sums what is still owed this month: arrears for
// recurring bills that carry them, the usual amount for unpaid recurring
// and loan installments, the rolling average for variable expenses with
// history. Goals and credit cards contribute nothing.
func MonthlyRemaining(r Registry, l Ledger, today Date, anchor AccrualAnchor) Money {
	var cents int64
	for _, e := range r {
		switch e.Variant {
		case VariantRecurring:
			_, pastDue := CreditOrPastDue(e, l, today, anchor)
			if pastDue.Cents > 0 {
				cents += pastDue.Cents
			} else if !l.PaidInMonth(e.ID, today.Month(), today.Year()) {
				cents += e.Amount.Cents
			}
		case VariantLoan:
			if l.CountForCategory(e.ID) >= e.TotalPayments {
				continue
			}
			if !l.PaidInMonth(e.ID, today.Month(), today.Year()) {
				cents += e.Amount.Cents
			}
		case VariantVariable:
			if l.PaidInMonth(e.ID, today.Month(), today.Year()) {
				continue
			}
			if avg, ok := l.Average(e.ID, 3); ok {
				cents += avg.Cents
			} else {
				cents += e.Amount.Cents
			}
		}
	}
	return Money{Cents: cents}
}

// NextDue identifies the expense most urgently owed. PastDue means a
// recurring arrears balance forced the pick regardless of due days.
type NextDue struct {
	Expense   Expense
	DaysUntil int
	PastDue   bool
}

// FindNextDue scans non-goal expenses in registry order. Any recurring
// expense carrying arrears wins outright, first match taken. Otherwise the
// smallest dueDay-today gap among unpaid expenses wins; overdue gaps clamp
// to -1 so every overdue item ties and the first in registry order is kept.
func FindNextDue(r Registry, l Ledger, today Date, anchor AccrualAnchor) (NextDue, bool) {
	best := NextDue{DaysUntil: 1<<31 - 1}
	found := false
	for _, e := range r {
		if e.Variant == VariantGoal {
			continue
		}
		if e.Variant == VariantRecurring {
			if _, pastDue := CreditOrPastDue(e, l, today, anchor); pastDue.Cents > 0 {
				return NextDue{Expense: e, DaysUntil: -1, PastDue: true}, true
			}
		}
		if e.Variant == VariantLoan && l.CountForCategory(e.ID) >= e.TotalPayments {
			continue
		}
		if l.PaidInMonth(e.ID, today.Month(), today.Year()) {
			continue
		}
		days := e.DueDay - today.Day()
		if days < 0 {
			days = -1
		}
		if days < best.DaysUntil {
			best = NextDue{Expense: e, DaysUntil: days}
			found = true
		}
	}
	return best, found
}

// SortForDisplay orders expenses for the dashboard: everything unpaid ahead
// of everything paid, then by how soon they are due (signed, unclamped, so
// ten days overdue sorts before two days overdue), amount descending on ties.
func SortForDisplay(r Registry, l Ledger, today Date, anchor AccrualAnchor, sched PaySchedule) Registry {
	out := make(Registry, len(r))
	copy(out, r)
	daysUntil := func(e Expense) int {
		if e.Variant == VariantGoal {
			return DaysBetween(today, e.DueDate)
		}
		return e.DueDay - today.Day()
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		aPaid := EvaluateStatus(a, l, today, anchor, sched).Status == StatusPaid
		bPaid := EvaluateStatus(b, l, today, anchor, sched).Status == StatusPaid
		if aPaid != bPaid {
			return !aPaid
		}
		da, db := daysUntil(a), daysUntil(b)
		if da != db {
			return da < db
		}
		return a.Amount.Cents > b.Amount.Cents
	})
	return out
}
