package core

// SavingsPlan is the paycheck pacing for a goal: how many paychecks remain
// before the due date and how much each should contribute.
type SavingsPlan struct {
	Remaining          Money
	PaychecksRemaining int
	PerPaycheck        Money
}

// PlanSavings spreads a goal's remaining balance over the paychecks left
// before its due date. The count is 1-indexed from the schedule anchor;
// days before the anchor count as period one. A contribution already made
// in the current period consumes one paycheck. With no paychecks left the
// whole remainder is due as a lump sum.
func PlanSavings(goal Expense, l Ledger, today Date, sched PaySchedule) SavingsPlan {
	saved := l.TotalForCategory(goal.ID)
	remaining := Money{Cents: goal.Amount.Cents - saved.Cents}

	totalPeriods := floorDiv(DaysBetween(sched.Anchor, goal.DueDate), sched.Days)
	daysSince := DaysBetween(sched.Anchor, today)
	if daysSince < 0 {
		daysSince = 0
	}
	currentPeriod := daysSince/sched.Days + 1

	paychecks := totalPeriods - currentPeriod + 1
	if paychecks < 0 {
		paychecks = 0
	}
	if paychecks > 0 && l.PaidInPeriod(goal.ID, sched.PeriodAt(today)) {
		paychecks--
	}

	plan := SavingsPlan{Remaining: remaining, PaychecksRemaining: paychecks}
	if paychecks > 0 {
		plan.PerPaycheck = Money{Cents: divRound(remaining.Cents, int64(paychecks))}
	} else {
		plan.PerPaycheck = remaining
	}
	return plan
}
