package core

// Status is the derived payment state of an expense. It is recomputed from
// the snapshot and "today" on every query; nothing here is persisted.
type Status string

const (
	StatusPaid    Status = "paid"
	StatusDueSoon Status = "due-soon"
	StatusOverdue Status = "overdue"
	StatusPending Status = "pending"
)

// Reason tags why a status was chosen, for display labels.
type Reason string

const (
	ReasonGoalReached    Reason = "goal-reached"
	ReasonPaidThisPeriod Reason = "paid-this-period"
	ReasonPaidOff        Reason = "paid-off"
	ReasonPaidThisMonth  Reason = "paid-this-month"
	ReasonPastDue        Reason = "past-due"
	ReasonOverdue        Reason = "overdue"
	ReasonDueSoon        Reason = "due-soon"
	ReasonUpcoming       Reason = "upcoming"
)

// StatusResult carries the state, the reason it was chosen, and the signed
// day count behind the decision when a due date was involved.
type StatusResult struct {
	Status Status
	Reason Reason
	Days   int
}

const (
	goalDueSoonWindow = 30
	dueDaySoonWindow  = 7
)

// EvaluateStatus derives the expense's current status. Determination order
// is variant-specific; a recurring expense carrying a past-due balance is
// overdue even when a payment landed this month, because a payment that
// does not clear the arrears does not settle the bill.
func EvaluateStatus(e Expense, l Ledger, today Date, anchor AccrualAnchor, sched PaySchedule) StatusResult {
	switch e.Variant {
	case VariantGoal:
		if l.TotalForCategory(e.ID).Cents >= e.Amount.Cents {
			return StatusResult{Status: StatusPaid, Reason: ReasonGoalReached}
		}
		if l.PaidInPeriod(e.ID, sched.PeriodAt(today)) {
			return StatusResult{Status: StatusPaid, Reason: ReasonPaidThisPeriod}
		}
		days := DaysBetween(today, e.DueDate)
		switch {
		case days < 0:
			return StatusResult{Status: StatusOverdue, Reason: ReasonOverdue, Days: days}
		case days <= goalDueSoonWindow:
			return StatusResult{Status: StatusDueSoon, Reason: ReasonDueSoon, Days: days}
		default:
			return StatusResult{Status: StatusPending, Reason: ReasonUpcoming, Days: days}
		}

	case VariantLoan:
		if l.CountForCategory(e.ID) >= e.TotalPayments {
			return StatusResult{Status: StatusPaid, Reason: ReasonPaidOff}
		}
		if l.PaidInMonth(e.ID, today.Month(), today.Year()) {
			return StatusResult{Status: StatusPaid, Reason: ReasonPaidThisMonth}
		}

	case VariantVariable:
		if l.PaidInMonth(e.ID, today.Month(), today.Year()) {
			return StatusResult{Status: StatusPaid, Reason: ReasonPaidThisMonth}
		}

	default: // recurring, creditcard
		if _, pastDue := CreditOrPastDue(e, l, today, anchor); pastDue.Cents > 0 {
			return StatusResult{Status: StatusOverdue, Reason: ReasonPastDue}
		}
		if l.PaidInMonth(e.ID, today.Month(), today.Year()) {
			return StatusResult{Status: StatusPaid, Reason: ReasonPaidThisMonth}
		}
	}

	days := e.DueDay - today.Day()
	switch {
	case days < 0:
		return StatusResult{Status: StatusOverdue, Reason: ReasonOverdue, Days: days}
	case days <= dueDaySoonWindow:
		return StatusResult{Status: StatusDueSoon, Reason: ReasonDueSoon, Days: days}
	default:
		return StatusResult{Status: StatusPending, Reason: ReasonUpcoming, Days: days}
	}
}
