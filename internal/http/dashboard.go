package http

import (
	"fmt"
	"net/http"

	"billtrack/internal/core"
)

// The dashboard is the single read model the UI renders: per-expense
// status cards plus the summary line. Everything here is derived from
// one snapshot and one "today"; nothing is persisted.

type dashboardResponse struct {
	Today                 string           `json:"today"`
	PayPeriod             payPeriodDTO     `json:"pay_period"`
	MonthlyRemainingCents int64            `json:"monthly_remaining_cents"`
	NextDue               *nextDueDTO      `json:"next_due,omitempty"`
	Expenses              []expenseCardDTO `json:"expenses"`
}

type payPeriodDTO struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type nextDueDTO struct {
	ExpenseID string `json:"expense_id"`
	Name      string `json:"name"`
	DaysUntil int    `json:"days_until"`
	PastDue   bool   `json:"past_due"`
}

type expenseCardDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Icon        string `json:"icon,omitempty"`
	Variant     string `json:"variant"`
	AmountCents int64  `json:"amount_cents"`
	DueDay      int    `json:"due_day,omitempty"`
	DueDate     string `json:"due_date,omitempty"`

	Status string `json:"status"`
	Reason string `json:"reason"`
	Days   int    `json:"days"`

	// Recurring arrears. At most one of these is nonzero.
	CreditCents  int64 `json:"credit_cents,omitempty"`
	PastDueCents int64 `json:"past_due_cents,omitempty"`

	Loan     *loanDTO     `json:"loan,omitempty"`
	Goal     *goalDTO     `json:"goal,omitempty"`
	Variable *variableDTO `json:"variable,omitempty"`
	Card     *cardDTO     `json:"card,omitempty"`
}

type loanDTO struct {
	PaymentsMade  int `json:"payments_made"`
	TotalPayments int `json:"total_payments"`
	Percentage    int `json:"percentage"`
}

type goalDTO struct {
	SavedCents         int64 `json:"saved_cents"`
	RemainingCents     int64 `json:"remaining_cents"`
	Percentage         int   `json:"percentage"`
	PaychecksRemaining int   `json:"paychecks_remaining"`
	PerPaycheckCents   int64 `json:"per_paycheck_cents"`
}

type variableDTO struct {
	AverageCents int64  `json:"average_cents"`
	HasHistory   bool   `json:"has_history"`
	Trend        string `json:"trend"`
}

type cardDTO struct {
	CurrentBalanceCents int64   `json:"current_balance_cents"`
	MinPaymentCents     int64   `json:"min_payment_cents"`
	CreditLimitCents    int64   `json:"credit_limit_cents,omitempty"`
	InterestRate        float64 `json:"interest_rate,omitempty"`
	BillingCloseDay     int     `json:"billing_close_day,omitempty"`
	UtilizationPct      int     `json:"utilization_pct,omitempty"`
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if resp, ok := s.dashCache.Get(uid); ok {
		writeJSON(w, http.StatusOK, resp)
		return
	}

	snap, err := s.snapshots.Load(r.Context(), uid)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "snapshot load failed", "error", err)
		writeError(w, http.StatusServiceUnavailable, "data temporarily unavailable")
		return
	}

	today := core.DateOf(s.now())
	resp := s.buildDashboard(snap, today)
	s.dashCache.Set(uid, resp)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) buildDashboard(snap core.Snapshot, today core.Date) dashboardResponse {
	period := s.sched.PeriodAt(today)
	resp := dashboardResponse{
		Today:                 today.String(),
		PayPeriod:             payPeriodDTO{Start: period.Start.String(), End: period.End.String()},
		MonthlyRemainingCents: core.MonthlyRemaining(snap.Expenses, snap.Payments, today, s.accrual).Cents,
		Expenses:              []expenseCardDTO{},
	}

	if next, ok := core.FindNextDue(snap.Expenses, snap.Payments, today, s.accrual); ok {
		resp.NextDue = &nextDueDTO{
			ExpenseID: next.Expense.ID,
			Name:      next.Expense.Name,
			DaysUntil: next.DaysUntil,
			PastDue:   next.PastDue,
		}
	}

	for _, e := range core.SortForDisplay(snap.Expenses, snap.Payments, today, s.accrual, s.sched) {
		resp.Expenses = append(resp.Expenses, s.buildCard(e, snap.Payments, today))
	}
	return resp
}

func (s *Server) buildCard(e core.Expense, l core.Ledger, today core.Date) expenseCardDTO {
	status := core.EvaluateStatus(e, l, today, s.accrual, s.sched)
	card := expenseCardDTO{
		ID:          e.ID,
		Name:        e.Name,
		Icon:        e.Icon,
		Variant:     string(e.Variant),
		AmountCents: e.Amount.Cents,
		DueDay:      e.DueDay,
		Status:      string(status.Status),
		Reason:      string(status.Reason),
		Days:        status.Days,
	}
	if !e.DueDate.IsZero() {
		card.DueDate = e.DueDate.String()
	}

	switch e.Variant {
	case core.VariantRecurring:
		credit, pastDue := core.CreditOrPastDue(e, l, today, s.accrual)
		card.CreditCents = credit.Cents
		card.PastDueCents = pastDue.Cents

	case core.VariantLoan:
		p := core.LoanProgress(e, l)
		card.Loan = &loanDTO{
			PaymentsMade:  p.PaymentsMade,
			TotalPayments: e.TotalPayments,
			Percentage:    p.Percentage,
		}

	case core.VariantGoal:
		standing := core.GoalProgress(e, l)
		plan := core.PlanSavings(e, l, today, s.sched)
		card.Goal = &goalDTO{
			SavedCents:         standing.Saved.Cents,
			RemainingCents:     standing.Remaining.Cents,
			Percentage:         standing.Percentage,
			PaychecksRemaining: plan.PaychecksRemaining,
			PerPaycheckCents:   plan.PerPaycheck.Cents,
		}

	case core.VariantVariable:
		avg, ok := l.Average(e.ID, 3)
		card.Variable = &variableDTO{
			AverageCents: avg.Cents,
			HasHistory:   ok,
			Trend:        string(l.TrendFor(e.ID)),
		}

	case core.VariantCreditCard:
		c := &cardDTO{
			CurrentBalanceCents: e.CurrentBalance.Cents,
			MinPaymentCents:     e.MinPayment.Cents,
			CreditLimitCents:    e.CreditLimit.Cents,
			InterestRate:        e.InterestRate,
			BillingCloseDay:     e.BillingCloseDay,
		}
		if e.CreditLimit.Cents > 0 {
			c.UtilizationPct = int(e.CurrentBalance.Cents * 100 / e.CreditLimit.Cents)
		}
		card.Card = c
	}
	return card
}

// formatCents renders a cent amount as a plain decimal for the CSV export.
func formatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}
