package core

import (
	"testing"
	"time"
)

func TestPlanSavings(t *testing.T) {
	goal := Expense{
		ID: "trip", Name: "trip", Variant: VariantGoal,
		Amount: Money{Cents: 500000}, DueDate: NewDate(2026, time.July, 23),
	}

	tests := []struct {
		name           string
		ledger         Ledger
		today          Date
		wantPaychecks  int
		wantPerCheck   int64
		wantRemaining  int64
	}{
		{
			name:          "fresh goal on the anchor day",
			today:         NewDate(2026, time.January, 22),
			wantPaychecks: 13,
			wantPerCheck:  38462,
			wantRemaining: 500000,
		},
		{
			name:          "contribution this period consumes a paycheck",
			ledger:        Ledger{pay("p1", "trip", "2026-01-23", 40000)},
			today:         NewDate(2026, time.January, 25),
			wantPaychecks: 12,
			wantPerCheck:  38333,
			wantRemaining: 460000,
		},
		{
			name:          "midway through the run",
			today:         NewDate(2026, time.April, 20),
			wantPaychecks: 7,
			wantPerCheck:  71429,
			wantRemaining: 500000,
		},
		{
			name:          "past the due date pays the lump sum",
			ledger:        Ledger{pay("p1", "trip", "2026-02-01", 100000)},
			today:         NewDate(2026, time.August, 10),
			wantPaychecks: 0,
			wantPerCheck:  400000,
			wantRemaining: 400000,
		},
		{
			name:          "before the anchor counts as the first period",
			today:         NewDate(2026, time.January, 10),
			wantPaychecks: 13,
			wantPerCheck:  38462,
			wantRemaining: 500000,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PlanSavings(goal, tt.ledger, tt.today, testSched)
			if got.PaychecksRemaining != tt.wantPaychecks {
				t.Fatalf("paychecks = %d, want %d", got.PaychecksRemaining, tt.wantPaychecks)
			}
			if got.PerPaycheck.Cents != tt.wantPerCheck {
				t.Fatalf("per paycheck = %d, want %d", got.PerPaycheck.Cents, tt.wantPerCheck)
			}
			if got.Remaining.Cents != tt.wantRemaining {
				t.Fatalf("remaining = %d, want %d", got.Remaining.Cents, tt.wantRemaining)
			}
		})
	}
}
