package core

import (
	"errors"
	"testing"
	"time"
)

func TestRegistryAdd(t *testing.T) {
	base := Registry{recurring("rent", 120000, 1)}

	t.Run("appends at the end", func(t *testing.T) {
		got, err := base.Add(recurring("power", 9000, 20))
		if err != nil {
			t.Fatalf("Add: %v", err)
		}
		if len(got) != 2 || got[1].ID != "power" {
			t.Fatalf("unexpected registry: %+v", got)
		}
		if len(base) != 1 {
			t.Fatal("Add must not mutate the receiver")
		}
	})

	t.Run("rejects duplicate name case-insensitively", func(t *testing.T) {
		dup := recurring("rent2", 50000, 5)
		dup.Name = "RENT"
		if _, err := base.Add(dup); !errors.Is(err, ErrDuplicateName) {
			t.Fatalf("error = %v, want ErrDuplicateName", err)
		}
	})

	t.Run("rejects duplicate id", func(t *testing.T) {
		dup := recurring("rent", 50000, 5)
		dup.Name = "other"
		if _, err := base.Add(dup); !errors.Is(err, ErrDuplicateID) {
			t.Fatalf("error = %v, want ErrDuplicateID", err)
		}
	})

	t.Run("rejects invalid expense before mutation", func(t *testing.T) {
		if _, err := base.Add(recurring("x", 0, 1)); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("error = %v, want ErrInvalidAmount", err)
		}
	})
}

func TestRegistryEdit(t *testing.T) {
	base := Registry{
		recurring("rent", 120000, 1),
		recurring("power", 9000, 20),
	}

	t.Run("replaces in place keeping position", func(t *testing.T) {
		updated := recurring("rent", 125000, 1)
		got, err := base.Edit(updated)
		if err != nil {
			t.Fatalf("Edit: %v", err)
		}
		if got[0].Amount.Cents != 125000 {
			t.Fatalf("amount = %d, want 125000", got[0].Amount.Cents)
		}
		if base[0].Amount.Cents != 120000 {
			t.Fatal("Edit must not mutate the receiver")
		}
	})

	t.Run("keeping own name is allowed", func(t *testing.T) {
		if _, err := base.Edit(recurring("rent", 130000, 2)); err != nil {
			t.Fatalf("renaming to own name should pass: %v", err)
		}
	})

	t.Run("taking another expense's name is not", func(t *testing.T) {
		e := recurring("rent", 130000, 2)
		e.Name = "Power"
		if _, err := base.Edit(e); !errors.Is(err, ErrDuplicateName) {
			t.Fatalf("error = %v, want ErrDuplicateName", err)
		}
	})

	t.Run("missing id", func(t *testing.T) {
		if _, err := base.Edit(recurring("ghost", 100, 1)); !errors.Is(err, ErrNotFound) {
			t.Fatalf("error = %v, want ErrNotFound", err)
		}
	})
}

func TestRegistryDelete(t *testing.T) {
	base := Registry{
		recurring("rent", 120000, 1),
		recurring("power", 9000, 20),
	}
	got, err := base.Delete("rent")
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(got) != 1 || got[0].ID != "power" {
		t.Fatalf("unexpected registry after delete: %+v", got)
	}
	if _, err := base.Delete("ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}

func TestExpenseValidate(t *testing.T) {
	tests := []struct {
		name    string
		expense Expense
		wantErr error
	}{
		{
			name:    "valid recurring",
			expense: recurring("rent", 120000, 1),
		},
		{
			name: "valid goal",
			expense: Expense{
				ID: "trip", Name: "trip", Variant: VariantGoal,
				Amount: Money{Cents: 500000}, DueDate: NewDate(2026, time.July, 23),
			},
		},
		{
			name: "goal without due date",
			expense: Expense{
				ID: "trip", Name: "trip", Variant: VariantGoal, Amount: Money{Cents: 500000},
			},
			wantErr: ErrMissingDueDate,
		},
		{
			name: "loan without payment count",
			expense: Expense{
				ID: "car", Name: "car", Variant: VariantLoan,
				Amount: Money{Cents: 35000}, DueDay: 15,
			},
			wantErr: ErrInvalidTotalPayments,
		},
		{
			name:    "due day out of range",
			expense: recurring("rent", 120000, 32),
			wantErr: ErrInvalidDueDay,
		},
		{
			name:    "due day zero",
			expense: recurring("rent", 120000, 0),
			wantErr: ErrInvalidDueDay,
		},
		{
			name: "blank name",
			expense: Expense{
				ID: "x", Name: "   ", Variant: VariantRecurring,
				Amount: Money{Cents: 100}, DueDay: 1,
			},
			wantErr: ErrEmptyName,
		},
		{
			name: "unknown variant",
			expense: Expense{
				ID: "x", Name: "x", Variant: "subscription",
				Amount: Money{Cents: 100}, DueDay: 1,
			},
			wantErr: ErrInvalidVariant,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.expense.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Validate: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestPaymentValidate(t *testing.T) {
	valid := Payment{ID: "p1", Category: "rent", Amount: Money{Cents: 100}, Date: "2026-01-22"}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	noCategory := valid
	noCategory.Category = " "
	if err := noCategory.Validate(); !errors.Is(err, ErrEmptyCategory) {
		t.Fatalf("error = %v, want ErrEmptyCategory", err)
	}

	badAmount := valid
	badAmount.Amount = Money{}
	if err := badAmount.Validate(); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("error = %v, want ErrInvalidAmount", err)
	}

	badDate := valid
	badDate.Date = "01/22/2026"
	if err := badDate.Validate(); !errors.Is(err, ErrMalformedDate) {
		t.Fatalf("error = %v, want ErrMalformedDate", err)
	}
}
