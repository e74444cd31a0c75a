package core

import (
	"errors"
	"fmt"
	"strings"
)

// Variant discriminates the expense union. Each variant carries its own
// subset of the optional fields on Expense; Validate enforces the shape.
type Variant string

const (
	VariantRecurring  Variant = "recurring"
	VariantVariable   Variant = "variable"
	VariantLoan       Variant = "loan"
	VariantGoal       Variant = "goal"
	VariantCreditCard Variant = "creditcard"
)

func ParseVariant(s string) (Variant, error) {
	switch Variant(strings.ToLower(strings.TrimSpace(s))) {
	case VariantRecurring:
		return VariantRecurring, nil
	case VariantVariable:
		return VariantVariable, nil
	case VariantLoan:
		return VariantLoan, nil
	case VariantGoal:
		return VariantGoal, nil
	case VariantCreditCard:
		return VariantCreditCard, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidVariant, s)
}

var (
	ErrInvalidVariant       = errors.New("invalid expense variant")
	ErrEmptyName            = errors.New("empty expense name")
	ErrInvalidDueDay        = errors.New("due day must be between 1 and 31")
	ErrMissingDueDate       = errors.New("goal requires a due date")
	ErrInvalidTotalPayments = errors.New("loan requires a positive payment count")
	ErrDuplicateName        = errors.New("expense name already in use")
	ErrDuplicateID          = errors.New("expense id already in use")
	ErrNotFound             = errors.New("not found")
	ErrEmptyCategory        = errors.New("payment requires a category")
	ErrExceedsGoalBalance   = errors.New("payment exceeds remaining goal balance")
)

// Expense is one tracked obligation. Amount's meaning depends on Variant:
// fixed monthly amount (recurring), estimate (variable), per-installment
// amount (loan), target total (goal), or payment amount (creditcard).
type Expense struct {
	ID      string
	Name    string
	Icon    string
	Variant Variant
	Amount  Money

	// DueDay is the billing day of month for every variant except goal.
	DueDay int
	// DueDate is the target completion date; goal only.
	DueDate Date
	// TotalPayments is the installment count; loan only.
	TotalPayments int

	// Credit card metadata. CurrentBalance and MinPayment are required for
	// the creditcard variant, the rest optional.
	CurrentBalance  Money
	MinPayment      Money
	CreditLimit     Money
	InterestRate    float64
	BillingCloseDay int
}

func (e Expense) Validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return ErrEmptyName
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	switch e.Variant {
	case VariantGoal:
		if e.DueDate.IsZero() {
			return ErrMissingDueDate
		}
	case VariantLoan:
		if e.TotalPayments <= 0 {
			return ErrInvalidTotalPayments
		}
		if e.DueDay < 1 || e.DueDay > 31 {
			return ErrInvalidDueDay
		}
	case VariantRecurring, VariantVariable, VariantCreditCard:
		if e.DueDay < 1 || e.DueDay > 31 {
			return ErrInvalidDueDay
		}
	default:
		return fmt.Errorf("%w: %q", ErrInvalidVariant, string(e.Variant))
	}
	return nil
}

// Payment is one recorded transaction against an expense. Category may
// reference a deleted expense; such orphans still sum and render safely.
type Payment struct {
	ID       string
	Category string
	Amount   Money
	// Date is the local calendar day as "YYYY-MM-DD", never a timestamp.
	Date  string
	Notes string
}

func (p Payment) Validate() error {
	if strings.TrimSpace(p.Category) == "" {
		return ErrEmptyCategory
	}
	if err := p.Amount.Validate(); err != nil {
		return err
	}
	if _, err := ParseLocalDate(p.Date); err != nil {
		return err
	}
	return nil
}

// Snapshot is the in-memory state the engines operate on. The core never
// loads or persists it; callers resolve a snapshot first and re-run
// aggregation after any mutation.
type Snapshot struct {
	Expenses Registry
	Payments Ledger
}
