package services

import (
	"context"
	"fmt"

	"billtrack/internal/core"
	"billtrack/internal/log"
)

// RegistryService guards expense definitions. Every mutation validates
// against the current registry, then re-persists the whole snapshot.
type RegistryService struct {
	store  RegistryStore
	logger *log.Logger
}

func NewRegistryService(store RegistryStore, logger *log.Logger) *RegistryService {
	return &RegistryService{store: store, logger: logger.WithComponent("registry")}
}

func (s *RegistryService) List(ctx context.Context, userID string) (core.Registry, error) {
	return s.store.LoadExpenses(ctx, userID)
}

func (s *RegistryService) Get(ctx context.Context, userID, expenseID string) (core.Expense, error) {
	reg, err := s.store.LoadExpenses(ctx, userID)
	if err != nil {
		return core.Expense{}, err
	}
	e, ok := reg.Find(expenseID)
	if !ok {
		return core.Expense{}, fmt.Errorf("expense %s: %w", expenseID, core.ErrNotFound)
	}
	return e, nil
}

func (s *RegistryService) Add(ctx context.Context, userID string, e core.Expense) (core.Expense, error) {
	reg, err := s.store.LoadExpenses(ctx, userID)
	if err != nil {
		return core.Expense{}, err
	}
	updated, err := reg.Add(e)
	if err != nil {
		return core.Expense{}, err
	}
	if err := s.store.SaveExpenses(ctx, userID, updated); err != nil {
		return core.Expense{}, fmt.Errorf("persist registry: %w", err)
	}
	s.logger.InfoContext(ctx, "expense added", "expense_id", e.ID, "variant", string(e.Variant))
	return e, nil
}

func (s *RegistryService) Edit(ctx context.Context, userID string, e core.Expense) error {
	reg, err := s.store.LoadExpenses(ctx, userID)
	if err != nil {
		return err
	}
	updated, err := reg.Edit(e)
	if err != nil {
		return err
	}
	if err := s.store.SaveExpenses(ctx, userID, updated); err != nil {
		return fmt.Errorf("persist registry: %w", err)
	}
	s.logger.InfoContext(ctx, "expense edited", "expense_id", e.ID)
	return nil
}

// Delete removes the definition only. Its payments stay in the ledger as
// orphans and keep summing.
func (s *RegistryService) Delete(ctx context.Context, userID, expenseID string) error {
	reg, err := s.store.LoadExpenses(ctx, userID)
	if err != nil {
		return err
	}
	updated, err := reg.Delete(expenseID)
	if err != nil {
		return err
	}
	if err := s.store.SaveExpenses(ctx, userID, updated); err != nil {
		return fmt.Errorf("persist registry: %w", err)
	}
	s.logger.InfoContext(ctx, "expense deleted", "expense_id", expenseID)
	return nil
}
