// Package memory is an in-process payment store used by the memory backend
// and by tests. It mirrors the spreadsheet contract, per-user tabs included.
package memory

import (
	"context"
	"fmt"
	"sync"

	"billtrack/internal/core"
	ports "billtrack/internal/sheets"
)

type Store struct {
	mu         sync.RWMutex
	tabs       map[string][]core.Payment
	registries map[string]core.Registry

	// FailList simulates a remote outage for fallback tests.
	FailList bool
}

var _ ports.PaymentStore = (*Store)(nil)

func New() *Store {
	return &Store{
		tabs:       make(map[string][]core.Payment),
		registries: make(map[string]core.Registry),
	}
}

func (s *Store) ListPayments(ctx context.Context, userID string) ([]core.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.FailList {
		return nil, fmt.Errorf("list payments: store unavailable")
	}
	src := s.tabs[userID]
	out := make([]core.Payment, len(src))
	copy(out, src)
	return out, nil
}

func (s *Store) AppendPayment(ctx context.Context, userID string, p core.Payment) error {
	if err := p.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tabs[userID] = append(s.tabs[userID], p)
	return nil
}

func (s *Store) UpdatePayment(ctx context.Context, userID string, p core.Payment) error {
	if err := p.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	tab := s.tabs[userID]
	for i := range tab {
		if tab[i].ID == p.ID {
			tab[i] = p
			return nil
		}
	}
	return fmt.Errorf("payment %s: %w", p.ID, core.ErrNotFound)
}

func (s *Store) DeletePayment(ctx context.Context, userID, paymentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tab := s.tabs[userID]
	for i := range tab {
		if tab[i].ID == paymentID {
			s.tabs[userID] = append(tab[:i:i], tab[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("payment %s: %w", paymentID, core.ErrNotFound)
}

func (s *Store) LoadExpenses(ctx context.Context, userID string) (core.Registry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	src := s.registries[userID]
	out := make(core.Registry, len(src))
	copy(out, src)
	return out, nil
}

func (s *Store) SaveExpenses(ctx context.Context, userID string, reg core.Registry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := make(core.Registry, len(reg))
	copy(stored, reg)
	s.registries[userID] = stored
	return nil
}
