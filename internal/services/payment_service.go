// Package services coordinates the pure core with the storage and sync
// boundaries: validate first, mutate the local store, then hand off to the
// write-behind queue. Engines never see a half-applied write.
package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"billtrack/internal/amqp"
	"billtrack/internal/core"
	"billtrack/internal/log"
	ports "billtrack/internal/sheets"
)

// Publisher is the write-behind queue boundary. Nil-able: without a queue
// configured, writes stay local and the periodic sweep picks them up.
type Publisher interface {
	Publish(ctx context.Context, msg *amqp.PaymentSyncMessage) error
}

// RegistryStore persists the expense registry wholesale.
type RegistryStore interface {
	LoadExpenses(ctx context.Context, userID string) (core.Registry, error)
	SaveExpenses(ctx context.Context, userID string, reg core.Registry) error
}

type PaymentService struct {
	store    ports.PaymentStore
	registry RegistryStore
	queue    Publisher
	logger   *log.Logger

	now   func() time.Time
	newID func(now time.Time) string
}

func NewPaymentService(store ports.PaymentStore, registry RegistryStore, queue Publisher, logger *log.Logger) *PaymentService {
	return &PaymentService{
		store:    store,
		registry: registry,
		queue:    queue,
		logger:   logger.WithComponent("payments"),
		now:      time.Now,
		newID:    newPaymentID,
	}
}

// newPaymentID builds ids like pay_1769040000000_a1b2c3, unique enough for
// a single-editor ledger.
func newPaymentID(now time.Time) string {
	var b [3]byte
	rand.Read(b[:])
	return fmt.Sprintf("pay_%d_%s", now.UnixMilli(), hex.EncodeToString(b[:]))
}

// Create validates and stores a new payment, then queues it for remote
// sync. A goal contribution larger than the goal's remaining balance is
// rejected before anything is written.
func (s *PaymentService) Create(ctx context.Context, userID string, p core.Payment) (core.Payment, error) {
	if p.ID == "" {
		p.ID = s.newID(s.now())
	}
	if p.Date == "" {
		p.Date = core.TodayDateString(s.now())
	}
	if err := p.Validate(); err != nil {
		return core.Payment{}, err
	}
	if err := s.checkGoalBalances(ctx, userID, []core.Payment{p}); err != nil {
		return core.Payment{}, err
	}

	if err := s.store.AppendPayment(ctx, userID, p); err != nil {
		return core.Payment{}, fmt.Errorf("save payment: %w", err)
	}
	s.enqueue(ctx, amqp.NewSyncMessage(userID, p.ID))

	s.logger.InfoContext(ctx, "payment created",
		"payment_id", p.ID, "category", p.Category, "amount_cents", p.Amount.Cents)
	return p, nil
}

// CreateBulk stores several payments in one user action, e.g. marking a
// whole pay period's bills paid at once. Validation is all-or-nothing;
// storage is sequential after that.
func (s *PaymentService) CreateBulk(ctx context.Context, userID string, payments []core.Payment) ([]core.Payment, error) {
	out := make([]core.Payment, len(payments))
	for i, p := range payments {
		if p.ID == "" {
			p.ID = s.newID(s.now())
		}
		if p.Date == "" {
			p.Date = core.TodayDateString(s.now())
		}
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("payment %d: %w", i, err)
		}
		out[i] = p
	}
	if err := s.checkGoalBalances(ctx, userID, out); err != nil {
		return nil, err
	}
	for i, p := range out {
		if err := s.store.AppendPayment(ctx, userID, p); err != nil {
			return nil, fmt.Errorf("save payment %d: %w", i, err)
		}
		s.enqueue(ctx, amqp.NewSyncMessage(userID, p.ID))
	}
	s.logger.InfoContext(ctx, "bulk payments created", "count", len(out))
	return out, nil
}

// Update replaces the stored payment's editable fields.
func (s *PaymentService) Update(ctx context.Context, userID string, p core.Payment) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if err := s.store.UpdatePayment(ctx, userID, p); err != nil {
		return err
	}
	s.enqueue(ctx, amqp.NewSyncMessage(userID, p.ID))
	s.logger.InfoContext(ctx, "payment updated", "payment_id", p.ID)
	return nil
}

func (s *PaymentService) Delete(ctx context.Context, userID, paymentID string) error {
	if err := s.store.DeletePayment(ctx, userID, paymentID); err != nil {
		return err
	}
	s.enqueue(ctx, amqp.NewDeleteMessage(userID, paymentID))
	s.logger.InfoContext(ctx, "payment deleted", "payment_id", paymentID)
	return nil
}

// enqueue publishes best-effort. The local write already succeeded; a
// publish failure only delays sync until the pending sweep.
func (s *PaymentService) enqueue(ctx context.Context, msg *amqp.PaymentSyncMessage) {
	if s.queue == nil {
		return
	}
	if err := s.queue.Publish(ctx, msg); err != nil {
		s.logger.WarnContext(ctx, "queue publish failed, pending sweep will retry",
			"payment_id", msg.PaymentID, "action", msg.Action, "error", err)
	}
}

// checkGoalBalances rejects contributions that would overfill a goal. The
// whole batch is summed per goal before checking, so consecutive payments
// against the same goal cannot slip past the limit one by one — and the
// check runs before any write, never between them.
func (s *PaymentService) checkGoalBalances(ctx context.Context, userID string, payments []core.Payment) error {
	if s.registry == nil {
		return nil
	}
	batch := make(map[string]int64)
	for _, p := range payments {
		batch[p.Category] += p.Amount.Cents
	}

	reg, err := s.registry.LoadExpenses(ctx, userID)
	if err != nil {
		return fmt.Errorf("load registry: %w", err)
	}
	var ledger core.Ledger
	loaded := false
	for _, e := range reg {
		if e.Variant != core.VariantGoal || batch[e.ID] == 0 {
			continue
		}
		if !loaded {
			stored, err := s.store.ListPayments(ctx, userID)
			if err != nil {
				return fmt.Errorf("load ledger: %w", err)
			}
			ledger = core.Ledger(stored)
			loaded = true
		}
		saved := ledger.TotalForCategory(e.ID)
		if saved.Cents+batch[e.ID] > e.Amount.Cents {
			return fmt.Errorf("goal %s: %w", e.ID, core.ErrExceedsGoalBalance)
		}
	}
	return nil
}
