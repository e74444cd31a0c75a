// Package worker pushes locally written payments to the remote sheet. It
// consumes the AMQP queue and periodically sweeps the pending table as a
// backstop for lost messages.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"billtrack/internal/amqp"
	"billtrack/internal/core"
	"billtrack/internal/log"
	ports "billtrack/internal/sheets"
	"billtrack/internal/storage"
)

type SyncWorker struct {
	storage   *storage.Repository
	remote    ports.PaymentStore
	batchSize int
	logger    *log.Logger
}

func NewSyncWorker(repo *storage.Repository, remote ports.PaymentStore, batchSize int, logger *log.Logger) *SyncWorker {
	return &SyncWorker{
		storage:   repo,
		remote:    remote,
		batchSize: batchSize,
		logger:    logger.WithComponent("sync-worker"),
	}
}

// HandleMessage processes one queue delivery. Returning an error requeues
// the delivery, so only retryable failures may propagate.
func (w *SyncWorker) HandleMessage(ctx context.Context, msg *amqp.PaymentSyncMessage) error {
	switch msg.Action {
	case amqp.ActionSync:
		return w.syncPayment(ctx, msg.UserID, msg.PaymentID)
	case amqp.ActionDelete:
		return w.deleteRemote(ctx, msg.UserID, msg.PaymentID)
	default:
		// Unknown actions are dropped, not requeued forever.
		w.logger.WarnContext(ctx, "dropping message with unknown action", "action", msg.Action)
		return nil
	}
}

func (w *SyncWorker) syncPayment(ctx context.Context, userID, paymentID string) error {
	p, err := w.storage.GetPayment(ctx, userID, paymentID)
	if errors.Is(err, core.ErrNotFound) {
		// Deleted locally before the sync ran. Nothing to push.
		w.logger.InfoContext(ctx, "payment vanished before sync, skipping", "payment_id", paymentID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load payment: %w", err)
	}
	return w.pushToRemote(ctx, userID, p)
}

// pushToRemote upserts: an existing row is updated in place, otherwise the
// payment is appended. Idempotent under message redelivery.
func (w *SyncWorker) pushToRemote(ctx context.Context, userID string, p core.Payment) error {
	err := w.remote.UpdatePayment(ctx, userID, p)
	if errors.Is(err, core.ErrNotFound) {
		err = w.remote.AppendPayment(ctx, userID, p)
	}
	if err != nil {
		if markErr := w.storage.MarkSyncError(ctx, userID, p.ID); markErr != nil {
			w.logger.ErrorContext(ctx, "failed to mark sync error", "payment_id", p.ID, "error", markErr)
		}
		return fmt.Errorf("push payment %s: %w", p.ID, err)
	}
	if err := w.storage.MarkSynced(ctx, userID, p.ID); err != nil {
		// The push worked; only the bookkeeping failed.
		w.logger.ErrorContext(ctx, "failed to mark synced", "payment_id", p.ID, "error", err)
	}
	w.logger.InfoContext(ctx, "payment synced", "payment_id", p.ID)
	return nil
}

func (w *SyncWorker) deleteRemote(ctx context.Context, userID, paymentID string) error {
	err := w.remote.DeletePayment(ctx, userID, paymentID)
	if err != nil && !errors.Is(err, core.ErrNotFound) {
		return fmt.Errorf("delete remote payment %s: %w", paymentID, err)
	}
	// Already-gone counts as success; either way the local tombstone can go.
	if err := w.storage.ConfirmDelete(ctx, userID, paymentID); err != nil {
		w.logger.ErrorContext(ctx, "failed to confirm delete", "payment_id", paymentID, "error", err)
	}
	w.logger.InfoContext(ctx, "remote payment deleted", "payment_id", paymentID)
	return nil
}

// ProcessPending reconciles writes the queue missed: pending payments are
// pushed, tombstones are deleted remotely. Errors on individual payments
// are logged and skipped so one bad row cannot stall the sweep.
func (w *SyncWorker) ProcessPending(ctx context.Context) error {
	pending, err := w.storage.GetPendingPayments(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending payments: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	w.logger.InfoContext(ctx, "processing pending payments", "count", len(pending))
	for _, pp := range pending {
		if pp.Delete {
			err = w.deleteRemote(ctx, pp.UserID, pp.Payment.ID)
		} else {
			err = w.pushToRemote(ctx, pp.UserID, pp.Payment)
		}
		if err != nil {
			w.logger.ErrorContext(ctx, "pending sync failed",
				"payment_id", pp.Payment.ID, "error", err)
		}
	}
	return nil
}

// RunPendingSweep ticks until ctx is done. Used alongside the consumer via
// an errgroup in the worker command.
func (w *SyncWorker) RunPendingSweep(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.ProcessPending(ctx); err != nil {
				w.logger.ErrorContext(ctx, "pending sweep failed", "error", err)
			}
		}
	}
}
