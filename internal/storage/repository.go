// Package storage is the SQLite layer: a local cache of the remote payment
// sheet plus the authoritative home of the expense registry. When the remote
// store is unreachable the cached payments keep the app readable.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"billtrack/internal/core"
	ports "billtrack/internal/sheets"

	_ "modernc.org/sqlite"
)

// Sync states for locally written payments. Deletes are tombstoned as
// pending-delete until the remote row is confirmed gone, so a lost queue
// message cannot resurrect a deleted payment on the next cache refresh.
const (
	SyncPending       = "pending"
	SyncSynced        = "synced"
	SyncError         = "error"
	SyncPendingDelete = "pending-delete"
)

type Repository struct {
	db *sql.DB
}

var _ ports.PaymentStore = (*Repository)(nil)

func NewRepository(dbPath string) (*Repository, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *Repository) ListPayments(ctx context.Context, userID string) ([]core.Payment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, date, category, amount_cents, notes
		 FROM payments WHERE user_id = ? AND sync_status != ?
		 ORDER BY date DESC, id`, userID, SyncPendingDelete)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	var out []core.Payment
	for rows.Next() {
		var p core.Payment
		if err := rows.Scan(&p.ID, &p.Date, &p.Category, &p.Amount.Cents, &p.Notes); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// AppendPayment stores a new payment in pending state; the sync worker
// pushes it to the remote sheet later.
func (r *Repository) AppendPayment(ctx context.Context, userID string, p core.Payment) error {
	if err := p.Validate(); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO payments (id, user_id, date, category, amount_cents, notes, sync_status)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, userID, p.Date, p.Category, p.Amount.Cents, p.Notes, SyncPending)
	if err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

func (r *Repository) UpdatePayment(ctx context.Context, userID string, p core.Payment) error {
	if err := p.Validate(); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE payments SET date = ?, category = ?, amount_cents = ?, notes = ?,
		        sync_status = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE user_id = ? AND id = ? AND sync_status != ?`,
		p.Date, p.Category, p.Amount.Cents, p.Notes, SyncPending, userID, p.ID, SyncPendingDelete)
	if err != nil {
		return fmt.Errorf("update payment: %w", err)
	}
	return requireRow(res, p.ID)
}

// DeletePayment tombstones the row. It disappears from reads immediately
// but stays on disk until ConfirmDelete reports the remote row gone.
func (r *Repository) DeletePayment(ctx context.Context, userID, paymentID string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE payments SET sync_status = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE user_id = ? AND id = ? AND sync_status != ?`,
		SyncPendingDelete, userID, paymentID, SyncPendingDelete)
	if err != nil {
		return fmt.Errorf("delete payment: %w", err)
	}
	return requireRow(res, paymentID)
}

// ConfirmDelete removes a tombstoned row once the remote delete went
// through. Idempotent; confirming an already-purged payment is a no-op.
func (r *Repository) ConfirmDelete(ctx context.Context, userID, paymentID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM payments WHERE user_id = ? AND id = ? AND sync_status = ?`,
		userID, paymentID, SyncPendingDelete)
	if err != nil {
		return fmt.Errorf("confirm delete: %w", err)
	}
	return nil
}

func requireRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("payment %s: %w", id, core.ErrNotFound)
	}
	return nil
}

// ReplaceSyncedPayments refreshes the cache from a successful remote read.
// Locally written rows still waiting to sync are kept so an outage between
// write and sync cannot drop them from view, and rows tombstoned for
// deletion are not resurrected by a remote copy that still has them.
func (r *Repository) ReplaceSyncedPayments(ctx context.Context, userID string, payments []core.Payment) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM payments WHERE user_id = ? AND sync_status = ?`, userID, SyncSynced); err != nil {
		return fmt.Errorf("clear synced payments: %w", err)
	}
	// Synced rows were just cleared, so any conflict is a pending write,
	// a tombstone or an errored row; those stay untouched.
	for _, p := range payments {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO payments (id, user_id, date, category, amount_cents, notes, sync_status)
			 VALUES (?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT (user_id, id) DO NOTHING`,
			p.ID, userID, p.Date, p.Category, p.Amount.Cents, p.Notes, SyncSynced); err != nil {
			return fmt.Errorf("upsert payment %s: %w", p.ID, err)
		}
	}
	return tx.Commit()
}

// PendingPayment is a local write not yet reconciled with the sheet: a
// payment waiting to be pushed, or with Delete set, a tombstone waiting
// for the remote row to be removed.
type PendingPayment struct {
	UserID    string
	Payment   core.Payment
	Delete    bool
	CreatedAt time.Time
}

func (r *Repository) GetPendingPayments(ctx context.Context, limit int) ([]PendingPayment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, date, category, amount_cents, notes, sync_status, created_at
		 FROM payments WHERE sync_status IN (?, ?) ORDER BY created_at LIMIT ?`,
		SyncPending, SyncPendingDelete, limit)
	if err != nil {
		return nil, fmt.Errorf("get pending payments: %w", err)
	}
	defer rows.Close()

	var out []PendingPayment
	for rows.Next() {
		var pp PendingPayment
		var status string
		if err := rows.Scan(&pp.Payment.ID, &pp.UserID, &pp.Payment.Date, &pp.Payment.Category,
			&pp.Payment.Amount.Cents, &pp.Payment.Notes, &status, &pp.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan pending payment: %w", err)
		}
		pp.Delete = status == SyncPendingDelete
		out = append(out, pp)
	}
	return out, rows.Err()
}

func (r *Repository) GetPayment(ctx context.Context, userID, paymentID string) (core.Payment, error) {
	var p core.Payment
	err := r.db.QueryRowContext(ctx,
		`SELECT id, date, category, amount_cents, notes
		 FROM payments WHERE user_id = ? AND id = ? AND sync_status != ?`,
		userID, paymentID, SyncPendingDelete).
		Scan(&p.ID, &p.Date, &p.Category, &p.Amount.Cents, &p.Notes)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Payment{}, fmt.Errorf("payment %s: %w", paymentID, core.ErrNotFound)
	}
	if err != nil {
		return core.Payment{}, fmt.Errorf("get payment: %w", err)
	}
	return p, nil
}

func (r *Repository) MarkSynced(ctx context.Context, userID, paymentID string) error {
	if err := r.setSyncStatus(ctx, userID, paymentID, SyncSynced); err != nil {
		return err
	}
	slog.InfoContext(ctx, "payment marked synced", "id", paymentID)
	return nil
}

func (r *Repository) MarkSyncError(ctx context.Context, userID, paymentID string) error {
	if err := r.setSyncStatus(ctx, userID, paymentID, SyncError); err != nil {
		return err
	}
	slog.WarnContext(ctx, "payment marked with sync error", "id", paymentID)
	return nil
}

func (r *Repository) setSyncStatus(ctx context.Context, userID, paymentID, status string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE payments SET sync_status = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE user_id = ? AND id = ?`, status, userID, paymentID)
	if err != nil {
		return fmt.Errorf("set sync status: %w", err)
	}
	return nil
}

// LoadExpenses returns the user's registry in stored position order.
func (r *Repository) LoadExpenses(ctx context.Context, userID string) (core.Registry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, icon, variant, amount_cents, due_day, due_date, total_payments,
		        current_balance_cents, min_payment_cents, credit_limit_cents,
		        interest_rate, billing_close_day
		 FROM expenses WHERE user_id = ? ORDER BY position`, userID)
	if err != nil {
		return nil, fmt.Errorf("load expenses: %w", err)
	}
	defer rows.Close()

	var reg core.Registry
	for rows.Next() {
		var e core.Expense
		var variant, dueDate string
		if err := rows.Scan(&e.ID, &e.Name, &e.Icon, &variant, &e.Amount.Cents,
			&e.DueDay, &dueDate, &e.TotalPayments,
			&e.CurrentBalance.Cents, &e.MinPayment.Cents, &e.CreditLimit.Cents,
			&e.InterestRate, &e.BillingCloseDay); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		e.Variant = core.Variant(variant)
		if dueDate != "" {
			d, err := core.ParseLocalDate(dueDate)
			if err != nil {
				return nil, fmt.Errorf("expense %s: %w", e.ID, err)
			}
			e.DueDate = d
		}
		reg = append(reg, e)
	}
	return reg, rows.Err()
}

// SaveExpenses re-persists the whole registry wholesale, preserving order.
// Registry mutations are always full-snapshot writes, never per-field.
func (r *Repository) SaveExpenses(ctx context.Context, userID string, reg core.Registry) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM expenses WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("clear expenses: %w", err)
	}
	for i, e := range reg {
		dueDate := ""
		if !e.DueDate.IsZero() {
			dueDate = e.DueDate.String()
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO expenses (id, user_id, position, name, icon, variant, amount_cents,
			        due_day, due_date, total_payments, current_balance_cents,
			        min_payment_cents, credit_limit_cents, interest_rate, billing_close_day)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			e.ID, userID, i, e.Name, e.Icon, string(e.Variant), e.Amount.Cents,
			e.DueDay, dueDate, e.TotalPayments, e.CurrentBalance.Cents,
			e.MinPayment.Cents, e.CreditLimit.Cents, e.InterestRate, e.BillingCloseDay); err != nil {
			return fmt.Errorf("insert expense %s: %w", e.ID, err)
		}
	}
	return tx.Commit()
}
