package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"billtrack/internal/core"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewRepository(filepath.Join(t.TempDir(), "billtrack.db"))
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func payment(id string, cents int64) core.Payment {
	return core.Payment{ID: id, Category: "rent", Amount: core.Money{Cents: cents}, Date: "2026-01-22"}
}

func TestPaymentCRUD(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	if err := repo.AppendPayment(ctx, "u1", payment("p1", 100)); err != nil {
		t.Fatalf("AppendPayment: %v", err)
	}
	if err := repo.AppendPayment(ctx, "u2", payment("p2", 200)); err != nil {
		t.Fatalf("AppendPayment: %v", err)
	}

	got, err := repo.ListPayments(ctx, "u1")
	if err != nil {
		t.Fatalf("ListPayments: %v", err)
	}
	if len(got) != 1 || got[0].ID != "p1" {
		t.Fatalf("u1 payments = %+v", got)
	}

	updated := payment("p1", 150)
	updated.Notes = "adjusted"
	if err := repo.UpdatePayment(ctx, "u1", updated); err != nil {
		t.Fatalf("UpdatePayment: %v", err)
	}
	single, err := repo.GetPayment(ctx, "u1", "p1")
	if err != nil {
		t.Fatalf("GetPayment: %v", err)
	}
	if single.Amount.Cents != 150 || single.Notes != "adjusted" {
		t.Fatalf("payment after update = %+v", single)
	}

	if err := repo.DeletePayment(ctx, "u1", "p1"); err != nil {
		t.Fatalf("DeletePayment: %v", err)
	}
	if _, err := repo.GetPayment(ctx, "u1", "p1"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("GetPayment after delete error = %v, want ErrNotFound", err)
	}
	if err := repo.DeletePayment(ctx, "u1", "p1"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("double delete error = %v, want ErrNotFound", err)
	}
}

func TestSyncStateTransitions(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	if err := repo.AppendPayment(ctx, "u1", payment("p1", 100)); err != nil {
		t.Fatalf("AppendPayment: %v", err)
	}
	pending, err := repo.GetPendingPayments(ctx, 10)
	if err != nil {
		t.Fatalf("GetPendingPayments: %v", err)
	}
	if len(pending) != 1 || pending[0].Payment.ID != "p1" || pending[0].UserID != "u1" {
		t.Fatalf("pending = %+v", pending)
	}

	if err := repo.MarkSynced(ctx, "u1", "p1"); err != nil {
		t.Fatalf("MarkSynced: %v", err)
	}
	pending, _ = repo.GetPendingPayments(ctx, 10)
	if len(pending) != 0 {
		t.Fatalf("pending after MarkSynced = %+v, want none", pending)
	}

	// Updating re-queues the payment for sync.
	if err := repo.UpdatePayment(ctx, "u1", payment("p1", 300)); err != nil {
		t.Fatalf("UpdatePayment: %v", err)
	}
	pending, _ = repo.GetPendingPayments(ctx, 10)
	if len(pending) != 1 {
		t.Fatalf("pending after update = %+v, want one", pending)
	}

	if err := repo.MarkSyncError(ctx, "u1", "p1"); err != nil {
		t.Fatalf("MarkSyncError: %v", err)
	}
	pending, _ = repo.GetPendingPayments(ctx, 10)
	if len(pending) != 0 {
		t.Fatal("errored payments should leave the pending queue")
	}
}

func TestReplaceSyncedPaymentsKeepsPendingWrites(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	// A synced row from an earlier refresh and a local pending write.
	if err := repo.AppendPayment(ctx, "u1", payment("old", 100)); err != nil {
		t.Fatalf("AppendPayment: %v", err)
	}
	if err := repo.MarkSynced(ctx, "u1", "old"); err != nil {
		t.Fatalf("MarkSynced: %v", err)
	}
	if err := repo.AppendPayment(ctx, "u1", payment("local", 300)); err != nil {
		t.Fatalf("AppendPayment: %v", err)
	}

	// Remote no longer has "old"; refresh drops it but keeps "local".
	if err := repo.ReplaceSyncedPayments(ctx, "u1", []core.Payment{payment("remote", 200)}); err != nil {
		t.Fatalf("ReplaceSyncedPayments: %v", err)
	}

	got, _ := repo.ListPayments(ctx, "u1")
	ids := map[string]bool{}
	for _, p := range got {
		ids[p.ID] = true
	}
	if len(got) != 2 || !ids["remote"] || !ids["local"] {
		t.Fatalf("payments after refresh = %+v, want remote and local", got)
	}
}

func TestDeleteTombstoneSurvivesUntilConfirmed(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	if err := repo.AppendPayment(ctx, "u1", payment("p1", 100)); err != nil {
		t.Fatalf("AppendPayment: %v", err)
	}
	if err := repo.MarkSynced(ctx, "u1", "p1"); err != nil {
		t.Fatalf("MarkSynced: %v", err)
	}
	if err := repo.DeletePayment(ctx, "u1", "p1"); err != nil {
		t.Fatalf("DeletePayment: %v", err)
	}

	// Gone from every read path, but queued for the remote delete.
	if got, _ := repo.ListPayments(ctx, "u1"); len(got) != 0 {
		t.Fatalf("deleted payment still listed: %+v", got)
	}
	if _, err := repo.GetPayment(ctx, "u1", "p1"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("GetPayment error = %v, want ErrNotFound", err)
	}
	if err := repo.UpdatePayment(ctx, "u1", payment("p1", 500)); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("updating a deleted payment error = %v, want ErrNotFound", err)
	}
	pending, _ := repo.GetPendingPayments(ctx, 10)
	if len(pending) != 1 || !pending[0].Delete || pending[0].Payment.ID != "p1" {
		t.Fatalf("pending = %+v, want one delete for p1", pending)
	}

	// A cache refresh from a remote copy that still carries the row must
	// not resurrect it.
	if err := repo.ReplaceSyncedPayments(ctx, "u1", []core.Payment{payment("p1", 100)}); err != nil {
		t.Fatalf("ReplaceSyncedPayments: %v", err)
	}
	if got, _ := repo.ListPayments(ctx, "u1"); len(got) != 0 {
		t.Fatalf("refresh resurrected the deleted payment: %+v", got)
	}

	if err := repo.ConfirmDelete(ctx, "u1", "p1"); err != nil {
		t.Fatalf("ConfirmDelete: %v", err)
	}
	pending, _ = repo.GetPendingPayments(ctx, 10)
	if len(pending) != 0 {
		t.Fatalf("pending after confirm = %+v, want none", pending)
	}
	// Confirming twice is harmless.
	if err := repo.ConfirmDelete(ctx, "u1", "p1"); err != nil {
		t.Fatalf("second ConfirmDelete: %v", err)
	}
}

func TestExpenseRegistryRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	reg := core.Registry{
		{
			ID: "rent", Name: "Rent", Icon: "🏠", Variant: core.VariantRecurring,
			Amount: core.Money{Cents: 120000}, DueDay: 1,
		},
		{
			ID: "trip", Name: "Trip", Variant: core.VariantGoal,
			Amount: core.Money{Cents: 500000}, DueDate: core.NewDate(2026, time.July, 23),
		},
		{
			ID: "visa", Name: "Visa", Variant: core.VariantCreditCard,
			Amount: core.Money{Cents: 15000}, DueDay: 20,
			CurrentBalance: core.Money{Cents: 80000}, MinPayment: core.Money{Cents: 2500},
			CreditLimit: core.Money{Cents: 500000}, InterestRate: 21.9, BillingCloseDay: 12,
		},
	}
	if err := repo.SaveExpenses(ctx, "u1", reg); err != nil {
		t.Fatalf("SaveExpenses: %v", err)
	}

	got, err := repo.LoadExpenses(ctx, "u1")
	if err != nil {
		t.Fatalf("LoadExpenses: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("loaded %d expenses, want 3", len(got))
	}
	// Position order survives the round trip.
	if got[0].ID != "rent" || got[1].ID != "trip" || got[2].ID != "visa" {
		t.Fatalf("order = %s, %s, %s", got[0].ID, got[1].ID, got[2].ID)
	}
	if !got[1].DueDate.Equal(core.NewDate(2026, time.July, 23)) {
		t.Fatalf("goal due date = %v", got[1].DueDate)
	}
	if got[2].InterestRate != 21.9 || got[2].BillingCloseDay != 12 {
		t.Fatalf("card metadata = %+v", got[2])
	}

	// Wholesale re-persist replaces the previous snapshot.
	if err := repo.SaveExpenses(ctx, "u1", reg[:1]); err != nil {
		t.Fatalf("SaveExpenses: %v", err)
	}
	got, _ = repo.LoadExpenses(ctx, "u1")
	if len(got) != 1 || got[0].ID != "rent" {
		t.Fatalf("registry after re-persist = %+v", got)
	}
}
