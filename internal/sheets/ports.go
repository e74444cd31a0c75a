package sheets

import (
	"context"

	"billtrack/internal/core"
)

// Ports for outbound payment-store adapters. The remote spreadsheet, the
// SQLite cache and the in-memory backend all speak this contract.
type (
	PaymentLister interface {
		// ListPayments returns every payment in the user's tab, header
		// excluded. An empty userID addresses the shared default tab.
		ListPayments(ctx context.Context, userID string) ([]core.Payment, error)
	}

	PaymentWriter interface {
		AppendPayment(ctx context.Context, userID string, p core.Payment) error
		UpdatePayment(ctx context.Context, userID string, p core.Payment) error
		DeletePayment(ctx context.Context, userID, paymentID string) error
	}

	PaymentStore interface {
		PaymentLister
		PaymentWriter
	}
)
