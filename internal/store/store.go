package store

import (
	"context"
	"time"

	"github.com/jul1angr1s/AI-Bug-Bountry-App-sub003/internal/domain"
	"github.com/jul1angr1s/AI-Bug-Bountry-App-sub003/internal/store/schema"
)

// CursorStore persists per contract/event replay progress
//
//go:generate mockgen -source=store.go -destination=../mocks/store.go -package=mocks -mock_names=CursorStore=MockCursorStore,PaymentStore=MockPaymentStore,DiscrepancyStore=MockDiscrepancyStore
type CursorStore interface {
	// GetCursor retrieves the last processed block for a contract/event
	// pair. The second return is false when no cursor exists yet.
	GetCursor(ctx context.Context, contractAddress, eventName string) (uint64, bool, error)
	// UpsertCursor stores the last processed block for a contract/event
	// pair. The stored value never moves backwards.
	UpsertCursor(ctx context.Context, contractAddress, eventName string, blockNumber uint64) error
}

// PaymentStore is the engine's read/write contract against the payments
// ledger. The engine never creates payments.
type PaymentStore interface {
	// FindCompletedSince returns COMPLETED payments with paid_at >= since
	FindCompletedSince(ctx context.Context, since time.Time) ([]schema.Payment, error)
	// UpdateTxHashAndReconciled fills the settlement hash and marks the
	// payment reconciled (the auto-heal write)
	UpdateTxHashAndReconciled(ctx context.Context, paymentID, txHash string, reconciledAt time.Time) error
	// MarkReconciled marks an already-consistent payment as reconciled
	MarkReconciled(ctx context.Context, paymentID string, reconciledAt time.Time) error
	// CountPayments counts payments, optionally restricted to
	// created_at >= since
	CountPayments(ctx context.Context, since *time.Time) (int64, error)
	// CountReconciledPayments counts reconciled payments, optionally
	// restricted to created_at >= since
	CountReconciledPayments(ctx context.Context, since *time.Time) (int64, error)
	// CountPaymentsByStatus counts payments in the given status, optionally
	// restricted to created_at >= since
	CountPaymentsByStatus(ctx context.Context, status domain.PaymentStatus, since *time.Time) (int64, error)
	// LastReconciledAt returns the most recent reconciled_at, nil when no
	// payment has been reconciled yet
	LastReconciledAt(ctx context.Context) (*time.Time, error)
}

// DiscrepancyStore persists divergence findings
type DiscrepancyStore interface {
	// FindUnresolvedByKey returns the unresolved discrepancy for a
	// (paymentID, validationID) pair, nil when none exists. A nil paymentID
	// matches rows with no associated payment.
	FindUnresolvedByKey(ctx context.Context, paymentID *string, validationID string) (*schema.PaymentDiscrepancy, error)
	// Create inserts a new discrepancy row
	Create(ctx context.Context, d *schema.PaymentDiscrepancy) error
	// GetByID returns a discrepancy by id, nil when absent
	GetByID(ctx context.Context, id string) (*schema.PaymentDiscrepancy, error)
	// Update applies the given column updates to a discrepancy row
	Update(ctx context.Context, id string, fields map[string]interface{}) error
	// CountUnresolved counts discrepancies whose status is not RESOLVED
	CountUnresolved(ctx context.Context) (int64, error)
	// List returns discrepancies filtered by status (nil = all unresolved),
	// ordered descending by the given sort key
	List(ctx context.Context, status *domain.DiscrepancyStatus, sortBy domain.DiscrepancySort) ([]schema.PaymentDiscrepancy, error)
	// GroupCountByStatus returns unresolved discrepancy counts keyed by status
	GroupCountByStatus(ctx context.Context) (map[domain.DiscrepancyStatus]int64, error)
}
