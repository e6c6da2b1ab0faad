package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jul1angr1s/AI-Bug-Bountry-App-sub003/internal/domain"
	"github.com/jul1angr1s/AI-Bug-Bountry-App-sub003/internal/store/schema"
)

// PGStore implements CursorStore, PaymentStore and DiscrepancyStore over one
// Postgres database. Every write is a single-row, single-statement update or
// insert; the store never holds a transaction open across chain I/O.
type PGStore struct {
	db *gorm.DB
}

// NewPGStore creates a new Postgres-backed store
func NewPGStore(db *gorm.DB) *PGStore {
	return &PGStore{db: db}
}

// AutoMigrate creates or updates the tables owned by this repository
func (s *PGStore) AutoMigrate() error {
	return s.db.AutoMigrate(
		&schema.EventCursor{},
		&schema.Payment{},
		&schema.PaymentDiscrepancy{},
	)
}

// GetCursor retrieves the last processed block for a contract/event pair
func (s *PGStore) GetCursor(ctx context.Context, contractAddress, eventName string) (uint64, bool, error) {
	var cursor schema.EventCursor
	err := s.db.WithContext(ctx).
		Where("contract_address = ? AND event_name = ?", domain.NormalizeAddress(contractAddress), eventName).
		First(&cursor).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to get event cursor: %w", err)
	}

	return cursor.LastProcessedBlock, true, nil
}

// UpsertCursor stores the last processed block for a contract/event pair.
// GREATEST keeps the cursor monotonic even if a stale writer races.
func (s *PGStore) UpsertCursor(ctx context.Context, contractAddress, eventName string, blockNumber uint64) error {
	cursor := schema.EventCursor{
		ContractAddress:    domain.NormalizeAddress(contractAddress),
		EventName:          eventName,
		LastProcessedBlock: blockNumber,
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "contract_address"}, {Name: "event_name"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"last_processed_block": gorm.Expr("GREATEST(event_cursors.last_processed_block, ?)", blockNumber),
			"updated_at":           gorm.Expr("NOW()"),
		}),
	}).Create(&cursor).Error
	if err != nil {
		return fmt.Errorf("failed to upsert event cursor: %w", err)
	}

	return nil
}

// FindCompletedSince returns COMPLETED payments with paid_at >= since
func (s *PGStore) FindCompletedSince(ctx context.Context, since time.Time) ([]schema.Payment, error) {
	var payments []schema.Payment
	err := s.db.WithContext(ctx).
		Where("status = ? AND paid_at >= ?", domain.PaymentStatusCompleted, since).
		Order("paid_at ASC").
		Find(&payments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find completed payments: %w", err)
	}

	return payments, nil
}

// UpdateTxHashAndReconciled fills the settlement hash and marks the payment reconciled
func (s *PGStore) UpdateTxHashAndReconciled(ctx context.Context, paymentID, txHash string, reconciledAt time.Time) error {
	err := s.db.WithContext(ctx).
		Model(&schema.Payment{}).
		Where("id = ?", paymentID).
		Updates(map[string]interface{}{
			"tx_hash":       txHash,
			"reconciled":    true,
			"reconciled_at": reconciledAt,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to update payment tx hash: %w", err)
	}

	return nil
}

// MarkReconciled marks an already-consistent payment as reconciled
func (s *PGStore) MarkReconciled(ctx context.Context, paymentID string, reconciledAt time.Time) error {
	err := s.db.WithContext(ctx).
		Model(&schema.Payment{}).
		Where("id = ?", paymentID).
		Updates(map[string]interface{}{
			"reconciled":    true,
			"reconciled_at": reconciledAt,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to mark payment reconciled: %w", err)
	}

	return nil
}

// CountPayments counts payments, optionally restricted to created_at >= since
func (s *PGStore) CountPayments(ctx context.Context, since *time.Time) (int64, error) {
	query := s.db.WithContext(ctx).Model(&schema.Payment{})
	if since != nil {
		query = query.Where("created_at >= ?", *since)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count payments: %w", err)
	}

	return count, nil
}

// CountReconciledPayments counts reconciled payments, optionally restricted
// to created_at >= since
func (s *PGStore) CountReconciledPayments(ctx context.Context, since *time.Time) (int64, error) {
	query := s.db.WithContext(ctx).Model(&schema.Payment{}).Where("reconciled = ?", true)
	if since != nil {
		query = query.Where("created_at >= ?", *since)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count reconciled payments: %w", err)
	}

	return count, nil
}

// CountPaymentsByStatus counts payments in the given status, optionally
// restricted to created_at >= since
func (s *PGStore) CountPaymentsByStatus(ctx context.Context, status domain.PaymentStatus, since *time.Time) (int64, error) {
	query := s.db.WithContext(ctx).Model(&schema.Payment{}).Where("status = ?", status)
	if since != nil {
		query = query.Where("created_at >= ?", *since)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count payments by status: %w", err)
	}

	return count, nil
}

// LastReconciledAt returns the most recent reconciled_at, nil when no payment
// has been reconciled yet
func (s *PGStore) LastReconciledAt(ctx context.Context) (*time.Time, error) {
	var payment schema.Payment
	err := s.db.WithContext(ctx).
		Where("reconciled_at IS NOT NULL").
		Order("reconciled_at DESC").
		First(&payment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get last reconciled time: %w", err)
	}

	return payment.ReconciledAt, nil
}

// FindUnresolvedByKey returns the unresolved discrepancy for a
// (paymentID, validationID) pair, nil when none exists
func (s *PGStore) FindUnresolvedByKey(ctx context.Context, paymentID *string, validationID string) (*schema.PaymentDiscrepancy, error) {
	query := s.db.WithContext(ctx).
		Where("validation_id = ? AND status <> ?", validationID, domain.DiscrepancyResolved)
	if paymentID != nil {
		query = query.Where("payment_id = ?", *paymentID)
	} else {
		query = query.Where("payment_id IS NULL")
	}

	var d schema.PaymentDiscrepancy
	err := query.First(&d).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find unresolved discrepancy: %w", err)
	}

	return &d, nil
}

// Create inserts a new discrepancy row
func (s *PGStore) Create(ctx context.Context, d *schema.PaymentDiscrepancy) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}

	if err := s.db.WithContext(ctx).Create(d).Error; err != nil {
		return fmt.Errorf("failed to create discrepancy: %w", err)
	}

	return nil
}

// GetByID returns a discrepancy by id, nil when absent
func (s *PGStore) GetByID(ctx context.Context, id string) (*schema.PaymentDiscrepancy, error) {
	var d schema.PaymentDiscrepancy
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&d).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get discrepancy: %w", err)
	}

	return &d, nil
}

// Update applies the given column updates to a discrepancy row
func (s *PGStore) Update(ctx context.Context, id string, fields map[string]interface{}) error {
	err := s.db.WithContext(ctx).
		Model(&schema.PaymentDiscrepancy{}).
		Where("id = ?", id).
		Updates(fields).Error
	if err != nil {
		return fmt.Errorf("failed to update discrepancy: %w", err)
	}

	return nil
}

// CountUnresolved counts discrepancies whose status is not RESOLVED
func (s *PGStore) CountUnresolved(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&schema.PaymentDiscrepancy{}).
		Where("status <> ?", domain.DiscrepancyResolved).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count unresolved discrepancies: %w", err)
	}

	return count, nil
}

// List returns discrepancies filtered by status (nil = all unresolved),
// ordered descending by the given sort key
func (s *PGStore) List(ctx context.Context, status *domain.DiscrepancyStatus, sortBy domain.DiscrepancySort) ([]schema.PaymentDiscrepancy, error) {
	query := s.db.WithContext(ctx).Model(&schema.PaymentDiscrepancy{})
	if status != nil {
		query = query.Where("status = ?", *status)
	} else {
		query = query.Where("status <> ?", domain.DiscrepancyResolved)
	}

	column := "discovered_at"
	if sortBy == domain.DiscrepancySortByAmount {
		column = "amount"
	}

	var discrepancies []schema.PaymentDiscrepancy
	if err := query.Order(column + " DESC").Find(&discrepancies).Error; err != nil {
		return nil, fmt.Errorf("failed to list discrepancies: %w", err)
	}

	return discrepancies, nil
}

// GroupCountByStatus returns unresolved discrepancy counts keyed by status
func (s *PGStore) GroupCountByStatus(ctx context.Context) (map[domain.DiscrepancyStatus]int64, error) {
	type row struct {
		Status domain.DiscrepancyStatus
		Count  int64
	}

	var rows []row
	err := s.db.WithContext(ctx).
		Model(&schema.PaymentDiscrepancy{}).
		Select("status, COUNT(*) AS count").
		Where("status <> ?", domain.DiscrepancyResolved).
		Group("status").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to group discrepancies by status: %w", err)
	}

	counts := make(map[domain.DiscrepancyStatus]int64, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Count
	}

	return counts, nil
}
