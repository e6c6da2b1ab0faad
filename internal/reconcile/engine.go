// Package reconcile audits on-chain settlement events against the payments
// ledger. Each pass derives its own block window from the current chain
// height, so it finds and heals gaps even if the live listener was down.
package reconcile

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/jul1angr1s/AI-Bug-Bountry-App-sub003/internal/adapter"
	"github.com/jul1angr1s/AI-Bug-Bountry-App-sub003/internal/chain"
	"github.com/jul1angr1s/AI-Bug-Bountry-App-sub003/internal/domain"
	"github.com/jul1angr1s/AI-Bug-Bountry-App-sub003/internal/logger"
	"github.com/jul1angr1s/AI-Bug-Bountry-App-sub003/internal/metrics"
	"github.com/jul1angr1s/AI-Bug-Bountry-App-sub003/internal/store"
	"github.com/jul1angr1s/AI-Bug-Bountry-App-sub003/internal/store/schema"
)

// Config holds the configuration for the reconciliation engine
type Config struct {
	// Window is the trailing audit window over the payments ledger
	Window time.Duration
	// BlocksPerWindow approximates the window in blocks. Coarse is fine:
	// the query end is always the current height.
	BlocksPerWindow uint64
	// AmountTolerance is the comparison epsilon in human units; amounts are
	// never compared exactly because scaling may round
	AmountTolerance decimal.Decimal
	// AlertThreshold is the unresolved discrepancy count above which a
	// high-severity alert is emitted
	AlertThreshold int64
}

// Report summarizes ledger reconciliation state
type Report struct {
	TotalPayments             int64
	ReconciledCount           int64
	PendingCount              int64
	DiscrepancyCount          int64
	LastReconciliationAt      *time.Time
	ReconciliationRatePercent float64
	DiscrepancyCountsByStatus map[domain.DiscrepancyStatus]int64
}

// Engine defines the reconciliation engine interface
//
//go:generate mockgen -source=engine.go -destination=../mocks/engine.go -package=mocks -mock_names=Engine=MockEngine
type Engine interface {
	// RunPass runs one idempotent audit pass. Per-item failures are logged
	// and skipped; bulk query failures fail the pass.
	RunPass(ctx context.Context) error
	// GetReport summarizes reconciliation state, optionally restricted to
	// payments created at or after since
	GetReport(ctx context.Context, since *time.Time) (*Report, error)
	// ListDiscrepancies returns discrepancies filtered by status (nil = all
	// unresolved), ordered descending by the given sort key
	ListDiscrepancies(ctx context.Context, status *domain.DiscrepancyStatus, sortBy domain.DiscrepancySort) ([]schema.PaymentDiscrepancy, error)
	// ResolveDiscrepancy marks a discrepancy RESOLVED. Returns
	// domain.ErrDiscrepancyNotFound or domain.ErrAlreadyResolved.
	ResolveDiscrepancy(ctx context.Context, id string, notes *string) error
}

type engine struct {
	reader        chain.Reader
	payments      store.PaymentStore
	discrepancies store.DiscrepancyStore
	clock         adapter.Clock
	config        Config

	mu         sync.Mutex
	lastPassAt *time.Time
}

// NewEngine creates a new reconciliation engine
func NewEngine(
	reader chain.Reader,
	payments store.PaymentStore,
	discrepancies store.DiscrepancyStore,
	clock adapter.Clock,
	cfg Config,
) Engine {
	return &engine{
		reader:        reader,
		payments:      payments,
		discrepancies: discrepancies,
		clock:         clock,
		config:        cfg,
	}
}

// RunPass runs one idempotent audit pass
func (e *engine) RunPass(ctx context.Context) error {
	startTime := e.clock.Now()
	windowStart := startTime.Add(-e.config.Window)

	head, err := e.reader.CurrentHeight(ctx)
	if err != nil {
		metrics.ReconcilePasses.WithLabelValues("error").Inc()
		return fmt.Errorf("failed to get chain height: %w", err)
	}

	fromBlock := uint64(0)
	if head > e.config.BlocksPerWindow {
		fromBlock = head - e.config.BlocksPerWindow
	}

	events, err := e.reader.QueryEvents(ctx, domain.EventBountyPaid, fromBlock, head)
	if err != nil {
		metrics.ReconcilePasses.WithLabelValues("error").Inc()
		return fmt.Errorf("failed to query settlement events: %w", err)
	}

	payments, err := e.payments.FindCompletedSince(ctx, windowStart)
	if err != nil {
		metrics.ReconcilePasses.WithLabelValues("error").Inc()
		return fmt.Errorf("failed to query completed payments: %w", err)
	}

	logger.InfoCtx(ctx, "reconciliation pass started",
		zap.Uint64("from_block", fromBlock),
		zap.Uint64("to_block", head),
		zap.Int("events", len(events)),
		zap.Int("payments", len(payments)))

	eventsByKey := make(map[string]*domain.SettlementEvent, len(events))
	for i := range events {
		eventsByKey[events[i].ValidationID] = &events[i]
	}

	// Only ledger rows that carry a validation id participate in matching
	paymentsByKey := make(map[string]*schema.Payment)
	for i := range payments {
		if payments[i].OnChainValidationID != nil {
			paymentsByKey[*payments[i].OnChainValidationID] = &payments[i]
		}
	}

	for key, event := range eventsByKey {
		payment, ok := paymentsByKey[key]
		if !ok {
			e.createIfAbsent(ctx, nil, key, domain.DiscrepancyMissingPayment, event.TxHash, event.Amount, nil)
			continue
		}

		e.matchPair(ctx, event, payment)
	}

	for key, payment := range paymentsByKey {
		if _, ok := eventsByKey[key]; ok {
			continue
		}

		txHash := ""
		if payment.TxHash != nil {
			txHash = *payment.TxHash
		}
		e.createIfAbsent(ctx, &payment.ID, key, domain.DiscrepancyUnconfirmedPayment, txHash, payment.Amount, nil)
	}

	e.checkThreshold(ctx)

	finishedAt := e.clock.Now()
	e.mu.Lock()
	e.lastPassAt = &finishedAt
	e.mu.Unlock()

	metrics.ReconcilePasses.WithLabelValues("ok").Inc()
	logger.InfoCtx(ctx, "reconciliation pass completed",
		zap.Duration("duration", e.clock.Since(startTime)))

	return nil
}

// matchPair validates one (event, payment) pair and either heals the ledger
// row, records a discrepancy, or marks the payment reconciled
func (e *engine) matchPair(ctx context.Context, event *domain.SettlementEvent, payment *schema.Payment) {
	amountDiff := payment.Amount.Sub(event.Amount).Abs()

	// Auto-heal: the payout went through but the ledger never learned the
	// tx hash. Fill it in directly, no discrepancy.
	if payment.TxHash == nil &&
		domain.SameAddress(payment.ResearcherAddress, event.Researcher) &&
		amountDiff.LessThan(e.config.AmountTolerance) {
		if err := e.payments.UpdateTxHashAndReconciled(ctx, payment.ID, event.TxHash, e.clock.Now()); err != nil {
			logger.ErrorCtx(ctx, fmt.Errorf("failed to heal payment: %w", err),
				zap.String("payment_id", payment.ID),
				zap.String("tx_hash", event.TxHash))
			return
		}

		metrics.PaymentsHealed.Inc()
		logger.InfoCtx(ctx, "payment healed with chain tx hash",
			zap.String("payment_id", payment.ID),
			zap.String("validation_id", event.ValidationID),
			zap.String("tx_hash", event.TxHash))
		return
	}

	if amountDiff.GreaterThanOrEqual(e.config.AmountTolerance) {
		notes := fmt.Sprintf("ledger amount %s, chain amount %s", payment.Amount, event.Amount)
		e.createIfAbsent(ctx, &payment.ID, event.ValidationID, domain.DiscrepancyAmountMismatch, event.TxHash, event.Amount, &notes)
		return
	}

	if payment.TxHash != nil && !strings.EqualFold(*payment.TxHash, event.TxHash) {
		notes := fmt.Sprintf("ledger tx %s, chain tx %s", *payment.TxHash, event.TxHash)
		e.createIfAbsent(ctx, &payment.ID, event.ValidationID, domain.DiscrepancyHashMismatch, event.TxHash, event.Amount, &notes)
		return
	}

	if !payment.Reconciled {
		if err := e.payments.MarkReconciled(ctx, payment.ID, e.clock.Now()); err != nil {
			logger.ErrorCtx(ctx, fmt.Errorf("failed to mark payment reconciled: %w", err),
				zap.String("payment_id", payment.ID))
		}
	}
}

// createIfAbsent records a discrepancy unless an unresolved one already
// exists for the same (paymentID, validationID) pair. This check is what
// makes re-running a pass idempotent.
func (e *engine) createIfAbsent(
	ctx context.Context,
	paymentID *string,
	validationID string,
	status domain.DiscrepancyStatus,
	txHash string,
	amount decimal.Decimal,
	notes *string,
) {
	existing, err := e.discrepancies.FindUnresolvedByKey(ctx, paymentID, validationID)
	if err != nil {
		logger.ErrorCtx(ctx, fmt.Errorf("failed to check for existing discrepancy: %w", err),
			zap.String("validation_id", validationID))
		return
	}
	if existing != nil {
		return
	}

	d := &schema.PaymentDiscrepancy{
		PaymentID:    paymentID,
		ValidationID: validationID,
		TxHash:       txHash,
		Amount:       amount,
		Status:       status,
		DiscoveredAt: e.clock.Now(),
		Notes:        notes,
	}
	if err := e.discrepancies.Create(ctx, d); err != nil {
		logger.ErrorCtx(ctx, fmt.Errorf("failed to create discrepancy: %w", err),
			zap.String("validation_id", validationID),
			zap.String("status", string(status)))
		return
	}

	metrics.DiscrepanciesCreated.WithLabelValues(string(status)).Inc()
	logger.WarnCtx(ctx, "discrepancy recorded",
		zap.String("id", d.ID),
		zap.String("validation_id", validationID),
		zap.String("status", string(status)),
		zap.String("amount", amount.String()))
}

// checkThreshold counts unresolved discrepancies and emits a high-severity
// alert when the count is strictly above the configured threshold
func (e *engine) checkThreshold(ctx context.Context) {
	count, err := e.discrepancies.CountUnresolved(ctx)
	if err != nil {
		logger.ErrorCtx(ctx, fmt.Errorf("failed to count unresolved discrepancies: %w", err))
		return
	}

	metrics.UnresolvedDiscrepancies.Set(float64(count))

	if count > e.config.AlertThreshold {
		alertID := ulid.MustNew(ulid.Timestamp(e.clock.Now()), ulid.DefaultEntropy()).String()
		metrics.ThresholdAlerts.Inc()
		logger.ErrorCtx(ctx, fmt.Errorf("unresolved discrepancy count %d exceeds threshold %d", count, e.config.AlertThreshold),
			zap.String("alert_id", alertID),
			zap.Int64("count", count),
			zap.Int64("threshold", e.config.AlertThreshold))
	}
}

// GetReport summarizes reconciliation state
func (e *engine) GetReport(ctx context.Context, since *time.Time) (*Report, error) {
	total, err := e.payments.CountPayments(ctx, since)
	if err != nil {
		return nil, err
	}

	reconciled, err := e.payments.CountReconciledPayments(ctx, since)
	if err != nil {
		return nil, err
	}

	pending, err := e.payments.CountPaymentsByStatus(ctx, domain.PaymentStatusPending, since)
	if err != nil {
		return nil, err
	}

	unresolved, err := e.discrepancies.CountUnresolved(ctx)
	if err != nil {
		return nil, err
	}

	byStatus, err := e.discrepancies.GroupCountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	lastPass := e.lastPassAt
	e.mu.Unlock()
	if lastPass == nil {
		lastPass, err = e.payments.LastReconciledAt(ctx)
		if err != nil {
			return nil, err
		}
	}

	rate := 0.0
	if total > 0 {
		rate = float64(reconciled) / float64(total) * 100
	}

	return &Report{
		TotalPayments:             total,
		ReconciledCount:           reconciled,
		PendingCount:              pending,
		DiscrepancyCount:          unresolved,
		LastReconciliationAt:      lastPass,
		ReconciliationRatePercent: rate,
		DiscrepancyCountsByStatus: byStatus,
	}, nil
}

// ListDiscrepancies returns discrepancies filtered by status
func (e *engine) ListDiscrepancies(ctx context.Context, status *domain.DiscrepancyStatus, sortBy domain.DiscrepancySort) ([]schema.PaymentDiscrepancy, error) {
	if status != nil && !domain.IsValidDiscrepancyStatus(*status) {
		return nil, fmt.Errorf("invalid discrepancy status: %s", *status)
	}

	return e.discrepancies.List(ctx, status, sortBy)
}

// ResolveDiscrepancy marks a discrepancy RESOLVED
func (e *engine) ResolveDiscrepancy(ctx context.Context, id string, notes *string) error {
	d, err := e.discrepancies.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if d == nil {
		return fmt.Errorf("%w: %s", domain.ErrDiscrepancyNotFound, id)
	}
	if d.Status == domain.DiscrepancyResolved {
		return fmt.Errorf("%w: %s", domain.ErrAlreadyResolved, id)
	}

	fields := map[string]interface{}{
		"status":      domain.DiscrepancyResolved,
		"resolved_at": e.clock.Now(),
	}
	// Existing notes stand when none are supplied
	if notes != nil {
		fields["notes"] = *notes
	}

	if err := e.discrepancies.Update(ctx, id, fields); err != nil {
		return err
	}

	logger.InfoCtx(ctx, "discrepancy resolved", zap.String("id", id))
	return nil
}
