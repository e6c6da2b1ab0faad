package reconcile_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jul1angr1s/AI-Bug-Bountry-App-sub003/internal/domain"
	"github.com/jul1angr1s/AI-Bug-Bountry-App-sub003/internal/logger"
	"github.com/jul1angr1s/AI-Bug-Bountry-App-sub003/internal/metrics"
	"github.com/jul1angr1s/AI-Bug-Bountry-App-sub003/internal/mocks"
	"github.com/jul1angr1s/AI-Bug-Bountry-App-sub003/internal/reconcile"
	"github.com/jul1angr1s/AI-Bug-Bountry-App-sub003/internal/store/schema"
)

var passTime = time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)

func TestMain(m *testing.M) {
	// Initialize logger for tests
	err := logger.Initialize(logger.Config{
		Debug: false,
	})
	if err != nil {
		panic(err)
	}

	code := m.Run()
	os.Exit(code)
}

type testEngineMocks struct {
	ctrl          *gomock.Controller
	reader        *mocks.MockReader
	payments      *mocks.MockPaymentStore
	discrepancies *mocks.MockDiscrepancyStore
	clock         *mocks.MockClock
	engine        reconcile.Engine
}

func setupTestEngine(t *testing.T) *testEngineMocks {
	ctrl := gomock.NewController(t)

	tm := &testEngineMocks{
		ctrl:          ctrl,
		reader:        mocks.NewMockReader(ctrl),
		payments:      mocks.NewMockPaymentStore(ctrl),
		discrepancies: mocks.NewMockDiscrepancyStore(ctrl),
		clock:         mocks.NewMockClock(ctrl),
	}

	tm.clock.EXPECT().Now().Return(passTime).AnyTimes()
	tm.clock.EXPECT().Since(gomock.Any()).Return(time.Second).AnyTimes()

	tm.engine = reconcile.NewEngine(
		tm.reader,
		tm.payments,
		tm.discrepancies,
		tm.clock,
		reconcile.Config{
			Window:          24 * time.Hour,
			BlocksPerWindow: 5000,
			AmountTolerance: decimal.RequireFromString("0.000001"),
			AlertThreshold:  10,
		},
	)

	return tm
}

// expectChainWindow wires the bulk queries every pass begins with
func (tm *testEngineMocks) expectChainWindow(events []domain.SettlementEvent, payments []schema.Payment) {
	tm.reader.EXPECT().CurrentHeight(gomock.Any()).Return(uint64(10000), nil)
	tm.reader.
		EXPECT().
		QueryEvents(gomock.Any(), domain.EventBountyPaid, uint64(5000), uint64(10000)).
		Return(events, nil)
	tm.payments.
		EXPECT().
		FindCompletedSince(gomock.Any(), passTime.Add(-24*time.Hour)).
		Return(payments, nil)
}

func strPtr(s string) *string {
	return &s
}

func settlementEvent(validationID, researcher, txHash, amount string) domain.SettlementEvent {
	return domain.SettlementEvent{
		Event:        domain.EventBountyPaid,
		ValidationID: validationID,
		Researcher:   researcher,
		Amount:       decimal.RequireFromString(amount),
		TxHash:       txHash,
		BlockNumber:  9900,
	}
}

func TestEngine_RunPass_AutoHealsMissingTxHash(t *testing.T) {
	tm := setupTestEngine(t)
	defer tm.ctrl.Finish()

	event := settlementEvent("0xv1", "0x70997970C51812dc3A010C7d01b50e0d17dc79C8", "0xabc", "1.5")
	payment := schema.Payment{
		ID:                  "pay-1",
		OnChainValidationID: strPtr("0xv1"),
		Amount:              decimal.RequireFromString("1.5"),
		TxHash:              nil,
		Status:              domain.PaymentStatusCompleted,
		// Checksum casing differs from the decoded event; the match is
		// case-insensitive
		ResearcherAddress: "0x70997970c51812dc3a010c7d01b50e0d17dc79c8",
	}

	tm.expectChainWindow([]domain.SettlementEvent{event}, []schema.Payment{payment})
	tm.payments.
		EXPECT().
		UpdateTxHashAndReconciled(gomock.Any(), "pay-1", "0xabc", passTime).
		Return(nil)
	tm.discrepancies.EXPECT().CountUnresolved(gomock.Any()).Return(int64(0), nil)

	err := tm.engine.RunPass(context.Background())

	assert.NoError(t, err)
}

func TestEngine_RunPass_CreatesMissingPaymentDiscrepancy(t *testing.T) {
	tm := setupTestEngine(t)
	defer tm.ctrl.Finish()

	event := settlementEvent("0xv1", "0x70997970C51812dc3A010C7d01b50e0d17dc79C8", "0xabc", "1.5")

	tm.expectChainWindow([]domain.SettlementEvent{event}, nil)
	tm.discrepancies.
		EXPECT().
		FindUnresolvedByKey(gomock.Any(), gomock.Nil(), "0xv1").
		Return(nil, nil)
	tm.discrepancies.
		EXPECT().
		Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, d *schema.PaymentDiscrepancy) error {
			assert.Nil(t, d.PaymentID)
			assert.Equal(t, "0xv1", d.ValidationID)
			assert.Equal(t, "0xabc", d.TxHash)
			assert.Equal(t, domain.DiscrepancyMissingPayment, d.Status)
			assert.True(t, d.Amount.Equal(decimal.RequireFromString("1.5")))
			assert.Equal(t, passTime, d.DiscoveredAt)
			assert.Nil(t, d.Notes)
			return nil
		})
	tm.discrepancies.EXPECT().CountUnresolved(gomock.Any()).Return(int64(1), nil)

	err := tm.engine.RunPass(context.Background())

	assert.NoError(t, err)
}

func TestEngine_RunPass_SkipsExistingUnresolvedDiscrepancy(t *testing.T) {
	tm := setupTestEngine(t)
	defer tm.ctrl.Finish()

	event := settlementEvent("0xv1", "0x70997970C51812dc3A010C7d01b50e0d17dc79C8", "0xabc", "1.5")

	tm.expectChainWindow([]domain.SettlementEvent{event}, nil)
	// A second pass over the same gap finds the open finding and stays quiet
	tm.discrepancies.
		EXPECT().
		FindUnresolvedByKey(gomock.Any(), gomock.Nil(), "0xv1").
		Return(&schema.PaymentDiscrepancy{
			ID:           "disc-1",
			ValidationID: "0xv1",
			Status:       domain.DiscrepancyMissingPayment,
		}, nil)
	tm.discrepancies.EXPECT().CountUnresolved(gomock.Any()).Return(int64(1), nil)

	err := tm.engine.RunPass(context.Background())

	assert.NoError(t, err)
}

func TestEngine_RunPass_AmountMismatch(t *testing.T) {
	tm := setupTestEngine(t)
	defer tm.ctrl.Finish()

	event := settlementEvent("0xv1", "0x70997970C51812dc3A010C7d01b50e0d17dc79C8", "0xabc", "1.5")
	payment := schema.Payment{
		ID:                  "pay-1",
		OnChainValidationID: strPtr("0xv1"),
		Amount:              decimal.RequireFromString("2.5"),
		TxHash:              strPtr("0xabc"),
		Status:              domain.PaymentStatusCompleted,
		ResearcherAddress:   "0x70997970C51812dc3A010C7d01b50e0d17dc79C8",
	}

	tm.expectChainWindow([]domain.SettlementEvent{event}, []schema.Payment{payment})
	tm.discrepancies.
		EXPECT().
		FindUnresolvedByKey(gomock.Any(), gomock.Any(), "0xv1").
		DoAndReturn(func(_ context.Context, paymentID *string, _ string) (*schema.PaymentDiscrepancy, error) {
			require.NotNil(t, paymentID)
			assert.Equal(t, "pay-1", *paymentID)
			return nil, nil
		})
	tm.discrepancies.
		EXPECT().
		Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, d *schema.PaymentDiscrepancy) error {
			assert.Equal(t, domain.DiscrepancyAmountMismatch, d.Status)
			require.NotNil(t, d.Notes)
			assert.Equal(t, "ledger amount 2.5, chain amount 1.5", *d.Notes)
			return nil
		})
	tm.discrepancies.EXPECT().CountUnresolved(gomock.Any()).Return(int64(1), nil)

	err := tm.engine.RunPass(context.Background())

	assert.NoError(t, err)
}

func TestEngine_RunPass_TxHashMismatch(t *testing.T) {
	tm := setupTestEngine(t)
	defer tm.ctrl.Finish()

	event := settlementEvent("0xv1", "0x70997970C51812dc3A010C7d01b50e0d17dc79C8", "0xdd", "1.5")
	payment := schema.Payment{
		ID:                  "pay-1",
		OnChainValidationID: strPtr("0xv1"),
		Amount:              decimal.RequireFromString("1.5"),
		TxHash:              strPtr("0xff"),
		Status:              domain.PaymentStatusCompleted,
		ResearcherAddress:   "0x70997970C51812dc3A010C7d01b50e0d17dc79C8",
	}

	tm.expectChainWindow([]domain.SettlementEvent{event}, []schema.Payment{payment})
	tm.discrepancies.
		EXPECT().
		FindUnresolvedByKey(gomock.Any(), gomock.Any(), "0xv1").
		Return(nil, nil)
	tm.discrepancies.
		EXPECT().
		Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, d *schema.PaymentDiscrepancy) error {
			assert.Equal(t, domain.DiscrepancyHashMismatch, d.Status)
			require.NotNil(t, d.Notes)
			assert.Equal(t, "ledger tx 0xff, chain tx 0xdd", *d.Notes)
			return nil
		})
	tm.discrepancies.EXPECT().CountUnresolved(gomock.Any()).Return(int64(1), nil)

	err := tm.engine.RunPass(context.Background())

	assert.NoError(t, err)
}

func TestEngine_RunPass_MarksMatchedPaymentReconciled(t *testing.T) {
	tm := setupTestEngine(t)
	defer tm.ctrl.Finish()

	event := settlementEvent("0xv1", "0x70997970C51812dc3A010C7d01b50e0d17dc79C8", "0xabc", "1.5")
	payment := schema.Payment{
		ID:                  "pay-1",
		OnChainValidationID: strPtr("0xv1"),
		Amount:              decimal.RequireFromString("1.5"),
		// Hash casing differs but the comparison ignores case
		TxHash:            strPtr("0xABC"),
		Status:            domain.PaymentStatusCompleted,
		ResearcherAddress: "0x70997970C51812dc3A010C7d01b50e0d17dc79C8",
	}

	tm.expectChainWindow([]domain.SettlementEvent{event}, []schema.Payment{payment})
	tm.payments.EXPECT().MarkReconciled(gomock.Any(), "pay-1", passTime).Return(nil)
	tm.discrepancies.EXPECT().CountUnresolved(gomock.Any()).Return(int64(0), nil)

	err := tm.engine.RunPass(context.Background())

	assert.NoError(t, err)
}

func TestEngine_RunPass_AlreadyReconciledIsUntouched(t *testing.T) {
	tm := setupTestEngine(t)
	defer tm.ctrl.Finish()

	event := settlementEvent("0xv1", "0x70997970C51812dc3A010C7d01b50e0d17dc79C8", "0xabc", "1.5")
	payment := schema.Payment{
		ID:                  "pay-1",
		OnChainValidationID: strPtr("0xv1"),
		Amount:              decimal.RequireFromString("1.5"),
		TxHash:              strPtr("0xabc"),
		Status:              domain.PaymentStatusCompleted,
		ResearcherAddress:   "0x70997970C51812dc3A010C7d01b50e0d17dc79C8",
		Reconciled:          true,
	}

	tm.expectChainWindow([]domain.SettlementEvent{event}, []schema.Payment{payment})
	tm.discrepancies.EXPECT().CountUnresolved(gomock.Any()).Return(int64(0), nil)

	err := tm.engine.RunPass(context.Background())

	assert.NoError(t, err)
}

func TestEngine_RunPass_UnconfirmedPayment(t *testing.T) {
	tm := setupTestEngine(t)
	defer tm.ctrl.Finish()

	payment := schema.Payment{
		ID:                  "pay-1",
		OnChainValidationID: strPtr("0xv1"),
		Amount:              decimal.RequireFromString("3.25"),
		TxHash:              strPtr("0xabc"),
		Status:              domain.PaymentStatusCompleted,
		ResearcherAddress:   "0x70997970C51812dc3A010C7d01b50e0d17dc79C8",
	}

	tm.expectChainWindow(nil, []schema.Payment{payment})
	tm.discrepancies.
		EXPECT().
		FindUnresolvedByKey(gomock.Any(), gomock.Any(), "0xv1").
		Return(nil, nil)
	tm.discrepancies.
		EXPECT().
		Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, d *schema.PaymentDiscrepancy) error {
			require.NotNil(t, d.PaymentID)
			assert.Equal(t, "pay-1", *d.PaymentID)
			assert.Equal(t, domain.DiscrepancyUnconfirmedPayment, d.Status)
			assert.Equal(t, "0xabc", d.TxHash)
			assert.True(t, d.Amount.Equal(decimal.RequireFromString("3.25")))
			return nil
		})
	tm.discrepancies.EXPECT().CountUnresolved(gomock.Any()).Return(int64(1), nil)

	err := tm.engine.RunPass(context.Background())

	assert.NoError(t, err)
}

func TestEngine_RunPass_IgnoresPaymentsWithoutValidationID(t *testing.T) {
	tm := setupTestEngine(t)
	defer tm.ctrl.Finish()

	payment := schema.Payment{
		ID:                "pay-1",
		Amount:            decimal.RequireFromString("3.25"),
		Status:            domain.PaymentStatusCompleted,
		ResearcherAddress: "0x70997970C51812dc3A010C7d01b50e0d17dc79C8",
	}

	tm.expectChainWindow(nil, []schema.Payment{payment})
	tm.discrepancies.EXPECT().CountUnresolved(gomock.Any()).Return(int64(0), nil)

	err := tm.engine.RunPass(context.Background())

	assert.NoError(t, err)
}

func TestEngine_RunPass_ThresholdAlert(t *testing.T) {
	tm := setupTestEngine(t)
	defer tm.ctrl.Finish()

	tm.expectChainWindow(nil, nil)
	// Strictly above the threshold of 10
	tm.discrepancies.EXPECT().CountUnresolved(gomock.Any()).Return(int64(11), nil)

	before := testutil.ToFloat64(metrics.ThresholdAlerts)
	err := tm.engine.RunPass(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.ThresholdAlerts))
	assert.Equal(t, float64(11), testutil.ToFloat64(metrics.UnresolvedDiscrepancies))
}

func TestEngine_RunPass_NoAlertAtThreshold(t *testing.T) {
	tm := setupTestEngine(t)
	defer tm.ctrl.Finish()

	tm.expectChainWindow(nil, nil)
	// Exactly at the threshold: no alert
	tm.discrepancies.EXPECT().CountUnresolved(gomock.Any()).Return(int64(10), nil)

	before := testutil.ToFloat64(metrics.ThresholdAlerts)
	err := tm.engine.RunPass(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, before, testutil.ToFloat64(metrics.ThresholdAlerts))
}

func TestEngine_RunPass_ChainHeightFailureFailsPass(t *testing.T) {
	tm := setupTestEngine(t)
	defer tm.ctrl.Finish()

	tm.reader.EXPECT().CurrentHeight(gomock.Any()).Return(uint64(0), assert.AnError)

	err := tm.engine.RunPass(context.Background())

	assert.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestEngine_RunPass_QueryEventsFailureFailsPass(t *testing.T) {
	tm := setupTestEngine(t)
	defer tm.ctrl.Finish()

	tm.reader.EXPECT().CurrentHeight(gomock.Any()).Return(uint64(10000), nil)
	tm.reader.
		EXPECT().
		QueryEvents(gomock.Any(), domain.EventBountyPaid, uint64(5000), uint64(10000)).
		Return(nil, assert.AnError)

	err := tm.engine.RunPass(context.Background())

	assert.Error(t, err)
}

func TestEngine_RunPass_PaymentQueryFailureFailsPass(t *testing.T) {
	tm := setupTestEngine(t)
	defer tm.ctrl.Finish()

	tm.reader.EXPECT().CurrentHeight(gomock.Any()).Return(uint64(10000), nil)
	tm.reader.
		EXPECT().
		QueryEvents(gomock.Any(), domain.EventBountyPaid, uint64(5000), uint64(10000)).
		Return(nil, nil)
	tm.payments.
		EXPECT().
		FindCompletedSince(gomock.Any(), gomock.Any()).
		Return(nil, assert.AnError)

	err := tm.engine.RunPass(context.Background())

	assert.Error(t, err)
}

func TestEngine_RunPass_PerItemFailureDoesNotFailPass(t *testing.T) {
	tm := setupTestEngine(t)
	defer tm.ctrl.Finish()

	events := []domain.SettlementEvent{
		settlementEvent("0xv1", "0x70997970C51812dc3A010C7d01b50e0d17dc79C8", "0xa1", "1.0"),
		settlementEvent("0xv2", "0x70997970C51812dc3A010C7d01b50e0d17dc79C8", "0xa2", "2.0"),
	}

	tm.expectChainWindow(events, nil)
	tm.discrepancies.
		EXPECT().
		FindUnresolvedByKey(gomock.Any(), gomock.Nil(), gomock.Any()).
		Return(nil, nil).
		Times(2)
	// One insert fails; the pass logs it and keeps going
	tm.discrepancies.
		EXPECT().
		Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, d *schema.PaymentDiscrepancy) error {
			if d.ValidationID == "0xv1" {
				return assert.AnError
			}
			return nil
		}).
		Times(2)
	tm.discrepancies.EXPECT().CountUnresolved(gomock.Any()).Return(int64(1), nil)

	err := tm.engine.RunPass(context.Background())

	assert.NoError(t, err)
}

func TestEngine_RunPass_SmallBlockHeightQueriesFromGenesis(t *testing.T) {
	tm := setupTestEngine(t)
	defer tm.ctrl.Finish()

	// Head below the window size: the query starts at block zero
	tm.reader.EXPECT().CurrentHeight(gomock.Any()).Return(uint64(300), nil)
	tm.reader.
		EXPECT().
		QueryEvents(gomock.Any(), domain.EventBountyPaid, uint64(0), uint64(300)).
		Return(nil, nil)
	tm.payments.EXPECT().FindCompletedSince(gomock.Any(), gomock.Any()).Return(nil, nil)
	tm.discrepancies.EXPECT().CountUnresolved(gomock.Any()).Return(int64(0), nil)

	err := tm.engine.RunPass(context.Background())

	assert.NoError(t, err)
}

func TestEngine_GetReport(t *testing.T) {
	tm := setupTestEngine(t)
	defer tm.ctrl.Finish()

	lastReconciled := passTime.Add(-time.Hour)

	tm.payments.EXPECT().CountPayments(gomock.Any(), gomock.Nil()).Return(int64(10), nil)
	tm.payments.EXPECT().CountReconciledPayments(gomock.Any(), gomock.Nil()).Return(int64(8), nil)
	tm.payments.
		EXPECT().
		CountPaymentsByStatus(gomock.Any(), domain.PaymentStatusPending, gomock.Nil()).
		Return(int64(1), nil)
	tm.discrepancies.EXPECT().CountUnresolved(gomock.Any()).Return(int64(2), nil)
	tm.discrepancies.
		EXPECT().
		GroupCountByStatus(gomock.Any()).
		Return(map[domain.DiscrepancyStatus]int64{
			domain.DiscrepancyMissingPayment: 1,
			domain.DiscrepancyAmountMismatch: 1,
		}, nil)
	// No pass has run in this process; fall back to the ledger timestamp
	tm.payments.EXPECT().LastReconciledAt(gomock.Any()).Return(&lastReconciled, nil)

	report, err := tm.engine.GetReport(context.Background(), nil)

	require.NoError(t, err)
	assert.Equal(t, int64(10), report.TotalPayments)
	assert.Equal(t, int64(8), report.ReconciledCount)
	assert.Equal(t, int64(1), report.PendingCount)
	assert.Equal(t, int64(2), report.DiscrepancyCount)
	assert.InDelta(t, 80.0, report.ReconciliationRatePercent, 0.001)
	require.NotNil(t, report.LastReconciliationAt)
	assert.Equal(t, lastReconciled, *report.LastReconciliationAt)
	assert.Equal(t, int64(1), report.DiscrepancyCountsByStatus[domain.DiscrepancyMissingPayment])
}

func TestEngine_GetReport_EmptyLedger(t *testing.T) {
	tm := setupTestEngine(t)
	defer tm.ctrl.Finish()

	tm.payments.EXPECT().CountPayments(gomock.Any(), gomock.Nil()).Return(int64(0), nil)
	tm.payments.EXPECT().CountReconciledPayments(gomock.Any(), gomock.Nil()).Return(int64(0), nil)
	tm.payments.
		EXPECT().
		CountPaymentsByStatus(gomock.Any(), domain.PaymentStatusPending, gomock.Nil()).
		Return(int64(0), nil)
	tm.discrepancies.EXPECT().CountUnresolved(gomock.Any()).Return(int64(0), nil)
	tm.discrepancies.
		EXPECT().
		GroupCountByStatus(gomock.Any()).
		Return(map[domain.DiscrepancyStatus]int64{}, nil)
	tm.payments.EXPECT().LastReconciledAt(gomock.Any()).Return(nil, nil)

	report, err := tm.engine.GetReport(context.Background(), nil)

	require.NoError(t, err)
	assert.Zero(t, report.ReconciliationRatePercent)
	assert.Nil(t, report.LastReconciliationAt)
}

func TestEngine_GetReport_UsesLastPassTime(t *testing.T) {
	tm := setupTestEngine(t)
	defer tm.ctrl.Finish()

	tm.expectChainWindow(nil, nil)
	tm.discrepancies.EXPECT().CountUnresolved(gomock.Any()).Return(int64(0), nil)
	require.NoError(t, tm.engine.RunPass(context.Background()))

	tm.payments.EXPECT().CountPayments(gomock.Any(), gomock.Nil()).Return(int64(1), nil)
	tm.payments.EXPECT().CountReconciledPayments(gomock.Any(), gomock.Nil()).Return(int64(1), nil)
	tm.payments.
		EXPECT().
		CountPaymentsByStatus(gomock.Any(), domain.PaymentStatusPending, gomock.Nil()).
		Return(int64(0), nil)
	tm.discrepancies.EXPECT().CountUnresolved(gomock.Any()).Return(int64(0), nil)
	tm.discrepancies.
		EXPECT().
		GroupCountByStatus(gomock.Any()).
		Return(map[domain.DiscrepancyStatus]int64{}, nil)

	report, err := tm.engine.GetReport(context.Background(), nil)

	require.NoError(t, err)
	require.NotNil(t, report.LastReconciliationAt)
	assert.Equal(t, passTime, *report.LastReconciliationAt)
}

func TestEngine_ListDiscrepancies(t *testing.T) {
	tm := setupTestEngine(t)
	defer tm.ctrl.Finish()

	status := domain.DiscrepancyMissingPayment
	expected := []schema.PaymentDiscrepancy{{ID: "disc-1", Status: status}}

	tm.discrepancies.
		EXPECT().
		List(gomock.Any(), &status, domain.DiscrepancySortByAmount).
		Return(expected, nil)

	got, err := tm.engine.ListDiscrepancies(context.Background(), &status, domain.DiscrepancySortByAmount)

	require.NoError(t, err)
	assert.Equal(t, expected, got)
}

func TestEngine_ListDiscrepancies_InvalidStatus(t *testing.T) {
	tm := setupTestEngine(t)
	defer tm.ctrl.Finish()

	status := domain.DiscrepancyStatus("BOGUS")

	_, err := tm.engine.ListDiscrepancies(context.Background(), &status, domain.DiscrepancySortByDiscoveredAt)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid discrepancy status")
}

func TestEngine_ResolveDiscrepancy(t *testing.T) {
	tm := setupTestEngine(t)
	defer tm.ctrl.Finish()

	tm.discrepancies.
		EXPECT().
		GetByID(gomock.Any(), "disc-1").
		Return(&schema.PaymentDiscrepancy{
			ID:     "disc-1",
			Status: domain.DiscrepancyMissingPayment,
		}, nil)
	tm.discrepancies.
		EXPECT().
		Update(gomock.Any(), "disc-1", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, fields map[string]interface{}) error {
			assert.Equal(t, domain.DiscrepancyResolved, fields["status"])
			assert.Equal(t, passTime, fields["resolved_at"])
			assert.Equal(t, "ledger backfilled manually", fields["notes"])
			return nil
		})

	err := tm.engine.ResolveDiscrepancy(context.Background(), "disc-1", strPtr("ledger backfilled manually"))

	assert.NoError(t, err)
}

func TestEngine_ResolveDiscrepancy_KeepsNotesWhenNoneGiven(t *testing.T) {
	tm := setupTestEngine(t)
	defer tm.ctrl.Finish()

	tm.discrepancies.
		EXPECT().
		GetByID(gomock.Any(), "disc-1").
		Return(&schema.PaymentDiscrepancy{
			ID:     "disc-1",
			Status: domain.DiscrepancyAmountMismatch,
		}, nil)
	tm.discrepancies.
		EXPECT().
		Update(gomock.Any(), "disc-1", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, fields map[string]interface{}) error {
			_, hasNotes := fields["notes"]
			assert.False(t, hasNotes)
			return nil
		})

	err := tm.engine.ResolveDiscrepancy(context.Background(), "disc-1", nil)

	assert.NoError(t, err)
}

func TestEngine_ResolveDiscrepancy_NotFound(t *testing.T) {
	tm := setupTestEngine(t)
	defer tm.ctrl.Finish()

	tm.discrepancies.EXPECT().GetByID(gomock.Any(), "missing").Return(nil, nil)

	err := tm.engine.ResolveDiscrepancy(context.Background(), "missing", nil)

	assert.ErrorIs(t, err, domain.ErrDiscrepancyNotFound)
}

func TestEngine_ResolveDiscrepancy_AlreadyResolved(t *testing.T) {
	tm := setupTestEngine(t)
	defer tm.ctrl.Finish()

	tm.discrepancies.
		EXPECT().
		GetByID(gomock.Any(), "disc-1").
		Return(&schema.PaymentDiscrepancy{
			ID:     "disc-1",
			Status: domain.DiscrepancyResolved,
		}, nil)

	err := tm.engine.ResolveDiscrepancy(context.Background(), "disc-1", nil)

	assert.ErrorIs(t, err, domain.ErrAlreadyResolved)
}
