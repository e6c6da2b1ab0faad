package store

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	pgdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/jul1angr1s/AI-Bug-Bountry-App-sub003/internal/domain"
	"github.com/jul1angr1s/AI-Bug-Bountry-App-sub003/internal/store/schema"
)

var (
	testDB      *gorm.DB
	pgContainer *postgres.PostgresContainer
)

// TestMain sets up the test database before running tests
func TestMain(m *testing.M) {
	ctx := context.Background()

	// Check if we should use an external database (for CI or local development)
	dbHost := os.Getenv("TEST_DB_HOST")
	dbPort := os.Getenv("TEST_DB_PORT")
	dbUser := os.Getenv("TEST_DB_USER")
	dbPassword := os.Getenv("TEST_DB_PASSWORD")
	dbName := os.Getenv("TEST_DB_NAME")

	var dsn string
	var err error

	if dbHost != "" {
		// Use external database
		if dbPort == "" {
			dbPort = "5432"
		}
		if dbUser == "" {
			dbUser = "postgres"
		}
		if dbPassword == "" {
			dbPassword = "postgres"
		}
		if dbName == "" {
			dbName = "test_db"
		}

		dsn = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			dbHost, dbPort, dbUser, dbPassword, dbName)

		fmt.Printf("Using external database: %s:%s/%s\n", dbHost, dbPort, dbName)
	} else {
		// Start a PostgreSQL container for testing
		pgContainer, err = postgres.Run(ctx,
			"postgres:18-alpine",
			postgres.WithDatabase("test_db"),
			postgres.WithUsername("postgres"),
			postgres.WithPassword("postgres"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(30*time.Second)),
		)
		if err != nil {
			fmt.Printf("Failed to start PostgreSQL container: %v\n", err)
			os.Exit(1)
		}

		dsn, err = pgContainer.ConnectionString(ctx, "sslmode=disable")
		if err != nil {
			fmt.Printf("Failed to get connection string: %v\n", err)
			if err := pgContainer.Terminate(ctx); err != nil {
				fmt.Printf("Failed to terminate PostgreSQL container: %v\n", err)
			}
			os.Exit(1)
		}

		fmt.Printf("Started PostgreSQL container\n")
	}

	// Connect to the database
	testDB, err = gorm.Open(pgdriver.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		fmt.Printf("Failed to connect to database: %v\n", err)
		if pgContainer != nil {
			if err := pgContainer.Terminate(ctx); err != nil {
				fmt.Printf("Failed to terminate PostgreSQL container: %v\n", err)
			}
		}
		os.Exit(1)
	}

	// Create the schema
	if err := NewPGStore(testDB).AutoMigrate(); err != nil {
		fmt.Printf("Failed to migrate database: %v\n", err)
		if pgContainer != nil {
			if err := pgContainer.Terminate(ctx); err != nil {
				fmt.Printf("Failed to terminate PostgreSQL container: %v\n", err)
			}
		}
		os.Exit(1)
	}

	// Run tests
	code := m.Run()

	// Cleanup
	if pgContainer != nil {
		if err := pgContainer.Terminate(ctx); err != nil {
			fmt.Printf("Failed to terminate PostgreSQL container: %v\n", err)
		}
	}

	os.Exit(code)
}

// setupPGStore returns a store over the shared database with empty tables
func setupPGStore(t *testing.T) *PGStore {
	require.NoError(t, testDB.Exec("TRUNCATE event_cursors, payments, payment_discrepancies").Error)
	return NewPGStore(testDB)
}

func seedPayment(t *testing.T, s *PGStore, payment *schema.Payment) *schema.Payment {
	if payment.ID == "" {
		payment.ID = uuid.NewString()
	}
	require.NoError(t, testDB.Create(payment).Error)
	return payment
}

func strPtr(s string) *string {
	return &s
}

func timePtr(t time.Time) *time.Time {
	return &t
}

func TestPGStore_CursorRoundTrip(t *testing.T) {
	s := setupPGStore(t)
	ctx := context.Background()

	_, found, err := s.GetCursor(ctx, "0xAAAA", "BountyPaid")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.UpsertCursor(ctx, "0xAAAA", "BountyPaid", 100))

	// Addresses compare case-insensitively
	block, found, err := s.GetCursor(ctx, "0xaaaa", "BountyPaid")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, uint64(100), block)
}

func TestPGStore_UpsertCursorIsMonotonic(t *testing.T) {
	s := setupPGStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertCursor(ctx, "0xaaaa", "BountyPaid", 100))
	// A stale writer cannot rewind the cursor
	require.NoError(t, s.UpsertCursor(ctx, "0xaaaa", "BountyPaid", 50))

	block, found, err := s.GetCursor(ctx, "0xaaaa", "BountyPaid")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, uint64(100), block)

	require.NoError(t, s.UpsertCursor(ctx, "0xaaaa", "BountyPaid", 150))

	block, _, err = s.GetCursor(ctx, "0xaaaa", "BountyPaid")
	require.NoError(t, err)
	assert.Equal(t, uint64(150), block)
}

func TestPGStore_CursorsAreScopedPerEvent(t *testing.T) {
	s := setupPGStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertCursor(ctx, "0xaaaa", "BountyPaid", 100))
	require.NoError(t, s.UpsertCursor(ctx, "0xbbbb", "BountyPaid", 200))

	block, _, err := s.GetCursor(ctx, "0xaaaa", "BountyPaid")
	require.NoError(t, err)
	assert.Equal(t, uint64(100), block)

	block, _, err = s.GetCursor(ctx, "0xbbbb", "BountyPaid")
	require.NoError(t, err)
	assert.Equal(t, uint64(200), block)
}

func TestPGStore_FindCompletedSince(t *testing.T) {
	s := setupPGStore(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Microsecond)

	recent := seedPayment(t, s, &schema.Payment{
		Amount:            decimal.RequireFromString("1.5"),
		Status:            domain.PaymentStatusCompleted,
		ResearcherAddress: "0xabc",
		PaidAt:            timePtr(now.Add(-time.Hour)),
	})
	// Too old for the window
	seedPayment(t, s, &schema.Payment{
		Amount:            decimal.RequireFromString("2.5"),
		Status:            domain.PaymentStatusCompleted,
		ResearcherAddress: "0xabc",
		PaidAt:            timePtr(now.Add(-48 * time.Hour)),
	})
	// Not completed
	seedPayment(t, s, &schema.Payment{
		Amount:            decimal.RequireFromString("3.5"),
		Status:            domain.PaymentStatusPending,
		ResearcherAddress: "0xabc",
		PaidAt:            timePtr(now.Add(-time.Hour)),
	})

	payments, err := s.FindCompletedSince(ctx, now.Add(-24*time.Hour))

	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, recent.ID, payments[0].ID)
}

func TestPGStore_UpdateTxHashAndReconciled(t *testing.T) {
	s := setupPGStore(t)
	ctx := context.Background()

	payment := seedPayment(t, s, &schema.Payment{
		Amount:            decimal.RequireFromString("1.5"),
		Status:            domain.PaymentStatusCompleted,
		ResearcherAddress: "0xabc",
	})

	reconciledAt := time.Now().UTC().Truncate(time.Microsecond)
	require.NoError(t, s.UpdateTxHashAndReconciled(ctx, payment.ID, "0xdeadbeef", reconciledAt))

	var got schema.Payment
	require.NoError(t, testDB.First(&got, "id = ?", payment.ID).Error)
	require.NotNil(t, got.TxHash)
	assert.Equal(t, "0xdeadbeef", *got.TxHash)
	assert.True(t, got.Reconciled)
	require.NotNil(t, got.ReconciledAt)
	assert.WithinDuration(t, reconciledAt, *got.ReconciledAt, time.Second)
}

func TestPGStore_MarkReconciled(t *testing.T) {
	s := setupPGStore(t)
	ctx := context.Background()

	payment := seedPayment(t, s, &schema.Payment{
		Amount:            decimal.RequireFromString("1.5"),
		TxHash:            strPtr("0x01"),
		Status:            domain.PaymentStatusCompleted,
		ResearcherAddress: "0xabc",
	})

	require.NoError(t, s.MarkReconciled(ctx, payment.ID, time.Now()))

	var got schema.Payment
	require.NoError(t, testDB.First(&got, "id = ?", payment.ID).Error)
	assert.True(t, got.Reconciled)
	assert.NotNil(t, got.ReconciledAt)
	// Hash untouched
	require.NotNil(t, got.TxHash)
	assert.Equal(t, "0x01", *got.TxHash)
}

func TestPGStore_PaymentCounts(t *testing.T) {
	s := setupPGStore(t)
	ctx := context.Background()

	seedPayment(t, s, &schema.Payment{
		Amount:            decimal.RequireFromString("1"),
		Status:            domain.PaymentStatusCompleted,
		ResearcherAddress: "0xabc",
		Reconciled:        true,
		ReconciledAt:      timePtr(time.Now().Add(-time.Hour)),
	})
	seedPayment(t, s, &schema.Payment{
		Amount:            decimal.RequireFromString("2"),
		Status:            domain.PaymentStatusPending,
		ResearcherAddress: "0xabc",
	})
	seedPayment(t, s, &schema.Payment{
		Amount:            decimal.RequireFromString("3"),
		Status:            domain.PaymentStatusFailed,
		ResearcherAddress: "0xabc",
	})

	total, err := s.CountPayments(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)

	reconciled, err := s.CountReconciledPayments(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), reconciled)

	pending, err := s.CountPaymentsByStatus(ctx, domain.PaymentStatusPending, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), pending)

	// A future cut-off excludes everything
	future := time.Now().Add(time.Hour)
	total, err = s.CountPayments(ctx, &future)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestPGStore_LastReconciledAt(t *testing.T) {
	s := setupPGStore(t)
	ctx := context.Background()

	last, err := s.LastReconciledAt(ctx)
	require.NoError(t, err)
	assert.Nil(t, last)

	older := time.Now().UTC().Add(-2 * time.Hour).Truncate(time.Microsecond)
	newer := time.Now().UTC().Add(-time.Hour).Truncate(time.Microsecond)
	seedPayment(t, s, &schema.Payment{
		Amount:            decimal.RequireFromString("1"),
		Status:            domain.PaymentStatusCompleted,
		ResearcherAddress: "0xabc",
		Reconciled:        true,
		ReconciledAt:      &older,
	})
	seedPayment(t, s, &schema.Payment{
		Amount:            decimal.RequireFromString("2"),
		Status:            domain.PaymentStatusCompleted,
		ResearcherAddress: "0xabc",
		Reconciled:        true,
		ReconciledAt:      &newer,
	})

	last, err = s.LastReconciledAt(ctx)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.WithinDuration(t, newer, *last, time.Second)
}

func TestPGStore_DiscrepancyLifecycle(t *testing.T) {
	s := setupPGStore(t)
	ctx := context.Background()

	d := &schema.PaymentDiscrepancy{
		ValidationID: "0xv1",
		TxHash:       "0x01",
		Amount:       decimal.RequireFromString("1.5"),
		Status:       domain.DiscrepancyMissingPayment,
		DiscoveredAt: time.Now().UTC().Truncate(time.Microsecond),
	}
	require.NoError(t, s.Create(ctx, d))
	assert.NotEmpty(t, d.ID)

	got, err := s.GetByID(ctx, d.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, domain.DiscrepancyMissingPayment, got.Status)

	resolvedAt := time.Now().UTC().Truncate(time.Microsecond)
	require.NoError(t, s.Update(ctx, d.ID, map[string]interface{}{
		"status":      domain.DiscrepancyResolved,
		"resolved_at": resolvedAt,
		"notes":       "ledger backfilled manually",
	}))

	got, err = s.GetByID(ctx, d.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, domain.DiscrepancyResolved, got.Status)
	require.NotNil(t, got.Notes)
	assert.Equal(t, "ledger backfilled manually", *got.Notes)
	require.NotNil(t, got.ResolvedAt)
}

func TestPGStore_GetByID_Missing(t *testing.T) {
	s := setupPGStore(t)

	got, err := s.GetByID(context.Background(), uuid.NewString())

	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestPGStore_FindUnresolvedByKey(t *testing.T) {
	s := setupPGStore(t)
	ctx := context.Background()

	payment := seedPayment(t, s, &schema.Payment{
		Amount:            decimal.RequireFromString("1.5"),
		Status:            domain.PaymentStatusCompleted,
		ResearcherAddress: "0xabc",
	})

	// One orphan finding (no ledger row) and one bound to a payment, both on
	// the same validation id
	orphan := &schema.PaymentDiscrepancy{
		ValidationID: "0xv1",
		Status:       domain.DiscrepancyMissingPayment,
		DiscoveredAt: time.Now(),
	}
	require.NoError(t, s.Create(ctx, orphan))
	bound := &schema.PaymentDiscrepancy{
		PaymentID:    &payment.ID,
		ValidationID: "0xv1",
		Status:       domain.DiscrepancyAmountMismatch,
		DiscoveredAt: time.Now(),
	}
	require.NoError(t, s.Create(ctx, bound))

	got, err := s.FindUnresolvedByKey(ctx, nil, "0xv1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, orphan.ID, got.ID)

	got, err = s.FindUnresolvedByKey(ctx, &payment.ID, "0xv1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, bound.ID, got.ID)

	got, err = s.FindUnresolvedByKey(ctx, nil, "0xother")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestPGStore_FindUnresolvedByKey_IgnoresResolved(t *testing.T) {
	s := setupPGStore(t)
	ctx := context.Background()

	resolved := &schema.PaymentDiscrepancy{
		ValidationID: "0xv1",
		Status:       domain.DiscrepancyResolved,
		DiscoveredAt: time.Now(),
	}
	require.NoError(t, s.Create(ctx, resolved))

	got, err := s.FindUnresolvedByKey(ctx, nil, "0xv1")

	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestPGStore_CountUnresolvedAndGroup(t *testing.T) {
	s := setupPGStore(t)
	ctx := context.Background()

	for _, status := range []domain.DiscrepancyStatus{
		domain.DiscrepancyMissingPayment,
		domain.DiscrepancyMissingPayment,
		domain.DiscrepancyAmountMismatch,
		domain.DiscrepancyResolved,
	} {
		require.NoError(t, s.Create(ctx, &schema.PaymentDiscrepancy{
			ValidationID: uuid.NewString(),
			Status:       status,
			DiscoveredAt: time.Now(),
		}))
	}

	count, err := s.CountUnresolved(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	byStatus, err := s.GroupCountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), byStatus[domain.DiscrepancyMissingPayment])
	assert.Equal(t, int64(1), byStatus[domain.DiscrepancyAmountMismatch])
	_, hasResolved := byStatus[domain.DiscrepancyResolved]
	assert.False(t, hasResolved)
}

func TestPGStore_List(t *testing.T) {
	s := setupPGStore(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Microsecond)
	small := &schema.PaymentDiscrepancy{
		ValidationID: "0xv1",
		Amount:       decimal.RequireFromString("1"),
		Status:       domain.DiscrepancyMissingPayment,
		DiscoveredAt: now.Add(-time.Hour),
	}
	large := &schema.PaymentDiscrepancy{
		ValidationID: "0xv2",
		Amount:       decimal.RequireFromString("9"),
		Status:       domain.DiscrepancyAmountMismatch,
		DiscoveredAt: now,
	}
	resolved := &schema.PaymentDiscrepancy{
		ValidationID: "0xv3",
		Amount:       decimal.RequireFromString("5"),
		Status:       domain.DiscrepancyResolved,
		DiscoveredAt: now,
	}
	for _, d := range []*schema.PaymentDiscrepancy{small, large, resolved} {
		require.NoError(t, s.Create(ctx, d))
	}

	// nil status = all unresolved, newest first
	all, err := s.List(ctx, nil, domain.DiscrepancySortByDiscoveredAt)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, large.ID, all[0].ID)
	assert.Equal(t, small.ID, all[1].ID)

	// Sorting by amount flips nothing here but exercises the other key
	byAmount, err := s.List(ctx, nil, domain.DiscrepancySortByAmount)
	require.NoError(t, err)
	require.Len(t, byAmount, 2)
	assert.Equal(t, large.ID, byAmount[0].ID)

	status := domain.DiscrepancyMissingPayment
	filtered, err := s.List(ctx, &status, domain.DiscrepancySortByDiscoveredAt)
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, small.ID, filtered[0].ID)
}
