package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/jul1angr1s/AI-Bug-Bountry-App-sub003/internal/adapter"
	"github.com/jul1angr1s/AI-Bug-Bountry-App-sub003/internal/chain"
	"github.com/jul1angr1s/AI-Bug-Bountry-App-sub003/internal/config"
	"github.com/jul1angr1s/AI-Bug-Bountry-App-sub003/internal/logger"
	"github.com/jul1angr1s/AI-Bug-Bountry-App-sub003/internal/reconcile"
	"github.com/jul1angr1s/AI-Bug-Bountry-App-sub003/internal/scheduler"
	"github.com/jul1angr1s/AI-Bug-Bountry-App-sub003/internal/store"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
)

func main() {
	flag.Parse()

	// Load configuration
	config.ChdirRepoRoot()
	cfg, err := config.LoadReconcilerConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	tolerance, err := decimal.NewFromString(cfg.Reconcile.AmountTolerance)
	if err != nil {
		panic(fmt.Sprintf("Invalid amount tolerance %q: %v", cfg.Reconcile.AmountTolerance, err))
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize logger with sentry integration
	err = logger.Initialize(logger.Config{
		Debug:           cfg.Debug,
		SentryDSN:       cfg.SentryDSN,
		BreadcrumbLevel: zapcore.InfoLevel,
		Tags: map[string]string{
			"service": "reconciler",
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting Reconciler")

	// Connect to database
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
	if err != nil {
		logger.FatalCtx(ctx, "Failed to connect to database", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.FatalCtx(ctx, "Failed to get database handle", zap.Error(err))
	}
	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.Database.ConnMaxIdleTime)
	logger.InfoCtx(ctx, "Connected to database")

	// Initialize store
	dataStore := store.NewPGStore(db)
	if err := dataStore.AutoMigrate(); err != nil {
		logger.FatalCtx(ctx, "Failed to migrate database", zap.Error(err))
	}

	// Initialize adapters
	clockAdapter := adapter.NewClock()

	// Initialize ethereum client over plain RPC; the reconciler only runs
	// range queries, no live subscription
	ethDialer := adapter.NewEthClientDialer()
	ethClient, err := ethDialer.Dial(ctx, cfg.Ethereum.RPCURL)
	if err != nil {
		logger.FatalCtx(ctx, "Failed to dial Ethereum RPC", zap.Error(err), zap.String("rpc_url", cfg.Ethereum.RPCURL))
	}
	defer ethClient.Close()
	reader := chain.NewReader(chain.Config{
		ContractAddress: cfg.Ethereum.ContractAddress,
		TokenDecimals:   cfg.Ethereum.TokenDecimals,
	}, ethClient, clockAdapter)

	// Create reconciliation engine
	engine := reconcile.NewEngine(reader, dataStore, dataStore, clockAdapter, reconcile.Config{
		Window:          cfg.Reconcile.Window,
		BlocksPerWindow: cfg.Reconcile.BlocksPerWindow,
		AmountTolerance: tolerance,
		AlertThreshold:  cfg.Reconcile.AlertThreshold,
	})

	// Metrics endpoint
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	metricsServer := &http.Server{Addr: cfg.Metrics.Addr, Handler: mux}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.ErrorCtx(ctx, fmt.Errorf("metrics server failed: %w", err))
		}
	}()

	// Schedule periodic passes
	sched := scheduler.New("reconcile", cfg.Reconcile.Interval, engine.RunPass, clockAdapter)

	errCh := make(chan error, 1)
	go func() {
		if err := sched.Start(ctx); err != nil {
			errCh <- err
		}
	}()

	// Setup signal handling
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.InfoCtx(ctx, "Received shutdown signal", zap.String("signal", sig.String()))
	case err := <-errCh:
		logger.ErrorCtx(ctx, err, zap.String("component", "scheduler"))
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = sched.Stop(shutdownCtx)
	_ = metricsServer.Shutdown(shutdownCtx)

	// Use non-context logger for final shutdown message since context is already canceled
	logger.Info("Reconciler stopped")
}
