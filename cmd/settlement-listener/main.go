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
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/jul1angr1s/AI-Bug-Bountry-App-sub003/internal/adapter"
	"github.com/jul1angr1s/AI-Bug-Bountry-App-sub003/internal/chain"
	"github.com/jul1angr1s/AI-Bug-Bountry-App-sub003/internal/config"
	"github.com/jul1angr1s/AI-Bug-Bountry-App-sub003/internal/domain"
	"github.com/jul1angr1s/AI-Bug-Bountry-App-sub003/internal/listener"
	"github.com/jul1angr1s/AI-Bug-Bountry-App-sub003/internal/logger"
	"github.com/jul1angr1s/AI-Bug-Bountry-App-sub003/internal/providers/jetstream"
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
	cfg, err := config.LoadSettlementListenerConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
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
			"service": "settlement-listener",
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting Settlement Listener")

	// Connect to database
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
	if err != nil {
		logger.FatalCtx(ctx, "Failed to connect to database", zap.Error(err))
	}
	logger.InfoCtx(ctx, "Connected to database")

	// Initialize store
	dataStore := store.NewPGStore(db)
	if err := dataStore.AutoMigrate(); err != nil {
		logger.FatalCtx(ctx, "Failed to migrate database", zap.Error(err))
	}

	// Initialize adapters
	clockAdapter := adapter.NewClock()
	jsonAdapter := adapter.NewJSON()
	natsJS := adapter.NewNatsJetStream()

	// Initialize ethereum client
	ethDialer := adapter.NewEthClientDialer()
	ethClient, err := ethDialer.Dial(ctx, cfg.Ethereum.WebSocketURL)
	if err != nil {
		logger.FatalCtx(ctx, "Failed to dial Ethereum RPC", zap.Error(err), zap.String("websocket_url", cfg.Ethereum.WebSocketURL))
	}
	reader := chain.NewReader(chain.Config{
		ContractAddress: cfg.Ethereum.ContractAddress,
		TokenDecimals:   cfg.Ethereum.TokenDecimals,
	}, ethClient, clockAdapter)

	// Initialize NATS publisher
	natsPublisher, err := jetstream.NewPublisher(jetstream.Config{
		URL:            cfg.NATS.URL,
		StreamName:     cfg.NATS.StreamName,
		MaxReconnects:  cfg.NATS.MaxReconnects,
		ReconnectWait:  cfg.NATS.ReconnectWait,
		ConnectionName: cfg.NATS.ConnectionName,
	}, natsJS, jsonAdapter)
	if err != nil {
		logger.FatalCtx(ctx, "Failed to create NATS publisher", zap.Error(err), zap.String("url", cfg.NATS.URL))
	}
	defer natsPublisher.Close()
	logger.InfoCtx(ctx, "Connected to NATS JetStream")

	// Create listener service
	listenerSvc := listener.NewService(reader, dataStore, clockAdapter, cfg.Listener)
	defer listenerSvc.Shutdown()

	// Metrics and health endpoint
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := listenerSvc.HealthCheck(r.Context()); err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	metricsServer := &http.Server{Addr: cfg.Metrics.Addr, Handler: mux}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.ErrorCtx(ctx, fmt.Errorf("metrics server failed: %w", err))
		}
	}()

	// Start listening for settlement events; every decoded event goes to
	// JetStream for the downstream payment services
	err = listenerSvc.Start(ctx, listener.ListenConfig{
		ContractAddress: cfg.Ethereum.ContractAddress,
		EventName:       domain.EventBountyPaid,
		FromBlock:       cfg.Ethereum.StartBlock,
		Handler: func(event *domain.SettlementEvent) error {
			return natsPublisher.PublishEvent(ctx, event)
		},
	})
	if err != nil {
		logger.FatalCtx(ctx, "Failed to start listener", zap.Error(err))
	}

	// Setup signal handling
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Wait for shutdown signal or NATS closing underneath us
	select {
	case sig := <-sigCh:
		logger.InfoCtx(ctx, "Received shutdown signal", zap.String("signal", sig.String()))
	case <-natsPublisher.CloseChan():
		logger.InfoCtx(ctx, "NATS connection closed unexpectedly")
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = metricsServer.Shutdown(shutdownCtx)

	listenerSvc.Shutdown()

	// Use non-context logger for final shutdown message since context is already canceled
	logger.Info("Settlement Listener stopped")
}
