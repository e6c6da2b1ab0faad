// Package listener maintains resumable subscriptions to settlement events.
// Each listener replays missed events from its persisted cursor before going
// live, and reconnects with exponential backoff when the node connection
// drops.
package listener

import (
	"context"
	"fmt"
	"sync"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/jul1angr1s/AI-Bug-Bountry-App-sub003/internal/adapter"
	"github.com/jul1angr1s/AI-Bug-Bountry-App-sub003/internal/chain"
	"github.com/jul1angr1s/AI-Bug-Bountry-App-sub003/internal/config"
	"github.com/jul1angr1s/AI-Bug-Bountry-App-sub003/internal/domain"
	"github.com/jul1angr1s/AI-Bug-Bountry-App-sub003/internal/logger"
	"github.com/jul1angr1s/AI-Bug-Bountry-App-sub003/internal/messaging"
	"github.com/jul1angr1s/AI-Bug-Bountry-App-sub003/internal/metrics"
	"github.com/jul1angr1s/AI-Bug-Bountry-App-sub003/internal/store"
)

// State describes the lifecycle of a single listener
type State string

const (
	StateUninitialized State = "UNINITIALIZED"
	StateConnecting    State = "CONNECTING"
	StateReplaying     State = "REPLAYING"
	StateLive          State = "LIVE"
	StateReconnecting  State = "RECONNECTING"
	// StateStopped means the retry budget is exhausted; operator action needed
	StateStopped  State = "STOPPED"
	StateShutdown State = "SHUTDOWN"
)

// ListenConfig describes one contract/event subscription
type ListenConfig struct {
	ContractAddress string
	EventName       domain.EventName
	// FromBlock is used when no cursor exists yet; 0 means start from the
	// current chain height
	FromBlock uint64
	Handler   messaging.EventHandler
}

// Stats is a point-in-time snapshot of the service
type Stats struct {
	IsConnected     bool
	ActiveListeners int
	// RetryAttempt is the highest current reconnect attempt across listeners
	RetryAttempt int
	// States maps "contract:event" to the listener's current state
	States map[string]State
}

// Service manages settlement event listeners
//
//go:generate mockgen -source=listener.go -destination=../mocks/listener.go -package=mocks -mock_names=Service=MockListenerService
type Service interface {
	// Start registers a listener and runs it in the background. It returns
	// domain.ErrAlreadyRunning when the contract/event pair is already live.
	Start(ctx context.Context, cfg ListenConfig) error
	// ReplayRange re-delivers historical events in [fromBlock, toBlock]
	// through the registered handler. Handlers must tolerate duplicates.
	ReplayRange(ctx context.Context, contractAddress string, event domain.EventName, fromBlock, toBlock uint64) error
	// HealthCheck probes the chain node
	HealthCheck(ctx context.Context) error
	// Stats returns a snapshot of listener states
	Stats() Stats
	// Shutdown stops all listeners and waits for them to exit. Idempotent.
	Shutdown()
}

type unit struct {
	cfg     ListenConfig
	state   State
	attempt int
}

type service struct {
	reader  chain.Reader
	cursors store.CursorStore
	clock   adapter.Clock
	cfg     config.ListenerConfig

	mu       sync.Mutex
	units    map[string]*unit
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewService creates a new listener service
func NewService(
	reader chain.Reader,
	cursors store.CursorStore,
	clock adapter.Clock,
	cfg config.ListenerConfig,
) Service {
	return &service{
		reader:  reader,
		cursors: cursors,
		clock:   clock,
		cfg:     cfg,
		units:   make(map[string]*unit),
		stopCh:  make(chan struct{}),
	}
}

func unitKey(contractAddress string, event domain.EventName) string {
	return fmt.Sprintf("%s:%s", domain.NormalizeAddress(contractAddress), event)
}

// Start registers a listener and runs it in the background
func (s *service) Start(ctx context.Context, cfg ListenConfig) error {
	cfg.ContractAddress = domain.NormalizeAddress(cfg.ContractAddress)
	key := unitKey(cfg.ContractAddress, cfg.EventName)

	s.mu.Lock()
	if existing, ok := s.units[key]; ok && existing.state != StateStopped && existing.state != StateShutdown {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", domain.ErrAlreadyRunning, key)
	}
	u := &unit{cfg: cfg, state: StateUninitialized}
	s.units[key] = u
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(ctx, u)
	}()

	return nil
}

// run drives one listener through connect/replay/live sessions until the
// context is cancelled, the service shuts down, or the retry budget runs out
func (s *service) run(ctx context.Context, u *unit) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = s.cfg.BackoffBase
	bo.Multiplier = s.cfg.BackoffMultiplier
	bo.MaxInterval = s.cfg.BackoffMaxDelay
	bo.MaxElapsedTime = 0
	bo.RandomizationFactor = 0
	bo.Reset()

	for {
		err := s.runSession(ctx, u, bo)

		metrics.Connected.Set(0)

		if s.stopping(ctx) {
			s.setState(u, StateShutdown)
			return
		}

		s.setState(u, StateReconnecting)
		metrics.Reconnects.Inc()

		s.mu.Lock()
		u.attempt++
		attempt := u.attempt
		s.mu.Unlock()

		if s.cfg.MaxRetries > 0 && attempt > s.cfg.MaxRetries {
			s.setState(u, StateStopped)
			logger.Error(fmt.Errorf("listener retry budget exhausted: %w", err),
				zap.String("contract", u.cfg.ContractAddress),
				zap.String("event", string(u.cfg.EventName)),
				zap.Int("attempts", attempt-1))
			return
		}

		delay := bo.NextBackOff()
		logger.Warn("listener disconnected, reconnecting",
			zap.String("contract", u.cfg.ContractAddress),
			zap.String("event", string(u.cfg.EventName)),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err))

		select {
		case <-ctx.Done():
			s.setState(u, StateShutdown)
			return
		case <-s.stopCh:
			s.setState(u, StateShutdown)
			return
		case <-s.clock.After(delay):
		}
	}
}

// runSession performs one connect/replay/subscribe cycle. It blocks while the
// live subscription is healthy and returns the transport error that ended it.
func (s *service) runSession(ctx context.Context, u *unit, bo *backoff.ExponentialBackOff) error {
	s.setState(u, StateConnecting)

	height, err := s.reader.CurrentHeight(ctx)
	if err != nil {
		return fmt.Errorf("failed to get chain height: %w", err)
	}

	startBlock, err := s.resolveStartBlock(ctx, u, height)
	if err != nil {
		return err
	}

	s.setState(u, StateReplaying)

	if startBlock <= height {
		events, err := s.reader.QueryEvents(ctx, u.cfg.EventName, startBlock, height)
		if err != nil {
			return fmt.Errorf("failed to replay events: %w", err)
		}

		logger.Info("replaying missed events",
			zap.String("contract", u.cfg.ContractAddress),
			zap.String("event", string(u.cfg.EventName)),
			zap.Uint64("from_block", startBlock),
			zap.Uint64("to_block", height),
			zap.Int("count", len(events)))

		for i := range events {
			s.handle(ctx, u, &events[i])
		}
	}

	// Connection proved healthy; a later disconnect starts a fresh
	// backoff sequence
	s.mu.Lock()
	u.attempt = 0
	s.mu.Unlock()
	bo.Reset()

	s.setState(u, StateLive)
	metrics.Connected.Set(1)
	logger.Info("listener live",
		zap.String("contract", u.cfg.ContractAddress),
		zap.String("event", string(u.cfg.EventName)),
		zap.Uint64("from_block", height+1))

	return s.reader.SubscribeEvents(ctx, u.cfg.EventName, height+1, func(event *domain.SettlementEvent) error {
		s.handle(ctx, u, event)
		return nil
	})
}

// resolveStartBlock picks the first block to replay: cursor+1 when a cursor
// exists, else the configured start block, else the current height
func (s *service) resolveStartBlock(ctx context.Context, u *unit, height uint64) (uint64, error) {
	lastBlock, found, err := s.cursors.GetCursor(ctx, u.cfg.ContractAddress, string(u.cfg.EventName))
	if err != nil {
		return 0, fmt.Errorf("failed to get event cursor: %w", err)
	}

	if found {
		logger.Info("resuming from cursor",
			zap.String("contract", u.cfg.ContractAddress),
			zap.String("event", string(u.cfg.EventName)),
			zap.Uint64("block", lastBlock+1))
		return lastBlock + 1, nil
	}

	if u.cfg.FromBlock > 0 {
		return u.cfg.FromBlock, nil
	}

	return height, nil
}

// handle delivers one event to the handler and advances the cursor. A handler
// failure is logged and skipped; the cursor stays put so the event is
// re-delivered after the next reconnect.
func (s *service) handle(ctx context.Context, u *unit, event *domain.SettlementEvent) {
	if err := u.cfg.Handler(event); err != nil {
		metrics.HandlerFailures.WithLabelValues(string(u.cfg.EventName)).Inc()
		logger.Error(fmt.Errorf("event handler failed: %w", err),
			zap.String("tx_hash", event.TxHash),
			zap.String("validation_id", event.ValidationID),
			zap.Uint64("block", event.BlockNumber))
		return
	}

	metrics.EventsProcessed.WithLabelValues(string(u.cfg.EventName)).Inc()

	if err := s.cursors.UpsertCursor(ctx, u.cfg.ContractAddress, string(u.cfg.EventName), event.BlockNumber); err != nil {
		logger.Error(fmt.Errorf("failed to save event cursor: %w", err),
			zap.String("contract", u.cfg.ContractAddress),
			zap.String("event", string(u.cfg.EventName)),
			zap.Uint64("block", event.BlockNumber))
	}
}

// ReplayRange re-delivers historical events through the registered handler
func (s *service) ReplayRange(ctx context.Context, contractAddress string, event domain.EventName, fromBlock, toBlock uint64) error {
	if fromBlock > toBlock {
		return fmt.Errorf("invalid replay range: %d > %d", fromBlock, toBlock)
	}

	key := unitKey(contractAddress, event)

	s.mu.Lock()
	u, ok := s.units[key]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrNotInitialized, key)
	}

	events, err := s.reader.QueryEvents(ctx, event, fromBlock, toBlock)
	if err != nil {
		return fmt.Errorf("failed to query events: %w", err)
	}

	for i := range events {
		s.handle(ctx, u, &events[i])
	}

	return nil
}

// HealthCheck probes the chain node
func (s *service) HealthCheck(ctx context.Context) error {
	if _, err := s.reader.CurrentHeight(ctx); err != nil {
		return fmt.Errorf("chain node unreachable: %w", err)
	}

	return nil
}

// Stats returns a snapshot of listener states
func (s *service) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := Stats{States: make(map[string]State, len(s.units))}
	for key, u := range s.units {
		stats.States[key] = u.state
		switch u.state {
		case StateReplaying, StateLive:
			stats.ActiveListeners++
		}
		if u.state == StateLive {
			stats.IsConnected = true
		}
		if u.attempt > stats.RetryAttempt {
			stats.RetryAttempt = u.attempt
		}
	}

	return stats
}

// Shutdown stops all listeners and waits for them to exit
func (s *service) Shutdown() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
		// Closing the reader unblocks any live subscription
		s.reader.Close()
	})
	s.wg.Wait()
}

func (s *service) stopping(ctx context.Context) bool {
	if ctx.Err() != nil {
		return true
	}
	select {
	case <-s.stopCh:
		return true
	default:
		return false
	}
}

func (s *service) setState(u *unit, state State) {
	s.mu.Lock()
	u.state = state
	s.mu.Unlock()
}
