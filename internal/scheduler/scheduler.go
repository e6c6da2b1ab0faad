// Package scheduler runs a task on a fixed interval with pause/resume
// support. It drives the periodic reconciliation pass.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/jul1angr1s/AI-Bug-Bountry-App-sub003/internal/adapter"
	"github.com/jul1angr1s/AI-Bug-Bountry-App-sub003/internal/logger"
)

// Task is one unit of periodic work
type Task func(ctx context.Context) error

// Scheduler defines the interface for periodic background tasks
//
//go:generate mockgen -source=scheduler.go -destination=../mocks/scheduler.go -package=mocks -mock_names=Scheduler=MockScheduler
type Scheduler interface {
	// Start begins the scheduler's main loop
	// This is a blocking call that runs until the context is canceled
	Start(ctx context.Context) error

	// Stop gracefully stops the scheduler
	Stop(ctx context.Context) error

	// Pause suspends task execution; the loop keeps ticking
	Pause()

	// Resume re-enables task execution
	Resume()

	// Name returns the scheduler's name for logging and identification
	Name() string
}

type scheduler struct {
	name     string
	interval time.Duration
	task     Task
	clock    adapter.Clock

	running   atomic.Bool
	paused    atomic.Bool
	stopChan  chan struct{}
	stoppedCh chan struct{}
}

// New creates a scheduler that runs task every interval
func New(name string, interval time.Duration, task Task, clock adapter.Clock) Scheduler {
	return &scheduler{
		name:      name,
		interval:  interval,
		task:      task,
		clock:     clock,
		stopChan:  make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

// Name returns the scheduler's name
func (s *scheduler) Name() string {
	return s.name
}

// Start begins the scheduler's main loop
func (s *scheduler) Start(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return fmt.Errorf("scheduler %s already running", s.name)
	}
	defer func() {
		s.running.Store(false)
		close(s.stoppedCh)
	}()

	logger.InfoCtx(ctx, "starting scheduler",
		zap.String("name", s.name),
		zap.Duration("interval", s.interval))

	for {
		if s.paused.Load() {
			logger.DebugCtx(ctx, "scheduler paused, skipping run", zap.String("name", s.name))
		} else {
			start := s.clock.Now()
			if err := s.task(ctx); err != nil {
				if !errors.Is(err, context.Canceled) {
					logger.ErrorCtx(ctx, fmt.Errorf("scheduled task failed: %w", err),
						zap.String("name", s.name))
				}
			} else {
				logger.InfoCtx(ctx, "scheduled task completed",
					zap.String("name", s.name),
					zap.Duration("duration", s.clock.Since(start)))
			}
		}

		select {
		case <-ctx.Done():
			logger.InfoCtx(ctx, "scheduler stopping due to context cancellation", zap.String("name", s.name))
			return nil
		case <-s.stopChan:
			logger.InfoCtx(ctx, "scheduler stop requested", zap.String("name", s.name))
			return nil
		case <-s.clock.After(s.interval):
		}
	}
}

// Stop gracefully stops the scheduler with timeout support
func (s *scheduler) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil // Already stopped
	}

	close(s.stopChan)

	select {
	case <-s.stoppedCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Pause suspends task execution
func (s *scheduler) Pause() {
	s.paused.Store(true)
}

// Resume re-enables task execution
func (s *scheduler) Resume() {
	s.paused.Store(false)
}
