package messaging

import (
	"context"

	"github.com/jul1angr1s/AI-Bug-Bountry-App-sub003/internal/domain"
)

// EventHandler is called for each settlement event, during replay and live
// delivery alike. Handlers must be idempotent: a reconnect re-runs the
// startup protocol from the persisted cursor and may re-deliver events that
// were handled but not yet checkpointed.
type EventHandler func(event *domain.SettlementEvent) error

// Publisher defines the interface for handing settlement events to the
// downstream payment services
//
//go:generate mockgen -source=publisher.go -destination=../mocks/publisher.go -package=mocks -mock_names=Publisher=MockPublisher
type Publisher interface {
	// PublishEvent publishes a settlement event to the message broker
	PublishEvent(ctx context.Context, event *domain.SettlementEvent) error
	// Close closes the connection
	Close()
	// CloseChan returns a channel that is closed when the publisher is closed
	CloseChan() <-chan struct{}
}
