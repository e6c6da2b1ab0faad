package jetstream

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/jul1angr1s/AI-Bug-Bountry-App-sub003/internal/adapter"
	"github.com/jul1angr1s/AI-Bug-Bountry-App-sub003/internal/domain"
	"github.com/jul1angr1s/AI-Bug-Bountry-App-sub003/internal/logger"
	"github.com/jul1angr1s/AI-Bug-Bountry-App-sub003/internal/messaging"
)

// Config holds the configuration for NATS JetStream connection
type Config struct {
	URL            string
	StreamName     string
	MaxReconnects  int
	ReconnectWait  time.Duration
	ConnectionName string
}

type publisher struct {
	nc         adapter.NatsConn
	js         adapter.JetStream
	streamName string
	json       adapter.JSON

	closeOnce sync.Once
	closed    chan struct{}
}

// NewPublisher creates a new NATS JetStream publisher
func NewPublisher(cfg Config, natsJS adapter.NatsJetStream, jsonAdapter adapter.JSON) (messaging.Publisher, error) {
	opts := []nats.Option{
		nats.Name(cfg.ConnectionName),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				logger.Error(err, zap.String("message", "Disconnected from NATS"))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("reconnected to NATS", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logger.Info("NATS connection closed")
		}),
	}

	nc, js, err := natsJS.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS and create JetStream: %w", err)
	}

	return &publisher{
		nc:         nc,
		js:         js,
		streamName: cfg.StreamName,
		json:       jsonAdapter,
		closed:     make(chan struct{}),
	}, nil
}

// PublishEvent publishes a settlement event to NATS JetStream
func (p *publisher) PublishEvent(ctx context.Context, event *domain.SettlementEvent) error {
	logger.Debug("publishing settlement event", zap.Any("event", event))

	data, err := p.json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	subject := p.buildSubject(event)

	_, err = p.js.Publish(ctx, subject, data)
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}

// buildSubject constructs the NATS subject based on the event.
// Format: settlements.{event}, e.g. settlements.BountyPaid
func (p *publisher) buildSubject(event *domain.SettlementEvent) string {
	return fmt.Sprintf("settlements.%s", event.Event)
}

// Close closes the NATS connection
func (p *publisher) Close() {
	p.closeOnce.Do(func() {
		close(p.closed)
		if p.nc != nil {
			p.nc.Close()
		}
	})
}

// CloseChan returns a channel closed when the publisher shuts down
func (p *publisher) CloseChan() <-chan struct{} {
	return p.closed
}
