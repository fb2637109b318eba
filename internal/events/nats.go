package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/free-plinko-game/aff-web-gen/internal/config"
)

// NATSPublisher forwards bus events to a JetStream subject so external
// systems (dashboards, alerting) can follow site lifecycles.
type NATSPublisher struct {
	conn    *nats.Conn
	js      jetstream.JetStream
	subject string
	logger  *slog.Logger
}

// NewNATSPublisher connects to NATS and ensures the events stream exists.
func NewNATSPublisher(ctx context.Context, cfg config.NATSConfig, logger *slog.Logger) (*NATSPublisher, error) {
	if !cfg.Enabled {
		return nil, fmt.Errorf("nats publishing is disabled")
	}
	if logger == nil {
		logger = slog.Default()
	}

	conn, err := nats.Connect(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      "AFFGEN_EVENTS",
		Subjects:  []string{cfg.Subject + ".>"},
		Retention: jetstream.LimitsPolicy,
		MaxAge:    7 * 24 * time.Hour,
	})
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ensure events stream: %w", err)
	}

	logger.Info("nats publisher initialized", "url", cfg.URL, "subject", cfg.Subject)
	return &NATSPublisher{conn: conn, js: js, subject: cfg.Subject, logger: logger}, nil
}

// Publish sends one event; the subject is suffixed with the event kind.
func (p *NATSPublisher) Publish(ctx context.Context, evt Event) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	subject := p.subject + "." + evt.Kind()
	if _, err := p.js.Publish(ctx, subject, payload); err != nil {
		return fmt.Errorf("publish event to %s: %w", subject, err)
	}
	return nil
}

// Forward consumes bus events until the context ends or the channel closes.
// Publish failures are logged, not fatal: losing an event never fails the
// operation that produced it.
func (p *NATSPublisher) Forward(ctx context.Context, ch <-chan Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-ch:
			if !ok {
				return
			}
			if err := p.Publish(ctx, evt); err != nil {
				p.logger.Warn("event publish failed", "kind", evt.Kind(), "error", err.Error())
			}
		}
	}
}

// Close drains and closes the connection.
func (p *NATSPublisher) Close() {
	p.conn.Close()
}
