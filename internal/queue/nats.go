// ABOUTME: NATS publisher streaming scan results and run summaries
// ABOUTME: Handles connection, per-file publishing, flush on finish, and graceful drain

package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/hikmaai-io/hikmaai-sigscan/internal/observability"
	"github.com/hikmaai-io/hikmaai-sigscan/internal/resilience"
	"github.com/hikmaai-io/hikmaai-sigscan/internal/scanner"
	"github.com/hikmaai-io/hikmaai-sigscan/internal/types"
)

// Header names set on every published message.
const (
	HeaderRunID   = "Sigscan-Run-Id"
	HeaderTraceID = "Sigscan-Trace-Id"
)

// ErrNotConnected is returned when publishing before Connect.
var ErrNotConnected = errors.New("not connected to NATS")

// NATSConfig holds NATS connection configuration.
type NATSConfig struct {
	// NATS server URL.
	URL string

	// Subject prefix; events go to <Subject>.result and <Subject>.summary.
	Subject string

	// Connection name for identification.
	Name string

	// Reconnect settings.
	MaxReconnects int
	ReconnectWait time.Duration

	// Flush timeout on finish.
	Timeout time.Duration

	// Consecutive publish failures after which events are dropped until
	// PublishCooldown has passed.
	MaxPublishFailures int
	PublishCooldown    time.Duration
}

// DefaultNATSConfig returns a configuration with sensible defaults.
func DefaultNATSConfig() NATSConfig {
	return NATSConfig{
		URL:           "nats://localhost:4222",
		Subject:       "sigscan",
		Name:          "sigscan",
		MaxReconnects: 5,
		ReconnectWait: 2 * time.Second,
		Timeout:       5 * time.Second,

		MaxPublishFailures: 5,
		PublishCooldown:    30 * time.Second,
	}
}

// ResultSubject returns the subject per-file events are published to.
func (c NATSConfig) ResultSubject() string {
	return c.Subject + ".result"
}

// SummarySubject returns the subject the run summary is published to.
func (c NATSConfig) SummarySubject() string {
	return c.Subject + ".summary"
}

// Publisher is a scanner.Reporter that streams events to NATS.
// Once publishing keeps failing, per-file events are dropped and counted
// instead of slowing every file down.
type Publisher struct {
	conn    *nats.Conn
	config  NATSConfig
	runID   string
	logger  *slog.Logger
	breaker *resilience.Breaker
	dropped atomic.Int64
}

var _ scanner.Reporter = (*Publisher)(nil)

// NewPublisher creates a publisher for one run.
func NewPublisher(cfg NATSConfig, runID string, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}

	p := &Publisher{
		config: cfg,
		runID:  runID,
		logger: logger,
	}
	p.breaker = resilience.NewBreaker(resilience.BreakerConfig{
		Name:        "nats",
		MaxFailures: cfg.MaxPublishFailures,
		Cooldown:    cfg.PublishCooldown,
		OnStateChange: func(name string, from, to resilience.State) {
			logger.Warn("publish breaker changed state",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
	})
	return p
}

// Connect establishes the NATS connection.
func (p *Publisher) Connect(ctx context.Context) error {
	opts := []nats.Option{
		nats.Name(p.config.Name),
		nats.MaxReconnects(p.config.MaxReconnects),
		nats.ReconnectWait(p.config.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			p.logger.Warn("NATS disconnected", slog.Any("error", err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			p.logger.Info("NATS reconnected", slog.String("url", observability.RedactURL(nc.ConnectedUrl())))
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			p.logger.Debug("NATS connection closed")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			p.logger.Error("NATS error", slog.Any("error", err))
		}),
	}

	conn, err := nats.Connect(p.config.URL, opts...)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}

	p.conn = conn
	observability.LogWithContext(ctx, p.logger, slog.LevelInfo, "connected to NATS",
		slog.String("url", observability.RedactURL(conn.ConnectedUrl())),
		slog.String("server_id", conn.ConnectedServerId()),
	)

	return nil
}

// Report publishes one ResultEvent. While the breaker is open the event is
// dropped and nil is returned.
func (p *Publisher) Report(ctx context.Context, r types.MatchResult) error {
	if p.conn == nil {
		return ErrNotConnected
	}

	err := p.guarded(ctx, p.config.ResultSubject(), NewResultEvent(p.runID, r))
	if errors.Is(err, resilience.ErrOpen) {
		p.dropped.Add(1)
		return nil
	}
	return err
}

// Finish publishes the SummaryEvent and flushes pending messages.
// It fails if any result event was dropped.
func (p *Publisher) Finish(ctx context.Context, s *scanner.Summary) error {
	if p.conn == nil {
		return ErrNotConnected
	}

	// The summary always gets one attempt, even with the breaker open.
	if err := p.publish(ctx, p.config.SummarySubject(), NewSummaryEvent(s)); err != nil {
		return err
	}

	if err := p.conn.FlushTimeout(p.config.Timeout); err != nil {
		return fmt.Errorf("failed to flush NATS: %w", err)
	}

	if n := p.dropped.Load(); n > 0 {
		return fmt.Errorf("%d result events dropped: %w", n, resilience.ErrOpen)
	}
	return nil
}

// Dropped returns the number of result events skipped by the breaker.
func (p *Publisher) Dropped() int64 {
	return p.dropped.Load()
}

func (p *Publisher) guarded(ctx context.Context, subject string, event any) error {
	return p.breaker.Execute(ctx, func(ctx context.Context) error {
		return p.publish(ctx, subject, event)
	})
}

func (p *Publisher) publish(ctx context.Context, subject string, event any) error {
	if p.conn == nil {
		return ErrNotConnected
	}

	ctx, span := observability.StartSpan(ctx, "nats.publish",
		trace.WithAttributes(attribute.String("messaging.destination", subject)))
	defer span.End()

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := NewMessage(ctx, subject, p.runID, data)
	if err := p.conn.PublishMsg(msg); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to publish to %s: %w", subject, err)
	}

	return nil
}

// NewMessage builds a message carrying the run and trace identifiers.
func NewMessage(ctx context.Context, subject, runID string, data []byte) *nats.Msg {
	msg := nats.NewMsg(subject)
	msg.Data = data
	msg.Header.Set(HeaderRunID, runID)
	if traceID := observability.ExtractTraceID(ctx); traceID != "" {
		msg.Header.Set(HeaderTraceID, traceID)
	}
	return msg
}

// Close drains and closes the NATS connection.
func (p *Publisher) Close() error {
	if p.conn == nil {
		return nil
	}

	if err := p.conn.Drain(); err != nil {
		p.logger.Warn("failed to drain NATS connection", slog.Any("error", err))
		p.conn.Close()
	}

	return nil
}

// IsConnected returns true if connected to NATS.
func (p *Publisher) IsConnected() bool {
	return p.conn != nil && p.conn.IsConnected()
}
