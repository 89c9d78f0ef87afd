package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/SscSPs/escrow_ledger_app/internal/core/domain"
	"github.com/segmentio/kafka-go"
)

// LogSink writes every event to the structured log. Flagged events and
// security events are logged at warn level.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Name() string { return "log" }

func (s *LogSink) Deliver(ctx context.Context, event domain.MonitorEvent) error {
	level := slog.LevelInfo
	if event.Flagged || event.Kind == domain.MonitorSecurityEvent {
		level = slog.LevelWarn
	}
	s.logger.LogAttrs(ctx, level, "Security monitor event",
		slog.String("kind", string(event.Kind)),
		slog.String("action", string(event.Action)),
		slog.String("resource_id", event.ResourceID),
		slog.String("actor_id", event.ActorID),
		slog.Int64("amount", event.Amount),
		slog.String("currency", event.CurrencyCode),
		slog.Int("risk_score", event.RiskScore),
		slog.Bool("flagged", event.Flagged),
		slog.String("flag_reason", event.FlagReason))
	return nil
}

// Enqueuer is the subset of the PostHog client used by PosthogSink.
type Enqueuer interface {
	Enqueue(distinctID string, event string, properties map[string]any)
}

// PosthogSink captures events as product analytics, keyed by the acting user.
type PosthogSink struct {
	client Enqueuer
}

func NewPosthogSink(client Enqueuer) *PosthogSink {
	return &PosthogSink{client: client}
}

func (s *PosthogSink) Name() string { return "posthog" }

func (s *PosthogSink) Deliver(ctx context.Context, event domain.MonitorEvent) error {
	distinctID := event.ActorID
	if distinctID == "" {
		distinctID = domain.SystemActorID
	}
	props := map[string]any{
		"kind":        string(event.Kind),
		"resource_id": event.ResourceID,
		"amount":      event.Amount,
		"currency":    event.CurrencyCode,
		"risk_score":  event.RiskScore,
		"flagged":     event.Flagged,
	}
	if event.Severity != "" {
		props["severity"] = string(event.Severity)
	}
	if event.FlagReason != "" {
		props["flag_reason"] = event.FlagReason
	}
	for k, v := range event.Attributes {
		props[k] = v
	}
	s.client.Enqueue(distinctID, "escrow_ledger."+string(event.Action), props)
	return nil
}

// MessageWriter is the subset of *kafka.Writer used by KafkaSink.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// KafkaSink publishes events as JSON, keyed by resource id so that events
// about one resource stay ordered within a partition.
type KafkaSink struct {
	writer  MessageWriter
	timeout time.Duration
}

func NewKafkaSink(writer MessageWriter) *KafkaSink {
	return &KafkaSink{writer: writer, timeout: 5 * time.Second}
}

// NewKafkaWriter builds a writer for topic on brokers.
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
		BatchTimeout:           50 * time.Millisecond,
	}
}

func (s *KafkaSink) Name() string { return "kafka" }

func (s *KafkaSink) Deliver(ctx context.Context, event domain.MonitorEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal monitor event: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.ResourceID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "kind", Value: []byte(event.Kind)},
			{Key: "flagged", Value: []byte(strconv.FormatBool(event.Flagged))},
		},
		Time: event.OccurredAt,
	})
}
