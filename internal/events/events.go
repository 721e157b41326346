// Package events publishes match lifecycle events for downstream services
// (messaging opens the chat, notifications ping both users).
package events

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/IBM/sarama"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/oggyb/engagement-engine/internal/config"
	"github.com/oggyb/engagement-engine/internal/metrics"
)

const (
	TypeMatchCreated   = "match.created"
	TypeMatchUnmatched = "match.unmatched"
)

// MatchEvent is the payload written to the match topic.
type MatchEvent struct {
	ID      string   `json:"id"`
	Type    string   `json:"type"`
	MatchID string   `json:"matchId"`
	ChatID  string   `json:"chatId"`
	Users   []string `json:"users"`
	// Actor is the user whose action produced the event.
	Actor string `json:"actor"`
	// At is unix nanoseconds.
	At int64 `json:"at"`
}

// NewMatchEvent stamps a fresh event id.
func NewMatchEvent(typ, matchID, chatID, actor string, users []string, at int64) MatchEvent {
	return MatchEvent{
		ID:      uuid.NewString(),
		Type:    typ,
		MatchID: matchID,
		ChatID:  chatID,
		Users:   users,
		Actor:   actor,
		At:      at,
	}
}

// Publisher delivers events after the state change has committed.
// Delivery is best effort: a failed publish never undoes the change.
type Publisher interface {
	Publish(ctx context.Context, ev MatchEvent) error
	Close() error
}

// KafkaPublisher writes events keyed by match id, so every event of one
// pair lands on the same partition in order.
type KafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
	logger   *slog.Logger
}

// NewKafkaPublisher dials the brokers from cfg.
func NewKafkaPublisher(cfg *config.Config, logger *slog.Logger) (*KafkaPublisher, error) {
	producer, err := sarama.NewSyncProducer(cfg.Kafka.Brokers, newSaramaConfig())
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return NewKafkaPublisherWithProducer(producer, cfg.Kafka.Topic, logger), nil
}

// NewKafkaPublisherWithProducer wraps an existing producer (tests use
// sarama/mocks).
func NewKafkaPublisherWithProducer(producer sarama.SyncProducer, topic string, logger *slog.Logger) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic, logger: logger.With("component", "events")}
}

func newSaramaConfig() *sarama.Config {
	c := sarama.NewConfig()
	c.ClientID = "engagement-engine"
	c.Producer.RequiredAcks = sarama.WaitForAll
	c.Producer.Idempotent = true
	c.Net.MaxOpenRequests = 1
	c.Producer.Retry.Max = 5
	c.Producer.Retry.Backoff = 100 * time.Millisecond
	c.Producer.Return.Successes = true
	c.Producer.Return.Errors = true
	return c
}

func (p *KafkaPublisher) Publish(ctx context.Context, ev MatchEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(ev.MatchID),
		Value: sarama.ByteEncoder(payload),
		Headers: []sarama.RecordHeader{
			{Key: []byte("type"), Value: []byte(ev.Type)},
			{Key: []byte("event-id"), Value: []byte(ev.ID)},
		},
	}
	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		metrics.EventsPublishedTotal.WithLabelValues(ev.Type, "error").Inc()
		return fmt.Errorf("publish %s: %w", ev.Type, err)
	}
	metrics.EventsPublishedTotal.WithLabelValues(ev.Type, "ok").Inc()
	p.logger.Debug("event published",
		"type", ev.Type, "match_id", ev.MatchID, "partition", partition, "offset", offset)
	return nil
}

func (p *KafkaPublisher) Close() error { return p.producer.Close() }

// LogPublisher only logs events. It is used when no brokers are configured.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger.With("component", "events")}
}

func (p *LogPublisher) Publish(ctx context.Context, ev MatchEvent) error {
	metrics.EventsPublishedTotal.WithLabelValues(ev.Type, "logged").Inc()
	p.logger.InfoContext(ctx, "match event",
		"type", ev.Type, "match_id", ev.MatchID, "chat_id", ev.ChatID, "users", ev.Users, "actor", ev.Actor)
	return nil
}

func (p *LogPublisher) Close() error { return nil }

// NewPublisher picks Kafka when brokers are configured, the log otherwise.
func NewPublisher(cfg *config.Config, logger *slog.Logger) (Publisher, error) {
	if len(cfg.Kafka.Brokers) == 0 {
		logger.Warn("KAFKA_BROKERS not set, match events will only be logged")
		return NewLogPublisher(logger), nil
	}
	return NewKafkaPublisher(cfg, logger)
}
