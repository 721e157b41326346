package events

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/IBM/sarama"
	"github.com/goccy/go-json"

	"github.com/oggyb/engagement-engine/internal/config"
	"github.com/oggyb/engagement-engine/internal/domain"
	"github.com/oggyb/engagement-engine/internal/metrics"
	"github.com/oggyb/engagement-engine/internal/reward"
)

const TypeMessageSent = "message.sent"

// MessageEvent is what the messaging service writes for every delivered
// chat message. Only the fields the engine reads are declared.
type MessageEvent struct {
	ID     string `json:"id"`
	Type   string `json:"type"`
	ChatID string `json:"chatId"`
	Sender string `json:"sender"`
	At     int64  `json:"at"`
}

// Rewarder is the slice of reward.Distributor the consumer needs.
type Rewarder interface {
	Distribute(ctx context.Context, user domain.UserID, kind reward.Kind) (domain.Amount, error)
}

// MessageRewardHandler pays the message reward to the sender of every
// message.sent event. Rewards are best effort: a failed grant is logged and
// the offset still moves on, like the rewards paid on match formation.
type MessageRewardHandler struct {
	rewards Rewarder
	logger  *slog.Logger
}

var _ sarama.ConsumerGroupHandler = (*MessageRewardHandler)(nil)

func NewMessageRewardHandler(rewards Rewarder, logger *slog.Logger) *MessageRewardHandler {
	return &MessageRewardHandler{rewards: rewards, logger: logger.With("component", "message-consumer")}
}

func (h *MessageRewardHandler) Setup(sarama.ConsumerGroupSession) error {
	h.logger.Info("message consumer setup")
	return nil
}

func (h *MessageRewardHandler) Cleanup(sarama.ConsumerGroupSession) error {
	h.logger.Info("message consumer cleanup")
	return nil
}

func (h *MessageRewardHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case msg, ok := <-claim.Messages():
			if !ok {
				return nil
			}
			h.Handle(session.Context(), msg)
			session.MarkMessage(msg, "")
		case <-session.Context().Done():
			return nil
		}
	}
}

// Handle processes one record. Malformed records and other event types are
// skipped.
func (h *MessageRewardHandler) Handle(ctx context.Context, msg *sarama.ConsumerMessage) {
	var ev MessageEvent
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		metrics.EventsConsumedTotal.WithLabelValues("unknown", "malformed").Inc()
		h.logger.Warn("skipping malformed message event",
			"partition", msg.Partition, "offset", msg.Offset, "err", err)
		return
	}
	if ev.Type != TypeMessageSent {
		metrics.EventsConsumedTotal.WithLabelValues(ev.Type, "ignored").Inc()
		return
	}
	sender := domain.UserID(ev.Sender)
	if !sender.Valid() {
		metrics.EventsConsumedTotal.WithLabelValues(ev.Type, "malformed").Inc()
		h.logger.Warn("message event without sender", "event_id", ev.ID, "offset", msg.Offset)
		return
	}

	granted, err := h.rewards.Distribute(ctx, sender, reward.KindMessage)
	if err != nil {
		metrics.EventsConsumedTotal.WithLabelValues(ev.Type, "error").Inc()
		h.logger.Error("message reward failed", "event_id", ev.ID, "user", sender, "err", err)
		return
	}
	metrics.EventsConsumedTotal.WithLabelValues(ev.Type, "ok").Inc()
	h.logger.Debug("message reward granted", "event_id", ev.ID, "user", sender, "amount", granted.String())
}

// NewConsumerGroup joins cfg.Kafka.GroupID on the configured brokers.
func NewConsumerGroup(cfg *config.Config) (sarama.ConsumerGroup, error) {
	c := newSaramaConfig()
	c.Consumer.Return.Errors = true
	c.Consumer.Offsets.Initial = sarama.OffsetNewest
	c.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}
	group, err := sarama.NewConsumerGroup(cfg.Kafka.Brokers, cfg.Kafka.GroupID, c)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer group: %w", err)
	}
	return group, nil
}

// Consume runs handler on topic until ctx ends, rejoining after every
// rebalance or transient error.
func Consume(ctx context.Context, group sarama.ConsumerGroup, topic string, handler sarama.ConsumerGroupHandler, logger *slog.Logger) error {
	defer func() {
		if err := group.Close(); err != nil {
			logger.Error("failed to close consumer group", "err", err)
		}
	}()

	go func() {
		for err := range group.Errors() {
			logger.Error("consumer group error", "topic", topic, "err", err)
		}
	}()

	logger.Info("kafka consumer started", "topic", topic)
	for {
		if err := group.Consume(ctx, []string{topic}, handler); err != nil {
			logger.Error("error from consumer", "topic", topic, "err", err)
			select {
			case <-ctx.Done():
			case <-time.After(time.Second):
			}
		}
		if ctx.Err() != nil {
			logger.Info("kafka consumer stopped", "topic", topic)
			return nil
		}
	}
}
