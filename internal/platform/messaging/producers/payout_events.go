package producers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/laala-payout-service/internal/config"
	"github.com/segmentio/kafka-go"
)

// PayoutEventProducer publishes payout lifecycle events (debits, credits,
// failed processing attempts) for downstream consumers such as notification
// senders. Events are fed from the transactional outbox, so nothing is
// emitted for a rolled-back balance movement.
type PayoutEventProducer struct {
	logger *slog.Logger
	writer KafkaWriter // Interface for testability
	topic  string
}

// NewPayoutEventProducer creates the producer and ensures the topic exists
func NewPayoutEventProducer(ctx context.Context, logger *slog.Logger, cfg *config.KafkaConfig) (*PayoutEventProducer, error) {
	if cfg.PayoutEventsTopic == "" {
		return nil, fmt.Errorf("kafka payout events topic is not configured")
	}

	conn, err := kafka.Dial("tcp", cfg.Brokers)
	if err != nil {
		return nil, fmt.Errorf("failed to dial kafka for payout event producer: %w", err)
	}
	defer conn.Close()

	err = createKafkaTopicIfNotExists(conn, cfg.PayoutEventsTopic, cfg.NumPartitions, cfg.ReplicationFactor, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure payout events topic %s exists: %w", cfg.PayoutEventsTopic, err)
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers),
		Topic:        cfg.PayoutEventsTopic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		WriteTimeout: cfg.MaxWait,
	}

	return &PayoutEventProducer{
		logger: logger,
		writer: writer,
		topic:  cfg.PayoutEventsTopic,
	}, nil
}

func (p *PayoutEventProducer) Publish(ctx context.Context, key string, value interface{}) error {
	jsonValue, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal payout event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: jsonValue,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish payout event",
			"topic", p.topic,
			"key", key,
			"error", err,
		)
		return fmt.Errorf("failed to publish payout event to %s: %w", p.topic, err)
	}

	p.logger.Debug("Published payout event",
		"topic", p.topic,
		"key", key,
	)
	return nil
}

func (p *PayoutEventProducer) Close() error {
	p.logger.Info("Closing payout event producer", "topic", p.topic)
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka writer for topic %s: %w", p.topic, err)
	}
	return nil
}
