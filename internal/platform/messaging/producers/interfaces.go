// Package producers holds the Kafka producing side of the service. The
// consuming side lives in downstream systems; this service only emits.
package producers

import (
	"context"

	"github.com/segmentio/kafka-go"
)

// MessagePublisher publishes a keyed message to a topic. The outbox poller
// depends on this rather than on a concrete producer.
type MessagePublisher interface {
	Publish(ctx context.Context, key string, value interface{}) error
	Close() error
}

// KafkaWriter wraps the kafka.Writer methods we use, for testability.
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}
