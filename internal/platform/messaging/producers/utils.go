package producers

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

const partitionReadRetries = 5

// createKafkaTopicIfNotExists ensures topicName exists on the broker behind
// conn. Partition reads are retried because a freshly started broker can
// answer before its metadata settles.
func createKafkaTopicIfNotExists(conn *kafka.Conn, topicName string, numPartitions int, replicationFactor int, log *slog.Logger) error {
	var partitions []kafka.Partition
	var err error

	log.Info("Checking if Kafka topic exists", "topic", topicName)
	for attempt := 1; attempt <= partitionReadRetries; attempt++ {
		partitions, err = conn.ReadPartitions(topicName)
		if err == nil {
			break
		}
		log.Warn("Failed to read partitions, retrying...", "topic", topicName, "attempt", attempt, "error", err)
		time.Sleep(2 * time.Second)
	}

	if len(partitions) > 0 {
		if err == nil {
			log.Info("Kafka topic already exists", "topic", topicName)
		} else {
			log.Warn("Kafka topic seems to exist but the final partition read failed", "topic", topicName, "error", err)
		}
		return nil
	}

	log.Info("Kafka topic does not exist or is not accessible, attempting to create it", "topic", topicName, "last_read_error", err)

	if numPartitions <= 0 {
		numPartitions = 1
		log.Debug("Defaulting NumPartitions to 1 for topic creation", "topic", topicName)
	}
	if replicationFactor <= 0 {
		replicationFactor = 1
		log.Debug("Defaulting ReplicationFactor to 1 for topic creation", "topic", topicName)
	}

	topicConfig := kafka.TopicConfig{
		Topic:             topicName,
		NumPartitions:     numPartitions,
		ReplicationFactor: replicationFactor,
	}
	if createErr := conn.CreateTopics(topicConfig); createErr != nil {
		return fmt.Errorf("failed to create kafka topic %s: %w", topicName, createErr)
	}

	log.Info("Successfully created Kafka topic", "topic", topicName)
	return nil
}
