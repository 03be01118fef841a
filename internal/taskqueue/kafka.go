package taskqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// taskMessage is the wire format of one queued research task.
type taskMessage struct {
	TopicID    uuid.UUID `json:"topic_id"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// KafkaConfig holds connection settings shared by the Kafka producer
// and consumer.
type KafkaConfig struct {
	// Brokers is the list of Kafka broker addresses.
	Brokers []string
	// Topic is the Kafka topic carrying research tasks.
	Topic string
	// GroupID is the consumer group ID; producers ignore it.
	GroupID string
	// BatchTimeout bounds how long the producer buffers messages.
	BatchTimeout time.Duration
}

// KafkaQueue publishes research tasks to a Kafka topic. Messages are
// keyed by topic ID so retries of the same topic land on the same
// partition.
type KafkaQueue struct {
	writer *kafka.Writer
	logger zerolog.Logger
}

// NewKafkaQueue creates a Kafka-backed task queue.
func NewKafkaQueue(cfg KafkaConfig, logger zerolog.Logger) *KafkaQueue {
	batchTimeout := cfg.BatchTimeout
	if batchTimeout <= 0 {
		batchTimeout = 100 * time.Millisecond
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: batchTimeout,
		RequiredAcks: kafka.RequireOne,
	}

	return &KafkaQueue{
		writer: writer,
		logger: logger.With().Str("component", "kafka_queue").Logger(),
	}
}

// Enqueue publishes one task message.
func (q *KafkaQueue) Enqueue(ctx context.Context, topicID uuid.UUID) error {
	payload, err := json.Marshal(taskMessage{
		TopicID:    topicID,
		EnqueuedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal task message: %w", err)
	}

	err = q.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(topicID.String()),
		Value: payload,
	})
	if err != nil {
		return fmt.Errorf("write task message: %w", err)
	}

	q.logger.Debug().Str("topic_id", topicID.String()).Msg("task enqueued")
	return nil
}

// Close flushes and closes the producer.
func (q *KafkaQueue) Close() error {
	return q.writer.Close()
}

// Consumer reads research tasks from Kafka and runs the workflow for
// each one. Multiple worker processes share the load through the
// consumer group.
type Consumer struct {
	reader *kafka.Reader
	runner Runner
	logger zerolog.Logger
}

// NewConsumer creates a task consumer.
func NewConsumer(cfg KafkaConfig, runner Runner, logger zerolog.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    cfg.Topic,
		GroupID:  cfg.GroupID,
		MinBytes: 1,
		MaxBytes: 10e6,
		MaxWait:  3 * time.Second,
	})

	return &Consumer{
		reader: reader,
		runner: runner,
		logger: logger.With().Str("component", "task_consumer").Logger(),
	}
}

// Run starts the consume loop. Blocks until the context is cancelled.
// Malformed messages are logged and skipped; workflow failures are
// logged but do not stop the loop, since the workflow records its own
// failure state.
func (c *Consumer) Run(ctx context.Context) error {
	c.logger.Info().Msg("starting task consumer")

	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info().Msg("task consumer stopped via context cancellation")
				return ctx.Err()
			}
			c.logger.Error().Err(err).Msg("failed to read message from Kafka")
			continue
		}

		c.logger.Debug().
			Int("partition", msg.Partition).
			Int64("offset", msg.Offset).
			Msg("received task message")

		var task taskMessage
		if err := json.Unmarshal(msg.Value, &task); err != nil {
			c.logger.Error().Err(err).
				Str("raw_value", string(msg.Value)).
				Msg("failed to unmarshal task message")
			continue
		}
		if task.TopicID == uuid.Nil {
			c.logger.Error().
				Str("raw_value", string(msg.Value)).
				Msg("task message missing topic ID")
			continue
		}

		if err := c.runner.Run(ctx, task.TopicID); err != nil {
			c.logger.Error().Err(err).
				Str("topic_id", task.TopicID.String()).
				Msg("workflow run failed")
		}
	}
}

// Close closes the Kafka reader.
func (c *Consumer) Close() error {
	c.logger.Info().Msg("closing task consumer")
	return c.reader.Close()
}
