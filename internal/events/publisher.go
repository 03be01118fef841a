// Package events publishes workflow progress events to Kafka so other
// services can follow research runs without polling the API.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// Event types emitted over the workflow event topic.
const (
	EventTypeProgress  = "workflow.progress"
	EventTypeCompleted = "workflow.completed"
	EventTypeFailed    = "workflow.failed"
)

// WorkflowEvent is the wire format of one workflow lifecycle event.
// Stage fields are only set on progress events; Error only on failure
// events; ResultCount only on completion events.
type WorkflowEvent struct {
	Type         string    `json:"type"`
	TopicID      uuid.UUID `json:"topic_id"`
	CurrentStage int       `json:"current_stage,omitempty"`
	TotalStages  int       `json:"total_stages,omitempty"`
	StageName    string    `json:"stage_name,omitempty"`
	Message      string    `json:"message"`
	ResultCount  int       `json:"result_count,omitempty"`
	Error        string    `json:"error,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// Config holds settings for the event publisher.
type Config struct {
	// Brokers is the list of Kafka broker addresses.
	Brokers []string
	// Topic is the Kafka topic for workflow events.
	Topic string
	// BatchTimeout bounds how long the producer buffers messages.
	BatchTimeout time.Duration
}

// Publisher sends workflow lifecycle events to Kafka. It satisfies the
// workflow reporter interface. Publish failures are logged and dropped
// since events are advisory and must never fail a workflow run.
type Publisher struct {
	writer *kafka.Writer
	logger zerolog.Logger
}

// NewPublisher creates a Kafka event publisher.
func NewPublisher(cfg Config, logger zerolog.Logger) *Publisher {
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

	return &Publisher{
		writer: writer,
		logger: logger.With().Str("component", "event_publisher").Logger(),
	}
}

// Progress reports that a workflow stage is about to run.
func (p *Publisher) Progress(ctx context.Context, topicID uuid.UUID, currentStage, totalStages int, stageName string) {
	p.publish(ctx, WorkflowEvent{
		Type:         EventTypeProgress,
		TopicID:      topicID,
		CurrentStage: currentStage,
		TotalStages:  totalStages,
		StageName:    stageName,
		Message:      "Executing " + stageName,
		OccurredAt:   time.Now().UTC(),
	})
}

// Completed reports a successful workflow run.
func (p *Publisher) Completed(ctx context.Context, topicID uuid.UUID, resultCount int) {
	p.publish(ctx, WorkflowEvent{
		Type:        EventTypeCompleted,
		TopicID:     topicID,
		Message:     "Research workflow completed successfully",
		ResultCount: resultCount,
		OccurredAt:  time.Now().UTC(),
	})
}

// Failed reports a failed workflow run.
func (p *Publisher) Failed(ctx context.Context, topicID uuid.UUID, err error) {
	p.publish(ctx, WorkflowEvent{
		Type:       EventTypeFailed,
		TopicID:    topicID,
		Message:    "Research workflow failed",
		Error:      err.Error(),
		OccurredAt: time.Now().UTC(),
	})
}

func (p *Publisher) publish(ctx context.Context, event WorkflowEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Error().Err(err).Str("type", event.Type).Msg("failed to marshal workflow event")
		return
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.TopicID.String()),
		Value: payload,
	})
	if err != nil {
		p.logger.Warn().Err(err).
			Str("type", event.Type).
			Str("topic_id", event.TopicID.String()).
			Msg("failed to publish workflow event")
		return
	}

	p.logger.Debug().
		Str("type", event.Type).
		Str("topic_id", event.TopicID.String()).
		Msg("workflow event published")
}

// Close flushes and closes the producer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
