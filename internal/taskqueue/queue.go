// Package taskqueue dispatches queued research topics to the workflow
// executor. The default deployment enqueues through Kafka so dedicated
// workers pick topics up; a single-process deployment can run the
// inline queue instead, which executes the workflow in a background
// goroutine of the API server itself.
package taskqueue

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// defaultRunTimeout bounds a single inline workflow execution.
const defaultRunTimeout = 5 * time.Minute

// Runner executes the research workflow for one topic.
type Runner interface {
	Run(ctx context.Context, topicID uuid.UUID) error
}

// Queue accepts topics for asynchronous workflow execution.
type Queue interface {
	Enqueue(ctx context.Context, topicID uuid.UUID) error
}

// InlineQueue runs workflows in-process. Enqueue returns immediately;
// the workflow executes in a background goroutine detached from the
// caller's context.
type InlineQueue struct {
	runner  Runner
	logger  zerolog.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewInlineQueue creates an in-process queue. A non-positive timeout
// falls back to the default run timeout.
func NewInlineQueue(runner Runner, logger zerolog.Logger, timeout time.Duration) *InlineQueue {
	if timeout <= 0 {
		timeout = defaultRunTimeout
	}
	return &InlineQueue{
		runner:  runner,
		logger:  logger.With().Str("component", "inline_queue").Logger(),
		timeout: timeout,
	}
}

// Enqueue starts the workflow in a background goroutine and returns
// immediately. Run errors are logged, not returned; the workflow
// records its own failure state.
func (q *InlineQueue) Enqueue(_ context.Context, topicID uuid.UUID) error {
	q.wg.Add(1)
	go func() {
		defer q.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
		defer cancel()

		if err := q.runner.Run(ctx, topicID); err != nil {
			q.logger.Error().Err(err).
				Str("topic_id", topicID.String()).
				Msg("inline workflow run failed")
		}
	}()
	return nil
}

// Wait blocks until all in-flight workflow runs finish. Call during
// shutdown after the HTTP server stops accepting requests.
func (q *InlineQueue) Wait() {
	q.wg.Wait()
}

// FallbackQueue tries a primary queue and falls back to a secondary
// one when the primary fails, so topic submission survives a broker
// outage.
type FallbackQueue struct {
	primary   Queue
	secondary Queue
	logger    zerolog.Logger
}

// NewFallbackQueue creates a queue that prefers primary and falls back
// to secondary on enqueue errors.
func NewFallbackQueue(primary, secondary Queue, logger zerolog.Logger) *FallbackQueue {
	return &FallbackQueue{
		primary:   primary,
		secondary: secondary,
		logger:    logger.With().Str("component", "fallback_queue").Logger(),
	}
}

// Enqueue submits to the primary queue, using the secondary only if
// the primary returns an error.
func (q *FallbackQueue) Enqueue(ctx context.Context, topicID uuid.UUID) error {
	err := q.primary.Enqueue(ctx, topicID)
	if err == nil {
		return nil
	}

	q.logger.Warn().Err(err).
		Str("topic_id", topicID.String()).
		Msg("primary queue unavailable, using fallback")
	return q.secondary.Enqueue(ctx, topicID)
}
