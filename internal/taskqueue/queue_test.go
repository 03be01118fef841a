package taskqueue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRunner struct {
	mu   sync.Mutex
	runs []uuid.UUID
	err  error
}

func (r *stubRunner) Run(_ context.Context, topicID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, topicID)
	return r.err
}

func (r *stubRunner) ranTopics() []uuid.UUID {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]uuid.UUID, len(r.runs))
	copy(out, r.runs)
	return out
}

type stubQueue struct {
	mu       sync.Mutex
	enqueued []uuid.UUID
	err      error
}

func (q *stubQueue) Enqueue(_ context.Context, topicID uuid.UUID) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.enqueued = append(q.enqueued, topicID)
	return nil
}

func TestInlineQueueRunsWorkflow(t *testing.T) {
	runner := &stubRunner{}
	queue := NewInlineQueue(runner, zerolog.Nop(), time.Second)

	topicID := uuid.New()
	require.NoError(t, queue.Enqueue(context.Background(), topicID))
	queue.Wait()

	require.Len(t, runner.ranTopics(), 1)
	assert.Equal(t, topicID, runner.ranTopics()[0])
}

func TestInlineQueueSwallowsRunError(t *testing.T) {
	runner := &stubRunner{err: errors.New("workflow failed")}
	queue := NewInlineQueue(runner, zerolog.Nop(), time.Second)

	require.NoError(t, queue.Enqueue(context.Background(), uuid.New()))
	queue.Wait()

	assert.Len(t, runner.ranTopics(), 1)
}

func TestInlineQueueConcurrentEnqueues(t *testing.T) {
	runner := &stubRunner{}
	queue := NewInlineQueue(runner, zerolog.Nop(), time.Second)

	for i := 0; i < 10; i++ {
		require.NoError(t, queue.Enqueue(context.Background(), uuid.New()))
	}
	queue.Wait()

	assert.Len(t, runner.ranTopics(), 10)
}

func TestFallbackQueuePrefersPrimary(t *testing.T) {
	primary := &stubQueue{}
	secondary := &stubQueue{}
	queue := NewFallbackQueue(primary, secondary, zerolog.Nop())

	topicID := uuid.New()
	require.NoError(t, queue.Enqueue(context.Background(), topicID))

	assert.Equal(t, []uuid.UUID{topicID}, primary.enqueued)
	assert.Empty(t, secondary.enqueued)
}

func TestFallbackQueueUsesSecondaryOnError(t *testing.T) {
	primary := &stubQueue{err: errors.New("broker unreachable")}
	secondary := &stubQueue{}
	queue := NewFallbackQueue(primary, secondary, zerolog.Nop())

	topicID := uuid.New()
	require.NoError(t, queue.Enqueue(context.Background(), topicID))

	assert.Equal(t, []uuid.UUID{topicID}, secondary.enqueued)
}

func TestFallbackQueuePropagatesSecondaryError(t *testing.T) {
	primary := &stubQueue{err: errors.New("broker unreachable")}
	secondary := &stubQueue{err: errors.New("also down")}
	queue := NewFallbackQueue(primary, secondary, zerolog.Nop())

	err := queue.Enqueue(context.Background(), uuid.New())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "also down")
}
