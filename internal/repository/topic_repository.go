package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/inquiro/research-agent/internal/domain"
)

// TopicRepository manages research topic lifecycle and state.
type TopicRepository interface {
	// Create inserts a new research topic.
	// Returns domain.ErrInvalidInput if required fields are missing.
	Create(ctx context.Context, topic *domain.Topic) error

	// Get retrieves a topic by its ID.
	// Returns domain.ErrNotFound if no matching topic exists.
	Get(ctx context.Context, id uuid.UUID) (*domain.Topic, error)

	// List retrieves topics ordered by creation time, newest first.
	// Returns the matching topics and the total count for pagination.
	List(ctx context.Context, limit, offset int) ([]*domain.Topic, int64, error)

	// UpdateStatus updates the status of a topic and bumps updated_at.
	// Returns domain.ErrNotFound if no matching topic exists.
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.TopicStatus) error

	// DeleteOlderThan removes topics in any of the given statuses whose
	// updated_at is before the cutoff. Stage logs and results are removed
	// by cascade. Returns the number of topics deleted.
	DeleteOlderThan(ctx context.Context, cutoff time.Time, statuses []domain.TopicStatus) (int64, error)
}

// StageLogRepository manages the append-only stage audit trail.
type StageLogRepository interface {
	// Append inserts a stage log entry. Entries are never updated or
	// deleted individually; they only go away with their topic.
	Append(ctx context.Context, log *domain.StageLog) error

	// ListByTopic retrieves all stage log entries for a topic, ordered
	// by stage number and then creation time so repeated runs read in
	// execution order.
	ListByTopic(ctx context.Context, topicID uuid.UUID) ([]*domain.StageLog, error)
}

// ResultRepository manages persisted research results.
type ResultRepository interface {
	// BulkInsert writes a batch of results in a single round trip.
	// An empty batch is a no-op.
	BulkInsert(ctx context.Context, results []*domain.Result) error

	// ListByTopic retrieves the results for a topic in insertion order.
	ListByTopic(ctx context.Context, topicID uuid.UUID) ([]*domain.Result, error)

	// CountByTopic returns the number of results stored for a topic.
	CountByTopic(ctx context.Context, topicID uuid.UUID) (int64, error)
}
