package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/inquiro/research-agent/internal/domain"
)

// Compile-time interface verification.
var _ TopicRepository = (*PgTopicRepository)(nil)

// PgTopicRepository is a PostgreSQL implementation of TopicRepository.
type PgTopicRepository struct {
	db DBTX
}

// NewPgTopicRepository creates a new PostgreSQL topic repository.
func NewPgTopicRepository(db DBTX) *PgTopicRepository {
	return &PgTopicRepository{db: db}
}

// Create inserts a new research topic.
func (r *PgTopicRepository) Create(ctx context.Context, topic *domain.Topic) error {
	if topic == nil {
		return domain.NewValidationError("topic", "topic cannot be nil")
	}
	if topic.ID == uuid.Nil {
		return domain.NewValidationError("id", "topic ID is required")
	}
	if topic.Status == "" {
		return domain.NewValidationError("status", "topic status is required")
	}

	query := `
		INSERT INTO topics (id, topic, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.db.Exec(ctx, query,
		topic.ID, topic.Topic, topic.Status, topic.CreatedAt, topic.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create topic: %w", err)
	}

	return nil
}

// Get retrieves a topic by its ID.
func (r *PgTopicRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Topic, error) {
	query := `
		SELECT id, topic, status, created_at, updated_at
		FROM topics
		WHERE id = $1`

	var topic domain.Topic
	err := r.db.QueryRow(ctx, query, id).Scan(
		&topic.ID, &topic.Topic, &topic.Status, &topic.CreatedAt, &topic.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("topic", id.String())
		}
		return nil, fmt.Errorf("failed to get topic: %w", err)
	}

	return &topic, nil
}

// List retrieves topics ordered by creation time, newest first.
func (r *PgTopicRepository) List(ctx context.Context, limit, offset int) ([]*domain.Topic, int64, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM topics`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count topics: %w", err)
	}

	query := `
		SELECT id, topic, status, created_at, updated_at
		FROM topics
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`

	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list topics: %w", err)
	}
	defer rows.Close()

	topics := make([]*domain.Topic, 0, limit)
	for rows.Next() {
		var topic domain.Topic
		if err := rows.Scan(
			&topic.ID, &topic.Topic, &topic.Status, &topic.CreatedAt, &topic.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan topic: %w", err)
		}
		topics = append(topics, &topic)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate topics: %w", err)
	}

	return topics, total, nil
}

// UpdateStatus updates the status of a topic and bumps updated_at.
func (r *PgTopicRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.TopicStatus) error {
	query := `
		UPDATE topics
		SET status = $2, updated_at = NOW()
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("failed to update topic status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFoundError("topic", id.String())
	}

	return nil
}

// DeleteOlderThan removes topics in any of the given statuses whose
// updated_at is before the cutoff.
func (r *PgTopicRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time, statuses []domain.TopicStatus) (int64, error) {
	if len(statuses) == 0 {
		return 0, nil
	}

	states := make([]string, len(statuses))
	for i, s := range statuses {
		states[i] = string(s)
	}

	query := `
		DELETE FROM topics
		WHERE updated_at < $1 AND status = ANY($2)`

	tag, err := r.db.Exec(ctx, query, cutoff, states)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old topics: %w", err)
	}

	return tag.RowsAffected(), nil
}
