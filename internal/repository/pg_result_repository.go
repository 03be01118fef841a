package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/inquiro/research-agent/internal/domain"
)

// Compile-time interface verification.
var _ ResultRepository = (*PgResultRepository)(nil)

// PgResultRepository is a PostgreSQL implementation of ResultRepository.
type PgResultRepository struct {
	db DBTX
}

// NewPgResultRepository creates a new PostgreSQL result repository.
func NewPgResultRepository(db DBTX) *PgResultRepository {
	return &PgResultRepository{db: db}
}

// BulkInsert writes a batch of results in a single round trip using a
// pgx batch.
func (r *PgResultRepository) BulkInsert(ctx context.Context, results []*domain.Result) error {
	if len(results) == 0 {
		return nil
	}

	for i, result := range results {
		if result == nil {
			return domain.NewValidationError("result", fmt.Sprintf("result at index %d is nil", i))
		}
		if result.TopicID == uuid.Nil {
			return domain.NewValidationError("topic_id", fmt.Sprintf("result at index %d has no topic ID", i))
		}
	}

	query := `
		INSERT INTO results (id, topic_id, title, url, summary, keywords, source, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	now := time.Now().UTC()
	batch := &pgx.Batch{}
	for _, result := range results {
		if result.ID == uuid.Nil {
			result.ID = uuid.New()
		}
		if result.CreatedAt.IsZero() {
			result.CreatedAt = now
		}
		batch.Queue(query,
			result.ID, result.TopicID, result.Title, result.URL,
			result.Summary, result.Keywords, result.Source, result.CreatedAt,
		)
	}

	br := r.db.SendBatch(ctx, batch)
	defer br.Close()

	for i := range results {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("failed to insert result %d: %w", i, err)
		}
	}

	return nil
}

// ListByTopic retrieves the results for a topic in insertion order.
func (r *PgResultRepository) ListByTopic(ctx context.Context, topicID uuid.UUID) ([]*domain.Result, error) {
	query := `
		SELECT id, topic_id, title, url, summary, keywords, source, created_at
		FROM results
		WHERE topic_id = $1
		ORDER BY created_at ASC, id ASC`

	rows, err := r.db.Query(ctx, query, topicID)
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}
	defer rows.Close()

	results := make([]*domain.Result, 0, 8)
	for rows.Next() {
		var result domain.Result
		if err := rows.Scan(
			&result.ID, &result.TopicID, &result.Title, &result.URL,
			&result.Summary, &result.Keywords, &result.Source, &result.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		results = append(results, &result)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate results: %w", err)
	}

	return results, nil
}

// CountByTopic returns the number of results stored for a topic.
func (r *PgResultRepository) CountByTopic(ctx context.Context, topicID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM results WHERE topic_id = $1`, topicID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count results: %w", err)
	}
	return count, nil
}
