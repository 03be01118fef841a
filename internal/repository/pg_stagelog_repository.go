package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/inquiro/research-agent/internal/domain"
)

// Compile-time interface verification.
var _ StageLogRepository = (*PgStageLogRepository)(nil)

// PgStageLogRepository is a PostgreSQL implementation of StageLogRepository.
type PgStageLogRepository struct {
	db DBTX
}

// NewPgStageLogRepository creates a new PostgreSQL stage log repository.
func NewPgStageLogRepository(db DBTX) *PgStageLogRepository {
	return &PgStageLogRepository{db: db}
}

// Append inserts a stage log entry.
func (r *PgStageLogRepository) Append(ctx context.Context, log *domain.StageLog) error {
	if log == nil {
		return domain.NewValidationError("stage_log", "stage log cannot be nil")
	}
	if log.TopicID == uuid.Nil {
		return domain.NewValidationError("topic_id", "topic ID is required")
	}
	if log.StageNumber <= 0 {
		return domain.NewValidationError("stage_number", "stage number must be positive")
	}
	if log.ID == uuid.Nil {
		log.ID = uuid.New()
	}

	query := `
		INSERT INTO stage_logs (id, topic_id, stage_number, stage_name, status, message, duration_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.Exec(ctx, query,
		log.ID, log.TopicID, log.StageNumber, log.StageName,
		log.Status, log.Message, log.DurationMS, log.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append stage log: %w", err)
	}

	return nil
}

// ListByTopic retrieves all stage log entries for a topic in execution order.
func (r *PgStageLogRepository) ListByTopic(ctx context.Context, topicID uuid.UUID) ([]*domain.StageLog, error) {
	query := `
		SELECT id, topic_id, stage_number, stage_name, status, message, duration_ms, created_at
		FROM stage_logs
		WHERE topic_id = $1
		ORDER BY stage_number ASC, created_at ASC`

	rows, err := r.db.Query(ctx, query, topicID)
	if err != nil {
		return nil, fmt.Errorf("failed to list stage logs: %w", err)
	}
	defer rows.Close()

	logs := make([]*domain.StageLog, 0, 8)
	for rows.Next() {
		var log domain.StageLog
		if err := rows.Scan(
			&log.ID, &log.TopicID, &log.StageNumber, &log.StageName,
			&log.Status, &log.Message, &log.DurationMS, &log.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan stage log: %w", err)
		}
		logs = append(logs, &log)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate stage logs: %w", err)
	}

	return logs, nil
}
