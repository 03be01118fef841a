// Package domain provides domain models and business logic for the research agent service.
package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// TopicStatus represents the lifecycle states of a research topic.
// These values must match the check constraint on topics.status.
type TopicStatus string

const (
	TopicStatusPending    TopicStatus = "pending"
	TopicStatusQueued     TopicStatus = "queued"
	TopicStatusProcessing TopicStatus = "processing"
	TopicStatusCompleted  TopicStatus = "completed"
	TopicStatusFailed     TopicStatus = "failed"
)

// IsTerminal returns true if the status represents a final state that will not change.
func (s TopicStatus) IsTerminal() bool {
	switch s {
	case TopicStatusCompleted, TopicStatusFailed:
		return true
	default:
		return false
	}
}

// StageStatus represents the outcome of one workflow stage attempt.
// These values must match the check constraint on stage_logs.status.
type StageStatus string

const (
	StageStatusPending   StageStatus = "pending"
	StageStatusCompleted StageStatus = "completed"
	StageStatusFailed    StageStatus = "failed"
)

// MaxTopicLength is the maximum accepted length of a topic's text.
// Enforced by the workflow's validation stage rather than at submission
// time, so over-length submissions produce an auditable failed stage log.
const MaxTopicLength = 500

// Topic is a user-submitted research query tracked through the workflow.
// Topics are created on submission and mutated only by the workflow executor.
type Topic struct {
	ID        uuid.UUID
	Topic     string
	Status    TopicStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewTopic creates a Topic in the queued state with a fresh identifier.
func NewTopic(text string) *Topic {
	now := time.Now().UTC()
	return &Topic{
		ID:        uuid.New(),
		Topic:     text,
		Status:    TopicStatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate checks the topic text against the workflow's validation rules.
func (t *Topic) Validate() error {
	if strings.TrimSpace(t.Topic) == "" {
		return NewValidationError("topic", "invalid or empty research topic")
	}
	if len(t.Topic) > MaxTopicLength {
		return NewValidationError("topic", "research topic too long (max 500 characters)")
	}
	return nil
}

// StageLog is an append-only audit record of one workflow stage attempt.
// StageNumber is 1..5 for the regular stages; a number beyond the last
// stage marks a workflow-level failure summary entry.
type StageLog struct {
	ID          uuid.UUID
	TopicID     uuid.UUID
	StageNumber int
	StageName   string
	Status      StageStatus
	Message     string
	DurationMS  int64
	CreatedAt   time.Time
}

// Article is a normalized piece of content fetched from one external source.
// Articles are transient: they exist between the gathering and processing
// stages and are never persisted.
type Article struct {
	Title   string
	URL     string
	Content string
	Source  string
}

// Result is a persisted, processed article tied to a Topic. Results are
// written once during the persistence stage and never mutated.
type Result struct {
	ID        uuid.UUID
	TopicID   uuid.UUID
	Title     string
	URL       string
	Summary   string
	Keywords  []string
	Source    string
	CreatedAt time.Time
}
