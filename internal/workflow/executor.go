// Package workflow implements the five-stage research workflow:
// input parsing, data gathering, processing, result persistence, and
// completion. Every stage attempt is recorded as an append-only stage
// log so the full execution history of a topic can be audited.
package workflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/inquiro/research-agent/internal/domain"
	"github.com/inquiro/research-agent/internal/observability"
	"github.com/inquiro/research-agent/internal/repository"
	"github.com/inquiro/research-agent/internal/textproc"
)

const (
	// topicPreviewLength is how much of the topic text appears in stage
	// one's log message.
	topicPreviewLength = 50

	// failureStageName labels the workflow-level failure summary entry
	// appended after any stage fails.
	failureStageName = "Error"
)

// ArticleFetcher gathers articles for a query, typically backed by the
// aggregation manager.
type ArticleFetcher interface {
	Fetch(ctx context.Context, query string, totalLimit int) ([]domain.Article, error)
}

// Reporter receives workflow progress notifications. Implementations
// must tolerate being called from the worker goroutine running the
// workflow.
type Reporter interface {
	// Progress is called before each stage runs.
	Progress(ctx context.Context, topicID uuid.UUID, currentStage, totalStages int, stageName string)
	// Completed is called once after a successful run.
	Completed(ctx context.Context, topicID uuid.UUID, resultCount int)
	// Failed is called once after a failed run.
	Failed(ctx context.Context, topicID uuid.UUID, err error)
}

// Executor drives research topics through the workflow stages.
type Executor struct {
	topics  repository.TopicRepository
	logs    repository.StageLogRepository
	results repository.ResultRepository
	fetcher ArticleFetcher
	logger  zerolog.Logger
	metrics *observability.Metrics

	gatherLimit  int
	processLimit int
}

// NewExecutor creates a workflow executor.
func NewExecutor(
	topics repository.TopicRepository,
	logs repository.StageLogRepository,
	results repository.ResultRepository,
	fetcher ArticleFetcher,
	logger zerolog.Logger,
	metrics *observability.Metrics,
	gatherLimit, processLimit int,
) *Executor {
	if gatherLimit <= 0 {
		gatherLimit = 10
	}
	if processLimit <= 0 {
		processLimit = 5
	}
	return &Executor{
		topics:       topics,
		logs:         logs,
		results:      results,
		fetcher:      fetcher,
		logger:       logger.With().Str("component", "workflow").Logger(),
		metrics:      metrics,
		gatherLimit:  gatherLimit,
		processLimit: processLimit,
	}
}

// run carries per-execution state between stages.
type run struct {
	topic     *domain.Topic
	articles  []domain.Article
	processed []*domain.Result
}

// stage is one step of the workflow. Its func returns the completion
// log message.
type stage struct {
	name string
	fn   func(ctx context.Context, r *run) (string, error)
}

func (e *Executor) stages() []stage {
	return []stage{
		{name: "Input Parsing", fn: e.stageInputParsing},
		{name: "Data Gathering", fn: e.stageDataGathering},
		{name: "Processing", fn: e.stageProcessing},
		{name: "Result Persistence", fn: e.stageResultPersistence},
		{name: "Completion", fn: e.stageCompletion},
	}
}

// Run executes the workflow for a topic without progress reporting.
func (e *Executor) Run(ctx context.Context, topicID uuid.UUID) error {
	return e.RunWithReporter(ctx, topicID, nil)
}

// RunWithReporter executes the workflow for a topic, notifying the
// reporter before each stage and once at the end. A nil reporter is
// allowed.
//
// On any stage failure the topic is marked failed and a workflow-level
// failure summary entry is appended after the failing stage's own log.
func (e *Executor) RunWithReporter(ctx context.Context, topicID uuid.UUID, reporter Reporter) error {
	logger := e.logger.With().Str("topic_id", topicID.String()).Logger()
	started := time.Now()

	topic, err := e.topics.Get(ctx, topicID)
	if err != nil {
		return fmt.Errorf("loading topic: %w", err)
	}

	if e.metrics != nil {
		e.metrics.RecordWorkflowStarted()
	}

	if err := e.topics.UpdateStatus(ctx, topicID, domain.TopicStatusProcessing); err != nil {
		return fmt.Errorf("marking topic processing: %w", err)
	}

	r := &run{topic: topic}
	stages := e.stages()

	for i, st := range stages {
		if reporter != nil {
			reporter.Progress(ctx, topicID, i+1, len(stages), st.name)
		}
		if err := e.runStage(ctx, r, i+1, st, logger); err != nil {
			e.failWorkflow(ctx, topicID, len(stages)+1, err, started, logger)
			if reporter != nil {
				reporter.Failed(ctx, topicID, err)
			}
			return fmt.Errorf("%w: %s: %s", domain.ErrWorkflowFailed, st.name, err)
		}
	}

	if err := e.topics.UpdateStatus(ctx, topicID, domain.TopicStatusCompleted); err != nil {
		return fmt.Errorf("marking topic completed: %w", err)
	}

	if e.metrics != nil {
		e.metrics.RecordWorkflowCompleted(time.Since(started).Seconds())
	}
	if reporter != nil {
		reporter.Completed(ctx, topicID, len(r.processed))
	}

	logger.Info().
		Int("results", len(r.processed)).
		Dur("duration", time.Since(started)).
		Msg("workflow completed")
	return nil
}

// runStage times one stage, appends its log entry, and records metrics.
func (e *Executor) runStage(ctx context.Context, r *run, number int, st stage, logger zerolog.Logger) error {
	start := time.Now()
	message, err := st.fn(ctx, r)
	elapsed := time.Since(start)

	entry := &domain.StageLog{
		TopicID:     r.topic.ID,
		StageNumber: number,
		StageName:   st.name,
		DurationMS:  elapsed.Milliseconds(),
		CreatedAt:   time.Now().UTC(),
	}

	if err != nil {
		entry.Status = domain.StageStatusFailed
		entry.Message = err.Error()
		if appendErr := e.logs.Append(ctx, entry); appendErr != nil {
			logger.Error().Err(appendErr).Int("stage", number).Msg("failed to append stage log")
		}
		if e.metrics != nil {
			e.metrics.RecordStageFailed(st.name, elapsed.Seconds())
		}
		logger.Warn().Err(err).Int("stage", number).Str("stage_name", st.name).Msg("stage failed")
		return err
	}

	entry.Status = domain.StageStatusCompleted
	entry.Message = message
	if appendErr := e.logs.Append(ctx, entry); appendErr != nil {
		return fmt.Errorf("appending stage log: %w", appendErr)
	}
	if e.metrics != nil {
		e.metrics.RecordStageCompleted(st.name, elapsed.Seconds())
	}

	logger.Debug().Int("stage", number).Str("stage_name", st.name).Dur("duration", elapsed).Msg("stage completed")
	return nil
}

// failWorkflow marks the topic failed and appends the workflow-level
// failure summary entry. The summary carries a zero duration since it
// describes the run, not a timed stage.
func (e *Executor) failWorkflow(ctx context.Context, topicID uuid.UUID, summaryStage int, cause error, started time.Time, logger zerolog.Logger) {
	if err := e.topics.UpdateStatus(ctx, topicID, domain.TopicStatusFailed); err != nil {
		logger.Error().Err(err).Msg("failed to mark topic failed")
	}

	summary := &domain.StageLog{
		TopicID:     topicID,
		StageNumber: summaryStage,
		StageName:   failureStageName,
		Status:      domain.StageStatusFailed,
		Message:     cause.Error(),
		DurationMS:  0,
		CreatedAt:   time.Now().UTC(),
	}
	if err := e.logs.Append(ctx, summary); err != nil {
		logger.Error().Err(err).Msg("failed to append failure summary log")
	}

	if e.metrics != nil {
		e.metrics.RecordWorkflowFailed(time.Since(started).Seconds())
	}
}

// stageInputParsing validates the topic text.
func (e *Executor) stageInputParsing(_ context.Context, r *run) (string, error) {
	if err := r.topic.Validate(); err != nil {
		return "", err
	}
	return fmt.Sprintf("Successfully validated topic: '%s...'", topicPreview(r.topic.Topic)), nil
}

// stageDataGathering fetches articles from the external sources.
func (e *Executor) stageDataGathering(ctx context.Context, r *run) (string, error) {
	articles, err := e.fetcher.Fetch(ctx, r.topic.Topic, e.gatherLimit)
	if err != nil {
		return "", err
	}
	r.articles = articles

	return fmt.Sprintf("Successfully fetched %d articles from external APIs (%s)",
		len(articles), sourceSummary(articles)), nil
}

// stageProcessing summarizes the top articles and extracts keywords.
func (e *Executor) stageProcessing(_ context.Context, r *run) (string, error) {
	top := r.articles
	if len(top) > e.processLimit {
		top = top[:e.processLimit]
	}

	processed := make([]*domain.Result, 0, len(top))
	for _, article := range top {
		processed = append(processed, &domain.Result{
			TopicID:  r.topic.ID,
			Title:    article.Title,
			URL:      article.URL,
			Summary:  textproc.Summarize(article.Content),
			Keywords: textproc.ExtractKeywords(article.Content, article.Title),
			Source:   article.Source,
		})
	}
	r.processed = processed

	return fmt.Sprintf("Successfully processed %d articles with summaries and keywords", len(processed)), nil
}

// stageResultPersistence stores the processed results.
func (e *Executor) stageResultPersistence(ctx context.Context, r *run) (string, error) {
	if err := e.results.BulkInsert(ctx, r.processed); err != nil {
		return "", err
	}
	if e.metrics != nil {
		e.metrics.RecordResultsPersisted(len(r.processed))
	}

	return fmt.Sprintf("Successfully saved %d research results to database", len(r.processed)), nil
}

// stageCompletion verifies the stored result count.
func (e *Executor) stageCompletion(ctx context.Context, r *run) (string, error) {
	count, err := e.results.CountByTopic(ctx, r.topic.ID)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("Research workflow completed successfully with %d results", count), nil
}

// topicPreview returns the leading part of the topic text used in log
// messages.
func topicPreview(text string) string {
	runes := []rune(text)
	if len(runes) <= topicPreviewLength {
		return text
	}
	return string(runes[:topicPreviewLength])
}

// sourceSummary renders per-source article counts in first-occurrence
// order, e.g. "3 from Wikipedia, 2 from HackerNews".
func sourceSummary(articles []domain.Article) string {
	counts := make(map[string]int, 4)
	order := make([]string, 0, 4)

	for _, article := range articles {
		source := article.Source
		if source == "" {
			source = "Unknown"
		}
		if _, seen := counts[source]; !seen {
			order = append(order, source)
		}
		counts[source]++
	}

	parts := make([]string, 0, len(order))
	for _, source := range order {
		parts = append(parts, fmt.Sprintf("%d from %s", counts[source], source))
	}
	return strings.Join(parts, ", ")
}
