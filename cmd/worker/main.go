// Package main provides the entry point for the research agent worker.
// The worker consumes research tasks from Kafka, executes the workflow
// for each topic, publishes progress events, and runs the retention
// cleaner.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/inquiro/research-agent/internal/aggregator"
	"github.com/inquiro/research-agent/internal/config"
	"github.com/inquiro/research-agent/internal/database"
	"github.com/inquiro/research-agent/internal/events"
	"github.com/inquiro/research-agent/internal/observability"
	"github.com/inquiro/research-agent/internal/repository"
	"github.com/inquiro/research-agent/internal/retention"
	"github.com/inquiro/research-agent/internal/sources"
	"github.com/inquiro/research-agent/internal/sources/hackernews"
	"github.com/inquiro/research-agent/internal/sources/newsapi"
	"github.com/inquiro/research-agent/internal/sources/reddit"
	"github.com/inquiro/research-agent/internal/sources/wikipedia"
	"github.com/inquiro/research-agent/internal/taskqueue"
	"github.com/inquiro/research-agent/internal/workflow"
)

// reportingRunner executes workflows with progress event publishing.
type reportingRunner struct {
	executor *workflow.Executor
	reporter workflow.Reporter
}

func (r reportingRunner) Run(ctx context.Context, topicID uuid.UUID) error {
	return r.executor.RunWithReporter(ctx, topicID, r.reporter)
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if !cfg.Kafka.Enabled {
		return fmt.Errorf("kafka must be enabled to run the worker")
	}

	logger := observability.NewLogger(observability.LoggingConfig{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		AddSource:  cfg.Logging.AddSource,
		TimeFormat: cfg.Logging.TimeFormat,
	})
	logger = logger.With().Str("component", "worker").Logger()
	logger.Info().Msg("research-agent worker starting")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.New(ctx, &cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()
	logger.Info().Msg("database connection established")

	topicRepo := repository.NewPgTopicRepository(db)
	stageLogRepo := repository.NewPgStageLogRepository(db)
	resultRepo := repository.NewPgResultRepository(db)

	var metrics *observability.Metrics
	if cfg.Metrics.Enabled {
		metrics = observability.NewMetrics(cfg.Metrics.Namespace)
	}

	registry := newSourceRegistry(cfg)
	manager := aggregator.NewManager(registry, logger, metrics)

	executor := workflow.NewExecutor(
		topicRepo,
		stageLogRepo,
		resultRepo,
		manager,
		logger,
		metrics,
		cfg.Workflow.GatherLimit,
		cfg.Workflow.ResultLimit,
	)

	publisher := events.NewPublisher(events.Config{
		Brokers:      cfg.Kafka.Brokers,
		Topic:        cfg.Kafka.EventTopic,
		BatchTimeout: cfg.Kafka.BatchTimeout,
	}, logger)
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Error().Err(err).Msg("event publisher close error")
		}
	}()

	consumer := taskqueue.NewConsumer(taskqueue.KafkaConfig{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.TaskTopic,
		GroupID: cfg.Kafka.GroupID,
	}, reportingRunner{executor: executor, reporter: publisher}, logger)
	defer func() {
		if err := consumer.Close(); err != nil {
			logger.Error().Err(err).Msg("consumer close error")
		}
	}()

	errCh := make(chan error, 3)

	go func() {
		if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- fmt.Errorf("task consumer error: %w", err)
		}
	}()

	if cfg.Retention.Enabled {
		cleaner := retention.NewCleaner(topicRepo, logger, cfg.Retention.Interval, cfg.Retention.MaxAge)
		go func() {
			if err := cleaner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				errCh <- fmt.Errorf("retention cleaner error: %w", err)
			}
		}()
	}

	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		metricsMux := http.NewServeMux()
		metricsMux.Handle(cfg.Metrics.Path, promhttp.Handler())
		metricsServer = &http.Server{
			Addr:         cfg.Server.MetricsAddress(),
			Handler:      metricsMux,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		}
		go func() {
			logger.Info().Str("address", metricsServer.Addr).Msg("metrics server starting")
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("metrics server error: %w", err)
			}
		}()
	}

	logger.Info().
		Strs("brokers", cfg.Kafka.Brokers).
		Str("task_topic", cfg.Kafka.TaskTopic).
		Str("group_id", cfg.Kafka.GroupID).
		Msg("research-agent worker is ready")

	select {
	case <-ctx.Done():
		logger.Info().Msg("received shutdown signal")
	case err := <-errCh:
		logger.Error().Err(err).Msg("worker error")
		return err
	}

	logger.Info().Msg("shutting down research-agent worker")

	if metricsServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("metrics server shutdown error")
		}
	}

	logger.Info().Msg("research-agent worker shutdown complete")
	return nil
}

// newSourceRegistry registers all configured external sources. Every
// source is registered regardless of its enabled flag; disabled
// sources are skipped at search time but still count toward the
// per-source article budget.
func newSourceRegistry(cfg *config.Config) *sources.Registry {
	registry := sources.NewRegistry()

	registry.Register(wikipedia.New(wikipedia.Config{
		Enabled:   cfg.Sources.Wikipedia.Enabled,
		SearchURL: cfg.Sources.Wikipedia.SearchURL,
		Timeout:   cfg.Sources.Wikipedia.Timeout,
		RateLimit: cfg.Sources.Wikipedia.RateLimit,
	}))

	registry.Register(newsapi.New(newsapi.Config{
		Enabled:   cfg.Sources.NewsAPI.Enabled,
		BaseURL:   cfg.Sources.NewsAPI.BaseURL,
		APIKey:    cfg.Sources.NewsAPI.APIKey,
		Timeout:   cfg.Sources.NewsAPI.Timeout,
		RateLimit: cfg.Sources.NewsAPI.RateLimit,
	}))

	registry.Register(hackernews.New(hackernews.Config{
		Enabled:   cfg.Sources.HackerNews.Enabled,
		BaseURL:   cfg.Sources.HackerNews.BaseURL,
		Timeout:   cfg.Sources.HackerNews.Timeout,
		RateLimit: cfg.Sources.HackerNews.RateLimit,
	}))

	registry.Register(reddit.New(reddit.Config{
		Enabled:    cfg.Sources.Reddit.Enabled,
		BaseURL:    cfg.Sources.Reddit.BaseURL,
		Subreddits: cfg.Sources.Reddit.Subreddits,
		UserAgent:  cfg.Sources.Reddit.UserAgent,
		Timeout:    cfg.Sources.Reddit.Timeout,
		RateLimit:  cfg.Sources.Reddit.RateLimit,
	}))

	return registry
}
