// Package main provides the entry point for the research agent API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/inquiro/research-agent/internal/aggregator"
	"github.com/inquiro/research-agent/internal/config"
	"github.com/inquiro/research-agent/internal/database"
	"github.com/inquiro/research-agent/internal/observability"
	"github.com/inquiro/research-agent/internal/repository"
	httpserver "github.com/inquiro/research-agent/internal/server/http"
	"github.com/inquiro/research-agent/internal/sources"
	"github.com/inquiro/research-agent/internal/sources/hackernews"
	"github.com/inquiro/research-agent/internal/sources/newsapi"
	"github.com/inquiro/research-agent/internal/sources/reddit"
	"github.com/inquiro/research-agent/internal/sources/wikipedia"
	"github.com/inquiro/research-agent/internal/taskqueue"
	"github.com/inquiro/research-agent/internal/workflow"
)

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

	logger := observability.NewLogger(observability.LoggingConfig{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		AddSource:  cfg.Logging.AddSource,
		TimeFormat: cfg.Logging.TimeFormat,
	})
	logger = logger.With().Str("component", "server").Logger()
	logger.Info().Msg("research-agent server starting")

	// Graceful shutdown via OS signals.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.New(ctx, &cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()
	logger.Info().Msg("database connection established")

	if cfg.Database.MigrationAutoRun {
		migrator, err := database.NewMigrator(db, cfg.Database.MigrationPath, logger)
		if err != nil {
			return fmt.Errorf("create migrator: %w", err)
		}
		defer func() {
			if closeErr := migrator.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close migrator")
			}
		}()

		if err := migrator.Up(); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
	}

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

	// The inline queue runs workflows in this process; with Kafka
	// enabled it only serves as a fallback when the broker is down.
	inlineQueue := taskqueue.NewInlineQueue(executor, logger, 5*time.Minute)

	var queue taskqueue.Queue = inlineQueue
	var kafkaQueue *taskqueue.KafkaQueue
	if cfg.Kafka.Enabled {
		kafkaQueue = taskqueue.NewKafkaQueue(taskqueue.KafkaConfig{
			Brokers:      cfg.Kafka.Brokers,
			Topic:        cfg.Kafka.TaskTopic,
			BatchTimeout: cfg.Kafka.BatchTimeout,
		}, logger)
		queue = taskqueue.NewFallbackQueue(kafkaQueue, inlineQueue, logger)
		logger.Info().
			Strs("brokers", cfg.Kafka.Brokers).
			Str("topic", cfg.Kafka.TaskTopic).
			Msg("kafka task queue enabled")
	}

	httpCfg := httpserver.Config{
		Address:         cfg.Server.HTTPAddress(),
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		IdleTimeout:     2 * time.Minute,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}

	httpSrv := httpserver.NewServer(
		httpCfg,
		topicRepo,
		stageLogRepo,
		resultRepo,
		queue,
		db,
		logger,
		metrics,
	)

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
	}

	errCh := make(chan error, 2)

	go func() {
		if err := httpSrv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	if metricsServer != nil {
		go func() {
			logger.Info().Str("address", metricsServer.Addr).Msg("metrics server starting")
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("metrics server error: %w", err)
			}
		}()
	}

	readyLog := logger.Info().Str("http_address", httpCfg.Address)
	if metricsServer != nil {
		readyLog = readyLog.Str("metrics_address", metricsServer.Addr)
	}
	readyLog.Msg("research-agent is ready")

	select {
	case <-ctx.Done():
		logger.Info().Msg("received shutdown signal")
	case err := <-errCh:
		logger.Error().Err(err).Msg("server error")
		return err
	}

	logger.Info().Msg("shutting down research-agent")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown error")
	}

	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("metrics server shutdown error")
		}
	}

	// Let in-flight inline workflow runs finish.
	inlineQueue.Wait()

	if kafkaQueue != nil {
		if err := kafkaQueue.Close(); err != nil {
			logger.Error().Err(err).Msg("kafka queue close error")
		}
	}

	logger.Info().Msg("research-agent shutdown complete")
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
