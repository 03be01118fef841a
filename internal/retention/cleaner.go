// Package retention periodically deletes finished research topics
// that are older than the configured retention window. Stage logs and
// results go with them through ON DELETE CASCADE.
package retention

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/inquiro/research-agent/internal/domain"
	"github.com/inquiro/research-agent/internal/repository"
)

// terminalStatuses are the only statuses retention may delete. Topics
// still pending, queued, or processing are never touched.
var terminalStatuses = []domain.TopicStatus{
	domain.TopicStatusCompleted,
	domain.TopicStatusFailed,
}

// Cleaner removes expired topics on a fixed interval.
type Cleaner struct {
	topics   repository.TopicRepository
	logger   zerolog.Logger
	interval time.Duration
	maxAge   time.Duration
	now      func() time.Time
}

// NewCleaner creates a retention cleaner.
func NewCleaner(topics repository.TopicRepository, logger zerolog.Logger, interval, maxAge time.Duration) *Cleaner {
	return &Cleaner{
		topics:   topics,
		logger:   logger.With().Str("component", "retention").Logger(),
		interval: interval,
		maxAge:   maxAge,
		now:      time.Now,
	}
}

// Run executes a cleanup pass on every interval tick until the context
// is cancelled. The first pass runs immediately on start.
func (c *Cleaner) Run(ctx context.Context) error {
	c.logger.Info().
		Dur("interval", c.interval).
		Dur("max_age", c.maxAge).
		Msg("starting retention cleaner")

	if err := c.CleanOnce(ctx); err != nil {
		c.logger.Error().Err(err).Msg("retention pass failed")
	}

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.logger.Info().Msg("retention cleaner stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := c.CleanOnce(ctx); err != nil {
				c.logger.Error().Err(err).Msg("retention pass failed")
			}
		}
	}
}

// CleanOnce deletes all terminal topics whose last update is older
// than the retention window and returns nothing; deletions are logged.
func (c *Cleaner) CleanOnce(ctx context.Context) error {
	cutoff := c.now().UTC().Add(-c.maxAge)

	deleted, err := c.topics.DeleteOlderThan(ctx, cutoff, terminalStatuses)
	if err != nil {
		return err
	}

	if deleted > 0 {
		c.logger.Info().
			Int64("deleted", deleted).
			Time("cutoff", cutoff).
			Msg("expired topics removed")
	} else {
		c.logger.Debug().Time("cutoff", cutoff).Msg("no expired topics")
	}
	return nil
}
