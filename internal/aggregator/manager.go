// Package aggregator merges article search results from multiple
// sources into a single deduplicated list.
package aggregator

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/inquiro/research-agent/internal/domain"
	"github.com/inquiro/research-agent/internal/observability"
	"github.com/inquiro/research-agent/internal/sources"
)

// minPerSourceLimit is the floor applied to the per-source share of the
// total limit, so every source contributes at least a couple of results
// even for small totals.
const minPerSourceLimit = 2

// Manager fans a query out to every enabled source and merges the
// results. A failing source contributes zero articles; it never fails
// the whole fetch.
type Manager struct {
	registry *sources.Registry
	logger   zerolog.Logger
	metrics  *observability.Metrics
}

// NewManager creates an aggregation manager over the given registry.
func NewManager(registry *sources.Registry, logger zerolog.Logger, metrics *observability.Metrics) *Manager {
	return &Manager{
		registry: registry,
		logger:   logger.With().Str("component", "aggregator").Logger(),
		metrics:  metrics,
	}
}

// Fetch searches all enabled sources concurrently and returns up to
// totalLimit deduplicated articles. The total limit is split evenly
// across the registered sources, floored at minPerSourceLimit.
//
// Merge order follows source registration order, so repeated fetches
// over identical source responses produce identical output. Duplicate
// titles are resolved case-insensitively, first occurrence wins.
func (m *Manager) Fetch(ctx context.Context, query string, totalLimit int) ([]domain.Article, error) {
	if totalLimit <= 0 || m.registry.Len() == 0 {
		return nil, nil
	}

	perSource := totalLimit / m.registry.Len()
	if perSource < minPerSourceLimit {
		perSource = minPerSourceLimit
	}

	outcomes := m.registry.SearchAll(ctx, query, perSource)

	merged := make([]domain.Article, 0, totalLimit)
	for _, outcome := range outcomes {
		if outcome.Err != nil {
			m.logger.Warn().
				Err(outcome.Err).
				Str("source", outcome.Source).
				Str("query", query).
				Msg("source search failed, continuing without it")
			if m.metrics != nil {
				m.metrics.RecordSearchFailed(outcome.Source, outcome.Duration.Seconds())
			}
			continue
		}

		m.logger.Debug().
			Str("source", outcome.Source).
			Int("articles", len(outcome.Articles)).
			Dur("duration", outcome.Duration).
			Msg("source search completed")
		if m.metrics != nil {
			m.metrics.RecordSearchCompleted(outcome.Source, len(outcome.Articles), outcome.Duration.Seconds())
		}
		merged = append(merged, outcome.Articles...)
	}

	deduped, removed := dedupeByTitle(merged)
	if removed > 0 && m.metrics != nil {
		m.metrics.RecordDuplicatesRemoved(removed)
	}

	if len(deduped) > totalLimit {
		deduped = deduped[:totalLimit]
	}

	m.logger.Info().
		Str("query", query).
		Int("merged", len(merged)).
		Int("duplicates", removed).
		Int("returned", len(deduped)).
		Msg("aggregation finished")

	return deduped, nil
}

// dedupeByTitle removes articles whose normalized title was already
// seen, keeping the first occurrence. Articles with an empty title are
// dropped entirely since they cannot be keyed.
func dedupeByTitle(articles []domain.Article) ([]domain.Article, int) {
	seen := make(map[string]struct{}, len(articles))
	out := make([]domain.Article, 0, len(articles))
	removed := 0

	for _, a := range articles {
		key := strings.ToLower(strings.TrimSpace(a.Title))
		if key == "" {
			removed++
			continue
		}
		if _, dup := seen[key]; dup {
			removed++
			continue
		}
		seen[key] = struct{}{}
		out = append(out, a)
	}
	return out, removed
}
