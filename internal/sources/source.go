// Package sources provides clients for the external content APIs the
// research agent aggregates from.
//
// Each external provider (Wikipedia, NewsAPI, HackerNews, Reddit)
// implements the Source interface, normalizing its upstream response shape
// into the common domain.Article form. Clients tolerate their own
// upstream's failure modes but surface errors to the caller; the
// aggregation layer absorbs per-source errors so that one broken source
// never fails a batch.
//
// Example usage:
//
//	src := wikipedia.New(cfg)
//	articles, err := src.Search(ctx, "quantum computing", 5)
package sources

import (
	"context"

	"github.com/inquiro/research-agent/internal/domain"
)

// Source is the interface implemented by every external content client.
type Source interface {
	// Search queries the source for articles matching the query, returning
	// at most limit normalized articles. Entries that cannot be normalized
	// into the Article shape are skipped, not surfaced as errors. The
	// context bounds the underlying network calls.
	Search(ctx context.Context, query string, limit int) ([]domain.Article, error)

	// Name returns the human-readable source tag used for attribution,
	// logging, and metrics.
	Name() string

	// IsEnabled reports whether this source is configured for use.
	// Disabled sources are registered but skipped by the registry.
	IsEnabled() bool
}
