package sources

import (
	"context"
	"sync"
	"time"

	"github.com/inquiro/research-agent/internal/domain"
)

// SearchOutcome holds the result of a search against one source.
type SearchOutcome struct {
	// Source is the name of the source that produced this outcome.
	Source string

	// Articles contains the normalized articles if the search succeeded.
	Articles []domain.Article

	// Err contains the error if the search failed. Articles is empty
	// when Err is non-nil.
	Err error

	// Duration is the time taken by the search, including network latency.
	Duration time.Duration
}

// Registry holds the configured sources in registration order and
// coordinates concurrent searches against them.
//
// Registration order matters: SearchAll returns outcomes in the same
// order sources were registered, regardless of which search finishes
// first. Downstream merging depends on that ordering being stable.
type Registry struct {
	mu      sync.RWMutex
	sources []Source
}

// NewRegistry creates an empty source registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends a source to the registry. This method is thread-safe.
func (r *Registry) Register(source Source) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources = append(r.sources, source)
}

// Len returns the number of registered sources.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sources)
}

// All returns a snapshot of all registered sources in registration order.
func (r *Registry) All() []Source {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Source, len(r.sources))
	copy(out, r.sources)
	return out
}

// Enabled returns a snapshot of the enabled sources in registration order.
func (r *Registry) Enabled() []Source {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Source, 0, len(r.sources))
	for _, s := range r.sources {
		if s.IsEnabled() {
			out = append(out, s)
		}
	}
	return out
}

// SearchAll searches all enabled sources concurrently and returns one
// outcome per source, in registration order. Errors are captured in the
// outcomes, never returned; the caller decides how to handle them.
// Canceling the context interrupts in-flight searches.
func (r *Registry) SearchAll(ctx context.Context, query string, perSourceLimit int) []SearchOutcome {
	enabled := r.Enabled()
	if len(enabled) == 0 {
		return nil
	}

	outcomes := make([]SearchOutcome, len(enabled))
	var wg sync.WaitGroup

	for i, source := range enabled {
		wg.Add(1)
		go func(i int, s Source) {
			defer wg.Done()

			start := time.Now()
			articles, err := s.Search(ctx, query, perSourceLimit)
			outcomes[i] = SearchOutcome{
				Source:   s.Name(),
				Articles: articles,
				Err:      err,
				Duration: time.Since(start),
			}
		}(i, source)
	}

	wg.Wait()
	return outcomes
}
