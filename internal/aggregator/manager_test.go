package aggregator

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inquiro/research-agent/internal/domain"
	"github.com/inquiro/research-agent/internal/sources"
)

type fakeSource struct {
	name     string
	articles []domain.Article
	err      error

	gotLimit int
}

func (f *fakeSource) Search(ctx context.Context, query string, limit int) ([]domain.Article, error) {
	f.gotLimit = limit
	return f.articles, f.err
}

func (f *fakeSource) Name() string    { return f.name }
func (f *fakeSource) IsEnabled() bool { return true }

func article(title, source string) domain.Article {
	return domain.Article{Title: title, URL: "https://example.com/" + title, Content: title, Source: source}
}

func newManager(srcs ...sources.Source) (*Manager, []*fakeSource) {
	reg := sources.NewRegistry()
	fakes := make([]*fakeSource, 0, len(srcs))
	for _, s := range srcs {
		reg.Register(s)
		if f, ok := s.(*fakeSource); ok {
			fakes = append(fakes, f)
		}
	}
	return NewManager(reg, zerolog.Nop(), nil), fakes
}

func TestFetchMergesInRegistrationOrder(t *testing.T) {
	m, _ := newManager(
		&fakeSource{name: "first", articles: []domain.Article{article("A", "first"), article("B", "first")}},
		&fakeSource{name: "second", articles: []domain.Article{article("C", "second")}},
	)

	got, err := m.Fetch(context.Background(), "topic", 10)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "A", got[0].Title)
	assert.Equal(t, "B", got[1].Title)
	assert.Equal(t, "C", got[2].Title)
}

func TestFetchDeduplicatesByTitle(t *testing.T) {
	m, _ := newManager(
		&fakeSource{name: "first", articles: []domain.Article{article("Shared Title", "first")}},
		&fakeSource{name: "second", articles: []domain.Article{
			{Title: "  shared title  ", URL: "https://example.com/dup", Source: "second"},
			article("Unique", "second"),
		}},
	)

	got, err := m.Fetch(context.Background(), "topic", 10)
	require.NoError(t, err)
	require.Len(t, got, 2)

	// First occurrence wins, including its source attribution.
	assert.Equal(t, "Shared Title", got[0].Title)
	assert.Equal(t, "first", got[0].Source)
	assert.Equal(t, "Unique", got[1].Title)
}

func TestFetchDropsEmptyTitles(t *testing.T) {
	m, _ := newManager(
		&fakeSource{name: "first", articles: []domain.Article{
			{Title: "   ", URL: "https://example.com/blank", Source: "first"},
			article("Kept", "first"),
		}},
	)

	got, err := m.Fetch(context.Background(), "topic", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Kept", got[0].Title)
}

func TestFetchAbsorbsSourceFailures(t *testing.T) {
	m, _ := newManager(
		&fakeSource{name: "broken", err: errors.New("upstream down")},
		&fakeSource{name: "healthy", articles: []domain.Article{article("Survivor", "healthy")}},
	)

	got, err := m.Fetch(context.Background(), "topic", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Survivor", got[0].Title)
}

func TestFetchAllSourcesFailingYieldsEmpty(t *testing.T) {
	m, _ := newManager(
		&fakeSource{name: "first", err: errors.New("upstream down")},
		&fakeSource{name: "second", err: errors.New("timeout")},
		&fakeSource{name: "third", err: errors.New("rate limited")},
	)

	got, err := m.Fetch(context.Background(), "topic", 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFetchSplitsLimitAcrossSources(t *testing.T) {
	m, fakes := newManager(
		&fakeSource{name: "a"},
		&fakeSource{name: "b"},
		&fakeSource{name: "c"},
		&fakeSource{name: "d"},
	)

	_, err := m.Fetch(context.Background(), "topic", 10)
	require.NoError(t, err)
	for _, f := range fakes {
		assert.Equal(t, 2, f.gotLimit)
	}

	_, err = m.Fetch(context.Background(), "topic", 40)
	require.NoError(t, err)
	for _, f := range fakes {
		assert.Equal(t, 10, f.gotLimit)
	}
}

func TestFetchPerSourceFloor(t *testing.T) {
	m, fakes := newManager(
		&fakeSource{name: "a"},
		&fakeSource{name: "b"},
	)

	// 3/2 = 1 which is below the floor.
	_, err := m.Fetch(context.Background(), "topic", 3)
	require.NoError(t, err)
	for _, f := range fakes {
		assert.Equal(t, 2, f.gotLimit)
	}
}

func TestFetchTruncatesToTotalLimit(t *testing.T) {
	m, _ := newManager(
		&fakeSource{name: "a", articles: []domain.Article{
			article("One", "a"), article("Two", "a"), article("Three", "a"),
		}},
		&fakeSource{name: "b", articles: []domain.Article{
			article("Four", "b"), article("Five", "b"),
		}},
	)

	got, err := m.Fetch(context.Background(), "topic", 4)
	require.NoError(t, err)
	require.Len(t, got, 4)
	assert.Equal(t, "Four", got[3].Title)
}

func TestFetchNonPositiveLimit(t *testing.T) {
	m, _ := newManager(&fakeSource{name: "a", articles: []domain.Article{article("X", "a")}})

	got, err := m.Fetch(context.Background(), "topic", 0)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = m.Fetch(context.Background(), "topic", -5)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFetchNoSources(t *testing.T) {
	m := NewManager(sources.NewRegistry(), zerolog.Nop(), nil)

	got, err := m.Fetch(context.Background(), "topic", 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}
