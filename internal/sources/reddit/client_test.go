package reddit

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listing(posts ...map[string]any) map[string]any {
	children := make([]map[string]any, 0, len(posts))
	for _, p := range posts {
		children = append(children, map[string]any{"data": p})
	}
	return map[string]any{"data": map[string]any{"children": children}}
}

func TestSearch(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/r/technology/search.json", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "space probes", r.URL.Query().Get("q"))
		assert.Equal(t, "1", r.URL.Query().Get("restrict_sr"))
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		json.NewEncoder(w).Encode(listing(
			map[string]any{"title": "Probe launch", "url": "https://example.com/probe"},
			map[string]any{"title": "Self post", "is_self": true},
		))
	})
	mux.HandleFunc("/r/science/search.json", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(listing(
			map[string]any{"title": "Orbit paper", "permalink": "/r/science/comments/1/orbit"},
		))
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := New(Config{
		Enabled:    true,
		BaseURL:    srv.URL,
		Subreddits: []string{"technology", "science"},
		RateLimit:  1000,
	})

	articles, err := client.Search(context.Background(), "space probes", 5)
	require.NoError(t, err)
	require.Len(t, articles, 2)

	assert.Equal(t, "Probe launch", articles[0].Title)
	assert.Equal(t, "Reddit r/technology", articles[0].Source)
	assert.Equal(t, "Probe launch", articles[0].Content)

	assert.Equal(t, "https://reddit.com/r/science/comments/1/orbit", articles[1].URL)
	assert.Equal(t, "Reddit r/science", articles[1].Source)
}

func TestSearchSkipsFailedSubreddits(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/r/technology/search.json", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	mux.HandleFunc("/r/science/search.json", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(listing(
			map[string]any{"title": "Still reachable", "url": "https://example.com/ok"},
		))
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := New(Config{
		Enabled:    true,
		BaseURL:    srv.URL,
		Subreddits: []string{"technology", "science"},
		RateLimit:  1000,
	})

	articles, err := client.Search(context.Background(), "anything", 5)
	require.NoError(t, err)
	require.Len(t, articles, 1)
	assert.Equal(t, "Still reachable", articles[0].Title)
}

func TestSearchStopsAtLimit(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(listing(
			map[string]any{"title": "Post A " + r.URL.Path, "url": "https://example.com/a"},
			map[string]any{"title": "Post B " + r.URL.Path, "url": "https://example.com/b"},
		))
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := New(Config{Enabled: true, BaseURL: srv.URL, RateLimit: 1000})

	articles, err := client.Search(context.Background(), "anything", 3)
	require.NoError(t, err)
	assert.Len(t, articles, 3)
}
