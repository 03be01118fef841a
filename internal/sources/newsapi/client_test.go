package newsapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/everything", r.URL.Path)
		assert.Equal(t, "fusion energy", r.URL.Query().Get("q"))
		assert.Equal(t, "test-key", r.URL.Query().Get("apiKey"))
		assert.Equal(t, "en", r.URL.Query().Get("language"))
		assert.Equal(t, "relevancy", r.URL.Query().Get("sortBy"))
		json.NewEncoder(w).Encode(map[string]any{
			"status": "ok",
			"articles": []map[string]any{
				{
					"title":       "Fusion milestone",
					"description": "A breakthrough",
					"url":         "https://example.com/fusion",
					"content":     "Full text here",
				},
				{
					"title":       "No description entry",
					"description": "",
					"url":         "https://example.com/skip",
				},
			},
		})
	}))
	defer srv.Close()

	client := New(Config{Enabled: true, BaseURL: srv.URL, APIKey: "test-key", RateLimit: 1000})

	articles, err := client.Search(context.Background(), "fusion energy", 5)
	require.NoError(t, err)
	require.Len(t, articles, 1)

	assert.Equal(t, "Fusion milestone", articles[0].Title)
	assert.Equal(t, "A breakthrough Full text here", articles[0].Content)
	assert.Equal(t, "NewsAPI", articles[0].Source)
}

func TestSearchWithoutAPIKey(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	client := New(Config{Enabled: true, BaseURL: srv.URL, RateLimit: 1000})

	articles, err := client.Search(context.Background(), "anything", 5)
	require.NoError(t, err)
	assert.Empty(t, articles)
	assert.False(t, called)
}

func TestSearchUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := New(Config{Enabled: true, BaseURL: srv.URL, APIKey: "bad-key", RateLimit: 1000})

	_, err := client.Search(context.Background(), "anything", 5)
	require.Error(t, err)
}
