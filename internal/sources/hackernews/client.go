// Package hackernews provides a source client backed by the Algolia
// Hacker News search API.
package hackernews

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/inquiro/research-agent/internal/domain"
	"github.com/inquiro/research-agent/internal/sources"
)

const sourceName = "HackerNews"

// Config holds Hacker News client configuration.
type Config struct {
	Enabled   bool          `mapstructure:"enabled"`
	BaseURL   string        `mapstructure:"base_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	RateLimit float64       `mapstructure:"rate_limit"`
}

func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = "https://hn.algolia.com/api/v1"
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.RateLimit <= 0 {
		c.RateLimit = 5
	}
}

type searchResponse struct {
	Hits []struct {
		ObjectID  string `json:"objectID"`
		Title     string `json:"title"`
		URL       string `json:"url"`
		StoryText string `json:"story_text"`
	} `json:"hits"`
}

// Client searches Hacker News stories for a research topic.
type Client struct {
	cfg  Config
	http *sources.HTTPClient
}

var _ sources.Source = (*Client)(nil)

// New creates a Hacker News client with defaults applied for unset fields.
func New(cfg Config) *Client {
	cfg.applyDefaults()
	return &Client{
		cfg: cfg,
		http: sources.NewHTTPClient(sources.HTTPClientConfig{
			Timeout:   cfg.Timeout,
			RateLimit: cfg.RateLimit,
		}),
	}
}

// Name returns the source tag attached to articles from this client.
func (c *Client) Name() string { return sourceName }

// IsEnabled reports whether the client participates in aggregation.
func (c *Client) IsEnabled() bool { return c.cfg.Enabled }

// Search queries story hits for the topic. Stories without a URL fall
// back to their Hacker News discussion page.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]domain.Article, error) {
	if limit <= 0 {
		return nil, nil
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("tags", "story")
	params.Set("hitsPerPage", strconv.Itoa(limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("building hackernews request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, domain.NewSourceAPIError(sourceName, 0, "search request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, domain.NewSourceAPIError(sourceName, resp.StatusCode, "unexpected search status", nil)
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, domain.NewSourceAPIError(sourceName, resp.StatusCode, "decoding search response", err)
	}

	articles := make([]domain.Article, 0, len(parsed.Hits))
	for _, hit := range parsed.Hits {
		if hit.Title == "" {
			continue
		}
		content := hit.Title
		if hit.StoryText != "" {
			content += " " + hit.StoryText
		}
		link := hit.URL
		if link == "" {
			link = "https://news.ycombinator.com/item?id=" + hit.ObjectID
		}
		articles = append(articles, domain.Article{
			Title:   hit.Title,
			URL:     link,
			Content: content,
			Source:  sourceName,
		})
		if len(articles) >= limit {
			break
		}
	}
	return articles, nil
}
