// Package newsapi provides a source client for the NewsAPI
// "everything" endpoint. The client requires an API key; without one
// it returns no results instead of issuing unauthenticated requests.
package newsapi

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

const sourceName = "NewsAPI"

// Config holds NewsAPI client configuration. APIKey is supplied via
// environment only and never serialized from config files.
type Config struct {
	Enabled   bool          `mapstructure:"enabled"`
	BaseURL   string        `mapstructure:"base_url"`
	APIKey    string        `mapstructure:"-"`
	Timeout   time.Duration `mapstructure:"timeout"`
	RateLimit float64       `mapstructure:"rate_limit"`
}

func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = "https://newsapi.org/v2"
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.RateLimit <= 0 {
		c.RateLimit = 5
	}
}

type everythingResponse struct {
	Status   string `json:"status"`
	Articles []struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		URL         string `json:"url"`
		Content     string `json:"content"`
	} `json:"articles"`
}

// Client searches recent news coverage for a research topic.
type Client struct {
	cfg  Config
	http *sources.HTTPClient
}

var _ sources.Source = (*Client)(nil)

// New creates a NewsAPI client with defaults applied for unset fields.
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

// Search queries the everything endpoint sorted by relevancy. Entries
// without both a title and a description are dropped.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]domain.Article, error) {
	if limit <= 0 || c.cfg.APIKey == "" {
		return nil, nil
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("apiKey", c.cfg.APIKey)
	params.Set("language", "en")
	params.Set("sortBy", "relevancy")
	params.Set("pageSize", strconv.Itoa(limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/everything?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("building newsapi request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, domain.NewSourceAPIError(sourceName, 0, "search request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, domain.NewSourceAPIError(sourceName, resp.StatusCode, "unexpected search status", nil)
	}

	var parsed everythingResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, domain.NewSourceAPIError(sourceName, resp.StatusCode, "decoding search response", err)
	}

	articles := make([]domain.Article, 0, len(parsed.Articles))
	for _, entry := range parsed.Articles {
		if entry.Title == "" || entry.Description == "" {
			continue
		}
		content := entry.Description
		if entry.Content != "" {
			content += " " + entry.Content
		}
		articles = append(articles, domain.Article{
			Title:   entry.Title,
			URL:     entry.URL,
			Content: content,
			Source:  sourceName,
		})
		if len(articles) >= limit {
			break
		}
	}
	return articles, nil
}
