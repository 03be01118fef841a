// Package wikipedia provides a source client backed by the public
// Wikipedia APIs. Searching is a two-phase operation: the MediaWiki
// action API returns matching page titles, then the REST summary
// endpoint provides the article extract for each title.
package wikipedia

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

const sourceName = "Wikipedia"

// Config holds Wikipedia client configuration.
type Config struct {
	Enabled        bool          `mapstructure:"enabled"`
	SearchURL      string        `mapstructure:"search_url"`
	SummaryBaseURL string        `mapstructure:"summary_base_url"`
	ArticleBaseURL string        `mapstructure:"article_base_url"`
	Timeout        time.Duration `mapstructure:"timeout"`
	RateLimit      float64       `mapstructure:"rate_limit"`
}

func (c *Config) applyDefaults() {
	if c.SearchURL == "" {
		c.SearchURL = "https://en.wikipedia.org/w/api.php"
	}
	if c.SummaryBaseURL == "" {
		c.SummaryBaseURL = "https://en.wikipedia.org/api/rest_v1"
	}
	if c.ArticleBaseURL == "" {
		c.ArticleBaseURL = "https://en.wikipedia.org/wiki/"
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.RateLimit <= 0 {
		c.RateLimit = 5
	}
}

// Client searches Wikipedia for articles relevant to a research topic.
type Client struct {
	cfg  Config
	http *sources.HTTPClient
}

var _ sources.Source = (*Client)(nil)

// New creates a Wikipedia client with defaults applied for unset fields.
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

// Search looks up page titles matching the query, then fetches the page
// summary for each. Titles whose summary endpoint does not return 200
// are skipped rather than failing the whole search.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]domain.Article, error) {
	if limit <= 0 {
		return nil, nil
	}

	hits, err := c.search(ctx, query, limit)
	if err != nil {
		return nil, err
	}

	articles := make([]domain.Article, 0, len(hits))
	for _, hit := range hits {
		summary, ok, err := c.summary(ctx, hit.Title)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		escaped := url.PathEscape(hit.Title)
		articles = append(articles, domain.Article{
			Title:   hit.Title,
			URL:     c.cfg.ArticleBaseURL + escaped,
			Content: summary.Extract,
			Source:  sourceName,
		})
	}
	return articles, nil
}

func (c *Client) search(ctx context.Context, query string, limit int) ([]searchHit, error) {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("format", "json")
	params.Set("list", "search")
	params.Set("srsearch", query)
	params.Set("srlimit", strconv.Itoa(limit))
	params.Set("srprop", "snippet|titlesnippet")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.SearchURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("building wikipedia search request: %w", err)
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
	return parsed.Query.Search, nil
}

func (c *Client) summary(ctx context.Context, title string) (summaryResponse, bool, error) {
	endpoint := c.cfg.SummaryBaseURL + "/page/summary/" + url.PathEscape(title)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return summaryResponse{}, false, fmt.Errorf("building wikipedia summary request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return summaryResponse{}, false, domain.NewSourceAPIError(sourceName, 0, "summary request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return summaryResponse{}, false, nil
	}

	var parsed summaryResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return summaryResponse{}, false, domain.NewSourceAPIError(sourceName, resp.StatusCode, "decoding summary response", err)
	}
	return parsed, true, nil
}
