// Package reddit provides a source client over the public Reddit JSON
// search endpoints. Searches fan across a fixed set of subreddits and
// collect a couple of link posts from each until the limit is reached.
package reddit

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

const (
	sourceName = "Reddit"

	// postsPerSubreddit keeps individual subreddit queries small so a
	// single community does not dominate the merged results.
	postsPerSubreddit = 2
)

// defaultSubreddits are searched in order when none are configured.
var defaultSubreddits = []string{"technology", "science", "news", "worldnews", "todayilearned"}

// Config holds Reddit client configuration.
type Config struct {
	Enabled    bool          `mapstructure:"enabled"`
	BaseURL    string        `mapstructure:"base_url"`
	Subreddits []string      `mapstructure:"subreddits"`
	UserAgent  string        `mapstructure:"user_agent"`
	Timeout    time.Duration `mapstructure:"timeout"`
	RateLimit  float64       `mapstructure:"rate_limit"`
}

func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = "https://www.reddit.com"
	}
	if len(c.Subreddits) == 0 {
		c.Subreddits = defaultSubreddits
	}
	if c.UserAgent == "" {
		c.UserAgent = "Inquiro-ResearchAgent/1.0"
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.RateLimit <= 0 {
		c.RateLimit = 5
	}
}

type listingResponse struct {
	Data struct {
		Children []struct {
			Data struct {
				Title     string `json:"title"`
				URL       string `json:"url"`
				Permalink string `json:"permalink"`
				Selftext  string `json:"selftext"`
				IsSelf    bool   `json:"is_self"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// Client searches a set of subreddits for posts about a research topic.
type Client struct {
	cfg  Config
	http *sources.HTTPClient
}

var _ sources.Source = (*Client)(nil)

// New creates a Reddit client with defaults applied for unset fields.
func New(cfg Config) *Client {
	cfg.applyDefaults()
	return &Client{
		cfg: cfg,
		http: sources.NewHTTPClient(sources.HTTPClientConfig{
			Timeout:   cfg.Timeout,
			RateLimit: cfg.RateLimit,
			UserAgent: cfg.UserAgent,
		}),
	}
}

// Name returns the source tag prefix attached to articles from this
// client. Articles carry the subreddit they came from, e.g.
// "Reddit r/science".
func (c *Client) Name() string { return sourceName }

// IsEnabled reports whether the client participates in aggregation.
func (c *Client) IsEnabled() bool { return c.cfg.Enabled }

// Search walks the configured subreddits in order, collecting link
// posts until limit articles are gathered. Subreddits answering with a
// non-200 status are skipped.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]domain.Article, error) {
	if limit <= 0 {
		return nil, nil
	}

	articles := make([]domain.Article, 0, limit)
	for _, sub := range c.cfg.Subreddits {
		if len(articles) >= limit {
			break
		}

		listing, ok, err := c.searchSubreddit(ctx, sub, query)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		for _, child := range listing.Data.Children {
			post := child.Data
			if post.Title == "" || post.IsSelf {
				continue
			}
			link := post.URL
			if link == "" {
				link = "https://reddit.com" + post.Permalink
			}
			content := post.Selftext
			if content == "" {
				content = post.Title
			}
			articles = append(articles, domain.Article{
				Title:   post.Title,
				URL:     link,
				Content: content,
				Source:  fmt.Sprintf("%s r/%s", sourceName, sub),
			})
			if len(articles) >= limit {
				break
			}
		}
	}
	return articles, nil
}

func (c *Client) searchSubreddit(ctx context.Context, sub, query string) (listingResponse, bool, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("restrict_sr", "1")
	params.Set("sort", "relevance")
	params.Set("limit", strconv.Itoa(postsPerSubreddit))

	endpoint := fmt.Sprintf("%s/r/%s/search.json?%s", c.cfg.BaseURL, sub, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return listingResponse{}, false, fmt.Errorf("building reddit request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return listingResponse{}, false, domain.NewSourceAPIError(sourceName, 0, "search request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return listingResponse{}, false, nil
	}

	var parsed listingResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return listingResponse{}, false, domain.NewSourceAPIError(sourceName, resp.StatusCode, "decoding search response", err)
	}
	return parsed, true, nil
}
