// Package apple looks podcasts up in the iTunes Search directory. It is used
// when a caller wants a show's canonical RSS feed hosted by Apple's directory
// instead of a locally synthesized one.
package apple

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"casterd/internal/apperr"
)

const defaultBaseURL = "https://itunes.apple.com"

// searchLimit bounds one lookup; the directory's own ranking is trusted as
// the last-resort tie breaker.
const searchLimit = 10

type Config struct {
	BaseURL           string        // Default: https://itunes.apple.com
	Timeout           time.Duration // Default: 10s
	RequestsPerMinute int           // Default: 16 (well under the directory's limit)
}

type Client struct {
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	baseURL     string
}

func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RequestsPerMinute == 0 {
		cfg.RequestsPerMinute = 16
	}
	return &Client{
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		rateLimiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1),
		baseURL:     cfg.BaseURL,
	}
}

// Result is one podcast entry from the search index.
type Result struct {
	CollectionName string `json:"collectionName"`
	TrackName      string `json:"trackName"`
	FeedURL        string `json:"feedUrl"`
}

type searchResponse struct {
	Results []Result `json:"results"`
}

// Search queries the podcast directory for a show title.
func (c *Client) Search(ctx context.Context, term string) ([]Result, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}
	searchURL := fmt.Sprintf("%s/search?term=%s&entity=podcast&limit=%d",
		c.baseURL, url.QueryEscape(term), searchLimit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, &apperr.SourceFetchError{Source: "apple", Err: err}
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &apperr.SourceFetchError{Source: "apple", Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, &apperr.SourceFetchError{
			Source: "apple",
			Status: resp.StatusCode,
			Err:    fmt.Errorf("search rejected"),
		}
	}
	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, &apperr.SourceFetchError{Source: "apple", Err: fmt.Errorf("decode response: %w", err)}
	}
	return parsed.Results, nil
}

// BestMatch selects a result deterministically: case-insensitive exact
// equality on show or episode title wins, then substring containment in
// either direction on the show title, then the index's own first result.
// Candidate order never changes which rule fires.
func BestMatch(term string, results []Result) *Result {
	if len(results) == 0 {
		return nil
	}
	needle := strings.ToLower(strings.TrimSpace(term))

	for i := range results {
		if strings.ToLower(results[i].CollectionName) == needle ||
			strings.ToLower(results[i].TrackName) == needle {
			return &results[i]
		}
	}
	for i := range results {
		title := strings.ToLower(results[i].CollectionName)
		if strings.Contains(title, needle) || strings.Contains(needle, title) {
			return &results[i]
		}
	}
	return &results[0]
}

// FeedURL resolves a show title to its directory-hosted RSS feed URL.
func (c *Client) FeedURL(ctx context.Context, showTitle string) (string, error) {
	results, err := c.Search(ctx, showTitle)
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		return "", &apperr.NoMatchError{Term: showTitle}
	}
	match := BestMatch(showTitle, results)
	if match.FeedURL == "" {
		return "", &apperr.FeedUnavailableError{Title: match.CollectionName}
	}
	return match.FeedURL, nil
}
