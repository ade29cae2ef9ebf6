package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mikeboe/osint-investigator/pkg/config"
	"github.com/mikeboe/osint-investigator/pkg/logging"
	"github.com/mikeboe/osint-investigator/pkg/metrics"
	"github.com/mikeboe/osint-investigator/pkg/osint"
)

const (
	// DefaultSearchURL is the Google Custom Search JSON API endpoint.
	DefaultSearchURL = "https://www.googleapis.com/customsearch/v1"
	// MaxPageSize is the provider's page size.
	MaxPageSize = 10

	attemptsPerSearchKey = 2
	timeoutRetryDelay    = time.Second
)

var errRateLimited = errors.New("rate limited")

// CustomSearchItem is one entry of the API's "items" array.
type CustomSearchItem struct {
	Title       string        `json:"title"`
	Link        string        `json:"link"`
	Snippet     string        `json:"snippet"`
	DisplayLink string        `json:"displayLink"`
	PageMap     osint.PageMap `json:"pagemap"`
}

// CustomSearchResponse is the subset of the API response we read.
type CustomSearchResponse struct {
	Items []CustomSearchItem `json:"items"`
}

// CustomSearch queries Google Custom Search with a pool of credential pairs.
type CustomSearch struct {
	BaseURL     string
	Credentials []config.SearchCredential
	Country     string
	Language    string
	HTTPClient  *http.Client
	Logger      *slog.Logger
	Sleep       func(time.Duration)
}

var _ osint.Searcher = (*CustomSearch)(nil)

// NewCustomSearch creates a search adapter with a per-call timeout.
func NewCustomSearch(creds []config.SearchCredential, country, language string, timeout time.Duration) *CustomSearch {
	return &CustomSearch{
		BaseURL:     DefaultSearchURL,
		Credentials: creds,
		Country:     country,
		Language:    language,
		HTTPClient:  &http.Client{Timeout: timeout},
		Logger:      slog.Default(),
		Sleep:       time.Sleep,
	}
}

// Search runs query and tags every hit with tag. Provider failures are
// absorbed: when every credential pair fails the result is empty. Only
// invalid arguments return an error.
func (c *CustomSearch) Search(ctx context.Context, query string, maxResults int, tag string) ([]osint.RawResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("empty query for source %q", tag)
	}
	if maxResults < 1 || maxResults > MaxPageSize {
		return nil, fmt.Errorf("maxResults must be between 1 and %d, got %d", MaxPageSize, maxResults)
	}

	logger := c.logger()

	for _, cred := range c.Credentials {
	attempts:
		for attempt := range attemptsPerSearchKey {
			if ctx.Err() != nil {
				logger.Warn("Search cancelled", "source", tag, "error", ctx.Err())
				return []osint.RawResult{}, nil
			}

			items, err := c.fetch(ctx, cred, query, maxResults)
			switch {
			case err == nil:
				metrics.RecordProvider("search", metrics.OutcomeOK)
				results := toRawResults(items, tag)
				logger.Info("Search succeeded", "source", tag, "count", len(results), "key", logging.KeyHint(cred.APIKey))
				return results, nil

			case errors.Is(err, errRateLimited):
				metrics.RecordProvider("search", metrics.OutcomeRateLimited)
				backoff := time.Duration(1<<attempt) * time.Second
				logger.Warn("Search rate limited", "source", tag, "key", logging.KeyHint(cred.APIKey), "attempt", attempt+1, "backoff", backoff)
				c.sleep(backoff)

			case isTimeout(err):
				metrics.RecordProvider("search", metrics.OutcomeTimeout)
				logger.Warn("Search timed out", "source", tag, "key", logging.KeyHint(cred.APIKey), "attempt", attempt+1)
				c.sleep(timeoutRetryDelay)

			default:
				metrics.RecordProvider("search", metrics.OutcomeError)
				logger.Error("Search failed", "source", tag, "key", logging.KeyHint(cred.APIKey), "error", err)
				break attempts
			}
		}
	}

	logger.Error("All search keys failed", "source", tag, "query", query)
	return []osint.RawResult{}, nil
}

func (c *CustomSearch) fetch(ctx context.Context, cred config.SearchCredential, query string, maxResults int) ([]CustomSearchItem, error) {
	params := url.Values{}
	params.Add("q", query)
	params.Add("key", cred.APIKey)
	params.Add("cx", cred.EngineID)
	params.Add("num", strconv.Itoa(maxResults))
	if c.Country != "" {
		params.Add("gl", c.Country)
	}
	if c.Language != "" {
		params.Add("hl", c.Language)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL()+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}

	resp, err := c.client().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, errRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("API returned non-200 status code: %d, body: %s", resp.StatusCode, string(bodyBytes))
	}

	var payload CustomSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return payload.Items, nil
}

func toRawResults(items []CustomSearchItem, tag string) []osint.RawResult {
	results := make([]osint.RawResult, 0, len(items))
	for _, it := range items {
		results = append(results, osint.RawResult{
			Source:      tag,
			Title:       it.Title,
			Snippet:     it.Snippet,
			Link:        it.Link,
			DisplayLink: it.DisplayLink,
			PageMap:     it.PageMap,
		})
	}
	return results
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func (c *CustomSearch) baseURL() string {
	if c.BaseURL == "" {
		return DefaultSearchURL
	}
	return c.BaseURL
}

func (c *CustomSearch) client() *http.Client {
	if c.HTTPClient == nil {
		return http.DefaultClient
	}
	return c.HTTPClient
}

func (c *CustomSearch) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}

func (c *CustomSearch) sleep(d time.Duration) {
	if c.Sleep == nil {
		time.Sleep(d)
		return
	}
	c.Sleep(d)
}
