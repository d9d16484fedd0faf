// Package websearch is the outbound client for the web search and market
// news providers. Both are optional: an unconfigured provider reports
// ErrNotConfigured and callers degrade gracefully.
package websearch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"

	"brokerscope/internal/metrics"
)

// ErrNotConfigured is returned when the provider URL or key is missing.
var ErrNotConfigured = errors.New("websearch: provider not configured")

const (
	serviceSearch = "search"
	serviceNews   = "news"

	userAgent = "brokerscope/1.0"
)

// Options configures a Client.
type Options struct {
	SearchURL string
	SearchKey string
	NewsURL   string
	NewsKey   string

	Timeout           time.Duration // per attempt; default 10s
	MaxRetries        uint64        // default 3
	RequestsPerSecond float64       // client-side limit; default 5
}

// Client calls the search and news providers with client-side rate
// limiting and retries on transient failures.
type Client struct {
	opts Options
	hc   *http.Client
	rl   *rate.Limiter

	// initialInterval is the first retry delay.
	initialInterval time.Duration
}

// New builds a Client. It never fails; providers without a URL and key are
// simply reported as unconfigured.
func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = 3
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = 5
	}
	burst := int(opts.RequestsPerSecond)
	if burst < 1 {
		burst = 1
	}
	return &Client{
		opts:            opts,
		hc:              &http.Client{Timeout: opts.Timeout},
		rl:              rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst),
		initialInterval: 200 * time.Millisecond,
	}
}

// SearchConfigured reports whether web search is available.
func (c *Client) SearchConfigured() bool {
	return c != nil && c.opts.SearchURL != "" && c.opts.SearchKey != ""
}

// NewsConfigured reports whether market news is available.
func (c *Client) NewsConfigured() bool {
	return c != nil && c.opts.NewsURL != "" && c.opts.NewsKey != ""
}

// Result is a single web search hit.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

type searchResponse struct {
	Results []Result `json:"results"`
}

// Search queries the web search provider.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	if !c.SearchConfigured() {
		return nil, ErrNotConfigured
	}
	q := url.Values{}
	q.Set("q", query)
	q.Set("count", strconv.Itoa(clampLimit(limit)))

	var out searchResponse
	if err := c.get(ctx, serviceSearch, c.opts.SearchURL, c.opts.SearchKey, q, &out); err != nil {
		return nil, err
	}
	if out.Results == nil {
		out.Results = []Result{}
	}
	return out.Results, nil
}

// NewsItem is a single market news article.
type NewsItem struct {
	Title       string     `json:"title"`
	URL         string     `json:"url"`
	Source      string     `json:"source"`
	Summary     string     `json:"summary"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
}

type newsResponse struct {
	Items []NewsItem `json:"items"`
}

// News fetches market news, optionally narrowed by a topic.
func (c *Client) News(ctx context.Context, topic string, limit int) ([]NewsItem, error) {
	if !c.NewsConfigured() {
		return nil, ErrNotConfigured
	}
	q := url.Values{}
	if topic != "" {
		q.Set("q", topic)
	}
	q.Set("limit", strconv.Itoa(clampLimit(limit)))

	var out newsResponse
	if err := c.get(ctx, serviceNews, c.opts.NewsURL, c.opts.NewsKey, q, &out); err != nil {
		return nil, err
	}
	if out.Items == nil {
		out.Items = []NewsItem{}
	}
	return out.Items, nil
}

func clampLimit(n int) int {
	switch {
	case n <= 0:
		return 10
	case n > 50:
		return 50
	}
	return n
}

// statusError is a non-2xx provider response.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	if e.body == "" {
		return fmt.Sprintf("provider returned %d", e.code)
	}
	return fmt.Sprintf("provider returned %d: %s", e.code, e.body)
}

// retryable reports whether a status code is worth another attempt.
func retryable(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}

// get performs a rate-limited GET with retries and decodes the JSON body
// into out. 4xx responses other than 429 fail immediately.
func (c *Client) get(ctx context.Context, service, base, key string, q url.Values, out any) error {
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}

	u, err := url.Parse(base)
	if err != nil {
		return fmt.Errorf("parse %s url: %w", service, err)
	}
	merged := u.Query()
	for k, vs := range q {
		merged[k] = vs
	}
	u.RawQuery = merged.Encode()
	target := u.String()

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = c.initialInterval
	eb.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(eb, c.opts.MaxRetries), ctx)

	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("X-API-Key", key)
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", userAgent)

		start := time.Now()
		resp, err := c.hc.Do(req)
		if err != nil {
			metrics.ObserveExternal(service, 0, time.Since(start))
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return err
		}
		defer resp.Body.Close()
		metrics.ObserveExternal(service, resp.StatusCode, time.Since(start))

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			serr := &statusError{code: resp.StatusCode, body: strings.TrimSpace(string(b))}
			if retryable(resp.StatusCode) {
				return serr
			}
			return backoff.Permanent(serr)
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return backoff.Permanent(fmt.Errorf("decode %s response: %w", service, err))
		}
		return nil
	}

	if err := backoff.Retry(op, policy); err != nil {
		return fmt.Errorf("%s request: %w", service, err)
	}
	return nil
}
