package wordpress

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// totalPagesHeader carries the total page count for paginated listings.
const totalPagesHeader = "X-WP-TotalPages"

// defaultMaxBodySize limits response bodies to 10MB. Rendered post content
// is far smaller in practice; the limit guards against runaway responses.
const defaultMaxBodySize int64 = 10 * 1024 * 1024

// RetryPolicy describes the retry-with-backoff behavior applied to every
// request. The delay doubles after each failed attempt, so the defaults
// produce waits of 1s, 2s, 4s.
//
// Design decision: one policy object applied uniformly by the client, not
// duplicated per call site. Components above this package never retry.
type RetryPolicy struct {
	// Attempts is the total number of tries, including the first.
	Attempts int

	// BaseDelay is the wait before the second attempt.
	BaseDelay time.Duration
}

// DefaultRetryPolicy returns the standard 3-attempt policy.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Attempts: 3, BaseDelay: time.Second}
}

// Client is a read-only WordPress REST API client for one site.
type Client struct {
	// httpClient performs the actual requests.
	httpClient *http.Client

	// baseURL is the site root without trailing slash.
	baseURL string

	// retry is the retry policy applied to every request.
	retry RetryPolicy

	// limiter throttles outgoing requests as a politeness measure.
	limiter *rate.Limiter

	// userAgent is sent with every request.
	userAgent string

	// maxBodySize caps how much of a response body is read.
	maxBodySize int64

	// logger receives request diagnostics.
	logger *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client. Tests use this to point the
// client at httptest servers; production code can tune timeouts.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithRetryPolicy sets the retry policy for all requests.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(c *Client) {
		if p.Attempts > 0 {
			c.retry = p
		}
	}
}

// WithRateLimit caps the outgoing request rate in requests per second.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithMaxBodySize caps the response body size in bytes.
func WithMaxBodySize(size int64) Option {
	return func(c *Client) {
		if size > 0 {
			c.maxBodySize = size
		}
	}
}

// WithLogger sets the logger for request diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a client for the site at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		baseURL:     strings.TrimRight(baseURL, "/"),
		retry:       DefaultRetryPolicy(),
		limiter:     rate.NewLimiter(rate.Limit(5), 1),
		userAgent:   "wplinks",
		maxBodySize: defaultMaxBodySize,
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// BaseURL returns the configured site root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// PostsPage fetches one page of the post directory.
// TotalPages defaults to 1 when the X-WP-TotalPages header is absent.
// A body that is not a JSON list yields ErrMalformedResponse.
func (c *Client) PostsPage(ctx context.Context, page, perPage int) (*PostsPage, error) {
	u := fmt.Sprintf("%s/wp-json/wp/v2/posts?per_page=%d&page=%d", c.baseURL, perPage, page)
	body, header, err := c.get(ctx, u)
	if err != nil {
		return nil, err
	}

	var posts []Ref
	if err := json.Unmarshal(body, &posts); err != nil {
		return nil, fmt.Errorf("%w: posts page %d: %v", ErrMalformedResponse, page, err)
	}

	total := 1
	if v := header.Get(totalPagesHeader); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			total = n
		}
	}

	return &PostsPage{Posts: posts, TotalPages: total}, nil
}

// Post fetches a single post by ID, including rendered content and ACF data.
func (c *Client) Post(ctx context.Context, id int) (*Post, error) {
	u := fmt.Sprintf("%s/wp-json/wp/v2/posts/%d", c.baseURL, id)
	body, _, err := c.get(ctx, u)
	if err != nil {
		return nil, err
	}

	var post Post
	if err := json.Unmarshal(body, &post); err != nil {
		return nil, fmt.Errorf("%w: post %d: %v", ErrMalformedResponse, id, err)
	}
	return &post, nil
}

// PostBySlug looks up a post by slug. The API returns a list; the first
// entry wins. The second return is false when no post matches.
func (c *Client) PostBySlug(ctx context.Context, slug string) (Ref, bool, error) {
	return c.refBySlug(ctx, "posts", slug)
}

// PageBySlug looks up a page by slug.
func (c *Client) PageBySlug(ctx context.Context, slug string) (Ref, bool, error) {
	return c.refBySlug(ctx, "pages", slug)
}

// CategoryBySlug looks up a category by slug.
func (c *Client) CategoryBySlug(ctx context.Context, slug string) (Ref, bool, error) {
	return c.refBySlug(ctx, "categories", slug)
}

// refBySlug queries one resource collection filtered by slug.
func (c *Client) refBySlug(ctx context.Context, resource, slug string) (Ref, bool, error) {
	u := fmt.Sprintf("%s/wp-json/wp/v2/%s?slug=%s", c.baseURL, resource, url.QueryEscape(slug))
	body, _, err := c.get(ctx, u)
	if err != nil {
		return Ref{}, false, err
	}

	var refs []Ref
	if err := json.Unmarshal(body, &refs); err != nil {
		return Ref{}, false, fmt.Errorf("%w: %s by slug %q: %v", ErrMalformedResponse, resource, slug, err)
	}
	if len(refs) == 0 {
		return Ref{}, false, nil
	}
	return refs[0], true, nil
}

// get performs one GET with rate limiting and the retry policy.
// Any transport error or non-2xx status counts as a failed attempt; after
// the last attempt the error degrades to ErrUnavailable.
func (c *Client) get(ctx context.Context, rawURL string) ([]byte, http.Header, error) {
	var lastErr error

	for attempt := 1; attempt <= c.retry.Attempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, nil, err
		}

		body, header, err := c.do(ctx, rawURL)
		if err == nil {
			return body, header, nil
		}
		lastErr = err

		c.logger.Warn("request failed",
			"url", rawURL,
			"attempt", attempt,
			"maxAttempts", c.retry.Attempts,
			"error", err,
		)

		if attempt < c.retry.Attempts {
			// Exponential backoff: base, base*2, base*4, ...
			delay := c.retry.BaseDelay << (attempt - 1)
			select {
			case <-ctx.Done():
				return nil, nil, ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return nil, nil, fmt.Errorf("%w: GET %s: %v", ErrUnavailable, rawURL, lastErr)
}

// do performs a single request attempt.
func (c *Client) do(ctx context.Context, rawURL string) ([]byte, http.Header, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096)) //nolint:errcheck // Best effort drain
		return nil, nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodySize))
	if err != nil {
		return nil, nil, err
	}

	return body, resp.Header, nil
}
