// Package github implements the GitHub REST traversal engine: repository and
// branch discovery under pagination, quota-aware request issuance, branch
// tree resolution with a directory-walk fallback, and single-file content
// lookup.
//
// All requests are issued strictly sequentially. Pagination continuation and
// rate-limit accounting both read response headers from the previous request,
// so concurrent issuance would make the bookkeeping race-prone for no
// meaningful gain on a quota-limited API.
package github

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"github.com/pyventory/pyventory/pkg/cache"
)

const defaultBaseURL = "https://api.github.com"

// Client is an authenticated GitHub REST API client. Every exchange is
// surfaced as a Response carrying status, headers, and body so the rate
// limiter can inspect quota counters on each reply.
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
	limiter    *RateLimiter
	cache      cache.Cache
	cacheTTL   time.Duration
	pageDelay  time.Duration
	perPage    int
	logger     *log.Logger
}

// Options configures a Client. Zero values select production defaults.
type Options struct {
	// BaseURL overrides the API root, used by tests and GitHub Enterprise.
	BaseURL string
	// Cache stores file-content responses between runs. Nil disables caching.
	Cache cache.Cache
	// CacheTTL bounds the age of cached content. 0 means no expiration.
	CacheTTL time.Duration
	// PageDelay is the cooperative throttle between page fetches. It is a
	// courtesy to the API, not a correctness requirement; tests set a
	// negative value to disable it.
	PageDelay time.Duration
	// PerPage is the listing page size (max 100, the API cap).
	PerPage int
	// Timeout bounds each HTTP exchange.
	Timeout time.Duration
	// Logger receives quota warnings and pagination diagnostics.
	Logger *log.Logger
}

// NewClient creates a client authenticating with the given token.
// Pass an empty token for unauthenticated requests (much lower quota).
func NewClient(token string, opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.Cache == nil {
		opts.Cache = cache.NewNullCache()
	}
	if opts.PageDelay == 0 {
		opts.PageDelay = 500 * time.Millisecond
	} else if opts.PageDelay < 0 {
		opts.PageDelay = 0
	}
	if opts.PerPage <= 0 || opts.PerPage > 100 {
		opts.PerPage = 100
	}
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}

	return &Client{
		token:      token,
		baseURL:    opts.BaseURL,
		httpClient: &http.Client{Timeout: opts.Timeout},
		limiter:    NewRateLimiter(opts.Logger),
		cache:      opts.Cache,
		cacheTTL:   opts.CacheTTL,
		pageDelay:  opts.PageDelay,
		perPage:    opts.PerPage,
		logger:     opts.Logger,
	}
}

// Response captures a single HTTP exchange.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Get performs a GET against url, transparently pausing and re-issuing the
// same request whenever the rate limiter reports quota exhaustion. Errors are
// transport-level only; non-success statuses are returned to the caller.
func (c *Client) Get(ctx context.Context, url string) (*Response, error) {
	for {
		res, err := c.do(ctx, url)
		if err != nil {
			return nil, err
		}
		retry, err := c.limiter.Pause(ctx, res)
		if err != nil {
			return nil, err
		}
		if !retry {
			return res, nil
		}
	}
}

// getJSON performs a Get and unmarshals the body into v on a 200 response.
// The response is returned in all non-error cases so callers can inspect the
// status and headers.
func (c *Client) getJSON(ctx context.Context, url string, v any) (*Response, error) {
	res, err := c.Get(ctx, url)
	if err != nil {
		return nil, err
	}
	if res.StatusCode != http.StatusOK {
		return res, nil
	}
	if err := json.Unmarshal(res.Body, v); err != nil {
		return nil, err
	}
	return res, nil
}

// do performs one HTTP exchange without quota handling.
func (c *Client) do(ctx context.Context, url string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}, nil
}

// setHeaders sets common headers for GitHub API requests.
func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

// pause sleeps for d unless the context is cancelled first.
func (c *Client) pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
