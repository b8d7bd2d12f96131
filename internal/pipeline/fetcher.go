package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ppiankov/keywatch/internal/cache"
	"github.com/ppiankov/keywatch/internal/logging"
	"github.com/ppiankov/keywatch/internal/model"
	"github.com/ppiankov/keywatch/internal/util"
)

// ErrDisallowed is returned when robots.txt forbids fetching a URL
var ErrDisallowed = errors.New("disallowed by robots.txt")

// StatusError is a non-2xx HTTP response
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status: %d %s", e.Code, e.Status)
}

// RateLimiter paces requests per domain
type RateLimiter interface {
	Wait(ctx context.Context, rawURL string) error
}

const maxFetchAttempts = 3

// fetchSleepFunc is replaced in tests
var fetchSleepFunc = time.Sleep

// Fetcher fetches pages over HTTP, honoring robots.txt, per-domain rate
// limits and the page cache
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64

	cache    cache.Cache
	cacheTTL time.Duration
	robots   *util.RobotsChecker
	limiter  RateLimiter
	logger   logging.Logger
}

// FetcherOption configures a Fetcher
type FetcherOption func(*Fetcher)

// WithCache stores fetched pages in c
func WithCache(c cache.Cache, ttl time.Duration) FetcherOption {
	return func(f *Fetcher) { f.cache, f.cacheTTL = c, ttl }
}

// WithRobots checks robots.txt before each fetch
func WithRobots(r *util.RobotsChecker) FetcherOption {
	return func(f *Fetcher) { f.robots = r }
}

// WithRateLimiter paces fetches
func WithRateLimiter(l RateLimiter) FetcherOption {
	return func(f *Fetcher) { f.limiter = l }
}

// WithFetchLogger sets the logger
func WithFetchLogger(l logging.Logger) FetcherOption {
	return func(f *Fetcher) { f.logger = l }
}

// NewFetcher creates a Fetcher from the HTTP configuration
func NewFetcher(cfg model.HTTPConfig, opts ...FetcherOption) *Fetcher {
	maxBytes := cfg.MaxBodyBytes
	if maxBytes <= 0 {
		maxBytes = 10 * 1024 * 1024
	}

	f := &Fetcher{
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: &http.Transport{Proxy: util.NewProxyFunc(cfg.HTTPProxy, cfg.HTTPSProxy)},
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		userAgent: cfg.UserAgent,
		maxBytes:  maxBytes,
	}
	for _, opt := range opts {
		opt(f)
	}
	f.logger = logging.OrNop(f.logger)
	return f
}

// FetchResult contains the fetched body and metadata
type FetchResult struct {
	HTML     string          `json:"html"`
	Meta     model.FetchMeta `json:"meta"`
	FinalURL string          `json:"final_url"`
	Cached   bool            `json:"-"`
}

// Fetch returns the page at rawURL, from the cache when possible
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*FetchResult, error) {
	key := cache.CacheKey(rawURL)
	if f.cache != nil {
		if data, ok := f.cache.Get(key); ok {
			var cached FetchResult
			if err := json.Unmarshal(data, &cached); err == nil {
				cached.Cached = true
				return &cached, nil
			}
		}
	}

	var crawlDelay time.Duration
	if f.robots != nil {
		allowed, delay, err := f.robots.CanFetch(ctx, rawURL)
		if err != nil {
			return nil, err
		}
		if !allowed {
			return nil, fmt.Errorf("%s: %w", rawURL, ErrDisallowed)
		}
		crawlDelay = delay
	}

	if f.limiter != nil {
		if err := f.limiter.Wait(ctx, rawURL); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}
	if crawlDelay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(crawlDelay):
		}
	}

	result, err := f.FetchWithRetry(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	if f.cache != nil {
		if data, err := json.Marshal(result); err == nil {
			if err := f.cache.Set(key, data, f.cacheTTL); err != nil {
				f.logger.Warn("page cache write failed", logging.String("url", rawURL), logging.Error(err))
			}
		}
	}
	return result, nil
}

// FetchWithRetry fetches rawURL, retrying transient failures with
// exponential backoff
func (f *Fetcher) FetchWithRetry(ctx context.Context, rawURL string) (*FetchResult, error) {
	var lastErr error
	for attempt := 1; attempt <= maxFetchAttempts; attempt++ {
		result, err := f.fetchOnce(ctx, rawURL)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if !isRetryableFetchError(err) || attempt == maxFetchAttempts || ctx.Err() != nil {
			break
		}

		backoff := time.Duration(1<<(attempt-1)) * time.Second
		f.logger.Debug("retrying fetch",
			logging.String("url", rawURL),
			logging.Int("attempt", attempt),
			logging.Duration("backoff", backoff),
			logging.Error(err))
		fetchSleepFunc(backoff)
	}
	return nil, lastErr
}

func (f *Fetcher) fetchOnce(ctx context.Context, rawURL string) (*FetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, &transportError{err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	meta := model.FetchMeta{
		StatusCode:   resp.StatusCode,
		ContentType:  resp.Header.Get("Content-Type"),
		LastModified: resp.Header.Get("Last-Modified"),
		ETag:         resp.Header.Get("ETag"),
		Headers:      make(map[string]string),
	}
	for _, key := range []string{"Content-Length", "Server", "Cache-Control"} {
		if val := resp.Header.Get(key); val != "" {
			meta.Headers[key] = val
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Code: resp.StatusCode, Status: http.StatusText(resp.StatusCode)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	return &FetchResult{
		HTML:     string(body),
		Meta:     meta,
		FinalURL: resp.Request.URL.String(),
	}, nil
}

// transportError is a failure to get any response at all
type transportError struct {
	err error
}

func (e *transportError) Error() string { return "fetch: " + e.err.Error() }
func (e *transportError) Unwrap() error { return e.err }

// isRetryableFetchError reports whether a fetch failure is worth retrying:
// 5xx and 429 responses, and transport errors other than cancellation
func isRetryableFetchError(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code >= 500 || statusErr.Code == http.StatusTooManyRequests
	}

	var tErr *transportError
	return errors.As(err, &tErr)
}
