package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ppiankov/endi/internal/cache"
	"github.com/ppiankov/endi/internal/logging"
	"github.com/ppiankov/endi/internal/model"
	"github.com/ppiankov/endi/internal/util"
	"go.uber.org/zap"
)

// Retry defaults
const (
	DefaultFetchAttempts = 3
	DefaultRetryDelay    = 2 * time.Second
)

// ErrDisallowed is returned when robots.txt forbids fetching a page
var ErrDisallowed = errors.New("disallowed by robots.txt")

// fetchWaitFunc waits between attempts and returns early with the
// context error once ctx is done; tests replace it
var fetchWaitFunc = waitOrDone

func waitOrDone(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Fetcher fetches HTML pages, honouring robots.txt and caching bodies
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
	robots     *util.RobotsChecker // nil when robots.txt is ignored
	cache      cache.Cache
	attempts   int
	retryDelay time.Duration
	logger     *zap.Logger
}

// NewFetcher creates a new Fetcher with the given configuration
func NewFetcher(timeout time.Duration, userAgent string, maxBytes int64, respectRobots bool, httpProxy, httpsProxy, noProxy string) *Fetcher {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = util.NewProxyFunc(httpProxy, httpsProxy, noProxy)

	f := &Fetcher{
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		userAgent:  userAgent,
		maxBytes:   maxBytes,
		cache:      cache.Nop{},
		attempts:   DefaultFetchAttempts,
		retryDelay: DefaultRetryDelay,
		logger:     zap.NewNop(),
	}
	if respectRobots {
		f.robots = util.NewRobotsChecker(userAgent, timeout, nil)
	}
	return f
}

// NewFetcherFromConfig builds a fetcher from the http and cache sections
func NewFetcherFromConfig(cfg *model.Config, logger *zap.Logger) *Fetcher {
	h := cfg.HTTP
	f := NewFetcher(h.Timeout, h.UserAgent, h.MaxBodyBytes, h.RespectRobot, h.HTTPProxy, h.HTTPSProxy, h.NoProxy)
	f.SetRetry(h.RetryCount, h.RetryDelay)
	f.SetCache(cache.New(cfg.Cache, cfg.Paths.CacheDir))
	f.SetLogger(logger)
	return f
}

// SetRetry sets the total number of attempts and the pause between them
func (f *Fetcher) SetRetry(attempts int, delay time.Duration) {
	if attempts < 1 {
		attempts = 1
	}
	f.attempts = attempts
	f.retryDelay = delay
}

// SetCache sets the page cache; nil disables caching
func (f *Fetcher) SetCache(c cache.Cache) {
	if c == nil {
		c = cache.Nop{}
	}
	f.cache = c
}

// SetLogger sets the fetcher's logger
func (f *Fetcher) SetLogger(logger *zap.Logger) {
	f.logger = logging.Component(logger, "fetcher")
	if f.robots != nil {
		f.robots.SetLogger(logger)
	}
}

// FetchResult contains the fetched HTML and where it came from
type FetchResult struct {
	HTML      string
	Subject   string
	FinalURL  string
	FromCache bool
}

// FetchWithRetry fetches a page, retrying transient failures.
// Cached pages are returned without touching the network.
func (f *Fetcher) FetchWithRetry(ctx context.Context, rawURL string) (*FetchResult, error) {
	key := cache.CacheKey(rawURL)
	if body, found := f.cache.Get(key); found {
		f.logger.Debug("page cache hit", zap.String("url", rawURL))
		return &FetchResult{
			HTML:      string(body),
			Subject:   extractSubject(rawURL),
			FinalURL:  rawURL,
			FromCache: true,
		}, nil
	}

	if f.robots != nil {
		allowed, err := f.robots.CanFetch(ctx, rawURL)
		if err != nil {
			return nil, err
		}
		if !allowed {
			return nil, fmt.Errorf("%w: %s", ErrDisallowed, rawURL)
		}
	}

	var lastErr error
	for attempt := 1; attempt <= f.attempts; attempt++ {
		result, err := f.Fetch(ctx, rawURL)
		if err == nil {
			if err := f.cache.Set(key, []byte(result.HTML), 0); err != nil {
				f.logger.Warn("failed to cache page", zap.String("url", rawURL), zap.Error(err))
			}
			return result, nil
		}

		lastErr = err
		if !isRetryableFetchError(err) || attempt == f.attempts || ctx.Err() != nil {
			break
		}

		f.logger.Warn("fetch attempt failed",
			zap.String("url", rawURL),
			zap.Int("attempt", attempt),
			zap.Int("attempts", f.attempts),
			zap.Error(err))
		if err := fetchWaitFunc(ctx, f.retryDelay); err != nil {
			return nil, fmt.Errorf("retry %s: %w", rawURL, err)
		}
	}

	return nil, lastErr
}

// Fetch performs a single GET of the given URL
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*FetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "ru-RU,ru;q=0.9,en;q=0.8")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status: %d %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	finalURL := resp.Request.URL.String()
	return &FetchResult{
		HTML:     string(body),
		Subject:  extractSubject(finalURL),
		FinalURL: finalURL,
	}, nil
}

// isRetryableFetchError reports whether a Fetch error is worth retrying:
// network failures, 429 and 5xx responses
func isRetryableFetchError(err error) bool {
	if err == nil {
		return false
	}

	msg := err.Error()
	if strings.HasPrefix(msg, "fetch:") {
		return true
	}

	var code int
	if _, scanErr := fmt.Sscanf(msg, "unexpected status: %d", &code); scanErr == nil {
		return code == http.StatusTooManyRequests || code >= 500
	}
	return false
}

// extractSubject derives a readable page subject from the URL
func extractSubject(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	path := strings.Trim(parsed.Path, "/")
	if path == "" {
		return parsed.Host
	}

	segments := strings.Split(path, "/")
	last := segments[len(segments)-1]

	last = strings.ReplaceAll(last, "_", " ")
	last = strings.ReplaceAll(last, "-", " ")

	if idx := strings.LastIndex(last, "."); idx > 0 {
		last = last[:idx]
	}

	return last
}
