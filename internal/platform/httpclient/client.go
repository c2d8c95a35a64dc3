// Package httpclient provides the caching HTTP client used for every outbound
// lookup: response cache, per-class rate limiting, retry with exponential
// backoff and API key rotation.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"
	"golang.org/x/sync/singleflight"

	"paperflow/internal/platform/cache"
	"paperflow/internal/platform/errors"
	"paperflow/internal/platform/logx"
	"paperflow/internal/platform/metrics"
	"paperflow/internal/platform/rate"
)

// Class selects which rate limiter admits a call.
type Class string

const (
	ClassRead   Class = "read"
	ClassSearch Class = "search"
)

// maxBodyBytes bounds a single response body.
const maxBodyBytes = 16 << 20

// Client is the process-wide outbound client. It is safe for concurrent use.
//
// Returned maps may be shared between callers and the cache; treat them as
// read-only.
type Client struct {
	httpClient    *http.Client
	readLimiter   *rate.Limiter
	searchLimiter *rate.Limiter
	cache         *cache.TTLCache[map[string]any]
	flight        singleflight.Group
	keys          *keyRing
	logger        logx.Logger
	metrics       *metrics.Metrics
	config        Config
	stopJanitor   func()

	sleep func(ctx context.Context, d time.Duration) error
}

// Option customizes a Client.
type Option func(*Client)

// WithMetrics records request, retry and cache metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithTransport replaces the underlying round tripper.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) { c.httpClient.Transport = rt }
}

// New creates a client with the given configuration. Zero values take the
// defaults from DefaultConfig, except CacheTTL: zero disables the response
// cache.
func New(config Config, logger logx.Logger, opts ...Option) (*Client, error) {
	config = config.withDefaults()

	base, err := url.Parse(config.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, errors.Validation("httpclient.new", fmt.Sprintf("invalid base url %q", config.BaseURL))
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create cookie jar")
	}

	dialer := &net.Dialer{
		Timeout:   config.ConnectTimeout,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		TLSHandshakeTimeout:   config.ConnectTimeout,
		ResponseHeaderTimeout: config.ReadTimeout,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   20,
		IdleConnTimeout:       30 * time.Second,
	}

	c := &Client{
		httpClient: &http.Client{
			Transport: transport,
			Jar:       jar,
			Timeout:   config.ConnectTimeout + config.ReadTimeout,
		},
		readLimiter:   rate.PerSecond(config.RequestsPerSecond),
		searchLimiter: rate.PerSecond(config.SearchRequestsPerSecond),
		cache:         cache.New[map[string]any](config.CacheMaxEntries, config.CacheTTL),
		keys:          newKeyRing(config.APIKeys),
		logger:        logger.With("component", "httpclient"),
		config:        config,
		sleep:         sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	if config.CacheTTL > 0 {
		c.stopJanitor = c.cache.StartJanitor(config.CacheTTL)
	}

	return c, nil
}

// Get performs a cached, read-class GET of endpoint with params.
func (c *Client) Get(ctx context.Context, endpoint string, params map[string]string) (map[string]any, error) {
	return c.cachedJSON(ctx, ClassRead, endpoint, params)
}

// Search performs a cached GET admitted by the search limiter.
func (c *Client) Search(ctx context.Context, endpoint string, params map[string]string) (map[string]any, error) {
	return c.cachedJSON(ctx, ClassSearch, endpoint, params)
}

// Post sends body as JSON and decodes the JSON object response. POST
// responses are never cached.
func (c *Client) Post(ctx context.Context, endpoint string, body any) (map[string]any, error) {
	const op = "httpclient.post"

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, errors.ExternalService(op, "failed to encode request body", errors.Wrap(errors.ErrInvalidInput, err.Error()), false)
	}

	data, err := c.do(ctx, ClassRead, http.MethodPost, c.resolve(endpoint, nil), payload)
	if err != nil {
		return nil, err
	}
	return decodeObject(op, data)
}

// Fetch performs an uncached read-class GET of an absolute URL and returns
// the raw body.
func (c *Client) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	return c.do(ctx, ClassRead, http.MethodGet, rawURL, nil)
}

func (c *Client) cachedJSON(ctx context.Context, class Class, endpoint string, params map[string]string) (map[string]any, error) {
	key := CacheKey(endpoint, params)

	if v, ok := c.cache.Get(key); ok {
		c.metrics.ObserveCache(true)
		c.logger.Debug("Cache hit", "endpoint", endpoint, "class", string(class))
		return v, nil
	}
	c.metrics.ObserveCache(false)

	// The shared request outlives any single caller; each caller waits on
	// its own context.
	shared := context.WithoutCancel(ctx)
	ch := c.flight.DoChan(key, func() (any, error) {
		data, err := c.do(shared, class, http.MethodGet, c.resolve(endpoint, params), nil)
		if err != nil {
			return nil, err
		}
		obj, err := decodeObject("httpclient.get", data)
		if err != nil {
			return nil, err
		}
		if c.config.CacheTTL > 0 {
			c.cache.Set(key, obj)
		}
		return obj, nil
	})

	select {
	case <-ctx.Done():
		return nil, errors.ExternalService("httpclient.get", "request canceled", ctx.Err(), false)
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			c.logger.Debug("Coalesced concurrent miss", "endpoint", endpoint)
		}
		return res.Val.(map[string]any), nil
	}
}

// do runs one logical request: limiter admission, the HTTP attempt and
// retries of transient failures.
func (c *Client) do(ctx context.Context, class Class, method, target string, body []byte) ([]byte, error) {
	op := "httpclient." + strings.ToLower(method)
	maxAttempts := c.config.MaxRetryAttempts
	var lastErr error

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err := c.acquire(ctx, class); err != nil {
			return nil, errors.ExternalService(op, "rate limiter wait interrupted", err, false)
		}

		c.logger.Debug("HTTP request",
			"method", method,
			"url", target,
			"attempt", attempt+1,
			"max_attempts", maxAttempts,
		)

		start := time.Now()
		data, err := c.attempt(ctx, method, target, body)
		duration := time.Since(start)

		if err == nil {
			c.metrics.ObserveRequest(string(class), "ok", duration)
			c.logger.Debug("HTTP response received",
				"method", method,
				"url", target,
				"bytes", len(data),
				"duration_ms", duration.Milliseconds(),
			)
			return data, nil
		}

		lastErr = err
		transient := ctx.Err() == nil && errors.IsRetryable(err)

		c.logger.Warn("HTTP request failed",
			"method", method,
			"url", target,
			"attempt", attempt+1,
			"transient", transient,
			"error", err.Error(),
			"duration_ms", duration.Milliseconds(),
		)

		if !transient {
			c.metrics.ObserveRequest(string(class), "failed", duration)
			return nil, errors.ExternalService(op, fmt.Sprintf("%s %s", method, target), err, false)
		}
		c.metrics.ObserveRequest(string(class), "transient", duration)

		if attempt+1 >= maxAttempts {
			break
		}

		c.metrics.ObserveRetry(string(class))
		if err := c.backoff(ctx, attempt); err != nil {
			return nil, errors.ExternalService(op, "backoff interrupted", err, false)
		}
	}

	return nil, errors.ExternalService(op, fmt.Sprintf("request failed after %d attempts", maxAttempts), lastErr, true)
}

// attempt performs a single HTTP exchange and classifies its failure.
func (c *Client) attempt(ctx context.Context, method, target string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "failed to create request for %s %s: %v", method, target, err)
	}

	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if key := c.keys.Next(); key != "" {
		if c.config.AuthHeader == HeaderAuthorization {
			req.Header.Set(HeaderAuthorization, "Bearer "+key)
		} else {
			req.Header.Set(c.config.AuthHeader, key)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError(ctx, err)
	}
	defer resp.Body.Close()

	if err := CheckStatus(resp); err != nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, err
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, classifyTransportError(ctx, err)
	}
	return data, nil
}

// acquire waits on the limiter for class.
func (c *Client) acquire(ctx context.Context, class Class) error {
	limiter := c.readLimiter
	if class == ClassSearch {
		limiter = c.searchLimiter
	}

	start := time.Now()
	err := limiter.Acquire(ctx)
	c.metrics.ObserveLimiterWait(string(class), time.Since(start))
	return err
}

// backoff sleeps RetryBackoff * 2^attempt, capped at MaxRetryBackoff.
func (c *Client) backoff(ctx context.Context, attempt int) error {
	backoff := c.config.RetryBackoff * time.Duration(math.Pow(2, float64(attempt)))
	if backoff > c.config.MaxRetryBackoff {
		backoff = c.config.MaxRetryBackoff
	}

	c.logger.Debug("Backing off before retry",
		"attempt", attempt+1,
		"backoff_ms", backoff.Milliseconds(),
	)

	return c.sleep(ctx, backoff)
}

// resolve builds the request URL. Absolute endpoints bypass BaseURL.
func (c *Client) resolve(endpoint string, params map[string]string) string {
	target := endpoint
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		target = strings.TrimSuffix(c.config.BaseURL, "/") + "/" + strings.TrimPrefix(endpoint, "/")
	}
	if q := encodeParams(params); q != "" {
		sep := "?"
		if strings.Contains(target, "?") {
			sep = "&"
		}
		target += sep + q
	}
	return target
}

// CacheStats returns a snapshot of the response cache counters.
func (c *Client) CacheStats() cache.Stats {
	return c.cache.Stats()
}

// Config returns the effective configuration.
func (c *Client) Config() Config {
	return c.config
}

// Close stops the cache janitor and releases idle connections.
func (c *Client) Close() {
	if c.stopJanitor != nil {
		c.stopJanitor()
	}
	c.httpClient.CloseIdleConnections()
}

// String returns a human-readable representation of the client configuration.
func (c *Client) String() string {
	return fmt.Sprintf("HTTPClient{base=%s, rps=%.2f, search_rps=%.2f, max_attempts=%d, keys=%d}",
		c.config.BaseURL,
		c.config.RequestsPerSecond,
		c.config.SearchRequestsPerSecond,
		c.config.MaxRetryAttempts,
		c.keys.Len(),
	)
}

// CheckStatus maps a non-2xx status to a sentinel error.
func CheckStatus(resp *http.Response) error {
	if resp == nil {
		return errors.New("response is nil")
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return errors.Wrapf(errors.ErrRateLimit, "HTTP %d", resp.StatusCode)
	case resp.StatusCode == http.StatusNotFound:
		return errors.Wrapf(errors.ErrNotFound, "HTTP %d", resp.StatusCode)
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return errors.Wrapf(errors.ErrUnauthorized, "HTTP %d", resp.StatusCode)
	case resp.StatusCode >= 500:
		return errors.Wrapf(errors.ErrServiceUnavailable, "HTTP %d", resp.StatusCode)
	default:
		return errors.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}
}

func classifyTransportError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return errors.Wrap(errors.ErrTimeout, err.Error())
	}
	return errors.Wrap(errors.ErrConnectionFailed, err.Error())
}

func decodeObject(op string, data []byte) (map[string]any, error) {
	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, errors.ExternalService(op, "undecodable response body", errors.Wrap(errors.ErrInvalidResponse, err.Error()), false)
	}
	if obj == nil {
		return nil, errors.ExternalService(op, "response body is not a JSON object", errors.ErrInvalidResponse, false)
	}
	return obj, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
