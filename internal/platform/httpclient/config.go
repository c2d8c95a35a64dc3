package httpclient

import (
	"time"
)

// AuthHeader values understood by the client when sending API keys.
const (
	HeaderAPIKey        = "x-api-key"
	HeaderAuthorization = "Authorization"
)

// Config holds the configuration for the caching client.
type Config struct {
	// BaseURL is prepended to relative endpoints.
	// Default: "https://api.semanticscholar.org/graph/v1"
	BaseURL string

	// RequestsPerSecond bounds read-class calls (Get, Post, Fetch).
	// Default: 0.33, the unauthenticated Semantic Scholar tier
	RequestsPerSecond float64

	// SearchRequestsPerSecond bounds search-class calls.
	// Default: 0.2
	SearchRequestsPerSecond float64

	// CacheTTL is how long a successful GET response is served from memory.
	// Zero disables the cache; concurrent identical misses are still
	// coalesced.
	// Default: 1 hour (DefaultConfig only)
	CacheTTL time.Duration

	// CacheMaxEntries bounds the response cache. Least recently used entries
	// are evicted first.
	// Default: 1000
	CacheMaxEntries int

	// ConnectTimeout bounds dialing and the TLS handshake.
	// Default: 5 seconds
	ConnectTimeout time.Duration

	// ReadTimeout bounds waiting for response headers and reading the body.
	// Default: 30 seconds
	ReadTimeout time.Duration

	// MaxRetryAttempts is the total number of attempts for transient failures.
	// Default: 3
	MaxRetryAttempts int

	// RetryBackoff is the initial backoff; it doubles with each attempt.
	// Default: 1 second
	RetryBackoff time.Duration

	// MaxRetryBackoff caps a single backoff.
	// Default: 30 seconds
	MaxRetryBackoff time.Duration

	// UserAgent is the User-Agent header value.
	// Default: "paperflow/1.0"
	UserAgent string

	// APIKeys are rotated round-robin, one per request. Empty means
	// unauthenticated.
	APIKeys []string

	// AuthHeader selects how keys are sent: HeaderAPIKey sends the raw key,
	// HeaderAuthorization sends "Bearer <key>".
	// Default: HeaderAPIKey
	AuthHeader string
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		BaseURL:                 "https://api.semanticscholar.org/graph/v1",
		RequestsPerSecond:       0.33,
		SearchRequestsPerSecond: 0.2,
		CacheTTL:                time.Hour,
		CacheMaxEntries:         1000,
		ConnectTimeout:          5 * time.Second,
		ReadTimeout:             30 * time.Second,
		MaxRetryAttempts:        3,
		RetryBackoff:            1 * time.Second,
		MaxRetryBackoff:         30 * time.Second,
		UserAgent:               "paperflow/1.0",
		AuthHeader:              HeaderAPIKey,
	}
}

// withDefaults fills zero values from DefaultConfig.
func (c Config) withDefaults() Config {
	def := DefaultConfig()

	if c.BaseURL == "" {
		c.BaseURL = def.BaseURL
	}
	if c.RequestsPerSecond <= 0 {
		c.RequestsPerSecond = def.RequestsPerSecond
	}
	if c.SearchRequestsPerSecond <= 0 {
		c.SearchRequestsPerSecond = def.SearchRequestsPerSecond
	}
	if c.CacheTTL < 0 {
		c.CacheTTL = 0
	}
	if c.CacheMaxEntries <= 0 {
		c.CacheMaxEntries = def.CacheMaxEntries
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = def.ConnectTimeout
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = def.ReadTimeout
	}
	if c.MaxRetryAttempts <= 0 {
		c.MaxRetryAttempts = def.MaxRetryAttempts
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = def.RetryBackoff
	}
	if c.MaxRetryBackoff <= 0 {
		c.MaxRetryBackoff = def.MaxRetryBackoff
	}
	if c.MaxRetryBackoff < c.RetryBackoff {
		c.MaxRetryBackoff = c.RetryBackoff
	}
	if c.UserAgent == "" {
		c.UserAgent = def.UserAgent
	}
	if c.AuthHeader == "" {
		c.AuthHeader = def.AuthHeader
	}
	return c
}
