package httpclient

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
	"sync"
)

// CacheKey derives the cache key for a request. Parameters are sorted, so
// the same endpoint and parameter set always map to the same key.
func CacheKey(endpoint string, params map[string]string) string {
	h := sha256.New()
	h.Write([]byte(strings.TrimPrefix(endpoint, "/")))
	h.Write([]byte{'?'})
	h.Write([]byte(encodeParams(params)))
	return hex.EncodeToString(h.Sum(nil))
}

// encodeParams renders params as a query string with keys in sorted order.
func encodeParams(params map[string]string) string {
	if len(params) == 0 {
		return ""
	}
	values := make(url.Values, len(params))
	for k, v := range params {
		values.Set(k, v)
	}
	return values.Encode()
}

// keyRing hands out API keys round-robin.
type keyRing struct {
	mu   sync.Mutex
	keys []string
	next int
}

func newKeyRing(keys []string) *keyRing {
	cleaned := make([]string, 0, len(keys))
	for _, k := range keys {
		if k = strings.TrimSpace(k); k != "" {
			cleaned = append(cleaned, k)
		}
	}
	return &keyRing{keys: cleaned}
}

// Next returns the next key, or "" when the ring is empty.
func (r *keyRing) Next() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.keys) == 0 {
		return ""
	}
	k := r.keys[r.next]
	r.next = (r.next + 1) % len(r.keys)
	return k
}

func (r *keyRing) Len() int {
	return len(r.keys)
}
