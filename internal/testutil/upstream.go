// internal/testutil/upstream.go
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
)

// Upstream is an httptest server that counts calls and delegates to a
// swappable handler. It stands in for Semantic Scholar, Hacker News and the
// chat-completions endpoint in tests.
type Upstream struct {
	*httptest.Server

	calls   atomic.Int64
	mu      sync.Mutex
	handler http.HandlerFunc
	paths   []string
}

// NewUpstream starts a server answering with handler and closes it on cleanup.
func NewUpstream(t *testing.T, handler http.HandlerFunc) *Upstream {
	t.Helper()
	u := &Upstream{handler: handler}
	u.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u.calls.Add(1)
		u.mu.Lock()
		u.paths = append(u.paths, r.URL.RequestURI())
		h := u.handler
		u.mu.Unlock()
		h(w, r)
	}))
	t.Cleanup(u.Close)
	return u
}

// Calls returns how many requests reached the server.
func (u *Upstream) Calls() int {
	return int(u.calls.Load())
}

// Paths returns the request URIs seen so far, in arrival order.
func (u *Upstream) Paths() []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]string(nil), u.paths...)
}

// SetHandler swaps the handler for subsequent requests.
func (u *Upstream) SetHandler(h http.HandlerFunc) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.handler = h
}

// JSONHandler answers every request with status and body encoded as JSON.
func JSONHandler(status int, body interface{}) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}
}
