// internal/workers/helpers_test.go
package workers

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"paperflow/internal/platform/httpclient"
	"paperflow/internal/testutil"
)

func newTestClient(t *testing.T, baseURL string) *httpclient.Client {
	t.Helper()
	c, err := httpclient.New(httpclient.Config{
		BaseURL:                 baseURL,
		RequestsPerSecond:       1000,
		SearchRequestsPerSecond: 1000,
		CacheTTL:                time.Hour,
		CacheMaxEntries:         100,
		ConnectTimeout:          time.Second,
		ReadTimeout:             2 * time.Second,
		MaxRetryAttempts:        1,
		RetryBackoff:            time.Millisecond,
		MaxRetryBackoff:         time.Millisecond,
	}, testutil.SilentLogger())
	testutil.AssertNoError(t, err, "client should be created")
	t.Cleanup(c.Close)
	return c
}

// samplePaper tiene todos los campos que cuenta Completeness.
func samplePaper() map[string]any {
	return map[string]any{
		"paperId":       "204e3073870fae3d05bcbc2f6a8e263d9b72e776",
		"title":         "Attention Is All You Need",
		"abstract":      "The dominant sequence transduction models are based on recurrent networks.",
		"year":          2017,
		"venue":         "NeurIPS",
		"authors":       []map[string]any{{"authorId": "1", "name": "Ashish Vaswani"}},
		"citationCount": 100000,
		"fieldsOfStudy": []string{"Computer Science"},
		"externalIds":   map[string]any{"ArXiv": "1706.03762", "CorpusId": 13756489},
	}
}

func sampleSearch() map[string]any {
	return map[string]any{
		"total": 3,
		"data": []map[string]any{
			{"paperId": "204e3073870fae3d05bcbc2f6a8e263d9b72e776", "title": "Attention Is All You Need"},
			{"paperId": "aaaa", "title": "Transformer-XL", "year": 2019},
			{"paperId": "bbbb", "title": "BERT", "year": 2018},
		},
	}
}

// scholarHandler responde como Semantic Scholar: búsqueda y lookup.
func scholarHandler(paperStatus int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/paper/search":
			testutil.JSONHandler(http.StatusOK, sampleSearch())(w, r)
		case strings.HasPrefix(r.URL.Path, "/paper/arXiv:"):
			if paperStatus != http.StatusOK {
				testutil.JSONHandler(paperStatus, map[string]any{"error": "Paper not found"})(w, r)
				return
			}
			testutil.JSONHandler(http.StatusOK, samplePaper())(w, r)
		default:
			http.NotFound(w, r)
		}
	}
}

func sampleHits() map[string]any {
	return map[string]any{
		"hits": []map[string]any{
			{
				"objectID":     "1",
				"title":        "Show HN: Transformer-based translation API",
				"url":          "https://example.com/translate",
				"points":       120,
				"num_comments": 45,
				"created_at":   "2024-03-01T10:00:00Z",
			},
			{
				"objectID":     "2",
				"title":        "Ask HN: Who uses attention models in production?",
				"points":       30,
				"num_comments": 12,
			},
			{"objectID": "3", "title": ""},
		},
	}
}

func chatResponse(content string) map[string]any {
	return map[string]any{
		"id": "cmpl-1",
		"choices": []map[string]any{
			{"index": 0, "message": map[string]any{"role": "assistant", "content": content}},
		},
	}
}
