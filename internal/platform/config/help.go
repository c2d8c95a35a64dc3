// internal/platform/config/help.go
package config

import (
	"fmt"
	"io"
	"runtime"
)

// HelpText es el bloque largo de ayuda del comando raíz.
const HelpText = `
PaperFlow - Paper to SaaS research pipeline

Runs a fixed DAG of stages over an arXiv paper: paper analysis and market
research in parallel, then research synthesis, idea generation, validation,
strategic advice and a final report.

CONFIGURATION PRECEDENCE:
  defaults < YAML file (--config) < PAPERFLOW_* environment < CLI flags

CONFIG FILE (YAML):
  requests_per_second: 0.33
  search_requests_per_second: 0.2
  cache_ttl_seconds: 3600
  cache_max_entries: 1000
  connect_timeout_seconds: 5
  read_timeout_seconds: 30
  max_retry_attempts: 3
  confidence_threshold: 0.3
  semantic_scholar:
    api_keys: [key-1, key-2]
  chat:
    base_url: https://gen.pollinations.ai/v1
    model: nova-fast
  storage:
    events_db: paperflow_out/events.db
  workers:
    market_researcher:
      hits: 20

ENVIRONMENT VARIABLES:
  PAPERFLOW_CONFIG                      Config file path
  PAPERFLOW_LOG_LEVEL=debug             Log level
  PAPERFLOW_UI=raw                      UI mode (pretty, raw, json, quiet)
  PAPERFLOW_OUTPUT_DIR=/path            Output directory
  PAPERFLOW_CONFIDENCE_THRESHOLD=0.5    Early termination threshold
  PAPERFLOW_REQUESTS_PER_SECOND=1       Read requests per second
  PAPERFLOW_SEARCH_REQUESTS_PER_SECOND  Search requests per second
  PAPERFLOW_CACHE_TTL_SECONDS           Response cache TTL
  PAPERFLOW_CACHE_MAX_ENTRIES           Response cache capacity
  PAPERFLOW_CONNECT_TIMEOUT_SECONDS     Dial/TLS timeout
  PAPERFLOW_READ_TIMEOUT_SECONDS        Header/body timeout
  PAPERFLOW_MAX_RETRY_ATTEMPTS          Attempts for transient failures
  PAPERFLOW_S2_API_KEYS=k1,k2           Semantic Scholar keys (rotated)
  PAPERFLOW_CHAT_API_KEYS=k1            Chat-completions keys (rotated)
  PAPERFLOW_CHAT_MODEL                  Chat model
  PAPERFLOW_STORE_EVENTS=false          Disable the stage event log

  Note: CLI flags override environment variables.

EXAMPLES:
  paperflow run 1706.03762 --market "LLM developer tools"
  paperflow run 1706.03762 -m "translation API" --website https://example.com --ui raw
  paperflow events <run-id>
  paperflow stages
`

// PrintVersion escribe información de versión.
func PrintVersion(w io.Writer, version, commit, date string) {
	fmt.Fprintf(w, "PaperFlow %s\n", version)
	fmt.Fprintf(w, "  Commit:  %s\n", commit)
	fmt.Fprintf(w, "  Built:   %s\n", date)
	fmt.Fprintf(w, "  Go:      %s\n", getGoVersion())
}

func getGoVersion() string {
	return runtime.Version()
}
