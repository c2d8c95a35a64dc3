// internal/platform/config/config_test.go
package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"

	"paperflow/internal/platform/errors"
	"paperflow/internal/platform/httpclient"
)

func TestGetenv(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		def      string
		envValue string
		expected string
	}{
		{
			name:     "env var exists",
			key:      "PAPERFLOW_TEST_KEY_1",
			def:      "default",
			envValue: "custom",
			expected: "custom",
		},
		{
			name:     "env var missing - uses default",
			key:      "PAPERFLOW_TEST_KEY_MISSING",
			def:      "default",
			expected: "default",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				t.Setenv(tt.key, tt.envValue)
			}

			result := getenv(tt.key, tt.def)

			if result != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, result)
			}
		})
	}
}

func TestParseBool(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"1", true},
		{"true", true},
		{"TRUE", true},
		{"yes", true},
		{"on", true},
		{" true ", true},

		{"0", false},
		{"false", false},
		{"off", false},
		{"", false},
		{"garbage", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if result := parseBool(tt.input); result != tt.expected {
				t.Errorf("parseBool(%q) = %v, expected %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestParseNumbers(t *testing.T) {
	if got := parseInt("  100  ", 10); got != 100 {
		t.Errorf("parseInt with spaces = %d, expected 100", got)
	}
	if got := parseInt("3.14", 10); got != 10 {
		t.Errorf("parseInt float = %d, expected default 10", got)
	}
	if got := parseFloat("0.5", 1); got != 0.5 {
		t.Errorf("parseFloat = %v, expected 0.5", got)
	}
	if got := parseFloat("abc", 1); got != 1 {
		t.Errorf("parseFloat invalid = %v, expected default 1", got)
	}
}

func TestSplitList(t *testing.T) {
	got := splitList(" k1, ,k2 ,")
	if len(got) != 2 || got[0] != "k1" || got[1] != "k2" {
		t.Errorf("splitList = %v, expected [k1 k2]", got)
	}
	if got := splitList(""); got != nil {
		t.Errorf("splitList(\"\") = %v, expected nil", got)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}
	if cfg.ConfidenceThreshold != 0.3 {
		t.Errorf("threshold: expected 0.3, got %v", cfg.ConfidenceThreshold)
	}
	if cfg.RequestsPerSecond != 0.33 || cfg.SearchRequestsPerSecond != 0.2 {
		t.Errorf("rates: got %v / %v", cfg.RequestsPerSecond, cfg.SearchRequestsPerSecond)
	}
	if cfg.CacheTTLSeconds != 3600 || cfg.CacheMaxEntries != 1000 {
		t.Errorf("cache: got ttl=%d max=%d", cfg.CacheTTLSeconds, cfg.CacheMaxEntries)
	}
	if !cfg.Storage.StoreEvents {
		t.Error("events should be stored by default")
	}
}

func TestNormalize(t *testing.T) {
	cfg := Config{
		LogLevel:        " DEBUG ",
		UIMode:          "",
		OutputDir:       "",
		TimeoutS:        -10,
		CacheTTLSeconds: -1,
		SemanticScholar: SemanticScholar{BaseURL: "https://s2.example/graph/v1/", APIKeys: []string{" a ", ""}},
		Chat:            Chat{BaseURL: "https://chat.example/v1/"},
	}

	normalize(&cfg)

	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel: expected debug, got %q", cfg.LogLevel)
	}
	if cfg.UIMode != "pretty" {
		t.Errorf("UIMode: expected pretty, got %q", cfg.UIMode)
	}
	if cfg.OutputDir != "paperflow_out" {
		t.Errorf("OutputDir: expected paperflow_out, got %q", cfg.OutputDir)
	}
	if cfg.TimeoutS != 0 || cfg.CacheTTLSeconds != 0 {
		t.Errorf("negative values should clamp to 0: timeout=%d ttl=%d", cfg.TimeoutS, cfg.CacheTTLSeconds)
	}
	if cfg.SemanticScholar.BaseURL != "https://s2.example/graph/v1" {
		t.Errorf("S2 BaseURL: got %q", cfg.SemanticScholar.BaseURL)
	}
	if cfg.Chat.BaseURL != "https://chat.example/v1" {
		t.Errorf("Chat BaseURL: got %q", cfg.Chat.BaseURL)
	}
	if len(cfg.SemanticScholar.APIKeys) != 1 || cfg.SemanticScholar.APIKeys[0] != "a" {
		t.Errorf("APIKeys: got %v", cfg.SemanticScholar.APIKeys)
	}
	if cfg.Workers == nil {
		t.Error("Workers should be initialized")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		msg    string
	}{
		{"threshold above 1", func(c *Config) { c.ConfidenceThreshold = 1.5 }, "confidence_threshold"},
		{"threshold negative", func(c *Config) { c.ConfidenceThreshold = -0.1 }, "confidence_threshold"},
		{"zero rps", func(c *Config) { c.RequestsPerSecond = 0 }, "requests_per_second"},
		{"zero search rps", func(c *Config) { c.SearchRequestsPerSecond = 0 }, "search_requests_per_second"},
		{"zero chat rps", func(c *Config) { c.Chat.RequestsPerSecond = 0 }, "chat.requests_per_second"},
		{"zero cache capacity", func(c *Config) { c.CacheMaxEntries = 0 }, "cache_max_entries"},
		{"zero read timeout", func(c *Config) { c.ReadTimeoutSeconds = 0 }, "timeouts"},
		{"zero attempts", func(c *Config) { c.MaxRetryAttempts = 0 }, "max_retry_attempts"},
		{"unknown ui", func(c *Config) { c.UIMode = "fancy" }, "ui mode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !errors.IsKind(err, errors.KindValidation) {
				t.Errorf("expected KindValidation, got %v", errors.KindOf(err))
			}
			if !strings.Contains(err.Error(), tt.msg) {
				t.Errorf("error %q should mention %q", err.Error(), tt.msg)
			}
		})
	}
}

func TestConfig_Timeout(t *testing.T) {
	tests := []struct {
		timeoutS int
		expected time.Duration
	}{
		{30, 30 * time.Second},
		{0, 0},
		{-5, 0},
	}

	for _, tt := range tests {
		cfg := Config{TimeoutS: tt.timeoutS}
		if got := cfg.Timeout(); got != tt.expected {
			t.Errorf("Timeout(%d): expected %s, got %s", tt.timeoutS, tt.expected, got)
		}
	}
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "paperflow.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoad_FromFile(t *testing.T) {
	path := writeConfigFile(t, `
requests_per_second: 2
search_requests_per_second: 1
cache_ttl_seconds: 60
cache_max_entries: 50
connect_timeout_seconds: 2
read_timeout_seconds: 10
max_retry_attempts: 5
confidence_threshold: 0.6
semantic_scholar:
  api_keys: [k1, k2]
chat:
  model: small
storage:
  events_db: ""
workers:
  market_researcher:
    hits: 20
`)

	cfg, err := Load(path, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.RequestsPerSecond != 2 || cfg.SearchRequestsPerSecond != 1 {
		t.Errorf("rates: got %v / %v", cfg.RequestsPerSecond, cfg.SearchRequestsPerSecond)
	}
	if cfg.CacheTTLSeconds != 60 || cfg.CacheMaxEntries != 50 {
		t.Errorf("cache: got ttl=%d max=%d", cfg.CacheTTLSeconds, cfg.CacheMaxEntries)
	}
	if cfg.MaxRetryAttempts != 5 {
		t.Errorf("attempts: expected 5, got %d", cfg.MaxRetryAttempts)
	}
	if cfg.ConfidenceThreshold != 0.6 {
		t.Errorf("threshold: expected 0.6, got %v", cfg.ConfidenceThreshold)
	}
	if len(cfg.SemanticScholar.APIKeys) != 2 {
		t.Errorf("api keys: got %v", cfg.SemanticScholar.APIKeys)
	}
	if cfg.Chat.Model != "small" {
		t.Errorf("chat model: expected small, got %q", cfg.Chat.Model)
	}
	// Valores no definidos en el archivo conservan el default
	if cfg.Chat.BaseURL != DefaultConfig().Chat.BaseURL {
		t.Errorf("chat base url should keep default, got %q", cfg.Chat.BaseURL)
	}
	if cfg.Storage.EventsDB != "" {
		t.Errorf("events db should be overridden to empty, got %q", cfg.Storage.EventsDB)
	}
	if hits, ok := cfg.Workers["market_researcher"]["hits"]; !ok || hits != 20 {
		t.Errorf("worker options: got %v", cfg.Workers)
	}
}

func TestLoad_FileErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	if !errors.IsKind(err, errors.KindModelConfiguration) {
		t.Errorf("missing file: expected KindModelConfiguration, got %v", err)
	}

	path := writeConfigFile(t, "requests_per_second: [not, a, number]\n")
	_, err = Load(path, nil)
	if !errors.IsKind(err, errors.KindModelConfiguration) {
		t.Errorf("bad yaml: expected KindModelConfiguration, got %v", err)
	}

	path = writeConfigFile(t, "confidence_threshold: 2\n")
	_, err = Load(path, nil)
	if !errors.IsKind(err, errors.KindValidation) {
		t.Errorf("out of range: expected KindValidation, got %v", err)
	}
}

func TestLoad_ConfigPathFromEnv(t *testing.T) {
	path := writeConfigFile(t, "cache_max_entries: 7\n")
	t.Setenv("PAPERFLOW_CONFIG", path)

	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.CacheMaxEntries != 7 {
		t.Errorf("expected cache_max_entries from PAPERFLOW_CONFIG file, got %d", cfg.CacheMaxEntries)
	}
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("PAPERFLOW_REQUESTS_PER_SECOND", "5")
	t.Setenv("PAPERFLOW_SEARCH_REQUESTS_PER_SECOND", "2.5")
	t.Setenv("PAPERFLOW_CACHE_TTL_SECONDS", "120")
	t.Setenv("PAPERFLOW_CACHE_MAX_ENTRIES", "10")
	t.Setenv("PAPERFLOW_CONNECT_TIMEOUT_SECONDS", "3")
	t.Setenv("PAPERFLOW_READ_TIMEOUT_SECONDS", "9")
	t.Setenv("PAPERFLOW_MAX_RETRY_ATTEMPTS", "4")
	t.Setenv("PAPERFLOW_CONFIDENCE_THRESHOLD", "0.45")
	t.Setenv("PAPERFLOW_UI", "RAW")
	t.Setenv("PAPERFLOW_S2_API_KEYS", "a,b,c")
	t.Setenv("PAPERFLOW_CHAT_MODEL", "large")
	t.Setenv("PAPERFLOW_STORE_EVENTS", "false")
	t.Setenv("PAPERFLOW_KNOWLEDGE_DB", "")

	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.RequestsPerSecond != 5 || cfg.SearchRequestsPerSecond != 2.5 {
		t.Errorf("rates: got %v / %v", cfg.RequestsPerSecond, cfg.SearchRequestsPerSecond)
	}
	if cfg.CacheTTLSeconds != 120 || cfg.CacheMaxEntries != 10 {
		t.Errorf("cache: got ttl=%d max=%d", cfg.CacheTTLSeconds, cfg.CacheMaxEntries)
	}
	if cfg.ConnectTimeoutSeconds != 3 || cfg.ReadTimeoutSeconds != 9 {
		t.Errorf("timeouts: got %d / %d", cfg.ConnectTimeoutSeconds, cfg.ReadTimeoutSeconds)
	}
	if cfg.MaxRetryAttempts != 4 {
		t.Errorf("attempts: expected 4, got %d", cfg.MaxRetryAttempts)
	}
	if cfg.ConfidenceThreshold != 0.45 {
		t.Errorf("threshold: expected 0.45, got %v", cfg.ConfidenceThreshold)
	}
	if cfg.UIMode != "raw" {
		t.Errorf("ui: expected raw, got %q", cfg.UIMode)
	}
	if len(cfg.SemanticScholar.APIKeys) != 3 {
		t.Errorf("api keys: got %v", cfg.SemanticScholar.APIKeys)
	}
	if cfg.Chat.Model != "large" {
		t.Errorf("chat model: got %q", cfg.Chat.Model)
	}
	if cfg.Storage.StoreEvents {
		t.Error("PAPERFLOW_STORE_EVENTS=false should disable events")
	}
	if cfg.Storage.KnowledgeDB != "" {
		t.Errorf("empty PAPERFLOW_KNOWLEDGE_DB should select memory store, got %q", cfg.Storage.KnowledgeDB)
	}
}

func TestLoad_Precedence(t *testing.T) {
	path := writeConfigFile(t, "requests_per_second: 1\ncache_max_entries: 100\nmax_retry_attempts: 2\n")
	t.Setenv("PAPERFLOW_REQUESTS_PER_SECOND", "3")
	t.Setenv("PAPERFLOW_CACHE_MAX_ENTRIES", "200")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	if err := fs.Parse([]string{"--rps", "7", "--no-events"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	cfg, err := Load(path, fs)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	// flag > env > file
	if cfg.RequestsPerSecond != 7 {
		t.Errorf("rps: flag should win, got %v", cfg.RequestsPerSecond)
	}
	// env > file
	if cfg.CacheMaxEntries != 200 {
		t.Errorf("cache_max_entries: env should win, got %d", cfg.CacheMaxEntries)
	}
	// file > default
	if cfg.MaxRetryAttempts != 2 {
		t.Errorf("max_retry_attempts: file should win, got %d", cfg.MaxRetryAttempts)
	}
	// default sin cambios: un flag no usado no pisa las capas anteriores
	if cfg.SearchRequestsPerSecond != 0.2 {
		t.Errorf("search rps: expected default, got %v", cfg.SearchRequestsPerSecond)
	}
	if cfg.Storage.StoreEvents {
		t.Error("--no-events should disable event storage")
	}
}

func TestRegisterFlags(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)

	for _, name := range []string{
		"rps", "search-rps", "cache-ttl", "cache-max", "connect-timeout",
		"read-timeout", "retries", "threshold", "ui", "out", "events-db",
	} {
		if fs.Lookup(name) == nil {
			t.Errorf("flag --%s not registered", name)
		}
	}

	if f := fs.ShorthandLookup("o"); f == nil || f.Name != "out" {
		t.Error("expected -o shorthand for --out")
	}
}

func TestToClientConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RequestsPerSecond = 4
	cfg.CacheTTLSeconds = 90
	cfg.ReadTimeoutSeconds = 12
	cfg.SemanticScholar.APIKeys = []string{"k"}
	cfg.Chat.APIKeys = []string{"c"}

	cc := cfg.ToClientConfig()
	if cc.RequestsPerSecond != 4 {
		t.Errorf("rps: got %v", cc.RequestsPerSecond)
	}
	if cc.CacheTTL != 90*time.Second || cc.ReadTimeout != 12*time.Second {
		t.Errorf("durations: ttl=%s read=%s", cc.CacheTTL, cc.ReadTimeout)
	}
	if cc.AuthHeader != httpclient.HeaderAPIKey || len(cc.APIKeys) != 1 || cc.APIKeys[0] != "k" {
		t.Errorf("auth: header=%q keys=%v", cc.AuthHeader, cc.APIKeys)
	}

	chat := cfg.ToChatClientConfig()
	if chat.BaseURL != cfg.Chat.BaseURL {
		t.Errorf("chat base url: got %q", chat.BaseURL)
	}
	if chat.AuthHeader != httpclient.HeaderAuthorization || chat.APIKeys[0] != "c" {
		t.Errorf("chat auth: header=%q keys=%v", chat.AuthHeader, chat.APIKeys)
	}
	if chat.ReadTimeout != 12*time.Second {
		t.Errorf("chat should share timeouts, got %s", chat.ReadTimeout)
	}

	hn := cfg.ToHackerNewsClientConfig()
	if hn.BaseURL != cfg.HackerNews.BaseURL || len(hn.APIKeys) != 0 {
		t.Errorf("hacker news: base=%q keys=%v", hn.BaseURL, hn.APIKeys)
	}
	if hn.SearchRequestsPerSecond != 4 {
		t.Errorf("hacker news search rps: got %v", hn.SearchRequestsPerSecond)
	}

	web := cfg.ToWebsiteClientConfig()
	if len(web.APIKeys) != 0 {
		t.Errorf("website client must not send API keys, got %v", web.APIKeys)
	}
	if web.CacheTTL != 0 || web.RequestsPerSecond != 4 {
		t.Errorf("website: ttl=%s rps=%v", web.CacheTTL, web.RequestsPerSecond)
	}
}

func TestToJSON_RedactsKeys(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SemanticScholar.APIKeys = []string{"secret-s2-key"}
	cfg.Chat.APIKeys = []string{"abc"}

	out, err := cfg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	if strings.Contains(out, "secret-s2-key") {
		t.Error("API key leaked in JSON output")
	}
	if !strings.Contains(out, "secr****") {
		t.Error("expected redacted key prefix")
	}
	if cfg.SemanticScholar.APIKeys[0] != "secret-s2-key" {
		t.Error("ToJSON must not mutate the receiver's keys")
	}
}
