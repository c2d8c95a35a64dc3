// internal/platform/config/config.go
package config

import (
	"encoding/json"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"paperflow/internal/core/domain"
	"paperflow/internal/platform/errors"
	"paperflow/internal/platform/httpclient"
	"paperflow/internal/platform/ui"
)

// EnvPrefix es el prefijo de todas las variables de entorno.
const EnvPrefix = "PAPERFLOW_"

type Config struct {
	// App
	LogLevel            string  `yaml:"log_level" json:"log_level"`
	UIMode              string  `yaml:"ui" json:"ui"`
	OutputDir           string  `yaml:"output_dir" json:"output_dir"`
	ConfidenceThreshold float64 `yaml:"confidence_threshold" json:"confidence_threshold"`
	TimeoutS            int     `yaml:"timeout_seconds" json:"timeout_seconds"` // 0 = sin timeout
	MetricsAddr         string  `yaml:"metrics_addr" json:"metrics_addr"`

	// Cliente HTTP compartido (Semantic Scholar)
	RequestsPerSecond       float64 `yaml:"requests_per_second" json:"requests_per_second"`
	SearchRequestsPerSecond float64 `yaml:"search_requests_per_second" json:"search_requests_per_second"`
	CacheTTLSeconds         int     `yaml:"cache_ttl_seconds" json:"cache_ttl_seconds"`
	CacheMaxEntries         int     `yaml:"cache_max_entries" json:"cache_max_entries"`
	ConnectTimeoutSeconds   int     `yaml:"connect_timeout_seconds" json:"connect_timeout_seconds"`
	ReadTimeoutSeconds      int     `yaml:"read_timeout_seconds" json:"read_timeout_seconds"`
	MaxRetryAttempts        int     `yaml:"max_retry_attempts" json:"max_retry_attempts"`

	SemanticScholar SemanticScholar `yaml:"semantic_scholar" json:"semantic_scholar"`
	HackerNews      HackerNews      `yaml:"hacker_news" json:"hacker_news"`
	Chat            Chat            `yaml:"chat" json:"chat"`
	Storage         Storage         `yaml:"storage" json:"storage"`

	// Workers: opciones por worker, se pasan tal cual al registry
	// Key = nombre del worker (ej: "paper_analyzer", "market_researcher")
	Workers map[string]map[string]any `yaml:"workers" json:"workers"`
}

type SemanticScholar struct {
	BaseURL string   `yaml:"base_url" json:"base_url"`
	APIKeys []string `yaml:"api_keys" json:"api_keys"`
}

type HackerNews struct {
	BaseURL string `yaml:"base_url" json:"base_url"`
}

type Chat struct {
	BaseURL           string   `yaml:"base_url" json:"base_url"`
	Model             string   `yaml:"model" json:"model"`
	APIKeys           []string `yaml:"api_keys" json:"api_keys"`
	RequestsPerSecond float64  `yaml:"requests_per_second" json:"requests_per_second"`
	Temperature       float64  `yaml:"temperature" json:"temperature"`
	MaxTokens         int      `yaml:"max_tokens" json:"max_tokens"`
}

type Storage struct {
	StoreEvents bool   `yaml:"store_events" json:"store_events"`
	EventsDB    string `yaml:"events_db" json:"events_db"`       // vacío = eventos en memoria
	KnowledgeDB string `yaml:"knowledge_db" json:"knowledge_db"` // vacío = store en memoria
}

// DefaultConfig retorna una configuración por defecto.
func DefaultConfig() Config {
	client := httpclient.DefaultConfig()

	return Config{
		LogLevel:            "info",
		UIMode:              string(ui.UIModePretty),
		OutputDir:           "paperflow_out",
		ConfidenceThreshold: domain.DefaultConfidenceThreshold,
		TimeoutS:            0,
		MetricsAddr:         "",

		RequestsPerSecond:       client.RequestsPerSecond,
		SearchRequestsPerSecond: client.SearchRequestsPerSecond,
		CacheTTLSeconds:         int(client.CacheTTL.Seconds()),
		CacheMaxEntries:         client.CacheMaxEntries,
		ConnectTimeoutSeconds:   int(client.ConnectTimeout.Seconds()),
		ReadTimeoutSeconds:      int(client.ReadTimeout.Seconds()),
		MaxRetryAttempts:        client.MaxRetryAttempts,

		SemanticScholar: SemanticScholar{
			BaseURL: client.BaseURL,
		},
		HackerNews: HackerNews{
			BaseURL: "https://hn.algolia.com/api/v1",
		},
		Chat: Chat{
			BaseURL:           "https://gen.pollinations.ai/v1",
			Model:             "nova-fast",
			RequestsPerSecond: 1,
			Temperature:       0.7,
			MaxTokens:         2048,
		},
		Storage: Storage{
			StoreEvents: true,
			EventsDB:    "paperflow_out/events.db",
			KnowledgeDB: "paperflow_out/knowledge.db",
		},

		Workers: make(map[string]map[string]any),
	}
}

// Load inicializa la configuración: defaults -> archivo YAML -> ENV -> FLAGS.
// Cada capa sobreescribe sólo lo que define. path vacío usa PAPERFLOW_CONFIG
// si existe; fs puede ser nil.
func Load(path string, fs *pflag.FlagSet) (Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = getenv(EnvPrefix+"CONFIG", "")
	}
	if path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return cfg, err
		}
	}

	loadFromEnv(&cfg)

	if fs != nil {
		if err := loadFromFlags(fs, &cfg); err != nil {
			return cfg, err
		}
	}

	normalize(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// loadFromFile lee un archivo YAML sobre la configuración actual.
func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.E(errors.KindModelConfiguration, "config.load", "failed to read config file "+path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return errors.E(errors.KindModelConfiguration, "config.load", "failed to parse config file "+path, err)
	}

	return nil
}

// loadFromEnv carga configuración desde variables de entorno.
func loadFromEnv(cfg *Config) {
	if v := getenv(EnvPrefix+"LOG_LEVEL", ""); v != "" {
		cfg.LogLevel = v
	}
	if v := getenv(EnvPrefix+"UI", ""); v != "" {
		cfg.UIMode = v
	}
	if v := getenv(EnvPrefix+"OUTPUT_DIR", ""); v != "" {
		cfg.OutputDir = v
	}
	if v := getenv(EnvPrefix+"CONFIDENCE_THRESHOLD", ""); v != "" {
		cfg.ConfidenceThreshold = parseFloat(v, cfg.ConfidenceThreshold)
	}
	if v := getenv(EnvPrefix+"TIMEOUT", ""); v != "" {
		cfg.TimeoutS = parseInt(v, cfg.TimeoutS)
	}
	if v := getenv(EnvPrefix+"METRICS_ADDR", ""); v != "" {
		cfg.MetricsAddr = v
	}

	// Cliente
	if v := getenv(EnvPrefix+"REQUESTS_PER_SECOND", ""); v != "" {
		cfg.RequestsPerSecond = parseFloat(v, cfg.RequestsPerSecond)
	}
	if v := getenv(EnvPrefix+"SEARCH_REQUESTS_PER_SECOND", ""); v != "" {
		cfg.SearchRequestsPerSecond = parseFloat(v, cfg.SearchRequestsPerSecond)
	}
	if v := getenv(EnvPrefix+"CACHE_TTL_SECONDS", ""); v != "" {
		cfg.CacheTTLSeconds = parseInt(v, cfg.CacheTTLSeconds)
	}
	if v := getenv(EnvPrefix+"CACHE_MAX_ENTRIES", ""); v != "" {
		cfg.CacheMaxEntries = parseInt(v, cfg.CacheMaxEntries)
	}
	if v := getenv(EnvPrefix+"CONNECT_TIMEOUT_SECONDS", ""); v != "" {
		cfg.ConnectTimeoutSeconds = parseInt(v, cfg.ConnectTimeoutSeconds)
	}
	if v := getenv(EnvPrefix+"READ_TIMEOUT_SECONDS", ""); v != "" {
		cfg.ReadTimeoutSeconds = parseInt(v, cfg.ReadTimeoutSeconds)
	}
	if v := getenv(EnvPrefix+"MAX_RETRY_ATTEMPTS", ""); v != "" {
		cfg.MaxRetryAttempts = parseInt(v, cfg.MaxRetryAttempts)
	}

	// Semantic Scholar
	if v := getenv(EnvPrefix+"S2_BASE_URL", ""); v != "" {
		cfg.SemanticScholar.BaseURL = v
	}
	if v := getenv(EnvPrefix+"S2_API_KEYS", ""); v != "" {
		cfg.SemanticScholar.APIKeys = splitList(v)
	}

	// Hacker News
	if v := getenv(EnvPrefix+"HN_BASE_URL", ""); v != "" {
		cfg.HackerNews.BaseURL = v
	}

	// Chat
	if v := getenv(EnvPrefix+"CHAT_BASE_URL", ""); v != "" {
		cfg.Chat.BaseURL = v
	}
	if v := getenv(EnvPrefix+"CHAT_MODEL", ""); v != "" {
		cfg.Chat.Model = v
	}
	if v := getenv(EnvPrefix+"CHAT_API_KEYS", ""); v != "" {
		cfg.Chat.APIKeys = splitList(v)
	}

	// Storage
	if v := getenv(EnvPrefix+"STORE_EVENTS", ""); v != "" {
		cfg.Storage.StoreEvents = parseBool(v)
	}
	if v, ok := os.LookupEnv(EnvPrefix + "EVENTS_DB"); ok {
		cfg.Storage.EventsDB = v
	}
	if v, ok := os.LookupEnv(EnvPrefix + "KNOWLEDGE_DB"); ok {
		cfg.Storage.KnowledgeDB = v
	}
}

// RegisterFlags define los flags de configuración en fs. Los defaults que
// muestra la ayuda son los de DefaultConfig; sólo los flags cambiados por el
// usuario sobreescriben las capas anteriores.
func RegisterFlags(fs *pflag.FlagSet) {
	def := DefaultConfig()

	fs.String("log-level", def.LogLevel, "Nivel de log (debug, info, warn, error)")
	fs.String("ui", def.UIMode, "Modo de UI (pretty, raw, json, quiet)")
	fs.StringP("out", "o", def.OutputDir, "Directorio de salida")
	fs.Float64("threshold", def.ConfidenceThreshold, "Umbral de confianza para terminación temprana")
	fs.IntP("timeout", "T", def.TimeoutS, "Timeout global en segundos (0 = sin timeout)")
	fs.String("metrics-addr", def.MetricsAddr, "Dirección para exponer /metrics (vacío = desactivado)")

	fs.Float64("rps", def.RequestsPerSecond, "Requests por segundo (lecturas)")
	fs.Float64("search-rps", def.SearchRequestsPerSecond, "Requests por segundo (búsquedas)")
	fs.Int("cache-ttl", def.CacheTTLSeconds, "TTL de caché en segundos (0 = sin caché)")
	fs.Int("cache-max", def.CacheMaxEntries, "Máximo de entradas en caché")
	fs.Int("connect-timeout", def.ConnectTimeoutSeconds, "Timeout de conexión en segundos")
	fs.Int("read-timeout", def.ReadTimeoutSeconds, "Timeout de lectura en segundos")
	fs.IntP("retries", "r", def.MaxRetryAttempts, "Intentos máximos ante fallos transitorios")

	fs.String("s2-url", def.SemanticScholar.BaseURL, "URL base de Semantic Scholar")
	fs.String("hn-url", def.HackerNews.BaseURL, "URL base de Hacker News (Algolia)")
	fs.String("chat-url", def.Chat.BaseURL, "URL base del endpoint chat-completions")
	fs.String("chat-model", def.Chat.Model, "Modelo de chat")

	fs.Bool("no-events", false, "No registrar eventos de stage")
	fs.String("events-db", def.Storage.EventsDB, "Base SQLite de eventos (vacío = memoria)")
	fs.String("knowledge-db", def.Storage.KnowledgeDB, "Base SQLite de papers (vacío = memoria)")
}

// loadFromFlags aplica los flags que el usuario cambió explícitamente.
func loadFromFlags(fs *pflag.FlagSet, cfg *Config) error {
	var firstErr error
	changed := func(name string) bool {
		f := fs.Lookup(name)
		return f != nil && f.Changed
	}
	str := func(name string, dst *string) {
		if changed(name) {
			v, err := fs.GetString(name)
			keep(&firstErr, err)
			*dst = v
		}
	}
	integer := func(name string, dst *int) {
		if changed(name) {
			v, err := fs.GetInt(name)
			keep(&firstErr, err)
			*dst = v
		}
	}
	float := func(name string, dst *float64) {
		if changed(name) {
			v, err := fs.GetFloat64(name)
			keep(&firstErr, err)
			*dst = v
		}
	}

	str("log-level", &cfg.LogLevel)
	str("ui", &cfg.UIMode)
	str("out", &cfg.OutputDir)
	float("threshold", &cfg.ConfidenceThreshold)
	integer("timeout", &cfg.TimeoutS)
	str("metrics-addr", &cfg.MetricsAddr)

	float("rps", &cfg.RequestsPerSecond)
	float("search-rps", &cfg.SearchRequestsPerSecond)
	integer("cache-ttl", &cfg.CacheTTLSeconds)
	integer("cache-max", &cfg.CacheMaxEntries)
	integer("connect-timeout", &cfg.ConnectTimeoutSeconds)
	integer("read-timeout", &cfg.ReadTimeoutSeconds)
	integer("retries", &cfg.MaxRetryAttempts)

	str("s2-url", &cfg.SemanticScholar.BaseURL)
	str("hn-url", &cfg.HackerNews.BaseURL)
	str("chat-url", &cfg.Chat.BaseURL)
	str("chat-model", &cfg.Chat.Model)

	if changed("no-events") {
		v, err := fs.GetBool("no-events")
		keep(&firstErr, err)
		cfg.Storage.StoreEvents = !v
	}
	str("events-db", &cfg.Storage.EventsDB)
	str("knowledge-db", &cfg.Storage.KnowledgeDB)

	if firstErr != nil {
		return errors.E(errors.KindValidation, "config.flags", "invalid flag value", firstErr)
	}
	return nil
}

func normalize(c *Config) {
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	c.UIMode = strings.ToLower(strings.TrimSpace(c.UIMode))
	if c.UIMode == "" {
		c.UIMode = string(ui.UIModePretty)
	}
	if c.TimeoutS < 0 {
		c.TimeoutS = 0
	}
	if c.OutputDir == "" {
		c.OutputDir = "paperflow_out"
	}
	if c.CacheTTLSeconds < 0 {
		c.CacheTTLSeconds = 0
	}
	c.SemanticScholar.BaseURL = strings.TrimSuffix(strings.TrimSpace(c.SemanticScholar.BaseURL), "/")
	c.HackerNews.BaseURL = strings.TrimSuffix(strings.TrimSpace(c.HackerNews.BaseURL), "/")
	c.Chat.BaseURL = strings.TrimSuffix(strings.TrimSpace(c.Chat.BaseURL), "/")
	c.SemanticScholar.APIKeys = compact(c.SemanticScholar.APIKeys)
	c.Chat.APIKeys = compact(c.Chat.APIKeys)
	if c.Workers == nil {
		c.Workers = make(map[string]map[string]any)
	}
}

// Validate comprueba rangos y capacidades.
func (c Config) Validate() error {
	const op = "config.validate"

	if c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 1 {
		return errors.Validation(op, "confidence_threshold must be in [0, 1], got "+strconv.FormatFloat(c.ConfidenceThreshold, 'g', -1, 64))
	}
	if c.RequestsPerSecond <= 0 {
		return errors.Validation(op, "requests_per_second must be > 0")
	}
	if c.SearchRequestsPerSecond <= 0 {
		return errors.Validation(op, "search_requests_per_second must be > 0")
	}
	if c.Chat.RequestsPerSecond <= 0 {
		return errors.Validation(op, "chat.requests_per_second must be > 0")
	}
	if c.CacheMaxEntries <= 0 {
		return errors.Validation(op, "cache_max_entries must be > 0")
	}
	if c.ConnectTimeoutSeconds <= 0 || c.ReadTimeoutSeconds <= 0 {
		return errors.Validation(op, "connect and read timeouts must be > 0")
	}
	if c.MaxRetryAttempts <= 0 {
		return errors.Validation(op, "max_retry_attempts must be > 0")
	}
	if !ui.UIMode(c.UIMode).IsValid() {
		return errors.Validation(op, "invalid ui mode "+strconv.Quote(c.UIMode)+" (valid: pretty, raw, json, quiet)")
	}
	return nil
}

// ToClientConfig construye la configuración del cliente de Semantic Scholar.
func (c Config) ToClientConfig() httpclient.Config {
	cc := httpclient.DefaultConfig()
	cc.BaseURL = c.SemanticScholar.BaseURL
	cc.RequestsPerSecond = c.RequestsPerSecond
	cc.SearchRequestsPerSecond = c.SearchRequestsPerSecond
	cc.CacheTTL = time.Duration(c.CacheTTLSeconds) * time.Second
	cc.CacheMaxEntries = c.CacheMaxEntries
	cc.ConnectTimeout = time.Duration(c.ConnectTimeoutSeconds) * time.Second
	cc.ReadTimeout = time.Duration(c.ReadTimeoutSeconds) * time.Second
	cc.MaxRetryAttempts = c.MaxRetryAttempts
	cc.APIKeys = c.SemanticScholar.APIKeys
	cc.AuthHeader = httpclient.HeaderAPIKey
	return cc
}

// ToChatClientConfig construye la configuración del cliente chat-completions.
// Comparte timeouts y reintentos; las respuestas POST nunca se cachean.
func (c Config) ToChatClientConfig() httpclient.Config {
	cc := c.ToClientConfig()
	cc.BaseURL = c.Chat.BaseURL
	cc.RequestsPerSecond = c.Chat.RequestsPerSecond
	cc.SearchRequestsPerSecond = c.Chat.RequestsPerSecond
	cc.APIKeys = c.Chat.APIKeys
	cc.AuthHeader = httpclient.HeaderAuthorization
	return cc
}

// ToHackerNewsClientConfig construye la configuración del cliente de Hacker
// News. No usa API keys.
func (c Config) ToHackerNewsClientConfig() httpclient.Config {
	cc := c.ToClientConfig()
	cc.BaseURL = c.HackerNews.BaseURL
	cc.SearchRequestsPerSecond = c.RequestsPerSecond
	cc.APIKeys = nil
	return cc
}

// ToWebsiteClientConfig construye el cliente que descarga webs de producto.
// Sólo hace Fetch de URLs absolutas: sin caché ni API keys, y con su propio
// limitador y cookie jar.
func (c Config) ToWebsiteClientConfig() httpclient.Config {
	cc := c.ToClientConfig()
	cc.SearchRequestsPerSecond = c.RequestsPerSecond
	cc.CacheTTL = 0
	cc.APIKeys = nil
	return cc
}

// ToJSON serializa la configuración a JSON (útil para debugging). Las API
// keys se enmascaran.
func (c Config) ToJSON() (string, error) {
	c.SemanticScholar.APIKeys = redact(c.SemanticScholar.APIKeys)
	c.Chat.APIKeys = redact(c.Chat.APIKeys)

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Timeout devuelve un time.Duration útil si prefieres trabajar con duración.
func (c Config) Timeout() time.Duration {
	if c.TimeoutS <= 0 {
		return 0
	}
	return time.Duration(c.TimeoutS) * time.Second
}

// Helpers

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "t", "true", "y", "yes", "on":
		return true
	default:
		return false
	}
}

func parseInt(v string, def int) int {
	i, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return i
}

func parseFloat(v string, def float64) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return def
	}
	return f
}

func splitList(v string) []string {
	return compact(strings.Split(v, ","))
}

func compact(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func redact(keys []string) []string {
	if len(keys) == 0 {
		return nil
	}
	out := make([]string, len(keys))
	for i, k := range keys {
		if len(k) <= 4 {
			out[i] = "****"
			continue
		}
		out[i] = k[:4] + "****"
	}
	return out
}

func keep(dst *error, err error) {
	if *dst == nil && err != nil {
		*dst = err
	}
}
