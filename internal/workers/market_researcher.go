// internal/workers/market_researcher.go
package workers

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"paperflow/internal/core/domain"
	"paperflow/internal/platform/errors"
	"paperflow/internal/platform/logx"
)

// WorkerMarketResearcher nombre del worker en el registry.
const WorkerMarketResearcher = "market_researcher"

// Valores por defecto del worker.
const (
	DefaultMarketHits      = 10
	DefaultMarketQuery     = "research paper to SaaS product"
	DefaultWebsiteMaxChars = 4000
)

// hnItemURL URL de la discusión cuando la historia no enlaza a nada.
const hnItemURL = "https://news.ycombinator.com/item?id="

// MarketResearcherConfig configura el worker.
type MarketResearcherConfig struct {
	Hits            int
	DefaultQuery    string
	MaxWebsiteChars int
}

// MarketResearcher recoge señales de mercado: historias de Hacker News para
// la consulta del run y, si se indicó, el texto de la web del producto.
// Sólo falla cuando ninguna fuente produjo datos.
type MarketResearcher struct {
	hn     JSONGetter
	web    Fetcher
	cfg    MarketResearcherConfig
	logger logx.Logger
	now    func() time.Time
}

// NewMarketResearcher crea el worker. web puede ser nil si no se analizan webs.
func NewMarketResearcher(hn JSONGetter, web Fetcher, cfg MarketResearcherConfig, logger logx.Logger) *MarketResearcher {
	if cfg.Hits <= 0 {
		cfg.Hits = DefaultMarketHits
	}
	if strings.TrimSpace(cfg.DefaultQuery) == "" {
		cfg.DefaultQuery = DefaultMarketQuery
	}
	if cfg.MaxWebsiteChars <= 0 {
		cfg.MaxWebsiteChars = DefaultWebsiteMaxChars
	}
	return &MarketResearcher{
		hn:     hn,
		web:    web,
		cfg:    cfg,
		logger: logger.With("worker", WorkerMarketResearcher),
		now:    time.Now,
	}
}

// Name implementa ports.Worker.
func (m *MarketResearcher) Name() string {
	return WorkerMarketResearcher
}

// Run implementa ports.Worker.
func (m *MarketResearcher) Run(ctx context.Context, in domain.StageInput) domain.StageResult {
	query := strings.TrimSpace(in.Input.MarketQuery)
	if query == "" {
		query = m.cfg.DefaultQuery
	}

	m.logger.Debug("researching market", "query", query, "run_id", in.RunID)

	research := domain.MarketResearch{Query: query}

	signals, hnErr := m.searchStories(ctx, query)
	if hnErr != nil {
		m.logger.Warn("hacker news search failed", "query", query, "error", hnErr.Error())
		research.DataGaps = append(research.DataGaps, fmt.Sprintf("%s unavailable: %v", ToolHackerNews, hnErr))
	} else {
		research.Signals = append(research.Signals, signals...)
		research.ToolsUsed = append(research.ToolsUsed, ToolHackerNews)
	}

	if site := in.Input.WebsiteURL; site != "" {
		text, signal, err := m.website(ctx, site)
		if err != nil {
			m.logger.Warn("website fetch failed", "url", site, "error", err.Error())
			research.DataGaps = append(research.DataGaps, fmt.Sprintf("%s unavailable: %v", ToolWebsite, err))
		} else {
			research.WebsiteText = text
			research.Signals = append(research.Signals, signal)
			research.ToolsUsed = append(research.ToolsUsed, ToolWebsite)
		}
	}

	if hnErr != nil && research.WebsiteText == "" {
		return domain.Failed(m.Name(), errors.ToolExecution(ToolHackerNews, "no market data collected", hnErr))
	}

	m.logger.Info("market research completed",
		"query", query,
		"signals", len(research.Signals),
		"level", research.ConfidenceLevel(),
		"gaps", len(research.DataGaps),
	)

	return domain.Succeeded(m.Name(), research)
}

// searchStories consulta el endpoint de búsqueda de Algolia para HN.
func (m *MarketResearcher) searchStories(ctx context.Context, query string) ([]domain.MarketSignal, error) {
	if m.hn == nil {
		return nil, errors.ToolNotAvailable("market_researcher.search", ToolHackerNews)
	}

	raw, err := m.hn.Get(ctx, "search", map[string]string{
		"query":       query,
		"tags":        "story",
		"hitsPerPage": strconv.Itoa(m.cfg.Hits),
	})
	if err != nil {
		return nil, err
	}

	hits, ok := raw["hits"].([]any)
	if !ok {
		return nil, errors.Wrap(errors.ErrInvalidResponse, "missing hits")
	}

	retrieved := m.now().UTC()
	signals := make([]domain.MarketSignal, 0, len(hits))
	for _, h := range hits {
		hit, ok := h.(map[string]any)
		if !ok {
			continue
		}
		signal, ok := parseHit(hit, retrieved)
		if !ok {
			continue
		}
		signals = append(signals, signal)
	}
	return signals, nil
}

// parseHit convierte un hit de Algolia en una señal. Hits sin título se descartan.
func parseHit(hit map[string]any, retrieved time.Time) (domain.MarketSignal, bool) {
	title := strings.TrimSpace(stringField(hit, "title"))
	if title == "" {
		title = strings.TrimSpace(stringField(hit, "story_title"))
	}
	if title == "" {
		return domain.MarketSignal{}, false
	}

	url := stringField(hit, "url")
	if url == "" {
		if id := stringField(hit, "objectID"); id != "" {
			url = hnItemURL + id
		}
	}

	signal := domain.MarketSignal{
		Title:         title,
		URL:           url,
		Source:        ToolHackerNews,
		Points:        intField(hit, "points"),
		Comments:      intField(hit, "num_comments"),
		DateRetrieved: retrieved,
	}
	if created := stringField(hit, "created_at"); created != "" {
		if t, err := time.Parse(time.RFC3339, created); err == nil {
			signal.CreatedAt = t.UTC()
		}
	}
	return signal, true
}

// website descarga la página y extrae su texto.
func (m *MarketResearcher) website(ctx context.Context, site string) (string, domain.MarketSignal, error) {
	if m.web == nil {
		return "", domain.MarketSignal{}, errors.ToolNotAvailable("market_researcher.website", ToolWebsite)
	}

	body, err := m.web.Fetch(ctx, site)
	if err != nil {
		return "", domain.MarketSignal{}, err
	}

	text, err := ExtractText(body, m.cfg.MaxWebsiteChars)
	if err != nil {
		return "", domain.MarketSignal{}, errors.Wrap(err, "parse html")
	}
	if text == "" {
		return "", domain.MarketSignal{}, errors.Wrap(errors.ErrInvalidResponse, "page has no visible text")
	}

	title := pageTitle(body)
	if title == "" {
		title = site
	}
	return text, domain.MarketSignal{
		Title:         title,
		URL:           site,
		Source:        ToolWebsite,
		DateRetrieved: m.now().UTC(),
	}, nil
}

func stringField(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

func intField(m map[string]any, key string) int {
	switch v := m[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}
