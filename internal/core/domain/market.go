// internal/core/domain/market.go
package domain

import (
	"fmt"
	"strings"
	"time"
)

// MarketSignal una señal de mercado (historia, discusión, página) con su fuente.
type MarketSignal struct {
	Title         string    `json:"title"`
	URL           string    `json:"url,omitempty"`
	Source        string    `json:"source"`
	Points        int       `json:"points,omitempty"`
	Comments      int       `json:"comments,omitempty"`
	CreatedAt     time.Time `json:"created_at,omitempty"`
	DateRetrieved time.Time `json:"date_retrieved"`
}

// MarketResearch es el contenido producido por el stage de investigación de mercado.
type MarketResearch struct {
	Query       string         `json:"query"`
	Signals     []MarketSignal `json:"signals"`
	WebsiteText string         `json:"website_text,omitempty"`
	ToolsUsed   []string       `json:"tools_used"`
	DataGaps    []string       `json:"data_gaps,omitempty"`
}

// ConfidenceLevel deriva un nivel HIGH/MEDIUM/LOW de la cantidad de señales.
func (m MarketResearch) ConfidenceLevel() string {
	switch {
	case len(m.Signals) >= 10:
		return "HIGH"
	case len(m.Signals) >= 3:
		return "MEDIUM"
	default:
		return "LOW"
	}
}

// String renderiza la investigación como markdown.
func (m MarketResearch) String() string {
	var b strings.Builder

	fmt.Fprintf(&b, "**Query**: %s\n", m.Query)
	fmt.Fprintf(&b, "**Confidence level**: %s\n\n", m.ConfidenceLevel())

	if len(m.Signals) == 0 {
		b.WriteString("No market signals found.\n")
	}
	for _, s := range m.Signals {
		fmt.Fprintf(&b, "- [%s] %s", s.Source, s.Title)
		if s.Points > 0 || s.Comments > 0 {
			fmt.Fprintf(&b, " (%d points, %d comments)", s.Points, s.Comments)
		}
		if s.URL != "" {
			fmt.Fprintf(&b, " <%s>", s.URL)
		}
		b.WriteString("\n")
	}

	if m.WebsiteText != "" {
		fmt.Fprintf(&b, "\n**Website excerpt**:\n%s\n", m.WebsiteText)
	}
	if len(m.DataGaps) > 0 {
		fmt.Fprintf(&b, "\n_Data gaps_: %s\n", strings.Join(m.DataGaps, "; "))
	}
	return b.String()
}
