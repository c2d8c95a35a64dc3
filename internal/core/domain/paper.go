// internal/core/domain/paper.go
package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Author autor de un paper.
type Author struct {
	AuthorID string `json:"authorId,omitempty"`
	Name     string `json:"name"`
}

// Paper metadata de un paper tal como la devuelve Semantic Scholar.
type Paper struct {
	PaperID                  string            `json:"paperId"`
	ArxivID                  string            `json:"arxivId,omitempty"`
	Title                    string            `json:"title"`
	Abstract                 string            `json:"abstract,omitempty"`
	Year                     int               `json:"year,omitempty"`
	Venue                    string            `json:"venue,omitempty"`
	PublicationDate          string            `json:"publicationDate,omitempty"`
	Authors                  []Author          `json:"authors,omitempty"`
	CitationCount            int               `json:"citationCount"`
	ReferenceCount           int               `json:"referenceCount"`
	InfluentialCitationCount int               `json:"influentialCitationCount"`
	IsOpenAccess             bool              `json:"isOpenAccess"`
	FieldsOfStudy            []string          `json:"fieldsOfStudy,omitempty"`
	ExternalIDs              map[string]string `json:"externalIds,omitempty"`
}

// PaperFields campos pedidos a la API para construir un Paper.
const PaperFields = "paperId,title,year,authors,abstract,citationCount," +
	"referenceCount,influentialCitationCount,isOpenAccess," +
	"fieldsOfStudy,venue,publicationDate,externalIds"

// ParsePaper decodifica un Paper desde el mapa de respuesta de la API.
func ParsePaper(raw map[string]any) (Paper, error) {
	if raw == nil {
		return Paper{}, ErrPaperUnparseable
	}

	// externalIds mezcla strings y números (CorpusId), se normaliza aparte
	ext := normalizeExternalIDs(raw["externalIds"])
	clean := make(map[string]any, len(raw))
	for k, v := range raw {
		if k != "externalIds" {
			clean[k] = v
		}
	}

	data, err := json.Marshal(clean)
	if err != nil {
		return Paper{}, fmt.Errorf("%w: %v", ErrPaperUnparseable, err)
	}

	var p Paper
	if err := json.Unmarshal(data, &p); err != nil {
		return Paper{}, fmt.Errorf("%w: %v", ErrPaperUnparseable, err)
	}
	p.ExternalIDs = ext

	if p.PaperID == "" || strings.TrimSpace(p.Title) == "" {
		return Paper{}, fmt.Errorf("%w: missing paperId or title", ErrPaperUnparseable)
	}
	if p.ArxivID == "" {
		p.ArxivID = ext["ArXiv"]
	}
	return p, nil
}

func normalizeExternalIDs(v any) map[string]string {
	m, ok := v.(map[string]any)
	if !ok || len(m) == 0 {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, val := range m {
		switch x := val.(type) {
		case string:
			out[k] = x
		case float64:
			out[k] = fmt.Sprintf("%.0f", x)
		case nil:
		default:
			out[k] = fmt.Sprint(x)
		}
	}
	return out
}

// Completeness fracción de campos de metadata presentes, en [0,1].
func (p Paper) Completeness() float64 {
	checks := []bool{
		p.Title != "",
		p.Abstract != "",
		len(p.Authors) > 0,
		p.Year > 0,
		p.Venue != "",
		len(p.FieldsOfStudy) > 0,
		len(p.ExternalIDs) > 0,
		p.CitationCount > 0 || p.ReferenceCount > 0,
	}

	present := 0
	for _, ok := range checks {
		if ok {
			present++
		}
	}
	return float64(present) / float64(len(checks))
}

// AuthorNames retorna los nombres de los autores.
func (p Paper) AuthorNames() []string {
	names := make([]string, 0, len(p.Authors))
	for _, a := range p.Authors {
		if a.Name != "" {
			names = append(names, a.Name)
		}
	}
	return names
}

// Topic retorna el término más representativo para buscar señales de mercado.
func (p Paper) Topic() string {
	if len(p.FieldsOfStudy) > 0 {
		return p.FieldsOfStudy[0]
	}
	return p.Title
}

// PaperAnalysis es el contenido producido por el stage de análisis del paper.
type PaperAnalysis struct {
	Paper           Paper    `json:"paper"`
	Related         []Paper  `json:"related,omitempty"`
	ConfidenceScore float64  `json:"confidence_score"`
	DataSources     []string `json:"data_sources_used"`
	ToolFailures    []string `json:"tool_failures,omitempty"`
}

// Confidence implementa Confident.
func (a PaperAnalysis) Confidence() float64 {
	return a.ConfidenceScore
}

// String renderiza el análisis como markdown para stages posteriores.
func (a PaperAnalysis) String() string {
	var b strings.Builder
	p := a.Paper

	fmt.Fprintf(&b, "### %s\n\n", p.Title)
	if names := p.AuthorNames(); len(names) > 0 {
		fmt.Fprintf(&b, "**Authors**: %s\n", strings.Join(names, ", "))
	}
	if p.Year > 0 {
		fmt.Fprintf(&b, "**Year**: %d", p.Year)
		if p.Venue != "" {
			fmt.Fprintf(&b, " (%s)", p.Venue)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "**Citations**: %d (influential: %d)\n", p.CitationCount, p.InfluentialCitationCount)
	if len(p.FieldsOfStudy) > 0 {
		fmt.Fprintf(&b, "**Fields**: %s\n", strings.Join(p.FieldsOfStudy, ", "))
	}
	fmt.Fprintf(&b, "**Confidence**: %.2f (%s)\n", a.ConfidenceScore, GetConfidenceLabel(a.ConfidenceScore))

	if p.Abstract != "" {
		fmt.Fprintf(&b, "\n%s\n", p.Abstract)
	}

	if len(a.Related) > 0 {
		b.WriteString("\n**Related work**:\n")
		for _, r := range a.Related {
			fmt.Fprintf(&b, "- %s", r.Title)
			if r.Year > 0 {
				fmt.Fprintf(&b, " (%d)", r.Year)
			}
			b.WriteString("\n")
		}
	}

	if len(a.ToolFailures) > 0 {
		fmt.Fprintf(&b, "\n_Unavailable sources_: %s\n", strings.Join(a.ToolFailures, ", "))
	}
	return b.String()
}
