// internal/core/domain/input.go
package domain

import (
	"fmt"
	"strings"

	"paperflow/internal/platform/validator"
)

// RunInput es la entrada de una ejecución del pipeline.
type RunInput struct {
	// PaperID identificador arXiv del paper (ej: "1706.03762")
	PaperID string `json:"paper_id"`

	// MarketQuery consulta para señales de mercado; vacío = derivada del paper
	MarketQuery string `json:"market_query,omitempty"`

	// WebsiteURL página opcional de producto/proyecto a analizar
	WebsiteURL string `json:"website_url,omitempty"`

	// Metadata adicional
	Metadata map[string]string `json:"metadata,omitempty"`
}

// NewRunInput crea un input con el id normalizado.
func NewRunInput(paperID string) RunInput {
	return RunInput{
		PaperID:  validator.NormalizeArxivID(paperID),
		Metadata: make(map[string]string),
	}
}

// Validate verifica que el input sea válido, normalizando el id.
func (in *RunInput) Validate() error {
	if validator.IsEmpty(in.PaperID) {
		return ErrEmptyPaperID
	}

	in.PaperID = validator.NormalizeArxivID(in.PaperID)
	if !validator.IsArxivID(in.PaperID) {
		return fmt.Errorf("%w: %s", ErrInvalidArxivID, in.PaperID)
	}

	in.MarketQuery = strings.TrimSpace(in.MarketQuery)

	if in.WebsiteURL != "" {
		if !validator.IsHTTPURL(in.WebsiteURL) {
			return fmt.Errorf("%w: %s", ErrInvalidURL, in.WebsiteURL)
		}
		in.WebsiteURL = validator.NormalizeURL(in.WebsiteURL)
	}

	return nil
}

// String retorna una representación legible del input.
func (in RunInput) String() string {
	return fmt.Sprintf("RunInput{paper=%s, market=%q}", in.PaperID, in.MarketQuery)
}
