// internal/core/ports/knowledge.go
package ports

import (
	"context"

	"paperflow/internal/core/domain"
)

// KnowledgeStore es el port para el servicio de lookup/insert de papers ya
// obtenidos. Los workers insertan lo que descargan y consultan antes de
// pedir a la API.
type KnowledgeStore interface {
	// Insert guarda o actualiza un paper
	Insert(ctx context.Context, paper domain.Paper) error

	// Lookup recupera un paper por paperId o arXiv id
	Lookup(ctx context.Context, id string) (domain.Paper, bool, error)

	// Search busca papers por título o abstract (partial match)
	Search(ctx context.Context, query string, limit int) ([]domain.Paper, error)

	// Close cierra la conexión con el store
	Close() error
}
