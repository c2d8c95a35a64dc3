// internal/adapters/knowledge/memory.go
package knowledge

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"sync"

	"paperflow/internal/core/domain"
	"paperflow/internal/core/ports"
	"paperflow/internal/platform/errors"
	"paperflow/internal/platform/validator"
)

// DefaultSearchLimit máximo de resultados cuando Search recibe limit <= 0.
const DefaultSearchLimit = 10

var arxivVersion = regexp.MustCompile(`v\d+$`)

// MemoryStore guarda papers en memoria.
type MemoryStore struct {
	mu     sync.RWMutex
	papers map[string]domain.Paper // paperId → paper
	arxiv  map[string]string       // arXiv id sin versión → paperId
}

var _ ports.KnowledgeStore = (*MemoryStore)(nil)

// NewMemory crea un store vacío.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		papers: make(map[string]domain.Paper),
		arxiv:  make(map[string]string),
	}
}

// Insert implementa ports.KnowledgeStore.
func (m *MemoryStore) Insert(_ context.Context, paper domain.Paper) error {
	if err := validatePaper(paper); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if old, ok := m.papers[paper.PaperID]; ok {
		delete(m.arxiv, arxivKey(old.ArxivID))
	}
	m.papers[paper.PaperID] = paper
	if key := arxivKey(paper.ArxivID); key != "" {
		m.arxiv[key] = paper.PaperID
	}
	return nil
}

// Lookup implementa ports.KnowledgeStore.
func (m *MemoryStore) Lookup(_ context.Context, id string) (domain.Paper, bool, error) {
	id = strings.TrimSpace(id)

	m.mu.RLock()
	defer m.mu.RUnlock()

	if p, ok := m.papers[id]; ok {
		return p, true, nil
	}
	if pid, ok := m.arxiv[arxivKey(id)]; ok {
		p, ok := m.papers[pid]
		return p, ok, nil
	}
	return domain.Paper{}, false, nil
}

// Search implementa ports.KnowledgeStore.
func (m *MemoryStore) Search(_ context.Context, query string, limit int) ([]domain.Paper, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	m.mu.RLock()
	var out []domain.Paper
	for _, p := range m.papers {
		if strings.Contains(strings.ToLower(p.Title), query) ||
			strings.Contains(strings.ToLower(p.Abstract), query) {
			out = append(out, p)
		}
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year > out[j].Year
		}
		return out[i].Title < out[j].Title
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Len retorna el número de papers guardados.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.papers)
}

// Close implementa ports.KnowledgeStore.
func (m *MemoryStore) Close() error { return nil }

// arxivKey normaliza un id arXiv para indexarlo: sin prefijos ni versión.
// Retorna "" si no es un id arXiv.
func arxivKey(id string) string {
	id = validator.NormalizeArxivID(id)
	if !validator.IsArxivID(id) {
		return ""
	}
	return arxivVersion.ReplaceAllString(id, "")
}

func validatePaper(p domain.Paper) error {
	if strings.TrimSpace(p.PaperID) == "" {
		return errors.Validation("knowledge.insert", "paper requires paperId")
	}
	if strings.TrimSpace(p.Title) == "" {
		return errors.Validation("knowledge.insert", "paper "+p.PaperID+" requires title")
	}
	return nil
}
