// internal/workers/paper_analyzer.go
package workers

import (
	"context"
	"fmt"
	"strconv"

	"paperflow/internal/core/domain"
	"paperflow/internal/core/ports"
	"paperflow/internal/platform/errors"
	"paperflow/internal/platform/logx"
	"paperflow/internal/platform/validator"
)

// WorkerPaperAnalyzer nombre del worker en el registry.
const WorkerPaperAnalyzer = "paper_analyzer"

// relatedFields campos pedidos en la búsqueda de trabajos relacionados.
const relatedFields = "paperId,title,year,citationCount,externalIds"

// relatedFailurePenalty resta confianza cuando la búsqueda de relacionados falla.
const relatedFailurePenalty = 0.1

// PaperAnalyzer obtiene la metadata de un paper de arXiv desde Semantic
// Scholar (o del knowledge store si ya se descargó) junto con trabajos
// relacionados. Su confianza es la completitud de la metadata.
type PaperAnalyzer struct {
	client       ScholarClient
	store        ports.KnowledgeStore
	relatedLimit int
	logger       logx.Logger
}

// NewPaperAnalyzer crea el worker. store puede ser nil.
func NewPaperAnalyzer(client ScholarClient, store ports.KnowledgeStore, relatedLimit int, logger logx.Logger) *PaperAnalyzer {
	if relatedLimit < 0 {
		relatedLimit = 0
	}
	return &PaperAnalyzer{
		client:       client,
		store:        store,
		relatedLimit: relatedLimit,
		logger:       logger.With("worker", WorkerPaperAnalyzer),
	}
}

// Name implementa ports.Worker.
func (a *PaperAnalyzer) Name() string {
	return WorkerPaperAnalyzer
}

// Run implementa ports.Worker.
func (a *PaperAnalyzer) Run(ctx context.Context, in domain.StageInput) domain.StageResult {
	id := validator.NormalizeArxivID(in.Input.PaperID)
	if !validator.IsArxivID(id) {
		return domain.Failed(a.Name(), errors.Validation("paper_analyzer.run", fmt.Sprintf("invalid arXiv id %q", in.Input.PaperID)))
	}

	a.logger.Debug("analyzing paper", "arxiv_id", id, "run_id", in.RunID)

	paper, source, err := a.lookup(ctx, id)
	if err != nil {
		a.logger.Warn("paper lookup failed", "arxiv_id", id, "error", err.Error())
		return domain.Failed(a.Name(), err)
	}

	analysis := domain.PaperAnalysis{
		Paper:       paper,
		DataSources: []string{source},
	}

	confidence := paper.Completeness()
	if a.relatedLimit > 0 {
		related, err := a.related(ctx, paper)
		if err != nil {
			a.logger.Warn("related papers search failed", "arxiv_id", id, "error", err.Error())
			analysis.ToolFailures = append(analysis.ToolFailures, ToolSemanticScholar+"_search")
			confidence -= relatedFailurePenalty
		} else {
			analysis.Related = related
			analysis.DataSources = append(analysis.DataSources, ToolSemanticScholar+"_search")
		}
	}
	if confidence < 0 {
		confidence = 0
	}
	analysis.ConfidenceScore = confidence

	a.logger.Info("paper analyzed",
		"arxiv_id", id,
		"title", paper.Title,
		"source", source,
		"related", len(analysis.Related),
		"confidence", strconv.FormatFloat(confidence, 'f', 2, 64),
	)

	return domain.Succeeded(a.Name(), analysis)
}

// lookup consulta el knowledge store y, si no está, la API.
func (a *PaperAnalyzer) lookup(ctx context.Context, id string) (domain.Paper, string, error) {
	if a.store != nil {
		paper, ok, err := a.store.Lookup(ctx, id)
		if err != nil {
			a.logger.Warn("knowledge lookup failed", "arxiv_id", id, "error", err.Error())
		} else if ok {
			a.logger.Debug("paper served from knowledge base", "arxiv_id", id)
			return paper, ToolKnowledgeBase, nil
		}
	}

	raw, err := a.client.Get(ctx, "paper/arXiv:"+id, map[string]string{"fields": domain.PaperFields})
	if err != nil {
		if errors.IsNotFound(err) {
			return domain.Paper{}, "", errors.ToolExecution(ToolSemanticScholar,
				fmt.Sprintf("arXiv:%s", id), fmt.Errorf("%w: %v", domain.ErrPaperNotFound, err))
		}
		return domain.Paper{}, "", errors.ToolExecution(ToolSemanticScholar, fmt.Sprintf("lookup arXiv:%s", id), err)
	}

	paper, err := domain.ParsePaper(raw)
	if err != nil {
		return domain.Paper{}, "", errors.Domain("paper_analyzer.parse", fmt.Sprintf("arXiv:%s", id), err)
	}
	if paper.ArxivID == "" {
		paper.ArxivID = id
	}

	if a.store != nil {
		if err := a.store.Insert(ctx, paper); err != nil {
			a.logger.Warn("knowledge insert failed", "paper_id", paper.PaperID, "error", err.Error())
		}
	}
	return paper, ToolSemanticScholar, nil
}

// related busca papers con el título del paper, excluyéndolo.
func (a *PaperAnalyzer) related(ctx context.Context, paper domain.Paper) ([]domain.Paper, error) {
	raw, err := a.client.Search(ctx, "paper/search", map[string]string{
		"query":  paper.Title,
		"limit":  strconv.Itoa(a.relatedLimit + 1),
		"fields": relatedFields,
	})
	if err != nil {
		return nil, err
	}

	items, _ := raw["data"].([]any)
	related := make([]domain.Paper, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		p, err := domain.ParsePaper(m)
		if err != nil || p.PaperID == paper.PaperID {
			continue
		}
		related = append(related, p)
		if len(related) == a.relatedLimit {
			break
		}
	}
	return related, nil
}
