// internal/workers/combine.go
package workers

import (
	"context"
	"fmt"
	"strings"

	"paperflow/internal/core/domain"
	"paperflow/internal/platform/errors"
	"paperflow/internal/platform/logx"
)

// WorkerCombineResearch nombre del worker en el registry.
const WorkerCombineResearch = "combine_research"

// CombineResearch une el análisis del paper y la investigación de mercado en
// un brief markdown. No hace llamadas externas.
type CombineResearch struct {
	paperStage  string
	marketStage string
	logger      logx.Logger
}

// NewCombineResearch crea el worker leyendo los stages indicados.
func NewCombineResearch(paperStage, marketStage string, logger logx.Logger) *CombineResearch {
	return &CombineResearch{
		paperStage:  paperStage,
		marketStage: marketStage,
		logger:      logger.With("worker", WorkerCombineResearch),
	}
}

// Name implementa ports.Worker.
func (c *CombineResearch) Name() string {
	return WorkerCombineResearch
}

// Run implementa ports.Worker.
func (c *CombineResearch) Run(ctx context.Context, in domain.StageInput) domain.StageResult {
	paper, ok := in.Get(c.paperStage)
	if !ok || !paper.Success {
		return domain.Failed(c.Name(), errors.Coordination("combine_research.run",
			fmt.Sprintf("required stage %q has no successful result", c.paperStage)))
	}

	var b strings.Builder
	b.WriteString("# Combined Research\n\n")
	fmt.Fprintf(&b, "Paper: arXiv %s\n\n", in.Input.PaperID)

	b.WriteString("## Paper Analysis\n\n")
	b.WriteString(strings.TrimSpace(paper.Text()))
	b.WriteString("\n\n")

	b.WriteString("## Market Research\n\n")
	b.WriteString(section(in, c.marketStage))
	b.WriteString("\n")

	if goal := strings.TrimSpace(in.Input.Metadata[MetadataGoal]); goal != "" {
		fmt.Fprintf(&b, "\n## Goal\n\n%s\n", goal)
	}

	c.logger.Debug("research combined", "run_id", in.RunID, "chars", b.Len())
	return domain.Succeeded(c.Name(), b.String())
}

// section renderiza el resultado previo name, o una nota si faltó o falló.
func section(in domain.StageInput, name string) string {
	r, ok := in.Get(name)
	switch {
	case !ok:
		return fmt.Sprintf("_%s was not run._\n", name)
	case !r.Success:
		reason := "unknown error"
		if r.Error != nil {
			reason = r.Error.Error()
		}
		return fmt.Sprintf("_%s unavailable (%s)._\n", name, reason)
	default:
		return strings.TrimSpace(r.Text()) + "\n"
	}
}
