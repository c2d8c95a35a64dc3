// internal/adapters/output/markdown.go
package output

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"paperflow/internal/core/domain"
	"paperflow/internal/core/ports"
)

// MarkdownExporter escribe el reporte final de una ejecución como markdown.
type MarkdownExporter struct{}

var _ ports.WriterExporter = MarkdownExporter{}

// NewMarkdownExporter crea un exporter markdown.
func NewMarkdownExporter() MarkdownExporter {
	return MarkdownExporter{}
}

// Name implementa ports.Exporter.
func (MarkdownExporter) Name() string { return "markdown" }

// Export escribe el reporte en {OutputDir}/{paper}/paperflow_{paper}_{timestamp}.md.
func (e MarkdownExporter) Export(result domain.RunResult, opts ports.ExportOptions) (string, error) {
	dir := runDir(opts.OutputDir, result)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	filename := fmt.Sprintf("paperflow_%s_%s.md", sanitizeName(result.Input.PaperID), runTimestamp(result))
	path := filepath.Join(dir, filename)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create report file: %w", err)
	}
	defer f.Close()

	if err := e.ExportToWriter(result, f, opts); err != nil {
		return "", err
	}
	return path, nil
}

// ExportToWriter implementa ports.WriterExporter.
func (MarkdownExporter) ExportToWriter(result domain.RunResult, w io.Writer, opts ports.ExportOptions) error {
	var b strings.Builder

	fmt.Fprintf(&b, "# Paper2SaaS report: arXiv %s\n\n", result.Input.PaperID)
	fmt.Fprintf(&b, "- **Run**: `%s`\n", result.RunID)
	fmt.Fprintf(&b, "- **Status**: %s\n", result.Status)
	if result.Input.MarketQuery != "" {
		fmt.Fprintf(&b, "- **Market query**: %s\n", result.Input.MarketQuery)
	}
	if result.Input.WebsiteURL != "" {
		fmt.Fprintf(&b, "- **Website**: %s\n", result.Input.WebsiteURL)
	}
	fmt.Fprintf(&b, "- **Duration**: %s\n", result.Duration.Round(time.Millisecond))

	switch result.Status {
	case domain.StatusTerminatedEarly:
		fmt.Fprintf(&b, "\n> Terminated early: %s\n", result.TerminatedReason)
	case domain.StatusFailed:
		if result.Error != nil {
			fmt.Fprintf(&b, "\n> Failed at `%s`: %s\n", orNone(result.FailedStage), result.Error.Error())
		}
	}

	if text := finalText(result.FinalOutput); text != "" && result.Status == domain.StatusCompleted {
		fmt.Fprintf(&b, "\n%s\n", strings.TrimSpace(text))
	}

	if opts.IncludeStages || result.Status != domain.StatusCompleted {
		for _, r := range orderedStages(result) {
			fmt.Fprintf(&b, "\n## %s\n\n", r.StageName)
			if !r.Success {
				msg := "failed"
				if r.Error != nil {
					msg = r.Error.Error()
				}
				fmt.Fprintf(&b, "_Stage failed_: %s\n", msg)
				continue
			}
			b.WriteString(strings.TrimSpace(r.Text()))
			b.WriteString("\n")
		}
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("failed to write markdown: %w", err)
	}
	return nil
}

// orderedStages ordena los resultados por inicio y luego por nombre.
func orderedStages(result domain.RunResult) []domain.StageResult {
	out := make([]domain.StageResult, 0, len(result.StageResults))
	for _, r := range result.StageResults {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].StartedAt.Before(out[j].StartedAt)
		}
		return out[i].StageName < out[j].StageName
	})
	return out
}

func finalText(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case fmt.Stringer:
		return x.String()
	default:
		return ""
	}
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
