// internal/adapters/output/json.go
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"paperflow/internal/core/domain"
	"paperflow/internal/core/ports"
)

// sanitizeName convierte un id de paper en un nombre de carpeta válido.
// Ejemplo: "1706.03762" -> "1706_03762"
func sanitizeName(name string) string {
	sanitized := strings.ReplaceAll(name, ".", "_")
	sanitized = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' || r == '-' {
			return r
		}
		return '_'
	}, sanitized)
	if sanitized == "" {
		return "unknown"
	}
	return sanitized
}

// runDir retorna el subdirectorio de salida de una ejecución.
func runDir(base string, result domain.RunResult) string {
	if base == "" {
		base = "."
	}
	return filepath.Join(base, sanitizeName(result.Input.PaperID))
}

// runTimestamp formatea el inicio de la ejecución para nombres de archivo.
func runTimestamp(result domain.RunResult) string {
	ts := result.StartedAt
	if ts.IsZero() {
		ts = time.Now()
	}
	return ts.Format("20060102_150405")
}

// JSONExporter exporta el RunResult completo en formato JSON.
type JSONExporter struct{}

var _ ports.WriterExporter = JSONExporter{}

// NewJSONExporter crea un exporter JSON.
func NewJSONExporter() JSONExporter {
	return JSONExporter{}
}

// Name implementa ports.Exporter.
func (JSONExporter) Name() string { return "json" }

// Export escribe el resultado en {OutputDir}/{paper}/paperflow_{paper}_{timestamp}.json.
func (e JSONExporter) Export(result domain.RunResult, opts ports.ExportOptions) (string, error) {
	dir := runDir(opts.OutputDir, result)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	filename := fmt.Sprintf("paperflow_%s_%s.json", sanitizeName(result.Input.PaperID), runTimestamp(result))
	path := filepath.Join(dir, filename)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	if err := e.ExportToWriter(result, f, opts); err != nil {
		return "", err
	}
	return path, nil
}

// ExportToWriter implementa ports.WriterExporter.
func (JSONExporter) ExportToWriter(result domain.RunResult, w io.Writer, opts ports.ExportOptions) error {
	doc := NewRunDocument(result, opts.IncludeStages)

	enc := json.NewEncoder(w)
	if opts.Pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// RunDocument es la forma serializada de una ejecución.
type RunDocument struct {
	RunID              string                        `json:"run_id"`
	Status             domain.RunStatus              `json:"status"`
	Input              domain.RunInput               `json:"input"`
	FinalOutput        any                           `json:"final_output,omitempty"`
	TerminatedReason   string                        `json:"terminated_reason,omitempty"`
	LastCompletedStage string                        `json:"last_completed_stage,omitempty"`
	FailedStage        string                        `json:"failed_stage,omitempty"`
	Error              *domain.ErrorInfo             `json:"error,omitempty"`
	Summary            RunSummary                    `json:"summary"`
	Stages             map[string]domain.StageResult `json:"stages,omitempty"`
}

// NewRunDocument construye el documento de exportación.
func NewRunDocument(result domain.RunResult, includeStages bool) RunDocument {
	doc := RunDocument{
		RunID:              result.RunID,
		Status:             result.Status,
		Input:              result.Input,
		FinalOutput:        result.FinalOutput,
		TerminatedReason:   result.TerminatedReason,
		LastCompletedStage: result.LastCompletedStage,
		FailedStage:        result.FailedStage,
		Error:              result.Error,
		Summary:            BuildRunSummary(result),
	}
	if includeStages {
		doc.Stages = result.StageResults
	}
	return doc
}

// RunSummary resume una ejecución.
type RunSummary struct {
	StagesRun        int               `json:"stages_run"`
	StagesSucceeded  []string          `json:"stages_succeeded"`
	StagesFailed     []string          `json:"stages_failed,omitempty"`
	StageDurationsMS map[string]int64  `json:"stage_durations_ms"`
	Confidence       map[string]string `json:"confidence,omitempty"`
	StartedAt        time.Time         `json:"started_at"`
	DurationMS       int64             `json:"duration_ms"`
}

// BuildRunSummary construye un resumen desde un RunResult.
func BuildRunSummary(result domain.RunResult) RunSummary {
	durations := make(map[string]int64, len(result.StageResults))
	var confidence map[string]string

	for name, r := range result.StageResults {
		durations[name] = r.Duration.Milliseconds()
		if c, ok := r.Confidence(); ok {
			if confidence == nil {
				confidence = make(map[string]string)
			}
			confidence[name] = fmt.Sprintf("%.2f (%s)", c, domain.GetConfidenceLabel(c))
		}
	}

	return RunSummary{
		StagesRun:        len(result.StageResults),
		StagesSucceeded:  result.Succeeded(),
		StagesFailed:     result.Failed(),
		StageDurationsMS: durations,
		Confidence:       confidence,
		StartedAt:        result.StartedAt,
		DurationMS:       result.Duration.Milliseconds(),
	}
}
