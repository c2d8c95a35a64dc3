// internal/core/domain/stage.go
package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"paperflow/internal/platform/errors"
	"paperflow/internal/platform/validator"
)

// StageSpec describe un stage del pipeline. Se define una vez al configurar
// el proceso y no cambia después.
type StageSpec struct {
	// Name nombre único del stage dentro del plan (ej: "analyze_paper")
	Name string

	// Worker nombre del worker en el registry; vacío = Name
	Worker string

	// RequiredInputs stages previos cuyo resultado necesita este stage
	RequiredInputs []string

	// Criticality política ante fallo del worker
	Criticality Criticality

	// ConfidenceSource indica que el resultado alimenta el confidence gate
	ConfidenceSource bool
}

// WorkerName retorna el nombre con el que se resuelve el worker.
func (s StageSpec) WorkerName() string {
	if s.Worker != "" {
		return s.Worker
	}
	return s.Name
}

// Validate verifica que el spec sea válido por sí mismo. Las dependencias
// entre stages se validan al construir el plan.
func (s StageSpec) Validate() error {
	const op = "stage.validate"

	if !validator.IsStageName(s.Name) {
		return errors.Validation(op, fmt.Sprintf("invalid stage name %q", s.Name))
	}
	if !s.Criticality.IsValid() {
		return errors.Validation(op, fmt.Sprintf("stage %q has invalid criticality %q", s.Name, s.Criticality))
	}
	for _, in := range s.RequiredInputs {
		if in == s.Name {
			return errors.Validation(op, fmt.Sprintf("stage %q cannot require itself", s.Name))
		}
	}
	return nil
}

// ErrorInfo describe el fallo de un stage de forma serializable.
type ErrorInfo struct {
	Kind    errors.Kind `json:"kind"`
	Message string      `json:"message"`
	Tool    string      `json:"tool,omitempty"`
}

// NewErrorInfo deriva un ErrorInfo de un error etiquetado. Errores sin
// etiqueta se clasifican como internal.
func NewErrorInfo(err error) *ErrorInfo {
	if err == nil {
		return nil
	}

	info := &ErrorInfo{
		Kind:    errors.KindOf(err),
		Message: err.Error(),
	}
	var tagged *errors.Error
	if errors.As(err, &tagged) {
		info.Tool = tagged.Tool
	}
	return info
}

// Error implementa error para poder propagar el fallo registrado.
func (e *ErrorInfo) Error() string {
	if e.Tool != "" {
		return fmt.Sprintf("%s (%s): %s", e.Kind, e.Tool, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// StageResult es el resultado inmutable de un stage.
type StageResult struct {
	StageName  string        `json:"stage_name"`
	Content    any           `json:"content,omitempty"`
	Success    bool          `json:"success"`
	Error      *ErrorInfo    `json:"error,omitempty"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Duration   time.Duration `json:"duration"`
}

// Succeeded crea un resultado exitoso.
func Succeeded(stage string, content any) StageResult {
	return StageResult{StageName: stage, Content: content, Success: true}
}

// Failed crea un resultado fallido a partir de err.
func Failed(stage string, err error) StageResult {
	return StageResult{StageName: stage, Success: false, Error: NewErrorInfo(err)}
}

// Text retorna el contenido como texto. Strings se devuelven tal cual,
// Stringers vía String() y el resto serializado como JSON.
func (r StageResult) Text() string {
	switch v := r.Content.(type) {
	case nil:
		return ""
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(data)
	}
}

// Confidence extrae la confianza del contenido, si existe.
func (r StageResult) Confidence() (float64, bool) {
	return ConfidenceOf(r.Content)
}

// StageInput es lo que recibe un worker: el input del run y una copia de
// los resultados previos que el stage declaró como requeridos.
type StageInput struct {
	RunID string
	Input RunInput
	Prior map[string]StageResult
}

// Get retorna el resultado previo de name.
func (in StageInput) Get(name string) (StageResult, bool) {
	r, ok := in.Prior[name]
	return r, ok
}

// TextOr retorna el texto del resultado previo si fue exitoso, o fallback
// si falta o fue degradado.
func (in StageInput) TextOr(name, fallback string) string {
	r, ok := in.Prior[name]
	if !ok || !r.Success {
		return fallback
	}
	if text := r.Text(); text != "" {
		return text
	}
	return fallback
}
