// internal/core/domain/run.go
package domain

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// RunContext mapea nombre de stage → StageResult para una ejecución.
// Solo se escribe al completar stages; cada nombre se escribe una vez.
type RunContext struct {
	mu      sync.RWMutex
	results map[string]StageResult
	order   []string
}

// NewRunContext crea un contexto vacío.
func NewRunContext() *RunContext {
	return &RunContext{results: make(map[string]StageResult)}
}

// Put almacena el resultado de un stage. Un resultado ya escrito no se
// sobrescribe.
func (c *RunContext) Put(r StageResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.results[r.StageName]; exists {
		return fmt.Errorf("%w: %s", ErrStageAlreadyStored, r.StageName)
	}
	c.results[r.StageName] = r
	c.order = append(c.order, r.StageName)
	return nil
}

// Get retorna el resultado de name.
func (c *RunContext) Get(name string) (StageResult, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	r, ok := c.results[name]
	return r, ok
}

// Snapshot copia los resultados de names. Los nombres ausentes se
// retornan en missing.
func (c *RunContext) Snapshot(names []string) (prior map[string]StageResult, missing []string) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	prior = make(map[string]StageResult, len(names))
	for _, name := range names {
		r, ok := c.results[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		prior[name] = r
	}
	return prior, missing
}

// Results retorna una copia de todos los resultados.
func (c *RunContext) Results() map[string]StageResult {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]StageResult, len(c.results))
	for k, v := range c.results {
		out[k] = v
	}
	return out
}

// Order retorna los nombres en orden de escritura.
func (c *RunContext) Order() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.order...)
}

// Len retorna el número de resultados almacenados.
func (c *RunContext) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.results)
}

// PipelineRun es el estado de una ejecución.
type PipelineRun struct {
	ID        string
	Input     RunInput
	Status    RunStatus
	StartedAt time.Time
	Context   *RunContext
}

// NewPipelineRun crea una ejecución en estado RUNNING.
func NewPipelineRun(id string, input RunInput) *PipelineRun {
	return &PipelineRun{
		ID:        id,
		Input:     input,
		Status:    StatusRunning,
		StartedAt: time.Now(),
		Context:   NewRunContext(),
	}
}

// Transition avanza el estado. Un estado terminal nunca cambia.
func (r *PipelineRun) Transition(next RunStatus) error {
	if !r.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, r.Status, next)
	}
	r.Status = next
	return nil
}

// RunResult es el resultado estructurado de una ejecución. Siempre se
// retorna, incluso ante fallo o terminación temprana.
type RunResult struct {
	RunID              string                 `json:"run_id"`
	Status             RunStatus              `json:"status"`
	Input              RunInput               `json:"input"`
	FinalOutput        any                    `json:"final_output,omitempty"`
	StageResults       map[string]StageResult `json:"stage_results"`
	TerminatedReason   string                 `json:"terminated_reason,omitempty"`
	LastCompletedStage string                 `json:"last_completed_stage,omitempty"`
	FailedStage        string                 `json:"failed_stage,omitempty"`
	Error              *ErrorInfo             `json:"error,omitempty"`
	StartedAt          time.Time              `json:"started_at"`
	Duration           time.Duration          `json:"duration"`
}

// Succeeded retorna los nombres de los stages exitosos, ordenados.
func (r RunResult) Succeeded() []string {
	return r.filter(true)
}

// Failed retorna los nombres de los stages fallidos, ordenados.
func (r RunResult) Failed() []string {
	return r.filter(false)
}

func (r RunResult) filter(success bool) []string {
	names := make([]string, 0, len(r.StageResults))
	for name, res := range r.StageResults {
		if res.Success == success {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// StageEvent es un evento de transición de stage para el event sink.
type StageEvent struct {
	RunID     string        `json:"run_id"`
	StageName string        `json:"stage_name"`
	Type      EventType     `json:"event_type"`
	Timestamp time.Time     `json:"timestamp"`
	Duration  time.Duration `json:"duration"`
	Error     string        `json:"error,omitempty"`
}
