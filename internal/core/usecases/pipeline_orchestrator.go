// internal/core/usecases/pipeline_orchestrator.go
package usecases

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/panics"
	"golang.org/x/sync/errgroup"

	"paperflow/internal/core/domain"
	"paperflow/internal/core/ports"
	"paperflow/internal/platform/errors"
	"paperflow/internal/platform/logx"
	"paperflow/internal/platform/metrics"
	"paperflow/internal/platform/ui"
)

// Aggregator construye el output final a partir de los resultados de una
// ejecución completada.
type Aggregator func(results map[string]domain.StageResult) any

// PipelineOrchestrator ejecuta un plan de stages y grupos sobre un
// RunContext por ejecución. Aplica el confidence gate y la política de
// criticidad de cada stage, y emite eventos de stage al EventSink.
//
// Un orchestrator es seguro para ejecuciones concurrentes: el estado de
// cada ejecución vive en su PipelineRun.
type PipelineOrchestrator struct {
	plan       Plan
	resolver   ports.WorkerResolver
	sink       ports.EventSink
	logger     logx.Logger
	presenter  ui.Presenter
	metrics    *metrics.Metrics
	threshold  float64
	aggregator Aggregator
	newID      func() string
}

// PipelineOrchestratorOptions configura el pipeline orchestrator.
type PipelineOrchestratorOptions struct {
	Plan     Plan
	Resolver ports.WorkerResolver
	Sink     ports.EventSink
	Logger   logx.Logger

	// Presenter recibe el progreso; nil = NoopPresenter
	Presenter ui.Presenter

	// Metrics es opcional
	Metrics *metrics.Metrics

	// ConfidenceThreshold umbral del gate; <= 0 usa DefaultConfidenceThreshold
	ConfidenceThreshold float64

	// DisableConfidenceGate fija el umbral en 0: ninguna confianza corta la ejecución
	DisableConfidenceGate bool

	// Aggregator reemplaza al stage terminal como fuente del output final
	Aggregator Aggregator

	// IDGenerator genera run IDs; nil = uuid v4
	IDGenerator func() string
}

// NewPipelineOrchestrator crea una nueva instancia del pipeline orchestrator.
func NewPipelineOrchestrator(opts PipelineOrchestratorOptions) *PipelineOrchestrator {
	if opts.Logger == nil {
		opts.Logger = logx.New()
	}
	if opts.Presenter == nil {
		opts.Presenter = ui.NewNoopPresenter()
	}
	if opts.Sink == nil {
		opts.Sink = ports.NopEventSink{}
	}
	switch {
	case opts.DisableConfidenceGate:
		opts.ConfidenceThreshold = 0
	case opts.ConfidenceThreshold <= 0:
		opts.ConfidenceThreshold = domain.DefaultConfidenceThreshold
	}
	if opts.IDGenerator == nil {
		opts.IDGenerator = uuid.NewString
	}

	return &PipelineOrchestrator{
		plan:       opts.Plan,
		resolver:   opts.Resolver,
		sink:       opts.Sink,
		logger:     opts.Logger.With("component", "pipeline_orchestrator"),
		presenter:  opts.Presenter,
		metrics:    opts.Metrics,
		threshold:  opts.ConfidenceThreshold,
		aggregator: opts.Aggregator,
		newID:      opts.IDGenerator,
	}
}

// Plan retorna el plan configurado.
func (p *PipelineOrchestrator) Plan() Plan {
	return p.plan
}

// Threshold retorna el umbral del confidence gate.
func (p *PipelineOrchestrator) Threshold() float64 {
	return p.threshold
}

// Validate ejecuta la validación de setup sin correr ningún stage.
func (p *PipelineOrchestrator) Validate() error {
	_, err := p.plan.Resolve(p.resolver)
	return err
}

// RunAsync ejecuta Run en una goroutine. El canal recibe exactamente un
// RunResult y luego se cierra.
func (p *PipelineOrchestrator) RunAsync(ctx context.Context, input domain.RunInput) <-chan domain.RunResult {
	out := make(chan domain.RunResult, 1)
	go func() {
		defer close(out)
		out <- p.Run(ctx, input)
	}()
	return out
}

// Run ejecuta el plan completo. Siempre retorna un RunResult estructurado,
// incluso ante errores de setup, fallos de stage o terminación temprana.
func (p *PipelineOrchestrator) Run(ctx context.Context, input domain.RunInput) domain.RunResult {
	run := domain.NewPipelineRun(p.newID(), input)
	logger := p.logger.With("run_id", run.ID)

	p.metrics.RunStarted()

	if err := run.Input.Validate(); err != nil {
		logger.Warn("invalid run input", "error", err.Error())
		p.presenter.Error(fmt.Sprintf("invalid input: %v", err))
		return p.finish(run, domain.StatusFailed, outcome{
			err: errors.E(errors.KindValidation, "pipeline.run", "invalid run input", err),
		})
	}

	// Setup: todo error de configuración se reporta antes de correr stages
	workers, err := p.plan.Resolve(p.resolver)
	if err != nil {
		logger.Warn("pipeline setup failed", "error", err.Error())
		p.presenter.Error(fmt.Sprintf("setup failed: %v", err))
		return p.finish(run, domain.StatusFailed, outcome{err: err})
	}

	logger.Info("starting pipeline execution",
		"paper", run.Input.PaperID,
		"units", len(p.plan.Units),
		"stages", p.plan.StageCount(),
		"threshold", p.threshold,
	)

	p.presenter.Start(ui.RunInfo{
		RunID:       run.ID,
		PaperID:     run.Input.PaperID,
		MarketQuery: run.Input.MarketQuery,
		WebsiteURL:  run.Input.WebsiteURL,
		TotalUnits:  len(p.plan.Units),
		TotalStages: p.plan.StageCount(),
		Threshold:   p.threshold,
	})
	defer p.presenter.Close()

	var lastCompleted string
	for i, unit := range p.plan.Units {
		unitNum := i + 1

		if ctxErr := ctx.Err(); ctxErr != nil {
			err := errors.E(errors.KindCoordination, "pipeline.run",
				fmt.Sprintf("run canceled before unit %q", unit.Name), ctxErr)
			return p.finish(run, domain.StatusFailed, outcome{err: err, lastCompleted: lastCompleted})
		}

		unitStart := time.Now()
		logger.Info("executing unit",
			"unit", unitNum,
			"name", unit.Name,
			"stages", unit.Size(),
			"concurrent", unit.IsGroup(),
		)
		p.presenter.StartUnit(ui.UnitInfo{
			Number:     unitNum,
			TotalUnits: len(p.plan.Units),
			Name:       unit.Name,
			Stages:     unit.StageNames(),
			Concurrent: unit.IsGroup(),
		})

		results, err := p.executeUnit(ctx, run, unitNum, unit, workers)
		if err != nil {
			logger.Warn("unit coordination failed", "unit", unit.Name, "error", err.Error())
			return p.finish(run, domain.StatusFailed, outcome{err: err, lastCompleted: lastCompleted})
		}

		// Los resultados se escriben después del join, nunca antes
		for _, res := range results {
			if err := run.Context.Put(res); err != nil {
				cerr := errors.E(errors.KindCoordination, "pipeline.run", "cannot store stage result", err)
				return p.finish(run, domain.StatusFailed, outcome{err: cerr, lastCompleted: lastCompleted})
			}
		}

		unitDuration := time.Since(unitStart)
		p.presenter.FinishUnit(unitNum, unitDuration)
		logger.Info("unit completed",
			"unit", unitNum,
			"name", unit.Name,
			"duration_ms", unitDuration.Milliseconds(),
		)

		// Política de criticidad
		for idx, spec := range unit.Stages {
			res := results[idx]
			if res.Success {
				lastCompleted = spec.Name
				continue
			}
			if spec.Criticality == domain.AbortOnFailure {
				logger.Warn("critical stage failed, aborting run", "stage", spec.Name)
				return p.finish(run, domain.StatusFailed, outcome{
					err:           res.Error,
					failedStage:   spec.Name,
					lastCompleted: lastCompleted,
				})
			}
			logger.Warn("stage failed, continuing degraded", "stage", spec.Name)
		}

		// Confidence gate
		for idx, spec := range unit.Stages {
			if !spec.ConfidenceSource {
				continue
			}
			res := results[idx]
			if !res.Success {
				continue
			}
			confidence, ok := res.Confidence()
			if !ok {
				logger.Warn("confidence source reported no confidence", "stage", spec.Name)
				continue
			}
			if confidence < p.threshold {
				reason := fmt.Sprintf("confidence %.2f from stage %q is below threshold %.2f",
					confidence, spec.Name, p.threshold)
				logger.Info("confidence gate triggered", "stage", spec.Name, "confidence", confidence)
				p.presenter.Warning(reason)
				return p.finish(run, domain.StatusTerminatedEarly, outcome{
					reason:        reason,
					lastCompleted: lastCompleted,
				})
			}
		}
	}

	return p.finish(run, domain.StatusCompleted, outcome{lastCompleted: lastCompleted})
}

// executeUnit ejecuta una unidad y retorna sus resultados en orden
// declarado. Solo retorna error ante fallos de coordinación.
func (p *PipelineOrchestrator) executeUnit(ctx context.Context, run *domain.PipelineRun, unitNum int, unit Unit, workers map[string]ports.Worker) ([]domain.StageResult, error) {
	// Inputs tomados del contexto al inicio de la unidad
	inputs := make([]domain.StageInput, len(unit.Stages))
	for i, spec := range unit.Stages {
		prior, missing := run.Context.Snapshot(spec.RequiredInputs)
		if len(missing) > 0 {
			return nil, errors.E(errors.KindCoordination, "pipeline.execute",
				fmt.Sprintf("stage %q is missing required inputs: %s", spec.Name, strings.Join(missing, ", ")),
				domain.ErrMissingInput)
		}
		inputs[i] = domain.StageInput{RunID: run.ID, Input: run.Input, Prior: prior}
	}

	results := make([]domain.StageResult, len(unit.Stages))

	if !unit.IsGroup() {
		spec := unit.Stages[0]
		results[0] = p.executeStage(ctx, run.ID, unitNum, spec, workers[spec.Name], inputs[0])
		return results, nil
	}

	// Sin contexto compartido: un miembro fallido no cancela a los demás
	var g errgroup.Group
	for i, spec := range unit.Stages {
		g.Go(func() error {
			results[i] = p.executeStage(ctx, run.ID, unitNum, spec, workers[spec.Name], inputs[i])
			return nil
		})
	}
	_ = g.Wait()

	return results, nil
}

// executeStage invoca el worker de un stage. Un panic del worker se captura
// y se registra como resultado fallido.
func (p *PipelineOrchestrator) executeStage(ctx context.Context, runID string, unitNum int, spec domain.StageSpec, worker ports.Worker, in domain.StageInput) domain.StageResult {
	logger := p.logger.With("run_id", runID, "stage", spec.Name)
	started := time.Now()

	p.emit(ctx, domain.StageEvent{
		RunID:     runID,
		StageName: spec.Name,
		Type:      domain.EventStarted,
		Timestamp: started,
	})
	p.presenter.StartStage(unitNum, spec.Name)
	logger.Debug("executing stage", "worker", spec.WorkerName(), "inputs", len(in.Prior))

	var result domain.StageResult
	var catcher panics.Catcher
	catcher.Try(func() {
		result = worker.Run(ctx, in)
	})
	if recovered := catcher.Recovered(); recovered != nil {
		logger.Warn("worker panicked", "panic", fmt.Sprint(recovered.Value))
		result = domain.Failed(spec.Name, errors.E(errors.KindInternal, "pipeline.stage",
			fmt.Sprintf("worker %q panicked", spec.WorkerName()), recovered.AsError()))
	}

	finished := time.Now()
	result.StageName = spec.Name
	result.StartedAt = started
	result.FinishedAt = finished
	result.Duration = finished.Sub(started)
	if !result.Success && result.Error == nil {
		result.Error = domain.NewErrorInfo(errors.ToolExecution(spec.WorkerName(), "worker reported failure without details", nil))
	}

	event := domain.StageEvent{
		RunID:     runID,
		StageName: spec.Name,
		Type:      domain.EventSucceeded,
		Timestamp: finished,
		Duration:  result.Duration,
	}
	status := ui.StatusSuccess
	detail := ""
	if !result.Success {
		event.Type = domain.EventFailed
		event.Error = result.Error.Error()
		status = ui.StatusFromResult(false, spec.Criticality == domain.DegradeOnFailure)
		detail = result.Error.Error()
		logger.Warn("stage failed", "error", result.Error.Error(), "duration_ms", result.Duration.Milliseconds())
	} else {
		if c, ok := result.Confidence(); ok {
			detail = fmt.Sprintf("confidence %.2f", c)
		}
		logger.Debug("stage completed", "duration_ms", result.Duration.Milliseconds())
	}

	p.emit(ctx, event)
	p.presenter.FinishStage(spec.Name, status, result.Duration, detail)
	p.metrics.ObserveStage(spec.Name, result.Success, result.Duration)

	return result
}

// emit registra un evento en el sink. Los errores del sink solo se loguean.
func (p *PipelineOrchestrator) emit(ctx context.Context, event domain.StageEvent) {
	if err := p.sink.Append(context.WithoutCancel(ctx), event); err != nil {
		p.logger.Warn("event sink append failed",
			"run_id", event.RunID,
			"stage", event.StageName,
			"event", string(event.Type),
			"error", err.Error(),
		)
	}
}

// outcome resume cómo terminó una ejecución.
type outcome struct {
	err           error
	reason        string
	failedStage   string
	lastCompleted string
}

// finish transiciona la ejecución a su estado terminal y construye el
// RunResult.
func (p *PipelineOrchestrator) finish(run *domain.PipelineRun, status domain.RunStatus, o outcome) domain.RunResult {
	if err := run.Transition(status); err != nil {
		p.logger.Err(err, "run_id", run.ID)
	}

	results := run.Context.Results()
	result := domain.RunResult{
		RunID:              run.ID,
		Status:             run.Status,
		Input:              run.Input,
		StageResults:       results,
		TerminatedReason:   o.reason,
		LastCompletedStage: o.lastCompleted,
		FailedStage:        o.failedStage,
		Error:              errorInfo(o.err),
		StartedAt:          run.StartedAt,
		Duration:           time.Since(run.StartedAt),
	}

	switch run.Status {
	case domain.StatusCompleted:
		result.FinalOutput = p.finalOutput(results)
	case domain.StatusTerminatedEarly:
		result.FinalOutput = partialOutput(results)
	}

	p.metrics.RunFinished(string(run.Status))

	stats := ui.RunStats{
		RunID:            run.ID,
		Status:           string(run.Status),
		TotalDuration:    result.Duration,
		StagesSucceeded:  len(result.Succeeded()),
		StagesFailed:     len(result.Failed()),
		TerminatedReason: o.reason,
		FailedStage:      o.failedStage,
		StageDurations:   make(map[string]time.Duration, len(results)),
	}
	for name, r := range results {
		stats.StageDurations[name] = r.Duration
	}
	if len(results) > 0 {
		p.presenter.Finish(stats)
	}

	p.logger.Info("pipeline execution finished",
		"run_id", run.ID,
		"status", string(run.Status),
		"stages_run", len(results),
		"failed_stage", o.failedStage,
		"duration_ms", result.Duration.Milliseconds(),
	)

	return result
}

// finalOutput retorna el contenido del stage terminal, o el del
// aggregator si fue configurado.
func (p *PipelineOrchestrator) finalOutput(results map[string]domain.StageResult) any {
	if p.aggregator != nil {
		return p.aggregator(results)
	}
	if r, ok := results[p.plan.TerminalStage()]; ok {
		return r.Content
	}
	return nil
}

// partialOutput reúne el contenido de los stages exitosos.
func partialOutput(results map[string]domain.StageResult) map[string]any {
	out := make(map[string]any, len(results))
	for name, r := range results {
		if r.Success {
			out[name] = r.Content
		}
	}
	return out
}

// errorInfo clasifica err. Un *ErrorInfo se retorna tal cual.
func errorInfo(err error) *domain.ErrorInfo {
	if err == nil {
		return nil
	}
	if info, ok := err.(*domain.ErrorInfo); ok {
		return info
	}
	return domain.NewErrorInfo(err)
}
