// internal/core/usecases/mocks_test.go
package usecases

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"paperflow/internal/core/domain"
	"paperflow/internal/core/ports"
	"paperflow/internal/platform/errors"
)

// mockWorker es un mock de ports.Worker con comportamiento configurable
type mockWorker struct {
	name    string
	delay   time.Duration
	runFunc func(ctx context.Context, in domain.StageInput) domain.StageResult

	calls atomic.Int32

	mu       sync.Mutex
	inputs   []domain.StageInput
	started  time.Time
	finished time.Time
}

func newMockWorker(name string) *mockWorker {
	return &mockWorker{name: name}
}

// okWorker retorna content tras delay
func okWorker(name string, content any, delay time.Duration) *mockWorker {
	w := newMockWorker(name)
	w.delay = delay
	w.runFunc = func(ctx context.Context, in domain.StageInput) domain.StageResult {
		return domain.Succeeded(name, content)
	}
	return w
}

// failingWorker siempre reporta un fallo de herramienta
func failingWorker(name string) *mockWorker {
	w := newMockWorker(name)
	w.runFunc = func(ctx context.Context, in domain.StageInput) domain.StageResult {
		return domain.Failed(name, errors.ToolExecution(name, "upstream rejected request", nil))
	}
	return w
}

func (m *mockWorker) Name() string {
	return m.name
}

func (m *mockWorker) Run(ctx context.Context, in domain.StageInput) domain.StageResult {
	m.calls.Add(1)
	m.mu.Lock()
	m.inputs = append(m.inputs, in)
	m.started = time.Now()
	m.mu.Unlock()

	if m.delay > 0 {
		time.Sleep(m.delay)
	}

	var res domain.StageResult
	if m.runFunc != nil {
		res = m.runFunc(ctx, in)
	} else {
		res = domain.Succeeded(m.name, m.name+" output")
	}

	m.mu.Lock()
	m.finished = time.Now()
	m.mu.Unlock()
	return res
}

func (m *mockWorker) callCount() int {
	return int(m.calls.Load())
}

func (m *mockWorker) lastInput() domain.StageInput {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.inputs) == 0 {
		return domain.StageInput{}
	}
	return m.inputs[len(m.inputs)-1]
}

func (m *mockWorker) window() (time.Time, time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.started, m.finished
}

// mockResolver resuelve workers desde un mapa fijo
type mockResolver struct {
	workers map[string]ports.Worker
}

func newMockResolver(workers ...*mockWorker) *mockResolver {
	r := &mockResolver{workers: make(map[string]ports.Worker)}
	for _, w := range workers {
		r.workers[w.name] = w
	}
	return r
}

func (r *mockResolver) Resolve(name string) (ports.Worker, error) {
	w, ok := r.workers[name]
	if !ok {
		return nil, errors.ModelConfiguration("mock.resolve", fmt.Sprintf("unknown worker %q", name))
	}
	return w, nil
}

func (r *mockResolver) Has(name string) bool {
	_, ok := r.workers[name]
	return ok
}

// recordingSink almacena eventos en memoria
type recordingSink struct {
	mu     sync.Mutex
	events []domain.StageEvent
	err    error
}

func (s *recordingSink) Append(ctx context.Context, event domain.StageEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return s.err
}

func (s *recordingSink) Close() error {
	return nil
}

func (s *recordingSink) snapshot() []domain.StageEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.StageEvent(nil), s.events...)
}

func (s *recordingSink) forStage(name string) []domain.EventType {
	var types []domain.EventType
	for _, e := range s.snapshot() {
		if e.StageName == name {
			types = append(types, e.Type)
		}
	}
	return types
}

// confident es contenido que reporta una confianza fija
type confident float64

func (c confident) Confidence() float64 { return float64(c) }

func spec(name string, crit domain.Criticality, inputs ...string) domain.StageSpec {
	return domain.StageSpec{Name: name, Criticality: crit, RequiredInputs: inputs}
}

func gateSpec(name string) domain.StageSpec {
	return domain.StageSpec{Name: name, Criticality: domain.AbortOnFailure, ConfidenceSource: true}
}
