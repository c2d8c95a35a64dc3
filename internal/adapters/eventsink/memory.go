// internal/adapters/eventsink/memory.go
package eventsink

import (
	"context"
	"sort"
	"sync"
	"time"

	"paperflow/internal/core/domain"
	"paperflow/internal/core/ports"
	"paperflow/internal/platform/errors"
)

// MemorySink guarda los eventos en memoria. Se usa cuando no hay base
// configurada y en tests.
type MemorySink struct {
	mu     sync.Mutex
	events []domain.StageEvent
}

var (
	_ ports.EventSink   = (*MemorySink)(nil)
	_ ports.EventReader = (*MemorySink)(nil)
)

// NewMemory crea un sink vacío.
func NewMemory() *MemorySink {
	return &MemorySink{}
}

// Append implementa ports.EventSink.
func (m *MemorySink) Append(_ context.Context, event domain.StageEvent) error {
	if err := validateEvent(event); err != nil {
		return err
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	m.mu.Lock()
	m.events = append(m.events, event)
	m.mu.Unlock()
	return nil
}

// Events implementa ports.EventReader.
func (m *MemorySink) Events(_ context.Context, runID string) ([]domain.StageEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []domain.StageEvent
	for _, e := range m.events {
		if e.RunID == runID {
			out = append(out, e)
		}
	}
	return out, nil
}

// Runs implementa ports.EventReader. Las ejecuciones más recientes primero.
func (m *MemorySink) Runs(_ context.Context, filter ports.RunFilter) ([]ports.RunSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	byRun := make(map[string]*ports.RunSummary)
	firstIdx := make(map[string]int)

	for i, e := range m.events {
		if !filter.Since.IsZero() && e.Timestamp.Before(filter.Since) {
			continue
		}
		r, ok := byRun[e.RunID]
		if !ok {
			r = &ports.RunSummary{RunID: e.RunID, FirstSeen: e.Timestamp, LastSeen: e.Timestamp}
			byRun[e.RunID] = r
			firstIdx[e.RunID] = i
		}
		if e.Timestamp.Before(r.FirstSeen) {
			r.FirstSeen = e.Timestamp
		}
		if e.Timestamp.After(r.LastSeen) {
			r.LastSeen = e.Timestamp
		}
		r.Events++
		if e.Type == domain.EventFailed {
			r.Failures++
		}
	}

	runs := make([]ports.RunSummary, 0, len(byRun))
	for _, r := range byRun {
		runs = append(runs, *r)
	}
	sort.Slice(runs, func(i, j int) bool {
		return firstIdx[runs[i].RunID] > firstIdx[runs[j].RunID]
	})

	if filter.Limit > 0 && len(runs) > filter.Limit {
		runs = runs[:filter.Limit]
	}
	return runs, nil
}

// Len retorna el número total de eventos.
func (m *MemorySink) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}

// Close implementa ports.EventSink.
func (m *MemorySink) Close() error { return nil }

// validateEvent rechaza eventos sin run, stage o con tipo desconocido.
func validateEvent(e domain.StageEvent) error {
	const op = "eventsink.append"

	if e.RunID == "" || e.StageName == "" {
		return errors.Validation(op, "event requires run_id and stage_name")
	}
	if !e.Type.IsValid() {
		return errors.Validation(op, "unknown event type "+string(e.Type))
	}
	return nil
}
