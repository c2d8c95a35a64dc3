// internal/core/ports/eventsink.go
package ports

import (
	"context"
	"time"

	"paperflow/internal/core/domain"
)

// EventSink es el port para el registro append-only de eventos de stage.
// Es un efecto secundario de observabilidad: sus errores nunca alteran el
// flujo de control del pipeline.
type EventSink interface {
	// Append agrega un evento al final del registro
	Append(ctx context.Context, event domain.StageEvent) error

	// Close cierra el sink y libera recursos
	Close() error
}

// EventReader permite consultar eventos almacenados.
type EventReader interface {
	// Events retorna los eventos de una ejecución en orden de inserción
	Events(ctx context.Context, runID string) ([]domain.StageEvent, error)

	// Runs lista ejecuciones registradas aplicando filtros opcionales
	Runs(ctx context.Context, filter RunFilter) ([]RunSummary, error)
}

// RunFilter define filtros para búsqueda de ejecuciones.
type RunFilter struct {
	// Since fecha mínima del primer evento
	Since time.Time

	// Limit número máximo de resultados (0 = sin límite)
	Limit int
}

// RunSummary resume los eventos de una ejecución.
type RunSummary struct {
	RunID     string
	FirstSeen time.Time
	LastSeen  time.Time
	Events    int
	Failures  int
}

// NopEventSink descarta todos los eventos.
type NopEventSink struct{}

// Append implementa EventSink.
func (NopEventSink) Append(context.Context, domain.StageEvent) error { return nil }

// Close implementa EventSink.
func (NopEventSink) Close() error { return nil }
