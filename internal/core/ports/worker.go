// internal/core/ports/worker.go
package ports

import (
	"context"

	"paperflow/internal/core/domain"
)

// Worker es el port primario para la lógica de un stage.
// El orquestador lo trata como una capacidad opaca: recibe un StageInput y
// retorna un StageResult. Los fallos se reportan con Success=false y un
// ErrorInfo, nunca con panic.
type Worker interface {
	// Name retorna el nombre único del worker (ej: "paper_analyzer", "market_researcher")
	Name() string

	// Run ejecuta el worker con los resultados previos requeridos
	Run(ctx context.Context, in domain.StageInput) domain.StageResult
}

// WorkerFunc adapta una función a Worker.
type WorkerFunc struct {
	WorkerName string
	Fn         func(ctx context.Context, in domain.StageInput) domain.StageResult
}

// Name implementa Worker.
func (w WorkerFunc) Name() string { return w.WorkerName }

// Run implementa Worker.
func (w WorkerFunc) Run(ctx context.Context, in domain.StageInput) domain.StageResult {
	return w.Fn(ctx, in)
}

// Closer es implementado por workers que retienen recursos.
type Closer interface {
	Close() error
}

// WorkerMetadata contiene metadatos sobre un worker registrado.
type WorkerMetadata struct {
	Name        string
	Description string

	// Tools herramientas externas que usa el worker (ej: "semantic_scholar")
	Tools []string

	// RequiresAuth indica que el worker necesita credenciales configuradas
	RequiresAuth bool
}

// WorkerResolver resuelve workers por nombre. El orquestador depende de
// esta interfaz y no del registry concreto.
type WorkerResolver interface {
	// Resolve retorna la instancia del worker, construyéndola si es necesario
	Resolve(name string) (Worker, error)

	// Has indica si name está registrado, sin construirlo
	Has(name string) bool
}
