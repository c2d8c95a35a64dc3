// internal/core/domain/enums.go
package domain

// Criticality define qué hace el orquestador cuando el worker de un stage
// reporta success=false.
type Criticality string

const (
	// AbortOnFailure marca la ejecución como FAILED y detiene el pipeline
	AbortOnFailure Criticality = "ABORT_ON_FAILURE"

	// DegradeOnFailure registra el fallo y continúa; los stages posteriores
	// reciben el resultado fallido como señal degradada
	DegradeOnFailure Criticality = "DEGRADE_ON_FAILURE"
)

// IsValid verifica si la criticidad es válida.
func (c Criticality) IsValid() bool {
	switch c {
	case AbortOnFailure, DegradeOnFailure:
		return true
	default:
		return false
	}
}

// String retorna la representación string de la criticidad.
func (c Criticality) String() string {
	return string(c)
}

// RunStatus es el estado de una ejecución del pipeline.
type RunStatus string

const (
	// StatusRunning estado inicial mientras se ejecutan las unidades
	StatusRunning RunStatus = "RUNNING"

	// StatusCompleted todas las unidades terminaron sin abortar
	StatusCompleted RunStatus = "COMPLETED"

	// StatusTerminatedEarly el confidence gate detuvo el pipeline
	StatusTerminatedEarly RunStatus = "TERMINATED_EARLY"

	// StatusFailed un stage ABORT_ON_FAILURE falló o la configuración es inválida
	StatusFailed RunStatus = "FAILED"
)

// IsTerminal retorna true para los estados finales.
func (s RunStatus) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusTerminatedEarly, StatusFailed:
		return true
	default:
		return false
	}
}

// CanTransitionTo indica si next es un estado alcanzable desde s.
// Las transiciones son monótonas: solo RUNNING puede avanzar, y solo hacia
// un estado terminal.
func (s RunStatus) CanTransitionTo(next RunStatus) bool {
	return s == StatusRunning && next.IsTerminal()
}

// String retorna la representación string del estado.
func (s RunStatus) String() string {
	return string(s)
}

// EventType tipo de evento de stage registrado en el event sink.
type EventType string

const (
	EventStarted   EventType = "STARTED"
	EventSucceeded EventType = "SUCCEEDED"
	EventFailed    EventType = "FAILED"
)

// IsValid verifica si el tipo de evento es válido.
func (e EventType) IsValid() bool {
	switch e {
	case EventStarted, EventSucceeded, EventFailed:
		return true
	default:
		return false
	}
}
