// internal/platform/ui/presenter.go
package ui

import (
	"time"
)

// UIMode define el modo de visualización
type UIMode string

const (
	UIModePretty UIMode = "pretty" // Secciones, spinners y tablas pterm (default)
	UIModeRaw    UIMode = "raw"    // Una línea logfmt por evento
	UIModeJSON   UIMode = "json"   // Un objeto JSON por evento
	UIModeQuiet  UIMode = "quiet"  // Sin UI visual
)

// IsValid verifica si el modo es conocido
func (m UIMode) IsValid() bool {
	switch m {
	case UIModePretty, UIModeRaw, UIModeJSON, UIModeQuiet:
		return true
	}
	return false
}

// Presenter define la interfaz para presentar el progreso de una ejecución
// del pipeline. Las llamadas llegan desde varias goroutines cuando un grupo
// de stages corre en paralelo.
type Presenter interface {
	// Start inicia la presentación con información de la ejecución
	Start(info RunInfo)

	// StartUnit notifica el inicio de una unidad del plan (stage o grupo)
	StartUnit(unit UnitInfo)

	// FinishUnit notifica la finalización de una unidad
	FinishUnit(unitNum int, duration time.Duration)

	// StartStage notifica el inicio de ejecución de un stage
	StartStage(unitNum int, stageName string)

	// FinishStage notifica la finalización de un stage
	FinishStage(stageName string, status Status, duration time.Duration, detail string)

	// Info muestra un mensaje informativo
	Info(msg string)

	// Warning muestra una advertencia
	Warning(msg string)

	// Error muestra un error
	Error(msg string)

	// Finish finaliza la presentación con estadísticas finales
	Finish(stats RunStats)

	// Close limpia recursos del presenter
	Close() error
}

// RunInfo contiene información inicial de la ejecución
type RunInfo struct {
	RunID       string
	PaperID     string
	MarketQuery string
	WebsiteURL  string
	TotalUnits  int
	TotalStages int
	Threshold   float64
}

// UnitInfo contiene información de una unidad del plan
type UnitInfo struct {
	Number     int
	TotalUnits int
	Name       string
	Stages     []string
	Concurrent bool
}

// RunStats contiene estadísticas finales de la ejecución
type RunStats struct {
	RunID            string
	Status           string
	TotalDuration    time.Duration
	StagesSucceeded  int
	StagesFailed     int
	TerminatedReason string
	FailedStage      string
	StageDurations   map[string]time.Duration
}

// StageProgress representa el progreso de un stage específico
type StageProgress struct {
	Name      string
	Status    Status
	Detail    string
	Duration  time.Duration
	StartTime time.Time
}

// UnitProgress representa el progreso de una unidad completa
type UnitProgress struct {
	Number    int
	Name      string
	Status    Status
	Stages    map[string]*StageProgress
	StartTime time.Time
	Duration  time.Duration
}
