// internal/platform/ui/symbols.go
package ui

import "github.com/pterm/pterm"

// Status estado visual de un stage o de una unidad del plan.
type Status int

const (
	StatusPending Status = iota
	StatusRunning
	StatusSuccess
	// StatusDegraded stage DEGRADE_ON_FAILURE que falló; la ejecución sigue
	StatusDegraded
	StatusError
)

type statusLook struct {
	name   string
	symbol string
	color  pterm.Color
}

var statusLooks = map[Status]statusLook{
	StatusPending:  {"pending", "⏸", pterm.FgGray},
	StatusRunning:  {"running", "⣾", pterm.FgCyan},
	StatusSuccess:  {"success", "✓", pterm.FgGreen},
	StatusDegraded: {"degraded", "⚠", pterm.FgYellow},
	StatusError:    {"error", "✗", pterm.FgRed},
}

func (s Status) look() statusLook {
	if l, ok := statusLooks[s]; ok {
		return l
	}
	return statusLook{"unknown", "?", pterm.FgDefault}
}

// String nombre del estado.
func (s Status) String() string { return s.look().name }

// Symbol símbolo Unicode del estado.
func (s Status) Symbol() string { return s.look().symbol }

// Color color pterm del estado.
func (s Status) Color() pterm.Color { return s.look().color }

// Style estilo pterm con el color del estado.
func (s Status) Style() *pterm.Style {
	return pterm.NewStyle(s.Color())
}

// Iconos de la UI
var (
	IconPaper   = "📄"
	IconStage   = "🔄"
	IconGroup   = "⇉"
	IconInfo    = "ℹ"
	IconWarning = "⚠"
	IconError   = "✗"
	IconSuccess = "✓"
	IconStats   = "📊"
	IconTime    = "⏱"
	IconMarket  = "📈"
	IconGate    = "⛔"
	IconRun     = "⚙️"
)

var (
	SeparatorHeavy = "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"
	SeparatorLight = "────────────────────────────────────────────"
)

// StatusFromResult traduce el resultado de un stage. degraded indica que
// el stage tolera el fallo.
func StatusFromResult(success, degraded bool) Status {
	switch {
	case success:
		return StatusSuccess
	case degraded:
		return StatusDegraded
	default:
		return StatusError
	}
}
