// internal/platform/ui/pterm_presenter.go
package ui

import (
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/pterm/pterm"
)

// PTermPresenter implementa Presenter usando la biblioteca pterm
// para renderizar secciones, spinners, colores y tablas en la terminal.
type PTermPresenter struct {
	mu sync.Mutex

	out         io.Writer
	interactive bool

	// Tracking de progreso
	units        map[int]*UnitProgress
	currentUnit  int
	totalUnits   int
	runStartTime time.Time

	// Spinners activos por stage
	spinners map[string]*pterm.SpinnerPrinter

	// Configuración
	runInfo RunInfo
}

// NewInteractivePTermPresenter crea un presenter con spinners por stage.
// Pensado para una terminal.
func NewInteractivePTermPresenter(w io.Writer) *PTermPresenter {
	p := NewPTermPresenterWithWriter(w)
	p.interactive = true
	return p
}

// NewPTermPresenterWithWriter crea un presenter sin spinners que escribe en w
func NewPTermPresenterWithWriter(w io.Writer) *PTermPresenter {
	return &PTermPresenter{
		out:      w,
		units:    make(map[int]*UnitProgress),
		spinners: make(map[string]*pterm.SpinnerPrinter),
	}
}

// Start inicia la presentación mostrando el header de la ejecución
func (p *PTermPresenter) Start(info RunInfo) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.runInfo = info
	p.totalUnits = info.TotalUnits
	p.runStartTime = time.Now()

	pterm.Fprintln(p.out, pterm.DefaultHeader.
		WithBackgroundStyle(pterm.NewStyle(pterm.BgBlue)).
		WithTextStyle(pterm.NewStyle(pterm.FgLightWhite)).
		Sprint("paperflow - Paper to SaaS Pipeline"))
	pterm.Fprintln(p.out)

	pterm.Fprintln(p.out, pterm.DefaultSection.Sprint("Run Configuration"))

	infoPanel := pterm.DefaultBox.
		WithTitle("Input").
		WithTitleTopCenter().
		WithRightPadding(4).
		WithLeftPadding(4).
		WithBoxStyle(pterm.NewStyle(pterm.FgBlue))

	content := fmt.Sprintf("%s Paper: %s\n", IconPaper, pterm.Cyan(info.PaperID))
	content += fmt.Sprintf("%s Market: %s\n", IconMarket, pterm.Yellow(orDash(info.MarketQuery)))
	content += fmt.Sprintf("   Website: %s\n", orDash(info.WebsiteURL))
	content += fmt.Sprintf("%s Run ID: %s\n", IconRun, info.RunID)
	content += fmt.Sprintf("%s Units: %d (%d stages)\n", IconStage, info.TotalUnits, info.TotalStages)
	content += fmt.Sprintf("%s Confidence threshold: %.2f", IconGate, info.Threshold)

	pterm.Fprintln(p.out, infoPanel.Sprint(content))
	pterm.Fprintln(p.out)
	pterm.Fprintln(p.out, pterm.LightBlue(SeparatorHeavy))
	pterm.Fprintln(p.out)
}

// StartUnit notifica el inicio de una unidad del plan
func (p *PTermPresenter) StartUnit(unit UnitInfo) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.currentUnit = unit.Number

	progress := &UnitProgress{
		Number:    unit.Number,
		Name:      unit.Name,
		Status:    StatusRunning,
		Stages:    make(map[string]*StageProgress),
		StartTime: time.Now(),
	}
	for _, name := range unit.Stages {
		progress.Stages[name] = &StageProgress{Name: name, Status: StatusPending}
	}
	p.units[unit.Number] = progress

	icon := IconStage
	if unit.Concurrent {
		icon = IconGroup
	}
	title := fmt.Sprintf("%s Unit %d/%d: %s", icon, unit.Number, unit.TotalUnits, pterm.Cyan(unit.Name))
	pterm.Fprintln(p.out, pterm.DefaultSection.WithLevel(2).Sprint(title))

	if unit.Concurrent {
		for _, name := range unit.Stages {
			p.renderStageLine(name, StatusPending, 0, "")
		}
		pterm.Fprintln(p.out)
	}
}

// StartStage notifica el inicio de ejecución de un stage
func (p *PTermPresenter) StartStage(unitNum int, stageName string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	unit, exists := p.units[unitNum]
	if !exists {
		return
	}

	stage, exists := unit.Stages[stageName]
	if !exists {
		stage = &StageProgress{Name: stageName}
		unit.Stages[stageName] = stage
	}
	stage.Status = StatusRunning
	stage.StartTime = time.Now()

	if !p.interactive {
		return
	}

	spinner, _ := pterm.DefaultSpinner.
		WithStyle(pterm.NewStyle(pterm.FgCyan)).
		WithSequence("⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷").
		WithRemoveWhenDone(true).
		WithWriter(p.out).
		Start(fmt.Sprintf("  %s Running %s...", StatusRunning.Symbol(), pterm.Cyan(stageName)))
	p.spinners[stageName] = spinner
}

// FinishStage notifica la finalización de un stage
func (p *PTermPresenter) FinishStage(stageName string, status Status, duration time.Duration, detail string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, unit := range p.units {
		if stage, exists := unit.Stages[stageName]; exists {
			stage.Status = status
			stage.Duration = duration
			stage.Detail = detail
			break
		}
	}

	if spinner, exists := p.spinners[stageName]; exists {
		_ = spinner.Stop()
		delete(p.spinners, stageName)
	}

	p.renderStageLine(stageName, status, duration, detail)
}

// FinishUnit notifica la finalización de una unidad
func (p *PTermPresenter) FinishUnit(unitNum int, duration time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	unit, exists := p.units[unitNum]
	if !exists {
		return
	}

	unit.Status = StatusSuccess
	unit.Duration = duration
	for _, stage := range unit.Stages {
		if stage.Status == StatusError || stage.Status == StatusDegraded {
			unit.Status = StatusDegraded
			break
		}
	}

	pterm.Fprintln(p.out, pterm.Info.Sprintf("Unit %d completed in %s", unitNum, formatDuration(duration)))
	pterm.Fprintln(p.out, pterm.Gray(SeparatorLight))
	pterm.Fprintln(p.out)
}

// Info muestra un mensaje informativo
func (p *PTermPresenter) Info(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	pterm.Fprintln(p.out, pterm.Info.Sprint(msg))
}

// Warning muestra una advertencia
func (p *PTermPresenter) Warning(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	pterm.Fprintln(p.out, pterm.Warning.Sprint(msg))
}

// Error muestra un error
func (p *PTermPresenter) Error(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	pterm.Fprintln(p.out, pterm.Error.Sprint(msg))
}

// Finish finaliza la presentación con estadísticas finales
func (p *PTermPresenter) Finish(stats RunStats) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopSpinners()

	pterm.Fprintln(p.out)
	pterm.Fprintln(p.out, pterm.LightBlue(SeparatorHeavy))
	pterm.Fprintln(p.out)

	bg := pterm.BgGreen
	switch stats.Status {
	case "TERMINATED_EARLY":
		bg = pterm.BgYellow
	case "FAILED":
		bg = pterm.BgRed
	}
	pterm.Fprintln(p.out, pterm.DefaultHeader.
		WithBackgroundStyle(pterm.NewStyle(bg)).
		WithTextStyle(pterm.NewStyle(pterm.FgBlack)).
		Sprint("Run "+stats.Status))
	pterm.Fprintln(p.out)

	statsPanel := pterm.DefaultBox.
		WithTitle("Run Statistics").
		WithTitleTopCenter().
		WithRightPadding(4).
		WithLeftPadding(4).
		WithBoxStyle(pterm.NewStyle(pterm.FgGreen))

	content := fmt.Sprintf("%s Total Duration: %s\n", IconTime, pterm.Green(formatDuration(stats.TotalDuration)))
	content += fmt.Sprintf("%s Status: %s\n", IconStats, StyleForRunStatus(stats.Status).Sprint(stats.Status))
	content += fmt.Sprintf("%s Stages Succeeded: %s", IconSuccess, pterm.Green(fmt.Sprintf("%d", stats.StagesSucceeded)))
	if stats.StagesFailed > 0 {
		content += fmt.Sprintf("\n%s Stages Failed: %s", IconError, pterm.Red(fmt.Sprintf("%d", stats.StagesFailed)))
	}
	if stats.FailedStage != "" {
		content += fmt.Sprintf("\n   Failed at: %s", pterm.Red(stats.FailedStage))
	}
	if stats.TerminatedReason != "" {
		content += fmt.Sprintf("\n%s Stopped: %s", IconGate, pterm.Yellow(stats.TerminatedReason))
	}
	pterm.Fprintln(p.out, statsPanel.Sprint(content))

	if len(stats.StageDurations) > 0 {
		pterm.Fprintln(p.out)
		pterm.Fprintln(p.out, pterm.DefaultSection.WithLevel(2).Sprint("Stage Durations"))

		names := make([]string, 0, len(stats.StageDurations))
		for name := range stats.StageDurations {
			names = append(names, name)
		}
		sort.Strings(names)

		tableData := pterm.TableData{{"Stage", "Duration"}}
		for _, name := range names {
			tableData = append(tableData, []string{name, formatDuration(stats.StageDurations[name])})
		}

		table, err := pterm.DefaultTable.WithHasHeader().WithBoxed().WithData(tableData).Srender()
		if err == nil {
			pterm.Fprintln(p.out, table)
		}
	}

	pterm.Fprintln(p.out)
}

// Close limpia recursos del presenter
func (p *PTermPresenter) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopSpinners()
	return nil
}

func (p *PTermPresenter) stopSpinners() {
	for _, spinner := range p.spinners {
		_ = spinner.Stop()
	}
	p.spinners = make(map[string]*pterm.SpinnerPrinter)
}

// renderStageLine renderiza una línea con el estado de un stage
func (p *PTermPresenter) renderStageLine(stageName string, status Status, duration time.Duration, detail string) {
	line := fmt.Sprintf("  %s %s", status.Symbol(), stageName)

	switch status {
	case StatusRunning:
		line += " (running...)"
	case StatusPending:
		line += " (pending...)"
	default:
		if duration > 0 {
			line += fmt.Sprintf(" (%s)", formatDuration(duration))
		}
		if detail != "" {
			line += " " + detail
		}
	}

	pterm.Fprintln(p.out, status.Style().Sprint(line))
}
