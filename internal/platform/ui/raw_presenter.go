// internal/platform/ui/raw_presenter.go
package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"
)

// LogFormat define el formato de salida para el modo raw
type LogFormat string

const (
	LogFormatText LogFormat = "text" // Formato logfmt (default)
	LogFormatJSON LogFormat = "json" // Formato JSON estructurado
)

// RawPresenter implementa el Presenter para modo raw (una línea por evento)
type RawPresenter struct {
	format    LogFormat
	out       io.Writer
	mu        sync.Mutex
	startTime time.Time
}

// NewRawPresenterWithWriter crea un RawPresenter que escribe en w
func NewRawPresenterWithWriter(format LogFormat, w io.Writer) *RawPresenter {
	return &RawPresenter{
		format:    format,
		out:       w,
		startTime: time.Now(),
	}
}

// log escribe un evento en el formato configurado
func (r *RawPresenter) log(level, message string, fields map[string]interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()

	timestamp := time.Now().UTC().Format(time.RFC3339)

	if r.format == LogFormatJSON {
		r.logJSON(timestamp, level, message, fields)
	} else {
		r.logText(timestamp, level, message, fields)
	}
}

// logText escribe en formato logfmt con claves ordenadas
func (r *RawPresenter) logText(timestamp, level, message string, fields map[string]interface{}) {
	parts := []string{timestamp, fmt.Sprintf("%-5s", level), message}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%s", k, r.formatValue(fields[k])))
	}

	fmt.Fprintln(r.out, strings.Join(parts, " "))
}

// logJSON escribe en formato JSON estructurado
func (r *RawPresenter) logJSON(timestamp, level, message string, fields map[string]interface{}) {
	entry := map[string]interface{}{
		"timestamp": timestamp,
		"level":     level,
		"message":   message,
	}
	if len(fields) > 0 {
		entry["data"] = fields
	}

	data, _ := json.Marshal(entry)
	fmt.Fprintln(r.out, string(data))
}

// formatValue formatea valores para logfmt (entrecomilla strings con espacios)
func (r *RawPresenter) formatValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		if strings.Contains(val, " ") {
			return fmt.Sprintf("%q", val)
		}
		return val
	case time.Duration:
		return val.String()
	case float64:
		return fmt.Sprintf("%.2f", val)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// Start inicia la presentación
func (r *RawPresenter) Start(info RunInfo) {
	r.startTime = time.Now()
	r.log("INFO", "run_started", map[string]interface{}{
		"run_id":    info.RunID,
		"paper":     info.PaperID,
		"market":    info.MarketQuery,
		"units":     info.TotalUnits,
		"stages":    info.TotalStages,
		"threshold": info.Threshold,
	})
}

// StartUnit notifica el inicio de una unidad
func (r *RawPresenter) StartUnit(unit UnitInfo) {
	r.log("INFO", "unit_started", map[string]interface{}{
		"unit":       unit.Number,
		"name":       unit.Name,
		"stages":     strings.Join(unit.Stages, ","),
		"concurrent": unit.Concurrent,
	})
}

// FinishUnit notifica la finalización de una unidad
func (r *RawPresenter) FinishUnit(unitNum int, duration time.Duration) {
	r.log("INFO", "unit_completed", map[string]interface{}{
		"unit":     unitNum,
		"duration": duration,
	})
}

// StartStage notifica el inicio de un stage
func (r *RawPresenter) StartStage(unitNum int, stageName string) {
	r.log("INFO", "stage_started", map[string]interface{}{
		"unit":  unitNum,
		"stage": stageName,
	})
}

// FinishStage notifica la finalización de un stage
func (r *RawPresenter) FinishStage(stageName string, status Status, duration time.Duration, detail string) {
	fields := map[string]interface{}{
		"stage":    stageName,
		"status":   status.String(),
		"duration": duration,
	}
	if detail != "" {
		fields["detail"] = detail
	}
	level := "INFO"
	if status == StatusError {
		level = "ERROR"
	} else if status == StatusDegraded {
		level = "WARN"
	}
	r.log(level, "stage_completed", fields)
}

// Info muestra un mensaje informativo
func (r *RawPresenter) Info(msg string) {
	r.log("INFO", msg, nil)
}

// Warning muestra una advertencia
func (r *RawPresenter) Warning(msg string) {
	r.log("WARN", msg, nil)
}

// Error muestra un error
func (r *RawPresenter) Error(msg string) {
	r.log("ERROR", msg, nil)
}

// Finish finaliza la presentación con estadísticas finales
func (r *RawPresenter) Finish(stats RunStats) {
	fields := map[string]interface{}{
		"run_id":        stats.RunID,
		"status":        stats.Status,
		"duration":      stats.TotalDuration,
		"stages_ok":     stats.StagesSucceeded,
		"stages_failed": stats.StagesFailed,
	}
	if stats.FailedStage != "" {
		fields["failed_stage"] = stats.FailedStage
	}
	if stats.TerminatedReason != "" {
		fields["reason"] = stats.TerminatedReason
	}
	r.log("INFO", "run_completed", fields)
}

// Close limpia recursos
func (r *RawPresenter) Close() error {
	return nil
}
