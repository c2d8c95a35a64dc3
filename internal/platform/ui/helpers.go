// internal/platform/ui/helpers.go
package ui

import (
	"fmt"
	"time"
)

// formatDuration: "850ms", "12.3s" o "2m05s".
func formatDuration(d time.Duration) string {
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		d = d.Round(time.Second)
		return fmt.Sprintf("%dm%02ds", int(d/time.Minute), int((d%time.Minute)/time.Second))
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
