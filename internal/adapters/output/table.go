// internal/adapters/output/table.go
package output

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"paperflow/internal/core/domain"
	"paperflow/internal/core/ports"
)

// OutputTable imprime una tabla legible de los stages de una ejecución.
func OutputTable(out io.Writer, result domain.RunResult) error {
	w := tabwriter.NewWriter(out, 2, 4, 2, ' ', 0)

	fmt.Fprintf(w, "\n=== PaperFlow Run ===\n")
	fmt.Fprintf(w, "Run:\t%s\n", result.RunID)
	fmt.Fprintf(w, "Paper:\t%s\n", result.Input.PaperID)
	fmt.Fprintf(w, "Status:\t%s\n", result.Status)
	fmt.Fprintf(w, "Duration:\t%s\n", result.Duration.Round(time.Millisecond))
	if result.TerminatedReason != "" {
		fmt.Fprintf(w, "Reason:\t%s\n", result.TerminatedReason)
	}
	if result.FailedStage != "" {
		fmt.Fprintf(w, "Failed stage:\t%s\n", result.FailedStage)
	}
	fmt.Fprintln(w)

	stages := orderedStages(result)
	if len(stages) > 0 {
		fmt.Fprintln(w, "STAGE\tRESULT\tDURATION\tCONFIDENCE\tERROR")
		fmt.Fprintln(w, "-----\t------\t--------\t----------\t-----")

		for _, r := range stages {
			status := "ok"
			if !r.Success {
				status = "failed"
			}
			confidence := "-"
			if c, ok := r.Confidence(); ok {
				confidence = fmt.Sprintf("%.2f", c)
			}
			errMsg := "-"
			if r.Error != nil {
				errMsg = truncate(r.Error.Error(), 60)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				r.StageName,
				status,
				r.Duration.Round(time.Millisecond),
				confidence,
				errMsg,
			)
		}
	} else {
		fmt.Fprintln(w, "No stages executed.")
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to flush table: %w", err)
	}

	fmt.Fprintln(out)
	return nil
}

// OutputEventsTable imprime los eventos de una ejecución en orden.
func OutputEventsTable(out io.Writer, events []domain.StageEvent) error {
	w := tabwriter.NewWriter(out, 2, 4, 2, ' ', 0)

	if len(events) == 0 {
		fmt.Fprintln(w, "No events recorded.")
		return w.Flush()
	}

	fmt.Fprintln(w, "TIMESTAMP\tSTAGE\tEVENT\tDURATION\tERROR")
	for _, e := range events {
		dur := "-"
		if e.Type != domain.EventStarted {
			dur = e.Duration.Round(time.Millisecond).String()
		}
		errMsg := "-"
		if e.Error != "" {
			errMsg = truncate(e.Error, 60)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			e.Timestamp.Format(time.RFC3339Nano),
			e.StageName,
			e.Type,
			dur,
			errMsg,
		)
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to flush table: %w", err)
	}
	return nil
}

// OutputRunsTable imprime el resumen de ejecuciones registradas.
func OutputRunsTable(out io.Writer, runs []ports.RunSummary) error {
	w := tabwriter.NewWriter(out, 2, 4, 2, ' ', 0)

	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return w.Flush()
	}

	fmt.Fprintln(w, "RUN\tFIRST SEEN\tLAST SEEN\tEVENTS\tFAILURES")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\n",
			r.RunID,
			r.FirstSeen.Format(time.RFC3339),
			r.LastSeen.Format(time.RFC3339),
			r.Events,
			r.Failures,
		)
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to flush table: %w", err)
	}
	return nil
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
