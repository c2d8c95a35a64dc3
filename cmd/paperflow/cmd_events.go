// cmd/paperflow/cmd_events.go
package main

import (
	"time"

	"github.com/spf13/cobra"

	"paperflow/internal/adapters/eventsink"
	"paperflow/internal/adapters/output"
	"paperflow/internal/core/ports"
	"paperflow/internal/platform/errors"
)

func newEventsCmd(c *cli) *cobra.Command {
	var (
		limit int
		since time.Duration
	)

	cmd := &cobra.Command{
		Use:   "events [run-id]",
		Short: "List recorded runs or the stage events of one run",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.cfg.Storage.EventsDB == "" {
				return errors.Validation("events", "event log is not persisted (set storage.events_db or --events-db)")
			}

			sink, err := eventsink.OpenSQLite(c.cfg.Storage.EventsDB)
			if err != nil {
				return err
			}
			defer sink.Close()

			ctx := cmd.Context()
			if len(args) == 1 {
				events, err := sink.Events(ctx, args[0])
				if err != nil {
					return err
				}
				if len(events) == 0 {
					return errors.Wrapf(errors.ErrNotFound, "no events for run %s", args[0])
				}
				return output.OutputEventsTable(c.stdout, events)
			}

			filter := ports.RunFilter{Limit: limit}
			if since > 0 {
				filter.Since = time.Now().Add(-since)
			}
			runs, err := sink.Runs(ctx, filter)
			if err != nil {
				return err
			}
			return output.OutputRunsTable(c.stdout, runs)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Máximo de ejecuciones a listar (0 = todas)")
	cmd.Flags().DurationVar(&since, "since", 0, "Sólo ejecuciones más recientes que esta duración (ej: 24h)")
	return cmd
}
