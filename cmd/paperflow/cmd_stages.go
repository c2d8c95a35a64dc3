// cmd/paperflow/cmd_stages.go
package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"paperflow/internal/workers"
)

func newStagesCmd(c *cli) *cobra.Command {
	var planName string

	cmd := &cobra.Command{
		Use:   "stages",
		Short: "Show a pipeline plan and its dependency levels",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			plan, err := workers.PlanByName(planName)
			if err != nil {
				return err
			}
			if err := plan.Validate(); err != nil {
				return err
			}

			fmt.Fprintln(c.stdout, plan.String())

			levels, err := plan.DependencyLevels()
			if err != nil {
				return err
			}
			fmt.Fprintln(c.stdout, "\nDependency levels:")
			for i, level := range levels {
				fmt.Fprintf(c.stdout, "  %d: %s\n", i, strings.Join(level, ", "))
			}
			fmt.Fprintf(c.stdout, "\nConfidence gate: %s (threshold %.2f)\n",
				strings.Join(plan.ConfidenceSources(), ", "), c.cfg.ConfidenceThreshold)
			fmt.Fprintf(c.stdout, "Final output: %s\n", plan.TerminalStage())
			return nil
		},
	}
	cmd.Flags().StringVarP(&planName, "plan", "p", workers.PlanPaper2SaaS,
		"Plan a mostrar ("+strings.Join(workers.PlanNames(), ", ")+")")
	return cmd
}
