// cmd/paperflow/cmd_run.go
package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"paperflow/internal/adapters/output"
	"paperflow/internal/core/domain"
	"paperflow/internal/core/ports"
	"paperflow/internal/core/usecases"
	"paperflow/internal/platform/errors"
	"paperflow/internal/workers"
)

// errRunFailed indica que el pipeline terminó en FAILED; el detalle ya se
// mostró en la tabla y en los archivos exportados.
var errRunFailed = errors.New("pipeline run failed")

type runFlags struct {
	market   string
	website  string
	goal     string
	idea     string
	formats  []string
	noStages bool
	noTable  bool
}

// register añade los flags comunes a run y roast.
func (f *runFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVarP(&f.market, "market", "m", "", "Consulta de mercado (vacío = consulta por defecto)")
	fl.StringVarP(&f.website, "website", "w", "", "Web de producto a analizar")
	fl.StringSliceVarP(&f.formats, "format", "f", []string{"json", "markdown"}, "Formatos de exportación (json, markdown)")
	fl.BoolVar(&f.noStages, "no-stages", false, "No incluir resultados por stage en los archivos exportados")
	fl.BoolVar(&f.noTable, "no-table", false, "No imprimir la tabla de stages")
}

// input construye el RunInput de la ejecución.
func (f runFlags) input(paperID string) domain.RunInput {
	in := domain.RunInput{
		PaperID:     paperID,
		MarketQuery: f.market,
		WebsiteURL:  f.website,
		Metadata:    map[string]string{"version": version},
	}
	if f.goal != "" {
		in.Metadata[workers.MetadataGoal] = f.goal
	}
	if f.idea != "" {
		in.Metadata[workers.MetadataIdea] = f.idea
	}
	return in
}

func newRunCmd(c *cli) *cobra.Command {
	var f runFlags

	cmd := &cobra.Command{
		Use:   "run <arxiv-id>",
		Short: "Run the paper to SaaS pipeline for an arXiv paper",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, workers.Paper2SaaSPlan(), args[0], f)
		},
	}

	f.register(cmd)
	cmd.Flags().StringVar(&f.goal, "goal", "", "Objetivo de negocio que se añade al brief")
	return cmd
}

func newRoastCmd(c *cli) *cobra.Command {
	var f runFlags

	cmd := &cobra.Command{
		Use:   "roast <arxiv-id> --idea <text>",
		Short: "Stress-test a product idea built on an arXiv paper",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(f.idea) == "" {
				return errors.Validation("roast.idea", "--idea is required")
			}
			return c.run(cmd, workers.RoastPlan(), args[0], f)
		},
	}

	f.register(cmd)
	cmd.Flags().StringVarP(&f.idea, "idea", "i", "", "Idea de producto a criticar")
	return cmd
}

func (c *cli) run(cmd *cobra.Command, plan usecases.Plan, paperID string, f runFlags) error {
	exporters, err := selectExporters(f.formats)
	if err != nil {
		return err
	}

	a, err := newApp(c.cfg, c.stdout)
	if err != nil {
		return err
	}
	defer a.Close()

	orch := a.orchestrator(plan)
	if err := orch.Validate(); err != nil {
		return err
	}
	input := f.input(paperID)

	ctx, cancel := rootContextWithSignals(cmd.Context(), c.cfg.Timeout())
	defer cancel()

	a.logger.Info("paperflow starting", "version", version, "paper", paperID)
	result := orch.Run(ctx, input)

	opts := ports.ExportOptions{
		OutputDir:     c.cfg.OutputDir,
		Pretty:        true,
		IncludeStages: !f.noStages,
	}
	for _, exp := range exporters {
		path, err := exp.Export(result, opts)
		if err != nil {
			return fmt.Errorf("%s export: %w", exp.Name(), err)
		}
		fmt.Fprintf(c.stderr, "%s written to %s\n", exp.Name(), path)
	}

	if !f.noTable && len(result.StageResults) > 0 {
		if err := output.OutputTable(c.stdout, result); err != nil {
			return err
		}
	}

	a.logger.Info("paperflow finished",
		"run_id", result.RunID,
		"status", string(result.Status),
		"duration_ms", result.Duration.Milliseconds(),
	)

	switch result.Status {
	case domain.StatusFailed:
		if result.Error != nil {
			return fmt.Errorf("%w: %s", errRunFailed, result.Error.Error())
		}
		return errRunFailed
	case domain.StatusTerminatedEarly:
		fmt.Fprintf(c.stderr, "Terminated early: %s\n", result.TerminatedReason)
	}
	return nil
}

// selectExporters resuelve los nombres de formato en exporters.
func selectExporters(formats []string) ([]ports.Exporter, error) {
	available := map[string]ports.Exporter{
		"json":     output.NewJSONExporter(),
		"markdown": output.NewMarkdownExporter(),
		"md":       output.NewMarkdownExporter(),
	}

	seen := make(map[string]bool)
	var out []ports.Exporter
	for _, f := range formats {
		name := strings.ToLower(strings.TrimSpace(f))
		exp, ok := available[name]
		if !ok {
			return nil, errors.Validation("run.format", fmt.Sprintf("unknown format %q (use json or markdown)", f))
		}
		if seen[exp.Name()] {
			continue
		}
		seen[exp.Name()] = true
		out = append(out, exp)
	}
	return out, nil
}
