// cmd/paperflow/main.go
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"paperflow/internal/platform/config"
	"paperflow/internal/platform/errors"
)

var (
	// Rellenables con -ldflags en build
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	root := newRootCmd(os.Stdout, os.Stderr)
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

// exitCode: 2 para errores de uso o configuración, 1 para el resto.
func exitCode(err error) int {
	switch errors.KindOf(err) {
	case errors.KindValidation, errors.KindModelConfiguration:
		return 2
	default:
		return 1
	}
}

// cli guarda el estado compartido por los subcomandos.
type cli struct {
	configPath string
	cfg        config.Config
	stdout     io.Writer
	stderr     io.Writer
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	c := &cli{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:           "paperflow",
		Short:         "Turn an arXiv paper into validated SaaS ideas",
		Long:          config.HelpText,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(c.configPath, cmd.Flags())
			if err != nil {
				return err
			}
			c.cfg = cfg
			return nil
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVarP(&c.configPath, "config", "c", "", "Archivo de configuración YAML")
	config.RegisterFlags(pf)

	root.AddCommand(
		newRunCmd(c),
		newRoastCmd(c),
		newEventsCmd(c),
		newStagesCmd(c),
		newConfigCmd(c),
		newVersionCmd(c),
	)
	return root
}
