// cmd/paperflow/cmd_version.go
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"paperflow/internal/platform/config"
)

func newVersionCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			config.PrintVersion(c.stdout, version, commit, date)
			return nil
		},
	}
}

func newConfigCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration with API keys masked",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			data, err := c.cfg.ToJSON()
			if err != nil {
				return err
			}
			fmt.Fprintln(c.stdout, data)
			return nil
		},
	}
}
