package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/peercam/peercam/internal/config"
	"github.com/peercam/peercam/internal/diagnostics"
)

var diagnoseCmd = &cobra.Command{
	Use:   "diagnose",
	Short: "Run network diagnostics against the broker",
	Long: "diagnose lists local network interfaces, pings the broker host and probes\n" +
		"its TCP port. Exits non-zero when the broker looks unreachable.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}

		report, err := diagnostics.Run(cmd.Context(), cfg.Broker.URL)
		if err != nil {
			return err
		}
		report.Render(os.Stdout)

		if !report.Healthy() {
			return fmt.Errorf("network issues detected")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(diagnoseCmd)
}
