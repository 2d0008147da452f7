package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

const defaultConfigPath = "config/peercam.yaml"

var (
	configPath string
	debug      bool
)

var rootCmd = &cobra.Command{
	Use:   "peercamd",
	Short: "Peer-to-peer camera video-chat node",
	Long: "peercamd captures frames and person detections on an embedded camera node,\n" +
		"publishes them to a remote peer over MQTT, and displays whichever feed is live.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if debug {
			level = slog.LevelDebug
		}
		logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		}))
		slog.SetDefault(logger)
	},
	// Bare peercamd runs the node, matching how the units are launched in
	// the field.
	RunE: func(cmd *cobra.Command, args []string) error {
		return runNode()
	},
}

// Execute runs the CLI. Called once from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", defaultConfigPath, "path to configuration file")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}
