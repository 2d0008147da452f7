package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/peercam/peercam/internal/config"
	"github.com/peercam/peercam/internal/diagnostics"
)

var nettestTimeout time.Duration

var nettestCmd = &cobra.Command{
	Use:   "nettest",
	Short: "Round-trip a probe message through the broker",
	Long: "nettest connects to the broker, publishes a probe on a node-private topic\n" +
		"and waits for it to be delivered back. A pass means the pub/sub path works\n" +
		"end to end from this node.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}

		if err := diagnostics.RoundTrip(cmd.Context(), cfg.Broker.URL, cfg.RoomID, cfg.InstanceID, nettestTimeout); err != nil {
			return err
		}
		fmt.Println("broker round-trip OK")
		return nil
	},
}

func init() {
	nettestCmd.Flags().DurationVar(&nettestTimeout, "timeout", 5*time.Second, "probe timeout")
	rootCmd.AddCommand(nettestCmd)
}
