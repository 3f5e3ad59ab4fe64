// Command cellblock replays edit scripts, inspects saves and queries paths
// without opening a window.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/Faultbox/cellblock/internal/config"
	"github.com/Faultbox/cellblock/internal/logger"
	"github.com/Faultbox/cellblock/internal/scenario"
	"github.com/Faultbox/cellblock/internal/sim"
)

// cfg is loaded before any subcommand runs.
var cfg *config.Config

func RootCmd() *cobra.Command {
	c := &cobra.Command{
		Use:           "cellblock",
		Short:         "prison map tools",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load()
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			return logger.Init(cfg.Logging.Level, cfg.Logging.LogFile)
		},
	}
	c.PersistentFlags().AddGoFlagSet(flag.CommandLine)
	c.AddCommand(ReplayCmd(), PathCmd(), StatsCmd())
	return c
}

func openWorld(ctx context.Context, path string) (*sim.World, error) {
	return scenario.Open(ctx, path, cfg)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := RootCmd().ExecuteContext(ctx)
	stop()
	logger.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
