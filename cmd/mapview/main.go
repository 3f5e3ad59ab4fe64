// Command mapview opens a save or an edit script in an interactive window.
//
// Controls: right drag pans, the wheel zooms, left click sends every pawn to the
// cursor. W starts and ends a wall, C adds a corner, D toggles a door, X removes
// a wall and P adds a pawn. T, M, G and R toggle the triangulation, meshes, door
// graph and routes. Space pauses, F fits the view and F5 quicksaves.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"go.uber.org/zap"

	"github.com/Faultbox/cellblock/internal/config"
	"github.com/Faultbox/cellblock/internal/game"
	"github.com/Faultbox/cellblock/internal/logger"
	"github.com/Faultbox/cellblock/internal/scenario"
	"github.com/Faultbox/cellblock/internal/sim"
)

const windowTitle = "Cellblock Map Viewer"

func main() {
	// Parse CLI flags
	config.ParseFlags()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var w *sim.World
	title := windowTitle
	if path := flag.Arg(0); path != "" {
		w, err = scenario.Open(ctx, path, cfg)
		title = windowTitle + " - " + path
	} else {
		w, err = scenario.NewWorld(ctx, cfg)
	}
	if err != nil {
		logger.Error("failed to open world", zap.Error(err))
		os.Exit(1)
	}

	g, err := game.New(cfg, w, title)
	if err != nil {
		logger.Error("failed to create viewer", zap.Error(err))
		os.Exit(1)
	}
	defer g.Close()

	if err := g.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error("viewer stopped", zap.Error(err))
		return
	}
	logger.Info("viewer closed normally")
}
