package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Faultbox/cellblock/internal/save"
	"github.com/Faultbox/cellblock/internal/sim"
)

func ReplayCmd() *cobra.Command {
	var output string
	var ticks int
	c := &cobra.Command{
		Use:   "replay <script.yaml>",
		Short: "run an edit script and optionally save the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := openWorld(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			for i := 0; i < ticks; i++ {
				if _, err := w.Tick(cmd.Context(), 1/float32(max(cfg.Simulation.TickRate, 1)), nil); err != nil {
					return err
				}
			}
			printWorld(cmd.OutOrStdout(), w)
			if output == "" {
				return nil
			}
			if err := save.WriteFile(output, save.Capture(w), save.Format(cfg.Save.Format)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "saved %s\n", output)
			return nil
		},
	}
	c.Flags().StringVarP(&output, "output", "o", "", "write the resulting world to this save file")
	c.Flags().IntVar(&ticks, "ticks", 0, "extra ticks to run after the script")
	return c
}

func printWorld(out io.Writer, w *sim.World) {
	m := w.Map
	fmt.Fprintf(out, "corners: %d\n", len(m.Corners()))
	fmt.Fprintf(out, "walls:   %d\n", len(m.Walls()))
	fmt.Fprintf(out, "doors:   %d\n", len(m.Doors()))
	fmt.Fprintf(out, "rooms:   %d\n", len(m.RoomsDeduped()))
	for _, p := range w.Pawns() {
		state := "idle"
		switch {
		case p.Unreachable():
			state = "unreachable"
		case p.HasGoal:
			state = "walking"
		}
		fmt.Fprintf(out, "pawn %v at (%.2f, %.2f) %s\n", p.ID, p.Position.X, p.Position.Y, state)
	}
}
