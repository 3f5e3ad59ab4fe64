package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Faultbox/cellblock/internal/planmap"
	"github.com/Faultbox/cellblock/pkg/math"
)

func PathCmd() *cobra.Command {
	var points bool
	c := &cobra.Command{
		Use:   "path <file> <x1> <y1> <x2> <y2>",
		Short: "find a path between two points",
		Args:  cobra.ExactArgs(5),
		RunE: func(cmd *cobra.Command, args []string) error {
			var coords [4]float32
			for i, a := range args[1:] {
				v, err := strconv.ParseFloat(a, 32)
				if err != nil {
					return fmt.Errorf("coordinate %q: %w", a, err)
				}
				coords[i] = float32(v)
			}
			from, to := math.V2(coords[0], coords[1]), math.V2(coords[2], coords[3])

			w, err := openWorld(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fromRoom, _, err := w.Map.ContainingRoom(from, planmap.NoHint)
			if err != nil {
				return fmt.Errorf("locating %v: %w", from, err)
			}
			toRoom, _, err := w.Map.ContainingRoom(to, planmap.NoHint)
			if err != nil {
				return fmt.Errorf("locating %v: %w", to, err)
			}

			out := cmd.OutOrStdout()
			p, ok := w.Nav.Path(from, fromRoom, to, toRoom)
			if !ok {
				fmt.Fprintf(out, "no path from %v to %v\n", fromRoom, toRoom)
				return nil
			}
			fmt.Fprintf(out, "rooms:  %v -> %v\n", fromRoom, toRoom)
			fmt.Fprintf(out, "doors:  %v\n", p.Doors())
			fmt.Fprintf(out, "length: %.3f\n", p.Length())
			if points {
				for _, q := range p.Points() {
					fmt.Fprintf(out, "  (%.3f, %.3f)\n", q.X, q.Y)
				}
			}
			return nil
		},
	}
	c.Flags().BoolVar(&points, "points", false, "print the waypoints")
	return c
}
