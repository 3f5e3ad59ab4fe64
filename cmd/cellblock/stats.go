package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func StatsCmd() *cobra.Command {
	var warm bool
	c := &cobra.Command{
		Use:   "stats <file>",
		Short: "print rooms, meshes and the door graph of a save or script",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := openWorld(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			printWorld(out, w)
			if err := w.Map.Validate(); err != nil {
				fmt.Fprintf(out, "invalid:  %v\n", err)
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ROOM\tOUTER\tPOLYS\tAREA\tDOORS")
			for _, r := range w.Map.RoomsDeduped() {
				polys, area := 0, float32(0)
				if mesh := w.Nav.Mesh(r.ID); mesh != nil {
					polys, area = len(mesh.Polys), mesh.Area()
				}
				fmt.Fprintf(tw, "%v\t%t\t%d\t%.2f\t%d\n", r.ID, r.Outer, polys, area, len(w.Nav.RoomLinks(r.ID)))
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			if !warm {
				return nil
			}
			doors := w.Nav.Doors()
			found := 0
			for _, a := range doors {
				for _, b := range doors {
					if a.Door != b.Door {
						if _, ok := w.Nav.DoorPath(a.Door, b.Door); ok {
							found++
						}
					}
				}
			}
			fmt.Fprintf(out, "door paths: %d found, %d cached\n", found, w.Nav.CachedPaths())
			return nil
		},
	}
	c.Flags().BoolVar(&warm, "warm", false, "query every door pair and report the cache")
	return c
}
