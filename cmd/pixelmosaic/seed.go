package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ryanbastic/pixel-mosaic/internal/canvas"
	"github.com/ryanbastic/pixel-mosaic/internal/config"
)

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create any missing pixels of the grid and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer a.Close()

			created, err := a.canvas.SeedGrid(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %d pixels\n", created)
			return nil
		},
	}
}

const cliActor = "cli"

func newStampCmd() *cobra.Command {
	var patternPath string
	cmd := &cobra.Command{
		Use:   "stamp",
		Short: "Write a pattern file onto the canvas, clearing ownership of the pixels it covers",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer a.Close()

			pattern, err := config.LoadPattern(patternPath, a.cfg.GridSize)
			if err != nil {
				return err
			}
			n, err := a.canvas.Place(cmd.Context(), cliActor, placements(pattern))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "stamped %q: %d pixels\n", pattern.Name, n)
			return nil
		},
	}
	cmd.Flags().StringVarP(&patternPath, "pattern", "p", "", "path to a JSON pattern file")
	_ = cmd.MarkFlagRequired("pattern")
	return cmd
}

func placements(p *config.Pattern) []canvas.Placement {
	out := make([]canvas.Placement, len(p.Pixels))
	for i, px := range p.Pixels {
		out[i] = canvas.Placement{Row: px.Row, Col: px.Col, Color: px.Color}
	}
	return out
}
