package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newPresetsCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "List the canvas size presets",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			cfg := o.config()
			w := cmd.OutOrStdout()

			fmt.Fprintf(w, "%s %s\n", emphasisText("Default canvas:"), infoText(fmt.Sprintf("%dx%d %s", cfg.Canvas.Width, cfg.Canvas.Height, cfg.Canvas.Background)))

			category := "-"
			for _, p := range cfg.Presets {
				if p.Category != category {
					category = p.Category
					title := category
					if title == "" {
						title = "Other"
					}
					fmt.Fprintln(w)
					fmt.Fprintln(w, emphasisText(title))
				}
				fmt.Fprintf(w, "  %-24s %s\n", p.Name, infoText(fmt.Sprintf("%dx%d", p.Width, p.Height)))
			}
		},
	}
}
