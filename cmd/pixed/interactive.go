package main

import (
	"fmt"

	"pixed/internal/gui"
	"pixed/internal/tui"

	"github.com/spf13/cobra"
)

func newGUICmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "gui",
		Short: "Launch the graphical editor",
		Long:  `Open the editor window. The config file is watched and reloaded while the window is open.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !gui.IsGUIAvailable() {
				return fmt.Errorf("this build has no GUI support")
			}
			ed, err := o.newEditor(cmd.Context())
			if err != nil {
				return err
			}
			return gui.StartGUI(ed, o.cfgFile)
		},
	}
}

func newTUICmd(o *rootOptions) *cobra.Command {
	var open string

	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Inspect and edit the layer stack in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			ed, err := o.newEditor(cmd.Context())
			if err != nil {
				return err
			}
			defer ed.Close()

			if open != "" {
				if _, err := ed.OpenDocument(cmd.Context(), open); err != nil {
					return err
				}
			}
			return tui.Run(ed)
		},
	}

	cmd.Flags().StringVar(&open, "open", "", "start from this image")
	return cmd
}
