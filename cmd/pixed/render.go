package main

import (
	"context"
	"fmt"

	"pixed/internal/document"
	"pixed/internal/editor"
	"pixed/internal/raster"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

type renderOptions struct {
	width      int
	height     int
	background string
	preset     string
	open       string
	place      []string
	out        string
}

func newRenderCmd(o *rootOptions) *cobra.Command {
	ro := &renderOptions{}

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Compose images into a canvas and export it as PNG",
		Long: `Create a canvas (from flags, a preset or an image), place images on it as
centred layers in the order given, and write the composite as PNG.`,
		Example: `  pixed render --preset "instagram post" --place photo.jpg --place logo.png --out post.png
  pixed render --width 800 --height 600 --background transparent --place a.png --out a.png`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ed, err := o.newEditor(cmd.Context(), editor.Offline())
			if err != nil {
				return err
			}
			defer ed.Close()

			if err := render(cmd.Context(), ed, ro, cmd.Flags().Changed); err != nil {
				return err
			}
			snap := ed.Doc.Snapshot()
			fmt.Fprintln(cmd.OutOrStdout(), successText(fmt.Sprintf("Wrote %s (%s, %d layers)", ro.out, canvasSummary(*snap.Options), len(snap.Layers))))
			return nil
		},
	}

	cmd.Flags().IntVar(&ro.width, "width", 0, "canvas width (default from config)")
	cmd.Flags().IntVar(&ro.height, "height", 0, "canvas height (default from config)")
	cmd.Flags().StringVar(&ro.background, "background", "", `canvas colour as hex, or "transparent"`)
	cmd.Flags().StringVar(&ro.preset, "preset", "", "canvas size preset (see 'pixed presets')")
	cmd.Flags().StringVar(&ro.open, "open", "", "start from this image instead of a blank canvas")
	cmd.Flags().StringArrayVar(&ro.place, "place", nil, "image to place as a layer (repeatable)")
	cmd.Flags().StringVarP(&ro.out, "out", "o", "", "output PNG file")
	cmd.MarkFlagRequired("out")
	cmd.MarkFlagsMutuallyExclusive("open", "preset")

	return cmd
}

// render builds the document described by ro and exports it. changed
// reports whether a flag was set explicitly.
func render(ctx context.Context, ed *editor.Editor, ro *renderOptions, changed func(string) bool) error {
	switch {
	case ro.open != "":
		if _, err := ed.OpenDocument(ctx, ro.open); err != nil {
			return err
		}
	case ro.preset != "":
		if _, err := ed.NewFromPreset(ro.preset); err != nil {
			return err
		}
	default:
		opts := ed.DefaultCanvas()
		if changed("width") {
			opts.Width = ro.width
		}
		if changed("height") {
			opts.Height = ro.height
		}
		if changed("background") {
			opts.Background = ro.background
		}
		if _, err := ed.NewDocument(opts, nil); err != nil {
			return err
		}
	}

	handles, err := decodeAll(ctx, ed, ro.place)
	if err != nil {
		return err
	}
	// Stacking follows the command line, whatever order decoding finished in.
	for i, h := range handles {
		ed.Layers.PlaceImage(h, editor.LayerName(ro.place[i]))
	}

	return ed.ExportFile(ro.out)
}

// decodeAll decodes paths concurrently. The first failure cancels the rest.
func decodeAll(ctx context.Context, ed *editor.Editor, paths []string) ([]*raster.Handle, error) {
	handles := make([]*raster.Handle, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	for i, path := range paths {
		g.Go(func() error {
			h, err := ed.Open(ctx, path)
			if err != nil {
				return err
			}
			select {
			case <-h.Done():
			case <-ctx.Done():
				return ctx.Err()
			}
			if h.State() != raster.Ready {
				return h.Err()
			}
			handles[i] = h
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		for _, h := range handles {
			if h != nil {
				h.Release()
			}
		}
		return nil, err
	}
	return handles, nil
}

// canvasSummary describes a document for command output.
func canvasSummary(opts document.CanvasOptions) string {
	return fmt.Sprintf("%dx%d %s", opts.Width, opts.Height, opts.Background)
}
