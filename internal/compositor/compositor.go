// Package compositor renders a layer stack onto a retained pixel surface.
// The surface holds document pixels only; the transparency checkerboard is
// a separate image drawn beneath it by the front end and never ends up in
// exported output.
package compositor

import (
	"image"
	"image/color"
	"math"
	"sync"

	"pixed/internal/document"
	"pixed/internal/log"
	"pixed/internal/raster"

	xdraw "golang.org/x/image/draw"
)

// Compositor owns the retained surface. A render at a revision that was
// already drawn, or at an older one, is skipped.
type Compositor struct {
	mu       sync.Mutex
	surface  *image.NRGBA
	revision uint64
	drawn    bool
	renders  int
	log      *log.Logger
}

// New returns an empty Compositor.
func New() *Compositor {
	return &Compositor{log: log.Default().With(log.F("component", "compositor"))}
}

// Render brings the surface up to date with snap and returns it with
// whether a redraw happened. The returned image is reused by the next
// redraw; copy it if it must outlive that. Before a document exists the
// surface is nil.
func (c *Compositor) Render(snap document.Snapshot) (*image.NRGBA, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Listeners run on whichever goroutine mutated the document, so
	// snapshots can arrive out of order.
	if c.drawn && snap.Revision <= c.revision || c.renders > 0 && snap.Revision < c.revision {
		return c.surface, false
	}
	if !snap.HasDocument() {
		c.surface = nil
	} else {
		c.surface = paint(c.surface, &snap.State)
	}
	c.revision, c.drawn = snap.Revision, true
	c.renders++
	c.log.With(log.F("revision", snap.Revision), log.F("layers", len(snap.Layers))).Debug("surface redrawn")
	return c.surface, true
}

// Invalidate forces the next Render at the current or a newer revision to
// redraw.
func (c *Compositor) Invalidate() {
	c.mu.Lock()
	c.drawn = false
	c.mu.Unlock()
}

// Surface returns the last rendered surface.
func (c *Compositor) Surface() *image.NRGBA {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.surface
}

// Renders counts completed redraws.
func (c *Compositor) Renders() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.renders
}

// Attach redraws whenever doc's content changes and passes each new
// surface to onFrame. The returned function detaches.
func (c *Compositor) Attach(doc *document.Document, onFrame func(*image.NRGBA)) func() {
	redraw := func() {
		if surface, redrawn := c.Render(doc.Snapshot()); redrawn && onFrame != nil {
			onFrame(surface)
		}
	}
	redraw()
	return doc.Subscribe(func(ch document.Change) {
		if ch.Kind == document.ContentChanged {
			redraw()
		}
	})
}

// Composite renders st onto a fresh surface.
func Composite(st *document.State) *image.NRGBA {
	if st.Options == nil {
		return nil
	}
	return paint(nil, st)
}

func paint(surface *image.NRGBA, st *document.State) *image.NRGBA {
	bounds := image.Rect(0, 0, st.Options.Width, st.Options.Height)
	if surface == nil || surface.Bounds() != bounds {
		surface = image.NewNRGBA(bounds)
	} else {
		clear(surface.Pix)
	}

	for i := range st.Layers {
		l := &st.Layers[i]
		if !l.Visible || l.Raster == nil || l.Raster.State() != raster.Ready {
			continue
		}
		paintLayer(surface, l)
	}
	return surface
}

func paintLayer(surface *image.NRGBA, l *document.Layer) {
	src := l.Raster.Image()
	if src == nil {
		return
	}
	w, h := int(math.Round(l.Width)), int(math.Round(l.Height))
	if w <= 0 || h <= 0 {
		return
	}
	if src.Bounds().Dx() != w || src.Bounds().Dy() != h {
		src = scale(src, w, h)
	}

	x0, y0 := int(math.Round(l.X)), int(math.Round(l.Y))
	target := image.Rect(x0, y0, x0+w, y0+h).Intersect(surface.Bounds())
	if target.Empty() {
		return
	}
	opacity := l.Opacity
	for y := target.Min.Y; y < target.Max.Y; y++ {
		for x := target.Min.X; x < target.Max.X; x++ {
			s := src.NRGBAAt(x-x0, y-y0)
			if s.A == 0 {
				continue
			}
			surface.SetNRGBA(x, y, Over(l.Blend, surface.NRGBAAt(x, y), s, opacity))
		}
	}
}

func scale(src *image.NRGBA, w, h int) *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	return dst
}

// View returns surface scaled by zoom for display. Zooming in uses nearest
// neighbour so pixels stay crisp.
func View(surface image.Image, zoom float64) *image.NRGBA {
	b := surface.Bounds()
	w := max(1, int(math.Round(float64(b.Dx())*zoom)))
	h := max(1, int(math.Round(float64(b.Dy())*zoom)))
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	var s xdraw.Scaler = xdraw.ApproxBiLinear
	if zoom >= 1 {
		s = xdraw.NearestNeighbor
	}
	s.Scale(dst, dst.Bounds(), surface, b, xdraw.Src, nil)
	return dst
}

// Checkerboard draws the transparency pattern shown under a transparent
// canvas.
func Checkerboard(width, height, tile int, light, dark color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	if tile <= 0 {
		tile = 8
	}
	lc := color.NRGBAModel.Convert(light).(color.NRGBA)
	dc := color.NRGBAModel.Convert(dark).(color.NRGBA)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if (x/tile+y/tile)%2 == 0 {
				img.SetNRGBA(x, y, lc)
			} else {
				img.SetNRGBA(x, y, dc)
			}
		}
	}
	return img
}
