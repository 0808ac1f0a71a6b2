//go:build !nogui

package gui

import (
	"image"
	"image/color"
	"sync"

	"pixed/internal/compositor"
	"pixed/internal/document"
	"pixed/internal/editor"
	"pixed/internal/interaction"
	"pixed/pkg/types"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
)

var (
	activeBoxColor = color.NRGBA{R: 0, G: 150, B: 255, A: 255}
	selectionColor = color.NRGBA{R: 255, G: 165, B: 0, A: 255}
	selectionFill  = color.NRGBA{R: 255, G: 165, B: 0, A: 40}
)

// surfaceView shows the composited document at the current zoom with the
// checkerboard beneath it and the overlay chrome above. Pointer events in
// widget coordinates go straight to the interaction controller, whose
// surface origin is the widget's top-left corner.
type surfaceView struct {
	widget.BaseWidget

	ed *editor.Editor

	mu        sync.Mutex
	size      fyne.Size
	last      *image.NRGBA
	lastZoom  float64
	checker   *canvas.Image
	image     *canvas.Image
	activeBox *canvas.Rectangle
	selection *canvas.Rectangle
	content   *fyne.Container
}

var (
	_ desktop.Mouseable  = (*surfaceView)(nil)
	_ desktop.Hoverable  = (*surfaceView)(nil)
	_ desktop.Cursorable = (*surfaceView)(nil)
	_ fyne.Draggable     = (*surfaceView)(nil)
)

func newSurfaceView(ed *editor.Editor) *surfaceView {
	v := &surfaceView{ed: ed}

	v.checker = canvas.NewImageFromImage(image.NewNRGBA(image.Rect(0, 0, 1, 1)))
	v.checker.ScaleMode = canvas.ImageScalePixels
	v.checker.FillMode = canvas.ImageFillStretch
	v.checker.Hide()

	v.image = canvas.NewImageFromImage(image.NewNRGBA(image.Rect(0, 0, 1, 1)))
	v.image.ScaleMode = canvas.ImageScalePixels
	v.image.FillMode = canvas.ImageFillStretch

	v.activeBox = canvas.NewRectangle(color.Transparent)
	v.activeBox.StrokeColor = activeBoxColor
	v.activeBox.StrokeWidth = 1
	v.activeBox.Hide()

	v.selection = canvas.NewRectangle(selectionFill)
	v.selection.StrokeColor = selectionColor
	v.selection.StrokeWidth = 1
	v.selection.Hide()

	v.content = container.NewWithoutLayout(v.checker, v.image, v.activeBox, v.selection)
	v.ExtendBaseWidget(v)
	return v
}

func (v *surfaceView) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(v.content)
}

func (v *surfaceView) MinSize() fyne.Size {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.size
}

// invalidate forces the next update to rebuild the scaled images.
func (v *surfaceView) invalidate() {
	v.mu.Lock()
	v.last = nil
	v.mu.Unlock()
	v.ed.Compositor.Invalidate()
}

// update redraws from snap. The scaled view is rebuilt only when the
// surface was redrawn or the zoom changed; the overlay always follows.
func (v *surfaceView) update(snap document.Snapshot) {
	surface, redrawn := v.ed.Compositor.Render(snap)

	v.mu.Lock()
	if surface == nil {
		v.size = fyne.Size{}
		v.last = nil
		v.mu.Unlock()
		v.checker.Hide()
		v.image.Hide()
		v.activeBox.Hide()
		v.selection.Hide()
		v.Refresh()
		return
	}

	rebuild := redrawn || surface != v.last || snap.Zoom != v.lastZoom
	v.last, v.lastZoom = surface, snap.Zoom
	v.mu.Unlock()

	if rebuild {
		view := compositor.View(surface, snap.Zoom)
		w, h := view.Bounds().Dx(), view.Bounds().Dy()
		size := fyne.NewSize(float32(w), float32(h))

		v.image.Image = view
		v.image.Resize(size)
		v.image.Show()
		v.image.Refresh()

		if snap.Options.IsTransparent() {
			v.checker.Image = v.ed.Checker(w, h)
			v.checker.Resize(size)
			v.checker.Show()
			v.checker.Refresh()
		} else {
			v.checker.Hide()
		}

		v.mu.Lock()
		v.size = size
		v.mu.Unlock()
	}

	overlay := v.ed.Controller.Overlay()
	placeRect(v.activeBox, overlay.ActiveBox)
	placeRect(v.selection, overlay.Selection)
	v.Refresh()
}

func placeRect(r *canvas.Rectangle, box *types.Rect) {
	if box == nil {
		r.Hide()
		return
	}
	r.Move(fyne.NewPos(float32(box.X), float32(box.Y)))
	r.Resize(fyne.NewSize(float32(box.Width), float32(box.Height)))
	r.Show()
	r.Refresh()
}

func toPoint(p fyne.Position) types.Point {
	return types.Point{X: float64(p.X), Y: float64(p.Y)}
}

// MouseDown starts a gesture with the primary button.
func (v *surfaceView) MouseDown(ev *desktop.MouseEvent) {
	if ev.Button != desktop.MouseButtonPrimary {
		return
	}
	v.ed.Controller.PointerDown(toPoint(ev.Position))
}

// MouseUp ends the gesture.
func (v *surfaceView) MouseUp(ev *desktop.MouseEvent) {
	v.ed.Controller.PointerUp(toPoint(ev.Position))
}

func (v *surfaceView) MouseIn(*desktop.MouseEvent) {}

// MouseMoved continues the gesture. Moves are idempotent, so receiving the
// same position through Dragged as well is harmless.
func (v *surfaceView) MouseMoved(ev *desktop.MouseEvent) {
	v.ed.Controller.PointerMove(toPoint(ev.Position))
}

func (v *surfaceView) MouseOut() {}

func (v *surfaceView) Dragged(ev *fyne.DragEvent) {
	v.ed.Controller.PointerMove(toPoint(ev.Position))
}

func (v *surfaceView) DragEnd() {}

// Cursor maps the controller's affordance onto a desktop cursor.
func (v *surfaceView) Cursor() desktop.Cursor {
	switch v.ed.Controller.Cursor() {
	case interaction.CursorMove:
		return desktop.PointerCursor
	case interaction.CursorCrosshair:
		return desktop.CrosshairCursor
	default:
		return desktop.DefaultCursor
	}
}
