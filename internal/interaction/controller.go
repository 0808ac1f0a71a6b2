// Package interaction turns raw pointer events into layer drags and
// rectangular selections. Events arrive in screen space and are mapped to
// document space with doc = (screen - origin) / zoom before any hit test.
package interaction

import (
	"sync"

	"pixed/internal/document"
	"pixed/internal/layers"
	"pixed/internal/log"
	"pixed/internal/raster"
	"pixed/pkg/types"
)

// Mode is the pointer state machine state.
type Mode int

const (
	Idle Mode = iota
	Dragging
	Selecting
)

func (m Mode) String() string {
	switch m {
	case Idle:
		return "idle"
	case Dragging:
		return "dragging"
	case Selecting:
		return "selecting"
	default:
		return "unknown"
	}
}

// State is the controller's gesture state. LayerID and Offset are set
// while Dragging, Origin while Selecting.
type State struct {
	Mode    Mode
	LayerID string
	Offset  types.Point
	Origin  types.Point
}

// Cursor is the pointer affordance the front end should show.
type Cursor int

const (
	CursorDefault Cursor = iota
	CursorMove
	CursorCrosshair
)

// DefaultZoomStep is the zoom shortcut increment.
const DefaultZoomStep = 0.1

// Controller is the pointer state machine. Events are applied strictly in
// arrival order.
type Controller struct {
	// events serialises pointer handling; mu guards origin and state only
	// and is never held while calling into the document, so listeners may
	// query the controller.
	events   sync.Mutex
	mu       sync.Mutex
	doc      *document.Document
	layers   *layers.Manager
	origin   types.Point
	state    State
	zoomStep float64
	log      *log.Logger
}

// Option configures a Controller.
type Option func(*Controller)

// WithZoomStep sets the zoom shortcut increment.
func WithZoomStep(step float64) Option {
	return func(c *Controller) {
		if step > 0 {
			c.zoomStep = step
		}
	}
}

// New returns an idle Controller driving m.
func New(m *layers.Manager, opts ...Option) *Controller {
	c := &Controller{
		doc:      m.Document(),
		layers:   m,
		zoomStep: DefaultZoomStep,
		log:      m.Document().Logger().With(log.F("component", "interaction")),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetSurfaceOrigin records where the surface's top-left corner sits in
// screen space.
func (c *Controller) SetSurfaceOrigin(p types.Point) {
	c.mu.Lock()
	c.origin = p
	c.mu.Unlock()
}

// State returns the current gesture state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// ToDocument maps a screen point to document space.
func (c *Controller) ToDocument(screen types.Point) types.Point {
	c.mu.Lock()
	origin := c.origin
	c.mu.Unlock()
	return screen.Sub(origin).Scale(1 / c.doc.Zoom())
}

// ToScreen maps a document point to screen space.
func (c *Controller) ToScreen(p types.Point) types.Point {
	c.mu.Lock()
	origin := c.origin
	c.mu.Unlock()
	return p.Scale(c.doc.Zoom()).Add(origin)
}

// HitTest returns the topmost visible non-background layer containing p,
// falling back to the Background layer. background reports the fallback.
// Layers whose raster has not loaded have no geometry yet and are never hit.
func HitTest(st *document.State, p types.Point) (id string, background bool) {
	for i := len(st.Layers) - 1; i >= 0; i-- {
		l := &st.Layers[i]
		if l.Background || !l.Visible {
			continue
		}
		if l.Raster != nil && l.Raster.State() != raster.Ready {
			continue
		}
		if l.Bounds().Contains(p) {
			return l.ID, false
		}
	}
	if len(st.Layers) > 0 && st.Layers[0].Background && st.Layers[0].Bounds().Contains(p) {
		return st.Layers[0].ID, true
	}
	return "", false
}

// PointerDown starts a gesture according to the active tool.
func (c *Controller) PointerDown(screen types.Point) {
	c.events.Lock()
	defer c.events.Unlock()

	snap := c.doc.Snapshot()
	p := screen.Sub(c.surfaceOrigin()).Scale(1 / snap.Zoom)

	switch snap.Tool {
	case types.ToolMove:
		id, background := HitTest(&snap.State, p)
		if id == "" || background {
			c.setState(State{Mode: Idle})
			c.layers.SetActive(id)
			return
		}
		l, _ := snap.Layer(id)
		c.setState(State{Mode: Dragging, LayerID: id, Offset: p.Sub(l.Position())})
		c.layers.SetActive(id)
		c.log.With(log.F("layer", id)).Debug("drag started")
	case types.ToolGenerativeFill:
		if !c.doc.SelectForFill(types.Rect{X: p.X, Y: p.Y}) {
			c.setState(State{Mode: Idle})
			return
		}
		c.setState(State{Mode: Selecting, Origin: p})
	default:
		c.setState(State{Mode: Idle})
	}
}

func (c *Controller) surfaceOrigin() types.Point {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.origin
}

func (c *Controller) setState(st State) {
	c.mu.Lock()
	c.state = st
	c.mu.Unlock()
}

// PointerMove continues the current gesture.
func (c *Controller) PointerMove(screen types.Point) {
	c.events.Lock()
	defer c.events.Unlock()

	st := c.State()
	switch st.Mode {
	case Dragging:
		c.drag(st, screen)
	case Selecting:
		c.updateSelection(st, screen)
	}
}

// abandon drops a gesture whose tool is no longer active.
func (c *Controller) abandon(st State) {
	c.setState(State{Mode: Idle})
	c.log.With(log.F("mode", st.Mode.String())).Debug("gesture abandoned after tool change")
}

func (c *Controller) drag(st State, screen types.Point) {
	if c.doc.Tool() != types.ToolMove {
		c.abandon(st)
		return
	}
	p := c.ToDocument(screen)
	l, ok := c.layers.Layer(st.LayerID)
	if !ok || l.Background {
		return
	}
	pos := p.Sub(st.Offset)
	c.layers.UpdateLayer(l.ID, layers.Position(pos.X, pos.Y))
}

func (c *Controller) updateSelection(st State, screen types.Point) bool {
	r := types.RectBetween(st.Origin, c.ToDocument(screen))
	if !c.doc.SelectForFill(r) {
		c.abandon(st)
		return false
	}
	return true
}

// PointerUp ends the gesture. A selection gesture takes the up point as
// its final corner; a selection with no area is discarded. A gesture whose
// tool was switched away mid-way ends without touching the document.
func (c *Controller) PointerUp(screen types.Point) {
	c.events.Lock()
	defer c.events.Unlock()

	st := c.State()
	c.setState(State{Mode: Idle})
	switch st.Mode {
	case Selecting:
		if !c.updateSelection(st, screen) {
			return
		}
		if sel := c.doc.Selection(); sel != nil && sel.IsZero() {
			c.doc.SetSelection(nil)
		}
	case Dragging:
		c.log.With(log.F("layer", st.LayerID)).Debug("drag finished")
	}
}

// Cursor derives the affordance from the document state.
func (c *Controller) Cursor() Cursor {
	snap := c.doc.Snapshot()
	switch snap.Tool {
	case types.ToolGenerativeFill:
		return CursorCrosshair
	case types.ToolMove:
		if l, ok := snap.Active(); ok && !l.Background {
			return CursorMove
		}
	}
	return CursorDefault
}

// SetZoomStep changes the zoom shortcut increment. Non-positive steps
// are ignored.
func (c *Controller) SetZoomStep(step float64) {
	if step <= 0 {
		return
	}
	c.mu.Lock()
	c.zoomStep = step
	c.mu.Unlock()
}

func (c *Controller) step() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.zoomStep
}

// ZoomIn raises the zoom by one step and returns the stored value.
func (c *Controller) ZoomIn() float64 {
	return c.doc.SetZoom(c.doc.Zoom() + c.step())
}

// ZoomOut lowers the zoom by one step and returns the stored value.
func (c *Controller) ZoomOut() float64 {
	return c.doc.SetZoom(c.doc.Zoom() - c.step())
}

// ZoomReset returns to 100%.
func (c *Controller) ZoomReset() float64 {
	return c.doc.SetZoom(1)
}

// Overlay is the screen-space chrome drawn over the surface.
type Overlay struct {
	ActiveBox *types.Rect // active layer bounds, Move tool only
	Selection *types.Rect // GenerativeFill tool only
}

// Overlay returns the current overlay geometry in screen space.
func (c *Controller) Overlay() Overlay {
	snap := c.doc.Snapshot()
	c.mu.Lock()
	origin := c.origin
	c.mu.Unlock()

	toScreen := func(r types.Rect) *types.Rect {
		s := r.Scale(snap.Zoom)
		s.X += origin.X
		s.Y += origin.Y
		return &s
	}

	var o Overlay
	switch snap.Tool {
	case types.ToolMove:
		if l, ok := snap.Active(); ok {
			o.ActiveBox = toScreen(l.Bounds())
		}
	case types.ToolGenerativeFill:
		if snap.Selection != nil {
			o.Selection = toScreen(*snap.Selection)
		}
	}
	return o
}
