// Package document holds the canonical editor state: canvas options, the
// ordered layer stack, the active layer, tool, zoom, selection and the busy
// flag. It knows nothing about rendering or input; structural rules live in
// the layers package, which mutates the stack through Update.
package document

import (
	"sync"

	"pixed/internal/log"
	"pixed/internal/raster"
	"pixed/pkg/types"

	"github.com/google/uuid"
)

// Zoom limits.
const (
	MinZoom = 0.1
	MaxZoom = 16.0
)

// BackgroundName is the name given to the pinned bottom layer.
const BackgroundName = "Background"

// Transparent is the CanvasOptions background that leaves the canvas
// unfilled.
const Transparent = types.Transparent

// CanvasOptions is fixed when a document is created.
type CanvasOptions struct {
	Width      int
	Height     int
	Background string // hex colour or Transparent
}

// IsTransparent reports whether the canvas has no fill.
func (o CanvasOptions) IsTransparent() bool {
	return o.Background == Transparent
}

// Layer is one entry of the stack. Geometry is in document pixels.
type Layer struct {
	ID         string
	Name       string
	Raster     *raster.Handle
	X          float64
	Y          float64
	Width      float64
	Height     float64
	Visible    bool
	Opacity    float64
	Blend      types.BlendMode
	Background bool
}

// Bounds returns the layer rectangle.
func (l Layer) Bounds() types.Rect {
	return types.Rect{X: l.X, Y: l.Y, Width: l.Width, Height: l.Height}
}

// Position returns the top-left corner.
func (l Layer) Position() types.Point {
	return types.Point{X: l.X, Y: l.Y}
}

// State is the mutable document data.
type State struct {
	Options   *CanvasOptions // nil before a document exists
	Layers    []Layer        // index 0 paints first
	ActiveID  string
	Tool      types.Tool
	Zoom      float64
	Selection *types.Rect
	Busy      bool
	Status    string
}

// Index returns the stack position of id, or -1.
func (s State) Index(id string) int {
	if id == "" {
		return -1
	}
	for i := range s.Layers {
		if s.Layers[i].ID == id {
			return i
		}
	}
	return -1
}

// Layer returns the layer with id.
func (s State) Layer(id string) (Layer, bool) {
	if i := s.Index(id); i >= 0 {
		return s.Layers[i], true
	}
	return Layer{}, false
}

// Active returns the active layer, if any.
func (s State) Active() (Layer, bool) {
	return s.Layer(s.ActiveID)
}

// HasDocument reports whether a canvas has been created.
func (s State) HasDocument() bool {
	return s.Options != nil
}

func (s State) clone() State {
	c := s
	c.Layers = append([]Layer(nil), s.Layers...)
	if s.Options != nil {
		o := *s.Options
		c.Options = &o
	}
	if s.Selection != nil {
		r := *s.Selection
		c.Selection = &r
	}
	return c
}

// Snapshot is a read-only copy of the state at one revision.
type Snapshot struct {
	State
	Revision uint64
}

// ChangeKind classifies a notification.
type ChangeKind int

const (
	// ContentChanged means the composited pixels may differ.
	ContentChanged ChangeKind = iota
	// ViewChanged covers zoom, tool, active layer and selection.
	ViewChanged
	// StatusChanged covers the busy flag and status message.
	StatusChanged
)

// Change is delivered to listeners after each mutation.
type Change struct {
	Kind     ChangeKind
	Revision uint64
}

// Listener observes document changes. It runs on the mutating goroutine
// after the document lock is released.
type Listener func(Change)

// IDGenerator produces a fresh layer or task id for prefix.
type IDGenerator func(prefix string) string

// UUIDs is the default IDGenerator.
func UUIDs(prefix string) string {
	return prefix + "-" + uuid.NewString()
}

// Option configures a Document.
type Option func(*Document)

// WithIDGenerator replaces the id source.
func WithIDGenerator(gen IDGenerator) Option {
	return func(d *Document) { d.ids = gen }
}

// WithLogger sets the logger used for mutation traces.
func WithLogger(l *log.Logger) Option {
	return func(d *Document) { d.log = l }
}

// Document is the single owner of editor state. Every method is atomic
// with respect to the others.
type Document struct {
	mu       sync.Mutex
	st       State
	revision uint64

	lmu       sync.Mutex
	listeners map[int]Listener
	nextSub   int

	ids IDGenerator
	log *log.Logger
}

// New returns a document in the pre-document (home) state.
func New(opts ...Option) *Document {
	d := &Document{
		st:        homeState(),
		listeners: make(map[int]Listener),
		ids:       UUIDs,
		log:       log.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func homeState() State {
	return State{Tool: types.ToolMove, Zoom: 1}
}

// NewID returns a fresh id.
func (d *Document) NewID(prefix string) string {
	return d.ids(prefix)
}

// Logger returns the document's logger.
func (d *Document) Logger() *log.Logger {
	return d.log
}

// Snapshot returns a copy of the current state.
func (d *Document) Snapshot() Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return Snapshot{State: d.st.clone(), Revision: d.revision}
}

// Revision returns the content revision; it increases on every content
// change and never on view or status changes.
func (d *Document) Revision() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.revision
}

// Update runs fn under the document lock. When fn reports a change the
// revision is bumped and listeners are told the content changed.
func (d *Document) Update(fn func(st *State) bool) bool {
	changed, rev := d.apply(fn, true)
	if changed {
		d.notify(Change{Kind: ContentChanged, Revision: rev})
	}
	return changed
}

func (d *Document) view(kind ChangeKind, fn func(st *State) bool) bool {
	changed, rev := d.apply(fn, false)
	if changed {
		d.notify(Change{Kind: kind, Revision: rev})
	}
	return changed
}

// apply runs fn under the lock, bumping the revision for content changes.
// The lock is released even if fn panics.
func (d *Document) apply(fn func(st *State) bool, content bool) (bool, uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	changed := fn(&d.st)
	if changed && content {
		d.revision++
	}
	return changed, d.revision
}

// Zoom returns the current zoom factor.
func (d *Document) Zoom() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.st.Zoom
}

// SetZoom stores z clamped to [MinZoom, MaxZoom] and returns the stored value.
func (d *Document) SetZoom(z float64) float64 {
	z = types.Clamp(z, MinZoom, MaxZoom)
	d.view(ViewChanged, func(st *State) bool {
		if st.Zoom == z {
			return false
		}
		st.Zoom = z
		return true
	})
	return z
}

// Tool returns the active tool.
func (d *Document) Tool() types.Tool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.st.Tool
}

// SetTool activates t. Leaving GenerativeFill drops the selection.
func (d *Document) SetTool(t types.Tool) {
	d.view(ViewChanged, func(st *State) bool {
		if st.Tool == t {
			return false
		}
		if st.Tool == types.ToolGenerativeFill {
			st.Selection = nil
		}
		st.Tool = t
		return true
	})
}

// Selection returns the current selection, or nil.
func (d *Document) Selection() *types.Rect {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.st.Selection == nil {
		return nil
	}
	r := *d.st.Selection
	return &r
}

// SetSelection overwrites the selection; nil clears it.
func (d *Document) SetSelection(r *types.Rect) {
	d.view(ViewChanged, func(st *State) bool {
		if r == nil {
			if st.Selection == nil {
				return false
			}
			st.Selection = nil
			return true
		}
		sel := *r
		st.Selection = &sel
		return true
	})
}

// SelectForFill stores r as the selection only while the GenerativeFill
// tool is active, and reports whether it did.
func (d *Document) SelectForFill(r types.Rect) bool {
	stored := false
	d.view(ViewChanged, func(st *State) bool {
		if st.Tool != types.ToolGenerativeFill {
			return false
		}
		st.Selection = &r
		stored = true
		return true
	})
	return stored
}

// ActiveID returns the active layer id, or "".
func (d *Document) ActiveID() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.st.ActiveID
}

// SetActive makes id the active layer. An empty id clears the active layer;
// an unknown id is ignored.
func (d *Document) SetActive(id string) bool {
	return d.view(ViewChanged, func(st *State) bool {
		if id != "" && st.Index(id) < 0 {
			return false
		}
		if st.ActiveID == id {
			return false
		}
		st.ActiveID = id
		return true
	})
}

// Busy reports whether an AI operation is in flight, with its status line.
func (d *Document) Busy() (bool, string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.st.Busy, d.st.Status
}

// SetBusy sets the busy flag and status message together.
func (d *Document) SetBusy(busy bool, status string) {
	d.view(StatusChanged, func(st *State) bool {
		st.Busy, st.Status = busy, status
		return true
	})
}

// SetStatus replaces the status message without touching the busy flag.
func (d *Document) SetStatus(status string) {
	d.view(StatusChanged, func(st *State) bool {
		st.Status = status
		return true
	})
}

// Reset returns to the home state, dropping the canvas and every layer.
func (d *Document) Reset() {
	_, rev := d.apply(func(st *State) bool {
		for _, l := range st.Layers {
			if l.Raster != nil {
				l.Raster.Release()
			}
		}
		*st = homeState()
		return true
	}, true)

	d.log.Debug("document reset")
	d.notify(Change{Kind: ContentChanged, Revision: rev})
}

// Subscribe registers l and returns a function that removes it.
func (d *Document) Subscribe(l Listener) func() {
	d.lmu.Lock()
	defer d.lmu.Unlock()
	id := d.nextSub
	d.nextSub++
	d.listeners[id] = l
	return func() {
		d.lmu.Lock()
		defer d.lmu.Unlock()
		delete(d.listeners, id)
	}
}

func (d *Document) notify(c Change) {
	d.lmu.Lock()
	ls := make([]Listener, 0, len(d.listeners))
	for i := 0; i < d.nextSub; i++ {
		if l, ok := d.listeners[i]; ok {
			ls = append(ls, l)
		}
	}
	d.lmu.Unlock()

	for _, l := range ls {
		l(c)
	}
}
