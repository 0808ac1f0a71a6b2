// Package layers enforces the structural rules of the layer stack. Every
// operation checks its preconditions first and reports whether it changed
// anything; a forbidden or unknown-id request is a no-op, never an error.
// Index 0 always holds the pinned Background layer once a document exists.
package layers

import (
	"fmt"
	"image"

	"pixed/internal/document"
	"pixed/internal/errors"
	"pixed/internal/log"
	"pixed/internal/raster"
	"pixed/pkg/types"
)

// Manager mediates all structural writes to a document's stack.
type Manager struct {
	doc *document.Document
	log *log.Logger
}

// NewManager returns a Manager for doc.
func NewManager(doc *document.Document) *Manager {
	return &Manager{doc: doc, log: doc.Logger().With(log.F("component", "layers"))}
}

// Document returns the managed document.
func (m *Manager) Document() *document.Document {
	return m.doc
}

// New builds a layer with the defaults every new layer gets: visible,
// fully opaque, normal blending.
func New(id, name string, r *raster.Handle, x, y, width, height float64) document.Layer {
	return document.Layer{
		ID:      id,
		Name:    name,
		Raster:  r,
		X:       x,
		Y:       y,
		Width:   width,
		Height:  height,
		Visible: true,
		Opacity: 1,
		Blend:   types.BlendNormal,
	}
}

// CreateDocument replaces any current state with a new canvas. The
// Background layer is filled with the canvas colour unless it is
// transparent. An initial image, if given, is placed centred above it and
// made active; otherwise the Background layer is active.
func (m *Manager) CreateDocument(opts document.CanvasOptions, initial *raster.Handle) (string, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return "", errors.NewConfigError(fmt.Sprintf("canvas size %dx%d", opts.Width, opts.Height), "canvas", errors.InvalidInputData, nil)
	}
	fill, transparent, err := types.ParseColor(opts.Background)
	if err != nil {
		return "", errors.NewConfigError("invalid background colour", "canvas.background", errors.InvalidInputData, err)
	}
	if transparent {
		opts.Background = document.Transparent
	}

	var bgRaster *raster.Handle
	if transparent {
		bgRaster = raster.Blank(opts.Width, opts.Height)
	} else {
		bgRaster = raster.Filled(opts.Width, opts.Height, fill)
	}

	m.doc.Reset()
	bgID := m.doc.NewID("layer-bg")
	bg := New(bgID, document.BackgroundName, bgRaster, 0, 0, float64(opts.Width), float64(opts.Height))
	bg.Background = true

	m.doc.Update(func(st *document.State) bool {
		o := opts
		st.Options = &o
		st.Layers = []document.Layer{bg}
		st.ActiveID = bgID
		return true
	})
	m.log.With(log.F("width", opts.Width), log.F("height", opts.Height), log.F("background", opts.Background)).Debug("document created")

	if initial != nil {
		m.PlaceImage(initial, "Layer 1")
	}
	return bgID, nil
}

// AddLayer inserts l directly above the active layer, or on top when no
// layer is active. It does not change the active layer. An empty id is
// filled in.
func (m *Manager) AddLayer(l document.Layer) string {
	if l.ID == "" {
		l.ID = m.doc.NewID("layer")
	}
	l.Background = false
	l.Opacity = types.Clamp(l.Opacity, 0, 1)

	m.doc.Update(func(st *document.State) bool {
		insertAboveActive(st, l)
		return true
	})
	m.log.With(log.F("layer", l.ID), log.F("name", l.Name)).Debug("layer added")
	return l.ID
}

func insertAboveActive(st *document.State, l document.Layer) {
	if i := st.Index(st.ActiveID); i >= 0 {
		st.Layers = append(st.Layers[:i+1], append([]document.Layer{l}, st.Layers[i+1:]...)...)
		return
	}
	st.Layers = append(st.Layers, l)
}

// AddNewLayer adds a blank transparent layer the size of the canvas, named
// "Layer N" after the current stack length, and makes it active.
func (m *Manager) AddNewLayer() (string, bool) {
	snap := m.doc.Snapshot()
	if !snap.HasDocument() {
		return "", false
	}
	w, h := snap.Options.Width, snap.Options.Height
	id := m.doc.NewID("layer")
	l := New(id, fmt.Sprintf("Layer %d", len(snap.Layers)), raster.Blank(w, h), 0, 0, float64(w), float64(h))

	m.doc.Update(func(st *document.State) bool {
		insertAboveActive(st, l)
		st.ActiveID = id
		return true
	})
	m.log.With(log.F("layer", id)).Debug("blank layer added")
	return id, true
}

// AddImageLayer adds a Ready raster as a new active layer at (x, y), sized
// to the image.
func (m *Manager) AddImageLayer(name string, r *raster.Handle, x, y float64) (string, bool) {
	w, h, ok := r.Size()
	if !ok || !m.doc.Snapshot().HasDocument() {
		return "", false
	}
	id := m.doc.NewID("layer")
	l := New(id, name, r, x, y, float64(w), float64(h))
	m.doc.Update(func(st *document.State) bool {
		insertAboveActive(st, l)
		st.ActiveID = id
		return true
	})
	m.log.With(log.F("layer", id), log.F("name", name)).Debug("image layer added")
	return id, true
}

// PlaceImage adds r as a new active layer. A Pending raster enters the
// stack at once with no size; when it resolves the layer is sized to the
// image and centred on the canvas. A raster that fails stays in the stack
// unpainted.
func (m *Manager) PlaceImage(r *raster.Handle, name string) string {
	snap := m.doc.Snapshot()
	if !snap.HasDocument() {
		return ""
	}
	id := m.doc.NewID("layer-img")
	l := New(id, name, r, 0, 0, 0, 0)

	m.doc.Update(func(st *document.State) bool {
		insertAboveActive(st, l)
		st.ActiveID = id
		return true
	})

	if r.State() != raster.Pending {
		m.settlePlaced(id, r)
		return id
	}
	go func() {
		<-r.Done()
		m.settlePlaced(id, r)
	}()
	return id
}

func (m *Manager) settlePlaced(id string, r *raster.Handle) {
	w, h, ok := r.Size()
	if !ok {
		m.log.With(log.F("layer", id)).WithError(r.Err()).Warn("placed image failed to load")
		return
	}
	m.doc.Update(func(st *document.State) bool {
		i := st.Index(id)
		if i < 0 || st.Layers[i].Raster != r || st.Options == nil {
			return false
		}
		l := &st.Layers[i]
		l.Width, l.Height = float64(w), float64(h)
		l.X = float64(st.Options.Width-w) / 2
		l.Y = float64(st.Options.Height-h) / 2
		return true
	})
}

// DuplicateLayer clones id (except the Background layer) directly above
// itself and makes the clone active. The clone shares pixels copy-on-write.
func (m *Manager) DuplicateLayer(id string) (string, bool) {
	newID := m.doc.NewID("layer")
	ok := m.doc.Update(func(st *document.State) bool {
		i := st.Index(id)
		if i < 0 || st.Layers[i].Background {
			return false
		}
		c := st.Layers[i]
		c.ID = newID
		c.Name = c.Name + " copy"
		if c.Raster != nil {
			c.Raster = c.Raster.Clone()
		}
		st.Layers = append(st.Layers[:i+1], append([]document.Layer{c}, st.Layers[i+1:]...)...)
		st.ActiveID = newID
		return true
	})
	if !ok {
		return "", false
	}
	m.log.With(log.F("layer", id), log.F("copy", newID)).Debug("layer duplicated")
	return newID, true
}

// DeleteLayer removes id unless it is the Background layer. Deleting the
// active layer activates the one below it.
func (m *Manager) DeleteLayer(id string) bool {
	var removed *raster.Handle
	ok := m.doc.Update(func(st *document.State) bool {
		i := st.Index(id)
		if i < 0 || st.Layers[i].Background {
			return false
		}
		removed = st.Layers[i].Raster
		st.Layers = append(st.Layers[:i], st.Layers[i+1:]...)
		if st.ActiveID == id {
			st.ActiveID = ""
			if len(st.Layers) > 0 {
				st.ActiveID = st.Layers[max(0, i-1)].ID
			}
		}
		return true
	})
	if ok {
		if removed != nil {
			removed.Release()
		}
		m.log.With(log.F("layer", id)).Debug("layer deleted")
	}
	return ok
}

// ReorderLayers drops dragged onto target: dragged is removed and
// reinserted at target's position after removal. Nothing may move the
// Background layer or land on it, and dropping a layer on itself is a
// no-op.
func (m *Manager) ReorderLayers(draggedID, targetID string) bool {
	return m.doc.Update(func(st *document.State) bool {
		if draggedID == targetID {
			return false
		}
		from, to := st.Index(draggedID), st.Index(targetID)
		if from < 0 || to < 0 || st.Layers[from].Background || st.Layers[to].Background {
			return false
		}
		dragged := st.Layers[from]
		rest := append(st.Layers[:from:from], st.Layers[from+1:]...)
		if to = indexIn(rest, targetID); to < 0 {
			return false
		}
		st.Layers = append(rest[:to:to], append([]document.Layer{dragged}, rest[to:]...)...)
		return true
	})
}

func indexIn(ls []document.Layer, id string) int {
	for i := range ls {
		if ls[i].ID == id {
			return i
		}
	}
	return -1
}

// MoveLayer shifts id by delta positions, staying above the Background
// layer.
func (m *Manager) MoveLayer(id string, delta int) bool {
	return m.doc.Update(func(st *document.State) bool {
		i := st.Index(id)
		if i < 0 || st.Layers[i].Background || delta == 0 {
			return false
		}
		lo := 0
		if len(st.Layers) > 0 && st.Layers[0].Background {
			lo = 1
		}
		j := min(max(i+delta, lo), len(st.Layers)-1)
		if j == i {
			return false
		}
		l := st.Layers[i]
		st.Layers = append(st.Layers[:i], st.Layers[i+1:]...)
		st.Layers = append(st.Layers[:j], append([]document.Layer{l}, st.Layers[j:]...)...)
		return true
	})
}

// UpdateLayer merges p into id. Opacity is clamped to [0, 1]. The
// Background layer keeps its position, opacity and blend mode.
func (m *Manager) UpdateLayer(id string, p Patch) bool {
	return m.doc.Update(func(st *document.State) bool {
		i := st.Index(id)
		if i < 0 {
			return false
		}
		return p.apply(&st.Layers[i])
	})
}

// ToggleVisibility flips the visible flag of id.
func (m *Manager) ToggleVisibility(id string) bool {
	return m.doc.Update(func(st *document.State) bool {
		i := st.Index(id)
		if i < 0 {
			return false
		}
		st.Layers[i].Visible = !st.Layers[i].Visible
		return true
	})
}

// ReplaceRaster swaps id's pixels for r and resizes the layer to r,
// keeping its position. It is a no-op for unknown ids or unready rasters.
func (m *Manager) ReplaceRaster(id string, r *raster.Handle) bool {
	w, h, ok := r.Size()
	if !ok {
		return false
	}
	var old *raster.Handle
	changed := m.doc.Update(func(st *document.State) bool {
		i := st.Index(id)
		if i < 0 {
			return false
		}
		old = st.Layers[i].Raster
		st.Layers[i].Raster = r
		st.Layers[i].Width, st.Layers[i].Height = float64(w), float64(h)
		return true
	})
	if changed && old != nil && old != r {
		old.Release()
	}
	return changed
}

// SetActive makes id active; "" clears the active layer.
func (m *Manager) SetActive(id string) bool {
	return m.doc.SetActive(id)
}

// Layers returns a copy of the stack, bottom first.
func (m *Manager) Layers() []document.Layer {
	return m.doc.Snapshot().Layers
}

// Layer returns the layer with id.
func (m *Manager) Layer(id string) (document.Layer, bool) {
	snap := m.doc.Snapshot()
	return snap.Layer(id)
}

// Reset empties the stack and returns to the home state.
func (m *Manager) Reset() {
	m.doc.Reset()
}

// Pixels returns the layer's pixels for transfer, or an error if the
// layer is unknown or not loaded.
func (m *Manager) Pixels(id string) (image.Image, error) {
	l, ok := m.Layer(id)
	if !ok {
		return nil, errors.NewLayerError("layer not found", id, errors.LayerNotFound, nil)
	}
	if l.Raster == nil || l.Raster.Image() == nil {
		return nil, errors.NewLayerError("layer raster is not loaded", id, errors.RasterNotReady, nil)
	}
	return l.Raster.Image(), nil
}
