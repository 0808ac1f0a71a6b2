// Package raster holds layer pixel data. A Handle starts Pending while its
// source decodes and settles into Ready or Failed exactly once. Ready handles
// share pixel buffers copy-on-write, so a clone is cheap and writing through
// one handle never shows through another.
package raster

import (
	"image"
	"image/color"
	"image/draw"
	"sync"
	"sync/atomic"
)

// State is the load state of a Handle.
type State int

const (
	Pending State = iota
	Ready
	Failed
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

type buffer struct {
	img  *image.NRGBA
	refs atomic.Int32
}

func newBuffer(img *image.NRGBA) *buffer {
	b := &buffer{img: img}
	b.refs.Store(1)
	return b
}

// Handle is an owned reference to a layer's pixels.
type Handle struct {
	mu     sync.RWMutex
	state  State
	buf    *buffer
	err    error
	source string
	done   chan struct{}
}

// NewPending returns a handle whose pixels are still being produced.
func NewPending(source string) *Handle {
	return &Handle{state: Pending, source: source, done: make(chan struct{})}
}

// FromImage returns a Ready handle holding a private copy of img.
func FromImage(img image.Image) *Handle {
	h := NewPending("")
	h.Resolve(img)
	return h
}

// Blank returns a fully transparent Ready handle.
func Blank(width, height int) *Handle {
	h := NewPending("blank")
	h.settle(Ready, newBuffer(image.NewNRGBA(image.Rect(0, 0, width, height))), nil)
	return h
}

// Filled returns a Ready handle painted with c.
func Filled(width, height int, c color.Color) *Handle {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	h := NewPending("fill")
	h.settle(Ready, newBuffer(img), nil)
	return h
}

// Resolve moves a Pending handle to Ready. Later calls are ignored.
func (h *Handle) Resolve(img image.Image) {
	h.settle(Ready, newBuffer(toNRGBA(img)), nil)
}

// Fail moves a Pending handle to Failed. Later calls are ignored.
func (h *Handle) Fail(err error) {
	h.settle(Failed, nil, err)
}

func (h *Handle) settle(state State, buf *buffer, err error) {
	h.mu.Lock()
	if h.state != Pending {
		h.mu.Unlock()
		return
	}
	h.state, h.buf, h.err = state, buf, err
	h.mu.Unlock()
	close(h.done)
}

// Done is closed once the handle leaves Pending.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// State reports the current load state.
func (h *Handle) State() State {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.state
}

// Err returns the decode error of a Failed handle.
func (h *Handle) Err() error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.err
}

// Source names where the pixels came from, for logs and errors.
func (h *Handle) Source() string {
	return h.source
}

// Size returns the natural pixel size; ok is false unless the handle is Ready.
func (h *Handle) Size() (width, height int, ok bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.state != Ready {
		return 0, 0, false
	}
	b := h.buf.img.Bounds()
	return b.Dx(), b.Dy(), true
}

// Image returns the pixels for reading, or nil unless Ready. Callers must
// not write to the result; use Mutable for that.
func (h *Handle) Image() *image.NRGBA {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.state != Ready {
		return nil
	}
	return h.buf.img
}

// Mutable returns pixels that only this handle references, copying the
// shared buffer first if needed. Nil unless Ready.
func (h *Handle) Mutable() *image.NRGBA {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state != Ready {
		return nil
	}
	if h.buf.refs.Load() > 1 {
		cp := image.NewNRGBA(h.buf.img.Bounds())
		copy(cp.Pix, h.buf.img.Pix)
		h.buf.refs.Add(-1)
		h.buf = newBuffer(cp)
	}
	return h.buf.img
}

// Shared reports whether another handle references the same pixels.
func (h *Handle) Shared() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.buf != nil && h.buf.refs.Load() > 1
}

// Clone returns an independent handle over the same pixels. Cloning a
// Pending handle yields a Pending clone that settles when the original does.
func (h *Handle) Clone() *Handle {
	h.mu.RLock()
	state, buf, err := h.state, h.buf, h.err
	h.mu.RUnlock()

	c := NewPending(h.source)
	switch state {
	case Ready:
		buf.refs.Add(1)
		c.settle(Ready, buf, nil)
	case Failed:
		c.settle(Failed, nil, err)
	default:
		go func() {
			<-h.done
			h.mu.RLock()
			state, buf, err := h.state, h.buf, h.err
			if state == Ready {
				buf.refs.Add(1)
			}
			h.mu.RUnlock()
			c.settle(state, buf, err)
		}()
	}
	return c
}

// Release drops this handle's reference to its pixels.
func (h *Handle) Release() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.buf != nil {
		h.buf.refs.Add(-1)
		h.buf = nil
	}
	if h.state == Ready {
		h.state = Failed
	}
}

func toNRGBA(img image.Image) *image.NRGBA {
	b := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}
