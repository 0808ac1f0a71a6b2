package ai

import (
	"context"
	"fmt"
	"image/color"
	"sync"
	"testing"
	"time"

	"pixed/internal/document"
	"pixed/internal/errors"
	"pixed/internal/layers"
	"pixed/internal/raster"
	"pixed/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seqIDs() document.IDGenerator {
	var mu sync.Mutex
	n := 0
	return func(prefix string) string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

func pngImage(t *testing.T, w, h int) *Image {
	t.Helper()
	data, err := raster.Filled(w, h, color.NRGBA{G: 255, A: 255}).PNG()
	require.NoError(t, err)
	return &Image{MIMEType: "image/png", Data: data}
}

type env struct {
	doc *document.Document
	m   *layers.Manager
	bg  string
}

func newEnv(t *testing.T) env {
	t.Helper()
	doc := document.New(document.WithIDGenerator(seqIDs()))
	m := layers.NewManager(doc)
	bg, err := m.CreateDocument(document.CanvasOptions{Width: 200, Height: 200, Background: "#fff"}, nil)
	require.NoError(t, err)
	return env{doc: doc, m: m, bg: bg}
}

func (e env) photo(t *testing.T) string {
	t.Helper()
	id, ok := e.m.AddImageLayer("photo", raster.Filled(10, 10, color.Black), 30, 40)
	require.True(t, ok)
	return id
}

// gate blocks a fake service until released so tests can observe the
// in-flight state.
type gate struct {
	entered chan struct{}
	release chan struct{}
}

func newGate() *gate {
	return &gate{entered: make(chan struct{}, 8), release: make(chan struct{})}
}

func (g *gate) wait(ctx context.Context) error {
	g.entered <- struct{}{}
	select {
	case <-g.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func TestRemoveBackgroundReplacesPixelsInPlace(t *testing.T) {
	e := newEnv(t)
	id := e.photo(t)
	var got Image
	remover := RemoverFunc(func(_ context.Context, img Image) (*Image, error) {
		got = img
		return pngImage(t, 8, 6), nil
	})
	c := New(e.m, remover, nil)

	task, err := c.RemoveBackground(context.Background(), id)
	require.NoError(t, err)
	require.NoError(t, task.Wait())

	assert.Equal(t, "image/png", got.MIMEType)
	decoded := raster.DecodeBytes(got.Data, "sent")
	w, h, _ := decoded.Size()
	assert.Equal(t, []int{10, 10}, []int{w, h}, "the layer's natural pixels are sent")

	l, _ := e.m.Layer(id)
	assert.Equal(t, types.Rect{X: 30, Y: 40, Width: 8, Height: 6}, l.Bounds())
	assert.Equal(t, id, task.Result())
	assert.Equal(t, KindRemoveBackground, task.Kind())
	busy, status := e.doc.Busy()
	assert.False(t, busy)
	assert.Empty(t, status)
}

func TestRemoveBackgroundRejections(t *testing.T) {
	e := newEnv(t)
	called := false
	c := New(e.m, RemoverFunc(func(context.Context, Image) (*Image, error) {
		called = true
		return nil, nil
	}), nil)
	before := e.m.Layers()

	_, err := c.RemoveBackground(context.Background(), e.bg)
	assert.True(t, errors.IsPinnedLayer(err))

	_, err = c.RemoveBackground(context.Background(), "missing")
	assert.True(t, errors.IsLayerNotFound(err))

	pending := e.m.PlaceImage(raster.NewPending("slow"), "slow")
	_, err = c.RemoveBackground(context.Background(), pending)
	assert.Equal(t, errors.RasterNotReady, errors.KindOf(err))

	_, err = New(e.m, nil, nil).RemoveBackground(context.Background(), pending)
	assert.True(t, errors.IsServiceError(err))

	c.Wait()
	assert.False(t, called)
	busy, _ := e.doc.Busy()
	assert.False(t, busy)
	assert.Equal(t, before, e.m.Layers()[:len(before)])
}

func TestRemoveBackgroundFailure(t *testing.T) {
	for name, remover := range map[string]RemoverFunc{
		"error": func(context.Context, Image) (*Image, error) { return nil, assert.AnError },
		"empty": func(context.Context, Image) (*Image, error) { return nil, nil },
		"junk":  func(context.Context, Image) (*Image, error) { return &Image{Data: []byte("junk")}, nil },
	} {
		t.Run(name, func(t *testing.T) {
			e := newEnv(t)
			id := e.photo(t)
			before, _ := e.m.Layer(id)
			c := New(e.m, remover, nil)

			task, err := c.RemoveBackground(context.Background(), id)
			require.NoError(t, err)
			err = task.Wait()
			require.Error(t, err)
			assert.True(t, errors.IsServiceError(err))

			after, _ := e.m.Layer(id)
			assert.Equal(t, before, after)
			busy, status := e.doc.Busy()
			assert.False(t, busy)
			assert.Equal(t, StatusRemoveFailed, status)
		})
	}
}

func TestRemoveBackgroundEmptyResultKind(t *testing.T) {
	e := newEnv(t)
	c := New(e.m, RemoverFunc(func(context.Context, Image) (*Image, error) { return &Image{}, nil }), nil)
	task, err := c.RemoveBackground(context.Background(), e.photo(t))
	require.NoError(t, err)
	assert.True(t, errors.IsEmptyResult(task.Wait()))
}

func TestBusyWhileInFlight(t *testing.T) {
	e := newEnv(t)
	g := newGate()
	c := New(e.m, RemoverFunc(func(ctx context.Context, _ Image) (*Image, error) {
		if err := g.wait(ctx); err != nil {
			return nil, err
		}
		return pngImage(t, 2, 2), nil
	}), nil)

	task, err := c.RemoveBackground(context.Background(), e.photo(t))
	require.NoError(t, err)
	<-g.entered

	busy, status := e.doc.Busy()
	assert.True(t, busy)
	assert.Equal(t, StatusRemoving, status)
	assert.Len(t, c.Pending(), 1)

	close(g.release)
	require.NoError(t, task.Wait())
	c.Wait()
	busy, _ = e.doc.Busy()
	assert.False(t, busy)
	assert.Empty(t, c.Pending())
}

func TestRemovalAppliedAfterDrag(t *testing.T) {
	e := newEnv(t)
	id := e.photo(t)
	g := newGate()
	c := New(e.m, RemoverFunc(func(ctx context.Context, _ Image) (*Image, error) {
		if err := g.wait(ctx); err != nil {
			return nil, err
		}
		return pngImage(t, 4, 4), nil
	}), nil)

	task, err := c.RemoveBackground(context.Background(), id)
	require.NoError(t, err)
	<-g.entered

	e.m.UpdateLayer(id, layers.Position(100, 120))
	close(g.release)
	require.NoError(t, task.Wait())

	l, _ := e.m.Layer(id)
	assert.Equal(t, types.Rect{X: 100, Y: 120, Width: 4, Height: 4}, l.Bounds())
}

func TestRemovalOnDeletedLayerIsNoOp(t *testing.T) {
	e := newEnv(t)
	id := e.photo(t)
	g := newGate()
	c := New(e.m, RemoverFunc(func(ctx context.Context, _ Image) (*Image, error) {
		if err := g.wait(ctx); err != nil {
			return nil, err
		}
		return pngImage(t, 4, 4), nil
	}), nil)

	task, err := c.RemoveBackground(context.Background(), id)
	require.NoError(t, err)
	<-g.entered

	require.True(t, e.m.DeleteLayer(id))
	want := e.m.Layers()
	close(g.release)

	require.NoError(t, task.Wait())
	assert.Equal(t, "", task.Result())
	assert.Equal(t, want, e.m.Layers())
	busy, _ := e.doc.Busy()
	assert.False(t, busy)
}

func TestConcurrentRemovalsLastWriterWins(t *testing.T) {
	e := newEnv(t)
	id := e.photo(t)
	first, second := newGate(), newGate()
	sizes := make(chan int, 2)
	sizes <- 3
	sizes <- 5
	gates := make(chan *gate, 2)
	gates <- first
	gates <- second
	c := New(e.m, RemoverFunc(func(ctx context.Context, _ Image) (*Image, error) {
		g, size := <-gates, <-sizes
		if err := g.wait(ctx); err != nil {
			return nil, err
		}
		return pngImage(t, size, size), nil
	}), nil)

	t1, err := c.RemoveBackground(context.Background(), id)
	require.NoError(t, err)
	<-first.entered
	t2, err := c.RemoveBackground(context.Background(), id)
	require.NoError(t, err, "a second request is not blocked")
	<-second.entered

	close(second.release)
	require.NoError(t, t2.Wait())
	close(first.release)
	require.NoError(t, t1.Wait())

	l, _ := e.m.Layer(id)
	assert.Equal(t, 3.0, l.Width, "the later response overwrites the earlier one")
}

func TestCancelledRemovalIsNotApplied(t *testing.T) {
	e := newEnv(t)
	id := e.photo(t)
	g := newGate()
	c := New(e.m, RemoverFunc(func(ctx context.Context, _ Image) (*Image, error) {
		if err := g.wait(ctx); err != nil {
			return nil, err
		}
		return pngImage(t, 4, 4), nil
	}), nil)

	task, err := c.RemoveBackground(context.Background(), id)
	require.NoError(t, err)
	<-g.entered
	task.Cancel()

	err = task.Wait()
	assert.True(t, errors.IsCanceled(err))
	assert.True(t, task.Canceled())
	l, _ := e.m.Layer(id)
	assert.Equal(t, 10.0, l.Width)
	busy, status := e.doc.Busy()
	assert.False(t, busy)
	assert.Empty(t, status)
}

func TestTimeout(t *testing.T) {
	e := newEnv(t)
	c := New(e.m, RemoverFunc(func(ctx context.Context, _ Image) (*Image, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}), nil, WithTimeout(10*time.Millisecond))

	task, err := c.RemoveBackground(context.Background(), e.photo(t))
	require.NoError(t, err)
	err = task.Wait()
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func selectRegion(e env, r types.Rect) {
	e.doc.SetTool(types.ToolGenerativeFill)
	e.doc.SetSelection(&r)
}

func TestGenerativeFillSuccess(t *testing.T) {
	e := newEnv(t)
	photo := e.photo(t)
	var gotW, gotH int
	var gotPrompt string
	c := New(e.m, nil, GeneratorFunc(func(_ context.Context, prompt string, w, h int) (*Image, error) {
		gotPrompt, gotW, gotH = prompt, w, h
		return pngImage(t, 64, 48), nil
	}))
	selectRegion(e, types.Rect{X: 12.4, Y: 20, Width: 39.6, Height: 30.2})
	before := len(e.m.Layers())

	task, err := c.GenerativeFill(context.Background(), "a red balloon in the sky")
	require.NoError(t, err)
	require.NoError(t, task.Wait())

	assert.Equal(t, "a red balloon in the sky", gotPrompt)
	assert.Equal(t, 40, gotW)
	assert.Equal(t, 30, gotH)

	ls := e.m.Layers()
	require.Len(t, ls, before+1)
	added, ok := e.m.Layer(task.Result())
	require.True(t, ok)
	assert.Equal(t, types.Rect{X: 12.4, Y: 20, Width: 64, Height: 48}, added.Bounds())
	assert.Equal(t, "Fill: a red balloon i", added.Name)
	assert.Equal(t, added.ID, e.doc.ActiveID())
	assert.Equal(t, ls[len(ls)-1].ID, added.ID, "inserted directly above the active photo layer")
	assert.Equal(t, photo, ls[len(ls)-2].ID)

	assert.Nil(t, e.doc.Selection())
	assert.Equal(t, types.ToolMove, e.doc.Tool())
	busy, status := e.doc.Busy()
	assert.False(t, busy)
	assert.Empty(t, status)
}

func TestGenerativeFillFailure(t *testing.T) {
	for name, gen := range map[string]GeneratorFunc{
		"error": func(context.Context, string, int, int) (*Image, error) { return nil, assert.AnError },
		"empty": func(context.Context, string, int, int) (*Image, error) { return nil, nil },
	} {
		t.Run(name, func(t *testing.T) {
			e := newEnv(t)
			c := New(e.m, nil, gen)
			selectRegion(e, types.Rect{X: 1, Y: 1, Width: 10, Height: 10})
			before := e.m.Layers()

			task, err := c.GenerativeFill(context.Background(), "fog")
			require.NoError(t, err)
			assert.Error(t, task.Wait())

			assert.Equal(t, before, e.m.Layers())
			assert.Nil(t, e.doc.Selection())
			assert.Equal(t, types.ToolMove, e.doc.Tool())
			busy, status := e.doc.Busy()
			assert.False(t, busy)
			assert.Equal(t, StatusGenerateFailed, status)
		})
	}
}

func TestGenerativeFillRejections(t *testing.T) {
	e := newEnv(t)
	c := New(e.m, nil, GeneratorFunc(func(context.Context, string, int, int) (*Image, error) {
		t.Fatal("service must not be called")
		return nil, nil
	}))

	_, err := c.GenerativeFill(context.Background(), "clouds")
	assert.ErrorIs(t, err, errors.ErrNoSelection)

	selectRegion(e, types.Rect{X: 1, Y: 1, Width: 10, Height: 0})
	_, err = c.GenerativeFill(context.Background(), "clouds")
	assert.ErrorIs(t, err, errors.ErrNoSelection)

	selectRegion(e, types.Rect{X: 1, Y: 1, Width: 10, Height: 10})
	_, err = c.GenerativeFill(context.Background(), "   ")
	assert.ErrorIs(t, err, errors.ErrEmptyPrompt)

	assert.NotNil(t, e.doc.Selection(), "a rejected request leaves the selection alone")
	busy, _ := e.doc.Busy()
	assert.False(t, busy)
}

func TestCancelledFillAddsNoLayer(t *testing.T) {
	e := newEnv(t)
	g := newGate()
	c := New(e.m, nil, GeneratorFunc(func(ctx context.Context, _ string, _, _ int) (*Image, error) {
		if err := g.wait(ctx); err != nil {
			return nil, err
		}
		return pngImage(t, 4, 4), nil
	}))
	selectRegion(e, types.Rect{X: 1, Y: 1, Width: 10, Height: 10})
	before := e.m.Layers()

	task, err := c.GenerativeFill(context.Background(), "stars")
	require.NoError(t, err)
	<-g.entered
	c.CancelAll()

	assert.True(t, errors.IsCanceled(task.Wait()))
	assert.Equal(t, before, e.m.Layers())
	assert.Nil(t, e.doc.Selection())
	assert.Equal(t, types.ToolMove, e.doc.Tool())
}

func TestCancelFill(t *testing.T) {
	e := newEnv(t)
	c := New(e.m, nil, nil)
	selectRegion(e, types.Rect{Width: 5, Height: 5})

	c.CancelFill()
	assert.Nil(t, e.doc.Selection())
	assert.Equal(t, types.ToolMove, e.doc.Tool())
}

func TestFillName(t *testing.T) {
	assert.Equal(t, "Fill: short", FillName("short"))
	assert.Equal(t, "Fill: exactly fifteen", FillName("exactly fifteen"))
	assert.Equal(t, "Fill: 0123456789abcde", FillName("0123456789abcdefghij"))
	assert.Equal(t, "Fill: ééééééééééééééé", FillName("éééééééééééééééééé"))
}
