package editor

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"pixed/internal/ai"
	"pixed/internal/config"
	"pixed/internal/document"
	"pixed/internal/errors"
	"pixed/internal/layers"
	"pixed/internal/raster"
	"pixed/pkg/testutils"

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

func newEditor(t *testing.T, opts ...Option) *Editor {
	t.Helper()
	opts = append([]Option{Offline(), WithIDGenerator(seqIDs())}, opts...)
	e, err := New(context.Background(), config.New(), opts...)
	require.NoError(t, err)
	t.Cleanup(e.Close)
	return e
}

func writePNG(t *testing.T, dir, name string, w, h int) string {
	t.Helper()
	return testutils.WritePNG(t, dir, name, w, h, color.White)
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := config.New()
	cfg.Canvas.Width = 0
	_, err := New(context.Background(), cfg, Offline())
	require.Error(t, err)
	assert.True(t, errors.IsInvalidConfig(err))
}

func TestNewUsesServiceFactory(t *testing.T) {
	called := false
	SetServiceFactory(func(ctx context.Context, cfg config.AI) (ai.BackgroundRemover, ai.Generator, error) {
		called = true
		return nil, nil, errors.New("no key")
	})
	defer ResetServiceFactory()

	e, err := New(context.Background(), config.New())
	require.NoError(t, err, "a missing service must not stop the editor opening")
	defer e.Close()
	assert.True(t, called)

	_, err = e.NewDocument(e.DefaultCanvas(), nil)
	require.NoError(t, err)
	id, _ := e.Layers.AddNewLayer()
	_, err = e.AI.RemoveBackground(context.Background(), id)
	assert.True(t, errors.IsServiceError(err))
}

func TestNewFromPreset(t *testing.T) {
	e := newEditor(t)

	bg, err := e.NewFromPreset("instagram story")
	require.NoError(t, err)
	snap := e.Doc.Snapshot()
	require.NotNil(t, snap.Options)
	assert.Equal(t, 1080, snap.Options.Width)
	assert.Equal(t, 1920, snap.Options.Height)
	assert.Equal(t, "#FFFFFF", snap.Options.Background)
	assert.Equal(t, bg, snap.ActiveID)

	_, err = e.NewFromPreset("Billboard")
	require.Error(t, err)
	assert.Equal(t, errors.ConfigNotFound, errors.KindOf(err))
}

func TestPlace(t *testing.T) {
	e := newEditor(t)
	_, err := e.NewDocument(document.CanvasOptions{Width: 100, Height: 80, Background: "#000000"}, nil)
	require.NoError(t, err)

	path := writePNG(t, t.TempDir(), "sticker.png", 20, 10)
	id, r, err := e.Place(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, id, e.Doc.ActiveID())

	select {
	case <-r.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("raster never settled")
	}
	require.Eventually(t, func() bool {
		l, ok := e.Layers.Layer(id)
		return ok && l.Width == 20
	}, 5*time.Second, 10*time.Millisecond)

	l, _ := e.Layers.Layer(id)
	assert.Equal(t, "sticker", l.Name)
	assert.Equal(t, 40.0, l.X)
	assert.Equal(t, 35.0, l.Y)
	assert.Equal(t, 10.0, l.Height)
}

func TestOpenDocument(t *testing.T) {
	e := newEditor(t)
	path := writePNG(t, t.TempDir(), "portrait.png", 30, 50)

	id, err := e.OpenDocument(context.Background(), path)
	require.NoError(t, err)

	snap := e.Doc.Snapshot()
	require.True(t, snap.HasDocument())
	assert.Equal(t, document.CanvasOptions{Width: 30, Height: 50, Background: document.Transparent}, *snap.Options)
	require.Len(t, snap.Layers, 2)
	assert.True(t, snap.Layers[0].Background)

	l := snap.Layers[1]
	assert.Equal(t, id, l.ID)
	assert.Equal(t, id, snap.ActiveID)
	assert.Equal(t, "portrait", l.Name)
	assert.Equal(t, 0.0, l.X)
	assert.Equal(t, 30.0, l.Width)
	assert.Equal(t, 50.0, l.Height)
	assert.Equal(t, raster.Ready, l.Raster.State())
}

func TestOpenDocumentFailures(t *testing.T) {
	e := newEditor(t)
	dir := t.TempDir()

	_, err := e.OpenDocument(context.Background(), filepath.Join(dir, "missing.png"))
	assert.Error(t, err)

	broken := filepath.Join(dir, "broken.png")
	require.NoError(t, os.WriteFile(broken, []byte("not a png"), 0644))
	_, err = e.OpenDocument(context.Background(), broken)
	assert.Error(t, err)
	assert.False(t, e.Doc.Snapshot().HasDocument(), "a failed open leaves the editor at home")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = e.OpenDocument(ctx, writePNG(t, dir, "ok.png", 2, 2))
	assert.Error(t, err)
}

func TestPlaceRejectedByFilter(t *testing.T) {
	e := newEditor(t)
	_, err := e.NewDocument(e.DefaultCanvas(), nil)
	require.NoError(t, err)

	_, _, err = e.Place(context.Background(), "/tmp/notes.txt")
	require.Error(t, err)
	assert.Equal(t, errors.UnsupportedSource, errors.KindOf(err))
	assert.Len(t, e.Layers.Layers(), 1)
}

func TestPlaceWithoutDocument(t *testing.T) {
	e := newEditor(t)
	path := writePNG(t, t.TempDir(), "a.png", 2, 2)
	_, _, err := e.Place(context.Background(), path)
	assert.Error(t, err)
}

func TestApplyConfig(t *testing.T) {
	e := newEditor(t)
	_, err := e.NewDocument(e.DefaultCanvas(), nil)
	require.NoError(t, err)

	cfg := config.New()
	cfg.Import.Patterns = []string{"*.txt"}
	cfg.View.ZoomStep = 0.5
	require.NoError(t, e.ApplyConfig(cfg))
	assert.Same(t, cfg, e.Config())

	_, err = e.Open(context.Background(), "a.png")
	assert.Error(t, err)

	assert.InDelta(t, 1.5, e.Controller.ZoomIn(), 1e-9)

	bad := config.New()
	bad.View.ZoomStep = -1
	assert.Error(t, e.ApplyConfig(bad))
	assert.Same(t, cfg, e.Config())
}

func TestExport(t *testing.T) {
	e := newEditor(t)

	var buf bytes.Buffer
	assert.Error(t, e.Export(&buf), "nothing to export before a document exists")

	_, err := e.NewDocument(document.CanvasOptions{Width: 4, Height: 3, Background: "#FF0000"}, nil)
	require.NoError(t, err)
	id, ok := e.Layers.AddImageLayer("dot", raster.Filled(1, 1, color.NRGBA{B: 255, A: 255}), 1, 1)
	require.True(t, ok)
	require.NotEmpty(t, id)

	path := filepath.Join(t.TempDir(), "out.png")
	require.NoError(t, e.ExportFile(path))

	img := testutils.ReadPNG(t, path)
	assert.Equal(t, image.Rect(0, 0, 4, 3), img.Bounds())
	assert.Equal(t, color.NRGBA{R: 255, A: 255}, testutils.PixelAt(img, 0, 0))
	assert.Equal(t, color.NRGBA{B: 255, A: 255}, testutils.PixelAt(img, 1, 1))
}

func TestExportDoesNotShareTheRetainedSurface(t *testing.T) {
	e := newEditor(t)
	_, err := e.NewDocument(document.CanvasOptions{Width: 32, Height: 32, Background: "#FF0000"}, nil)
	require.NoError(t, err)
	id, ok := e.Layers.AddImageLayer("dot", raster.Filled(4, 4, color.NRGBA{B: 255, A: 255}), 0, 0)
	require.True(t, ok)

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
			}
			e.Layers.UpdateLayer(id, layers.Position(float64(i%28), 0))
			e.Render()
		}
	}()

	for i := 0; i < 20; i++ {
		var buf bytes.Buffer
		require.NoError(t, e.Export(&buf))
		img, err := png.Decode(&buf)
		require.NoError(t, err)
		assert.Equal(t, color.NRGBA{R: 255, A: 255}, testutils.PixelAt(img, 31, 31))
	}
	close(stop)
	wg.Wait()
}

func TestChecker(t *testing.T) {
	e := newEditor(t)
	img := e.Checker(16, 16)
	assert.Equal(t, color.NRGBA{R: 255, G: 255, B: 255, A: 255}, img.NRGBAAt(0, 0))
	assert.Equal(t, color.NRGBA{R: 204, G: 204, B: 204, A: 255}, img.NRGBAAt(8, 0))
}

func TestLayerName(t *testing.T) {
	assert.Equal(t, "photo", LayerName("/home/me/photo.jpeg"))
	assert.Equal(t, "archive.tar", LayerName("archive.tar.gz"))
}
