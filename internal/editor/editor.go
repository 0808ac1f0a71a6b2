// Package editor wires one document to its layer manager, compositor,
// pointer controller and AI coordinator, configured from a Config. Front
// ends (GUI, TUI, command line) drive an Editor rather than the parts.
package editor

import (
	"context"
	"image"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"pixed/internal/ai"
	"pixed/internal/compositor"
	"pixed/internal/config"
	"pixed/internal/document"
	"pixed/internal/errors"
	"pixed/internal/interaction"
	"pixed/internal/layers"
	"pixed/internal/log"
	"pixed/internal/raster"
)

// Editor is an open editing session.
type Editor struct {
	Doc        *document.Document
	Layers     *layers.Manager
	Compositor *compositor.Compositor
	Controller *interaction.Controller
	AI         *ai.Coordinator

	mu     sync.RWMutex
	cfg    *config.Config
	filter *raster.SourceFilter
	log    *log.Logger
}

type options struct {
	remover   ai.BackgroundRemover
	generator ai.Generator
	ids       document.IDGenerator
	logger    *log.Logger
	offline   bool
}

// Option configures New.
type Option func(*options)

// WithServices uses the given AI services instead of the factory.
func WithServices(remover ai.BackgroundRemover, generator ai.Generator) Option {
	return func(o *options) {
		o.remover, o.generator = remover, generator
	}
}

// Offline disables the AI services. Requests are rejected.
func Offline() Option {
	return func(o *options) { o.offline = true }
}

// WithIDGenerator overrides document id generation.
func WithIDGenerator(gen document.IDGenerator) Option {
	return func(o *options) { o.ids = gen }
}

// WithLogger sets the session logger.
func WithLogger(l *log.Logger) Option {
	return func(o *options) { o.logger = l }
}

// New builds an editor from cfg. When no services are supplied the
// CurrentServiceFactory is asked for them; if that fails the editor still
// opens with AI requests disabled.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*Editor, error) {
	if cfg == nil {
		cfg = config.New()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := options{logger: log.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	filter, err := raster.NewSourceFilter(cfg.Import.Patterns)
	if err != nil {
		return nil, err
	}

	docOpts := []document.Option{document.WithLogger(o.logger)}
	if o.ids != nil {
		docOpts = append(docOpts, document.WithIDGenerator(o.ids))
	}
	doc := document.New(docOpts...)
	m := layers.NewManager(doc)

	e := &Editor{
		Doc:        doc,
		Layers:     m,
		Compositor: compositor.New(),
		Controller: interaction.New(m, interaction.WithZoomStep(cfg.View.ZoomStep)),
		cfg:        cfg,
		filter:     filter,
		log:        o.logger.With(log.F("component", "editor")),
	}

	if !o.offline && o.remover == nil && o.generator == nil {
		o.remover, o.generator, err = CurrentServiceFactory(ctx, cfg.AI)
		if err != nil {
			e.log.WithError(err).Warn("AI services unavailable")
		}
	}
	e.AI = ai.New(m, o.remover, o.generator, ai.WithTimeout(cfg.Timeout()))
	return e, nil
}

// Config returns the active configuration.
func (e *Editor) Config() *config.Config {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.cfg
}

// ApplyConfig swaps in a reloaded configuration. Import patterns and view
// settings take effect at once; the open document is left alone.
func (e *Editor) ApplyConfig(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	filter, err := raster.NewSourceFilter(cfg.Import.Patterns)
	if err != nil {
		return err
	}
	e.mu.Lock()
	e.cfg = cfg
	e.filter = filter
	e.mu.Unlock()
	e.Controller.SetZoomStep(cfg.View.ZoomStep)
	e.log.Info("configuration reloaded")
	return nil
}

// DefaultCanvas returns the configured new-document options.
func (e *Editor) DefaultCanvas() document.CanvasOptions {
	c := e.Config().Canvas
	return document.CanvasOptions{Width: c.Width, Height: c.Height, Background: c.Background}
}

// NewDocument starts a document, optionally seeded with an image layer.
func (e *Editor) NewDocument(opts document.CanvasOptions, initial *raster.Handle) (string, error) {
	return e.Layers.CreateDocument(opts, initial)
}

// NewFromPreset starts a document sized by the named preset, keeping the
// configured default background.
func (e *Editor) NewFromPreset(name string) (string, error) {
	p, ok := e.Config().FindPreset(name)
	if !ok {
		return "", errors.NewConfigError("unknown preset", name, errors.ConfigNotFound, nil)
	}
	opts := e.DefaultCanvas()
	opts.Width, opts.Height = p.Width, p.Height
	return e.NewDocument(opts, nil)
}

// Open starts decoding path if the import filter accepts it.
func (e *Editor) Open(ctx context.Context, path string) (*raster.Handle, error) {
	e.mu.RLock()
	filter := e.filter
	e.mu.RUnlock()
	if err := filter.Check(path); err != nil {
		return nil, err
	}
	return raster.Open(ctx, path), nil
}

// Place opens path and adds it as a new active layer named after the file.
func (e *Editor) Place(ctx context.Context, path string) (string, *raster.Handle, error) {
	r, err := e.Open(ctx, path)
	if err != nil {
		return "", nil, err
	}
	id := e.Layers.PlaceImage(r, LayerName(path))
	if id == "" {
		r.Release()
		return "", nil, errors.New("no document open")
	}
	return id, r, nil
}

// OpenDocument decodes path and starts a transparent document the size of
// the image, with the image as its first layer. It blocks until decoding
// finishes.
func (e *Editor) OpenDocument(ctx context.Context, path string) (string, error) {
	r, err := e.Open(ctx, path)
	if err != nil {
		return "", err
	}
	select {
	case <-r.Done():
	case <-ctx.Done():
		return "", ctx.Err()
	}
	w, h, ok := r.Size()
	if !ok {
		return "", r.Err()
	}
	if _, err := e.NewDocument(document.CanvasOptions{Width: w, Height: h, Background: document.Transparent}, nil); err != nil {
		return "", err
	}
	id, ok := e.Layers.AddImageLayer(LayerName(path), r, 0, 0)
	if !ok {
		return "", errors.NewLayerError("could not add image layer", path, errors.RasterNotReady, nil)
	}
	return id, nil
}

// LayerName derives a layer name from a file path.
func LayerName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Render brings the compositor up to date and returns the surface.
func (e *Editor) Render() *image.NRGBA {
	surface, _ := e.Compositor.Render(e.Doc.Snapshot())
	return surface
}

// Checker returns the transparency pattern for a w x h view.
func (e *Editor) Checker(w, h int) *image.NRGBA {
	v := e.Config().View
	light, _, err := config.ParseColor(v.CheckerLight)
	if err != nil {
		light = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	}
	dark, _, err := config.ParseColor(v.CheckerDark)
	if err != nil {
		dark = color.NRGBA{R: 204, G: 204, B: 204, A: 255}
	}
	return compositor.Checkerboard(w, h, v.CheckerSize, light, dark)
}

// Export writes the composited document as PNG. It paints a fresh surface
// so a concurrent redraw of the retained one cannot tear the output.
func (e *Editor) Export(w io.Writer) error {
	snap := e.Doc.Snapshot()
	surface := compositor.Composite(&snap.State)
	if surface == nil {
		return errors.New("no document open")
	}
	return raster.EncodePNG(w, surface)
}

// ExportFile writes the composited document to path as PNG.
func (e *Editor) ExportFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", path)
	}
	if err := e.Export(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return errors.Wrapf(err, "failed to write %s", path)
	}
	e.log.With(log.F("path", path)).Info("document exported")
	return nil
}

// Close cancels outstanding AI work and waits for it to unwind.
func (e *Editor) Close() {
	e.AI.CancelAll()
	e.AI.Wait()
}
