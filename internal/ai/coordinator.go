package ai

import (
	"context"
	"math"
	"strings"
	"sync"
	"time"

	"pixed/internal/document"
	"pixed/internal/errors"
	"pixed/internal/layers"
	"pixed/internal/log"
	"pixed/internal/raster"
	"pixed/pkg/types"
)

// Status lines shown while a request runs and when it fails.
const (
	StatusRemoving       = "Removing background with AI..."
	StatusRemoveFailed   = "Error removing background"
	StatusGenerating     = "Generating image with AI..."
	StatusGenerateFailed = "Error generating image"
)

// FillNamePrefix starts the name of every generated layer.
const FillNamePrefix = "Fill: "

const fillNameRunes = 15

// DefaultTimeout bounds a single service call.
const DefaultTimeout = 2 * time.Minute

// Coordinator runs service requests against a document. Results are
// applied to their target unconditionally unless the task was cancelled;
// a target deleted in the meantime turns the update into a no-op. Requests
// are not serialised, so two removals on one layer race and the last
// response wins.
type Coordinator struct {
	doc       *document.Document
	layers    *layers.Manager
	remover   BackgroundRemover
	generator Generator
	timeout   time.Duration
	log       *log.Logger

	mu    sync.Mutex
	tasks map[string]*Task
	wg    sync.WaitGroup
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithTimeout bounds each service call.
func WithTimeout(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// New returns a Coordinator. Either service may be nil, in which case the
// matching request is rejected.
func New(m *layers.Manager, remover BackgroundRemover, generator Generator, opts ...Option) *Coordinator {
	c := &Coordinator{
		doc:       m.Document(),
		layers:    m,
		remover:   remover,
		generator: generator,
		timeout:   DefaultTimeout,
		log:       m.Document().Logger().With(log.F("component", "ai")),
		tasks:     make(map[string]*Task),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RemoveBackground sends layerID's current pixels to the remover and, on
// success, swaps in the result at the same position. The Background layer,
// unknown layers and layers still loading are rejected up front.
func (c *Coordinator) RemoveBackground(ctx context.Context, layerID string) (*Task, error) {
	if c.remover == nil {
		return nil, errors.NewServiceError("background removal is not configured", KindRemoveBackground.String(), errors.ServiceFailed, nil)
	}
	l, ok := c.layers.Layer(layerID)
	if !ok {
		return nil, errors.NewLayerError("layer not found", layerID, errors.LayerNotFound, nil)
	}
	if l.Background {
		return nil, errors.NewLayerError("cannot remove the background of the background layer", layerID, errors.PinnedLayer, nil)
	}
	if l.Raster == nil {
		return nil, errors.NewLayerError("layer raster is not loaded", layerID, errors.RasterNotReady, nil)
	}
	png, err := l.Raster.PNG()
	if err != nil {
		return nil, errors.NewLayerError("layer raster is not loaded", layerID, errors.RasterNotReady, err)
	}

	task := c.start(ctx, KindRemoveBackground, layerID)
	c.doc.SetBusy(true, StatusRemoving)
	go c.runRemoval(task, Image{MIMEType: "image/png", Data: png})
	return task, nil
}

// RemoveBackgroundActive removes the background of the active layer.
func (c *Coordinator) RemoveBackgroundActive(ctx context.Context) (*Task, error) {
	return c.RemoveBackground(ctx, c.doc.ActiveID())
}

func (c *Coordinator) runRemoval(task *Task, img Image) {
	ctx := task.ctx
	defer c.end(task)
	tl := c.log.With(log.F("task", task.id), log.F("operation", task.kind.String()), log.F("layer", task.target))
	tl.Info("removing background")

	out, err := c.remover.RemoveBackground(ctx, img)
	if task.Canceled() {
		c.doc.SetBusy(false, "")
		task.finish("", errors.NewServiceError("task cancelled", task.kind.String(), errors.TaskCanceled, ctx.Err()))
		return
	}
	if err == nil && out.Empty() {
		err = errors.NewServiceError("service returned no image", task.kind.String(), errors.EmptyResult, nil)
	}
	var h *raster.Handle
	if err == nil {
		h = raster.DecodeBytes(out.Data, task.kind.String())
		err = h.Err()
	}
	if err != nil {
		err = asServiceError(err, "background removal failed", task.kind)
		tl.WithError(err).Error("background removal failed")
		c.doc.SetBusy(false, StatusRemoveFailed)
		task.finish("", err)
		return
	}

	applied := ""
	if c.layers.ReplaceRaster(task.target, h) {
		applied = task.target
	} else {
		tl.Warn("target layer is gone, result dropped")
	}
	c.doc.SetBusy(false, "")
	tl.Info("background removed")
	task.finish(applied, nil)
}

// GenerativeFill asks the generator for an image matching the selection
// and inserts it as a new active layer at the selection's corner, sized to
// whatever the service returned. Success or failure, the selection is
// cleared and the Move tool restored.
func (c *Coordinator) GenerativeFill(ctx context.Context, prompt string) (*Task, error) {
	if c.generator == nil {
		return nil, errors.NewServiceError("generative fill is not configured", KindGenerativeFill.String(), errors.ServiceFailed, nil)
	}
	if strings.TrimSpace(prompt) == "" {
		return nil, errors.ErrEmptyPrompt
	}
	sel := c.doc.Selection()
	if sel == nil || sel.Empty() {
		return nil, errors.ErrNoSelection
	}

	task := c.start(ctx, KindGenerativeFill, "")
	c.doc.SetBusy(true, StatusGenerating)
	go c.runFill(task, prompt, *sel)
	return task, nil
}

func (c *Coordinator) runFill(task *Task, prompt string, sel types.Rect) {
	ctx := task.ctx
	defer c.end(task)
	w, h := int(math.Round(sel.Width)), int(math.Round(sel.Height))
	tl := c.log.With(log.F("task", task.id), log.F("operation", task.kind.String()), log.F("width", w), log.F("height", h))
	tl.Info("generating fill")

	out, err := c.generator.Generate(ctx, prompt, w, h)
	if task.Canceled() {
		c.finishFill("")
		task.finish("", errors.NewServiceError("task cancelled", task.kind.String(), errors.TaskCanceled, ctx.Err()))
		return
	}
	if err == nil && out.Empty() {
		err = errors.NewServiceError("service returned no image", task.kind.String(), errors.EmptyResult, nil)
	}
	var r *raster.Handle
	if err == nil {
		r = raster.DecodeBytes(out.Data, task.kind.String())
		err = r.Err()
	}
	if err != nil {
		err = asServiceError(err, "generative fill failed", task.kind)
		tl.WithError(err).Error("generative fill failed")
		c.finishFill(StatusGenerateFailed)
		task.finish("", err)
		return
	}

	id, _ := c.layers.AddImageLayer(FillName(prompt), r, sel.X, sel.Y)
	c.finishFill("")
	tl.With(log.F("layer", id)).Info("fill layer added")
	task.finish(id, nil)
}

func (c *Coordinator) finishFill(status string) {
	c.doc.SetSelection(nil)
	c.doc.SetTool(types.ToolMove)
	c.doc.SetBusy(false, status)
}

// CancelFill abandons a pending selection: it clears the selection and
// restores the Move tool.
func (c *Coordinator) CancelFill() {
	c.doc.SetSelection(nil)
	c.doc.SetTool(types.ToolMove)
}

// FillName names a generated layer after the first characters of prompt.
func FillName(prompt string) string {
	r := []rune(prompt)
	if len(r) > fillNameRunes {
		r = r[:fillNameRunes]
	}
	return FillNamePrefix + string(r)
}

func asServiceError(err error, msg string, kind Kind) error {
	if errors.IsServiceError(err) {
		return err
	}
	return errors.NewServiceError(msg, kind.String(), errors.ServiceFailed, err)
}

func (c *Coordinator) start(parent context.Context, kind Kind, target string) *Task {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithTimeout(parent, c.timeout)
	task := newTask(ctx, cancel, c.doc.NewID("task"), kind, target)

	c.mu.Lock()
	c.tasks[task.id] = task
	c.mu.Unlock()
	c.wg.Add(1)
	return task
}

func (c *Coordinator) end(task *Task) {
	c.mu.Lock()
	delete(c.tasks, task.id)
	c.mu.Unlock()
	c.wg.Done()
}

// Pending returns the tasks still in flight.
func (c *Coordinator) Pending() []*Task {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*Task, 0, len(c.tasks))
	for _, t := range c.tasks {
		out = append(out, t)
	}
	return out
}

// CancelAll cancels every task in flight.
func (c *Coordinator) CancelAll() {
	for _, t := range c.Pending() {
		t.Cancel()
	}
}

// Wait blocks until every started task has finished.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}
