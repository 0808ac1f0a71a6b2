// Package ai bridges the external generative services onto the document:
// background removal on an existing layer and generative fill into the
// current selection. Each request runs as a Task on its own goroutine and
// owns the document's busy flag for its lifetime.
package ai

import "context"

// Image is an encoded image moving to or from a service.
type Image struct {
	MIMEType string
	Data     []byte
}

// Empty reports whether the image carries no data.
func (i *Image) Empty() bool {
	return i == nil || len(i.Data) == 0
}

// BackgroundRemover returns img with its background made transparent. A
// nil result means the service had nothing to return.
type BackgroundRemover interface {
	RemoveBackground(ctx context.Context, img Image) (*Image, error)
}

// Generator synthesises an image from a prompt at roughly the requested
// size. A nil result means the service had nothing to return.
type Generator interface {
	Generate(ctx context.Context, prompt string, width, height int) (*Image, error)
}

// RemoverFunc adapts a function to BackgroundRemover.
type RemoverFunc func(ctx context.Context, img Image) (*Image, error)

// RemoveBackground calls f.
func (f RemoverFunc) RemoveBackground(ctx context.Context, img Image) (*Image, error) {
	return f(ctx, img)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, prompt string, width, height int) (*Image, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, prompt string, width, height int) (*Image, error) {
	return f(ctx, prompt, width, height)
}
