//go:build !nogui

package gui

import (
	"fmt"

	"pixed/internal/editor"
)

// Interface defines the contract for GUI operations
type Interface interface {
	Run()
	Close()
	ShowError(title string, err error)
	ShowInfo(message string)
}

// Factory creates GUI instances
type Factory struct {
	ed   *editor.Editor
	opts []Option
}

// NewFactory creates a new GUI factory
func NewFactory(ed *editor.Editor, opts ...Option) *Factory {
	return &Factory{ed: ed, opts: opts}
}

// Create returns a new GUI instance
func (f *Factory) Create() (Interface, error) {
	if f.ed == nil {
		return nil, fmt.Errorf("no editor to display")
	}
	return NewApp(f.ed, f.opts...), nil
}

func formatZoom(z float64) string {
	return fmt.Sprintf("%.0f%%", z*100)
}
