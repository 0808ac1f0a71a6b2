//go:build !nogui

package gui

import (
	"context"
	"strings"

	"pixed/internal/document"
	"pixed/pkg/types"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

// promptBar is the contextual bar of the fill tool: a prompt, Generate
// and Cancel. It is visible only while the fill tool is active.
type promptBar struct {
	app *App

	entry     *widget.Entry
	generate  *widget.Button
	cancel    *widget.Button
	hint      *widget.Label
	container *fyne.Container

	hasSelection bool
	busy         bool
}

func newPromptBar(a *App) *promptBar {
	p := &promptBar{app: a}

	p.entry = widget.NewEntry()
	p.entry.SetPlaceHolder("Describe what to generate in the selection")
	p.entry.OnChanged = func(string) { p.updateButtons() }
	p.entry.OnSubmitted = func(string) { p.submit() }

	p.generate = widget.NewButtonWithIcon("Generate", theme.ConfirmIcon(), p.submit)
	p.cancel = widget.NewButtonWithIcon("Cancel", theme.CancelIcon(), func() {
		a.ed.AI.CancelFill()
	})
	p.hint = widget.NewLabel("Drag on the canvas to select an area")

	p.container = container.NewBorder(nil, nil, p.hint, container.NewHBox(p.generate, p.cancel), p.entry)
	p.container.Hide()
	return p
}

func (p *promptBar) submit() {
	if !p.ready() {
		return
	}
	if _, err := p.app.ed.AI.GenerativeFill(context.Background(), p.entry.Text); err != nil {
		p.app.ShowError("Generative fill", err)
		return
	}
	p.entry.SetText("")
}

func (p *promptBar) ready() bool {
	return p.hasSelection && !p.busy && strings.TrimSpace(p.entry.Text) != ""
}

func (p *promptBar) updateButtons() {
	setEnabled(p.generate, p.ready())
}

func (p *promptBar) update(snap document.Snapshot) {
	if snap.Tool != types.ToolGenerativeFill {
		p.container.Hide()
		return
	}
	p.hasSelection = snap.Selection != nil && !snap.Selection.Empty()
	p.busy = snap.Busy
	if p.hasSelection {
		p.hint.SetText("Prompt:")
	} else {
		p.hint.SetText("Drag on the canvas to select an area")
	}
	p.updateButtons()
	p.container.Show()
}
