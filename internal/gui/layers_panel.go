//go:build !nogui

package gui

import (
	"context"
	"fmt"

	"pixed/internal/document"
	"pixed/internal/layers"
	"pixed/pkg/types"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

// layerPanel lists the stack top-first and edits the active layer.
type layerPanel struct {
	app *App

	// rows is the stack in display order, topmost first.
	rows     []document.Layer
	activeID string
	// syncing suppresses widget callbacks while update pushes state in.
	syncing bool

	list      *widget.List
	name      *widget.Entry
	opacity   *widget.Slider
	blend     *widget.Select
	addBtn    *widget.Button
	dupBtn    *widget.Button
	delBtn    *widget.Button
	upBtn     *widget.Button
	downBtn   *widget.Button
	removeBtn *widget.Button
	container fyne.CanvasObject
}

func newLayerPanel(a *App) *layerPanel {
	p := &layerPanel{app: a}

	p.list = widget.NewList(
		func() int { return len(p.rows) },
		func() fyne.CanvasObject {
			return container.NewHBox(
				widget.NewCheck("", nil),
				widget.NewLabel("Template layer name"),
			)
		},
		p.updateRow,
	)
	p.list.OnSelected = func(id widget.ListItemID) {
		if p.syncing || id < 0 || id >= len(p.rows) {
			return
		}
		p.app.ed.Layers.SetActive(p.rows[id].ID)
	}

	p.name = widget.NewEntry()
	p.name.SetPlaceHolder("Layer name")
	p.name.OnSubmitted = func(s string) {
		if id := p.activeID; id != "" && s != "" {
			p.app.ed.Layers.UpdateLayer(id, layers.Rename(s))
		}
	}

	p.opacity = widget.NewSlider(0, 1)
	p.opacity.Step = 0.01
	p.opacity.OnChanged = func(v float64) {
		if p.syncing || p.activeID == "" {
			return
		}
		p.app.ed.Layers.UpdateLayer(p.activeID, layers.Opacity(v))
	}

	p.blend = widget.NewSelect(blendOptions(), func(s string) {
		if p.syncing || p.activeID == "" {
			return
		}
		mode, err := types.ParseBlendMode(s)
		if err != nil {
			return
		}
		p.app.ed.Layers.UpdateLayer(p.activeID, layers.Blend(mode))
	})

	ed := a.ed
	p.addBtn = widget.NewButtonWithIcon("", theme.ContentAddIcon(), func() { ed.Layers.AddNewLayer() })
	p.dupBtn = widget.NewButtonWithIcon("", theme.ContentCopyIcon(), func() { ed.Layers.DuplicateLayer(p.activeID) })
	p.delBtn = widget.NewButtonWithIcon("", theme.DeleteIcon(), func() { ed.Layers.DeleteLayer(p.activeID) })
	p.upBtn = widget.NewButtonWithIcon("", theme.MoveUpIcon(), func() { ed.Layers.MoveLayer(p.activeID, 1) })
	p.downBtn = widget.NewButtonWithIcon("", theme.MoveDownIcon(), func() { ed.Layers.MoveLayer(p.activeID, -1) })
	p.removeBtn = widget.NewButtonWithIcon("Remove Background", theme.ContentCutIcon(), func() {
		if _, err := ed.AI.RemoveBackground(context.Background(), p.activeID); err != nil {
			a.ShowError("Background removal", err)
		}
	})

	properties := widget.NewForm(
		widget.NewFormItem("Name", p.name),
		widget.NewFormItem("Opacity", p.opacity),
		widget.NewFormItem("Blend", p.blend),
	)

	p.container = container.NewBorder(
		widget.NewLabelWithStyle("Layers", fyne.TextAlignCenter, fyne.TextStyle{Bold: true}),
		container.NewVBox(
			container.NewHBox(p.addBtn, p.dupBtn, p.delBtn, p.upBtn, p.downBtn),
			properties,
			p.removeBtn,
		),
		nil,
		nil,
		p.list,
	)
	return p
}

func blendOptions() []string {
	modes := types.BlendModes()
	out := make([]string, len(modes))
	for i, m := range modes {
		out[i] = m.String()
	}
	return out
}

func (p *layerPanel) updateRow(id widget.ListItemID, obj fyne.CanvasObject) {
	if id < 0 || id >= len(p.rows) {
		return
	}
	l := p.rows[id]
	row := obj.(*fyne.Container)
	check := row.Objects[0].(*widget.Check)
	label := row.Objects[1].(*widget.Label)

	check.OnChanged = nil
	check.SetChecked(l.Visible)
	layerID := l.ID
	check.OnChanged = func(bool) { p.app.ed.Layers.ToggleVisibility(layerID) }

	text := l.Name
	if l.Opacity < 1 {
		text = fmt.Sprintf("%s (%d%%)", l.Name, int(l.Opacity*100+0.5))
	}
	label.SetText(text)
	if l.Background {
		label.TextStyle = fyne.TextStyle{Italic: true}
	} else {
		label.TextStyle = fyne.TextStyle{}
	}
}

func (p *layerPanel) update(snap document.Snapshot) {
	p.syncing = true
	defer func() { p.syncing = false }()

	rows := make([]document.Layer, 0, len(snap.Layers))
	for i := len(snap.Layers) - 1; i >= 0; i-- {
		rows = append(rows, snap.Layers[i])
	}
	p.rows = rows
	p.activeID = snap.ActiveID
	p.list.Refresh()

	selected := -1
	for i, l := range p.rows {
		if l.ID == snap.ActiveID {
			selected = i
		}
	}
	if selected >= 0 {
		p.list.Select(selected)
	} else {
		p.list.UnselectAll()
	}

	active, ok := snap.Active()
	if !ok {
		p.name.SetText("")
		p.opacity.Hide()
		for _, w := range []fyne.Disableable{p.name, p.blend, p.dupBtn, p.delBtn, p.upBtn, p.downBtn, p.removeBtn} {
			w.Disable()
		}
		return
	}

	if p.name.Text != active.Name {
		p.name.SetText(active.Name)
	}
	p.opacity.SetValue(active.Opacity)
	p.blend.SetSelected(active.Blend.String())

	p.name.Enable()
	if active.Background {
		p.opacity.Hide()
	} else {
		p.opacity.Show()
	}
	setEnabled(p.blend, !active.Background)
	setEnabled(p.dupBtn, !active.Background)
	setEnabled(p.delBtn, !active.Background)
	setEnabled(p.upBtn, !active.Background && selected > 0)
	setEnabled(p.downBtn, !active.Background && selected < len(p.rows)-2)
	setEnabled(p.removeBtn, !active.Background && !snap.Busy)
}

func setEnabled(w fyne.Disableable, on bool) {
	if on {
		w.Enable()
	} else {
		w.Disable()
	}
}
