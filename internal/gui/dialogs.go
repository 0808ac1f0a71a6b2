//go:build !nogui

package gui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"pixed/internal/config"
	"pixed/internal/document"
	"pixed/internal/errors"
	"pixed/pkg/types"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
)

const customPreset = "Custom"

var imageExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".webp", ".bmp"}

// newDocumentForm holds the inputs of the new-document dialog.
type newDocumentForm struct {
	presets     []config.Preset
	preset      *widget.Select
	width       *widget.Entry
	height      *widget.Entry
	background  *widget.Entry
	transparent *widget.Check
}

func newNewDocumentForm(cfg *config.Config) *newDocumentForm {
	f := &newDocumentForm{presets: cfg.Presets}

	f.width = widget.NewEntry()
	f.width.SetText(strconv.Itoa(cfg.Canvas.Width))
	f.height = widget.NewEntry()
	f.height.SetText(strconv.Itoa(cfg.Canvas.Height))

	f.background = widget.NewEntry()
	f.transparent = widget.NewCheck("Transparent", func(on bool) {
		if on {
			f.background.Disable()
		} else {
			f.background.Enable()
		}
	})
	if strings.EqualFold(cfg.Canvas.Background, types.Transparent) {
		f.background.SetText("#FFFFFF")
		f.transparent.SetChecked(true)
	} else {
		f.background.SetText(cfg.Canvas.Background)
	}

	labels := []string{customPreset}
	for _, p := range cfg.Presets {
		labels = append(labels, presetLabel(p))
	}
	f.preset = widget.NewSelect(labels, f.applyPreset)
	f.preset.SetSelected(customPreset)
	return f
}

func presetLabel(p config.Preset) string {
	return fmt.Sprintf("%s (%dx%d)", p.Name, p.Width, p.Height)
}

func (f *newDocumentForm) applyPreset(label string) {
	for _, p := range f.presets {
		if presetLabel(p) == label {
			f.width.SetText(strconv.Itoa(p.Width))
			f.height.SetText(strconv.Itoa(p.Height))
			return
		}
	}
}

func (f *newDocumentForm) items() []*widget.FormItem {
	return []*widget.FormItem{
		widget.NewFormItem("Preset", f.preset),
		widget.NewFormItem("Width", f.width),
		widget.NewFormItem("Height", f.height),
		widget.NewFormItem("Background", f.background),
		widget.NewFormItem("", f.transparent),
	}
}

// options validates the inputs.
func (f *newDocumentForm) options() (document.CanvasOptions, error) {
	w, err := strconv.Atoi(strings.TrimSpace(f.width.Text))
	if err != nil || w <= 0 {
		return document.CanvasOptions{}, errors.NewConfigError("width must be a positive number", "width", errors.InvalidInputData, err)
	}
	h, err := strconv.Atoi(strings.TrimSpace(f.height.Text))
	if err != nil || h <= 0 {
		return document.CanvasOptions{}, errors.NewConfigError("height must be a positive number", "height", errors.InvalidInputData, err)
	}
	bg := strings.TrimSpace(f.background.Text)
	if f.transparent.Checked {
		bg = types.Transparent
	} else if _, _, err := types.ParseColor(bg); err != nil {
		return document.CanvasOptions{}, errors.NewConfigError("background must be a hex colour", "background", errors.InvalidInputData, err)
	}
	return document.CanvasOptions{Width: w, Height: h, Background: bg}, nil
}

func (a *App) showNewDocument() {
	form := newNewDocumentForm(a.ed.Config())
	dialog.ShowForm("New Document", "Create", "Cancel", form.items(), func(confirmed bool) {
		if !confirmed {
			return
		}
		opts, err := form.options()
		if err != nil {
			a.ShowError("New document", err)
			return
		}
		a.ed.AI.CancelAll()
		if _, err := a.ed.NewDocument(opts, nil); err != nil {
			a.ShowError("New document", err)
		}
	}, a.mainWindow)
}

func (a *App) openImageDialog(title string, onPath func(path string)) {
	d := dialog.NewFileOpen(func(r fyne.URIReadCloser, err error) {
		if err != nil {
			a.ShowError(title, err)
			return
		}
		if r == nil {
			return
		}
		path := r.URI().Path()
		r.Close()
		onPath(path)
	}, a.mainWindow)
	d.SetFilter(storage.NewExtensionFileFilter(imageExtensions))
	d.Show()
}

// showOpenImage starts a document from an image file.
func (a *App) showOpenImage() {
	a.openImageDialog("Open image", func(path string) {
		go func() {
			a.ed.Doc.SetBusy(true, "Loading "+path)
			_, err := a.ed.OpenDocument(context.Background(), path)
			a.ed.Doc.SetBusy(false, "")
			if err != nil {
				a.ShowError("Open image", err)
			}
		}()
	})
}

// showPlaceImage adds an image file as a new layer.
func (a *App) showPlaceImage() {
	a.openImageDialog("Place image", func(path string) {
		if _, _, err := a.ed.Place(context.Background(), path); err != nil {
			a.ShowError("Place image", err)
		}
	})
}

func (a *App) showExport() {
	d := dialog.NewFileSave(func(w fyne.URIWriteCloser, err error) {
		if err != nil {
			a.ShowError("Export", err)
			return
		}
		if w == nil {
			return
		}
		defer w.Close()
		if err := a.ed.Export(w); err != nil {
			a.ShowError("Export", err)
			return
		}
		a.ed.Doc.SetStatus("Exported " + w.URI().Name())
	}, a.mainWindow)
	d.SetFileName("image.png")
	d.SetFilter(storage.NewExtensionFileFilter([]string{".png"}))
	d.Show()
}
