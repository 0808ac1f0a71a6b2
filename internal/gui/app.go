//go:build !nogui

package gui

import (
	"context"
	"image/color"
	"sync"

	"pixed/internal/document"
	"pixed/internal/editor"
	"pixed/internal/log"
	"pixed/internal/watch"
	"pixed/pkg/types"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

// App is the GUI application
type App struct {
	fyneApp    fyne.App
	mainWindow fyne.Window
	ed         *editor.Editor
	watcher    *watch.Watcher

	// uiMu serialises widget updates coming from document listeners and
	// from the UI thread.
	uiMu      sync.Mutex
	closeOnce sync.Once
	redraw    chan struct{}
	stop      chan struct{}
	unsub     func()
	editing   bool
	home      fyne.CanvasObject
	workarea  fyne.CanvasObject

	surface    *surfaceView
	layers     *layerPanel
	prompt     *promptBar
	statusText *widget.Label
	zoomText   *widget.Label
	progress   *widget.ProgressBarInfinite

	accentColor color.NRGBA
}

// Option configures NewApp.
type Option func(*App)

// WithFyneApp runs the GUI on an existing fyne application, such as the
// one returned by fyne.io/fyne/v2/test.NewApp.
func WithFyneApp(a fyne.App) Option {
	return func(g *App) { g.fyneApp = a }
}

// WithConfigWatcher applies configuration reloads delivered by w.
func WithConfigWatcher(w *watch.Watcher) Option {
	return func(g *App) { g.watcher = w }
}

// NewApp creates a new GUI application around ed.
func NewApp(ed *editor.Editor, opts ...Option) *App {
	a := &App{
		ed:          ed,
		redraw:      make(chan struct{}, 1),
		stop:        make(chan struct{}),
		accentColor: color.NRGBA{R: 255, G: 165, B: 0, A: 255},
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.fyneApp == nil {
		// Create app with a unique ID for preferences storage
		a.fyneApp = app.NewWithID("io.github.pixed")
	}

	a.mainWindow = a.fyneApp.NewWindow("Pixed")
	a.mainWindow.Resize(fyne.NewSize(1200, 800))

	a.setupMainWindow()
	a.unsub = ed.Doc.Subscribe(func(document.Change) { a.requestRefresh() })
	go a.refreshLoop()
	if a.watcher != nil {
		go a.watchConfig()
	}
	a.refresh()
	return a
}

// GetMainWindow returns the main window instance
func (a *App) GetMainWindow() fyne.Window {
	return a.mainWindow
}

// Run starts the GUI application
func (a *App) Run() {
	a.mainWindow.SetOnClosed(a.Close)
	a.mainWindow.Show()
	a.fyneApp.Run()
}

// Close stops background work and cancels outstanding AI requests.
func (a *App) Close() {
	a.closeOnce.Do(func() {
		close(a.stop)
		a.unsub()
		if a.watcher != nil {
			a.watcher.Stop()
		}
		a.ed.Close()
	})
}

// setupMainWindow builds the home screen and the editing work area. Only
// one of them is shown at a time.
func (a *App) setupMainWindow() {
	a.surface = newSurfaceView(a.ed)
	a.layers = newLayerPanel(a)
	a.prompt = newPromptBar(a)

	a.statusText = widget.NewLabel("")
	a.zoomText = widget.NewLabel("100%")
	a.progress = widget.NewProgressBarInfinite()
	a.progress.Hide()

	split := container.NewHSplit(container.NewScroll(a.surface), a.layers.container)
	split.Offset = 0.75

	a.home = a.createHome()
	a.workarea = container.NewBorder(
		container.NewVBox(a.createToolbar(), a.prompt.container, canvas.NewLine(a.accentColor)),
		a.createStatusBar(),
		nil,
		nil,
		split,
	)

	a.mainWindow.SetContent(a.home)
	a.setupShortcuts()
}

func (a *App) createHome() fyne.CanvasObject {
	title := canvas.NewText("Pixed", a.accentColor)
	title.TextSize = 42
	title.TextStyle.Bold = true
	title.Alignment = fyne.TextAlignCenter

	newButton := widget.NewButtonWithIcon("New Document", theme.DocumentCreateIcon(), a.showNewDocument)
	openButton := widget.NewButtonWithIcon("Open Image", theme.FolderOpenIcon(), a.showOpenImage)

	return container.NewCenter(container.NewVBox(
		title,
		widget.NewLabelWithStyle("Layered image editing with AI assistance", fyne.TextAlignCenter, fyne.TextStyle{Italic: true}),
		newButton,
		openButton,
	))
}

func (a *App) createToolbar() fyne.CanvasObject {
	return widget.NewToolbar(
		widget.NewToolbarAction(theme.HomeIcon(), a.goHome),
		widget.NewToolbarAction(theme.DocumentCreateIcon(), a.showNewDocument),
		widget.NewToolbarAction(theme.FolderOpenIcon(), a.showPlaceImage),
		widget.NewToolbarAction(theme.DocumentSaveIcon(), a.showExport),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.ViewFullScreenIcon(), func() { a.selectTool(types.ToolMove) }),
		widget.NewToolbarAction(theme.ColorPaletteIcon(), func() { a.selectTool(types.ToolGenerativeFill) }),
		widget.NewToolbarAction(theme.ContentCutIcon(), a.removeBackground),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.ZoomOutIcon(), func() { a.ed.Controller.ZoomOut() }),
		widget.NewToolbarAction(theme.ZoomFitIcon(), func() { a.ed.Controller.ZoomReset() }),
		widget.NewToolbarAction(theme.ZoomInIcon(), func() { a.ed.Controller.ZoomIn() }),
		widget.NewToolbarSpacer(),
		widget.NewToolbarAction(theme.HelpIcon(), func() {
			dialog.ShowInformation("About Pixed",
				"Pixed composites image layers with opacity and blend modes.\n"+
					"Use the fill tool to select an area and generate content,\n"+
					"or remove the background of the active layer.",
				a.mainWindow)
		}),
	)
}

// createStatusBar creates a status bar to display the zoom level and the
// status of AI requests
func (a *App) createStatusBar() fyne.CanvasObject {
	return container.NewHBox(
		a.statusText,
		a.progress,
		layout.NewSpacer(),
		a.zoomText,
	)
}

func (a *App) setupShortcuts() {
	c := a.mainWindow.Canvas()
	zoom := map[fyne.KeyName]func() float64{
		fyne.KeyEqual: a.ed.Controller.ZoomIn,
		fyne.KeyMinus: a.ed.Controller.ZoomOut,
		fyne.Key0:     a.ed.Controller.ZoomReset,
	}
	for key, fn := range zoom {
		fn := fn
		c.AddShortcut(&desktop.CustomShortcut{KeyName: key, Modifier: fyne.KeyModifierShortcutDefault}, func(fyne.Shortcut) {
			fn()
		})
	}
	c.SetOnTypedKey(func(ev *fyne.KeyEvent) {
		switch ev.Name {
		case fyne.KeyEscape:
			if a.ed.Doc.Tool() == types.ToolGenerativeFill {
				a.ed.AI.CancelFill()
			}
		case fyne.KeyDelete:
			if id := a.ed.Doc.ActiveID(); id != "" {
				a.ed.Layers.DeleteLayer(id)
			}
		}
	})
}

func (a *App) selectTool(t types.Tool) {
	a.ed.Doc.SetTool(t)
}

func (a *App) removeBackground() {
	a.ed.Doc.SetTool(types.ToolRemoveBackground)
	if _, err := a.ed.AI.RemoveBackgroundActive(context.Background()); err != nil {
		a.ShowError("Background removal", err)
	}
}

func (a *App) goHome() {
	if !a.ed.Doc.Snapshot().HasDocument() {
		return
	}
	dialog.ShowConfirm("Close Document",
		"Discard the current document and return to the start screen?",
		func(confirmed bool) {
			if confirmed {
				a.ed.AI.CancelAll()
				a.ed.Layers.Reset()
			}
		},
		a.mainWindow)
}

func (a *App) requestRefresh() {
	select {
	case a.redraw <- struct{}{}:
	default:
	}
}

func (a *App) refreshLoop() {
	for {
		select {
		case <-a.redraw:
			a.refresh()
		case <-a.stop:
			return
		}
	}
}

// refresh brings every widget up to date with the document.
func (a *App) refresh() {
	a.uiMu.Lock()
	defer a.uiMu.Unlock()

	snap := a.ed.Doc.Snapshot()
	if snap.HasDocument() != a.editing {
		a.editing = snap.HasDocument()
		if a.editing {
			a.mainWindow.SetContent(a.workarea)
		} else {
			a.mainWindow.SetContent(a.home)
		}
	}
	if !a.editing {
		return
	}

	a.surface.update(snap)
	a.layers.update(snap)
	a.prompt.update(snap)

	a.zoomText.SetText(formatZoom(snap.Zoom))
	a.statusText.SetText(snap.Status)
	if snap.Busy {
		a.progress.Show()
		a.progress.Start()
	} else {
		a.progress.Stop()
		a.progress.Hide()
	}
}

func (a *App) watchConfig() {
	for r := range a.watcher.Reloads() {
		if r.Err != nil {
			log.LogWithError(r.Err).Warn("Ignoring invalid configuration")
			a.ed.Doc.SetStatus("Configuration error: " + r.Err.Error())
			continue
		}
		if err := a.ed.ApplyConfig(r.Config); err != nil {
			log.LogWithError(err).Warn("Could not apply configuration")
			continue
		}
		a.surface.invalidate()
		a.requestRefresh()
	}
}

// ShowError displays an error dialog
func (a *App) ShowError(title string, err error) {
	if err == nil {
		return
	}
	log.LogWithError(err).Warn(title)
	dialog.ShowError(err, a.mainWindow)
}

// ShowInfo displays an information dialog
func (a *App) ShowInfo(message string) {
	dialog.ShowInformation("Information", message, a.mainWindow)
}
