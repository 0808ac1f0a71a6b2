package tui

import (
	"context"
	"fmt"

	"pixed/internal/document"
	"pixed/internal/editor"
	"pixed/internal/layers"
	"pixed/internal/tui/common"
	"pixed/internal/tui/components"
	"pixed/internal/tui/messages"
	"pixed/internal/tui/views"
	"pixed/pkg/types"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

const opacityStep = 0.1

// Model is the terminal layer inspector. It reads the editor's document
// and drives the layer manager, controller and AI coordinator from keys.
type Model struct {
	ed *editor.Editor

	keys   types.KeyMap
	help   help.Model
	status *components.StatusBar

	// changes carries document notifications into the program loop.
	changes chan document.Change
	done    chan struct{}
	unsub   func()

	snap      document.Snapshot
	docStatus string
	rows      []common.Row
	cursor    int
	showHelp  bool
	// grabbed is the layer picked up for a drop onto another row.
	grabbed string
}

func New(ed *editor.Editor) *Model {
	m := &Model{
		ed:      ed,
		keys:    types.DefaultKeyMap(),
		help:    help.New(),
		status:  components.NewStatusBar(),
		changes: make(chan document.Change, 1),
		done:    make(chan struct{}),
	}
	m.unsub = ed.Doc.Subscribe(func(c document.Change) {
		select {
		case m.changes <- c:
		default:
			// A pending notification already triggers a full resync.
		}
	})
	m.sync()
	return m
}

// Close detaches the model from the document.
func (m *Model) Close() {
	select {
	case <-m.done:
		return
	default:
	}
	m.unsub()
	close(m.done)
}

// Init implements tea.Model
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.waitForChange()}
	if m.status.Loading() {
		cmds = append(cmds, m.status.Tick)
	}
	return tea.Batch(cmds...)
}

func (m *Model) waitForChange() tea.Cmd {
	return func() tea.Msg {
		select {
		case c := <-m.changes:
			return messages.DocumentChangedMsg{Change: c}
		case <-m.done:
			return nil
		}
	}
}

// View implements tea.Model
func (m *Model) View() string {
	return views.RenderMainView(m)
}

// Update implements tea.Model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		return m, nil
	case tea.KeyMsg:
		wasLoading := m.status.Loading()
		model, cmd := m.handleKeyMsg(msg)
		if m.status.Loading() && !wasLoading {
			cmd = tea.Batch(cmd, m.status.Tick)
		}
		return model, cmd
	case messages.DocumentChangedMsg:
		wasLoading := m.status.Loading()
		m.sync()
		cmds := []tea.Cmd{m.waitForChange()}
		if m.status.Loading() && !wasLoading {
			cmds = append(cmds, m.status.Tick)
		}
		return m, tea.Batch(cmds...)
	case messages.TaskDoneMsg:
		if msg.Err != nil {
			m.status.SetError(fmt.Sprintf("%s failed: %v", msg.Kind, msg.Err))
		}
		return m, nil
	case messages.ErrorMsg:
		m.status.SetError(msg.Err.Error())
		return m, nil
	case spinner.TickMsg:
		return m, m.status.Update(msg)
	}
	return m, nil
}

// sync rebuilds the rows from the current document, keeping the cursor on
// the same layer when it still exists.
func (m *Model) sync() {
	var current string
	if m.cursor >= 0 && m.cursor < len(m.rows) {
		current = m.rows[m.cursor].ID
	}

	m.snap = m.ed.Doc.Snapshot()
	rows := make([]common.Row, 0, len(m.snap.Layers))
	for i := len(m.snap.Layers) - 1; i >= 0; i-- {
		rows = append(rows, toRow(m.snap.Layers[i], m.snap.ActiveID))
	}
	m.rows = rows

	m.cursor = clamp(m.cursor, len(rows))
	held := false
	for i, r := range rows {
		if r.ID == current {
			m.cursor = i
		}
		if r.ID == m.grabbed {
			held = true
		}
	}
	if !held {
		m.grabbed = ""
	}

	m.status.SetLoading(m.snap.Busy)
	if m.snap.Status != m.docStatus {
		m.docStatus = m.snap.Status
		m.status.SetText(m.snap.Status)
	}
}

func toRow(l document.Layer, activeID string) common.Row {
	r := common.Row{
		ID:         l.ID,
		Name:       l.Name,
		Visible:    l.Visible,
		Active:     l.ID == activeID,
		Background: l.Background,
		Opacity:    l.Opacity,
		Blend:      l.Blend.String(),
		Width:      int(l.Width + 0.5),
		Height:     int(l.Height + 0.5),
		Raster:     "empty",
	}
	if l.Raster != nil {
		r.Raster = l.Raster.State().String()
	}
	return r
}

func clamp(i, n int) int {
	if i >= n {
		i = n - 1
	}
	if i < 0 {
		i = 0
	}
	return i
}

// focus resyncs and puts the cursor on layer id.
func (m *Model) focus(id string) {
	m.sync()
	for i, r := range m.rows {
		if r.ID == id {
			m.cursor = i
			return
		}
	}
}

func (m *Model) current() (common.Row, bool) {
	if m.cursor >= 0 && m.cursor < len(m.rows) {
		return m.rows[m.cursor], true
	}
	return common.Row{}, false
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		m.help.ShowAll = m.showHelp
		return m, nil
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}
		return m, nil
	case key.Matches(msg, m.keys.NewLayer):
		if !m.snap.HasDocument() {
			if _, err := m.ed.NewDocument(m.ed.DefaultCanvas(), nil); err != nil {
				m.status.SetError(err.Error())
			}
		} else {
			if id, ok := m.ed.Layers.AddNewLayer(); ok {
				m.focus(id)
			}
		}
	case key.Matches(msg, m.keys.ZoomIn):
		m.ed.Controller.ZoomIn()
	case key.Matches(msg, m.keys.ZoomOut):
		m.ed.Controller.ZoomOut()
	case key.Matches(msg, m.keys.ZoomReset):
		m.ed.Controller.ZoomReset()
	default:
		row, ok := m.current()
		if !ok {
			return m, nil
		}
		cmd := m.handleLayerKey(msg, row)
		m.sync()
		return m, cmd
	}
	m.sync()
	return m, nil
}

// handleLayerKey applies a layer action to the row under the cursor.
func (m *Model) handleLayerKey(msg tea.KeyMsg, row common.Row) tea.Cmd {
	lm := m.ed.Layers
	switch {
	case key.Matches(msg, m.keys.Activate):
		lm.SetActive(row.ID)
	case key.Matches(msg, m.keys.Visibility):
		lm.ToggleVisibility(row.ID)
	case key.Matches(msg, m.keys.Duplicate):
		if id, ok := lm.DuplicateLayer(row.ID); ok {
			m.focus(id)
		}
	case key.Matches(msg, m.keys.Delete):
		lm.DeleteLayer(row.ID)
	case key.Matches(msg, m.keys.RaiseLayer):
		lm.MoveLayer(row.ID, 1)
	case key.Matches(msg, m.keys.LowerLayer):
		lm.MoveLayer(row.ID, -1)
	case key.Matches(msg, m.keys.OpacityUp):
		lm.UpdateLayer(row.ID, layers.Opacity(row.Opacity+opacityStep))
	case key.Matches(msg, m.keys.OpacityDn):
		lm.UpdateLayer(row.ID, layers.Opacity(row.Opacity-opacityStep))
	case key.Matches(msg, m.keys.NextBlend):
		lm.UpdateLayer(row.ID, layers.Blend(nextBlend(row.Blend)))
	case key.Matches(msg, m.keys.Grab):
		m.grab(row)
	case key.Matches(msg, m.keys.RemoveBg):
		return m.removeBackground(row.ID)
	}
	return nil
}

// grab picks up row, or drops the held layer onto row.
func (m *Model) grab(row common.Row) {
	if m.grabbed == "" {
		if row.Background {
			m.status.SetError("the background layer cannot be moved")
			return
		}
		m.grabbed = row.ID
		m.status.SetText(fmt.Sprintf("Moving %s: pick a target and press m", row.Name))
		return
	}
	id := m.grabbed
	m.grabbed = ""
	m.status.SetText("")
	if m.ed.Layers.ReorderLayers(id, row.ID) {
		m.focus(id)
	}
}

func nextBlend(current string) types.BlendMode {
	modes := types.BlendModes()
	mode, err := types.ParseBlendMode(current)
	if err != nil {
		return modes[0]
	}
	for i, b := range modes {
		if b == mode {
			return modes[(i+1)%len(modes)]
		}
	}
	return modes[0]
}

func (m *Model) removeBackground(id string) tea.Cmd {
	task, err := m.ed.AI.RemoveBackground(context.Background(), id)
	if err != nil {
		return func() tea.Msg { return messages.ErrorMsg{Err: err} }
	}
	return func() tea.Msg {
		err := task.Wait()
		return messages.TaskDoneMsg{ID: task.ID(), Kind: task.Kind().String(), Err: err}
	}
}

// HasDocument reports whether a canvas exists.
func (m *Model) HasDocument() bool {
	return m.snap.HasDocument()
}

// Canvas describes the canvas size and background.
func (m *Model) Canvas() string {
	if m.snap.Options == nil {
		return ""
	}
	o := m.snap.Options
	return fmt.Sprintf("%dx%d %s", o.Width, o.Height, o.Background)
}

func (m *Model) Rows() []common.Row {
	return m.rows
}

func (m *Model) Cursor() int {
	return m.cursor
}

func (m *Model) Zoom() float64 {
	return m.snap.Zoom
}

// Grabbed returns the id of the layer waiting to be dropped, or "".
func (m *Model) Grabbed() string {
	return m.grabbed
}

func (m *Model) ShowHelp() bool {
	return m.showHelp
}

func (m *Model) HelpView() string {
	return m.help.View(m.keys)
}

func (m *Model) StatusView() string {
	return m.status.View()
}

// Run starts the inspector on ed and blocks until the user quits.
func Run(ed *editor.Editor) error {
	m := New(ed)
	defer m.Close()
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
