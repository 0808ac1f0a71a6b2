package components

import (
	"pixed/internal/tui/styles"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// StatusBar shows the document status line, with a spinner while an AI
// task holds the busy flag.
type StatusBar struct {
	text    string
	err     bool
	style   lipgloss.Style
	spinner spinner.Model
	loading bool
}

func NewStatusBar() *StatusBar {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.Theme.Help

	return &StatusBar{
		style:   styles.Theme.Help,
		spinner: s,
	}
}

func (s *StatusBar) SetLoading(loading bool) {
	s.loading = loading
}

func (s *StatusBar) Loading() bool {
	return s.loading
}

func (s *StatusBar) SetText(text string) {
	s.text = text
	s.err = false
}

// SetError shows text in the error style until the next SetText.
func (s *StatusBar) SetError(text string) {
	s.text = text
	s.err = true
}

func (s *StatusBar) Text() string {
	return s.text
}

// Tick starts the spinner animation.
func (s *StatusBar) Tick() tea.Msg {
	return s.spinner.Tick()
}

func (s *StatusBar) Update(msg tea.Msg) tea.Cmd {
	if s.loading {
		var cmd tea.Cmd
		s.spinner, cmd = s.spinner.Update(msg)
		return cmd
	}
	return nil
}

func (s *StatusBar) View() string {
	if s.text == "" && !s.loading {
		return ""
	}

	style := s.style
	if s.err {
		style = styles.Theme.Error
	}
	if s.loading {
		return style.Render(s.spinner.View() + " " + s.text)
	}
	return style.Render(s.text)
}

// Copy returns a copy of the StatusBar
func (s *StatusBar) Copy() *StatusBar {
	c := NewStatusBar()
	c.text = s.text
	c.err = s.err
	c.loading = s.loading
	c.spinner = s.spinner
	return c
}
