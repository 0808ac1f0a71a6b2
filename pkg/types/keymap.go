package types

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the keybindings of the terminal layer inspector.
type KeyMap struct {
	// General
	Help key.Binding
	Quit key.Binding

	// Navigation
	Up   key.Binding
	Down key.Binding

	// Layer actions
	Activate   key.Binding
	Visibility key.Binding
	NewLayer   key.Binding
	Duplicate  key.Binding
	Delete     key.Binding
	RaiseLayer key.Binding
	LowerLayer key.Binding
	Grab       key.Binding
	OpacityUp  key.Binding
	OpacityDn  key.Binding
	NextBlend  key.Binding
	RemoveBg   key.Binding

	// View
	ZoomIn    key.Binding
	ZoomOut   key.Binding
	ZoomReset key.Binding
}

// DefaultKeyMap returns the standard bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Help:       key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Up:         key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "up")),
		Down:       key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "down")),
		Activate:   key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "make active")),
		Visibility: key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "toggle visibility")),
		NewLayer:   key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new layer")),
		Duplicate:  key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "duplicate")),
		Delete:     key.NewBinding(key.WithKeys("x", "delete"), key.WithHelp("x", "delete")),
		RaiseLayer: key.NewBinding(key.WithKeys("K", "shift+up"), key.WithHelp("K", "raise")),
		LowerLayer: key.NewBinding(key.WithKeys("J", "shift+down"), key.WithHelp("J", "lower")),
		Grab:       key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "pick up / drop layer")),
		OpacityUp:  key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "opacity +10%")),
		OpacityDn:  key.NewBinding(key.WithKeys("["), key.WithHelp("[", "opacity -10%")),
		NextBlend:  key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "next blend mode")),
		RemoveBg:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "remove background")),
		ZoomIn:     key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "zoom in")),
		ZoomOut:    key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "zoom out")),
		ZoomReset:  key.NewBinding(key.WithKeys("0"), key.WithHelp("0", "reset zoom")),
	}
}

// ShortHelp returns the bindings shown in the one-line help.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Activate, k.Visibility, k.RemoveBg, k.Help, k.Quit}
}

// FullHelp returns the bindings shown in the expanded help, grouped in
// columns.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Activate, k.Visibility},
		{k.NewLayer, k.Duplicate, k.Delete, k.RaiseLayer, k.LowerLayer, k.Grab},
		{k.OpacityUp, k.OpacityDn, k.NextBlend, k.RemoveBg},
		{k.ZoomIn, k.ZoomOut, k.ZoomReset, k.Help, k.Quit},
	}
}
