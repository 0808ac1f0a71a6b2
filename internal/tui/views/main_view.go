package views

import (
	"fmt"
	"strings"

	"pixed/internal/tui/common"
	"pixed/internal/tui/components"
	"pixed/internal/tui/styles"
)

// RenderMainView draws the inspector: banner, canvas summary, the layer
// list and the status and help lines.
func RenderMainView(m common.ModelReader) string {
	var sb strings.Builder

	sb.WriteString(renderBanner())
	sb.WriteString("\n")

	if !m.HasDocument() {
		sb.WriteString(renderHome())
	} else {
		sb.WriteString(styles.Theme.Help.Render(fmt.Sprintf("Canvas: %s   Zoom: %.0f%%", m.Canvas(), m.Zoom()*100)))
		sb.WriteString("\n\n")

		list := components.NewLayerList()
		list.SetRows(m.Rows())
		list.SetCursor(m.Cursor())
		sb.WriteString(list.View())
	}

	if status := m.StatusView(); status != "" {
		sb.WriteString("\n" + status + "\n")
	}

	if m.ShowHelp() {
		sb.WriteString("\n" + RenderHelp())
	}
	sb.WriteString("\n" + m.HelpView())

	return styles.Theme.App.Render(sb.String())
}

func RenderHelp() string {
	return styles.Theme.Help.Render(`
Layers are listed topmost first. The active layer is marked with *,
hidden layers with ○. The background layer always stays at the bottom.
Press m on a layer, move to another row and press m again to drop it
in that row's place.
`)
}

func renderBanner() string {
	return styles.Theme.Title.Render("pixed · layer inspector")
}

func renderHome() string {
	var s strings.Builder
	s.WriteString("No document open.\n\n")
	s.WriteString("Press " + styles.Theme.Selected.Render("n") + " to create a canvas with the default settings,\n")
	s.WriteString("or start with " + styles.Theme.Help.Render("pixed tui --open image.png") + ".\n")
	return s.String()
}
