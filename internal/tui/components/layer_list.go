package components

import (
	"fmt"
	"strings"

	"pixed/internal/tui/common"
	"pixed/internal/tui/styles"

	"github.com/dustin/go-humanize"
)

// LayerList renders the layer stack, topmost layer first.
type LayerList struct {
	rows   []common.Row
	cursor int
}

func NewLayerList() *LayerList {
	return &LayerList{}
}

func (ll *LayerList) SetRows(rows []common.Row) {
	ll.rows = rows
	ll.clamp()
}

func (ll *LayerList) SetCursor(pos int) {
	ll.cursor = pos
	ll.clamp()
}

func (ll *LayerList) clamp() {
	if ll.cursor >= len(ll.rows) {
		ll.cursor = len(ll.rows) - 1
	}
	if ll.cursor < 0 {
		ll.cursor = 0
	}
}

func (ll *LayerList) Cursor() int {
	return ll.cursor
}

// Current returns the row under the cursor.
func (ll *LayerList) Current() (common.Row, bool) {
	if ll.cursor >= 0 && ll.cursor < len(ll.rows) {
		return ll.rows[ll.cursor], true
	}
	return common.Row{}, false
}

func (ll *LayerList) View() string {
	var s strings.Builder

	s.WriteString(styles.Theme.Header.Render(fmt.Sprintf("%-3s %-24s %-8s %-12s %s", "", "Layer", "Opacity", "Blend", "Size")))
	s.WriteString("\n")

	if len(ll.rows) == 0 {
		s.WriteString("No layers\n")
		return s.String()
	}

	for i, r := range ll.rows {
		cursor := " "
		if i == ll.cursor {
			cursor = ">"
		}
		marker := " "
		if r.Active {
			marker = "*"
		}
		eye := "●"
		if !r.Visible {
			eye = "○"
		}

		style := styles.Theme.Unselected
		switch {
		case i == ll.cursor:
			style = styles.Theme.Selected
		case !r.Visible:
			style = styles.Theme.Hidden
		case r.Active:
			style = styles.Theme.Active
		}

		s.WriteString(fmt.Sprintf("%s%s%s %s\n", cursor, marker, eye, style.Render(rowDetails(r))))
	}

	return s.String()
}

func rowDetails(r common.Row) string {
	name := r.Name
	if len(name) > 24 {
		name = name[:23] + "…"
	}
	size := fmt.Sprintf("%dx%d", r.Width, r.Height)
	if r.Raster != "ready" {
		size = r.Raster
	} else if r.Width > 0 && r.Height > 0 {
		size += " " + humanize.Bytes(uint64(r.Width)*uint64(r.Height)*4)
	}
	return fmt.Sprintf("%-24s %6d%%  %-12s %s", name, int(r.Opacity*100+0.5), r.Blend, size)
}
