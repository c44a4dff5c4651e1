package listview

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// minHeight is the smallest usable window.
const minHeight = 1

// RenderFunc styles one row. selected marks the highlighted row.
type RenderFunc func(row string, selected bool) string

// Window is a scrolling view over rows with a single selection.
type Window struct {
	rows     []string
	selected int
	from     int
	height   int
	render   RenderFunc
}

// New returns an empty window of the given height. A nil render leaves rows
// unstyled.
func New(height int, render RenderFunc) *Window {
	if render == nil {
		render = func(row string, _ bool) string { return row }
	}
	w := &Window{render: render}
	w.SetHeight(height)
	return w
}

// SetRows replaces the rows. The selection is kept when still in range.
func (w *Window) SetRows(rows []string) {
	w.rows = rows
	w.SetSelected(w.selected)
}

// SetHeight resizes the window.
func (w *Window) SetHeight(height int) {
	w.height = max(height, minHeight)
	w.scroll()
}

// Update handles navigation keys and reports whether the key was used.
//
//nolint:exhaustive // Only navigation keys are handled.
func (w *Window) Update(msg tea.KeyMsg) bool {
	if len(w.rows) == 0 {
		return false
	}
	switch msg.Type {
	case tea.KeyUp:
		w.SetSelected(w.selected - 1)
	case tea.KeyDown:
		w.SetSelected(w.selected + 1)
	case tea.KeyPgUp:
		w.SetSelected(w.selected - w.height)
	case tea.KeyPgDown:
		w.SetSelected(w.selected + w.height)
	case tea.KeyHome:
		w.SetSelected(0)
	case tea.KeyEnd:
		w.SetSelected(len(w.rows) - 1)
	case tea.KeyRunes:
		switch msg.String() {
		case "j":
			w.SetSelected(w.selected + 1)
		case "k":
			w.SetSelected(w.selected - 1)
		default:
			return false
		}
	default:
		return false
	}
	return true
}

// SetSelected moves the selection, clamped to the rows.
func (w *Window) SetSelected(i int) {
	switch {
	case len(w.rows) == 0 || i < 0:
		w.selected = 0
	case i >= len(w.rows):
		w.selected = len(w.rows) - 1
	default:
		w.selected = i
	}
	w.scroll()
}

// Selected returns the selected row index.
func (w *Window) Selected() int {
	return w.selected
}

// Visible returns the half-open range of rows inside the window.
func (w *Window) Visible() (from, to int) {
	return w.from, min(w.from+w.height, len(w.rows))
}

// scroll keeps the selection inside the window.
func (w *Window) scroll() {
	if w.selected < w.from {
		w.from = w.selected
	}
	if w.selected >= w.from+w.height {
		w.from = w.selected - w.height + 1
	}
	if maxFrom := max(len(w.rows)-w.height, 0); w.from > maxFrom {
		w.from = maxFrom
	}
}

// View renders the visible rows.
func (w *Window) View() string {
	from, to := w.Visible()
	lines := make([]string, 0, to-from)
	for i := from; i < to; i++ {
		lines = append(lines, w.render(w.rows[i], i == w.selected))
	}
	return strings.Join(lines, "\n")
}
