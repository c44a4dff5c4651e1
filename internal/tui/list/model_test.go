package listview

import (
	"fmt"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
)

func rows(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("row %d", i)
	}
	return out
}

func TestWindow_Navigation(t *testing.T) {
	w := New(3, nil)
	w.SetRows(rows(10))

	tests := []struct {
		name     string
		key      tea.KeyMsg
		selected int
		from     int
	}{
		{"down", tea.KeyMsg{Type: tea.KeyDown}, 1, 0},
		{"j", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}}, 2, 0},
		{"scrolls past window", tea.KeyMsg{Type: tea.KeyDown}, 3, 1},
		{"page down", tea.KeyMsg{Type: tea.KeyPgDown}, 6, 4},
		{"end", tea.KeyMsg{Type: tea.KeyEnd}, 9, 7},
		{"k", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'k'}}, 8, 7},
		{"home", tea.KeyMsg{Type: tea.KeyHome}, 0, 0},
		{"up at top stays", tea.KeyMsg{Type: tea.KeyUp}, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, w.Update(tt.key))
			assert.Equal(t, tt.selected, w.Selected())
			from, _ := w.Visible()
			assert.Equal(t, tt.from, from)
		})
	}
}

func TestWindow_IgnoresOtherKeys(t *testing.T) {
	w := New(3, nil)
	assert.False(t, w.Update(tea.KeyMsg{Type: tea.KeyDown}), "empty window")

	w.SetRows(rows(2))
	assert.False(t, w.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'x'}}))
	assert.False(t, w.Update(tea.KeyMsg{Type: tea.KeyEnter}))
}

func TestWindow_View(t *testing.T) {
	w := New(2, func(row string, selected bool) string {
		if selected {
			return "> " + row
		}
		return "  " + row
	})
	w.SetRows(rows(5))
	w.SetSelected(3)

	assert.Equal(t, "  row 2\n> row 3", w.View())
}

func TestWindow_SetRowsClampsSelection(t *testing.T) {
	w := New(5, nil)
	w.SetRows(rows(10))
	w.SetSelected(9)

	w.SetRows(rows(3))
	assert.Equal(t, 2, w.Selected())
	from, to := w.Visible()
	assert.Equal(t, 0, from)
	assert.Equal(t, 3, to)

	w.SetRows(nil)
	assert.Equal(t, 0, w.Selected())
	assert.Empty(t, w.View())
}

func TestWindow_Resize(t *testing.T) {
	w := New(0, nil)
	w.SetRows(rows(4))
	_, to := w.Visible()
	assert.Equal(t, 1, to, "height is at least one row")

	w.SetSelected(3)
	w.SetHeight(10)
	from, to := w.Visible()
	assert.Equal(t, 0, from)
	assert.Equal(t, 4, to)
}
