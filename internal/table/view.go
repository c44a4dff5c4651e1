package table

import (
	"context"

	"github.com/rshade/storekit/internal/safe"
)

// HeaderCell describes one rendered column header.
type HeaderCell struct {
	Key      string
	Header   string
	Sortable bool
	// Active is set on the sorted column; Direction is meaningful only then.
	Active    bool
	Direction Direction
}

// Label is the header text with the sort indicator appended when active.
func (h HeaderCell) Label() string {
	if h.Active {
		return h.Header + " " + h.Direction.Indicator()
	}
	return h.Header
}

// PageInfo is the pager state shown under the rows.
type PageInfo struct {
	Current    int
	Total      int
	TotalItems int
	PageSize   int
	HasPrev    bool
	HasNext    bool
}

// View is a render-ready snapshot of a Model.
type View struct {
	Headers []HeaderCell
	Rows    [][]string
	Page    PageInfo
}

// View renders the current page. Panics raised by Render or Value functions
// propagate; wrap untrusted renderers with SafeRender.
func (m *Model[T]) View() View {
	headers := make([]HeaderCell, len(m.columns))
	for i, col := range m.columns {
		h := HeaderCell{Key: col.Key, Header: col.Header, Sortable: col.Sortable}
		if m.sort.Key == col.Key {
			h.Active = true
			h.Direction = m.sort.Direction
		}
		headers[i] = h
	}

	rows := m.Rows()
	cells := make([][]string, len(rows))
	for r, row := range rows {
		line := make([]string, len(m.columns))
		for c, col := range m.columns {
			line[c] = renderCell(col, row)
		}
		cells[r] = line
	}

	return View{
		Headers: headers,
		Rows:    cells,
		Page: PageInfo{
			Current:    m.page.CurrentPage,
			Total:      m.TotalPages(),
			TotalItems: m.totalItems(),
			PageSize:   m.page.PageSize,
			HasPrev:    m.HasPrev(),
			HasNext:    m.HasNext(),
		},
	}
}

func renderCell[T any](col Column[T], row T) string {
	if col.Render != nil {
		return col.Render(row)
	}
	return Stringify(col.Value(row))
}

// SafeRender wraps render so a panic yields fallback and is logged through
// the logger carried by ctx.
func SafeRender[T any](ctx context.Context, render func(T) string, fallback string) func(T) string {
	return func(row T) string {
		return safe.Call(ctx, func() (string, error) {
			return render(row), nil
		}, fallback)
	}
}
