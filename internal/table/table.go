// Package table is a view-model for sortable, paginated lists of records.
//
// A Model owns the sort state and, in uncontrolled mode, the current page.
// In controlled mode the caller owns paging: the Model forwards every page
// request to OnPageChange and derives the page count from TotalItems, which
// suits server-side pagination where the data slice is a single page.
//
// A Model is not safe for concurrent use. It is meant to be owned by a single
// event loop, such as a bubbletea program's Update method.
package table

import (
	"fmt"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/rshade/storekit/internal/faults"
)

// ErrConfiguration is returned by New for an unusable column set or config.
var ErrConfiguration = faults.ErrConfiguration

// Direction is a sort direction.
type Direction int

const (
	// Asc sorts low to high.
	Asc Direction = iota
	// Desc sorts high to low.
	Desc
)

func (d Direction) String() string {
	if d == Desc {
		return "desc"
	}
	return "asc"
}

// Indicator is the glyph shown next to an actively sorted header.
func (d Direction) Indicator() string {
	if d == Desc {
		return "▼"
	}
	return "▲"
}

// ParseDirection accepts "asc" or "desc" in any case.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "asc":
		return Asc, nil
	case "desc":
		return Desc, nil
	default:
		return Asc, fmt.Errorf("%w: sort direction must be asc or desc, got %q", ErrConfiguration, s)
	}
}

// SortState is the active single-column sort. A zero Key means unsorted.
type SortState struct {
	Key       string
	Direction Direction
}

// Active reports whether a sort is applied.
func (s SortState) Active() bool {
	return s.Key != ""
}

// Column describes one displayed field of T.
type Column[T any] struct {
	// Key identifies the column. Keys are unique and non-empty.
	Key string
	// Header is the display label.
	Header string
	// Sortable columns respond to ToggleSort and require Value.
	Sortable bool
	// Value extracts the raw value used for sorting and default rendering.
	Value func(T) any
	// Render formats a cell. When nil the cell is Stringify(Value(row)).
	Render func(T) string
}

// Config holds construction-time settings.
type Config struct {
	// PageSize is the number of rows per page and must be positive.
	PageSize int
	// Controlled hands page ownership to the caller.
	Controlled bool
	// TotalItems is the caller-supplied row count in controlled mode.
	TotalItems int
	// CurrentPage is the initial page, clamped to [1, TotalPages].
	CurrentPage int
	// OnPageChange receives page requests. Required in controlled mode; in
	// uncontrolled mode it is notified after the page moves.
	OnPageChange func(page int)
	// OnSortChange is notified after every sort change.
	OnSortChange func(SortState)
	// Language selects the collation for string comparison. The zero value
	// uses the root collation.
	Language language.Tag
}

// PageState is the pagination snapshot of a Model.
type PageState struct {
	PageSize    int
	CurrentPage int
	TotalItems  int
	Controlled  bool
}

// Model is the list view-model.
type Model[T any] struct {
	columns  []Column[T]
	byKey    map[string]int
	data     []T
	sorted   []T
	sort     SortState
	page     PageState
	collator *collate.Collator

	onPageChange func(int)
	onSortChange func(SortState)
}

// New validates the column set and config and returns a Model on page 1
// with no sort applied. data is not modified.
func New[T any](data []T, columns []Column[T], cfg Config) (*Model[T], error) {
	if cfg.PageSize <= 0 {
		return nil, fmt.Errorf("%w: page size must be > 0, got %d", ErrConfiguration, cfg.PageSize)
	}
	if cfg.TotalItems < 0 {
		return nil, fmt.Errorf("%w: total items must be >= 0, got %d", ErrConfiguration, cfg.TotalItems)
	}
	if cfg.Controlled && cfg.OnPageChange == nil {
		return nil, fmt.Errorf("%w: controlled pagination requires OnPageChange", ErrConfiguration)
	}

	byKey := make(map[string]int, len(columns))
	for i, col := range columns {
		if col.Key == "" {
			return nil, fmt.Errorf("%w: column %d has an empty key", ErrConfiguration, i)
		}
		if _, dup := byKey[col.Key]; dup {
			return nil, fmt.Errorf("%w: duplicate column key %q", ErrConfiguration, col.Key)
		}
		if col.Value == nil && (col.Sortable || col.Render == nil) {
			return nil, fmt.Errorf("%w: column %q needs a Value function", ErrConfiguration, col.Key)
		}
		byKey[col.Key] = i
	}

	current := cfg.CurrentPage
	if current < 1 {
		current = 1
	}

	m := &Model[T]{
		columns:  columns,
		byKey:    byKey,
		collator: collate.New(cfg.Language),
		page: PageState{
			PageSize:    cfg.PageSize,
			CurrentPage: current,
			TotalItems:  cfg.TotalItems,
			Controlled:  cfg.Controlled,
		},
		onPageChange: cfg.OnPageChange,
		onSortChange: cfg.OnSortChange,
	}
	m.SetData(data)
	return m, nil
}

// Columns returns the column set in display order.
func (m *Model[T]) Columns() []Column[T] {
	return m.columns
}

// Page returns the pagination snapshot. TotalItems reflects the row count
// that TotalPages is computed from.
func (m *Model[T]) Page() PageState {
	p := m.page
	p.TotalItems = m.totalItems()
	return p
}

// Data returns the rows in their current sorted order.
func (m *Model[T]) Data() []T {
	return m.sorted
}
