package pagination

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/rshade/storekit/internal/catalog"
	"github.com/rshade/storekit/internal/table"
)

// Flag defaults and validation limits.
const (
	DefaultPage      = 1
	MinPage          = 1
	MinPageSize      = 1
	MaxPageSize      = 1000
	DefaultSortOrder = "asc"
	SortOrderAsc     = "asc"
	SortOrderDesc    = "desc"
)

// Validation errors.
var (
	ErrInvalidPage       = errors.New("invalid page")
	ErrInvalidPageSize   = errors.New("page-size must be between 1 and 1000")
	ErrInvalidSortOrder  = errors.New("sort order must be 'asc' or 'desc'")
	ErrInvalidSortFormat = errors.New("invalid sort format: use 'field' or 'field:order' (e.g., 'price:desc')")
	ErrEmptySortField    = errors.New("sort field cannot be empty")
	ErrInvalidSortField  = errors.New("invalid sort field")
	ErrAllWithPage       = errors.New("--all cannot be combined with --page")
)

// Params holds the list command's paging flags.
type Params struct {
	// Page is the 1-based page to fetch.
	Page int
	// PageSize is the number of rows per page.
	PageSize int
	// Sort is "field" or "field:order". Empty keeps source order.
	Sort string
	// Search filters rows server-side.
	Search string
	// All fetches every page.
	All bool
}

// NewParams returns Params starting at page 1 with the given page size.
func NewParams(pageSize int) *Params {
	return &Params{Page: DefaultPage, PageSize: pageSize}
}

// Validate checks bounds and the sort expression against the allowed fields.
func (p Params) Validate(fields []string) error {
	if p.Page < MinPage {
		return fmt.Errorf("%w: must be >= 1, got %d", ErrInvalidPage, p.Page)
	}
	if p.PageSize < MinPageSize || p.PageSize > MaxPageSize {
		return fmt.Errorf("%w: got %d", ErrInvalidPageSize, p.PageSize)
	}
	if p.All && p.Page > DefaultPage {
		return ErrAllWithPage
	}
	_, err := ParseSort(p.Sort, fields)
	return err
}

// Query builds the catalog query for page.
func (p Params) Query(page int, sort table.SortState) catalog.Query {
	return catalog.Query{
		Search:   p.Search,
		Page:     page,
		PageSize: p.PageSize,
		Sort:     catalog.Sort{Key: sort.Key, Desc: sort.Direction == table.Desc},
	}
}

// sortPartsMax is the maximum number of parts in a sort string (field:order).
const sortPartsMax = 2

// ParseSort parses "field" or "field:order" into a SortState. An empty
// expression is an inactive sort. When fields is non-empty the field must be
// one of them.
func ParseSort(expr string, fields []string) (table.SortState, error) {
	if strings.TrimSpace(expr) == "" {
		return table.SortState{}, nil
	}

	parts := strings.Split(expr, ":")
	if len(parts) > sortPartsMax {
		return table.SortState{}, fmt.Errorf("%w: %q", ErrInvalidSortFormat, expr)
	}

	field := strings.TrimSpace(parts[0])
	if field == "" {
		return table.SortState{}, ErrEmptySortField
	}
	if len(fields) > 0 && !slices.Contains(fields, field) {
		return table.SortState{}, fmt.Errorf("%w: %q (valid: %s)",
			ErrInvalidSortField, field, strings.Join(fields, ", "))
	}

	order := DefaultSortOrder
	if len(parts) == sortPartsMax {
		order = strings.ToLower(strings.TrimSpace(parts[1]))
	}
	dir, err := table.ParseDirection(order)
	if err != nil {
		return table.SortState{}, fmt.Errorf("%w: got %q", ErrInvalidSortOrder, order)
	}
	return table.SortState{Key: field, Direction: dir}, nil
}

// FormatSort is the inverse of ParseSort.
func FormatSort(s table.SortState) string {
	if !s.Active() {
		return ""
	}
	return s.Key + ":" + s.Direction.String()
}
