package pagination

import (
	"github.com/rshade/storekit/internal/table"
)

// Meta contains metadata about a paginated result.
type Meta struct {
	CurrentPage int    `json:"current_page"   yaml:"current_page"`
	PageSize    int    `json:"page_size"      yaml:"page_size"`
	TotalPages  int    `json:"total_pages"    yaml:"total_pages"`
	TotalItems  int    `json:"total_items"    yaml:"total_items"`
	HasPrevious bool   `json:"has_previous"   yaml:"has_previous"`
	HasNext     bool   `json:"has_next"       yaml:"has_next"`
	Sort        string `json:"sort,omitempty" yaml:"sort,omitempty"`
}

// NewMeta copies the pager state of a table view.
func NewMeta(info table.PageInfo, sort table.SortState) Meta {
	return Meta{
		CurrentPage: info.Current,
		PageSize:    info.PageSize,
		TotalPages:  info.Total,
		TotalItems:  info.TotalItems,
		HasPrevious: info.HasPrev,
		HasNext:     info.HasNext,
		Sort:        FormatSort(sort),
	}
}
