// Package pagination parses the CLI's paging and sorting flags and renders
// page metadata for structured output.
//
//   - Params: --page, --page-size, --sort and --all, with validation
//   - ParseSort: "field" or "field:order" into a table.SortState
//   - Meta: page metadata derived from a table.PageInfo
package pagination
