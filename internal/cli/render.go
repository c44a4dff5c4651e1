package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"gopkg.in/yaml.v3"

	"github.com/rshade/storekit/internal/catalog"
	"github.com/rshade/storekit/internal/cli/pagination"
	tablemodel "github.com/rshade/storekit/internal/table"
)

// listOutput is the structured form of a listed page.
type listOutput struct {
	Items      []catalog.Product `json:"items"      yaml:"items"`
	Pagination pagination.Meta   `json:"pagination" yaml:"pagination"`
}

// rightAligned lists the numeric columns.
var rightAligned = map[string]bool{"price": true, "stock": true, "rating": true} //nolint:gochecknoglobals // Read-only lookup.

func render(w io.Writer, format string, m *tablemodel.Model[catalog.Product]) error {
	switch format {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(structured(m))
	case outputYAML:
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(structured(m))
	default:
		return renderTable(w, m.View())
	}
}

func structured(m *tablemodel.Model[catalog.Product]) listOutput {
	items := m.Rows()
	if items == nil {
		items = []catalog.Product{}
	}
	return listOutput{
		Items:      items,
		Pagination: pagination.NewMeta(m.View().Page, m.Sort()),
	}
}

func renderTable(w io.Writer, v tablemodel.View) error {
	if len(v.Rows) == 0 {
		_, err := fmt.Fprintf(w, "No products on page %d of %d.\n", v.Page.Current, v.Page.Total)
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	header := make(table.Row, len(v.Headers))
	configs := make([]table.ColumnConfig, 0, len(v.Headers))
	for i, h := range v.Headers {
		header[i] = h.Label()
		if rightAligned[h.Key] {
			configs = append(configs, table.ColumnConfig{Number: i + 1, Align: text.AlignRight})
		}
	}
	t.AppendHeader(header)
	t.SetColumnConfigs(configs)

	for _, cells := range v.Rows {
		row := make(table.Row, len(cells))
		for i, c := range cells {
			row[i] = c
		}
		t.AppendRow(row)
	}
	t.AppendFooter(table.Row{fmt.Sprintf("Page %d of %d (%d products)", v.Page.Current, v.Page.Total, v.Page.TotalItems)})
	t.Render()
	return nil
}
