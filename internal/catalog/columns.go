package catalog

import (
	"context"
	"strconv"

	"github.com/rshade/storekit/internal/table"
)

// cellFallback is shown for a cell whose renderer panicked.
const cellFallback = "?"

// Columns returns the product list columns in display order. Every column
// is sortable.
func Columns(ctx context.Context) []table.Column[Product] {
	field := func(key string) func(Product) any {
		return func(p Product) any { return Field(p, key) }
	}
	return []table.Column[Product]{
		{Key: "sku", Header: "SKU", Sortable: true, Value: field("sku")},
		{Key: "name", Header: "Name", Sortable: true, Value: field("name")},
		{Key: "category", Header: "Category", Sortable: true, Value: field("category")},
		{
			Key: "price", Header: "Price", Sortable: true, Value: field("price"),
			Render: table.SafeRender(ctx, func(p Product) string {
				return strconv.FormatFloat(p.Price, 'f', 2, 64)
			}, cellFallback),
		},
		{Key: "stock", Header: "Stock", Sortable: true, Value: field("stock")},
		{
			Key: "rating", Header: "Rating", Sortable: true, Value: field("rating"),
			Render: table.SafeRender(ctx, func(p Product) string {
				return strconv.FormatFloat(p.Rating, 'f', 1, 64)
			}, cellFallback),
		},
	}
}
