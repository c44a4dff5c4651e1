// Package catalog is the product listing backend the CLI and TUI page
// through. A Source answers one Query per call, the way a remote GraphQL
// products query would, and may fail the way a remote call does.
package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/rshade/storekit/internal/faults"
)

// Product is one catalog row.
type Product struct {
	ID       string  `json:"id"       yaml:"id"`
	SKU      string  `json:"sku"      yaml:"sku"`
	Name     string  `json:"name"     yaml:"name"`
	Category string  `json:"category" yaml:"category"`
	Price    float64 `json:"price"    yaml:"price"`
	Stock    int     `json:"stock"    yaml:"stock"`
	Rating   float64 `json:"rating"   yaml:"rating"`
}

// Sort is a server-side ordering request.
type Sort struct {
	Key  string `json:"key,omitempty"`
	Desc bool   `json:"desc,omitempty"`
}

// Query selects one page of products.
type Query struct {
	Search   string `json:"search,omitempty"`
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
	Sort     Sort   `json:"sort"`
}

// Validate rejects queries a source cannot answer.
func (q Query) Validate() error {
	if q.PageSize <= 0 {
		return fmt.Errorf("%w: page size must be > 0, got %d", faults.ErrConfiguration, q.PageSize)
	}
	if q.Page < 1 {
		return fmt.Errorf("%w: page must be >= 1, got %d", faults.ErrConfiguration, q.Page)
	}
	return nil
}

// Key is a stable identity for the query, used to coalesce identical calls.
func (q Query) Key() string {
	return fmt.Sprintf("%s|%d|%d|%s|%t",
		strings.ToLower(strings.TrimSpace(q.Search)), q.Page, q.PageSize, q.Sort.Key, q.Sort.Desc)
}

// Result is one page plus the total number of matching products.
type Result struct {
	Items []Product `json:"items"`
	Total int       `json:"total"`
}

// Source answers product queries.
type Source interface {
	Products(ctx context.Context, q Query) (Result, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, q Query) (Result, error)

// Products calls f.
func (f SourceFunc) Products(ctx context.Context, q Query) (Result, error) {
	return f(ctx, q)
}

// Field returns the value of a sortable product field by key, or nil.
func Field(p Product, key string) any {
	switch key {
	case "id":
		return p.ID
	case "sku":
		return p.SKU
	case "name":
		return p.Name
	case "category":
		return p.Category
	case "price":
		return p.Price
	case "stock":
		return p.Stock
	case "rating":
		return p.Rating
	default:
		return nil
	}
}

// Fields lists the keys accepted by Field, in display order.
func Fields() []string {
	return []string{"sku", "name", "category", "price", "stock", "rating"}
}

// RemoteError is a failure reported by the backend.
type RemoteError struct {
	Status  int
	ErrCode string
	Message string
}

func (e *RemoteError) Error() string {
	if e.ErrCode != "" {
		return fmt.Sprintf("%s (%s)", e.Message, e.ErrCode)
	}
	return e.Message
}

// StatusCode returns the HTTP-style status.
func (e *RemoteError) StatusCode() int { return e.Status }

// Code returns the symbolic error code.
func (e *RemoteError) Code() string { return e.ErrCode }
