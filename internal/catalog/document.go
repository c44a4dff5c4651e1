package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/rshade/storekit/internal/faults"
	"github.com/rshade/storekit/internal/logging"
	"github.com/rshade/storekit/internal/safe"
	"github.com/rshade/storekit/internal/table"
)

// Document paths inside a GraphQL-shaped products response.
const (
	pathItems  = "data.products.items"
	pathTotal  = "data.products.total"
	pathErrors = "errors"
)

// DocumentSource serves queries from a GraphQL-shaped JSON document:
//
//	{"data": {"products": {"items": [...], "total": 42}}, "errors": [...]}
//
// The document is untrusted. Malformed items are dropped, a missing total
// falls back to the item count, and a non-empty errors array fails every
// query with the first error.
type DocumentSource struct {
	load func() ([]byte, error)
	name string
	lang language.Tag

	mu       sync.RWMutex
	products []Product
	docErr   error
}

// NewFileSource reads the document at path. Call Reload to pick up changes.
func NewFileSource(ctx context.Context, path string) (*DocumentSource, error) {
	s := &DocumentSource{
		name: path,
		load: func() ([]byte, error) { return os.ReadFile(path) },
		lang: language.English,
	}
	if err := s.Reload(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// NewDocumentSource serves a document already held in memory.
func NewDocumentSource(ctx context.Context, name string, raw []byte) (*DocumentSource, error) {
	s := &DocumentSource{
		name: name,
		load: func() ([]byte, error) { return raw, nil },
		lang: language.English,
	}
	if err := s.Reload(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Name identifies the document in logs.
func (s *DocumentSource) Name() string {
	return s.name
}

// Reload re-reads and re-decodes the document. Unreadable or non-JSON
// documents fail and leave the previous snapshot in place.
func (s *DocumentSource) Reload(ctx context.Context) error {
	raw, err := s.load()
	if err != nil {
		return fmt.Errorf("read catalog %s: %w", s.name, err)
	}
	var doc any
	if err = json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("parse catalog %s: %w", s.name, err)
	}

	products, docErr := decodeDocument(ctx, doc)

	s.mu.Lock()
	s.products, s.docErr = products, docErr
	s.mu.Unlock()

	logging.FromContext(ctx).Debug().
		Str("component", "catalog").
		Str("source", s.name).
		Int("products", len(products)).
		Bool("document_error", docErr != nil).
		Msg("catalog loaded")
	return nil
}

// decodeDocument extracts products and the document-level error, if any.
func decodeDocument(ctx context.Context, doc any) ([]Product, error) {
	if errs, ok := safe.Lookup(ctx, doc, pathErrors); ok && safe.HasItems(errs) {
		return nil, faults.Normalize(safe.IndexAny(errs, 0, nil))
	}

	raw, _ := safe.Lookup(ctx, doc, pathItems)
	items, _ := safe.Items(raw)

	records := safe.Filter(ctx, items, func(item any) (bool, error) {
		sku := safe.Get(ctx, item, "sku", "")
		return strings.TrimSpace(sku) != "", nil
	}, nil)

	decoded := safe.Map(ctx, records, func(item any) (Product, error) {
		return safe.Decode(ctx, item, "", Product{}), nil
	}, nil)

	// A row that fails to decode comes back as the zero Product.
	products := safe.Filter(ctx, decoded, func(p Product) (bool, error) {
		return strings.TrimSpace(p.SKU) != "", nil
	}, nil)
	if dropped := len(decoded) - len(products); dropped > 0 {
		logging.FromContext(ctx).Debug().
			Str("component", "catalog").
			Int("dropped", dropped).
			Msg("dropped undecodable items")
	}

	if declared := safe.Decode(ctx, doc, pathTotal, -1); declared >= 0 && declared != len(products) {
		logging.FromContext(ctx).Debug().
			Str("component", "catalog").
			Int("declared_total", declared).
			Int("decoded", len(products)).
			Msg("declared total differs from decoded items")
	}
	return products, nil
}

// Products filters, sorts and pages the current snapshot.
func (s *DocumentSource) Products(ctx context.Context, q Query) (Result, error) {
	if err := q.Validate(); err != nil {
		return Result{}, err
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	s.mu.RLock()
	products, docErr := s.products, s.docErr
	s.mu.RUnlock()
	if docErr != nil {
		return Result{}, docErr
	}

	matched := search(products, q.Search)
	if q.Sort.Key != "" {
		sortProducts(matched, q.Sort, collate.New(s.lang))
	}

	start := (q.Page - 1) * q.PageSize
	if start >= len(matched) {
		return Result{Items: []Product{}, Total: len(matched)}, nil
	}
	end := min(start+q.PageSize, len(matched))
	return Result{Items: matched[start:end], Total: len(matched)}, nil
}

func search(products []Product, term string) []Product {
	term = strings.ToLower(strings.TrimSpace(term))
	out := make([]Product, 0, len(products))
	for _, p := range products {
		if term == "" ||
			strings.Contains(strings.ToLower(p.Name), term) ||
			strings.Contains(strings.ToLower(p.SKU), term) ||
			strings.Contains(strings.ToLower(p.Category), term) {
			out = append(out, p)
		}
	}
	return out
}

func sortProducts(products []Product, by Sort, c *collate.Collator) {
	sort.SliceStable(products, func(i, j int) bool {
		if by.Desc {
			i, j = j, i
		}
		return table.Compare(c, Field(products[i], by.Key), Field(products[j], by.Key)) < 0
	})
}
