package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/storekit/internal/cache"
	"github.com/rshade/storekit/internal/faults"
	"github.com/rshade/storekit/internal/retry"
)

func sample(t *testing.T) *DocumentSource {
	t.Helper()
	src, err := NewSampleSource(context.Background())
	require.NoError(t, err)
	return src
}

func skus(items []Product) []string {
	out := make([]string, len(items))
	for i, p := range items {
		out[i] = p.SKU
	}
	return out
}

func TestSampleDecodesDefensively(t *testing.T) {
	src := sample(t)
	res, err := src.Products(context.Background(), Query{Page: 1, PageSize: 100})
	require.NoError(t, err)

	assert.Equal(t, 14, res.Total, "blank sku and null rows are dropped")
	assert.Len(t, res.Items, 14)

	var socks Product
	for _, p := range res.Items {
		if p.SKU == "ACC-SOCK-02" {
			socks = p
		}
	}
	assert.InDelta(t, 14.0, socks.Price, 0.001, "string price is converted")
	assert.Equal(t, 120, socks.Stock)
}

func TestDocumentSourceQueries(t *testing.T) {
	src := sample(t)
	ctx := context.Background()

	t.Run("search matches name sku and category", func(t *testing.T) {
		res, err := src.Products(ctx, Query{Search: "  TRAIL ", Page: 1, PageSize: 10})
		require.NoError(t, err)
		assert.Equal(t, []string{"SHOE-RUN-01", "BTM-SHRT-02"}, skus(res.Items))

		res, err = src.Products(ctx, Query{Search: "bags", Page: 1, PageSize: 10})
		require.NoError(t, err)
		assert.Equal(t, 2, res.Total)
	})

	t.Run("paging", func(t *testing.T) {
		res, err := src.Products(ctx, Query{Page: 3, PageSize: 5})
		require.NoError(t, err)
		assert.Equal(t, 14, res.Total)
		assert.Len(t, res.Items, 4)

		res, err = src.Products(ctx, Query{Page: 9, PageSize: 5})
		require.NoError(t, err)
		assert.Empty(t, res.Items)
		assert.Equal(t, 14, res.Total)
	})

	t.Run("sorting", func(t *testing.T) {
		res, err := src.Products(ctx, Query{Page: 1, PageSize: 3, Sort: Sort{Key: "price", Desc: true}})
		require.NoError(t, err)
		assert.Equal(t, []string{"SHOE-BOOT-02", "TOP-JKT-03", "BAG-DUF-02"}, skus(res.Items))

		res, err = src.Products(ctx, Query{Page: 1, PageSize: 3, Sort: Sort{Key: "name"}})
		require.NoError(t, err)
		assert.Equal(t, []string{"SHOE-BOOT-02", "ACC-BELT-03", "SHOE-SNK-03"}, skus(res.Items))
	})

	t.Run("invalid query", func(t *testing.T) {
		_, err := src.Products(ctx, Query{Page: 1})
		assert.ErrorIs(t, err, faults.ErrConfiguration)
		_, err = src.Products(ctx, Query{PageSize: 1})
		assert.ErrorIs(t, err, faults.ErrConfiguration)
	})
}

func TestDocumentErrors(t *testing.T) {
	doc := []byte(`{"data": null, "errors": [{"message": "products resolver failed",
		"extensions": {"code": "INTERNAL_SERVER_ERROR", "status": 500}}]}`)
	src, err := NewDocumentSource(context.Background(), "errors", doc)
	require.NoError(t, err)

	_, err = src.Products(context.Background(), Query{Page: 1, PageSize: 10})
	require.Error(t, err)
	assert.Equal(t, "products resolver failed", err.Error())
	assert.True(t, faults.IsRetryable(err))
}

func TestUndecodableRowsAreDropped(t *testing.T) {
	doc := []byte(`{"data": {"products": {"items": [
		{"id": "1", "sku": "GOOD-1", "name": "Lamp", "price": 12.5, "stock": 3},
		{"id": "2", "sku": "BAD-2", "name": "Desk", "price": "twelve", "stock": 1},
		{"id": "3", "sku": "BAD-3", "name": "Chair", "stock": {"warehouse": 4}},
		{"id": "4", "sku": "GOOD-4", "name": "Shelf", "price": "40", "stock": 2}
	]}}}`)
	src, err := NewDocumentSource(context.Background(), "mixed", doc)
	require.NoError(t, err)

	res, err := src.Products(context.Background(), Query{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, []string{"GOOD-1", "GOOD-4"}, skus(res.Items))
	assert.Equal(t, 2, res.Total)
	for _, p := range res.Items {
		assert.NotEqual(t, Product{}, p)
	}
}

func TestMalformedDocuments(t *testing.T) {
	ctx := context.Background()
	for name, doc := range map[string]string{
		"no data":        `{}`,
		"items not list": `{"data": {"products": {"items": {"sku": "X"}}}}`,
		"scalar root":    `42`,
	} {
		t.Run(name, func(t *testing.T) {
			src, err := NewDocumentSource(ctx, name, []byte(doc))
			require.NoError(t, err)
			res, err := src.Products(ctx, Query{Page: 1, PageSize: 10})
			require.NoError(t, err)
			assert.Zero(t, res.Total)
			assert.Empty(t, res.Items)
		})
	}

	_, err := NewDocumentSource(ctx, "broken", []byte(`{"data":`))
	assert.Error(t, err)
}

func TestFileSourceReload(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "catalog.json")
	write := func(body string) {
		require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	}

	write(`{"data":{"products":{"items":[{"sku":"A"}]}}}`)
	src, err := NewFileSource(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, path, src.Name())

	write(`{"data":{"products":{"items":[{"sku":"A"},{"sku":"B"}]}}}`)
	require.NoError(t, src.Reload(ctx))
	res, err := src.Products(ctx, Query{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Total)

	write(`not json`)
	assert.Error(t, src.Reload(ctx))
	res, err = src.Products(ctx, Query{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Total, "failed reload keeps the previous snapshot")

	_, err = NewFileSource(ctx, filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestFetchRetriesFlakySource(t *testing.T) {
	flaky := NewFlaky(sample(t), 3, nil, 0)
	policy := retry.Policy{MaxAttempts: 3, InitialDelay: time.Millisecond}

	res, err := Fetch(context.Background(), flaky, Query{Page: 1, PageSize: 5}, policy)
	require.NoError(t, err)
	assert.Len(t, res.Items, 5)
	assert.Equal(t, 3, flaky.Calls())
}

func TestFetchStopsOnPermanentError(t *testing.T) {
	notFound := &RemoteError{Status: 404, ErrCode: "NOT_FOUND", Message: "no such catalog"}
	flaky := NewFlaky(sample(t), 10, notFound, 0)

	_, err := Fetch(context.Background(), flaky, Query{Page: 1, PageSize: 5}, retry.DefaultPolicy())
	assert.Same(t, notFound, err)
	assert.Equal(t, 1, flaky.Calls())
	assert.Equal(t, "no such catalog (NOT_FOUND)", err.Error())
}

func TestFlakyHonoursContext(t *testing.T) {
	flaky := NewFlaky(sample(t), 0, nil, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := flaky.Products(ctx, Query{Page: 1, PageSize: 5})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDedupedCoalescesConcurrentQueries(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	slow := SourceFunc(func(_ context.Context, q Query) (Result, error) {
		calls.Add(1)
		<-release
		return Result{Total: q.Page}, nil
	})
	d := NewDeduped(slow)

	var wg sync.WaitGroup
	results := make([]Result, 5)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := d.Products(context.Background(), Query{Page: 2, PageSize: 10})
			assert.NoError(t, err)
			results[i] = res
		}()
	}

	assert.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, r := range results {
		assert.Equal(t, 2, r.Total)
	}
}

func TestDedupedPropagatesErrors(t *testing.T) {
	boom := errors.New("boom")
	d := NewDeduped(SourceFunc(func(context.Context, Query) (Result, error) { return Result{}, boom }))
	_, err := d.Products(context.Background(), Query{Page: 1, PageSize: 1})
	assert.ErrorIs(t, err, boom)
}

func TestCachedSource(t *testing.T) {
	store, err := cache.NewFileStore(cache.Options{Directory: t.TempDir(), Enabled: true, TTL: time.Minute})
	require.NoError(t, err)

	flaky := NewFlaky(sample(t), 0, nil, 0)
	cached := NewCached(flaky, store)
	q := Query{Search: "shoe", Page: 1, PageSize: 2, Sort: Sort{Key: "price"}}

	first, err := cached.Products(context.Background(), q)
	require.NoError(t, err)
	second, err := cached.Products(context.Background(), q)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, flaky.Calls())
}

func TestQueryKey(t *testing.T) {
	a := Query{Search: "Shoe ", Page: 1, PageSize: 10}
	b := Query{Search: "shoe", Page: 1, PageSize: 10}
	assert.Equal(t, a.Key(), b.Key())
	assert.NotEqual(t, a.Key(), Query{Search: "shoe", Page: 2, PageSize: 10}.Key())
}

func TestField(t *testing.T) {
	p := Product{SKU: "X", Price: 2.5, Stock: 3}
	assert.Equal(t, "X", Field(p, "sku"))
	assert.Equal(t, 2.5, Field(p, "price"))
	assert.Equal(t, 3, Field(p, "stock"))
	assert.Nil(t, Field(p, "colour"))
}
