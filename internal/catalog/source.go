package catalog

import (
	"context"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/rshade/storekit/internal/cache"
	"github.com/rshade/storekit/internal/retry"
)

// OperationProducts names product queries in logs, metrics and cache keys.
const OperationProducts = "products"

// Fetch runs one query through the retry executor. Transient failures are
// retried per policy; the final error is returned unchanged.
func Fetch(ctx context.Context, src Source, q Query, p retry.Policy, opts ...retry.Option) (Result, error) {
	opts = append([]retry.Option{retry.WithName(OperationProducts)}, opts...)
	return retry.Do(ctx, p, func(ctx context.Context) (Result, error) {
		return src.Products(ctx, q)
	}, opts...)
}

// Deduped coalesces concurrent identical queries into one upstream call.
type Deduped struct {
	src   Source
	group singleflight.Group
}

// NewDeduped wraps src.
func NewDeduped(src Source) *Deduped {
	return &Deduped{src: src}
}

// Products answers q, sharing the result with concurrent callers of the
// same query.
func (d *Deduped) Products(ctx context.Context, q Query) (Result, error) {
	v, err, _ := d.group.Do(q.Key(), func() (any, error) {
		return d.src.Products(ctx, q)
	})
	if err != nil {
		return Result{}, err
	}
	return v.(Result), nil //nolint:forcetypeassert // The group only stores Result values.
}

// Cached serves repeated queries from a file cache.
type Cached struct {
	src   Source
	store *cache.FileStore
}

// NewCached wraps src. A nil or disabled store makes it a pass-through.
func NewCached(src Source, store *cache.FileStore) *Cached {
	return &Cached{src: src, store: store}
}

// Products answers q from the cache when a fresh entry exists.
func (c *Cached) Products(ctx context.Context, q Query) (Result, error) {
	params := cache.KeyParams{
		Operation: OperationProducts,
		Search:    q.Search,
		SortKey:   q.Sort.Key,
		SortDesc:  q.Sort.Desc,
		Page:      q.Page,
		PageSize:  q.PageSize,
	}
	res, _, err := cache.Load(ctx, c.store, params, func(ctx context.Context) (Result, error) {
		return c.src.Products(ctx, q)
	})
	return res, err
}

// ErrUnavailable is the failure Flaky injects by default.
var ErrUnavailable = &RemoteError{ //nolint:gochecknoglobals // Shared sentinel value.
	Status:  http.StatusServiceUnavailable,
	ErrCode: "UNAVAILABLE",
	Message: "network error: upstream unavailable",
}

// Flaky fails a fixed share of calls before delegating, simulating an
// unreliable backend.
type Flaky struct {
	src Source
	// failEvery fails call n (1-based) unless n%failEvery == 0, so 3 fails
	// two calls in every three.
	failEvery int
	err       error
	latency   time.Duration

	mu    sync.Mutex
	calls int
}

// NewFlaky wraps src. failEvery <= 1 disables failure injection; a nil err
// injects ErrUnavailable.
func NewFlaky(src Source, failEvery int, err error, latency time.Duration) *Flaky {
	if err == nil {
		err = ErrUnavailable
	}
	return &Flaky{src: src, failEvery: failEvery, err: err, latency: latency}
}

// Calls returns the number of calls received.
func (f *Flaky) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// Products waits the configured latency, then fails or delegates.
func (f *Flaky) Products(ctx context.Context, q Query) (Result, error) {
	f.mu.Lock()
	f.calls++
	n := f.calls
	f.mu.Unlock()

	if f.latency > 0 {
		t := time.NewTimer(f.latency)
		select {
		case <-ctx.Done():
			t.Stop()
			return Result{}, ctx.Err()
		case <-t.C:
		}
	}

	if f.failEvery > 1 && n%f.failEvery != 0 {
		return Result{}, f.err
	}
	return f.src.Products(ctx, q)
}
