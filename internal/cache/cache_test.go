package cache

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newStore(t *testing.T, maxMB int) (*FileStore, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	store, err := NewFileStore(Options{
		Directory: t.TempDir(),
		Enabled:   true,
		TTL:       time.Minute,
		MaxSizeMB: maxMB,
		Now:       clock.now,
	})
	require.NoError(t, err)
	return store, clock
}

func TestGenerateKey(t *testing.T) {
	k1, err := GenerateKey(KeyParams{Operation: "products", Search: "Shoe", Page: 2, PageSize: 20})
	require.NoError(t, err)
	assert.Len(t, k1, 64)

	k2, err := GenerateKey(KeyParams{Operation: " PRODUCTS", Search: "shoe ", Page: 2, PageSize: 20})
	require.NoError(t, err)
	assert.Equal(t, k1, k2, "normalized params share a key")

	k3, err := GenerateKey(KeyParams{Operation: "products", Search: "shoe", Page: 3, PageSize: 20})
	require.NoError(t, err)
	assert.NotEqual(t, k1, k3)

	_, err = GenerateKey(KeyParams{})
	assert.ErrorIs(t, err, ErrInvalidCacheKey)
}

func TestFileStore(t *testing.T) {
	ctx := context.Background()
	store, clock := newStore(t, 0)
	data := json.RawMessage(`{"items":[{"sku":"A-1"}],"total":1}`)

	t.Run("set and get", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, "k1", "products", data))
		entry, err := store.Get(ctx, "k1")
		require.NoError(t, err)
		assert.JSONEq(t, string(data), string(entry.Data))
		assert.Equal(t, "products", entry.Operation)

		count, err := store.Count()
		require.NoError(t, err)
		assert.Equal(t, 1, count)

		size, err := store.Size()
		require.NoError(t, err)
		assert.Positive(t, size)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := store.Get(ctx, "nope")
		assert.ErrorIs(t, err, ErrCacheNotFound)
	})

	t.Run("invalid key", func(t *testing.T) {
		assert.ErrorIs(t, store.Set(ctx, "../escape", "x", data), ErrInvalidCacheKey)
		_, err := store.Get(ctx, "")
		assert.ErrorIs(t, err, ErrInvalidCacheKey)
	})

	t.Run("expiry", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, "short", "products", data))
		clock.advance(2 * time.Minute)

		_, err := store.Get(ctx, "short")
		assert.ErrorIs(t, err, ErrCacheExpired)
		_, err = os.Stat(filepath.Join(store.Directory(), "short.json"))
		assert.True(t, errors.Is(err, os.ErrNotExist), "expired entry removed on read")
	})

	t.Run("cleanup", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, "a", "products", data))
		require.NoError(t, store.Set(ctx, "b", "products", data))
		clock.advance(2 * time.Minute)
		require.NoError(t, store.Set(ctx, "fresh", "products", data))
		require.NoError(t, os.WriteFile(filepath.Join(store.Directory(), "junk.json"), []byte("{"), 0o600))

		removed, err := store.CleanupExpired()
		require.NoError(t, err)
		assert.GreaterOrEqual(t, removed, 3)

		_, err = store.Get(ctx, "fresh")
		assert.NoError(t, err)
	})

	t.Run("delete and clear", func(t *testing.T) {
		require.NoError(t, store.Delete("fresh"))
		require.NoError(t, store.Delete("fresh"), "delete is idempotent")
		require.NoError(t, store.Set(ctx, "x", "products", data))
		require.NoError(t, store.Clear())
		count, err := store.Count()
		require.NoError(t, err)
		assert.Zero(t, count)
	})
}

func TestFileStoreEvictsOldest(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t, 1)
	big := json.RawMessage(`"` + strings.Repeat("x", 400<<10) + `"`)

	require.NoError(t, store.Set(ctx, "old", "products", big))
	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(store.Directory(), "old.json"), past, past))
	require.NoError(t, store.Set(ctx, "mid", "products", big))
	require.NoError(t, store.Set(ctx, "new", "products", big))

	_, err := store.Get(ctx, "old")
	assert.ErrorIs(t, err, ErrCacheNotFound)
	_, err = store.Get(ctx, "new")
	assert.NoError(t, err)
}

func TestDisabledStore(t *testing.T) {
	store, err := NewFileStore(Options{})
	require.NoError(t, err)
	assert.False(t, store.Enabled())
	assert.ErrorIs(t, store.Set(context.Background(), "k", "op", nil), ErrCacheDisabled)
	_, err = store.Get(context.Background(), "k")
	assert.ErrorIs(t, err, ErrCacheDisabled)
	_, err = store.Count()
	assert.ErrorIs(t, err, ErrCacheDisabled)
}

func TestNewFileStoreValidation(t *testing.T) {
	_, err := NewFileStore(Options{Enabled: true})
	assert.Error(t, err)

	_, err = NewFileStore(Options{Enabled: true, Directory: t.TempDir(), TTL: 48 * time.Hour})
	assert.ErrorIs(t, err, ErrInvalidTTL)
}

func TestLoad(t *testing.T) {
	ctx := context.Background()
	store, clock := newStore(t, 0)
	params := KeyParams{Operation: "products", Page: 1, PageSize: 10}

	calls := 0
	load := func(context.Context) ([]string, error) {
		calls++
		return []string{"A-1", "B-2"}, nil
	}

	v, hit, err := Load(ctx, store, params, load)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, []string{"A-1", "B-2"}, v)

	v, hit, err = Load(ctx, store, params, load)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, []string{"A-1", "B-2"}, v)
	assert.Equal(t, 1, calls)

	clock.advance(time.Hour)
	_, hit, err = Load(ctx, store, params, load)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 2, calls)

	t.Run("errors are not cached", func(t *testing.T) {
		boom := errors.New("upstream down")
		failing := func(context.Context) ([]string, error) { return nil, boom }
		p := KeyParams{Operation: "products", Search: "fail"}
		_, _, err := Load(ctx, store, p, failing)
		assert.ErrorIs(t, err, boom)
		_, _, err = Load(ctx, store, p, load)
		assert.NoError(t, err)
	})

	t.Run("nil store passes through", func(t *testing.T) {
		_, hit, err := Load(ctx, nil, params, load)
		require.NoError(t, err)
		assert.False(t, hit)
	})
}

func TestTTL(t *testing.T) {
	d, err := ParseTTL("300")
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, d)

	d, err = ParseTTL("1h")
	require.NoError(t, err)
	assert.Equal(t, time.Hour, d)

	_, err = ParseTTL("soon")
	assert.Error(t, err)
	_, err = ParseTTL("0")
	assert.ErrorIs(t, err, ErrInvalidTTL)

	assert.Equal(t, "30s", FormatDuration(30*time.Second))
	assert.Equal(t, "5m", FormatDuration(5*time.Minute))
	assert.Equal(t, "2h30m", FormatDuration(2*time.Hour+30*time.Minute))
	assert.Equal(t, "3d", FormatDuration(72*time.Hour))
	assert.Equal(t, "3d2h", FormatDuration(74*time.Hour))
}
