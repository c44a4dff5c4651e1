package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func startWatcher(t *testing.T, w *Watcher) (stop func()) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	select {
	case <-w.Started():
	case err := <-done:
		cancel()
		t.Fatalf("watcher exited early: %v", err)
	case <-time.After(5 * time.Second):
		cancel()
		t.Fatal("watcher did not start")
	}

	return func() {
		cancel()
		require.NoError(t, <-done)
	}
}

func TestWatcherCollapsesBursts(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o600))

	var reloads atomic.Int32
	var lastPath atomic.Value
	w := New(path, 100*time.Millisecond, func(_ context.Context, p string) {
		reloads.Add(1)
		lastPath.Store(p)
	})
	stop := startWatcher(t, w)
	defer stop()

	for i := range 5 {
		require.NoError(t, os.WriteFile(path, []byte{'{', byte('0' + i), '}'}, 0o600))
		time.Sleep(5 * time.Millisecond)
	}

	assert.Eventually(t, func() bool { return reloads.Load() >= 1 }, 3*time.Second, 10*time.Millisecond)
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, int32(1), reloads.Load())
	assert.Equal(t, path, lastPath.Load())
}

func TestWatcherIgnoresSiblings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o600))

	var reloads atomic.Int32
	w := New(path, 20*time.Millisecond, func(context.Context, string) { reloads.Add(1) })
	stop := startWatcher(t, w)
	defer stop()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.json"), []byte("{}"), 0o600))
	time.Sleep(200 * time.Millisecond)
	assert.Zero(t, reloads.Load())
}

func TestWatcherMissingDirectory(t *testing.T) {
	w := New(filepath.Join(t.TempDir(), "nope", "catalog.json"), 0, func(context.Context, string) {})
	err := w.Run(context.Background())
	assert.Error(t, err)
	assert.Equal(t, DefaultDelay, w.delay)
}
