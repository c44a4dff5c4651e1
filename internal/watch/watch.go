// Package watch reloads a file when it changes on disk. Bursts of events,
// such as an editor's write-rename-chmod sequence, collapse into a single
// reload once the file has been quiet for the debounce interval.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/rshade/storekit/internal/debounce"
	"github.com/rshade/storekit/internal/logging"
)

// DefaultDelay is the quiet interval before a reload.
const DefaultDelay = 200 * time.Millisecond

// Reloader is called with the changed path after a burst settles.
type Reloader func(ctx context.Context, path string)

// Watcher watches one file.
type Watcher struct {
	path     string
	delay    time.Duration
	onChange Reloader
	started  chan struct{}
}

// New returns a watcher for path. A non-positive delay uses DefaultDelay.
func New(path string, delay time.Duration, onChange Reloader) *Watcher {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Watcher{
		path:     filepath.Clean(path),
		delay:    delay,
		onChange: onChange,
		started:  make(chan struct{}),
	}
}

// Started is closed once the watch is registered.
func (w *Watcher) Started() <-chan struct{} {
	return w.started
}

// Run watches until ctx is done. The parent directory is watched rather than
// the file itself so that atomic replace-by-rename is seen.
func (w *Watcher) Run(ctx context.Context) error {
	log := logging.FromContext(ctx).With().Str("component", "watch").Str("path", w.path).Logger()

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	if err = fw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(w.path), err)
	}

	reload := debounce.New(w.delay, func(path string) {
		log.Debug().Msg("file changed, reloading")
		w.onChange(ctx, path)
	})
	defer reload.Cancel()

	close(w.started)
	log.Debug().Dur("delay", w.delay).Msg("watching for changes")

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			reload.Call(w.path)
		case werr, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(werr).Msg("watcher error")
		}
	}
}
