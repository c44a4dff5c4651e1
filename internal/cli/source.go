package cli

import (
	"context"
	"fmt"
	"sync"

	"github.com/rshade/storekit/internal/cache"
	"github.com/rshade/storekit/internal/catalog"
	"github.com/rshade/storekit/internal/config"
	"github.com/rshade/storekit/internal/logging"
	"github.com/rshade/storekit/internal/retry"
	"github.com/rshade/storekit/internal/watch"
)

// backend is the catalog source chain for one command:
// document -> fault injection -> file cache -> request coalescing.
type backend struct {
	source catalog.Source
	doc    *catalog.DocumentSource
	store  *cache.FileStore
	policy retry.Policy
	opts   []retry.Option

	// reloaded receives a value after the watched document is reloaded. It
	// is nil when the document is not watched.
	reloaded chan struct{}

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// openBackend builds the source chain described by cfg. When the source is a
// file and watching is enabled, the file is reloaded on change until Close.
func openBackend(ctx context.Context, cfg *config.Config, obs retry.Observer) (*backend, error) {
	log := logging.FromContext(ctx).With().Str("component", "backend").Logger()

	doc, err := openDocument(ctx, cfg.Source.Path)
	if err != nil {
		return nil, err
	}

	store, err := cache.NewFileStore(cache.Options{
		Directory: cfg.Cache.Directory,
		Enabled:   cfg.Cache.Enabled,
		TTL:       cfg.Cache.TTL,
		MaxSizeMB: cfg.Cache.MaxSizeMB,
	})
	if err != nil {
		return nil, fmt.Errorf("opening cache: %w", err)
	}
	if store.Enabled() {
		if removed, pruneErr := store.CleanupExpired(); pruneErr != nil {
			log.Warn().Err(pruneErr).Msg("pruning expired cache entries")
		} else if removed > 0 {
			log.Debug().Int("removed", removed).Msg("pruned expired cache entries")
		}
	}

	var src catalog.Source = doc
	if cfg.Source.FailEvery > 1 || cfg.Source.Latency > 0 {
		src = catalog.NewFlaky(src, cfg.Source.FailEvery, nil, cfg.Source.Latency)
		log.Info().
			Int("fail_every", cfg.Source.FailEvery).
			Dur("latency", cfg.Source.Latency).
			Msg("fault injection enabled")
	}
	src = catalog.NewDeduped(catalog.NewCached(src, store))

	b := &backend{
		source:   src,
		doc:      doc,
		store:    store,
		policy:   cfg.Retry,
		opts:     []retry.Option{retry.WithObserver(obs)},
		cancel:   func() {},
	}

	if cfg.Source.Watch && cfg.Source.Path != "" {
		b.watch(ctx, cfg.Source.Path)
	}
	return b, nil
}

func openDocument(ctx context.Context, path string) (*catalog.DocumentSource, error) {
	if path == "" {
		return catalog.NewSampleSource(ctx)
	}
	return catalog.NewFileSource(ctx, path)
}

// watch reloads the document when path changes. Cached pages are dropped
// after a successful reload.
func (b *backend) watch(ctx context.Context, path string) {
	ctx, b.cancel = context.WithCancel(ctx)
	b.reloaded = make(chan struct{}, 1)
	log := logging.FromContext(ctx)

	w := watch.New(path, watch.DefaultDelay, func(ctx context.Context, _ string) {
		if err := b.doc.Reload(ctx); err != nil {
			log.Warn().Str("component", "backend").Err(err).Msg("catalog reload failed, keeping previous snapshot")
			return
		}
		if b.store.Enabled() {
			if err := b.store.Clear(); err != nil {
				log.Warn().Str("component", "backend").Err(err).Msg("clearing cache after reload")
			}
		}
		select {
		case b.reloaded <- struct{}{}:
		default:
		}
	})

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		if err := w.Run(ctx); err != nil {
			log.Warn().Str("component", "backend").Err(err).Msg("file watch stopped")
		}
	}()
}

// Fetch runs one query through the retry executor.
func (b *backend) Fetch(ctx context.Context, q catalog.Query) (catalog.Result, error) {
	return catalog.Fetch(ctx, b.source, q, b.policy, b.opts...)
}

// Close stops the file watch, if any.
func (b *backend) Close() {
	b.cancel()
	b.wg.Wait()
}
