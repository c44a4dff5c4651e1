package cache

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/rshade/storekit/internal/logging"
)

// Load returns the cached value for params, or calls load and caches its
// result. A nil or disabled store always calls load. Cache read and write
// failures are logged and never fail the call. The boolean reports a hit.
func Load[T any](
	ctx context.Context,
	store *FileStore,
	params KeyParams,
	load func(context.Context) (T, error),
) (T, bool, error) {
	if store == nil || !store.Enabled() {
		v, err := load(ctx)
		return v, false, err
	}

	log := logging.FromContext(ctx)
	key, err := GenerateKey(params)
	if err != nil {
		v, loadErr := load(ctx)
		return v, false, loadErr
	}

	if entry, getErr := store.Get(ctx, key); getErr == nil {
		var v T
		if jsonErr := json.Unmarshal(entry.Data, &v); jsonErr == nil {
			log.Debug().Str("component", "cache").Str("operation", params.Operation).Msg("cache hit")
			return v, true, nil
		}
		log.Warn().Str("component", "cache").Str("key", key).Msg("discarding undecodable cache entry")
	} else if !errors.Is(getErr, ErrCacheNotFound) && !errors.Is(getErr, ErrCacheExpired) {
		log.Warn().Str("component", "cache").Err(getErr).Msg("cache read failed")
	}

	v, err := load(ctx)
	if err != nil {
		return v, false, err
	}

	raw, err := json.Marshal(v)
	if err != nil {
		log.Warn().Str("component", "cache").Err(err).Msg("value not cacheable")
		return v, false, nil
	}
	if setErr := store.Set(ctx, key, params.Operation, raw); setErr != nil {
		log.Warn().Str("component", "cache").Err(setErr).Msg("cache write failed")
	}
	return v, false, nil
}
