package config

import (
	"fmt"
	"strconv"
	"time"

	"github.com/rshade/storekit/internal/cache"
)

// Environment variables that override file settings.
const (
	EnvHome              = "STOREKIT_HOME"
	EnvLogLevel          = "STOREKIT_LOG_LEVEL"
	EnvLogFormat         = "STOREKIT_LOG_FORMAT"
	EnvPageSize          = "STOREKIT_PAGE_SIZE"
	EnvRetryMaxAttempts  = "STOREKIT_RETRY_MAX_ATTEMPTS"
	EnvRetryInitialDelay = "STOREKIT_RETRY_INITIAL_DELAY"
	EnvSource            = "STOREKIT_SOURCE"
	EnvCacheEnabled      = "STOREKIT_CACHE_ENABLED"
	EnvCacheDir          = "STOREKIT_CACHE_DIR"
	EnvCacheTTL          = "STOREKIT_CACHE_TTL"
	EnvCacheMaxSize      = "STOREKIT_CACHE_MAX_SIZE_MB"
	EnvMetricsAddr       = "STOREKIT_METRICS_ADDR"
)

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// ApplyEnv overrides settings from the environment. Malformed values are
// rejected rather than ignored.
func (c *Config) ApplyEnv(lookup LookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	integer := func(key string, dst *int) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not an integer", ErrInvalidConfig, key, v)
		}
		*dst = n
		return nil
	}
	duration := func(key string, dst *time.Duration, parse func(string) (time.Duration, error)) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		d, err := parse(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q: %w", ErrInvalidConfig, key, v, err)
		}
		*dst = d
		return nil
	}

	str(EnvLogLevel, &c.Logging.Level)
	str(EnvLogFormat, &c.Logging.Format)
	str(EnvSource, &c.Source.Path)
	str(EnvCacheDir, &c.Cache.Directory)
	str(EnvMetricsAddr, &c.Metrics.Addr)

	if err := integer(EnvPageSize, &c.List.PageSize); err != nil {
		return err
	}
	if err := integer(EnvRetryMaxAttempts, &c.Retry.MaxAttempts); err != nil {
		return err
	}
	if err := integer(EnvCacheMaxSize, &c.Cache.MaxSizeMB); err != nil {
		return err
	}
	if err := duration(EnvRetryInitialDelay, &c.Retry.InitialDelay, time.ParseDuration); err != nil {
		return err
	}
	if err := duration(EnvCacheTTL, &c.Cache.TTL, cache.ParseTTL); err != nil {
		return err
	}

	if v, ok := lookup(EnvCacheEnabled); ok && v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not a boolean", ErrInvalidConfig, EnvCacheEnabled, v)
		}
		c.Cache.Enabled = enabled
	}
	return nil
}
