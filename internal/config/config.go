// Package config loads storekit settings from YAML, an optional .env file
// and STOREKIT_* environment variables, in increasing precedence.
package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/rshade/storekit/internal/cache"
	"github.com/rshade/storekit/internal/debounce"
	"github.com/rshade/storekit/internal/logging"
	"github.com/rshade/storekit/internal/retry"
)

// Schema versions.
const (
	CurrentSchemaVersion = "1.0.0"
	supportedSchema      = "^1"
)

// List defaults.
const (
	DefaultPageSize = 10
	MaxPageSize     = 1000
	DefaultLocale   = "en"
)

// ErrInvalidConfig marks a configuration that failed validation.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the full storekit configuration.
type Config struct {
	SchemaVersion string        `yaml:"schema_version"`
	Logging       LoggingConfig `yaml:"logging"`
	Retry         retry.Policy  `yaml:"retry"`
	List          ListConfig    `yaml:"list"`
	Search        SearchConfig  `yaml:"search"`
	Cache         CacheConfig   `yaml:"cache"`
	Source        SourceConfig  `yaml:"source"`
	Metrics       MetricsConfig `yaml:"metrics"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// ListConfig holds list presentation defaults.
type ListConfig struct {
	PageSize int `yaml:"page_size"`
	// Sort is "field" or "field:asc|desc".
	Sort string `yaml:"sort"`
	// Locale is a BCP 47 tag used for string ordering.
	Locale string `yaml:"locale"`
}

// SearchConfig controls search-as-you-type.
type SearchConfig struct {
	Debounce time.Duration `yaml:"debounce"`
}

// CacheConfig controls the query result cache.
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled"`
	Directory string        `yaml:"directory"`
	TTL       time.Duration `yaml:"ttl"`
	MaxSizeMB int           `yaml:"max_size_mb"`
}

// SourceConfig selects the catalog document.
type SourceConfig struct {
	// Path is a GraphQL-shaped JSON document. Empty uses the built-in sample.
	Path string `yaml:"path"`
	// Watch reloads Path when it changes.
	Watch bool `yaml:"watch"`
	// FailEvery injects transient failures for resilience demos; see
	// catalog.NewFlaky. Zero disables injection.
	FailEvery int `yaml:"fail_every"`
	// Latency delays every source call.
	Latency time.Duration `yaml:"latency"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	// Addr enables /metrics on this address, e.g. ":9090".
	Addr string `yaml:"addr"`
}

// New returns the defaults.
func New() *Config {
	cacheDir, _ := CacheDir()
	return &Config{
		SchemaVersion: CurrentSchemaVersion,
		Logging: LoggingConfig{
			Level:  "info",
			Format: logging.FormatConsole,
		},
		Retry: retry.DefaultPolicy(),
		List: ListConfig{
			PageSize: DefaultPageSize,
			Locale:   DefaultLocale,
		},
		Search: SearchConfig{Debounce: debounce.DefaultDelay},
		Cache: CacheConfig{
			Enabled:   false,
			Directory: cacheDir,
			TTL:       cache.DefaultTTL,
			MaxSizeMB: cache.DefaultMaxSizeMB,
		},
	}
}

// LoadOptions locates the configuration inputs.
type LoadOptions struct {
	// Path is the main config file. Empty uses ~/.storekit/config.yaml.
	// A missing default file is not an error; a missing explicit one is.
	Path string
	// ProjectFile is shallow-merged over the main file when it exists.
	ProjectFile string
	// EnvFile is a dotenv file loaded into the process environment without
	// overriding variables that are already set. Missing files are ignored.
	EnvFile string
}

// Load builds a validated Config from defaults, files and environment.
func Load(ctx context.Context, opts LoadOptions) (*Config, error) {
	log := logging.FromContext(ctx).With().Str("component", "config").Logger()
	cfg := New()

	if opts.EnvFile != "" {
		if err := godotenv.Load(opts.EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading env file %s: %w", opts.EnvFile, err)
		}
	}

	path, explicit := opts.Path, opts.Path != ""
	if !explicit {
		path, _ = DefaultConfigPath()
	}
	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			if explicit || !errors.Is(err, fs.ErrNotExist) {
				return nil, err
			}
			log.Debug().Str("path", path).Msg("no config file, using defaults")
		}
	}

	if opts.ProjectFile != "" {
		if _, err := os.Stat(opts.ProjectFile); err == nil {
			if mergeErr := ShallowMergeYAML(cfg, opts.ProjectFile); mergeErr != nil {
				return nil, mergeErr
			}
			log.Debug().Str("path", opts.ProjectFile).Msg("merged project config")
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// mergeFile decodes path onto cfg. Fields absent from the file keep their
// current values.
func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config %s: %w", path, err)
	}
	if err = yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("%w: parsing %s: %w", ErrInvalidConfig, path, err)
	}
	return nil
}

// Validate checks every section. The first problem found is returned.
func (c *Config) Validate() error {
	if err := checkSchema(c.SchemaVersion); err != nil {
		return err
	}
	if _, err := logging.ParseLevelStrict(c.Logging.Level); err != nil {
		return fmt.Errorf("%w: logging.level: %w", ErrInvalidConfig, err)
	}
	switch c.Logging.Format {
	case "", logging.FormatConsole, logging.FormatJSON:
	default:
		return fmt.Errorf("%w: logging.format must be console or json, got %q", ErrInvalidConfig, c.Logging.Format)
	}
	if err := c.Retry.Validate(); err != nil {
		return fmt.Errorf("%w: retry: %w", ErrInvalidConfig, err)
	}
	if c.List.PageSize <= 0 || c.List.PageSize > MaxPageSize {
		return fmt.Errorf("%w: list.page_size must be between 1 and %d, got %d",
			ErrInvalidConfig, MaxPageSize, c.List.PageSize)
	}
	if c.Search.Debounce < 0 {
		return fmt.Errorf("%w: search.debounce must be >= 0, got %s", ErrInvalidConfig, c.Search.Debounce)
	}
	if c.Cache.Enabled {
		if strings.TrimSpace(c.Cache.Directory) == "" {
			return fmt.Errorf("%w: cache.directory is required when the cache is enabled", ErrInvalidConfig)
		}
		if err := cache.ValidateTTL(c.Cache.TTL); err != nil {
			return fmt.Errorf("%w: cache.ttl: %w", ErrInvalidConfig, err)
		}
		if c.Cache.MaxSizeMB < 0 {
			return fmt.Errorf("%w: cache.max_size_mb must be >= 0", ErrInvalidConfig)
		}
	}
	if c.Source.FailEvery < 0 || c.Source.Latency < 0 {
		return fmt.Errorf("%w: source.fail_every and source.latency must be >= 0", ErrInvalidConfig)
	}
	return nil
}

func checkSchema(version string) error {
	if version == "" {
		return nil
	}
	v, err := semver.NewVersion(version)
	if err != nil {
		return fmt.Errorf("%w: schema_version %q: %w", ErrInvalidConfig, version, err)
	}
	constraint, err := semver.NewConstraint(supportedSchema)
	if err != nil {
		return fmt.Errorf("parsing schema constraint: %w", err)
	}
	if !constraint.Check(v) {
		return fmt.Errorf("%w: schema_version %s is not supported (want %s)", ErrInvalidConfig, v, supportedSchema)
	}
	return nil
}

// Marshal renders the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
