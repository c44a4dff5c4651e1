package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rshade/storekit/internal/cache"
	"github.com/rshade/storekit/internal/config"
	"github.com/rshade/storekit/internal/retry"
)

// newConfigValidateCmd creates the config validate command. It loads the
// configuration the same way every other command does and reports the first
// problem.
func newConfigValidateCmd(a *app) *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:         "validate",
		Short:       "Validate configuration file",
		Annotations: map[string]string{annotationSkipConfig: ""},
		Long: `Validates the configuration for syntax and semantic correctness.

The main file, the .storekit.yaml project overlay, .env and STOREKIT_*
environment variables are combined first, exactly as for other commands.`,
		Example: `  # Validate current configuration
  storekit config validate

  # Validate a specific file and print the effective retry schedule
  storekit config validate --config ./ci.yaml --verbose`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd.Context(), config.LoadOptions{
				Path:        a.flags.configPath,
				ProjectFile: config.ProjectFileName,
				EnvFile:     config.EnvFileName,
			})
			if err != nil {
				return fmt.Errorf("configuration validation failed: %w", err)
			}
			cmd.Printf("Configuration is valid\n")
			if verbose {
				printVerboseDetails(cmd, cfg)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "show detailed validation information")
	return cmd
}

// printVerboseDetails prints the effective settings that shape runtime
// behavior.
func printVerboseDetails(cmd *cobra.Command, cfg *config.Config) {
	cmd.Printf("\nList:\n  page size: %d\n", cfg.List.PageSize)
	if cfg.List.Sort != "" {
		cmd.Printf("  sort: %s\n", cfg.List.Sort)
	}
	cmd.Printf("\nRetry:\n  max attempts: %d\n", cfg.Retry.MaxAttempts)
	for i, d := range retry.Delays(cfg.Retry) {
		cmd.Printf("  wait after attempt %d: %s\n", i+1, d)
	}
	cmd.Printf("\nSearch:\n  debounce: %s\n", cfg.Search.Debounce)
	if cfg.Cache.Enabled {
		cmd.Printf("\nCache:\n  directory: %s\n  ttl: %s\n", cfg.Cache.Directory, cache.FormatDuration(cfg.Cache.TTL))
		printCacheUsage(cmd, cfg.Cache)
	} else {
		cmd.Printf("\nCache: disabled\n")
	}
}

// printCacheUsage reports the entries already on disk. A cache directory that
// does not exist yet is reported as empty and is not created.
func printCacheUsage(cmd *cobra.Command, cc config.CacheConfig) {
	if _, err := os.Stat(cc.Directory); err != nil {
		cmd.Printf("  entries: 0\n")
		return
	}
	store, err := cache.NewFileStore(cache.Options{
		Directory: cc.Directory,
		Enabled:   true,
		TTL:       cc.TTL,
		MaxSizeMB: cc.MaxSizeMB,
	})
	if err != nil {
		cmd.Printf("  usage: unavailable (%v)\n", err)
		return
	}
	count, err := store.Count()
	if err != nil {
		cmd.Printf("  usage: unavailable (%v)\n", err)
		return
	}
	size, err := store.Size()
	if err != nil {
		cmd.Printf("  usage: unavailable (%v)\n", err)
		return
	}
	cmd.Printf("  entries: %d (%d bytes)\n", count, size)
}

// newConfigShowCmd prints the effective configuration as YAML.
func newConfigShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := a.cfg.Marshal()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}
