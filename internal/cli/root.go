package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/rshade/storekit/internal/config"
	"github.com/rshade/storekit/internal/logging"
	"github.com/rshade/storekit/internal/metrics"
)

// annotationSkipConfig marks commands that load configuration themselves.
const annotationSkipConfig = "storekit/skip-config"

// isTerminal checks if the given file is a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// logger is the package-level logger for CLI operations.
var logger zerolog.Logger //nolint:gochecknoglobals // Required for zerolog context integration

// globalFlags are the persistent root flags.
type globalFlags struct {
	configPath  string
	debug       bool
	logLevel    string
	metricsAddr string
	source      string
}

// app is the per-invocation state shared by subcommands. It is filled in by
// the root PersistentPreRunE.
type app struct {
	flags     globalFlags
	cfg       *config.Config
	recorder  *metrics.Recorder
	server    *metrics.Server
	logResult *logging.LogPathResult
}

// NewRootCmd creates the root Cobra command for the storekit CLI.
// It loads configuration, wires logging and the optional metrics endpoint,
// and registers the list, browse and config subcommands.
func NewRootCmd(ver string) *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:           "storekit",
		Short:         "Browse a product catalog over an unreliable backend",
		Long:          "storekit: page, sort and search a product catalog with retries, caching and debounced search",
		Version:       ver,
		Example:       rootCmdExample,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return a.teardown(cmd)
		},
	}

	f := &a.flags
	cmd.PersistentFlags().StringVar(&f.configPath, "config", "", "config file (default ~/.storekit/config.yaml)")
	cmd.PersistentFlags().BoolVar(&f.debug, "debug", false, "enable debug logging")
	cmd.PersistentFlags().StringVar(&f.logLevel, "log-level", "", "log level: trace, debug, info, warn, error")
	cmd.PersistentFlags().StringVar(&f.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	cmd.PersistentFlags().StringVar(&f.source, "source", "", "catalog document (default: built-in sample)")

	cmd.AddCommand(newListCmd(a), newBrowseCmd(a), newConfigCmd(a))
	return cmd
}

// setup loads configuration, applies flag overrides and starts logging and
// metrics.
func (a *app) setup(cmd *cobra.Command) error {
	a.cfg = config.New()
	if _, skip := cmd.Annotations[annotationSkipConfig]; !skip {
		cfg, err := config.Load(cmd.Context(), config.LoadOptions{
			Path:        a.flags.configPath,
			ProjectFile: config.ProjectFileName,
			EnvFile:     config.EnvFileName,
		})
		if err != nil {
			return fmt.Errorf("loading configuration: %w", err)
		}
		a.cfg = cfg
	}

	if err := a.applyFlags(cmd); err != nil {
		return err
	}

	result := setupLogging(cmd, a.cfg.Logging, a.flags.debug)
	a.logResult = &result

	a.recorder = metrics.NewRecorder()
	if a.cfg.Metrics.Addr != "" {
		a.server = metrics.NewServer(a.recorder, a.cfg.Metrics.Addr)
		a.server.Start(cmd.Context())
	}
	return nil
}

// applyFlags overrides configuration with explicitly set persistent flags.
func (a *app) applyFlags(cmd *cobra.Command) error {
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		if _, err := logging.ParseLevelStrict(a.flags.logLevel); err != nil {
			return fmt.Errorf("--log-level: %w", err)
		}
		a.cfg.Logging.Level = a.flags.logLevel
	}
	if flags.Changed("metrics-addr") {
		a.cfg.Metrics.Addr = a.flags.metricsAddr
	}
	if flags.Changed("source") {
		a.cfg.Source.Path = a.flags.source
	}
	return nil
}

// teardown stops the metrics server and closes log handles.
func (a *app) teardown(cmd *cobra.Command) error {
	var errs []error
	if a.server != nil {
		errs = append(errs, a.server.Stop(cmd.Context()))
		a.server = nil
	}
	errs = append(errs, cleanupLogging(a.logResult))
	return errors.Join(errs...)
}

const rootCmdExample = `  # List the first page of the built-in sample catalog
  storekit list

  # Sort by price, highest first, 5 per page
  storekit list --sort price:desc --page-size 5

  # Search and print every matching product as JSON
  storekit list --search lamp --all --output json

  # Browse interactively with search-as-you-type
  storekit browse

  # Serve retry metrics while browsing
  storekit browse --metrics-addr :9090

  # Check the configuration
  storekit config validate`

// newConfigCmd creates the config command group with configuration subcommands.
func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "config", Short: "Configuration management commands"}
	cmd.AddCommand(newConfigInitCmd(), newConfigValidateCmd(a), newConfigShowCmd(a))
	return cmd
}
