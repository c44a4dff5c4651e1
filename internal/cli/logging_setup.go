package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rshade/storekit/internal/config"
	"github.com/rshade/storekit/internal/logging"
)

// setupLogging configures logging from the logging section and CLI flags and
// stores the logger and a trace id in the command context.
func setupLogging(cmd *cobra.Command, lc config.LoggingConfig, debug bool) logging.LogPathResult {
	if debug {
		lc.Level = "debug"
		lc.Format = logging.FormatConsole
		lc.File = ""
	}

	if lc.File != "" {
		if _, err := config.EnsureDir(); err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Warning: could not create log directory: %v\n", err)
		}
	}

	result := logging.NewLoggerWithPath(lc.ToLoggingConfig())
	logger = logging.ComponentLogger(result.Logger, "cli")

	if result.UsingFile {
		logging.PrintLogPathMessage(cmd.ErrOrStderr(), result.FilePath)
	} else if result.FallbackUsed {
		logging.PrintFallbackWarning(cmd.ErrOrStderr(), result.FallbackReason)
	}

	ctx := cmd.Context()
	traceID := logging.GetOrGenerateTraceID(ctx)
	ctx = logging.ContextWithTraceID(ctx, traceID)
	ctx = result.Logger.WithContext(ctx)
	cmd.SetContext(ctx)

	logger.Debug().Ctx(ctx).Str("command", cmd.Name()).Msg("command started")

	return result
}

// cleanupLogging closes the log file handle.
func cleanupLogging(logResult *logging.LogPathResult) error {
	if logResult != nil {
		return logResult.Close()
	}
	return nil
}
