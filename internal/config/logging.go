package config

import (
	"github.com/rshade/storekit/internal/logging"
)

// ToLoggingConfig converts the logging section for logging.NewLoggerWithPath.
// A configured file switches output to the file; otherwise logs go to stderr.
func (lc LoggingConfig) ToLoggingConfig() logging.Config {
	output := logging.OutputStderr
	if lc.File != "" {
		output = logging.OutputFile
	}
	return logging.Config{
		Level:  lc.Level,
		Format: lc.Format,
		Output: output,
		File:   lc.File,
	}
}
