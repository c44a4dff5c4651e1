// Package logging builds the zerolog loggers used across storekit and carries
// them, together with a per-invocation trace id, through context.Context.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Output and format names accepted in Config.
const (
	OutputStderr = "stderr"
	OutputStdout = "stdout"
	OutputFile   = "file"

	FormatJSON    = "json"
	FormatConsole = "console"
)

// logFilePerm is the permission used when creating log files.
const logFilePerm = 0o600

// logDirPerm is the permission used when creating the log directory.
const logDirPerm = 0o750

// Config describes where and how log events are written.
type Config struct {
	Level  string
	Format string
	Output string
	File   string
	Caller bool
}

// LogPathResult reports which sink NewLoggerWithPath ended up using.
type LogPathResult struct {
	Logger         zerolog.Logger
	FilePath       string
	UsingFile      bool
	FallbackUsed   bool
	FallbackReason string

	file *os.File
}

// Close releases the log file handle, if one was opened.
func (r *LogPathResult) Close() error {
	if r == nil || r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}

// NewLogger builds a logger from cfg. File output problems silently fall back
// to stderr; use NewLoggerWithPath to learn about them.
func NewLogger(cfg Config) zerolog.Logger {
	return NewLoggerWithPath(cfg).Logger
}

// NewLoggerWithPath builds a logger from cfg and reports the sink in use.
// When file output is requested but the file cannot be opened, the logger
// writes to stderr and the reason is recorded in the result.
func NewLoggerWithPath(cfg Config) LogPathResult {
	var result LogPathResult

	var out io.Writer = os.Stderr
	switch strings.ToLower(cfg.Output) {
	case OutputStdout:
		out = os.Stdout
	case OutputFile:
		f, err := openLogFile(cfg.File)
		if err != nil {
			result.FallbackUsed = true
			result.FallbackReason = err.Error()
			break
		}
		out = f
		result.file = f
		result.FilePath = cfg.File
		result.UsingFile = true
	}

	if strings.ToLower(cfg.Format) == FormatConsole && !result.UsingFile {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	ctxBuilder := zerolog.New(out).
		Level(ParseLevel(cfg.Level)).
		Hook(traceHook{}).
		With().
		Timestamp()
	if cfg.Caller {
		ctxBuilder = ctxBuilder.Caller()
	}
	result.Logger = ctxBuilder.Logger()

	return result
}

// ParseLevel parses a zerolog level name, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	if level == "" {
		return zerolog.InfoLevel
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return zerolog.InfoLevel
	}
	return lvl
}

// ParseLevelStrict is ParseLevel without the fallback: unknown names are an
// error. An empty name is info.
func ParseLevelStrict(level string) (zerolog.Level, error) {
	if level == "" {
		return zerolog.InfoLevel, nil
	}
	return zerolog.ParseLevel(strings.ToLower(level))
}

// ComponentLogger returns a child logger tagged with the component name.
func ComponentLogger(l zerolog.Logger, component string) zerolog.Logger {
	return l.With().Str("component", component).Logger()
}

// PrintLogPathMessage tells the user where logs are being written.
func PrintLogPathMessage(w io.Writer, path string) {
	_, _ = fmt.Fprintf(w, "Logging to %s\n", path)
}

// PrintFallbackWarning tells the user that file logging was not possible.
func PrintFallbackWarning(w io.Writer, reason string) {
	_, _ = fmt.Fprintf(w, "Warning: file logging unavailable (%s), logging to stderr\n", reason)
}

func openLogFile(path string) (*os.File, error) {
	if path == "" {
		return nil, fmt.Errorf("no log file configured")
	}
	if err := os.MkdirAll(filepath.Dir(path), logDirPerm); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, logFilePerm)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	return f, nil
}
