package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// global is the process-wide logger and the file it writes to, if any.
var global struct {
	mu     sync.RWMutex
	logger *slog.Logger
	file   *os.File
}

// LogLevel is a logging verbosity.
type LogLevel string

const (
	LevelDebug LogLevel = "DEBUG"
	LevelInfo  LogLevel = "INFO"
	LevelWarn  LogLevel = "WARN"
	LevelError LogLevel = "ERROR"
)

// ParseLevel accepts a level name in any case.
func ParseLevel(s string) (LogLevel, error) {
	switch l := LogLevel(strings.ToUpper(strings.TrimSpace(s))); l {
	case LevelDebug, LevelInfo, LevelWarn, LevelError:
		return l, nil
	default:
		return "", fmt.Errorf("unknown log level %q", s)
	}
}

func (l LogLevel) slogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// Config holds logger configuration.
type Config struct {
	Level      LogLevel
	OutputPath string // empty for stderr
	Format     string // "json" or "text"
}

// Init installs the process-wide logger. Evaluation results go to stdout, so
// logs default to stderr. Init fails if a logger is already installed; call
// Close first to replace it.
//
// Example:
//
//	logging.Init(logging.Config{
//	    Level: logging.LevelDebug,
//	    OutputPath: "logs/pqleval.log",
//	    Format: "json",
//	})
func Init(config Config) error {
	global.mu.Lock()
	defer global.mu.Unlock()

	if global.logger != nil {
		return fmt.Errorf("logger already initialized; call Close() first to reinitialize")
	}

	var w io.Writer = os.Stderr
	if config.OutputPath != "" {
		if err := os.MkdirAll(filepath.Dir(config.OutputPath), 0o750); err != nil {
			return err
		}
		f, err := os.OpenFile(config.OutputPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return err
		}
		global.file = f
		w = f
	}

	global.logger = New(w, config.Level, config.Format)
	return nil
}

// New builds a standalone logger without touching the process-wide one.
func New(w io.Writer, level LogLevel, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level.slogLevel()}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return New(io.Discard, LevelError, "text")
}

// Close removes the process-wide logger and closes its file. Calling it
// again is a no-op.
func Close() error {
	global.mu.Lock()
	defer global.mu.Unlock()

	var err error
	if global.file != nil {
		err = global.file.Close()
		global.file = nil
	}
	global.logger = nil
	return err
}

// GetLogger returns the process-wide logger. Before Init it installs an
// INFO-level text logger on stderr.
func GetLogger() *slog.Logger {
	global.mu.RLock()
	logger := global.logger
	global.mu.RUnlock()
	if logger != nil {
		return logger
	}

	global.mu.Lock()
	defer global.mu.Unlock()
	if global.logger == nil {
		global.logger = New(os.Stderr, LevelInfo, "text")
	}
	return global.logger
}
