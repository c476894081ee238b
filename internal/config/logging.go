package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// ParseLogLevel maps LOG_LEVEL to a slog level. Unknown values mean info.
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger builds the process logger. Records go to stdout and, when LogFile
// is set, are appended to that file as well. LOG_FORMAT selects the handler
// unless forceJSON is set (Lambda). The returned close func releases the file.
//
// A log file that cannot be opened is reported on the returned logger and
// skipped; it never prevents a run.
func (c *Config) NewLogger(stdout io.Writer, forceJSON bool) (*slog.Logger, func() error) {
	closer := func() error { return nil }
	w := stdout

	var fileErr error
	if c.LogFile != "" {
		f, err := openLogFile(c.LogFile)
		if err != nil {
			fileErr = err
		} else {
			w = io.MultiWriter(stdout, f)
			closer = f.Close
		}
	}

	opts := &slog.HandlerOptions{Level: ParseLogLevel(c.LogLevel)}
	var h slog.Handler
	if forceJSON || c.LogFormat == "json" {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}

	logger := slog.New(h).With(
		"service", c.Service,
		"env", c.Environment,
		"version", c.Build.Version,
	)
	if fileErr != nil {
		logger.Warn("log file unavailable, logging to stdout only", "path", c.LogFile, "error", fileErr)
	}
	return logger, closer
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}
	return os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
}
