package main

import (
	"fmt"
	"io"
	"log/slog"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/jpalmerr/streamcheck/config"
)

// newLogger creates the CLI logger from the log settings.
//
// Logs always go to stderr. When a log file is configured they are also
// written there, rotated by size. The returned close function releases the
// log file and must be called before exit.
func newLogger(lc config.LogConfig, stderr io.Writer) (*slog.Logger, func() error, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(lc.Level)); err != nil {
		return nil, nil, fmt.Errorf("invalid log level %q: %w", lc.Level, err)
	}

	w := stderr
	closeFn := func() error { return nil }
	if lc.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   lc.File,
			MaxSize:    lc.MaxSizeMB,
			MaxBackups: lc.MaxBackups,
			MaxAge:     lc.MaxAgeDays,
			Compress:   lc.Compress,
		}
		w = io.MultiWriter(stderr, rotator)
		closeFn = rotator.Close
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch lc.Format {
	case "text":
		handler = slog.NewTextHandler(w, opts)
	default:
		handler = slog.NewJSONHandler(w, opts)
	}

	return slog.New(handler), closeFn, nil
}
