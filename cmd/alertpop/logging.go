package main

import (
	"io"
	"log/slog"
	"strings"

	"github.com/jpalmerr/alertpop/config"
	"gopkg.in/natefinch/lumberjack.v2"
)

// newLogger creates the CLI logger described by lc. Output goes to stderr,
// or to a size-rotated file when lc.File is set. The returned close function
// releases the file.
func newLogger(lc config.LogConfig, stderr io.Writer) (*slog.Logger, func() error) {
	out := stderr
	closeFn := func() error { return nil }

	if lc.File != "" {
		lj := &lumberjack.Logger{
			Filename:   lc.File,
			MaxSize:    lc.MaxSizeMB,
			MaxBackups: lc.MaxBackups,
			MaxAge:     lc.MaxAgeDays,
			Compress:   lc.Compress,
		}
		out = lj
		closeFn = lj.Close
	}

	opts := &slog.HandlerOptions{Level: parseLevel(lc.Level)}

	var h slog.Handler
	if lc.Format == "text" {
		h = slog.NewTextHandler(out, opts)
	} else {
		h = slog.NewJSONHandler(out, opts)
	}
	return slog.New(h), closeFn
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
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
