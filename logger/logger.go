// Package logger builds the process slog.Logger.
package logger

import (
	"io"
	"log/slog"
	"strings"

	"github.com/lmittmann/tint"
)

// Level is the shared level of every logger built by New.
var Level = &slog.LevelVar{}

// SetByName sets Level from a name: err, warn, info or debug. Unknown names
// leave the level unchanged and report false.
func SetByName(name string) bool {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "err", "error":
		Level.Set(slog.LevelError)
	case "warn", "warning":
		Level.Set(slog.LevelWarn)
	case "info":
		Level.Set(slog.LevelInfo)
	case "debug":
		Level.Set(slog.LevelDebug)
	default:
		return false
	}
	return true
}

// New returns a logger writing to w: tint output for terminals, logfmt
// text otherwise.
func New(w io.Writer, color bool) *slog.Logger {
	if color {
		return slog.New(tint.NewHandler(w, &tint.Options{
			Level:      Level,
			TimeFormat: "15:04:05.000",
			AddSource:  Level.Level() <= slog.LevelDebug,
		}))
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: Level,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey {
				return slog.String(a.Key, strings.ToLower(a.Value.String()))
			}
			return a
		},
	}))
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
