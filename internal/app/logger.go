package app

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/emissioncoresupport/evidence-ledger/internal/config"
)

const serviceName = "evidence-ledger"

// NewLogger builds the process logger from cfg, writes to stderr and installs
// it as the slog default.
//
// Format "json" is for production; any other format gives text output with
// source locations. Level is debug, info, warn or error; anything else is info.
func NewLogger(cfg config.LogConfig) *slog.Logger {
	logger := newLogger(os.Stderr, cfg)
	slog.SetDefault(logger)
	return logger
}

// newLogger builds the logger without touching the slog default. Every entry
// carries the app name, and timestamps are written in UTC to line up with
// the ledger's stored instants.
func newLogger(w io.Writer, cfg config.LogConfig) *slog.Logger {
	isJSON := strings.EqualFold(strings.TrimSpace(cfg.Format), "json")

	opts := &slog.HandlerOptions{
		Level:       parseLevel(cfg.Level),
		AddSource:   !isJSON,
		ReplaceAttr: utcTime,
	}

	var handler slog.Handler
	if isJSON {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler).With(slog.String("app", serviceName))
}

func utcTime(groups []string, a slog.Attr) slog.Attr {
	if len(groups) == 0 && a.Key == slog.TimeKey && a.Value.Kind() == slog.KindTime {
		a.Value = slog.TimeValue(a.Value.Time().UTC())
	}
	return a
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
