package main

import (
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"

	"github.com/sagarc03/filegate/config"
)

// setupLogging installs the process-wide slog logger and routes the standard
// log package (used by net/http for server errors) through it.
func setupLogging(cfg *config.Config) {
	logger := slog.New(newLogHandler(os.Stdout, cfg))
	slog.SetDefault(logger)

	log.SetFlags(0)
	log.SetOutput(slog.NewLogLogger(logger.Handler(), slog.LevelError).Writer())
}

// newLogHandler returns JSON with a UTC "ts" field in prod and colored tint
// output otherwise. An unset level means info in prod and debug elsewhere.
func newLogHandler(w io.Writer, cfg *config.Config) slog.Handler {
	level := slog.LevelDebug
	if cfg.IsProd() {
		level = slog.LevelInfo
	}
	if cfg.Log.Level != "" {
		level = parseLevel(cfg.Log.Level)
	}

	if !cfg.IsProd() {
		return tint.NewHandler(w, &tint.Options{
			Level:      level,
			AddSource:  true,
			TimeFormat: time.TimeOnly + ".000",
		})
	}

	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) == 0 && a.Key == slog.TimeKey {
				return slog.String("ts", a.Value.Time().UTC().Format(time.RFC3339Nano))
			}
			return a
		},
	})
}

// parseLevel accepts slog level names ("warn", "error+2") plus "warning".
// Anything unrecognized is info.
func parseLevel(s string) slog.Level {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "warning") {
		return slog.LevelWarn
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}
