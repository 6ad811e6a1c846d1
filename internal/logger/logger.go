package logger

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const serviceName = "artline-cms"

var zlog = zerolog.New(os.Stdout).With().Timestamp().Logger()

type Config struct {
	Level      string
	Production bool
	Output     io.Writer
}

// Init configures the global logger. Production writes JSON, everything else
// gets the pretty console writer.
func Init(cfg Config) {
	var w io.Writer = os.Stdout
	if cfg.Output != nil {
		w = cfg.Output
	}
	if !cfg.Production {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}
	}

	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	zerolog.TimeFieldFormat = time.RFC3339
	zlog = zerolog.New(w).Level(level).With().
		Timestamp().
		Str("service", serviceName).
		Logger()

	if err != nil {
		zlog.Warn().Str("level", cfg.Level).Msg("invalid log level, defaulting to info")
	}
}

// L returns the global logger.
func L() *zerolog.Logger {
	return &zlog
}

// Component returns a child logger tagged with a component name.
func Component(name string) zerolog.Logger {
	return zlog.With().Str("component", name).Logger()
}

// WithRequestID returns a logger with request_id field
func WithRequestID(requestID string) zerolog.Logger {
	return zlog.With().Str("request_id", requestID).Logger()
}

// FromContext returns the request logger stored by the request middleware,
// or the global logger.
func FromContext(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l != nil && l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &zlog
}
