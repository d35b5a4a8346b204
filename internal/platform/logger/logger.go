package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/phrazzld/taskman-api/internal/config"
)

type contextKey struct{}

// Setup builds the application logger from cfg, writing to stdout, and
// installs it as the slog default.
func Setup(cfg config.ServerConfig) (*slog.Logger, error) {
	l, err := New(os.Stdout, cfg)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(l)
	return l, nil
}

// New builds a logger writing to w with the level and format from cfg.
func New(w io.Writer, cfg config.ServerConfig) (*slog.Logger, error) {
	level, err := ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch strings.ToLower(cfg.LogFormat) {
	case "", "json":
		handler = slog.NewJSONHandler(w, opts)
	case "text":
		handler = slog.NewTextHandler(w, opts)
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.LogFormat)
	}

	return slog.New(handler), nil
}

// ParseLevel converts a configured level name (case-insensitive) to a slog.Level.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", name)
}

// WithLogger returns a copy of ctx carrying l.
func WithLogger(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// FromContext returns the request-scoped logger, or slog.Default() when none is set.
func FromContext(ctx context.Context) *slog.Logger {
	return FromContextOrDefault(ctx, slog.Default())
}

// FromContextOrDefault returns the request-scoped logger, or def when none is set.
func FromContextOrDefault(ctx context.Context, def *slog.Logger) *slog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(contextKey{}).(*slog.Logger); ok && l != nil {
			return l
		}
	}
	if def == nil {
		return slog.Default()
	}
	return def
}

// Component tags every record with the emitting component, whether it is
// written through the request-scoped logger or the fallback.
type Component struct {
	name string
	base *slog.Logger
}

// NewComponent returns a Component named name that falls back to base.
// A nil base means slog.Default() at the time of each call.
func NewComponent(base *slog.Logger, name string) Component {
	return Component{name: name, base: base}
}

// From returns the logger for ctx tagged with the component name.
func (c Component) From(ctx context.Context) *slog.Logger {
	return FromContextOrDefault(ctx, c.base).With(slog.String("component", c.name))
}

// Base returns the untagged fallback logger.
func (c Component) Base() *slog.Logger {
	if c.base == nil {
		return slog.Default()
	}
	return c.base
}
