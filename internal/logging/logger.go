package logging

import (
	"context"
	"errors"
	"log/slog"
	"os"
)

// Sink is an extra log destination with its own minimum level.
type Sink struct {
	Handler  slog.Handler
	MinLevel slog.Level
}

// Setup installs the process logger. Records always go to stdout as JSON at
// level; each sink additionally receives records at or above its MinLevel.
// Calling Setup again replaces the previous default logger.
func Setup(level slog.Level, sinks ...Sink) slog.Handler {
	stdout := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})
	var handler slog.Handler = stdout
	if len(sinks) > 0 {
		handler = newFanout(append([]Sink{{Handler: stdout, MinLevel: level}}, sinks...))
	}
	slog.SetDefault(slog.New(handler))
	return handler
}

// ParseLevel maps LOG_LEVEL values to slog levels, defaulting to info.
func ParseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}

type fanout struct {
	sinks []Sink
}

func newFanout(sinks []Sink) *fanout {
	kept := make([]Sink, 0, len(sinks))
	for _, s := range sinks {
		if s.Handler != nil {
			kept = append(kept, s)
		}
	}
	return &fanout{sinks: kept}
}

func (f *fanout) accepts(ctx context.Context, s Sink, level slog.Level) bool {
	return level >= s.MinLevel && s.Handler.Enabled(ctx, level)
}

func (f *fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, s := range f.sinks {
		if f.accepts(ctx, s, level) {
			return true
		}
	}
	return false
}

// Handle delivers to every accepting sink; one failing sink does not stop the rest.
func (f *fanout) Handle(ctx context.Context, record slog.Record) error {
	var errs []error
	for _, s := range f.sinks {
		if !f.accepts(ctx, s, record.Level) {
			continue
		}
		if err := s.Handler.Handle(ctx, record.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f *fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	return f.derive(func(h slog.Handler) slog.Handler { return h.WithAttrs(attrs) })
}

func (f *fanout) WithGroup(name string) slog.Handler {
	return f.derive(func(h slog.Handler) slog.Handler { return h.WithGroup(name) })
}

func (f *fanout) derive(fn func(slog.Handler) slog.Handler) *fanout {
	sinks := make([]Sink, len(f.sinks))
	for i, s := range f.sinks {
		sinks[i] = Sink{Handler: fn(s.Handler), MinLevel: s.MinLevel}
	}
	return &fanout{sinks: sinks}
}
