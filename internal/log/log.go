// Package log wraps log/slog behind a small interface so every stage of a
// pipeline (registry, binder, tracker, runtime, composites) logs through the
// same call shape regardless of which *slog.Logger backs it. Grounded on the
// teacher's own public/service/stream_builder.go, which threads "log/slog"
// directly rather than reaching for a third-party logging facade.
package log

import (
	"context"
	"log/slog"
	"os"
)

// Modular is the logging surface consumed by the rest of the module. It
// mirrors the subset of *slog.Logger the runtime actually calls, plus With
// for attaching stage-scoped fields (component, label, message_id, ...).
type Modular interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	With(args ...any) Modular
}

type slogModular struct {
	l *slog.Logger
}

// New returns a Modular backed by the given *slog.Logger, or a sensible
// text-handler default writing to stderr at Info level when l is nil.
func New(l *slog.Logger) Modular {
	if l == nil {
		l = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return &slogModular{l: l}
}

// Noop returns a Modular that discards everything, useful for tests that
// don't want log noise.
func Noop() Modular {
	return New(slog.New(slog.NewTextHandler(discard{}, &slog.HandlerOptions{Level: slog.LevelError + 1})))
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

func (s *slogModular) Debug(msg string, args ...any) { s.l.Log(context.Background(), slog.LevelDebug, msg, args...) }
func (s *slogModular) Info(msg string, args ...any)  { s.l.Log(context.Background(), slog.LevelInfo, msg, args...) }
func (s *slogModular) Warn(msg string, args ...any)  { s.l.Log(context.Background(), slog.LevelWarn, msg, args...) }
func (s *slogModular) Error(msg string, args ...any) { s.l.Log(context.Background(), slog.LevelError, msg, args...) }

func (s *slogModular) With(args ...any) Modular {
	return &slogModular{l: s.l.With(args...)}
}
