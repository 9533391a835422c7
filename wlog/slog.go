package wlog

import (
	"log/slog"
	"os"

	"github.com/joeycumines/logiface"
	islog "github.com/joeycumines/logiface-slog"
)

// NewSlog builds a Logger that writes through handler via logiface and
// logiface-slog.
func NewSlog(handler slog.Handler) Logger {
	return &slogLogger{l: islog.L.New(islog.L.WithSlogHandler(handler))}
}

// NewDefault returns a NewSlog logger writing text-formatted records to
// os.Stderr at info level and above.
func NewDefault() Logger {
	return NewSlog(slog.NewTextHandler(os.Stderr, nil))
}

type slogLogger struct {
	l *logiface.Logger[*islog.Event]
}

func (s *slogLogger) builder(level Level) *logiface.Builder[*islog.Event] {
	switch level {
	case LevelDebug:
		return s.l.Debug()
	case LevelWarn:
		return s.l.Warning()
	case LevelError:
		return s.l.Err()
	default:
		return s.l.Info()
	}
}

func (s *slogLogger) Enabled(level Level) bool {
	b := s.builder(level)
	enabled := b.Enabled()
	b.Release()
	return enabled
}

func (s *slogLogger) Log(level Level, msg string, fields ...Field) {
	b := s.builder(level)
	for _, f := range fields {
		b = b.Any(f.Key, f.Val)
	}
	b.Log(msg)
}
