package diag

import (
	"context"
	"log/slog"
)

// SlogSink writes events as structured log records.
type SlogSink struct {
	Logger *slog.Logger
	// Source, when set, is attached to every record (usually the file name).
	Source string
}

// NewSlogSink wraps logger; a nil logger means slog.Default().
func NewSlogSink(logger *slog.Logger) *SlogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogSink{Logger: logger}
}

// With returns a sink tagging records with source.
func (s *SlogSink) With(source string) *SlogSink {
	return &SlogSink{Logger: s.Logger, Source: source}
}

func (s *SlogSink) Emit(e Event) {
	e = e.withDefaults(nil)
	attrs := make([]slog.Attr, 0, 7)
	attrs = append(attrs, slog.String("kind", string(e.Kind)))
	if s.Source != "" {
		attrs = append(attrs, slog.String("source", s.Source))
	}
	for _, kv := range [...]struct{ k, v string }{
		{"segment", e.Segment},
		{"field", e.Field},
		{"target", e.Target},
		{"value", e.Value},
	} {
		if kv.v != "" {
			attrs = append(attrs, slog.String(kv.k, kv.v))
		}
	}
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	s.Logger.LogAttrs(context.Background(), slogLevel(e), msg, attrs...)
}

func slogLevel(e Event) slog.Level {
	switch e.Level {
	case LevelError:
		return slog.LevelError
	case LevelWarn:
		return slog.LevelWarn
	}
	if e.Kind == KindMapped {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}
