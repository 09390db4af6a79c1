package log

import (
	"io"
	"log/slog"
)

// Option configures a logger built by NewLogger.
type Option func(*options)

type options struct {
	verbose bool
	json    bool
}

// WithVerbose enables debug output. Without it only warnings and errors are logged.
func WithVerbose(verbose bool) Option {
	return func(o *options) {
		o.verbose = verbose
	}
}

// WithJSON writes records as JSON lines instead of logfmt-style text.
func WithJSON(json bool) Option {
	return func(o *options) {
		o.json = json
	}
}

// NewLogger creates a redacting logger writing to w.
func NewLogger(w io.Writer, opts ...Option) *slog.Logger {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	level := slog.LevelWarn
	if o.verbose {
		level = slog.LevelDebug
	}
	handlerOpts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if o.json {
		handler = slog.NewJSONHandler(w, handlerOpts)
	} else {
		handler = slog.NewTextHandler(w, handlerOpts)
	}

	return slog.New(NewRedactingHandler(handler))
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}
