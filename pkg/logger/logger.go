// Package logger builds the application's slog.Logger. JSON output for
// production log shipping, text for reading a dev console.
package logger

import (
	"io"
	"log/slog"
	"os"
)

// Format selects the output encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// Config is the environment-driven logger configuration.
type Config struct {
	Level  slog.Level `env:"LOG_LEVEL" envDefault:"info"`
	Format Format     `env:"LOG_FORMAT" envDefault:"json"`
}

type options struct {
	level  slog.Level
	format Format
	output io.Writer
	attrs  []slog.Attr
}

type Option func(*options)

func WithLevel(l slog.Level) Option {
	return func(o *options) { o.level = l }
}

func WithFormat(f Format) Option {
	return func(o *options) { o.format = f }
}

// WithOutput sets the destination; nil writers are ignored.
func WithOutput(w io.Writer) Option {
	return func(o *options) {
		if w != nil {
			o.output = w
		}
	}
}

// WithService attaches a static service attribute to every record.
func WithService(name string) Option {
	return func(o *options) {
		if name != "" {
			o.attrs = append(o.attrs, slog.String("service", name))
		}
	}
}

// New builds a logger. Defaults are production-safe: JSON at info level on
// stdout.
func New(opts ...Option) *slog.Logger {
	o := &options{
		level:  slog.LevelInfo,
		format: FormatJSON,
		output: os.Stdout,
	}
	for _, opt := range opts {
		opt(o)
	}

	handlerOpts := &slog.HandlerOptions{Level: o.level}
	var handler slog.Handler
	if o.format == FormatText {
		handler = slog.NewTextHandler(o.output, handlerOpts)
	} else {
		handler = slog.NewJSONHandler(o.output, handlerOpts)
	}
	if len(o.attrs) > 0 {
		handler = handler.WithAttrs(o.attrs)
	}
	return slog.New(handler)
}

// NewFromConfig builds a logger from environment configuration.
func NewFromConfig(cfg Config, opts ...Option) *slog.Logger {
	return New(append([]Option{
		WithLevel(cfg.Level),
		WithFormat(cfg.Format),
	}, opts...)...)
}
