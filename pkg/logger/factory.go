package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/paydesk/console/pkg/environment"
)

// Format is the log output encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// Config is the env-driven logger configuration.
type Config struct {
	Service string `env:"SERVICE_NAME" envDefault:"checkout"`
	Env     string `env:"APP_ENV" envDefault:"development"`
	Level   string `env:"LOG_LEVEL"`
	Format  string `env:"LOG_FORMAT"`
}

// Option configures logger creation.
type Option func(*config)

type config struct {
	level      slog.Level
	format     Format
	output     io.Writer
	attrs      []slog.Attr
	extractors []ContextExtractor
}

func WithLevel(l slog.Level) Option {
	return func(c *config) { c.level = l }
}

// WithFormat sets the output encoding. Unknown formats panic: a misconfigured
// logger should stop startup.
func WithFormat(f Format) Option {
	return func(c *config) {
		switch f {
		case FormatJSON, FormatText:
			c.format = f
		default:
			panic(fmt.Errorf("invalid log format %q: must be %q or %q", f, FormatJSON, FormatText))
		}
	}
}

// WithOutput sets the destination; nil is ignored.
func WithOutput(w io.Writer) Option {
	return func(c *config) {
		if w != nil {
			c.output = w
		}
	}
}

// WithAttr adds static attributes to every record.
func WithAttr(attrs ...slog.Attr) Option {
	return func(c *config) { c.attrs = append(c.attrs, attrs...) }
}

// WithContextExtractors injects request-scoped attributes (request id, flow id) from contexts.
func WithContextExtractors(extractors ...ContextExtractor) Option {
	return func(c *config) {
		for _, ex := range extractors {
			if ex != nil {
				c.extractors = append(c.extractors, ex)
			}
		}
	}
}

// WithEnvironment applies stage defaults: debug text logs in development,
// info JSON logs in staging and production.
func WithEnvironment(env environment.Environment, service string) Option {
	return func(c *config) {
		if env.Live() {
			c.level = slog.LevelInfo
			c.format = FormatJSON
		} else {
			c.level = slog.LevelDebug
			c.format = FormatText
		}
		if service != "" {
			c.attrs = append(c.attrs, slog.String("service", service))
		}
		c.attrs = append(c.attrs, slog.String("env", string(env)))
	}
}

// New builds a slog.Logger. Defaults are JSON at info level on stdout.
func New(opts ...Option) *slog.Logger {
	cfg := &config{level: slog.LevelInfo, format: FormatJSON, output: os.Stdout}
	for _, opt := range opts {
		opt(cfg)
	}

	handlerOpts := &slog.HandlerOptions{Level: cfg.level}
	var handler slog.Handler
	if cfg.format == FormatText {
		handler = slog.NewTextHandler(cfg.output, handlerOpts)
	} else {
		handler = slog.NewJSONHandler(cfg.output, handlerOpts)
	}
	if len(cfg.attrs) > 0 {
		handler = handler.WithAttrs(cfg.attrs)
	}
	return slog.New(newContextHandler(handler, cfg.extractors))
}

// FromConfig builds a logger from env configuration. Explicit LOG_LEVEL and
// LOG_FORMAT override the stage defaults.
func FromConfig(c Config, opts ...Option) (*slog.Logger, error) {
	all := []Option{WithEnvironment(environment.Parse(c.Env), c.Service)}
	if c.Level != "" {
		lvl, err := ParseLevel(c.Level)
		if err != nil {
			return nil, err
		}
		all = append(all, WithLevel(lvl))
	}
	if c.Format != "" {
		f := Format(strings.ToLower(c.Format))
		if f != FormatJSON && f != FormatText {
			return nil, fmt.Errorf("invalid log format %q", c.Format)
		}
		all = append(all, WithFormat(f))
	}
	return New(append(all, opts...)...), nil
}

// ParseLevel accepts debug, info, warn/warning and error.
func ParseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "warning":
		return slog.LevelWarn, nil
	}
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return lvl, nil
}

// Discard returns a logger that drops everything. Components use it when no logger is injected.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func SetAsDefault(l *slog.Logger) {
	slog.SetDefault(l)
}
