package log

import (
	"io"
	"log/slog"
	"strings"
	"time"
)

// Level represents the severity of a log message.
type Level slog.Level

const (
	LevelTrace Level = Level(slog.LevelDebug - 4)
	LevelDebug Level = Level(slog.LevelDebug)
	LevelInfo  Level = Level(slog.LevelInfo)
	LevelWarn  Level = Level(slog.LevelWarn)
	LevelError Level = Level(slog.LevelError)
)

// DefaultLevel is the default log level.
const DefaultLevel = LevelInfo

// String returns the lowercase name of the level.
func (l Level) String() string {
	if l == LevelTrace {
		return "trace"
	}

	return strings.ToLower(slog.Level(l).String())
}

// ParseLevel parses a string representation of a log level. Unrecognized
// strings yield [DefaultLevel].
func ParseLevel(s string) Level {
	// slog.Level.UnmarshalText doesn't recognize "trace"
	if strings.EqualFold(s, "trace") {
		return LevelTrace
	}

	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return DefaultLevel
	}

	return Level(l)
}

// Format represents the output format for log messages.
type Format int

const (
	FormatText Format = iota
	FormatJSON
)

// DefaultFormat is the default log message format.
const DefaultFormat = FormatText

// String returns the lowercase name of the format.
func (f Format) String() string {
	if f == FormatJSON {
		return "json"
	}

	return "text"
}

// ParseFormat parses a string representation of a log format. Unrecognized
// strings yield [DefaultFormat].
func ParseFormat(s string) Format {
	if strings.EqualFold(s, "json") {
		return FormatJSON
	}

	return FormatText
}

// config holds the writer and formatting knobs behind a Logger.
type config struct {
	writer     io.Writer
	level      Level
	format     Format
	timeLayout string
	pretty     bool
}

// Option applies a configuration option to config.
type Option func(config) config

func apply(cfg config, opts ...Option) config {
	for _, opt := range opts {
		cfg = opt(cfg)
	}

	return cfg
}

// WithLevel returns a functional option that sets the minimum log level.
func WithLevel(level Level) Option {
	return func(c config) config {
		c.level = level

		return c
	}
}

// WithFormat returns a functional option that sets the output format.
func WithFormat(format Format) Option {
	return func(c config) config {
		c.format = format

		return c
	}
}

// WithTimeLayout returns a functional option that sets the layout used to
// format log timestamps. An empty layout disables timestamps.
func WithTimeLayout(layout string) Option {
	return func(c config) config {
		c.timeLayout = layout

		return c
	}
}

// WithPretty returns a functional option that controls colorized pretty
// printing for the text format.
func WithPretty(enable bool) Option {
	return func(c config) config {
		c.pretty = enable

		return c
	}
}

// handler builds the slog.Handler described by the config.
func (c config) handler() slog.Handler {
	opts := &slog.HandlerOptions{
		Level: slog.Level(c.level),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			switch a.Key {
			case slog.TimeKey:
				if len(groups) == 0 && c.timeLayout == "" {
					return slog.Attr{}
				}

				if len(groups) == 0 {
					return slog.String(
						slog.TimeKey,
						a.Value.Time().Format(c.timeLayout),
					)
				}

			case slog.LevelKey:
				if lv, ok := a.Value.Any().(slog.Level); ok {
					return slog.String(slog.LevelKey, Level(lv).String())
				}
			}

			return a
		},
	}

	switch {
	case c.format == FormatJSON:
		return slog.NewJSONHandler(c.writer, opts)

	case c.pretty:
		return newPrettyHandler(c.writer, opts, c.timeLayout)

	default:
		return slog.NewTextHandler(c.writer, opts)
	}
}

func defaultConfig(w io.Writer) config {
	return config{
		writer:     w,
		level:      DefaultLevel,
		format:     DefaultFormat,
		timeLayout: time.RFC3339,
	}
}
