package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger is the logging surface used by the plum commands and server.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	With(args ...any) Logger
	WithGroup(name string) Logger
}

// Output formats accepted by Setup.
const (
	FormatPretty = "pretty"
	FormatText   = "text"
	FormatJSON   = "json"
)

// Options selects the handler built by Setup.
type Options struct {
	Format string
	Level  string
	Source bool
}

// SlogLogger adapts a *slog.Logger to Logger.
type SlogLogger struct {
	logger *slog.Logger
}

func New(handler slog.Handler) Logger {
	return &SlogLogger{logger: slog.New(handler)}
}

// Setup builds a Logger writing to w. An empty format means pretty output.
func Setup(w io.Writer, opts Options) (Logger, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}
	ho := &slog.HandlerOptions{Level: level, AddSource: opts.Source}
	switch strings.ToLower(strings.TrimSpace(opts.Format)) {
	case "", FormatPretty:
		return New(NewPrettyHandler(w, ho)), nil
	case FormatText:
		return New(slog.NewTextHandler(w, ho)), nil
	case FormatJSON:
		return New(slog.NewJSONHandler(w, ho)), nil
	default:
		return nil, fmt.Errorf("unknown log format %q (want pretty, text or json)", opts.Format)
	}
}

// Default logs warnings and above as text on stderr.
func Default() Logger {
	return New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

// Discard drops everything. Handy in tests.
func Discard() Logger {
	return New(slog.NewTextHandler(io.Discard, nil))
}

// FromContext returns the Logger stored by WithContext, or Default.
func FromContext(ctx context.Context) Logger {
	if l, ok := ctx.Value(loggerKey{}).(Logger); ok {
		return l
	}
	return Default()
}

func WithContext(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

type loggerKey struct{}

func (l *SlogLogger) Debug(msg string, args ...any) { l.logger.Debug(msg, args...) }
func (l *SlogLogger) Info(msg string, args ...any)  { l.logger.Info(msg, args...) }
func (l *SlogLogger) Warn(msg string, args ...any)  { l.logger.Warn(msg, args...) }
func (l *SlogLogger) Error(msg string, args ...any) { l.logger.Error(msg, args...) }

func (l *SlogLogger) With(args ...any) Logger {
	return &SlogLogger{logger: l.logger.With(args...)}
}

func (l *SlogLogger) WithGroup(name string) Logger {
	return &SlogLogger{logger: l.logger.WithGroup(name)}
}

// Slog exposes the wrapped logger for libraries that want one directly.
func (l *SlogLogger) Slog() *slog.Logger { return l.logger }

// ParseLevel maps a level name to slog.Level. Matching ignores case and
// an empty name means info.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", level)
	}
}
