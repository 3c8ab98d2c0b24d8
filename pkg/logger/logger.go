// Package logger wraps zerolog with context-carried fields so request, user
// and order identifiers follow a call chain without being threaded by hand.
package logger

import (
	"context"
	"io"
	"os"
	"runtime/debug"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/angelmondragon/orderbot/pkg/env"
)

// Output formats.
const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

type Options struct {
	ServiceName string
	Level       zerolog.Level
	// WarnStack attaches a stack trace to warnings as well as errors.
	WarnStack bool
	Output    io.Writer
	// Format falls back to LOG_FORMAT, then json.
	Format string
}

type Logger struct {
	root      zerolog.Logger
	warnStack bool
}

func New(opts Options) *Logger {
	level := opts.Level
	if level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	format := opts.Format
	if format == "" {
		format = env.Get("LOG_FORMAT", FormatJSON)
	}
	if strings.EqualFold(format, FormatConsole) {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
	}

	zerolog.TimeFieldFormat = time.RFC3339Nano
	root := zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Str("service", opts.ServiceName).
		Logger()
	return &Logger{root: root, warnStack: opts.WarnStack}
}

// ParseLevel maps a config string to a level; unknown values mean info.
func ParseLevel(value string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(value)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

type boundKey struct{}

// from returns the logger bound to ctx, or the root when none is bound.
func (l *Logger) from(ctx context.Context) *zerolog.Logger {
	if ctx == nil {
		return &l.root
	}
	if bound, ok := ctx.Value(boundKey{}).(*zerolog.Logger); ok {
		return bound
	}
	return &l.root
}

func (l *Logger) bind(ctx context.Context, zc zerolog.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	bound := zc.Logger()
	return context.WithValue(ctx, boundKey{}, &bound)
}

func (l *Logger) WithField(ctx context.Context, key string, value any) context.Context {
	return l.bind(ctx, l.from(ctx).With().Interface(key, value))
}

// WithFields binds several fields at once in key order.
func (l *Logger) WithFields(ctx context.Context, fields map[string]any) context.Context {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	zc := l.from(ctx).With()
	for _, k := range keys {
		zc = zc.Interface(k, fields[k])
	}
	return l.bind(ctx, zc)
}

func (l *Logger) WithRequestID(ctx context.Context, requestID string) context.Context {
	return l.bind(ctx, l.from(ctx).With().Str("request_id", requestID))
}

func (l *Logger) WithUserID(ctx context.Context, userID int64) context.Context {
	return l.bind(ctx, l.from(ctx).With().Int64("user_id", userID))
}

func (l *Logger) WithOrderID(ctx context.Context, orderID string) context.Context {
	return l.bind(ctx, l.from(ctx).With().Str("order_id", orderID))
}

func (l *Logger) WithEventKind(ctx context.Context, kind string) context.Context {
	return l.bind(ctx, l.from(ctx).With().Str("event_kind", kind))
}

func (l *Logger) Debug(ctx context.Context, msg string) {
	l.from(ctx).Debug().Msg(msg)
}

func (l *Logger) Info(ctx context.Context, msg string) {
	l.from(ctx).Info().Msg(msg)
}

func (l *Logger) Warn(ctx context.Context, msg string) {
	ev := l.from(ctx).Warn()
	if l.warnStack && ev.Enabled() {
		ev = ev.Str("stack", stack())
	}
	ev.Msg(msg)
}

// Error always carries a stack trace.
func (l *Logger) Error(ctx context.Context, msg string, err error) {
	ev := l.from(ctx).Error()
	if !ev.Enabled() {
		return
	}
	if err != nil {
		ev = ev.Err(err)
	}
	ev.Str("stack", stack()).Msg(msg)
}

func stack() string {
	return strings.TrimSpace(string(debug.Stack()))
}
