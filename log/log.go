// Package log provides the logging interface used throughout pathguard.
package log

import (
	"context"
	"io"
	"log/slog"
	"sync"
)

var (
	// Null is a logger that discards everything.
	Null Logger = slog.New(slog.NewTextHandler(io.Discard, nil))

	traceMu sync.RWMutex
	trace   TraceLogger = slog.New(slog.NewTextHandler(io.Discard, nil))
)

const (
	KeyHost      = "host"
	KeyError     = "error"
	KeyPath      = "path"
	KeyOp        = "op"
	KeyKind      = "kind"
	KeyComponent = "component"
	KeyAttempts  = "attempts"
	KeyEvent     = "event"
	KeyFile      = "file"
	KeyProtocol  = "protocol"
)

// ErrorAttr returns an error attribute, an empty string for nil.
func ErrorAttr(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}

// PathAttr returns a path attribute.
func PathAttr(path string) slog.Attr {
	return slog.String(KeyPath, path)
}

// TraceLogger is implemented by slog.Logger.
type TraceLogger interface {
	Log(ctx context.Context, level slog.Level, msg string, keysAndValues ...any)
}

// SetTraceLogger enables the internal trace logging.
func SetTraceLogger(l TraceLogger) {
	traceMu.Lock()
	defer traceMu.Unlock()
	trace = l
}

// Trace is for internal trace logging that must be separately enabled by
// providing a [TraceLogger] via [SetTraceLogger].
func Trace(ctx context.Context, msg string, keysAndValues ...any) {
	traceMu.RLock()
	l := trace
	traceMu.RUnlock()
	l.Log(ctx, slog.LevelDebug, msg, keysAndValues...)
}

// Logger interface is implemented by slog.Logger and some other logging packages.
// The functions are not sprintf-style. Keys and values are key-value pairs.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// New returns a text logger writing to out at the given level. Time is not
// printed and levels below warn are omitted from the output.
func New(out io.Writer, lvl slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: lvl,
		ReplaceAttr: func(_ []string, attr slog.Attr) slog.Attr {
			switch attr.Key {
			case slog.TimeKey:
				return slog.Attr{}
			case slog.LevelKey:
				if v, ok := attr.Value.Any().(slog.Level); ok && v < slog.LevelWarn {
					return slog.Attr{}
				}
				return attr
			default:
				return attr
			}
		},
	}
	return slog.New(slog.NewTextHandler(out, opts))
}

type withAttrs struct {
	logger Logger
	attrs  []any
}

func (w *withAttrs) kv(kv []any) []any {
	out := make([]any, 0, len(w.attrs)+len(kv))
	out = append(out, w.attrs...)
	return append(out, kv...)
}

func (w *withAttrs) Debug(msg string, keysAndValues ...any) {
	w.logger.Debug(msg, w.kv(keysAndValues)...)
}

func (w *withAttrs) Info(msg string, keysAndValues ...any) {
	w.logger.Info(msg, w.kv(keysAndValues)...)
}

func (w *withAttrs) Warn(msg string, keysAndValues ...any) {
	w.logger.Warn(msg, w.kv(keysAndValues)...)
}

func (w *withAttrs) Error(msg string, keysAndValues ...any) {
	w.logger.Error(msg, w.kv(keysAndValues)...)
}

// WithAttrs returns a logger that adds the given key-value pairs to every message.
func WithAttrs(logger Logger, attrs ...any) Logger {
	return &withAttrs{logger, attrs}
}

// LoggerInjectable is a struct that can be embedded in other structs to provide a logger and a log setter.
type LoggerInjectable struct {
	logger Logger
}

// Log interface is implemented by the LoggerInjectable struct.
type Log interface {
	Log() Logger
}

type injectable interface {
	SetLogger(logger Logger)
}

// InjectLogger sets the logger for the given object if it embeds a LoggerInjectable.
func InjectLogger(l Logger, obj any, attrs ...any) {
	if o, ok := obj.(injectable); ok {
		if len(attrs) > 0 {
			o.SetLogger(WithAttrs(l, attrs...))
		} else {
			o.SetLogger(l)
		}
	}
}

// HasLogger returns true if the object implements the Log interface and has a logger set.
func HasLogger(obj any) bool {
	if o, ok := obj.(Log); ok {
		return o.Log() != nil && o.Log() != Null
	}
	return false
}

// GetLogger returns the logger for the given object if it implements the Log interface or a Null logger.
func GetLogger(obj any) Logger {
	if o, ok := obj.(Log); ok {
		return o.Log()
	}
	return Null
}

// InjectLoggerTo passes the embedding object's logger on to obj.
func (li *LoggerInjectable) InjectLoggerTo(obj any, attrs ...any) {
	if li.HasLogger() {
		InjectLogger(li.logger, obj, attrs...)
	}
}

// SetLogger sets the logger for the embedding object.
func (li *LoggerInjectable) SetLogger(logger Logger) {
	li.logger = logger
}

// HasLogger returns true if a logger has been set.
func (li *LoggerInjectable) HasLogger() bool {
	return li.logger != nil && li.logger != Null
}

// Log returns the logger for the embedding object.
func (li *LoggerInjectable) Log() Logger {
	if li.logger == nil {
		return Null
	}
	return li.logger
}

// LogWithAttrs returns the embedding object's logger with extra attributes.
func (li *LoggerInjectable) LogWithAttrs(attrs ...any) Logger {
	return WithAttrs(li.Log(), attrs...)
}
