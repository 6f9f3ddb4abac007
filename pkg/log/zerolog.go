package log

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	scierrors "github.com/YuminosukeSato/scimkl/pkg/errors"
)

var (
	mu   sync.RWMutex
	base = zerolog.New(os.Stderr).With().Timestamp().Logger().Level(zerolog.InfoLevel)
)

func init() {
	scierrors.SetZerologWarnFunc(func(w error) {
		zl := current()
		ev := zl.Warn()
		var m zerolog.LogObjectMarshaler
		if scierrors.As(w, &m) {
			ev = ev.Object("warning", m)
		}
		ev.Msg(w.Error())
	})
}

func current() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

// GetLogger returns the process-wide logger.
func GetLogger() Logger {
	return &zerologLogger{zl: current()}
}

// GetLoggerWithName returns the process-wide logger tagged with a component name.
func GetLoggerWithName(name string) Logger {
	return &zerologLogger{zl: current().With().Str(ComponentKey, name).Logger()}
}

// SetLevel sets the minimum level of loggers handed out after the call.
func SetLevel(level Level) {
	mu.Lock()
	defer mu.Unlock()
	base = base.Level(toZerolog(level))
}

// SetOutput redirects loggers handed out after the call to w.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	lvl := base.GetLevel()
	base = zerolog.New(w).With().Timestamp().Logger().Level(lvl)
}

// ParseLevel converts "debug", "info", "warn" or "error" into a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, scierrors.NewValidationError("log_level", "unknown level", s)
	}
}

// Provider is the zerolog-backed LoggerProvider.
type Provider struct{}

// GetLogger implements LoggerProvider.GetLogger.
func (Provider) GetLogger() Logger { return GetLogger() }

// GetLoggerWithName implements LoggerProvider.GetLoggerWithName.
func (Provider) GetLoggerWithName(name string) Logger { return GetLoggerWithName(name) }

// SetLevel implements LoggerProvider.SetLevel.
func (Provider) SetLevel(level Level) { SetLevel(level) }

func toZerolog(level Level) zerolog.Level {
	switch {
	case level <= LevelDebug:
		return zerolog.DebugLevel
	case level <= LevelInfo:
		return zerolog.InfoLevel
	case level <= LevelWarn:
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
}

type zerologLogger struct {
	zl zerolog.Logger
}

func (l *zerologLogger) Debug(msg string, fields ...any) { l.emit(l.zl.Debug(), msg, fields) }
func (l *zerologLogger) Info(msg string, fields ...any)  { l.emit(l.zl.Info(), msg, fields) }
func (l *zerologLogger) Warn(msg string, fields ...any)  { l.emit(l.zl.Warn(), msg, fields) }
func (l *zerologLogger) Error(msg string, fields ...any) { l.emit(l.zl.Error(), msg, fields) }

func (l *zerologLogger) With(fields ...any) Logger {
	ctx := l.zl.With()
	for i := 0; i+1 < len(fields); i += 2 {
		ctx = ctx.Interface(fmt.Sprint(fields[i]), fields[i+1])
	}
	return &zerologLogger{zl: ctx.Logger()}
}

func (l *zerologLogger) Enabled(_ context.Context, level Level) bool {
	zlvl := toZerolog(level)
	return zlvl >= l.zl.GetLevel() && zlvl >= zerolog.GlobalLevel()
}

// emit writes fields onto the event. A leading error is attached under
// "error" together with its stack trace.
func (l *zerologLogger) emit(e *zerolog.Event, msg string, fields []any) {
	if e == nil {
		return
	}
	if len(fields)%2 == 1 {
		if err, ok := fields[0].(error); ok {
			e = e.Err(err)
			if details := scierrors.GetSafeDetails(err); len(details) > 0 {
				e = e.Str(StacktraceKey, details[0])
			}
			var m zerolog.LogObjectMarshaler
			if scierrors.As(err, &m) {
				e = e.Object("error_detail", m)
			}
			fields = fields[1:]
		}
	}
	for i := 0; i+1 < len(fields); i += 2 {
		key := fmt.Sprint(fields[i])
		switch v := fields[i+1].(type) {
		case error:
			e = e.AnErr(key, v)
		case []float64:
			e = e.Floats64(key, v)
		case zerolog.LogObjectMarshaler:
			e = e.Object(key, v)
		default:
			e = e.Interface(key, v)
		}
	}
	e.Msg(msg)
}
