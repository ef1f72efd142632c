// Package log is the process-wide structured logger. Info and below go to
// stdout, errors go to stderr. Configure replaces the default console logger
// once the config is loaded.
package log

import (
	"fmt"
	"os"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

var current atomic.Pointer[logger]

func init() {
	l, err := newLogger(zapcore.InfoLevel, FormatConsole, zapcore.Lock(os.Stdout), zapcore.Lock(os.Stderr))
	if err != nil {
		panic(err)
	}
	install(l)
}

type logger struct {
	level zap.AtomicLevel
	*zap.Logger
}

// Configure rebuilds the logger with the given level and output format.
// The previous logger stays in place when either value is invalid.
func Configure(level, format string) error {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}

	l, err := newLogger(lvl, format, zapcore.Lock(os.Stdout), zapcore.Lock(os.Stderr))
	if err != nil {
		return err
	}

	_ = current.Load().Sync()
	install(l)

	return nil
}

// SetLevel switches the minimum enabled level ("debug", "info", "warn", "error").
// Unknown values leave the current level untouched.
func SetLevel(level string) error {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return err
	}

	current.Load().level.SetLevel(lvl)

	return nil
}

func install(l *logger) {
	current.Store(l)
	zap.ReplaceGlobals(l.Logger)

	if _, err := zap.RedirectStdLogAt(l.Logger, zapcore.InfoLevel); err != nil {
		panic(err)
	}
}

func newLogger(minLevel zapcore.Level, format string, out, errOut zapcore.WriteSyncer) (*logger, error) {
	encoder, err := newEncoder(format)
	if err != nil {
		return nil, err
	}

	level := zap.NewAtomicLevelAt(minLevel)

	core := zapcore.NewTee(
		zapcore.NewCore(encoder, out, zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
			return level.Enabled(lvl) && lvl < zapcore.ErrorLevel
		})),
		zapcore.NewCore(encoder, errOut, zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
			return lvl >= zapcore.ErrorLevel
		})),
	)

	// Skip the package-level wrappers below so callers show up in output.
	return &logger{
		level:  level,
		Logger: zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)),
	}, nil
}

func newEncoder(format string) (zapcore.Encoder, error) {
	cfg := zapcore.EncoderConfig{
		MessageKey:     "message",
		LevelKey:       "level",
		TimeKey:        "time",
		CallerKey:      "caller",
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
	}

	switch format {
	case FormatJSON:
		return zapcore.NewJSONEncoder(cfg), nil
	case FormatConsole, "":
		return zapcore.NewConsoleEncoder(cfg), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
}

func Debug(msg string, fields ...zap.Field) { current.Load().Debug(msg, fields...) }
func Info(msg string, fields ...zap.Field)  { current.Load().Info(msg, fields...) }
func Warn(msg string, fields ...zap.Field)  { current.Load().Warn(msg, fields...) }
func Error(msg string, fields ...zap.Field) { current.Load().Error(msg, fields...) }
func Fatal(msg string, fields ...zap.Field) { current.Load().Fatal(msg, fields...) }
func Panic(msg string, fields ...zap.Field) { current.Load().Panic(msg, fields...) }

func Sync() error {
	return current.Load().Sync()
}
