package utils

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps a zap logger with the category helpers used by the
// simulation packages
type Logger struct {
	*zap.Logger
}

// ParseLevel converts "debug", "info", "warn" or "error" to a zap level
func ParseLevel(level string) (zapcore.Level, error) {
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(level)))); err != nil {
		return zapcore.InfoLevel, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return l, nil
}

// NewLogger creates a console logger on stderr at the given level
func NewLogger(level string) (*Logger, error) {
	return newLogger(level, "stderr")
}

// NewFileLogger creates a logger that writes JSON lines to a file
func NewFileLogger(level, filename string) (*Logger, error) {
	return newLogger(level, filename)
}

func newLogger(level, sink string) (*Logger, error) {
	l, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}

	cfg := zap.NewDevelopmentConfig()
	if sink != "stderr" {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(l)
	cfg.OutputPaths = []string{sink}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.DisableStacktrace = true

	zl, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return &Logger{Logger: zl}, nil
}

// NewNopLogger returns a logger that discards everything
func NewNopLogger() *Logger {
	return &Logger{Logger: zap.NewNop()}
}

// Wrap adapts an existing zap logger. A nil logger yields a no-op logger.
func Wrap(zl *zap.Logger) *Logger {
	if zl == nil {
		return NewNopLogger()
	}
	return &Logger{Logger: zl}
}

// Circuit logs information about circuit construction and state
func (l *Logger) Circuit(msg string, fields ...zap.Field) {
	l.Debug(msg, append(fields, zap.String("category", "circuit"))...)
}

// Algorithm logs information about an evaluation or probability run
func (l *Logger) Algorithm(msg string, fields ...zap.Field) {
	l.Debug(msg, append(fields, zap.String("category", "algorithm"))...)
}

// Trace logs per-gate detail at debug level
func (l *Logger) Trace(msg string, fields ...zap.Field) {
	if ce := l.Check(zapcore.DebugLevel, msg); ce != nil {
		ce.Write(append(fields, zap.String("category", "trace"))...)
	}
}
