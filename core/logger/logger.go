// Package logger is a thin wrapper around uber-go/zap's SugaredLogger,
// keeping the familiar key-value variadic call style at every call site.
//
// Components receive an injected *Logger through their constructors; the
// package-level helpers delegate to Default for code without one.
package logger

import (
	"log"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the main interface of this package. It wraps a
// zap.SugaredLogger so all of its leveled methods are available directly.
type Logger struct {
	*zap.SugaredLogger
}

// Default logger for use throughout the project.
var Default *Logger

func init() {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zl, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		log.Fatal(err)
	}
	Default = CreateLogger(zl.Sugar())
}

// CreateLogger wraps an already-configured SugaredLogger.
func CreateLogger(zl *zap.SugaredLogger) *Logger {
	return &Logger{zl}
}

// CreateTestLogger creates a development-encoded logger for use in tests.
func CreateTestLogger() *Logger {
	zl, err := zap.NewDevelopment()
	if err != nil {
		log.Fatal(err)
	}
	return CreateLogger(zl.Sugar())
}

// Named returns a logger with the given name segment appended.
func (l *Logger) Named(name string) *Logger {
	return &Logger{l.SugaredLogger.Named(name)}
}

// With returns a logger with the given key-value pairs attached to every
// entry.
func (l *Logger) With(args ...interface{}) *Logger {
	return &Logger{l.SugaredLogger.With(args...)}
}

// Infow logs an info message with key-value pairs on the Default logger.
func Infow(msg string, keysAndValues ...interface{}) {
	Default.Infow(msg, keysAndValues...)
}

// Debugw logs a debug message with key-value pairs on the Default logger.
func Debugw(msg string, keysAndValues ...interface{}) {
	Default.Debugw(msg, keysAndValues...)
}

// Warnw logs a warning message with key-value pairs on the Default logger.
func Warnw(msg string, keysAndValues ...interface{}) {
	Default.Warnw(msg, keysAndValues...)
}

// Errorw logs an error message with key-value pairs on the Default logger.
func Errorw(msg string, keysAndValues ...interface{}) {
	Default.Errorw(msg, keysAndValues...)
}

// Infof logs a formatted info message on the Default logger.
func Infof(format string, values ...interface{}) {
	Default.Infof(format, values...)
}

// Debugf logs a formatted debug message on the Default logger.
func Debugf(format string, values ...interface{}) {
	Default.Debugf(format, values...)
}

// Warnf logs a formatted warning message on the Default logger.
func Warnf(format string, values ...interface{}) {
	Default.Warnf(format, values...)
}

// Errorf logs a formatted error message on the Default logger.
func Errorf(format string, values ...interface{}) {
	Default.Errorf(format, values...)
}

// Error logs an error message on the Default logger.
func Error(args ...interface{}) {
	Default.Error(args...)
}

// Warn logs a warning message on the Default logger.
func Warn(args ...interface{}) {
	Default.Warn(args...)
}

// Info logs an info message on the Default logger.
func Info(args ...interface{}) {
	Default.Info(args...)
}

// Debug logs a debug message on the Default logger.
func Debug(args ...interface{}) {
	Default.Debug(args...)
}

// Fatal logs a message on the Default logger, then exits.
func Fatal(args ...interface{}) {
	Default.Fatal(args...)
}
