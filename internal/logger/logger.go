// Package logger provides the process-wide structured logger.
// Call Init once from main; all packages log through the package-level
// helpers so log configuration stays in one place.
package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var log = zap.NewNop().Sugar()

// Init builds the global logger. level is one of debug/info/warn/error,
// format is "json" or "console".
func Init(level, format string) error {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("failed to parse log level %q: %w", level, err)
	}

	cfg := zap.NewProductionConfig()
	if format == "console" {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	log = l.Sugar()
	return nil
}

// Sync flushes buffered log entries. Intended for defer in main.
func Sync() {
	_ = log.Sync()
}

func Debugw(msg string, keysAndValues ...interface{}) { log.Debugw(msg, keysAndValues...) }
func Infow(msg string, keysAndValues ...interface{})  { log.Infow(msg, keysAndValues...) }
func Warnw(msg string, keysAndValues ...interface{})  { log.Warnw(msg, keysAndValues...) }
func Errorw(msg string, keysAndValues ...interface{}) { log.Errorw(msg, keysAndValues...) }
func Fatalw(msg string, keysAndValues ...interface{}) { log.Fatalw(msg, keysAndValues...) }
