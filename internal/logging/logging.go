// Package logging wires the process-wide zap logger and hands out
// per-component sugared loggers.
package logging

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu   sync.Mutex
	base *zap.Logger
)

// Init builds the process-wide logger. level is a zapcore level name
// ("debug", "info", "warn", "error"); development enables
// human-readable console output instead of JSON.
func Init(level string, development bool) error {
	mu.Lock()
	defer mu.Unlock()

	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	if development {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	logger, err := cfg.Build()
	if err != nil {
		return err
	}
	base = logger
	zap.ReplaceGlobals(logger)
	return nil
}

// For returns a sugared logger tagged with component, building a
// fallback logger to stderr if Init was never called (tests, or a
// component constructed before the process logger is ready).
func For(component string) *zap.SugaredLogger {
	mu.Lock()
	logger := base
	mu.Unlock()

	if logger == nil {
		fallback, _ := zap.NewProduction(zap.ErrorOutput(zapcore.AddSync(os.Stderr)))
		logger = fallback
	}
	return logger.Sugar().With("component", component)
}

// Sync flushes any buffered log entries. Call before process exit.
func Sync() {
	mu.Lock()
	logger := base
	mu.Unlock()
	if logger != nil {
		_ = logger.Sync()
	}
}
