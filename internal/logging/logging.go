// Package logging builds the structured loggers used across the bridge.
// Every component gets its own named logger so that peer subprocess output
// can be told apart from bridge-internal messages in a single stderr stream.
package logging

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	baseOnce sync.Once
	base     *zap.Logger
)

func root() *zap.Logger {
	baseOnce.Do(func() {
		cfg := zap.NewProductionEncoderConfig()
		cfg.EncodeTime = zapcore.ISO8601TimeEncoder
		cfg.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder := zapcore.NewConsoleEncoder(cfg)
		core := zapcore.NewCore(encoder, zapcore.AddSync(os.Stderr), zapcore.DebugLevel)
		base = zap.New(core)
	})
	return base
}

// Component returns a sugared logger tagged with component, e.g. the name
// of a configured peer or a bridge subsystem ("multiplexer", "dispatch").
func Component(component string) *zap.SugaredLogger {
	return root().Sugar().Named(component)
}

// Sync flushes any buffered log entries. Call once before process exit.
func Sync() {
	_ = root().Sync()
}
