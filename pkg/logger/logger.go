// Package logger constructs the structured logger shared by every engine
// subsystem. It wraps go.uber.org/zap: a *zap.SugaredLogger threaded
// through each component's Config.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a production-style JSON logger tagged with the given service
// name, suitable for embedding in long-running processes.
func New(service string) *zap.SugaredLogger {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	base, err := cfg.Build()
	if err != nil {
		// zap's production config only fails to build on a bad encoder
		// or sink configuration, neither of which varies here; fall back
		// to a logger that still works rather than panicking a caller
		// that can't easily recover from a logging-subsystem failure.
		base = zap.NewNop()
	}

	return base.With(zap.String("service", service)).Sugar()
}

// NewDevelopment builds a human-readable console logger, used by
// ignitectl and by tests that want readable output instead of JSON.
func NewDevelopment(service string) *zap.SugaredLogger {
	base, err := zap.NewDevelopment()
	if err != nil {
		base = zap.NewNop()
	}
	return base.With(zap.String("service", service)).Sugar()
}

// Nop returns a logger that discards everything, for tests that don't
// care about log output.
func Nop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}
