// Package telemetry wires the sorted-index engine's logger and stats
// collaborators to concrete implementations.
package telemetry

import "go.uber.org/zap"

// Logger is the narrow logging surface the sorted-index engine depends on.
// It mirrors the "logger(level, format, ...)" collaborator in the engine's
// external interfaces.
type Logger interface {
	Errorf(format string, args ...any)
	Infof(format string, args ...any)
	Debugf(format string, args ...any)
}

// ZapLogger adapts a *zap.SugaredLogger to Logger.
type ZapLogger struct {
	sugar *zap.SugaredLogger
}

// NewZapLogger wraps a zap logger. Passing nil uses zap.NewNop.
func NewZapLogger(l *zap.Logger) *ZapLogger {
	if l == nil {
		l = zap.NewNop()
	}

	return &ZapLogger{sugar: l.Sugar()}
}

func (z *ZapLogger) Errorf(format string, args ...any) { z.sugar.Errorf(format, args...) }
func (z *ZapLogger) Infof(format string, args ...any)  { z.sugar.Infof(format, args...) }
func (z *ZapLogger) Debugf(format string, args ...any) { z.sugar.Debugf(format, args...) }

// NopLogger discards everything. Useful as a zero-value-friendly default.
type NopLogger struct{}

func (NopLogger) Errorf(string, ...any) {}
func (NopLogger) Infof(string, ...any)  {}
func (NopLogger) Debugf(string, ...any) {}
