package stage

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/posefx/stage/texture"
)

// nopHandler is a slog.Handler that silently discards all log records.
// The Enabled method returns false so the caller skips message formatting
// entirely, making disabled logging effectively zero-cost.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

// newNopLogger creates a logger that silently discards all output.
func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. Accessed atomically so that
// SetLogger can be called concurrently with logging from any goroutine.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	l := newNopLogger()
	loggerPtr.Store(l)
}

// SetLogger configures the logger for stage and all its sub-packages.
// By default, stage produces no log output. Pass nil to restore the
// silent default.
//
// SetLogger is safe for concurrent use: it stores the new logger
// atomically and propagates it to the texture loader.
//
// Log levels used:
//   - [slog.LevelDebug]: per-frame diagnostics (cache hits, bounding
//     boxes, particle counts)
//   - [slog.LevelInfo]: lifecycle events (layer added, pipeline
//     started)
//   - [slog.LevelWarn]: non-fatal faults (unknown mode string, texture
//     load failure, recovered layer panic)
//
// Example:
//
//	stage.SetLogger(slog.Default())
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
	texture.SetLogger(l)
}

// Logger returns the current logger used by stage. Safe for concurrent
// use.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
