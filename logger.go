package overlay

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
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

// backendsMu guards loggerBackends.
var (
	backendsMu     sync.Mutex
	loggerBackends []loggerSetter
)

func init() {
	l := newNopLogger()
	loggerPtr.Store(l)
}

// SetLogger configures the logger for overlay and its backends.
// By default, overlay produces no log output. Call SetLogger to enable
// logging.
//
// SetLogger is safe for concurrent use: it stores the new logger atomically.
// Pass nil to disable logging (restore default silent behavior).
//
// Log levels used by overlay:
//   - [slog.LevelDebug]: per-batch diagnostics (topology, index counts, buffer sizes)
//   - [slog.LevelInfo]: lifecycle events (pipeline creation, texture upload)
//   - [slog.LevelWarn]: skipped frames and resource release failures
//
// Example:
//
//	overlay.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)

	backendsMu.Lock()
	sinks := append([]loggerSetter(nil), loggerBackends...)
	backendsMu.Unlock()
	for _, s := range sinks {
		s.SetLogger(l)
	}
}

// Logger returns the current logger used by overlay.
// Sub-packages call this to share the same logger configuration.
//
// Logger is safe for concurrent use.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

// loggerSetter is implemented by backends that accept a logger.
type loggerSetter interface {
	SetLogger(*slog.Logger)
}

// propagateLogger hands the current logger to b if it accepts one and
// remembers b so later SetLogger calls reach it too.
func propagateLogger(b Backend) {
	ls, ok := b.(loggerSetter)
	if !ok {
		return
	}
	backendsMu.Lock()
	seen := false
	for _, s := range loggerBackends {
		if s == ls {
			seen = true
			break
		}
	}
	if !seen {
		loggerBackends = append(loggerBackends, ls)
	}
	backendsMu.Unlock()
	ls.SetLogger(Logger())
}
