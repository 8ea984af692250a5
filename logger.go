// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package fbstack

import (
	"context"
	"log/slog"
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

func init() {
	l := newNopLogger()
	loggerPtr.Store(l)
}

// SetLogger configures the logger for fbstack and its backend packages.
// By default, fbstack produces no log output.
//
// Pass nil to disable logging (restore default silent behavior).
//
// Log levels used by fbstack:
//   - [slog.LevelDebug]: frame transitions (push/pop, bound target)
//   - [slog.LevelWarn]: non-fatal issues (rollback after a failed
//     push/pop, resource release errors)
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
}

// Logger returns the active logger. Backend packages use this so their
// output follows the same SetLogger configuration.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

// logger returns the active logger for use within the package.
func logger() *slog.Logger {
	return loggerPtr.Load()
}
