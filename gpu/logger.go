//go:build !nogpu

package gpu

import (
	"log/slog"
	"sync/atomic"

	"github.com/gogpu/life"
)

// loggerPtr holds a logger set with SetLogger. While it is nil the package
// logs through life.Logger.
var loggerPtr atomic.Pointer[slog.Logger]

// slogger returns the current package logger.
// All logging in package gpu goes through this function.
func slogger() *slog.Logger {
	if l := loggerPtr.Load(); l != nil {
		return l
	}
	return life.Logger()
}

// SetLogger overrides the logger for package gpu only. Pass nil to go back
// to following life.SetLogger.
func SetLogger(l *slog.Logger) {
	loggerPtr.Store(l)
}
