package gil

import "go.uber.org/zap"

// logger is the package-wide structured logger. It defaults to a no-op
// logger so importing gil never forces a logging backend on an embedder
// that hasn't called SetLogger; the interpreter runtime that owns the
// process is expected to call SetLogger once during startup, the same
// way it owns SetPendingSignalsHook.
var logger = zap.NewNop().Sugar()

// SetLogger replaces the package-wide logger used for fatal-error
// reporting and singleton lifecycle events (Initialize, Reinitialize). A
// nil logger is rejected in favor of keeping the previous one.
func SetLogger(l *zap.SugaredLogger) {
	if l == nil {
		return
	}
	logger = l
}
