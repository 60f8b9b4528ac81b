package logging

import (
	"context"
	"sync/atomic"
)

// MirrorFunc receives every record the logger writes, after level filtering.
// Telemetry backends install one to ship records out of process.
type MirrorFunc func(ctx context.Context, level Level, msg string, args ...any)

var mirrorFn atomic.Pointer[MirrorFunc]

// SetMirror installs fn as the process-wide log mirror. Passing nil removes
// the current mirror.
func SetMirror(fn MirrorFunc) {
	if fn == nil {
		mirrorFn.Store(nil)
		return
	}
	mirrorFn.Store(&fn)
}

func mirrorRecord(ctx context.Context, level Level, msg string, args []any) {
	fn := mirrorFn.Load()
	if fn == nil {
		return
	}
	(*fn)(ctx, level, msg, args...)
}
