package sandbox

import (
	"runtime"
	"time"

	"go.starlark.net/starlark"
)

// SecurityLevel selects a resource-limit preset for expression
// execution. Higher levels trade capability for tighter ceilings.
type SecurityLevel string

// Security levels.
const (
	LevelHigh   SecurityLevel = "high"
	LevelMedium SecurityLevel = "medium"
	LevelLow    SecurityLevel = "low"
)

// Limits bounds one expression evaluation. MaxSteps caps Starlark
// abstract computation steps (the portable stand-in for CPU seconds);
// MaxMemory caps observed heap growth; Timeout caps wall-clock time.
type Limits struct {
	MaxMemory uint64
	MaxSteps  uint64
	Timeout   time.Duration
}

// LimitsFor returns the preset for a security level. Unknown levels
// get the medium preset.
func LimitsFor(level SecurityLevel) Limits {
	switch level {
	case LevelHigh:
		return Limits{MaxMemory: 50 << 20, MaxSteps: 2_000_000, Timeout: 5 * time.Second}
	case LevelLow:
		return Limits{MaxMemory: 200 << 20, MaxSteps: 10_000_000, Timeout: 30 * time.Second}
	default:
		return Limits{MaxMemory: 100 << 20, MaxSteps: 5_000_000, Timeout: 10 * time.Second}
	}
}

// monitorInterval is how often the monitor samples the deadline and
// heap growth while an expression runs.
const monitorInterval = 10 * time.Millisecond

// Cancellation reasons installed via starlark.Thread.Cancel. They are
// matched against evaluation errors to classify limit breaches.
const (
	cancelWallClock = "wall-clock timeout"
	cancelMemory    = "memory budget exceeded"
)

// monitor watches a running thread and cancels it when the wall-clock
// deadline passes or heap growth exceeds the memory budget. Starlark
// thread cancellation is async-safe, which is what makes this portable
// where signal-based timeouts are not.
func monitor(thread *starlark.Thread, limits Limits, done <-chan struct{}) {
	var start runtime.MemStats
	runtime.ReadMemStats(&start)
	deadline := time.Now().Add(limits.Timeout)

	ticker := time.NewTicker(monitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if time.Now().After(deadline) {
				thread.Cancel(cancelWallClock)
				return
			}
			var now runtime.MemStats
			runtime.ReadMemStats(&now)
			if now.HeapAlloc > start.HeapAlloc && now.HeapAlloc-start.HeapAlloc > limits.MaxMemory {
				thread.Cancel(cancelMemory)
				return
			}
		}
	}
}
