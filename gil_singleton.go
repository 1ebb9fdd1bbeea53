package gil

import (
	"sync"
	"time"

	"v.io/x/lib/nsync"
)

// Default is the process-wide GIL instance, mirroring CPython's single
// global interpreter lock. Most embedders only ever need Default; New is
// exposed separately for tests and for embedders running multiple
// independent interpreters in one process.
//
// The lazy sync.Once construction here generalizes the teacher library's
// explicit New() constructor (ilock.go's New returns a ready *Mutex) to a
// singleton accessor, per spec.md §9's "Global state" design note: "a
// language-neutral strategy is to encapsulate [the lock state] in a
// single opaque handle constructed at runtime startup."
var (
	defaultOnce sync.Once
	defaultGIL  *GIL
)

// Default returns the process-wide GIL, allocating it on first use. It
// does not call Initialize; callers must still do that explicitly, same
// as spec.md §4.1 requires for any GIL instance.
func Default() *GIL {
	defaultOnce.Do(func() {
		defaultGIL = New()
	})
	return defaultGIL
}

// Initialize performs one-time setup of g: it must be called before any
// Take/Drop. Calling it more than once before a Reinitialize is a no-op,
// preserving whatever switch count and interval are already in place.
// This is what lets an embedder constructing its own *GIL via New (for a
// second, independent interpreter in the same process, or for tests)
// actually bring it into a usable state — New itself only allocates.
func (g *GIL) Initialize() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state.Load() != stateUninitialized {
		return
	}
	g.resetLocked()
	logger.Infow("gil: initialized", "switchIntervalUs", g.switchIntervalUs.Load())
}

// Reinitialize unconditionally recreates g's mutexes and condition
// variables and resets its state, discarding any existing holder, switch
// count, and drop-request. It exists for the
// post-fork case described in spec.md §4.1: primitives inherited across
// fork() are unsafe to reuse because any thread that held gil.mu in the
// parent at fork time no longer exists in the child, so the new process
// must start from a clean, known-free state rather than trust the
// copied-but-potentially-wedged one.
func (g *GIL) Reinitialize() {
	g.mu = nsync.Mu{}
	g.cond = nsync.CV{}
	g.switchMu = nsync.Mu{}
	g.switchCond = nsync.CV{}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.resetLocked()
	logger.Infow("gil: reinitialized", "switchIntervalUs", g.switchIntervalUs.Load())
}

// IsInitialized reports whether g is usable.
func (g *GIL) IsInitialized() bool {
	return g.state.Load() != stateUninitialized
}

// Initialize performs one-time setup of the process-wide GIL. See
// (*GIL).Initialize.
func Initialize() { Default().Initialize() }

// Reinitialize unconditionally recreates the process-wide GIL's state.
// See (*GIL).Reinitialize.
func Reinitialize() { Default().Reinitialize() }

// IsInitialized reports whether the process-wide GIL is usable.
func IsInitialized() bool { return Default().IsInitialized() }

// resetLocked restores g to the freshly-initialized state described in
// spec.md §4.1. Callers must hold g.mu.
func (g *GIL) resetLocked() {
	g.state.Store(stateFree)
	g.lastHolder.Store(nil)
	g.switchCount.Store(0)
	g.dropRequest.Store(false)
}

// SetSwitchInterval sets the process-wide GIL's switch interval. It is a
// convenience wrapper over Default().SetSwitchInterval, matching
// spec.md §6's exposed "two setter/getter entry points."
func SetSwitchInterval(d time.Duration) { Default().SetSwitchInterval(d) }

// GetSwitchInterval returns the process-wide GIL's switch interval.
func GetSwitchInterval() time.Duration { return Default().GetSwitchInterval() }

// Take blocks until the caller becomes the holder of the process-wide
// GIL. See (*GIL).Take.
func Take(t *ThreadState) { Default().Take(t) }

// Drop releases the process-wide GIL. See (*GIL).Drop.
func Drop(t *ThreadState) { Default().Drop(t) }

// SetDropRequest asks the process-wide GIL's current holder to yield at
// its next safe point.
func SetDropRequest() { Default().SetDropRequest() }

// ResetDropRequest clears the process-wide GIL's drop-request flag.
func ResetDropRequest() { Default().ResetDropRequest() }

// SetPendingSignalsHook installs the pending-signals hook on the
// process-wide GIL. See (*GIL).SetPendingSignalsHook.
func SetPendingSignalsHook(hook PendingSignalsHook) {
	Default().SetPendingSignalsHook(hook)
}
