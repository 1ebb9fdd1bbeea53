// Package gil implements a fair, timed, forced-handoff mutex used by the
// Cobalt interpreter runtime to serialize "interpreted" work across
// goroutines that stand in for OS-level worker threads. Only the holder
// may execute interpreted bytecode; every other aspirant blocks in Take
// until it becomes the holder.
//
// The design mirrors CPython's GIL (see ceval_gil.h): a lock-free
// tri-state cell (uninitialized / free / taken), a wait station (a mutex plus a
// condition variable signalled on release), and a handoff barrier (a
// second mutex/condvar pair) that forces a releasing holder to wait until
// some other identity has taken the lock before it may compete again.
// Without the handoff barrier, a releaser that immediately calls Take
// again can win the race against a freshly-woken waiter on a multicore
// machine, turning the intended scheduling quantum into an unbounded
// one.
//
// Two condition variables, not one. A single condvar cannot express both
// "someone released" (fan-out to every waiter) and "someone took over"
// (fan-in to the one releaser waiting for a successor). Splitting them
// isolates the two rendezvous points.
//
// The drop-request flag is the cheap half of the design: the holder
// polls it between units of interpreted work without taking any lock.
// Cache-coherent hardware guarantees the write is eventually visible;
// the worst case is that the holder runs one extra quantum before
// noticing.
package gil

import (
	"fmt"
	"sync"
	"time"

	uatomic "go.uber.org/atomic"
	"v.io/x/lib/nsync"
)

const (
	stateUninitialized int32 = -1
	stateFree          int32 = 0
	stateTaken         int32 = 1
)

// DefaultSwitchInterval is the scheduling quantum used when no other
// value has been configured, matching CPython's sys.getswitchinterval()
// default of 5 milliseconds.
const DefaultSwitchInterval = 5 * time.Millisecond

const minSwitchIntervalUs = 1

// GIL is the fair, timed, forced-handoff mutex described in the package
// doc. The zero value is not usable; construct one with New and call
// Initialize before the first Take/Drop.
//
// mu/cond are the wait station (spec §2's "M"/"C"); switchMu/switchCond
// are the handoff barrier ("H"/"D"). Both pairs are v.io/x/lib/nsync
// primitives rather than stock sync.Mutex/sync.Cond: nsync.CV natively
// supports a deadline-bounded wait (WaitWithDeadline), which is exactly
// the "timed wait on C for INTERVAL microseconds" the acquire algorithm
// needs, and nsync.Mu's zero value is already a valid, unlocked mutex, so
// GIL itself needs no constructor-time allocation.
type GIL struct {
	mu   nsync.Mu
	cond nsync.CV

	switchMu   nsync.Mu
	switchCond nsync.CV

	state            uatomic.Int32
	lastHolder       uatomic.Pointer[ThreadState]
	switchCount      uatomic.Uint64
	dropRequest      uatomic.Bool
	switchIntervalUs uatomic.Int64

	hookMu sync.RWMutex
	hook   PendingSignalsHook
}

// New returns a freshly allocated, uninitialized GIL. Call Initialize
// before using it.
func New() *GIL {
	g := &GIL{}
	g.state.Store(stateUninitialized)
	g.switchIntervalUs.Store(int64(DefaultSwitchInterval / time.Microsecond))
	return g
}

// fatalf reports a precondition violation or other unrecoverable
// internal error. Per spec.md §7, no error value is ever returned to a
// caller of Take/Drop; every such condition is fatal and aborts the
// process. Matching the pack's convention for "this must never happen"
// failures in lock/runtime code (panic with a formatted message, rather
// than a returned error), fatalf logs the condition at Error level
// before panicking, so a supervising process has a structured record of
// why it crashed even if the panic output is lost.
func fatalf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	logger.Error(msg)
	panic("gil: " + msg)
}

// Take blocks until the calling goroutine becomes the holder of g. t
// identifies the caller and must be non-nil; passing nil is a
// precondition violation and aborts the process, matching spec.md §4.2's
// "calling with a null identity is a fatal precondition violation."
func (g *GIL) Take(t *ThreadState) {
	if t == nil {
		fatalf("take: nil thread state")
	}

	// The C original saves and restores an ambient error indicator around
	// the acquisition. Go has no errno-like per-thread value, so that
	// step is a no-op here: nothing is saved or restored.

	g.mu.Lock()

	for g.state.Load() != stateFree {
		saved := g.switchCount.Load()
		outcome := g.cond.WaitWithDeadline(&g.mu, time.Now().Add(g.effectiveInterval()), nil)
		// A timed-out wait during which no switch happened means the
		// current holder has run uninterrupted for a full quantum;
		// ask it to yield. A wait that was woken by a genuine
		// Signal(), or that raced a switch in during the timeout,
		// must not set drop-request - distinguishing the two is the
		// whole point of comparing switchCount against saved.
		if outcome == nsync.Expired && g.state.Load() == stateTaken && g.switchCount.Load() == saved {
			g.dropRequest.Store(true)
		}
	}

	// The handoff barrier must be taken before lastHolder is published,
	// so that a releaser blocked on switchCond observes the new holder
	// atomically with the signal that wakes it (spec.md §4.2 rationale).
	g.switchMu.Lock()
	g.state.Store(stateTaken)
	if g.lastHolder.Load() != t {
		g.lastHolder.Store(t)
		g.switchCount.Inc()
	}
	g.switchCond.Signal()
	g.switchMu.Unlock()

	if g.dropRequest.Load() {
		// The new holder is fresh; it has not yet been asked to
		// yield, so any carried-over request is stale.
		g.dropRequest.Store(false)
	}

	if t.PendingSignal {
		if hook := g.loadHook(); hook != nil {
			hook(t)
		}
	}

	g.mu.Unlock()
}

// Drop releases g. t, if non-nil, must equal the current holder;
// otherwise Drop aborts the process. t may be nil when the caller does
// not have its own identity handy - spec.md §4.3 allows this, and the
// forced-handoff wait below is then a no-op since lastHolder is never
// nil once the lock has been taken at least once.
func (g *GIL) Drop(t *ThreadState) {
	if g.state.Load() != stateTaken {
		fatalf("drop: lock is not held")
	}
	if t != nil && g.lastHolder.Load() != t {
		fatalf("drop: wrong thread state")
	}

	g.mu.Lock()
	g.state.Store(stateFree)
	g.cond.Signal()
	g.prepareHandoff()
	g.mu.Unlock()

	if g.dropRequest.Load() {
		g.switchMu.Lock()
		for g.lastHolder.Load() == t {
			g.switchCond.Wait(&g.switchMu)
		}
		g.switchMu.Unlock()
	}
}

// prepareHandoff corresponds to the source's COND_PREPARE(switch_cond):
// on platforms where the handoff condvar is an auto-reset event, it must
// be reset to unsignalled before the releaser checks whether a successor
// has already taken over. nsync.CV (like sync.Cond) is condvar semantics
// on every platform, so there is nothing to reset; the step is kept as a
// named no-op rather than deleted so the algorithm still reads step for
// step against spec.md §4.3.
func (g *GIL) prepareHandoff() {}

// SetSwitchInterval sets the timed-wait duration used by aspirants in
// Take. It doubles as the target scheduling quantum. The value is stored
// in whole microseconds (any sub-microsecond remainder is truncated), and
// values below one microsecond are accepted; GetSwitchInterval returns
// the stored value unclamped, but the *effective* interval used in
// waits is floored to one microsecond (spec.md §4.1, §8 round-trip law).
func (g *GIL) SetSwitchInterval(d time.Duration) {
	g.switchIntervalUs.Store(int64(d / time.Microsecond))
}

// GetSwitchInterval returns the most recently configured switch
// interval, unclamped.
func (g *GIL) GetSwitchInterval() time.Duration {
	return time.Duration(g.switchIntervalUs.Load()) * time.Microsecond
}

// effectiveInterval is the clamped value actually used as a wait
// timeout; it is re-read on every iteration of the Take loop rather than
// cached, per spec.md invariant I6.
func (g *GIL) effectiveInterval() time.Duration {
	us := g.switchIntervalUs.Load()
	if us < minSwitchIntervalUs {
		us = minSwitchIntervalUs
	}
	return time.Duration(us) * time.Microsecond
}

// SetDropRequest asks the current holder to drop the lock at its next
// safe point. It may be called by anyone, including code outside this
// package (e.g. a signal-delivery subsystem), and does not require
// holding any lock.
func (g *GIL) SetDropRequest() {
	g.dropRequest.Store(true)
}

// ResetDropRequest clears the drop-request flag without taking it.
func (g *GIL) ResetDropRequest() {
	g.dropRequest.Store(false)
}

// DropRequested reports whether the holder has been asked to yield. It
// is safe to call from the holder between units of work without
// acquiring any lock; that is the entire reason the flag exists
// (spec.md §4.4, §9).
func (g *GIL) DropRequested() bool {
	return g.dropRequest.Load()
}

// SetPendingSignalsHook installs the hook invoked at the end of a
// successful Take when the new holder's ThreadState carries a pending
// signal marker. A nil hook disables the callback. This is the sole
// integration point by which an interpreter's signal-delivery subsystem
// piggybacks on acquisition (spec.md §4.5).
func (g *GIL) SetPendingSignalsHook(hook PendingSignalsHook) {
	g.hookMu.Lock()
	g.hook = hook
	g.hookMu.Unlock()
}

func (g *GIL) loadHook() PendingSignalsHook {
	g.hookMu.RLock()
	defer g.hookMu.RUnlock()
	return g.hook
}
