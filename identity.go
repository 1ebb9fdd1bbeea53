package gil

// ThreadState is an opaque identity token representing one OS thread (or,
// in this port, one goroutine acting as an interpreter worker) that may
// hold the lock. The core never dereferences a ThreadState; it is
// compared only by pointer identity against the current last holder.
//
// Callers own the lifetime of a ThreadState. A typical embedder
// allocates one per worker goroutine and reuses it across repeated
// Take/Drop cycles.
type ThreadState struct {
	// PendingSignal marks that an asynchronous signal (e.g. an
	// interrupt) is queued for this thread. Take invokes the
	// pending-signals hook once, after a successful acquisition, when
	// this is set. The core never clears it; that is the hook's job.
	PendingSignal bool

	// name is used only for diagnostics (String); it plays no part in
	// identity comparison.
	name string
}

// NewThreadState allocates an identity for one worker. name is used only
// in diagnostics, via String.
func NewThreadState(name string) *ThreadState {
	return &ThreadState{name: name}
}

// String implements fmt.Stringer for diagnostics.
func (t *ThreadState) String() string {
	if t == nil {
		return "<nil thread>"
	}
	if t.name == "" {
		return "<unnamed thread>"
	}
	return t.name
}

// PendingSignalsHook is invoked at the end of a successful Take when the
// aspirant's identity carries a pending-signal marker. Semantics are
// opaque to this package; a typical hook delivers a queued interrupt to
// the interpreter's exception machinery.
type PendingSignalsHook func(*ThreadState)
