package gil

// Stats is a point-in-time snapshot of a GIL's internal state, intended
// for diagnostics and tests. Held/LastHolder/SwitchCount are read with
// the same lock-free loads the hot path uses, so a Stats call never
// blocks the holder - but per spec.md invariant I2, the snapshot may be
// stale by the time the caller observes it.
type Stats struct {
	Held        bool
	LastHolder  *ThreadState
	SwitchCount uint64
	DropRequest bool
}

// Stats returns a snapshot of g's internal state. Grounded on the
// teacher library's benchmark harness (ilock_test.go), which reads lock
// internals directly from test code rather than through a dedicated
// accessor; this package promotes that pattern to a first-class,
// lock-free API so both tests and the cmd/gilstat demo can use it
// without reaching into unexported fields.
func (g *GIL) Stats() Stats {
	return Stats{
		Held:        g.state.Load() == stateTaken,
		LastHolder:  g.lastHolder.Load(),
		SwitchCount: g.switchCount.Load(),
		DropRequest: g.dropRequest.Load(),
	}
}
