package gil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestReinitializeAfterFork exercises spec.md §8 scenario 6: Reinitialize
// must produce a usable lock regardless of whatever state preceded it.
func TestReinitializeAfterFork(t *testing.T) {
	Initialize()
	a := NewThreadState("A")
	Take(a)
	Drop(a)

	// Simulate the "child process" side of a fork: primitives inherited
	// from the parent may be wedged (e.g. another thread held mu at
	// fork time and no longer exists), so Reinitialize must discard
	// whatever state was there and start clean.
	Reinitialize()
	require.True(t, IsInitialized())
	assert.EqualValues(t, 0, Default().Stats().SwitchCount)
	assert.Nil(t, Default().Stats().LastHolder)

	Take(a)
	Drop(a)
	assert.EqualValues(t, 1, Default().Stats().SwitchCount)
	assert.Equal(t, a, Default().Stats().LastHolder)
}

func TestInitializeIsANoOpOnceInitialized(t *testing.T) {
	Reinitialize()
	a := NewThreadState("A")
	Take(a)
	Drop(a)

	before := Default().Stats()
	Initialize() // must not reset switch count / last holder
	after := Default().Stats()

	assert.Equal(t, before, after)
}

func TestDefaultReturnsSameInstance(t *testing.T) {
	assert.Same(t, Default(), Default())
}
