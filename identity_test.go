package gil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestThreadStateStringer(t *testing.T) {
	var nilState *ThreadState
	assert.Equal(t, "<nil thread>", nilState.String())

	unnamed := &ThreadState{}
	assert.Equal(t, "<unnamed thread>", unnamed.String())

	named := NewThreadState("worker-1")
	assert.Equal(t, "worker-1", named.String())
}

func TestThreadStateIdentityIsPointerEquality(t *testing.T) {
	a := NewThreadState("same-name")
	b := NewThreadState("same-name")
	assert.NotSame(t, a, b)
	assert.False(t, a == b)
}
