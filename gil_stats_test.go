package gil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatsSnapshot(t *testing.T) {
	g := newTestGIL()
	a := NewThreadState("A")

	empty := g.Stats()
	assert.False(t, empty.Held)
	assert.Nil(t, empty.LastHolder)
	assert.EqualValues(t, 0, empty.SwitchCount)

	g.Take(a)
	held := g.Stats()
	assert.True(t, held.Held)
	assert.Equal(t, a, held.LastHolder)
	assert.EqualValues(t, 1, held.SwitchCount)
	g.Drop(a)

	free := g.Stats()
	assert.False(t, free.Held)
	assert.Equal(t, a, free.LastHolder)
}
