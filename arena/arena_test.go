package arena

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllocDoesNotOverlap(t *testing.T) {
	a := New(64)
	x := a.Alloc(8, 1)
	y := a.Alloc(8, 1)
	for i := range x {
		x[i] = 0xAA
	}
	for i := range y {
		y[i] = 0xBB
	}
	for _, v := range x {
		assert.Equal(t, byte(0xAA), v)
	}
}

func TestRequireGrowsRemnant(t *testing.T) {
	a := New(16)
	rem := a.Require(1024)
	assert.GreaterOrEqual(t, len(rem), 1024)
}

func TestAllocStringRoundTrips(t *testing.T) {
	a := New(64)
	b := a.AllocString("hello world")
	assert.Equal(t, "hello world", string(b))
}
