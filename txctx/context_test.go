package txctx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SolidWallOfCode/txn-box-sub000/feature"
	"github.com/SolidWallOfCode/txn-box-sub000/hook"
	"github.com/SolidWallOfCode/txn-box-sub000/proxy/fake"
)

func TestTransientBufferCommitsPrevious(t *testing.T) {
	c := New(fake.New(), 64, 1, 0)
	b1 := c.TransientBuffer(8)
	copy(b1, "abcdefgh")
	used := c.Arena().Bytes()

	b2 := c.TransientBuffer(8)
	assert.Greater(t, c.Arena().Bytes(), used, "first transient region should have been committed (bump pointer advanced)")
	copy(b2, "ijklmnop")
	assert.Equal(t, "abcdefgh", string(b1))
}

func TestVarStore(t *testing.T) {
	c := New(fake.New(), 64, 1, 0)
	_, ok := c.Var("missing")
	assert.False(t, ok)

	c.SetVar("x", feature.Int(42))
	v, ok := c.Var("x")
	require.True(t, ok)
	assert.Equal(t, int64(42), v.IntVal())
}

func TestReservedStorageAndOverflow(t *testing.T) {
	c := New(fake.New(), 64, 1, 16)
	s1 := c.StorageFor(0, 8)
	assert.Len(t, s1, 8)

	// Offset 100 is outside the 16-byte reserved block: this exercises the
	// overflow-span path, and repeated lookups must return the same bytes.
	o1 := c.StorageFor(100, 4)
	o1[0] = 7
	o2 := c.StorageFor(100, 4)
	assert.Equal(t, byte(7), o2[0])
}

func TestHookWalkWhileGrowing(t *testing.T) {
	c := New(fake.New(), 64, 1, 0)
	var ran []int
	c.RegisterHook(hook.Remap, func(ctx *Context) {
		ran = append(ran, 1)
		// Schedule a second callback on the same hook mid-walk; it must
		// still run within this RunHook call.
		ctx.RegisterHook(hook.Remap, func(ctx *Context) { ran = append(ran, 2) })
	})
	c.RunHook(hook.Remap)
	assert.Equal(t, []int{1, 2}, ran)
}

func TestFinalizersRunLIFO(t *testing.T) {
	c := New(fake.New(), 64, 1, 0)
	var order []int
	c.AddFinalizer(func() { order = append(order, 1) })
	c.AddFinalizer(func() { order = append(order, 2) })
	c.Close()
	assert.Equal(t, []int{2, 1}, order)
}

func TestTerminalStopsHookWalk(t *testing.T) {
	c := New(fake.New(), 64, 1, 0)
	var ran []int
	c.RegisterHook(hook.Remap, func(ctx *Context) {
		ran = append(ran, 1)
		ctx.SetTerminal(true)
	})
	c.RegisterHook(hook.Remap, func(ctx *Context) { ran = append(ran, 2) })
	c.RunHook(hook.Remap)
	assert.Equal(t, []int{1}, ran)
}
