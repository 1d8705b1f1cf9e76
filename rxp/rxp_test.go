package rxp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchAndCapture(t *testing.T) {
	p, err := Compile(`^/user/([0-9]+)/`, false)
	require.NoError(t, err)
	assert.Equal(t, 2, p.Groups())

	ms := NewMatchState(p.Groups())
	ok := ms.Match(p, []byte("/user/42/info"))
	require.True(t, ok)
	ms.CommitMatch([]byte("/user/42/info"))

	g1, ok := ms.Group(1)
	require.True(t, ok)
	assert.Equal(t, "42", string(g1))
}

func TestWorkingDoesNotClobberActiveUntilCommitted(t *testing.T) {
	p, err := Compile(`x`, false)
	require.NoError(t, err)
	ms := NewMatchState(p.Groups())

	require.True(t, ms.Match(p, []byte("xyz")))
	ms.CommitMatch([]byte("xyz"))
	g0, _ := ms.Group(0)
	assert.Equal(t, "x", string(g0))

	// A failed subsequent attempt must not disturb Active.
	ok := ms.Match(p, []byte("zzz"))
	assert.False(t, ok)
	g0, _ = ms.Group(0)
	assert.Equal(t, "x", string(g0))
}

func TestResizeGrowsBuffers(t *testing.T) {
	ms := NewMatchState(1)
	ms.Resize(4)
	assert.GreaterOrEqual(t, len(ms.Active.Spans), 4)
	assert.GreaterOrEqual(t, len(ms.Working.Spans), 4)
}
