package errata

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccumulatesSiblingErrors(t *testing.T) {
	e := New()
	e.Notef(Mark{Line: 1}, nil, "bad directive %s", "foo")
	e.Notef(Mark{Line: 2}, nil, "bad directive %s", "bar")
	require.True(t, e.HasErrors())
	assert.Len(t, e.Notes(), 2)
}

func TestAppendMerges(t *testing.T) {
	a := New()
	a.Notef(Mark{Line: 1}, nil, "a")
	b := New()
	b.Notef(Mark{Line: 2}, nil, "b")
	a.Append(b)
	assert.Len(t, a.Notes(), 2)
}

func TestNotefWrapsCause(t *testing.T) {
	cause := errors.New("unknown extractor")
	e := New()
	e.Notef(Mark{Line: 5, Column: 3}, cause, "while validating spec")
	require.True(t, e.HasErrors())
	assert.Contains(t, e.Error(), "while validating spec")
}

func TestEmptyErrataNotAnError(t *testing.T) {
	e := New()
	assert.False(t, e.HasErrors())
	assert.Equal(t, "", e.Error())
}
