package feature

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsEmpty(t *testing.T) {
	assert.True(t, Nil.IsEmpty())
	assert.True(t, Literal("").IsEmpty())
	assert.False(t, Literal("x").IsEmpty())
	assert.False(t, Int(0).IsEmpty())
}

func TestCdrChainTerminatesAtNil(t *testing.T) {
	tup := Tuple(TupleRef{Int(1), Int(2), Int(3)})
	cur := tup
	seen := 0
	for !cur.IsEmpty() && cur.Type != NIL {
		seen++
		cur = Cdr(cur)
		require.Less(t, seen, 10, "cdr chain did not terminate")
	}
	assert.Equal(t, 3, seen)
}

func TestCarCdrConsInvariant(t *testing.T) {
	tup := Tuple(TupleRef{Int(1), Int(2), Int(3)})
	c := Cons(Car(tup), Cdr(tup))
	assert.Equal(t, Cdr(tup), Cdr(c))
}

func TestActiveTypeRefinement(t *testing.T) {
	empty := Tuple(nil)
	at := ActiveTypeOf(empty)
	assert.Equal(t, AnyMask, at.TupleElement)

	homo := Tuple(TupleRef{Literal("a"), Literal("b")})
	at = ActiveTypeOf(homo)
	assert.Equal(t, MaskOf(STRING), at.TupleElement)

	hetero := Tuple(TupleRef{Literal("a"), Int(1)})
	at = ActiveTypeOf(hetero)
	assert.Equal(t, ValueMask(0), at.TupleElement)
}

func TestCommitPreservesBytesAfterFurtherTransientUse(t *testing.T) {
	buf := []byte("hello")
	transient := Transient(buf)
	committed := Commit(transient, func(n int) []byte { return make([]byte, n) })
	// mutate the original transient backing buffer
	copy(buf, "HELLO")
	assert.Equal(t, "hello", committed.String())
}

func TestBoolSynonyms(t *testing.T) {
	for _, s := range []string{"true", "Yes", "ON", "1", "enable"} {
		assert.True(t, StringIsTrue(s), s)
	}
	for _, s := range []string{"false", "No", "OFF", "0", "disable"} {
		assert.True(t, StringIsFalse(s), s)
	}
}
