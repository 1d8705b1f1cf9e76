package modifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SolidWallOfCode/txn-box-sub000/feature"
	"github.com/SolidWallOfCode/txn-box-sub000/proxy/fake"
	"github.com/SolidWallOfCode/txn-box-sub000/txctx"
)

type noteSink struct{}

func (noteSink) Note(cause error, format string, args ...any) {}

func newCtx(t *testing.T) *txctx.Context {
	t.Helper()
	return txctx.New(fake.New(), 256, 1, 0)
}

func TestHashRange(t *testing.T) {
	m, err := newHash(noteSink{}, 16, nil)
	require.NoError(t, err)
	ctx := newCtx(t)
	v, err := m.Apply(ctx, feature.Literal("some-path"))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, v.IntVal(), int64(0))
	assert.Less(t, v.IntVal(), int64(16))
}

func TestHashRejectsSmallN(t *testing.T) {
	_, err := newHash(noteSink{}, 1, nil)
	assert.Error(t, err)
}

type constExpr struct{ v feature.Feature }

func (c constExpr) Eval(ctx *txctx.Context) (feature.Feature, error) { return c.v, nil }

func TestElseReplacesEmpty(t *testing.T) {
	m, err := newElse(noteSink{}, nil, func(any) (CompiledExpr, error) {
		return constExpr{v: feature.Literal("fallback")}, nil
	})
	require.NoError(t, err)
	ctx := newCtx(t)

	v, err := m.Apply(ctx, feature.Nil)
	require.NoError(t, err)
	assert.Equal(t, "fallback", v.String())

	v2, err := m.Apply(ctx, feature.Literal("present"))
	require.NoError(t, err)
	assert.Equal(t, "present", v2.String())
}

func TestAsIntegerParsesOrFallsBack(t *testing.T) {
	m, err := newAsInteger(noteSink{}, nil, func(any) (CompiledExpr, error) {
		return constExpr{v: feature.Int(-1)}, nil
	})
	require.NoError(t, err)
	ctx := newCtx(t)

	v, err := m.Apply(ctx, feature.Literal(" 42 "))
	require.NoError(t, err)
	assert.Equal(t, int64(42), v.IntVal())

	v2, err := m.Apply(ctx, feature.Literal("not-a-number"))
	require.NoError(t, err)
	assert.Equal(t, int64(-1), v2.IntVal())
}

type alwaysMatch struct{}

func (alwaysMatch) Match(ctx *txctx.Context, f feature.Feature) bool { return true }

func TestFilterDropsUnmatched(t *testing.T) {
	cases := []FilterCase{
		NewFilterCase(nil, int(ActionDrop), nil),
	}
	m := NewFilter(cases)
	ctx := newCtx(t)
	v, err := m.Apply(ctx, feature.Literal("x"))
	require.NoError(t, err)
	assert.True(t, v.IsEmpty())
}

func TestFilterPassesMatched(t *testing.T) {
	cases := []FilterCase{
		NewFilterCase(alwaysMatch{}, int(ActionPass), nil),
	}
	m := NewFilter(cases)
	ctx := newCtx(t)
	v, err := m.Apply(ctx, feature.Literal("x"))
	require.NoError(t, err)
	assert.Equal(t, "x", v.String())
}

func TestFilterOverTuple(t *testing.T) {
	cases := []FilterCase{
		NewFilterCase(alwaysMatch{}, int(ActionPass), nil),
	}
	m := NewFilter(cases)
	ctx := newCtx(t)
	tup := feature.Tuple(feature.TupleRef{feature.Literal("a"), feature.Literal("b")})
	v, err := m.Apply(ctx, tup)
	require.NoError(t, err)
	require.True(t, v.IsList())
	assert.Equal(t, 2, len(v.TupleVal()))
}

func TestAsIPParsesValidAddress(t *testing.T) {
	m, err := newAsIP(noteSink{}, nil, nil)
	require.NoError(t, err)
	ctx := newCtx(t)
	v, err := m.Apply(ctx, feature.Literal("203.0.113.5"))
	require.NoError(t, err)
	assert.Equal(t, feature.IP_ADDR, v.Type)
	assert.Equal(t, "203.0.113.5", v.IPVal().String())
}

func TestAsIPYieldsNilOnMalformedAddress(t *testing.T) {
	m, err := newAsIP(noteSink{}, nil, nil)
	require.NoError(t, err)
	ctx := newCtx(t)
	v, err := m.Apply(ctx, feature.Literal("not-an-address"))
	require.NoError(t, err)
	assert.True(t, v.IsEmpty())
}

func TestSlugModifier(t *testing.T) {
	m, err := newSlug(noteSink{}, nil, nil)
	require.NoError(t, err)
	ctx := newCtx(t)
	v, err := m.Apply(ctx, feature.Literal("Hello World!"))
	require.NoError(t, err)
	assert.Equal(t, "hello-world", v.String())
}
