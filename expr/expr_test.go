package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/SolidWallOfCode/txn-box-sub000/extractor"
	"github.com/SolidWallOfCode/txn-box-sub000/feature"
	"github.com/SolidWallOfCode/txn-box-sub000/proxy/fake"
	"github.com/SolidWallOfCode/txn-box-sub000/txctx"
)

type loader struct{}

func (loader) Localize(s string) []byte                      { return []byte(s) }
func (loader) RequireCaptureGroups(n int) int                 { return n }
func (loader) Note(cause error, format string, args ...any) {}

func newCtx(t *testing.T) *txctx.Context {
	t.Helper()
	return txctx.New(fake.New(), 256, 4, 0)
}

func TestParseLiteralNoSpecifiers(t *testing.T) {
	e, err := Parse(loader{}, "plain text")
	require.NoError(t, err)
	assert.Equal(t, KindLiteral, e.Kind)
	v, err := e.Eval(newCtx(t))
	require.NoError(t, err)
	assert.Equal(t, "plain text", v.String())
}

func TestParseBareSpecifierIsDirect(t *testing.T) {
	e, err := Parse(loader{}, "{var<x>}")
	require.NoError(t, err)
	assert.Equal(t, KindDirect, e.Kind)

	ctx := newCtx(t)
	ctx.SetVar("x", feature.Int(9))
	v, err := e.Eval(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(9), v.IntVal())
}

func TestParseCompositeInterleavesLiterals(t *testing.T) {
	e, err := Parse(loader{}, "prefix-{var<x>}-suffix")
	require.NoError(t, err)
	assert.Equal(t, KindComposite, e.Kind)

	ctx := newCtx(t)
	ctx.SetVar("x", feature.Literal("mid"))
	v, err := e.Eval(ctx)
	require.NoError(t, err)
	assert.Equal(t, "prefix-mid-suffix", v.String())
}

func TestParseCaptureSpecifier(t *testing.T) {
	e, err := Parse(loader{}, "{1}")
	require.NoError(t, err)
	assert.Equal(t, KindDirect, e.Kind)
	assert.Equal(t, 1, e.MaxCaptureIndex)

	ctx := newCtx(t)
	ctx.MatchState().SetLiteralCapture([]byte("x"))
	ctx.MatchState().Resize(2)
	v, err := e.Eval(ctx)
	require.NoError(t, err)
	_ = v
}

func TestParseUnknownExtractorFails(t *testing.T) {
	_, err := Parse(loader{}, "{nope-such-extractor}")
	assert.Error(t, err)
}

func TestParseUnterminatedSpecifierFails(t *testing.T) {
	_, err := Parse(loader{}, "{var<x>")
	assert.Error(t, err)
}

func TestParsePipeModifierAppliesChain(t *testing.T) {
	e, err := Parse(loader{}, "{var<x> | as-ip}")
	require.NoError(t, err)
	assert.Equal(t, KindDirect, e.Kind)

	ctx := newCtx(t)
	ctx.SetVar("x", feature.Literal("203.0.113.5"))
	v, err := e.Eval(ctx)
	require.NoError(t, err)
	assert.Equal(t, feature.IP_ADDR, v.Type)
	assert.Equal(t, "203.0.113.5", v.IPVal().String())
}

func TestParsePipeModifierWithInlineValue(t *testing.T) {
	e, err := Parse(loader{}, "{var<x> | hash<16>}")
	require.NoError(t, err)

	ctx := newCtx(t)
	ctx.SetVar("x", feature.Literal("some-path"))
	v, err := e.Eval(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, v.IntVal(), int64(0))
	assert.Less(t, v.IntVal(), int64(16))
}
