package extractor

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SolidWallOfCode/txn-box-sub000/feature"
	"github.com/SolidWallOfCode/txn-box-sub000/proxy"
	"github.com/SolidWallOfCode/txn-box-sub000/proxy/fake"
	"github.com/SolidWallOfCode/txn-box-sub000/txctx"
)

type noteSink struct{}

func (noteSink) Localize(s string) []byte                      { return []byte(s) }
func (noteSink) Note(cause error, format string, args ...any) {}

func newCtx(t *testing.T) (*txctx.Context, *fake.Adaptor) {
	t.Helper()
	px := fake.New()
	return txctx.New(px, 256, 4, 0), px
}

func TestURLPathExtractor(t *testing.T) {
	e, ok := Lookup("ua-req-path")
	require.True(t, ok)
	ctx, px := newCtx(t)
	u, _ := url.Parse("https://example.com/a/b?x=1")
	px.SetURL(proxy.UAReqURL, u)
	v, err := e.Extract(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "/a/b", v.String())
}

func TestHeaderFieldExtractor(t *testing.T) {
	e, ok := Lookup("ua-req-field")
	require.True(t, ok)
	ctx, px := newCtx(t)
	px.SetHeader(proxy.UAReqHdr, "Host", "example.com")
	v, err := e.Extract(ctx, "Host")
	require.NoError(t, err)
	assert.Equal(t, "example.com", v.String())
}

func TestVarExtractorRoundTrip(t *testing.T) {
	e, ok := Lookup("var")
	require.True(t, ok)
	ctx, _ := newCtx(t)
	v, err := e.Extract(ctx, "missing")
	require.NoError(t, err)
	assert.True(t, v.IsEmpty())

	ctx.SetVar("x", feature.Int(7))
	v2, err := e.Extract(ctx, "x")
	require.NoError(t, err)
	assert.Equal(t, int64(7), v2.IntVal())
}

func TestCaptureExtractor(t *testing.T) {
	e, ok := Lookup("capture")
	require.True(t, ok)
	_, err := e.Validate(noteSink{}, "1")
	require.NoError(t, err)

	ctx, _ := newCtx(t)
	ctx.MatchState().SetLiteralCapture([]byte("whole"))
	v, err := e.Extract(ctx, "0")
	require.NoError(t, err)
	assert.Equal(t, "whole", v.String())
}

func TestRandomExtractorBounds(t *testing.T) {
	e, ok := Lookup("random")
	require.True(t, ok)
	_, err := e.Validate(noteSink{}, "10")
	require.NoError(t, err)

	ctx, _ := newCtx(t)
	for i := 0; i < 20; i++ {
		v, err := e.Extract(ctx, "10")
		require.NoError(t, err)
		assert.GreaterOrEqual(t, v.IntVal(), int64(0))
		assert.Less(t, v.IntVal(), int64(10))
	}
}

func TestTxnIDStableWithinTransaction(t *testing.T) {
	e, ok := Lookup("txn-id")
	require.True(t, ok)
	ctx, _ := newCtx(t)
	v1, err := e.Extract(ctx, "")
	require.NoError(t, err)
	v2, err := e.Extract(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, v1.GenericVal(), v2.GenericVal())
}

func TestIsInternalExtractor(t *testing.T) {
	e, ok := Lookup("is-internal")
	require.True(t, ok)
	ctx, px := newCtx(t)
	px.Internal = true
	v, err := e.Extract(ctx, "")
	require.NoError(t, err)
	assert.True(t, v.BoolVal())
}
