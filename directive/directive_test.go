package directive_test

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/SolidWallOfCode/txn-box-sub000/comparison"
	"github.com/SolidWallOfCode/txn-box-sub000/directive"
	"github.com/SolidWallOfCode/txn-box-sub000/expr"
	"github.com/SolidWallOfCode/txn-box-sub000/feature"
	"github.com/SolidWallOfCode/txn-box-sub000/hook"
	"github.com/SolidWallOfCode/txn-box-sub000/proxy"
	"github.com/SolidWallOfCode/txn-box-sub000/proxy/fake"
	"github.com/SolidWallOfCode/txn-box-sub000/stats"
	"github.com/SolidWallOfCode/txn-box-sub000/textblock"
	"github.com/SolidWallOfCode/txn-box-sub000/txctx"
)

// splitArgKey parses the `name<arg>` config-key convention (spec.md §6) into
// its base name and argument text.
func splitArgKey(key string) (name, arg string) {
	open := strings.IndexByte(key, '<')
	if open < 0 {
		return key, ""
	}
	close := strings.IndexByte(key[open:], '>')
	if close < 0 {
		return key, ""
	}
	return key[:open], key[open+1 : open+close]
}

// testLoader is a minimal stand-in for the config package's real Loader,
// providing just enough of BuildExpr/BuildComparison to exercise the
// directive package's own logic in isolation.
type testLoader struct{}

func (testLoader) Localize(s string) []byte          { return []byte(s) }
func (testLoader) RequireCaptureGroups(n int) int     { return n }
func (testLoader) ReserveContextStorage(n int) int    { return 0 }
func (testLoader) Note(cause error, format string, args ...any) {}

func (l testLoader) BuildExpr(raw any) (*expr.Expr, error) {
	return expr.BuildFromValue(l, raw)
}

func (l testLoader) BuildComparison(raw any) (comparison.Comparison, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("testLoader: comparison node must be a map")
	}
	for _, name := range comparison.Names() {
		for k, v := range m {
			base, arg := splitArgKey(k)
			if base != name {
				continue
			}
			f, _ := comparison.Lookup(name)
			return f(l, arg, v, l.BuildComparison)
		}
	}
	return nil, fmt.Errorf("testLoader: no registered comparison key in %v", m)
}

// build compiles a raw directive-tree node: a list becomes a Seq, a map is
// scanned for the first key naming a registered directive (spec.md §6:
// "unknown keys are ignored to allow sugar").
func build(raw any) (directive.Directive, error) {
	switch v := raw.(type) {
	case []any:
		var seq directive.Seq
		for _, item := range v {
			d, err := build(item)
			if err != nil {
				return nil, err
			}
			seq = append(seq, d)
		}
		return seq, nil
	case map[string]any:
		for k, val := range v {
			base, arg := splitArgKey(k)
			if f, ok := directive.Lookup(base); ok {
				// "when"/"with" read sibling keys ("do", "select",
				// "for-each") out of their own raw value, so they need the
				// whole object; every other directive's raw is just its own
				// key's value.
				if base == "when" || base == "with" {
					return f(testLoader{}, arg, v, build)
				}
				return f(testLoader{}, arg, val, build)
			}
		}
		return nil, fmt.Errorf("build: no registered directive key in %v", v)
	default:
		return nil, fmt.Errorf("build: unsupported directive node %T", raw)
	}
}

func newCtx(px proxy.Adaptor) *txctx.Context {
	return txctx.New(px, 256, 1, 0)
}

func TestHeaderFieldSetAndDelete(t *testing.T) {
	px := fake.New()
	ctx := newCtx(px)

	d, err := build(map[string]any{"ua-req-field<X-Foo>": "bar"})
	require.NoError(t, err)
	require.NoError(t, d.Invoke(ctx))
	v, ok := px.Header(proxy.UAReqHdr, "X-Foo")
	require.True(t, ok)
	require.Equal(t, "bar", v)

	d2, err := build(map[string]any{"ua-req-field<X-Foo>": ""})
	require.NoError(t, err)
	require.NoError(t, d2.Invoke(ctx))
	_, ok = px.Header(proxy.UAReqHdr, "X-Foo")
	require.False(t, ok)
}

func TestURLWholeAndPartSet(t *testing.T) {
	px := fake.New()
	ctx := newCtx(px)

	d, err := build(map[string]any{"ua-req-url": "http://example.com/a"})
	require.NoError(t, err)
	require.NoError(t, d.Invoke(ctx))
	require.Equal(t, "http://example.com/a", px.URL(proxy.UAReqURL).String())
	require.True(t, ctx.RemapMatched())

	d2, err := build(map[string]any{"ua-req-url<path>": "/b"})
	require.NoError(t, err)
	require.NoError(t, d2.Invoke(ctx))
	require.Equal(t, "/b", px.URL(proxy.UAReqURL).Path)
}

func TestVarSingleAndMulti(t *testing.T) {
	px := fake.New()
	ctx := newCtx(px)

	d, err := build(map[string]any{"var<x>": "hello"})
	require.NoError(t, err)
	require.NoError(t, d.Invoke(ctx))
	v, ok := ctx.Var("x")
	require.True(t, ok)
	require.Equal(t, "hello", v.String())

	d2, err := build(map[string]any{"var": map[string]any{"y": "a", "z": "b"}})
	require.NoError(t, err)
	require.NoError(t, d2.Invoke(ctx))
	vy, ok := ctx.Var("y")
	require.True(t, ok)
	require.Equal(t, "a", vy.String())
	vz, ok := ctx.Var("z")
	require.True(t, ok)
	require.Equal(t, "b", vz.String())
}

func TestWithSelectFirstMatch(t *testing.T) {
	px := fake.New()
	ctx := newCtx(px)

	d, err := build(map[string]any{
		"with": "abc",
		"select": []any{
			map[string]any{
				"match<nc>":       "xyz",
				"do": map[string]any{"var<hit>": "wrong"},
			},
			map[string]any{
				"match<nc>": "abc",
				"do":        map[string]any{"var<hit>": "right"},
			},
			map[string]any{
				"do": map[string]any{"var<hit>": "fallback"},
			},
		},
	})
	require.NoError(t, err)
	require.NoError(t, d.Invoke(ctx))
	v, ok := ctx.Var("hit")
	require.True(t, ok)
	require.Equal(t, "right", v.String())
}

func TestWithSelectNoMatchRestoresActive(t *testing.T) {
	px := fake.New()
	ctx := newCtx(px)
	ctx.SetActive(feature.Literal("prior"))

	d, err := build(map[string]any{
		"with": "abc",
		"select": []any{
			map[string]any{
				"match<nc>": "nope",
				"do":        map[string]any{"var<hit>": "1"},
			},
		},
	})
	require.NoError(t, err)
	require.NoError(t, d.Invoke(ctx))
	_, ok := ctx.Var("hit")
	require.False(t, ok)
	require.Equal(t, "prior", ctx.Active().String())
}

func TestForEachIteratesElements(t *testing.T) {
	px := fake.New()
	ctx := newCtx(px)

	stats.Register(stats.NewDefine("foreach-hits"))
	d, err := build(map[string]any{
		"with":     []any{"a", "b", "c"},
		"for-each": true,
		"do":       map[string]any{"stat-update": "foreach-hits"},
	})
	require.NoError(t, err)
	require.NoError(t, d.Invoke(ctx))

	def, ok := stats.Lookup("foreach-hits")
	require.True(t, ok)
	require.EqualValues(t, 3, def.Value())
}

func TestWhenSchedulesOnHook(t *testing.T) {
	px := fake.New()
	ctx := newCtx(px)

	d, err := build(map[string]any{
		"when": "send-response",
		"do":   map[string]any{"proxy-rsp-field<X-Late>": "set-later"},
	})
	require.NoError(t, err)
	require.NoError(t, d.Invoke(ctx))

	_, ok := px.Header(proxy.ProxyRspHdr, "X-Late")
	require.False(t, ok, "directive must not fire before its hook runs")

	ctx.RunHook(hook.PRsp)
	v, ok := px.Header(proxy.ProxyRspHdr, "X-Late")
	require.True(t, ok)
	require.Equal(t, "set-later", v)
}

func TestWhenRejectsPastHook(t *testing.T) {
	px := fake.New()
	ctx := newCtx(px)
	ctx.RunHook(hook.PRsp) // advances ctx.current to PRsp

	d, err := build(map[string]any{
		"when": "read-request",
		"do":   map[string]any{"var<x>": "y"},
	})
	require.NoError(t, err)
	require.Error(t, d.Invoke(ctx))
}

func TestRedirectSetsStatusLocationAndTerminal(t *testing.T) {
	px := fake.New()
	ctx := newCtx(px)

	d, err := build(map[string]any{
		"redirect": map[string]any{
			"status":   int64(301),
			"location": "https://example.com/moved",
		},
	})
	require.NoError(t, err)
	require.NoError(t, d.Invoke(ctx))

	require.Equal(t, 301, px.ProxyRspStatus())
	loc, ok := px.Header(proxy.ProxyRspHdr, "Location")
	require.True(t, ok)
	require.Equal(t, "https://example.com/moved", loc)
	require.Equal(t, proxy.DidRemap, px.RemapStatus())
	require.True(t, ctx.RemapMatched())
	require.True(t, ctx.Terminal())
}

func TestSeqStopsAtTerminal(t *testing.T) {
	px := fake.New()
	ctx := newCtx(px)

	d, err := build([]any{
		map[string]any{"redirect": map[string]any{"location": "https://example.com/x"}},
		map[string]any{"var<never>": "set"},
	})
	require.NoError(t, err)
	require.NoError(t, d.Invoke(ctx))
	_, ok := ctx.Var("never")
	require.False(t, ok)
}

func TestTextBlockDefineAndOnUpdate(t *testing.T) {
	d, err := build(map[string]any{
		"text-block-define": map[string]any{
			"name": "greeting",
			"text": "hello",
		},
	})
	require.NoError(t, err)
	require.NoError(t, d.Invoke(newCtx(fake.New())))

	blk, ok := textblock.Lookup("greeting")
	require.True(t, ok)
	require.Equal(t, "hello", blk.Current())
}

func TestStatDefineAndUpdateDefaultDelta(t *testing.T) {
	d, err := build([]any{
		map[string]any{"stat-define": "requests-seen"},
		map[string]any{"stat-update": "requests-seen"},
		map[string]any{"stat-update": "requests-seen"},
	})
	require.NoError(t, err)
	px := fake.New()
	require.NoError(t, d.Invoke(newCtx(px)))

	def, ok := stats.Lookup("requests-seen")
	require.True(t, ok)
	require.EqualValues(t, 2, def.Value())

	v, err := px.StatValue("requests-seen")
	require.NoError(t, err)
	require.EqualValues(t, 2, v)
}

func TestStatUpdateWithExplicitValue(t *testing.T) {
	stats.Register(stats.NewDefine("bytes-seen"))
	d, err := build(map[string]any{
		"stat-update": map[string]any{"name": "bytes-seen", "value": int64(42)},
	})
	require.NoError(t, err)
	require.NoError(t, d.Invoke(newCtx(fake.New())))
	def, _ := stats.Lookup("bytes-seen")
	require.EqualValues(t, 42, def.Value())
}

func TestCacheKeyAppendsFragments(t *testing.T) {
	px := fake.New()
	d, err := build(map[string]any{
		"cache-key": []any{"a", "b"},
	})
	require.NoError(t, err)
	require.NoError(t, d.Invoke(newCtx(px)))
	require.Equal(t, []string{"a", "b"}, px.CacheKeyFragments)
}

func TestErrorBodySetsBodyAndDefaultContentType(t *testing.T) {
	px := fake.New()
	d, err := build(map[string]any{
		"error-body": map[string]any{
			"status": int64(503),
			"body":   "service unavailable",
		},
	})
	require.NoError(t, err)
	require.NoError(t, d.Invoke(newCtx(px)))
	require.Equal(t, 503, px.ErrorStatus)
	require.Equal(t, "service unavailable", string(px.ErrorBody))
	require.Equal(t, "text/plain; charset=utf-8", px.ErrorContentType)
}

func TestStatSnapshotWritesFile(t *testing.T) {
	stats.Register(stats.NewDefine("snapshot-hits"))
	px := fake.New()
	ctx := newCtx(px)

	d, err := build([]any{
		map[string]any{"stat-update": "snapshot-hits"},
		map[string]any{"stat-snapshot": filepath.Join(t.TempDir(), "out.snapshot")},
	})
	require.NoError(t, err)
	require.NoError(t, d.Invoke(ctx))
}

func TestDebugDoesNotError(t *testing.T) {
	d, err := build(map[string]any{"debug": "checking in"})
	require.NoError(t, err)
	require.NoError(t, d.Invoke(newCtx(fake.New())))
}

func TestDebugWithFileAppendsAtomically(t *testing.T) {
	path := filepath.Join(t.TempDir(), "debug.log")
	ctx := newCtx(fake.New())

	d, err := build(map[string]any{
		"debug": map[string]any{"message": "first", "file": path},
	})
	require.NoError(t, err)
	require.NoError(t, d.Invoke(ctx))

	d2, err := build(map[string]any{
		"debug": map[string]any{"message": "second", "file": path},
	})
	require.NoError(t, err)
	require.NoError(t, d2.Invoke(ctx))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(content), "\n"), "\n")
	require.Len(t, lines, 2)
	require.Contains(t, lines[0], "first")
	require.Contains(t, lines[1], "second")
}
