// Package modifier implements the expression modifier pipeline spec.md §4.4
// describes: `hash(n)`, `else(expr)`, `as-integer(fallback)`, `filter(cases)`,
// plus a supplementary `slug` modifier folded in from the broader example
// pack. Each modifier is a registered singleton exactly like extractor and
// comparison (spec.md §3).
package modifier

import (
	"fmt"
	"sync"

	"github.com/SolidWallOfCode/txn-box-sub000/feature"
	"github.com/SolidWallOfCode/txn-box-sub000/txctx"
)

// Modifier takes a feature and returns a feature, possibly written into the
// context's transient buffer (spec.md §4.4).
type Modifier interface {
	IsValidFor(t feature.ValueType) bool
	ResultType(t feature.ValueType) feature.ValueType
	Apply(ctx *txctx.Context, f feature.Feature) (feature.Feature, error)
}

// Loader is the narrow load-time capability a modifier factory needs.
type Loader interface {
	Note(cause error, format string, args ...any)
}

// Factory builds a Modifier from the raw decoded value under its key (e.g.
// the `n` in `hash(n)`, or the nested expression under `else`). `buildExpr`
// compiles a nested expression node (used by `else`/`as-integer`/`filter`)
// without modifier depending on package expr.
type Factory func(loader Loader, raw any, buildExpr BuildExprFunc) (Modifier, error)

// CompiledExpr is the narrow interface modifier needs from expr.Expr: the
// ability to evaluate itself against a context.
type CompiledExpr interface {
	Eval(ctx *txctx.Context) (feature.Feature, error)
}

// BuildExprFunc compiles a raw config node into a CompiledExpr.
type BuildExprFunc func(raw any) (CompiledExpr, error)

var (
	mu       sync.RWMutex
	registry = map[string]Factory{}
)

func Register(name string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	if _, exists := registry[name]; exists {
		panic(fmt.Sprintf("modifier: duplicate registration for %q", name))
	}
	registry[name] = f
}

func Lookup(name string) (Factory, bool) {
	mu.RLock()
	defer mu.RUnlock()
	f, ok := registry[name]
	return f, ok
}

func init() {
	Register("hash", newHash)
	Register("else", newElse)
	Register("as-integer", newAsInteger)
	Register("filter", newFilter)
	Register("slug", newSlug)
	Register("as-ip", newAsIP)
}
