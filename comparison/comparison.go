// Package comparison implements the predicate-plus-capture-side-effect
// registry spec.md §4.5 describes: `match`/`prefix`/`suffix`/`contain`/
// `tld`/`rxp` on strings, `eq`..`ge`/`in` on numbers, and the `any-of`/
// `all-of`/`none-of` logical combinators, all registered process-globally
// by name exactly like extractor/modifier (spec.md §3: "stateless
// singleton, name-registered").
package comparison

import (
	"fmt"
	"sync"

	"github.com/SolidWallOfCode/txn-box-sub000/feature"
	"github.com/SolidWallOfCode/txn-box-sub000/txctx"
)

// Comparison is a registered predicate. Match is given the context (for
// capture-state side effects) and the subject feature; it returns whether
// the comparison succeeded.
type Comparison interface {
	// SupportedTypes is the ValueMask of feature types this comparison
	// accepts; the loader rejects a comparison applied where the enclosing
	// expression's ActiveType cannot satisfy it.
	SupportedTypes() feature.ValueMask
	// Match evaluates the predicate against f, updating ctx's active
	// feature/remainder and regex match state on success per spec.md §4.5's
	// side-effect table.
	Match(ctx *txctx.Context, f feature.Feature) bool
}

// Factory builds a Comparison from the single config-node value under its
// registered key (e.g. the string after `match:`, or the map under
// `any-of:`) plus that key's `<arg>` suffix per spec.md §6's `name<arg>:
// value` convention (e.g. the `nc` in `prefix<nc>: "/api/"`). `build` lets
// combinators recursively construct child comparisons from nested nodes
// without comparison depending on config.
type Factory func(loader Loader, arg string, raw any, build BuildFunc) (Comparison, error)

// BuildFunc recursively instantiates a child Comparison from a raw decoded
// YAML value (a map with exactly one registered comparison key, per spec.md
// §4.5: "finds the first key that is a registered comparison name").
type BuildFunc func(raw any) (Comparison, error)

// Loader is the load-time capability a comparison factory needs: at minimum
// the ability to raise the enclosing regex's required capture-group count
// and record a diagnostic. A narrower view of loadctx.Loader, defined here
// so comparison does not need to import loadctx's broader surface.
type Loader interface {
	RequireCaptureGroups(n int) int
	Note(cause error, format string, args ...any)
}

var (
	mu       sync.RWMutex
	registry = map[string]Factory{}
)

// Register adds a comparison factory under name. Panics on duplicate
// registration (a build-time programming error, not a load-time one).
func Register(name string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	if _, exists := registry[name]; exists {
		panic(fmt.Sprintf("comparison: duplicate registration for %q", name))
	}
	registry[name] = f
}

// Lookup resolves a registered comparison factory by name.
func Lookup(name string) (Factory, bool) {
	mu.RLock()
	defer mu.RUnlock()
	f, ok := registry[name]
	return f, ok
}

// Names returns every registered comparison name, used by `select` case
// parsing to find "the first key that is a registered comparison name"
// among a case object's keys.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	return names
}

func init() {
	Register("match", newMatch)
	Register("prefix", newPrefix)
	Register("suffix", newSuffix)
	Register("contain", newContain)
	Register("tld", newTLD)
	Register("rxp", newRxp)
	Register("eq", newEq)
	Register("ne", newNe)
	Register("lt", newLt)
	Register("le", newLe)
	Register("gt", newGt)
	Register("ge", newGe)
	Register("in", newIn)
	Register("any-of", newAnyOf)
	Register("all-of", newAllOf)
	Register("none-of", newNoneOf)
	Register("true", newTrue)
	Register("false", newFalse)
}
