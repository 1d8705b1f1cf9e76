// Package extractor implements the process-global extractor registry
// spec.md §4.3 describes: a name-registered singleton producing a Feature
// from a Context at runtime (or from load-time state for config-time
// constants), declaring its result ActiveType during validate.
package extractor

import (
	"fmt"
	"sync"

	"github.com/SolidWallOfCode/txn-box-sub000/feature"
	"github.com/SolidWallOfCode/txn-box-sub000/txctx"
)

// Loader is the narrow load-time capability an extractor's Validate needs:
// localizing an argument string into the config arena and recording a
// load-time note.
type Loader interface {
	Localize(s string) []byte
	Note(cause error, format string, args ...any)
}

// Extractor is a registered, stateless singleton.
type Extractor interface {
	// Validate is called once during load with the raw `<arg>` text (empty
	// if the extractor was referenced with no argument). It returns the
	// ActiveType of values this extractor will produce.
	Validate(loader Loader, arg string) (feature.ActiveType, error)
	// Extract returns the runtime value. arg is the same text Validate saw.
	Extract(ctx *txctx.Context, arg string) (feature.Feature, error)
	// HasCtxRef is a conservative flag: true if the produced Feature may be
	// a Direct view whose backing memory does not survive a hook boundary,
	// so callers must commit it before holding it across one.
	HasCtxRef() bool
}

// ConstExtractor is optionally implemented by extractors whose value can be
// computed once at load time when the argument is itself a config-time
// constant (e.g. `random<n>` with a literal n); config-time evaluation
// bypasses a runtime Extract call entirely.
type ConstExtractor interface {
	ExtractConst(loader Loader, arg string) (feature.Feature, error)
}

var (
	mu       sync.RWMutex
	registry = map[string]Extractor{}
)

// Register adds e under name. Panics on duplicate registration.
func Register(name string, e Extractor) {
	mu.Lock()
	defer mu.Unlock()
	if _, exists := registry[name]; exists {
		panic(fmt.Sprintf("extractor: duplicate registration for %q", name))
	}
	registry[name] = e
}

// Lookup resolves a registered extractor by name.
func Lookup(name string) (Extractor, bool) {
	mu.RLock()
	defer mu.RUnlock()
	e, ok := registry[name]
	return e, ok
}
