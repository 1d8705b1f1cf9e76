// Package directive implements the directive tree spec.md §2/§4.6–§4.10
// describes: load-time validation and hook scheduling, runtime invocation,
// and the concrete built-in directives (header/URL/status mutators, `var`,
// `with`/`select`, `when`, `redirect`, the `*-define`/`stat-update`
// resource directives, `debug`, `cache-key`, `error-body`).
package directive

import (
	"fmt"
	"sync"

	"github.com/SolidWallOfCode/txn-box-sub000/comparison"
	"github.com/SolidWallOfCode/txn-box-sub000/expr"
	"github.com/SolidWallOfCode/txn-box-sub000/hook"
	"github.com/SolidWallOfCode/txn-box-sub000/txctx"
)

// Directive is a loaded, invocable action (spec.md §2: "has a load function
// ... and an invoke(ctx)"). The load function is each directive's Go
// constructor, called by config; Invoke is the runtime action.
type Directive interface {
	Invoke(ctx *txctx.Context) error
}

// Loader is the load-time capability surface directive constructors need:
// the same narrow primitives comparison/modifier/extractor see, plus the
// ability to compile a nested expression or comparison without this package
// depending on config.
type Loader interface {
	Localize(s string) []byte
	RequireCaptureGroups(n int) int
	ReserveContextStorage(n int) int
	Note(cause error, format string, args ...any)
	BuildExpr(raw any) (*expr.Expr, error)
	BuildComparison(raw any) (comparison.Comparison, error)
}

// BuildFunc compiles a raw config node (typically the value under a nested
// `do:` key) into a Directive, recursing back through the directive tree
// without a Factory needing to import config.
type BuildFunc func(raw any) (Directive, error)

// Factory builds a Directive from the decoded value under its `name<arg>`
// key. arg is the `<...>` text, empty if none was given.
type Factory func(loader Loader, arg string, raw any, build BuildFunc) (Directive, error)

var (
	mu       sync.RWMutex
	registry = map[string]Factory{}
)

// Register adds f under name. Panics on duplicate registration.
func Register(name string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	if _, exists := registry[name]; exists {
		panic(fmt.Sprintf("directive: duplicate registration for %q", name))
	}
	registry[name] = f
}

// Lookup resolves a registered directive factory by name.
func Lookup(name string) (Factory, bool) {
	mu.RLock()
	defer mu.RUnlock()
	f, ok := registry[name]
	return f, ok
}

// Names returns every registered directive name, used by config to find
// "the first key that is a registered directive name" on a directive object
// (spec.md §6: "unknown keys are ignored to allow sugar").
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	return out
}

// Seq runs a list of directives in order, stopping early if a directive
// marks the context terminal (spec.md §4.8's redirect-style short circuit).
type Seq []Directive

func (s Seq) Invoke(ctx *txctx.Context) error {
	for _, d := range s {
		if err := d.Invoke(ctx); err != nil {
			return err
		}
		if ctx.Terminal() {
			break
		}
	}
	return nil
}

// Noop is the Invoke for directives whose entire effect happens at load
// time (the `*-define` resource directives): registering them already did
// the work, so there is nothing left to do per-transaction.
type Noop struct{}

func (Noop) Invoke(*txctx.Context) error { return nil }

// hookFromName is a small helper factories share: resolve the external
// hook name spec.md §6 gives (`when: <hook_name>`) via the hook package.
func hookFromName(name string) (hook.Hook, error) {
	h, ok := hook.Lookup(name)
	if !ok {
		return 0, fmt.Errorf("directive: unknown hook %q", name)
	}
	return h, nil
}
