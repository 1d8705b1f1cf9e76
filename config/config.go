// Package config implements the top-level YAML configuration loader spec.md
// §6/§7 and SPEC_FULL.md §2.3 describe: parse a document with
// gopkg.in/yaml.v3, walk its node tree applying the `name<arg>: value`
// directive-key convention, build a per-hook directive tree, size the
// Context's capture-group floor and per-directive reserved storage, and
// expose the result as a Config a proxy integration (or the test harness)
// can run transactions against.
//
// Config sits at the top of the dependency graph: it is the only package
// that implements directive.Loader/comparison.Loader/modifier.Loader/
// extractor.Loader/loadctx.Loader simultaneously, since those interfaces
// exist precisely so the lower packages never need to import this one.
package config

import (
	"sync"

	"github.com/SolidWallOfCode/txn-box-sub000/arena"
	"github.com/SolidWallOfCode/txn-box-sub000/comparison"
	"github.com/SolidWallOfCode/txn-box-sub000/directive"
	"github.com/SolidWallOfCode/txn-box-sub000/errata"
	"github.com/SolidWallOfCode/txn-box-sub000/expr"
	"github.com/SolidWallOfCode/txn-box-sub000/extractor"
	"github.com/SolidWallOfCode/txn-box-sub000/hook"
	"github.com/SolidWallOfCode/txn-box-sub000/loadctx"
	"github.com/SolidWallOfCode/txn-box-sub000/modifier"
	"github.com/SolidWallOfCode/txn-box-sub000/proxy"
	"github.com/SolidWallOfCode/txn-box-sub000/txctx"
)

// contextBlockSize is the initial arena block size for a transaction
// Context; bump allocation grows blocks on demand, so this only controls
// how many small extractions avoid a second allocation.
const contextBlockSize = 4096

// Config is one loaded generation of configuration: a directive to run once
// per transaction (at TxnStart/PostLoad) that registers itself on whatever
// hooks its `when` blocks name, the capture-group floor and context-storage
// size every Context built against this Config must be sized with, and
// (for remap.config-style use) a list of per-rule directive trees.
type Config struct {
	arena *arena.Arena

	root directive.Directive

	rules []*RuleConfig

	captureGroups int
	ctxStorage    int

	errata *errata.Errata
}

// RuleConfig is one `.` (remap) rule: the directive tree to run at the
// Remap hook when this rule's pattern matches the incoming request
// (spec.md §6: "in remap, a load failure leaves the rule inert").
type RuleConfig struct {
	Pattern string
	root    directive.Directive
}

// Run invokes this rule's directive tree against ctx at the Remap hook.
func (r *RuleConfig) Run(ctx *txctx.Context) error {
	return r.root.Invoke(ctx)
}

// CaptureGroups is the capture-group floor computed across every regex
// comparison this Config built (spec.md §4.9).
func (c *Config) CaptureGroups() int { return c.captureGroups }

// ContextStorage is the total per-transaction reserved-storage size every
// directive's ReserveContextStorage call accumulated (spec.md §4.10).
func (c *Config) ContextStorage() int { return c.ctxStorage }

// Errata is the accumulated load-time diagnostics (spec.md §7); a true
// HasErrors() result means Load/LoadRemap's caller should treat this
// generation as unusable.
func (c *Config) Errata() *errata.Errata { return c.errata }

// Rules returns the loaded remap rules, in file order.
func (c *Config) Rules() []*RuleConfig { return c.rules }

// AddRule appends a remap rule loaded via LoadRemapRule to this Config.
func (c *Config) AddRule(r *RuleConfig) { c.rules = append(c.rules, r) }

// NewContext builds a *txctx.Context sized correctly for this Config: its
// capture-group floor and reserved-storage size, computed once at Load,
// applied to every transaction that runs against this generation.
func (c *Config) NewContext(px proxy.Adaptor) *txctx.Context {
	return txctx.New(px, contextBlockSize, c.captureGroups, c.ctxStorage)
}

// RunPostLoad invokes the top-level directive tree once against ctx, the
// dispatch point for `when:`-scheduled blocks to register themselves on
// ctx's future hooks (spec.md §6: hooks include a synthetic `post-load`).
func (c *Config) RunPostLoad(ctx *txctx.Context) error {
	if c.root == nil {
		return nil
	}
	ctx.RegisterHook(hook.PostLoad, func(ic *txctx.Context) {})
	return c.root.Invoke(ctx)
}

// activeConfig is the process-wide, atomically-swapped live Config used by
// the reload machinery (spec.md §6: "the shared Config pointer is
// atomically replaced").
var (
	activeMu sync.RWMutex
	active   *Config
)

// Active returns the currently live Config, or nil if none has loaded yet.
func Active() *Config {
	activeMu.RLock()
	defer activeMu.RUnlock()
	return active
}

// setActive atomically replaces the live Config.
func setActive(c *Config) {
	activeMu.Lock()
	active = c
	activeMu.Unlock()
}

var (
	_ directive.Loader  = (*loader)(nil)
	_ comparison.Loader = (*loader)(nil)
	_ expr.Loader       = (*loader)(nil)
	_ modifier.Loader   = (*loader)(nil)
	_ extractor.Loader  = (*loader)(nil)
	_ loadctx.Loader    = (*loader)(nil)
)
