// Package txctx implements the per-transaction execution context spec.md §3
// and §4.8–§4.10 describe: an arena-backed transient-buffer discipline, the
// regex active/working match-state pair, a variable store, per-directive
// reserved storage with an overflow-span escape hatch, a hook callback list
// that tolerates callbacks scheduling more callbacks on the same hook while
// it is running ("walk-while-growing"), and a LIFO finalizer list run at
// TXN_CLOSE.
//
// Context intentionally has no dependency on directive or config: it only
// knows about arena, feature, rxp, hook and proxy. Directives register
// themselves as opaque func(*Context) callbacks, so this package sits below
// the directive/config layer in the dependency graph and cannot cycle back
// into it.
package txctx

import (
	"github.com/SolidWallOfCode/txn-box-sub000/arena"
	"github.com/SolidWallOfCode/txn-box-sub000/feature"
	"github.com/SolidWallOfCode/txn-box-sub000/hook"
	"github.com/SolidWallOfCode/txn-box-sub000/proxy"
	"github.com/SolidWallOfCode/txn-box-sub000/rxp"
)

// callback is one scheduled hook-invocation closure; it does not record which
// directive scheduled it.
type callback struct {
	fn func(*Context)
}

// Context is the per-transaction object. One is constructed at TXN_START (or
// lazily at PreRemap) and destroyed at TXN_CLOSE.
type Context struct {
	arena *arena.Arena

	transientSize int

	ms *rxp.MatchState

	vars map[string]feature.Feature

	hooks     [hook.Count][]callback
	scheduled hook.Mask
	current   hook.Hook

	active    feature.Feature
	remainder feature.Feature

	px proxy.Adaptor

	reserved []byte
	overflow map[int][]byte

	finalizers []func()

	terminal     bool
	remapMatched bool
}

// New constructs a Context. captureGroups and ctxStorage come from the
// owning Config (spec.md §4.9's capture_groups, §4.10's ctx_storage_required)
// so this package never needs to know how either was computed.
func New(px proxy.Adaptor, blockSize, captureGroups, ctxStorage int) *Context {
	c := &Context{
		arena: arena.New(blockSize),
		ms:    rxp.NewMatchState(rxp.RequiredCaptureGroups(captureGroups)),
		vars:  make(map[string]feature.Feature),
		px:    px,
	}
	if ctxStorage > 0 {
		c.reserved = c.arena.Alloc(ctxStorage, 8)
	}
	return c
}

func (c *Context) Arena() *arena.Arena        { return c.arena }
func (c *Context) MatchState() *rxp.MatchState { return c.ms }
func (c *Context) Proxy() proxy.Adaptor        { return c.px }

// TransientBuffer returns a transient view of at least n bytes. Any
// outstanding transient view from a prior call is first committed (the bump
// pointer is advanced past its bytes so they remain stable), matching
// spec.md §4.1's "commits the previous one, then resets transient_size".
func (c *Context) TransientBuffer(n int) []byte {
	if c.transientSize > 0 {
		c.arena.Alloc(c.transientSize, 1)
	}
	buf := c.arena.Require(n)
	c.transientSize = n
	return buf[:n]
}

// DiscardTransient drops the current transient region without committing it
// (spec.md §4.1's discard_transient).
func (c *Context) DiscardTransient() { c.transientSize = 0 }

// Commit promotes a transient FeatureView into permanent, context-arena-owned
// storage, satisfying spec.md §8's "after commit, subsequent transient
// operations do not mutate fv's bytes" invariant.
func (c *Context) Commit(f feature.Feature) feature.Feature {
	return feature.Commit(f, func(n int) []byte { return c.arena.Alloc(n, 1) })
}

// Localize copies s into context-owned storage that outlives any transient
// request, mirroring the config arena's localize primitive but scoped to
// this transaction (used e.g. by the `slug` modifier for its result).
func (c *Context) Localize(s string) []byte { return c.arena.AllocString(s) }

// Var looks up a transaction variable (spec.md §6: "name -> feature map").
func (c *Context) Var(name string) (feature.Feature, bool) {
	v, ok := c.vars[name]
	return v, ok
}

// SetVar assigns a transaction variable.
func (c *Context) SetVar(name string, v feature.Feature) { c.vars[name] = v }

// Active is the current active feature (the implicit subject of a bare
// comparison inside `with`/`select`, spec.md §4.6).
func (c *Context) Active() feature.Feature        { return c.active }
func (c *Context) SetActive(f feature.Feature)    { c.active = f }
func (c *Context) Remainder() feature.Feature     { return c.remainder }
func (c *Context) SetRemainder(f feature.Feature) { c.remainder = f }

// CurrentHook is the hook presently being invoked, readable by extractors
// that need to know lifecycle position (e.g. whether direct views are safe).
func (c *Context) CurrentHook() hook.Hook { return c.current }

// RegisterHook appends cb to the callback list for h. If this is the first
// callback registered for h, the proxy adaptor is told to dispatch this
// hook at all (spec.md §5: "registers hook callbacks only for hooks that
// have work").
func (c *Context) RegisterHook(h hook.Hook, cb func(*Context)) {
	first := len(c.hooks[h]) == 0
	c.hooks[h] = append(c.hooks[h], callback{fn: cb})
	c.scheduled = c.scheduled.With(h)
	if first && c.px != nil {
		c.px.RegisterHook(h, func() { c.RunHook(h) })
	}
}

// HookScheduled reports whether any directive registered a callback for h.
func (c *Context) HookScheduled(h hook.Hook) bool { return c.scheduled.Has(h) }

// RunHook invokes every callback registered for h, in registration order. It
// re-reads the slice length on each iteration ("walk-while-growing") so a
// callback that schedules another callback on the *same* hook — e.g. a
// `with` directive whose matched branch itself calls `when` — still gets to
// run within this dispatch, rather than being silently dropped.
func (c *Context) RunHook(h hook.Hook) {
	c.current = h
	for i := 0; i < len(c.hooks[h]); i++ {
		if c.terminal {
			break
		}
		c.hooks[h][i].fn(c)
	}
}

// StorageFor returns the reserved-storage span a directive's CfgInfo
// recorded at `offset` with length `n`. If offset+n falls within the
// Context's pre-sized reserved block it is returned directly; otherwise
// (spec.md §4.10/§9: the per-config sizing pass under-counted, e.g. because
// the directive count grew after sizing) an overflow span is allocated on
// demand from the context arena and memoized by offset so repeated lookups
// for the same directive return the same bytes.
func (c *Context) StorageFor(offset, n int) []byte {
	if offset >= 0 && offset+n <= len(c.reserved) {
		return c.reserved[offset : offset+n : offset+n]
	}
	if c.overflow == nil {
		c.overflow = make(map[int][]byte)
	}
	if span, ok := c.overflow[offset]; ok && len(span) >= n {
		return span[:n]
	}
	span := c.arena.Alloc(n, 8)
	c.overflow[offset] = span
	return span
}

// AddFinalizer registers fn to run at Close, LIFO (spec.md §6:
// "the finalizer list runs (LIFO)"). Used by text-block/ipspace extractors
// to pin a shared reloadable pointer for the transaction's lifetime.
func (c *Context) AddFinalizer(fn func()) {
	c.finalizers = append(c.finalizers, fn)
}

// Close runs every finalizer in LIFO order. Called on TXN_CLOSE.
func (c *Context) Close() {
	c.RunHook(hook.TxnClose)
	for i := len(c.finalizers) - 1; i >= 0; i-- {
		c.finalizers[i]()
	}
}

// SetTerminal stops further hook-callback processing within the current
// RunHook walk; used by a directive that redirects or otherwise short-
// circuits the rest of the rule tree for this hook.
func (c *Context) SetTerminal(v bool) { c.terminal = v }
func (c *Context) Terminal() bool     { return c.terminal }

// SetRemapMatched records that a remap rule fired for this transaction;
// RemapMatched reads it back. No comparison or extractor reads this flag.
func (c *Context) SetRemapMatched(v bool) { c.remapMatched = v }
func (c *Context) RemapMatched() bool     { return c.remapMatched }
