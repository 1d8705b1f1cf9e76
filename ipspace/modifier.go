package ipspace

import (
	"fmt"
	"net/netip"

	"github.com/SolidWallOfCode/txn-box-sub000/feature"
	"github.com/SolidWallOfCode/txn-box-sub000/modifier"
	"github.com/SolidWallOfCode/txn-box-sub000/txctx"
)

// frame is the `{row, addr, drtv}` triple spec.md §4.11 describes, exposed
// on a context-local slot for `ip-col<column>` to read back.
//
// The spec's "stack slot" is simplified here to a single current slot: the
// engine evaluates one directive's expression tree at a time on a single
// serialized continuation (spec.md §5), so a later `ip-space` application
// within the same expression naturally supersedes an earlier one before
// any `ip-col` read of it — the same two-phase-commit simplification
// already noted for comparison's any-of/all-of/none-of combinators.
type frame struct {
	Table *Table
	Row   Row
	Addr  netip.Addr
}

const slotVar = "\x00ip-space-slot"

func setSlot(ctx *txctx.Context, f frame) {
	ctx.SetVar(slotVar, feature.Generic(&f))
}

func getSlot(ctx *txctx.Context) (frame, bool) {
	v, ok := ctx.Var(slotVar)
	if !ok || v.Type != feature.GENERIC {
		return frame{}, false
	}
	f, ok := v.GenericVal().(*frame)
	if !ok {
		return frame{}, false
	}
	return *f, true
}

type ipSpaceModifier struct {
	define *Define
}

func (m *ipSpaceModifier) IsValidFor(t feature.ValueType) bool { return t == feature.IP_ADDR }

func (m *ipSpaceModifier) ResultType(t feature.ValueType) feature.ValueType { return t }

// Apply looks up f's address in the table and records the match (or a
// miss) on the context's slot, then returns f unchanged — ip-space is a
// side-effecting pass-through, not a value transform.
func (m *ipSpaceModifier) Apply(ctx *txctx.Context, f feature.Feature) (feature.Feature, error) {
	if f.Type != feature.IP_ADDR {
		return f, fmt.Errorf("ip-space: expected IP_ADDR, got %s", f.Type)
	}
	table := m.define.Current()
	row, _ := table.Lookup(f.IPVal())
	setSlot(ctx, frame{Table: table, Row: row, Addr: f.IPVal()})
	return f, nil
}

func newIPSpace(loader modifier.Loader, raw any, buildExpr modifier.BuildExprFunc) (modifier.Modifier, error) {
	name, ok := raw.(string)
	if !ok {
		return nil, fmt.Errorf("ip-space: argument must be a table name, got %T", raw)
	}
	d, ok := Lookup(name)
	if !ok {
		return nil, fmt.Errorf("ip-space: no such table %q", name)
	}
	return &ipSpaceModifier{define: d}, nil
}

func init() {
	modifier.Register("ip-space", newIPSpace)
}
