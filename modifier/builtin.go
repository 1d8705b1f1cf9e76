package modifier

import (
	"fmt"
	"net/netip"
	"strconv"
	"strings"

	"github.com/minio/highwayhash"

	"github.com/SolidWallOfCode/txn-box-sub000/feature"
	"github.com/SolidWallOfCode/txn-box-sub000/txctx"
)

// hashKey is a fixed, process-wide HighwayHash key. The modifier only needs
// a stable, well-distributed string hash, not a keyed MAC, so a constant
// key is appropriate (no secret is being protected).
var hashKey = [32]byte{
	0x74, 0x78, 0x6e, 0x5f, 0x62, 0x6f, 0x78, 0x00,
	0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08,
	0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f, 0x10,
	0x11, 0x12, 0x13, 0x14, 0x15, 0x16, 0x17, 0x18,
}

// hashModifier implements `hash(n)`: string -> integer in [0, n).
type hashModifier struct{ n int64 }

func newHash(loader Loader, raw any, buildExpr BuildExprFunc) (Modifier, error) {
	n, err := coerceInt(raw)
	if err != nil {
		return nil, err
	}
	if n < 2 {
		return nil, fmt.Errorf("hash(n) requires n >= 2, got %d", n)
	}
	return &hashModifier{n: n}, nil
}

func coerceInt(raw any) (int64, error) {
	switch v := raw.(type) {
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	case string:
		return strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	default:
		return 0, fmt.Errorf("expected an integer, got %T", raw)
	}
}

func (m *hashModifier) IsValidFor(t feature.ValueType) bool { return t == feature.STRING }
func (m *hashModifier) ResultType(feature.ValueType) feature.ValueType { return feature.INTEGER }

func (m *hashModifier) Apply(ctx *txctx.Context, f feature.Feature) (feature.Feature, error) {
	sum := highwayhash.Sum64(f.View().Bytes, hashKey[:])
	return feature.Int(int64(sum % uint64(m.n))), nil
}

// elseModifier implements `else(expr)`: if the input is empty/nil, replace
// with the given expression's value.
type elseModifier struct{ fallback CompiledExpr }

func newElse(loader Loader, raw any, buildExpr BuildExprFunc) (Modifier, error) {
	expr, err := buildExpr(raw)
	if err != nil {
		return nil, err
	}
	return &elseModifier{fallback: expr}, nil
}

func (m *elseModifier) IsValidFor(feature.ValueType) bool { return true }
func (m *elseModifier) ResultType(t feature.ValueType) feature.ValueType { return t }

func (m *elseModifier) Apply(ctx *txctx.Context, f feature.Feature) (feature.Feature, error) {
	if !f.IsEmpty() {
		return f, nil
	}
	return m.fallback.Eval(ctx)
}

// asIntegerModifier implements `as-integer(fallback)`: identity on integer,
// parse trimmed string on string, fallback on failure or unsupported type.
// Per spec.md §9's open question, the fallback expression always runs on
// failure rather than silently yielding 0 — an explicit, documented choice
// (DESIGN.md), since a silent 0 is indistinguishable from a genuine zero
// value and would hide a misconfigured upstream extractor.
type asIntegerModifier struct{ fallback CompiledExpr }

func newAsInteger(loader Loader, raw any, buildExpr BuildExprFunc) (Modifier, error) {
	expr, err := buildExpr(raw)
	if err != nil {
		return nil, err
	}
	return &asIntegerModifier{fallback: expr}, nil
}

func (m *asIntegerModifier) IsValidFor(feature.ValueType) bool { return true }
func (m *asIntegerModifier) ResultType(feature.ValueType) feature.ValueType { return feature.INTEGER }

func (m *asIntegerModifier) Apply(ctx *txctx.Context, f feature.Feature) (feature.Feature, error) {
	switch f.Type {
	case feature.INTEGER:
		return f, nil
	case feature.STRING:
		v, err := strconv.ParseInt(strings.TrimSpace(f.String()), 10, 64)
		if err != nil {
			return m.fallback.Eval(ctx)
		}
		return feature.Int(v), nil
	default:
		return m.fallback.Eval(ctx)
	}
}

// asIPModifier implements `as-ip`: string -> IP_ADDR, yielding NIL on a
// malformed address rather than a load-time-only type per spec.md §7's
// "missing headers/URLs yield NIL features rather than errors" policy — an
// address string sourced from a header or peer address is runtime data, not
// something the loader can validate in advance.
type asIPModifier struct{}

func newAsIP(loader Loader, raw any, buildExpr BuildExprFunc) (Modifier, error) {
	return asIPModifier{}, nil
}

func (asIPModifier) IsValidFor(t feature.ValueType) bool { return t == feature.STRING }
func (asIPModifier) ResultType(feature.ValueType) feature.ValueType { return feature.IP_ADDR }

func (asIPModifier) Apply(ctx *txctx.Context, f feature.Feature) (feature.Feature, error) {
	addr, err := netip.ParseAddr(strings.TrimSpace(f.String()))
	if err != nil {
		return feature.Nil, nil
	}
	return feature.IP(addr), nil
}

// filterAction is pass/drop/replace, spec.md §4.4's filter-case actions.
type filterAction struct {
	kind    filterKind
	replace CompiledExpr
}

type filterKind int

// Filter case actions, spec.md §4.4: pass the element through unchanged,
// drop it, or replace it with an evaluated expression.
const (
	ActionPass filterKind = iota
	ActionDrop
	ActionReplace
)

// FilterCase pairs an optional comparison (nil means "always match", i.e.
// the catch-all default case) with the action to take.
type FilterCase struct {
	cmp    Comparer
	action filterAction
}

// Comparer is the narrow interface modifier needs from comparison.Comparison.
type Comparer interface {
	Match(ctx *txctx.Context, f feature.Feature) bool
}

// filterModifier implements `filter(cases)`: for each element of a list (or
// the bare scalar), find the first matching case and apply its action; no
// match drops the element.
type filterModifier struct{ cases []FilterCase }

// NewFilterCase is exported so the config layer (which parses the case list
// and builds each comparison/expr) can construct cases without this package
// needing to know the YAML shape.
func NewFilterCase(cmp Comparer, kind int, replace CompiledExpr) FilterCase {
	return FilterCase{cmp: cmp, action: filterAction{kind: filterKind(kind), replace: replace}}
}

// NewFilter builds a filter modifier directly from pre-built cases, used by
// the config layer once it has parsed the `filter(cases)` node.
func NewFilter(cases []FilterCase) Modifier { return &filterModifier{cases: cases} }

func newFilter(loader Loader, raw any, buildExpr BuildExprFunc) (Modifier, error) {
	return nil, fmt.Errorf("filter(cases) must be constructed via modifier.NewFilter by the config loader")
}

func (m *filterModifier) IsValidFor(feature.ValueType) bool { return true }
func (m *filterModifier) ResultType(t feature.ValueType) feature.ValueType { return t }

func (m *filterModifier) applyOne(ctx *txctx.Context, f feature.Feature) (feature.Feature, bool, error) {
	for _, c := range m.cases {
		if c.cmp != nil && !c.cmp.Match(ctx, f) {
			continue
		}
		switch c.action.kind {
		case ActionPass:
			return f, true, nil
		case ActionDrop:
			return feature.Nil, false, nil
		case ActionReplace:
			v, err := c.action.replace.Eval(ctx)
			return v, true, err
		}
	}
	return feature.Nil, false, nil
}

func (m *filterModifier) Apply(ctx *txctx.Context, f feature.Feature) (feature.Feature, error) {
	if !f.IsList() {
		v, _, err := m.applyOne(ctx, f)
		return v, err
	}
	var kept []feature.Feature
	elem := f
	for elem.IsList() && !elem.IsEmpty() {
		head := feature.Car(elem)
		v, keep, err := m.applyOne(ctx, head)
		if err != nil {
			return feature.Nil, err
		}
		if keep {
			kept = append(kept, v)
		}
		elem = feature.Cdr(elem)
	}
	return feature.Tuple(kept), nil
}
