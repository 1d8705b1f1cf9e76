package expr

import (
	"fmt"
	"net/netip"

	"github.com/SolidWallOfCode/txn-box-sub000/feature"
)

// LiteralText marks a string that must be compiled as a single Literal
// Expr rather than run through the composite/specifier parser — the
// `!literal` YAML tag override spec.md §6 describes, for a scalar whose
// text happens to contain `{`/`}` but is not meant to reference an
// extractor.
type LiteralText string

// BuildFromValue compiles a raw, already-YAML-decoded config value into an
// Expr: a string goes through the composite/specifier parser (Parse); other
// scalar Go types become Literal Exprs directly; a slice becomes a List of
// recursively-built element Exprs, per spec.md §3's list-of-expressions
// form.
//
// Full spec.md §6 scalar auto-detection (numeric literals and IP addresses
// recognized from unquoted YAML text, the `?`/`!literal` tag overrides) is a
// YAML-node-level concern that needs the node's tag, not just its decoded
// Go value — that detection lives in the config package, which has the
// node. BuildFromValue covers the value shapes every directive factory in
// this codebase actually receives once config has done that detection.
func BuildFromValue(loader Loader, raw any) (*Expr, error) {
	switch v := raw.(type) {
	case nil:
		return NewLiteral(feature.Nil), nil
	case LiteralText:
		return NewLiteral(feature.Literal(string(v))), nil
	case string:
		return Parse(loader, v)
	case int:
		return NewLiteral(feature.Int(int64(v))), nil
	case int64:
		return NewLiteral(feature.Int(v)), nil
	case float64:
		return NewLiteral(feature.Float(v)), nil
	case bool:
		return NewLiteral(feature.Bool(v)), nil
	case netip.Addr:
		return NewLiteral(feature.IP(v)), nil
	case []any:
		elems := make([]*Expr, 0, len(v))
		for _, item := range v {
			e, err := BuildFromValue(loader, item)
			if err != nil {
				return nil, err
			}
			elems = append(elems, e)
		}
		return NewList(elems), nil
	default:
		return nil, fmt.Errorf("expr: unsupported config value type %T", raw)
	}
}
