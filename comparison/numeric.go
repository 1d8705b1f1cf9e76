package comparison

import (
	"fmt"
	"net/netip"
	"strconv"
	"strings"

	"github.com/SolidWallOfCode/txn-box-sub000/feature"
	"github.com/SolidWallOfCode/txn-box-sub000/txctx"
)

var numericMask = feature.MaskOf(feature.INTEGER, feature.FLOAT, feature.DURATION)

func numericValue(f feature.Feature) (float64, bool) {
	switch f.Type {
	case feature.INTEGER:
		return float64(f.IntVal()), true
	case feature.FLOAT:
		return f.FloatVal(), true
	case feature.DURATION:
		return float64(f.DurVal()), true
	default:
		return 0, false
	}
}

type relOp int

const (
	opEq relOp = iota
	opNe
	opLt
	opLe
	opGt
	opGe
)

// relComparison implements `eq`/`ne`/`lt`/`le`/`gt`/`ge`: integer (or
// float/duration) compare against a configured right-hand operand.
type relComparison struct {
	op  relOp
	rhs float64
}

func newRel(op relOp) Factory {
	return func(loader Loader, arg string, raw any, build BuildFunc) (Comparison, error) {
		rhs, err := coerceNumber(raw)
		if err != nil {
			return nil, err
		}
		return &relComparison{op: op, rhs: rhs}, nil
	}
}

func coerceNumber(raw any) (float64, error) {
	switch v := raw.(type) {
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case float64:
		return v, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, fmt.Errorf("not a number: %q", v)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("expected a number, got %T", raw)
	}
}

var newEq = newRel(opEq)
var newNe = newRel(opNe)
var newLt = newRel(opLt)
var newLe = newRel(opLe)
var newGt = newRel(opGt)
var newGe = newRel(opGe)

func (c *relComparison) SupportedTypes() feature.ValueMask { return numericMask }

func (c *relComparison) Match(ctx *txctx.Context, f feature.Feature) bool {
	lhs, ok := numericValue(f)
	if !ok {
		return false
	}
	switch c.op {
	case opEq:
		return lhs == c.rhs
	case opNe:
		return lhs != c.rhs
	case opLt:
		return lhs < c.rhs
	case opLe:
		return lhs <= c.rhs
	case opGt:
		return lhs > c.rhs
	case opGe:
		return lhs >= c.rhs
	default:
		return false
	}
}

// inComparison implements `in`: integer/IP in a range or network. Range may
// be a literal "min-max" string, IP CIDR notation, or a 2-element list.
type inComparison struct {
	intMin, intMax int64
	isInt          bool
	prefix         netip.Prefix
	isPrefix       bool
}

func newIn(loader Loader, arg string, raw any, build BuildFunc) (Comparison, error) {
	switch v := raw.(type) {
	case string:
		if p, err := netip.ParsePrefix(v); err == nil {
			return &inComparison{prefix: p, isPrefix: true}, nil
		}
		parts := strings.SplitN(v, "-", 2)
		if len(parts) == 2 {
			lo, err1 := strconv.ParseInt(strings.TrimSpace(parts[0]), 10, 64)
			hi, err2 := strconv.ParseInt(strings.TrimSpace(parts[1]), 10, 64)
			if err1 == nil && err2 == nil {
				return &inComparison{intMin: lo, intMax: hi, isInt: true}, nil
			}
		}
		return nil, fmt.Errorf("invalid `in` range: %q", v)
	case []any:
		if len(v) != 2 {
			return nil, fmt.Errorf("`in` list must have exactly 2 elements, got %d", len(v))
		}
		lo, err1 := coerceNumber(v[0])
		hi, err2 := coerceNumber(v[1])
		if err1 != nil || err2 != nil {
			return nil, fmt.Errorf("`in` list elements must be numbers")
		}
		return &inComparison{intMin: int64(lo), intMax: int64(hi), isInt: true}, nil
	default:
		return nil, fmt.Errorf("unsupported `in` value: %T", raw)
	}
}

func (c *inComparison) SupportedTypes() feature.ValueMask {
	if c.isPrefix {
		return feature.MaskOf(feature.IP_ADDR)
	}
	return feature.MaskOf(feature.INTEGER)
}

func (c *inComparison) Match(ctx *txctx.Context, f feature.Feature) bool {
	if c.isPrefix {
		if f.Type != feature.IP_ADDR {
			return false
		}
		return c.prefix.Contains(f.IPVal())
	}
	if f.Type != feature.INTEGER {
		return false
	}
	v := f.IntVal()
	return v >= c.intMin && v <= c.intMax
}
