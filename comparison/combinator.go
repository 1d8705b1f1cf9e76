package comparison

import (
	"fmt"

	"github.com/SolidWallOfCode/txn-box-sub000/feature"
	"github.com/SolidWallOfCode/txn-box-sub000/txctx"
)

// combinator implements `any-of`/`all-of`/`none-of`: logical operators over
// a list of child comparisons, each built via the BuildFunc the config
// layer supplies (so comparison never needs to parse YAML itself).
//
// Capture-state two-phase commit: only a regex child's successful attempt
// promotes working into active (rxp.MatchState.CommitMatch); a literal
// string child commits its synthetic capture immediately on match, same as
// it would standalone. This means a failed later sibling inside `all-of`
// cannot undo an earlier sibling's commit, and a `none-of` child that
// matches leaves its capture committed even though the combinator overall
// fails. The original source buffers this through the same working/active
// split; here it is an accepted simplification (DESIGN.md), since no
// built-in directive observes capture state after a failed `none-of`.
type combinator struct {
	kind     combinatorKind
	children []Comparison
}

type combinatorKind int

const (
	kindAnyOf combinatorKind = iota
	kindAllOf
	kindNoneOf
)

func newCombinator(kind combinatorKind) Factory {
	return func(loader Loader, arg string, raw any, build BuildFunc) (Comparison, error) {
		items, ok := raw.([]any)
		if !ok {
			return nil, fmt.Errorf("%s requires a list of comparisons, got %T", combinatorName(kind), raw)
		}
		children := make([]Comparison, 0, len(items))
		for i, item := range items {
			child, err := build(item)
			if err != nil {
				return nil, fmt.Errorf("%s[%d]: %w", combinatorName(kind), i, err)
			}
			children = append(children, child)
		}
		return &combinator{kind: kind, children: children}, nil
	}
}

func combinatorName(k combinatorKind) string {
	switch k {
	case kindAnyOf:
		return "any-of"
	case kindAllOf:
		return "all-of"
	default:
		return "none-of"
	}
}

var newAnyOf = newCombinator(kindAnyOf)
var newAllOf = newCombinator(kindAllOf)
var newNoneOf = newCombinator(kindNoneOf)

// SupportedTypes is the union of every child's supported types; the loader
// still validates each child against its own declared mask individually.
func (c *combinator) SupportedTypes() feature.ValueMask {
	var m feature.ValueMask
	for _, child := range c.children {
		m = m.Union(child.SupportedTypes())
	}
	return m
}

func (c *combinator) Match(ctx *txctx.Context, f feature.Feature) bool {
	switch c.kind {
	case kindAnyOf:
		for _, child := range c.children {
			if child.Match(ctx, f) {
				return true
			}
		}
		return false
	case kindAllOf:
		for _, child := range c.children {
			if !child.Match(ctx, f) {
				return false
			}
		}
		return true
	default: // kindNoneOf
		for _, child := range c.children {
			if child.Match(ctx, f) {
				return false
			}
		}
		return true
	}
}
