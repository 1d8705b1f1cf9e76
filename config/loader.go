package config

import (
	"fmt"

	"github.com/SolidWallOfCode/txn-box-sub000/arena"
	"github.com/SolidWallOfCode/txn-box-sub000/comparison"
	"github.com/SolidWallOfCode/txn-box-sub000/errata"
	"github.com/SolidWallOfCode/txn-box-sub000/expr"
)

// loader is the single load-time state object threaded through a config
// load pass: it owns the config arena, accumulates the capture-group floor,
// context-storage size and diagnostics, tracks the YAML node currently being
// processed (for Note's source mark), and builds Exprs/Comparisons for the
// directive/comparison/modifier/extractor factories to call back into —
// exactly the "define the narrow interface next to the consumer, implement
// the union at the top" shape loadctx's doc comment describes.
type loader struct {
	arena *arena.Arena

	captureGroups int
	ctxStorage    int

	errata *errata.Errata

	mark errata.Mark

	// keyOrder records each decodeNode-produced mapping's keys in document
	// order, keyed by the decoded map's identity; see orderedKeys.
	keyOrder map[uintptr][]string
}

func newLoader() *loader {
	return &loader{arena: arena.New(0), errata: errata.New()}
}

// Localize copies s into the config arena, per loadctx.Loader.
func (l *loader) Localize(s string) []byte {
	return l.arena.AllocString(s)
}

// AllocConfigData reserves n bytes in the config arena for a Spec's private
// data slot.
func (l *loader) AllocConfigData(n, alignment int) []byte {
	return l.arena.Alloc(n, alignment)
}

// RequireCaptureGroups raises the running capture-group floor, returning the
// new floor.
func (l *loader) RequireCaptureGroups(n int) int {
	if n > l.captureGroups {
		l.captureGroups = n
	}
	return l.captureGroups
}

// ReserveContextStorage grows the running context-storage size by n bytes
// and returns this caller's byte offset into that block.
func (l *loader) ReserveContextStorage(n int) int {
	offset := l.ctxStorage
	l.ctxStorage += n
	return offset
}

// Note records a diagnostic at the loader's current source mark.
func (l *loader) Note(cause error, format string, args ...any) {
	l.errata.Notef(l.mark, cause, format, args...)
}

// Errata returns the accumulator Note writes into.
func (l *loader) Errata() *errata.Errata { return l.errata }

// CurrentMark returns the source location presently being processed.
func (l *loader) CurrentMark() errata.Mark { return l.mark }

// setMark updates the loader's current source location as the YAML node
// walk descends, so a Note recorded by a nested factory points at the right
// line/column.
func (l *loader) setMark(line, column int) {
	l.mark = errata.Mark{File: l.mark.File, Line: line, Column: column}
}

// BuildExpr compiles a raw, already-YAML-decoded value into an Expr.
func (l *loader) BuildExpr(raw any) (*expr.Expr, error) {
	return expr.BuildFromValue(l, raw)
}

// BuildComparison builds a Comparison from a raw decoded map node: spec.md
// §4.5's "finds the first key that is a registered comparison name" rule,
// applied over comparison.Names() with the `name<arg>` key convention. A
// bare string or other scalar is treated as the implicit `match` comparison
// (spec.md §4.5's shorthand: "a bare string is equivalent to `match:
// <string>`").
func (l *loader) BuildComparison(raw any) (comparison.Comparison, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return l.buildComparisonFromFactory("match", "", raw)
	}
	for _, key := range l.orderedKeys(m) {
		name, arg, err := splitKeyArg(key)
		if err != nil {
			return nil, err
		}
		if _, ok := comparison.Lookup(name); ok {
			return l.buildComparisonFromFactory(name, arg, m[key])
		}
	}
	return nil, fmt.Errorf("config: comparison object has no registered comparison key")
}

func (l *loader) buildComparisonFromFactory(name, arg string, raw any) (comparison.Comparison, error) {
	factory, ok := comparison.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("config: unknown comparison %q", name)
	}
	return factory(l, arg, raw, l.BuildComparison)
}
