package directive

import (
	"github.com/SolidWallOfCode/txn-box-sub000/comparison"
	"github.com/SolidWallOfCode/txn-box-sub000/expr"
	"github.com/SolidWallOfCode/txn-box-sub000/feature"
	"github.com/SolidWallOfCode/txn-box-sub000/txctx"
)

// selectCase is one `select:` entry: an optional comparison (nil means
// "always match", spec.md §4.6) plus the directive to run on a hit.
type selectCase struct {
	cmp comparison.Comparison // nil => always matches
	do  Directive
}

// With implements `with`/`select`/`for-each` (spec.md §4.6): evaluate an
// expression, optionally run a `do`/iterate with `for-each`, then scan
// `select` cases in order for the first match.
type With struct {
	value   *expr.Expr
	do      Directive // may be nil
	forEach bool
	cases   []selectCase
}

func (d *With) Invoke(ctx *txctx.Context) error {
	v, err := d.value.Eval(ctx)
	if err != nil {
		return err
	}

	if d.forEach {
		return d.invokeForEach(ctx, v)
	}

	prevActive := ctx.Active()
	ctx.SetActive(v)
	if d.do != nil {
		if err := d.do.Invoke(ctx); err != nil {
			return err
		}
	}
	if len(d.cases) > 0 {
		if err := d.scanCases(ctx, ctx.Active()); err != nil {
			return err
		}
	}
	ctx.SetActive(prevActive)
	return nil
}

func (d *With) invokeForEach(ctx *txctx.Context, v feature.Feature) error {
	prevActive := ctx.Active()
	elems := v.TupleVal()
	for _, el := range elems {
		ctx.SetActive(el)
		if d.do != nil {
			if err := d.do.Invoke(ctx); err != nil {
				return err
			}
		}
		if ctx.Terminal() {
			break
		}
	}
	// Re-extract after iteration (iteration may have mutated the feature)
	// before scanning select cases, per spec.md §4.6.
	if len(d.cases) > 0 && !ctx.Terminal() {
		rev, err := d.value.Eval(ctx)
		if err != nil {
			return err
		}
		if err := d.scanCases(ctx, rev); err != nil {
			return err
		}
	}
	ctx.SetActive(prevActive)
	return nil
}

// scanCases runs the first matching select case's `do`, restoring
// ctx.active to the pre-scan value if no case matches, per spec.md §4.6.
func (d *With) scanCases(ctx *txctx.Context, subject feature.Feature) error {
	prior := ctx.Active()
	ctx.SetActive(subject)
	for _, c := range d.cases {
		if c.cmp != nil && !c.cmp.Match(ctx, subject) {
			continue
		}
		if c.do != nil {
			return c.do.Invoke(ctx)
		}
		return nil
	}
	ctx.SetActive(prior)
	return nil
}

func newWith(loader Loader, arg string, raw any, build BuildFunc) (Directive, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, wrongShapeErr("with", "map")
	}
	withExprRaw, ok := m["with"]
	if !ok {
		withExprRaw = raw
	}
	e, err := loader.BuildExpr(withExprRaw)
	if err != nil {
		return nil, err
	}
	w := &With{value: e}

	if _, ok := m["for-each"]; ok {
		w.forEach = true
	}
	if doRaw, ok := m["do"]; ok {
		d, err := build(doRaw)
		if err != nil {
			return nil, err
		}
		w.do = d
	}
	if selRaw, ok := m["select"]; ok {
		cases, err := buildSelectCases(loader, selRaw, build)
		if err != nil {
			return nil, err
		}
		w.cases = cases
	}
	return w, nil
}

func buildSelectCases(loader Loader, raw any, build BuildFunc) ([]selectCase, error) {
	list, ok := raw.([]any)
	if !ok {
		return nil, wrongShapeErr("select", "list")
	}
	var out []selectCase
	for _, item := range list {
		caseMap, ok := item.(map[string]any)
		if !ok {
			return nil, wrongShapeErr("select case", "map")
		}
		var sc selectCase
		if doRaw, ok := caseMap["do"]; ok {
			d, err := build(doRaw)
			if err != nil {
				return nil, err
			}
			sc.do = d
		}
		// A case with no recognized comparison key is "always match"
		// (spec.md §4.6); BuildComparison's failure to find one is treated
		// as that rather than a load error. "do" is never a registered
		// comparison name, so passing the whole case map (instead of a copy
		// with "do" stripped) is equivalent and keeps BuildComparison's scan
		// on the map decodeNode recorded document order for.
		if cmp, err := loader.BuildComparison(caseMap); err == nil {
			sc.cmp = cmp
		}
		out = append(out, sc)
	}
	return out, nil
}

func wrongShapeErr(what, want string) error {
	return &shapeError{what: what, want: want}
}

type shapeError struct{ what, want string }

func (e *shapeError) Error() string {
	return "directive: " + e.what + " requires a " + e.want + " value"
}

func init() {
	Register("with", newWith)
}
