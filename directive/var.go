package directive

import (
	"fmt"

	"github.com/SolidWallOfCode/txn-box-sub000/expr"
	"github.com/SolidWallOfCode/txn-box-sub000/txctx"
)

// varSet implements both `var<name>: expr` (single) and `var: { name: expr,
// ... }` (multi) forms, per spec.md §4.12.
type varSet struct {
	assignments []varAssignment
}

type varAssignment struct {
	name  string
	value *expr.Expr
}

func (d *varSet) Invoke(ctx *txctx.Context) error {
	for _, a := range d.assignments {
		v, err := a.value.Eval(ctx)
		if err != nil {
			return err
		}
		ctx.SetVar(a.name, ctx.Commit(v))
	}
	return nil
}

func newVar(loader Loader, arg string, raw any, build BuildFunc) (Directive, error) {
	if arg != "" {
		e, err := loader.BuildExpr(raw)
		if err != nil {
			return nil, err
		}
		return &varSet{assignments: []varAssignment{{name: arg, value: e}}}, nil
	}
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("directive: var: requires a <name> argument or a map of assignments")
	}
	set := &varSet{}
	for name, v := range m {
		e, err := loader.BuildExpr(v)
		if err != nil {
			return nil, fmt.Errorf("directive: var %q: %w", name, err)
		}
		set.assignments = append(set.assignments, varAssignment{name: name, value: e})
	}
	return set, nil
}

func init() {
	Register("var", newVar)
}
