package directive

import (
	"fmt"

	"github.com/SolidWallOfCode/txn-box-sub000/hook"
	"github.com/SolidWallOfCode/txn-box-sub000/txctx"
)

// When implements `when: <hook_name>` / `do: <directive>` (spec.md §4.7):
// schedule the inner directive on the named hook in the current context.
type When struct {
	target hook.Hook
	do     Directive
}

func (d *When) Invoke(ctx *txctx.Context) error {
	if d.target < ctx.CurrentHook() {
		return fmt.Errorf("directive: when: hook %q is in the past for this transaction", d.target)
	}
	ctx.RegisterHook(d.target, func(c *txctx.Context) {
		_ = d.do.Invoke(c)
	})
	return nil
}

func newWhen(loader Loader, arg string, raw any, build BuildFunc) (Directive, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, wrongShapeErr("when", "map")
	}
	nameRaw, ok := m["when"]
	if !ok {
		nameRaw = arg
	}
	name, ok := nameRaw.(string)
	if !ok || name == "" {
		return nil, fmt.Errorf("directive: when: requires a hook name")
	}
	h, err := hookFromName(name)
	if err != nil {
		return nil, err
	}
	doRaw, ok := m["do"]
	if !ok {
		return nil, fmt.Errorf("directive: when: requires a do")
	}
	do, err := build(doRaw)
	if err != nil {
		return nil, err
	}
	return &When{target: h, do: do}, nil
}

func init() {
	Register("when", newWhen)
}
