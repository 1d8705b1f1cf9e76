package directive

import (
	"fmt"
	"time"

	"github.com/SolidWallOfCode/txn-box-sub000/expr"
	"github.com/SolidWallOfCode/txn-box-sub000/ipspace"
	"github.com/SolidWallOfCode/txn-box-sub000/stats"
	"github.com/SolidWallOfCode/txn-box-sub000/textblock"
	"github.com/SolidWallOfCode/txn-box-sub000/txctx"
)

// newIPSpaceDefine implements `ip-space-define: { name, path, duration,
// columns: [...] }` (spec.md §4.11/§6). All its work happens at load time;
// Invoke is a Noop.
func newIPSpaceDefine(loader Loader, arg string, raw any, build BuildFunc) (Directive, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, wrongShapeErr("ip-space-define", "map")
	}
	name, _ := m["name"].(string)
	path, _ := m["path"].(string)
	if name == "" || path == "" {
		return nil, fmt.Errorf("directive: ip-space-define: requires name and path")
	}
	dur, err := parseDuration(m["duration"])
	if err != nil {
		return nil, fmt.Errorf("directive: ip-space-define %q: %w", name, err)
	}
	cols, err := parseColumns(m["columns"])
	if err != nil {
		return nil, fmt.Errorf("directive: ip-space-define %q: %w", name, err)
	}
	d, err := ipspace.NewDefine(name, path, dur, cols)
	if err != nil {
		return nil, fmt.Errorf("directive: ip-space-define %q: %w", name, err)
	}
	ipspace.Register(d)
	return Noop{}, nil
}

func parseColumns(raw any) ([]*ipspace.Column, error) {
	list, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("columns: requires a list")
	}
	out := make([]*ipspace.Column, 0, len(list))
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("columns: each entry must be a map")
		}
		name, _ := m["name"].(string)
		typeName, _ := m["type"].(string)
		if name == "" || typeName == "" {
			return nil, fmt.Errorf("columns: each entry requires name and type")
		}
		ct, err := ipspace.ParseColumnType(typeName)
		if err != nil {
			return nil, err
		}
		var tags []string
		if rawTags, ok := m["tags"].([]any); ok {
			for _, t := range rawTags {
				if s, ok := t.(string); ok {
					tags = append(tags, s)
				}
			}
		}
		out = append(out, ipspace.NewColumn(name, ct, tags))
	}
	return out, nil
}

func parseDuration(raw any) (time.Duration, error) {
	switch v := raw.(type) {
	case nil:
		return 0, nil
	case string:
		if v == "" {
			return 0, nil
		}
		return time.ParseDuration(v)
	case time.Duration:
		return v, nil
	default:
		return 0, fmt.Errorf("duration: unsupported value type %T", raw)
	}
}

// newTextBlockDefine implements `text-block-define: { name, path|text,
// duration, on-update, on-error, notify }` (spec.md §4.12). Invoke is a
// Noop: the content is already registered and readable via
// `text-block<name>` once load completes.
func newTextBlockDefine(loader Loader, arg string, raw any, build BuildFunc) (Directive, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, wrongShapeErr("text-block-define", "map")
	}
	name, _ := m["name"].(string)
	if name == "" {
		return nil, fmt.Errorf("directive: text-block-define: requires a name")
	}

	var blk *textblock.Define
	if text, ok := m["text"].(string); ok {
		blk = textblock.NewLiteral(name, text)
	} else if path, ok := m["path"].(string); ok {
		dur, err := parseDuration(m["duration"])
		if err != nil {
			return nil, fmt.Errorf("directive: text-block-define %q: %w", name, err)
		}
		blk, err = textblock.NewFileBacked(name, path, dur)
		if err != nil {
			return nil, fmt.Errorf("directive: text-block-define %q: %w", name, err)
		}
	} else {
		return nil, fmt.Errorf("directive: text-block-define %q: requires text or path", name)
	}

	if onUpdateRaw, ok := m["on-update"]; ok {
		onUpdate, err := build(onUpdateRaw)
		if err != nil {
			return nil, fmt.Errorf("directive: text-block-define %q: on-update: %w", name, err)
		}
		blk.OnUpdate(func(string) { runOnTaskHook(onUpdate) })
	}
	if onErrorRaw, ok := m["on-error"]; ok {
		onError, err := build(onErrorRaw)
		if err != nil {
			return nil, fmt.Errorf("directive: text-block-define %q: on-error: %w", name, err)
		}
		blk.OnError(func(error) { runOnTaskHook(onError) })
	}
	textblock.Register(blk)
	return Noop{}, nil
}

// runOnTaskHook runs d against a fresh, proxy-less Context standing in for
// the TASK pseudo-hook (spec.md §4.12/§6): the reload callback fires from a
// background goroutine with no live transaction, so on-update/on-error
// directives see an otherwise-empty context — they exist to update
// variables/stats/logs, not to touch a (nonexistent) live transaction.
func runOnTaskHook(d Directive) {
	ctx := txctx.New(nil, 0, 1, 0)
	_ = d.Invoke(ctx)
}

// statDefine implements `stat-define: <name>` (spec.md §4.12). All its work
// happens at load time; Invoke is a Noop.
func newStatDefine(loader Loader, arg string, raw any, build BuildFunc) (Directive, error) {
	name, ok := raw.(string)
	if !ok || name == "" {
		if arg != "" {
			name = arg
		} else {
			return nil, fmt.Errorf("directive: stat-define: requires a stat name")
		}
	}
	stats.Register(stats.NewDefine(name))
	return Noop{}, nil
}

// statUpdate implements `stat-update: { name, value }`: adds value (default
// +1) to the named stat on every invocation.
type statUpdate struct {
	name  string
	value *expr.Expr
}

func (d *statUpdate) Invoke(ctx *txctx.Context) error {
	def, ok := stats.Lookup(d.name)
	if !ok {
		return fmt.Errorf("directive: stat-update: no such stat %q", d.name)
	}
	delta := int64(1)
	if d.value != nil {
		v, err := d.value.Eval(ctx)
		if err != nil {
			return err
		}
		delta = v.IntVal()
	}
	return def.Update(ctx.Proxy(), delta)
}

func newStatUpdate(loader Loader, arg string, raw any, build BuildFunc) (Directive, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		name, ok := raw.(string)
		if !ok || name == "" {
			name = arg
		}
		if name == "" {
			return nil, fmt.Errorf("directive: stat-update: requires a stat name")
		}
		return &statUpdate{name: name}, nil
	}
	name, _ := m["name"].(string)
	if name == "" {
		name = arg
	}
	if name == "" {
		return nil, fmt.Errorf("directive: stat-update: requires a name")
	}
	su := &statUpdate{name: name}
	if valRaw, ok := m["value"]; ok {
		e, err := loader.BuildExpr(valRaw)
		if err != nil {
			return nil, err
		}
		su.value = e
	}
	return su, nil
}

// statSnapshot implements `stat-snapshot: <path>`: atomically dump every
// registered stat's current value to path (spec.md §4.12's stats are
// otherwise only readable from within a transaction via `stat<name>`; this
// gives an operator a way to scrape them externally).
type statSnapshot struct {
	path *expr.Expr
}

func (d *statSnapshot) Invoke(ctx *txctx.Context) error {
	v, err := d.path.Eval(ctx)
	if err != nil {
		return err
	}
	return stats.WriteSnapshot(v.String())
}

func newStatSnapshot(loader Loader, arg string, raw any, build BuildFunc) (Directive, error) {
	e, err := loader.BuildExpr(raw)
	if err != nil {
		return nil, err
	}
	return &statSnapshot{path: e}, nil
}

func init() {
	Register("ip-space-define", newIPSpaceDefine)
	Register("text-block-define", newTextBlockDefine)
	Register("stat-define", newStatDefine)
	Register("stat-update", newStatUpdate)
	Register("stat-snapshot", newStatSnapshot)
}
