package config

import (
	"fmt"

	"github.com/SolidWallOfCode/txn-box-sub000/directive"
)

// buildDirective compiles a raw, already-decoded config node into a
// Directive tree: a list becomes a Seq run in order; a map is scanned for
// the first key naming a registered directive (spec.md §6: "unknown keys
// are ignored to allow sugar"); `name<arg>` keys are split per spec.md §6's
// directive-key convention.
func (l *loader) buildDirective(raw any) (directive.Directive, error) {
	switch v := raw.(type) {
	case nil:
		return directive.Noop{}, nil
	case []any:
		seq := make(directive.Seq, 0, len(v))
		for _, item := range v {
			d, err := l.buildDirective(item)
			if err != nil {
				return nil, err
			}
			seq = append(seq, d)
		}
		return seq, nil
	case map[string]any:
		for _, key := range l.orderedKeys(v) {
			name, arg, err := splitKeyArg(key)
			if err != nil {
				return nil, err
			}
			factory, ok := directive.Lookup(name)
			if !ok {
				continue
			}
			// "when"/"with" pull sibling keys ("do", "select", "for-each")
			// out of their own raw value, so they need the whole object;
			// every other directive's raw is just its own key's value.
			if name == "when" || name == "with" {
				return factory(l, arg, v, l.buildDirective)
			}
			return factory(l, arg, v[key], l.buildDirective)
		}
		return nil, fmt.Errorf("config: no registered directive key in %v", v)
	default:
		return nil, fmt.Errorf("config: unsupported directive node %T", raw)
	}
}
