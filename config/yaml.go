package config

import (
	"net/netip"
	"reflect"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/SolidWallOfCode/txn-box-sub000/expr"
)

// boolSynonyms is spec.md §6's auto-detected boolean literal set, wider than
// YAML 1.2 core schema's bare `true`/`false` (which yaml.v3's own scalar
// resolver already produces as Go bool and never reaches this table).
var boolSynonyms = map[string]bool{
	"yes": true, "no": false,
	"on": true, "off": false,
	"enable": true, "disable": false,
	"y": true, "n": false,
}

// decodeNode converts a parsed *yaml.Node into the plain Go value shapes
// buildDirective/expr.BuildFromValue consume (nil, string, int64, float64,
// bool, netip.Addr, expr.LiteralText, map[string]any, []any), applying
// spec.md §6's scalar auto-detection and tag overrides along the way. l's
// current mark is updated as the walk descends so a Note recorded by a
// nested directive/comparison factory points at the right source line.
func (l *loader) decodeNode(n *yaml.Node) (any, error) {
	if n == nil {
		return nil, nil
	}
	l.setMark(n.Line, n.Column)

	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return l.decodeNode(n.Content[0])
	case yaml.MappingNode:
		m := make(map[string]any, len(n.Content)/2)
		order := make([]string, 0, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			key := n.Content[i].Value
			val, err := l.decodeNode(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			m[key] = val
			order = append(order, key)
		}
		l.recordKeyOrder(m, order)
		return m, nil
	case yaml.SequenceNode:
		out := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := l.decodeNode(c)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case yaml.AliasNode:
		return l.decodeNode(n.Alias)
	default:
		return l.decodeScalar(n)
	}
}

// decodeScalar applies spec.md §6's tag/auto-detection rules to one scalar
// node:
//   - `!literal` forces the whole scalar to be a literal expr.LiteralText,
//     bypassing the composite/specifier parser.
//   - `?` forces the whole scalar to be parsed as a single extractor, i.e.
//     as if it had been written `{<text>}`.
//   - otherwise, yaml.v3's own resolver already turns plain `true`/`false`,
//     integers and floats into their Go types; this adds the wider boolean
//     synonym set and unquoted IP-address detection spec.md §6 asks for,
//     both only in plain (unquoted) style — a quoted string is never
//     reinterpreted.
func (l *loader) decodeScalar(n *yaml.Node) (any, error) {
	switch n.Tag {
	case "!literal":
		return expr.LiteralText(n.Value), nil
	case "?":
		return "{" + n.Value + "}", nil
	}

	var v any
	if err := n.Decode(&v); err != nil {
		return nil, err
	}

	s, ok := v.(string)
	if !ok || n.Style != 0 {
		return v, nil
	}

	trimmed := strings.TrimSpace(s)
	if b, ok := boolSynonyms[strings.ToLower(trimmed)]; ok {
		return b, nil
	}
	if addr, err := netip.ParseAddr(trimmed); err == nil {
		return addr, nil
	}
	if iv, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		return iv, nil
	}
	if fv, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return fv, nil
	}
	return v, nil
}

// mapIdentity returns a stable identifier for a map's backing storage,
// usable as a lookup key even though map values aren't comparable in Go.
func mapIdentity(m map[string]any) uintptr {
	return reflect.ValueOf(m).Pointer()
}

// recordKeyOrder remembers the document order of a mapping node's keys,
// keyed by the decoded map's identity, so a later first-registered-key scan
// (buildDirective, BuildComparison) doesn't depend on Go's randomized map
// iteration order (spec.md §6's deterministic single-match rule).
func (l *loader) recordKeyOrder(m map[string]any, order []string) {
	if l.keyOrder == nil {
		l.keyOrder = make(map[uintptr][]string)
	}
	l.keyOrder[mapIdentity(m)] = order
}

// orderedKeys returns m's keys in the order they appeared in the source
// document, if m was produced by decodeNode. Maps built some other way (e.g.
// hand-constructed in a test) fall back to Go's randomized range order.
func (l *loader) orderedKeys(m map[string]any) []string {
	if order, ok := l.keyOrder[mapIdentity(m)]; ok {
		return order
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}
