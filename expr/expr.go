// Package expr implements the parsed expression form spec.md §3 describes:
// Literal/Direct/Composite/List, each carrying an ordered modifier
// pipeline, a max_capture_index floor, and a references_context flag.
//
// The composite template parser (interleaved literal text and `{name<arg>:
// format}` specifiers) is grounded on the teacher's own `${N}`-placeholder
// formatter in ingest/processors/regexextract.go: scan for the opening
// delimiter, emit the preceding literal run as a constant node, then parse
// the specifier up to the closing delimiter.
package expr

import (
	"fmt"
	"net/netip"
	"strconv"
	"strings"

	"github.com/SolidWallOfCode/txn-box-sub000/extractor"
	"github.com/SolidWallOfCode/txn-box-sub000/feature"
	"github.com/SolidWallOfCode/txn-box-sub000/modifier"
	"github.com/SolidWallOfCode/txn-box-sub000/txctx"
)

// Kind discriminates an Expr's concrete form.
type Kind int

const (
	KindLiteral Kind = iota
	KindDirect
	KindComposite
	KindList
)

// Spec is an extractor reference plus its `<arg>` text and capture index,
// per spec.md §3 ("extractor reference + format flags + optional numeric
// capture index + optional argument").
type Spec struct {
	Ext          extractor.Extractor
	Name         string
	Arg          string
	CaptureIndex int // -1 if this specifier is not a bare numeric capture
	Mods         []modifier.Modifier
}

// apply runs s's extractor then its modifier pipeline, spec.md §6's
// `{extractor | mod<arg>: value | ...}` pipe form scoped to one specifier.
func (s *Spec) apply(ctx *txctx.Context) (feature.Feature, error) {
	v, err := s.Ext.Extract(ctx, s.Arg)
	if err != nil {
		return feature.Nil, err
	}
	for _, m := range s.Mods {
		v, err = m.Apply(ctx, v)
		if err != nil {
			return feature.Nil, err
		}
	}
	return v, nil
}

// fragment is one piece of a Composite expression: either a literal text run
// or a Spec to extract and render.
type fragment struct {
	literal string
	spec    *Spec
}

// Expr is the parsed, validated form of a feature specifier.
type Expr struct {
	Kind       Kind
	Literal    feature.Feature
	Direct     Spec
	composite  []fragment
	List       []*Expr
	ResultType feature.ActiveType

	Modifiers         []modifier.Modifier
	MaxCaptureIndex   int
	ReferencesContext bool
}

// NewLiteral builds a constant Expr.
func NewLiteral(f feature.Feature) *Expr {
	return &Expr{Kind: KindLiteral, Literal: f, ResultType: feature.ActiveTypeOf(f), MaxCaptureIndex: -1}
}

// NewDirect builds a single-extractor Expr.
func NewDirect(spec Spec, rt feature.ActiveType) *Expr {
	e := &Expr{Kind: KindDirect, Direct: spec, ResultType: rt, MaxCaptureIndex: spec.CaptureIndex}
	e.ReferencesContext = spec.Ext != nil && spec.Ext.HasCtxRef()
	return e
}

// NewList builds a List expression; spec.md §3's element_types is computed
// as the union of each child's ResultType.Base.
func NewList(exprs []*Expr) *Expr {
	var union feature.ValueMask
	maxCap := -1
	refs := false
	for _, c := range exprs {
		union = union.Union(c.ResultType.Base)
		if c.MaxCaptureIndex > maxCap {
			maxCap = c.MaxCaptureIndex
		}
		refs = refs || c.ReferencesContext
	}
	return &Expr{
		Kind:              KindList,
		List:              exprs,
		ResultType:         feature.ActiveType{Base: feature.MaskOf(feature.TUPLE), TupleElement: union},
		MaxCaptureIndex:    maxCap,
		ReferencesContext: refs,
	}
}

// AddModifier appends a modifier to the pipeline and updates ResultType
// to the modifier's declared output type given the current input type.
func (e *Expr) AddModifier(m modifier.Modifier) {
	e.Modifiers = append(e.Modifiers, m)
	if e.ResultType.Base != 0 {
		e.ResultType = feature.Of(m.ResultType(firstType(e.ResultType.Base)))
	}
}

// Eval evaluates the expression against ctx, applying the modifier pipeline
// left-to-right over the base result.
func (e *Expr) Eval(ctx *txctx.Context) (feature.Feature, error) {
	base, err := e.evalBase(ctx)
	if err != nil {
		return feature.Nil, err
	}
	for _, m := range e.Modifiers {
		base, err = m.Apply(ctx, base)
		if err != nil {
			return feature.Nil, err
		}
	}
	return base, nil
}

func (e *Expr) evalBase(ctx *txctx.Context) (feature.Feature, error) {
	switch e.Kind {
	case KindLiteral:
		return e.Literal, nil
	case KindDirect:
		return e.Direct.apply(ctx)
	case KindComposite:
		return e.evalComposite(ctx)
	case KindList:
		elems := make(feature.TupleRef, len(e.List))
		for i, c := range e.List {
			v, err := c.Eval(ctx)
			if err != nil {
				return feature.Nil, err
			}
			elems[i] = v
		}
		return feature.Tuple(elems), nil
	default:
		return feature.Nil, fmt.Errorf("expr: unknown kind %d", e.Kind)
	}
}

// evalComposite renders every fragment with feature.Render into a growable
// strings.Builder, then copies the result into a transient buffer of exactly
// that length, so the output is never truncated.
func (e *Expr) evalComposite(ctx *txctx.Context) (feature.Feature, error) {
	var b strings.Builder
	for _, frag := range e.composite {
		if frag.spec == nil {
			b.WriteString(frag.literal)
			continue
		}
		v, err := frag.spec.apply(ctx)
		if err != nil {
			return feature.Nil, err
		}
		feature.Render(&b, v)
	}
	out := ctx.TransientBuffer(b.Len())
	copy(out, b.String())
	return feature.Transient(out), nil
}

// Loader is the narrow load-time capability the composite parser needs.
type Loader interface {
	Localize(s string) []byte
	RequireCaptureGroups(n int) int
	Note(cause error, format string, args ...any)
}

// Parse compiles a raw format string into an Expr: a bare `{name<arg>}` with
// no surrounding literal text becomes Direct; anything else (including no
// specifiers at all) becomes Composite/Literal, per spec.md §4.3.
func Parse(loader Loader, format string) (*Expr, error) {
	frags, err := parseFragments(loader, format)
	if err != nil {
		return nil, err
	}
	if len(frags) == 0 {
		return NewLiteral(feature.Literal("")), nil
	}
	allLiteral := true
	var lit strings.Builder
	for i := range frags {
		if frags[i].spec != nil {
			allLiteral = false
			break
		}
		lit.WriteString(frags[i].literal)
	}
	if allLiteral {
		return NewLiteral(feature.Literal(lit.String())), nil
	}
	if len(frags) == 1 && frags[0].spec != nil {
		spec := frags[0].spec
		rt, err := validateSpec(loader, spec)
		if err != nil {
			return nil, err
		}
		return NewDirect(*spec, rt), nil
	}
	maxCap := -1
	refs := false
	for i := range frags {
		if frags[i].spec == nil {
			continue
		}
		rt, err := validateSpec(loader, frags[i].spec)
		if err != nil {
			return nil, err
		}
		_ = rt
		if frags[i].spec.CaptureIndex > maxCap {
			maxCap = frags[i].spec.CaptureIndex
		}
		refs = refs || frags[i].spec.Ext.HasCtxRef()
	}
	return &Expr{
		Kind:              KindComposite,
		composite:         frags,
		ResultType:        feature.Of(feature.STRING),
		MaxCaptureIndex:   maxCap,
		ReferencesContext: refs,
	}, nil
}

// validateSpec validates spec's extractor and, if a modifier pipeline is
// attached, folds each modifier's declared ResultType through in order
// (spec.md §4.4: "the declared result_type(...result_type(type(f))) equals
// the actual runtime type"), the same computation AddModifier applies when
// a modifier is attached directly rather than through pipe-specifier text.
func validateSpec(loader Loader, spec *Spec) (feature.ActiveType, error) {
	if spec.CaptureIndex >= 0 {
		loader.RequireCaptureGroups(spec.CaptureIndex)
	}
	rt, err := spec.Ext.Validate(specLoader{loader}, spec.Arg)
	if err != nil {
		return rt, err
	}
	for _, m := range spec.Mods {
		rt = feature.Of(m.ResultType(firstType(rt.Base)))
	}
	return rt, nil
}

// firstType returns the lowest-valued ValueType set in mask, used to pick a
// representative input type for a modifier's ResultType computation when
// the preceding stage's ActiveType covers more than one concrete type.
func firstType(mask feature.ValueMask) feature.ValueType {
	for t := feature.NIL; t <= feature.GENERIC; t++ {
		if mask.Has(t) {
			return t
		}
	}
	return feature.NIL
}

// specLoader adapts expr.Loader to extractor.Loader (a strict subset).
type specLoader struct{ Loader }

func (s specLoader) Localize(str string) []byte { return s.Loader.Localize(str) }
func (s specLoader) Note(cause error, format string, args ...any) { s.Loader.Note(cause, format, args...) }

// parseFragments scans format for `{name<arg>}` / `{name<arg>:fmt}`
// specifiers interleaved with literal runs, resolving each name against the
// extractor registry immediately (spec.md §4.3: "for each specifier it
// resolves the extractor... and stores the spec").
func parseFragments(loader Loader, format string) ([]fragment, error) {
	var out []fragment
	i := 0
	for i < len(format) {
		open := strings.IndexByte(format[i:], '{')
		if open < 0 {
			out = append(out, fragment{literal: format[i:]})
			break
		}
		if open > 0 {
			out = append(out, fragment{literal: format[i : i+open]})
		}
		i += open + 1
		close := strings.IndexByte(format[i:], '}')
		if close < 0 {
			return nil, fmt.Errorf("expr: unterminated specifier starting at %q", format[i-1:])
		}
		body := format[i : i+close]
		i += close + 1

		spec, err := parseSpecifier(loader, body)
		if err != nil {
			return nil, err
		}
		out = append(out, fragment{spec: spec})
	}
	return out, nil
}

// parseSpecifier parses the body of a `{...}` specifier: `name<arg>:fmt`,
// `name<arg>`, `name`, or a bare decimal capture index (e.g. `{1}`, which
// resolves to the `capture` extractor), optionally followed by one or more
// `| mod<arg>[: value]` segments (spec.md §6's pipe-delimited modifier
// pipeline, e.g. `{inbound-addr-remote | as-ip | ip-space<geo>}`).
func parseSpecifier(loader Loader, body string) (*Spec, error) {
	segments := strings.Split(body, "|")
	name := strings.TrimSpace(segments[0])
	format := ""
	if idx := strings.IndexByte(name, ':'); idx >= 0 {
		name, format = name[:idx], name[idx+1:]
	}
	_ = format

	arg := ""
	if open := strings.IndexByte(name, '<'); open >= 0 {
		closeIdx := strings.IndexByte(name[open:], '>')
		if closeIdx < 0 {
			return nil, fmt.Errorf("expr: unterminated argument in specifier %q", body)
		}
		arg = name[open+1 : open+closeIdx]
		name = name[:open]
	}

	captureIndex := -1
	extName := name
	if n, err := strconv.Atoi(name); err == nil && n >= 0 {
		captureIndex = n
		extName = "capture"
		arg = name
	}

	ext, ok := extractor.Lookup(extName)
	if !ok {
		return nil, fmt.Errorf("expr: unknown extractor %q", extName)
	}
	spec := &Spec{Ext: ext, Name: extName, Arg: arg, CaptureIndex: captureIndex}

	for _, seg := range segments[1:] {
		m, err := parseModifierSegment(loader, seg)
		if err != nil {
			return nil, fmt.Errorf("expr: specifier %q: %w", body, err)
		}
		spec.Mods = append(spec.Mods, m)
	}
	return spec, nil
}

// parseModifierSegment parses one `mod<arg>`/`mod<arg>: value`/`mod: value`
// pipe segment into a built Modifier, per spec.md §6's `name<arg>: value`
// convention reused inline. The `<arg>` text doubles as the factory's raw
// value when no `: value` suffix is given (e.g. `ip-space<geo>` feeds
// modifier.Lookup("ip-space")'s factory the table name "geo" directly,
// matching how the ip-space modifier already expects its raw argument).
func parseModifierSegment(loader Loader, seg string) (modifier.Modifier, error) {
	seg = strings.TrimSpace(seg)
	name := seg
	valueText := ""
	hasValue := false
	if idx := strings.IndexByte(seg, ':'); idx >= 0 {
		name, valueText = seg[:idx], strings.TrimSpace(seg[idx+1:])
		hasValue = true
	}
	arg := ""
	if open := strings.IndexByte(name, '<'); open >= 0 {
		closeIdx := strings.IndexByte(name[open:], '>')
		if closeIdx < 0 {
			return nil, fmt.Errorf("unterminated argument in modifier %q", seg)
		}
		arg = name[open+1 : open+closeIdx]
		name = name[:open]
	}
	name = strings.TrimSpace(name)

	factory, ok := modifier.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("unknown modifier %q", name)
	}

	var raw any
	switch {
	case hasValue:
		raw = modifierArgValue(valueText)
	case arg != "":
		raw = arg
	}

	buildExpr := func(v any) (modifier.CompiledExpr, error) {
		text, _ := v.(string)
		return Parse(loader, text)
	}
	return factory(loader, raw, buildExpr)
}

// modifierArgValue applies the same numeric auto-detection spec.md §6
// describes for unquoted YAML scalars to a pipe segment's inline text value
// (which, being embedded inside an already-parsed string, carries no YAML
// node type of its own) — `hash(16)` and `as-integer(-1)`'s fallback both
// need an integer, not the literal text "16".
func modifierArgValue(text string) any {
	if n, err := strconv.ParseInt(text, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(text, 64); err == nil {
		return f
	}
	return text
}
