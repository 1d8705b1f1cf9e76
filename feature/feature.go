package feature

import (
	"fmt"
	"net/netip"
	"strconv"
	"strings"
	"time"
)

// FeatureView is a string-valued payload with a lifetime tag. Direct views
// point into memory owned by the underlying HTTP transaction (a header
// buffer, a URL) and are only valid within the hook that produced them.
// Literal views point into a configuration arena and are permanent. A view
// that is neither is transient: its bytes live in the owning Context's
// current transient buffer and are invalidated by the next transient
// request unless committed (see txctx.Context.Commit).
type FeatureView struct {
	Bytes   []byte
	Direct  bool
	Literal bool
}

func (v FeatureView) String() string { return string(v.Bytes) }

// Transient reports whether this view's backing bytes are neither direct
// (proxy-owned) nor literal (arena-owned) — i.e. they live in the
// context's transient buffer and must be committed to survive a hook
// boundary or another transient request.
func (v FeatureView) Transient() bool { return !v.Direct && !v.Literal }

// TupleRef is a fixed-length span of Feature values.
type TupleRef []Feature

// ConsRef is a cons cell: Car holds the head, Cdr the (possibly NIL) tail.
type ConsRef struct {
	Car Feature
	Cdr Feature
}

// Feature is the tagged union of runtime value types. Exactly the fields
// relevant to Type are meaningful; this mirrors the source's tagged union
// without Go having a native sum type. Prefer the constructors below to
// building a Feature literal directly.
type Feature struct {
	Type ValueType

	view FeatureView
	i    int64
	b    bool
	f    float64
	ip   netip.Addr
	dur  time.Duration
	tp   time.Time
	tup  TupleRef
	cons *ConsRef
	gen  any // GENERIC payload (e.g. a *uuid.UUID, a table row pointer)
}

var Nil = Feature{Type: NIL}

func String(v FeatureView) Feature     { return Feature{Type: STRING, view: v} }
func Literal(s string) Feature         { return Feature{Type: STRING, view: FeatureView{Bytes: []byte(s), Literal: true}} }
func Direct(b []byte) Feature          { return Feature{Type: STRING, view: FeatureView{Bytes: b, Direct: true}} }
func Transient(b []byte) Feature       { return Feature{Type: STRING, view: FeatureView{Bytes: b}} }
func Int(i int64) Feature              { return Feature{Type: INTEGER, i: i} }
func Bool(b bool) Feature              { return Feature{Type: BOOLEAN, b: b} }
func Float(f float64) Feature          { return Feature{Type: FLOAT, f: f} }
func IP(ip netip.Addr) Feature         { return Feature{Type: IP_ADDR, ip: ip} }
func Dur(d time.Duration) Feature      { return Feature{Type: DURATION, dur: d} }
func Time(t time.Time) Feature         { return Feature{Type: TIMEPOINT, tp: t} }
func Tuple(elems TupleRef) Feature     { return Feature{Type: TUPLE, tup: elems} }
func Cons(car, cdr Feature) Feature    { return Feature{Type: CONS, cons: &ConsRef{Car: car, Cdr: cdr}} }
func Generic(v any) Feature            { return Feature{Type: GENERIC, gen: v} }

func (f Feature) View() FeatureView  { return f.view }
func (f Feature) IntVal() int64      { return f.i }
func (f Feature) BoolVal() bool      { return f.b }
func (f Feature) FloatVal() float64  { return f.f }
func (f Feature) IPVal() netip.Addr  { return f.ip }
func (f Feature) DurVal() time.Duration { return f.dur }
func (f Feature) TimeVal() time.Time { return f.tp }
func (f Feature) TupleVal() TupleRef { return f.tup }
func (f Feature) ConsVal() *ConsRef  { return f.cons }
func (f Feature) GenericVal() any    { return f.gen }

// IsEmpty holds for NIL and for a zero-length STRING (spec.md §3, §8).
func (f Feature) IsEmpty() bool {
	if f.Type == NIL {
		return true
	}
	if f.Type == STRING {
		return len(f.view.Bytes) == 0
	}
	return false
}

// IsList reports TUPLE or CONS.
func (f Feature) IsList() bool { return f.Type == TUPLE || f.Type == CONS }

// Car is the head of a cons/tuple/generic; identity on scalars.
func Car(f Feature) Feature {
	switch f.Type {
	case CONS:
		return f.cons.Car
	case TUPLE:
		if len(f.tup) == 0 {
			return Nil
		}
		return f.tup[0]
	default:
		return f
	}
}

// Cdr is the tail: a shortened tuple span for TUPLE, the cons Cdr for CONS,
// NIL for anything else (including an exhausted tuple).
func Cdr(f Feature) Feature {
	switch f.Type {
	case TUPLE:
		if len(f.tup) <= 1 {
			return Nil
		}
		return Tuple(f.tup[1:])
	case CONS:
		return f.cons.Cdr
	default:
		return Nil
	}
}

// Join serializes a tuple (recursively; nested tuples are parenthesized)
// into a single transient string joined by glue.
func Join(f Feature, glue string) Feature {
	var b strings.Builder
	joinInto(&b, f, glue)
	return Transient([]byte(b.String()))
}

func joinInto(b *strings.Builder, f Feature, glue string) {
	switch f.Type {
	case TUPLE:
		b.WriteByte('(')
		for i, e := range f.tup {
			if i > 0 {
				b.WriteString(glue)
			}
			joinInto(b, e, glue)
		}
		b.WriteByte(')')
	case CONS:
		b.WriteByte('(')
		joinInto(b, f.cons.Car, glue)
		rest := f.cons.Cdr
		for rest.Type == CONS {
			b.WriteString(glue)
			joinInto(b, rest.cons.Car, glue)
			rest = rest.cons.Cdr
		}
		if !rest.IsEmpty() {
			b.WriteString(glue)
			joinInto(b, rest, glue)
		}
		b.WriteByte(')')
	default:
		Render(&sbWriter{b}, f)
	}
}

type sbWriter struct{ b *strings.Builder }

func (w *sbWriter) WriteString(s string) { w.b.WriteString(s) }

// Render writes the textual form of a scalar feature, used both by
// Composite-expression evaluation and by the parse<->render round trip
// (spec.md §8).
func Render(b interface{ WriteString(string) }, f Feature) {
	switch f.Type {
	case NIL:
		// renders empty
	case STRING:
		b.WriteString(string(f.view.Bytes))
	case INTEGER:
		b.WriteString(strconv.FormatInt(f.i, 10))
	case BOOLEAN:
		if f.b {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case FLOAT:
		b.WriteString(strconv.FormatFloat(f.f, 'g', -1, 64))
	case IP_ADDR:
		b.WriteString(f.ip.String())
	case DURATION:
		b.WriteString(f.dur.String())
	case TIMEPOINT:
		b.WriteString(f.tp.Format(time.RFC3339))
	case TUPLE, CONS:
		s := Join(f, ",")
		b.WriteString(string(s.view.Bytes))
	case GENERIC:
		fmt.Fprintf(&genericSink{b}, "%v", f.gen)
	}
}

type genericSink struct{ w interface{ WriteString(string) } }

func (g *genericSink) Write(p []byte) (int, error) {
	g.w.WriteString(string(p))
	return len(p), nil
}

// String renders f into a plain string; convenience over Render.
func (f Feature) String() string {
	var b strings.Builder
	Render(&b, f)
	return b.String()
}

// AsBool is the generic truthiness rule used by the `true`/`false`
// comparisons. Strings consult the boolean synonym lexicon (spec.md §4.5).
func (f Feature) AsBool() bool {
	switch f.Type {
	case NIL:
		return false
	case BOOLEAN:
		return f.b
	case INTEGER:
		return f.i != 0
	case FLOAT:
		return f.f != 0
	case STRING:
		return StringIsTrue(string(f.view.Bytes))
	default:
		return !f.IsEmpty()
	}
}

var trueSynonyms = map[string]bool{
	"true": true, "yes": true, "on": true, "enable": true, "1": true, "y": true,
}
var falseSynonyms = map[string]bool{
	"false": true, "no": true, "off": true, "disable": true, "0": true, "n": true,
}

// StringIsTrue consults the boolean-synonym lexicon spec.md §6 describes for
// unquoted YAML scalars, reused at runtime for string truthiness.
func StringIsTrue(s string) bool {
	return trueSynonyms[strings.ToLower(strings.TrimSpace(s))]
}

// StringIsFalse is the complementary lexicon lookup, used by the `false`
// comparison so an unrecognized token is neither true nor false.
func StringIsFalse(s string) bool {
	return falseSynonyms[strings.ToLower(strings.TrimSpace(s))]
}

// ActiveTypeOf computes the ActiveType of a runtime feature value, refining
// tuples per spec.md §4.2: an empty tuple has element type "any"; a
// homogeneous tuple refines to TupleOf(T); a heterogeneous tuple stays opaque.
func ActiveTypeOf(f Feature) ActiveType {
	switch f.Type {
	case TUPLE:
		if len(f.tup) == 0 {
			return ActiveType{Base: MaskOf(TUPLE), TupleElement: AnyMask}
		}
		elem := MaskOf(f.tup[0].Type)
		homogeneous := true
		for _, e := range f.tup[1:] {
			if e.Type != f.tup[0].Type {
				homogeneous = false
				break
			}
		}
		if homogeneous {
			return ActiveType{Base: MaskOf(TUPLE), TupleElement: elem}
		}
		return ActiveType{Base: MaskOf(TUPLE)}
	case CONS:
		return ActiveType{Base: MaskOf(CONS)}
	default:
		return Of(f.Type)
	}
}

// Commit promotes a transient view into permanent storage by copying its
// bytes via the supplied arena allocator and marking the result literal.
// Used by txctx.Context.Commit; kept here so the Feature invariant ("after
// commit, subsequent transient operations do not mutate fv's bytes", spec.md
// §8) is visibly enforced at the value-model layer.
func Commit(f Feature, alloc func(n int) []byte) Feature {
	if f.Type != STRING || !f.view.Transient() {
		return f
	}
	dst := alloc(len(f.view.Bytes))
	copy(dst, f.view.Bytes)
	return Feature{Type: STRING, view: FeatureView{Bytes: dst, Literal: true}}
}
