package feature

// ActiveType is the compile-time type description carried by an Expr: a base
// mask, the element mask for list (tuple/cons) results, and whether the
// expression is a config-time constant.
type ActiveType struct {
	Base         ValueMask
	TupleElement ValueMask // only meaningful when Base.Has(TUPLE) or Base.Has(CONS)
	CfgConst     bool
}

// Of builds an ActiveType for a scalar result type.
func Of(t ValueType) ActiveType {
	return ActiveType{Base: MaskOf(t)}
}

// OfMask builds an ActiveType whose base is exactly the given mask.
func OfMask(m ValueMask) ActiveType {
	return ActiveType{Base: m}
}

// TupleOf describes a homogeneous tuple of element type t, the refinement
// spec.md §4.2 calls "TupleOf(T)".
func TupleOf(elem ValueMask) ActiveType {
	return ActiveType{Base: MaskOf(TUPLE), TupleElement: elem}
}

// AnyAT is the "any" ActiveType assigned to, e.g., an empty tuple's element type.
var AnyAT = ActiveType{Base: AnyMask, TupleElement: AnyMask}

// CanSatisfy reports whether a value of this ActiveType is acceptable where
// `required` is demanded. NIL always satisfies. Only the base type is
// checked; per-element requirements on a TUPLE/CONS are checked by
// CanSatisfyList.
func (a ActiveType) CanSatisfy(required ValueMask) bool {
	if a.Base == 0 || a.Base == MaskOf(NIL) {
		// Untyped (load-time placeholder) or NIL: assignable to anything.
		return true
	}
	return a.Base.IsSubsetOf(required)
}

// CanSatisfyList reports whether this ActiveType can satisfy a requirement
// that the value be a list whose elements satisfy elemRequired.
func (a ActiveType) CanSatisfyList(elemRequired ValueMask) bool {
	if !(a.Base.Has(TUPLE) || a.Base.Has(CONS)) {
		return a.Base == MaskOf(NIL)
	}
	if a.TupleElement == 0 {
		return true // opaque/heterogeneous tuple: accept, checked at runtime
	}
	return a.TupleElement.IsSubsetOf(elemRequired)
}
