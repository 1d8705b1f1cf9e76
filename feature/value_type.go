// Package feature implements the engine's typed value model: the closed
// ValueType enum, ValueMask bitsets, the ActiveType compile-time type
// descriptor, and the Feature tagged union itself.
package feature

import "fmt"

// ValueType is the closed set of runtime value kinds a Feature can hold.
type ValueType int

const (
	NIL ValueType = iota
	STRING
	INTEGER
	BOOLEAN
	FLOAT
	IP_ADDR
	DURATION
	TIMEPOINT
	TUPLE
	CONS
	GENERIC

	// Load-time-only meta values. Never appear in a runtime Feature.
	NO_VALUE
	ACTIVE
)

var typeNames = [...]string{
	NIL:       "NIL",
	STRING:    "STRING",
	INTEGER:   "INTEGER",
	BOOLEAN:   "BOOLEAN",
	FLOAT:     "FLOAT",
	IP_ADDR:   "IP_ADDR",
	DURATION:  "DURATION",
	TIMEPOINT: "TIMEPOINT",
	TUPLE:     "TUPLE",
	CONS:      "CONS",
	GENERIC:   "GENERIC",
	NO_VALUE:  "NO_VALUE",
	ACTIVE:    "ACTIVE",
}

func (vt ValueType) String() string {
	if int(vt) >= 0 && int(vt) < len(typeNames) && typeNames[vt] != "" {
		return typeNames[vt]
	}
	return fmt.Sprintf("ValueType(%d)", int(vt))
}

// ValueMask is a bitset over ValueType, used to describe "one of these types
// is acceptable" for extractor results, modifier domains, and comparisons.
type ValueMask uint32

func MaskOf(types ...ValueType) ValueMask {
	var m ValueMask
	for _, t := range types {
		m = m.With(t)
	}
	return m
}

func (m ValueMask) With(t ValueType) ValueMask {
	return m | (1 << uint(t))
}

func (m ValueMask) Has(t ValueType) bool {
	return m&(1<<uint(t)) != 0
}

func (m ValueMask) Union(o ValueMask) ValueMask {
	return m | o
}

// IsSubsetOf reports whether every type bit set in m is also set in other.
func (m ValueMask) IsSubsetOf(other ValueMask) bool {
	return m&other == m
}

func (m ValueMask) String() string {
	if m == 0 {
		return "{}"
	}
	s := "{"
	first := true
	for t := NIL; t <= GENERIC; t++ {
		if m.Has(t) {
			if !first {
				s += "|"
			}
			s += t.String()
			first = false
		}
	}
	return s + "}"
}

// AnyMask is the mask satisfied by every concrete value type — the mask
// reported for a NIL feature under the "NIL is assignable to any" rule.
var AnyMask = MaskOf(NIL, STRING, INTEGER, BOOLEAN, FLOAT, IP_ADDR, DURATION, TIMEPOINT, TUPLE, CONS, GENERIC)
