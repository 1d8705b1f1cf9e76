// Package hook defines the transaction-lifecycle Hook enum and HookMask
// bitset spec.md §3 describes, plus the external hook-name table §6 names.
package hook

type Hook int

const (
	TxnStart Hook = iota
	CReq          // client request read
	PreRemap
	Remap
	PostRemap
	PReq // proxy request send
	URsp // upstream response read
	PRsp // proxy response send
	TxnClose
	PostLoad
	Task
	count
)

var names = [...]string{
	TxnStart: "txn-start", CReq: "creq", PreRemap: "pre-remap", Remap: "remap",
	PostRemap: "post-remap", PReq: "preq", URsp: "ursp", PRsp: "prsp",
	TxnClose: "txn-close", PostLoad: "post-load", Task: "task",
}

// externalNames is the spec.md §6 operator-facing spelling for `when:`.
var externalNames = map[string]Hook{
	"read-request": CReq, "creq": CReq,
	"pre-remap":    PreRemap,
	"remap":        Remap,
	"post-remap":   PostRemap,
	"send-request": PReq, "preq": PReq,
	"read-response": URsp, "ursp": URsp,
	"send-response": PRsp, "prsp": PRsp,
	"txn-start":  TxnStart,
	"txn-close":  TxnClose,
	"post-load":  PostLoad,
	"task":       Task,
}

func (h Hook) String() string {
	if int(h) >= 0 && int(h) < len(names) {
		return names[h]
	}
	return "invalid-hook"
}

// Lookup resolves an operator-facing hook name (spec.md §6) to a Hook.
func Lookup(name string) (Hook, bool) {
	h, ok := externalNames[name]
	return h, ok
}

// Count is the number of well-defined hooks, used to size per-hook arrays.
const Count = int(count)

// Mask is a bitset over Hook.
type Mask uint32

func MaskOf(hooks ...Hook) Mask {
	var m Mask
	for _, h := range hooks {
		m |= 1 << uint(h)
	}
	return m
}

func (m Mask) Has(h Hook) bool { return m&(1<<uint(h)) != 0 }
func (m Mask) With(h Hook) Mask { return m | (1 << uint(h)) }

// Before reports whether a is strictly earlier in the canonical hook
// sequence than b (spec.md §5: "the canonical ordering is the fixed hook
// enum sequence").
func Before(a, b Hook) bool { return a < b }
