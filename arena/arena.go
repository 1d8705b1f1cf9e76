// Package arena implements the bump allocator spec.md §4.1 describes: a
// single growable backing store, allocated from block-by-block, freed all at
// once when the Arena is dropped. Go's GC makes the "free all at once" half
// of the contract automatic (drop the Arena, the blocks become garbage); the
// package exists to give the Context's transient-buffer discipline a single
// well-defined bump pointer and a "remnant" view, exactly as the spec
// requires for §4.1's "try to write into the remnant, resize and retry"
// rendering contract.
package arena

const defaultBlockSize = 4096

// Arena is a bump allocator over a linked list of growable blocks. There is
// no pack library implementing this (DESIGN.md); it is stdlib slices only.
type Arena struct {
	blocks   [][]byte
	cur      []byte // current block
	used     int    // bytes used in cur
	minBlock int
}

// New creates an Arena whose first block is at least minBlock bytes (0 means
// use the package default).
func New(minBlock int) *Arena {
	if minBlock <= 0 {
		minBlock = defaultBlockSize
	}
	a := &Arena{minBlock: minBlock}
	a.newBlock(minBlock)
	return a
}

func (a *Arena) newBlock(size int) {
	if size < a.minBlock {
		size = a.minBlock
	}
	b := make([]byte, size)
	a.blocks = append(a.blocks, b)
	a.cur = b
	a.used = 0
}

func align(n, alignment int) int {
	if alignment <= 1 {
		return n
	}
	return (n + alignment - 1) &^ (alignment - 1)
}

// Alloc returns n freshly allocated, zeroed bytes aligned to `alignment`
// (1 if unspecified). It advances the bump pointer; it never returns memory
// that overlaps a prior allocation.
func (a *Arena) Alloc(n, alignment int) []byte {
	start := align(a.used, alignment)
	if start+n > len(a.cur) {
		a.newBlock(n)
		start = 0
	}
	a.used = start + n
	return a.cur[start : start+n : start+n]
}

// AllocString copies s into a freshly allocated, arena-owned byte slice —
// the primitive "localize" (spec.md glossary) builds on.
func (a *Arena) AllocString(s string) []byte {
	b := a.Alloc(len(s), 1)
	copy(b, s)
	return b
}

// Remnant returns the current block's unused tail — the space a transient
// buffer request is served from without a fresh allocation.
func (a *Arena) Remnant() []byte {
	return a.cur[a.used:len(a.cur):len(a.cur)]
}

// Require ensures the remnant is at least n bytes, growing (but not
// consuming) a new block if necessary, then returns the (possibly new)
// remnant.
func (a *Arena) Require(n int) []byte {
	if len(a.cur)-a.used < n {
		// Preserve already-bumped allocations by starting a fresh block;
		// the old block's tail becomes unreachable scratch, which is fine:
		// nothing outstanding pointed past a.used in it.
		a.newBlock(n)
	}
	return a.Remnant()
}

// Bytes returns the total bytes bump-allocated across all blocks — used only
// for diagnostics (the `debug` directive's arena-usage report).
func (a *Arena) Bytes() int {
	total := 0
	for i, b := range a.blocks {
		if i == len(a.blocks)-1 {
			total += a.used
		} else {
			total += len(b)
		}
	}
	return total
}
