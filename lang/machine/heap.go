package machine

import (
	"golang.org/x/exp/slices"

	"github.com/rillscript/rill/lang/value"
)

// Heap is the VM's ordered, index-addressable value store. It backs both
// global storage and every function frame's activation record: an address
// is just an index into the same flat array, whichever kind of binding it
// was computed for at compile time.
type Heap struct {
	cells []value.Value
}

// Get returns the value at i, or Null if i has never been set.
func (h *Heap) Get(i value.Addr) value.Value {
	idx := int(i)
	if idx < 0 || idx >= len(h.cells) {
		return value.Null{}
	}
	return h.cells[idx]
}

// Set stores v at i, padding with Null if i lands past the current end.
// Addresses are stable: once assigned, a slot never migrates.
func (h *Heap) Set(i value.Addr, v value.Value) {
	idx := int(i)
	for idx >= len(h.cells) {
		h.cells = append(h.cells, value.Null{})
	}
	h.cells[idx] = v
}

// Free overwrites i with Null, marking the slot as reclaimed.
func (h *Heap) Free(i value.Addr) {
	idx := int(i)
	if idx >= 0 && idx < len(h.cells) {
		h.cells[idx] = value.Null{}
	}
}

func isNull(v value.Value) bool {
	_, ok := v.(value.Null)
	return ok
}

// Cleanup trims any trailing run of Null cells, bounding heap growth
// across tail-recursive call patterns.
func (h *Heap) Cleanup() {
	n := len(h.cells)
	for n > 0 && isNull(h.cells[n-1]) {
		n--
	}
	h.cells = slices.Delete(h.cells, n, len(h.cells))
}

// Len reports the current heap size, mostly for diagnostics and tests.
func (h *Heap) Len() int { return len(h.cells) }
