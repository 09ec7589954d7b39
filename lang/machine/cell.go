package machine

import "github.com/rillscript/rill/lang/value"

// Cell is one operand-stack slot. It holds either a literal value or a
// heap address; an address cell is dereferenced lazily, only when the
// value underneath it is actually needed.
type Cell struct {
	addr    value.Addr
	isAddr  bool
	literal value.Value
}

// Literal wraps v as a stack cell carrying the value directly.
func Literal(v value.Value) Cell {
	return Cell{literal: v}
}

// AddrCell wraps a as a stack cell that refers indirectly into the heap.
func AddrCell(a value.Addr) Cell {
	return Cell{addr: a, isAddr: true}
}

// IsAddr reports whether the cell is an indirection rather than a literal.
func (c Cell) IsAddr() bool { return c.isAddr }

// Addr returns the cell's heap address. Only meaningful when IsAddr is true.
func (c Cell) Addr() value.Addr { return c.addr }

// Value returns the cell's literal value. Only meaningful when IsAddr is false.
func (c Cell) Value() value.Value { return c.literal }
