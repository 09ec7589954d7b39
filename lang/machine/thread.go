// Package machine is the stack-based virtual machine: it executes a
// compiler.Program against a heap-backed call stack and an operand stack
// of lazily-dereferenced cells.
package machine

import (
	"context"
	"fmt"
	"math"

	"github.com/rillscript/rill/lang/compiler"
	"github.com/rillscript/rill/lang/stdlib"
	"github.com/rillscript/rill/lang/value"
)

// RuntimeError is a failure raised while executing an instruction: a type
// mismatch, an out-of-bounds index, a call to a non-function, or stack
// underflow. Execution stops at the first one; there is no recovery.
type RuntimeError struct {
	PC  int
	Op  compiler.Opcode
	Msg string
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("%d: %s: %s", e.PC, e.Op, e.Msg)
}

// Thread runs a single program to completion. It is not safe for
// concurrent use; each run of RunProgram resets all execution state.
type Thread struct {
	// Stdlib is the native-function bridge consulted by NativeCall. If
	// nil, RunProgram installs stdlib.Default().
	Stdlib *stdlib.IO

	// MaxSteps bounds the number of dispatched instructions before the
	// thread aborts with a runtime error. Zero means unlimited.
	MaxSteps int

	// MaxCallStackDepth bounds call-frame nesting; Call fails with a
	// runtime error instead of recursing past it. Zero means unlimited.
	MaxCallStackDepth int

	prog       *compiler.Program
	pc         int
	stack      []Cell
	heap       Heap
	frames     []frame
	localAddrs []value.Addr
	steps      int
}

// fp is the active frame index: the call stack always carries a sentinel
// entry for the top level, so this never goes negative.
func (t *Thread) fp() int { return len(t.frames) - 1 }

// RunProgram executes prog from its entry point and returns the value left
// on top of the operand stack when the program halts (None if the stack is
// empty).
func (t *Thread) RunProgram(ctx context.Context, prog *compiler.Program) (value.Value, error) {
	if t.Stdlib == nil {
		t.Stdlib = stdlib.Default()
	}

	t.prog = prog
	t.pc = prog.EntryPoint
	t.stack = t.stack[:0]
	t.heap = Heap{}
	t.frames = []frame{{returnPC: len(prog.Code)}}
	t.localAddrs = t.localAddrs[:0]
	t.steps = 0

	for t.pc < len(prog.Code) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if t.MaxSteps > 0 {
			t.steps++
			if t.steps > t.MaxSteps {
				return nil, t.fail(t.pc, compiler.Noop, "step limit of %d exceeded", t.MaxSteps)
			}
		}

		insn := t.prog.Code[t.pc]
		if insn.Op == compiler.Halt {
			break
		}
		t.pc++
		if err := t.exec(insn); err != nil {
			return nil, err
		}
	}

	if len(t.stack) == 0 {
		return value.None{}, nil
	}
	top, err := t.pop()
	if err != nil {
		return nil, err
	}
	return t.deref(top), nil
}

func (t *Thread) fail(pc int, op compiler.Opcode, format string, args ...any) error {
	return &RuntimeError{PC: pc, Op: op, Msg: fmt.Sprintf(format, args...)}
}

func (t *Thread) push(c Cell) { t.stack = append(t.stack, c) }

func (t *Thread) pop() (Cell, error) {
	if len(t.stack) == 0 {
		return Cell{}, t.fail(t.pc, compiler.Noop, "stack underflow")
	}
	n := len(t.stack) - 1
	c := t.stack[n]
	t.stack = t.stack[:n]
	return c, nil
}

func (t *Thread) deref(c Cell) value.Value {
	if c.IsAddr() {
		return t.heap.Get(c.Addr())
	}
	return c.Value()
}

func (t *Thread) popValue() (value.Value, error) {
	c, err := t.pop()
	if err != nil {
		return nil, err
	}
	return t.deref(c), nil
}

func (t *Thread) exec(insn compiler.Insn) error {
	switch insn.Op {
	case compiler.Noop:
		return nil

	case compiler.Push:
		t.push(Literal(insn.Val))
		return nil
	case compiler.Pop:
		_, err := t.pop()
		return err

	case compiler.LoadAddr, compiler.LoadGlobal:
		t.push(AddrCell(value.Addr(insn.Operand)))
		return nil
	case compiler.LoadLocal:
		t.push(AddrCell(value.Addr(insn.Operand + t.fp())))
		return nil

	case compiler.StoreAddr:
		return t.execStore(value.Addr(insn.Operand), false)
	case compiler.StoreGlobal:
		return t.execStore(value.Addr(insn.Operand), false)
	case compiler.StoreLocal:
		return t.execStore(value.Addr(insn.Operand+t.fp()), true)

	case compiler.Jump:
		t.pc = insn.Operand
		return nil
	case compiler.JumpIf:
		return t.execCondJump(insn.Operand, true)
	case compiler.JumpIfNot:
		return t.execCondJump(insn.Operand, false)

	case compiler.Call:
		return t.execCall()
	case compiler.Return:
		return t.execReturn()

	case compiler.Add:
		return t.execAddOrJoin(insn.Op)
	case compiler.Sub, compiler.Mul, compiler.Div, compiler.Mod, compiler.Pow:
		return t.execArith(insn.Op)

	case compiler.Eq, compiler.Neq:
		return t.execEquality(insn.Op)
	case compiler.Lt, compiler.Le, compiler.Gt, compiler.Ge:
		return t.execCompare(insn.Op)

	case compiler.And, compiler.Or:
		return t.execLogical(insn.Op)
	case compiler.Not:
		return t.execNot()
	case compiler.Neg:
		return t.execNeg()

	case compiler.Index:
		return t.execIndex()
	case compiler.Join:
		return t.execAddOrJoin(insn.Op)
	case compiler.JoinMany:
		return t.execJoinMany(insn.Operand)

	case compiler.NativeCall:
		return t.execNativeCall(stdlib.NativeFunction(insn.Operand))
	case compiler.Print:
		return t.execPrint()

	default:
		return t.fail(t.pc-1, insn.Op, "unimplemented opcode")
	}
}

func (t *Thread) execStore(addr value.Addr, local bool) error {
	v, err := t.popValue()
	if err != nil {
		return err
	}
	t.heap.Set(addr, v)
	if local {
		t.localAddrs = append(t.localAddrs, addr)
		t.frames[len(t.frames)-1].localsAllocated++
	}
	return nil
}

func (t *Thread) execCondJump(target int, wantTrue bool) error {
	v, err := t.popValue()
	if err != nil {
		return err
	}
	b, ok := value.Truthy(v)
	if ok && b == wantTrue {
		t.pc = target
	}
	return nil
}

func (t *Thread) execCall() error {
	v, err := t.popValue()
	if err != nil {
		return err
	}
	fp, ok := v.(value.FuncPtr)
	if !ok {
		return t.fail(t.pc-1, compiler.Call, "call of non-function value (%s)", v.Kind())
	}
	if t.MaxCallStackDepth > 0 && len(t.frames) >= t.MaxCallStackDepth {
		return t.fail(t.pc-1, compiler.Call, "call stack depth limit of %d exceeded", t.MaxCallStackDepth)
	}
	t.frames = append(t.frames, frame{returnPC: t.pc})
	t.pc = int(fp)
	return nil
}

func (t *Thread) execReturn() error {
	c, err := t.pop()
	if err != nil {
		return err
	}
	t.push(Literal(t.deref(c)))

	if len(t.frames) == 0 {
		return t.fail(t.pc-1, compiler.Return, "return with no active call frame")
	}
	fr := t.frames[len(t.frames)-1]
	t.frames = t.frames[:len(t.frames)-1]

	n := fr.localsAllocated
	if n > len(t.localAddrs) {
		n = len(t.localAddrs)
	}
	freed := t.localAddrs[len(t.localAddrs)-n:]
	for _, a := range freed {
		t.heap.Free(a)
	}
	t.localAddrs = t.localAddrs[:len(t.localAddrs)-n]
	t.heap.Cleanup()

	t.pc = fr.returnPC
	return nil
}

func (t *Thread) execAddOrJoin(op compiler.Opcode) error {
	rhs, err := t.popValue()
	if err != nil {
		return err
	}
	lhs, err := t.popValue()
	if err != nil {
		return err
	}
	if value.IsString(lhs) || value.IsString(rhs) {
		t.push(Literal(value.String(value.Stringify(lhs) + value.Stringify(rhs))))
		return nil
	}
	ln, ok1 := lhs.(value.Number)
	rn, ok2 := rhs.(value.Number)
	if !ok1 || !ok2 {
		return t.fail(t.pc-1, op, "operands must be numbers or strings, got %s and %s", lhs.Kind(), rhs.Kind())
	}
	t.push(Literal(ln + rn))
	return nil
}

func (t *Thread) execArith(op compiler.Opcode) error {
	rhs, err := t.popValue()
	if err != nil {
		return err
	}
	lhs, err := t.popValue()
	if err != nil {
		return err
	}
	ln, ok1 := lhs.(value.Number)
	rn, ok2 := rhs.(value.Number)
	if !ok1 || !ok2 {
		return t.fail(t.pc-1, op, "operands must be numbers, got %s and %s", lhs.Kind(), rhs.Kind())
	}
	var result value.Number
	switch op {
	case compiler.Sub:
		result = ln - rn
	case compiler.Mul:
		result = ln * rn
	case compiler.Div:
		result = ln / rn
	case compiler.Mod:
		result = value.Number(math.Mod(float64(ln), float64(rn)))
	case compiler.Pow:
		result = value.Number(math.Pow(float64(ln), float64(rn)))
	}
	t.push(Literal(result))
	return nil
}

func (t *Thread) execEquality(op compiler.Opcode) error {
	rhs, err := t.popValue()
	if err != nil {
		return err
	}
	lhs, err := t.popValue()
	if err != nil {
		return err
	}
	eq := value.Equal(lhs, rhs)
	if op == compiler.Neq {
		eq = !eq
	}
	t.push(Literal(value.Bool(eq)))
	return nil
}

func (t *Thread) execCompare(op compiler.Opcode) error {
	rhs, err := t.popValue()
	if err != nil {
		return err
	}
	lhs, err := t.popValue()
	if err != nil {
		return err
	}

	var cmp int
	switch l := lhs.(type) {
	case value.Number:
		r, ok := rhs.(value.Number)
		if !ok {
			return t.fail(t.pc-1, op, "cannot compare %s and %s", lhs.Kind(), rhs.Kind())
		}
		switch {
		case l < r:
			cmp = -1
		case l > r:
			cmp = 1
		default:
			cmp = 0
		}
	case value.String:
		r, ok := rhs.(value.String)
		if !ok {
			return t.fail(t.pc-1, op, "cannot compare %s and %s", lhs.Kind(), rhs.Kind())
		}
		switch {
		case l < r:
			cmp = -1
		case l > r:
			cmp = 1
		default:
			cmp = 0
		}
	default:
		return t.fail(t.pc-1, op, "operands not orderable (%s)", lhs.Kind())
	}

	var result bool
	switch op {
	case compiler.Lt:
		result = cmp < 0
	case compiler.Le:
		result = cmp <= 0
	case compiler.Gt:
		result = cmp > 0
	case compiler.Ge:
		result = cmp >= 0
	}
	t.push(Literal(value.Bool(result)))
	return nil
}

func (t *Thread) execLogical(op compiler.Opcode) error {
	rhs, err := t.popValue()
	if err != nil {
		return err
	}
	lhs, err := t.popValue()
	if err != nil {
		return err
	}
	lb, ok1 := lhs.(value.Bool)
	rb, ok2 := rhs.(value.Bool)
	if !ok1 || !ok2 {
		return t.fail(t.pc-1, op, "operands must be booleans, got %s and %s", lhs.Kind(), rhs.Kind())
	}
	var result bool
	if op == compiler.And {
		result = bool(lb) && bool(rb)
	} else {
		result = bool(lb) || bool(rb)
	}
	t.push(Literal(value.Bool(result)))
	return nil
}

func (t *Thread) execNot() error {
	v, err := t.popValue()
	if err != nil {
		return err
	}
	b, ok := v.(value.Bool)
	if !ok {
		return t.fail(t.pc-1, compiler.Not, "operand must be boolean, got %s", v.Kind())
	}
	t.push(Literal(value.Bool(!b)))
	return nil
}

func (t *Thread) execNeg() error {
	v, err := t.popValue()
	if err != nil {
		return err
	}
	n, ok := v.(value.Number)
	if !ok {
		return t.fail(t.pc-1, compiler.Neg, "operand must be a number, got %s", v.Kind())
	}
	t.push(Literal(-n))
	return nil
}

func (t *Thread) execIndex() error {
	itemVal, err := t.popValue()
	if err != nil {
		return err
	}
	idxVal, err := t.popValue()
	if err != nil {
		return err
	}
	s, ok := itemVal.(value.String)
	if !ok {
		return t.fail(t.pc-1, compiler.Index, "cannot index into %s", itemVal.Kind())
	}
	n, ok := idxVal.(value.Number)
	if !ok {
		return t.fail(t.pc-1, compiler.Index, "index must be a number, got %s", idxVal.Kind())
	}
	runes := []rune(string(s))
	i := int(n)
	if i < 0 || i >= len(runes) {
		return t.fail(t.pc-1, compiler.Index, "index %d out of bounds (length %d)", i, len(runes))
	}
	t.push(Literal(value.String(string(runes[i]))))
	return nil
}

func (t *Thread) execJoinMany(n int) error {
	vs := make([]value.Value, n)
	for i := 0; i < n; i++ {
		v, err := t.popValue()
		if err != nil {
			return err
		}
		vs[i] = v
	}
	if n == 0 {
		t.push(Literal(value.None{}))
		return nil
	}
	t.push(Literal(value.String(value.JoinStrings(vs))))
	return nil
}

func (t *Thread) execNativeCall(nf stdlib.NativeFunction) error {
	arity := nf.Arity()
	args := make([]value.Value, arity)
	for i := 0; i < arity; i++ {
		v, err := t.popValue()
		if err != nil {
			return err
		}
		args[i] = v
	}
	result, err := t.Stdlib.Call(nf, args)
	if err != nil {
		return t.fail(t.pc-1, compiler.NativeCall, "%s", err)
	}
	t.push(Literal(result))
	return nil
}

func (t *Thread) execPrint() error {
	v, err := t.popValue()
	if err != nil {
		return err
	}
	_, werr := fmt.Fprintln(t.Stdlib.Out, v.String())
	return werr
}
