package compiler

import (
	"fmt"

	"github.com/dolthub/swiss"
	"golang.org/x/exp/slices"

	"github.com/rillscript/rill/lang/ast"
	"github.com/rillscript/rill/lang/stdlib"
	"github.com/rillscript/rill/lang/token"
	"github.com/rillscript/rill/lang/value"
)

// CompileError is a compile-time failure: an undefined identifier, an
// invalid assignment target, or an unknown native function. Compilation
// aborts on the first one found.
type CompileError struct {
	Pos token.Pos
	Msg string
}

func (e *CompileError) Error() string {
	line, col := e.Pos.LineCol()
	return fmt.Sprintf("%d:%d: %s", line, col, e.Msg)
}

// binding is a name's compile-time address: the scope depth at which it
// was introduced and its slot offset within that scope's allocation
// sequence.
type binding struct {
	Offset int
	Depth  int
}

// Compile lowers chunk into a flat instruction stream. No prelude is
// emitted, so the returned Program's EntryPoint is always 0 (see Program).
func Compile(chunk *ast.Chunk) (prog *Program, err error) {
	c := &compiler{scopes: []*swiss.Map[string, binding]{swiss.NewMap[string, binding](16)}}

	defer func() {
		if r := recover(); r != nil {
			if ce, ok := r.(*CompileError); ok {
				err = ce
				return
			}
			panic(r)
		}
	}()

	entry := len(c.code)
	c.buildBlock(chunk.Body)
	return &Program{Code: peephole(c.code), EntryPoint: entry}, nil
}

type compiler struct {
	code   []Insn
	scopes []*swiss.Map[string, binding]
	depth  int
	next   int
}

func (c *compiler) fail(pos token.Pos, format string, args ...any) {
	panic(&CompileError{Pos: pos, Msg: fmt.Sprintf(format, args...)})
}

func (c *compiler) pushScope() {
	c.scopes = append(c.scopes, swiss.NewMap[string, binding](8))
}

func (c *compiler) popScope() {
	c.scopes = c.scopes[:len(c.scopes)-1]
}

func (c *compiler) declare(name string, b binding) {
	c.scopes[len(c.scopes)-1].Put(name, b)
}

func (c *compiler) lookup(name string) (binding, bool) {
	for i := len(c.scopes) - 1; i >= 0; i-- {
		if b, ok := c.scopes[i].Get(name); ok {
			return b, true
		}
	}
	return binding{}, false
}

// resolve returns the opcode pair and operand for loading or storing a
// binding from the current scope depth: direct global addressing at depth
// 0, frame-relative addressing when the binding belongs to the current
// depth, and an absolute heap index (offset+depth) otherwise.
func (c *compiler) resolve(b binding) (load, store Opcode, operand int) {
	switch {
	case b.Depth == 0:
		return LoadGlobal, StoreGlobal, b.Offset
	case b.Depth == c.depth:
		return LoadLocal, StoreLocal, b.Offset
	default:
		return LoadAddr, StoreAddr, b.Offset + b.Depth
	}
}

func (c *compiler) emit(op Opcode) int {
	c.code = append(c.code, Insn{Op: op})
	return len(c.code) - 1
}

func (c *compiler) emitOperand(op Opcode, operand int) int {
	c.code = append(c.code, Insn{Op: op, Operand: operand})
	return len(c.code) - 1
}

func (c *compiler) emitPush(v value.Value) int {
	c.code = append(c.code, Insn{Op: Push, Val: v})
	return len(c.code) - 1
}

func (c *compiler) patchOp(idx int, op Opcode, target int) {
	c.code[idx] = Insn{Op: op, Operand: target}
}

// buildBlock lowers every node of b in order, dropping the value left by
// expression nodes used as statements (declarations, assignments,
// functions, if, and return all leave nothing, by construction).
func (c *compiler) buildBlock(b ast.Block) {
	for _, n := range b {
		c.build(n)
		if leavesValue(n) {
			c.emit(Pop)
		}
	}
}

func leavesValue(n ast.Node) bool {
	switch n.(type) {
	case *ast.Declaration, *ast.Assignment, *ast.Function, *ast.If, *ast.Return:
		return false
	default:
		return true
	}
}

func (c *compiler) build(n ast.Node) {
	switch n := n.(type) {
	case *ast.NumberLit:
		c.emitPush(value.Number(n.Value))
	case *ast.StringLit:
		c.emitPush(value.String(n.Value))
	case *ast.FormatStringLit:
		c.buildFormatString(n)
	case *ast.BoolLit:
		c.emitPush(value.Bool(n.Value))
	case *ast.NoneLit:
		c.emitPush(value.None{})
	case *ast.Identifier:
		c.buildLoad(n.Name, n.PosVal)
	case *ast.Declaration:
		c.buildDeclaration(n)
	case *ast.Assignment:
		c.buildAssignment(n)
	case *ast.IndexExpr:
		c.build(n.Index)
		c.build(n.Item)
		c.emit(Index)
	case *ast.Function:
		c.buildFunction(n)
	case *ast.Lambda:
		c.buildLambda(n)
	case *ast.Call:
		c.buildCall(n)
	case *ast.NativeCall:
		c.buildNativeCall(n)
	case *ast.Op:
		c.buildOp(n)
	case *ast.Join:
		c.build(n.Lhs)
		c.build(n.Rhs)
		c.emit(Join)
	case *ast.If:
		c.buildIf(n)
	case *ast.Return:
		c.build(n.Value)
		c.emit(Return)
	default:
		c.fail(n.Pos(), "internal: unhandled node %T", n)
	}
}

func (c *compiler) buildLoad(name string, pos token.Pos) {
	b, ok := c.lookup(name)
	if !ok {
		c.fail(pos, "undefined identifier %q", name)
	}
	load, _, operand := c.resolve(b)
	c.emitOperand(load, operand)
}

func (c *compiler) buildDeclaration(n *ast.Declaration) {
	c.build(n.Value)
	id := c.depth + c.next
	c.next++
	c.declare(n.Name, binding{Offset: id, Depth: c.depth})
	if c.depth == 0 {
		c.emitOperand(StoreGlobal, id)
	} else {
		c.emitOperand(StoreLocal, id)
	}
}

func (c *compiler) buildAssignment(n *ast.Assignment) {
	ident, ok := n.Target.(*ast.Identifier)
	if !ok {
		c.fail(n.PosVal, "invalid assignment target")
	}
	b, ok := c.lookup(ident.Name)
	if !ok {
		c.fail(ident.PosVal, "undefined identifier %q", ident.Name)
	}
	c.build(n.Value)
	_, store, operand := c.resolve(b)
	c.emitOperand(store, operand)
}

func (c *compiler) buildFormatString(n *ast.FormatStringLit) {
	switch len(n.Parts) {
	case 0:
		c.emitPush(value.String(""))
	case 1:
		c.build(n.Parts[0])
	default:
		for i := len(n.Parts) - 1; i >= 0; i-- {
			c.build(n.Parts[i])
		}
		c.emitOperand(JoinMany, len(n.Parts))
	}
}

func (c *compiler) buildFunction(n *ast.Function) {
	top := c.emit(Noop) // placeholder for the Jump over the body

	newNext := c.next
	id := c.depth + c.next
	c.next++
	c.declare(n.Name, binding{Offset: id, Depth: c.depth})

	outerDepth, outerNext := c.depth, c.next
	c.pushScope()
	c.depth = outerDepth + 1
	c.next = newNext
	for _, arg := range n.Args {
		argID := c.depth + c.next
		c.next++
		c.declare(arg, binding{Offset: argID, Depth: c.depth})
		c.emitOperand(StoreLocal, argID)
	}
	c.buildBlock(n.Body)
	c.emitPush(value.None{})
	c.emit(Return)
	c.popScope()
	c.depth, c.next = outerDepth, outerNext

	c.patchOp(top, Jump, len(c.code))
	c.emitPush(value.FuncPtr(top + 1))
	if outerDepth == 0 {
		c.emitOperand(StoreGlobal, id)
	} else {
		c.emitOperand(StoreLocal, id)
	}
}

func (c *compiler) buildLambda(n *ast.Lambda) {
	top := c.emit(Noop)

	outerDepth, outerNext := c.depth, c.next
	c.pushScope()
	c.depth = outerDepth + 1
	for _, arg := range n.Args {
		argID := c.depth + c.next
		c.next++
		c.declare(arg, binding{Offset: argID, Depth: c.depth})
		c.emitOperand(StoreLocal, argID)
	}
	c.buildBlock(n.Body)
	c.emitPush(value.None{})
	c.emit(Return)
	c.popScope()
	c.depth, c.next = outerDepth, outerNext

	c.patchOp(top, Jump, len(c.code))
	c.emitPush(value.FuncPtr(top + 1))
}

func (c *compiler) buildCall(n *ast.Call) {
	for i := len(n.Args) - 1; i >= 0; i-- {
		c.build(n.Args[i])
	}
	c.build(n.Callee)
	c.emit(Call)
}

func (c *compiler) buildNativeCall(n *ast.NativeCall) {
	nf, ok := stdlib.Lookup(n.Name)
	if !ok {
		c.fail(n.PosVal, "unknown native function %q", n.Name)
	}
	for i := len(n.Args) - 1; i >= 0; i-- {
		c.build(n.Args[i])
	}
	c.emitOperand(NativeCall, int(nf))
}

var opcodeForBinOp = map[ast.BinOp]Opcode{
	ast.OpAdd: Add, ast.OpSub: Sub, ast.OpMul: Mul, ast.OpDiv: Div,
	ast.OpMod: Mod, ast.OpPow: Pow, ast.OpEq: Eq, ast.OpNeq: Neq,
	ast.OpLt: Lt, ast.OpGt: Gt, ast.OpLte: Le, ast.OpGte: Ge,
	ast.OpAnd: And, ast.OpOr: Or,
}

func (c *compiler) buildOp(n *ast.Op) {
	switch n.Kind {
	case ast.OpNot:
		c.build(n.Lhs)
		c.emit(Not)
	case ast.OpNeg:
		c.build(n.Lhs)
		c.emit(Neg)
	default:
		op, ok := opcodeForBinOp[n.Kind]
		if !ok {
			c.fail(n.PosVal, "internal: unhandled operator %v", n.Kind)
		}
		c.build(n.Lhs)
		c.build(n.Rhs)
		c.emit(op)
	}
}

// buildIf lowers a conditional. And/Or conditions short-circuit via a
// backpatched Noop-then-patch sequence; everything else uses a single
// JumpIfNot/Jump pair.
func (c *compiler) buildIf(n *ast.If) {
	if lit, ok := n.Condition.(*ast.BoolLit); ok {
		if lit.Value {
			c.buildBlock(n.Then)
		} else {
			c.buildBlock(n.Otherwise)
		}
		return
	}
	if op, ok := n.Condition.(*ast.Op); ok && (op.Kind == ast.OpOr || op.Kind == ast.OpAnd) {
		c.buildShortCircuitIf(n, op)
		return
	}

	c.build(n.Condition)
	jumpIfNotIdx := c.emit(Noop)
	c.buildBlock(n.Then)
	jumpIdx := c.emit(Noop)
	jumpTo := len(c.code)
	c.buildBlock(n.Otherwise)

	c.patchOp(jumpIfNotIdx, JumpIfNot, jumpTo)
	c.patchOp(jumpIdx, Jump, len(c.code))
}

func (c *compiler) buildShortCircuitIf(n *ast.If, op *ast.Op) {
	c.build(op.Lhs)
	firstIdx := c.emit(Noop)
	c.build(op.Rhs)
	secondIdx := c.emit(Noop)
	thenJumpTo := len(c.code)
	c.buildBlock(n.Then)
	jumpIdx := c.emit(Noop)
	jumpTo := len(c.code)
	c.buildBlock(n.Otherwise)

	if op.Kind == ast.OpOr {
		c.patchOp(firstIdx, JumpIf, thenJumpTo)
	} else {
		c.patchOp(firstIdx, JumpIfNot, jumpTo)
	}
	c.patchOp(secondIdx, JumpIfNot, jumpTo)
	c.patchOp(jumpIdx, Jump, len(c.code))
}

// droppablePrefixes are the opcodes whose result is safe to discard
// silently: none of them have a side effect, so a following Pop can
// collapse both into Noop.
var droppablePrefixes = []Opcode{Push, LoadAddr, LoadLocal, LoadGlobal}

// peephole runs the single left-to-right pass that rewrites any (Push,
// Pop) or (Load*, Pop) adjacent pair to (Noop, Noop).
func peephole(code []Insn) []Insn {
	for i := 1; i < len(code); i++ {
		if code[i].Op == Pop && slices.Contains(droppablePrefixes, code[i-1].Op) {
			code[i-1] = Insn{Op: Noop}
			code[i] = Insn{Op: Noop}
		}
	}
	return code
}
