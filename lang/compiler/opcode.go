// Package compiler lowers an AST (package ast) into a flat instruction
// stream executed by the virtual machine (package machine).
package compiler

import "fmt"

// Opcode identifies one VM instruction.
type Opcode uint8

//nolint:revive
const (
	Noop Opcode = iota
	Halt
	Pop
	Push // operand: Value

	LoadAddr   // operand: heap index
	LoadLocal  // operand: frame-relative offset
	LoadGlobal // operand: heap index
	StoreAddr
	StoreLocal
	StoreGlobal

	Jump      // operand: instruction index
	JumpIf    // operand: instruction index
	JumpIfNot // operand: instruction index

	Call
	Return

	Add
	Sub
	Mul
	Div
	Mod
	Pow

	Eq
	Neq
	Lt
	Le
	Gt
	Ge

	And
	Or
	Not
	Neg

	Index
	Join
	JoinMany // operand: arity
	Print

	NativeCall // operand: native function tag

	maxOpcode
)

var opcodeNames = [...]string{
	Noop:        "noop",
	Halt:        "halt",
	Pop:         "pop",
	Push:        "push",
	LoadAddr:    "load_addr",
	LoadLocal:   "load_local",
	LoadGlobal:  "load_global",
	StoreAddr:   "store_addr",
	StoreLocal:  "store_local",
	StoreGlobal: "store_global",
	Jump:        "jump",
	JumpIf:      "jump_if",
	JumpIfNot:   "jump_if_not",
	Call:        "call",
	Return:      "return",
	Add:         "add",
	Sub:         "sub",
	Mul:         "mul",
	Div:         "div",
	Mod:         "mod",
	Pow:         "pow",
	Eq:          "eq",
	Neq:         "neq",
	Lt:          "lt",
	Le:          "le",
	Gt:          "gt",
	Ge:          "ge",
	And:         "and",
	Or:          "or",
	Not:         "not",
	Neg:         "neg",
	Index:       "index",
	Join:        "join",
	JoinMany:    "join_many",
	Print:       "print",
	NativeCall:  "native_call",
}

func (op Opcode) String() string {
	if op < maxOpcode {
		if n := opcodeNames[op]; n != "" {
			return n
		}
	}
	return fmt.Sprintf("opcode(%d)", op)
}

// OperandKind classifies the shape of an instruction's operand, mirroring
// the wire-level table: most opcodes carry none, some carry a jump target,
// some a raw unsigned offset, and a few carry something opcode-specific.
type OperandKind uint8

const (
	OperandNone OperandKind = iota
	OperandValue
	OperandOffset // heap index or frame-relative offset
	OperandTarget // instruction index
	OperandNative // native function tag
	OperandArity  // JoinMany argument count
)

func (op Opcode) OperandKind() OperandKind {
	switch op {
	case Push:
		return OperandValue
	case LoadAddr, LoadLocal, LoadGlobal, StoreAddr, StoreLocal, StoreGlobal:
		return OperandOffset
	case Jump, JumpIf, JumpIfNot:
		return OperandTarget
	case NativeCall:
		return OperandNative
	case JoinMany:
		return OperandArity
	default:
		return OperandNone
	}
}

// IsJump reports whether op unconditionally or conditionally transfers
// control to its operand instruction index.
func (op Opcode) IsJump() bool {
	switch op {
	case Jump, JumpIf, JumpIfNot:
		return true
	}
	return false
}
