package compiler

import "github.com/rillscript/rill/lang/value"

// Insn is one instruction: an opcode plus whichever operand its
// OperandKind calls for. Only one of Val/Operand is meaningful for any
// given opcode.
type Insn struct {
	Op      Opcode
	Val     value.Value // meaningful when Op.OperandKind() == OperandValue
	Operand int         // meaningful for OperandOffset, OperandTarget, OperandNative, OperandArity
}

// Program is the flat instruction stream produced by Compile. EntryPoint is
// the index of the first user instruction. Standard library definitions
// (spec.md's "prelude") have no bytecode form here: natives are resolved at
// compile time to a fixed stdlib.NativeFunction tag and invoked through the
// dedicated NativeCall opcode, so EntryPoint is always 0 rather than marking
// the end of a separately emitted prelude block; the field is kept so the
// wire shape matches spec.md's (instructions, program_start_index) pair.
type Program struct {
	Code       []Insn
	EntryPoint int
}
