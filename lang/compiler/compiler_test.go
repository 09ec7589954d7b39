package compiler_test

import (
	"testing"

	"github.com/rillscript/rill/lang/compiler"
	"github.com/rillscript/rill/lang/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compile(t *testing.T, src string) *compiler.Program {
	t.Helper()
	chunk, err := parser.Parse([]byte(src))
	require.NoError(t, err)
	prog, err := compiler.Compile(chunk)
	require.NoError(t, err)
	return prog
}

func opcodes(prog *compiler.Program) []compiler.Opcode {
	out := make([]compiler.Opcode, len(prog.Code))
	for i, insn := range prog.Code {
		out[i] = insn.Op
	}
	return out
}

func TestCompileDeclarationUsesStoreGlobal(t *testing.T) {
	prog := compile(t, "let x = 1\n")
	assert.Equal(t, []compiler.Opcode{compiler.Push, compiler.StoreGlobal}, opcodes(prog))
}

func TestCompileUndefinedIdentifierFails(t *testing.T) {
	chunk, err := parser.Parse([]byte("x\n"))
	require.NoError(t, err)
	_, err = compiler.Compile(chunk)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "undefined identifier")
}

func TestCompilePeepholeCollapsesDeadPush(t *testing.T) {
	// a literal used only as a statement: Push followed by the speculative
	// Pop collapses to two Noops.
	prog := compile(t, "1\n")
	assert.Equal(t, []compiler.Opcode{compiler.Noop, compiler.Noop}, opcodes(prog))
}

func TestCompileAssignmentToGlobalFromFunctionUsesStoreGlobal(t *testing.T) {
	prog := compile(t, `
let c = 0
fn inc() {
  c = c + 1
}
`)
	// the function body's StoreGlobal for `c = c + 1` must appear among the
	// instructions (not StoreAddr), proving globals are reached directly.
	// `let c = 0` and `c = c + 1` both store to global offset 0.
	storesToC := 0
	for _, insn := range prog.Code {
		if insn.Op == compiler.StoreGlobal && insn.Operand == 0 {
			storesToC++
		}
	}
	assert.Equal(t, 2, storesToC)
	assert.NotContains(t, opcodes(prog), compiler.StoreAddr)
}

func TestCompileIfEmitsJumpIfNotAndJump(t *testing.T) {
	prog := compile(t, `
if 1 < 2 {
  return 1
} else {
  return 2
}
`)
	ops := opcodes(prog)
	assert.Contains(t, ops, compiler.JumpIfNot)
	assert.Contains(t, ops, compiler.Jump)
}

func TestCompileShortCircuitOr(t *testing.T) {
	prog := compile(t, `
if true || false {
  return 1
} else {
  return 2
}
`)
	ops := opcodes(prog)
	assert.Contains(t, ops, compiler.JumpIf)
	assert.Contains(t, ops, compiler.JumpIfNot)
}

func TestCompileNativeCallResolvesTag(t *testing.T) {
	prog := compile(t, `#stdout("hi")`)
	found := false
	for _, insn := range prog.Code {
		if insn.Op == compiler.NativeCall {
			found = true
			assert.Equal(t, 0, insn.Operand) // stdlib.Stdout == 0
		}
	}
	assert.True(t, found)
}

func TestCompileUnknownNativeFails(t *testing.T) {
	chunk, err := parser.Parse([]byte(`#bogus()`))
	require.NoError(t, err)
	_, err = compiler.Compile(chunk)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown native function")
}

func TestCompileFormatStringSingle(t *testing.T) {
	prog := compile(t, `let x = f"{1}"`)
	// a single-part format string just builds the inner expression; no
	// JoinMany is emitted.
	for _, insn := range prog.Code {
		assert.NotEqual(t, compiler.JoinMany, insn.Op)
	}
}

func TestCompileFormatStringMultiEmitsJoinMany(t *testing.T) {
	prog := compile(t, `let x = f"a{1}b"`)
	found := false
	for _, insn := range prog.Code {
		if insn.Op == compiler.JoinMany {
			found = true
			assert.Equal(t, 3, insn.Operand)
		}
	}
	assert.True(t, found)
}

func TestCompileInvalidAssignmentTargetFails(t *testing.T) {
	chunk, err := parser.Parse([]byte(`1 = 2`))
	require.NoError(t, err)
	_, err = compiler.Compile(chunk)
	require.Error(t, err)
}

func TestCompileStaticConditionDropsDeadBranch(t *testing.T) {
	prog := compile(t, `
if true {
  return 1
} else {
  return 2
}
`)
	ops := opcodes(prog)
	assert.NotContains(t, ops, compiler.JumpIfNot)
	assert.NotContains(t, ops, compiler.Jump)
}
