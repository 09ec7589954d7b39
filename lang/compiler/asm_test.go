package compiler_test

import (
	"strings"
	"testing"

	"github.com/rillscript/rill/lang/compiler"
	"github.com/rillscript/rill/lang/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDasmFormat(t *testing.T) {
	prog := &compiler.Program{
		Code: []compiler.Insn{
			{Op: compiler.Push, Val: value.Number(2)},
			{Op: compiler.StoreGlobal, Operand: 0},
			{Op: compiler.LoadGlobal, Operand: 0},
			{Op: compiler.NativeCall, Operand: 0}, // stdout
			{Op: compiler.Halt},
		},
		EntryPoint: 0,
	}

	out := compiler.DasmString(prog)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.True(t, len(lines) >= len(prog.Code)+4)

	assert.Contains(t, lines[2], "0:\tpush\t2")
	assert.Contains(t, lines[3], "1:\tstore_global\t0")
	assert.Contains(t, lines[5], "3:\tnative_call\tstdout")
	assert.True(t, strings.HasPrefix(lines[0], ";"))
	assert.True(t, strings.HasPrefix(lines[len(lines)-1], ";"))
}

func TestAsmParsesMnemonicsAndOperands(t *testing.T) {
	prog, err := compiler.Asm(`
0:	push	2
1:	store_global	0
2:	load_global	0
3:	push	3
4:	add
5:	native_call	stdout
6:	halt
`)
	require.NoError(t, err)
	require.Len(t, prog.Code, 7)
	assert.Equal(t, compiler.Push, prog.Code[0].Op)
	assert.Equal(t, value.Number(2), prog.Code[0].Val)
	assert.Equal(t, compiler.StoreGlobal, prog.Code[1].Op)
	assert.Equal(t, 0, prog.Code[1].Operand)
	assert.Equal(t, compiler.Add, prog.Code[4].Op)
	assert.Equal(t, compiler.NativeCall, prog.Code[5].Op)
	assert.Equal(t, 0, prog.Code[5].Operand) // stdlib.Stdout == 0
}

func TestAsmParsesLiteralKinds(t *testing.T) {
	prog, err := compiler.Asm(`
0:	push	"hi"
1:	push	true
2:	push	false
3:	push	none
`)
	require.NoError(t, err)
	assert.Equal(t, value.String("hi"), prog.Code[0].Val)
	assert.Equal(t, value.Bool(true), prog.Code[1].Val)
	assert.Equal(t, value.Bool(false), prog.Code[2].Val)
	assert.Equal(t, value.None{}, prog.Code[3].Val)
}

func TestAsmRoundTripsDasmNumericOperands(t *testing.T) {
	prog := &compiler.Program{
		Code: []compiler.Insn{
			{Op: compiler.Push, Val: value.Number(2)},
			{Op: compiler.StoreGlobal, Operand: 0},
			{Op: compiler.LoadGlobal, Operand: 0},
			{Op: compiler.NativeCall, Operand: 0},
			{Op: compiler.Halt},
		},
		EntryPoint: 0,
	}
	out := compiler.DasmString(prog)
	round, err := compiler.Asm(out)
	require.NoError(t, err)
	assert.Equal(t, prog.Code, round.Code)
	assert.Equal(t, prog.EntryPoint, round.EntryPoint)
}

func TestAsmUnknownMnemonicFails(t *testing.T) {
	_, err := compiler.Asm("0:\tbogus\n")
	require.Error(t, err)
}
