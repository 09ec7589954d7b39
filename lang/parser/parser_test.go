package parser_test

import (
	"testing"

	"github.com/rillscript/rill/lang/ast"
	"github.com/rillscript/rill/lang/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, src string) *ast.Chunk {
	t.Helper()
	chunk, err := parser.Parse([]byte(src))
	require.NoError(t, err)
	return chunk
}

func TestParseDeclarationAndArithmetic(t *testing.T) {
	chunk := parse(t, "let x = 1 + 2 * 3\n")
	require.Len(t, chunk.Body, 1)
	decl, ok := chunk.Body[0].(*ast.Declaration)
	require.True(t, ok)
	assert.Equal(t, "x", decl.Name)

	op, ok := decl.Value.(*ast.Op)
	require.True(t, ok)
	assert.Equal(t, ast.OpAdd, op.Kind)
	rhs, ok := op.Rhs.(*ast.Op)
	require.True(t, ok)
	assert.Equal(t, ast.OpMul, rhs.Kind)
}

func TestParsePowerIsRightAssociative(t *testing.T) {
	chunk := parse(t, "let x = 2 ** 3 ** 2\n")
	decl := chunk.Body[0].(*ast.Declaration)
	op := decl.Value.(*ast.Op)
	require.Equal(t, ast.OpPow, op.Kind)
	inner, ok := op.Rhs.(*ast.Op)
	require.True(t, ok)
	assert.Equal(t, ast.OpPow, inner.Kind)
}

func TestParseAugmentedAssignment(t *testing.T) {
	chunk := parse(t, "x += 1\n")
	assign, ok := chunk.Body[0].(*ast.Assignment)
	require.True(t, ok)
	op, ok := assign.Value.(*ast.Op)
	require.True(t, ok)
	assert.Equal(t, ast.OpAdd, op.Kind)
}

func TestParseIncDec(t *testing.T) {
	chunk := parse(t, "x++\n")
	assign, ok := chunk.Body[0].(*ast.Assignment)
	require.True(t, ok)
	op := assign.Value.(*ast.Op)
	assert.Equal(t, ast.OpAdd, op.Kind)
	num := op.Rhs.(*ast.NumberLit)
	assert.Equal(t, float64(1), num.Value)
}

func TestParseIfElse(t *testing.T) {
	chunk := parse(t, `
if x < 10 {
  return 1
} else {
  return 2
}
`)
	ifn, ok := chunk.Body[0].(*ast.If)
	require.True(t, ok)
	require.Len(t, ifn.Then, 1)
	require.Len(t, ifn.Otherwise, 1)
}

func TestParseFunctionAndCall(t *testing.T) {
	chunk := parse(t, `
fn add(a, b) {
  return a + b
}
let result = add(1, 2)
`)
	require.Len(t, chunk.Body, 2)
	fn := chunk.Body[0].(*ast.Function)
	assert.Equal(t, "add", fn.Name)
	assert.Equal(t, []string{"a", "b"}, fn.Args)

	decl := chunk.Body[1].(*ast.Declaration)
	call := decl.Value.(*ast.Call)
	callee := call.Callee.(*ast.Identifier)
	assert.Equal(t, "add", callee.Name)
	require.Len(t, call.Args, 2)
}

func TestParseLambda(t *testing.T) {
	chunk := parse(t, "let f = (x) => { return x }\n")
	decl := chunk.Body[0].(*ast.Declaration)
	lambda, ok := decl.Value.(*ast.Lambda)
	require.True(t, ok)
	assert.Equal(t, []string{"x"}, lambda.Args)
}

func TestParseNativeCall(t *testing.T) {
	chunk := parse(t, `#stdout("hi")`)
	nc, ok := chunk.Body[0].(*ast.NativeCall)
	require.True(t, ok)
	assert.Equal(t, "stdout", nc.Name)
	require.Len(t, nc.Args, 1)
}

func TestParseFormatString(t *testing.T) {
	chunk := parse(t, `let x = f"hi {name}!"`)
	decl := chunk.Body[0].(*ast.Declaration)
	fs, ok := decl.Value.(*ast.FormatStringLit)
	require.True(t, ok)
	require.Len(t, fs.Parts, 3)
	lit0 := fs.Parts[0].(*ast.StringLit)
	assert.Equal(t, "hi ", lit0.Value)
	ident := fs.Parts[1].(*ast.Identifier)
	assert.Equal(t, "name", ident.Name)
	lit2 := fs.Parts[2].(*ast.StringLit)
	assert.Equal(t, "!", lit2.Value)
}

func TestParseIndexAssignment(t *testing.T) {
	chunk := parse(t, "a[0] = 1\n")
	assign := chunk.Body[0].(*ast.Assignment)
	_, ok := assign.Target.(*ast.IndexExpr)
	require.True(t, ok)
}

func TestParseJoinOperator(t *testing.T) {
	chunk := parse(t, `let s = "a" .. "b"`)
	decl := chunk.Body[0].(*ast.Declaration)
	_, ok := decl.Value.(*ast.Join)
	require.True(t, ok)
}

func TestParseErrorRecorded(t *testing.T) {
	_, err := parser.Parse([]byte("let = 1\n"))
	require.Error(t, err)
}
