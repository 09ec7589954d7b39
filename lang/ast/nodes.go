package ast

import "github.com/rillscript/rill/lang/token"

// NumberLit is a numeric literal, e.g. `42` or `3.14`.
type NumberLit struct {
	PosVal token.Pos
	Value  float64
}

func (n *NumberLit) Pos() token.Pos { return n.PosVal }

// StringLit is a double-quoted string literal with escapes already resolved.
type StringLit struct {
	PosVal token.Pos
	Value  string
}

func (n *StringLit) Pos() token.Pos { return n.PosVal }

// FormatStringLit is an `f"..."` literal. Parts holds, in source order, the
// non-empty literal string segments and the embedded expressions (two
// adjacent `{...}` groups give two consecutive expression parts); an empty Parts
// compiles to the empty string (spec.md §4.2).
type FormatStringLit struct {
	PosVal token.Pos
	Parts  []Node
}

func (n *FormatStringLit) Pos() token.Pos { return n.PosVal }

// BoolLit is `true` or `false`.
type BoolLit struct {
	PosVal token.Pos
	Value  bool
}

func (n *BoolLit) Pos() token.Pos { return n.PosVal }

// NoneLit is the `none` literal.
type NoneLit struct {
	PosVal token.Pos
}

func (n *NoneLit) Pos() token.Pos { return n.PosVal }

// Identifier is a bare name reference.
type Identifier struct {
	PosVal token.Pos
	Name   string
}

func (n *Identifier) Pos() token.Pos { return n.PosVal }

// Declaration is `let name = expr` (Value is NoneLit{} if the initializer is
// omitted).
type Declaration struct {
	PosVal token.Pos
	Name   string
	Value  Node
}

func (n *Declaration) Pos() token.Pos { return n.PosVal }

// Assignment is `target = expr`. The parser accepts any expression as
// target (e.g. an Index expression); the compiler accepts only an
// Identifier target and reports any other target as a compile-time error.
type Assignment struct {
	PosVal token.Pos
	Target Node
	Value  Node
}

func (n *Assignment) Pos() token.Pos { return n.PosVal }

// IndexExpr is `item[index]`.
type IndexExpr struct {
	PosVal token.Pos
	Item   Node
	Index  Node
}

func (n *IndexExpr) Pos() token.Pos { return n.PosVal }

// Function is a named function declaration: `fn name(args) { body }`.
type Function struct {
	PosVal token.Pos
	Name   string
	Args   []string
	Body   Block
}

func (n *Function) Pos() token.Pos { return n.PosVal }

// Lambda is an anonymous function expression: `(args) => { body }`.
type Lambda struct {
	PosVal token.Pos
	Args   []string
	Body   Block
}

func (n *Lambda) Pos() token.Pos { return n.PosVal }

// Call is `callee(args...)`.
type Call struct {
	PosVal token.Pos
	Callee Node
	Args   []Node
}

func (n *Call) Pos() token.Pos { return n.PosVal }

// NativeCall is `#name(args...)`, resolved to a fixed native function at
// compile time (spec.md §4.4).
type NativeCall struct {
	PosVal token.Pos
	Name   string
	Args   []Node
}

func (n *NativeCall) Pos() token.Pos { return n.PosVal }

// BinOp identifies a binary or unary operator used by an Op node.
type BinOp int8

const (
	OpAdd BinOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpPow
	OpEq
	OpNeq
	OpLt
	OpGt
	OpLte
	OpGte
	OpAnd
	OpOr
	OpNot // unary
	OpNeg // unary
)

// Op is a binary operator application, or a unary one when Op is OpNot or
// OpNeg (in which case Rhs is nil).
type Op struct {
	PosVal token.Pos
	Kind   BinOp
	Lhs    Node
	Rhs    Node
}

func (n *Op) Pos() token.Pos { return n.PosVal }

// Join is the `..` string-join operator, kept distinct from Add (spec.md
// §4.3: Join has the same stringification rule as Add but is its own
// opcode).
type Join struct {
	PosVal token.Pos
	Lhs    Node
	Rhs    Node
}

func (n *Join) Pos() token.Pos { return n.PosVal }

// If is `if cond { then } else { otherwise }`; Otherwise is nil when there is
// no else clause.
type If struct {
	PosVal    token.Pos
	Condition Node
	Then      Block
	Otherwise Block
}

func (n *If) Pos() token.Pos { return n.PosVal }

// Return is `return expr` (expr is NoneLit{} when omitted).
type Return struct {
	PosVal token.Pos
	Value  Node
}

func (n *Return) Pos() token.Pos { return n.PosVal }
