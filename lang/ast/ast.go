// Package ast defines the abstract syntax tree produced by the parser and
// consumed by the compiler. The grammar has no separate statement/expression
// distinction: every construct (including `let`, `if`, and `return`) is a
// Node that may appear in a Block, matching the source language's treatment
// of declarations and control flow as ordinary expressions (spec.md §4.2).
package ast

import "github.com/rillscript/rill/lang/token"

// A Node is any element of the abstract syntax tree.
type Node interface {
	Pos() token.Pos
}

// A Block is a sequence of nodes, e.g. the body of a function or an if/else
// arm. An empty block is valid (e.g. `else {}`).
type Block []Node

// A Chunk is the top-level program: a single implicit block.
type Chunk struct {
	Body Block
}

func (c *Chunk) Pos() token.Pos {
	if len(c.Body) == 0 {
		return 0
	}
	return c.Body[0].Pos()
}
