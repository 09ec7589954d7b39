package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"

	"github.com/rillscript/rill/lang/ast"
	"github.com/rillscript/rill/lang/parser"
)

// Parse runs the parser phase over args[0] and prints the resulting AST as
// an indented tree.
func (c *Cmd) Parse(_ context.Context, stdio mainer.Stdio, args []string) error {
	src, err := os.ReadFile(args[0])
	if err != nil {
		return printError(stdio, err)
	}
	chunk, err := parser.Parse(src)
	if err != nil {
		return printError(stdio, err)
	}
	fmt.Fprint(stdio.Stdout, ast.Sprint(chunk.Body))
	return nil
}
