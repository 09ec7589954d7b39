package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"

	"github.com/rillscript/rill/lang/scanner"
)

// Tokenize runs just the scanner phase over args[0] and prints one token
// per line, for diagnosing the pipeline independently of the parser.
func (c *Cmd) Tokenize(_ context.Context, stdio mainer.Stdio, args []string) error {
	src, err := os.ReadFile(args[0])
	if err != nil {
		return printError(stdio, err)
	}
	toks, err := scanner.ScanAll(src)
	for _, ti := range toks {
		line, col := ti.Pos.LineCol()
		fmt.Fprintf(stdio.Stdout, "%d:%d: %s", line, col, ti.Tok)
		if ti.Lit != "" {
			fmt.Fprintf(stdio.Stdout, " %q", ti.Lit)
		}
		fmt.Fprintln(stdio.Stdout)
	}
	if err != nil {
		return printError(stdio, err)
	}
	return nil
}
