package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"

	"github.com/rillscript/rill/lang/compiler"
	"github.com/rillscript/rill/lang/machine"
	"github.com/rillscript/rill/lang/parser"
	"github.com/rillscript/rill/lang/stdlib"
)

// Run is the CLI's primary command (spec.md §6): compile args[0], write a
// disassembly dump to "<path>.out", then execute the program. A
// parse/compile failure or a runtime error is reported and causes a
// non-zero exit code.
func (c *Cmd) Run(ctx context.Context, stdio mainer.Stdio, args []string) error {
	path := args[0]

	src, err := os.ReadFile(path)
	if err != nil {
		return printError(stdio, err)
	}

	prog, err := compileSource(src)
	if err != nil {
		return printError(stdio, err)
	}

	outPath := path + ".out"
	outFile, err := os.Create(outPath)
	if err != nil {
		return printError(stdio, err)
	}
	dasmErr := compiler.Dasm(outFile, prog)
	closeErr := outFile.Close()
	if dasmErr != nil {
		return printError(stdio, dasmErr)
	}
	if closeErr != nil {
		return printError(stdio, closeErr)
	}

	cfg, err := LoadConfig()
	if err != nil {
		return printError(stdio, err)
	}

	th := &machine.Thread{
		Stdlib:            &stdlib.IO{Out: stdio.Stdout, In: newStdinReader(stdio)},
		MaxSteps:          cfg.MaxSteps,
		MaxCallStackDepth: cfg.MaxCallStackDepth,
	}
	if _, err := th.RunProgram(ctx, prog); err != nil {
		return printError(stdio, fmt.Errorf("runtime error: %w", err))
	}
	return nil
}

// compileSource parses and compiles src, wrapping a returned parse or
// compile error with a prefix naming the phase that failed.
func compileSource(src []byte) (prog *compiler.Program, err error) {
	chunk, err := parser.Parse(src)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	prog, err = compiler.Compile(chunk)
	if err != nil {
		return nil, fmt.Errorf("compile error: %w", err)
	}
	return prog, nil
}
