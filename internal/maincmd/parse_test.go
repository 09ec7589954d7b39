package maincmd_test

import (
	"bytes"
	"context"
	"flag"
	"path/filepath"
	"testing"

	"github.com/mna/mainer"

	"github.com/rillscript/rill/internal/filetest"
	"github.com/rillscript/rill/internal/maincmd"
)

var testUpdateParseTests = flag.Bool("test.update-parse-tests", false, "If set, replace expected parse test results with actual results.")

// TestParseGolden runs the `parse` subcommand over every fixture in
// testdata/in and diffs the printed AST against testdata/out, the same
// fixture-diffing approach the teacher's scanner/parser tests use.
func TestParseGolden(t *testing.T) {
	ctx := context.Background()
	srcDir, resultDir := filepath.Join("testdata", "in"), filepath.Join("testdata", "out")

	var c maincmd.Cmd
	for _, fi := range filetest.SourceFiles(t, srcDir, ".rill") {
		t.Run(fi.Name(), func(t *testing.T) {
			var buf, ebuf bytes.Buffer
			stdio := mainer.Stdio{Stdout: &buf, Stderr: &ebuf}

			_ = c.Parse(ctx, stdio, []string{filepath.Join(srcDir, fi.Name())})
			filetest.DiffOutput(t, fi, buf.String(), resultDir, testUpdateParseTests)
		})
	}
}
