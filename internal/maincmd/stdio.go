package maincmd

import (
	"bufio"

	"github.com/mna/mainer"
)

// newStdinReader wraps stdio's input stream for the native bridge's #stdin
// native, so the CLI (and tests) can redirect it like any other stream.
func newStdinReader(stdio mainer.Stdio) *bufio.Reader {
	return bufio.NewReader(stdio.Stdin)
}
