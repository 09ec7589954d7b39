package stdlib_test

import (
	"bufio"
	"bytes"
	"strings"
	"testing"

	"github.com/rillscript/rill/lang/stdlib"
	"github.com/rillscript/rill/lang/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	nf, ok := stdlib.Lookup("stdout")
	require.True(t, ok)
	assert.Equal(t, stdlib.Stdout, nf)
	assert.Equal(t, 1, nf.Arity())

	_, ok = stdlib.Lookup("not_a_native")
	assert.False(t, ok)
}

func TestStdoutWritesWithoutNewline(t *testing.T) {
	var buf bytes.Buffer
	io_ := &stdlib.IO{Out: &buf, In: bufio.NewReader(strings.NewReader(""))}
	result, err := io_.Call(stdlib.Stdout, []value.Value{value.Number(2)})
	require.NoError(t, err)
	assert.Equal(t, value.None{}, result)
	assert.Equal(t, "2", buf.String())
}

func TestStdinReadsOneLine(t *testing.T) {
	io_ := &stdlib.IO{Out: &bytes.Buffer{}, In: bufio.NewReader(strings.NewReader("hello\nworld\n"))}
	result, err := io_.Call(stdlib.Stdin, nil)
	require.NoError(t, err)
	assert.Equal(t, value.String("hello\n"), result)
}

func TestTimeReturnsNumber(t *testing.T) {
	io_ := stdlib.Default()
	result, err := io_.Call(stdlib.Time, nil)
	require.NoError(t, err)
	_, ok := result.(value.Number)
	assert.True(t, ok)
}
