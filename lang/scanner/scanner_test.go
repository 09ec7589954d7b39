package scanner_test

import (
	"testing"

	"github.com/rillscript/rill/lang/scanner"
	"github.com/rillscript/rill/lang/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scan(t *testing.T, src string) []scanner.TokenInfo {
	t.Helper()
	toks, err := scanner.ScanAll([]byte(src))
	require.NoError(t, err)
	return toks
}

func toks(ti []scanner.TokenInfo) []token.Token {
	out := make([]token.Token, len(ti))
	for i, t := range ti {
		out[i] = t.Tok
	}
	return out
}

func TestScanPunctAndKeywords(t *testing.T) {
	ti := scan(t, "let x = 1 + 2\n")
	assert.Equal(t, []token.Token{
		token.LET, token.IDENT, token.EQ, token.NUMBER, token.PLUS, token.NUMBER, token.NEWLINE, token.EOF,
	}, toks(ti))
}

func TestScanAugmentedAssignAndIncDec(t *testing.T) {
	cases := map[string]token.Token{
		"+=": token.PLUS_EQ, "-=": token.MINUS_EQ, "*=": token.STAR_EQ,
		"/=": token.SLASH_EQ, "%=": token.PERCENT_EQ, "**=": token.STARSTAR_EQ,
		"++": token.INC, "--": token.DEC,
	}
	for src, want := range cases {
		t.Run(src, func(t *testing.T) {
			ti := scan(t, "x"+src)
			require.Len(t, ti, 3) // IDENT, op, EOF
			assert.Equal(t, want, ti[1].Tok)
		})
	}
}

func TestScanNumbers(t *testing.T) {
	ti := scan(t, "42 3.14 0.5")
	require.Len(t, ti, 4)
	assert.Equal(t, float64(42), ti[0].Num)
	assert.Equal(t, 3.14, ti[1].Num)
	assert.Equal(t, 0.5, ti[2].Num)
}

func TestScanStringEscapes(t *testing.T) {
	ti := scan(t, `"a\nb\tc\u{41}"`)
	require.Len(t, ti, 2)
	assert.Equal(t, "a\nb\tc\x41", ti[0].Lit)
	assert.Equal(t, token.STRING, ti[0].Tok)
}

func TestScanFString(t *testing.T) {
	ti := scan(t, `f"hello {name}!"`)
	require.Len(t, ti, 2)
	assert.Equal(t, token.FSTRING, ti[0].Tok)
	assert.Equal(t, "hello {name}!", ti[0].Lit)
}

func TestScanUnterminatedString(t *testing.T) {
	_, err := scanner.ScanAll([]byte(`"abc`))
	require.Error(t, err)
}

func TestScanComment(t *testing.T) {
	ti := scan(t, "let x = 1 // trailing comment\nlet y = 2")
	assert.Equal(t, []token.Token{
		token.LET, token.IDENT, token.EQ, token.NUMBER, token.NEWLINE,
		token.LET, token.IDENT, token.EQ, token.NUMBER, token.EOF,
	}, toks(ti))
}

func TestScanPositionsAdvanceAcrossLines(t *testing.T) {
	ti := scan(t, "let x = 1\nlet y = 2")
	line, col := ti[5].Pos.LineCol() // second "let", start of line 2
	assert.Equal(t, 2, line)
	assert.Equal(t, 1, col)
}
