// Package parser implements the recursive-descent, precedence-climbing
// parser that transforms scanned tokens into an ast.Chunk.
package parser

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rillscript/rill/lang/ast"
	"github.com/rillscript/rill/lang/scanner"
	"github.com/rillscript/rill/lang/token"
)

// Error describes a single parse error and its position.
type Error struct {
	Pos token.Pos
	Msg string
}

func (e *Error) Error() string {
	line, col := e.Pos.LineCol()
	return fmt.Sprintf("%d:%d: %s", line, col, e.Msg)
}

// ErrorList collects every error found while parsing a single source.
type ErrorList []*Error

func (el ErrorList) Error() string {
	switch len(el) {
	case 0:
		return "no errors"
	case 1:
		return el[0].Error()
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (and %d more errors)", el[0], len(el)-1)
	return sb.String()
}

func (el ErrorList) Err() error {
	if len(el) == 0 {
		return nil
	}
	return el
}

var errPanicMode = errors.New("parser: panic mode")

// Parse tokenizes and parses src, returning the resulting chunk or the
// accumulated errors.
func Parse(src []byte) (*ast.Chunk, error) {
	toks, err := scanner.ScanAll(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	p.advance()
	return p.parse()
}

type parser struct {
	toks []scanner.TokenInfo
	pos  int // index into toks of the current token
	cur  scanner.TokenInfo
	errs ErrorList
}

func (p *parser) parse() (chunk *ast.Chunk, err error) {
	defer func() {
		if r := recover(); r != nil {
			if r != errPanicMode {
				panic(r)
			}
			err = p.errs.Err()
		}
	}()

	body := p.block(token.EOF)
	if err := p.errs.Err(); err != nil {
		return nil, err
	}
	return &ast.Chunk{Body: body}, nil
}

func (p *parser) advance() {
	if p.pos < len(p.toks) {
		p.cur = p.toks[p.pos]
		p.pos++
	} else {
		p.cur = scanner.TokenInfo{Tok: token.EOF}
	}
}

func (p *parser) error(pos token.Pos, format string, args ...any) {
	p.errs = append(p.errs, &Error{Pos: pos, Msg: fmt.Sprintf(format, args...)})
}

func (p *parser) fail(pos token.Pos, format string, args ...any) {
	p.error(pos, format, args...)
	panic(errPanicMode)
}

func (p *parser) expect(tok token.Token) token.Pos {
	pos := p.cur.Pos
	if p.cur.Tok != tok {
		p.fail(pos, "expected %s, found %s", tok, p.cur.Tok)
	}
	p.advance()
	return pos
}

// skipTerm consumes any run of NEWLINE/SEMI separators.
func (p *parser) skipTerm() {
	for p.cur.Tok == token.NEWLINE || p.cur.Tok == token.SEMI {
		p.advance()
	}
}

// block parses a sequence of expressions until end is seen (not consumed).
func (p *parser) block(end token.Token) ast.Block {
	var b ast.Block
	p.skipTerm()
	for p.cur.Tok != end && p.cur.Tok != token.EOF {
		b = append(b, p.item())
		p.skipTerm()
	}
	return b
}

func (p *parser) braceBlock() ast.Block {
	p.expect(token.LBRACE)
	b := p.block(token.RBRACE)
	p.expect(token.RBRACE)
	return b
}

// item parses one top-level construct of a block: a let declaration, a
// named function, an if, a return, or an expression statement (which may
// itself be an assignment).
func (p *parser) item() ast.Node {
	switch p.cur.Tok {
	case token.LET:
		return p.declaration()
	case token.FN:
		return p.function()
	case token.IF:
		return p.ifExpr()
	case token.RETURN:
		return p.returnExpr()
	default:
		return p.exprStmt()
	}
}

func (p *parser) declaration() ast.Node {
	pos := p.expect(token.LET)
	name := p.ident()
	var val ast.Node = &ast.NoneLit{PosVal: pos}
	if p.cur.Tok == token.EQ {
		p.advance()
		val = p.expr()
	}
	return &ast.Declaration{PosVal: pos, Name: name, Value: val}
}

func (p *parser) ident() string {
	if p.cur.Tok != token.IDENT {
		p.fail(p.cur.Pos, "expected identifier, found %s", p.cur.Tok)
	}
	name := p.cur.Lit
	p.advance()
	return name
}

func (p *parser) function() ast.Node {
	pos := p.expect(token.FN)
	name := p.ident()
	args := p.paramList()
	body := p.braceBlock()
	return &ast.Function{PosVal: pos, Name: name, Args: args, Body: body}
}

func (p *parser) paramList() []string {
	p.expect(token.LPAREN)
	var args []string
	for p.cur.Tok != token.RPAREN {
		args = append(args, p.ident())
		if p.cur.Tok == token.COMMA {
			p.advance()
			continue
		}
		break
	}
	p.expect(token.RPAREN)
	return args
}

func (p *parser) ifExpr() ast.Node {
	pos := p.expect(token.IF)
	cond := p.expr()
	then := p.braceBlock()
	var otherwise ast.Block
	if p.cur.Tok == token.ELSE {
		p.advance()
		if p.cur.Tok == token.IF {
			otherwise = ast.Block{p.ifExpr()}
		} else {
			otherwise = p.braceBlock()
		}
	}
	return &ast.If{PosVal: pos, Condition: cond, Then: then, Otherwise: otherwise}
}

func (p *parser) returnExpr() ast.Node {
	pos := p.expect(token.RETURN)
	var val ast.Node = &ast.NoneLit{PosVal: pos}
	if !p.atTerm() {
		val = p.expr()
	}
	return &ast.Return{PosVal: pos, Value: val}
}

func (p *parser) atTerm() bool {
	switch p.cur.Tok {
	case token.NEWLINE, token.SEMI, token.RBRACE, token.EOF:
		return true
	}
	return false
}

// exprStmt parses an expression, then checks for a following assignment or
// augmented-assignment operator.
func (p *parser) exprStmt() ast.Node {
	pos := p.cur.Pos
	target := p.expr()

	if p.cur.Tok == token.EQ {
		p.advance()
		val := p.expr()
		return &ast.Assignment{PosVal: pos, Target: target, Value: val}
	}
	if op, ok := p.cur.Tok.AugmentedOp(); ok {
		p.advance()
		rhs := p.expr()
		return &ast.Assignment{PosVal: pos, Target: target, Value: &ast.Op{
			PosVal: pos, Kind: binOpFor(op), Lhs: target, Rhs: rhs,
		}}
	}
	if p.cur.Tok == token.INC || p.cur.Tok == token.DEC {
		kind := ast.OpAdd
		if p.cur.Tok == token.DEC {
			kind = ast.OpSub
		}
		p.advance()
		one := &ast.NumberLit{PosVal: pos, Value: 1}
		return &ast.Assignment{PosVal: pos, Target: target, Value: &ast.Op{
			PosVal: pos, Kind: kind, Lhs: target, Rhs: one,
		}}
	}
	return target
}

func binOpFor(tok token.Token) ast.BinOp {
	switch tok {
	case token.PLUS:
		return ast.OpAdd
	case token.MINUS:
		return ast.OpSub
	case token.STAR:
		return ast.OpMul
	case token.SLASH:
		return ast.OpDiv
	case token.PERCENT:
		return ast.OpMod
	case token.STARSTAR:
		return ast.OpPow
	}
	panic(fmt.Sprintf("parser: unreachable binOpFor(%s)", tok))
}

// expr parses a full expression via precedence climbing, starting at the
// lowest-precedence operator (||).
func (p *parser) expr() ast.Node {
	return p.orExpr()
}

func (p *parser) orExpr() ast.Node {
	lhs := p.andExpr()
	for p.cur.Tok == token.OR_OR {
		pos := p.cur.Pos
		p.advance()
		rhs := p.andExpr()
		lhs = &ast.Op{PosVal: pos, Kind: ast.OpOr, Lhs: lhs, Rhs: rhs}
	}
	return lhs
}

func (p *parser) andExpr() ast.Node {
	lhs := p.eqExpr()
	for p.cur.Tok == token.AND_AND {
		pos := p.cur.Pos
		p.advance()
		rhs := p.eqExpr()
		lhs = &ast.Op{PosVal: pos, Kind: ast.OpAnd, Lhs: lhs, Rhs: rhs}
	}
	return lhs
}

func (p *parser) eqExpr() ast.Node {
	lhs := p.relExpr()
	for p.cur.Tok == token.EQL || p.cur.Tok == token.NEQ {
		pos, tok := p.cur.Pos, p.cur.Tok
		p.advance()
		rhs := p.relExpr()
		kind := ast.OpEq
		if tok == token.NEQ {
			kind = ast.OpNeq
		}
		lhs = &ast.Op{PosVal: pos, Kind: kind, Lhs: lhs, Rhs: rhs}
	}
	return lhs
}

func (p *parser) relExpr() ast.Node {
	lhs := p.addExpr()
	for {
		var kind ast.BinOp
		switch p.cur.Tok {
		case token.LT:
			kind = ast.OpLt
		case token.GT:
			kind = ast.OpGt
		case token.LE:
			kind = ast.OpLte
		case token.GE:
			kind = ast.OpGte
		default:
			return lhs
		}
		pos := p.cur.Pos
		p.advance()
		rhs := p.addExpr()
		lhs = &ast.Op{PosVal: pos, Kind: kind, Lhs: lhs, Rhs: rhs}
	}
}

func (p *parser) addExpr() ast.Node {
	lhs := p.mulExpr()
	for {
		switch p.cur.Tok {
		case token.PLUS, token.MINUS:
			tok := p.cur.Tok
			pos := p.cur.Pos
			p.advance()
			rhs := p.mulExpr()
			kind := ast.OpAdd
			if tok == token.MINUS {
				kind = ast.OpSub
			}
			lhs = &ast.Op{PosVal: pos, Kind: kind, Lhs: lhs, Rhs: rhs}
		case token.DOTDOT:
			pos := p.cur.Pos
			p.advance()
			rhs := p.mulExpr()
			lhs = &ast.Join{PosVal: pos, Lhs: lhs, Rhs: rhs}
		default:
			return lhs
		}
	}
}

func (p *parser) mulExpr() ast.Node {
	lhs := p.powExpr()
	for p.cur.Tok == token.STAR || p.cur.Tok == token.SLASH || p.cur.Tok == token.PERCENT {
		tok := p.cur.Tok
		pos := p.cur.Pos
		p.advance()
		rhs := p.powExpr()
		var kind ast.BinOp
		switch tok {
		case token.STAR:
			kind = ast.OpMul
		case token.SLASH:
			kind = ast.OpDiv
		case token.PERCENT:
			kind = ast.OpMod
		}
		lhs = &ast.Op{PosVal: pos, Kind: kind, Lhs: lhs, Rhs: rhs}
	}
	return lhs
}

// powExpr is right-associative: 2 ** 3 ** 2 == 2 ** (3 ** 2).
func (p *parser) powExpr() ast.Node {
	lhs := p.unaryExpr()
	if p.cur.Tok == token.STARSTAR {
		pos := p.cur.Pos
		p.advance()
		rhs := p.powExpr()
		return &ast.Op{PosVal: pos, Kind: ast.OpPow, Lhs: lhs, Rhs: rhs}
	}
	return lhs
}

func (p *parser) unaryExpr() ast.Node {
	switch p.cur.Tok {
	case token.NOT:
		pos := p.cur.Pos
		p.advance()
		return &ast.Op{PosVal: pos, Kind: ast.OpNot, Lhs: p.unaryExpr()}
	case token.MINUS:
		pos := p.cur.Pos
		p.advance()
		return &ast.Op{PosVal: pos, Kind: ast.OpNeg, Lhs: p.unaryExpr()}
	}
	return p.postfixExpr()
}

func (p *parser) postfixExpr() ast.Node {
	n := p.primary()
	for {
		switch p.cur.Tok {
		case token.LBRACK:
			pos := p.cur.Pos
			p.advance()
			idx := p.expr()
			p.expect(token.RBRACK)
			n = &ast.IndexExpr{PosVal: pos, Item: n, Index: idx}
		case token.LPAREN:
			pos := p.cur.Pos
			args := p.argList()
			n = &ast.Call{PosVal: pos, Callee: n, Args: args}
		default:
			return n
		}
	}
}

func (p *parser) argList() []ast.Node {
	p.expect(token.LPAREN)
	var args []ast.Node
	for p.cur.Tok != token.RPAREN {
		args = append(args, p.expr())
		if p.cur.Tok == token.COMMA {
			p.advance()
			continue
		}
		break
	}
	p.expect(token.RPAREN)
	return args
}

func (p *parser) primary() ast.Node {
	pos := p.cur.Pos
	switch p.cur.Tok {
	case token.NUMBER:
		v := p.cur.Num
		p.advance()
		return &ast.NumberLit{PosVal: pos, Value: v}
	case token.STRING:
		v := p.cur.Lit
		p.advance()
		return &ast.StringLit{PosVal: pos, Value: v}
	case token.FSTRING:
		raw := p.cur.Lit
		p.advance()
		return p.formatString(pos, raw)
	case token.TRUE:
		p.advance()
		return &ast.BoolLit{PosVal: pos, Value: true}
	case token.FALSE:
		p.advance()
		return &ast.BoolLit{PosVal: pos, Value: false}
	case token.NONE:
		p.advance()
		return &ast.NoneLit{PosVal: pos}
	case token.HASH:
		return p.nativeCall()
	case token.IDENT:
		name := p.cur.Lit
		p.advance()
		return &ast.Identifier{PosVal: pos, Name: name}
	case token.LPAREN:
		if p.looksLikeLambda() {
			return p.lambda()
		}
		p.advance()
		n := p.expr()
		p.expect(token.RPAREN)
		return n
	}
	p.fail(pos, "expected expression, found %s", p.cur.Tok)
	return nil
}

// looksLikeLambda reports whether the parenthesized group starting at the
// current LPAREN is followed, after its matching RPAREN, by `=>` — the only
// thing that distinguishes a lambda's parameter list from a grouped
// expression at this point in the grammar.
func (p *parser) looksLikeLambda() bool {
	depth := 0
	for i := p.pos - 1; i < len(p.toks); i++ {
		switch p.toks[i].Tok {
		case token.LPAREN:
			depth++
		case token.RPAREN:
			depth--
			if depth == 0 {
				return i+1 < len(p.toks) && p.toks[i+1].Tok == token.ARROW
			}
		case token.NEWLINE, token.SEMI, token.EOF:
			return false
		}
	}
	return false
}

// lambda parses `(args) => { body }`, used where an expression is expected
// (e.g. as a call argument).
func (p *parser) lambda() ast.Node {
	pos := p.cur.Pos
	args := p.paramList()
	p.expect(token.ARROW)
	body := p.braceBlock()
	return &ast.Lambda{PosVal: pos, Args: args, Body: body}
}

func (p *parser) nativeCall() ast.Node {
	pos := p.expect(token.HASH)
	name := p.ident()
	args := p.argList()
	return &ast.NativeCall{PosVal: pos, Name: name, Args: args}
}

// formatString splits the raw f-string content into literal segments and
// `{expr}` segments, recursively scanning and parsing each embedded
// expression.
func (p *parser) formatString(pos token.Pos, raw string) ast.Node {
	var parts []ast.Node
	var lit strings.Builder
	flush := func() {
		if lit.Len() > 0 {
			parts = append(parts, &ast.StringLit{PosVal: pos, Value: lit.String()})
			lit.Reset()
		}
	}

	i := 0
	for i < len(raw) {
		c := raw[i]
		if c == '{' {
			flush()
			depth := 1
			j := i + 1
			for j < len(raw) && depth > 0 {
				switch raw[j] {
				case '{':
					depth++
				case '}':
					depth--
				}
				if depth > 0 {
					j++
				}
			}
			if depth != 0 {
				p.error(pos, "unterminated {} in format string")
				break
			}
			sub := raw[i+1 : j]
			expr, err := Parse([]byte(sub))
			if err != nil || len(expr.Body) != 1 {
				p.error(pos, "invalid expression in format string: %q", sub)
			} else {
				parts = append(parts, expr.Body[0])
			}
			i = j + 1
			continue
		}
		lit.WriteByte(c)
		i++
	}
	flush()
	return &ast.FormatStringLit{PosVal: pos, Parts: parts}
}
