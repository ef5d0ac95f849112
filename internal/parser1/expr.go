package parser1

import (
	"github.com/torlang/torc/internal/ast1"
	"github.com/torlang/torc/internal/diagnostics"
	"github.com/torlang/torc/internal/fold"
	"github.com/torlang/torc/internal/token"
)

// precedence table, spec.md §4.2 "Expressions are parsed by a Pratt
// algorithm with these precedences".
const (
	precNone    = 0
	precTernary = 1
	precOr      = 2
	precAnd     = 3
	precBitOr   = 4
	precBitXor  = 5
	precBitAnd  = 6
	precEq      = 7
	precRel     = 8
	precShift   = 9
	precAdd     = 10
	precMul     = 11
	precPrefix  = 15
	precPostfix = 20
)

func infixPrec(k token.Kind) int {
	switch k {
	case token.OROR:
		return precOr
	case token.ANDAND:
		return precAnd
	case token.PIPE:
		return precBitOr
	case token.CARET:
		return precBitXor
	case token.AMP:
		return precBitAnd
	case token.EQ, token.NE:
		return precEq
	case token.LT, token.LE, token.GT, token.GE:
		return precRel
	case token.SHL, token.SHR:
		return precShift
	case token.PLUS, token.MINUS:
		return precAdd
	case token.STAR, token.SLASH, token.PERCENT:
		return precMul
	case token.QUESTION:
		return precTernary
	case token.DOT, token.LPAREN, token.LBRACKET:
		return precPostfix
	}
	return precNone
}

var binOpOf = map[token.Kind]ast1.OpKind{
	token.PLUS: ast1.OpAdd, token.MINUS: ast1.OpSub, token.STAR: ast1.OpMul,
	token.SLASH: ast1.OpDiv, token.PERCENT: ast1.OpMod,
	token.SHL: ast1.OpShl, token.SHR: ast1.OpShr,
	token.LT: ast1.OpLt, token.LE: ast1.OpLe, token.GT: ast1.OpGt, token.GE: ast1.OpGe,
	token.EQ: ast1.OpEq, token.NE: ast1.OpNe,
	token.AMP: ast1.OpBitAnd, token.CARET: ast1.OpBitXor, token.PIPE: ast1.OpBitOr,
	token.ANDAND: ast1.OpAnd, token.OROR: ast1.OpOr,
}

// currentLookup returns the name resolver for the folder, honoring
// the active lexical scope (if any) before falling back to the
// module's toplevel index.
func (p *Parser) currentLookup(scope *ast1.Scope) fold.NameLookup {
	return func(name string) (*ast1.Decl, bool) {
		if scope != nil {
			if d, ok := scope.Lookup(name); ok {
				return d, true
			}
		}
		return p.mod.Find(name)
	}
}

// tryFold offers e to the constant folder; on success it is replaced
// by a literal node preserving location (spec.md §4.2: "After
// parsing, every subtree is offered to the folder... the subtree is
// replaced by a literal carrying that value while preserving
// location").
func (p *Parser) tryFold(e *ast1.Expr, scope *ast1.Scope) *ast1.Expr {
	if e == nil {
		return nil
	}
	f := fold.New(p.currentLookup(scope), p.ms.Cfg.Arch)
	lit, diag := f.Fold(e)
	if diag != nil {
		p.err(diag)
		return e
	}
	if lit.IsNone() {
		return e
	}
	return ast1.NewLiteral(e.Tok, lit)
}

// parseExpression parses an expression at the given minimum
// precedence, Pratt-style, folding every subtree once built.
func (p *Parser) parseExpression(minPrec int) *ast1.Expr {
	return p.parseExpressionScoped(minPrec, nil)
}

func (p *Parser) parseExpressionScoped(minPrec int, scope *ast1.Scope) *ast1.Expr {
	left := p.parsePrefix(scope)
	for {
		t := p.peek()
		prec := infixPrec(t.Kind)
		if prec == precNone || prec < minPrec {
			return left
		}
		switch t.Kind {
		case token.DOT:
			left = p.parseMember(left, scope)
		case token.LPAREN:
			left = p.parseCall(left, scope)
		case token.LBRACKET:
			left = p.parseIndexOrSlice(left, scope)
		case token.QUESTION:
			left = p.parseTernary(left, scope)
		default:
			op, ok := binOpOf[t.Kind]
			if !ok {
				return left
			}
			p.pop()
			// all binary operators are left-associative: the right
			// operand parses at prec+1 so equal-precedence chains
			// group left.
			right := p.parseExpressionScoped(prec+1, scope)
			left = p.tryFold(&ast1.Expr{Kind: ast1.EOperation, Tok: t, Op: op, A: left, B: right}, scope)
		}
	}
}

// parseTernary is right-associative: `cond ? then : else` where
// `else` itself parses at the ternary's own precedence so chained
// ternaries group right.
func (p *Parser) parseTernary(cond *ast1.Expr, scope *ast1.Scope) *ast1.Expr {
	qTok := p.pop() // '?'
	then := p.parseExpressionScoped(precTernary, scope)
	p.expect(token.COLON, ":")
	els := p.parseExpressionScoped(precTernary, scope)
	return p.tryFold(&ast1.Expr{Kind: ast1.EOperation, Tok: qTok, Op: ast1.OpTernary, A: cond, B: then, C: els}, scope)
}

func (p *Parser) parseMember(base *ast1.Expr, scope *ast1.Scope) *ast1.Expr {
	dot := p.pop()
	name := p.expect(token.IDENT, "member name after '.'")
	e := &ast1.Expr{Kind: ast1.EOperation, Tok: dot, Op: ast1.OpMember, A: base, Name: name.Text}
	return p.tryFold(e, scope)
}

func (p *Parser) parseCall(callee *ast1.Expr, scope *ast1.Scope) *ast1.Expr {
	lp := p.pop()
	var args []*ast1.Expr
	if p.peek().Kind != token.RPAREN {
		for {
			args = append(args, p.parseExpressionScoped(1, scope))
			if p.peek().Kind == token.COMMA {
				p.pop()
				continue
			}
			break
		}
	}
	p.expect(token.RPAREN, ")")
	return &ast1.Expr{Kind: ast1.ECall, Tok: lp, Callee: callee, Args: args}
}

func (p *Parser) parseIndexOrSlice(base *ast1.Expr, scope *ast1.Scope) *ast1.Expr {
	lb := p.pop()
	if p.peek().Kind == token.COLON {
		p.pop()
		var hi *ast1.Expr
		if p.peek().Kind != token.RBRACKET {
			hi = p.parseExpressionScoped(1, scope)
		}
		p.expect(token.RBRACKET, "]")
		return &ast1.Expr{Kind: ast1.EOperation, Tok: lb, Op: ast1.OpSlice, A: base, B: nil, C: hi}
	}
	first := p.parseExpressionScoped(1, scope)
	if p.peek().Kind == token.COLON {
		p.pop()
		var hi *ast1.Expr
		if p.peek().Kind != token.RBRACKET {
			hi = p.parseExpressionScoped(1, scope)
		}
		p.expect(token.RBRACKET, "]")
		return &ast1.Expr{Kind: ast1.EOperation, Tok: lb, Op: ast1.OpSlice, A: base, B: first, C: hi}
	}
	p.expect(token.RBRACKET, "]")
	return p.tryFold(&ast1.Expr{Kind: ast1.EOperation, Tok: lb, Op: ast1.OpIndex, A: base, B: first}, scope)
}

func (p *Parser) parsePrefix(scope *ast1.Scope) *ast1.Expr {
	t := p.peek()
	switch t.Kind {
	case token.PLUS:
		p.pop()
		return p.tryFold(&ast1.Expr{Kind: ast1.EOperation, Tok: t, Op: ast1.OpPos, A: p.parseExpressionScoped(precPrefix, scope)}, scope)
	case token.MINUS:
		p.pop()
		return p.tryFold(&ast1.Expr{Kind: ast1.EOperation, Tok: t, Op: ast1.OpNeg, A: p.parseExpressionScoped(precPrefix, scope)}, scope)
	case token.BANG:
		p.pop()
		return p.tryFold(&ast1.Expr{Kind: ast1.EOperation, Tok: t, Op: ast1.OpNot, A: p.parseExpressionScoped(precPrefix, scope)}, scope)
	case token.TILDE:
		p.pop()
		return p.tryFold(&ast1.Expr{Kind: ast1.EOperation, Tok: t, Op: ast1.OpBitNot, A: p.parseExpressionScoped(precPrefix, scope)}, scope)
	case token.STAR:
		p.pop()
		return &ast1.Expr{Kind: ast1.EOperation, Tok: t, Op: ast1.OpDeref, A: p.parseExpressionScoped(precPrefix, scope)}
	case token.AMP:
		p.pop()
		return &ast1.Expr{Kind: ast1.EOperation, Tok: t, Op: ast1.OpAddr, A: p.parseExpressionScoped(precPrefix, scope)}
	case token.KW_SIZEOF:
		return p.parseSizeof(scope)
	case token.KW_LEN:
		return p.parseLen(scope)
	case token.KW_CAST:
		return p.parseCast(scope)
	case token.KW_MAKE:
		return p.parseMake(scope)
	case token.LPAREN:
		p.pop()
		e := p.parseExpressionScoped(1, scope)
		p.expect(token.RPAREN, ")")
		return e
	case token.IDENT:
		p.pop()
		return &ast1.Expr{Kind: ast1.EName, Tok: t, Name: t.Text}
	case token.INT, token.FLOAT, token.STRING:
		p.pop()
		return ast1.NewLiteral(t, t.Literal)
	case token.KW_TRUE:
		p.pop()
		return ast1.NewLiteral(t, token.Literal{Kind: token.LitBool, B: true})
	case token.KW_FALSE:
		p.pop()
		return ast1.NewLiteral(t, token.Literal{Kind: token.LitBool, B: false})
	case token.KW_NULLPTR:
		p.pop()
		return ast1.NewLiteral(t, token.Literal{Kind: token.LitNullptr})
	case token.LBRACE:
		return p.parseLiteralData(scope)
	default:
		p.err(diagnostics.Newf(diagnostics.ErrUnexpectedToken, t, "unexpected token %q in expression", t.Text))
		p.pop()
		return &ast1.Expr{Kind: ast1.ELiteral, Tok: t, Lit: token.Literal{Kind: token.LitNone}}
	}
}

// parseLiteralData parses an aggregate literal `{ e1, e2, ... }`
// (array or struct initializer; positional, spec.md §3 "literal_data").
func (p *Parser) parseLiteralData(scope *ast1.Scope) *ast1.Expr {
	lb := p.pop()
	var elems []*ast1.Expr
	if p.peek().Kind != token.RBRACE {
		for {
			elems = append(elems, p.parseExpressionScoped(1, scope))
			if p.peek().Kind == token.COMMA {
				p.pop()
				continue
			}
			break
		}
	}
	p.expect(token.RBRACE, "}")
	return &ast1.Expr{Kind: ast1.ELiteralData, Tok: lb, Elems: elems}
}

func (p *Parser) parseSizeof(scope *ast1.Scope) *ast1.Expr {
	kw := p.pop()
	p.expect(token.LPAREN, "(")
	e := &ast1.Expr{Kind: ast1.EOperation, Tok: kw, Op: ast1.OpSizeof}
	if p.looksLikeType() {
		e.TypeOperand = p.parseType()
	} else {
		e.A = p.parseExpressionScoped(1, scope)
	}
	p.expect(token.RPAREN, ")")
	return p.tryFold(e, scope)
}

func (p *Parser) parseLen(scope *ast1.Scope) *ast1.Expr {
	kw := p.pop()
	p.expect(token.LPAREN, "(")
	a := p.parseExpressionScoped(1, scope)
	p.expect(token.RPAREN, ")")
	return &ast1.Expr{Kind: ast1.EOperation, Tok: kw, Op: ast1.OpLen, A: a}
}

func (p *Parser) parseCast(scope *ast1.Scope) *ast1.Expr {
	kw := p.pop()
	p.expect(token.LT, "<")
	typ := p.parseType()
	p.expect(token.GT, ">")
	p.expect(token.LPAREN, "(")
	a := p.parseExpressionScoped(1, scope)
	p.expect(token.RPAREN, ")")
	return &ast1.Expr{Kind: ast1.EOperation, Tok: kw, Op: ast1.OpCast, TypeOperand: typ, A: a}
}

func (p *Parser) parseMake(scope *ast1.Scope) *ast1.Expr {
	kw := p.pop()
	p.expect(token.LPAREN, "(")
	a := p.parseExpressionScoped(1, scope)
	p.expect(token.COMMA, ",")
	b := p.parseExpressionScoped(1, scope)
	p.expect(token.RPAREN, ")")
	return &ast1.Expr{Kind: ast1.EOperation, Tok: kw, Op: ast1.OpMake, A: a, B: b}
}

// looksLikeType reports whether the upcoming tokens begin a type
// rather than an expression, disambiguating `sizeof(T)` vs
// `sizeof(expr)` (SPEC_FULL.md §4 "sizeof on an expression").
func (p *Parser) looksLikeType() bool {
	t := p.peek()
	if isPrimitiveKw(t.Kind) || t.Kind == token.KW_AUTO {
		return true
	}
	if t.Kind != token.IDENT {
		return false
	}
	// IDENT starting a type is only unambiguous when followed by
	// '*', '[' or ')'; otherwise (including a `mod.Name` foreign
	// reference) treat as an expression and let elaboration resolve it.
	switch p.peekAt(1).Kind {
	case token.STAR, token.LBRACKET, token.RPAREN:
		return true
	}
	return false
}
