package parser1

import (
	"github.com/torlang/torc/internal/ast1"
	"github.com/torlang/torc/internal/token"
)

var assignOpOf = map[token.Kind]ast1.AssignOp{
	token.ASSIGN:         ast1.AssignSet,
	token.PLUS_ASSIGN:    ast1.AssignAdd,
	token.MINUS_ASSIGN:   ast1.AssignSub,
	token.STAR_ASSIGN:    ast1.AssignMul,
	token.SLASH_ASSIGN:   ast1.AssignDiv,
	token.PERCENT_ASSIGN: ast1.AssignMod,
}

func isAssignTok(k token.Kind) bool {
	_, ok := assignOpOf[k]
	return ok
}

// parseBlockInto parses `{ stmt* }`, appending parsed statements to an
// already-created scope (used so callers — e.g. function bodies whose
// head already holds synthetic parameter decls, or for-loops whose
// scope also owns the init clause — can share one Scope across the
// clause and the braced body).
func (p *Parser) parseBlockInto(scope *ast1.Scope) *ast1.Scope {
	p.expect(token.LBRACE, "{")
	for p.peek().Kind != token.RBRACE && p.peek().Kind != token.EOF && !p.failed {
		st := p.parseStatement(scope)
		if st != nil {
			scope.Body = append(scope.Body, st)
		}
	}
	p.expect(token.RBRACE, "}")
	return scope
}

func (p *Parser) parseBlock(parent *ast1.Scope) *ast1.Scope {
	return p.parseBlockInto(ast1.NewScope(parent))
}

func (p *Parser) parseStatement(scope *ast1.Scope) *ast1.Stmt {
	t := p.peek()
	switch t.Kind {
	case token.LBRACE:
		sc := p.parseBlock(scope)
		return &ast1.Stmt{Kind: ast1.SScope, Tok: t, Scope: sc}
	case token.KW_IF:
		return p.parseIf(scope)
	case token.KW_WHILE:
		return p.parseWhile(scope)
	case token.KW_FOR:
		return p.parseFor(scope)
	case token.KW_SWITCH:
		return p.parseSwitch(scope)
	case token.KW_RETURN:
		return p.parseReturn(scope)
	case token.KW_DEFER:
		return p.parseDefer(scope)
	case token.KW_BREAK:
		p.pop()
		p.expect(token.SEMI, ";")
		return &ast1.Stmt{Kind: ast1.SBreak, Tok: t}
	case token.KW_CONTINUE:
		p.pop()
		p.expect(token.SEMI, ";")
		return &ast1.Stmt{Kind: ast1.SContinue, Tok: t}
	case token.KW_FALL:
		p.pop()
		p.expect(token.SEMI, ";")
		return &ast1.Stmt{Kind: ast1.SFall, Tok: t}
	case token.KW_RAW_C, token.KW_RAW_IR:
		return p.parseRawStmt()
	case token.SEMI:
		p.pop()
		return nil
	default:
		if p.looksLikeLocalVarDecl() {
			return p.parseLocalVarStmt(scope)
		}
		return p.parseExprOrAssignStmt(scope)
	}
}

// looksLikeLocalVarDecl disambiguates a local variable declaration
// from an expression/assignment statement by speculatively scanning
// a type-then-identifier shape and rewinding.
func (p *Parser) looksLikeLocalVarDecl() bool {
	save := p.ts.Pos()
	defer p.ts.SetPos(save)

	for {
		k := p.peek().Kind
		if k == token.KW_CONST || k == token.KW_VOLATILE || k == token.KW_EXTERN {
			p.pop()
			continue
		}
		break
	}
	k := p.peek().Kind
	if !(isPrimitiveKw(k) || k == token.KW_AUTO || k == token.IDENT) {
		return false
	}
	p.pop()
	for {
		switch p.peek().Kind {
		case token.STAR:
			p.pop()
			continue
		case token.LBRACKET:
			depth := 0
			for {
				t := p.pop()
				if t.Kind == token.LBRACKET {
					depth++
				} else if t.Kind == token.RBRACKET {
					depth--
					if depth == 0 {
						break
					}
				} else if t.Kind == token.EOF || t.Kind == token.NONE {
					return false
				}
			}
			continue
		}
		break
	}
	return p.peek().Kind == token.IDENT
}

func (p *Parser) parseLocalVarStmt(scope *ast1.Scope) *ast1.Stmt {
	_, isConst, isVolatile, isExtern := p.parseModifiers()
	typ := p.parseType()
	nameTok := p.expect(token.IDENT, "variable name")
	var init *ast1.Expr
	if p.peek().Kind == token.ASSIGN {
		p.pop()
		init = p.parseExpressionScoped(1, scope)
	}
	p.expect(token.SEMI, ";")
	d := &ast1.Decl{Kind: ast1.DVar, Tok: nameTok, Name: nameTok.Text, VarType: typ, InitExpr: init,
		IsConst: isConst, IsVolatile: isVolatile, IsExtern: isExtern}
	return &ast1.Stmt{Kind: ast1.SDecl, Tok: nameTok, Decl: d}
}

func (p *Parser) parseExprOrAssignStmt(scope *ast1.Scope) *ast1.Stmt {
	lhs := p.parseExpressionScoped(1, scope)
	t := p.peek()
	if isAssignTok(t.Kind) {
		p.pop()
		rhs := p.parseExpressionScoped(1, scope)
		p.expect(token.SEMI, ";")
		return &ast1.Stmt{Kind: ast1.SAssign, Tok: t, AssignOp: assignOpOf[t.Kind], LHS: lhs, RHS: rhs}
	}
	p.expect(token.SEMI, ";")
	return &ast1.Stmt{Kind: ast1.SExpr, Tok: lhs.GetToken(), Expr: lhs}
}

// parseForStep parses the update clause of `for`, one of the
// assignment forms permitted there without a trailing ';' (spec.md
// §4.2 "Assignment forms").
func (p *Parser) parseForStep(scope *ast1.Scope) *ast1.Stmt {
	lhs := p.parseExpressionScoped(1, scope)
	t := p.peek()
	if isAssignTok(t.Kind) {
		p.pop()
		rhs := p.parseExpressionScoped(1, scope)
		return &ast1.Stmt{Kind: ast1.SAssign, Tok: t, AssignOp: assignOpOf[t.Kind], LHS: lhs, RHS: rhs}
	}
	return &ast1.Stmt{Kind: ast1.SExpr, Tok: lhs.GetToken(), Expr: lhs}
}

func (p *Parser) parseIf(scope *ast1.Scope) *ast1.Stmt {
	kw := p.pop()
	p.expect(token.LPAREN, "(")
	cond := p.parseExpressionScoped(1, scope)
	p.expect(token.RPAREN, ")")
	thenScope := p.parseBlock(scope)
	var elseScope *ast1.Scope
	if p.peek().Kind == token.KW_ELSE {
		p.pop()
		if p.peek().Kind == token.KW_IF {
			nested := p.parseIf(scope)
			elseScope = ast1.NewScope(scope)
			elseScope.Body = []*ast1.Stmt{nested}
		} else {
			elseScope = p.parseBlock(scope)
		}
	}
	return &ast1.Stmt{Kind: ast1.SIf, Tok: kw, Cond: cond, Then: thenScope, Else: elseScope}
}

func (p *Parser) parseWhile(scope *ast1.Scope) *ast1.Stmt {
	kw := p.pop()
	p.expect(token.LPAREN, "(")
	cond := p.parseExpressionScoped(1, scope)
	p.expect(token.RPAREN, ")")
	body := p.parseBlock(scope)
	return &ast1.Stmt{Kind: ast1.SWhile, Tok: kw, Cond: cond, Then: body}
}

func (p *Parser) parseFor(scope *ast1.Scope) *ast1.Stmt {
	kw := p.pop()
	p.expect(token.LPAREN, "(")
	// clauseScope holds the init variable (if any), visible to the
	// condition, step, and body via the chain but never re-declared per
	// iteration; the body gets its own child scope so its own locals
	// stay fresh to each pass without leaking into the clause.
	clauseScope := ast1.NewScope(scope)

	var initStmt *ast1.Stmt
	if p.peek().Kind != token.SEMI {
		if p.looksLikeLocalVarDecl() {
			initStmt = p.parseLocalVarStmt(clauseScope)
			clauseScope.Body = append(clauseScope.Body, initStmt)
		} else {
			initStmt = p.parseExprOrAssignStmt(clauseScope)
		}
	} else {
		p.pop()
	}

	cond := p.parseExpressionScoped(1, clauseScope)
	p.expect(token.SEMI, ";")

	var stepStmt *ast1.Stmt
	if p.peek().Kind != token.RPAREN {
		stepStmt = p.parseForStep(clauseScope)
	}
	p.expect(token.RPAREN, ")")

	body := p.parseBlockInto(ast1.NewScope(clauseScope))
	return &ast1.Stmt{Kind: ast1.SFor, Tok: kw, Cond: cond, ForInit: initStmt, ForStep: stepStmt, Then: body}
}

func (p *Parser) parseSwitch(scope *ast1.Scope) *ast1.Stmt {
	kw := p.pop()
	p.expect(token.LPAREN, "(")
	cond := p.parseExpressionScoped(1, scope)
	p.expect(token.RPAREN, ")")
	p.expect(token.LBRACE, "{")

	var cases []*ast1.SwitchCase
	for p.peek().Kind != token.RBRACE && p.peek().Kind != token.EOF && !p.failed {
		switch p.peek().Kind {
		case token.KW_CASE:
			p.pop()
			var vals []*ast1.Expr
			for {
				vals = append(vals, p.parseExpressionScoped(1, scope))
				if p.peek().Kind == token.COMMA {
					p.pop()
					continue
				}
				break
			}
			p.expect(token.COLON, ":")
			body := ast1.NewScope(scope)
			fall := p.parseCaseBody(body)
			cases = append(cases, &ast1.SwitchCase{Values: vals, Body: body, Fall: fall})
		case token.KW_DEFAULT:
			p.pop()
			p.expect(token.COLON, ":")
			body := ast1.NewScope(scope)
			fall := p.parseCaseBody(body)
			cases = append(cases, &ast1.SwitchCase{IsDefault: true, Body: body, Fall: fall})
		default:
			p.expect(token.KW_CASE, "'case' or 'default'")
			return &ast1.Stmt{Kind: ast1.SSwitch, Tok: kw, Cond: cond, SwitchCases: cases}
		}
	}
	p.expect(token.RBRACE, "}")
	return &ast1.Stmt{Kind: ast1.SSwitch, Tok: kw, Cond: cond, SwitchCases: cases}
}

func (p *Parser) parseCaseBody(body *ast1.Scope) (fall bool) {
	for p.peek().Kind != token.KW_CASE && p.peek().Kind != token.KW_DEFAULT &&
		p.peek().Kind != token.RBRACE && p.peek().Kind != token.EOF && !p.failed {
		st := p.parseStatement(body)
		if st == nil {
			continue
		}
		body.Body = append(body.Body, st)
		if st.Kind == ast1.SFall {
			fall = true
		}
	}
	return fall
}

func (p *Parser) parseReturn(scope *ast1.Scope) *ast1.Stmt {
	kw := p.pop()
	var val *ast1.Expr
	if p.peek().Kind != token.SEMI {
		val = p.parseExpressionScoped(1, scope)
	}
	p.expect(token.SEMI, ";")
	return &ast1.Stmt{Kind: ast1.SReturn, Tok: kw, Expr: val}
}

func (p *Parser) parseDefer(scope *ast1.Scope) *ast1.Stmt {
	kw := p.pop()
	val := p.parseExpressionScoped(1, scope)
	p.expect(token.SEMI, ";")
	return &ast1.Stmt{Kind: ast1.SDefer, Tok: kw, Expr: val}
}

func (p *Parser) parseRawStmt() *ast1.Stmt {
	kw := p.pop()
	p.expect(token.LBRACE, "{")
	depth := 1
	var text []byte
	for depth > 0 {
		t := p.pop()
		if t.Kind == token.LBRACE {
			depth++
		} else if t.Kind == token.RBRACE {
			depth--
			if depth == 0 {
				break
			}
		} else if t.Kind == token.EOF || t.Kind == token.NONE {
			break
		}
		text = append(text, []byte(t.Text)...)
		text = append(text, ' ')
	}
	kind := ast1.SRawC
	if kw.Kind == token.KW_RAW_IR {
		kind = ast1.SRawIR
	}
	return &ast1.Stmt{Kind: kind, Tok: kw, RawText: string(text)}
}
