package parser1

import (
	"github.com/torlang/torc/internal/ast1"
	"github.com/torlang/torc/internal/diagnostics"
	"github.com/torlang/torc/internal/fold"
	"github.com/torlang/torc/internal/token"
)

var primKw = map[token.Kind]ast1.PrimKind{
	token.KW_I8: ast1.PI8, token.KW_I16: ast1.PI16, token.KW_I32: ast1.PI32, token.KW_I64: ast1.PI64,
	token.KW_U8: ast1.PU8, token.KW_U16: ast1.PU16, token.KW_U32: ast1.PU32, token.KW_U64: ast1.PU64,
	token.KW_F32: ast1.PF32, token.KW_F64: ast1.PF64, token.KW_BOOL: ast1.PBool, token.KW_VOID: ast1.PVoid,
}

// parseType parses a base type followed by any number of trailing
// '*' (pointer) and '[...]'/'[]' (array/slice) modifiers, applied
// right-to-left onto the base as each modifier is read left-to-right
// (so `i32[3]*` parses as pointer-to-array-of-3-i32, matching how the
// trailing modifiers are written after the base type name).
func (p *Parser) parseType() *ast1.Type {
	tok := p.peek()
	var base *ast1.Type

	switch {
	case tok.Kind == token.KW_AUTO:
		p.pop()
		base = &ast1.Type{Kind: ast1.TAuto, TypeSize: -1, TypeAlign: -1, ArrLenVal: -1, Tok: tok}
	case isPrimitiveKw(tok.Kind):
		p.pop()
		base = ast1.NewPrimitive(primKw[tok.Kind])
		base.Tok = tok
	case tok.Kind == token.IDENT:
		p.pop()
		modName := ""
		name := tok.Text
		if p.peek().Kind == token.DOT {
			// foreign reference: module.Name
			p.pop()
			nt := p.expect(token.IDENT, "type name after '.'")
			modName = name
			name = nt.Text
		}
		base = ast1.NewUnresolved(ast1.TName)
		if modName != "" {
			base.Kind = ast1.TForeign
			base.ModName = modName
		}
		base.Name = name
		base.Tok = tok
	default:
		p.err(diagnostics.Newf(diagnostics.ErrUnexpectedToken, tok, "expected a type"))
		return ast1.NewUnresolved(ast1.TNone)
	}

	for {
		switch p.peek().Kind {
		case token.STAR:
			p.pop()
			ptr := ast1.NewUnresolved(ast1.TPointer)
			ptr.Direct = base
			ptr.Tok = tok
			base = ptr
		case token.LBRACKET:
			p.pop()
			if p.peek().Kind == token.RBRACKET {
				p.pop()
				sl := ast1.NewUnresolved(ast1.TSlice)
				sl.Direct = base
				sl.Tok = tok
				base = sl
				continue
			}
			lenExpr := p.parseExpression(1)
			p.expect(token.RBRACKET, "]")
			arr := ast1.NewUnresolved(ast1.TArray)
			arr.Direct = base
			arr.ArrLen = lenExpr
			arr.Tok = tok
			if lenExpr != nil && lenExpr.Kind == ast1.ELiteral && lenExpr.Lit.Kind == token.LitInt {
				arr.ArrLenVal = lenExpr.Lit.I
			}
			base = arr
		default:
			return base
		}
	}
}

// tryFoldArrayLen folds an unresolved array-length subexpression
// against currently visible `define` constants (SPEC_FULL.md §4:
// "any compile-time foldable expression"). Called from refoldType in
// pass 2, once every top-level constant has been declared.
func (p *Parser) tryFoldArrayLen(t *ast1.Type, fold func(*ast1.Expr) (token.Literal, *diagnostics.Diagnostic)) {
	if t == nil || t.Kind != ast1.TArray || t.ArrLenVal >= 0 || t.ArrLen == nil {
		return
	}
	lit, err := fold(t.ArrLen)
	if err != nil {
		p.err(err)
		return
	}
	if lit.Kind == token.LitInt {
		t.ArrLenVal = lit.I
	}
}

// refoldArrayLens retries every struct member's still-unresolved
// array-length expression now that the whole module's `define`s are
// visible (SPEC_FULL.md §4 "module-level const-folded array length
// expressions"): pass 1 folds a `[N]` length eagerly as it parses each
// type, so a length expression naming a `define` declared later in the
// file fails silently at that point; pass 2 runs before struct sizing
// begins and every top-level declaration already exists.
func (p *Parser) refoldArrayLens(structs []*ast1.Decl) {
	f := fold.New(p.currentLookup(nil), p.ms.Cfg.Arch)
	for _, s := range structs {
		for _, mt := range s.MemTypes {
			p.refoldType(mt, f.Fold)
		}
	}
}

// refoldType walks a pointer/array/slice chain retrying each nested
// array length in turn (e.g. `i32[OUTER][INNER]*`).
func (p *Parser) refoldType(t *ast1.Type, fold func(*ast1.Expr) (token.Literal, *diagnostics.Diagnostic)) {
	if t == nil {
		return
	}
	if t.Kind == ast1.TArray && t.ArrLenVal < 0 {
		p.tryFoldArrayLen(t, fold)
	}
	p.refoldType(t.Direct, fold)
}
