package analyzer

import (
	"github.com/torlang/torc/internal/ast1"
	"github.com/torlang/torc/internal/ast2"
)

// elaborateBody elaborates every statement of a1Body into scope (which
// the caller may already have pre-populated, e.g. with a function's
// parameter decls — mirroring parser1.parseBlockInto's "append into an
// already-created scope" shape) and returns scope itself.
func (b *Builder) elaborateBody(mod *ast1.Module, scope *ast2.Scope, a1Body *ast1.Scope) *ast2.Scope {
	if a1Body == nil {
		return scope
	}
	for _, st := range a1Body.Body {
		if ns := b.elaborateStmt(mod, scope, st); ns != nil {
			scope.Body = append(scope.Body, ns)
		}
	}
	return scope
}

// elaborateChildBlock elaborates a1Body into a fresh child scope of
// parent.
func (b *Builder) elaborateChildBlock(mod *ast1.Module, parent *ast2.Scope, a1Body *ast1.Scope) *ast2.Scope {
	return b.elaborateBody(mod, ast2.NewScope(parent), a1Body)
}

func (b *Builder) elaborateStmt(mod *ast1.Module, scope *ast2.Scope, st *ast1.Stmt) *ast2.Stmt {
	if st == nil {
		return nil
	}
	switch st.Kind {
	case ast1.SRawC:
		return &ast2.Stmt{Kind: ast2.SRawC, Tok: st.Tok, RawText: st.RawText}
	case ast1.SRawIR:
		return &ast2.Stmt{Kind: ast2.SRawIR, Tok: st.Tok, RawText: st.RawText}
	case ast1.SExpr:
		return &ast2.Stmt{Kind: ast2.SExpr, Tok: st.Tok, Expr: b.elaborateExpr(mod, scope, st.Expr)}
	case ast1.SDecl:
		d := b.elaborateVar(mod, st.Decl, scope)
		return &ast2.Stmt{Kind: ast2.SDecl, Tok: st.Tok, Decl: d}
	case ast1.SAssign:
		return b.elaborateAssign(mod, scope, st)
	case ast1.SReturn:
		var e *ast2.Expr
		if st.Expr != nil {
			e = b.elaborateExpr(mod, scope, st.Expr)
		}
		return &ast2.Stmt{Kind: ast2.SReturn, Tok: st.Tok, Expr: e}
	case ast1.SDefer:
		e := b.elaborateExpr(mod, scope, st.Expr)
		scope.Defers = append(scope.Defers, e)
		return &ast2.Stmt{Kind: ast2.SDefer, Tok: st.Tok, Expr: e}
	case ast1.SBreak:
		return &ast2.Stmt{Kind: ast2.SBreak, Tok: st.Tok}
	case ast1.SContinue:
		return &ast2.Stmt{Kind: ast2.SContinue, Tok: st.Tok}
	case ast1.SFall:
		return &ast2.Stmt{Kind: ast2.SFall, Tok: st.Tok}
	case ast1.SScope:
		return &ast2.Stmt{Kind: ast2.SScope, Tok: st.Tok, Scope: b.elaborateChildBlock(mod, scope, st.Scope)}
	case ast1.SIf:
		ns := &ast2.Stmt{Kind: ast2.SIf, Tok: st.Tok, Cond: b.elaborateExpr(mod, scope, st.Cond)}
		ns.Then = b.elaborateChildBlock(mod, scope, st.Then)
		if st.Else != nil {
			ns.Else = b.elaborateChildBlock(mod, scope, st.Else)
		}
		return ns
	case ast1.SWhile:
		ns := &ast2.Stmt{Kind: ast2.SWhile, Tok: st.Tok, Cond: b.elaborateExpr(mod, scope, st.Cond)}
		ns.Then = b.elaborateChildBlock(mod, scope, st.Then)
		return ns
	case ast1.SFor:
		return b.elaborateFor(mod, scope, st)
	case ast1.SSwitch:
		return b.elaborateSwitch(mod, scope, st)
	default:
		return nil
	}
}

func (b *Builder) elaborateAssign(mod *ast1.Module, scope *ast2.Scope, st *ast1.Stmt) *ast2.Stmt {
	return &ast2.Stmt{
		Kind:     ast2.SAssign,
		Tok:      st.Tok,
		AssignOp: ast2.AssignOp(st.AssignOp),
		LHS:      b.elaborateExpr(mod, scope, st.LHS),
		RHS:      b.elaborateExpr(mod, scope, st.RHS),
	}
}

// elaborateFor rebuilds the clause/body scope split parser1 produces
// (the init declaration is visible to cond/step/body, but runs once —
// unlike a per-iteration body local): the clause is its own ast2.Scope,
// the braced body a fresh child of it, matching st.Then's structure one
// for one.
func (b *Builder) elaborateFor(mod *ast1.Module, scope *ast2.Scope, st *ast1.Stmt) *ast2.Stmt {
	clause := ast2.NewScope(scope)
	var initStmt *ast2.Stmt
	if st.ForInit != nil {
		initStmt = b.elaborateStmt(mod, clause, st.ForInit)
		if initStmt != nil && initStmt.Kind == ast2.SDecl {
			clause.Body = append(clause.Body, initStmt)
		}
	}
	var cond *ast2.Expr
	if st.Cond != nil {
		cond = b.elaborateExpr(mod, clause, st.Cond)
	}
	var stepStmt *ast2.Stmt
	if st.ForStep != nil {
		stepStmt = b.elaborateStmt(mod, clause, st.ForStep)
	}
	body := b.elaborateChildBlock(mod, clause, st.Then)
	return &ast2.Stmt{Kind: ast2.SFor, Tok: st.Tok, Cond: cond, ForInit: initStmt, ForStep: stepStmt, Then: body}
}

func (b *Builder) elaborateSwitch(mod *ast1.Module, scope *ast2.Scope, st *ast1.Stmt) *ast2.Stmt {
	ns := &ast2.Stmt{Kind: ast2.SSwitch, Tok: st.Tok, Cond: b.elaborateExpr(mod, scope, st.Cond)}
	for _, c := range st.SwitchCases {
		nc := &ast2.SwitchCase{IsDefault: c.IsDefault, Fall: c.Fall}
		for _, v := range c.Values {
			nc.Values = append(nc.Values, b.elaborateExpr(mod, scope, v))
		}
		nc.Body = b.elaborateChildBlock(mod, scope, c.Body)
		ns.SwitchCases = append(ns.SwitchCases, nc)
	}
	return ns
}
