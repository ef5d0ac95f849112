package lower

import (
	"github.com/torlang/torc/internal/ast1"
	"github.com/torlang/torc/internal/ast2"
	"github.com/torlang/torc/internal/ast3"
	"github.com/torlang/torc/internal/diagnostics"
	"github.com/torlang/torc/internal/typesystem"
)

// lowerScope pushes one entry onto g.defers, holding the expressions
// of every `defer` statement declared directly in this scope, in
// source order. Every return/break/continue compiled out of this
// scope (or a scope nested inside it) re-emits these calls ahead of
// the jump, and they are emitted once more at the end of the scope
// unless its last statement is already a return or jump — the
// original A3Gen calls this compiling defer into
// "duplicated cleanup code ahead of each exit path" rather than
// runtime unwinding, since A3 has no exception machinery to hook.
func (g *Gen) lowerScope(mod *ast2.Module, s *ast2.Scope) *ast3.Scope {
	var defersHere []*ast2.Expr
	for _, st := range s.Body {
		if st.Kind == ast2.SDefer {
			defersHere = append(defersHere, st.Expr)
		}
	}
	g.defers = append(g.defers, defersHere)

	out := ast3.NewScope(nil)
	for _, st := range s.Body {
		if st.Kind == ast2.SDefer {
			continue
		}
		out.Body = append(out.Body, g.lowerStmt(mod, st)...)
	}
	if n := len(out.Body); n == 0 || (out.Body[n-1].Kind != ast3.SReturn && out.Body[n-1].Kind != ast3.SJump) {
		out.Body = append(out.Body, g.flushDefersFrom(mod, len(g.defers)-1)...)
	}

	g.defers = g.defers[:len(g.defers)-1]
	return out
}

// flushDefersFrom duplicates every registered defer call from the
// innermost active scope down to (and including) depth, innermost
// scope first and, within a scope, reverse registration order — the
// usual last-registered-runs-first rule.
func (g *Gen) flushDefersFrom(mod *ast2.Module, depth int) []*ast3.Stmt {
	var out []*ast3.Stmt
	for i := len(g.defers) - 1; i >= depth; i-- {
		list := g.defers[i]
		for j := len(list) - 1; j >= 0; j-- {
			e := g.lowerExpr(mod, list[j])
			out = append(out, g.flush()...)
			out = append(out, &ast3.Stmt{Kind: ast3.SExpr, Tok: e.Tok, Expr: e})
		}
	}
	return out
}

func (g *Gen) lowerStmt(mod *ast2.Module, st *ast2.Stmt) []*ast3.Stmt {
	switch st.Kind {
	case ast2.SRawC:
		return []*ast3.Stmt{{Kind: ast3.SRawC, Tok: st.Tok, RawText: st.RawText}}
	case ast2.SRawIR:
		return []*ast3.Stmt{{Kind: ast3.SRawIR, Tok: st.Tok, RawText: st.RawText}}
	case ast2.SExpr:
		e := g.lowerExpr(mod, st.Expr)
		return append(g.flush(), &ast3.Stmt{Kind: ast3.SExpr, Tok: st.Tok, Expr: e})
	case ast2.SDecl:
		return g.lowerDeclStmt(mod, st)
	case ast2.SAssign:
		return g.lowerAssign(mod, st)
	case ast2.SReturn:
		return g.lowerReturn(mod, st)
	case ast2.SBreak:
		pre := g.flushDefersFrom(mod, g.jumps[len(g.jumps)-1].depth)
		return append(pre, &ast3.Stmt{Kind: ast3.SJump, Tok: st.Tok, Label: g.jumps[len(g.jumps)-1].breakLabel})
	case ast2.SContinue:
		i := len(g.jumps) - 1
		for i > 0 && g.jumps[i].continueLabel == -1 {
			i--
		}
		top := g.jumps[i]
		pre := g.flushDefersFrom(mod, top.depth)
		return append(pre, &ast3.Stmt{Kind: ast3.SJump, Tok: st.Tok, Label: top.continueLabel})
	case ast2.SFall:
		return []*ast3.Stmt{{Kind: ast3.SJump, Tok: st.Tok, Label: g.fallLabel}}
	case ast2.SScope:
		return []*ast3.Stmt{{Kind: ast3.SScope, Tok: st.Tok, Scope: g.lowerScope(mod, st.Scope)}}
	case ast2.SIf:
		return g.lowerIf(mod, st)
	case ast2.SWhile:
		return g.lowerWhile(mod, st)
	case ast2.SFor:
		return g.lowerFor(mod, st)
	case ast2.SSwitch:
		return g.lowerSwitch(mod, st)
	case ast2.SDefer:
		return nil // consumed by the owning scope's defersHere collection
	}
	return nil
}

func (g *Gen) lowerDeclStmt(mod *ast2.Module, st *ast2.Stmt) []*ast3.Stmt {
	if isArrayReturningCall(st.Decl.InitExpr) {
		call := st.Decl.InitExpr
		d := st.Decl
		nd := &ast3.Decl{Kind: ast3.DVar, Uid: g.uid(d), Tok: d.Tok, Name: d.Name, IsExported: d.IsExported,
			VarType: g.convertType(d.VarType), IsConst: d.IsConst, IsExtern: d.IsExtern, IsParam: d.IsParam}
		declStmt := &ast3.Stmt{Kind: ast3.SDecl, Tok: st.Tok, Decl: nd}
		destRef := &ast3.Expr{Kind: ast3.EVarName, Tok: st.Tok, Name: nd.Name, Uid: nd.Uid, ExprType: nd.VarType}
		return append([]*ast3.Stmt{declStmt}, g.lowerArrayReturnCall(mod, call, destRef)...)
	}
	nd := g.lowerVarDecl(mod, st.Decl)
	pre := g.flush()
	return append(pre, &ast3.Stmt{Kind: ast3.SDecl, Tok: st.Tok, Decl: nd})
}

// lowerAssign decomposes a compound assignment (+= etc.) into a plain
// store of an explicit binary operation, hoisting the lvalue's base
// once into a temp pointer first when the lvalue isn't a bare name —
// without that hoist, `arr[i()] += 1` would call i() twice (spec.md
// §4.6 "Compound-assignment decomposition").
func (g *Gen) lowerAssign(mod *ast2.Module, st *ast2.Stmt) []*ast3.Stmt {
	if st.AssignOp == ast2.AssignSet {
		if isArrayReturningCall(st.RHS) {
			lhs := g.lowerExpr(mod, st.LHS)
			pre := g.flush()
			return append(pre, g.lowerArrayReturnCall(mod, st.RHS, lhs)...)
		}
		lhs := g.lowerExpr(mod, st.LHS)
		rhs := g.lowerExpr(mod, st.RHS)
		pre := g.flush()
		if isArrayLike(lhs.ExprType) {
			return append(pre, g.lowerArrayAssign(lhs, rhs)...)
		}
		return append(pre, &ast3.Stmt{Kind: ast3.SAssign, Tok: st.Tok, AssignOp: ast3.AssignSet, LHS: lhs, RHS: rhs})
	}

	if st.LHS.Kind == ast2.EVarName {
		lhs := g.lowerExpr(mod, st.LHS)
		rhs := g.lowerExpr(mod, st.RHS)
		pre := g.flush()
		combined := &ast3.Expr{Kind: ast3.EOperation, Tok: st.Tok, Op: assignOpToBinOp(st.AssignOp), A: lhs, B: rhs, ExprType: lhs.ExprType}
		return append(pre, &ast3.Stmt{Kind: ast3.SAssign, Tok: st.Tok, AssignOp: ast3.AssignSet, LHS: lhs, RHS: combined})
	}

	ptrExpr := g.lowerExpr(mod, g.addressOf(st.LHS))
	rhs := g.lowerExpr(mod, st.RHS)
	pre := g.flush()
	tmp := g.genTempName()
	tmpDecl := &ast3.Decl{Kind: ast3.DVar, Uid: g.uid(nil), Tok: st.Tok, Name: tmp, VarType: ptrExpr.ExprType, InitExpr: ptrExpr}
	tmpDeclStmt := &ast3.Stmt{Kind: ast3.SDecl, Tok: st.Tok, Decl: tmpDecl}
	tmpRef := &ast3.Expr{Kind: ast3.EVarName, Tok: st.Tok, Name: tmp, ExprType: ptrExpr.ExprType}
	deref := &ast3.Expr{Kind: ast3.EOperation, Tok: st.Tok, Op: ast1.OpDeref, A: tmpRef, ExprType: ptrExpr.ExprType.Elem}
	combined := &ast3.Expr{Kind: ast3.EOperation, Tok: st.Tok, Op: assignOpToBinOp(st.AssignOp), A: deref, B: rhs, ExprType: deref.ExprType}
	out := append(pre, tmpDeclStmt)
	return append(out, &ast3.Stmt{Kind: ast3.SAssign, Tok: st.Tok, AssignOp: ast3.AssignSet, LHS: deref, RHS: combined})
}

func assignOpToBinOp(op ast2.AssignOp) ast3.OpKind {
	switch op {
	case ast2.AssignAdd:
		return ast1.OpAdd
	case ast2.AssignSub:
		return ast1.OpSub
	case ast2.AssignMul:
		return ast1.OpMul
	case ast2.AssignDiv:
		return ast1.OpDiv
	case ast2.AssignMod:
		return ast1.OpMod
	}
	return ast1.OpAdd
}

// addressOf builds a synthetic `&lhs` node so the ordinary expression
// lowering path hoists an arbitrary lvalue's base exactly the way it
// would hoist a real `&e` written in source.
func (g *Gen) addressOf(e *ast2.Expr) *ast2.Expr {
	pt := &typesystem.Type{Kind: typesystem.KPointer, Elem: e.ExprType, Size: int64(g.Cfg.Arch), Align: int64(g.Cfg.Arch)}
	return &ast2.Expr{Kind: ast2.EOperation, Tok: e.Tok, Op: ast1.OpAddr, A: e, ExprType: pt}
}

func isArrayLike(t *ast3.Type) bool {
	return t != nil && (t.Kind == ast3.KArray || t.Kind == ast3.KStruct)
}

// lowerArrayAssign turns `a = b` for an array/struct-valued lvalue
// into a MEMCPY, eliding it entirely when both sides denote the same
// underlying storage (spec.md §4.6 "self-assignment elided").
func (g *Gen) lowerArrayAssign(lhs, rhs *ast3.Expr) []*ast3.Stmt {
	if sameStorage(lhs, rhs) {
		return nil
	}
	size := lhs.ExprType.Size
	st := &ast3.Stmt{Kind: ast3.SMemcpy, Dst: lhs, Src: rhs, Size: size}
	if g.Cfg.BigCopyAlert > 0 && size >= g.Cfg.BigCopyAlert {
		d := diagnostics.Newf(diagnostics.WarnBigCopy, lhs.Tok, "copying %d bytes for this assignment; consider passing by pointer", size)
		d.File = g.curFile
		g.Diags = append(g.Diags, d)
	}
	return []*ast3.Stmt{st}
}

func sameStorage(a, b *ast3.Expr) bool {
	if a.Kind != b.Kind {
		return false
	}
	if a.Kind == ast3.EVarName {
		return a.Name == b.Name && a.Uid == b.Uid
	}
	return false
}

// lowerReturn rewrites `return arrayExpr;` inside a function whose array
// return was moved to a trailing destination pointer (spec.md §4.6):
// the value is written through that pointer (a MEMCPY for another
// variable/expression of the same array type, or a direct call-site
// dest-pointer pass-through when the returned value is itself a call to
// another array-returning function) and the statement itself becomes a
// bare `return;`.
func (g *Gen) lowerReturn(mod *ast2.Module, st *ast2.Stmt) []*ast3.Stmt {
	if g.retDest != nil && st.Expr != nil {
		if isArrayReturningCall(st.Expr) {
			pre := g.lowerArrayReturnCall(mod, st.Expr, g.retDest)
			cleanup := g.flushDefersFrom(mod, 0)
			out := append(pre, cleanup...)
			return append(out, &ast3.Stmt{Kind: ast3.SReturn, Tok: st.Tok})
		}
		val := g.lowerExpr(mod, st.Expr)
		pre := g.flush()
		copyStmts := g.lowerArrayAssign(g.retDest, val)
		cleanup := g.flushDefersFrom(mod, 0)
		out := append(pre, copyStmts...)
		out = append(out, cleanup...)
		return append(out, &ast3.Stmt{Kind: ast3.SReturn, Tok: st.Tok})
	}

	var valExpr *ast3.Expr
	var pre []*ast3.Stmt
	if st.Expr != nil {
		valExpr = g.lowerExpr(mod, st.Expr)
		pre = g.flush()
	}
	cleanup := g.flushDefersFrom(mod, 0)
	out := append(pre, cleanup...)
	return append(out, &ast3.Stmt{Kind: ast3.SReturn, Tok: st.Tok, Expr: valExpr})
}

func (g *Gen) lowerIf(mod *ast2.Module, st *ast2.Stmt) []*ast3.Stmt {
	cond := g.lowerExpr(mod, st.Cond)
	pre := g.flush()
	then := g.lowerScope(mod, st.Then)
	var els *ast3.Scope
	if st.Else != nil {
		els = g.lowerScope(mod, st.Else)
	}
	return append(pre, &ast3.Stmt{Kind: ast3.SIf, Tok: st.Tok, Cond: cond, Then: then, Else: els})
}

func (g *Gen) lowerWhile(mod *ast2.Module, st *ast2.Stmt) []*ast3.Stmt {
	brk, cont := g.newLabel(), g.newLabel()
	g.jumps = append(g.jumps, jumpTarget{breakLabel: brk, continueLabel: cont, depth: len(g.defers)})

	// The condition is re-evaluated every iteration, so any side
	// effects it hoists must live inside the loop body, not once ahead
	// of the while statement.
	savedBuf := g.statBuf
	g.statBuf = nil
	cond := g.lowerExpr(mod, st.Cond)
	condPre := g.flush()
	g.statBuf = savedBuf

	body := g.lowerScope(mod, st.Then)
	body.Body = append(body.Body, &ast3.Stmt{Kind: ast3.SLabel, Label: cont})

	g.jumps = g.jumps[:len(g.jumps)-1]

	wrapped := &ast3.Scope{Body: append(append([]*ast3.Stmt{}, condPre...), body.Body...)}
	return []*ast3.Stmt{
		{Kind: ast3.SWhile, Tok: st.Tok, Cond: cond, Then: wrapped},
		{Kind: ast3.SLabel, Label: brk},
	}
}

// lowerFor rewrites a for-loop into its init statement, a while loop
// whose condition the init/step wrap, and the step statement appended
// to the body (spec.md §4.6: A3 has no FOR kind).
func (g *Gen) lowerFor(mod *ast2.Module, st *ast2.Stmt) []*ast3.Stmt {
	var out []*ast3.Stmt
	if st.ForInit != nil {
		out = append(out, g.lowerStmt(mod, st.ForInit)...)
	}

	brk, cont := g.newLabel(), g.newLabel()
	g.jumps = append(g.jumps, jumpTarget{breakLabel: brk, continueLabel: cont, depth: len(g.defers)})

	savedBuf := g.statBuf
	g.statBuf = nil
	cond := g.lowerExpr(mod, st.Cond)
	condPre := g.flush()
	g.statBuf = savedBuf

	body := g.lowerScope(mod, st.Then)
	body.Body = append(body.Body, &ast3.Stmt{Kind: ast3.SLabel, Label: cont})
	if st.ForStep != nil {
		body.Body = append(body.Body, g.lowerStmt(mod, st.ForStep)...)
	}

	g.jumps = g.jumps[:len(g.jumps)-1]

	wrapped := &ast3.Scope{Body: append(append([]*ast3.Stmt{}, condPre...), body.Body...)}
	out = append(out, &ast3.Stmt{Kind: ast3.SWhile, Tok: st.Tok, Cond: cond, Then: wrapped})
	out = append(out, &ast3.Stmt{Kind: ast3.SLabel, Label: brk})
	return out
}

func (g *Gen) lowerSwitch(mod *ast2.Module, st *ast2.Stmt) []*ast3.Stmt {
	brk := g.newLabel()
	// continue cannot target a switch: -1 marks this entry so that
	// lowerStmt's SContinue case skips it and jumps to the nearest
	// enclosing loop's continue label instead.
	g.jumps = append(g.jumps, jumpTarget{breakLabel: brk, continueLabel: -1, depth: len(g.defers)})

	savedFall := g.fallLabel
	var cases []*ast3.SwitchCase
	entryLabel := -1 // label a prior case's `fall` jumps to land on this case's body
	for _, c := range st.SwitchCases {
		nextFall := g.newLabel()
		g.fallLabel = nextFall
		body := g.lowerScope(mod, c.Body)
		if entryLabel != -1 {
			body.Body = append([]*ast3.Stmt{{Kind: ast3.SLabel, Label: entryLabel}}, body.Body...)
		}
		entryLabel = nextFall

		nc := &ast3.SwitchCase{IsDefault: c.IsDefault}
		for _, v := range c.Values {
			nc.Values = append(nc.Values, g.lowerExpr(mod, v))
		}
		nc.Body = body
		cases = append(cases, nc)
	}
	g.fallLabel = savedFall
	g.jumps = g.jumps[:len(g.jumps)-1]

	cond := g.lowerExpr(mod, st.Cond)
	pre := g.flush()
	return append(pre,
		&ast3.Stmt{Kind: ast3.SSwitch, Tok: st.Tok, Cond: cond, SwitchCases: cases},
		&ast3.Stmt{Kind: ast3.SLabel, Label: brk})
}
