package lower

import (
	"github.com/torlang/torc/internal/ast1"
	"github.com/torlang/torc/internal/ast2"
	"github.com/torlang/torc/internal/ast3"
	"github.com/torlang/torc/internal/typesystem"
)

// lowerFuncCall lowers a named or method call (spec.md §4.6
// "Function/fptr call lowering"): fixed arguments lower as ordinary
// expressions; trailing variadic arguments are packed by packVarargs
// into a single `make(&arr[0], count)` slice argument over a synthetic
// `void*[count]` array of their addresses, standing in for the
// (void**, int) parameter pair the analyzer already required the
// callee to declare.
func (g *Gen) lowerFuncCall(mod *ast2.Module, e *ast2.Expr) *ast3.Expr {
	name := funcMangledName(mod, e.Decl)
	args := g.lowerCallArgs(mod, e)
	return &ast3.Expr{Kind: ast3.EFuncCall, Tok: e.Tok, Name: name, Uid: g.uid(e.Decl), Args: args, ExprType: g.convertType(e.ExprType)}
}

func (g *Gen) lowerCallArgs(mod *ast2.Module, e *ast2.Expr) []*ast3.Expr {
	fixed := len(e.Decl.Params)
	if e.Decl.IsVaArg {
		fixed -= 2
	}

	var args []*ast3.Expr
	for i := 0; i < fixed && i < len(e.Args); i++ {
		args = append(args, g.lowerExpr(mod, e.Args[i]))
	}
	if e.Decl.IsVaArg {
		args = append(args, g.packVarargs(mod, e, fixed)...)
	}
	return args
}

// isArrayReturningCall reports whether e calls a function that lowering
// rewrote to write through a trailing destination pointer instead of
// returning a value directly (spec.md §4.6).
func isArrayReturningCall(e *ast2.Expr) bool {
	if e == nil || e.Decl == nil {
		return false
	}
	if e.Kind != ast2.EFuncCall && e.Kind != ast2.EMethodCall {
		return false
	}
	return e.Decl.ReturnType != nil && e.Decl.ReturnType.Kind == typesystem.KArray
}

// lowerArrayReturnCall lowers a call to an array-returning function as a
// bare statement, passing dest's address as the synthetic trailing
// parameter lowerFuncDecl already appended to the callee's signature —
// the call itself no longer produces a usable value, so no SAssign
// wraps it (spec.md §4.6 "a function returning an array gets a trailing
// pointer parameter and its own return becomes void").
func (g *Gen) lowerArrayReturnCall(mod *ast2.Module, call *ast2.Expr, dest *ast3.Expr) []*ast3.Stmt {
	name := funcMangledName(mod, call.Decl)
	args := g.lowerCallArgs(mod, call)
	pre := g.flush()
	destPtr := &ast3.Expr{Kind: ast3.EOperation, Tok: call.Tok, Op: ast1.OpAddr, A: dest,
		ExprType: &ast3.Type{Kind: ast3.KPointer, Elem: dest.ExprType, Size: int64(g.Cfg.Arch), Align: int64(g.Cfg.Arch)}}
	args = append(args, destPtr)
	voidTy := &ast3.Type{Kind: ast3.KPrimitive, Prim: ast1.PVoid}
	stmt := &ast3.Stmt{Kind: ast3.SExpr, Tok: call.Tok,
		Expr: &ast3.Expr{Kind: ast3.EFuncCall, Tok: call.Tok, Name: name, Uid: g.uid(call.Decl), Args: args, ExprType: voidTy}}
	return append(pre, stmt)
}

// packVarargs materializes the single `make(&arr[0], N)` slice argument
// a variadic call site's synthesized `(void**, int)` parameter pair
// expects (spec.md §4.6, §8 scenario 5): each extra argument is hoisted
// into an addressable temp unless it is a bare variable name, then its
// address, cast to void*, is stored slot by slot into a declared
// `void*[N]` temp, and the array itself is wrapped into exactly one slice-typed
// make() expression the same way lowerSlice builds its own (original_
// source/code/ast3.cpp pushes exactly one makeOp for the whole
// variadic tail).
func (g *Gen) packVarargs(mod *ast2.Module, e *ast2.Expr, fixed int) []*ast3.Expr {
	extra := e.Args[fixed:]
	voidPtr := voidPtrType(g.Cfg.Arch)

	ptrs := make([]*ast3.Expr, len(extra))
	for i, a := range extra {
		v := g.lowerExpr(mod, a)
		pre := g.flush()
		for _, s := range pre {
			g.emit(s)
		}
		if a.Kind != ast2.EVarName {
			tmp := g.genTempName()
			g.emit(&ast3.Stmt{Kind: ast3.SDecl, Tok: e.Tok, Decl: &ast3.Decl{Kind: ast3.DVar, Uid: g.uid(nil), Tok: e.Tok, Name: tmp, VarType: v.ExprType, InitExpr: v}})
			v = &ast3.Expr{Kind: ast3.EVarName, Tok: e.Tok, Name: tmp, ExprType: v.ExprType}
		}
		ptr := &ast3.Expr{Kind: ast3.EOperation, Tok: e.Tok, Op: ast1.OpAddr, A: v, ExprType: &ast3.Type{Kind: ast3.KPointer, Elem: v.ExprType, Size: int64(g.Cfg.Arch), Align: int64(g.Cfg.Arch)}}
		ptrs[i] = &ast3.Expr{Kind: ast3.EOperation, Tok: e.Tok, Op: ast1.OpCast, A: ptr, TypeOperand: voidPtr, ExprType: voidPtr}
	}

	arrTy := &ast3.Type{Kind: ast3.KArray, Elem: voidPtr, ArrLen: int64(len(ptrs)), Size: int64(len(ptrs)) * int64(g.Cfg.Arch), Align: int64(g.Cfg.Arch)}
	tmp := g.genTempName()
	g.emit(&ast3.Stmt{Kind: ast3.SDecl, Tok: e.Tok, Decl: &ast3.Decl{Kind: ast3.DVar, Uid: g.uid(nil), Tok: e.Tok, Name: tmp, VarType: arrTy}})
	arrRef := &ast3.Expr{Kind: ast3.EVarName, Tok: e.Tok, Name: tmp, ExprType: arrTy}
	for i, p := range ptrs {
		idx := &ast3.Expr{Kind: ast3.ELiteral, Tok: e.Tok, Lit: intLiteral(int64(i))}
		lhs := &ast3.Expr{Kind: ast3.EOperation, Tok: e.Tok, Op: ast1.OpIndex, A: arrRef, B: idx, ExprType: voidPtr}
		g.emit(&ast3.Stmt{Kind: ast3.SAssign, Tok: e.Tok, AssignOp: ast3.AssignSet, LHS: lhs, RHS: p})
	}

	zero := &ast3.Expr{Kind: ast3.ELiteral, Tok: e.Tok, Lit: intLiteral(0), ExprType: intType()}
	firstElem := &ast3.Expr{Kind: ast3.EOperation, Tok: e.Tok, Op: ast1.OpIndex, A: arrRef, B: zero, ExprType: voidPtr}
	ptrTy := &ast3.Type{Kind: ast3.KPointer, Elem: voidPtr, Size: int64(g.Cfg.Arch), Align: int64(g.Cfg.Arch)}
	refOp := &ast3.Expr{Kind: ast3.EOperation, Tok: e.Tok, Op: ast1.OpAddr, A: firstElem, ExprType: ptrTy}
	countLit := &ast3.Expr{Kind: ast3.ELiteral, Tok: e.Tok, Lit: intLiteral(int64(len(ptrs))), ExprType: intType()}
	sliceTy := &ast3.Type{Kind: ast3.KSlice, Elem: voidPtr, Size: int64(2 * g.Cfg.Arch), Align: int64(g.Cfg.Arch)}
	makeOp := &ast3.Expr{Kind: ast3.EOperation, Tok: e.Tok, Op: ast1.OpMake, A: refOp, B: countLit, ExprType: sliceTy}
	return []*ast3.Expr{makeOp}
}

func voidPtrType(archBytes int) *ast3.Type {
	return &ast3.Type{Kind: ast3.KPointer, Elem: &ast3.Type{Kind: ast3.KPrimitive, Prim: ast1.PVoid}, Size: int64(archBytes), Align: int64(archBytes)}
}

func (g *Gen) lowerFptrCall(mod *ast2.Module, e *ast2.Expr) *ast3.Expr {
	callee := g.lowerExpr(mod, e.Callee)
	var args []*ast3.Expr
	for _, a := range e.Args {
		args = append(args, g.lowerExpr(mod, a))
	}
	return &ast3.Expr{Kind: ast3.EFptrCall, Tok: e.Tok, Callee: callee, Args: args, ExprType: g.convertType(e.ExprType)}
}
