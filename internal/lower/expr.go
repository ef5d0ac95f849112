package lower

import (
	"github.com/torlang/torc/internal/ast1"
	"github.com/torlang/torc/internal/ast2"
	"github.com/torlang/torc/internal/ast3"
	"github.com/torlang/torc/internal/diagnostics"
	"github.com/torlang/torc/internal/token"
)

func intLiteral(n int64) token.Literal { return token.Literal{Kind: token.LitInt, I: n} }

// lowerStringLiteral rewrites a string literal into `make(ptr, len)`
// (spec.md §8 scenario 4 "String slice lowering"): the literal's bytes
// stay attached to a pointer-typed A3 literal standing in for the
// string data's address, and make() wraps it with the byte count into
// the u8[] the A2 literal was already typed as.
func (g *Gen) lowerStringLiteral(e *ast2.Expr) *ast3.Expr {
	u8Ptr := &ast3.Type{Kind: ast3.KPointer, Elem: &ast3.Type{Kind: ast3.KPrimitive, Prim: ast1.PU8, Size: 1, Align: 1}, Size: int64(g.Cfg.Arch), Align: int64(g.Cfg.Arch)}
	ptrLit := &ast3.Expr{Kind: ast3.ELiteral, Tok: e.Tok, Lit: e.Lit, ExprType: u8Ptr}
	lenLit := &ast3.Expr{Kind: ast3.ELiteral, Tok: e.Tok, Lit: intLiteral(int64(len(e.Lit.S))), ExprType: intType()}
	return &ast3.Expr{Kind: ast3.EOperation, Tok: e.Tok, Op: ast1.OpMake, A: ptrLit, B: lenLit, ExprType: g.convertType(e.ExprType)}
}

// structFieldNames looks up a struct's declared member order by name,
// for literal_data's positional-to-named field mapping; a struct's
// member names never change shape across lowering, so this reaches
// straight into the analyzer's own output rather than duplicating it.
func (g *Gen) structFieldNames(uname, name string) []string {
	smod, ok := g.In[uname]
	if !ok {
		return nil
	}
	d, ok := smod.Find(name)
	if !ok || d.Kind != ast2.DStruct {
		return nil
	}
	return d.MemNames
}

// lowerExpr lowers one A2 expression, appending any hoisted
// pre-statements to g.statBuf (spec.md §4.6 "pre-statement buffer").
// The caller is responsible for draining g.statBuf with g.flush() once
// it has finished lowering every expression belonging to the
// statement being built.
func (g *Gen) lowerExpr(mod *ast2.Module, e *ast2.Expr) *ast3.Expr {
	if e == nil {
		return nil
	}
	switch e.Kind {
	case ast2.ELiteral:
		if e.Lit.Kind == token.LitString {
			return g.lowerStringLiteral(e)
		}
		return &ast3.Expr{Kind: ast3.ELiteral, Tok: e.Tok, Lit: e.Lit, ExprType: g.convertType(e.ExprType)}
	case ast2.ELiteralData:
		return g.lowerLiteralData(mod, e)
	case ast2.EVarName:
		return &ast3.Expr{Kind: ast3.EVarName, Tok: e.Tok, Name: e.Name, Uid: g.uid(e.Decl), ExprType: g.convertType(e.ExprType)}
	case ast2.EFuncName:
		return &ast3.Expr{Kind: ast3.EFuncName, Tok: e.Tok, Name: funcMangledName(mod, e.Decl), Uid: g.uid(e.Decl), ExprType: g.convertType(e.ExprType)}
	case ast2.EStructName, ast2.EEnumName:
		// Never reached as a standalone operand: every use site that
		// could hold one (sizeof(T), cast<T>(e), a struct literal's
		// target) already carries the resolved type directly.
		return &ast3.Expr{Kind: ast3.ELiteral, Tok: e.Tok, ExprType: g.convertType(e.ExprType)}
	case ast2.EOperation:
		return g.lowerOperation(mod, e)
	case ast2.EFuncCall:
		return g.lowerFuncCall(mod, e)
	case ast2.EMethodCall:
		return g.lowerFuncCall(mod, e)
	case ast2.EFptrCall:
		return g.lowerFptrCall(mod, e)
	}
	return nil
}

// lowerOperation relabels a pointer-valued OpAdd/OpSub to the scaled
// pointer-arithmetic operator codegen expects (spec.md §4.6); every
// other operator keeps its identity — A3's operator vocabulary already
// carries OpMember/OpIndex/OpSlice/OpSizeof/OpCast/OpMake/OpLen as
// ordinary tags for a backend to pattern-match on, the same way A1/A2
// do (original_source/code/ast3.h's A3ExprOpType folds them into one
// enum alongside B_PTR_ADD/B_PTR_SUB rather than eliminating them).
func (g *Gen) lowerOperation(mod *ast2.Module, e *ast2.Expr) *ast3.Expr {
	switch e.Op {
	case ast1.OpAnd, ast1.OpOr:
		return g.lowerShortCircuit(mod, e)
	case ast1.OpTernary:
		return g.lowerTernary(mod, e)
	case ast1.OpSlice:
		return g.lowerSlice(mod, e)
	}

	a := g.lowerExpr(mod, e.A)
	b := g.lowerExpr(mod, e.B)
	c := g.lowerExpr(mod, e.C)
	op := e.Op
	if (op == ast1.OpAdd || op == ast1.OpSub) && isPointerOperand(e.A, e.B) {
		if op == ast1.OpAdd {
			op = ast3.OpPtrAdd
		} else {
			op = ast3.OpPtrSub
		}
	}
	out := &ast3.Expr{Kind: ast3.EOperation, Tok: e.Tok, Op: op, A: a, B: b, C: c, ExprType: g.convertType(e.ExprType)}
	if e.TypeOperand != nil {
		out.TypeOperand = g.convertType(e.TypeOperand)
	}
	return out
}

func isPointerOperand(a, b *ast2.Expr) bool {
	return (a != nil && a.ExprType != nil && a.ExprType.IsPointer()) || (b != nil && b.ExprType != nil && b.ExprType.IsPointer())
}

// intType is the canonical i32 carrier every slice bound is cast to
// before the make() it feeds into is assembled (original_source/code/
// ast3.cpp's lowerExprOpSlice casts both bounds to typePool[0], its
// built-in "int").
func intType() *ast3.Type {
	return &ast3.Type{Kind: ast3.KPrimitive, Prim: ast1.PI32, Size: 4, Align: 4}
}

// castToInt retypes a literal bound in place or wraps a non-literal one
// in an explicit B_CAST, matching ast3.cpp's handling: a literal needs
// no runtime conversion, only a new static type.
func (g *Gen) castToInt(x *ast3.Expr) *ast3.Expr {
	if x.ExprType != nil && x.ExprType.Kind == ast3.KPrimitive && x.ExprType.Prim == ast1.PI32 {
		return x
	}
	ty := intType()
	if x.Kind == ast3.ELiteral {
		x.ExprType = ty
		return x
	}
	return &ast3.Expr{Kind: ast3.EOperation, Tok: x.Tok, Op: ast1.OpCast, A: x, TypeOperand: ty, ExprType: ty}
}

func literalInt(e *ast3.Expr) (int64, bool) {
	if e == nil || e.Kind != ast3.ELiteral || e.Lit.Kind != token.LitInt {
		return 0, false
	}
	return e.Lit.I, true
}

// checkSliceBounds reports lowering-time bounds violations when the
// length and the slice bounds are all literal, mirroring ast3.cpp's
// checkArrayAccess (isSlicing=true branch): a non-literal bound simply
// can't be checked until runtime and passes through untouched.
func (g *Gen) checkSliceBounds(tok token.Token, base, lo, hi *ast3.Expr) {
	arrLen := int64(-1)
	if base.ExprType != nil && base.ExprType.Kind == ast3.KArray {
		arrLen = base.ExprType.ArrLen
	}
	loVal, loOk := literalInt(lo)
	hiVal, hiOk := literalInt(hi)
	switch {
	case arrLen >= 0 && ((loOk && loVal > arrLen) || (hiOk && hiVal > arrLen)):
		g.errorf(diagnostics.ErrIndexRange, tok, "slice bounds out of range for array of length %d", arrLen)
	case (loOk && loVal < 0) || (hiOk && hiVal < 0):
		g.errorf(diagnostics.ErrIndexRange, tok, "negative index in slice expression")
	case loOk && hiOk && loVal > hiVal:
		g.errorf(diagnostics.ErrIndexRange, tok, "invalid slice range: low bound exceeds high bound")
	}
}

// hoistToTemp declares a fresh temp initialized to v and returns a
// reference to it, unless v is already a bare var-name.
func (g *Gen) hoistToTemp(tok token.Token, v *ast3.Expr) *ast3.Expr {
	if v.Kind == ast3.EVarName {
		return v
	}
	tmp := g.genTempName()
	g.emit(&ast3.Stmt{Kind: ast3.SDecl, Tok: tok, Decl: &ast3.Decl{Kind: ast3.DVar, Uid: g.uid(nil), Tok: tok, Name: tmp, VarType: v.ExprType, InitExpr: v}})
	return &ast3.Expr{Kind: ast3.EVarName, Tok: tok, Name: tmp, ExprType: v.ExprType}
}

// lowerSlice lowers `a[lo:hi]` to `make(&a[lo], hi - lo)` (spec.md
// §4.6), following ast3.cpp's lowerExprOpSlice step for step: default
// an omitted lo to 0 and an omitted hi to the array's literal length or
// a runtime len() of the slice, cast both bounds to int, bounds-check
// literal bounds, then hoist lo and the base into temps if they are not
// already a name or (for lo) a literal before indexing through them.
func (g *Gen) lowerSlice(mod *ast2.Module, e *ast2.Expr) *ast3.Expr {
	base := g.lowerExpr(mod, e.A)
	for _, s := range g.flush() {
		g.emit(s)
	}

	var lo *ast3.Expr
	if e.B != nil {
		lo = g.lowerExpr(mod, e.B)
		for _, s := range g.flush() {
			g.emit(s)
		}
		lo = g.castToInt(lo)
	} else {
		lo = &ast3.Expr{Kind: ast3.ELiteral, Tok: e.Tok, Lit: intLiteral(0), ExprType: intType()}
	}

	var hi *ast3.Expr
	switch {
	case e.C != nil:
		hi = g.lowerExpr(mod, e.C)
		for _, s := range g.flush() {
			g.emit(s)
		}
		hi = g.castToInt(hi)
	case base.ExprType != nil && base.ExprType.Kind == ast3.KArray:
		hi = &ast3.Expr{Kind: ast3.ELiteral, Tok: e.Tok, Lit: intLiteral(base.ExprType.ArrLen), ExprType: intType()}
	default:
		base = g.hoistToTemp(e.Tok, base)
		hi = &ast3.Expr{Kind: ast3.EOperation, Tok: e.Tok, Op: ast1.OpLen, A: base, ExprType: intType()}
	}

	g.checkSliceBounds(e.Tok, base, lo, hi)

	if lo.Kind != ast3.EVarName && lo.Kind != ast3.ELiteral {
		lo = g.hoistToTemp(e.Tok, lo)
	}
	base = g.hoistToTemp(e.Tok, base)

	elemTy := base.ExprType.Elem
	ptrTy := &ast3.Type{Kind: ast3.KPointer, Elem: elemTy, Size: int64(g.Cfg.Arch), Align: int64(g.Cfg.Arch)}

	idxOp := &ast3.Expr{Kind: ast3.EOperation, Tok: e.Tok, Op: ast1.OpIndex, A: base, B: lo, ExprType: elemTy}
	refOp := &ast3.Expr{Kind: ast3.EOperation, Tok: e.Tok, Op: ast1.OpAddr, A: idxOp, ExprType: ptrTy}
	subOp := &ast3.Expr{Kind: ast3.EOperation, Tok: e.Tok, Op: ast1.OpSub, A: hi, B: lo, ExprType: intType()}

	return &ast3.Expr{Kind: ast3.EOperation, Tok: e.Tok, Op: ast1.OpMake, A: refOp, B: subOp, ExprType: g.convertType(e.ExprType)}
}

// lowerShortCircuit rewrites `a && b` / `a || b` into an explicit
// branch so b's side effects run only when actually reached (spec.md
// §4.6 "short-circuit ... side-effect rewriting"):
//
//	bool $t = a;
//	if ($t == wantsB) { $t = b; }
//	// expression value is $t
func (g *Gen) lowerShortCircuit(mod *ast2.Module, e *ast2.Expr) *ast3.Expr {
	a := g.lowerExpr(mod, e.A)
	aPre := g.flush()
	t := g.genTempName()
	ty := g.convertType(e.ExprType)
	g.emit(&ast3.Stmt{Kind: ast3.SDecl, Tok: e.Tok, Decl: &ast3.Decl{Kind: ast3.DVar, Uid: g.uid(nil), Tok: e.Tok, Name: t, VarType: ty}})
	for _, s := range aPre {
		g.emit(s)
	}
	tRef := &ast3.Expr{Kind: ast3.EVarName, Tok: e.Tok, Name: t, ExprType: ty}
	g.emit(&ast3.Stmt{Kind: ast3.SAssign, Tok: e.Tok, AssignOp: ast3.AssignSet, LHS: tRef, RHS: a})

	b := g.lowerExpr(mod, e.B)
	bPre := g.flush()
	bBody := ast3.NewScope(nil)
	bBody.Body = append(bBody.Body, bPre...)
	bBody.Body = append(bBody.Body, &ast3.Stmt{Kind: ast3.SAssign, Tok: e.Tok, AssignOp: ast3.AssignSet, LHS: tRef, RHS: b})

	cond := tRef
	if e.Op == ast1.OpAnd {
		// only evaluate b when a was true
	} else {
		cond = &ast3.Expr{Kind: ast3.EOperation, Tok: e.Tok, Op: ast1.OpNot, A: tRef, ExprType: ty}
	}
	g.emit(&ast3.Stmt{Kind: ast3.SIf, Tok: e.Tok, Cond: cond, Then: bBody})
	return tRef
}

// lowerTernary rewrites `cond ? then : else` into an if/else storing
// into a shared temp, so the branch not taken never runs (spec.md
// §4.6 "ternary side-effect rewriting").
func (g *Gen) lowerTernary(mod *ast2.Module, e *ast2.Expr) *ast3.Expr {
	cond := g.lowerExpr(mod, e.A)
	pre := g.flush()
	for _, s := range pre {
		g.emit(s)
	}
	t := g.genTempName()
	ty := g.convertType(e.ExprType)
	g.emit(&ast3.Stmt{Kind: ast3.SDecl, Tok: e.Tok, Decl: &ast3.Decl{Kind: ast3.DVar, Uid: g.uid(nil), Tok: e.Tok, Name: t, VarType: ty}})
	tRef := &ast3.Expr{Kind: ast3.EVarName, Tok: e.Tok, Name: t, ExprType: ty}

	thenV := g.lowerExpr(mod, e.B)
	thenPre := g.flush()
	thenScope := ast3.NewScope(nil)
	thenScope.Body = append(thenScope.Body, thenPre...)
	thenScope.Body = append(thenScope.Body, &ast3.Stmt{Kind: ast3.SAssign, Tok: e.Tok, AssignOp: ast3.AssignSet, LHS: tRef, RHS: thenV})

	elseV := g.lowerExpr(mod, e.C)
	elsePre := g.flush()
	elseScope := ast3.NewScope(nil)
	elseScope.Body = append(elseScope.Body, elsePre...)
	elseScope.Body = append(elseScope.Body, &ast3.Stmt{Kind: ast3.SAssign, Tok: e.Tok, AssignOp: ast3.AssignSet, LHS: tRef, RHS: elseV})

	g.emit(&ast3.Stmt{Kind: ast3.SIf, Tok: e.Tok, Cond: cond, Then: thenScope, Else: elseScope})
	return tRef
}

// lowerLiteralData unrolls an aggregate initializer into a declared
// temp plus one index/member assignment per element, so the
// expression itself lowers to a bare reference (spec.md §4.6:
// "literal_data is converted into pre-statements during lowering").
func (g *Gen) lowerLiteralData(mod *ast2.Module, e *ast2.Expr) *ast3.Expr {
	ty := g.convertType(e.ExprType)
	t := g.genTempName()
	g.emit(&ast3.Stmt{Kind: ast3.SDecl, Tok: e.Tok, Decl: &ast3.Decl{Kind: ast3.DVar, Uid: g.uid(nil), Tok: e.Tok, Name: t, VarType: ty}})
	tRef := &ast3.Expr{Kind: ast3.EVarName, Tok: e.Tok, Name: t, ExprType: ty}
	g.emit(&ast3.Stmt{Kind: ast3.SMemset, Tok: e.Tok, Dst: tRef, Fill: 0, Size: ty.Size})
	if g.Cfg.BigCopyAlert > 0 && ty.Size >= g.Cfg.BigCopyAlert {
		d := diagnostics.Newf(diagnostics.WarnBigCopy, e.Tok, "zero-filling %d bytes for this initializer", ty.Size)
		d.File = g.curFile
		g.Diags = append(g.Diags, d)
	}

	if ty.Kind == ast3.KStruct {
		fields := g.structFieldNames(e.ExprType.ModUname, e.ExprType.Name)
		for i, el := range e.Elems {
			v := g.lowerExpr(mod, el)
			for _, s := range g.flush() {
				g.emit(s)
			}
			var name string
			if i < len(fields) {
				name = fields[i]
			}
			lhs := &ast3.Expr{Kind: ast3.EOperation, Tok: e.Tok, Op: ast1.OpMember, A: tRef, Name: name, ExprType: v.ExprType}
			g.emit(&ast3.Stmt{Kind: ast3.SAssign, Tok: e.Tok, AssignOp: ast3.AssignSet, LHS: lhs, RHS: v})
		}
		return tRef
	}

	for i, el := range e.Elems {
		v := g.lowerExpr(mod, el)
		for _, s := range g.flush() {
			g.emit(s)
		}
		idx := &ast3.Expr{Kind: ast3.ELiteral, Tok: e.Tok, Lit: intLiteral(int64(i))}
		lhs := &ast3.Expr{Kind: ast3.EOperation, Tok: e.Tok, Op: ast1.OpIndex, A: tRef, B: idx, ExprType: v.ExprType}
		g.emit(&ast3.Stmt{Kind: ast3.SAssign, Tok: e.Tok, AssignOp: ast3.AssignSet, LHS: lhs, RHS: v})
	}
	return tRef
}
