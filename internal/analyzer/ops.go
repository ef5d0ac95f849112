package analyzer

import (
	"github.com/torlang/torc/internal/ast1"
	"github.com/torlang/torc/internal/ast2"
	"github.com/torlang/torc/internal/diagnostics"
	"github.com/torlang/torc/internal/typesystem"
)

// elaborateOperation implements spec.md §4.5's operator accept tables:
// every operator has an explicit set of accepted operand shapes that
// drives both the result type and the diagnostic raised on mismatch.
func (b *Builder) elaborateOperation(mod *ast1.Module, scope *ast2.Scope, e *ast1.Expr) *ast2.Expr {
	switch e.Op {
	case ast1.OpNeg, ast1.OpPos:
		return b.elabUnaryNumeric(mod, scope, e)
	case ast1.OpBitNot:
		return b.elabUnaryInteger(mod, scope, e)
	case ast1.OpNot:
		return b.elabUnaryBool(mod, scope, e)
	case ast1.OpAddr:
		return b.elabAddr(mod, scope, e)
	case ast1.OpDeref:
		return b.elabDeref(mod, scope, e)
	case ast1.OpMul, ast1.OpDiv, ast1.OpMod:
		return b.elabMulDivMod(mod, scope, e)
	case ast1.OpAdd, ast1.OpSub:
		return b.elabAddSub(mod, scope, e)
	case ast1.OpShl, ast1.OpShr, ast1.OpBitAnd, ast1.OpBitXor, ast1.OpBitOr:
		return b.elabBitwise(mod, scope, e)
	case ast1.OpLt, ast1.OpLe, ast1.OpGt, ast1.OpGe:
		return b.elabOrderRelational(mod, scope, e)
	case ast1.OpEq, ast1.OpNe:
		return b.elabEqRelational(mod, scope, e)
	case ast1.OpAnd, ast1.OpOr:
		return b.elabLogical(mod, scope, e)
	case ast1.OpTernary:
		return b.elabTernary(mod, scope, e)
	case ast1.OpSizeof:
		return b.elabSizeof(mod, scope, e)
	case ast1.OpLen:
		return b.elabLen(mod, scope, e)
	case ast1.OpCast:
		return b.elabCast(mod, scope, e)
	case ast1.OpMake:
		return b.elabMake(mod, scope, e)
	case ast1.OpIndex:
		return b.elabIndex(mod, scope, e)
	case ast1.OpSlice:
		return b.elabSlice(mod, scope, e)
	default:
		b.errorf(diagnostics.ErrUnknownOperator, e.Tok, "unhandled operator")
		return b.badExpr(e)
	}
}

func (b *Builder) badExpr(e *ast1.Expr) *ast2.Expr {
	return &ast2.Expr{Kind: ast2.EOperation, Tok: e.Tok, Op: e.Op, ExprType: b.Pool.Void}
}

func (b *Builder) wrap(e *ast1.Expr, t *typesystem.Type, lvalue bool, operands ...*ast2.Expr) *ast2.Expr {
	ne := &ast2.Expr{Kind: ast2.EOperation, Tok: e.Tok, Op: e.Op, ExprType: t, IsLvalue: lvalue}
	if len(operands) > 0 {
		ne.A = operands[0]
	}
	if len(operands) > 1 {
		ne.B = operands[1]
	}
	if len(operands) > 2 {
		ne.C = operands[2]
	}
	return ne
}

func (b *Builder) elabUnaryNumeric(mod *ast1.Module, scope *ast2.Scope, e *ast1.Expr) *ast2.Expr {
	a := b.elaborateExpr(mod, scope, e.A)
	if !a.ExprType.IsNumeric() {
		b.errorf(diagnostics.ErrBadOperand, e.Tok, "unary +/- requires a numeric operand")
		return b.badExpr(e)
	}
	return b.wrap(e, a.ExprType, false, a)
}

func (b *Builder) elabUnaryInteger(mod *ast1.Module, scope *ast2.Scope, e *ast1.Expr) *ast2.Expr {
	a := b.elaborateExpr(mod, scope, e.A)
	if !a.ExprType.IsInteger() {
		b.errorf(diagnostics.ErrBadOperand, e.Tok, "unary ~ requires an integer operand")
		return b.badExpr(e)
	}
	return b.wrap(e, a.ExprType, false, a)
}

func (b *Builder) elabUnaryBool(mod *ast1.Module, scope *ast2.Scope, e *ast1.Expr) *ast2.Expr {
	a := b.elaborateExpr(mod, scope, e.A)
	if !a.ExprType.IsBool() {
		b.errorf(diagnostics.ErrBadOperand, e.Tok, "unary ! requires a bool operand")
		return b.badExpr(e)
	}
	return b.wrap(e, b.Pool.Bool, false, a)
}

func (b *Builder) elabAddr(mod *ast1.Module, scope *ast2.Scope, e *ast1.Expr) *ast2.Expr {
	a := b.elaborateExpr(mod, scope, e.A)
	if !a.IsLvalue {
		b.errorf(diagnostics.ErrNotLvalue, e.Tok, "& requires an lvalue operand")
		return b.badExpr(e)
	}
	pt := b.Pool.Intern(&typesystem.Type{Kind: typesystem.KPointer, Elem: a.ExprType,
		Size: int64(b.Cfg.Arch), Align: int64(b.Cfg.Arch)})
	return b.wrap(e, pt, false, a)
}

func (b *Builder) elabDeref(mod *ast1.Module, scope *ast2.Scope, e *ast1.Expr) *ast2.Expr {
	a := b.elaborateExpr(mod, scope, e.A)
	if !a.ExprType.IsPointer() || a.ExprType.Elem.IsVoid() {
		b.errorf(diagnostics.ErrBadOperand, e.Tok, "unary * requires a non-void pointer")
		return b.badExpr(e)
	}
	return b.wrap(e, a.ExprType.Elem, true, a)
}

func (b *Builder) elabMulDivMod(mod *ast1.Module, scope *ast2.Scope, e *ast1.Expr) *ast2.Expr {
	a := b.elaborateExpr(mod, scope, e.A)
	c := b.elaborateExpr(mod, scope, e.B)
	if !a.ExprType.IsNumeric() || !typesystem.Equal(a.ExprType, c.ExprType) {
		b.errorf(diagnostics.ErrTypeMismatch, e.Tok, "* / %% require matching numeric operands")
		return b.badExpr(e)
	}
	if e.Op == ast1.OpMod && a.ExprType.IsFloat() {
		b.errorf(diagnostics.ErrBadOperand, e.Tok, "%% does not accept float operands")
		return b.badExpr(e)
	}
	return b.wrap(e, a.ExprType, false, a, c)
}

func (b *Builder) elabAddSub(mod *ast1.Module, scope *ast2.Scope, e *ast1.Expr) *ast2.Expr {
	a := b.elaborateExpr(mod, scope, e.A)
	c := b.elaborateExpr(mod, scope, e.B)
	if a.ExprType.IsPointer() && c.ExprType.IsInteger() {
		return b.wrap(e, a.ExprType, false, a, c)
	}
	if e.Op == ast1.OpAdd && a.ExprType.IsInteger() && c.ExprType.IsPointer() {
		ne := b.wrap(e, c.ExprType, false, c, a) // swap so A is always the pointer operand
		return ne
	}
	if a.ExprType.IsNumeric() && typesystem.Equal(a.ExprType, c.ExprType) {
		return b.wrap(e, a.ExprType, false, a, c)
	}
	b.errorf(diagnostics.ErrTypeMismatch, e.Tok, "+/- require (ptr,int), (int,ptr), or matching numeric operands")
	return b.badExpr(e)
}

func (b *Builder) elabBitwise(mod *ast1.Module, scope *ast2.Scope, e *ast1.Expr) *ast2.Expr {
	a := b.elaborateExpr(mod, scope, e.A)
	c := b.elaborateExpr(mod, scope, e.B)
	if !a.ExprType.IsInteger() || !typesystem.Equal(a.ExprType, c.ExprType) {
		b.errorf(diagnostics.ErrTypeMismatch, e.Tok, "<< >> & ^ | require matching integer operands")
		return b.badExpr(e)
	}
	return b.wrap(e, a.ExprType, false, a, c)
}

func (b *Builder) elabOrderRelational(mod *ast1.Module, scope *ast2.Scope, e *ast1.Expr) *ast2.Expr {
	a := b.elaborateExpr(mod, scope, e.A)
	c := b.elaborateExpr(mod, scope, e.B)
	if !a.ExprType.IsNumeric() || !typesystem.Equal(a.ExprType, c.ExprType) {
		b.errorf(diagnostics.ErrTypeMismatch, e.Tok, "relational operators require matching numeric operands")
		return b.badExpr(e)
	}
	return b.wrap(e, b.Pool.Bool, false, a, c)
}

func (b *Builder) elabEqRelational(mod *ast1.Module, scope *ast2.Scope, e *ast1.Expr) *ast2.Expr {
	a := b.elaborateExpr(mod, scope, e.A)
	c := b.elaborateExpr(mod, scope, e.B)
	if a.ExprType.IsAggregate() || c.ExprType.IsAggregate() {
		b.errorf(diagnostics.ErrBadOperand, e.Tok, "arrays, slices, and structs may not be compared")
		return b.badExpr(e)
	}
	if !typesystem.Equal(a.ExprType, c.ExprType) {
		b.errorf(diagnostics.ErrTypeMismatch, e.Tok, "== != require matching scalar operands")
		return b.badExpr(e)
	}
	return b.wrap(e, b.Pool.Bool, false, a, c)
}

func (b *Builder) elabLogical(mod *ast1.Module, scope *ast2.Scope, e *ast1.Expr) *ast2.Expr {
	a := b.elaborateExpr(mod, scope, e.A)
	c := b.elaborateExpr(mod, scope, e.B)
	if !a.ExprType.IsBool() || !c.ExprType.IsBool() {
		b.errorf(diagnostics.ErrBadOperand, e.Tok, "&& || require bool operands")
		return b.badExpr(e)
	}
	return b.wrap(e, b.Pool.Bool, false, a, c)
}

func (b *Builder) elabTernary(mod *ast1.Module, scope *ast2.Scope, e *ast1.Expr) *ast2.Expr {
	cond := b.elaborateExpr(mod, scope, e.A)
	then := b.elaborateExpr(mod, scope, e.B)
	els := b.elaborateExpr(mod, scope, e.C)
	if !cond.ExprType.IsBool() {
		b.errorf(diagnostics.ErrBadOperand, e.Tok, "?: requires a bool condition")
		return b.badExpr(e)
	}
	if !typesystem.Equal(then.ExprType, els.ExprType) {
		b.errorf(diagnostics.ErrTypeMismatch, e.Tok, "?: branches must share a type")
		return b.badExpr(e)
	}
	return b.wrap(e, then.ExprType, false, cond, then, els)
}

func (b *Builder) elabSizeof(mod *ast1.Module, scope *ast2.Scope, e *ast1.Expr) *ast2.Expr {
	ne := &ast2.Expr{Kind: ast2.EOperation, Tok: e.Tok, Op: e.Op, ExprType: b.Pool.I32}
	if e.TypeOperand != nil {
		ne.TypeOperand = b.convertType(mod.Uname, e.TypeOperand)
	} else {
		ne.A = b.elaborateExpr(mod, scope, e.A)
	}
	return ne
}

func (b *Builder) elabLen(mod *ast1.Module, scope *ast2.Scope, e *ast1.Expr) *ast2.Expr {
	a := b.elaborateExpr(mod, scope, e.A)
	if !a.ExprType.IsArray() && !a.ExprType.IsSlice() {
		b.errorf(diagnostics.ErrBadOperand, e.Tok, "len() requires an array or slice operand")
		return b.badExpr(e)
	}
	return b.wrap(e, b.Pool.I32, false, a)
}

func (b *Builder) elabCast(mod *ast1.Module, scope *ast2.Scope, e *ast1.Expr) *ast2.Expr {
	target := b.convertType(mod.Uname, e.TypeOperand)
	a := b.elaborateExpr(mod, scope, e.A)
	ok := (target.IsNumeric() && a.ExprType.IsNumeric()) ||
		(target.IsPointer() && a.ExprType.IsPointer()) ||
		(target.IsInteger() && a.ExprType.IsPointer()) ||
		(target.IsPointer() && a.ExprType.IsInteger()) ||
		(target.IsEnum() && a.ExprType.IsInteger()) ||
		(target.IsInteger() && a.ExprType.IsEnum()) ||
		(target.IsEnum() && a.ExprType.IsEnum())
	if !ok {
		b.errorf(diagnostics.ErrBadOperand, e.Tok, "cast accepts numeric<->numeric, pointer<->pointer, integer<->pointer, enum<->integer, enum<->enum")
		return b.badExpr(e)
	}
	return &ast2.Expr{Kind: ast2.EOperation, Tok: e.Tok, Op: e.Op, ExprType: target, TypeOperand: target, A: a}
}

func (b *Builder) elabMake(mod *ast1.Module, scope *ast2.Scope, e *ast1.Expr) *ast2.Expr {
	ptr := b.elaborateExpr(mod, scope, e.A)
	count := b.elaborateExpr(mod, scope, e.B)
	if !ptr.ExprType.IsPointer() || ptr.ExprType.Elem.IsVoid() || !count.ExprType.IsInteger() {
		b.errorf(diagnostics.ErrBadOperand, e.Tok, "make() requires a non-void pointer and an integer count")
		return b.badExpr(e)
	}
	sliceT := b.Pool.Intern(&typesystem.Type{Kind: typesystem.KSlice, Elem: ptr.ExprType.Elem,
		Size: int64(2 * b.Cfg.Arch), Align: int64(b.Cfg.Arch)})
	return b.wrap(e, sliceT, false, ptr, count)
}

func (b *Builder) elabIndex(mod *ast1.Module, scope *ast2.Scope, e *ast1.Expr) *ast2.Expr {
	base := b.elaborateExpr(mod, scope, e.A)
	idx := b.elaborateExpr(mod, scope, e.B)
	if !idx.ExprType.IsInteger() {
		b.errorf(diagnostics.ErrBadOperand, e.Tok, "index must be an integer")
		return b.badExpr(e)
	}
	var elem *typesystem.Type
	switch {
	case base.ExprType.IsArray(), base.ExprType.IsSlice():
		elem = base.ExprType.Elem
	case base.ExprType.IsPointer():
		elem = base.ExprType.Elem
	default:
		b.errorf(diagnostics.ErrBadOperand, e.Tok, "index requires an array, slice, or pointer operand")
		return b.badExpr(e)
	}
	return b.wrap(e, elem, true, base, idx)
}

func (b *Builder) elabSlice(mod *ast1.Module, scope *ast2.Scope, e *ast1.Expr) *ast2.Expr {
	base := b.elaborateExpr(mod, scope, e.A)
	var lo, hi *ast2.Expr
	if e.B != nil {
		lo = b.elaborateExpr(mod, scope, e.B)
	}
	if e.C != nil {
		hi = b.elaborateExpr(mod, scope, e.C)
	}
	if !base.ExprType.IsArray() && !base.ExprType.IsSlice() {
		b.errorf(diagnostics.ErrBadOperand, e.Tok, "slicing requires an array or slice operand")
		return b.badExpr(e)
	}
	sliceT := b.Pool.Intern(&typesystem.Type{Kind: typesystem.KSlice, Elem: base.ExprType.Elem,
		Size: int64(2 * b.Cfg.Arch), Align: int64(b.Cfg.Arch)})
	return b.wrap(e, sliceT, false, base, lo, hi)
}
