package analyzer

import (
	"github.com/torlang/torc/internal/ast1"
	"github.com/torlang/torc/internal/ast2"
	"github.com/torlang/torc/internal/diagnostics"
	"github.com/torlang/torc/internal/token"
	"github.com/torlang/torc/internal/typesystem"
)

// elaborateCall implements spec.md §4.5's three call shapes: method,
// named, and function-pointer. `inst.m(args)` is intercepted before
// generic member elaboration runs, since a method is never a struct
// field and the ordinary value-member rule would just report it
// missing.
func (b *Builder) elaborateCall(mod *ast1.Module, scope *ast2.Scope, e *ast1.Expr) *ast2.Expr {
	if e.Callee.Kind == ast1.EOperation && e.Callee.Op == ast1.OpMember && !b.calleeIsStaticName(mod, scope, e.Callee.A) {
		return b.elaborateMethodCall(mod, scope, e)
	}
	callee := b.elaborateExpr(mod, scope, e.Callee)
	args := b.elaborateArgs(mod, scope, e.Args)
	if callee.Kind == ast2.EFuncName {
		return b.elaborateNamedCall(e, callee, args)
	}
	if callee.ExprType != nil && callee.ExprType.Kind == typesystem.KFunction {
		return b.elaborateFptrCall(e, callee, args)
	}
	b.errorf(diagnostics.ErrBadOperand, e.Tok, "expression is not callable")
	return &ast2.Expr{Kind: ast2.EFuncCall, Tok: e.Tok, ExprType: b.Pool.Void}
}

// calleeIsStaticName reports whether base, as written in callee
// position, is a bare module/struct/enum name — i.e. a non-method call
// written with dotted syntax, such as a cross-module function
// reference `mathmod.max(a, b)`.
func (b *Builder) calleeIsStaticName(mod *ast1.Module, scope *ast2.Scope, base *ast1.Expr) bool {
	if base.Kind != ast1.EName {
		return false
	}
	ref := b.classify(mod, scope, base.Name)
	return ref.class == ncModule || ref.class == ncStruct || ref.class == ncEnum
}

func (b *Builder) elaborateArgs(mod *ast1.Module, scope *ast2.Scope, a1args []*ast1.Expr) []*ast2.Expr {
	args := make([]*ast2.Expr, len(a1args))
	for i, a := range a1args {
		args[i] = b.elaborateExpr(mod, scope, a)
	}
	return args
}

func (b *Builder) elaborateMethodCall(mod *ast1.Module, scope *ast2.Scope, e *ast1.Expr) *ast2.Expr {
	inst := b.elaborateExpr(mod, scope, e.Callee.A)
	t := inst.ExprType
	receiverIsPtr := false
	if t != nil && t.IsPointer() {
		t = t.Elem
		receiverIsPtr = true
	}
	if t == nil || !t.IsStruct() {
		b.errorf(diagnostics.ErrBadOperand, e.Tok, "method call requires a struct or pointer-to-struct receiver")
		return &ast2.Expr{Kind: ast2.EMethodCall, Tok: e.Tok, ExprType: b.Pool.Void}
	}
	fn, ok := b.findMethod(t.ModUname, t.Name, e.Callee.Name)
	if !ok {
		b.errorf(diagnostics.ErrUnknownMember, e.Tok, "struct %q has no method %q", t.Name, e.Callee.Name)
		return &ast2.Expr{Kind: ast2.EMethodCall, Tok: e.Tok, ExprType: b.Pool.Void}
	}
	recv := inst
	if !receiverIsPtr {
		if !inst.IsLvalue {
			b.errorf(diagnostics.ErrNotLvalue, e.Tok, "method call on a value receiver requires an addressable instance")
		}
		pt := b.Pool.Intern(&typesystem.Type{Kind: typesystem.KPointer, Elem: t, Size: int64(b.Cfg.Arch), Align: int64(b.Cfg.Arch)})
		recv = &ast2.Expr{Kind: ast2.EOperation, Tok: inst.Tok, Op: ast1.OpAddr, A: inst, ExprType: pt}
	}
	// The receiver is the method's first declared parameter (spec.md
	// §4.5 "the first argument is the receiver"), so it is prepended to
	// the checked/emitted argument list rather than held separately.
	args := append([]*ast2.Expr{recv}, b.elaborateArgs(mod, scope, e.Args)...)
	fnDecl := b.convertDeclRef(t.ModUname, fn)
	if !b.checkArity(e.Tok, fnDecl, args) {
		return &ast2.Expr{Kind: ast2.EMethodCall, Tok: e.Tok, ExprType: fnDecl.ReturnType}
	}
	return &ast2.Expr{Kind: ast2.EMethodCall, Tok: e.Tok, Name: e.Callee.Name, Decl: fnDecl, ModUname: t.ModUname,
		Args: args, ExprType: fnDecl.ReturnType}
}

func (b *Builder) findMethod(uname, structName, methodName string) (*ast1.Decl, bool) {
	smod, ok := b.A1[uname]
	if !ok {
		return nil, false
	}
	for _, f := range smod.Funcs() {
		if f.OwnerStruct == structName && f.Name == methodName {
			return f, true
		}
	}
	return nil, false
}

func (b *Builder) elaborateNamedCall(e *ast1.Expr, callee *ast2.Expr, args []*ast2.Expr) *ast2.Expr {
	if !b.checkArity(e.Tok, callee.Decl, args) {
		return &ast2.Expr{Kind: ast2.EFuncCall, Tok: e.Tok, ExprType: callee.Decl.ReturnType}
	}
	return &ast2.Expr{Kind: ast2.EFuncCall, Tok: e.Tok, Name: callee.Name, Decl: callee.Decl, ModUname: callee.ModUname,
		Args: args, ExprType: callee.Decl.ReturnType}
}

func (b *Builder) elaborateFptrCall(e *ast1.Expr, callee *ast2.Expr, args []*ast2.Expr) *ast2.Expr {
	ft := callee.ExprType
	if len(args) != len(ft.Params) {
		b.errorf(diagnostics.ErrWrongArity, e.Tok, "function pointer call expects %d arguments, got %d", len(ft.Params), len(args))
	} else {
		for i, p := range ft.Params {
			if !typesystem.Equal(p, args[i].ExprType) {
				b.errorf(diagnostics.ErrTypeMismatch, e.Tok, "argument %d does not match parameter type", i+1)
				break
			}
		}
	}
	return &ast2.Expr{Kind: ast2.EFptrCall, Tok: e.Tok, Callee: callee, Args: args, ExprType: ft.Elem}
}

// checkArity validates argument count and fixed-parameter types (spec.md
// §4.5 "Call resolution"): a variadic function's trailing two
// parameters must already be declared as (void**, int) by the parser,
// so only the fixed prefix is checked here.
func (b *Builder) checkArity(tok token.Token, fn *ast2.Decl, args []*ast2.Expr) bool {
	fixed := len(fn.Params)
	if fn.IsVaArg {
		fixed -= 2
	}
	if fixed < 0 {
		fixed = 0
	}
	if fn.IsVaArg {
		if len(args) < fixed {
			b.errorf(diagnostics.ErrWrongArity, tok, "%q expects at least %d arguments, got %d", fn.Name, fixed, len(args))
			return false
		}
	} else if len(args) != fixed {
		b.errorf(diagnostics.ErrWrongArity, tok, "%q expects %d arguments, got %d", fn.Name, fixed, len(args))
		return false
	}
	for i := 0; i < fixed; i++ {
		if !typesystem.Equal(fn.Params[i].Type, args[i].ExprType) {
			b.errorf(diagnostics.ErrTypeMismatch, tok, "%q argument %d does not match parameter type", fn.Name, i+1)
			return false
		}
	}
	return true
}
