package analyzer

import (
	"github.com/torlang/torc/internal/ast1"
	"github.com/torlang/torc/internal/ast2"
	"github.com/torlang/torc/internal/diagnostics"
	"github.com/torlang/torc/internal/token"
	"github.com/torlang/torc/internal/typesystem"
)

// nameClass is the shadowing classification spec.md §4.5 "Name
// binding" assigns to a bare identifier: local variable first, then
// global name, with module imports and type names classified
// separately since they never denote a value on their own.
type nameClass int

const (
	ncUnknown nameClass = iota
	ncLocalVar
	ncGlobalVar
	ncFunc
	ncStruct
	ncEnum
	ncModule
)

type nameRef struct {
	class       nameClass
	a1Decl      *ast1.Decl // ncGlobalVar/ncFunc/ncStruct/ncEnum
	a2Decl      *ast2.Decl // ncLocalVar
	targetUname string     // ncModule
}

// classify resolves name within scope/mod following the shadowing
// order: local variable, then import alias, then toplevel name.
func (b *Builder) classify(mod *ast1.Module, scope *ast2.Scope, name string) nameRef {
	if scope != nil {
		if d, ok := scope.Lookup(name); ok {
			return nameRef{class: ncLocalVar, a2Decl: d}
		}
	}
	for _, inc := range mod.Includes {
		if inc.ImportAlias == name && inc.TargetUname != "" {
			return nameRef{class: ncModule, targetUname: inc.TargetUname}
		}
	}
	if d, ok := mod.Find(name); ok {
		switch d.Kind {
		case ast1.DVar:
			return nameRef{class: ncGlobalVar, a1Decl: d}
		case ast1.DFunc:
			return nameRef{class: ncFunc, a1Decl: d}
		case ast1.DStruct:
			return nameRef{class: ncStruct, a1Decl: d}
		case ast1.DEnum:
			return nameRef{class: ncEnum, a1Decl: d}
		}
	}
	return nameRef{class: ncUnknown}
}

func (b *Builder) elaborateExpr(mod *ast1.Module, scope *ast2.Scope, e *ast1.Expr) *ast2.Expr {
	if e == nil {
		return nil
	}
	switch e.Kind {
	case ast1.ELiteral:
		return &ast2.Expr{Kind: ast2.ELiteral, Tok: e.Tok, Lit: e.Lit, ExprType: b.literalType(e.Lit), IsConst: true}
	case ast1.ELiteralData:
		ne := &ast2.Expr{Kind: ast2.ELiteralData, Tok: e.Tok, IsConst: true}
		for _, el := range e.Elems {
			ne.Elems = append(ne.Elems, b.elaborateExpr(mod, scope, el))
		}
		if len(ne.Elems) > 0 {
			ne.ExprType = ne.Elems[0].ExprType
		}
		return ne
	case ast1.EName:
		return b.elaborateName(mod, scope, e)
	case ast1.EOperation:
		if e.Op == ast1.OpMember {
			return b.elaborateMember(mod, scope, e)
		}
		return b.elaborateOperation(mod, scope, e)
	case ast1.ECall:
		return b.elaborateCall(mod, scope, e)
	default:
		return &ast2.Expr{Tok: e.Tok, ExprType: b.Pool.Void}
	}
}

// literalType assigns the default type of a bare literal token: spec.md
// §3's Literal union carries no width of its own (i64/f64/string/bool/
// nullptr are storage kinds, not language types), so an integer literal
// defaults to i32 and a float literal to f64, the narrowest/ widest
// choices a cast can always widen or narrow from.
func (b *Builder) literalType(lit token.Literal) *typesystem.Type {
	switch lit.Kind {
	case token.LitInt:
		return b.Pool.I32
	case token.LitFloat:
		return b.Pool.F64
	case token.LitBool:
		return b.Pool.Bool
	case token.LitString:
		return b.Pool.U8Slice
	case token.LitNullptr:
		return b.Pool.VoidPtr
	default:
		return b.Pool.Void
	}
}

// elaborateName resolves a bare identifier appearing in a value
// position: only local/global variables, function names, struct and
// enum type names stand alone as an expression — a bare module alias
// never does, since `a.b` is the only place it is legal (it is caught
// as an error here rather than at the member-access site).
func (b *Builder) elaborateName(mod *ast1.Module, scope *ast2.Scope, e *ast1.Expr) *ast2.Expr {
	ref := b.classify(mod, scope, e.Name)
	switch ref.class {
	case ncLocalVar:
		return &ast2.Expr{Kind: ast2.EVarName, Tok: e.Tok, Name: e.Name, Decl: ref.a2Decl,
			ExprType: ref.a2Decl.VarType, IsLvalue: true, IsConst: ref.a2Decl.IsConst}
	case ncGlobalVar:
		d := b.convertDeclRef(mod.Uname, ref.a1Decl)
		return &ast2.Expr{Kind: ast2.EVarName, Tok: e.Tok, Name: e.Name, Decl: d, ModUname: mod.Uname,
			ExprType: d.VarType, IsLvalue: true, IsConst: d.IsConst}
	case ncFunc:
		d := b.convertDeclRef(mod.Uname, ref.a1Decl)
		return &ast2.Expr{Kind: ast2.EFuncName, Tok: e.Tok, Name: e.Name, Decl: d, ModUname: mod.Uname,
			ExprType: b.funcPtrType(mod.Uname, ref.a1Decl)}
	case ncStruct:
		return &ast2.Expr{Kind: ast2.EStructName, Tok: e.Tok, Name: e.Name, ModUname: mod.Uname,
			ExprType: b.resolveNamedType(mod.Uname, e.Name)}
	case ncEnum:
		return &ast2.Expr{Kind: ast2.EEnumName, Tok: e.Tok, Name: e.Name, ModUname: mod.Uname,
			ExprType: b.resolveNamedType(mod.Uname, e.Name)}
	default:
		b.errorf(diagnostics.ErrUnknownName, e.Tok, "unknown name %q", e.Name)
		return &ast2.Expr{Kind: ast2.EVarName, Tok: e.Tok, Name: e.Name, ExprType: b.Pool.Void}
	}
}

// convertDeclRef builds a fresh A2 decl shell, on every call, for the
// declaration a name reference points at, without re-elaborating the
// referenced decl's
// own body: global var/func references only need the already-sized
// A1 signature, never the initializer/body of the far side.
func (b *Builder) convertDeclRef(uname string, d *ast1.Decl) *ast2.Decl {
	switch d.Kind {
	case ast1.DVar:
		return &ast2.Decl{Kind: ast2.DVar, Tok: d.Tok, Name: d.Name, ModUname: uname, IsExported: d.IsExported,
			IsConst: d.IsConst, IsExtern: d.IsExtern, VarType: b.convertType(uname, d.VarType)}
	case ast1.DFunc:
		nd := &ast2.Decl{Kind: ast2.DFunc, Tok: d.Tok, Name: d.Name, ModUname: uname, IsExported: d.IsExported,
			OwnerStruct: d.OwnerStruct, IsVaArg: d.IsVaArg, ReturnType: b.convertType(uname, d.ReturnType)}
		for _, p := range d.Params {
			nd.Params = append(nd.Params, &ast2.Param{Name: p.Name, Type: b.convertType(uname, p.Type)})
		}
		return nd
	default:
		return &ast2.Decl{Kind: ast2.DVar, Tok: d.Tok, Name: d.Name, ModUname: uname}
	}
}

func (b *Builder) funcPtrType(uname string, d *ast1.Decl) *typesystem.Type {
	params := make([]*typesystem.Type, len(d.Params))
	for i, p := range d.Params {
		params[i] = b.convertType(uname, p.Type)
	}
	return b.Pool.Intern(&typesystem.Type{Kind: typesystem.KFunction, Elem: b.convertType(uname, d.ReturnType), Params: params})
}

// elaborateMember implements spec.md §4.5's `a.b` rule table. The LHS
// is only classified as a module/struct/enum type name when it is
// literally a bare identifier resolving to one of those — any other
// LHS shape (call result, nested member, parenthesised expression) is
// always a value, resolved via its ExprType instead.
func (b *Builder) elaborateMember(mod *ast1.Module, scope *ast2.Scope, e *ast1.Expr) *ast2.Expr {
	if e.A.Kind == ast1.EName {
		ref := b.classify(mod, scope, e.A.Name)
		switch ref.class {
		case ncModule:
			return b.elaborateCrossModuleMember(mod, scope, e, ref.targetUname)
		case ncStruct:
			return b.elaborateMethodRef(mod, scope, e, mod.Uname, e.A.Name)
		case ncEnum:
			return b.elaborateEnumMember(mod, e, mod.Uname, e.A.Name)
		}
	}
	base := b.elaborateExpr(mod, scope, e.A)
	return b.elaborateValueMember(e, base)
}

func (b *Builder) elaborateCrossModuleMember(mod *ast1.Module, scope *ast2.Scope, e *ast1.Expr, targetUname string) *ast2.Expr {
	target, ok := b.A1[targetUname]
	if !ok {
		b.errorf(diagnostics.ErrUnknownInclude, e.Tok, "unresolved import for %q", e.A.Name)
		return &ast2.Expr{Tok: e.Tok, ExprType: b.Pool.Void}
	}
	d, ok := target.Find(e.Name)
	if !ok {
		b.errorf(diagnostics.ErrUnknownMember, e.Tok, "no exported member %q in module", e.Name)
		return &ast2.Expr{Tok: e.Tok, ExprType: b.Pool.Void}
	}
	if !d.IsExported {
		b.errorf(diagnostics.ErrNotExported, e.Tok, "%q is not exported", e.Name)
		return &ast2.Expr{Tok: e.Tok, ExprType: b.Pool.Void}
	}
	switch d.Kind {
	case ast1.DVar:
		nd := b.convertDeclRef(targetUname, d)
		return &ast2.Expr{Kind: ast2.EVarName, Tok: e.Tok, Name: d.Name, ModUname: targetUname, Decl: nd,
			ExprType: nd.VarType, IsLvalue: true, IsConst: nd.IsConst}
	case ast1.DFunc:
		nd := b.convertDeclRef(targetUname, d)
		return &ast2.Expr{Kind: ast2.EFuncName, Tok: e.Tok, Name: d.Name, ModUname: targetUname, Decl: nd,
			ExprType: b.funcPtrType(targetUname, d)}
	case ast1.DStruct:
		return &ast2.Expr{Kind: ast2.EStructName, Tok: e.Tok, Name: d.Name, ModUname: targetUname,
			ExprType: b.resolveNamedType(targetUname, d.Name)}
	case ast1.DEnum:
		return &ast2.Expr{Kind: ast2.EEnumName, Tok: e.Tok, Name: d.Name, ModUname: targetUname,
			ExprType: b.resolveNamedType(targetUname, d.Name)}
	default:
		b.errorf(diagnostics.ErrUnknownMember, e.Tok, "%q is not a value, function, struct, or enum", e.Name)
		return &ast2.Expr{Tok: e.Tok, ExprType: b.Pool.Void}
	}
}

func (b *Builder) elaborateMethodRef(mod *ast1.Module, scope *ast2.Scope, e *ast1.Expr, structUname, structName string) *ast2.Expr {
	smod := b.A1[structUname]
	for _, f := range smod.Funcs() {
		if f.OwnerStruct == structName && f.Name == e.Name {
			nd := b.convertDeclRef(structUname, f)
			return &ast2.Expr{Kind: ast2.EFuncName, Tok: e.Tok, Name: e.Name, ModUname: structUname, Decl: nd,
				ExprType: b.funcPtrType(structUname, f)}
		}
	}
	b.errorf(diagnostics.ErrUnknownMember, e.Tok, "struct %q has no method %q", structName, e.Name)
	return &ast2.Expr{Tok: e.Tok, ExprType: b.Pool.Void}
}

func (b *Builder) elaborateEnumMember(mod *ast1.Module, e *ast1.Expr, enumUname, enumName string) *ast2.Expr {
	emod := b.A1[enumUname]
	d, ok := emod.Find(enumName)
	if !ok {
		b.errorf(diagnostics.ErrUnknownName, e.Tok, "unknown enum %q", enumName)
		return &ast2.Expr{Tok: e.Tok, ExprType: b.Pool.Void}
	}
	v, ok := d.EnumValue(e.Name)
	if !ok {
		b.errorf(diagnostics.ErrUnknownMember, e.Tok, "enum %q has no member %q", enumName, e.Name)
		return &ast2.Expr{Tok: e.Tok, ExprType: b.Pool.Void}
	}
	return &ast2.Expr{Kind: ast2.ELiteral, Tok: e.Tok, Lit: token.Literal{Kind: token.LitInt, I: v},
		ExprType: b.resolveNamedType(enumUname, enumName), IsConst: true}
}

// elaborateValueMember resolves `a.b` when a is a value, not a bare
// type/module name: struct member access (lvalue-ness follows the
// base), or pointer-to-struct member access via the implicit arrow,
// always an lvalue.
func (b *Builder) elaborateValueMember(e *ast1.Expr, base *ast2.Expr) *ast2.Expr {
	t := base.ExprType
	isArrow := false
	if t.IsPointer() {
		t = t.Elem
		isArrow = true
	}
	if !t.IsStruct() {
		b.errorf(diagnostics.ErrBadOperand, e.Tok, "member access on non-struct value")
		return &ast2.Expr{Tok: e.Tok, ExprType: b.Pool.Void}
	}
	sd, ok := b.structDecl(t.ModUname, t.Name)
	if !ok {
		b.errorf(diagnostics.ErrUnknownMember, e.Tok, "unknown struct %q", t.Name)
		return &ast2.Expr{Tok: e.Tok, ExprType: b.Pool.Void}
	}
	idx, ok := sd.MemberIndex(e.Name)
	if !ok {
		b.errorf(diagnostics.ErrUnknownMember, e.Tok, "struct %q has no member %q", t.Name, e.Name)
		return &ast2.Expr{Tok: e.Tok, ExprType: b.Pool.Void}
	}
	return &ast2.Expr{Kind: ast2.EOperation, Op: ast1.OpMember, Tok: e.Tok, A: base, Name: e.Name,
		ExprType: b.convertType(t.ModUname, sd.MemTypes[idx]), IsLvalue: isArrow || base.IsLvalue}
}

func (b *Builder) structDecl(uname, name string) (*ast1.Decl, bool) {
	mod, ok := b.A1[uname]
	if !ok {
		return nil, false
	}
	return mod.Find(name)
}
