package analyzer

import (
	"github.com/torlang/torc/internal/ast1"
	"github.com/torlang/torc/internal/ast2"
	"github.com/torlang/torc/internal/diagnostics"
)

// elaborateModule converts every toplevel decl of mod into the output
// module registerHeaders already created, aborting further work on mod
// at the first error (spec.md §7: "the first error aborts the current
// module"; sibling modules are unaffected).
func (b *Builder) elaborateModule(mod *ast1.Module) {
	if mod == nil {
		return
	}
	out := b.Out[mod.Uname]
	before := len(b.Diags)
	b.curFile = mod.Path
	for _, d := range mod.AllDecls() {
		switch d.Kind {
		case ast1.DInclude, ast1.DTemplate:
			continue // fully resolved before A2; nothing to elaborate
		}
		a2d := b.elaborateDecl(mod, d)
		if a2d == nil {
			continue
		}
		if !out.AddDecl(a2d) {
			b.errorf(diagnostics.ErrDuplicateDecl, d.Tok, "duplicate declaration %q", d.Name)
		}
		if len(b.Diags) > before {
			return
		}
	}
	for _, s := range out.Structs() {
		linkMethods(out, s)
	}
}

func linkMethods(mod *ast2.Module, s *ast2.Decl) {
	s.Methods = nil
	for _, d := range mod.AllDecls() {
		if d.Kind == ast2.DFunc && d.OwnerStruct == s.Name {
			s.Methods = append(s.Methods, d)
		}
	}
}

func (b *Builder) elaborateDecl(mod *ast1.Module, d *ast1.Decl) *ast2.Decl {
	switch d.Kind {
	case ast1.DTypedef:
		return &ast2.Decl{Kind: ast2.DTypedef, Tok: d.Tok, Name: d.Name, ModUname: mod.Uname,
			IsExported: d.IsExported, AliasOf: b.convertType(mod.Uname, d.AliasOf)}
	case ast1.DVar:
		return b.elaborateVar(mod, d, nil)
	case ast1.DFunc:
		return b.elaborateFunc(mod, d)
	case ast1.DStruct:
		return b.elaborateStruct(mod, d)
	case ast1.DEnum:
		return b.elaborateEnum(mod, d)
	case ast1.DRawC:
		return &ast2.Decl{Kind: ast2.DRawC, Tok: d.Tok, Name: d.Name, RawText: d.RawText}
	case ast1.DRawIR:
		return &ast2.Decl{Kind: ast2.DRawIR, Tok: d.Tok, Name: d.Name, RawText: d.RawText}
	default:
		return nil
	}
}

func (b *Builder) elaborateVar(mod *ast1.Module, d *ast1.Decl, scope *ast2.Scope) *ast2.Decl {
	nd := &ast2.Decl{Kind: ast2.DVar, Tok: d.Tok, Name: d.Name, ModUname: mod.Uname,
		IsExported: d.IsExported, IsDefine: d.IsDefine, IsConst: d.IsConst,
		IsVolatile: d.IsVolatile, IsExtern: d.IsExtern, IsParam: d.IsParam}
	if d.VarType != nil && d.VarType.Kind == ast1.TAuto {
		nd.InitExpr = b.elaborateExpr(mod, scope, d.InitExpr)
		if nd.InitExpr != nil {
			nd.VarType = nd.InitExpr.ExprType
		}
	} else {
		nd.VarType = b.convertType(mod.Uname, d.VarType)
		if d.InitExpr != nil {
			nd.InitExpr = b.elaborateExpr(mod, scope, d.InitExpr)
		}
	}
	return nd
}

func (b *Builder) elaborateStruct(mod *ast1.Module, d *ast1.Decl) *ast2.Decl {
	st := b.resolveNamedType(mod.Uname, d.Name)
	nd := &ast2.Decl{Kind: ast2.DStruct, Tok: d.Tok, Name: d.Name, ModUname: mod.Uname,
		IsExported: d.IsExported, StructType: st,
		MemNames:   append([]string(nil), d.MemNames...),
		MemOffsets: append([]int64(nil), d.MemOffsets...),
	}
	for _, t := range d.MemTypes {
		nd.MemTypes = append(nd.MemTypes, b.convertType(mod.Uname, t))
	}
	return nd
}

func (b *Builder) elaborateEnum(mod *ast1.Module, d *ast1.Decl) *ast2.Decl {
	et := b.resolveNamedType(mod.Uname, d.Name)
	return &ast2.Decl{Kind: ast2.DEnum, Tok: d.Tok, Name: d.Name, ModUname: mod.Uname,
		IsExported: d.IsExported, EnumType: et,
		EnumNames: append([]string(nil), d.EnumNames...), EnumValues: append([]int64(nil), d.EnumValues...)}
}

func (b *Builder) elaborateFunc(mod *ast1.Module, d *ast1.Decl) *ast2.Decl {
	nd := &ast2.Decl{Kind: ast2.DFunc, Tok: d.Tok, Name: d.Name, ModUname: mod.Uname,
		IsExported: d.IsExported, OwnerStruct: d.OwnerStruct, IsVaArg: d.IsVaArg,
		ReturnType: b.convertType(mod.Uname, d.ReturnType)}
	nd.Params = make([]*ast2.Param, len(d.Params))
	for i, p := range d.Params {
		nd.Params[i] = &ast2.Param{Name: p.Name, Type: b.convertType(mod.Uname, p.Type)}
	}
	if d.Body != nil {
		bodyScope := ast2.NewScope(nil)
		for i, p := range d.Params {
			bodyScope.Body = append(bodyScope.Body, &ast2.Stmt{Kind: ast2.SDecl, Tok: d.Tok,
				Decl: &ast2.Decl{Kind: ast2.DVar, Name: p.Name, ModUname: mod.Uname,
					VarType: nd.Params[i].Type, IsParam: true}})
		}
		nd.Body = b.elaborateBody(mod, bodyScope, d.Body)
	}
	return nd
}
