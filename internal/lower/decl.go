package lower

import (
	"github.com/torlang/torc/internal/ast1"
	"github.com/torlang/torc/internal/ast2"
	"github.com/torlang/torc/internal/ast3"
)

func (g *Gen) lowerModule(mod *ast2.Module) {
	g.curFile = mod.Path
	out := ast3.NewModule(mod.Path, mod.Uname)
	g.Out[mod.Uname] = out
	for _, d := range mod.AllDecls() {
		if nd := g.lowerDecl(mod, d); nd != nil {
			out.AddDecl(nd)
		}
	}
}

func (g *Gen) lowerDecl(mod *ast2.Module, d *ast2.Decl) *ast3.Decl {
	switch d.Kind {
	case ast2.DRawC:
		return &ast3.Decl{Kind: ast3.DRawC, Uid: g.uid(d), Tok: d.Tok, RawText: d.RawText}
	case ast2.DRawIR:
		return &ast3.Decl{Kind: ast3.DRawIR, Uid: g.uid(d), Tok: d.Tok, RawText: d.RawText}
	case ast2.DVar:
		return g.lowerVarDecl(mod, d)
	case ast2.DFunc:
		return g.lowerFuncDecl(mod, d)
	case ast2.DStruct:
		return g.lowerStructDecl(mod, d)
	case ast2.DEnum:
		return g.lowerEnumDecl(mod, d)
	case ast2.DTypedef:
		return nil // fully resolved away by convertType; never referenced by name past A2
	}
	return nil
}

func (g *Gen) lowerVarDecl(mod *ast2.Module, d *ast2.Decl) *ast3.Decl {
	nd := &ast3.Decl{Kind: ast3.DVar, Uid: g.uid(d), Tok: d.Tok, Name: d.Name, IsExported: d.IsExported,
		VarType: g.convertType(d.VarType), IsConst: d.IsConst, IsExtern: d.IsExtern, IsParam: d.IsParam}
	if d.InitExpr != nil {
		nd.InitExpr = g.lowerExpr(mod, d.InitExpr)
	}
	return nd
}

func (g *Gen) lowerFuncDecl(mod *ast2.Module, d *ast2.Decl) *ast3.Decl {
	nd := &ast3.Decl{Kind: ast3.DFunc, Uid: g.uid(d), Tok: d.Tok, Name: funcMangledName(mod, d), IsExported: d.IsExported}
	nd.ReturnType = g.convertType(d.ReturnType)
	for _, p := range d.Params {
		nd.Params = append(nd.Params, &ast3.Param{Name: p.Name, Type: g.convertType(p.Type)})
	}
	// An array-returning function carries no ABI-representable return
	// register, so lowering rewrites it to write through a synthetic
	// trailing pointer parameter and return void (spec.md §4.6).
	if nd.ReturnType != nil && nd.ReturnType.Kind == ast3.KArray {
		dst := &ast3.Param{Name: "$ret", Type: &ast3.Type{Kind: ast3.KPointer, Elem: nd.ReturnType.Elem, Size: int64(g.Cfg.Arch), Align: int64(g.Cfg.Arch)}}
		nd.Params = append(nd.Params, dst)
		nd.HasRetPointer = true
		nd.ReturnType = &ast3.Type{Kind: ast3.KPrimitive, Prim: ast1.PVoid}
	}
	if d.Body != nil {
		savedDest := g.retDest
		if nd.HasRetPointer {
			dst := nd.Params[len(nd.Params)-1]
			g.retDest = &ast3.Expr{Kind: ast3.EVarName, Tok: d.Tok, Name: dst.Name, ExprType: dst.Type}
		} else {
			g.retDest = nil
		}
		nd.Body = g.lowerScope(mod, d.Body)
		g.retDest = savedDest
	}
	return nd
}

// funcMangledName keeps free functions under their plain declared name
// (the analyzer already enforces no-collision within a module) and
// gives methods a struct-qualified name, since A3 no longer carries
// per-module method link tables to disambiguate `sum` from two
// different structs.
func funcMangledName(mod *ast2.Module, d *ast2.Decl) string {
	if d.OwnerStruct != "" {
		return d.OwnerStruct + "." + d.Name
	}
	return d.Name
}

func (g *Gen) lowerStructDecl(mod *ast2.Module, d *ast2.Decl) *ast3.Decl {
	nd := &ast3.Decl{Kind: ast3.DStruct, Uid: g.uid(d), Tok: d.Tok, Name: mangle(mod.Uname, d.Name), IsExported: d.IsExported,
		MemNames: d.MemNames, MemOffsets: d.MemOffsets, StructType: g.convertType(d.StructType)}
	for _, mt := range d.MemTypes {
		nd.MemTypes = append(nd.MemTypes, g.convertType(mt))
	}
	return nd
}

func (g *Gen) lowerEnumDecl(mod *ast2.Module, d *ast2.Decl) *ast3.Decl {
	return &ast3.Decl{Kind: ast3.DEnum, Uid: g.uid(d), Tok: d.Tok, Name: mangle(mod.Uname, d.Name), IsExported: d.IsExported,
		EnumNames: d.EnumNames, EnumValues: d.EnumValues}
}
