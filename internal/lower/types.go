package lower

import (
	"github.com/torlang/torc/internal/ast1"
	"github.com/torlang/torc/internal/ast3"
	"github.com/torlang/torc/internal/typesystem"
)

// convertType maps a pool-interned A2 type onto its A3 counterpart
// (spec.md §4.6): enums decay to a KPrimitive integer sized to hold
// EnumSize bytes, everything else keeps its shape. A3 keeps its own
// cache rather than reusing A2's typesystem.Pool — lowering mutates
// function signatures (trailing destination params, variadic packing)
// in ways that must never alias back into the type the analyzer
// already reported diagnostics against (original_source/code/ast3.h's
// A3Gen carries its own separate typePool for the same reason).
func (g *Gen) convertType(t *typesystem.Type) *ast3.Type {
	if t == nil {
		return nil
	}
	if c, ok := g.typeCache[t]; ok {
		return c
	}
	out := &ast3.Type{Size: t.Size, Align: t.Align}
	g.typeCache[t] = out
	switch t.Kind {
	case typesystem.KPrimitive:
		out.Kind = ast3.KPrimitive
		out.Prim = t.Prim
	case typesystem.KPointer:
		out.Kind = ast3.KPointer
		out.Elem = g.convertType(t.Elem)
	case typesystem.KArray:
		out.Kind = ast3.KArray
		out.Elem = g.convertType(t.Elem)
		out.ArrLen = t.ArrLen
	case typesystem.KSlice:
		out.Kind = ast3.KSlice
		out.Elem = g.convertType(t.Elem)
	case typesystem.KFunction:
		out.Kind = ast3.KFunction
		out.Elem = g.convertType(t.Elem)
		for _, p := range t.Params {
			out.Params = append(out.Params, g.convertType(p))
		}
	case typesystem.KStruct:
		out.Kind = ast3.KStruct
		out.Name = mangle(t.ModUname, t.Name)
	case typesystem.KEnum:
		out.Kind = ast3.KPrimitive
		out.Prim = enumCarryPrim(t.Size)
	}
	return out
}

// mangle gives every struct a name unique across the whole module set,
// since A3 decls are no longer scoped by a per-module NameIndex the
// way ast2.Module.Find looks one up.
func mangle(uname, name string) string { return uname + "$" + name }

func enumCarryPrim(size int64) ast3.PrimKind {
	switch {
	case size <= 1:
		return ast1.PI8
	case size <= 2:
		return ast1.PI16
	case size <= 4:
		return ast1.PI32
	default:
		return ast1.PI64
	}
}
