package analyzer

import (
	"github.com/torlang/torc/internal/ast1"
	"github.com/torlang/torc/internal/typesystem"
)

// convertType interns t (an already-sized A1 type, living in the
// module identified by modUname) into the shared A2 type pool
// (spec.md §4.5 "Type pool", §3 "A2 Type"). TName/TForeign references
// resolve through the declaration graph rather than requiring the
// target's ast2.Decl to already exist, so struct/enum types can be
// interned in any order.
func (b *Builder) convertType(modUname string, t *ast1.Type) *typesystem.Type {
	if t == nil {
		return nil
	}
	switch t.Kind {
	case ast1.TPrimitive:
		return b.primType(t.Prim)
	case ast1.TPointer:
		if t.Direct != nil && t.Direct.IsVoid() {
			return b.Pool.VoidPtr
		}
		return b.Pool.Intern(&typesystem.Type{Kind: typesystem.KPointer,
			Elem: b.convertType(modUname, t.Direct), Size: t.TypeSize, Align: t.TypeAlign})
	case ast1.TSlice:
		return b.Pool.Intern(&typesystem.Type{Kind: typesystem.KSlice,
			Elem: b.convertType(modUname, t.Direct), Size: t.TypeSize, Align: t.TypeAlign})
	case ast1.TArray:
		return b.Pool.Intern(&typesystem.Type{Kind: typesystem.KArray,
			Elem: b.convertType(modUname, t.Direct), ArrLen: t.ArrLenVal, Size: t.TypeSize, Align: t.TypeAlign})
	case ast1.TFunction:
		params := make([]*typesystem.Type, len(t.Indirect))
		for i, p := range t.Indirect {
			params[i] = b.convertType(modUname, p)
		}
		return b.Pool.Intern(&typesystem.Type{Kind: typesystem.KFunction,
			Elem: b.convertType(modUname, t.Direct), Params: params, Size: t.TypeSize, Align: t.TypeAlign})
	case ast1.TName:
		return b.resolveNamedType(modUname, t.Name)
	case ast1.TForeign:
		targetUname, ok := b.foreignTarget(modUname, t.ModName)
		if !ok {
			return nil
		}
		return b.resolveNamedType(targetUname, t.Name)
	default:
		return nil
	}
}

func (b *Builder) primType(p ast1.PrimKind) *typesystem.Type {
	switch p {
	case ast1.PI8:
		return b.Pool.I8
	case ast1.PI16:
		return b.Pool.I16
	case ast1.PI32:
		return b.Pool.I32
	case ast1.PI64:
		return b.Pool.I64
	case ast1.PU8:
		return b.Pool.U8
	case ast1.PU16:
		return b.Pool.U16
	case ast1.PU32:
		return b.Pool.U32
	case ast1.PU64:
		return b.Pool.U64
	case ast1.PF32:
		return b.Pool.F32
	case ast1.PF64:
		return b.Pool.F64
	case ast1.PBool:
		return b.Pool.Bool
	default:
		return b.Pool.Void
	}
}

// resolveNamedType finds name in the A1 module uname and interns the
// corresponding struct/enum type, or follows a typedef chain.
func (b *Builder) resolveNamedType(uname, name string) *typesystem.Type {
	a1mod, ok := b.A1[uname]
	if !ok {
		return nil
	}
	d, ok := a1mod.Find(name)
	if !ok {
		return nil
	}
	switch d.Kind {
	case ast1.DStruct:
		return b.Pool.Intern(&typesystem.Type{Kind: typesystem.KStruct, ModUname: uname, Name: name,
			Size: d.StructSize, Align: d.StructAlign})
	case ast1.DEnum:
		return b.Pool.Intern(&typesystem.Type{Kind: typesystem.KEnum, ModUname: uname, Name: name,
			Size: d.EnumSize, Align: d.EnumSize})
	case ast1.DTypedef:
		return b.convertType(uname, d.AliasOf)
	default:
		return nil
	}
}

// foreignTarget resolves an import alias, as written inside module
// uname, to the uname of the module it was instantiated/loaded to.
func (b *Builder) foreignTarget(uname, alias string) (string, bool) {
	mod, ok := b.A1[uname]
	if !ok {
		return "", false
	}
	for _, inc := range mod.Includes {
		if inc.ImportAlias == alias && inc.TargetUname != "" {
			return inc.TargetUname, true
		}
	}
	return "", false
}
