// Package typesystem implements the A2 type pool (spec.md §4.5 "Type
// pool", §3 "A2 Type"): a per-compilation-unit set of structurally
// interned canonical types. Unlike the teacher's Hindley-Milner
// `TVar`/`Subst`/`Unify` machinery, this spec has no value-level type
// inference beyond `auto` resolving to its initializer's type, so the
// pool only needs structural interning, not unification.
package typesystem

import "github.com/torlang/torc/internal/ast1"

// Kind tags the A2 Type union (spec.md §3 "A2 Type").
type Kind int

const (
	KPrimitive Kind = iota
	KPointer
	KArray
	KSlice
	KFunction
	KStruct
	KEnum
)

// PrimKind mirrors ast1.PrimKind; kept as its own type so typesystem
// has no dependency on the syntactic layer beyond import conversion.
type PrimKind = ast1.PrimKind

// Type is a pool-owned canonical A2 type (spec.md §3): two types are
// equal iff their full structural skeletons agree, including element,
// pointee, return, and ordered parameter lists, plus — for
// structs/enums — the pair (ModUname, Name).
type Type struct {
	Kind Kind
	Prim PrimKind // KPrimitive

	Elem   *Type   // KPointer pointee / KArray,KSlice element / KFunction return
	Params []*Type // KFunction parameter types, in order

	ArrLen int64 // KArray length

	ModUname string // KStruct/KEnum: owning module's uname
	Name     string // KStruct/KEnum: declared name

	Size  int64
	Align int64
}

// Pool is a per-compilation-unit set of interned types (spec.md §4.5
// "Type pool"): Intern returns the existing entry on structural
// match, else appends t.
type Pool struct {
	types []*Type

	I8, I16, I32, I64 *Type
	U8, U16, U32, U64 *Type
	F32, F64          *Type
	Bool, Void        *Type
	VoidPtr           *Type // void*
	U8Slice           *Type // u8[]
}

// NewPool pre-interns the arch-independent base types: i8..i64,
// u8..u64, f32/f64, bool, void. void* and u8[] are added by Arch.
func NewPool() *Pool {
	p := &Pool{}
	mk := func(pk PrimKind, size int64) *Type {
		t := &Type{Kind: KPrimitive, Prim: pk, Size: size, Align: size}
		if size == 0 {
			t.Align = 1
		}
		return p.intern(t)
	}
	p.I8 = mk(ast1.PI8, 1)
	p.I16 = mk(ast1.PI16, 2)
	p.I32 = mk(ast1.PI32, 4)
	p.I64 = mk(ast1.PI64, 8)
	p.U8 = mk(ast1.PU8, 1)
	p.U16 = mk(ast1.PU16, 2)
	p.U32 = mk(ast1.PU32, 4)
	p.U64 = mk(ast1.PU64, 8)
	p.F32 = mk(ast1.PF32, 4)
	p.F64 = mk(ast1.PF64, 8)
	p.Bool = mk(ast1.PBool, 1)
	p.Void = mk(ast1.PVoid, 0)
	return p
}

// Arch finishes pre-interning the arch-dependent base types (void*,
// u8[]) once the target pointer width is known.
func (p *Pool) Arch(archBytes int) {
	p.VoidPtr = p.Intern(&Type{Kind: KPointer, Elem: p.Void, Size: int64(archBytes), Align: int64(archBytes)})
	p.U8Slice = p.Intern(&Type{Kind: KSlice, Elem: p.U8, Size: int64(2 * archBytes), Align: int64(archBytes)})
}

// Intern returns the pool's canonical representative for t: the
// existing entry on structural match, else t itself, appended.
func (p *Pool) Intern(t *Type) *Type { return p.intern(t) }

func (p *Pool) intern(t *Type) *Type {
	for _, ex := range p.types {
		if equal(ex, t) {
			return ex
		}
	}
	p.types = append(p.types, t)
	return t
}

func equal(a, b *Type) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KPrimitive:
		return a.Prim == b.Prim
	case KPointer:
		return sameRef(a.Elem, b.Elem)
	case KArray:
		return a.ArrLen == b.ArrLen && sameRef(a.Elem, b.Elem)
	case KSlice:
		return sameRef(a.Elem, b.Elem)
	case KFunction:
		if !sameRef(a.Elem, b.Elem) || len(a.Params) != len(b.Params) {
			return false
		}
		for i := range a.Params {
			if !sameRef(a.Params[i], b.Params[i]) {
				return false
			}
		}
		return true
	case KStruct, KEnum:
		return a.ModUname == b.ModUname && a.Name == b.Name
	}
	return false
}

// sameRef compares two already-interned pointers; since intern()
// always returns the canonical pointer for a structural class, two
// pool members denote the same type iff their pointers are equal.
func sameRef(a, b *Type) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a == b || equal(a, b)
}

func (t *Type) IsVoid() bool      { return t != nil && t.Kind == KPrimitive && t.Prim == ast1.PVoid }
func (t *Type) IsInteger() bool   { return t != nil && t.Kind == KPrimitive && isIntegerPrim(t.Prim) }
func (t *Type) IsSigned() bool    { return t.IsInteger() && isSignedPrim(t.Prim) }
func (t *Type) IsFloat() bool     { return t != nil && t.Kind == KPrimitive && (t.Prim == ast1.PF32 || t.Prim == ast1.PF64) }
func (t *Type) IsBool() bool      { return t != nil && t.Kind == KPrimitive && t.Prim == ast1.PBool }
func (t *Type) IsNumeric() bool   { return t.IsInteger() || t.IsFloat() }
func (t *Type) IsPointer() bool   { return t != nil && t.Kind == KPointer }
func (t *Type) IsStruct() bool    { return t != nil && t.Kind == KStruct }
func (t *Type) IsEnum() bool      { return t != nil && t.Kind == KEnum }
func (t *Type) IsArray() bool     { return t != nil && t.Kind == KArray }
func (t *Type) IsSlice() bool     { return t != nil && t.Kind == KSlice }
func (t *Type) IsAggregate() bool { return t.IsArray() || t.IsSlice() || t.IsStruct() }

func isIntegerPrim(p PrimKind) bool {
	switch p {
	case ast1.PI8, ast1.PI16, ast1.PI32, ast1.PI64, ast1.PU8, ast1.PU16, ast1.PU32, ast1.PU64:
		return true
	}
	return false
}

func isSignedPrim(p PrimKind) bool {
	switch p {
	case ast1.PI8, ast1.PI16, ast1.PI32, ast1.PI64:
		return true
	}
	return false
}

// Equal reports whether two pool-interned types denote the same type
// (spec.md §3: "two types are equal iff their full structural
// skeletons agree").
func Equal(a, b *Type) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return equal(a, b)
}
