// Package ast1 holds the syntactic AST produced by the A1 parser
// (spec.md §3, §4.1-4.2): types whose only primitive/struct/enum sizes
// are known, a scope-chain lookup, deep clone (used by A1-Ext template
// instantiation), and the type parser invoked while parsing declarations.
package ast1

import "github.com/torlang/torc/internal/token"

// TypeKind is the tag of the A1 Type union (spec.md §3 "A1 Type").
type TypeKind int

const (
	TNone TypeKind = iota
	TAuto
	TPrimitive
	TPointer
	TArray
	TSlice
	TFunction
	TName     // reference to a struct/enum/template declared in this module
	TForeign  // reference to a struct/enum declared in an imported module
	TTemplate // canonical template-argument form produced by A1-Ext
	// argument canonicalisation (spec.md §4.4): a local/foreign name
	// node rewritten so two instantiation requests from different
	// call sites compare equal when they denote the same type.
)

// PrimKind enumerates the primitive scalar types.
type PrimKind int

const (
	PI8 PrimKind = iota
	PI16
	PI32
	PI64
	PU8
	PU16
	PU32
	PU64
	PF32
	PF64
	PBool
	PVoid
)

// PrimSize returns the byte size of a primitive kind. No primitive's
// size depends on the target architecture — arch only matters for
// pointers/slices, which are not primitives.
func PrimSize(p PrimKind) int64 {
	switch p {
	case PI8, PU8, PBool:
		return 1
	case PI16, PU16:
		return 2
	case PI32, PU32, PF32:
		return 4
	case PI64, PU64, PF64:
		return 8
	case PVoid:
		return 0
	}
	return -1
}

// Type is the A1 syntactic type: a tagged union carrying resolved
// size/alignment once known (-1 otherwise), an optional direct
// sub-type (element/pointee/return), and an ordered list of indirect
// sub-types (function parameters).
type Type struct {
	Kind TypeKind

	Prim PrimKind // valid when Kind == TPrimitive

	Name    string // valid when Kind == TName/TForeign/TTemplate: struct/enum/template name
	ModName string // valid when Kind == TForeign: qualifying import alias

	// IncName holds the canonical origin tag of a TTemplate node:
	// callerUname for a name local to the instantiating module, or
	// callerUname/originalIncName for a name re-exported through a
	// foreign reference (spec.md §4.4 "Argument canonicalisation").
	IncName string

	Direct   *Type   // element (array/slice), pointee (pointer), return type (function)
	Indirect []*Type // function parameter types, in order

	ArrLen    *Expr // array length expression as written (may be foldable, not yet folded); nil if not an array
	ArrLenVal int64 // resolved length once ArrLen has been folded; -1 if unresolved

	TypeSize  int64 // -1 if not yet resolved
	TypeAlign int64 // -1 if not yet resolved

	Tok token.Token
}

// NewUnresolved returns a Type with sizes marked unresolved.
func NewUnresolved(kind TypeKind) *Type {
	return &Type{Kind: kind, TypeSize: -1, TypeAlign: -1, ArrLenVal: -1}
}

func NewPrimitive(p PrimKind) *Type {
	t := NewUnresolved(TPrimitive)
	t.Prim = p
	t.TypeSize = PrimSize(p)
	t.TypeAlign = t.TypeSize
	if t.TypeAlign == 0 {
		t.TypeAlign = 1
	}
	return t
}

// IsVoid reports whether t denotes the void type.
func (t *Type) IsVoid() bool {
	return t != nil && t.Kind == TPrimitive && t.Prim == PVoid
}

// Resolved reports whether both size and alignment are known.
func (t *Type) Resolved() bool {
	return t != nil && t.TypeSize >= 0 && t.TypeAlign >= 0
}

// PointerSize is always arch-sized regardless of pointee.
func PointerSize(arch int) int64 { return int64(arch) }

// SliceSize is always two pointer-words (spec.md §6).
func SliceSize(arch int) int64 { return int64(2 * arch) }

// CanonicalKey renders a canonicalised type (spec.md §4.4) into a
// comparable string, used by A1-Ext to deduplicate instantiation
// requests keyed on (path, argument list). Only meaningful once every
// size in the tree is resolved — callers are expected to check
// Resolved() first.
func (t *Type) CanonicalKey() string {
	if t == nil {
		return "-"
	}
	switch t.Kind {
	case TPrimitive:
		return "p" + itoaKey(int64(t.Prim))
	case TPointer:
		return "*(" + t.Direct.CanonicalKey() + ")"
	case TSlice:
		return "[](" + t.Direct.CanonicalKey() + ")"
	case TArray:
		return "[" + itoaKey(t.ArrLenVal) + "](" + t.Direct.CanonicalKey() + ")"
	case TTemplate:
		return "T:" + t.IncName + "#" + t.Name
	case TForeign:
		return "F:" + t.ModName + "." + t.Name
	case TName:
		return "N:" + t.Name
	case TAuto:
		return "auto"
	default:
		return "none"
	}
}

func itoaKey(n int64) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [24]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// DeepClone deep-copies a Type tree. Used by A1-Ext to clone an entire
// template module per distinct instantiation argument list.
func (t *Type) DeepClone() *Type {
	if t == nil {
		return nil
	}
	nt := *t
	nt.Direct = t.Direct.DeepClone()
	if t.Indirect != nil {
		nt.Indirect = make([]*Type, len(t.Indirect))
		for i, p := range t.Indirect {
			nt.Indirect[i] = p.DeepClone()
		}
	}
	nt.ArrLen = t.ArrLen.DeepClone()
	return &nt
}
