// Package ast3 holds the lowered AST (spec.md §3, §4.6): the shape
// code generation consumes directly, with enums decayed to their
// carrying primitive, array-returning functions rewritten to carry a
// trailing destination pointer, break/continue/fall turned into jumps
// to numbered labels, and deferred calls duplicated ahead of every exit
// from their scope. Grounded on
// original_source/code/ast3.h's A3Type/A3Expr/A3Stat/A3Decl shape,
// re-expressed as Go tagged structs the way ast1/ast2 already are.
package ast3

import (
	"github.com/torlang/torc/internal/ast1"
	"github.com/torlang/torc/internal/token"
)

// Kind tags the A3 Type union.
type Kind int

const (
	KPrimitive Kind = iota
	KPointer
	KArray  // decays to a pointer at the ABI boundary; arrLen kept for sizing
	KSlice
	KFunction // Elem is the return type and Params the parameter types,
	// both converted as-is: an array return stays an array Elem here and
	// no destination parameter is added. Only lowerFuncDecl rewrites an
	// array-returning function declaration to a trailing pointer
	// parameter and a void return.
	KStruct
)

// PrimKind reuses ast1/typesystem's primitive vocabulary.
type PrimKind = ast1.PrimKind

// Type is the A3 type: enums never appear here (spec.md §4.6 "enum
// decays to its smallest carrying primitive") — a KPrimitive integer
// of EnumSize bytes stands in for one.
type Type struct {
	Kind Kind
	Prim PrimKind

	Name string // KStruct: stable mangled name (spec.md §4.6)

	Elem   *Type
	Params []*Type
	ArrLen int64

	Size  int64
	Align int64

	Tok token.Token
}

func (t *Type) IsVoid() bool    { return t != nil && t.Kind == KPrimitive && t.Prim == ast1.PVoid }
func (t *Type) IsPointer() bool { return t != nil && t.Kind == KPointer }
func (t *Type) IsStruct() bool  { return t != nil && t.Kind == KStruct }
