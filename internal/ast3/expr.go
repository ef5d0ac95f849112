package ast3

import (
	"github.com/torlang/torc/internal/ast1"
	"github.com/torlang/torc/internal/token"
)

// ExprKind is the tag of the A3 Expression union (spec.md §4.6). Note
// what A2 has that A3 does not: literal_data, struct_name, and
// enum_name never survive lowering — literal_data is unrolled into
// per-element pre-statements ahead of the statement that uses it, and
// struct/enum names only ever appeared as the left operand of a
// method/member/enum-value reference, which lowering already resolved
// to a concrete type or constant by the time this tree is built.
type ExprKind int

const (
	ELiteral ExprKind = iota
	EOperation
	EVarName
	EFuncName
	EFuncCall
	EFptrCall
)

// OpKind reuses A1/A2's operator vocabulary wholesale — OpMember,
// OpIndex, OpSlice, OpSizeof, OpCast, OpMake, and OpLen all remain
// legitimate A3 operators for a backend to pattern-match on directly,
// the same way A1/A2 do (original_source/code/ast3.h's A3ExprOpType
// folds them into one enum alongside B_PTR_ADD/B_PTR_SUB rather than
// eliminating them). The one new distinction lowering adds is
// splitting OpAdd/OpSub: once an operand's type is known to be a
// pointer, the op becomes OpPtrAdd/OpPtrSub so codegen knows to scale
// the integer operand by the pointee's size instead of emitting plain
// integer arithmetic.
type OpKind = ast1.OpKind

const (
	OpPtrAdd ast1.OpKind = 1000 + iota
	OpPtrSub
)

// Expr is the A3 Expression node.
type Expr struct {
	Kind ExprKind
	Tok  token.Token

	ExprType *Type

	Lit token.Literal // ELiteral

	Name string // EVarName/EFuncName, or OpMember's field name
	Uid  int64  // EVarName/EFuncName: declaration this name resolves to

	Op      OpKind // EOperation
	A, B, C *Expr

	TypeOperand *Type // OpCast

	Callee *Expr // EFptrCall
	Args   []*Expr
}

func (e *Expr) GetToken() token.Token {
	if e == nil {
		return token.None
	}
	return e.Tok
}
