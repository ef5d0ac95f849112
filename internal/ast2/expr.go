package ast2

import (
	"github.com/torlang/torc/internal/ast1"
	"github.com/torlang/torc/internal/token"
	"github.com/torlang/torc/internal/typesystem"
)

// ExprKind is the tag of the A2 Expression union (spec.md §3
// "Expression (A2) adds { var_name | func_name | struct_name |
// enum_name | fptr_call | func_call }").
type ExprKind int

const (
	ELiteral ExprKind = iota
	ELiteralData
	EVarName
	EFuncName
	EStructName
	EEnumName
	EOperation
	EFuncCall
	EMethodCall
	EFptrCall
)

// OpKind reuses the A1 operator vocabulary; elaboration never changes
// operator identity, only validates operand types and fixes a result
// type (spec.md §4.5 "Operator elaboration").
type OpKind = ast1.OpKind

// Expr is the A2 Expression node: every node carries ExprType,
// IsLvalue, and IsConst (spec.md §3).
type Expr struct {
	Kind ExprKind
	Tok  token.Token

	ExprType *typesystem.Type
	IsLvalue bool
	IsConst  bool

	Lit   token.Literal // ELiteral
	Elems []*Expr       // ELiteralData, in source order

	Name     string // EVarName/EFuncName/EStructName/EEnumName, or OpMember's field
	ModUname string // qualifies a cross-module reference, "" for same-module
	Decl     *Decl  // the declaration this name resolved to, when applicable

	Op OpKind // EOperation

	// Operand slots; meaning mirrors ast1.Expr's (spec.md §3):
	//   unary: A          binary: A,B        ternary: A=cond,B=then,C=else
	//   index: A=base,B=index                slice: A=base,B=lo,C=hi
	//   member: A=base, Name=field            sizeof/len: A (TypeOperand if sizeof(T))
	//   make: A=pointer, B=count
	A, B, C *Expr

	TypeOperand *typesystem.Type // sizeof(T), cast<T>(e)

	// EFuncCall / EMethodCall / EFptrCall
	Callee *Expr // EFptrCall: the function-pointer-valued expression
	Args   []*Expr
}

func (e *Expr) GetToken() token.Token {
	if e == nil {
		return token.None
	}
	return e.Tok
}
