package ast1

import "github.com/torlang/torc/internal/token"

// ExprKind is the tag of the A1 Expression union (spec.md §3).
type ExprKind int

const (
	ELiteral ExprKind = iota
	ELiteralData
	EName
	EOperation
	ECall
)

// OpKind enumerates every unary/binary/ternary operator and intrinsic
// the Pratt parser (spec.md §4.2) and the operator elaborator
// (spec.md §4.5) recognise.
type OpKind int

const (
	OpAdd OpKind = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpShl
	OpShr
	OpLt
	OpLe
	OpGt
	OpGe
	OpEq
	OpNe
	OpBitAnd
	OpBitXor
	OpBitOr
	OpAnd
	OpOr

	OpNeg    // unary -
	OpPos    // unary +
	OpNot    // unary !
	OpBitNot // unary ~
	OpAddr   // unary &
	OpDeref  // unary *

	OpTernary // ?:

	OpSizeof
	OpCast
	OpMake
	OpLen

	OpIndex  // a[i]
	OpSlice  // a[lo:hi]
	OpMember // a.b
)

// Expr is the A1 Expression node (spec.md §3):
// { literal | literal_data | name | operation | func_call }.
type Expr struct {
	Kind ExprKind
	Tok  token.Token

	Lit token.Literal // ELiteral

	Elems []*Expr // ELiteralData: ordered aggregate initializer elements

	Name string // EName

	Op          OpKind // EOperation
	TypeOperand *Type  // sizeof(T), cast<T>(e)

	// Operand slots, meaning depends on Op:
	//   unary:    A
	//   binary:   A, B
	//   ternary:  A=cond, B=then, C=else
	//   index:    A=base, B=index
	//   slice:    A=base, B=lo (nil = omitted), C=hi (nil = omitted)
	//   member:   A=base, Name=field
	//   sizeof:   A=operand expr (TypeOperand set instead when sizeof(T))
	//   make:     A=pointer expr, B=count expr
	//   len:      A=operand expr
	A, B, C *Expr

	Callee *Expr // ECall: name expr or member expr
	Args   []*Expr
}

func (e *Expr) GetToken() token.Token {
	if e == nil {
		return token.None
	}
	return e.Tok
}

// DeepClone deep-copies an expression tree.
func (e *Expr) DeepClone() *Expr {
	if e == nil {
		return nil
	}
	ne := *e
	ne.TypeOperand = e.TypeOperand.DeepClone()
	ne.A = e.A.DeepClone()
	ne.B = e.B.DeepClone()
	ne.C = e.C.DeepClone()
	ne.Callee = e.Callee.DeepClone()
	if e.Elems != nil {
		ne.Elems = make([]*Expr, len(e.Elems))
		for i, el := range e.Elems {
			ne.Elems[i] = el.DeepClone()
		}
	}
	if e.Args != nil {
		ne.Args = make([]*Expr, len(e.Args))
		for i, a := range e.Args {
			ne.Args[i] = a.DeepClone()
		}
	}
	return &ne
}

// NewLiteral builds an ELiteral node, the form the constant folder
// replaces a folded subtree with while preserving location.
func NewLiteral(tok token.Token, lit token.Literal) *Expr {
	return &Expr{Kind: ELiteral, Tok: tok, Lit: lit}
}
