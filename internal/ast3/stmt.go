package ast3

import "github.com/torlang/torc/internal/token"

// StmtKind is the tag of the A3 Statement union
// (original_source/code/ast3.h's A3Stat hierarchy). A3 drops FOR and
// DEFER relative to A2: for-loops lower into WHILE plus explicit
// init/step statements around it, and defers compile away into
// ordinary control flow (duplicated cleanup code ahead of each exit
// path) during lowering. LABEL/JUMP are new: lowering emits them for
// loop and switch break/continue targets and for switch fallthrough;
// BREAK and CONTINUE are never emitted by lowering.
type StmtKind int

const (
	SRawC StmtKind = iota
	SRawIR
	SLabel
	SJump
	SBreak
	SContinue
	SReturn
	SMemset
	SMemcpy
	SExpr
	SDecl
	SAssign
	SScope
	SIf
	SWhile
	SSwitch
)

type AssignOp int

const (
	AssignSet AssignOp = iota
	AssignAdd
	AssignSub
	AssignMul
	AssignDiv
	AssignMod
)

type SwitchCase struct {
	Values    []*Expr
	IsDefault bool
	Body      *Scope
}

// Stmt is the A3 Statement node.
type Stmt struct {
	Kind StmtKind
	Tok  token.Token

	Expr *Expr
	Decl *Decl

	AssignOp AssignOp
	LHS, RHS *Expr

	// SLabel / SJump: a function-local label id, unique within the
	// owning function (spec.md GLOSSARY "state register" realized here
	// as a sequence of named exit points rather than a literal integer).
	Label int

	// SMemset: Dst[0:Size] = Fill, byte-repeated.
	// SMemcpy: Dst[0:Size] = Src[0:Size]; a self-assignment (same
	// underlying lvalue on both sides) is elided entirely by the
	// lowering pass rather than emitted here (spec.md §4.6 "Array
	// assignment").
	Dst, Src *Expr
	Fill     byte
	Size     int64

	Scope *Scope

	Cond       *Expr
	Then, Else *Scope

	SwitchCases []*SwitchCase

	RawText string
}

func (s *Stmt) GetToken() token.Token {
	if s == nil {
		return token.None
	}
	return s.Tok
}

// Scope is the A3 lexical scope. Unlike A2's, it carries no defer
// list: every defer was already compiled into explicit duplicated
// cleanup statements by the time a tree reaches this package.
type Scope struct {
	Parent *Scope
	Body   []*Stmt
}

func NewScope(parent *Scope) *Scope { return &Scope{Parent: parent} }
