package ast2

import "github.com/torlang/torc/internal/token"

// StmtKind is the tag of the A2 Statement union (spec.md §3).
type StmtKind int

const (
	SRawC StmtKind = iota
	SRawIR
	SExpr
	SDecl
	SAssign
	SReturn
	SDefer
	SBreak
	SContinue
	SFall
	SScope
	SIf
	SWhile
	SFor
	SSwitch
)

// AssignOp mirrors ast1.AssignOp.
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
	Fall      bool
}

// Stmt is the A2 Statement node.
type Stmt struct {
	Kind StmtKind
	Tok  token.Token

	Expr *Expr
	Decl *Decl

	AssignOp AssignOp
	LHS, RHS *Expr

	Scope *Scope

	Cond       *Expr
	Then, Else *Scope

	ForInit, ForStep *Stmt

	SwitchCases []*SwitchCase

	RawText string
}

func (s *Stmt) GetToken() token.Token {
	if s == nil {
		return token.None
	}
	return s.Tok
}

// Scope is the A2 lexical scope: a parent pointer, a body vector, and
// — unlike A1's Scope — a defer list, populated as `defer` statements
// are elaborated in program order (spec.md §3 "a scope owns ... a
// defer list").
type Scope struct {
	Parent *Scope
	Body   []*Stmt
	Defers []*Expr // call expressions registered by `defer`, in program order
}

func NewScope(parent *Scope) *Scope { return &Scope{Parent: parent} }

// Lookup walks the scope chain innermost-first for a local variable
// declaration (spec.md §4.5 "Name binding": "classifies it by
// shadowing order: local variable, then global name").
func (s *Scope) Lookup(name string) (*Decl, bool) {
	for sc := s; sc != nil; sc = sc.Parent {
		for i := len(sc.Body) - 1; i >= 0; i-- {
			st := sc.Body[i]
			if st.Kind == SDecl && st.Decl != nil && st.Decl.Name == name {
				return st.Decl, true
			}
		}
	}
	return nil, false
}
