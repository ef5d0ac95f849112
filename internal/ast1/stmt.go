package ast1

import "github.com/torlang/torc/internal/token"

// StmtKind is the tag of the A1 Statement union (spec.md §3).
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

// AssignOp enumerates the assignment-statement forms of spec.md §4.2
// ("Assignment forms"): they are statements, never expressions.
type AssignOp int

const (
	AssignSet AssignOp = iota
	AssignAdd
	AssignSub
	AssignMul
	AssignDiv
	AssignMod
)

// SwitchCase is one `case`/`default` arm of a switch statement.
type SwitchCase struct {
	Values    []*Expr
	IsDefault bool
	Body      *Scope
	Fall      bool // true if any top-level statement of the arm is `fall`
}

// Stmt is the A1 Statement node.
type Stmt struct {
	Kind StmtKind
	Tok  token.Token

	Expr Expr1 // SExpr / SReturn (nil for bare return) / SDefer payload expression
	Decl *Decl // SDecl

	AssignOp AssignOp
	LHS      *Expr
	RHS      *Expr

	Scope *Scope // SScope body

	Cond *Expr  // if/while/for/switch condition
	Then *Scope // if-then / while body / for body
	Else *Scope // if-else; nil if absent. An else-if is represented as a
	// single-statement Scope whose only statement is the nested SIf.

	ForInit *Stmt
	ForStep *Stmt

	SwitchCases []*SwitchCase

	RawText string // SRawC / SRawIR verbatim text, never examined downstream
}

// Expr1 aliases *Expr so SExpr/SReturn/SDefer can hold a nilable expr
// without import cycles; kept as a thin alias for readability at call
// sites (e.g. `stmt.Expr == nil` reads as "no return value").
type Expr1 = *Expr

func (s *Stmt) GetToken() token.Token {
	if s == nil {
		return token.None
	}
	return s.Tok
}

// Scope owns a parent pointer forming the lexical chain (spec.md §3
// "Statement"), plus its own body vector.
type Scope struct {
	Parent *Scope
	Body   []*Stmt
}

// NewScope creates a child scope of parent (nil for the module's
// toplevel scope).
func NewScope(parent *Scope) *Scope {
	return &Scope{Parent: parent}
}

// Lookup walks the scope chain innermost-first, then falls back to
// decls registered directly in this scope's SDecl statements, per the
// tie-break rule of §5 ("innermost scope, then lexical declaration
// order"). It does not consult the module-level name index; callers
// needing cross-scope toplevel names should fall back to
// Module.Find after Lookup fails.
func (s *Scope) Lookup(name string) (*Decl, bool) {
	for sc := s; sc != nil; sc = sc.Parent {
		// innermost declaration of the given name wins; scan in
		// reverse so a later shadowing redeclaration in the same
		// scope is preferred, while still finding forward-declared
		// struct/enum/func/typedef decls that do not shadow.
		for i := len(sc.Body) - 1; i >= 0; i-- {
			st := sc.Body[i]
			if st.Kind == SDecl && st.Decl != nil && st.Decl.Name == name {
				return st.Decl, true
			}
		}
	}
	return nil, false
}

// DeepClone deep-copies a statement tree (used by A1-Ext cloning).
func (s *Stmt) DeepClone() *Stmt {
	if s == nil {
		return nil
	}
	ns := *s
	ns.Expr = s.Expr.DeepClone()
	ns.Decl = s.Decl.DeepClone()
	ns.LHS = s.LHS.DeepClone()
	ns.RHS = s.RHS.DeepClone()
	ns.Scope = s.Scope.DeepClone()
	ns.Cond = s.Cond.DeepClone()
	ns.Then = s.Then.DeepClone()
	ns.Else = s.Else.DeepClone()
	ns.ForInit = s.ForInit.DeepClone()
	ns.ForStep = s.ForStep.DeepClone()
	if s.SwitchCases != nil {
		ns.SwitchCases = make([]*SwitchCase, len(s.SwitchCases))
		for i, c := range s.SwitchCases {
			nc := *c
			nc.Values = make([]*Expr, len(c.Values))
			for j, v := range c.Values {
				nc.Values[j] = v.DeepClone()
			}
			nc.Body = c.Body.DeepClone()
			ns.SwitchCases[i] = &nc
		}
	}
	return &ns
}

func (sc *Scope) DeepClone() *Scope {
	if sc == nil {
		return nil
	}
	nsc := &Scope{Parent: sc.Parent} // keeps the original's parent pointer; nothing re-points it to the cloned tree
	nsc.Body = make([]*Stmt, len(sc.Body))
	for i, st := range sc.Body {
		nsc.Body[i] = st.DeepClone()
	}
	return nsc
}
