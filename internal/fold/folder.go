// Package fold implements spec.md §4.3's constant folder: given an A1
// expression, returns a Literal of kind none if the subtree is not
// foldable, else the computed value.
package fold

import (
	"math"

	"github.com/torlang/torc/internal/ast1"
	"github.com/torlang/torc/internal/diagnostics"
	"github.com/torlang/torc/internal/token"
)

// NameLookup resolves an identifier to the declaration that defines
// it — scope chain first, then module toplevel — so the folder can
// fold references to `define`d constants and enum type names.
type NameLookup func(name string) (*ast1.Decl, bool)

// Folder folds literal/name/operator trees against visible literals
// and enum members (spec.md §4.3).
type Folder struct {
	Lookup NameLookup
	Arch   int
}

func New(lookup NameLookup, arch int) *Folder {
	return &Folder{Lookup: lookup, Arch: arch}
}

// none is the "not foldable" sentinel.
var none = token.Literal{Kind: token.LitNone}

// Fold attempts to reduce e to a constant Literal. A nil error with a
// LitNone result means "not foldable, left as-is"; a non-nil error
// means the subtree *is* a constant expression but evaluating it is
// itself an error (division by zero, shift out of range, overflow).
func (f *Folder) Fold(e *ast1.Expr) (token.Literal, *diagnostics.Diagnostic) {
	if e == nil {
		return none, nil
	}
	switch e.Kind {
	case ast1.ELiteral:
		return e.Lit, nil
	case ast1.EName:
		return f.foldName(e)
	case ast1.EOperation:
		return f.foldOperation(e)
	default:
		return none, nil
	}
}

func (f *Folder) foldName(e *ast1.Expr) (token.Literal, *diagnostics.Diagnostic) {
	d, ok := f.Lookup(e.Name)
	if !ok || !d.IsDefine || d.InitExpr == nil {
		return none, nil
	}
	return f.Fold(d.InitExpr)
}

// FoldMember folds `E.M` where E names a (possibly foreign) enum decl
// already resolved by the caller, yielding the member's declared
// integer value (spec.md §4.3 "E.M when E is an enum name...").
func FoldMember(enumDecl *ast1.Decl, member string, tok token.Token) (token.Literal, *diagnostics.Diagnostic) {
	v, ok := enumDecl.EnumValue(member)
	if !ok {
		return none, diagnostics.Newf(diagnostics.ErrUnknownMember, tok, "enum %s has no member %s", enumDecl.Name, member)
	}
	return token.Literal{Kind: token.LitInt, I: v}, nil
}

func (f *Folder) foldOperation(e *ast1.Expr) (token.Literal, *diagnostics.Diagnostic) {
	switch e.Op {
	case ast1.OpSizeof:
		return f.foldSizeof(e)
	case ast1.OpMember:
		return f.foldMemberAccess(e)
	case ast1.OpTernary:
		return f.foldTernary(e)
	case ast1.OpNeg, ast1.OpPos, ast1.OpNot, ast1.OpBitNot:
		return f.foldUnary(e)
	case ast1.OpAnd, ast1.OpOr:
		return f.foldLogical(e)
	case ast1.OpAdd, ast1.OpSub, ast1.OpMul, ast1.OpDiv, ast1.OpMod,
		ast1.OpShl, ast1.OpShr, ast1.OpLt, ast1.OpLe, ast1.OpGt, ast1.OpGe,
		ast1.OpEq, ast1.OpNe, ast1.OpBitAnd, ast1.OpBitXor, ast1.OpBitOr:
		return f.foldBinary(e)
	default:
		return none, nil
	}
}

func (f *Folder) foldSizeof(e *ast1.Expr) (token.Literal, *diagnostics.Diagnostic) {
	if e.TypeOperand != nil {
		if e.TypeOperand.TypeSize > 0 {
			return token.Literal{Kind: token.LitInt, I: e.TypeOperand.TypeSize}, nil
		}
		return none, nil
	}
	// sizeof(expr): fixed sizes for literal operands only (spec.md
	// §4.3: "sizeof(literal) for fixed-size literals").
	lit, err := f.Fold(e.A)
	if err != nil {
		return none, err
	}
	switch lit.Kind {
	case token.LitInt, token.LitFloat:
		return token.Literal{Kind: token.LitInt, I: 8}, nil
	case token.LitString:
		return token.Literal{Kind: token.LitInt, I: int64(2 * f.Arch)}, nil
	default:
		return none, nil
	}
}

// foldMemberAccess folds E.M when E names a local enum declaration
// (spec.md §4.3: "E.M when E is an enum name... yielding the declared
// integer value"). A foreign enum reference (module.Name.M) is folded
// once A1-Ext/A2 has resolved the owning include; at plain A1 time an
// unresolved foreign base simply stays unfoldable.
func (f *Folder) foldMemberAccess(e *ast1.Expr) (token.Literal, *diagnostics.Diagnostic) {
	if e.A == nil || e.A.Kind != ast1.EName {
		return none, nil
	}
	d, ok := f.Lookup(e.A.Name)
	if !ok || d.Kind != ast1.DEnum {
		return none, nil
	}
	return FoldMember(d, e.Name, e.Tok)
}

func (f *Folder) foldTernary(e *ast1.Expr) (token.Literal, *diagnostics.Diagnostic) {
	cond, err := f.Fold(e.A)
	if err != nil {
		return none, err
	}
	if cond.Kind != token.LitBool {
		return none, nil
	}
	if cond.B {
		return f.Fold(e.B)
	}
	return f.Fold(e.C)
}

func (f *Folder) foldUnary(e *ast1.Expr) (token.Literal, *diagnostics.Diagnostic) {
	v, err := f.Fold(e.A)
	if err != nil {
		return none, err
	}
	switch e.Op {
	case ast1.OpNeg:
		switch v.Kind {
		case token.LitInt:
			return token.Literal{Kind: token.LitInt, I: -v.I}, nil
		case token.LitFloat:
			// Reachable directly from a freshly-parsed `-1.0` (Open
			// Question, spec.md §9): the operand here is the float
			// literal's own Fold result, not a pre-folded value, so
			// this branch fires on the very first fold attempt.
			return token.Literal{Kind: token.LitFloat, F: -v.F}, nil
		}
		return none, nil
	case ast1.OpPos:
		if v.Kind == token.LitInt || v.Kind == token.LitFloat {
			return v, nil
		}
		return none, nil
	case ast1.OpNot:
		if v.Kind == token.LitBool {
			return token.Literal{Kind: token.LitBool, B: !v.B}, nil
		}
		return none, nil
	case ast1.OpBitNot:
		if v.Kind == token.LitInt {
			return token.Literal{Kind: token.LitInt, I: ^v.I}, nil
		}
		return none, nil
	}
	return none, nil
}

func (f *Folder) foldLogical(e *ast1.Expr) (token.Literal, *diagnostics.Diagnostic) {
	a, err := f.Fold(e.A)
	if err != nil {
		return none, err
	}
	b, err := f.Fold(e.B)
	if err != nil {
		return none, err
	}
	if a.Kind != token.LitBool || b.Kind != token.LitBool {
		return none, nil
	}
	// Strict (non-short-circuit) fold semantics at compile time
	// (spec.md §4.3): both operands are always evaluated.
	if e.Op == ast1.OpAnd {
		return token.Literal{Kind: token.LitBool, B: a.B && b.B}, nil
	}
	return token.Literal{Kind: token.LitBool, B: a.B || b.B}, nil
}

func (f *Folder) foldBinary(e *ast1.Expr) (token.Literal, *diagnostics.Diagnostic) {
	a, err := f.Fold(e.A)
	if err != nil {
		return none, err
	}
	b, err := f.Fold(e.B)
	if err != nil {
		return none, err
	}
	if a.Kind == token.LitNone || b.Kind == token.LitNone {
		return none, nil
	}
	if a.Kind != b.Kind {
		return none, nil
	}

	switch a.Kind {
	case token.LitInt:
		return f.foldIntBinary(e.Op, a.I, b.I, e.Tok)
	case token.LitFloat:
		return f.foldFloatBinary(e.Op, a.F, b.F, e.Tok)
	case token.LitBool:
		return f.foldBoolBinary(e.Op, a.B, b.B)
	default:
		return none, nil
	}
}

func (f *Folder) foldIntBinary(op ast1.OpKind, a, b int64, tok token.Token) (token.Literal, *diagnostics.Diagnostic) {
	lit := func(v int64) (token.Literal, *diagnostics.Diagnostic) {
		return token.Literal{Kind: token.LitInt, I: v}, nil
	}
	boolean := func(v bool) (token.Literal, *diagnostics.Diagnostic) {
		return token.Literal{Kind: token.LitBool, B: v}, nil
	}
	switch op {
	case ast1.OpAdd:
		return lit(a + b)
	case ast1.OpSub:
		return lit(a - b)
	case ast1.OpMul:
		return lit(a * b)
	case ast1.OpDiv:
		if b == 0 {
			return none, diagnostics.New(diagnostics.ErrDivByZero, tok, "division by zero in constant expression")
		}
		if a == math.MinInt64 && b == -1 {
			return none, diagnostics.New(diagnostics.ErrIntOverflow, tok, "INT64_MIN / -1 overflows")
		}
		return lit(a / b)
	case ast1.OpMod:
		if b == 0 {
			return none, diagnostics.New(diagnostics.ErrDivByZero, tok, "modulo by zero in constant expression")
		}
		if a == math.MinInt64 && b == -1 {
			return none, diagnostics.New(diagnostics.ErrIntOverflow, tok, "INT64_MIN %% -1 overflows")
		}
		return lit(a % b)
	case ast1.OpShl:
		if b < 0 || b > 63 {
			return none, diagnostics.Newf(diagnostics.ErrShiftRange, tok, "shift amount %d out of range [0,63]", b)
		}
		return lit(a << uint(b))
	case ast1.OpShr:
		if b < 0 || b > 63 {
			return none, diagnostics.Newf(diagnostics.ErrShiftRange, tok, "shift amount %d out of range [0,63]", b)
		}
		return lit(a >> uint(b))
	case ast1.OpLt:
		return boolean(a < b)
	case ast1.OpLe:
		return boolean(a <= b)
	case ast1.OpGt:
		return boolean(a > b)
	case ast1.OpGe:
		return boolean(a >= b)
	case ast1.OpEq:
		return boolean(a == b)
	case ast1.OpNe:
		return boolean(a != b)
	case ast1.OpBitAnd:
		return lit(a & b)
	case ast1.OpBitXor:
		return lit(a ^ b)
	case ast1.OpBitOr:
		return lit(a | b)
	}
	return none, nil
}

func (f *Folder) foldFloatBinary(op ast1.OpKind, a, b float64, tok token.Token) (token.Literal, *diagnostics.Diagnostic) {
	lit := func(v float64) (token.Literal, *diagnostics.Diagnostic) {
		return token.Literal{Kind: token.LitFloat, F: v}, nil
	}
	boolean := func(v bool) (token.Literal, *diagnostics.Diagnostic) {
		return token.Literal{Kind: token.LitBool, B: v}, nil
	}
	switch op {
	case ast1.OpAdd:
		return lit(a + b)
	case ast1.OpSub:
		return lit(a - b)
	case ast1.OpMul:
		return lit(a * b)
	case ast1.OpDiv:
		if b == 0.0 {
			return none, diagnostics.New(diagnostics.ErrDivByZero, tok, "float division by zero in constant expression")
		}
		return lit(a / b)
	case ast1.OpLt:
		return boolean(a < b)
	case ast1.OpLe:
		return boolean(a <= b)
	case ast1.OpGt:
		return boolean(a > b)
	case ast1.OpGe:
		return boolean(a >= b)
	case ast1.OpEq:
		return boolean(a == b)
	case ast1.OpNe:
		return boolean(a != b)
	default:
		// %, <<, >>, &, ^, | are integer-only at parse/elaborate time.
		return none, nil
	}
}

func (f *Folder) foldBoolBinary(op ast1.OpKind, a, b bool) (token.Literal, *diagnostics.Diagnostic) {
	boolean := func(v bool) (token.Literal, *diagnostics.Diagnostic) {
		return token.Literal{Kind: token.LitBool, B: v}, nil
	}
	switch op {
	case ast1.OpEq:
		return boolean(a == b)
	case ast1.OpNe:
		return boolean(a != b)
	default:
		return none, nil
	}
}
