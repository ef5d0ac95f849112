// Package prettyprinter renders a lowered ast3.Module back to
// source-like text, grounded on the teacher's own CodePrinter: a
// buffer plus an indent counter driving write/writeln/writeIndent, and
// a small operator-precedence table so a binary expression only gets
// parentheses where the grouping would otherwise change (spec.md §2
// "build <dir> ... print the A3 tree").
package prettyprinter

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/torlang/torc/internal/ast1"
	"github.com/torlang/torc/internal/ast3"
	"github.com/torlang/torc/internal/token"
)

var opSymbol = map[ast1.OpKind]string{
	ast1.OpAdd: "+", ast1.OpSub: "-", ast1.OpMul: "*", ast1.OpDiv: "/", ast1.OpMod: "%",
	ast1.OpShl: "<<", ast1.OpShr: ">>",
	ast1.OpLt: "<", ast1.OpLe: "<=", ast1.OpGt: ">", ast1.OpGe: ">=", ast1.OpEq: "==", ast1.OpNe: "!=",
	ast1.OpBitAnd: "&", ast1.OpBitXor: "^", ast1.OpBitOr: "|", ast1.OpAnd: "&&", ast1.OpOr: "||",
	ast3.OpPtrAdd: "+", ast3.OpPtrSub: "-",
}

var opPrecedence = map[ast1.OpKind]int{
	ast1.OpOr: 1, ast1.OpAnd: 2,
	ast1.OpBitOr: 3, ast1.OpBitXor: 4, ast1.OpBitAnd: 5,
	ast1.OpEq: 6, ast1.OpNe: 6,
	ast1.OpLt: 7, ast1.OpLe: 7, ast1.OpGt: 7, ast1.OpGe: 7,
	ast1.OpShl: 8, ast1.OpShr: 8,
	ast1.OpAdd: 9, ast1.OpSub: 9, ast3.OpPtrAdd: 9, ast3.OpPtrSub: 9,
	ast1.OpMul: 10, ast1.OpDiv: 10, ast1.OpMod: 10,
}

func getPrecedence(op ast1.OpKind) int {
	if p, ok := opPrecedence[op]; ok {
		return p
	}
	return 20 // unary/intrinsic ops bind tighter than any binary one
}

var primName = map[ast1.PrimKind]string{
	ast1.PI8: "i8", ast1.PI16: "i16", ast1.PI32: "i32", ast1.PI64: "i64",
	ast1.PU8: "u8", ast1.PU16: "u16", ast1.PU32: "u32", ast1.PU64: "u64",
	ast1.PF32: "f32", ast1.PF64: "f64", ast1.PBool: "bool", ast1.PVoid: "void",
}

// Printer renders one or more lowered modules as indented source text.
type Printer struct {
	buf    bytes.Buffer
	indent int
}

func New() *Printer { return &Printer{} }

func (p *Printer) write(s string)   { p.buf.WriteString(s) }
func (p *Printer) writeln()         { p.buf.WriteByte('\n') }
func (p *Printer) writeIndent() {
	for i := 0; i < p.indent; i++ {
		p.buf.WriteString("    ")
	}
}

func (p *Printer) String() string { return p.buf.String() }

// PrintModule renders every declaration of mod in source order.
func (p *Printer) PrintModule(mod *ast3.Module) {
	p.write("// module " + mod.Uname + " (" + mod.Path + ")")
	p.writeln()
	for _, d := range mod.Decls {
		p.printDecl(d)
		p.writeln()
	}
}

func (p *Printer) printType(t *ast3.Type) string {
	if t == nil {
		return "<?>"
	}
	switch t.Kind {
	case ast3.KPrimitive:
		if n, ok := primName[t.Prim]; ok {
			return n
		}
		return "<prim>"
	case ast3.KPointer:
		return p.printType(t.Elem) + "*"
	case ast3.KArray:
		return p.printType(t.Elem) + "[" + strconv.FormatInt(t.ArrLen, 10) + "]"
	case ast3.KSlice:
		return p.printType(t.Elem) + "[]"
	case ast3.KStruct:
		return t.Name
	case ast3.KFunction:
		s := "func(" + p.printType(t.Elem) + ")("
		for i, pt := range t.Params {
			if i > 0 {
				s += ", "
			}
			s += p.printType(pt)
		}
		return s + ")"
	}
	return "<?>"
}

func (p *Printer) printDecl(d *ast3.Decl) {
	switch d.Kind {
	case ast3.DRawC:
		p.writeIndent()
		p.write("raw_c { " + d.RawText + " }")
	case ast3.DRawIR:
		p.writeIndent()
		p.write("raw_ir { " + d.RawText + " }")
	case ast3.DVar:
		p.writeIndent()
		p.write(p.printType(d.VarType) + " " + d.Name)
		if d.InitExpr != nil {
			p.write(" = ")
			p.printExpr(d.InitExpr, 0)
		}
		p.write(";")
	case ast3.DFunc:
		p.printFuncDecl(d)
	case ast3.DStruct:
		p.printStructDecl(d)
	case ast3.DEnum:
		p.printEnumDecl(d)
	}
}

func (p *Printer) printFuncDecl(d *ast3.Decl) {
	p.writeIndent()
	if d.IsExported {
		p.write("export ")
	}
	p.write(p.printType(d.ReturnType) + " " + d.Name + "(")
	for i, prm := range d.Params {
		if i > 0 {
			p.write(", ")
		}
		p.write(p.printType(prm.Type) + " " + prm.Name)
	}
	p.write(")")
	if d.Body == nil {
		p.write(";")
		return
	}
	p.write(" {")
	p.writeln()
	p.indent++
	p.printStmts(d.Body.Body)
	p.indent--
	p.writeIndent()
	p.write("}")
}

func (p *Printer) printStructDecl(d *ast3.Decl) {
	p.writeIndent()
	if d.IsExported {
		p.write("export ")
	}
	p.write("struct " + d.Name + " {")
	p.writeln()
	p.indent++
	for i, name := range d.MemNames {
		p.writeIndent()
		var mt *ast3.Type
		if i < len(d.MemTypes) {
			mt = d.MemTypes[i]
		}
		p.write(p.printType(mt) + " " + name + ";")
		p.writeln()
	}
	p.indent--
	p.writeIndent()
	p.write("}")
}

func (p *Printer) printEnumDecl(d *ast3.Decl) {
	p.writeIndent()
	if d.IsExported {
		p.write("export ")
	}
	p.write("enum " + d.Name + " {")
	p.writeln()
	p.indent++
	for i, name := range d.EnumNames {
		p.writeIndent()
		var v int64
		if i < len(d.EnumValues) {
			v = d.EnumValues[i]
		}
		p.write(fmt.Sprintf("%s = %d;", name, v))
		p.writeln()
	}
	p.indent--
	p.writeIndent()
	p.write("}")
}

func (p *Printer) printStmts(stmts []*ast3.Stmt) {
	for _, s := range stmts {
		p.printStmt(s)
		p.writeln()
	}
}

func (p *Printer) printStmt(s *ast3.Stmt) {
	p.writeIndent()
	switch s.Kind {
	case ast3.SRawC:
		p.write("raw_c { " + s.RawText + " }")
	case ast3.SRawIR:
		p.write("raw_ir { " + s.RawText + " }")
	case ast3.SLabel:
		p.write(fmt.Sprintf("label L%d:", s.Label))
	case ast3.SJump:
		p.write(fmt.Sprintf("jump L%d;", s.Label))
	case ast3.SBreak:
		p.write("break;")
	case ast3.SContinue:
		p.write("continue;")
	case ast3.SReturn:
		p.write("return")
		if s.Expr != nil {
			p.write(" ")
			p.printExpr(s.Expr, 0)
		}
		p.write(";")
	case ast3.SMemset:
		p.write("memset(")
		p.printExpr(s.Dst, 0)
		p.write(fmt.Sprintf(", %d, %d);", s.Fill, s.Size))
	case ast3.SMemcpy:
		p.write("memcpy(")
		p.printExpr(s.Dst, 0)
		p.write(", ")
		p.printExpr(s.Src, 0)
		p.write(fmt.Sprintf(", %d);", s.Size))
	case ast3.SExpr:
		p.printExpr(s.Expr, 0)
		p.write(";")
	case ast3.SDecl:
		p.printDecl(s.Decl)
	case ast3.SAssign:
		p.printExpr(s.LHS, 0)
		p.write(" " + assignOpSymbol(s.AssignOp) + " ")
		p.printExpr(s.RHS, 0)
		p.write(";")
	case ast3.SScope:
		p.write("{")
		p.writeln()
		p.indent++
		p.printStmts(s.Scope.Body)
		p.indent--
		p.writeIndent()
		p.write("}")
	case ast3.SIf:
		p.write("if (")
		p.printExpr(s.Cond, 0)
		p.write(") {")
		p.writeln()
		p.indent++
		p.printStmts(s.Then.Body)
		p.indent--
		p.writeIndent()
		p.write("}")
		if s.Else != nil {
			p.write(" else {")
			p.writeln()
			p.indent++
			p.printStmts(s.Else.Body)
			p.indent--
			p.writeIndent()
			p.write("}")
		}
	case ast3.SWhile:
		p.write("while (")
		p.printExpr(s.Cond, 0)
		p.write(") {")
		p.writeln()
		p.indent++
		p.printStmts(s.Then.Body)
		p.indent--
		p.writeIndent()
		p.write("}")
	case ast3.SSwitch:
		p.write("switch (")
		p.printExpr(s.Cond, 0)
		p.write(") {")
		p.writeln()
		p.indent++
		for _, c := range s.SwitchCases {
			p.writeIndent()
			if c.IsDefault {
				p.write("default:")
			} else {
				p.write("case ")
				for i, v := range c.Values {
					if i > 0 {
						p.write(", ")
					}
					p.printExpr(v, 0)
				}
				p.write(":")
			}
			p.writeln()
			p.indent++
			p.printStmts(c.Body.Body)
			p.indent--
		}
		p.indent--
		p.writeIndent()
		p.write("}")
	}
}

func assignOpSymbol(op ast3.AssignOp) string {
	switch op {
	case ast3.AssignAdd:
		return "+="
	case ast3.AssignSub:
		return "-="
	case ast3.AssignMul:
		return "*="
	case ast3.AssignDiv:
		return "/="
	case ast3.AssignMod:
		return "%="
	default:
		return "="
	}
}

// printExpr prints an expression, parenthesizing a binary operation
// only when its own precedence is lower than the precedence the
// caller is printing it inside of (code_printer.go's printExpr does
// the same needParens check for InfixExpression).
func (p *Printer) printExpr(e *ast3.Expr, parentPrec int) {
	if e == nil {
		p.write("<?>")
		return
	}
	switch e.Kind {
	case ast3.ELiteral:
		p.printLiteral(e.Lit)
	case ast3.EVarName, ast3.EFuncName:
		p.write(e.Name)
	case ast3.EFuncCall:
		p.write(e.Name + "(")
		p.printArgs(e.Args)
		p.write(")")
	case ast3.EFptrCall:
		p.printExpr(e.Callee, 20)
		p.write("(")
		p.printArgs(e.Args)
		p.write(")")
	case ast3.EOperation:
		p.printOperation(e, parentPrec)
	default:
		p.write("<?>")
	}
}

func (p *Printer) printArgs(args []*ast3.Expr) {
	for i, a := range args {
		if i > 0 {
			p.write(", ")
		}
		p.printExpr(a, 0)
	}
}

func (p *Printer) printLiteral(lit token.Literal) {
	switch lit.Kind {
	case token.LitInt:
		p.write(strconv.FormatInt(lit.I, 10))
	case token.LitFloat:
		p.write(strconv.FormatFloat(lit.F, 'g', -1, 64))
	case token.LitString:
		p.write(strconv.Quote(lit.S))
	case token.LitBool:
		p.write(strconv.FormatBool(lit.B))
	default:
		p.write("<lit>")
	}
}

func (p *Printer) printOperation(e *ast3.Expr, parentPrec int) {
	switch e.Op {
	case ast1.OpMember:
		p.printExpr(e.A, 20)
		p.write("." + e.Name)
		return
	case ast1.OpIndex:
		p.printExpr(e.A, 20)
		p.write("[")
		p.printExpr(e.B, 0)
		p.write("]")
		return
	case ast1.OpSlice:
		p.printExpr(e.A, 20)
		p.write("[")
		p.printExpr(e.B, 0)
		p.write(":")
		p.printExpr(e.C, 0)
		p.write("]")
		return
	case ast1.OpSizeof:
		p.write("sizeof(")
		if e.TypeOperand != nil {
			p.write(p.printType(e.TypeOperand))
		} else {
			p.printExpr(e.A, 0)
		}
		p.write(")")
		return
	case ast1.OpCast:
		p.write("cast<" + p.printType(e.TypeOperand) + ">(")
		p.printExpr(e.A, 0)
		p.write(")")
		return
	case ast1.OpMake:
		p.write("make(")
		p.printExpr(e.A, 0)
		p.write(", ")
		p.printExpr(e.B, 0)
		p.write(")")
		return
	case ast1.OpLen:
		p.write("len(")
		p.printExpr(e.A, 0)
		p.write(")")
		return
	case ast1.OpAddr:
		p.write("&")
		p.printExpr(e.A, 20)
		return
	case ast1.OpDeref:
		p.write("*")
		p.printExpr(e.A, 20)
		return
	case ast1.OpNeg:
		p.write("-")
		p.printExpr(e.A, 20)
		return
	case ast1.OpPos:
		p.write("+")
		p.printExpr(e.A, 20)
		return
	case ast1.OpNot:
		p.write("!")
		p.printExpr(e.A, 20)
		return
	case ast1.OpBitNot:
		p.write("~")
		p.printExpr(e.A, 20)
		return
	}

	sym, ok := opSymbol[e.Op]
	if !ok {
		p.write("<op>")
		return
	}
	prec := getPrecedence(e.Op)
	needParens := prec < parentPrec
	if needParens {
		p.write("(")
	}
	p.printExpr(e.A, prec)
	p.write(" " + sym + " ")
	p.printExpr(e.B, prec+1)
	if needParens {
		p.write(")")
	}
}
