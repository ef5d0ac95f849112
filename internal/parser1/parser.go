package parser1

import (
	"github.com/torlang/torc/internal/ast1"
	"github.com/torlang/torc/internal/diagnostics"
	"github.com/torlang/torc/internal/token"
	"github.com/torlang/torc/internal/tokenstream"
)

// reservedKind tags a toplevel form pass 1 skipped over.
type reservedKind int

const (
	reservedFunc reservedKind = iota
	reservedVar
)

type reservedForm struct {
	kind     reservedKind
	startPos int // position of the first token of the form
	decl     *ast1.Decl
}

// Parser drives the three passes of spec.md §4.2 over a single
// module's token vector.
type Parser struct {
	ms  *ModuleSet
	mod *ast1.Module
	ts  *tokenstream.Stream

	reserved []reservedForm
	failed   bool // set once this module's parse is aborted (spec.md §4.2 "Failure semantics")
}

func NewParser(ms *ModuleSet, mod *ast1.Module, ts *tokenstream.Stream) *Parser {
	return &Parser{ms: ms, mod: mod, ts: ts}
}

func (p *Parser) err(d *diagnostics.Diagnostic) {
	d.File = p.mod.Path
	p.ms.Diags = append(p.ms.Diags, d)
	p.failed = true
}

func (p *Parser) warn(d *diagnostics.Diagnostic) {
	d.File = p.mod.Path
	p.ms.Diags = append(p.ms.Diags, d)
}

func (p *Parser) peek() token.Token { return p.ts.Seek(0) }
func (p *Parser) peekAt(n int) token.Token { return p.ts.Seek(n) }
func (p *Parser) pop() token.Token  { return p.ts.Pop() }

// expect pops the next token, requiring it to have kind k. On
// mismatch, records E0403 and returns the sentinel.
func (p *Parser) expect(k token.Kind, what string) token.Token {
	t := p.peek()
	if t.Kind != k {
		p.err(diagnostics.Newf(diagnostics.ErrUnexpectedToken, t,
			"expected %s", what))
		return token.None
	}
	return p.pop()
}

// ParseModule runs all three passes over this module's token stream.
func (p *Parser) ParseModule() {
	p.pass1()
	if p.failed {
		return
	}
	p.pass2()
	p.pass3()
}

// pass1 reads toplevel forms: fully parses include/struct/enum/
// typedef/template/define/raw_c/raw_ir, and records the token
// position of every other toplevel form (func/var) to be parsed in
// pass 3, skipping past it with brace matching (functions) or a
// semicolon scan (variables).
func (p *Parser) pass1() {
	for {
		t := p.peek()
		if t.Kind == token.EOF || t.Kind == token.NONE {
			return
		}
		if t.Kind == token.SEMI {
			p.pop()
			continue
		}
		switch t.Kind {
		case token.KW_INCLUDE:
			p.parseInclude()
		case token.KW_STRUCT:
			p.parseStruct()
		case token.KW_ENUM:
			p.parseEnum()
		case token.KW_TYPEDEF:
			p.parseTypedef()
		case token.KW_TEMPLATE:
			p.parseTemplateParam()
		case token.KW_DEFINE:
			p.parseDefine()
		case token.KW_RAW_C, token.KW_RAW_IR:
			p.parseRawBlock()
		default:
			p.reserveToplevelForm()
		}
		if p.failed {
			return
		}
	}
}

// reserveToplevelForm records the start position of a var or func
// declaration and skips past it for pass 3 to revisit.
func (p *Parser) reserveToplevelForm() {
	start := p.ts.Pos()
	isExport := false
	if p.peek().Kind == token.KW_EXPORT {
		p.pop()
		isExport = true
	}
	_ = isExport
	// Heuristic shared with the original: look ahead for '(' after a
	// name to distinguish a function from a variable declaration.
	kind := reservedFunc
	// type tokens, then optional '*' / '[' chains, then IDENT, then
	// either '(' (function) or ';'/'=' (variable).
	save := p.ts.Pos()
	p.skipTypeTokens()
	if p.peek().Kind == token.IDENT {
		p.pop()
		if p.peek().Kind != token.LPAREN {
			kind = reservedVar
		}
	}
	p.ts.SetPos(save)

	if kind == reservedFunc {
		p.skipBalancedBraces()
	} else {
		p.skipToSemicolon()
	}
	p.reserved = append(p.reserved, reservedForm{kind: kind, startPos: start})
}

// skipTypeTokens advances over a type expression without parsing it,
// for reservedFunc/reservedVar lookahead disambiguation.
func (p *Parser) skipTypeTokens() {
	if p.peek().Kind == token.KW_CONST || p.peek().Kind == token.KW_VOLATILE ||
		p.peek().Kind == token.KW_EXTERN || p.peek().Kind == token.KW_EXPORT {
		p.pop()
	}
	// base type: a primitive keyword or an identifier (struct/enum/template name)
	if isPrimitiveKw(p.peek().Kind) || p.peek().Kind == token.IDENT || p.peek().Kind == token.KW_AUTO {
		p.pop()
	}
	for {
		switch p.peek().Kind {
		case token.STAR:
			p.pop()
		case token.LBRACKET:
			depth := 0
			for {
				t := p.pop()
				if t.Kind == token.LBRACKET {
					depth++
				} else if t.Kind == token.RBRACKET {
					depth--
					if depth == 0 {
						break
					}
				} else if t.Kind == token.EOF || t.Kind == token.NONE {
					return
				}
			}
		default:
			return
		}
	}
}

func isPrimitiveKw(k token.Kind) bool {
	switch k {
	case token.KW_I8, token.KW_I16, token.KW_I32, token.KW_I64,
		token.KW_U8, token.KW_U16, token.KW_U32, token.KW_U64,
		token.KW_F32, token.KW_F64, token.KW_BOOL, token.KW_VOID:
		return true
	}
	return false
}

func (p *Parser) skipBalancedBraces() {
	for p.peek().Kind != token.LBRACE {
		t := p.pop()
		if t.Kind == token.SEMI || t.Kind == token.EOF || t.Kind == token.NONE {
			return
		}
	}
	depth := 0
	for {
		t := p.pop()
		if t.Kind == token.LBRACE {
			depth++
		} else if t.Kind == token.RBRACE {
			depth--
			if depth == 0 {
				return
			}
		} else if t.Kind == token.EOF || t.Kind == token.NONE {
			return
		}
	}
}

func (p *Parser) skipToSemicolon() {
	for {
		t := p.pop()
		if t.Kind == token.SEMI || t.Kind == token.EOF || t.Kind == token.NONE {
			return
		}
	}
}

// pass2 iterates struct sizing to a fixed point (spec.md §4.2 "Pass 2").
func (p *Parser) pass2() {
	structs := p.mod.Structs()
	p.refoldArrayLens(structs)
	for {
		progressed := false
		unresolved := 0
		for _, s := range structs {
			if s.StructSize >= 0 {
				continue
			}
			if p.trySizeStruct(s) {
				progressed = true
			} else {
				unresolved++
			}
		}
		if unresolved == 0 {
			return
		}
		if !progressed {
			// Direct recursion (struct contains itself by value) or
			// any other unresolvable size: spec.md §9 Design Notes.
			for _, s := range structs {
				if s.StructSize < 0 {
					p.err(diagnostics.Newf(diagnostics.ErrStructNoProgress, s.Tok,
						"struct %s size cannot be resolved (direct recursion or unknown member type)", s.Name))
				}
			}
			return
		}
	}
}

// trySizeStruct attempts to complete every member's size, following
// pointers, arrays of known element type, and name/foreign references
// to already-completed structs/enums, then lays the struct out
// left-to-right with per-member alignment padding (spec.md §3
// invariants, §4.2 "Pass 2").
func (p *Parser) trySizeStruct(s *ast1.Decl) bool {
	for _, mt := range s.MemTypes {
		if !p.completeTypeSize(mt) {
			return false
		}
		if mt.IsVoid() {
			p.err(diagnostics.Newf(diagnostics.ErrVoidNotAllowed, s.Tok,
				"struct %s member has void type", s.Name))
			return true // reported; stop retrying this struct
		}
	}
	var size, align int64 = 0, 1
	offsets := make([]int64, len(s.MemTypes))
	for i, mt := range s.MemTypes {
		if size%mt.TypeAlign != 0 {
			size += mt.TypeAlign - size%mt.TypeAlign
		}
		offsets[i] = size
		size += mt.TypeSize
		if mt.TypeAlign > align {
			align = mt.TypeAlign
		}
	}
	if size%align != 0 {
		size += align - size%align
	}
	s.MemOffsets = offsets
	s.StructSize = size
	s.StructAlign = align
	return true
}

// completeTypeSize resolves t.TypeSize/TypeAlign in place, returning
// false if any part is still unresolvable this iteration.
func (p *Parser) completeTypeSize(t *ast1.Type) bool {
	if t == nil {
		return true
	}
	if t.Resolved() {
		return true
	}
	switch t.Kind {
	case ast1.TPointer:
		t.TypeSize = int64(p.ms.Cfg.Arch)
		t.TypeAlign = t.TypeSize
		return true
	case ast1.TSlice:
		t.TypeSize = p.ms.Cfg.SliceWordSize()
		t.TypeAlign = int64(p.ms.Cfg.Arch)
		return true
	case ast1.TArray:
		if t.Direct.IsVoid() {
			p.err(diagnostics.New(diagnostics.ErrVoidNotAllowed, t.Tok, "array of void is not allowed"))
			return true
		}
		if !p.completeTypeSize(t.Direct) {
			return false
		}
		if t.ArrLenVal <= 0 {
			return false
		}
		t.TypeSize = t.Direct.TypeSize * t.ArrLenVal
		t.TypeAlign = t.Direct.TypeAlign
		return true
	case ast1.TName, ast1.TForeign:
		var d *ast1.Decl
		var ok bool
		if t.Kind == ast1.TName {
			d, ok = p.mod.Find(t.Name)
		} else {
			// Foreign lookup is resolved via the include's target module,
			// wired in by the A2/A1-Ext stage; at A1 pass-2 time a
			// foreign reference can only be sized once its owning
			// include has a TargetUname, so until then it stays pending.
			return false
		}
		if !ok {
			p.err(diagnostics.Newf(diagnostics.ErrUnknownName, t.Tok, "unknown type name %s", t.Name))
			return true
		}
		switch d.Kind {
		case ast1.DStruct:
			if d.StructSize < 0 {
				return false
			}
			t.TypeSize = d.StructSize
			t.TypeAlign = d.StructAlign
			return true
		case ast1.DEnum:
			if d.EnumSize < 0 {
				return false
			}
			t.TypeSize = d.EnumSize
			t.TypeAlign = d.EnumSize
			return true
		case ast1.DTypedef:
			if !p.completeTypeSize(d.AliasOf) {
				return false
			}
			t.TypeSize = d.AliasOf.TypeSize
			t.TypeAlign = d.AliasOf.TypeAlign
			return true
		}
		return false
	case ast1.TFunction:
		t.TypeSize = int64(p.ms.Cfg.Arch) // function pointer
		t.TypeAlign = t.TypeSize
		return true
	}
	return t.Resolved()
}

// pass3 revisits the reserved positions in order and parses the
// skipped variables and functions (spec.md §4.2 "Pass 3 — bodies").
func (p *Parser) pass3() {
	for _, rf := range p.reserved {
		p.ts.SetPos(rf.startPos)
		if rf.kind == reservedFunc {
			p.parseFunc()
		} else {
			p.parseVar(true)
		}
		if p.failed {
			return
		}
	}
	p.mod.LinkMethods()
}
