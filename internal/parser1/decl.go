package parser1

import (
	"path/filepath"

	"github.com/torlang/torc/internal/ast1"
	"github.com/torlang/torc/internal/diagnostics"
	"github.com/torlang/torc/internal/fold"
	"github.com/torlang/torc/internal/token"
)

func (p *Parser) parseModifiers() (isExport, isConst, isVolatile, isExtern bool) {
	for {
		switch p.peek().Kind {
		case token.KW_EXPORT:
			p.pop()
			isExport = true
		case token.KW_CONST:
			p.pop()
			isConst = true
		case token.KW_VOLATILE:
			p.pop()
			isVolatile = true
		case token.KW_EXTERN:
			p.pop()
			isExtern = true
		default:
			return
		}
	}
}

// parseInclude parses `include <T1,...> "path" as name;` (spec.md
// §4.2 "Pass 1 — shapes", §4.4 "A1-Ext").
func (p *Parser) parseInclude() {
	kw := p.pop()
	var tmplArgs []*ast1.Type
	if p.peek().Kind == token.LT {
		p.pop()
		for {
			tmplArgs = append(tmplArgs, p.parseType())
			if p.peek().Kind == token.COMMA {
				p.pop()
				continue
			}
			break
		}
		p.expect(token.GT, ">")
	}
	pathTok := p.expect(token.STRING, "include path string")
	alias := ""
	if p.peek().Kind == token.KW_AS {
		p.pop()
		aliasTok := p.expect(token.IDENT, "alias after 'as'")
		alias = aliasTok.Text
	} else {
		alias = filepath.Base(pathTok.Text)
		if ext := filepath.Ext(alias); ext != "" {
			alias = alias[:len(alias)-len(ext)]
		}
	}
	p.expect(token.SEMI, ";")

	d := &ast1.Decl{Kind: ast1.DInclude, Tok: kw, Name: alias, Path: pathTok.Text,
		TemplateArgs: tmplArgs, ImportAlias: alias}
	dir := filepath.Dir(p.mod.Path)
	d.ResolvedPath = ResolvePath(dir, pathTok.Text)

	if !p.mod.AddDecl(d) {
		p.err(diagnostics.Newf(diagnostics.ErrDuplicateDecl, kw, "duplicate name %s", alias))
		return
	}

	// Non-template includes are resolved (recursively parsed) right
	// away in pass 1, per spec.md §4.2: "recursively parses the
	// referenced file if unseen". Template includes are resolved by
	// A1-Ext (spec.md §4.4) once their argument types are sized.
	if len(tmplArgs) == 0 {
		target, ok := p.ms.Load(d.ResolvedPath, kw, p.mod.Path)
		if ok {
			d.TargetUname = target.Uname
		}
	}
}

func (p *Parser) parseStruct() {
	kw := p.pop()
	isExport := false
	if p.peek().Kind == token.KW_EXPORT { // `export struct` form, rare but accepted
		p.pop()
		isExport = true
	}
	name := p.expect(token.IDENT, "struct name")
	d := &ast1.Decl{Kind: ast1.DStruct, Tok: kw, Name: name.Text, StructSize: -1, StructAlign: -1, IsExported: isExportedName(name.Text) || isExport}
	p.expect(token.LBRACE, "{")
	for p.peek().Kind != token.RBRACE && p.peek().Kind != token.EOF {
		mt := p.parseType()
		mn := p.expect(token.IDENT, "member name")
		p.expect(token.SEMI, ";")
		d.MemNames = append(d.MemNames, mn.Text)
		d.MemTypes = append(d.MemTypes, mt)
	}
	p.expect(token.RBRACE, "}")
	if p.peek().Kind == token.SEMI {
		p.pop()
	}
	d.MemOffsets = make([]int64, len(d.MemNames))
	if !p.mod.AddDecl(d) {
		p.err(diagnostics.Newf(diagnostics.ErrDuplicateDecl, kw, "duplicate name %s", d.Name))
	}
}

func (p *Parser) parseEnum() {
	kw := p.pop()
	name := p.expect(token.IDENT, "enum name")
	d := &ast1.Decl{Kind: ast1.DEnum, Tok: kw, Name: name.Text, EnumSize: -1, IsExported: isExportedName(name.Text)}
	p.expect(token.LBRACE, "{")
	next := int64(0)
	lookup := p.currentLookup(nil)
	for p.peek().Kind != token.RBRACE && p.peek().Kind != token.EOF {
		mn := p.expect(token.IDENT, "enum member name")
		val := next
		if p.peek().Kind == token.ASSIGN {
			p.pop()
			valExpr := p.parseExpressionScoped(1, nil)
			f := fold.New(lookup, p.ms.Cfg.Arch)
			lit, diag := f.Fold(valExpr)
			if diag != nil {
				p.err(diag)
			} else if lit.Kind == token.LitInt {
				val = lit.I
			}
		}
		d.EnumNames = append(d.EnumNames, mn.Text)
		d.EnumValues = append(d.EnumValues, val)
		next = val + 1
		if p.peek().Kind == token.SEMI || p.peek().Kind == token.COMMA {
			p.pop()
		}
	}
	p.expect(token.RBRACE, "}")
	if p.peek().Kind == token.SEMI {
		p.pop()
	}
	d.EnumSize = enumSizeFor(d.EnumValues)
	if !p.mod.AddDecl(d) {
		p.err(diagnostics.Newf(diagnostics.ErrDuplicateDecl, kw, "duplicate name %s", d.Name))
	}
}

// enumSizeFor picks the smallest power-of-two byte count in
// {1,2,4,8} that fits both the minimum and maximum assigned value in
// signed range (spec.md §3 "enumSize").
func enumSizeFor(values []int64) int64 {
	var lo, hi int64
	for i, v := range values {
		if i == 0 || v < lo {
			lo = v
		}
		if i == 0 || v > hi {
			hi = v
		}
	}
	fits := func(bits int) bool {
		max := int64(1)<<(bits-1) - 1
		min := -(int64(1) << (bits - 1))
		return lo >= min && hi <= max
	}
	switch {
	case fits(8):
		return 1
	case fits(16):
		return 2
	case fits(32):
		return 4
	default:
		return 8
	}
}

func (p *Parser) parseTypedef() {
	kw := p.pop()
	underlying := p.parseType()
	name := p.expect(token.IDENT, "typedef name")
	p.expect(token.SEMI, ";")
	d := &ast1.Decl{Kind: ast1.DTypedef, Tok: kw, Name: name.Text, AliasOf: underlying, IsExported: isExportedName(name.Text)}
	if !p.mod.AddDecl(d) {
		p.err(diagnostics.Newf(diagnostics.ErrDuplicateDecl, kw, "duplicate name %s", d.Name))
	}
}

// parseTemplateParam parses a `template T;` declaration, marking this
// module as generic (spec.md §4.4).
func (p *Parser) parseTemplateParam() {
	kw := p.pop()
	name := p.expect(token.IDENT, "template parameter name")
	p.expect(token.SEMI, ";")
	p.mod.TemplateParams = append(p.mod.TemplateParams, name.Text)
	d := &ast1.Decl{Kind: ast1.DTemplate, Tok: kw, Name: name.Text}
	p.mod.AddDecl(d)
}

func (p *Parser) parseDefine() {
	kw := p.pop()
	name := p.expect(token.IDENT, "define name")
	var typ *ast1.Type
	if p.peek().Kind == token.COLON {
		p.pop()
		typ = p.parseType()
	}
	p.expect(token.ASSIGN, "= or :- in define")
	valExpr := p.parseExpressionScoped(1, nil)
	p.expect(token.SEMI, ";")
	d := &ast1.Decl{Kind: ast1.DVar, Tok: kw, Name: name.Text, VarType: typ, InitExpr: valExpr,
		IsDefine: true, IsConst: true, IsExported: isExportedName(name.Text)}
	if !p.mod.AddDecl(d) {
		p.err(diagnostics.Newf(diagnostics.ErrDuplicateDecl, kw, "duplicate name %s", d.Name))
	}
}

func (p *Parser) parseRawBlock() {
	kw := p.pop()
	_ = p.expect(token.LBRACE, "{")
	depth := 1
	var text []byte
	for depth > 0 {
		t := p.pop()
		if t.Kind == token.LBRACE {
			depth++
		} else if t.Kind == token.RBRACE {
			depth--
			if depth == 0 {
				break
			}
		} else if t.Kind == token.EOF || t.Kind == token.NONE {
			break
		}
		text = append(text, []byte(t.Text)...)
		text = append(text, ' ')
	}
	kind := ast1.DRawC
	if kw.Kind == token.KW_RAW_IR {
		kind = ast1.DRawIR
	}
	d := &ast1.Decl{Kind: kind, Tok: kw, RawText: string(text)}
	p.mod.Code.Body = append(p.mod.Code.Body, &ast1.Stmt{Kind: declStmtKind(kind), Tok: kw, RawText: d.RawText})
}

func declStmtKind(k ast1.DeclKind) ast1.StmtKind {
	if k == ast1.DRawIR {
		return ast1.SRawIR
	}
	return ast1.SRawC
}

// parseFunc parses a (possibly exported, possibly variadic, possibly
// method) function declaration: pass 3 revisits here (spec.md §4.2
// "Pass 3 — bodies"); parameter declarations are inserted as
// synthetic `var` declarations at the head of the body scope.
func (p *Parser) parseFunc() {
	isExport, isConst, isVolatile, isExtern := p.parseModifiers()
	_ = isConst
	_ = isVolatile
	isVaArg := false
	if p.peek().Kind == token.KW_VA_ARG {
		p.pop()
		isVaArg = true
	}
	retType := p.parseType()
	owner := ""
	nameTok := p.expect(token.IDENT, "function name")
	name := nameTok.Text
	if p.peek().Kind == token.DOT {
		p.pop()
		owner = name
		mTok := p.expect(token.IDENT, "method name after '.'")
		name = mTok.Text
	}
	p.expect(token.LPAREN, "(")
	var params []*ast1.Param
	if p.peek().Kind != token.RPAREN {
		for {
			pt := p.parseType()
			pn := p.expect(token.IDENT, "parameter name")
			params = append(params, &ast1.Param{Name: pn.Text, Type: pt})
			if p.peek().Kind == token.COMMA {
				p.pop()
				continue
			}
			break
		}
	}
	p.expect(token.RPAREN, ")")

	d := &ast1.Decl{Kind: ast1.DFunc, Tok: nameTok, Name: name, ReturnType: retType,
		Params: params, OwnerStruct: owner, IsVaArg: isVaArg, IsExtern: isExtern,
		IsExported: isExportedName(name) || isExport}

	body := ast1.NewScope(nil)
	for _, prm := range params {
		pd := &ast1.Decl{Kind: ast1.DVar, Tok: nameTok, Name: prm.Name, VarType: prm.Type, IsParam: true}
		body.Body = append(body.Body, &ast1.Stmt{Kind: ast1.SDecl, Tok: nameTok, Decl: pd})
	}

	if isExtern {
		p.expect(token.SEMI, ";")
		d.Body = body
	} else {
		d.Body = p.parseBlockInto(body)
	}

	regName := d.Name
	if owner != "" {
		regName = owner + "." + d.Name
	}
	if _, exists := p.mod.NameIndex[regName]; exists {
		p.err(diagnostics.Newf(diagnostics.ErrDuplicateDecl, nameTok, "duplicate name %s", regName))
		return
	}
	p.mod.NameIndex[regName] = d
	p.mod.Code.Body = append(p.mod.Code.Body, &ast1.Stmt{Kind: ast1.SDecl, Tok: nameTok, Decl: d})
}

// parseVar parses a variable declaration: `[export] [const] [volatile]
// [extern] T name [= expr];`. requireSemi distinguishes top-level
// (pass-3 revisited) forms, which always terminate with ';'.
func (p *Parser) parseVar(requireSemi bool) {
	isExport, isConst, isVolatile, isExtern := p.parseModifiers()
	typ := p.parseType()
	nameTok := p.expect(token.IDENT, "variable name")
	var init *ast1.Expr
	if p.peek().Kind == token.ASSIGN {
		p.pop()
		init = p.parseExpressionScoped(1, nil)
	}
	if requireSemi {
		p.expect(token.SEMI, ";")
	}
	d := &ast1.Decl{Kind: ast1.DVar, Tok: nameTok, Name: nameTok.Text, VarType: typ, InitExpr: init,
		IsConst: isConst, IsVolatile: isVolatile, IsExtern: isExtern, IsExported: isExportedName(nameTok.Text) || isExport}
	if !p.mod.AddDecl(d) {
		p.err(diagnostics.Newf(diagnostics.ErrDuplicateDecl, nameTok, "duplicate name %s", d.Name))
	}
}

// isExportedName implements spec.md §3's invariant: "Every exported
// symbol begins with an uppercase ASCII letter."
func isExportedName(name string) bool {
	if name == "" {
		return false
	}
	c := name[0]
	return c >= 'A' && c <= 'Z'
}

