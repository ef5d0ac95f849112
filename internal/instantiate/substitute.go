package instantiate

import "github.com/torlang/torc/internal/ast1"

// binding maps a template module's declared parameter names to the
// canonical argument types a particular instantiation request bound
// them to.
type binding map[string]*ast1.Type

// bindTemplateParams rewrites every TName reference to one of clone's
// own template parameters, throughout the clone's whole declaration
// tree, with the corresponding argument type (spec.md §4.4
// "bind its template declarations to the supplied argument types").
func bindTemplateParams(clone *ast1.Module, args []*ast1.Type) {
	b := make(binding, len(clone.TemplateParams))
	for i, name := range clone.TemplateParams {
		if i < len(args) {
			b[name] = args[i]
		}
	}
	if len(b) == 0 {
		return
	}
	for _, d := range clone.AllDecls() {
		substDecl(d, b)
	}
}

func substType(t *ast1.Type, b binding) *ast1.Type {
	if t == nil {
		return nil
	}
	if t.Kind == ast1.TName {
		if repl, ok := b[t.Name]; ok {
			c := repl.DeepClone()
			c.Tok = t.Tok
			return c
		}
	}
	t.Direct = substType(t.Direct, b)
	for i := range t.Indirect {
		t.Indirect[i] = substType(t.Indirect[i], b)
	}
	return t
}

func substDecl(d *ast1.Decl, b binding) {
	if d == nil {
		return
	}
	d.AliasOf = substType(d.AliasOf, b)
	d.VarType = substType(d.VarType, b)
	for i := range d.MemTypes {
		d.MemTypes[i] = substType(d.MemTypes[i], b)
	}
	for _, prm := range d.Params {
		prm.Type = substType(prm.Type, b)
	}
	d.ReturnType = substType(d.ReturnType, b)
	for _, at := range d.TemplateArgs {
		substType(at, b)
	}
	substExpr(d.InitExpr, b)
	substScope(d.Body, b)
}

func substScope(sc *ast1.Scope, b binding) {
	if sc == nil {
		return
	}
	for _, st := range sc.Body {
		substStmt(st, b)
	}
}

func substStmt(st *ast1.Stmt, b binding) {
	if st == nil {
		return
	}
	if st.Decl != nil {
		substDecl(st.Decl, b)
	}
	substExpr(st.Expr, b)
	substExpr(st.LHS, b)
	substExpr(st.RHS, b)
	substScope(st.Scope, b)
	substExpr(st.Cond, b)
	substScope(st.Then, b)
	substScope(st.Else, b)
	substStmt(st.ForInit, b)
	substStmt(st.ForStep, b)
	for _, c := range st.SwitchCases {
		for _, v := range c.Values {
			substExpr(v, b)
		}
		substScope(c.Body, b)
	}
}

func substExpr(e *ast1.Expr, b binding) {
	if e == nil {
		return
	}
	e.TypeOperand = substType(e.TypeOperand, b)
	substExpr(e.A, b)
	substExpr(e.B, b)
	substExpr(e.C, b)
	substExpr(e.Callee, b)
	for _, a := range e.Args {
		substExpr(a, b)
	}
	for _, el := range e.Elems {
		substExpr(el, b)
	}
}
