// Package ast2 holds the A2 semantic AST (spec.md §3, §4.5): the
// elaborated declaration/statement/expression trees the analyzer
// builds from an instantiated A1 module, every expression carrying a
// pool-interned *typesystem.Type plus isLvalue/isConst flags.
package ast2

// Module is the A2 module: a name->decl index plus the elaborated
// toplevel scope (spec.md §3 "Module").
type Module struct {
	Path  string
	Uname string

	Code      *Scope
	NameIndex map[string]*Decl
}

func NewModule(path, uname string) *Module {
	return &Module{Path: path, Uname: uname, Code: NewScope(nil), NameIndex: make(map[string]*Decl)}
}

func (m *Module) AddDecl(d *Decl) bool {
	if d.Name != "" {
		if _, exists := m.NameIndex[d.Name]; exists {
			return false
		}
		m.NameIndex[d.Name] = d
	}
	kind := SDecl
	if d.Kind == DRawC {
		kind = SRawC
	} else if d.Kind == DRawIR {
		kind = SRawIR
	}
	st := &Stmt{Kind: kind, Tok: d.Tok, Decl: d, RawText: d.RawText}
	m.Code.Body = append(m.Code.Body, st)
	return true
}

func (m *Module) Find(name string) (*Decl, bool) {
	d, ok := m.NameIndex[name]
	return d, ok
}

func (m *Module) Structs() []*Decl {
	var out []*Decl
	for _, st := range m.Code.Body {
		if st.Decl != nil && st.Decl.Kind == DStruct {
			out = append(out, st.Decl)
		}
	}
	return out
}

// AllDecls returns every toplevel decl in insertion order (spec.md §5
// "Determinism": "Traversal order is insertion order for every
// vector").
func (m *Module) AllDecls() []*Decl {
	out := make([]*Decl, 0, len(m.Code.Body))
	for _, st := range m.Code.Body {
		if st.Decl != nil {
			out = append(out, st.Decl)
		}
	}
	return out
}
