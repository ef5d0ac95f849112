package ast1

// Module is the A1 module (spec.md §3 "Module"): a parsed source
// file's toplevel declarations, a name index for module-level lookup,
// and the bookkeeping A1-Ext needs to identify and clone template
// instantiations.
type Module struct {
	Path  string // absolute filesystem path after resolution
	Uname string // process-unique identifier: file stem, disambiguated by _N

	Code *Scope // toplevel scope; its Body holds every toplevel Decl
	// wrapped in an SDecl statement, in source (insertion) order.

	NameIndex map[string]*Decl // toplevel name -> decl, for O(1) lookup

	// TemplateParams holds the names of this module's `template T`
	// parameters; non-empty iff this is a generic module (spec.md
	// §4.4 "A template module is a module that declared one or more
	// template T parameters").
	TemplateParams []string

	// TemplateArgs holds the bound argument types of this module when
	// it is itself a clone produced by A1-Ext (spec.md §3 "tmpArgs");
	// nil for a module that is not a template instantiation.
	TemplateArgs []*Type

	IsFinished bool // true once every struct/enum size in this module's toplevel scope is resolved

	Includes []*Decl // DInclude decls, in source order, for import-graph traversal
}

func NewModule(path, uname string) *Module {
	return &Module{
		Path:      path,
		Uname:     uname,
		Code:      NewScope(nil),
		NameIndex: make(map[string]*Decl),
	}
}

// AddDecl appends decl to the toplevel scope and indexes it by name.
// Returns false (without mutating) if a decl under the same name
// already exists — callers report spec.md §7's ErrDuplicateDecl.
func (m *Module) AddDecl(d *Decl) bool {
	if d.Name != "" {
		if _, exists := m.NameIndex[d.Name]; exists {
			return false
		}
		m.NameIndex[d.Name] = d
	}
	m.Code.Body = append(m.Code.Body, &Stmt{Kind: SDecl, Tok: d.Tok, Decl: d})
	if d.Kind == DInclude {
		m.Includes = append(m.Includes, d)
	}
	return true
}

// Find resolves a toplevel name to its declaration.
func (m *Module) Find(name string) (*Decl, bool) {
	d, ok := m.NameIndex[name]
	return d, ok
}

// IsTemplate reports whether this module declares template parameters.
func (m *Module) IsTemplate() bool { return len(m.TemplateParams) > 0 }

// Structs returns every DStruct decl in toplevel declaration order.
func (m *Module) Structs() []*Decl {
	var out []*Decl
	for _, st := range m.Code.Body {
		if st.Kind == SDecl && st.Decl.Kind == DStruct {
			out = append(out, st.Decl)
		}
	}
	return out
}

// Funcs returns every DFunc decl in toplevel declaration order.
func (m *Module) Funcs() []*Decl {
	var out []*Decl
	for _, st := range m.Code.Body {
		if st.Kind == SDecl && st.Decl.Kind == DFunc {
			out = append(out, st.Decl)
		}
	}
	return out
}

// AllDecls returns every toplevel decl in source order.
func (m *Module) AllDecls() []*Decl {
	out := make([]*Decl, 0, len(m.Code.Body))
	for _, st := range m.Code.Body {
		if st.Kind == SDecl {
			out = append(out, st.Decl)
		}
	}
	return out
}

// LinkMethods populates each struct's Methods slice from the set of
// DFunc decls whose OwnerStruct names it, in declaration order
// (SPEC_FULL.md §4 "Method table per struct").
func (m *Module) LinkMethods() {
	structsByName := make(map[string]*Decl)
	for _, s := range m.Structs() {
		s.Methods = nil
		structsByName[s.Name] = s
	}
	for _, f := range m.Funcs() {
		if f.OwnerStruct == "" {
			continue
		}
		if s, ok := structsByName[f.OwnerStruct]; ok {
			s.Methods = append(s.Methods, f)
		}
	}
}

// DeepClone deep-copies the entire module — every toplevel decl and
// its body — used by A1-Ext to produce one clone per distinct
// instantiation argument list (spec.md §4.4). The clone's Uname and
// TemplateArgs are set by the caller; NameIndex/Includes/Methods are
// rebuilt from the cloned decl set.
func (m *Module) DeepClone(newUname string) *Module {
	clone := NewModule(m.Path, newUname)
	clone.TemplateParams = append([]string(nil), m.TemplateParams...)
	for _, d := range m.AllDecls() {
		clone.AddDecl(d.DeepClone())
	}
	clone.LinkMethods()
	return clone
}
