package ast1

import "github.com/torlang/torc/internal/token"

// DeclKind is the tag of the A1 Declaration union (spec.md §3).
type DeclKind int

const (
	DInclude DeclKind = iota
	DTemplate
	DTypedef
	DVar
	DFunc
	DStruct
	DEnum
	DRawC
	DRawIR
)

// Param is a function parameter name/type pair; also used to
// synthesize the head-of-body SDecl statements pass 3 inserts
// (spec.md §4.2 "Pass 3 — bodies").
type Param struct {
	Name string
	Type *Type
}

// Decl is the A1 Declaration node.
type Decl struct {
	Kind DeclKind
	Tok  token.Token
	Name string

	IsExported bool

	// include
	Path         string  // as written
	ResolvedPath string  // joined with including file's directory, cleaned
	TemplateArgs []*Type // include<T1,...,Tn> argument list; empty for a plain include
	ImportAlias  string  // "as name"; defaults to Name
	TargetUname  string  // set once A1-Ext resolves this include to a concrete module

	// template (a `template T` parameter declared inside a generic module)
	// also reused on DStruct/DFunc/etc. to mark "this module is generic":
	// see Module.TemplateParams for the module-level list.

	// typedef
	AliasOf *Type

	// var
	VarType    *Type
	InitExpr   *Expr
	IsDefine   bool // compile-time constant (`define`)
	IsConst    bool
	IsVolatile bool
	IsExtern   bool
	IsParam    bool // synthetic parameter declaration inserted at body head

	// func
	Params      []*Param
	ReturnType  *Type
	OwnerStruct string // receiver struct name; "" for a free function
	Body        *Scope
	IsVaArg     bool

	// struct
	MemNames    []string
	MemTypes    []*Type
	MemOffsets  []int64
	StructSize  int64 // -1 until pass 2 completes layout
	StructAlign int64
	Methods     []*Decl // DFunc decls whose OwnerStruct equals this struct's Name

	// enum
	EnumNames  []string
	EnumValues []int64
	EnumSize   int64 // -1 until sized; else one of {1,2,4,8}

	// raw_c / raw_ir
	RawText string
}

func (d *Decl) GetToken() token.Token {
	if d == nil {
		return token.None
	}
	return d.Tok
}

// EnumValue looks up a member's folded integer value by name.
func (d *Decl) EnumValue(member string) (int64, bool) {
	for i, n := range d.EnumNames {
		if n == member {
			return d.EnumValues[i], true
		}
	}
	return 0, false
}

// MemberIndex looks up a struct member's position in MemNames by name.
func (d *Decl) MemberIndex(name string) (int, bool) {
	for i, n := range d.MemNames {
		if n == name {
			return i, true
		}
	}
	return -1, false
}

// DeepClone deep-copies a declaration tree (used by A1-Ext cloning of
// an entire template module).
func (d *Decl) DeepClone() *Decl {
	if d == nil {
		return nil
	}
	nd := *d
	if d.TemplateArgs != nil {
		nd.TemplateArgs = make([]*Type, len(d.TemplateArgs))
		for i, t := range d.TemplateArgs {
			nd.TemplateArgs[i] = t.DeepClone()
		}
	}
	nd.AliasOf = d.AliasOf.DeepClone()
	nd.VarType = d.VarType.DeepClone()
	nd.InitExpr = d.InitExpr.DeepClone()
	if d.Params != nil {
		nd.Params = make([]*Param, len(d.Params))
		for i, p := range d.Params {
			nd.Params[i] = &Param{Name: p.Name, Type: p.Type.DeepClone()}
		}
	}
	nd.ReturnType = d.ReturnType.DeepClone()
	nd.Body = d.Body.DeepClone()
	if d.MemTypes != nil {
		nd.MemTypes = make([]*Type, len(d.MemTypes))
		for i, t := range d.MemTypes {
			nd.MemTypes[i] = t.DeepClone()
		}
		nd.MemNames = append([]string(nil), d.MemNames...)
		nd.MemOffsets = append([]int64(nil), d.MemOffsets...)
	}
	// Methods is re-populated by the cloning driver once every struct
	// and function decl in the new module has been cloned (it holds
	// pointers into the sibling decl set, not an independent subtree).
	nd.Methods = nil
	if d.EnumNames != nil {
		nd.EnumNames = append([]string(nil), d.EnumNames...)
		nd.EnumValues = append([]int64(nil), d.EnumValues...)
	}
	return &nd
}
