package ast2

import (
	"github.com/torlang/torc/internal/token"
	"github.com/torlang/torc/internal/typesystem"
)

// DeclKind is the tag of the A2 Declaration union (spec.md §3).
type DeclKind int

const (
	DVar DeclKind = iota
	DFunc
	DStruct
	DEnum
	DTypedef
	DRawC
	DRawIR
)

// Param is an elaborated function parameter.
type Param struct {
	Name string
	Type *typesystem.Type
}

// Decl is the A2 Declaration node: the elaborated counterpart of every
// ast1.Decl kind except include/template, which A1-Ext fully resolves
// before A2 ever sees them.
type Decl struct {
	Kind     DeclKind
	Tok      token.Token
	Name     string
	ModUname string // owning module, for cross-module identity

	IsExported bool

	// var
	VarType    *typesystem.Type
	InitExpr   *Expr
	IsDefine   bool
	IsConst    bool
	IsVolatile bool
	IsExtern   bool
	IsParam    bool

	// func
	Params      []*Param
	ReturnType  *typesystem.Type
	OwnerStruct string
	Body        *Scope
	IsVaArg     bool

	// struct
	MemNames    []string
	MemTypes    []*typesystem.Type
	MemOffsets  []int64
	StructType  *typesystem.Type // this struct's own interned KStruct type
	Methods     []*Decl

	// enum
	EnumNames  []string
	EnumValues []int64
	EnumType   *typesystem.Type

	// typedef
	AliasOf *typesystem.Type

	// raw_c / raw_ir
	RawText string
}

func (d *Decl) GetToken() token.Token {
	if d == nil {
		return token.None
	}
	return d.Tok
}

func (d *Decl) MemberIndex(name string) (int, bool) {
	for i, n := range d.MemNames {
		if n == name {
			return i, true
		}
	}
	return -1, false
}

func (d *Decl) EnumValue(name string) (int64, bool) {
	for i, n := range d.EnumNames {
		if n == name {
			return d.EnumValues[i], true
		}
	}
	return 0, false
}

func (d *Decl) Method(name string) (*Decl, bool) {
	for _, m := range d.Methods {
		if m.Name == name {
			return m, true
		}
	}
	return nil, false
}
