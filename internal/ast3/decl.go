package ast3

import "github.com/torlang/torc/internal/token"

// DeclKind is the tag of the A3 Declaration union. A3 drops TYPEDEF:
// every A2 typedef was already resolved to its target type by the
// time convertType ran, so no alias decl needs to survive lowering.
// Enum declarations are kept only so codegen can still emit debug
// symbols for them; every reference to an enum member was already
// folded to its carrying-primitive literal back in A2.
type DeclKind int

const (
	DRawC DeclKind = iota
	DRawIR
	DVar
	DFunc
	DStruct
	DEnum
)

// Param is a lowered function parameter. An array-returning function
// gains a synthetic trailing parameter here (spec.md §4.6 "a function
// returning an array gets a trailing pointer parameter and its own
// return becomes void").
type Param struct {
	Name string
	Type *Type
}

// Decl is the A3 Declaration node. Every decl carries a Uid, unique
// within the lowering run, addressing original_source/code/ast3.h's
// uid-keyed scope/temp-variable bookkeeping (A3Gen tracks live
// declarations by id rather than by name, since lowering freely
// introduces synthetic names that must never collide with source
// ones).
type Decl struct {
	Kind DeclKind
	Uid  int64
	Tok  token.Token
	Name string

	IsExported bool

	// var
	VarType  *Type
	InitExpr *Expr
	IsConst  bool
	IsExtern bool
	IsParam  bool

	// func
	Params        []*Param
	ReturnType    *Type
	HasRetPointer bool // true once an array return was rewritten to a trailing pointer param
	Body          *Scope

	// struct
	MemNames   []string
	MemTypes   []*Type
	MemOffsets []int64
	StructType *Type

	// enum
	EnumNames  []string
	EnumValues []int64

	RawText string
}

func (d *Decl) GetToken() token.Token {
	if d == nil {
		return token.None
	}
	return d.Tok
}
