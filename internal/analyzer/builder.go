// Package analyzer implements the A2 Builder (spec.md §4.5): it walks
// every instantiated A1 module (plain modules plus A1-Ext clones) and
// elaborates a parallel ast2.Module tree, interning every expression's
// type into one shared typesystem.Pool and resolving the name-binding,
// operator, and call-resolution rules the spec lays out.
package analyzer

import (
	"github.com/torlang/torc/internal/ast1"
	"github.com/torlang/torc/internal/ast2"
	"github.com/torlang/torc/internal/config"
	"github.com/torlang/torc/internal/diagnostics"
	"github.com/torlang/torc/internal/token"
	"github.com/torlang/torc/internal/typesystem"
)

// Builder holds the state shared across the whole module set: one type
// pool (spec.md §4.5 "Type pool" is per compilation, not per module),
// the A1 input indexed by uname, and the A2 output being assembled.
type Builder struct {
	Cfg  *config.Config
	Pool *typesystem.Pool

	A1  map[string]*ast1.Module
	Out map[string]*ast2.Module

	Diags []*diagnostics.Diagnostic

	curFile string // Path of the module currently being elaborated, for diagnostics
}

// New builds an analyzer seeded with every module instantiate produced
// (spec.md §4.4's output is exactly this set: plain modules plus every
// A1-Ext clone, each with fully resolved struct/enum sizes).
func New(cfg *config.Config, a1 map[string]*ast1.Module) *Builder {
	pool := typesystem.NewPool()
	pool.Arch(cfg.Arch)
	return &Builder{Cfg: cfg, Pool: pool, A1: a1, Out: make(map[string]*ast2.Module)}
}

// Build elaborates every module in b.A1, in a dependency order derived
// from each module's own Includes list so a callee's structs/enums are
// always registered before a caller's field/parameter types need them.
// A module whose own elaboration produced at least one error does not
// block the rest of the set (spec.md §7: "the first error aborts the
// current module", not the whole build).
func (b *Builder) Build() map[string]*ast2.Module {
	order := b.dependencyOrder()
	for _, uname := range order {
		b.registerHeaders(b.A1[uname])
	}
	for _, uname := range order {
		b.elaborateModule(b.A1[uname])
	}
	return b.Out
}

// dependencyOrder returns every uname in b.A1 such that a module always
// appears after every module it (transitively) includes, breaking ties
// by each module's Path in lexical order (stable and deterministic).
// A cycle (already rejected upstream by the loader) is broken by simply
// emitting the node the first time it is reached.
func (b *Builder) dependencyOrder() []string {
	seedOrder := make([]string, 0, len(b.A1))
	for uname := range b.A1 {
		seedOrder = append(seedOrder, uname)
	}
	// Iteration order of a Go map is undefined, so sort the seed by a
	// field that is itself deterministic: the module's Path, compared as
	// a string.
	sortByPath(seedOrder, b.A1)

	visited := make(map[string]bool, len(b.A1))
	var order []string
	var visit func(uname string)
	visit = func(uname string) {
		if visited[uname] {
			return
		}
		visited[uname] = true
		mod, ok := b.A1[uname]
		if !ok {
			return
		}
		for _, inc := range mod.Includes {
			if inc.TargetUname != "" {
				visit(inc.TargetUname)
			}
		}
		order = append(order, uname)
	}
	for _, uname := range seedOrder {
		visit(uname)
	}
	return order
}

func sortByPath(unames []string, a1 map[string]*ast1.Module) {
	for i := 1; i < len(unames); i++ {
		for j := i; j > 0; j-- {
			a, okA := a1[unames[j]]
			bb, okB := a1[unames[j-1]]
			if !okA || !okB || a.Path >= bb.Path {
				break
			}
			unames[j], unames[j-1] = unames[j-1], unames[j]
		}
	}
}

// registerHeaders interns mod's struct/enum types and pre-creates their
// ast2.Decl shells (fields filled in once elaborateModule walks member
// types), so a sibling module that references one of these names before
// this module's own body is elaborated still resolves it (spec.md §4.5
// "Structs/enums are visible throughout the compilation unit once
// sized, independent of elaboration order").
func (b *Builder) registerHeaders(mod *ast1.Module) {
	if mod == nil {
		return
	}
	out := ast2.NewModule(mod.Path, mod.Uname)
	b.Out[mod.Uname] = out
	for _, d := range mod.Structs() {
		b.Pool.Intern(&typesystem.Type{Kind: typesystem.KStruct, ModUname: mod.Uname, Name: d.Name,
			Size: d.StructSize, Align: d.StructAlign})
	}
	for _, d := range mod.AllDecls() {
		if d.Kind == ast1.DEnum {
			b.Pool.Intern(&typesystem.Type{Kind: typesystem.KEnum, ModUname: mod.Uname, Name: d.Name,
				Size: d.EnumSize, Align: d.EnumSize})
		}
	}
}

func (b *Builder) errorf(code string, tok token.Token, format string, args ...interface{}) {
	d := diagnostics.Newf(code, tok, format, args...)
	d.File = b.curFile
	b.Diags = append(b.Diags, d)
}
