// Package instantiate implements A1-Ext template instantiation
// (spec.md §4.4): cloning generic modules per distinct, canonicalised
// include argument list, iterating the include graph to a fixed
// point, and persisting the (path, args) -> uname mapping across
// process runs via internal/instantiate/cache.go.
package instantiate

import (
	"strings"

	"github.com/torlang/torc/internal/ast1"
	"github.com/torlang/torc/internal/config"
	"github.com/torlang/torc/internal/diagnostics"
	"github.com/torlang/torc/internal/parser1"
)

// maxRounds bounds the fixed-point loop; the include graph is acyclic
// (spec.md §4.4 "A1-Ext operates on an acyclic template-include DAG")
// so termination is expected well before this, but an explicit ceiling
// keeps a malformed input from hanging the pipeline.
const maxRounds = 10000

// Instantiator owns the growing set of template-module clones and the
// uname registry spanning both plainly-parsed modules and clones, so
// foreign type references can be resolved by uname regardless of which
// side of A1-Ext produced the target.
type Instantiator struct {
	Cfg   *config.Config
	Cache *CacheStore // nil disables cross-run persistence; in-run dedup still applies
	Diags []*diagnostics.Diagnostic

	ms      *parser1.ModuleSet
	byUname map[string]*ast1.Module
	clones  map[string]*ast1.Module // (resolvedPath + "|" + canonicalArgsKey) -> clone
}

func New(cfg *config.Config, ms *parser1.ModuleSet, cache *CacheStore) *Instantiator {
	inst := &Instantiator{
		Cfg:     cfg,
		Cache:   cache,
		ms:      ms,
		byUname: make(map[string]*ast1.Module),
		clones:  make(map[string]*ast1.Module),
	}
	for _, m := range ms.Modules() {
		inst.byUname[m.Uname] = m
	}
	return inst
}

// Modules returns every module known after Run: the modules the A1
// parser produced plus every template clone, keyed by uname.
func (inst *Instantiator) Modules() map[string]*ast1.Module { return inst.byUname }

// Run drives the instantiation loop to a fixed point (spec.md §4.4
// "Instantiation loop").
func (inst *Instantiator) Run() {
	for round := 0; round < maxRounds; round++ {
		changed := false
		for _, mod := range inst.snapshot() {
			if inst.processIncludes(mod) {
				changed = true
			}
			if sizeStructsOnce(inst.Cfg, mod, inst.resolverFor(mod)) {
				changed = true
			}
		}
		if !changed {
			break
		}
	}
	inst.reportUnresolved()
}

func (inst *Instantiator) snapshot() []*ast1.Module {
	out := make([]*ast1.Module, 0, len(inst.byUname))
	for _, m := range inst.byUname {
		out = append(out, m)
	}
	return out
}

// processIncludes completes argument types and resolves template
// includes for one module, returning whether anything changed.
func (inst *Instantiator) processIncludes(mod *ast1.Module) bool {
	changed := false
	resolve := inst.resolverFor(mod)
	for _, inc := range mod.Includes {
		if len(inc.TemplateArgs) == 0 || inc.TargetUname != "" {
			continue
		}
		allSized := true
		for _, at := range inc.TemplateArgs {
			if !completeTypeSize(inst.Cfg, mod, at, resolve) {
				allSized = false
			}
		}
		if !allSized {
			continue
		}

		canonArgs := make([]*ast1.Type, len(inc.TemplateArgs))
		for i, at := range inc.TemplateArgs {
			canonArgs[i] = canonicalizeType(mod.Uname, at)
		}
		argsKey := canonicalArgsKey(canonArgs)
		key := inc.ResolvedPath + "|" + argsKey

		clone, ok := inst.clones[key]
		if !ok {
			src, ok2 := inst.ms.Get(inc.ResolvedPath)
			if !ok2 {
				src, ok2 = inst.ms.Load(inc.ResolvedPath, inc.Tok, mod.Path)
			}
			if !ok2 || src == nil {
				continue
			}
			uname := inst.mintUname(inc.ResolvedPath, argsKey, src)
			clone = src.DeepClone(uname)
			clone.TemplateArgs = canonArgs
			bindTemplateParams(clone, inc.TemplateArgs)
			inst.clones[key] = clone
			inst.byUname[uname] = clone
		}
		inc.TargetUname = clone.Uname
		changed = true
	}
	return changed
}

// mintUname assigns the clone's uname, reusing a prior run's choice
// from the persistent cache when available (spec.md §8 testable
// property 8: "calling complete twice with the same (path,args) reuses
// the same module uname").
func (inst *Instantiator) mintUname(resolvedPath, argsKey string, src *ast1.Module) string {
	if inst.Cache != nil {
		if uname, ok, err := inst.Cache.Lookup(resolvedPath, argsKey); err == nil && ok {
			return uname
		}
	}
	uname := inst.ms.NextUname(resolvedPath)
	if inst.Cache != nil {
		_ = inst.Cache.Store(resolvedPath, argsKey, uname)
	}
	return uname
}

func (inst *Instantiator) resolverFor(mod *ast1.Module) foreignResolver {
	return func(alias string) (*ast1.Module, bool) {
		for _, inc := range mod.Includes {
			if inc.ImportAlias != alias {
				continue
			}
			if inc.TargetUname == "" {
				return nil, false
			}
			m, ok := inst.byUname[inc.TargetUname]
			return m, ok
		}
		return nil, false
	}
}

// reportUnresolved reports spec.md §4.4's closing rule: "any remaining
// unsized include argument, struct member, or typed template is an
// error" once the loop quiesces.
func (inst *Instantiator) reportUnresolved() {
	for _, mod := range inst.byUname {
		for _, inc := range mod.Includes {
			if len(inc.TemplateArgs) > 0 && inc.TargetUname == "" {
				inst.Diags = append(inst.Diags, diagnostics.Newf(diagnostics.ErrSizeUnresolved, inc.Tok,
					"include<...> argument types for %s never resolved", inc.Name))
			}
		}
		for _, s := range mod.Structs() {
			if s.StructSize < 0 {
				inst.Diags = append(inst.Diags, diagnostics.Newf(diagnostics.ErrSizeUnresolved, s.Tok,
					"struct %s size never resolved", s.Name))
			}
		}
	}
}

// canonicalizeType rewrites every local/foreign name reference inside
// t into the TTemplate canonical form (spec.md §4.4 "Argument
// canonicalisation"), recursively, so two include<...> requests from
// different call sites compare equal exactly when they denote the
// same type.
func canonicalizeType(callerUname string, t *ast1.Type) *ast1.Type {
	if t == nil {
		return nil
	}
	c := &ast1.Type{Kind: t.Kind, Prim: t.Prim, TypeSize: t.TypeSize, TypeAlign: t.TypeAlign,
		ArrLenVal: t.ArrLenVal, Tok: t.Tok}
	switch t.Kind {
	case ast1.TName:
		c.Kind = ast1.TTemplate
		c.Name = t.Name
		c.IncName = callerUname
	case ast1.TForeign:
		c.Kind = ast1.TTemplate
		c.Name = t.Name
		c.IncName = callerUname + "/" + t.ModName
	default:
		c.Name = t.Name
		c.ModName = t.ModName
	}
	c.Direct = canonicalizeType(callerUname, t.Direct)
	if t.Indirect != nil {
		c.Indirect = make([]*ast1.Type, len(t.Indirect))
		for i, p := range t.Indirect {
			c.Indirect[i] = canonicalizeType(callerUname, p)
		}
	}
	return c
}

func canonicalArgsKey(args []*ast1.Type) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.CanonicalKey()
	}
	return strings.Join(parts, ",")
}
