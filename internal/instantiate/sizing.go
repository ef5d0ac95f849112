package instantiate

import (
	"github.com/torlang/torc/internal/ast1"
	"github.com/torlang/torc/internal/config"
)

// foreignResolver looks up the module an include's import alias
// currently targets, once A1-Ext has assigned it a TargetUname.
type foreignResolver func(importAlias string) (*ast1.Module, bool)

// resolverFor builds a foreignResolver scoped to mod's own include
// list, used so completeTypeSize can follow a `foreign` reference
// through whichever include introduced that alias.
func (inst *Instantiator) resolverFor(mod *ast1.Module) foreignResolver {
	return func(alias string) (*ast1.Module, bool) {
		for _, inc := range mod.Includes {
			if inc.ImportAlias != alias || inc.TargetUname == "" {
				continue
			}
			m, ok := inst.byUname[inc.TargetUname]
			return m, ok
		}
		return nil, false
	}
}

// sizeStructsOnce retries struct-size completion for every unsized
// struct in mod, once, returning whether any struct made progress this
// call (spec.md §4.4 step 3: "For each struct in the current module,
// retry size completion"). It duplicates parser1's pass-2 algorithm
// rather than reusing it directly, since here foreign references can
// resolve mid-loop as sibling includes gain a TargetUname — a case the
// plain A1 parser never needs to revisit once its own pass 2 ends.
func sizeStructsOnce(cfg *config.Config, mod *ast1.Module, resolve foreignResolver) bool {
	changed := false
	for _, s := range mod.Structs() {
		if s.StructSize >= 0 {
			continue
		}
		if trySizeStruct(cfg, mod, s, resolve) {
			changed = true
		}
	}
	return changed
}

func trySizeStruct(cfg *config.Config, mod *ast1.Module, s *ast1.Decl, resolve foreignResolver) bool {
	for _, mt := range s.MemTypes {
		if !completeTypeSize(cfg, mod, mt, resolve) {
			return false
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

func completeTypeSize(cfg *config.Config, mod *ast1.Module, t *ast1.Type, resolve foreignResolver) bool {
	if t == nil || t.Resolved() {
		return true
	}
	switch t.Kind {
	case ast1.TPointer:
		t.TypeSize = int64(cfg.Arch)
		t.TypeAlign = t.TypeSize
		return true
	case ast1.TSlice:
		t.TypeSize = cfg.SliceWordSize()
		t.TypeAlign = int64(cfg.Arch)
		return true
	case ast1.TArray:
		if !completeTypeSize(cfg, mod, t.Direct, resolve) {
			return false
		}
		if t.ArrLenVal <= 0 {
			return false
		}
		t.TypeSize = t.Direct.TypeSize * t.ArrLenVal
		t.TypeAlign = t.Direct.TypeAlign
		return true
	case ast1.TFunction:
		t.TypeSize = int64(cfg.Arch)
		t.TypeAlign = t.TypeSize
		return true
	case ast1.TName:
		d, ok := mod.Find(t.Name)
		if !ok {
			return false
		}
		return completeFromDecl(cfg, mod, t, d, resolve)
	case ast1.TForeign:
		fm, ok := resolve(t.ModName)
		if !ok {
			return false
		}
		d, ok := fm.Find(t.Name)
		if !ok || !d.IsExported {
			return false
		}
		return completeFromDecl(cfg, fm, t, d, resolve)
	}
	return t.Resolved()
}

func completeFromDecl(cfg *config.Config, owner *ast1.Module, t *ast1.Type, d *ast1.Decl, resolve foreignResolver) bool {
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
		if !completeTypeSize(cfg, owner, d.AliasOf, resolve) {
			return false
		}
		t.TypeSize = d.AliasOf.TypeSize
		t.TypeAlign = d.AliasOf.TypeAlign
		return true
	}
	return false
}
