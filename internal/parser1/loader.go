// Package parser1 implements the A1 parser (spec.md §4.2): a
// three-pass walk per module over a fixed token vector, plus the
// import graph traversal and path resolution of spec.md §6.
package parser1

import (
	"os"
	"path/filepath"

	"github.com/torlang/torc/internal/ast1"
	"github.com/torlang/torc/internal/config"
	"github.com/torlang/torc/internal/diagnostics"
	"github.com/torlang/torc/internal/lexer"
	"github.com/torlang/torc/internal/token"
	"github.com/torlang/torc/internal/tokenstream"
)

// ModuleSet owns every module parsed so far in a single compilation,
// keyed by resolved path, plus the uname disambiguation counter and
// import-cycle tracking (spec.md §4.2 "Pass 1 — shapes").
type ModuleSet struct {
	Cfg   *config.Config
	Diags []*diagnostics.Diagnostic

	byPath      map[string]*ast1.Module
	unameStems  map[string]int  // file stem -> next disambiguation suffix
	parsing     map[string]bool // resolved path -> currently being parsed (cycle detection)
	sourceIndex int
}

func NewModuleSet(cfg *config.Config) *ModuleSet {
	return &ModuleSet{
		Cfg:        cfg,
		byPath:     make(map[string]*ast1.Module),
		unameStems: make(map[string]int),
		parsing:    make(map[string]bool),
	}
}

func (ms *ModuleSet) addErr(d *diagnostics.Diagnostic, file string) {
	d.File = file
	ms.Diags = append(ms.Diags, d)
}

// ResolvePath joins an include path with the including file's
// directory, collapses "." and ".." segments, and canonicalises the
// result for deduplication (spec.md §6).
func ResolvePath(includingDir, includePath string) string {
	if filepath.IsAbs(includePath) {
		return filepath.Clean(includePath)
	}
	return filepath.Clean(filepath.Join(includingDir, includePath))
}

// nextUname derives a process-unique module identifier from the file
// stem, disambiguated by appending _N for the 2nd+ module sharing a
// stem (spec.md §3 "Module").
func (ms *ModuleSet) nextUname(path string) string {
	stem := filepath.Base(path)
	if ext := filepath.Ext(stem); ext != "" {
		stem = stem[:len(stem)-len(ext)]
	}
	n := ms.unameStems[stem]
	ms.unameStems[stem] = n + 1
	if n == 0 {
		return stem
	}
	return stem + "_" + itoa(n)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := []byte{}
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

// Load parses the module at resolvedPath if not already parsed.
// If the module exists but is mid-parse (not yet IsFinished), this is
// an import cycle (spec.md §4.2 "Pass 1"): reported as E0708 naming
// both files, and the caller's in-progress module remains intact.
func (ms *ModuleSet) Load(resolvedPath string, tok token.Token, fromFile string) (*ast1.Module, bool) {
	if m, ok := ms.byPath[resolvedPath]; ok {
		if !m.IsFinished && ms.parsing[resolvedPath] {
			ms.addErr(diagnostics.Newf(diagnostics.ErrIncludeCycle, tok,
				"import cycle: %s includes %s which is still being parsed", fromFile, resolvedPath), fromFile)
			return nil, false
		}
		return m, true
	}

	data, err := os.ReadFile(resolvedPath)
	if err != nil {
		ms.addErr(diagnostics.Newf(diagnostics.ErrUnknownInclude, tok,
			"cannot read included file %s: %v", resolvedPath, err), fromFile)
		return nil, false
	}

	ms.sourceIndex++
	uname := ms.nextUname(resolvedPath)
	m := ast1.NewModule(resolvedPath, uname)
	ms.byPath[resolvedPath] = m
	ms.parsing[resolvedPath] = true

	toks := lexer.Tokenize(string(data), ms.sourceIndex)
	p := NewParser(ms, m, tokenstream.New(toks))
	p.ParseModule()

	delete(ms.parsing, resolvedPath)
	m.IsFinished = true
	return m, true
}

// Modules returns every module parsed so far.
func (ms *ModuleSet) Modules() map[string]*ast1.Module { return ms.byPath }

// NextUname mints a process-unique module identifier for path, shared
// with A1-Ext clone naming so a generic module's instantiations never
// collide with a plainly-included module's uname (spec.md §3 "Module").
func (ms *ModuleSet) NextUname(path string) string { return ms.nextUname(path) }

// Get returns the already-parsed module at resolvedPath, if any.
func (ms *ModuleSet) Get(resolvedPath string) (*ast1.Module, bool) {
	m, ok := ms.byPath[resolvedPath]
	return m, ok
}
