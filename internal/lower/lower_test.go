package lower

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/torlang/torc/internal/analyzer"
	"github.com/torlang/torc/internal/ast3"
	"github.com/torlang/torc/internal/config"
	"github.com/torlang/torc/internal/diagnostics"
	"github.com/torlang/torc/internal/instantiate"
	"github.com/torlang/torc/internal/parser1"
	"github.com/torlang/torc/internal/token"
)

func lowerSource(t *testing.T, src string) (map[string]*ast3.Module, *Gen) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "main.tor")
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := config.Default()
	ms := parser1.NewModuleSet(cfg)
	if _, ok := ms.Load(path, token.None, path); !ok {
		t.Fatalf("load failed: %v", ms.Diags)
	}
	if diagnostics.HasErrors(ms.Diags) {
		t.Fatalf("parse errors: %v", ms.Diags)
	}
	cache, err := instantiate.OpenCache(filepath.Join(dir, ".cache"))
	if err != nil {
		t.Fatal(err)
	}
	defer cache.Close()
	inst := instantiate.New(cfg, ms, cache)
	inst.Run()
	if diagnostics.HasErrors(inst.Diags) {
		t.Fatalf("instantiation errors: %v", inst.Diags)
	}
	b := analyzer.New(cfg, inst.Modules())
	b.Build()
	if len(b.Diags) != 0 {
		t.Fatalf("analyzer errors: %v", b.Diags)
	}
	g := New(cfg, b.Out)
	out := g.Run()
	return out, g
}

func TestLowerSimpleFunction(t *testing.T) {
	src := `
func i32 add(i32 a, i32 b) {
	return a + b;
}
`
	out, g := lowerSource(t, src)
	if len(g.Diags) != 0 {
		t.Fatalf("expected no lowering diagnostics, got: %v", g.Diags)
	}
	var found *ast3.Decl
	for _, mod := range out {
		for _, d := range mod.Funcs() {
			if d.Name == "add" {
				found = d
			}
		}
	}
	if found == nil {
		t.Fatal("expected lowered function add")
	}
	last := found.Body.Body[len(found.Body.Body)-1]
	if last.Kind != ast3.SReturn {
		t.Fatalf("expected the body to end in a return statement, got %#v", found.Body.Body)
	}
}

func TestLowerShortCircuitHoistsBranch(t *testing.T) {
	src := `
func bool f(bool a, bool b) {
	return a && b;
}
`
	out, g := lowerSource(t, src)
	if len(g.Diags) != 0 {
		t.Fatalf("expected no lowering diagnostics, got: %v", g.Diags)
	}
	var found *ast3.Decl
	for _, mod := range out {
		for _, d := range mod.Funcs() {
			if d.Name == "f" {
				found = d
			}
		}
	}
	if found == nil {
		t.Fatal("expected lowered function f")
	}
	var sawIf bool
	for _, st := range found.Body.Body {
		if st.Kind == ast3.SIf {
			sawIf = true
		}
	}
	if !sawIf {
		t.Fatalf("expected short-circuit && to lower into an explicit if, got %#v", found.Body.Body)
	}
}

func TestLowerForBecomesWhile(t *testing.T) {
	src := `
func i32 sum(i32 n) {
	i32 total = 0;
	for (i32 i = 0; i < n; i = i + 1) {
		total = total + i;
	}
	return total;
}
`
	out, g := lowerSource(t, src)
	if len(g.Diags) != 0 {
		t.Fatalf("expected no lowering diagnostics, got: %v", g.Diags)
	}
	var found *ast3.Decl
	for _, mod := range out {
		for _, d := range mod.Funcs() {
			if d.Name == "sum" {
				found = d
			}
		}
	}
	if found == nil {
		t.Fatal("expected lowered function sum")
	}
	var sawWhile bool
	for _, st := range found.Body.Body {
		if st.Kind == ast3.SWhile {
			sawWhile = true
		}
	}
	if !sawWhile {
		t.Fatalf("expected the for-loop to lower into a while, got %#v", found.Body.Body)
	}
}

func TestLowerArrayReturnGetsDestPointer(t *testing.T) {
	src := `
func i32[3] makeTriple() {
	i32[3] out = {1, 2, 3};
	return out;
}

func void useTriple() {
	i32[3] t = makeTriple();
}
`
	out, g := lowerSource(t, src)
	if len(g.Diags) != 0 {
		t.Fatalf("expected no lowering diagnostics, got: %v", g.Diags)
	}
	var makeFn, useFn *ast3.Decl
	for _, mod := range out {
		for _, d := range mod.Funcs() {
			switch d.Name {
			case "makeTriple":
				makeFn = d
			case "useTriple":
				useFn = d
			}
		}
	}
	if makeFn == nil {
		t.Fatal("expected lowered function makeTriple")
	}
	if !makeFn.HasRetPointer {
		t.Fatal("expected makeTriple to gain a trailing destination pointer")
	}
	if makeFn.ReturnType == nil || makeFn.ReturnType.Kind != ast3.KPrimitive {
		t.Fatalf("expected makeTriple's own return type to become void, got %#v", makeFn.ReturnType)
	}
	if len(makeFn.Params) == 0 || makeFn.Params[len(makeFn.Params)-1].Name != "$ret" {
		t.Fatalf("expected a trailing $ret parameter, got %#v", makeFn.Params)
	}

	if useFn == nil {
		t.Fatal("expected lowered function useTriple")
	}
	var sawDestCall bool
	for _, st := range useFn.Body.Body {
		if st.Kind == ast3.SExpr && st.Expr != nil && st.Expr.Kind == ast3.EFuncCall && st.Expr.Name == "makeTriple" {
			if len(st.Expr.Args) == 0 {
				t.Fatalf("expected the call site to pass a destination pointer, got %#v", st.Expr.Args)
			}
			sawDestCall = true
		}
	}
	if !sawDestCall {
		t.Fatalf("expected a bare call to makeTriple writing through a destination pointer, got %#v", useFn.Body.Body)
	}
}
