package analyzer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/torlang/torc/internal/config"
	"github.com/torlang/torc/internal/diagnostics"
	"github.com/torlang/torc/internal/instantiate"
	"github.com/torlang/torc/internal/parser1"
	"github.com/torlang/torc/internal/token"
)

// buildSource writes src to a temp module file and runs it through
// A1, A1-Ext, and the A2 builder, returning the resulting diagnostics
// and the built module set keyed by uname.
func buildSource(t *testing.T, src string) ([]*diagnostics.Diagnostic, *Builder) {
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
	b := New(cfg, inst.Modules())
	b.Build()
	return b.Diags, b
}

func TestBuilderElaboratesSimpleFunction(t *testing.T) {
	src := `
func i32 add(i32 a, i32 b) {
	return a + b;
}
`
	diags, _ := buildSource(t, src)
	if len(diags) != 0 {
		t.Fatalf("expected no diagnostics, got: %v", diags)
	}
}

func TestBuilderReportsUnknownName(t *testing.T) {
	src := `
func i32 f() {
	return undeclared_name;
}
`
	diags, _ := buildSource(t, src)
	if !hasCode(diags, diagnostics.ErrUnknownName) {
		t.Fatalf("expected %s, got: %v", diagnostics.ErrUnknownName, diags)
	}
}

func TestBuilderReportsOperatorMismatch(t *testing.T) {
	src := `
func bool f() {
	return 1 && true;
}
`
	diags, _ := buildSource(t, src)
	if !hasCode(diags, diagnostics.ErrBadOperand) {
		t.Fatalf("expected %s, got: %v", diagnostics.ErrBadOperand, diags)
	}
}

func TestBuilderResolvesStructMemberAndMethod(t *testing.T) {
	src := `
struct point { i32 x; i32 y; }

func i32 point.sum(point* self) {
	return self.x + self.y;
}

func i32 f() {
	point p;
	return p.sum();
}
`
	diags, _ := buildSource(t, src)
	if len(diags) != 0 {
		t.Fatalf("expected no diagnostics, got: %v", diags)
	}
}

func TestBuilderAcceptsEnumCastRoundTrip(t *testing.T) {
	src := `
enum color { red; green; blue; }

func color f(i32 n) {
	return cast<color>(n);
}

func i32 g(color c) {
	return cast<i32>(c);
}
`
	diags, _ := buildSource(t, src)
	if len(diags) != 0 {
		t.Fatalf("expected no diagnostics, got: %v", diags)
	}
}

func hasCode(diags []*diagnostics.Diagnostic, code string) bool {
	for _, d := range diags {
		if d.Code == code {
			return true
		}
	}
	return false
}
