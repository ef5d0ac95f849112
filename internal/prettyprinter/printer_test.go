package prettyprinter

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/torlang/torc/internal/config"
	"github.com/torlang/torc/internal/instantiate"
	"github.com/torlang/torc/internal/pipeline"
)

func lowerSource(t *testing.T, src string) *pipeline.PipelineContext {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "main.tor")
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := config.Default()
	cache, err := instantiate.OpenCache(filepath.Join(dir, ".cache"))
	if err != nil {
		t.Fatal(err)
	}
	defer cache.Close()

	ctx := pipeline.NewPipelineContext(cfg, cache, path)
	p := pipeline.New(pipeline.ParserProcessor{}, pipeline.InstantiateProcessor{}, pipeline.AnalyzerProcessor{}, pipeline.LowerProcessor{})
	ctx = p.Run(ctx)
	if ctx.HasErrors() {
		t.Fatalf("expected no diagnostics, got: %v", ctx.Diags)
	}
	return ctx
}

func TestPrintModuleRendersFunctionBody(t *testing.T) {
	ctx := lowerSource(t, `
func i32 add(i32 a, i32 b) {
	return a + b;
}
`)

	pp := New()
	for _, mod := range ctx.A3 {
		pp.PrintModule(mod)
	}
	out := pp.String()

	for _, want := range []string{"i32 add(i32 a, i32 b)", "return a + b;"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected output to contain %q, got:\n%s", want, out)
		}
	}
}

func TestPrintModuleRendersSliceMakeExpr(t *testing.T) {
	ctx := lowerSource(t, `
func i32 f() {
	i32[4] a;
	i32[] s = a[1:3];
	return len(s);
}
`)

	pp := New()
	for _, mod := range ctx.A3 {
		pp.PrintModule(mod)
	}
	out := pp.String()

	if !strings.Contains(out, "make(&a[1], 3 - 1)") {
		t.Fatalf("expected slice lowering to render as make(&a[1], 3 - 1), got:\n%s", out)
	}
}
