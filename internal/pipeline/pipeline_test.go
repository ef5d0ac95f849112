package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/torlang/torc/internal/config"
	"github.com/torlang/torc/internal/instantiate"
)

func runSource(t *testing.T, src string) *PipelineContext {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "main.tor")
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	cache, err := instantiate.OpenCache(filepath.Join(dir, ".cache"))
	if err != nil {
		t.Fatal(err)
	}
	defer cache.Close()

	ctx := NewPipelineContext(config.Default(), cache, path)
	p := New(ParserProcessor{}, InstantiateProcessor{}, AnalyzerProcessor{}, LowerProcessor{})
	return p.Run(ctx)
}

func TestPipelineRunsEndToEnd(t *testing.T) {
	src := `
func i32 add(i32 a, i32 b) {
	return a + b;
}
`
	ctx := runSource(t, src)
	if ctx.HasErrors() {
		t.Fatalf("expected no diagnostics, got: %v", ctx.Diags)
	}
	if ctx.BuildID == "" {
		t.Fatal("expected a non-empty BuildID")
	}
	if ctx.A3 == nil {
		t.Fatal("expected the lowering stage to populate A3")
	}
	var found bool
	for _, mod := range ctx.A3 {
		for _, d := range mod.Funcs() {
			if d.Name == "add" {
				found = true
			}
		}
	}
	if !found {
		t.Fatal("expected lowered function add to survive the whole pipeline")
	}
}

func TestPipelineStopsAtFirstFailingStage(t *testing.T) {
	src := `
func i32 add(i32 a, i32 b) {
	return a + undeclared;
}
`
	ctx := runSource(t, src)
	if !ctx.HasErrors() {
		t.Fatal("expected the analyzer to report an unknown name")
	}
	if ctx.A3 != nil {
		t.Fatal("expected lowering to be skipped once an earlier stage has errors")
	}
}
