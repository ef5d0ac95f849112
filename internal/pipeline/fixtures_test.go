package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/tools/txtar"

	"github.com/torlang/torc/internal/config"
	"github.com/torlang/torc/internal/instantiate"
)

// extractArchive writes a txtar-bundled set of source files to dir and
// returns the absolute path of entryName. Multi-file fixtures are kept
// as single txtar archives (one file per bullet's "-- name --"
// header) rather than a tree of loose files, the same bundling the
// teacher leans on for its own integration fixtures.
func extractArchive(t *testing.T, dir, archive, entryName string) string {
	t.Helper()
	ar := txtar.Parse([]byte(archive))
	var entry string
	for _, f := range ar.Files {
		path := filepath.Join(dir, f.Name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, f.Data, 0o644); err != nil {
			t.Fatal(err)
		}
		if f.Name == entryName {
			entry = path
		}
	}
	if entry == "" {
		t.Fatalf("fixture archive has no file named %q", entryName)
	}
	return entry
}

const multiFileFixture = `
-- util.tor --
export func i32 double(i32 x) {
	return x * 2;
}

-- main.tor --
include "util.tor" as util;

func i32 quadruple(i32 x) {
	return util.double(util.double(x));
}
`

func TestPipelineResolvesMultiFileFixture(t *testing.T) {
	dir := t.TempDir()
	entry := extractArchive(t, dir, multiFileFixture, "main.tor")

	cache, err := instantiate.OpenCache(filepath.Join(dir, ".cache"))
	if err != nil {
		t.Fatal(err)
	}
	defer cache.Close()

	ctx := NewPipelineContext(config.Default(), cache, entry)
	p := New(ParserProcessor{}, InstantiateProcessor{}, AnalyzerProcessor{}, LowerProcessor{})
	ctx = p.Run(ctx)

	if ctx.HasErrors() {
		t.Fatalf("expected no diagnostics, got: %v", ctx.Diags)
	}

	var sawQuadruple, sawDouble bool
	for _, mod := range ctx.A3 {
		for _, d := range mod.Funcs() {
			switch d.Name {
			case "quadruple":
				sawQuadruple = true
			case "double":
				sawDouble = true
			}
		}
	}
	if !sawQuadruple {
		t.Fatal("expected the entry module's quadruple to survive lowering")
	}
	if !sawDouble {
		t.Fatal("expected the included module's double to survive lowering")
	}
}
