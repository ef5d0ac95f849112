package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/torlang/torc/internal/config"
	"github.com/torlang/torc/internal/instantiate"
)

func openTestCache(t *testing.T, dir string) *instantiate.CacheStore {
	t.Helper()
	cache, err := instantiate.OpenCache(filepath.Join(dir, ".cache"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { cache.Close() })
	return cache
}

func TestRunBuildSucceeds(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main.tor")
	src := `
func i32 add(i32 a, i32 b) {
	return a + b;
}
`
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}

	cache := openTestCache(t, dir)
	result, err := runBuild(config.Default(), cache, path)
	if err != nil {
		t.Fatalf("runBuild failed: %v", err)
	}
	if result.ctx.HasErrors() {
		t.Fatalf("expected no diagnostics, got: %v", result.ctx.Diags)
	}
	if result.funcCount == 0 {
		t.Fatal("expected at least one lowered function")
	}
}

func TestRunBuildReportsErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main.tor")
	src := `
func i32 add(i32 a, i32 b) {
	return a + undeclared;
}
`
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}

	cache := openTestCache(t, dir)
	result, err := runBuild(config.Default(), cache, path)
	if err != nil {
		t.Fatalf("runBuild failed: %v", err)
	}
	if !result.ctx.HasErrors() {
		t.Fatal("expected the analyzer to report an unknown name")
	}
}

func TestTrimSourceExt(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"main.tor", "main"},
		{"main.tors", "main"},
		{"main.txt", "main.txt"},
		{filepath.Join("dir", "main.tor"), filepath.Join("dir", "main")},
	}
	for _, tt := range tests {
		if got := trimSourceExt(tt.in); got != tt.want {
			t.Errorf("trimSourceExt(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLoadConfigFallsBackToDefault(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(wd) })

	cfg := loadConfig()
	want := config.Default()
	if cfg.Arch != want.Arch || cfg.BigCopyAlert != want.BigCopyAlert || cfg.CacheDir != want.CacheDir {
		t.Fatalf("expected default config with no torc.yaml present, got: %+v", cfg)
	}
}
