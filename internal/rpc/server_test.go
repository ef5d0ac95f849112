package rpc

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/torlang/torc/internal/config"
	"github.com/torlang/torc/internal/instantiate"
)

func parseFrame(t *testing.T, output string) Response {
	t.Helper()
	parts := strings.SplitN(output, "\r\n\r\n", 2)
	if len(parts) != 2 {
		t.Fatalf("invalid frame (no header/body split): %q", output)
	}
	var resp Response
	if err := json.Unmarshal([]byte(parts[1]), &resp); err != nil {
		t.Fatalf("bad response JSON: %v", err)
	}
	return resp
}

func newTestServer(t *testing.T, in *bytes.Buffer, out *bytes.Buffer) *Server {
	t.Helper()
	dir := t.TempDir()
	cache, err := instantiate.OpenCache(filepath.Join(dir, ".cache"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { cache.Close() })
	return NewServer(config.Default(), cache, in, out)
}

func TestServerCompileSucceeds(t *testing.T) {
	dir := t.TempDir()
	src := `
func i32 add(i32 a, i32 b) {
	return a + b;
}
`
	path := filepath.Join(dir, "main.tor")
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}

	out := new(bytes.Buffer)
	srv := newTestServer(t, new(bytes.Buffer), out)

	req := Request{Jsonrpc: "2.0", ID: float64(1), Method: "compile", Params: CompileParams{FilePath: path}}
	if err := srv.handleMessage(mustMarshal(t, req)); err != nil {
		t.Fatalf("handleMessage failed: %v", err)
	}

	resp := parseFrame(t, out.String())
	if resp.Error != nil {
		t.Fatalf("expected no error, got: %+v", resp.Error)
	}
	resBytes, _ := json.Marshal(resp.Result)
	var result CompileResult
	if err := json.Unmarshal(resBytes, &result); err != nil {
		t.Fatal(err)
	}
	if !result.Ok {
		t.Fatalf("expected Ok result, got: %+v diagnostics: %v", result, result.Diags)
	}
	if result.FuncCount == 0 {
		t.Fatal("expected at least one lowered function")
	}
	if result.BuildID == "" || result.RequestID == "" {
		t.Fatal("expected non-empty BuildID and RequestID")
	}
}

func TestServerCompileReportsAnalyzerErrors(t *testing.T) {
	dir := t.TempDir()
	src := `
func i32 add(i32 a, i32 b) {
	return a + undeclared;
}
`
	path := filepath.Join(dir, "main.tor")
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}

	out := new(bytes.Buffer)
	srv := newTestServer(t, new(bytes.Buffer), out)

	req := Request{Jsonrpc: "2.0", ID: float64(2), Method: "compile", Params: CompileParams{FilePath: path}}
	if err := srv.handleMessage(mustMarshal(t, req)); err != nil {
		t.Fatalf("handleMessage failed: %v", err)
	}

	resp := parseFrame(t, out.String())
	resBytes, _ := json.Marshal(resp.Result)
	var result CompileResult
	if err := json.Unmarshal(resBytes, &result); err != nil {
		t.Fatal(err)
	}
	if result.Ok {
		t.Fatal("expected Ok=false for a source with an unknown name")
	}
	if len(result.Diags) == 0 {
		t.Fatal("expected at least one diagnostic")
	}
}

func TestServerUnknownMethod(t *testing.T) {
	out := new(bytes.Buffer)
	srv := newTestServer(t, new(bytes.Buffer), out)

	req := Request{Jsonrpc: "2.0", ID: float64(3), Method: "frobnicate"}
	if err := srv.handleMessage(mustMarshal(t, req)); err != nil {
		t.Fatalf("handleMessage failed: %v", err)
	}

	resp := parseFrame(t, out.String())
	if resp.Error == nil || resp.Error.Code != ErrCodeMethodNotFnd {
		t.Fatalf("expected method-not-found error, got: %+v", resp.Error)
	}
}

func mustMarshal(t *testing.T, v interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	return data
}
