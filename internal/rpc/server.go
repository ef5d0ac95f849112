package rpc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/torlang/torc/internal/config"
	"github.com/torlang/torc/internal/diagnostics"
	"github.com/torlang/torc/internal/instantiate"
	"github.com/torlang/torc/internal/pipeline"
)

// Server is the `torc serve` subcommand's compile service: it reads
// Content-Length-framed JSON-RPC requests off an input stream and
// writes responses to an output stream, one pipeline.Pipeline run per
// "compile" request. Grounded on cmd/lsp/server.go's LanguageServer —
// same framing, same handleMessage/sendMessage split — narrowed to
// the single method this service actually offers.
type Server struct {
	cfg    *config.Config
	cache  *instantiate.CacheStore
	reader *bufio.Reader
	writer io.Writer
}

func NewServer(cfg *config.Config, cache *instantiate.CacheStore, r io.Reader, w io.Writer) *Server {
	return &Server{cfg: cfg, cache: cache, reader: bufio.NewReader(r), writer: w}
}

// Start reads requests until the input stream closes. A request whose
// JSON fails to parse or whose method is unknown is answered with an
// error response and the loop goes on, since a stdio client can keep
// issuing further requests on the same connection. A frame that cannot
// be read (including a malformed Content-Length header) is logged and
// ends the loop without a response.
func (s *Server) Start() {
	for {
		content, err := s.readFrame()
		if err != nil {
			if err != io.EOF {
				log.Printf("rpc: error reading frame: %v", err)
			}
			return
		}
		if err := s.handleMessage(content); err != nil {
			log.Printf("rpc: error handling message: %v", err)
		}
	}
}

func (s *Server) readFrame() ([]byte, error) {
	var contentLength int
	for {
		line, err := s.reader.ReadString('\n')
		if err != nil {
			return nil, err
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			if contentLength > 0 {
				break
			}
			continue
		}
		if strings.HasPrefix(line, "Content-Length: ") {
			n, err := strconv.Atoi(strings.TrimPrefix(line, "Content-Length: "))
			if err != nil {
				return nil, fmt.Errorf("malformed Content-Length: %w", err)
			}
			contentLength = n
		}
	}

	content := make([]byte, contentLength)
	if _, err := io.ReadFull(s.reader, content); err != nil {
		return nil, err
	}
	return content, nil
}

func (s *Server) handleMessage(content []byte) error {
	var req Request
	if err := json.Unmarshal(content, &req); err != nil {
		return s.sendMessage(Response{
			Jsonrpc: "2.0",
			Error:   &RPCError{Code: ErrCodeParse, Message: err.Error()},
		})
	}

	switch req.Method {
	case "compile":
		return s.handleCompile(req)
	default:
		return s.sendMessage(Response{
			Jsonrpc: "2.0",
			ID:      req.ID,
			Error:   &RPCError{Code: ErrCodeMethodNotFnd, Message: fmt.Sprintf("method not found: %s", req.Method)},
		})
	}
}

func (s *Server) handleCompile(req Request) error {
	raw, err := json.Marshal(req.Params)
	if err != nil {
		return s.sendMessage(Response{
			Jsonrpc: "2.0", ID: req.ID,
			Error: &RPCError{Code: ErrCodeInvalidParam, Message: err.Error()},
		})
	}
	var params CompileParams
	if err := json.Unmarshal(raw, &params); err != nil || params.FilePath == "" {
		return s.sendMessage(Response{
			Jsonrpc: "2.0", ID: req.ID,
			Error: &RPCError{Code: ErrCodeInvalidParam, Message: "compile requires a non-empty filePath"},
		})
	}

	requestID := uuid.NewString()
	ctx := pipeline.NewPipelineContext(s.cfg, s.cache, params.FilePath)
	p := pipeline.New(
		pipeline.ParserProcessor{},
		pipeline.InstantiateProcessor{},
		pipeline.AnalyzerProcessor{},
		pipeline.LowerProcessor{},
	)
	ctx = p.Run(ctx)

	result := CompileResult{
		RequestID: requestID,
		BuildID:   ctx.BuildID,
		Ok:        !ctx.HasErrors(),
		Diags:     toDiagEntries(ctx.Diags),
	}
	for _, mod := range ctx.A3 {
		result.FuncCount += len(mod.Funcs())
	}

	return s.sendMessage(Response{Jsonrpc: "2.0", ID: req.ID, Result: result})
}

func toDiagEntries(ds []*diagnostics.Diagnostic) []DiagEntry {
	out := make([]DiagEntry, 0, len(ds))
	for _, d := range ds {
		sev := "error"
		if d.IsWarning() {
			sev = "warning"
		}
		out = append(out, DiagEntry{
			Code:     d.Code,
			Severity: sev,
			Message:  d.Message,
			File:     d.File,
			Line:     d.Token.Loc.Line,
		})
	}
	return out
}

func (s *Server) sendMessage(msg interface{}) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(s.writer, "Content-Length: %d\r\n\r\n%s", len(data), data)
	return err
}

// StartStdio wires a Server to the process's own stdin/stdout — the
// entry point `cmd/torc`'s serve subcommand calls.
func StartStdio(cfg *config.Config, cache *instantiate.CacheStore) {
	NewServer(cfg, cache, os.Stdin, os.Stdout).Start()
}
