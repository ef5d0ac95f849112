// Package pipeline chains the compiler's passes — lex, parse A1,
// instantiate A1-Ext, build A2, lower A3 — behind one Processor
// interface so cmd/torc and internal/rpc can run the whole front end
// without hand-wiring each stage's inputs and outputs. Grounded on
// internal/pipeline/pipeline.go's Pipeline/Processor/PipelineContext
// shape (a processor list run in order over one mutable context; every
// processor is called, and each stage after the parser is a no-op once
// an earlier stage has reported errors).
package pipeline

import (
	"github.com/google/uuid"

	"github.com/torlang/torc/internal/ast1"
	"github.com/torlang/torc/internal/ast2"
	"github.com/torlang/torc/internal/ast3"
	"github.com/torlang/torc/internal/config"
	"github.com/torlang/torc/internal/diagnostics"
	"github.com/torlang/torc/internal/instantiate"
	"github.com/torlang/torc/internal/parser1"
)

// PipelineContext threads one compilation's state through every
// Processor. Each stage reads the fields the stages before it filled
// in and fills in its own; a stage whose precondition field is unset
// (an earlier stage already failed) is expected to no-op rather than
// panic — parser1.ModuleSet.Load is itself a recursive multi-file
// loader, so unlike the teacher's single-string PipelineContext this
// one is keyed by an entry file path rather than raw source text.
type PipelineContext struct {
	// BuildID identifies this run; internal/rpc returns it in each
	// CompileResult next to its own per-request RequestID. It is not
	// copied into diagnostics or cache rows.
	BuildID string

	Cfg      *config.Config
	Cache    *instantiate.CacheStore
	FilePath string

	ms         *parser1.ModuleSet
	RootModule *ast1.Module
	A1         map[string]*ast1.Module
	RootUname  string

	A2 map[string]*ast2.Module
	A3 map[string]*ast3.Module

	Diags []*diagnostics.Diagnostic
}

// NewPipelineContext seeds a run against an entry source file.
func NewPipelineContext(cfg *config.Config, cache *instantiate.CacheStore, filePath string) *PipelineContext {
	return &PipelineContext{
		BuildID:  uuid.NewString(),
		Cfg:      cfg,
		Cache:    cache,
		FilePath: filePath,
	}
}

func (c *PipelineContext) AddDiags(ds []*diagnostics.Diagnostic) {
	c.Diags = append(c.Diags, ds...)
}

func (c *PipelineContext) HasErrors() bool {
	return diagnostics.HasErrors(c.Diags)
}

// Processor is one pipeline stage.
type Processor interface {
	Process(ctx *PipelineContext) *PipelineContext
}

// Pipeline runs a fixed sequence of processors over one context.
type Pipeline struct {
	processors []Processor
}

func New(processors ...Processor) *Pipeline {
	return &Pipeline{processors: processors}
}

// Run calls every stage in order, even once a stage has appended
// errors; the instantiate, analyzer and lowering stages then return
// the context unchanged, so the run's diagnostics are those of the
// first failing stage.
func (p *Pipeline) Run(initial *PipelineContext) *PipelineContext {
	ctx := initial
	for _, proc := range p.processors {
		ctx = proc.Process(ctx)
	}
	return ctx
}
