package pipeline

import (
	"github.com/torlang/torc/internal/analyzer"
	"github.com/torlang/torc/internal/instantiate"
	"github.com/torlang/torc/internal/lower"
	"github.com/torlang/torc/internal/parser1"
	"github.com/torlang/torc/internal/token"
)

// ParserProcessor runs the A1 parser (spec.md §4.2) over the entry
// file and, transitively, every module it imports. Grounded on
// internal/parser/processor.go's ParserProcessor — one struct per
// stage, Process taking and returning *PipelineContext.
type ParserProcessor struct{}

func (ParserProcessor) Process(ctx *PipelineContext) *PipelineContext {
	if ctx.FilePath == "" {
		return ctx
	}
	ms := parser1.NewModuleSet(ctx.Cfg)
	root, ok := ms.Load(ctx.FilePath, token.None, ctx.FilePath)
	ctx.ms = ms
	ctx.AddDiags(ms.Diags)
	if !ok {
		return ctx
	}
	ctx.RootModule = root
	ctx.RootUname = root.Uname
	return ctx
}

// InstantiateProcessor runs A1-Ext template instantiation (spec.md
// §4.4): argument canonicalisation, the fixed-point instantiation
// loop, and struct sizing.
type InstantiateProcessor struct{}

func (InstantiateProcessor) Process(ctx *PipelineContext) *PipelineContext {
	if ctx.ms == nil || ctx.RootModule == nil || ctx.HasErrors() {
		return ctx
	}
	inst := instantiate.New(ctx.Cfg, ctx.ms, ctx.Cache)
	inst.Run()
	ctx.A1 = inst.Modules()
	ctx.AddDiags(inst.Diags)
	return ctx
}

// AnalyzerProcessor runs the A2 builder (spec.md §4.5): name binding,
// operator elaboration, call resolution.
type AnalyzerProcessor struct{}

func (AnalyzerProcessor) Process(ctx *PipelineContext) *PipelineContext {
	if ctx.A1 == nil || ctx.HasErrors() {
		return ctx
	}
	b := analyzer.New(ctx.Cfg, ctx.A1)
	ctx.A2 = b.Build()
	ctx.AddDiags(b.Diags)
	return ctx
}

// LowerProcessor runs A3 lowering (spec.md §4.6), the final stage
// before code generation.
type LowerProcessor struct{}

func (LowerProcessor) Process(ctx *PipelineContext) *PipelineContext {
	if ctx.A2 == nil || ctx.HasErrors() {
		return ctx
	}
	g := lower.New(ctx.Cfg, ctx.A2)
	ctx.A3 = g.Run()
	ctx.AddDiags(g.Diags)
	return ctx
}
