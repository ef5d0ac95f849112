// Package lower implements A3 lowering (spec.md §4.6): it turns every
// analyzed ast2.Module into an ast3.Module ready for code generation,
// hoisting side-effecting sub-expressions ahead of the statement that
// uses them, unrolling literal_data into MEMSET-plus-fills, decaying
// short-circuit/ternary operators and compound assignments into
// explicit control flow, replacing break, continue and fall with jumps
// to numbered labels, and duplicating deferred calls ahead of every
// exit from their scope (returns stay plain returns). Grounded on original_source/code/ast3.h's A3Gen driver
// class: the same statBuf/scopes/jmpScopes/jmpWhiles bookkeeping,
// re-expressed as a Go struct instead of a C++ class with private
// members.
package lower

import (
	"github.com/torlang/torc/internal/ast2"
	"github.com/torlang/torc/internal/ast3"
	"github.com/torlang/torc/internal/config"
	"github.com/torlang/torc/internal/diagnostics"
	"github.com/torlang/torc/internal/token"
	"github.com/torlang/torc/internal/typesystem"
)

// jumpTarget names the label a break/continue inside a loop or switch
// must resolve to, and the defer-stack depth active when the loop or
// switch was entered (spec.md §4.6: break/continue must re-run every
// scope's defers between the jump and that depth, not just its own).
type jumpTarget struct {
	breakLabel    int
	continueLabel int // -1 inside a switch: continue skips it
	depth         int
}

// Gen holds the state shared across one lowering run.
type Gen struct {
	Cfg *config.Config

	In  map[string]*ast2.Module
	Out map[string]*ast3.Module

	Diags []*diagnostics.Diagnostic

	typeCache map[*typesystem.Type]*ast3.Type
	declUid   map[*ast2.Decl]int64
	nextUid   int64
	labelSeq  int

	// statBuf accumulates pre-statements hoisted out of the expression
	// currently being lowered (spec.md §4.6 "pre-statement buffer"):
	// every statement-lowering entry point drains it immediately after
	// lowering its own expressions, so nothing leaks across statement
	// boundaries.
	statBuf []*ast3.Stmt

	jumps     []jumpTarget   // stack of enclosing loop/switch targets
	defers    [][]*ast2.Expr // stack of defer lists, innermost scope last
	fallLabel int            // label the current switch case's `fall` statement jumps to
	curFile   string

	// retDest is the current function's synthetic `$ret` destination
	// parameter when it was rewritten to write an array result through
	// a trailing pointer (spec.md §4.6); nil otherwise.
	retDest *ast3.Expr
}

// New seeds a lowering run from the analyzer's output.
func New(cfg *config.Config, in map[string]*ast2.Module) *Gen {
	return &Gen{
		Cfg:       cfg,
		In:        in,
		Out:       make(map[string]*ast3.Module),
		typeCache: make(map[*typesystem.Type]*ast3.Type),
		declUid:   make(map[*ast2.Decl]int64),
	}
}

// Run lowers every module. Module order does not affect correctness —
// cross-module references were already resolved to *ast2.Decl
// pointers by the analyzer — but traversal is still made deterministic
// (modules visited in sorted uname order) so Uid and label assignment
// is reproducible across runs with identical input.
func (g *Gen) Run() map[string]*ast3.Module {
	unames := make([]string, 0, len(g.In))
	for u := range g.In {
		unames = append(unames, u)
	}
	insertionSort(unames)
	for _, u := range unames {
		g.lowerModule(g.In[u])
	}
	return g.Out
}

func insertionSort(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j] < s[j-1]; j-- {
			s[j], s[j-1] = s[j-1], s[j]
		}
	}
}

func (g *Gen) uid(d *ast2.Decl) int64 {
	if d == nil {
		g.nextUid++
		return g.nextUid
	}
	if u, ok := g.declUid[d]; ok {
		return u
	}
	g.nextUid++
	g.declUid[d] = g.nextUid
	return g.nextUid
}

func (g *Gen) newLabel() int {
	g.labelSeq++
	return g.labelSeq
}

// genTempName manufactures a source-unrepresentable local name so a
// hoisted temporary can never collide with a user identifier (spec.md
// §4.6 "temp-variable naming"); `$` cannot appear in the surface
// grammar's identifier token.
func (g *Gen) genTempName() string {
	g.labelSeq++
	return "$t" + itoa(g.labelSeq)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

func (g *Gen) errorf(code string, tok token.Token, format string, args ...interface{}) {
	d := diagnostics.Newf(code, tok, format, args...)
	d.File = g.curFile
	g.Diags = append(g.Diags, d)
}

func (g *Gen) emit(s *ast3.Stmt) {
	g.statBuf = append(g.statBuf, s)
}

// flush drains the pre-statement buffer accumulated while lowering the
// expressions of one statement, returning them to be spliced in ahead
// of that statement.
func (g *Gen) flush() []*ast3.Stmt {
	out := g.statBuf
	g.statBuf = nil
	return out
}
