// Package driver implements spec.md §4.8/§5's pipeline orchestration: it
// threads one source file through parse, resolve, type-check,
// null-safety-check, monomorphize and emit in strict phase order, halting
// between stages the moment a stage leaves error-level diagnostics in the
// shared sink ("the driver does *not* invoke the next stage"). Grounded
// on the original driver's own straight-line `parse -> analyze ->
// compile_to_ir` shape, generalized from its three-stage pipeline to
// lency's five semantic stages, and on the teacher's own `run(opt)` for
// the one-Options-struct-threaded-everywhere convention and the
// read-source, early-return-on-error sequencing.
package driver

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/lency-lang/lency/internal/ast"
	"github.com/lency-lang/lency/internal/codegen"
	"github.com/lency-lang/lency/internal/diag"
	"github.com/lency-lang/lency/internal/frontend"
	"github.com/lency-lang/lency/internal/mono"
	"github.com/lency-lang/lency/internal/nullsafe"
	"github.com/lency-lang/lency/internal/resolver"
	"github.com/lency-lang/lency/internal/types"
)

// Options is the one configuration struct threaded through every stage
// and subcommand, mirroring the teacher's util.Options.
type Options struct {
	Src        string       // path to the .lcy source file.
	Out        string       // path to the output file (compile: .ll, build: executable).
	TargetArch codegen.Arch // output target architecture.
	Threads    int          // codegen worker thread count.
	Verbose    bool         // dump the syntax tree / LLVM IR to stdout.
	Color      bool         // colour diagnostic output (§4.1's "plain and coloured mode").
}

// Result is the outcome of running the semantic pipeline, with or without
// the final emit stage. Sink is always populated; Prog/Mono/IR are only
// valid as far as the pipeline got before halting.
type Result struct {
	Sink *diag.Sink
	Prog *ast.Node
	Mono *mono.Monomorphizer
	IR   string
}

// readFile adapts os.ReadFile to resolver.FileReader, used both for the
// entry source file and for every transitively imported one.
func readFile(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// runSemanticPipeline runs every stage through monomorphization,
// returning as soon as any stage leaves an error-level diagnostic in the
// sink, per spec.md §4.8.
func runSemanticPipeline(opt Options) (*Result, error) {
	src, err := readFile(opt.Src)
	if err != nil {
		return nil, fmt.Errorf("driver: could not read source file: %w", err)
	}

	sink := diag.NewSink()
	res := &Result{Sink: sink}

	prog := frontend.Parse(src, sink)
	if sink.HasErrors() {
		return res, nil
	}
	res.Prog = prog

	rootDir := filepath.Dir(opt.Src)
	r := resolver.New(sink, rootDir, readFile, frontend.Parse)
	r.Resolve(prog)
	if sink.HasErrors() {
		return res, nil
	}

	tc := types.NewChecker(r.Table, sink)
	tc.CheckProgram(prog)
	if sink.HasErrors() {
		return res, nil
	}

	nc := nullsafe.NewChecker(r.Table, sink)
	nc.CheckProgram(prog)
	if sink.HasErrors() {
		return res, nil
	}

	m := mono.New(sink)
	if err := m.Specialize(prog); err != nil {
		// Fatal per spec.md §4.8: a generic-arity miscount would crash
		// monomorphization, so this is reported as a plain error rather
		// than routed through the diagnostic sink.
		return res, fmt.Errorf("driver: %w", err)
	}
	res.Mono = m
	if sink.HasErrors() {
		return res, nil
	}

	if opt.Verbose {
		fmt.Println("Syntax tree:")
		prog.Print(0)
	}

	return res, nil
}

// Check runs the full semantic pipeline and returns its diagnostics
// without emitting any output, per §6's `check <input>`.
func Check(opt Options) (*Result, error) {
	return runSemanticPipeline(opt)
}

// Compile runs the full pipeline through IR emission, per §6's
// `compile <input> [-o out.ll]`. Result.IR is only populated when Sink
// has no errors.
func Compile(opt Options) (*Result, error) {
	res, err := runSemanticPipeline(opt)
	if err != nil {
		return res, err
	}
	if res.Sink.HasErrors() || res.Prog == nil {
		return res, nil
	}

	c := codegen.NewContext(codegen.Options{
		ModuleName: filepath.Base(opt.Src),
		Threads:    opt.Threads,
		TargetArch: opt.TargetArch,
		Verbose:    opt.Verbose,
	}, opt.Src, res.Sink, res.Mono)
	defer c.Dispose()

	if err := c.Emit(res.Prog); err != nil {
		return res, fmt.Errorf("driver: %w", err)
	}
	res.IR = c.Module().String()
	return res, nil
}
