// Package codegen implements the IR emitter of spec.md §4.7: it walks the
// resolved, type-checked, null-safety-checked, monomorphized syntax tree
// and emits LLVM IR through tinygo.org/x/go-llvm, following the same
// two-sub-pass (declare signatures, then generate bodies) discipline and
// scope-stack variable storage as the teacher's own LLVM transform pass,
// generalized from its small arithmetic-and-print language to lency's
// structs, generics (consulting internal/mono's specializations),
// nullable types, Result/match, and closures.
package codegen

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"tinygo.org/x/go-llvm"

	"github.com/lency-lang/lency/internal/ast"
	"github.com/lency-lang/lency/internal/diag"
	"github.com/lency-lang/lency/internal/mono"
)

// Options mirrors the teacher's util.Options threading one configuration
// struct through the whole pipeline, trimmed to the fields the emitter
// itself consults; internal/driver owns the rest (source path, output
// path, CLI flags).
type Options struct {
	ModuleName string
	Threads    int
	TargetArch Arch
	Verbose    bool
}

// Arch names a target architecture, mirroring util.Options.TargetArch's
// int-enum shape in the teacher.
type Arch int

const (
	UnknownArch Arch = iota
	X86_64
	Aarch64
	Riscv64
	Riscv32
)

// reservedFunctionNames cannot be declared by user code; they collide
// with the synthesized entry point or injected runtime symbols. Grounded
// on transform.go's reservedFunctionNames.
// "main" itself is not reserved: it is the expected name of the user's
// entry-point function, which mangledFuncName renames to __lency_main at
// declaration time so the synthesized C-ABI `main` in entry.go owns the
// "main" symbol instead.
var reservedFunctionNames = map[string]bool{
	"__lency_main":         true,
	"printf":               true,
	"exit":                 true,
	"malloc":               true,
	"strlen":               true,
	"strcpy":               true,
	"strcat":               true,
	"strcmp":               true,
	"vec_new":              true,
	"vec_push":             true,
	"vec_get":              true,
	"__null_check_panic":   true,
	"__bounds_check_panic": true,
}

// funcJob pairs a FUNCTION_DECL node with the struct name of the impl
// block it belongs to (empty for free functions), since the mangled
// symbol name and the `this` parameter both depend on it and nothing on
// the node itself records its enclosing impl after declareFunction runs.
type funcJob struct {
	node       *ast.Node
	implTarget string
}

// Context is spec.md §5's CodegenContext: it owns the LLVM context/module
// and every mutable map later emission steps consult, plus the current
// builder insertion position implicit in the active llvm.Builder.
type Context struct {
	Opt Options
	Sink *diag.Sink
	Mono *mono.Monomorphizer

	llctx llvm.Context
	mod   llvm.Module

	intTy   llvm.Type // i64, or i32 on riscv32 per the teacher's narrowing.
	floatTy llvm.Type // f64, or f32 on riscv32.

	structTypes      map[string]llvm.Type    // struct name -> named aggregate.
	structFieldTypes map[string][]*ast.Type  // struct name -> declared field source types, in order.
	structFieldIndex map[string]map[string]int
	enumTypes        map[string]llvm.Type // every enum lowers to the tag's integer type (i32).
	enumVariantTag   map[string]map[string]int

	functionSignatures map[string]llvm.Value // mangled name -> declared llvm function.
	functionSource     map[string]*ast.Node   // mangled name -> FUNCTION_DECL/method node, for the generate pass.
	globalVarTypes     map[string]*ast.Type
	globals            map[string]llvm.Value // global variable name -> llvm global.

	closureCounter int
	closureMu      sync.Mutex

	runtime *runtimeDecls
}

// NewContext builds a Context around a fresh LLVM context and module
// named after src, mirroring GenLLVM's ctx/module construction.
func NewContext(opt Options, src string, sink *diag.Sink, m *mono.Monomorphizer) *Context {
	c := &Context{
		Opt:  opt,
		Sink: sink,
		Mono: m,

		structTypes:        map[string]llvm.Type{},
		structFieldTypes:   map[string][]*ast.Type{},
		structFieldIndex:   map[string]map[string]int{},
		enumTypes:          map[string]llvm.Type{},
		enumVariantTag:     map[string]map[string]int{},
		functionSignatures: map[string]llvm.Value{},
		functionSource:     map[string]*ast.Node{},
		globalVarTypes:     map[string]*ast.Type{},
		globals:            map[string]llvm.Value{},
	}
	c.llctx = llvm.NewContext()
	c.mod = c.llctx.NewModule(filepath.Base(src))
	c.intTy = c.llctx.Int64Type()
	c.floatTy = c.llctx.DoubleType()
	if opt.TargetArch == Riscv32 {
		c.intTy = c.llctx.Int32Type()
		c.floatTy = c.llctx.FloatType()
	}
	return c
}

// Dispose releases the LLVM context and everything it owns (module,
// functions, basic blocks, types) -- per spec.md §5 "Releasing the
// context releases all of them."
func (c *Context) Dispose() {
	c.mod.Dispose()
	c.llctx.Dispose()
}

// Module exposes the underlying LLVM module, e.g. for internal/driver to
// call m.String() or write a textual .ll file.
func (c *Context) Module() llvm.Module { return c.mod }

// Emit runs the full two-pass emission over prog (whose Children already
// include internal/mono's specialized declarations, appended by
// Monomorphizer.Specialize), synthesizes the entry point, and verifies
// the resulting module. Grounded on GenLLVM's overall shape, generalized
// to lency's declaration kinds and to an injected runtime instead of the
// teacher's three hand-picked externs (printf/atoi/atof).
func (c *Context) Emit(prog *ast.Node) error {
	if prog == nil {
		return errors.New("syntax tree root is <nil>")
	}
	c.runtime = declareRuntime(c)
	if err := c.declareBuiltinExterns(prog); err != nil {
		return err
	}

	c.registerTypeDecls(prog)

	var funcs []funcJob
	for _, d := range prog.Children {
		switch d.Kind {
		case ast.STRUCT_DECL, ast.ENUM_DECL, ast.IMPORT_DECL, ast.IMPORT_AS_DECL, ast.TRAIT_DECL:
			continue
		case ast.GLOBAL_VAR_DECL:
			if err := c.declareGlobal(d); err != nil {
				return err
			}
		case ast.FUNCTION_DECL, ast.EXTERN_FUNCTION_DECL:
			if _, err := c.declareFunction(d, ""); err != nil {
				return err
			}
			if d.Kind == ast.FUNCTION_DECL {
				funcs = append(funcs, funcJob{node: d, implTarget: ""})
			}
		case ast.IMPL_DECL:
			info, _ := d.Data.(struct {
				Target string
				Trait  string
			})
			for _, m := range d.Children {
				if m.Kind != ast.FUNCTION_DECL {
					continue
				}
				if _, err := c.declareFunction(m, info.Target); err != nil {
					return err
				}
				funcs = append(funcs, funcJob{node: m, implTarget: info.Target})
			}
		}
	}

	if c.Opt.Threads > 1 && len(funcs) > 1 {
		if err := c.generateFunctionBodiesParallel(funcs); err != nil {
			return err
		}
	} else {
		b := c.llctx.NewBuilder()
		defer b.Dispose()
		for _, job := range funcs {
			if err := c.generateFunctionBody(b, job.node, job.implTarget); err != nil {
				return err
			}
		}
	}

	if err := c.genEntryPoint(); err != nil {
		return err
	}

	if c.Opt.Verbose {
		fmt.Println("LLVM IR:")
		c.mod.Dump()
	}

	if err := llvm.VerifyModule(c.mod, llvm.ReturnStatusAction); err != nil {
		return fmt.Errorf("codegen: module verification failed (internal compiler error, please report): %w", err)
	}
	return nil
}

// generateFunctionBodiesParallel shards funcs across Threads goroutines,
// each with its own llvm.Builder, mirroring GenLLVM's parallel path --
// "give each thread its own builder, else there will be multiple threads
// writing different functions, interchanging basic blocks concurrently."
// Worker failures are funneled through a diag.Collector rather than an ad
// hoc error channel, so they land in c.Sink alongside every other stage's
// diagnostics instead of only ever reaching the caller as an opaque error.
func (c *Context) generateFunctionBodiesParallel(funcs []funcJob) error {
	t := c.Opt.Threads
	if t > len(funcs) {
		t = len(funcs)
	}
	n := len(funcs) / t
	res := len(funcs) % t

	var wg sync.WaitGroup
	collector := diag.NewCollector(len(funcs))
	start := 0
	for i := 0; i < t; i++ {
		end := start + n
		if i < res {
			end++
		}
		wg.Add(1)
		go func(shard []funcJob) {
			defer wg.Done()
			b := c.llctx.NewBuilder()
			defer b.Dispose()
			for _, job := range shard {
				if err := c.generateFunctionBody(b, job.node, job.implTarget); err != nil {
					collector.Append(diag.Errorf(job.node.Span, "codegen: %s", err))
				}
			}
		}(funcs[start:end])
		start = end
	}
	wg.Wait()
	collector.Stop()

	errs := collector.Sink()
	if errs.Len() == 0 {
		return nil
	}
	c.Sink.Merge(errs)
	return fmt.Errorf("codegen: %d error(s) during parallel function body generation, first: %s", errs.Len(), errs.Diagnostics()[0].Message)
}
