package codegen

import (
	"fmt"

	"tinygo.org/x/go-llvm"

	"github.com/lency-lang/lency/internal/ast"
	"github.com/lency-lang/lency/internal/runtimeabi"
)

// declareBuiltinExterns pre-declares every runtimeabi.Builtins entry the
// program does not already declare for itself as an `extern fn`, so a
// call to e.g. hashmap_int_new resolves at the LLVM level even though
// internal/resolver.RegisterBuiltins only ever injected a symbol-table
// entry for it, never a syntax-tree node. Without this, genCallNamed
// would report "call to undeclared function" for any builtin the user's
// own source doesn't redeclare. User code may still write its own
// `extern fn hashmap_int_new(...) -> int;` (e.g. to document the surface
// it depends on); declareFunction's duplicate-name check is honored here
// by skipping any builtin already present in the program.
func (c *Context) declareBuiltinExterns(prog *ast.Node) error {
	declared := map[string]bool{}
	for _, d := range prog.Children {
		if d.Kind == ast.FUNCTION_DECL || d.Kind == ast.EXTERN_FUNCTION_DECL {
			if name, ok := d.Data.(string); ok {
				declared[name] = true
			}
		}
	}

	for _, sig := range runtimeabi.Builtins {
		if declared[sig.Name] {
			continue
		}
		paramTypes := make([]llvm.Type, len(sig.Params))
		for i, p := range sig.Params {
			lt, err := c.llvmType(p)
			if err != nil {
				return fmt.Errorf("codegen: builtin %q parameter %d: %w", sig.Name, i, err)
			}
			paramTypes[i] = lt
		}
		ret := sig.Ret
		if ret == nil {
			ret = ast.Void
		}
		retType, err := c.llvmType(ret)
		if err != nil {
			return fmt.Errorf("codegen: builtin %q return type: %w", sig.Name, err)
		}
		llfn := llvm.AddFunction(c.mod, sig.Name, llvm.FunctionType(retType, paramTypes, false))
		c.functionSignatures[sig.Name] = llfn
	}
	return nil
}
