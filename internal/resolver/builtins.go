package resolver

import (
	"github.com/lency-lang/lency/internal/ast"
	"github.com/lency-lang/lency/internal/runtimeabi"
	"github.com/lency-lang/lency/internal/scope"
)

// RegisterBuiltins installs the extern FFI functions the runtime C-ABI
// library (spec.md §1, §6) provides, so user code can call them without
// an explicit `extern fn` declaration. The signatures themselves live in
// internal/runtimeabi, shared with internal/codegen's own extern
// declarations (internal/codegen/builtins.go), so the two can never
// drift apart.
func RegisterBuiltins(r *Resolver) {
	for _, sig := range runtimeabi.Builtins {
		r.Table.Define(0, &scope.Symbol{
			Name: sig.Name,
			Type: ast.NewFunction(sig.Params, sig.Ret),
		})
	}
}
