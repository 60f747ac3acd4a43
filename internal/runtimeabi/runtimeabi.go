// Package runtimeabi is the single source of truth for the extern C-ABI
// surface the lency_runtime shared library (spec.md §1, §6) exports:
// one Signature table shared by internal/resolver, which registers each
// name/type in the symbol table so user code can call it without its
// own `extern fn` declaration, and by internal/codegen, which predeclares
// each as an LLVM extern function so the call actually links. Keeping
// the table in one package means the two consumers can never drift out
// of sync with each other. Grounded on
// original_source/crates/lency_sema/src/resolver/builtins.rs's
// register_builtins and the runtime/{hashmap_int,hashmap_string,convert,
// file}.c sources it names, extended with the Vec(T) length FFI
// spec.md §4.7's bounds-check intrinsic consults.
package runtimeabi

import "github.com/lency-lang/lency/internal/ast"

// Signature describes one runtime function's lency-visible type: the
// name it's called by, its parameter types in declared order, and its
// return type (ast.Void for a void function, never nil).
type Signature struct {
	Name   string
	Params []*ast.Type
	Ret    *ast.Type
}

// Builtins is the full extern FFI surface every lency program can call
// without declaring it itself.
var Builtins = []Signature{
	// int-keyed hashmap FFI.
	{"hashmap_int_new", nil, ast.Int},
	{"hashmap_int_insert", []*ast.Type{ast.Int, ast.Int, ast.Int}, ast.Void},
	{"hashmap_int_get", []*ast.Type{ast.Int, ast.Int}, ast.Int},
	{"hashmap_int_contains", []*ast.Type{ast.Int, ast.Int}, ast.Bool},
	{"hashmap_int_remove", []*ast.Type{ast.Int, ast.Int}, ast.Bool},
	{"hashmap_int_len", []*ast.Type{ast.Int}, ast.Int},

	// string-keyed hashmap FFI (original_source/.../runtime/hashmap_string.*
	// names the same surface for String keys).
	{"hashmap_string_new", nil, ast.Int},
	{"hashmap_string_insert", []*ast.Type{ast.Int, ast.String, ast.Int}, ast.Void},
	{"hashmap_string_get", []*ast.Type{ast.Int, ast.String}, ast.Int},
	{"hashmap_string_contains", []*ast.Type{ast.Int, ast.String}, ast.Bool},
	{"hashmap_string_remove", []*ast.Type{ast.Int, ast.String}, ast.Bool},
	{"hashmap_string_len", []*ast.Type{ast.Int}, ast.Int},

	// type conversion FFI.
	{"int_to_string", []*ast.Type{ast.Int}, ast.String},
	{"float_to_string", []*ast.Type{ast.Float}, ast.String},
	{"parse_int", []*ast.Type{ast.String}, ast.Int},
	{"parse_float", []*ast.Type{ast.String}, ast.Float},

	// file system FFI.
	{"file_exists", []*ast.Type{ast.String}, ast.Bool},
	{"is_dir", []*ast.Type{ast.String}, ast.Bool},
	{"file_open", []*ast.Type{ast.String, ast.String}, ast.Int},
	{"file_close", []*ast.Type{ast.Int}, ast.Void},
	{"file_read_all", []*ast.Type{ast.Int}, ast.String},
	{"file_write", []*ast.Type{ast.Int, ast.String}, ast.Int},

	// vec length, used by the bounds-check intrinsic (§4.7) for Vec(T)
	// and by Vec(T).len() codegen; vec_new/vec_push/vec_get are the
	// construction/access half of the same opaque-handle contract but
	// are never called directly by user source (only synthesized by
	// internal/codegen's Vec literal/push lowering), so they stay
	// declared in internal/codegen/runtime.go instead of here.
	{"vec_len", []*ast.Type{ast.Int}, ast.Int},
}

// Lookup finds a builtin signature by name.
func Lookup(name string) (Signature, bool) {
	for _, s := range Builtins {
		if s.Name == name {
			return s, true
		}
	}
	return Signature{}, false
}
