package mono

import (
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"

	"github.com/lency-lang/lency/internal/ast"
)

// Mangle produces the deterministic symbol name of spec.md §4.6's table:
// primitives mangle to their keyword, nominal types to their bare name,
// and every structural type recurses through its element types joined by
// "__"/"_". Ported near-literally from the original monomorphizer's
// mangle_type/mangle_type_internal, substituting hash/fnv for the Rust
// DefaultHasher the over-32-char truncation path hashes with (see
// DESIGN.md: no pack dependency offers an equivalent non-cryptographic
// string hash, so this one piece stays stdlib).
func Mangle(ty *ast.Type) string {
	full := mangleInternal(ty)
	if len(full) <= 32 {
		return full
	}

	// macOS ld64 (and several other linkers) impose strict symbol-name
	// length limits. An aggressive 32-char threshold with a 16-char
	// prefix keeps the mangled name short while leaving room for a
	// surrounding method name at the call site.
	h := fnv.New64a()
	_, _ = h.Write([]byte(full))
	prefix := full
	if len(prefix) > 16 {
		prefix = prefix[:16]
	}
	return fmt.Sprintf("%s_%x", prefix, h.Sum64())
}

func mangleInternal(ty *ast.Type) string {
	if ty == nil {
		return "void"
	}
	switch ty.Kind {
	case ast.KindInt:
		return "int"
	case ast.KindFloat:
		return "float"
	case ast.KindBool:
		return "bool"
	case ast.KindString:
		return "string"
	case ast.KindVoid:
		return "void"
	case ast.KindError:
		return "Error"

	case ast.KindStruct, ast.KindEnum:
		return ty.Name

	case ast.KindGenericParam:
		// Only reached mid-specialization, before substitution has run;
		// mangles to its own name like any other nominal type.
		return ty.Name

	case ast.KindGeneric:
		args := make([]string, len(ty.Args))
		for i, a := range ty.Args {
			args[i] = Mangle(a)
		}
		return ty.Name + "__" + strings.Join(args, "_")

	case ast.KindVec:
		return "Vec__" + Mangle(ty.Elem)

	case ast.KindArray:
		return "Array__" + Mangle(ty.Elem) + "__" + strconv.Itoa(ty.Size)

	case ast.KindNullable:
		return Mangle(ty.Elem) + "__opt"

	case ast.KindResult:
		return "Result__" + Mangle(ty.Ok) + "_" + Mangle(ty.Err)

	case ast.KindFunction:
		params := make([]string, len(ty.Args))
		for i, a := range ty.Args {
			params[i] = Mangle(a)
		}
		return "Fn__" + Mangle(ty.Return) + "_" + strings.Join(params, "_")

	default:
		return "?"
	}
}
