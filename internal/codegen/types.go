package codegen

import (
	"fmt"

	"tinygo.org/x/go-llvm"

	"github.com/lency-lang/lency/internal/ast"
	"github.com/lency-lang/lency/internal/mono"
)

// llvmType maps a source Type to its LLVM representation per spec.md
// §4.7's table. Struct/enum types must already be registered via
// registerTypeDecls.
func (c *Context) llvmType(t *ast.Type) (llvm.Type, error) {
	if t == nil {
		return c.llctx.VoidType(), nil
	}
	switch t.Kind {
	case ast.KindInt:
		return c.intTy, nil
	case ast.KindFloat:
		return c.floatTy, nil
	case ast.KindBool:
		return c.llctx.Int1Type(), nil
	case ast.KindString:
		return llvm.PointerType(c.llctx.Int8Type(), 0), nil
	case ast.KindVoid:
		return c.llctx.VoidType(), nil
	case ast.KindError:
		// The poison type never reaches emission in a diagnostic-free
		// program; represented as an opaque pointer so a stray reference
		// still produces valid (if meaningless) IR rather than a panic.
		return llvm.PointerType(c.llctx.Int8Type(), 0), nil

	case ast.KindNullable:
		// Nullable(T) is a pointer to T uniformly: struct types are
		// already pointer-represented (see KindStruct below) so
		// Nullable(Struct) is a pointer to a pointer, matching how a
		// missing struct reference is naturally `null` at the LLVM level;
		// primitive T gets boxed behind a pointer so the same null-check
		// intrinsic works regardless of T.
		inner, err := c.llvmType(t.Elem)
		if err != nil {
			return llvm.Type{}, err
		}
		return llvm.PointerType(inner, 0), nil

	case ast.KindArray:
		elem, err := c.llvmType(t.Elem)
		if err != nil {
			return llvm.Type{}, err
		}
		return llvm.ArrayType(elem, t.Size), nil

	case ast.KindVec:
		// Vec(T) is an opaque runtime handle (an Int per
		// internal/resolver/builtins.go's hashmap/vec FFI convention: the
		// runtime hands back an integer handle, not a raw pointer).
		return c.intTy, nil

	case ast.KindStruct:
		if st, ok := c.structTypes[t.Name]; ok {
			return llvm.PointerType(st, 0), nil
		}
		return llvm.Type{}, fmt.Errorf("codegen: reference to undeclared struct %q", t.Name)

	case ast.KindEnum:
		if et, ok := c.enumTypes[t.Name]; ok {
			return et, nil
		}
		return llvm.Type{}, fmt.Errorf("codegen: reference to undeclared enum %q", t.Name)

	case ast.KindGeneric:
		// A generic type reaching the emitter unresolved means
		// internal/mono failed to specialize it; each use site should
		// already have been rewritten to the concrete mangled struct by
		// the time codegen runs.
		if st, ok := c.structTypes[mangledGenericName(t)]; ok {
			return llvm.PointerType(st, 0), nil
		}
		return llvm.Type{}, fmt.Errorf("codegen: unspecialized generic type %s reached the emitter", t.DisplayName())

	case ast.KindFunction:
		params := make([]llvm.Type, len(t.Args))
		for i, p := range t.Args {
			pt, err := c.llvmType(p)
			if err != nil {
				return llvm.Type{}, err
			}
			params[i] = pt
		}
		ret, err := c.llvmType(t.Return)
		if err != nil {
			return llvm.Type{}, err
		}
		return llvm.PointerType(llvm.FunctionType(ret, params, false), 0), nil

	case ast.KindResult:
		// Result{Ok, Err} lowers to a tagged pair: {i1 isErr, i8* payload}.
		// The payload is bitcast at access time to whichever arm's type is
		// needed; a flat two-word representation keeps try/ok/err codegen
		// uniform across all Ok/Err type combinations without a distinct
		// LLVM struct per instantiation.
		return c.llctx.StructType([]llvm.Type{
			c.llctx.Int1Type(),
			llvm.PointerType(c.llctx.Int8Type(), 0),
		}, false), nil

	default:
		return llvm.Type{}, fmt.Errorf("codegen: no LLVM representation for type kind %d", t.Kind)
	}
}

// mangledGenericName defers to internal/mono.Mangle, the single source
// of truth the Monomorphizer itself uses when registering
// specializations, so a Generic(name, args) type reaching codegen always
// resolves to the same struct the monomorphizer already emitted.
func mangledGenericName(t *ast.Type) string {
	return mono.Mangle(t)
}

// registerTypeDecls performs the struct/enum layout pass: before any
// function is declared or generated, every STRUCT_DECL (including
// internal/mono's specialized copies, already appended to prog.Children
// by the time Emit runs) becomes a named LLVM struct type, and every
// ENUM_DECL becomes an i32 tag space. Two passes over the declarations
// are needed because struct fields may reference another struct declared
// later in the source.
func (c *Context) registerTypeDecls(prog *ast.Node) {
	for _, d := range prog.Children {
		switch d.Kind {
		case ast.STRUCT_DECL:
			name, _ := d.Data.(string)
			c.structTypes[name] = c.llctx.StructCreateNamed(name)
		case ast.ENUM_DECL:
			name, _ := d.Data.(string)
			c.enumTypes[name] = c.llctx.Int32Type()
		}
	}
	for _, d := range prog.Children {
		switch d.Kind {
		case ast.STRUCT_DECL:
			c.registerStructBody(d)
		case ast.ENUM_DECL:
			c.registerEnumBody(d)
		}
	}
}

func (c *Context) registerStructBody(d *ast.Node) {
	name, _ := d.Data.(string)
	st := c.structTypes[name]

	var fieldTypes []llvm.Type
	var sourceTypes []*ast.Type
	index := map[string]int{}
	i := 0
	for _, f := range d.Children {
		if f.Kind != ast.STRUCT_FIELD {
			continue
		}
		fname, _ := f.Data.(string)
		lt, err := c.llvmType(f.ResolvedType)
		if err != nil {
			// Deferred: an undeclared-field-type reference was already
			// caught by internal/resolver; codegen substitutes the error
			// pointer representation so the struct still has the right
			// field count and later GEPs don't panic on an index
			// mismatch.
			lt = llvm.PointerType(c.llctx.Int8Type(), 0)
		}
		fieldTypes = append(fieldTypes, lt)
		sourceTypes = append(sourceTypes, f.ResolvedType)
		index[fname] = i
		i++
	}
	st.StructSetBody(fieldTypes, false)
	c.structFieldTypes[name] = sourceTypes
	c.structFieldIndex[name] = index
}

func (c *Context) registerEnumBody(d *ast.Node) {
	name, _ := d.Data.(string)
	tags := map[string]int{}
	i := 0
	for _, v := range d.Children {
		switch v.Kind {
		case ast.ENUM_VARIANT_UNIT, ast.ENUM_VARIANT_TUPLE:
			vname, _ := v.Data.(string)
			tags[vname] = i
			i++
		}
	}
	c.enumVariantTag[name] = tags
}
