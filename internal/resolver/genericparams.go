package resolver

import "github.com/lency-lang/lency/internal/ast"

// bindGenericParams rewrites every bare nominal type reference in t whose
// name is in names into a GenericParam, recursing through
// Nullable/Vec/Array/Result/Function/Generic wrappers. The parser has no
// way to tell a generic parameter reference (`T` inside `struct Box<T> {
// value: T }`) apart from an ordinary nominal type reference at parse
// time -- both produce ast.NewStruct(name) -- so this substitution runs
// once the enclosing declaration's own generic parameter list is known,
// mirroring how the original semantic analysis crate resolves type
// parameters against their binding declaration rather than at parse time.
func bindGenericParams(t *ast.Type, names map[string]bool) *ast.Type {
	if t == nil {
		return nil
	}
	switch t.Kind {
	case ast.KindStruct:
		if names[t.Name] {
			return ast.NewGenericParam(t.Name)
		}
		return t
	case ast.KindNullable:
		return ast.NewNullable(bindGenericParams(t.Elem, names))
	case ast.KindVec:
		return ast.NewVec(bindGenericParams(t.Elem, names))
	case ast.KindArray:
		return ast.NewArray(bindGenericParams(t.Elem, names), t.Size)
	case ast.KindResult:
		return ast.NewResult(bindGenericParams(t.Ok, names), bindGenericParams(t.Err, names))
	case ast.KindFunction:
		params := make([]*ast.Type, len(t.Args))
		for i, p := range t.Args {
			params[i] = bindGenericParams(p, names)
		}
		return ast.NewFunction(params, bindGenericParams(t.Return, names))
	case ast.KindGeneric:
		args := make([]*ast.Type, len(t.Args))
		for i, a := range t.Args {
			args[i] = bindGenericParams(a, names)
		}
		return ast.NewGeneric(t.Name, args)
	default:
		return t
	}
}
