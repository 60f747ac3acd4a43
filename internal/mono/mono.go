// Package mono implements the monomorphizer of spec.md §4.6: it walks the
// typed AST after the null-safety pass, collects every explicit generic
// instantiation site, and for each unique (generic_decl, concrete_type_args)
// pair emits one specialized copy of the declaration with every
// GenericParam(name) substituted by its concrete type argument. Grounded on
// the original monomorphizer crate (mangling.rs for the name table; its
// specializer module wasn't part of the retrieved source, so the walk/
// substitution/dedup shape below is designed from spec.md §4.6's prose
// rather than ported).
package mono

import (
	"fmt"

	"github.com/lency-lang/lency/internal/ast"
	"github.com/lency-lang/lency/internal/diag"
	"golang.org/x/exp/slices"
)

// Specialization is one concrete instantiation of a generic declaration.
type Specialization struct {
	SourceName string
	Mangled    string
	TypeArgs   []*ast.Type
	Decl       *ast.Node
}

// Monomorphizer collects generic declarations and instantiation sites and
// produces the set of specializations the emitter needs.
type Monomorphizer struct {
	Sink *diag.Sink

	// generics maps a declaration name to its generic STRUCT_DECL or
	// FUNCTION_DECL template (one that carries at least one GENERIC_PARAM
	// child).
	generics map[string]*ast.Node

	// specs dedups by mangled name: two instantiation sites with the same
	// (decl, concrete args) share one specialization.
	specs map[string]*Specialization

	// sites remembers which mangled specialization a given
	// GENERIC_INSTANTIATION_EXPR node resolved to, for the emitter to
	// consult when it reaches that call/struct-literal site.
	sites map[*ast.Node]string
}

// New builds a monomorphizer sharing sink with the rest of the pipeline.
func New(sink *diag.Sink) *Monomorphizer {
	return &Monomorphizer{
		Sink:     sink,
		generics: map[string]*ast.Node{},
		specs:    map[string]*Specialization{},
		sites:    map[*ast.Node]string{},
	}
}

// Specialize walks prog, specializing every generic instantiation site and
// appending the resulting specialized declarations to prog.Children. A
// generic-arity mismatch is fatal (spec.md §4.8: "a generic-arity miscount
// that would crash monomorphization"), returned as a plain error rather
// than routed through the diagnostic sink, since continuing would mean
// substituting against a parameter list of the wrong shape.
func (m *Monomorphizer) Specialize(prog *ast.Node) error {
	m.collectGenericDecls(prog)

	for _, d := range prog.Children {
		if err := m.walkDecl(d); err != nil {
			return err
		}
	}

	for _, name := range m.sortedSpecNames() {
		prog.Children = append(prog.Children, m.specs[name].Decl)
	}
	return nil
}

// Specializations returns every specialization produced, sorted by mangled
// name for deterministic emission order.
func (m *Monomorphizer) Specializations() []*Specialization {
	names := m.sortedSpecNames()
	out := make([]*Specialization, len(names))
	for i, n := range names {
		out[i] = m.specs[n]
	}
	return out
}

func (m *Monomorphizer) sortedSpecNames() []string {
	names := make([]string, 0, len(m.specs))
	for n := range m.specs {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// MangledNameFor reports the mangled symbol a GENERIC_INSTANTIATION_EXPR
// site resolved to, for the emitter to call/construct by that name instead
// of the unspecialized declaration.
func (m *Monomorphizer) MangledNameFor(site *ast.Node) (string, bool) {
	name, ok := m.sites[site]
	return name, ok
}

func (m *Monomorphizer) collectGenericDecls(prog *ast.Node) {
	for _, d := range prog.Children {
		switch d.Kind {
		case ast.FUNCTION_DECL, ast.STRUCT_DECL:
			if len(genericParamsOf(d)) > 0 {
				name, _ := d.Data.(string)
				m.generics[name] = d
			}
		case ast.IMPL_DECL:
			for _, meth := range d.Children {
				if meth.Kind == ast.FUNCTION_DECL && len(genericParamsOf(meth)) > 0 {
					name, _ := meth.Data.(string)
					m.generics[name] = meth
				}
			}
		}
	}
}

func genericParamsOf(decl *ast.Node) []*ast.Node {
	var out []*ast.Node
	for _, c := range decl.Children {
		if c.Kind == ast.GENERIC_PARAM {
			out = append(out, c)
		}
	}
	return out
}

func (m *Monomorphizer) walkDecl(d *ast.Node) error {
	switch d.Kind {
	case ast.FUNCTION_DECL:
		return m.walkNode(d)
	case ast.IMPL_DECL:
		for _, meth := range d.Children {
			if meth.Kind == ast.FUNCTION_DECL {
				if err := m.walkNode(meth); err != nil {
					return err
				}
			}
		}
	case ast.GLOBAL_VAR_DECL:
		return m.walkNode(d)
	}
	return nil
}

// walkNode recurses through d looking for GENERIC_INSTANTIATION_EXPR
// sites, specializing each one the first time it's seen.
func (m *Monomorphizer) walkNode(n *ast.Node) error {
	if n == nil {
		return nil
	}
	if n.Kind == ast.GENERIC_INSTANTIATION_EXPR {
		if err := m.resolveSite(n); err != nil {
			return err
		}
	}
	for _, c := range n.Children {
		if err := m.walkNode(c); err != nil {
			return err
		}
	}
	return nil
}

func (m *Monomorphizer) resolveSite(site *ast.Node) error {
	typeArgs, _ := site.Data.([]*ast.Type)
	inner := site.Children[0]

	var declName string
	switch inner.Kind {
	case ast.STRUCT_LITERAL_EXPR:
		declName, _ = inner.Data.(string)
	case ast.CALL_EXPR:
		if len(inner.Children) == 0 || inner.Children[0].Kind != ast.IDENTIFIER {
			return nil
		}
		declName, _ = inner.Children[0].Data.(string)
	default:
		return nil
	}

	decl, ok := m.generics[declName]
	if !ok {
		// Not a generic declaration (e.g. the explicit-args parse fired on
		// an ordinary call using `<`/`>` type ascription elsewhere); the
		// resolver already diagnosed an unknown name if this wasn't valid
		// source, so this is silently a no-op here.
		return nil
	}
	params := genericParamsOf(decl)
	if len(params) != len(typeArgs) {
		return fmt.Errorf("monomorphize %s: expected %d generic argument(s), found %d", declName, len(params), len(typeArgs))
	}

	genericTy := ast.NewGeneric(declName, typeArgs)
	mangled := Mangle(genericTy)

	if _, exists := m.specs[mangled]; !exists {
		subst := make(map[string]*ast.Type, len(params))
		for i, p := range params {
			pname, _ := p.Data.(string)
			subst[pname] = typeArgs[i]
		}
		specialized := specializeDecl(decl, subst, mangled)
		m.specs[mangled] = &Specialization{
			SourceName: declName,
			Mangled:    mangled,
			TypeArgs:   typeArgs,
			Decl:       specialized,
		}
	}
	m.sites[site] = mangled
	return nil
}

// specializeDecl deep-copies decl, drops its GENERIC_PARAM children (now
// bound), substitutes every GenericParam type reachable from the copy with
// subst, and renames the declaration to its mangled symbol.
func specializeDecl(decl *ast.Node, subst map[string]*ast.Type, mangled string) *ast.Node {
	clone := cloneNode(decl)
	clone.Data = mangled

	kept := clone.Children[:0]
	for _, c := range clone.Children {
		if c.Kind != ast.GENERIC_PARAM {
			kept = append(kept, c)
		}
	}
	clone.Children = kept

	substituteTypesIn(clone, subst)
	return clone
}

// substituteTypesIn rewrites every ResolvedType (and nested Generic type
// argument) reachable from n, replacing any GenericParam(name) present in
// subst with its bound concrete type.
func substituteTypesIn(n *ast.Node, subst map[string]*ast.Type) {
	if n == nil {
		return
	}
	n.ResolvedType = substituteType(n.ResolvedType, subst)
	if args, ok := n.Data.([]*ast.Type); ok {
		for i, a := range args {
			args[i] = substituteType(a, subst)
		}
	}
	for _, c := range n.Children {
		substituteTypesIn(c, subst)
	}
}

func substituteType(ty *ast.Type, subst map[string]*ast.Type) *ast.Type {
	if ty == nil {
		return nil
	}
	if ty.Kind == ast.KindGenericParam {
		if concrete, ok := subst[ty.Name]; ok {
			return concrete
		}
		return ty
	}
	clone := *ty
	clone.Elem = substituteType(ty.Elem, subst)
	clone.Return = substituteType(ty.Return, subst)
	clone.Ok = substituteType(ty.Ok, subst)
	clone.Err = substituteType(ty.Err, subst)
	if ty.Args != nil {
		clone.Args = make([]*ast.Type, len(ty.Args))
		for i, a := range ty.Args {
			clone.Args[i] = substituteType(a, subst)
		}
	}
	return &clone
}

// cloneNode deep-copies n and its entire subtree; specializations must not
// alias the generic template, since two sibling instantiations (e.g.
// Box<int> and Box<string>) each rewrite ResolvedType in place.
func cloneNode(n *ast.Node) *ast.Node {
	if n == nil {
		return nil
	}
	clone := &ast.Node{
		Kind:         n.Kind,
		Span:         n.Span,
		Data:         cloneData(n.Data),
		ResolvedType: n.ResolvedType,
		Symbol:       n.Symbol,
	}
	if n.Children != nil {
		clone.Children = make([]*ast.Node, len(n.Children))
		for i, c := range n.Children {
			clone.Children[i] = cloneNode(c)
		}
	}
	return clone
}

func cloneData(data interface{}) interface{} {
	switch v := data.(type) {
	case *ast.FieldAccess:
		cp := *v
		return &cp
	case *ast.StructLiteralField:
		cp := *v
		return &cp
	case []*ast.Type:
		cp := make([]*ast.Type, len(v))
		copy(cp, v)
		return cp
	default:
		return v
	}
}
