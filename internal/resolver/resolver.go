// Package resolver implements the two-pass name/type resolver of spec.md
// §4.3: pass 1 collects top-level declarations and import graphs, pass 2
// walks bodies resolving identifier and type references against the
// scope table built by pass 1. Grounded on the original semantic
// analysis crate's resolver (mod.rs, decl_impl/{function,mod,types}.rs,
// imports.rs, builtins.rs).
package resolver

import (
	"fmt"

	"github.com/lency-lang/lency/internal/ast"
	"github.com/lency-lang/lency/internal/diag"
	"github.com/lency-lang/lency/internal/scope"
)

// FileReader abstracts reading an imported source file so the resolver
// doesn't depend on os directly -- easy to fake in tests, matching the
// teacher's preference for small interfaces over direct os.* calls in
// package code (see util.ReadSource's signature in the teacher compiler).
type FileReader func(path string) (string, error)

// ParseFunc parses already-read source text into a PROGRAM node,
// supplied by internal/frontend; kept as an injected function instead of
// an import to avoid a resolver -> frontend -> ast -> resolver cycle risk
// as the two packages grow.
type ParseFunc func(src string, sink *diag.Sink) *ast.Node

// Resolver holds the mutable state threaded through both passes.
type Resolver struct {
	Table *scope.Table
	Sink  *diag.Sink

	RootDir string
	Read    FileReader
	Parse   ParseFunc

	visited map[string]bool

	// Per-declaration tables filled in by pass 1 (collectDecl).
	structFields map[string][]*ast.Node // struct name -> STRUCT_FIELD nodes
	enumVariants map[string][]*ast.Node // enum name -> variant nodes
	genericArity map[string]int         // struct/enum name -> generic parameter count

	// loadedPrograms accumulates every imported PROGRAM's declarations so
	// the driver can still walk their bodies if desired.
	loadedPrograms []*ast.Node
}

// New returns a resolver with a fresh global scope.
func New(sink *diag.Sink, rootDir string, read FileReader, parse ParseFunc) *Resolver {
	return &Resolver{
		Table:        scope.NewTable(),
		Sink:         sink,
		RootDir:      rootDir,
		Read:         read,
		Parse:        parse,
		visited:      map[string]bool{},
		structFields: map[string][]*ast.Node{},
		enumVariants: map[string][]*ast.Node{},
		genericArity: map[string]int{},
	}
}

// Resolve runs both passes over prog, mutating it and r.Table in place.
func (r *Resolver) Resolve(prog *ast.Node) {
	RegisterBuiltins(r)
	r.collectProgram(prog)
	r.resolveBodiesProgram(prog)
}

// --- Pass 1: collect ------------------------------------------------------

func (r *Resolver) collectProgram(prog *ast.Node) {
	// Imports may append synthesized declarations to prog.Children, so
	// iterate by index over a slice that can grow.
	for i := 0; i < len(prog.Children); i++ {
		d := prog.Children[i]
		extra := r.collectDecl(d)
		if len(extra) > 0 {
			prog.Children = append(prog.Children, extra...)
		}
	}
}

// collectDecl defines a symbol for d at global scope (or registers
// fields/variants/methods), returning any synthesized declarations an
// import produced that must also be collected.
func (r *Resolver) collectDecl(d *ast.Node) []*ast.Node {
	switch d.Kind {
	case ast.FUNCTION_DECL, ast.EXTERN_FUNCTION_DECL:
		name, _ := d.Data.(string)
		r.define(name, d)
	case ast.STRUCT_DECL:
		name, _ := d.Data.(string)
		r.define(name, d)
		genNames := map[string]bool{}
		for _, c := range d.Children {
			if c.Kind == ast.GENERIC_PARAM {
				pname, _ := c.Data.(string)
				genNames[pname] = true
			}
		}
		var fields []*ast.Node
		for _, c := range d.Children {
			if c.Kind == ast.STRUCT_FIELD {
				// The parser can't distinguish a generic parameter
				// reference (`T`) from an ordinary nominal type name --
				// both parse as ast.NewStruct(name) -- so rebind field
				// types against this struct's own generic parameter list
				// now that it's known.
				c.ResolvedType = bindGenericParams(c.ResolvedType, genNames)
				fields = append(fields, c)
			}
		}
		r.structFields[name] = fields
		r.genericArity[name] = len(genNames)
	case ast.ENUM_DECL:
		name, _ := d.Data.(string)
		r.define(name, d)
		var variants []*ast.Node
		arity := 0
		for _, c := range d.Children {
			switch c.Kind {
			case ast.ENUM_VARIANT_UNIT, ast.ENUM_VARIANT_TUPLE:
				variants = append(variants, c)
			case ast.GENERIC_PARAM:
				arity++
			}
		}
		r.enumVariants[name] = variants
		r.genericArity[name] = arity
	case ast.TRAIT_DECL:
		name, _ := d.Data.(string)
		r.define(name, d)
	case ast.IMPL_DECL:
		r.collectImpl(d)
	case ast.GLOBAL_VAR_DECL:
		name, _ := d.Data.(string)
		r.define(name, d)
	case ast.IMPORT_DECL:
		path, _ := d.Data.(string)
		return r.resolveImport(path, d.Span)
	case ast.IMPORT_AS_DECL:
		info, _ := d.Data.(struct {
			Path  string
			Alias string
		})
		return r.resolveImportAs(info.Path, info.Alias, d.Span)
	}
	return nil
}

// collectImpl registers every method of an impl block under the mangled
// name `TypeName_methodName`, per spec.md §4.3.
func (r *Resolver) collectImpl(d *ast.Node) {
	info, _ := d.Data.(struct {
		Target string
		Trait  string
	})
	for _, m := range d.Children {
		if m.Kind != ast.FUNCTION_DECL {
			continue
		}
		mname, _ := m.Data.(string)
		mangled := fmt.Sprintf("%s_%s", info.Target, mname)
		r.define(mangled, m)
	}
}

func (r *Resolver) define(name string, node *ast.Node) {
	sym := &scope.Symbol{Name: name, Span: node.Span, Node: node}
	if _, err := r.Table.Define(0, sym); err != nil {
		r.Sink.Add(diag.Errorf(node.Span, "%s", err.Error()))
	}
}

// --- Pass 2: resolve bodies -------------------------------------------

func (r *Resolver) resolveBodiesProgram(prog *ast.Node) {
	for _, d := range prog.Children {
		r.resolveDeclBody(d)
	}
}

func (r *Resolver) resolveDeclBody(d *ast.Node) {
	switch d.Kind {
	case ast.FUNCTION_DECL:
		r.resolveFunctionBody(d, "")
	case ast.IMPL_DECL:
		info, _ := d.Data.(struct {
			Target string
			Trait  string
		})
		for _, m := range d.Children {
			if m.Kind == ast.FUNCTION_DECL {
				r.resolveFunctionBody(m, info.Target)
			}
		}
	case ast.GLOBAL_VAR_DECL:
		if len(d.Children) > 0 {
			r.resolveExpr(d.Children[0])
		}
	case ast.STRUCT_DECL:
		for _, f := range r.structFields[toStr(d.Data)] {
			// resolveTypeRef has no KindGenericParam case, so a bound
			// generic field type is a silent no-op here; only genuinely
			// nominal field types get validated.
			r.resolveTypeRef(f.ResolvedType, f.Span)
		}
	}
}

func toStr(v interface{}) string {
	s, _ := v.(string)
	return s
}

func (r *Resolver) resolveFunctionBody(fn *ast.Node, implTarget string) {
	fnScope := r.Table.EnterAt(scope.Function, 0)
	r.Table.SetCurrent(fnScope)
	defer func() { r.Table.SetCurrent(0) }()

	if implTarget != "" {
		r.Table.DefineCurrent(&scope.Symbol{Name: "self", Type: ast.NewStruct(implTarget)})
	}

	genNames := map[string]bool{}
	for _, c := range fn.Children {
		if c.Kind == ast.GENERIC_PARAM {
			pname, _ := c.Data.(string)
			genNames[pname] = true
		}
	}

	var body *ast.Node
	var paramTypes []*ast.Type
	for _, c := range fn.Children {
		switch c.Kind {
		case ast.GENERIC_PARAM:
			name, _ := c.Data.(string)
			r.Table.DefineCurrent(&scope.Symbol{Name: name, Type: ast.NewGenericParam(name), Node: c})
		case ast.PARAMETER:
			name, _ := c.Data.(string)
			c.ResolvedType = bindGenericParams(c.ResolvedType, genNames)
			r.resolveTypeRef(c.ResolvedType, c.Span)
			r.Table.DefineCurrent(&scope.Symbol{Name: name, Type: c.ResolvedType, Node: c})
			paramTypes = append(paramTypes, c.ResolvedType)
		case ast.BLOCK:
			body = c
		}
	}
	fn.ResolvedType = bindGenericParams(fn.ResolvedType, genNames)
	if fn.ResolvedType != nil {
		r.resolveTypeRef(fn.ResolvedType, fn.Span)
	}
	// Give the global symbol pass 1 defined for fn its Function type, so
	// call sites type-check against the declared signature.
	symName := toStr(fn.Data)
	if implTarget != "" {
		symName = implTarget + "_" + symName
	}
	if sym, ok := r.Table.LookupFrom(symName, 0); ok && sym.Node == fn {
		sym.Type = ast.NewFunction(paramTypes, fn.ResolvedType)
	}
	if body != nil {
		r.resolveBlock(body)
	}
}

func (r *Resolver) resolveBlock(b *ast.Node) {
	blockScope := r.Table.EnterAt(scope.Block, r.Table.Current())
	prev := r.Table.Current()
	r.Table.SetCurrent(blockScope)
	for _, s := range b.Children {
		r.resolveStmt(s)
	}
	r.Table.SetCurrent(prev)
}

func (r *Resolver) resolveStmt(s *ast.Node) {
	if s == nil {
		return
	}
	switch s.Kind {
	case ast.VAR_DECL_STMT:
		if len(s.Children) > 0 {
			r.resolveExpr(s.Children[0])
		}
		if s.ResolvedType != nil {
			r.resolveTypeRef(s.ResolvedType, s.Span)
		}
		name, _ := s.Data.(string)
		r.Table.DefineCurrent(&scope.Symbol{Name: name, Type: s.ResolvedType, Node: s})
	case ast.ASSIGN_STMT:
		for _, c := range s.Children {
			r.resolveExpr(c)
		}
	case ast.EXPR_STMT:
		if len(s.Children) > 0 {
			r.resolveExpr(s.Children[0])
		}
	case ast.BLOCK:
		r.resolveBlock(s)
	case ast.IF_STMT:
		r.resolveExpr(s.Children[0])
		r.resolveBlock(s.Children[1])
		if len(s.Children) > 2 {
			if s.Children[2].Kind == ast.BLOCK {
				r.resolveBlock(s.Children[2])
			} else {
				r.resolveStmt(s.Children[2])
			}
		}
	case ast.WHILE_STMT:
		r.resolveExpr(s.Children[0])
		r.resolveBlock(s.Children[1])
	case ast.FOR_STMT:
		loopScope := r.Table.EnterAt(scope.Block, r.Table.Current())
		prev := r.Table.Current()
		r.Table.SetCurrent(loopScope)
		r.resolveStmt(s.Children[0])
		if s.Children[1] != nil {
			r.resolveExpr(s.Children[1])
		}
		r.resolveStmt(s.Children[2])
		r.resolveBlock(s.Children[3])
		r.Table.SetCurrent(prev)
	case ast.FOR_IN_STMT:
		r.resolveExpr(s.Children[0])
		loopScope := r.Table.EnterAt(scope.Block, r.Table.Current())
		prev := r.Table.Current()
		r.Table.SetCurrent(loopScope)
		name, _ := s.Data.(string)
		sym := &scope.Symbol{Name: name, Node: s}
		r.Table.DefineCurrent(sym)
		// Stash the bound variable's own symbol on the statement node --
		// internal/types.Checker isn't positioned at loopScope when it
		// later fills in the element type (it never re-enters scopes the
		// way this resolver pass does), so it can't find sym again by
		// name through the table. Mirrors how IDENTIFIER nodes carry
		// their resolved Symbol directly.
		s.Symbol = sym
		r.resolveBlock(s.Children[1])
		r.Table.SetCurrent(prev)
	case ast.RETURN_STMT:
		if len(s.Children) > 0 {
			r.resolveExpr(s.Children[0])
		}
	}
}

func (r *Resolver) resolveExpr(e *ast.Node) {
	if e == nil {
		return
	}
	switch e.Kind {
	case ast.IDENTIFIER:
		name, _ := e.Data.(string)
		if sym, ok := r.Table.Lookup(name); ok {
			e.Symbol = sym
		} else {
			r.Sink.Add(diag.Errorf(e.Span, "undefined variable %q", name))
			e.ResolvedType = ast.ErrType
		}
	case ast.MATCH_EXPR:
		for i, c := range e.Children {
			if i == 0 {
				r.resolveExpr(c)
				continue
			}
			armScope := r.Table.EnterAt(scope.Match, r.Table.Current())
			prev := r.Table.Current()
			r.Table.SetCurrent(armScope)
			r.resolveExpr(c.Children[0])
			r.Table.SetCurrent(prev)
		}
	case ast.CLOSURE_EXPR:
		closureScope := r.Table.EnterAt(scope.Function, r.Table.Current())
		prev := r.Table.Current()
		r.Table.SetCurrent(closureScope)
		for _, c := range e.Children {
			if c.Kind == ast.PARAMETER {
				name, _ := c.Data.(string)
				r.Table.DefineCurrent(&scope.Symbol{Name: name, Type: c.ResolvedType, Node: c})
			} else if c.Kind == ast.BLOCK {
				r.resolveBlock(c)
			}
		}
		r.Table.SetCurrent(prev)
	default:
		for _, c := range e.Children {
			r.resolveExpr(c)
		}
	}
}

// resolveTypeRef validates a nominal type reference: name exists, generic
// arity matches, and recurses into Nullable/Vec/Array/Result/Function
// inner types, per spec.md §4.3.
func (r *Resolver) resolveTypeRef(t *ast.Type, span ast.Span) {
	if t == nil {
		return
	}
	switch t.Kind {
	case ast.KindNullable, ast.KindVec:
		r.resolveTypeRef(t.Elem, span)
	case ast.KindArray:
		r.resolveTypeRef(t.Elem, span)
	case ast.KindResult:
		r.resolveTypeRef(t.Ok, span)
		r.resolveTypeRef(t.Err, span)
	case ast.KindFunction:
		for _, p := range t.Args {
			r.resolveTypeRef(p, span)
		}
		r.resolveTypeRef(t.Return, span)
	case ast.KindStruct, ast.KindEnum:
		if _, ok := r.Table.LookupFrom(t.Name, 0); !ok {
			r.Sink.Add(diag.Errorf(span, "use of undefined type %q", t.Name))
			return
		}
	case ast.KindGeneric:
		sym, ok := r.Table.LookupFrom(t.Name, 0)
		if !ok {
			r.Sink.Add(diag.Errorf(span, "use of undefined type %q", t.Name))
			return
		}
		if sym.Node == nil || (sym.Node.Kind != ast.STRUCT_DECL && sym.Node.Kind != ast.ENUM_DECL) {
			r.Sink.Add(diag.Errorf(span, "%q is not a generic type", t.Name))
			return
		}
		if want := r.genericArity[t.Name]; want != len(t.Args) {
			r.Sink.Add(diag.Errorf(span, "type %q expects %d generic argument(s), found %d", t.Name, want, len(t.Args)))
		}
		for _, a := range t.Args {
			r.resolveTypeRef(a, span)
		}
	}
}
