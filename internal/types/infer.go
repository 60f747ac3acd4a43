package types

import (
	"github.com/lency-lang/lency/internal/ast"
	"github.com/lency-lang/lency/internal/diag"
	"github.com/lency-lang/lency/internal/scope"
)

// Inferer is a pure, side-effect-free query: given the scope table and an
// expression node, it returns a Type (poisoning with ast.ErrType and
// recording a diagnostic on failure, never panicking), per spec.md §4.4.
// It additionally stamps the resolved type onto e.ResolvedType so later
// passes (monomorphizer, codegen) don't need to re-infer.
type Inferer struct {
	Table *scope.Table
	Sink  *diag.Sink
}

// NewInferer builds an Inferer sharing table and sink with the rest of
// the pipeline.
func NewInferer(table *scope.Table, sink *diag.Sink) *Inferer {
	return &Inferer{Table: table, Sink: sink}
}

// Infer computes e's type, memoizing into e.ResolvedType.
func (inf *Inferer) Infer(e *ast.Node) *ast.Type {
	if e == nil {
		return ast.ErrType
	}
	// CLOSURE_EXPR is special: the parser pre-populates ResolvedType with
	// the *declared return type* annotation (there being nowhere else to
	// stash it on a shared Node shape), so the memoization shortcut below
	// must not treat that annotation as an already-computed Function
	// type -- inferClosureType reads it as Return and replaces it with
	// the full Function{params, return} type.
	if e.ResolvedType != nil && e.Kind != ast.CLOSURE_EXPR {
		return e.ResolvedType
	}
	t := inf.infer(e)
	e.ResolvedType = t
	return t
}

func (inf *Inferer) infer(e *ast.Node) *ast.Type {
	switch e.Kind {
	case ast.LITERAL_INT:
		return ast.Int
	case ast.LITERAL_FLOAT:
		return ast.Float
	case ast.LITERAL_BOOL:
		return ast.Bool
	case ast.LITERAL_STRING:
		return ast.String
	case ast.LITERAL_NULL:
		// Nullable(Error): awaits contextual resolution against the
		// expected type at the assignment/argument site (§4.4).
		return ast.NewNullable(ast.ErrType)

	case ast.IDENTIFIER:
		return inf.inferIdentifier(e)

	case ast.BINARY_EXPR:
		return inf.inferBinary(e)

	case ast.UNARY_EXPR:
		return inf.inferUnary(e)

	case ast.CALL_EXPR:
		return inf.inferCall(e)

	case ast.METHOD_CALL_EXPR:
		return inf.inferMethodCall(e)

	case ast.INDEX_EXPR:
		return inf.inferIndex(e)

	case ast.FIELD_GET_EXPR:
		return inf.inferFieldGet(e)

	case ast.STRUCT_LITERAL_EXPR:
		return inf.inferStructLiteral(e)

	case ast.ARRAY_LITERAL_EXPR, ast.VEC_LITERAL_EXPR:
		return inf.inferArrayLiteral(e)

	case ast.MATCH_EXPR:
		return inf.inferMatch(e)

	case ast.TRY_EXPR:
		inner := inf.Infer(e.Children[0])
		if inner.Kind == ast.KindResult {
			return inner.Ok
		}
		inf.err(e.Span, "'try' requires a Result-typed operand, found %s", inner.DisplayName())
		return ast.ErrType

	case ast.OK_EXPR:
		return ast.NewResult(inf.Infer(e.Children[0]), ast.ErrType)
	case ast.ERR_EXPR:
		return ast.NewResult(ast.ErrType, inf.Infer(e.Children[0]))

	case ast.GENERIC_INSTANTIATION_EXPR:
		return inf.Infer(e.Children[0])

	case ast.CLOSURE_EXPR:
		return inf.inferClosureType(e)

	default:
		return ast.ErrType
	}
}

func (inf *Inferer) err(span ast.Span, format string, args ...interface{}) {
	inf.Sink.Add(diag.Errorf(span, format, args...))
}

func (inf *Inferer) inferIdentifier(e *ast.Node) *ast.Type {
	name, _ := e.Data.(string)
	if sym, ok := e.Symbol.(*scope.Symbol); ok && sym != nil {
		if ty, ok := inf.Table.EffectiveType(name, inf.Table.Current()); ok {
			return ty
		}
		if sym.Type == nil && sym.Node != nil && sym.Node.Kind == ast.VAR_DECL_STMT {
			// The resolver creates an unannotated local's symbol before its
			// type is known; the checker records the inferred type on the
			// declaring VAR_DECL_STMT node.
			return sym.Node.ResolvedType
		}
		return sym.Type
	}
	if ty, ok := inf.Table.EffectiveType(name, inf.Table.Current()); ok {
		return ty
	}
	inf.err(e.Span, "undefined variable %q", name)
	return ast.ErrType
}

func (inf *Inferer) inferBinary(e *ast.Node) *ast.Type {
	opText, _ := e.Data.(string)
	left := inf.Infer(e.Children[0])
	right := inf.Infer(e.Children[1])

	op, ok := LookupBinOp(opText)
	if !ok {
		inf.err(e.Span, "unknown binary operator %q", opText)
		return ast.ErrType
	}
	if op == OpElvis {
		return ElvisResult(left, right)
	}
	result := BinarySignature(op, left, right)
	if result == nil {
		inf.err(e.Span, "invalid operand types for %q: %s, %s", opText, left.DisplayName(), right.DisplayName())
		return ast.ErrType
	}
	return result
}

func (inf *Inferer) inferUnary(e *ast.Node) *ast.Type {
	opText, _ := e.Data.(string)
	operand := inf.Infer(e.Children[0])
	op, ok := LookupUnaryOp(opText)
	if !ok {
		inf.err(e.Span, "unknown unary operator %q", opText)
		return ast.ErrType
	}
	result := UnarySignature(op, operand)
	if result == nil {
		inf.err(e.Span, "invalid operand type for unary %q: %s", opText, operand.DisplayName())
		return ast.ErrType
	}
	return result
}

func (inf *Inferer) inferCall(e *ast.Node) *ast.Type {
	callee := e.Children[0]
	args := e.Children[1:]
	for _, a := range args {
		inf.Infer(a)
	}
	if callee.Kind != ast.IDENTIFIER {
		inf.infer(callee)
		return ast.ErrType
	}
	name, _ := callee.Data.(string)
	sym, ok := inf.Table.Lookup(name)
	if !ok {
		inf.err(callee.Span, "undefined function %q", name)
		return ast.ErrType
	}
	callee.Symbol = sym
	fnType := sym.Type
	if fnType == nil || fnType.Kind != ast.KindFunction {
		inf.err(e.Span, "%q is not callable", name)
		return ast.ErrType
	}
	inf.checkArgs(e.Span, fnType.Args, args)
	return fnType.Return
}

func (inf *Inferer) checkArgs(span ast.Span, params []*ast.Type, args []*ast.Node) {
	if len(params) != len(args) {
		inf.err(span, "expected %d argument(s), found %d", len(params), len(args))
		return
	}
	for i, p := range params {
		a := inf.Infer(args[i])
		if !Compatible(p, a) {
			inf.err(args[i].Span, "argument %d: expected %s, found %s", i+1, p.DisplayName(), a.DisplayName())
		}
	}
}

func (inf *Inferer) inferMethodCall(e *ast.Node) *ast.Type {
	fa, _ := e.Data.(*ast.FieldAccess)
	recv := e.Children[0]
	args := e.Children[1:]
	recvType := inf.Infer(recv)
	for _, a := range args {
		inf.Infer(a)
	}
	if recvType.IsError() {
		return ast.ErrType
	}
	if recvType.Kind == ast.KindVec {
		// Sugar for Vec(T) built-ins, not checked here: the runtime's Vec
		// handle surface isn't part of the user symbol table, so the call
		// is typed as the poison type.
		return ast.ErrType
	}
	if recvType.Kind != ast.KindStruct {
		inf.err(e.Span, "method call on non-struct type %s", recvType.DisplayName())
		return ast.ErrType
	}
	mangled := recvType.Name + "_" + fa.Name
	sym, ok := inf.Table.Lookup(mangled)
	if !ok {
		inf.err(e.Span, "undefined method %q on %s", fa.Name, recvType.Name)
		return ast.ErrType
	}
	if sym.Type == nil || sym.Type.Kind != ast.KindFunction {
		return ast.ErrType
	}
	inf.checkArgs(e.Span, sym.Type.Args, args)
	return sym.Type.Return
}

func (inf *Inferer) inferIndex(e *ast.Node) *ast.Type {
	base := inf.Infer(e.Children[0])
	idx := inf.Infer(e.Children[1])
	if idx.Kind != ast.KindInt && !idx.IsError() {
		inf.err(e.Children[1].Span, "index expression must be Int, found %s", idx.DisplayName())
	}
	switch base.Kind {
	case ast.KindArray, ast.KindVec:
		return base.Elem
	case ast.KindString:
		return ast.Int
	case ast.KindError:
		return ast.ErrType
	default:
		inf.err(e.Span, "cannot index into %s", base.DisplayName())
		return ast.ErrType
	}
}

func (inf *Inferer) inferFieldGet(e *ast.Node) *ast.Type {
	fa, _ := e.Data.(*ast.FieldAccess)
	recv := inf.Infer(e.Children[0])
	target := recv
	if recv.IsNullable() {
		if !fa.Safe {
			// Nullness itself is the null-safety checker's job (§4.5);
			// the inferer proceeds using the unwrapped type so a
			// downstream pass can still report useful field types.
		}
		target = recv.Unwrap()
	}
	if target.IsError() {
		return ast.ErrType
	}
	if target.Kind != ast.KindStruct {
		inf.err(e.Span, "field access on non-struct type %s", target.DisplayName())
		return ast.ErrType
	}
	sym, ok := inf.Table.Lookup(target.Name)
	if !ok || sym.Node == nil {
		return ast.ErrType
	}
	for _, f := range sym.Node.Children {
		if f.Kind == ast.STRUCT_FIELD {
			if n, _ := f.Data.(string); n == fa.Name {
				if recv.IsNullable() && fa.Safe {
					return ast.NewNullable(f.ResolvedType)
				}
				return f.ResolvedType
			}
		}
	}
	inf.err(e.Span, "undefined field %q on %s", fa.Name, target.Name)
	return ast.ErrType
}

func (inf *Inferer) inferStructLiteral(e *ast.Node) *ast.Type {
	name, _ := e.Data.(string)
	sym, ok := inf.Table.Lookup(name)
	if !ok || sym.Node == nil {
		inf.err(e.Span, "undefined struct %q", name)
		return ast.ErrType
	}
	declFields := map[string]*ast.Type{}
	for _, f := range sym.Node.Children {
		if f.Kind == ast.STRUCT_FIELD {
			fname, _ := f.Data.(string)
			declFields[fname] = f.ResolvedType
		}
	}
	provided := map[string]bool{}
	for _, c := range e.Children {
		slf, _ := c.Data.(*ast.StructLiteralField)
		if slf == nil {
			continue
		}
		provided[slf.Name] = true
		declTy, known := declFields[slf.Name]
		valTy := inf.Infer(c.Children[0])
		if !known {
			inf.err(slf.Span, "unknown field %q in struct literal %q", slf.Name, name)
			continue
		}
		if !Compatible(declTy, valTy) {
			inf.err(c.Span, "field %q: expected %s, found %s", slf.Name, declTy.DisplayName(), valTy.DisplayName())
		}
	}
	for fname := range declFields {
		if !provided[fname] {
			inf.err(e.Span, "missing field %q in struct literal %q", fname, name)
		}
	}
	return ast.NewStruct(name)
}

func (inf *Inferer) inferArrayLiteral(e *ast.Node) *ast.Type {
	if len(e.Children) == 0 {
		return ast.NewArray(ast.ErrType, 0)
	}
	var elem *ast.Type
	for _, c := range e.Children {
		ty := inf.Infer(c)
		if elem == nil {
			elem = ty
		} else if lub := LUB(elem, ty); lub != nil {
			elem = lub
		}
	}
	if e.Kind == ast.VEC_LITERAL_EXPR {
		return ast.NewVec(elem)
	}
	return ast.NewArray(elem, len(e.Children))
}

func (inf *Inferer) inferMatch(e *ast.Node) *ast.Type {
	inf.Infer(e.Children[0])
	var result *ast.Type
	for _, arm := range e.Children[1:] {
		armTy := inf.Infer(arm.Children[0])
		if result == nil {
			result = armTy
			continue
		}
		lub := LUB(result, armTy)
		if lub == nil {
			inf.err(arm.Span, "match arm type %s incompatible with prior arm type %s", armTy.DisplayName(), result.DisplayName())
			continue
		}
		result = lub
	}
	if result == nil {
		return ast.Void
	}
	return result
}

func (inf *Inferer) inferClosureType(e *ast.Node) *ast.Type {
	var params []*ast.Type
	for _, c := range e.Children {
		if c.Kind == ast.PARAMETER {
			params = append(params, c.ResolvedType)
		}
	}
	return ast.NewFunction(params, e.ResolvedType)
}
