package codegen

import (
	"fmt"

	"tinygo.org/x/go-llvm"

	"github.com/lency-lang/lency/internal/ast"
)

// genExpr emits e and returns its LLVM value, dispatching on node kind in
// one open-coded switch -- the same shape as genExpression in the
// teacher, generalized from its four-node-kind arithmetic expression
// language to lency's full expression grammar.
func (g *genState) genExpr(e *ast.Node) (llvm.Value, error) {
	switch e.Kind {
	case ast.LITERAL_INT:
		v, _ := e.Data.(int64)
		return llvm.ConstInt(g.c.intTy, uint64(v), true), nil
	case ast.LITERAL_FLOAT:
		v, _ := e.Data.(float64)
		return llvm.ConstFloat(g.c.floatTy, v), nil
	case ast.LITERAL_BOOL:
		v, _ := e.Data.(bool)
		n := uint64(0)
		if v {
			n = 1
		}
		return llvm.ConstInt(g.c.llctx.Int1Type(), n, false), nil
	case ast.LITERAL_STRING:
		s, _ := e.Data.(string)
		return g.genStringLiteral(s), nil
	case ast.LITERAL_NULL:
		return llvm.ConstNull(llvm.PointerType(g.c.llctx.Int8Type(), 0)), nil

	case ast.IDENTIFIER:
		return g.genIdentifierLoad(e)

	case ast.BINARY_EXPR:
		return g.genBinary(e)
	case ast.UNARY_EXPR:
		return g.genUnary(e)

	case ast.CALL_EXPR:
		return g.genCall(e)
	case ast.METHOD_CALL_EXPR:
		return g.genMethodCall(e)

	case ast.INDEX_EXPR:
		return g.genIndex(e)
	case ast.FIELD_GET_EXPR:
		return g.genFieldGet(e)

	case ast.STRUCT_LITERAL_EXPR:
		return g.genStructLiteral(e)
	case ast.ARRAY_LITERAL_EXPR:
		return g.genArrayLiteral(e)
	case ast.VEC_LITERAL_EXPR:
		return g.genVecLiteral(e)

	case ast.MATCH_EXPR:
		return g.genMatch(e)

	case ast.TRY_EXPR:
		return g.genTry(e)
	case ast.OK_EXPR:
		return g.genOkErr(e, false)
	case ast.ERR_EXPR:
		return g.genOkErr(e, true)

	case ast.GENERIC_INSTANTIATION_EXPR:
		return g.genGenericInstantiation(e)

	case ast.CLOSURE_EXPR:
		return g.genClosure(e)

	default:
		return llvm.Value{}, fmt.Errorf("codegen: unsupported expression node %s", e.KindName())
	}
}

// genStringLiteral interns s as a private global constant and returns a
// pointer to its first byte, mirroring the teacher's stringPrefix-named
// global string constants in genExpression.
func (g *genState) genStringLiteral(s string) llvm.Value {
	cstr := g.c.llctx.ConstString(s, true)
	gv := llvm.AddGlobal(g.c.mod, cstr.Type(), "L_STR")
	gv.SetInitializer(cstr)
	gv.SetGlobalConstant(true)
	gv.SetLinkage(llvm.PrivateLinkage)
	i32 := g.c.llctx.Int32Type()
	return g.b.CreateInBoundsGEP(gv, []llvm.Value{llvm.ConstInt(i32, 0, false), llvm.ConstInt(i32, 0, false)}, "")
}

// genIdentifierLoad loads a local/parameter by name, falling back to a
// global variable, then to a bare function value (for a function-pointer
// reference used as a call target or closure argument).
func (g *genState) genIdentifierLoad(e *ast.Node) (llvm.Value, error) {
	name, _ := e.Data.(string)
	if slot, ok := g.lookup(name); ok {
		return g.b.CreateLoad(slot.ptr, ""), nil
	}
	if gv, ok := g.c.globals[name]; ok {
		return g.b.CreateLoad(gv, ""), nil
	}
	if fn, ok := g.c.functionSignatures[name]; ok {
		return fn, nil
	}
	return llvm.Value{}, fmt.Errorf("codegen: reference to undefined identifier %q", name)
}

// lvalueAddr resolves e to the address an assignment should store
// through, covering the three lvalue forms internal/types.isLvalue
// accepts: plain identifier, field access, and index expression.
func (g *genState) lvalueAddr(e *ast.Node) (llvm.Value, error) {
	switch e.Kind {
	case ast.IDENTIFIER:
		name, _ := e.Data.(string)
		if slot, ok := g.lookup(name); ok {
			return slot.ptr, nil
		}
		if gv, ok := g.c.globals[name]; ok {
			return gv, nil
		}
		return llvm.Value{}, fmt.Errorf("codegen: assignment to undefined identifier %q", name)

	case ast.FIELD_GET_EXPR:
		fa, _ := e.Data.(*ast.FieldAccess)
		recvTy := e.Children[0].ResolvedType
		recvPtr, err := g.genExpr(e.Children[0])
		if err != nil {
			return llvm.Value{}, err
		}
		structTy := recvTy
		if structTy.IsNullable() {
			g.c.genNullCheck(g.b, g.fn, recvPtr, e.Span.Line)
			// Nullable(Struct) is represented as a pointer to the struct
			// pointer (Struct**); the null check only proves the box
			// itself is non-null, so the struct pointer it holds must
			// still be loaded out before it can be GEP'd into.
			recvPtr = g.b.CreateLoad(recvPtr, "")
			structTy = structTy.Unwrap()
		}
		return g.fieldGEP(recvPtr, structTy, fa.Name)

	case ast.INDEX_EXPR:
		return g.indexAddr(e)

	default:
		return llvm.Value{}, fmt.Errorf("codegen: %s is not an assignable location", e.KindName())
	}
}

// fieldGEP computes the address of field `name` on a struct-typed
// pointer recv.
func (g *genState) fieldGEP(recv llvm.Value, structTy *ast.Type, name string) (llvm.Value, error) {
	idx, ok := g.c.structFieldIndex[structTy.Name][name]
	if !ok {
		return llvm.Value{}, fmt.Errorf("codegen: struct %q has no field %q", structTy.Name, name)
	}
	i32 := g.c.llctx.Int32Type()
	return g.b.CreateInBoundsGEP(recv, []llvm.Value{
		llvm.ConstInt(i32, 0, false),
		llvm.ConstInt(i32, uint64(idx), false),
	}, ""), nil
}

// coerce applies the teacher's implicit int<->float widening
// (genAssign/genStore's CreateSIToFP/CreateFPToSI pattern), boxes a
// plain T value being stored into a Nullable(T) slot (Nullable(T) is
// represented as T* per internal/codegen/types.go, so a non-nullable
// source needs a fresh heap cell to become one), and otherwise bitcasts
// between pointer representations (e.g. `null`, always i8*, being
// stored into a concrete Nullable(T) slot).
func (g *genState) coerce(v llvm.Value, from, to *ast.Type) (llvm.Value, error) {
	if from == nil || to == nil {
		return v, nil
	}
	toLT, err := g.c.llvmType(to)
	if err != nil {
		return llvm.Value{}, err
	}
	switch {
	case from.Kind == ast.KindInt && to.Kind == ast.KindFloat:
		return g.b.CreateSIToFP(v, toLT, ""), nil
	case from.Kind == ast.KindFloat && to.Kind == ast.KindInt:
		return g.b.CreateFPToSI(v, toLT, ""), nil
	case to.IsNullable() && !from.IsNullable():
		box := g.c.mallocValueOf(g.b, toLT.ElementType())
		g.b.CreateStore(v, box)
		return box, nil
	case v.Type().TypeKind() == llvm.PointerTypeKind && toLT.TypeKind() == llvm.PointerTypeKind && v.Type() != toLT:
		return g.b.CreateBitCast(v, toLT, ""), nil
	default:
		return v, nil
	}
}

// genBinary lowers a BINARY_EXPR. `&&`/`||` short-circuit via explicit
// basic blocks (evaluating the right operand only when necessary); every
// other operator evaluates both operands eagerly, matching the teacher's
// genExpression binary-operator switch generalized across lency's wider
// operator/type set.
func (g *genState) genBinary(e *ast.Node) (llvm.Value, error) {
	opText, _ := e.Data.(string)
	lhs, rhs := e.Children[0], e.Children[1]

	if opText == "&&" || opText == "||" {
		return g.genShortCircuit(opText, lhs, rhs)
	}
	if opText == "??" {
		return g.genElvis(e, lhs, rhs)
	}

	l, err := g.genExpr(lhs)
	if err != nil {
		return llvm.Value{}, err
	}
	r, err := g.genExpr(rhs)
	if err != nil {
		return llvm.Value{}, err
	}
	lt, rt := lhs.ResolvedType, rhs.ResolvedType

	if opText == "==" || opText == "!=" {
		return g.genEquality(opText, l, r, lt, rt)
	}

	isFloat := (lt != nil && lt.Kind == ast.KindFloat) || (rt != nil && rt.Kind == ast.KindFloat)
	if isFloat {
		l, _ = g.coerce(l, lt, ast.Float)
		r, _ = g.coerce(r, rt, ast.Float)
		return g.genFloatBinary(opText, l, r)
	}
	if lt != nil && lt.Kind == ast.KindString && opText == "+" {
		return g.genStringConcat(l, r), nil
	}
	return g.genIntBinary(opText, l, r)
}

func (g *genState) genIntBinary(op string, l, r llvm.Value) (llvm.Value, error) {
	switch op {
	case "+":
		return g.b.CreateAdd(l, r, ""), nil
	case "-":
		return g.b.CreateSub(l, r, ""), nil
	case "*":
		return g.b.CreateMul(l, r, ""), nil
	case "/":
		return g.b.CreateSDiv(l, r, ""), nil
	case "%":
		return g.b.CreateSRem(l, r, ""), nil
	case "<":
		return g.b.CreateICmp(llvm.IntSLT, l, r, ""), nil
	case "<=":
		return g.b.CreateICmp(llvm.IntSLE, l, r, ""), nil
	case ">":
		return g.b.CreateICmp(llvm.IntSGT, l, r, ""), nil
	case ">=":
		return g.b.CreateICmp(llvm.IntSGE, l, r, ""), nil
	default:
		return llvm.Value{}, fmt.Errorf("codegen: unsupported integer operator %q", op)
	}
}

func (g *genState) genFloatBinary(op string, l, r llvm.Value) (llvm.Value, error) {
	switch op {
	case "+":
		return g.b.CreateFAdd(l, r, ""), nil
	case "-":
		return g.b.CreateFSub(l, r, ""), nil
	case "*":
		return g.b.CreateFMul(l, r, ""), nil
	case "/":
		return g.b.CreateFDiv(l, r, ""), nil
	case "%":
		return g.b.CreateFRem(l, r, ""), nil
	case "<":
		return g.b.CreateFCmp(llvm.FloatOLT, l, r, ""), nil
	case "<=":
		return g.b.CreateFCmp(llvm.FloatOLE, l, r, ""), nil
	case ">":
		return g.b.CreateFCmp(llvm.FloatOGT, l, r, ""), nil
	case ">=":
		return g.b.CreateFCmp(llvm.FloatOGE, l, r, ""), nil
	default:
		return llvm.Value{}, fmt.Errorf("codegen: unsupported float operator %q", op)
	}
}

// genEquality lowers `==`/`!=`, dispatching to strcmp for strings (no
// libc strcmp-free way to compare content) and to plain int/float/pointer
// comparison otherwise -- including Nullable(T), which is already
// pointer-represented so pointer equality is the correct null check.
func (g *genState) genEquality(op string, l, r llvm.Value, lt, rt *ast.Type) (llvm.Value, error) {
	pred := llvm.IntEQ
	fpred := llvm.FloatOEQ
	if op == "!=" {
		pred = llvm.IntNE
		fpred = llvm.FloatONE
	}
	if lt != nil && lt.Kind == ast.KindString && rt != nil && rt.Kind == ast.KindString {
		cmp := g.b.CreateCall(g.c.runtime.strcmp, []llvm.Value{l, r}, "")
		return g.b.CreateICmp(pred, cmp, llvm.ConstInt(g.c.llctx.Int32Type(), 0, false)), nil
	}
	if (lt != nil && lt.Kind == ast.KindFloat) || (rt != nil && rt.Kind == ast.KindFloat) {
		l, _ = g.coerce(l, lt, ast.Float)
		r, _ = g.coerce(r, rt, ast.Float)
		return g.b.CreateFCmp(fpred, l, r, ""), nil
	}
	if l.Type().TypeKind() == llvm.PointerTypeKind && r.Type() != l.Type() {
		r = g.b.CreateBitCast(r, l.Type(), "")
	}
	return g.b.CreateICmp(pred, l, r, ""), nil
}

// genShortCircuit lowers `&&`/`||` with proper short-circuit evaluation:
// the right operand's basic block is only entered when the left operand
// didn't already decide the result.
func (g *genState) genShortCircuit(op string, lhs, rhs *ast.Node) (llvm.Value, error) {
	l, err := g.genExpr(lhs)
	if err != nil {
		return llvm.Value{}, err
	}
	startBB := g.b.GetInsertBlock()
	rhsBB := g.c.llctx.AddBasicBlock(g.fn, "")
	mergeBB := g.c.llctx.AddBasicBlock(g.fn, "")

	if op == "&&" {
		g.b.CreateCondBr(l, rhsBB, mergeBB)
	} else {
		g.b.CreateCondBr(l, mergeBB, rhsBB)
	}

	g.b.SetInsertPointAtEnd(rhsBB)
	r, err := g.genExpr(rhs)
	if err != nil {
		return llvm.Value{}, err
	}
	rhsEndBB := g.b.GetInsertBlock()
	g.b.CreateBr(mergeBB)

	g.b.SetInsertPointAtEnd(mergeBB)
	phi := g.b.CreatePHI(g.c.llctx.Int1Type(), "")
	phi.AddIncoming([]llvm.Value{l, r}, []llvm.BasicBlock{startBB, rhsEndBB})
	return phi, nil
}

// genElvis lowers `??`: if lhs is non-nullable, its value flows straight
// through; if nullable (represented as a pointer-to-T box per
// internal/codegen/types.go's KindNullable case), a null check decides
// whether to load the box's value or fall back to evaluating rhs, per
// spec.md §4.7.
func (g *genState) genElvis(e, lhs, rhs *ast.Node) (llvm.Value, error) {
	l, err := g.genExpr(lhs)
	if err != nil {
		return llvm.Value{}, err
	}
	if lhs.ResolvedType == nil || !lhs.ResolvedType.IsNullable() {
		return l, nil
	}
	resultSrcTy := lhs.ResolvedType.Elem

	notNullBB := g.c.llctx.AddBasicBlock(g.fn, "elvis_notnull")
	rhsBB := g.c.llctx.AddBasicBlock(g.fn, "elvis_rhs")
	mergeBB := g.c.llctx.AddBasicBlock(g.fn, "elvis_merge")

	isNull := g.b.CreateIsNull(l, "")
	g.b.CreateCondBr(isNull, rhsBB, notNullBB)

	g.b.SetInsertPointAtEnd(notNullBB)
	notNullVal := g.b.CreateLoad(l, "")
	notNullVal, _ = g.coerce(notNullVal, resultSrcTy, e.ResolvedType)
	notNullEndBB := g.b.GetInsertBlock()
	g.b.CreateBr(mergeBB)

	g.b.SetInsertPointAtEnd(rhsBB)
	r, err := g.genExpr(rhs)
	if err != nil {
		return llvm.Value{}, err
	}
	r, _ = g.coerce(r, rhs.ResolvedType, e.ResolvedType)
	rhsEndBB := g.b.GetInsertBlock()
	g.b.CreateBr(mergeBB)

	g.b.SetInsertPointAtEnd(mergeBB)
	resultTy, err := g.c.llvmType(e.ResolvedType)
	if err != nil {
		return llvm.Value{}, err
	}
	phi := g.b.CreatePHI(resultTy, "")
	phi.AddIncoming([]llvm.Value{notNullVal, r}, []llvm.BasicBlock{notNullEndBB, rhsEndBB})
	return phi, nil
}

func (g *genState) genStringConcat(l, r llvm.Value) llvm.Value {
	rt := g.c.runtime
	ll := g.b.CreateCall(rt.strlen, []llvm.Value{l}, "")
	rl := g.b.CreateCall(rt.strlen, []llvm.Value{r}, "")
	total := g.b.CreateAdd(g.b.CreateAdd(ll, rl, ""), llvm.ConstInt(g.c.intTy, 1, false), "")
	buf := g.b.CreateCall(rt.malloc, []llvm.Value{total}, "")
	g.b.CreateCall(rt.strcpy, []llvm.Value{buf, l}, "")
	g.b.CreateCall(rt.strcat, []llvm.Value{buf, r}, "")
	return buf
}

func (g *genState) genUnary(e *ast.Node) (llvm.Value, error) {
	opText, _ := e.Data.(string)
	operand := e.Children[0]
	v, err := g.genExpr(operand)
	if err != nil {
		return llvm.Value{}, err
	}
	switch opText {
	case "-":
		if operand.ResolvedType != nil && operand.ResolvedType.Kind == ast.KindFloat {
			return g.b.CreateFNeg(v, ""), nil
		}
		return g.b.CreateNeg(v, ""), nil
	case "!":
		return g.b.CreateNot(v, ""), nil
	default:
		return llvm.Value{}, fmt.Errorf("codegen: unsupported unary operator %q", opText)
	}
}

// genCall lowers a CALL_EXPR: the callee is either a plain function name
// (resolved to its declared signature) or a Function{...}-typed variable,
// emitted as an indirect call per spec.md §4.7. A generic callee only
// ever reaches here already unwrapped from its GENERIC_INSTANTIATION_EXPR
// by genGenericInstantiation, which calls genCallNamed directly with the
// monomorphizer's mangled symbol instead.
func (g *genState) genCall(e *ast.Node) (llvm.Value, error) {
	callee := e.Children[0]

	if callee.Kind == ast.IDENTIFIER {
		name, _ := callee.Data.(string)
		if _, ok := g.c.functionSignatures[name]; !ok {
			if slot, ok2 := g.lookup(name); ok2 && slot.ty != nil && slot.ty.Kind == ast.KindFunction {
				ptr := g.b.CreateLoad(slot.ptr, "")
				return g.genIndirectCall(ptr, slot.ty, e.Children[1:])
			}
		}
		return g.genCallNamed(e, name)
	}
	return llvm.Value{}, fmt.Errorf("codegen: unsupported call target %s", callee.KindName())
}

// genCallNamed calls the function registered under name, ignoring
// whatever identifier the CALL_EXPR's own callee node carries -- used
// both for an ordinary direct call (name is the callee's own source
// name) and for a generic instantiation site, where name is instead the
// monomorphizer's mangled specialization symbol.
func (g *genState) genCallNamed(e *ast.Node, name string) (llvm.Value, error) {
	argNodes := e.Children[1:]

	fn, ok := g.c.functionSignatures[name]
	if !ok {
		return llvm.Value{}, fmt.Errorf("codegen: call to undeclared function %q", name)
	}
	var paramTypes []*ast.Type
	if src, ok := g.c.functionSource[name]; ok {
		for _, p := range src.Children {
			if p.Kind == ast.PARAMETER {
				paramTypes = append(paramTypes, p.ResolvedType)
			}
		}
	}

	args, err := g.genArgs(argNodes, paramTypes)
	if err != nil {
		return llvm.Value{}, err
	}
	return g.b.CreateCall(fn, args, ""), nil
}

func (g *genState) genIndirectCall(fnPtr llvm.Value, fnTy *ast.Type, argNodes []*ast.Node) (llvm.Value, error) {
	args, err := g.genArgs(argNodes, fnTy.Args)
	if err != nil {
		return llvm.Value{}, err
	}
	return g.b.CreateCall(fnPtr, args, ""), nil
}

func (g *genState) genArgs(argNodes []*ast.Node, paramTypes []*ast.Type) ([]llvm.Value, error) {
	args := make([]llvm.Value, len(argNodes))
	for i, a := range argNodes {
		v, err := g.genExpr(a)
		if err != nil {
			return nil, err
		}
		if i < len(paramTypes) {
			v, _ = g.coerce(v, a.ResolvedType, paramTypes[i])
		}
		args[i] = v
	}
	return args, nil
}

// genMethodCall lowers a METHOD_CALL_EXPR. Struct receivers call the
// mangled `Target_method` symbol with `this` prepended, per spec.md
// §4.7. Vec(T) receivers are sugar for the runtime's handle-based vec_*
// functions (internal/types.inferMethodCall does not validate these
// calls statically and types them as the poison type).
func (g *genState) genMethodCall(e *ast.Node) (llvm.Value, error) {
	fa, _ := e.Data.(*ast.FieldAccess)
	recv := e.Children[0]
	argNodes := e.Children[1:]

	recvTy := recv.ResolvedType
	if recvTy != nil && recvTy.Kind == ast.KindVec {
		return g.genVecMethod(fa.Name, recv, argNodes)
	}

	recvVal, err := g.genExpr(recv)
	if err != nil {
		return llvm.Value{}, err
	}
	structTy := recvTy
	if structTy != nil && structTy.IsNullable() {
		g.c.genNullCheck(g.b, g.fn, recvVal, e.Span.Line)
		// As in lvalueAddr's FIELD_GET_EXPR case: the box itself being
		// non-null doesn't mean recvVal already holds the struct pointer,
		// it holds a pointer TO the struct pointer.
		recvVal = g.b.CreateLoad(recvVal, "")
		structTy = structTy.Unwrap()
	}
	if structTy == nil || structTy.Kind != ast.KindStruct {
		return llvm.Value{}, fmt.Errorf("codegen: method call on non-struct receiver")
	}
	mangled := structTy.Name + "_" + fa.Name
	target, ok := g.c.functionSignatures[mangled]
	if !ok {
		return llvm.Value{}, fmt.Errorf("codegen: undeclared method %q", mangled)
	}

	var paramTypes []*ast.Type
	if src, ok := g.c.functionSource[mangled]; ok {
		for _, p := range src.Children {
			if p.Kind == ast.PARAMETER {
				paramTypes = append(paramTypes, p.ResolvedType)
			}
		}
	}
	args, err := g.genArgs(argNodes, paramTypes)
	if err != nil {
		return llvm.Value{}, err
	}
	args = append([]llvm.Value{recvVal}, args...)
	return g.b.CreateCall(target, args, ""), nil
}

// genIndex lowers an INDEX_EXPR over a fixed Array, a String (byte
// indexing), or a Vec(T) handle, each with its own bounds-check source
// of truth per spec.md §4.7 ("[N]T uses N; Vec(T) uses a runtime len
// call").
func (g *genState) genIndex(e *ast.Node) (llvm.Value, error) {
	addr, err := g.indexAddr(e)
	if err != nil {
		return llvm.Value{}, err
	}
	return g.b.CreateLoad(addr, ""), nil
}

func (g *genState) indexAddr(e *ast.Node) (llvm.Value, error) {
	base, idxNode := e.Children[0], e.Children[1]
	baseTy := base.ResolvedType
	idx, err := g.genExpr(idxNode)
	if err != nil {
		return llvm.Value{}, err
	}

	switch {
	case baseTy != nil && baseTy.Kind == ast.KindArray:
		baseAddr, err := g.lvalueAddr(base)
		if err != nil {
			return llvm.Value{}, err
		}
		length := llvm.ConstInt(g.c.llctx.Int32Type(), uint64(baseTy.Size), false)
		g.c.genBoundsCheck(g.b, g.fn, idx, length, e.Span.Line)
		i32 := g.c.llctx.Int32Type()
		return g.b.CreateInBoundsGEP(baseAddr, []llvm.Value{llvm.ConstInt(i32, 0, false), idx}, ""), nil

	case baseTy != nil && baseTy.Kind == ast.KindString:
		baseVal, err := g.genExpr(base)
		if err != nil {
			return llvm.Value{}, err
		}
		length := g.b.CreateCall(g.c.runtime.strlen, []llvm.Value{baseVal}, "")
		length32 := g.b.CreateIntCast(length, g.c.llctx.Int32Type(), "")
		g.c.genBoundsCheck(g.b, g.fn, idx, length32, e.Span.Line)
		return g.b.CreateInBoundsGEP(baseVal, []llvm.Value{idx}, ""), nil

	case baseTy != nil && baseTy.Kind == ast.KindVec:
		handle, err := g.genExpr(base)
		if err != nil {
			return llvm.Value{}, err
		}
		lenFn := g.c.functionSignatures["vec_len"]
		length := g.b.CreateCall(lenFn, []llvm.Value{handle}, "")
		length32 := g.b.CreateIntCast(length, g.c.llctx.Int32Type(), "")
		idx32 := g.b.CreateIntCast(idx, g.c.llctx.Int32Type(), "")
		g.c.genBoundsCheck(g.b, g.fn, idx32, length32, e.Span.Line)
		elemPtr := g.b.CreateCall(g.c.runtime.vecGet, []llvm.Value{handle, idx}, "")
		elemTy, err := g.c.llvmType(baseTy.Elem)
		if err != nil {
			return llvm.Value{}, err
		}
		return g.b.CreateBitCast(elemPtr, llvm.PointerType(elemTy, 0), ""), nil

	default:
		return llvm.Value{}, fmt.Errorf("codegen: cannot index into %s", baseTy.DisplayName())
	}
}

// genFieldGet lowers a FIELD_GET_EXPR, emitting a null-check first for a
// nullable receiver (the `?.` safe-navigation form still dereferences
// once proven non-null, returning the same value that a plain `.` would;
// internal/nullsafe has already ensured plain `.` on a possibly-null
// receiver was rejected before codegen runs).
func (g *genState) genFieldGet(e *ast.Node) (llvm.Value, error) {
	addr, err := g.lvalueAddr(e)
	if err != nil {
		return llvm.Value{}, err
	}
	return g.b.CreateLoad(addr, ""), nil
}

// genStructLiteral allocates the struct on the heap via malloc and
// stores every field in declared order, per spec.md §4.7. A generic
// struct literal only ever reaches here already unwrapped from its
// GENERIC_INSTANTIATION_EXPR by genGenericInstantiation, which calls
// genStructLiteralNamed directly with the monomorphizer's mangled name.
func (g *genState) genStructLiteral(e *ast.Node) (llvm.Value, error) {
	name, _ := e.Data.(string)
	return g.genStructLiteralNamed(e, name)
}

// genStructLiteralNamed builds a struct literal against the struct
// registered under name, ignoring the STRUCT_LITERAL_EXPR's own Data --
// used both for an ordinary literal (name is its own source name) and for
// a generic instantiation site, where name is the monomorphizer's mangled
// specialization symbol instead.
func (g *genState) genStructLiteralNamed(e *ast.Node, name string) (llvm.Value, error) {
	st, ok := g.c.structTypes[name]
	if !ok {
		return llvm.Value{}, fmt.Errorf("codegen: reference to undeclared struct %q", name)
	}
	ptr := g.c.mallocOf(g.b, st)

	fieldTypes := g.c.structFieldTypes[name]
	fieldIndex := g.c.structFieldIndex[name]
	for _, c := range e.Children {
		slf, _ := c.Data.(*ast.StructLiteralField)
		if slf == nil {
			continue
		}
		idx, ok := fieldIndex[slf.Name]
		if !ok {
			continue
		}
		val, err := g.genExpr(c.Children[0])
		if err != nil {
			return llvm.Value{}, err
		}
		val, _ = g.coerce(val, c.Children[0].ResolvedType, fieldTypes[idx])
		addr, err := g.fieldGEP(ptr, ast.NewStruct(name), slf.Name)
		if err != nil {
			return llvm.Value{}, err
		}
		g.b.CreateStore(val, addr)
	}
	return ptr, nil
}

// mallocOf heap-allocates one instance of named struct type st.
func (c *Context) mallocOf(b llvm.Builder, st llvm.Type) llvm.Value {
	return c.mallocValueOf(b, st)
}

// mallocValueOf heap-allocates one value of LLVM type lt via the
// runtime malloc, sizing it with the GEP-on-null idiom (`getelementptr
// T, T* null, i32 1` then ptrtoint) -- the standard LLVM
// sizeof-without-target-data trick, needed because the emitter runs
// before a TargetMachine/TargetData exists (those are constructed only
// when internal/driver emits the final object file). Used both for
// struct literals and for boxing a value behind a Nullable(T) pointer.
func (c *Context) mallocValueOf(b llvm.Builder, lt llvm.Type) llvm.Value {
	ptrTy := llvm.PointerType(lt, 0)
	nullPtr := llvm.ConstNull(ptrTy)
	sizeGEP := llvm.ConstGEP(nullPtr, []llvm.Value{llvm.ConstInt(c.llctx.Int32Type(), 1, false)})
	size := llvm.ConstPtrToInt(sizeGEP, c.intTy)
	raw := b.CreateCall(c.runtime.malloc, []llvm.Value{size}, "")
	return b.CreateBitCast(raw, ptrTy, "")
}

func (g *genState) genArrayLiteral(e *ast.Node) (llvm.Value, error) {
	elemTy, err := g.c.llvmType(e.ResolvedType.Elem)
	if err != nil {
		return llvm.Value{}, err
	}
	arrTy := llvm.ArrayType(elemTy, len(e.Children))
	alloc := g.b.CreateAlloca(arrTy, "")
	i32 := g.c.llctx.Int32Type()
	for i, c := range e.Children {
		v, err := g.genExpr(c)
		if err != nil {
			return llvm.Value{}, err
		}
		v, _ = g.coerce(v, c.ResolvedType, e.ResolvedType.Elem)
		addr := g.b.CreateInBoundsGEP(alloc, []llvm.Value{llvm.ConstInt(i32, 0, false), llvm.ConstInt(i32, uint64(i), false)}, "")
		g.b.CreateStore(v, addr)
	}
	return g.b.CreateLoad(alloc, ""), nil
}

// genVecLiteral builds a Vec(T) at runtime: a new handle, then one
// vec_push per element. Grounded on the opaque-handle convention
// internal/resolver/builtins.go already uses for hashmaps and on
// spec.md §4.7's "vecs -> opaque handle" plus its bounds-check note that
// Vec(T) consults "a runtime len call" -- vec_new/vec_push/vec_get are
// the construction/access half of that same handle-based runtime
// contract, predeclared in internal/codegen/runtime.go (vec_len itself
// comes from the internal/runtimeabi table).
func (g *genState) genVecLiteral(e *ast.Node) (llvm.Value, error) {
	handle := g.b.CreateCall(g.c.runtime.vecNew, nil, "")
	elemTy, err := g.c.llvmType(e.ResolvedType.Elem)
	if err != nil {
		return llvm.Value{}, err
	}
	for _, c := range e.Children {
		v, err := g.genExpr(c)
		if err != nil {
			return llvm.Value{}, err
		}
		v, _ = g.coerce(v, c.ResolvedType, e.ResolvedType.Elem)
		slot := g.b.CreateAlloca(elemTy, "")
		g.b.CreateStore(v, slot)
		elemPtr := g.b.CreateBitCast(slot, llvm.PointerType(g.c.llctx.Int8Type(), 0), "")
		g.b.CreateCall(g.c.runtime.vecPush, []llvm.Value{handle, elemPtr}, "")
	}
	return handle, nil
}

func (g *genState) genVecMethod(method string, recv *ast.Node, argNodes []*ast.Node) (llvm.Value, error) {
	handle, err := g.genExpr(recv)
	if err != nil {
		return llvm.Value{}, err
	}
	switch method {
	case "len":
		return g.b.CreateCall(g.c.functionSignatures["vec_len"], []llvm.Value{handle}, ""), nil
	case "push":
		if len(argNodes) != 1 {
			return llvm.Value{}, fmt.Errorf("codegen: Vec.push expects 1 argument")
		}
		elemTy := recv.ResolvedType.Elem
		elemLT, err := g.c.llvmType(elemTy)
		if err != nil {
			return llvm.Value{}, err
		}
		v, err := g.genExpr(argNodes[0])
		if err != nil {
			return llvm.Value{}, err
		}
		v, _ = g.coerce(v, argNodes[0].ResolvedType, elemTy)
		slot := g.b.CreateAlloca(elemLT, "")
		g.b.CreateStore(v, slot)
		elemPtr := g.b.CreateBitCast(slot, llvm.PointerType(g.c.llctx.Int8Type(), 0), "")
		g.b.CreateCall(g.c.runtime.vecPush, []llvm.Value{handle, elemPtr}, "")
		return handle, nil
	case "get":
		if len(argNodes) != 1 {
			return llvm.Value{}, fmt.Errorf("codegen: Vec.get expects 1 argument")
		}
		idx, err := g.genExpr(argNodes[0])
		if err != nil {
			return llvm.Value{}, err
		}
		elemPtr := g.b.CreateCall(g.c.runtime.vecGet, []llvm.Value{handle, idx}, "")
		elemTy, err := g.c.llvmType(recv.ResolvedType.Elem)
		if err != nil {
			return llvm.Value{}, err
		}
		typed := g.b.CreateBitCast(elemPtr, llvm.PointerType(elemTy, 0), "")
		return g.b.CreateLoad(typed, ""), nil
	default:
		return llvm.Value{}, fmt.Errorf("codegen: unknown Vec method %q", method)
	}
}

// genTry lowers a TRY_EXPR: unwraps a Result{Ok,Err}, returning early
// with the Err arm if the tag is set, otherwise yielding the Ok payload.
func (g *genState) genTry(e *ast.Node) (llvm.Value, error) {
	res, err := g.genExpr(e.Children[0])
	if err != nil {
		return llvm.Value{}, err
	}
	isErr := g.b.CreateExtractValue(res, 0, "")
	payload := g.b.CreateExtractValue(res, 1, "")

	errBB := g.c.llctx.AddBasicBlock(g.fn, "")
	okBB := g.c.llctx.AddBasicBlock(g.fn, "")
	g.b.CreateCondBr(isErr, errBB, okBB)

	g.b.SetInsertPointAtEnd(errBB)
	if g.ret.Kind == ast.KindVoid {
		g.b.CreateRetVoid()
	} else {
		propagated := res
		g.b.CreateRet(propagated)
	}

	g.b.SetInsertPointAtEnd(okBB)
	okTy := e.ResolvedType
	lt, err := g.c.llvmType(okTy)
	if err != nil {
		return llvm.Value{}, err
	}
	return g.b.CreateBitCast(payload, lt, ""), nil
}

// genOkErr builds a Result{Ok,Err} tag+payload pair for `ok(v)`/`err(v)`.
func (g *genState) genOkErr(e *ast.Node, isErrArm bool) (llvm.Value, error) {
	inner := e.Children[0]
	v, err := g.genExpr(inner)
	if err != nil {
		return llvm.Value{}, err
	}
	resultTy, err := g.c.llvmType(e.ResolvedType)
	if err != nil {
		return llvm.Value{}, err
	}
	i8p := llvm.PointerType(g.c.llctx.Int8Type(), 0)

	var payload llvm.Value
	if v.Type().TypeKind() == llvm.PointerTypeKind {
		payload = g.b.CreateBitCast(v, i8p, "")
	} else {
		slot := g.b.CreateAlloca(v.Type(), "")
		g.b.CreateStore(v, slot)
		payload = g.b.CreateBitCast(slot, i8p, "")
	}

	tagBit := uint64(0)
	if isErrArm {
		tagBit = 1
	}
	agg := llvm.ConstNull(resultTy)
	agg = g.b.CreateInsertValue(agg, llvm.ConstInt(g.c.llctx.Int1Type(), tagBit, false), 0, "")
	agg = g.b.CreateInsertValue(agg, payload, 1, "")
	return agg, nil
}

// genClosure lifts a closure literal to a top-level `__closure_<n>`
// function (no environment capture, per spec.md §4.7/§9) and returns
// that function's pointer value.
func (g *genState) genClosure(e *ast.Node) (llvm.Value, error) {
	return g.c.liftClosure(e)
}

// genGenericInstantiation lowers a GENERIC_INSTANTIATION_EXPR: the
// explicit type arguments in e.Data were already resolved by
// internal/mono.Specialize into one concrete specialization per unique
// site, recorded by node identity in Mono.sites, so emission here is just
// redirecting the wrapped call or struct literal to that mangled symbol
// instead of the unspecialized declaration's own name.
func (g *genState) genGenericInstantiation(e *ast.Node) (llvm.Value, error) {
	inner := e.Children[0]
	if g.c.Mono == nil {
		return llvm.Value{}, fmt.Errorf("codegen: generic instantiation encountered with no monomorphizer configured")
	}
	mangled, ok := g.c.Mono.MangledNameFor(e)
	if !ok {
		return llvm.Value{}, fmt.Errorf("codegen: generic instantiation site was not resolved by the monomorphizer")
	}
	switch inner.Kind {
	case ast.STRUCT_LITERAL_EXPR:
		return g.genStructLiteralNamed(inner, mangled)
	case ast.CALL_EXPR:
		return g.genCallNamed(inner, mangled)
	default:
		return llvm.Value{}, fmt.Errorf("codegen: unsupported generic instantiation target %s", inner.KindName())
	}
}
