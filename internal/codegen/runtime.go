package codegen

import (
	"tinygo.org/x/go-llvm"
)

// runtimeDecls holds the handles of every pre-declared/defined external
// runtime symbol spec.md §4.7 lists, so statement/expression codegen can
// reference them by field instead of re-looking them up by name.
type runtimeDecls struct {
	printf llvm.Value
	exit   llvm.Value
	malloc llvm.Value
	strlen llvm.Value
	strcpy llvm.Value
	strcat llvm.Value
	strcmp llvm.Value

	// vecNew/vecPush/vecGet are the construction/access half of the
	// opaque-handle Vec(T) runtime contract (vec_len(int)->int is the
	// third leg, already registered by internal/resolver/builtins.go as
	// a callable builtin).
	vecNew  llvm.Value // vec_new() -> i64 handle
	vecPush llvm.Value // vec_push(i64 handle, i8* elem) -> void, copies one element in
	vecGet  llvm.Value // vec_get(i64 handle, i64 idx) -> i8*, pointer to element storage

	nullCheckPanic   llvm.Value // __null_check_panic(i32) -> noreturn
	boundsCheckPanic llvm.Value // __bounds_check_panic(i32, i32, i32) -> noreturn

	panicFmtNull   llvm.Value // global format string for the null-check panic message.
	panicFmtBounds llvm.Value // global format string for the bounds-check panic message.
}

// declareRuntime pre-declares printf/exit/malloc/strlen/strcpy/strcat and
// defines the two panic helpers inline, per spec.md §4.7's "emitter
// pre-declares (and, for __*_panic, defines) external symbols" and the
// SPEC_FULL.md supplement from
// original_source/crates/beryl_codegen/src/runtime.rs: the panic
// intrinsics are full function bodies (format string global + printf +
// exit + unreachable), not bare declarations.
func declareRuntime(c *Context) *runtimeDecls {
	i8p := llvm.PointerType(c.llctx.Int8Type(), 0)
	i32 := c.llctx.Int32Type()
	voidTy := c.llctx.VoidType()

	r := &runtimeDecls{}

	r.printf = llvm.AddFunction(c.mod, "printf", llvm.FunctionType(i32, []llvm.Type{i8p}, true))
	r.exit = llvm.AddFunction(c.mod, "exit", llvm.FunctionType(voidTy, []llvm.Type{i32}, false))
	r.exit.AddFunctionAttr(c.llctx.CreateEnumAttribute(noreturnAttrKind(), 0))
	r.malloc = llvm.AddFunction(c.mod, "malloc", llvm.FunctionType(i8p, []llvm.Type{c.intTy}, false))
	r.strlen = llvm.AddFunction(c.mod, "strlen", llvm.FunctionType(c.intTy, []llvm.Type{i8p}, false))
	r.strcpy = llvm.AddFunction(c.mod, "strcpy", llvm.FunctionType(i8p, []llvm.Type{i8p, i8p}, false))
	r.strcat = llvm.AddFunction(c.mod, "strcat", llvm.FunctionType(i8p, []llvm.Type{i8p, i8p}, false))
	r.strcmp = llvm.AddFunction(c.mod, "strcmp", llvm.FunctionType(i32, []llvm.Type{i8p, i8p}, false))

	r.vecNew = llvm.AddFunction(c.mod, "vec_new", llvm.FunctionType(c.intTy, nil, false))
	r.vecPush = llvm.AddFunction(c.mod, "vec_push", llvm.FunctionType(voidTy, []llvm.Type{c.intTy, i8p}, false))
	r.vecGet = llvm.AddFunction(c.mod, "vec_get", llvm.FunctionType(i8p, []llvm.Type{c.intTy, c.intTy}, false))

	r.panicFmtNull = c.defineConstString("__lency_fmt_null_panic", "attempted to access null value at line %d\n")
	r.panicFmtBounds = c.defineConstString("__lency_fmt_bounds_panic", "index %d out of bounds for length %d at line %d\n")

	r.nullCheckPanic = c.definePanicFn("__null_check_panic", []llvm.Type{i32}, func(b llvm.Builder, fn llvm.Value) {
		fmtPtr := b.CreateInBoundsGEP(r.panicFmtNull, []llvm.Value{llvm.ConstInt(i32, 0, false), llvm.ConstInt(i32, 0, false)}, "")
		b.CreateCall(r.printf, []llvm.Value{fmtPtr, fn.Param(0)}, "")
		b.CreateCall(r.exit, []llvm.Value{llvm.ConstInt(i32, 1, false)}, "")
		b.CreateUnreachable()
	})

	r.boundsCheckPanic = c.definePanicFn("__bounds_check_panic", []llvm.Type{i32, i32, i32}, func(b llvm.Builder, fn llvm.Value) {
		fmtPtr := b.CreateInBoundsGEP(r.panicFmtBounds, []llvm.Value{llvm.ConstInt(i32, 0, false), llvm.ConstInt(i32, 0, false)}, "")
		b.CreateCall(r.printf, []llvm.Value{fmtPtr, fn.Param(0), fn.Param(1), fn.Param(2)}, "")
		b.CreateCall(r.exit, []llvm.Value{llvm.ConstInt(i32, 1, false)}, "")
		b.CreateUnreachable()
	})

	return r
}

// noreturnAttrKind looks up LLVM's "noreturn" enum attribute kind id. The
// Go bindings expose this as a package function keyed by attribute name
// rather than a named constant.
func noreturnAttrKind() uint {
	return llvm.AttributeKindID("noreturn")
}

// defineConstString creates a private, null-terminated global string
// constant, the same shape as the teacher's string literal globals in
// genExpression (stringPrefix-prefixed globals holding literal text).
func (c *Context) defineConstString(name, value string) llvm.Value {
	cstr := c.llctx.ConstString(value, true)
	g := llvm.AddGlobal(c.mod, cstr.Type(), name)
	g.SetInitializer(cstr)
	g.SetGlobalConstant(true)
	g.SetLinkage(llvm.PrivateLinkage)
	return g
}

// definePanicFn declares and immediately defines a noreturn void
// function taking params, running body in its single basic block.
func (c *Context) definePanicFn(name string, params []llvm.Type, body func(b llvm.Builder, fn llvm.Value)) llvm.Value {
	voidTy := c.llctx.VoidType()
	fn := llvm.AddFunction(c.mod, name, llvm.FunctionType(voidTy, params, false))
	fn.AddFunctionAttr(c.llctx.CreateEnumAttribute(noreturnAttrKind(), 0))

	b := c.llctx.NewBuilder()
	defer b.Dispose()
	entry := c.llctx.AddBasicBlock(fn, "entry")
	b.SetInsertPointAtEnd(entry)
	body(b, fn)
	return fn
}

// genNullCheck emits spec.md §4.7's null-check intrinsic inline at the
// call site: if ptr is null, branch to a panic block calling
// __null_check_panic(line); else continue. Grounded on genIf's
// then/else/converge block shape in the teacher, specialized to a single
// "panic, cont" pair per spec.md's "each creating {panic, cont} blocks."
func (c *Context) genNullCheck(b llvm.Builder, fn llvm.Value, ptr llvm.Value, line int) {
	isNull := b.CreateIsNull(ptr, "")
	panicBB := c.llctx.AddBasicBlock(fn, "null_panic")
	contBB := c.llctx.AddBasicBlock(fn, "null_cont")
	b.CreateCondBr(isNull, panicBB, contBB)

	b.SetInsertPointAtEnd(panicBB)
	i32 := c.llctx.Int32Type()
	b.CreateCall(c.runtime.nullCheckPanic, []llvm.Value{llvm.ConstInt(i32, uint64(line), false)}, "")
	b.CreateUnreachable()

	b.SetInsertPointAtEnd(contBB)
}

// genBoundsCheck emits the bounds-check intrinsic: if idx is out of
// [0, length) it panics, else control falls through.
func (c *Context) genBoundsCheck(b llvm.Builder, fn llvm.Value, idx, length llvm.Value, line int) {
	i32 := c.llctx.Int32Type()
	idx32 := b.CreateIntCast(idx, i32, "")
	len32 := b.CreateIntCast(length, i32, "")

	tooLow := b.CreateICmp(llvm.IntSLT, idx32, llvm.ConstInt(i32, 0, false), "")
	tooHigh := b.CreateICmp(llvm.IntSGE, idx32, len32, "")
	outOfBounds := b.CreateOr(tooLow, tooHigh, "")

	panicBB := c.llctx.AddBasicBlock(fn, "bounds_panic")
	contBB := c.llctx.AddBasicBlock(fn, "bounds_cont")
	b.CreateCondBr(outOfBounds, panicBB, contBB)

	b.SetInsertPointAtEnd(panicBB)
	b.CreateCall(c.runtime.boundsCheckPanic, []llvm.Value{idx32, len32, llvm.ConstInt(i32, uint64(line), false)}, "")
	b.CreateUnreachable()

	b.SetInsertPointAtEnd(contBB)
}
