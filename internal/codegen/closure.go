package codegen

import (
	"fmt"

	"tinygo.org/x/go-llvm"

	"github.com/lency-lang/lency/internal/ast"
)

// liftClosure emits a CLOSURE_EXPR as a new top-level `__closure_<n>`
// function and returns a pointer to it, per spec.md §4.7/§9: closures do
// not capture their enclosing environment, so lifting is a pure
// syntactic rewrite -- no free-variable analysis, no environment struct
// -- matching the teacher's one-function-per-declaration model
// (genFuncHeader/genFuncBody) with a synthesized name in place of a
// source identifier.
//
// The generated function is declared and its body generated immediately
// (rather than queued for the normal two-pass declare/generate split)
// since a closure literal is only ever reached mid-expression, after the
// top-level declare pass has already run; it still uses a private
// builder of its own so it never disturbs the caller's current
// insertion point.
func (c *Context) liftClosure(e *ast.Node) (llvm.Value, error) {
	c.closureMu.Lock()
	id := c.closureCounter
	c.closureCounter++
	c.closureMu.Unlock()
	name := fmt.Sprintf("__closure_%d", id)

	fnTy := e.ResolvedType

	var params []*ast.Type
	var paramNames []string
	for _, p := range e.Children {
		if p.Kind == ast.PARAMETER {
			pname, _ := p.Data.(string)
			params = append(params, p.ResolvedType)
			paramNames = append(paramNames, pname)
		}
	}
	var body *ast.Node
	for _, ch := range e.Children {
		if ch.Kind == ast.BLOCK {
			body = ch
		}
	}
	ret := ast.Void
	if fnTy != nil && fnTy.Return != nil {
		ret = fnTy.Return
	}

	paramTypes := make([]llvm.Type, len(params))
	for i, p := range params {
		lt, err := c.llvmType(p)
		if err != nil {
			return llvm.Value{}, fmt.Errorf("codegen: closure %s parameter %d: %w", name, i, err)
		}
		paramTypes[i] = lt
	}
	retType, err := c.llvmType(ret)
	if err != nil {
		return llvm.Value{}, fmt.Errorf("codegen: closure %s return type: %w", name, err)
	}

	llfn := llvm.AddFunction(c.mod, name, llvm.FunctionType(retType, paramTypes, false))
	for i, pname := range paramNames {
		llfn.Param(i).SetName(pname)
	}
	c.functionSignatures[name] = llfn

	b := c.llctx.NewBuilder()
	defer b.Dispose()
	g := newGenState(c, b, llfn, ret)
	entry := c.llctx.AddBasicBlock(llfn, "entry")
	b.SetInsertPointAtEnd(entry)
	for i, pname := range paramNames {
		pv := llfn.Param(i)
		alloc := b.CreateAlloca(pv.Type(), "")
		b.CreateStore(pv, alloc)
		g.define(pname, &varSlot{ptr: alloc, ty: params[i]})
	}

	if body != nil {
		terminated, err := g.genBlock(body)
		if err != nil {
			return llvm.Value{}, fmt.Errorf("codegen: closure %s: %w", name, err)
		}
		if !terminated {
			if ret.Kind == ast.KindVoid {
				b.CreateRetVoid()
			} else {
				zero, _ := c.llvmType(ret)
				b.CreateRet(llvm.ConstNull(zero))
			}
		}
	} else if ret.Kind == ast.KindVoid {
		b.CreateRetVoid()
	} else {
		zero, _ := c.llvmType(ret)
		b.CreateRet(llvm.ConstNull(zero))
	}

	return llfn, nil
}
