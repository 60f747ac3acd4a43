package codegen

import (
	"fmt"

	"tinygo.org/x/go-llvm"

	"github.com/lency-lang/lency/internal/ast"
)

// genBlock emits every statement of b in order and reports whether the
// block ended with a terminator (return/break/continue, or a branch
// already inserted by a nested if/match whose arms all terminate) --
// generateFunctionBody consults this to decide whether an implicit
// return needs synthesizing, and genIf/genWhile consult it per-branch to
// decide whether to insert the fallthrough branch to the converge block.
func (g *genState) genBlock(b *ast.Node) (bool, error) {
	g.pushScope()
	defer g.popScope()
	for _, stmt := range b.Children {
		terminated, err := g.genStmt(stmt)
		if err != nil {
			return false, err
		}
		if terminated {
			return true, nil
		}
	}
	return false, nil
}

// genStmt dispatches one statement node, mirroring the teacher's gen
// dispatch switch in transform.go generalized to lency's statement set.
func (g *genState) genStmt(s *ast.Node) (bool, error) {
	switch s.Kind {
	case ast.VAR_DECL_STMT:
		return false, g.genVarDecl(s)
	case ast.ASSIGN_STMT:
		return false, g.genAssign(s)
	case ast.EXPR_STMT:
		_, err := g.genExpr(s.Children[0])
		return false, err
	case ast.BLOCK:
		return g.genBlock(s)
	case ast.IF_STMT:
		return g.genIf(s)
	case ast.WHILE_STMT:
		return g.genWhile(s)
	case ast.FOR_STMT:
		return g.genFor(s)
	case ast.FOR_IN_STMT:
		return g.genForIn(s)
	case ast.RETURN_STMT:
		return true, g.genReturn(s)
	case ast.BREAK_STMT:
		return true, g.genBreak(s)
	case ast.CONTINUE_STMT:
		return true, g.genContinue(s)
	default:
		return false, fmt.Errorf("codegen: unsupported statement node %s", s.KindName())
	}
}

// genVarDecl allocates a stack slot for the declared variable and stores
// its initializer, if any -- a declaration without one gets a null/zero
// slot so the alloca is never read uninitialized by a later GEP-and-load.
func (g *genState) genVarDecl(s *ast.Node) error {
	name, _ := s.Data.(string)
	ty := s.ResolvedType
	lt, err := g.c.llvmType(ty)
	if err != nil {
		return err
	}
	alloc := g.b.CreateAlloca(lt, "")
	if len(s.Children) > 0 {
		v, err := g.genExpr(s.Children[0])
		if err != nil {
			return err
		}
		v, err = g.coerce(v, s.Children[0].ResolvedType, ty)
		if err != nil {
			return err
		}
		g.b.CreateStore(v, alloc)
	} else {
		g.b.CreateStore(llvm.ConstNull(lt), alloc)
	}
	g.define(name, &varSlot{ptr: alloc, ty: ty})
	return nil
}

// genAssign stores rhs through the address lhs resolves to (identifier,
// field, or index target), applying the same implicit widening/bitcast
// coercion as a variable initializer.
func (g *genState) genAssign(s *ast.Node) error {
	lhs, rhs := s.Children[0], s.Children[1]
	addr, err := g.lvalueAddr(lhs)
	if err != nil {
		return err
	}
	v, err := g.genExpr(rhs)
	if err != nil {
		return err
	}
	v, err = g.coerce(v, rhs.ResolvedType, lhs.ResolvedType)
	if err != nil {
		return err
	}
	g.b.CreateStore(v, addr)
	return nil
}

// genIf lowers IF_STMT with the teacher's then/else/ifcont block naming
// (genIf in transform.go), generalized to lency's optional else branch
// and to skipping the converge branch on an arm that already terminated
// (return/break/continue), matching allPathsReturn's own structural
// rules in internal/types/check.go so the emitted IR never has a block
// with two terminators.
func (g *genState) genIf(s *ast.Node) (bool, error) {
	cond, err := g.genExpr(s.Children[0])
	if err != nil {
		return false, err
	}
	thenNode := s.Children[1]
	var elseNode *ast.Node
	if len(s.Children) > 2 {
		elseNode = s.Children[2]
	}

	thenBB := g.c.llctx.AddBasicBlock(g.fn, "then")
	elseBB := g.c.llctx.AddBasicBlock(g.fn, "else")
	contBB := g.c.llctx.AddBasicBlock(g.fn, "ifcont")

	g.b.CreateCondBr(cond, thenBB, elseBB)

	g.b.SetInsertPointAtEnd(thenBB)
	thenTerm, err := g.genStmt(thenNode)
	if err != nil {
		return false, err
	}
	if !thenTerm {
		g.b.CreateBr(contBB)
	}

	g.b.SetInsertPointAtEnd(elseBB)
	elseTerm := false
	if elseNode != nil {
		elseTerm, err = g.genStmt(elseNode)
		if err != nil {
			return false, err
		}
	}
	if !elseTerm {
		g.b.CreateBr(contBB)
	}

	if thenTerm && elseTerm {
		contBB.EraseFromParent()
		return true, nil
	}
	g.b.SetInsertPointAtEnd(contBB)
	return false, nil
}

// genWhile lowers WHILE_STMT with the teacher's cond/body/end block
// naming (genWhile in transform.go), pushing a loopTargets entry so
// nested break/continue resolve to this loop's blocks.
func (g *genState) genWhile(s *ast.Node) (bool, error) {
	condNode, bodyNode := s.Children[0], s.Children[1]

	condBB := g.c.llctx.AddBasicBlock(g.fn, "cond")
	bodyBB := g.c.llctx.AddBasicBlock(g.fn, "body")
	endBB := g.c.llctx.AddBasicBlock(g.fn, "end")

	g.b.CreateBr(condBB)

	g.b.SetInsertPointAtEnd(condBB)
	cond, err := g.genExpr(condNode)
	if err != nil {
		return false, err
	}
	g.b.CreateCondBr(cond, bodyBB, endBB)

	g.b.SetInsertPointAtEnd(bodyBB)
	g.loops = append(g.loops, loopTargets{continueTo: condBB, breakTo: endBB})
	bodyTerm, err := g.genStmt(bodyNode)
	g.loops = g.loops[:len(g.loops)-1]
	if err != nil {
		return false, err
	}
	if !bodyTerm {
		g.b.CreateBr(condBB)
	}

	g.b.SetInsertPointAtEnd(endBB)
	return false, nil
}

// genFor lowers FOR_STMT (init; cond; step) with an extra `inc` block
// between body and cond, per spec.md §4.7's "for adds an inc block
// between body and cond." Any of the three clauses may be nil (an
// omitted clause, per internal/frontend/parser.go's parseFor); a nil
// cond means "loop forever" (only break/return can exit).
func (g *genState) genFor(s *ast.Node) (bool, error) {
	initNode, condNode, stepNode, bodyNode := s.Children[0], s.Children[1], s.Children[2], s.Children[3]

	g.pushScope()
	defer g.popScope()

	if initNode != nil {
		if _, err := g.genStmt(initNode); err != nil {
			return false, err
		}
	}

	condBB := g.c.llctx.AddBasicBlock(g.fn, "cond")
	bodyBB := g.c.llctx.AddBasicBlock(g.fn, "body")
	incBB := g.c.llctx.AddBasicBlock(g.fn, "inc")
	endBB := g.c.llctx.AddBasicBlock(g.fn, "end")

	g.b.CreateBr(condBB)

	g.b.SetInsertPointAtEnd(condBB)
	if condNode != nil {
		cond, err := g.genExpr(condNode)
		if err != nil {
			return false, err
		}
		g.b.CreateCondBr(cond, bodyBB, endBB)
	} else {
		g.b.CreateBr(bodyBB)
	}

	g.b.SetInsertPointAtEnd(bodyBB)
	g.loops = append(g.loops, loopTargets{continueTo: incBB, breakTo: endBB})
	bodyTerm, err := g.genStmt(bodyNode)
	g.loops = g.loops[:len(g.loops)-1]
	if err != nil {
		return false, err
	}
	if !bodyTerm {
		g.b.CreateBr(incBB)
	}

	g.b.SetInsertPointAtEnd(incBB)
	if stepNode != nil {
		if _, err := g.genStmt(stepNode); err != nil {
			return false, err
		}
	}
	g.b.CreateBr(condBB)

	g.b.SetInsertPointAtEnd(endBB)
	return false, nil
}

// genForIn lowers FOR_IN_STMT over a fixed Array: an index variable is
// allocated, loaded/bound/compared/incremented explicitly since arrays
// have no iterator protocol, per spec.md §4.7's "for-in over arrays
// allocates index+loads+binds+cond/body/inc/end."
func (g *genState) genForIn(s *ast.Node) (bool, error) {
	bindName, _ := s.Data.(string)
	iterNode, bodyNode := s.Children[0], s.Children[1]
	arrTy := iterNode.ResolvedType

	g.pushScope()
	defer g.popScope()

	iterAddr, err := g.lvalueAddr(iterNode)
	if err != nil {
		return false, err
	}

	i32 := g.c.llctx.Int32Type()
	idxSlot := g.b.CreateAlloca(i32, "")
	g.b.CreateStore(llvm.ConstInt(i32, 0, false), idxSlot)

	elemLT, err := g.c.llvmType(arrTy.Elem)
	if err != nil {
		return false, err
	}
	bindSlot := g.b.CreateAlloca(elemLT, "")
	g.define(bindName, &varSlot{ptr: bindSlot, ty: arrTy.Elem})

	condBB := g.c.llctx.AddBasicBlock(g.fn, "cond")
	bodyBB := g.c.llctx.AddBasicBlock(g.fn, "body")
	incBB := g.c.llctx.AddBasicBlock(g.fn, "inc")
	endBB := g.c.llctx.AddBasicBlock(g.fn, "end")

	g.b.CreateBr(condBB)

	g.b.SetInsertPointAtEnd(condBB)
	idx := g.b.CreateLoad(idxSlot, "")
	cond := g.b.CreateICmp(llvm.IntSLT, idx, llvm.ConstInt(i32, uint64(arrTy.Size), false), "")
	g.b.CreateCondBr(cond, bodyBB, endBB)

	g.b.SetInsertPointAtEnd(bodyBB)
	idx = g.b.CreateLoad(idxSlot, "")
	elemAddr := g.b.CreateInBoundsGEP(iterAddr, []llvm.Value{llvm.ConstInt(i32, 0, false), idx}, "")
	g.b.CreateStore(g.b.CreateLoad(elemAddr, ""), bindSlot)

	g.loops = append(g.loops, loopTargets{continueTo: incBB, breakTo: endBB})
	bodyTerm, err := g.genStmt(bodyNode)
	g.loops = g.loops[:len(g.loops)-1]
	if err != nil {
		return false, err
	}
	if !bodyTerm {
		g.b.CreateBr(incBB)
	}

	g.b.SetInsertPointAtEnd(incBB)
	idx = g.b.CreateLoad(idxSlot, "")
	next := g.b.CreateAdd(idx, llvm.ConstInt(i32, 1, false), "")
	g.b.CreateStore(next, idxSlot)
	g.b.CreateBr(condBB)

	g.b.SetInsertPointAtEnd(endBB)
	return false, nil
}

func (g *genState) genReturn(s *ast.Node) error {
	if len(s.Children) == 0 {
		g.b.CreateRetVoid()
		return nil
	}
	v, err := g.genExpr(s.Children[0])
	if err != nil {
		return err
	}
	v, err = g.coerce(v, s.Children[0].ResolvedType, g.ret)
	if err != nil {
		return err
	}
	g.b.CreateRet(v)
	return nil
}

func (g *genState) genBreak(s *ast.Node) error {
	if len(g.loops) == 0 {
		return fmt.Errorf("codegen: break outside of a loop")
	}
	g.b.CreateBr(g.loops[len(g.loops)-1].breakTo)
	return nil
}

func (g *genState) genContinue(s *ast.Node) error {
	if len(g.loops) == 0 {
		return fmt.Errorf("codegen: continue outside of a loop")
	}
	g.b.CreateBr(g.loops[len(g.loops)-1].continueTo)
	return nil
}
