package codegen

import (
	"fmt"
	"strings"

	"tinygo.org/x/go-llvm"

	"github.com/lency-lang/lency/internal/ast"
)

// genMatch lowers a MATCH_EXPR. internal/frontend/parser.go's parseMatch
// only ever produces a wildcard ("_") or a dotted-path pattern per arm,
// so -- since enum values are represented as a bare i32 tag
// (registerEnumBody) -- every non-wildcard arm becomes one switch case
// comparing the subject's tag against the named variant's registered
// index, and the wildcard arm (if present) becomes the switch's default.
// A phi at a trailing merge block joins every arm's result to the
// LUB type internal/types.inferMatch already computed. An arm list with
// no wildcard and fewer cases than the enum has variants lowers its
// default target to `unreachable`, per spec.md §4.7 -- internal/resolver
// and internal/types never verify match exhaustiveness, so a
// non-exhaustive match is a real possibility at runtime, not just a
// defensive fallback.
func (g *genState) genMatch(e *ast.Node) (llvm.Value, error) {
	subject := e.Children[0]
	arms := e.Children[1:]

	subjTy := subject.ResolvedType
	if subjTy == nil || subjTy.Kind != ast.KindEnum {
		return llvm.Value{}, fmt.Errorf("codegen: match subject must be an enum value, found %s", subjTy.DisplayName())
	}
	tagVal, err := g.genExpr(subject)
	if err != nil {
		return llvm.Value{}, err
	}
	variants := g.c.enumVariantTag[subjTy.Name]

	mergeBB := g.c.llctx.AddBasicBlock(g.fn, "match_merge")

	var defaultBB llvm.BasicBlock
	hasWildcard := false
	for _, a := range arms {
		pat, _ := a.Data.(string)
		if pat == "_" {
			hasWildcard = true
		}
	}
	if !hasWildcard {
		defaultBB = g.c.llctx.AddBasicBlock(g.fn, "match_unreachable")
	}

	resultTy, err := g.c.llvmType(e.ResolvedType)
	if err != nil {
		return llvm.Value{}, err
	}

	type incoming struct {
		val llvm.Value
		bb  llvm.BasicBlock
	}
	var incomings []incoming

	// Arm blocks must all exist before the switch references them, since
	// the wildcard arm's block doubles as the switch's default target.
	armBBs := make([]llvm.BasicBlock, len(arms))
	for i := range arms {
		armBBs[i] = g.c.llctx.AddBasicBlock(g.fn, "match_arm")
		if pat, _ := arms[i].Data.(string); pat == "_" {
			defaultBB = armBBs[i]
		}
	}

	sw := g.b.CreateSwitch(tagVal, defaultBB, len(arms))
	for i, a := range arms {
		pat, _ := a.Data.(string)
		if pat == "_" {
			continue
		}
		parts := strings.Split(pat, ".")
		variantName := parts[len(parts)-1]
		idx, ok := variants[variantName]
		if !ok {
			return llvm.Value{}, fmt.Errorf("codegen: enum %q has no variant %q", subjTy.Name, variantName)
		}
		sw.AddCase(llvm.ConstInt(g.c.llctx.Int32Type(), uint64(idx), false), armBBs[i])
	}

	for i, a := range arms {
		g.b.SetInsertPointAtEnd(armBBs[i])
		body := a.Children[0]
		v, err := g.genExpr(body)
		if err != nil {
			return llvm.Value{}, err
		}
		v, _ = g.coerce(v, body.ResolvedType, e.ResolvedType)
		incomings = append(incomings, incoming{val: v, bb: g.b.GetInsertBlock()})
		g.b.CreateBr(mergeBB)
	}

	if !hasWildcard {
		g.b.SetInsertPointAtEnd(defaultBB)
		g.b.CreateUnreachable()
	}

	g.b.SetInsertPointAtEnd(mergeBB)
	if e.ResolvedType == nil || e.ResolvedType.Kind == ast.KindVoid {
		return llvm.Value{}, nil
	}
	phi := g.b.CreatePHI(resultTy, "")
	vals := make([]llvm.Value, len(incomings))
	bbs := make([]llvm.BasicBlock, len(incomings))
	for i, inc := range incomings {
		vals[i] = inc.val
		bbs[i] = inc.bb
	}
	phi.AddIncoming(vals, bbs)
	return phi, nil
}
