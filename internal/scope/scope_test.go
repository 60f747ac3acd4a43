package scope

import (
	"testing"

	"github.com/lency-lang/lency/internal/ast"
)

func TestDefineAndLookup(t *testing.T) {
	tbl := NewTable()
	if _, err := tbl.DefineCurrent(&Symbol{Name: "x", Type: ast.Int}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sym, ok := tbl.Lookup("x")
	if !ok {
		t.Fatalf("expected to find x")
	}
	if sym.Type != ast.Int {
		t.Fatalf("expected Int, got %v", sym.Type)
	}
}

func TestRedefinitionInSameScope(t *testing.T) {
	tbl := NewTable()
	if _, err := tbl.DefineCurrent(&Symbol{Name: "x", Type: ast.Int}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err := tbl.DefineCurrent(&Symbol{Name: "x", Type: ast.Float})
	if err == nil {
		t.Fatalf("expected Redefinition error")
	}
	if _, ok := err.(*Redefinition); !ok {
		t.Fatalf("expected *Redefinition, got %T", err)
	}
}

func TestShadowingAcrossScopesAllowed(t *testing.T) {
	tbl := NewTable()
	if _, err := tbl.DefineCurrent(&Symbol{Name: "x", Type: ast.Int}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	child := tbl.Enter(Block)
	if _, err := tbl.Define(child, &Symbol{Name: "x", Type: ast.String}); err != nil {
		t.Fatalf("shadowing should be allowed: %v", err)
	}
	sym, ok := tbl.LookupFrom("x", child)
	if !ok || sym.Type != ast.String {
		t.Fatalf("expected shadowed String, got %v, ok=%v", sym, ok)
	}
	tbl.Exit()
	sym, ok = tbl.Lookup("x")
	if !ok || sym.Type != ast.Int {
		t.Fatalf("expected outer Int after exit, got %v, ok=%v", sym, ok)
	}
}

func TestLookupWalksParentChain(t *testing.T) {
	tbl := NewTable()
	tbl.DefineCurrent(&Symbol{Name: "g", Type: ast.Bool})
	child := tbl.Enter(Function)
	grandchild := tbl.EnterAt(Block, child)
	sym, ok := tbl.LookupFrom("g", grandchild)
	if !ok || sym.Type != ast.Bool {
		t.Fatalf("expected to find g through parent chain, got %v, ok=%v", sym, ok)
	}
}

func TestLookupUndefinedFails(t *testing.T) {
	tbl := NewTable()
	if _, ok := tbl.Lookup("nope"); ok {
		t.Fatalf("expected lookup of undefined name to fail")
	}
}

func TestChildrenOfStableOrder(t *testing.T) {
	tbl := NewTable()
	a := tbl.EnterAt(Block, 0)
	b := tbl.EnterAt(Block, 0)
	children := tbl.ChildrenOf(0)
	if len(children) != 2 || children[0] != a || children[1] != b {
		t.Fatalf("expected [%v %v], got %v", a, b, children)
	}
}

func TestRefinementOverlay(t *testing.T) {
	tbl := NewTable()
	tbl.DefineCurrent(&Symbol{Name: "n", Type: ast.NewNullable(ast.Int)})
	block := tbl.Enter(Block)
	tbl.Refine(block, "n", ast.Int)

	ty, ok := tbl.EffectiveType("n", block)
	if !ok || ty != ast.Int {
		t.Fatalf("expected refined Int, got %v ok=%v", ty, ok)
	}

	tbl.ClearRefinement(block, "n")
	ty, ok = tbl.EffectiveType("n", block)
	if !ok || !ty.IsNullable() {
		t.Fatalf("expected declared Nullable(Int) after clearing refinement, got %v ok=%v", ty, ok)
	}
}

func TestSetCurrentRepositions(t *testing.T) {
	tbl := NewTable()
	child := tbl.Enter(Block)
	tbl.Exit()
	if tbl.Current() != 0 {
		t.Fatalf("expected back at global after Exit")
	}
	tbl.SetCurrent(child)
	if tbl.Current() != child {
		t.Fatalf("expected SetCurrent to reposition to %v, got %v", child, tbl.Current())
	}
}
