package types

import (
	"testing"

	"github.com/lency-lang/lency/internal/ast"
	"github.com/lency-lang/lency/internal/diag"
	"github.com/lency-lang/lency/internal/frontend"
	"github.com/lency-lang/lency/internal/resolver"
)

func checkSource(t *testing.T, src string) *diag.Sink {
	t.Helper()
	sink := diag.NewSink()
	prog := frontend.Parse(src, sink)
	if sink.HasErrors() {
		t.Fatalf("unexpected parse diagnostics: %+v", sink.Diagnostics())
	}
	r := resolver.New(sink, "/root", func(string) (string, error) { return "", nil }, frontend.Parse)
	r.Resolve(prog)
	if sink.HasErrors() {
		t.Fatalf("unexpected resolve diagnostics: %+v", sink.Diagnostics())
	}
	c := NewChecker(r.Table, sink)
	c.CheckProgram(prog)
	return sink
}

func TestCheckArithmeticRoundTrip(t *testing.T) {
	sink := checkSource(t, `fn main() -> int { var x = 20; return x + 22; }`)
	if sink.HasErrors() {
		t.Fatalf("unexpected diagnostics: %+v", sink.Diagnostics())
	}
}

func TestCheckMissingReturn(t *testing.T) {
	sink := checkSource(t, `fn f() -> int { var x = 1; }`)
	if !sink.HasErrors() {
		t.Fatalf("expected missing-return diagnostic")
	}
}

func TestCheckBreakOutsideLoop(t *testing.T) {
	sink := checkSource(t, `fn f() -> void { break; }`)
	if !sink.HasErrors() {
		t.Fatalf("expected break-outside-loop diagnostic")
	}
}

func TestCheckIfElseBothReturnSatisfiesMissingReturn(t *testing.T) {
	sink := checkSource(t, `
fn f(x: int) -> int {
	if x == 1 {
		return 1;
	} else {
		return 2;
	}
}
`)
	if sink.HasErrors() {
		t.Fatalf("unexpected diagnostics: %+v", sink.Diagnostics())
	}
}

func TestCheckIntWidensToFloat(t *testing.T) {
	sink := checkSource(t, `fn f() -> float { return 1; }`)
	if sink.HasErrors() {
		t.Fatalf("unexpected diagnostics for Int->Float widening: %+v", sink.Diagnostics())
	}
}

func TestCheckReturnTypeMismatch(t *testing.T) {
	sink := checkSource(t, `fn f() -> int { return "hi"; }`)
	if !sink.HasErrors() {
		t.Fatalf("expected return-type mismatch diagnostic")
	}
}

func TestCheckConditionMustBeBool(t *testing.T) {
	sink := checkSource(t, `fn f() -> void { if 1 { } }`)
	if !sink.HasErrors() {
		t.Fatalf("expected condition-must-be-bool diagnostic")
	}
}

func TestCheckEqualityRejectsUnrelatedTypes(t *testing.T) {
	sink := checkSource(t, `fn f() -> void { if 1 == "x" { } }`)
	if !sink.HasErrors() {
		t.Fatalf("expected invalid-binary-op diagnostic for int == string")
	}
}

func TestCheckForInLoopVariableHasElementType(t *testing.T) {
	sink := checkSource(t, `
fn sum(xs: [3]int) -> int {
	var total = 0;
	for x in xs {
		total = total + x;
	}
	return total;
}
`)
	if sink.HasErrors() {
		t.Fatalf("unexpected diagnostics: %+v", sink.Diagnostics())
	}
}

func TestCompatibleReflexivity(t *testing.T) {
	// spec.md §8: T >= T for every T except Error (which is compatible
	// with everything, not reflexively identical by convention).
	for _, ty := range []*ast.Type{
		ast.Int, ast.Float, ast.Bool, ast.String, ast.Void,
		ast.NewNullable(ast.Int), ast.NewVec(ast.String), ast.NewArray(ast.Int, 3),
		ast.NewStruct("Point"),
	} {
		if !Compatible(ty, ty) {
			t.Errorf("expected %s to be compatible with itself", ty.DisplayName())
		}
	}
}
