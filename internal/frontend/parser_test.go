package frontend

import (
	"testing"

	"github.com/lency-lang/lency/internal/ast"
	"github.com/lency-lang/lency/internal/diag"
)

func TestParseArithmeticRoundTrip(t *testing.T) {
	// Scenario 1 of spec.md §8's end-to-end scenarios.
	sink := diag.NewSink()
	prog := Parse(`fn main() -> int { var x = 20; return x + 22; }`, sink)
	if sink.HasErrors() {
		t.Fatalf("unexpected diagnostics: %+v", sink.Diagnostics())
	}
	if len(prog.Children) != 1 || prog.Children[0].Kind != ast.FUNCTION_DECL {
		t.Fatalf("expected single FUNCTION_DECL, got %+v", prog.Children)
	}
	fn := prog.Children[0]
	if fn.Data.(string) != "main" {
		t.Fatalf("expected function named main, got %v", fn.Data)
	}
}

func TestParseUndefinedVariableStillParses(t *testing.T) {
	// Scenario 2: parsing succeeds; resolution is a later stage's job.
	sink := diag.NewSink()
	prog := Parse(`fn main() -> int { return x; }`, sink)
	if sink.HasErrors() {
		t.Fatalf("unexpected parse diagnostics: %+v", sink.Diagnostics())
	}
	if len(prog.Children) != 1 {
		t.Fatalf("expected one declaration")
	}
}

func TestParseStructAndImpl(t *testing.T) {
	sink := diag.NewSink()
	prog := Parse(`
struct Point { x: int, y: int }
impl Point {
	fn sum() -> int { return 0; }
}
`, sink)
	if sink.HasErrors() {
		t.Fatalf("unexpected diagnostics: %+v", sink.Diagnostics())
	}
	if len(prog.Children) != 2 {
		t.Fatalf("expected struct + impl, got %d decls", len(prog.Children))
	}
	if prog.Children[0].Kind != ast.STRUCT_DECL || prog.Children[1].Kind != ast.IMPL_DECL {
		t.Fatalf("unexpected decl kinds: %v %v", prog.Children[0].KindName(), prog.Children[1].KindName())
	}
}

func TestParseGenericBoxMonomorphizationFixture(t *testing.T) {
	// Scenario 5 fixture source.
	sink := diag.NewSink()
	prog := Parse(`
struct Box<T> { value: T }
fn main() -> int {
	var a = Box<int>{value: 1};
	var b = Box<string>{value: "x"};
	return 0;
}
`, sink)
	if sink.HasErrors() {
		t.Fatalf("unexpected diagnostics: %+v", sink.Diagnostics())
	}
	if prog.Children[0].Kind != ast.STRUCT_DECL {
		t.Fatalf("expected struct decl first")
	}
}

func TestParseMatchExpr(t *testing.T) {
	// Scenario 6 fixture source.
	sink := diag.NewSink()
	prog := Parse(`
enum E { A, B }
fn f(e: E) -> int { return match e { E.A => 1, E.B => 2 }; }
`, sink)
	if sink.HasErrors() {
		t.Fatalf("unexpected diagnostics: %+v", sink.Diagnostics())
	}
	fn := prog.Children[1]
	if fn.Kind != ast.FUNCTION_DECL {
		t.Fatalf("expected function decl")
	}
}

func TestParseNullAssignmentGuardFixture(t *testing.T) {
	// Scenario 3 fixture source -- parses fine, nullsafe catches it later.
	sink := diag.NewSink()
	Parse(`fn main() -> int { var s: string = null; return 0; }`, sink)
	if sink.HasErrors() {
		t.Fatalf("unexpected parse diagnostics: %+v", sink.Diagnostics())
	}
}

func TestParseFlowSensitiveNarrowingFixture(t *testing.T) {
	// Scenario 4 fixture source.
	sink := diag.NewSink()
	prog := Parse(`fn f(s: string?) -> int { if s != null { return s.length; } return 0; }`, sink)
	if sink.HasErrors() {
		t.Fatalf("unexpected parse diagnostics: %+v", sink.Diagnostics())
	}
	if len(prog.Children) != 1 {
		t.Fatalf("expected single function decl")
	}
}
