package resolver

import (
	"fmt"
	"testing"

	"github.com/lency-lang/lency/internal/diag"
	"github.com/lency-lang/lency/internal/frontend"
)

func noReader(path string) (string, error) {
	return "", fmt.Errorf("no such import fixture: %s", path)
}

func TestResolveUndefinedVariable(t *testing.T) {
	// Scenario 2 of spec.md §8.
	sink := diag.NewSink()
	prog := frontend.Parse(`fn main() -> int { return x; }`, sink)
	r := New(sink, "/root", noReader, frontend.Parse)
	r.Resolve(prog)
	if !sink.HasErrors() {
		t.Fatalf("expected an undefined-variable diagnostic")
	}
}

func TestResolveDefinedVariable(t *testing.T) {
	sink := diag.NewSink()
	prog := frontend.Parse(`fn main() -> int { var x = 1; return x; }`, sink)
	r := New(sink, "/root", noReader, frontend.Parse)
	r.Resolve(prog)
	if sink.HasErrors() {
		t.Fatalf("unexpected diagnostics: %+v", sink.Diagnostics())
	}
}

func TestResolveGenericArityMismatch(t *testing.T) {
	sink := diag.NewSink()
	prog := frontend.Parse(`
struct Box<T> { value: T }
fn main() -> int {
	var a: Box<int, int> = Box<int>{value: 1};
	return 0;
}
`, sink)
	r := New(sink, "/root", noReader, frontend.Parse)
	r.Resolve(prog)
	if !sink.HasErrors() {
		t.Fatalf("expected generic arity mismatch diagnostic")
	}
}

func TestResolveUndefinedType(t *testing.T) {
	sink := diag.NewSink()
	prog := frontend.Parse(`fn f(x: Nope) -> int { return 0; }`, sink)
	r := New(sink, "/root", noReader, frontend.Parse)
	r.Resolve(prog)
	if !sink.HasErrors() {
		t.Fatalf("expected undefined-type diagnostic")
	}
}

func TestResolveImplMethodMangledName(t *testing.T) {
	sink := diag.NewSink()
	prog := frontend.Parse(`
struct Point { x: int }
impl Point {
	fn sum() -> int { return 0; }
}
`, sink)
	r := New(sink, "/root", noReader, frontend.Parse)
	r.Resolve(prog)
	if sink.HasErrors() {
		t.Fatalf("unexpected diagnostics: %+v", sink.Diagnostics())
	}
	if _, ok := r.Table.LookupFrom("Point_sum", 0); !ok {
		t.Fatalf("expected mangled method symbol Point_sum to be registered")
	}
}

func TestResolveShadowingAllowedInNestedScope(t *testing.T) {
	sink := diag.NewSink()
	prog := frontend.Parse(`
fn main() -> int {
	var x = 1;
	if x == 1 {
		var x = 2;
		return x;
	}
	return x;
}
`, sink)
	r := New(sink, "/root", noReader, frontend.Parse)
	r.Resolve(prog)
	if sink.HasErrors() {
		t.Fatalf("unexpected diagnostics for legal shadowing: %+v", sink.Diagnostics())
	}
}
