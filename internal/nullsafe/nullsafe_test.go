package nullsafe

import (
	"testing"

	"github.com/lency-lang/lency/internal/diag"
	"github.com/lency-lang/lency/internal/frontend"
	"github.com/lency-lang/lency/internal/resolver"
	"github.com/lency-lang/lency/internal/types"
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
	tc := types.NewChecker(r.Table, sink)
	tc.CheckProgram(prog)
	if sink.HasErrors() {
		t.Fatalf("unexpected type-check diagnostics: %+v", sink.Diagnostics())
	}

	nc := NewChecker(r.Table, sink)
	nc.CheckProgram(prog)
	return sink
}

func TestNullAssignmentToNonNullableRejected(t *testing.T) {
	sink := checkSource(t, `fn f() -> void { var x: int = null; }`)
	if !sink.HasErrors() {
		t.Fatalf("expected null-assignment diagnostic")
	}
}

func TestNullAssignmentToNullableAccepted(t *testing.T) {
	sink := checkSource(t, `fn f() -> void { var x: int? = null; }`)
	if sink.HasErrors() {
		t.Fatalf("unexpected diagnostics: %+v", sink.Diagnostics())
	}
}

func TestPossibleNullFieldAccessRejected(t *testing.T) {
	sink := checkSource(t, `
struct Box { value: int }
fn f(b: Box?) -> int {
	return b.value;
}
`)
	if !sink.HasErrors() {
		t.Fatalf("expected possible-null-access diagnostic")
	}
}

func TestSafeNavigationFieldAccessAccepted(t *testing.T) {
	sink := checkSource(t, `
struct Box { value: int }
fn f(b: Box?) -> int? {
	return b?.value;
}
`)
	if sink.HasErrors() {
		t.Fatalf("unexpected diagnostics: %+v", sink.Diagnostics())
	}
}

func TestFlowSensitiveNarrowingRoundTrip(t *testing.T) {
	// spec.md §8: wrapping a non-null value behind `if v != null { use(v) }`
	// never produces a null-access diagnostic inside the then-branch.
	sink := checkSource(t, `
struct Box { value: int }
fn use(b: Box) -> int { return b.value; }
fn f(b: Box?) -> int {
	if b != null {
		return use(b);
	}
	return 0;
}
`)
	if sink.HasErrors() {
		t.Fatalf("unexpected diagnostics: %+v", sink.Diagnostics())
	}
}

func TestNarrowingDoesNotEscapeThenBranch(t *testing.T) {
	sink := checkSource(t, `
struct Box { value: int }
fn f(b: Box?) -> int {
	if b != null {
		return b.value;
	}
	return b.value;
}
`)
	if !sink.HasErrors() {
		t.Fatalf("expected possible-null-access diagnostic outside the narrowed branch")
	}
}

func TestNarrowingDoesNotPropagateThroughLoops(t *testing.T) {
	sink := checkSource(t, `
struct Box { value: int }
fn f(b: Box?) -> void {
	while b != null {
		var v = b.value;
	}
}
`)
	if !sink.HasErrors() {
		t.Fatalf("expected possible-null-access diagnostic inside loop body")
	}
}

func TestUnnecessaryElvisWarning(t *testing.T) {
	sink := checkSource(t, `fn f() -> int { var x = 1; return x ?? 2; }`)
	if !sink.HasErrors() && sink.Len() == 0 {
		t.Fatalf("expected unnecessary-elvis warning")
	}
}

func TestNecessaryElvisNoWarning(t *testing.T) {
	sink := checkSource(t, `fn f(x: int?) -> int { return x ?? 2; }`)
	for _, d := range sink.Diagnostics() {
		t.Errorf("unexpected diagnostic for necessary '??': %+v", d)
	}
}
