package mono

import (
	"testing"

	"github.com/lency-lang/lency/internal/ast"
	"github.com/lency-lang/lency/internal/diag"
	"github.com/lency-lang/lency/internal/frontend"
	"github.com/lency-lang/lency/internal/resolver"
)

func resolveSource(t *testing.T, src string) (*ast.Node, *diag.Sink) {
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
	return prog, sink
}

func TestMangleBasicTypes(t *testing.T) {
	cases := []struct {
		ty   *ast.Type
		want string
	}{
		{ast.Int, "int"},
		{ast.Float, "float"},
		{ast.Bool, "bool"},
		{ast.String, "string"},
		{ast.Void, "void"},
		{ast.NewStruct("MyStruct"), "MyStruct"},
	}
	for _, c := range cases {
		if got := Mangle(c.ty); got != c.want {
			t.Errorf("Mangle(%s) = %q, want %q", c.ty.DisplayName(), got, c.want)
		}
	}
}

func TestMangleGenericInstantiation(t *testing.T) {
	ty := ast.NewGeneric("Box", []*ast.Type{ast.Int})
	if got, want := Mangle(ty), "Box__int"; got != want {
		t.Errorf("Mangle(Box<int>) = %q, want %q", got, want)
	}
}

func TestMangleNestedVecTruncatesAndHashes(t *testing.T) {
	ty := ast.Int
	for i := 0; i < 20; i++ {
		ty = ast.NewVec(ty)
	}
	mangled := Mangle(ty)
	if len(mangled) > 34 {
		t.Fatalf("expected truncated+hashed name <= 34 chars, got %d: %s", len(mangled), mangled)
	}
	if mangled == "" {
		t.Fatalf("expected non-empty mangled name")
	}
}

func TestMangleDeterministic(t *testing.T) {
	ty := ast.Int
	for i := 0; i < 20; i++ {
		ty = ast.NewVec(ty)
	}
	if Mangle(ty) != Mangle(ty) {
		t.Fatalf("expected Mangle to be deterministic across calls")
	}
}

func TestSpecializeGenericStruct(t *testing.T) {
	prog, sink := resolveSource(t, `
struct Box<T> {
	value: T,
}
fn main() -> int {
	var b = Box<int>{value: 1};
	return 0;
}
`)
	m := New(sink)
	if err := m.Specialize(prog); err != nil {
		t.Fatalf("unexpected specialization error: %v", err)
	}
	specs := m.Specializations()
	if len(specs) != 1 {
		t.Fatalf("expected exactly 1 specialization, got %d", len(specs))
	}
	if want := "Box__int"; specs[0].Mangled != want {
		t.Errorf("mangled name = %q, want %q", specs[0].Mangled, want)
	}

	var field *ast.Node
	for _, c := range specs[0].Decl.Children {
		if c.Kind == ast.STRUCT_FIELD {
			field = c
		}
	}
	if field == nil {
		t.Fatalf("specialized struct lost its field")
	}
	if field.ResolvedType.Kind != ast.KindInt {
		t.Errorf("field type after substitution = %s, want int", field.ResolvedType.DisplayName())
	}
}

func TestSpecializationDedupedAcrossSites(t *testing.T) {
	prog, sink := resolveSource(t, `
struct Box<T> {
	value: T,
}
fn main() -> int {
	var a = Box<int>{value: 1};
	var b = Box<int>{value: 2};
	return 0;
}
`)
	m := New(sink)
	if err := m.Specialize(prog); err != nil {
		t.Fatalf("unexpected specialization error: %v", err)
	}
	if len(m.Specializations()) != 1 {
		t.Fatalf("expected the two Box<int> sites to dedup to 1 specialization, got %d", len(m.Specializations()))
	}
}

func TestSpecializeDistinctTypeArgsProduceDistinctSpecializations(t *testing.T) {
	prog, sink := resolveSource(t, `
struct Box<T> {
	value: T,
}
fn main() -> int {
	var a = Box<int>{value: 1};
	var b = Box<string>{value: "hi"};
	return 0;
}
`)
	m := New(sink)
	if err := m.Specialize(prog); err != nil {
		t.Fatalf("unexpected specialization error: %v", err)
	}
	if len(m.Specializations()) != 2 {
		t.Fatalf("expected 2 distinct specializations, got %d", len(m.Specializations()))
	}
}

func TestSpecializeArityMismatchIsFatal(t *testing.T) {
	prog, sink := resolveSource(t, `
struct Pair<A, B> {
	first: A,
	second: B,
}
fn main() -> int {
	var p = Pair<int>{first: 1};
	return 0;
}
`)
	m := New(sink)
	if err := m.Specialize(prog); err == nil {
		t.Fatalf("expected a fatal error for a generic-arity mismatch")
	}
}

func TestMangledNameForSite(t *testing.T) {
	prog, sink := resolveSource(t, `
struct Box<T> {
	value: T,
}
fn main() -> int {
	var a = Box<int>{value: 1};
	return 0;
}
`)
	m := New(sink)
	if err := m.Specialize(prog); err != nil {
		t.Fatalf("unexpected specialization error: %v", err)
	}

	var site *ast.Node
	var walk func(n *ast.Node)
	walk = func(n *ast.Node) {
		if n == nil || site != nil {
			return
		}
		if n.Kind == ast.GENERIC_INSTANTIATION_EXPR {
			site = n
			return
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	for _, d := range prog.Children {
		walk(d)
	}
	if site == nil {
		t.Fatalf("expected to find the GENERIC_INSTANTIATION_EXPR site in the resolved tree")
	}
	name, ok := m.MangledNameFor(site)
	if !ok || name != "Box__int" {
		t.Errorf("MangledNameFor(site) = (%q, %v), want (\"Box__int\", true)", name, ok)
	}
}
