package codegen

import (
	"strings"
	"testing"

	"github.com/lency-lang/lency/internal/ast"
	"github.com/lency-lang/lency/internal/diag"
	"github.com/lency-lang/lency/internal/frontend"
	"github.com/lency-lang/lency/internal/mono"
	"github.com/lency-lang/lency/internal/nullsafe"
	"github.com/lency-lang/lency/internal/resolver"
	"github.com/lency-lang/lency/internal/types"
)

// compileToIR runs src through the full front-half of the pipeline
// (parse, resolve, type-check, null-safety-check, monomorphize) and
// returns the textual LLVM IR emitted for it, failing the test on any
// diagnostic or emission error along the way. Mirrors the resolveSource/
// checkSource helpers of internal/mono and internal/nullsafe's own tests,
// extended one stage further to reach codegen.
func compileToIR(t *testing.T, src string) string {
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

	nc := nullsafe.NewChecker(r.Table, sink)
	nc.CheckProgram(prog)
	if sink.HasErrors() {
		t.Fatalf("unexpected null-safety diagnostics: %+v", sink.Diagnostics())
	}

	m := mono.New(sink)
	if err := m.Specialize(prog); err != nil {
		t.Fatalf("monomorphization failed: %s", err)
	}

	c := NewContext(Options{ModuleName: "test"}, "test.lency", sink, m)
	defer c.Dispose()
	if err := c.Emit(prog); err != nil {
		t.Fatalf("codegen failed: %s", err)
	}
	return c.Module().String()
}

func TestLlvmTypeMapping(t *testing.T) {
	c := NewContext(Options{}, "test.lency", diag.NewSink(), mono.New(diag.NewSink()))
	defer c.Dispose()

	cases := []struct {
		ty   *ast.Type
		want string
	}{
		{ast.Int, "i64"},
		{ast.Float, "double"},
		{ast.Bool, "i1"},
		{ast.String, "i8*"},
		{ast.Void, "void"},
		{ast.NewNullable(ast.Int), "i64*"},
	}
	for _, tc := range cases {
		lt, err := c.llvmType(tc.ty)
		if err != nil {
			t.Fatalf("llvmType(%s): %s", tc.ty.DisplayName(), err)
		}
		if got := lt.String(); got != tc.want {
			t.Errorf("llvmType(%s) = %q, want %q", tc.ty.DisplayName(), got, tc.want)
		}
	}
}

func TestArithmeticRoundTrip(t *testing.T) {
	ir := compileToIR(t, `fn main() -> int { var x = 20; return x + 22; }`)

	if !strings.Contains(ir, "define i64 @__lency_main()") {
		t.Errorf("expected mangled entry point definition, got:\n%s", ir)
	}
	if !strings.Contains(ir, "define i32 @main()") {
		t.Errorf("expected synthesized C-ABI main wrapper, got:\n%s", ir)
	}
	if !strings.Contains(ir, "ret i32 0") {
		t.Errorf("expected wrapper to unconditionally return 0, got:\n%s", ir)
	}
	if !strings.Contains(ir, "add") {
		t.Errorf("expected an add instruction for x + 22, got:\n%s", ir)
	}
}

func TestIfElseBothBranchesReturnErasesConvergeBlock(t *testing.T) {
	ir := compileToIR(t, `fn f(x: int) -> int {
		if (x > 0) {
			return 1;
		} else {
			return 0;
		}
	}
	fn main() -> int { return f(1); }`)

	if strings.Contains(ir, "ifcont:") {
		t.Errorf("expected the unreachable ifcont block to be erased, got:\n%s", ir)
	}
}

func TestWhileLoopLowersToCondBodyEnd(t *testing.T) {
	ir := compileToIR(t, `fn main() -> int {
		var i = 0;
		while (i < 10) {
			i = i + 1;
		}
		return i;
	}`)
	for _, want := range []string{"cond:", "body:", "end:"} {
		if !strings.Contains(ir, want) {
			t.Errorf("expected block label %q in:\n%s", want, ir)
		}
	}
}

func TestStructFieldAccess(t *testing.T) {
	ir := compileToIR(t, `
	struct Point { x: int, y: int }
	fn main() -> int {
		var p = Point { x: 1, y: 2 };
		return p.x + p.y;
	}`)
	if !strings.Contains(ir, "%Point") {
		t.Errorf("expected a named %%Point aggregate type, got:\n%s", ir)
	}
}

func TestMatchOverEnumLowersToSwitch(t *testing.T) {
	ir := compileToIR(t, `
	enum Color { Red, Green, Blue }
	fn name(c: Color) -> int {
		return match (c) {
			Color.Red => 0,
			Color.Green => 1,
			_ => 2,
		};
	}
	fn main() -> int { return name(Color.Red); }`)
	if !strings.Contains(ir, "switch i32") {
		t.Errorf("expected match to lower to an i32 switch, got:\n%s", ir)
	}
}

func TestGenericStructInstantiationUsesMangledName(t *testing.T) {
	ir := compileToIR(t, `
	struct Box<T> { value: T }
	fn main() -> int {
		var b = Box<int> { value: 5 };
		return b.value;
	}`)
	if !strings.Contains(ir, "Box__int") {
		t.Errorf("expected the specialized struct's mangled name in the module, got:\n%s", ir)
	}
}

func TestUndeclaredBuiltinFFICallIsAutoDeclared(t *testing.T) {
	ir := compileToIR(t, `
	fn main() -> int {
		var h = hashmap_int_new();
		hashmap_int_insert(h, 1, 2);
		return hashmap_int_get(h, 1);
	}`)
	if !strings.Contains(ir, "declare i64 @hashmap_int_new()") {
		t.Errorf("expected hashmap_int_new to be auto-declared as an extern despite no explicit `extern fn`, got:\n%s", ir)
	}
	if !strings.Contains(ir, "declare void @hashmap_int_insert(i64, i64, i64)") {
		t.Errorf("expected hashmap_int_insert's signature to come from internal/runtimeabi, got:\n%s", ir)
	}
}
