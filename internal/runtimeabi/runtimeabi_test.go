package runtimeabi

import (
	"testing"

	"github.com/lency-lang/lency/internal/ast"
)

func TestLookupFindsKnownBuiltin(t *testing.T) {
	sig, ok := Lookup("vec_len")
	if !ok {
		t.Fatalf("expected vec_len to be a known builtin")
	}
	if len(sig.Params) != 1 || sig.Params[0] != ast.Int {
		t.Fatalf("expected vec_len(int), got %+v", sig)
	}
	if sig.Ret != ast.Int {
		t.Fatalf("expected vec_len to return int, got %v", sig.Ret)
	}
}

func TestLookupMissingReturnsFalse(t *testing.T) {
	if _, ok := Lookup("not_a_real_builtin"); ok {
		t.Fatalf("expected lookup of an unknown name to fail")
	}
}

func TestBuiltinsHaveNoDuplicateNames(t *testing.T) {
	seen := map[string]bool{}
	for _, sig := range Builtins {
		if seen[sig.Name] {
			t.Fatalf("duplicate builtin signature for %q", sig.Name)
		}
		seen[sig.Name] = true
	}
}

func TestEveryBuiltinHasANonNilReturnType(t *testing.T) {
	for _, sig := range Builtins {
		if sig.Ret == nil {
			t.Fatalf("builtin %q has a nil return type, want ast.Void for void", sig.Name)
		}
	}
}
