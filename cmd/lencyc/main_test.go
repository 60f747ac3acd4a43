package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/lency-lang/lency/internal/codegen"
)

func TestParseArchKnownNames(t *testing.T) {
	cases := map[string]codegen.Arch{
		"":         codegen.UnknownArch,
		"x86_64":   codegen.X86_64,
		"aarch64":  codegen.Aarch64,
		"riscv64":  codegen.Riscv64,
		"riscv32":  codegen.Riscv32,
	}
	for name, want := range cases {
		got, err := parseArch(name)
		if err != nil {
			t.Fatalf("parseArch(%q): unexpected error: %s", name, err)
		}
		if got != want {
			t.Errorf("parseArch(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestParseArchUnknownName(t *testing.T) {
	if _, err := parseArch("sparc64"); err == nil {
		t.Fatalf("expected an error for an unrecognized --target")
	}
}

func writeSource(t *testing.T, src string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "main.lcy")
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatalf("could not write source fixture: %s", err)
	}
	return path
}

func TestCheckCommandExitsCleanlyOnValidProgram(t *testing.T) {
	path := writeSource(t, `fn main() -> int { return 0; }`)
	root := newRootCmd()
	root.SetArgs([]string{"check", path})
	root.SetOut(os.Stderr)
	if err := root.Execute(); err != nil {
		t.Fatalf("check failed on a valid program: %s", err)
	}
}

func TestCheckCommandReportsSilentErrorOnInvalidProgram(t *testing.T) {
	path := writeSource(t, `fn main() -> int { return x; }`)
	root := newRootCmd()
	root.SetArgs([]string{"check", path})
	root.SetOut(os.Stderr)
	if err := root.Execute(); err == nil {
		t.Fatalf("expected check to fail on an undefined-variable program")
	}
}

func TestCompileCommandWritesIRToOutFile(t *testing.T) {
	path := writeSource(t, `fn main() -> int { return 42; }`)
	out := filepath.Join(t.TempDir(), "out.ll")
	root := newRootCmd()
	root.SetArgs([]string{"compile", path, "-o", out})
	root.SetOut(os.Stderr)
	if err := root.Execute(); err != nil {
		t.Fatalf("compile failed: %s", err)
	}
	if _, err := os.Stat(out); err != nil {
		t.Fatalf("expected IR file at %s: %s", out, err)
	}
}
