package driver

import (
	"os"
	"path/filepath"
)

// runtimeLibDirs/runtimeLibNames enumerate where `run`/`build` probe for a
// local lency runtime shared library, per spec.md §6's "path to the
// runtime library is discovered by probing target/debug and
// target/release relative to the current directory" -- mirrors the
// original CLI's cmd_run/cmd_build, which probe the same two Cargo
// build-profile directories for liblency_runtime.{so,dylib}.
var runtimeLibDirs = []string{"target/debug", "target/release"}
var runtimeLibNames = []string{"liblency_runtime.so", "liblency_runtime.dylib"}

// locateRuntimeLib searches runtimeLibDirs (relative to the current
// working directory) for a runtime shared library, returning its
// containing directory. Absence is not an error: both `run` and `build`
// proceed without it, only warning that I/O builtins may be unavailable.
func locateRuntimeLib() (dir string, found bool) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", false
	}
	for _, d := range runtimeLibDirs {
		for _, name := range runtimeLibNames {
			if _, err := os.Stat(filepath.Join(cwd, d, name)); err == nil {
				return filepath.Join(cwd, d), true
			}
		}
	}
	return "", false
}
