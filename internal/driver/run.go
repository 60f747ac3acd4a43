package driver

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// llInterpreter is the external LLVM bitcode interpreter `run` shells
// out to, ported from cmd_run's `lli-15` invocation.
const llInterpreter = "lli-15"

// RunResult reports how the interpreted program exited, for the CLI to
// translate into its own process exit code per §6's "non-zero propagated
// from run's child process".
type RunResult struct {
	ExitCode int
	Signaled bool
}

// Run compiles opt.Src and executes the IR via the system LLVM
// interpreter, forwarding the child's stdout/stderr, per §6's
// `run <input>`. Grounded on the original CLI's cmd_run: write the IR to
// a temp file, `-load` the local runtime shared library if one is found
// under target/debug or target/release, then run it.
func Run(opt Options) (*Result, *RunResult, error) {
	res, err := Compile(opt)
	if err != nil {
		return res, nil, err
	}
	if res.Sink.HasErrors() || res.IR == "" {
		return res, nil, nil
	}

	tmp, err := os.CreateTemp("", "lency_run_*.ll")
	if err != nil {
		return res, nil, fmt.Errorf("driver: could not create temp IR file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.WriteString(res.IR); err != nil {
		tmp.Close()
		return res, nil, fmt.Errorf("driver: could not write temp IR file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return res, nil, fmt.Errorf("driver: could not close temp IR file: %w", err)
	}

	args := []string{}
	if dir, ok := locateRuntimeLib(); ok {
		for _, name := range runtimeLibNames {
			path := filepath.Join(dir, name)
			if _, statErr := os.Stat(path); statErr == nil {
				args = append(args, "-load="+path)
				break
			}
		}
	} else {
		fmt.Fprintln(os.Stderr, "Warning: lency_runtime library not found. I/O operations may fail.")
	}
	args = append(args, tmp.Name())

	cmd := exec.Command(llInterpreter, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	runErr := cmd.Run()

	rr := &RunResult{}
	if exitErr, ok := runErr.(*exec.ExitError); ok {
		if exitErr.ProcessState.Exited() {
			rr.ExitCode = exitErr.ExitCode()
		} else {
			rr.Signaled = true
			rr.ExitCode = 1
		}
	} else if runErr != nil {
		return res, nil, fmt.Errorf("driver: could not run %s: %w", llInterpreter, runErr)
	}
	return res, rr, nil
}
