package driver

import (
	"fmt"
	"os"
	"os/exec"
)

// llStaticCompiler/systemLinker are the external tools `build` shells out
// to, ported from cmd_build's `llc-15` + `gcc` invocation.
const (
	llStaticCompiler = "llc-15"
	systemLinker     = "gcc"
)

// Build compiles opt.Src to LLVM IR, lowers it to a native object file via
// the system static compiler, then links it into an executable at
// opt.Out, per §6's `build <input> [-o out]`. If a local runtime shared
// library exists under target/debug or target/release it is linked in
// with an rpath so the produced executable can find it at runtime.
// Grounded on the original CLI's cmd_build.
func Build(opt Options) (*Result, error) {
	res, err := Compile(opt)
	if err != nil {
		return res, err
	}
	if res.Sink.HasErrors() || res.IR == "" {
		return res, nil
	}

	tmpIR, err := os.CreateTemp("", "lency_build_*.ll")
	if err != nil {
		return res, fmt.Errorf("driver: could not create temp IR file: %w", err)
	}
	defer os.Remove(tmpIR.Name())
	if _, err := tmpIR.WriteString(res.IR); err != nil {
		tmpIR.Close()
		return res, fmt.Errorf("driver: could not write temp IR file: %w", err)
	}
	if err := tmpIR.Close(); err != nil {
		return res, fmt.Errorf("driver: could not close temp IR file: %w", err)
	}

	tmpObj, err := os.CreateTemp("", "lency_build_*.o")
	if err != nil {
		return res, fmt.Errorf("driver: could not create temp object file: %w", err)
	}
	objPath := tmpObj.Name()
	tmpObj.Close()
	defer os.Remove(objPath)

	llc := exec.Command(llStaticCompiler, "-filetype=obj", tmpIR.Name(), "-o", objPath)
	llc.Stdout = os.Stdout
	llc.Stderr = os.Stderr
	if err := llc.Run(); err != nil {
		return res, fmt.Errorf("driver: %s failed: %w", llStaticCompiler, err)
	}

	out := opt.Out
	if out == "" {
		out = "lencyTemp.out"
	}
	linkArgs := []string{objPath, "-o", out, "-no-pie"}
	if dir, ok := locateRuntimeLib(); ok {
		linkArgs = append(linkArgs,
			"-L"+dir,
			"-llency_runtime",
			"-Wl,-rpath,"+dir,
		)
	} else {
		fmt.Fprintln(os.Stderr, "Warning: lency_runtime library not found in target dir. Linking might fail.")
	}

	link := exec.Command(systemLinker, linkArgs...)
	link.Stdout = os.Stdout
	link.Stderr = os.Stderr
	if err := link.Run(); err != nil {
		return res, fmt.Errorf("driver: linking failed, ensure lency_runtime is built: %w", err)
	}
	return res, nil
}
