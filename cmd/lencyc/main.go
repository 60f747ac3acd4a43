// Command lencyc is the lency compiler's command-line entry point,
// exposing spec.md §6's `compile`/`check`/`run`/`build` subcommands over
// internal/driver. Replaces the teacher's hand-rolled util.ParseArgs
// flag loop with github.com/spf13/cobra, per SPEC_FULL.md's domain stack
// ("CLI tools using cobra" is the pattern several pack repos follow for
// exactly this job).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lency-lang/lency/internal/codegen"
	"github.com/lency-lang/lency/internal/diag"
	"github.com/lency-lang/lency/internal/driver"
)

// flags holds the persistent, cross-subcommand options, mirroring the
// teacher's single util.Options struct threaded through every stage.
type flags struct {
	out     string
	threads int
	verbose bool
	noColor bool
	target  string
}

var f flags

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "lencyc",
		Short:         "lency compiler",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().IntVarP(&f.threads, "threads", "j", 1, "codegen worker thread count")
	root.PersistentFlags().BoolVarP(&f.verbose, "verbose", "v", false, "dump the syntax tree and LLVM IR")
	root.PersistentFlags().BoolVar(&f.noColor, "no-color", false, "disable coloured diagnostic output")
	root.PersistentFlags().StringVar(&f.target, "target", "", "target architecture (x86_64, aarch64, riscv64, riscv32)")

	root.AddCommand(newCheckCmd(), newCompileCmd(), newRunCmd(), newBuildCmd())
	return root
}

// parseArch maps the --target flag's name to codegen.Arch, defaulting to
// codegen.UnknownArch (the host's native width) when unset.
func parseArch(name string) (codegen.Arch, error) {
	switch name {
	case "":
		return codegen.UnknownArch, nil
	case "x86_64":
		return codegen.X86_64, nil
	case "aarch64":
		return codegen.Aarch64, nil
	case "riscv64":
		return codegen.Riscv64, nil
	case "riscv32":
		return codegen.Riscv32, nil
	default:
		return codegen.UnknownArch, fmt.Errorf("unknown --target %q", name)
	}
}

// buildOptions assembles a driver.Options from the persistent flags and
// the positional source path, per §6's `<input> [-o out]` shape.
func buildOptions(src string) (driver.Options, error) {
	arch, err := parseArch(f.target)
	if err != nil {
		return driver.Options{}, err
	}
	return driver.Options{
		Src:        src,
		Out:        f.out,
		TargetArch: arch,
		Threads:    f.threads,
		Verbose:    f.verbose,
		Color:      !f.noColor,
	}, nil
}

// emitDiagnostics renders res.Sink to stderr using spec.md §4.1's
// plain/coloured emitter, reading the offending source file back in for
// the caret-range context.
func emitDiagnostics(res *driver.Result, opt driver.Options) {
	if res == nil || res.Sink == nil || res.Sink.Len() == 0 {
		return
	}
	e := diag.NewEmitter(os.Stderr)
	if !opt.Color {
		e.WithoutColors()
	}
	src := ""
	if b, err := os.ReadFile(opt.Src); err == nil {
		src = string(b)
	}
	e.EmitAll(res.Sink, src)
}

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <input>",
		Short: "run the full semantic pipeline without emitting output",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opt, err := buildOptions(args[0])
			if err != nil {
				return err
			}
			res, err := driver.Check(opt)
			if err != nil {
				return err
			}
			emitDiagnostics(res, opt)
			if res.Sink.HasErrors() {
				return errSilent
			}
			return nil
		},
	}
}

func newCompileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compile <input>",
		Short: "emit LLVM IR",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opt, err := buildOptions(args[0])
			if err != nil {
				return err
			}
			res, err := driver.Compile(opt)
			if err != nil {
				return err
			}
			emitDiagnostics(res, opt)
			if res.Sink.HasErrors() {
				return errSilent
			}
			if opt.Out != "" {
				return os.WriteFile(opt.Out, []byte(res.IR), 0o644)
			}
			fmt.Print(res.IR)
			return nil
		},
	}
	cmd.Flags().StringVarP(&f.out, "out", "o", "", "output .ll path (stdout if unset)")
	return cmd
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <input>",
		Short: "compile and execute via the LLVM interpreter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opt, err := buildOptions(args[0])
			if err != nil {
				return err
			}
			res, rr, err := driver.Run(opt)
			if err != nil {
				return err
			}
			emitDiagnostics(res, opt)
			if res.Sink.HasErrors() {
				os.Exit(1)
			}
			if rr != nil {
				os.Exit(rr.ExitCode)
			}
			return nil
		},
	}
}

func newBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build <input>",
		Short: "compile, assemble and link a native executable",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opt, err := buildOptions(args[0])
			if err != nil {
				return err
			}
			res, err := driver.Build(opt)
			if err != nil {
				return err
			}
			emitDiagnostics(res, opt)
			if res.Sink.HasErrors() {
				return errSilent
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&f.out, "out", "o", "", "output executable path")
	return cmd
}

// errSilent signals that diagnostics were already printed and main
// should just exit 1 without cobra's own error-printing duplicating
// them, per spec.md §6's "exit 1 on errors" (the diagnostics themselves,
// not a redundant Go error string, are the user-visible output).
var errSilent = fmt.Errorf("")
