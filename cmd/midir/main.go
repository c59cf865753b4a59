// Command midir parses, verifies, optimizes, and optionally interprets a
// single textual-IR source file: a flat Go `main` reading one file
// argument, reporting caret-pointed errors via fatih/color, with no
// config file.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/fatih/color"

	ierrors "midir/internal/errors"
	"midir/internal/interp"
	"midir/internal/optimizer"
	"midir/internal/passes"
	"midir/internal/textir"
	"midir/internal/verify"
)

// Exit codes
const (
	exitOK            = 0
	exitParseOrVerify = 1
	exitPassInternal  = 2
	exitInterpTrap    = 3
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("midir", flag.ContinueOnError)
	verifyEachPass := fs.Bool("verify", false, "verify the IR between every optimizer pass")
	noOptimize := fs.Bool("no-optimize", false, "skip the optimizer entirely")
	doRun := fs.Bool("run", false, "drive the interpreter to completion and print the result")
	trace := fs.Bool("trace", false, "print every interpreter snapshot as it is stepped")
	entry := fs.String("entry", "main", "name of the program's entry function")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: midir [flags] <file.mir>")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return exitParseOrVerify
	}
	if fs.NArg() < 1 {
		fs.Usage()
		return exitParseOrVerify
	}
	path := fs.Arg(0)

	source, err := os.ReadFile(path)
	if err != nil {
		color.Red("failed to read %s: %s", path, err)
		return exitParseOrVerify
	}

	file, err := textir.ParseString(path, string(source))
	if err != nil {
		reportFatal(path, string(source), err)
		return exitParseOrVerify
	}

	prog, err := textir.Build(file, *entry)
	if err != nil {
		reportFatal(path, string(source), err)
		return exitParseOrVerify
	}

	if diags := verify.Verify(prog); len(diags) > 0 {
		reportDiagnostics(path, string(source), diags)
		return exitParseOrVerify
	}

	if !*noOptimize {
		driver := &optimizer.Driver{
			AllocToPhi: passes.AllocToPhiPass{},
			FunctionPasses: []optimizer.FunctionPass{
				passes.ConstantFoldingPass{},
				passes.DeadInstructionEliminationPass{},
				passes.SimplifyBlocksPass{},
				passes.DeadBlockEliminationPass{},
				passes.SCCPPass{},
				passes.DSEPass{},
			},
			ProgramPasses: []optimizer.ProgramPass{
				passes.DCEPass{},
				passes.FunctionInliningPass{},
			},
			Verify: *verifyEachPass,
		}
		if *trace {
			driver.Trace = func(line string) { fmt.Println(line) }
		}
		if err := driver.Run(prog); err != nil {
			color.Red("%s", err)
			return exitPassInternal
		}
	}

	if diags := verify.Verify(prog); len(diags) > 0 {
		reportDiagnostics(path, string(source), diags)
		return exitParseOrVerify
	}

	fmt.Print(textir.Print(prog))

	if !*doRun {
		color.Green("ok")
		return exitOK
	}

	in, err := interp.New(prog, nil)
	if err != nil {
		color.Red("%s", err)
		return exitParseOrVerify
	}
	for !in.Done() && in.Trapped() == nil {
		snap := in.Step()
		if *trace {
			printSnapshot(snap)
		}
	}
	if trap := in.Trapped(); trap != nil {
		color.Red("trap: %s", trap)
		return exitInterpTrap
	}
	color.Green("result: %v", in.Result())
	return exitOK
}

func printSnapshot(snap interp.Snapshot) {
	if snap.Done {
		color.Green("[step %d] done", snap.Step)
		return
	}
	block := ""
	if snap.CurrBlock != nil {
		block = snap.CurrBlock.Label
	}
	fn := ""
	if snap.Function != nil {
		fn = snap.Function.Name
	}
	color.Cyan("[step %d] @%s/%s pos=%d", snap.Step, fn, block, snap.Pos)
}

// reportFatal renders a single fatal error (parse or build failure) through
// the same caret-pointed Reporter used for Verifier diagnostics, so every
// fatal path the CLI can hit prints in one consistent style.
func reportFatal(path, source string, err error) {
	me, ok := err.(*ierrors.MiddleError)
	if !ok {
		color.Red("%s", err)
		return
	}
	line, column := me.Line, me.Column
	if line == 0 {
		line, column = 1, 1
	}
	reportDiagnostics(path, source, []ierrors.Diagnostic{{
		Level: ierrors.Error, Code: me.Code, Message: me.Message, Ctx: me.Ctx, Line: line, Column: column,
	}})
}

func reportDiagnostics(path, source string, diags []ierrors.Diagnostic) {
	r := ierrors.NewReporter(path, source)
	fmt.Print(r.FormatAll(diags))
}
