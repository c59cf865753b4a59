package optimizer

import (
	"fmt"

	"github.com/fatih/color"

	"midir/internal/ir"
)

// Driver runs a configured pipeline of passes to a fixed point.
type Driver struct {
	// AllocToPhi runs exactly once, up front, per Function - it is
	// idempotent and its inputs (promotable Allocs) vanish after the
	// first run, so repeating it is pure waste.
	AllocToPhi FunctionPass

	// FunctionPasses run, in order, once per round of the fixed-point
	// loop: ConstantFolding -> DeadInstructionElimination ->
	// SimplifyBlocks -> DeadBlockElimination, with SCCP/DSE inserted as
	// enabled.
	FunctionPasses []FunctionPass

	// ProgramPasses run once per round after every FunctionPass, in
	// order (DCE, FunctionInlining).
	ProgramPasses []ProgramPass

	// Verify enables verify() between every pass invocation; a failure
	// aborts the whole run with a fatal VerifierFailedError.
	Verify bool

	// Trace, when non-nil, receives one line per pass invocation
	// reporting its changed/unchanged status, colorized via fatih/color.
	Trace func(line string)
}

// Run drives prog to a fixed point: it loops while any pass in the most
// recent round reported a change, never "while !changed".
func (d *Driver) Run(prog *ir.Program) error {
	ctx := NewContext()

	if d.AllocToPhi != nil {
		for _, fn := range prog.Functions {
			if err := d.runFunctionPass(d.AllocToPhi, fn, prog, ctx); err != nil {
				return err
			}
		}
	}

	for changed := true; changed; {
		changed = false

		for _, fn := range prog.Functions {
			for _, pass := range d.FunctionPasses {
				ctx.reset()
				if err := d.runFunctionPass(pass, fn, prog, ctx); err != nil {
					return err
				}
				changed = changed || ctx.changed
			}
		}

		for _, pass := range d.ProgramPasses {
			ctx.reset()
			if err := pass.RunOnProgram(prog, ctx); err != nil {
				return err
			}
			d.traceln(pass.Name(), "*", ctx.changed)
			if d.Verify {
				if err := verifyProgram(prog, pass.Name()); err != nil {
					return err
				}
			}
			changed = changed || ctx.changed
		}
	}
	return nil
}

func (d *Driver) runFunctionPass(pass FunctionPass, fn *ir.Function, prog *ir.Program, ctx *Context) error {
	if err := pass.RunOnFunction(fn, ctx); err != nil {
		return err
	}
	d.traceln(pass.Name(), fn.Name, ctx.changed)
	if d.Verify {
		if err := verifyProgram(prog, pass.Name()); err != nil {
			return err
		}
	}
	return nil
}

func (d *Driver) traceln(pass, scope string, changed bool) {
	if d.Trace == nil {
		return
	}
	status := color.YellowString("unchanged")
	if changed {
		status = color.GreenString("changed")
	}
	d.Trace(fmt.Sprintf("%s[%s]: %s", color.CyanString(pass), scope, status))
}
