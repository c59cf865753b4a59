package optimizer

import (
	"testing"

	"midir/internal/ir"
	"midir/internal/types"
)

// countingPass reports a change exactly once, then stays unchanged - enough
// to exercise the "loop while changed" fixed point without looping forever.
type countingPass struct {
	ran *int
}

func (countingPass) Name() string { return "Counting" }

func (p countingPass) RunOnFunction(fn *ir.Function, ctx *Context) error {
	*p.ran++
	if *p.ran == 1 {
		ctx.InstrChanged()
	}
	return nil
}

func TestDriverLoopsUntilNoPassReportsChange(t *testing.T) {
	fn := buildStraightLine()
	prog := ir.NewProgram("main")
	prog.AddFunction(fn)

	ran := 0
	d := &Driver{FunctionPasses: []FunctionPass{countingPass{ran: &ran}}}
	if err := d.Run(prog); err != nil {
		t.Fatal(err)
	}
	// Round 1: changes (ran=1). Round 2: no change (ran=2), loop stops.
	if ran != 2 {
		t.Fatalf("expected exactly 2 rounds, ran %d times", ran)
	}
}

func TestDriverTraceReceivesOneLinePerInvocation(t *testing.T) {
	fn := buildStraightLine()
	prog := ir.NewProgram("main")
	prog.AddFunction(fn)

	ran := 0
	var lines []string
	d := &Driver{
		FunctionPasses: []FunctionPass{countingPass{ran: &ran}},
		Trace:          func(line string) { lines = append(lines, line) },
	}
	if err := d.Run(prog); err != nil {
		t.Fatal(err)
	}
	if len(lines) != 2 {
		t.Fatalf("expected 2 trace lines (one per round), got %d: %v", len(lines), lines)
	}
}

// breakingPass deletes the entry block's terminator, an invariant the
// Verifier rejects outright - used to exercise the Driver's abort-on-
// verifier-failure path.
type breakingPass struct{}

func (breakingPass) Name() string { return "Breaking" }

func (breakingPass) RunOnFunction(fn *ir.Function, ctx *Context) error {
	fn.Entry.Term = nil
	ctx.GraphChanged()
	return nil
}

func TestDriverAbortsWhenVerifyFindsAFailure(t *testing.T) {
	fn := buildStraightLine()
	prog := ir.NewProgram("main")
	prog.AddFunction(fn)

	d := &Driver{FunctionPasses: []FunctionPass{breakingPass{}}, Verify: true}
	err := d.Run(prog)
	if err == nil {
		t.Fatal("expected the driver to abort once the Verifier rejects the broken program")
	}
	if _, ok := err.(*VerifierFailedError); !ok {
		t.Fatalf("expected a *VerifierFailedError, got %T: %v", err, err)
	}
}

func TestAllocToPhiRunsExactlyOncePerFunction(t *testing.T) {
	fn := ir.NewFunction("main", []types.Type{types.Bool()}, types.I(32))
	entry := ir.NewBasicBlock("entry", nil)
	fn.AddBlock(entry)
	a := ir.NewAlloc(types.I(32))
	ir.PushBack(entry, a)
	st := ir.NewStore(a, ir.NewConstant(types.I(32), 1))
	ir.PushBack(entry, st)
	ld := ir.NewLoad(a)
	ir.PushBack(entry, ld)
	ir.SetTerminator(entry, ir.NewReturn(ld))

	prog := ir.NewProgram("main")
	prog.AddFunction(fn)

	ran := 0
	countingAllocToPhi := countingFunctionPass{name: "AllocToPhi", ran: &ran, inner: nil}
	d := &Driver{AllocToPhi: countingAllocToPhi}
	if err := d.Run(prog); err != nil {
		t.Fatal(err)
	}
	if ran != 1 {
		t.Fatalf("expected AllocToPhi to run exactly once per function, ran %d times", ran)
	}
}

type countingFunctionPass struct {
	name  string
	ran   *int
	inner FunctionPass
}

func (p countingFunctionPass) Name() string { return p.name }

func (p countingFunctionPass) RunOnFunction(fn *ir.Function, ctx *Context) error {
	*p.ran++
	if p.inner != nil {
		return p.inner.RunOnFunction(fn, ctx)
	}
	return nil
}
