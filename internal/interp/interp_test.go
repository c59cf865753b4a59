package interp

import (
	"testing"

	"midir/internal/ir"
	"midir/internal/types"
)

// buildConstFoldProgram builds a constant-folding sample program: `%x = add 2 i32, 3 i32;
// return %x`.
func buildConstFoldProgram() *ir.Program {
	fn := ir.NewFunction("main", nil, types.I(32))
	entry := ir.NewBasicBlock("entry", nil)
	fn.AddBlock(entry)

	x := ir.NewBinaryOp(ir.Add, ir.NewConstant(types.I(32), 2), ir.NewConstant(types.I(32), 3))
	ir.PushBack(entry, x)
	ir.SetTerminator(entry, ir.NewReturn(x))

	prog := ir.NewProgram("main")
	prog.AddFunction(fn)
	return prog
}

func TestInterpConstantFold(t *testing.T) {
	prog := buildConstFoldProgram()
	in, err := New(prog, nil)
	if err != nil {
		t.Fatal(err)
	}
	snap := in.Run()
	if !snap.Done {
		t.Fatalf("expected Done, got %+v", snap)
	}
	if in.Trapped() != nil {
		t.Fatalf("unexpected trap: %v", in.Trapped())
	}
	result, ok := in.Result().(Integer)
	if !ok || result.V != 5 {
		t.Fatalf("expected 5, got %v", in.Result())
	}
}

// buildMem2RegProgram builds a mem2reg sample program: an if/else over an alloc'd
// cell, pre-AllocToPhi (so the interpreter directly exercises Alloc/
// Store/Load/Branch against a Parameter condition).
func buildMem2RegProgram(cond int64) *ir.Program {
	fn := ir.NewFunction("main", []types.Type{types.Bool()}, types.I(32))
	entry := ir.NewBasicBlock("entry", nil)
	thenB := ir.NewBasicBlock("then", nil)
	elseB := ir.NewBasicBlock("else", nil)
	join := ir.NewBasicBlock("join", nil)
	fn.AddBlock(entry)
	fn.AddBlock(thenB)
	fn.AddBlock(elseB)
	fn.AddBlock(join)

	a := ir.NewAlloc(types.I(32))
	ir.PushBack(entry, a)
	ir.SetTerminator(entry, ir.NewBranch(fn.Params[0], thenB, elseB))

	ir.PushBack(thenB, ir.NewStore(a, ir.NewConstant(types.I(32), 1)))
	ir.SetTerminator(thenB, ir.NewJump(join))

	ir.PushBack(elseB, ir.NewStore(a, ir.NewConstant(types.I(32), 2)))
	ir.SetTerminator(elseB, ir.NewJump(join))

	v := ir.NewLoad(a)
	ir.PushBack(join, v)
	ir.SetTerminator(join, ir.NewReturn(v))

	prog := ir.NewProgram("main")
	prog.AddFunction(fn)
	_ = cond
	return prog
}

func TestInterpMem2RegTrueBranch(t *testing.T) {
	prog := buildMem2RegProgram(1)
	in, err := New(prog, []Value{Bool(true)})
	if err != nil {
		t.Fatal(err)
	}
	snap := in.Run()
	if !snap.Done || in.Trapped() != nil {
		t.Fatalf("expected clean completion, got snap=%+v trap=%v", snap, in.Trapped())
	}
	if got := in.Result().(Integer).V; got != 1 {
		t.Fatalf("expected 1, got %d", got)
	}
}

func TestInterpMem2RegFalseBranch(t *testing.T) {
	prog := buildMem2RegProgram(0)
	in, err := New(prog, []Value{Bool(false)})
	if err != nil {
		t.Fatal(err)
	}
	snap := in.Run()
	if !snap.Done || in.Trapped() != nil {
		t.Fatalf("expected clean completion, got snap=%+v trap=%v", snap, in.Trapped())
	}
	if got := in.Result().(Integer).V; got != 2 {
		t.Fatalf("expected 2, got %d", got)
	}
}

// TestInterpDivByZeroTrap builds a trapping sample program: `%r = div 1 i32, 0 i32`.
func TestInterpDivByZeroTrap(t *testing.T) {
	fn := ir.NewFunction("main", nil, types.I(32))
	entry := ir.NewBasicBlock("entry", nil)
	fn.AddBlock(entry)
	r := ir.NewBinaryOp(ir.Div, ir.NewConstant(types.I(32), 1), ir.NewConstant(types.I(32), 0))
	ir.PushBack(entry, r)
	ir.SetTerminator(entry, ir.NewReturn(r))

	prog := ir.NewProgram("main")
	prog.AddFunction(fn)

	in, err := New(prog, nil)
	if err != nil {
		t.Fatal(err)
	}
	in.Run()
	trap := in.Trapped()
	if trap == nil {
		t.Fatal("expected a trap")
	}
	if trap.Code != "M0300" {
		t.Fatalf("expected DivByZero trap code, got %s", trap.Code)
	}
}

func TestInterpCall(t *testing.T) {
	callee := ir.NewFunction("double", []types.Type{types.I(32)}, types.I(32))
	cb := ir.NewBasicBlock("entry", nil)
	callee.AddBlock(cb)
	doubled := ir.NewBinaryOp(ir.Add, callee.Params[0], callee.Params[0])
	ir.PushBack(cb, doubled)
	ir.SetTerminator(cb, ir.NewReturn(doubled))

	caller := ir.NewFunction("main", nil, types.I(32))
	mb := ir.NewBasicBlock("entry", nil)
	caller.AddBlock(mb)
	call := ir.NewCall(callee, []ir.Value{ir.NewConstant(types.I(32), 21)})
	ir.PushBack(mb, call)
	ir.SetTerminator(mb, ir.NewReturn(call))

	prog := ir.NewProgram("main")
	prog.AddFunction(callee)
	prog.AddFunction(caller)

	in, err := New(prog, nil)
	if err != nil {
		t.Fatal(err)
	}
	in.Run()
	if in.Trapped() != nil {
		t.Fatalf("unexpected trap: %v", in.Trapped())
	}
	if got := in.Result().(Integer).V; got != 42 {
		t.Fatalf("expected 42, got %d", got)
	}
}
