package passes

import (
	"testing"

	"midir/internal/ir"
	"midir/internal/optimizer"
	"midir/internal/types"
)

func TestDeadInstructionEliminationDropsUnusedPureValue(t *testing.T) {
	fn := ir.NewFunction("main", nil, types.I(32))
	entry := ir.NewBasicBlock("entry", nil)
	fn.AddBlock(entry)

	unused := ir.NewBinaryOp(ir.Add, ir.NewConstant(types.I(32), 1), ir.NewConstant(types.I(32), 2))
	ir.PushBack(entry, unused)
	ir.SetTerminator(entry, ir.NewReturn(ir.NewConstant(types.I(32), 0)))

	ctx := optimizer.NewContext()
	if err := (DeadInstructionEliminationPass{}).RunOnFunction(fn, ctx); err != nil {
		t.Fatal(err)
	}
	if !unused.IsDeleted() {
		t.Fatal("expected an unused pure instruction to be deleted")
	}
}

func TestDeadInstructionEliminationKeepsImpureInstructionEvenIfUnused(t *testing.T) {
	sink := ir.NewFunction("sink", nil, types.VoidType())
	sb := ir.NewBasicBlock("entry", nil)
	sink.AddBlock(sb)
	ir.SetTerminator(sb, ir.NewExit())

	fn := ir.NewFunction("main", nil, types.VoidType())
	entry := ir.NewBasicBlock("entry", nil)
	fn.AddBlock(entry)
	call := ir.NewCall(sink, nil)
	ir.PushBack(entry, call)
	ir.SetTerminator(entry, ir.NewExit())

	ctx := optimizer.NewContext()
	if err := (DeadInstructionEliminationPass{}).RunOnFunction(fn, ctx); err != nil {
		t.Fatal(err)
	}
	if call.IsDeleted() {
		t.Fatal("a call (impure, by default Pure()) must survive even with no users")
	}
}

func TestDeadInstructionEliminationKeepsTransitiveOperandsOfReturn(t *testing.T) {
	fn := ir.NewFunction("main", nil, types.I(32))
	entry := ir.NewBasicBlock("entry", nil)
	fn.AddBlock(entry)
	a := ir.NewConstant(types.I(32), 1)
	b := ir.NewConstant(types.I(32), 2)
	sum := ir.NewBinaryOp(ir.Add, a, b)
	ir.PushBack(entry, sum)
	neg := ir.NewUnaryOp(ir.Neg, sum)
	ir.PushBack(entry, neg)
	ir.SetTerminator(entry, ir.NewReturn(neg))

	ctx := optimizer.NewContext()
	if err := (DeadInstructionEliminationPass{}).RunOnFunction(fn, ctx); err != nil {
		t.Fatal(err)
	}
	if sum.IsDeleted() || neg.IsDeleted() {
		t.Fatal("expected both instructions reaching the return value to survive")
	}
}
