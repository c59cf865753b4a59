package ir

import (
	"testing"

	"midir/internal/types"
)

func TestUseDefReciprocity(t *testing.T) {
	a := NewConstant(types.I(32), 1)
	b := NewConstant(types.I(32), 2)
	bin := NewBinaryOp(Add, a, b)

	if len(a.Users()) != 1 || a.Users()[0].Holder != bin || a.Users()[0].Index != 0 {
		t.Fatalf("expected a single reciprocal use at slot 0, got %v", a.Users())
	}
	if len(b.Users()) != 1 || b.Users()[0].Index != 1 {
		t.Fatalf("expected a single reciprocal use at slot 1, got %v", b.Users())
	}
}

func TestReplaceOperandUpdatesBothSides(t *testing.T) {
	a := NewConstant(types.I(32), 1)
	b := NewConstant(types.I(32), 2)
	c := NewConstant(types.I(32), 3)
	bin := NewBinaryOp(Add, a, b)

	if err := ReplaceOperand(bin, 0, c); err != nil {
		t.Fatal(err)
	}
	if len(a.Users()) != 0 {
		t.Fatal("expected a to lose its use after being replaced")
	}
	if len(c.Users()) != 1 || c.Users()[0].Holder != bin {
		t.Fatal("expected c to gain the use bin previously held on a")
	}
	if bin.Left != c {
		t.Fatal("expected bin.Left to now read c")
	}
}

func TestReplaceAllUsesRejectsTypeMismatch(t *testing.T) {
	a := NewConstant(types.I(32), 1)
	b := NewConstant(types.I(32), 2)
	_ = NewBinaryOp(Add, a, b) // registers a use of a so ReplaceAllUses has something to rewrite

	wrongType := NewConstant(types.I(64), 1)
	if err := ReplaceAllUses(a, wrongType); err == nil {
		t.Fatal("expected a type mismatch error replacing an i32 use with an i64 value")
	}
}

func TestReplaceAllUsesRewritesEveryUse(t *testing.T) {
	a := NewConstant(types.I(32), 1)
	other := NewConstant(types.I(32), 2)
	bin1 := NewBinaryOp(Add, a, other)
	bin2 := NewBinaryOp(Sub, other, a)

	repl := NewConstant(types.I(32), 9)
	if err := ReplaceAllUses(a, repl); err != nil {
		t.Fatal(err)
	}
	if bin1.Left != repl || bin2.Right != repl {
		t.Fatal("expected every use of a to now read repl")
	}
	if len(a.Users()) != 0 {
		t.Fatal("expected a to have no remaining users after ReplaceAllUses")
	}
}

func TestInsertBeforeAndAfter(t *testing.T) {
	fn := NewFunction("main", nil, types.I(32))
	entry := NewBasicBlock("entry", nil)
	fn.AddBlock(entry)

	mid := NewConstant(types.I(32), 0)
	midInst := NewUnaryOp(Neg, mid)
	PushBack(entry, midInst)

	before := NewUnaryOp(Neg, mid)
	if err := InsertBefore(midInst, before); err != nil {
		t.Fatal(err)
	}
	after := NewUnaryOp(Neg, mid)
	if err := InsertAfter(midInst, after); err != nil {
		t.Fatal(err)
	}

	if len(entry.Instructions) != 3 {
		t.Fatalf("expected 3 instructions, got %d", len(entry.Instructions))
	}
	if entry.Instructions[0] != before || entry.Instructions[1] != midInst || entry.Instructions[2] != after {
		t.Fatal("expected before/mid/after in that exact order")
	}
}

func TestRemoveFailsWhileStillInUse(t *testing.T) {
	fn := NewFunction("main", nil, types.I(32))
	entry := NewBasicBlock("entry", nil)
	fn.AddBlock(entry)

	a := NewAlloc(types.I(32))
	PushBack(entry, a)
	ld := NewLoad(a)
	PushBack(entry, ld)
	SetTerminator(entry, NewReturn(ld))

	if err := Remove(a); err == nil {
		t.Fatal("expected Remove to refuse deleting an Alloc still read by a Load")
	}
}

func TestDeleteDeepSeversOperandEdgesAndMarksDeleted(t *testing.T) {
	fn := NewFunction("main", nil, types.I(32))
	entry := NewBasicBlock("entry", nil)
	fn.AddBlock(entry)

	a := NewConstant(types.I(32), 1)
	b := NewConstant(types.I(32), 2)
	bin := NewBinaryOp(Add, a, b)
	PushBack(entry, bin)
	SetTerminator(entry, NewReturn(bin))

	// Redirect return's use before deep-deleting bin.
	repl := NewConstant(types.I(32), 3)
	if err := ReplaceAllUses(bin, repl); err != nil {
		t.Fatal(err)
	}
	DeleteDeep(bin)

	if !bin.IsDeleted() {
		t.Fatal("expected bin to be marked deleted")
	}
	if len(a.Users()) != 0 || len(b.Users()) != 0 {
		t.Fatal("expected DeleteDeep to unregister every outgoing operand edge")
	}
	if len(entry.Instructions) != 0 {
		t.Fatal("expected bin to be detached from its block")
	}
}

func TestBlockPredecessorsAndSuccessors(t *testing.T) {
	fn := NewFunction("main", []types.Type{types.Bool()}, types.I(32))
	entry := NewBasicBlock("entry", nil)
	thenB := NewBasicBlock("then", nil)
	elseB := NewBasicBlock("else", nil)
	join := NewBasicBlock("join", nil)
	fn.AddBlock(entry)
	fn.AddBlock(thenB)
	fn.AddBlock(elseB)
	fn.AddBlock(join)

	SetTerminator(entry, NewBranch(fn.Params[0], thenB, elseB))
	SetTerminator(thenB, NewJump(join))
	SetTerminator(elseB, NewJump(join))
	SetTerminator(join, NewReturn(NewConstant(types.I(32), 0)))

	succs := entry.Successors()
	if len(succs) != 2 || succs[0] != thenB || succs[1] != elseB {
		t.Fatalf("expected entry's successors to be [then, else], got %v", succs)
	}

	preds := join.Predecessors()
	if len(preds) != 2 {
		t.Fatalf("expected join to have 2 predecessors, got %d", len(preds))
	}
}

func TestProgramAddRemoveFunction(t *testing.T) {
	prog := NewProgram("main")
	main := NewFunction("main", nil, types.I(32))
	helper := NewFunction("helper", nil, types.I(32))
	prog.AddFunction(main)
	prog.AddFunction(helper)

	if prog.Entry() != main {
		t.Fatal("expected Entry() to resolve to the function named by EntryName")
	}
	if prog.FunctionByName("helper") != helper {
		t.Fatal("expected FunctionByName to find helper")
	}

	prog.RemoveFunction(helper)
	if prog.FunctionByName("helper") != nil {
		t.Fatal("expected helper to be gone after RemoveFunction")
	}
	if len(prog.Functions) != 1 {
		t.Fatalf("expected 1 remaining function, got %d", len(prog.Functions))
	}
}
