package dom

import (
	"testing"

	"midir/internal/ir"
	"midir/internal/types"
)

// buildDiamond builds entry -> {then, else} -> join, the textbook case a
// dominator analysis must get right: entry dominates everything, then/else
// each dominate only themselves, and join's dominance frontier is empty
// while then/else's frontier is {join}.
func buildDiamond(t *testing.T) (*ir.Function, *ir.BasicBlock, *ir.BasicBlock, *ir.BasicBlock, *ir.BasicBlock) {
	t.Helper()
	fn := ir.NewFunction("main", []types.Type{types.Bool()}, types.I(32))
	entry := ir.NewBasicBlock("entry", nil)
	thenB := ir.NewBasicBlock("then", nil)
	elseB := ir.NewBasicBlock("else", nil)
	join := ir.NewBasicBlock("join", nil)
	fn.AddBlock(entry)
	fn.AddBlock(thenB)
	fn.AddBlock(elseB)
	fn.AddBlock(join)

	ir.SetTerminator(entry, ir.NewBranch(fn.Params[0], thenB, elseB))
	ir.SetTerminator(thenB, ir.NewJump(join))
	ir.SetTerminator(elseB, ir.NewJump(join))
	ir.SetTerminator(join, ir.NewReturn(ir.NewConstant(types.I(32), 0)))
	return fn, entry, thenB, elseB, join
}

func TestDominatorsOfDiamond(t *testing.T) {
	fn, entry, thenB, elseB, join := buildDiamond(t)
	info := Analyze(fn)

	if !info.Dominates(entry, join) {
		t.Fatal("expected entry to dominate join")
	}
	if info.Dominates(thenB, join) {
		t.Fatal("then must not dominate join - else is an alternate path")
	}
	if info.Dominates(elseB, join) {
		t.Fatal("else must not dominate join - then is an alternate path")
	}
	if !info.StrictlyDominates(entry, thenB) {
		t.Fatal("expected entry to strictly dominate then")
	}
	if info.StrictlyDominates(entry, entry) {
		t.Fatal("a block does not strictly dominate itself")
	}
}

func TestImmediateDominators(t *testing.T) {
	fn, entry, thenB, _, join := buildDiamond(t)
	info := Analyze(fn)

	if _, ok := info.Parent(entry); ok {
		t.Fatal("the entry block has no immediate dominator")
	}
	if p, ok := info.Parent(thenB); !ok || p != entry {
		t.Fatalf("expected then's immediate dominator to be entry, got %v, ok=%v", p, ok)
	}
	if p, ok := info.Parent(join); !ok || p != entry {
		t.Fatalf("expected join's immediate dominator to be entry (the closest common dominator), got %v, ok=%v", p, ok)
	}
}

func TestDominanceFrontier(t *testing.T) {
	fn, _, thenB, elseB, join := buildDiamond(t)
	info := Analyze(fn)

	thenFrontier := info.Frontier(thenB)
	if len(thenFrontier) != 1 || thenFrontier[0] != join {
		t.Fatalf("expected then's dominance frontier to be {join}, got %v", thenFrontier)
	}
	elseFrontier := info.Frontier(elseB)
	if len(elseFrontier) != 1 || elseFrontier[0] != join {
		t.Fatalf("expected else's dominance frontier to be {join}, got %v", elseFrontier)
	}
	if len(info.Frontier(join)) != 0 {
		t.Fatal("join's dominance frontier must be empty - nothing it dominates has an edge out of its domination")
	}
}

func TestUnreachableBlockHasNoImmediateDominator(t *testing.T) {
	fn := ir.NewFunction("main", nil, types.I(32))
	entry := ir.NewBasicBlock("entry", nil)
	orphan := ir.NewBasicBlock("orphan", nil)
	fn.AddBlock(entry)
	fn.AddBlock(orphan)
	ir.SetTerminator(entry, ir.NewReturn(ir.NewConstant(types.I(32), 0)))
	ir.SetTerminator(orphan, ir.NewReturn(ir.NewConstant(types.I(32), 1)))

	info := Analyze(fn)
	if _, ok := info.Parent(orphan); ok {
		t.Fatal("an unreachable block must have no immediate dominator")
	}
	if !info.Dominates(orphan, orphan) {
		t.Fatal("every block dominates itself, reachable or not")
	}
}
