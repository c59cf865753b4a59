package optimizer

import (
	"testing"

	"midir/internal/ir"
	"midir/internal/types"
)

func buildStraightLine() *ir.Function {
	fn := ir.NewFunction("main", nil, types.I(32))
	entry := ir.NewBasicBlock("entry", nil)
	fn.AddBlock(entry)
	ir.SetTerminator(entry, ir.NewReturn(ir.NewConstant(types.I(32), 0)))
	return fn
}

func TestDomInfoIsCachedUntilGraphChanged(t *testing.T) {
	fn := buildStraightLine()
	ctx := NewContext()

	first := ctx.DomInfo(fn)
	second := ctx.DomInfo(fn)
	if first != second {
		t.Fatal("expected the same cached *dom.Info across calls with no intervening GraphChanged")
	}

	ctx.GraphChanged()
	third := ctx.DomInfo(fn)
	if third == first {
		t.Fatal("expected GraphChanged to invalidate the dominator cache")
	}
}

func TestInstrChangedDoesNotInvalidateDomCache(t *testing.T) {
	fn := buildStraightLine()
	ctx := NewContext()

	first := ctx.DomInfo(fn)
	ctx.InstrChanged()
	second := ctx.DomInfo(fn)
	if first != second {
		t.Fatal("InstrChanged must not invalidate the dominator cache - it signals no CFG shape change")
	}
	if !ctx.changed {
		t.Fatal("expected the changed bit to be set after InstrChanged")
	}
}

func TestResetClearsChangedWithoutTouchingDomCache(t *testing.T) {
	fn := buildStraightLine()
	ctx := NewContext()
	info := ctx.DomInfo(fn)
	ctx.InstrChanged()
	ctx.reset()
	if ctx.changed {
		t.Fatal("expected reset to clear the changed bit")
	}
	if ctx.DomInfo(fn) != info {
		t.Fatal("reset must not clear the dominator cache")
	}
}
