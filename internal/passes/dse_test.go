package passes

import (
	"testing"

	"midir/internal/ir"
	"midir/internal/optimizer"
	"midir/internal/types"
)

// TestDSERemovesOverwrittenStore builds a non-promotable alloc (escaped via
// a Call argument) that is stored to twice in a row with no intervening
// Load; the first Store can never be observed and DSE should delete it.
func TestDSERemovesOverwrittenStore(t *testing.T) {
	sink := ir.NewFunction("sink", []types.Type{&types.Pointer{Elem: types.I(32)}}, types.VoidType())
	sb := ir.NewBasicBlock("entry", nil)
	sink.AddBlock(sb)
	ir.SetTerminator(sb, ir.NewExit())

	fn := ir.NewFunction("main", nil, types.VoidType())
	entry := ir.NewBasicBlock("entry", nil)
	fn.AddBlock(entry)

	a := ir.NewAlloc(types.I(32))
	ir.PushBack(entry, a)
	first := ir.NewStore(a, ir.NewConstant(types.I(32), 1))
	ir.PushBack(entry, first)
	second := ir.NewStore(a, ir.NewConstant(types.I(32), 2))
	ir.PushBack(entry, second)
	escape := ir.NewCall(sink, []ir.Value{a})
	ir.PushBack(entry, escape)
	ir.SetTerminator(entry, ir.NewExit())

	ctx := optimizer.NewContext()
	if err := (DSEPass{}).RunOnFunction(fn, ctx); err != nil {
		t.Fatal(err)
	}
	if !first.IsDeleted() {
		t.Fatal("expected the overwritten store to be deleted")
	}
	if second.IsDeleted() {
		t.Fatal("expected the surviving store to remain")
	}
}

func TestDSEKeepsStoreObservedByLoad(t *testing.T) {
	fn := ir.NewFunction("main", nil, types.I(32))
	entry := ir.NewBasicBlock("entry", nil)
	fn.AddBlock(entry)

	a := ir.NewAlloc(types.I(32))
	ir.PushBack(entry, a)
	st := ir.NewStore(a, ir.NewConstant(types.I(32), 1))
	ir.PushBack(entry, st)
	ld := ir.NewLoad(a)
	ir.PushBack(entry, ld)
	st2 := ir.NewStore(a, ir.NewConstant(types.I(32), 2))
	ir.PushBack(entry, st2)
	ir.SetTerminator(entry, ir.NewReturn(ld))

	ctx := optimizer.NewContext()
	if err := (DSEPass{}).RunOnFunction(fn, ctx); err != nil {
		t.Fatal(err)
	}
	if st.IsDeleted() {
		t.Fatal("expected the store read by the intervening load to survive")
	}
}
