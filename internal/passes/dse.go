package passes

import (
	"midir/internal/ir"
	"midir/internal/optimizer"
)

// DSEPass is dead store elimination: within a single straight-line block, a
// Store to some pointer that is immediately followed - with no intervening
// Load of that pointer and no intervening Call - by another Store to the
// same pointer can never have its value observed, so the earlier Store is
// removed. It exists for the Allocs AllocToPhi could not promote (escaped
// into a Call argument, or a pointer-typed Parameter): those keep their
// Store/Load pairs instead of becoming Phis, so only a local, conservative
// pass like this one can still clean up their redundant writes. A Call
// clears all pending candidates because an escaped pointer may be read (or
// re-stored) by the callee; block boundaries are not crossed for the same
// reason DeadInstructionElimination stays local to one function at a time.
type DSEPass struct{}

func (DSEPass) Name() string { return "DSE" }

func (DSEPass) RunOnFunction(fn *ir.Function, ctx *optimizer.Context) error {
	changed := false
	for _, b := range fn.Blocks {
		pending := make(map[ir.Value]*ir.Store)
		for _, inst := range append([]ir.Instruction(nil), b.Instructions...) {
			switch v := inst.(type) {
			case *ir.Store:
				if prev, ok := pending[v.Pointer]; ok && prev != v && !prev.IsDeleted() {
					ir.DeleteDeep(prev)
					changed = true
				}
				pending[v.Pointer] = v
			case *ir.Load:
				delete(pending, v.Pointer)
			case *ir.Call:
				pending = make(map[ir.Value]*ir.Store)
			}
		}
	}
	if changed {
		ctx.InstrChanged()
	}
	return nil
}
