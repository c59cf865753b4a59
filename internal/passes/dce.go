package passes

import (
	"midir/internal/ir"
	"midir/internal/optimizer"
)

// DCEPass is program-level dead-function elimination: it removes every
// Function that is neither the program's entry nor transitively reachable
// from it through a Call, the Program-level analogue of
// DeadInstructionElimination's reachability walk. It is a ProgramPass
// because, unlike an instruction, a Function lives in Program.Functions
// rather than any one Function's own body. It also recomputes every
// Function's Effect flag, the one place in the pipeline with a
// whole-Program view of the call graph that purity inference needs.
type DCEPass struct{}

func (DCEPass) Name() string { return "DCE" }

func (DCEPass) RunOnProgram(prog *ir.Program, ctx *optimizer.Context) error {
	if computeEffects(prog.Functions) {
		ctx.InstrChanged()
	}

	entry := prog.Entry()
	if entry == nil {
		return nil
	}
	live := map[*ir.Function]bool{entry: true}
	work := []*ir.Function{entry}
	for len(work) > 0 {
		fn := work[0]
		work = work[1:]
		for _, b := range fn.Blocks {
			for _, inst := range b.Instructions {
				call, ok := inst.(*ir.Call)
				if !ok || call.Target == nil || live[call.Target] {
					continue
				}
				live[call.Target] = true
				work = append(work, call.Target)
			}
		}
	}

	changed := false
	for _, fn := range append([]*ir.Function(nil), prog.Functions...) {
		if live[fn] {
			continue
		}
		prog.RemoveFunction(fn)
		changed = true
	}
	if changed {
		ctx.GraphChanged()
	}
	return nil
}

// computeEffects derives each Function's Effect flag from scratch: a
// function is impure if it directly executes a Store or calls a Function
// that is (transitively) impure. It iterates to a fixed point over the call
// graph so mutual recursion resolves correctly, and reports whether any
// Function's flag differs from what it was before this call.
func computeEffects(fns []*ir.Function) bool {
	before := make(map[*ir.Function]bool, len(fns))
	for _, fn := range fns {
		before[fn] = fn.Effect
		fn.Effect = false
	}
	for {
		round := false
		for _, fn := range fns {
			if fn.Effect || !functionHasDirectEffect(fn) {
				continue
			}
			fn.Effect = true
			round = true
		}
		if !round {
			break
		}
	}
	for _, fn := range fns {
		if before[fn] != fn.Effect {
			return true
		}
	}
	return false
}

// functionHasDirectEffect reports whether fn executes a Store, or calls a
// Function already known (or assumed, for an unresolved target) impure.
func functionHasDirectEffect(fn *ir.Function) bool {
	for _, b := range fn.Blocks {
		for _, inst := range b.Instructions {
			switch v := inst.(type) {
			case *ir.Store:
				return true
			case *ir.Call:
				if v.Target == nil || v.Target.Effect {
					return true
				}
			}
		}
	}
	return false
}
