package passes

import (
	"midir/internal/ir"
	"midir/internal/optimizer"
)

// SimplifyBlocksPass normalizes degenerate terminators and collapses empty
// blocks that merely jump elsewhere, rewiring predecessors (and any Phi
// sources in the target) to point past them.
type SimplifyBlocksPass struct{}

func (SimplifyBlocksPass) Name() string { return "SimplifyBlocks" }

func (SimplifyBlocksPass) RunOnFunction(fn *ir.Function, ctx *optimizer.Context) error {
	changed := false

	for _, b := range fn.Blocks {
		did, err := normalizeBranch(b)
		if err != nil {
			return err
		}
		changed = changed || did
	}

	for _, b := range append([]*ir.BasicBlock(nil), fn.Blocks...) {
		if b == fn.Entry {
			continue // the entry block has no predecessors to redirect onto it
		}
		jmp, ok := b.Term.(*ir.Jump)
		if !ok || len(b.Instructions) != 0 {
			continue
		}
		target := jmp.Target
		if target == b {
			continue // a single-block infinite loop has nothing to collapse onto
		}

		for _, pred := range b.Predecessors() {
			rewritePhiSources(target, b, pred)
		}
		removeCollapsedSource(target, b)
		if err := ir.ReplaceAllUses(b, target); err != nil {
			return err
		}
		for _, inst := range append([]ir.Instruction(nil), b.Instructions...) {
			ir.DeleteDeep(inst)
		}
		ir.DeleteDeep(b.Term)
		b.Term = nil
		fn.RemoveBlock(b)
		changed = true
	}

	if changed {
		ctx.GraphChanged()
	}
	return nil
}

// rewritePhiSources adds, to every Phi at the top of target, a source for
// pred carrying whatever value target's Phis previously associated with the
// collapsed block removed - i.e. pred inherits removed's incoming value.
func rewritePhiSources(target, removed, pred *ir.BasicBlock) {
	for _, inst := range target.Instructions {
		phi, ok := inst.(*ir.Phi)
		if !ok {
			break // Phis are always at the top of a block
		}
		val, ok := phi.SourceFor(removed)
		if !ok {
			continue
		}
		if _, already := phi.SourceFor(pred); already {
			continue
		}
		phi.AddSource(pred, val)
	}
}

// removeCollapsedSource drops target's Phi sources attributed to removed,
// now that every predecessor of removed has its own source entry.
func removeCollapsedSource(target, removed *ir.BasicBlock) {
	for _, inst := range target.Instructions {
		phi, ok := inst.(*ir.Phi)
		if !ok {
			break
		}
		phi.RemoveSource(removed)
	}
}
