// Package passes implements the optimizer's function and program passes:
// each is a FunctionPass or ProgramPass over the internal/ir graph, driven
// to a fixed point by internal/optimizer.
package passes

import (
	"fmt"

	"midir/internal/dom"
	ierrors "midir/internal/errors"
	"midir/internal/ir"
	"midir/internal/optimizer"
)

// AllocToPhiPass promotes every promotable Alloc (one whose users are only
// Loads and plain-pointer-operand Stores) to Phis placed at dominance
// frontiers, up front, before the rest of the pipeline.
type AllocToPhiPass struct{}

func (AllocToPhiPass) Name() string { return "AllocToPhi" }

func (AllocToPhiPass) RunOnFunction(fn *ir.Function, ctx *optimizer.Context) error {
	var allocs []*ir.Alloc
	for _, b := range fn.Blocks {
		for _, inst := range b.Instructions {
			if a, ok := inst.(*ir.Alloc); ok && promotable(a) {
				allocs = append(allocs, a)
			}
		}
	}
	for _, a := range allocs {
		if err := promote(fn, a, ctx); err != nil {
			return err
		}
	}
	return nil
}

// promotable reports whether every use of a is either a Load's pointer
// operand or a Store's pointer operand - never a Store's value operand or
// any other operand position (a Call argument, say), which would let a's
// pointer escape the function's local dataflow.
func promotable(a *ir.Alloc) bool {
	for _, u := range a.Users() {
		switch u.Holder.(type) {
		case *ir.Load, *ir.Store:
			if u.Index != 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func promote(fn *ir.Function, a *ir.Alloc, ctx *optimizer.Context) error {
	info := ctx.DomInfo(fn)

	var stores []*ir.Store
	var loads []*ir.Load
	for _, u := range a.Users() {
		switch holder := u.Holder.(type) {
		case *ir.Store:
			stores = append(stores, holder)
		case *ir.Load:
			loads = append(loads, holder)
		}
	}

	// Step 2: place Phis at the iterated dominance frontier of every
	// block containing a Store to a.
	phiFor := make(map[*ir.BasicBlock]*ir.Phi)
	var worklist []*ir.BasicBlock
	seededDefBlock := make(map[*ir.BasicBlock]bool)
	for _, s := range stores {
		b := s.Block()
		if !seededDefBlock[b] {
			seededDefBlock[b] = true
			worklist = append(worklist, b)
		}
	}
	for len(worklist) > 0 {
		b := worklist[0]
		worklist = worklist[1:]
		for _, f := range info.Frontier(b) {
			if _, ok := phiFor[f]; ok {
				continue
			}
			phi := ir.NewPhi(a.InnerType)
			if err := ir.PushFront(f, phi); err != nil {
				return err
			}
			phiFor[f] = phi
			worklist = append(worklist, f)
		}
	}
	if len(phiFor) > 0 || len(stores) > 0 || len(loads) > 0 {
		ctx.InstrChanged()
	}

	// Step 3: rewrite every Load to the reaching definition found by
	// walking backward from its own position, then up the dominator
	// tree.
	for _, l := range loads {
		b := l.Block()
		idx := b.IndexOf(l)
		def := reachingDef(b, idx-1, a, phiFor, info)
		if def == nil {
			def = ir.NewUndef(l.Type())
		}
		if err := ir.ReplaceAllUses(l, def); err != nil {
			return err
		}
		ir.DeleteDeep(l)
	}

	// Step 4: fill each inserted Phi's operands from the reaching
	// definition at the end of every predecessor.
	placeholders := make(map[*ir.Undef]bool)
	for f, phi := range phiFor {
		for _, p := range f.Predecessors() {
			def := reachingDef(p, len(p.Instructions)-1, a, phiFor, info)
			if def == nil {
				u := ir.NewUndef(a.InnerType)
				placeholders[u] = true
				def = u
			}
			phi.AddSource(p, def)
		}
	}

	// Step 5: drop Phis nobody reads; anything still carrying a
	// placeholder and actually used is a genuine missing definition.
	for _, phi := range phiFor {
		if len(phi.Users()) == 0 {
			ir.DeleteDeep(phi)
			continue
		}
		for _, src := range phi.Sources {
			if u, ok := src.Value.(*ir.Undef); ok && placeholders[u] {
				return ierrors.New(ierrors.ErrorUndefinedValue,
					fmt.Sprintf("no reaching definition for %s on entry from %s", a.InnerType, src.Pred.Label),
					ierrors.Context{Function: fn.Name, Block: src.Pred.Label})
			}
		}
	}

	// Step 6: the original Stores and the Alloc itself are now dead.
	for _, s := range stores {
		ir.DeleteDeep(s)
	}
	ir.DeleteDeep(a)

	return nil
}

// reachingDef walks b's instructions backward from index fromIdx looking
// for a Store to target or this alloc's inserted Phi, then continues at
// b's immediate dominator; returns nil if the search runs off the top of
// the dominator tree with nothing found.
func reachingDef(b *ir.BasicBlock, fromIdx int, target *ir.Alloc, phiFor map[*ir.BasicBlock]*ir.Phi, info *dom.Info) ir.Value {
	for i := fromIdx; i >= 0 && i < len(b.Instructions); i-- {
		inst := b.Instructions[i]
		if st, ok := inst.(*ir.Store); ok && st.Pointer == target {
			return st.Val
		}
		if phi, ok := phiFor[b]; ok && inst == ir.Instruction(phi) {
			return phi
		}
	}
	parent, ok := info.Parent(b)
	if !ok {
		return nil
	}
	return reachingDef(parent, len(parent.Instructions)-1, target, phiFor, info)
}
