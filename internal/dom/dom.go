// Package dom computes dominator sets, the immediate-dominator tree, and
// dominance frontiers for a Function's control-flow graph - the analysis
// AllocToPhi needs to know where to place Phis.
package dom

import "midir/internal/ir"

// Info is the result of running the dominator analysis over one Function.
// It is immutable once built; callers that mutate the CFG must ask the
// optimizer context for a fresh Info (see the optimizer package's
// graphChanged/domInfo contract).
type Info struct {
	fn *ir.Function

	// dominators[b] is the set of blocks that dominate b, including b
	// itself. An unreachable block's dominator set is, by convention,
	// every block in the function.
	dominators map[*ir.BasicBlock]map[*ir.BasicBlock]bool

	// idom[b] is b's immediate dominator; absent for the entry block
	// and for unreachable blocks.
	idom map[*ir.BasicBlock]*ir.BasicBlock

	// df[b] is b's dominance frontier.
	df map[*ir.BasicBlock]map[*ir.BasicBlock]bool
}

// Analyze runs the iterative fixed-point dominator computation over fn and
// derives the immediate-dominator relation and dominance frontiers from it.
func Analyze(fn *ir.Function) *Info {
	info := &Info{
		fn:         fn,
		dominators: make(map[*ir.BasicBlock]map[*ir.BasicBlock]bool),
		idom:       make(map[*ir.BasicBlock]*ir.BasicBlock),
		df:         make(map[*ir.BasicBlock]map[*ir.BasicBlock]bool),
	}
	if fn.Entry == nil {
		return info
	}

	all := fn.Blocks
	allSet := blockSet(all)

	// Initialize: dom(entry) = {entry}, dom(b) = all blocks for every
	// other b.
	for _, b := range all {
		if b == fn.Entry {
			info.dominators[b] = blockSet([]*ir.BasicBlock{b})
		} else {
			info.dominators[b] = cloneSet(allSet)
		}
	}

	for changed := true; changed; {
		changed = false
		for _, b := range all {
			if b == fn.Entry {
				continue
			}
			preds := b.Predecessors()
			if len(preds) == 0 {
				// Unreachable (no predecessors, not the entry): stays
				// dominated by every block, per the edge-case convention.
				continue
			}
			next := cloneSet(info.dominators[preds[0]])
			for _, p := range preds[1:] {
				intersect(next, info.dominators[p])
			}
			next[b] = true
			if !setEqual(next, info.dominators[b]) {
				info.dominators[b] = next
				changed = true
			}
		}
	}

	info.buildIdom(all)
	info.buildFrontiers(all)
	return info
}

// buildIdom derives each block's immediate dominator: the member of
// dom(b)\{b} whose own dominator set is the largest proper subset of
// dom(b) - equivalently, the one closest to b in the dominator tree.
func (info *Info) buildIdom(all []*ir.BasicBlock) {
	for _, b := range all {
		if b == info.fn.Entry {
			continue
		}
		dom := info.dominators[b]
		if len(dom) == len(info.fn.Blocks) {
			// Unreachable block: dominated by everything, no immediate
			// dominator.
			if !reachableFromEntry(info.fn, b) {
				continue
			}
		}
		var best *ir.BasicBlock
		bestSize := -1
		for cand := range dom {
			if cand == b {
				continue
			}
			size := len(info.dominators[cand])
			if size > bestSize {
				best = cand
				bestSize = size
			}
		}
		if best != nil {
			info.idom[b] = best
		}
	}
}

// buildFrontiers derives each block x's dominance frontier: every successor
// s of a block dominated by x such that x does not strictly dominate s.
func (info *Info) buildFrontiers(all []*ir.BasicBlock) {
	for _, x := range all {
		info.df[x] = make(map[*ir.BasicBlock]bool)
	}
	for _, b := range all {
		for _, s := range b.Successors() {
			for x := range info.dominators[b] {
				if info.StrictlyDominates(x, s) {
					continue
				}
				info.df[x][s] = true
			}
		}
	}
}

// Dominators returns the set of blocks dominating b (including b itself).
func (info *Info) Dominators(b *ir.BasicBlock) map[*ir.BasicBlock]bool {
	return cloneSet(info.dominators[b])
}

// Dominates reports whether a dominates b (reflexively: a dominates a).
func (info *Info) Dominates(a, b *ir.BasicBlock) bool {
	return info.dominators[b][a]
}

// StrictlyDominates reports whether a dominates b and a != b.
func (info *Info) StrictlyDominates(a, b *ir.BasicBlock) bool {
	return a != b && info.Dominates(a, b)
}

// Parent returns b's immediate dominator, and whether one exists (it does
// not for the entry block or for an unreachable block).
func (info *Info) Parent(b *ir.BasicBlock) (*ir.BasicBlock, bool) {
	p, ok := info.idom[b]
	return p, ok
}

// Frontier returns b's dominance frontier: the placement set for Phis when
// promoting an alloc with a Store in b.
func (info *Info) Frontier(b *ir.BasicBlock) []*ir.BasicBlock {
	out := make([]*ir.BasicBlock, 0, len(info.df[b]))
	for f := range info.df[b] {
		out = append(out, f)
	}
	return out
}

func blockSet(bs []*ir.BasicBlock) map[*ir.BasicBlock]bool {
	s := make(map[*ir.BasicBlock]bool, len(bs))
	for _, b := range bs {
		s[b] = true
	}
	return s
}

func cloneSet(s map[*ir.BasicBlock]bool) map[*ir.BasicBlock]bool {
	out := make(map[*ir.BasicBlock]bool, len(s))
	for b := range s {
		out[b] = true
	}
	return out
}

func intersect(dst, other map[*ir.BasicBlock]bool) {
	for b := range dst {
		if !other[b] {
			delete(dst, b)
		}
	}
}

func setEqual(a, b map[*ir.BasicBlock]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}

// reachableFromEntry does a forward traversal from fn.Entry; used only to
// distinguish "unreachable, no idom" from "entry, no idom" in buildIdom.
func reachableFromEntry(fn *ir.Function, target *ir.BasicBlock) bool {
	if fn.Entry == nil {
		return false
	}
	seen := map[*ir.BasicBlock]bool{fn.Entry: true}
	stack := []*ir.BasicBlock{fn.Entry}
	for len(stack) > 0 {
		b := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if b == target {
			return true
		}
		for _, s := range b.Successors() {
			if !seen[s] {
				seen[s] = true
				stack = append(stack, s)
			}
		}
	}
	return false
}
