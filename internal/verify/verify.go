// Package verify checks a Program against its structural, typing, and SSA
// invariants: it is the single operation verify(program) -> Ok | list of
// Diagnostic, run between optimizer passes when verification is enabled and
// as the failure boundary that turns a malformed post-pass IR into a fatal
// VerifierFailed.
package verify

import (
	"fmt"

	"midir/internal/dom"
	ierrors "midir/internal/errors"
	"midir/internal/ir"
	"midir/internal/types"
)

// Verify runs every structural, typing, and SSA check over program and
// returns the full list of findings - empty means Ok.
func Verify(program *ir.Program) []ierrors.Diagnostic {
	var diags []ierrors.Diagnostic
	for _, fn := range program.Functions {
		diags = append(diags, verifyFunction(fn)...)
	}
	return diags
}

// Ok reports whether program has no diagnostics.
func Ok(program *ir.Program) bool {
	return len(Verify(program)) == 0
}

func verifyFunction(fn *ir.Function) []ierrors.Diagnostic {
	var diags []ierrors.Diagnostic
	ctx := func(b *ir.BasicBlock, idx int) ierrors.Context {
		label := ""
		if b != nil {
			label = b.Label
		}
		return ierrors.Context{Function: fn.Name, Block: label, Index: idx}
	}
	fail := func(b *ir.BasicBlock, idx int, code, msg string) {
		diags = append(diags, ierrors.Diagnostic{
			Level: ierrors.Error, Code: code, Message: msg, Ctx: ctx(b, idx),
		})
	}

	if fn.Entry == nil {
		fail(nil, -1, ierrors.ErrorVerifierFailed, "function has no entry block")
		return diags
	}
	// Entry invariant: the entry block has no predecessors.
	if len(fn.Entry.Predecessors()) != 0 {
		fail(fn.Entry, -1, ierrors.ErrorVerifierFailed, "entry block has predecessors")
	}

	reachable := reachableBlocks(fn)
	info := dom.Analyze(fn)

	for _, b := range fn.Blocks {
		if b.Term == nil {
			fail(b, -1, ierrors.ErrorVerifierFailed, "block has no terminator")
			continue
		}
		if !reachable[b] {
			// Unreachable blocks are tolerated between passes (SimplifyBlocks
			// and DeadBlockElimination are what prune them); they are still
			// type-checked so a pass can never leave one malformed.
			for idx, inst := range b.Instructions {
				verifyInstructionTypes(inst, func(code, msg string) { fail(b, idx, code, msg) })
			}
			verifyTerminatorTypes(b.Term, func(code, msg string) { fail(b, len(b.Instructions), code, msg) })
			continue
		}

		for idx, inst := range b.Instructions {
			verifyInstructionTypes(inst, func(code, msg string) { fail(b, idx, code, msg) })
			if phi, ok := inst.(*ir.Phi); ok {
				verifyPhiPredecessors(phi, b, func(code, msg string) { fail(b, idx, code, msg) })
			}
			verifyDominance(inst, b, idx, info, func(code, msg string) { fail(b, idx, code, msg) })
		}
		verifyTerminatorTypes(b.Term, func(code, msg string) { fail(b, len(b.Instructions), code, msg) })
		verifyDominance(b.Term, b, len(b.Instructions), info, func(code, msg string) { fail(b, len(b.Instructions), code, msg) })

		// Use/def reciprocity.
		for _, inst := range b.Instructions {
			for i, v := range inst.Operands() {
				if v == nil {
					continue
				}
				if !hasReciprocalUse(v, inst, i) {
					fail(b, b.IndexOf(inst), ierrors.ErrorVerifierFailed,
						fmt.Sprintf("operand %d not reciprocally registered as a use", i))
				}
			}
		}
	}

	return diags
}

func hasReciprocalUse(v ir.Value, holder ir.OperandHolder, index int) bool {
	for _, u := range v.Users() {
		if u.Holder == holder && u.Index == index {
			return true
		}
	}
	return false
}

// verifyPhiPredecessors checks invariant 4, : domain(phi.sources) must
// equal the owning block's predecessor set exactly.
func verifyPhiPredecessors(phi *ir.Phi, b *ir.BasicBlock, fail func(code, msg string)) {
	preds := b.Predecessors()
	predSet := make(map[*ir.BasicBlock]bool, len(preds))
	for _, p := range preds {
		predSet[p] = true
	}
	seen := make(map[*ir.BasicBlock]bool, len(phi.Sources))
	for _, src := range phi.Sources {
		seen[src.Pred] = true
		if !predSet[src.Pred] {
			fail(ierrors.ErrorVerifierFailed, fmt.Sprintf("phi has a source from %s which is not a predecessor", src.Pred.Label))
		}
	}
	for p := range predSet {
		if !seen[p] {
			fail(ierrors.ErrorVerifierFailed, fmt.Sprintf("phi is missing a source for predecessor %s", p.Label))
		}
	}
}

// verifyDominance checks invariant 5, : every operand is a Constant,
// Parameter, or an instruction that dominates the use site. Phi operands are
// exempt from the local-position check: their "use site" is logically the
// end of the corresponding predecessor, which the source block always
// dominates (the predecessor ends with a jump/branch straight into the Phi's
// block).
func verifyDominance(inst ir.Instruction, b *ir.BasicBlock, idx int, info *dom.Info, fail func(code, msg string)) {
	if phi, ok := inst.(*ir.Phi); ok {
		for _, src := range phi.Sources {
			defInst, ok := src.Value.(ir.Instruction)
			if !ok {
				continue
			}
			defBlock := defInst.Block()
			if defBlock == nil {
				continue
			}
			if !info.Dominates(defBlock, src.Pred) {
				fail(ierrors.ErrorVerifierFailed, "phi operand does not dominate its source predecessor")
			}
		}
		return
	}
	for _, v := range inst.Operands() {
		defInst, ok := v.(ir.Instruction)
		if !ok {
			continue
		}
		defBlock := defInst.Block()
		if defBlock == nil {
			continue
		}
		if defBlock == b {
			if defBlock.IndexOf(defInst) >= idx {
				fail(ierrors.ErrorVerifierFailed, "operand does not dominate its use (later in the same block)")
			}
			continue
		}
		if !info.StrictlyDominates(defBlock, b) {
			fail(ierrors.ErrorVerifierFailed, "operand does not dominate its use site")
		}
	}
}

func verifyInstructionTypes(inst ir.Instruction, fail func(code, msg string)) {
	switch v := inst.(type) {
	case *ir.Store:
		ptrType, ok := v.Pointer.Type().(*types.Pointer)
		if !ok {
			fail(ierrors.ErrorVerifierFailed, "store's pointer operand is not a pointer")
			return
		}
		if !ptrType.Elem.Equal(v.Val.Type()) {
			fail(ierrors.ErrorVerifierFailed, "store's value type does not match the pointer's element type")
		}
	case *ir.Load:
		if _, ok := v.Pointer.Type().(*types.Pointer); !ok {
			fail(ierrors.ErrorVerifierFailed, "load's pointer operand is not a pointer")
		}
	case *ir.BinaryOp:
		if !v.Left.Type().Equal(v.Right.Type()) {
			fail(ierrors.ErrorVerifierFailed, "binary operator's operands have mismatched types")
		}
	case *ir.Phi:
		for _, src := range v.Sources {
			if !src.Value.Type().Equal(v.Type()) {
				fail(ierrors.ErrorVerifierFailed, "phi source type does not match the phi's declared type")
			}
		}
	case *ir.Call:
		if len(v.Args) != len(v.Target.Params) {
			fail(ierrors.ErrorVerifierFailed, "call has the wrong number of arguments")
			return
		}
		for i, a := range v.Args {
			if !a.Type().Equal(v.Target.Params[i].Type()) {
				fail(ierrors.ErrorVerifierFailed, fmt.Sprintf("call argument %d has the wrong type", i))
			}
		}
	}
}

func verifyTerminatorTypes(term ir.Terminator, fail func(code, msg string)) {
	if br, ok := term.(*ir.Branch); ok {
		it, ok := br.Cond.Type().(*types.Integer)
		if !ok || !it.IsBool() {
			fail(ierrors.ErrorVerifierFailed, "branch condition is not bool")
		}
	}
}

// reachableBlocks returns the set of blocks reachable from fn's entry via
// successor edges.
func reachableBlocks(fn *ir.Function) map[*ir.BasicBlock]bool {
	seen := make(map[*ir.BasicBlock]bool)
	if fn.Entry == nil {
		return seen
	}
	stack := []*ir.BasicBlock{fn.Entry}
	seen[fn.Entry] = true
	for len(stack) > 0 {
		b := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, s := range b.Successors() {
			if !seen[s] {
				seen[s] = true
				stack = append(stack, s)
			}
		}
	}
	return seen
}
