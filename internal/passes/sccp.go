package passes

import (
	"midir/internal/ir"
	"midir/internal/optimizer"
	"midir/internal/types"
)

// lattice is SCCP's per-value abstract state: Top (not yet proven
// constant), a concrete Constant, or Bottom (proven to vary).
type latticeKind int

const (
	latticeTop latticeKind = iota
	latticeConst
	latticeBottom
)

type lattice struct {
	kind latticeKind
	val  int64
	typ  types.Type
}

var topLattice = lattice{kind: latticeTop}
var bottomLattice = lattice{kind: latticeBottom}

func constLattice(typ types.Type, v int64) lattice {
	return lattice{kind: latticeConst, val: v, typ: typ}
}

func meet(a, b lattice) lattice {
	if a.kind == latticeTop {
		return b
	}
	if b.kind == latticeTop {
		return a
	}
	if a.kind == latticeBottom || b.kind == latticeBottom {
		return bottomLattice
	}
	if a.val == b.val {
		return a
	}
	return bottomLattice
}

// SCCPPass is sparse conditional constant propagation: a worklist-driven
// generalization of ConstantFolding that also tracks block reachability
// through constant/degenerate Branch conditions, so it folds values whose
// constancy only becomes apparent once an unreachable predecessor's Phi
// source is discounted. It never visits a block ConstantFolding/
// DeadBlockElimination would already have proven dead. It computes values
// with the same ir.ComputeBinary/ComputeUnary that ConstantFolding uses, so
// the two passes can never disagree about what a given BinaryOp/UnaryOp
// computes; an operation whose computation fails (division or modulo by
// zero) is treated as varying and left unfolded, with no error reported.
type SCCPPass struct{}

func (SCCPPass) Name() string { return "SCCP" }

func (SCCPPass) RunOnFunction(fn *ir.Function, ctx *optimizer.Context) error {
	if fn.Entry == nil {
		return nil
	}
	values := make(map[ir.Value]lattice)
	reachable := map[*ir.BasicBlock]bool{fn.Entry: true}

	blockWork := []*ir.BasicBlock{fn.Entry}
	var instrWork []ir.Instruction

	visitBlock := func(b *ir.BasicBlock) {
		for _, inst := range b.Instructions {
			instrWork = append(instrWork, inst)
		}
	}

	for len(blockWork) > 0 || len(instrWork) > 0 {
		for len(blockWork) > 0 {
			b := blockWork[0]
			blockWork = blockWork[1:]
			visitBlock(b)
			propagateSuccessors(b, values, reachable, &blockWork)
		}
		for len(instrWork) > 0 {
			inst := instrWork[0]
			instrWork = instrWork[1:]
			if inst.Block() == nil || !reachable[inst.Block()] {
				continue
			}
			changed := evalInstr(inst, values, reachable)
			if changed {
				for _, u := range inst.Users() {
					if holderInst, ok := u.Holder.(ir.Instruction); ok {
						instrWork = append(instrWork, holderInst)
					}
				}
			}
		}
	}

	changed := false
	for _, b := range fn.Blocks {
		if !reachable[b] {
			continue
		}
		for _, inst := range append([]ir.Instruction(nil), b.Instructions...) {
			if inst.IsDeleted() {
				continue
			}
			lat, ok := values[inst.GetResult()]
			if !ok || lat.kind != latticeConst {
				continue
			}
			folded := ir.NewConstant(lat.typ.(*types.Integer), lat.val)
			if err := ir.ReplaceAllUses(inst, folded); err != nil {
				return err
			}
			ir.DeleteDeep(inst)
			changed = true
		}
	}
	if changed {
		ctx.InstrChanged()
	}
	return nil
}

func propagateSuccessors(b *ir.BasicBlock, values map[ir.Value]lattice, reachable map[*ir.BasicBlock]bool, work *[]*ir.BasicBlock) {
	if b.Term == nil {
		return
	}
	var succs []*ir.BasicBlock
	switch t := b.Term.(type) {
	case *ir.Branch:
		if lat, ok := operandLattice(t.Cond, values); ok && lat.kind == latticeConst {
			if lat.val == 1 {
				succs = []*ir.BasicBlock{t.IfTrue}
			} else {
				succs = []*ir.BasicBlock{t.IfFalse}
			}
		} else {
			succs = []*ir.BasicBlock{t.IfTrue, t.IfFalse}
		}
	default:
		succs = b.Term.Successors()
	}
	for _, s := range succs {
		if s == nil || reachable[s] {
			continue
		}
		reachable[s] = true
		*work = append(*work, s)
	}
}

func evalInstr(inst ir.Instruction, values map[ir.Value]lattice, reachable map[*ir.BasicBlock]bool) bool {
	var next lattice
	switch v := inst.(type) {
	case *ir.BinaryOp:
		left, lok := operandLattice(v.Left, values)
		right, rok := operandLattice(v.Right, values)
		if !lok || !rok {
			return false
		}
		if left.kind == latticeBottom || right.kind == latticeBottom {
			next = bottomLattice
		} else if left.kind == latticeConst && right.kind == latticeConst {
			width := left.typ.(*types.Integer).Width
			result, isBool, err := ir.ComputeBinary(v.Op, width, left.val, right.val)
			if err != nil {
				next = bottomLattice
			} else {
				typ := left.typ
				if isBool {
					typ = types.Bool()
				}
				next = constLattice(typ, result)
			}
		} else {
			return false
		}
	case *ir.UnaryOp:
		val, ok := operandLattice(v.Val, values)
		if !ok {
			return false
		}
		if val.kind == latticeBottom {
			next = bottomLattice
		} else if val.kind == latticeConst {
			result, err := ir.ComputeUnary(v.Op, val.typ.(*types.Integer).Width, val.val)
			if err != nil {
				next = bottomLattice
			} else {
				next = constLattice(val.typ, result)
			}
		} else {
			return false
		}
	case *ir.Phi:
		merged := topLattice
		any := false
		for _, src := range v.Sources {
			if !reachable[src.Pred] {
				continue
			}
			lat, ok := operandLattice(src.Value, values)
			if !ok {
				continue
			}
			any = true
			merged = meet(merged, lat)
		}
		if !any {
			return false
		}
		next = merged
	default:
		return false
	}

	result := inst.GetResult()
	if result == nil {
		return false
	}
	old, had := values[result]
	if had && old == next {
		return false
	}
	values[result] = next
	return true
}

func operandLattice(v ir.Value, values map[ir.Value]lattice) (lattice, bool) {
	switch val := v.(type) {
	case *ir.Constant:
		return constLattice(val.Type(), val.IntValue), true
	case *ir.Parameter:
		return bottomLattice, true
	default:
		lat, ok := values[v]
		return lat, ok
	}
}
