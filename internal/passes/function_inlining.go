package passes

import (
	ierrors "midir/internal/errors"
	"midir/internal/ir"
	"midir/internal/optimizer"
	"midir/internal/types"
)

// maxInlineSize bounds how large a callee's single block may be before
// FunctionInlining gives up on it; it exists only to keep the pass from
// duplicating arbitrarily large bodies at every call site, not to encode
// any cost-model subtlety.
const maxInlineSize = 8

// FunctionInliningPass replaces a Call to a small, non-recursive,
// single-block function with a copy of that function's body, so the
// interpreter (and every later pass) sees one flattened function instead of
// a Call - the un-inlined and inlined forms of the same program must be
// observably identical under internal/interp, which is exactly what makes
// this pass testable against the reference interpreter.
// It is deliberately conservative: only a callee whose entry block is its
// only block and whose terminator is a Return is considered, since any
// other terminator (Branch, Jump, Exit) would require splicing the callee's
// CFG into the caller's rather than a single straight-line copy.
type FunctionInliningPass struct{}

func (FunctionInliningPass) Name() string { return "FunctionInlining" }

func (FunctionInliningPass) RunOnProgram(prog *ir.Program, ctx *optimizer.Context) error {
	changed := false
	for _, fn := range prog.Functions {
		for _, b := range fn.Blocks {
			for _, inst := range append([]ir.Instruction(nil), b.Instructions...) {
				call, ok := inst.(*ir.Call)
				if !ok || call.IsDeleted() {
					continue
				}
				if !inlinable(fn, call.Target) {
					continue
				}
				if err := inlineCall(call); err != nil {
					return err
				}
				changed = true
			}
		}
	}
	if changed {
		ctx.GraphChanged()
	}
	return nil
}

func inlinable(caller *ir.Function, target *ir.Function) bool {
	if target == nil || target == caller {
		return false
	}
	if len(target.Blocks) != 1 || target.Entry == nil {
		return false
	}
	if len(target.Entry.Instructions) > maxInlineSize {
		return false
	}
	_, ok := target.Entry.Term.(*ir.Return)
	return ok
}

// inlineCall splices a fresh copy of call.Target's single block in place of
// call, binding the callee's Parameters to call's Args and rewriting every
// use of call to the copy of the Return's value.
func inlineCall(call *ir.Call) error {
	target := call.Target
	valMap := make(map[ir.Value]ir.Value, len(target.Params)+len(target.Entry.Instructions))
	for i, p := range target.Params {
		valMap[p] = call.Args[i]
	}

	for _, inst := range target.Entry.Instructions {
		clone, err := cloneInstruction(inst, valMap)
		if err != nil {
			return err
		}
		if err := ir.InsertBefore(call, clone); err != nil {
			return err
		}
		valMap[inst] = clone
	}

	ret := target.Entry.Term.(*ir.Return)
	if call.GetResult() != nil && ret.Val != nil {
		retVal := resolveInlined(ret.Val, valMap)
		if err := ir.ReplaceAllUses(call, retVal); err != nil {
			return err
		}
	}
	ir.DeleteDeep(call)
	return nil
}

// resolveInlined maps a callee-local operand to its caller-local
// counterpart: a Parameter resolves to the matching call argument, an
// Instruction to its clone, and anything else (a Constant, Undef) to a
// freshly-built copy so the clone's operand graph never shares a node with
// the callee's original body.
func resolveInlined(v ir.Value, valMap map[ir.Value]ir.Value) ir.Value {
	if v == nil {
		return nil
	}
	if mapped, ok := valMap[v]; ok {
		return mapped
	}
	if c, ok := v.(*ir.Constant); ok {
		clone := ir.NewConstant(c.Type().(*types.Integer), c.IntValue)
		valMap[v] = clone
		return clone
	}
	if u, ok := v.(*ir.Undef); ok {
		clone := ir.NewUndef(u.Type())
		valMap[v] = clone
		return clone
	}
	return v
}

func cloneInstruction(inst ir.Instruction, valMap map[ir.Value]ir.Value) (ir.Instruction, error) {
	switch v := inst.(type) {
	case *ir.Alloc:
		return ir.NewAlloc(v.InnerType), nil
	case *ir.Store:
		return ir.NewStore(resolveInlined(v.Pointer, valMap), resolveInlined(v.Val, valMap)), nil
	case *ir.Load:
		return ir.NewLoad(resolveInlined(v.Pointer, valMap)), nil
	case *ir.BinaryOp:
		return ir.NewBinaryOp(v.Op, resolveInlined(v.Left, valMap), resolveInlined(v.Right, valMap)), nil
	case *ir.UnaryOp:
		return ir.NewUnaryOp(v.Op, resolveInlined(v.Val, valMap)), nil
	case *ir.Call:
		args := make([]ir.Value, len(v.Args))
		for i, a := range v.Args {
			args[i] = resolveInlined(a, valMap)
		}
		return ir.NewCall(v.Target, args), nil
	default:
		return nil, ierrors.New(ierrors.ErrorVerifierFailed,
			"FunctionInlining cannot clone an instruction of this kind",
			ierrors.Context{Function: blockFuncName(inst.Block()), Block: blockLabel(inst.Block())})
	}
}
