package passes

import (
	ierrors "midir/internal/errors"
	"midir/internal/ir"
	"midir/internal/optimizer"
	"midir/internal/types"
)

// ConstantFoldingPass folds BinaryOp/UnaryOp over two Constants, normalizes
// Branches with a constant or degenerate condition into Jumps, and replaces
// single-source Phis with their one source value.
type ConstantFoldingPass struct{}

func (ConstantFoldingPass) Name() string { return "ConstantFolding" }

func (ConstantFoldingPass) RunOnFunction(fn *ir.Function, ctx *optimizer.Context) error {
	for _, b := range fn.Blocks {
		for _, inst := range append([]ir.Instruction(nil), b.Instructions...) {
			if inst.IsDeleted() {
				continue
			}
			if err := foldInstruction(inst, ctx); err != nil {
				return err
			}
		}
		if err := foldTerminator(b, ctx); err != nil {
			return err
		}
	}
	return nil
}

func foldInstruction(inst ir.Instruction, ctx *optimizer.Context) error {
	switch v := inst.(type) {
	case *ir.BinaryOp:
		left, lok := v.Left.(*ir.Constant)
		right, rok := v.Right.(*ir.Constant)
		if !lok || !rok {
			return nil
		}
		width := left.Type().(*types.Integer).Width
		result, isBool, err := ir.ComputeBinary(v.Op, width, left.IntValue, right.IntValue)
		if err != nil {
			return ierrors.New(foldErrorCode(v.Op), err.Error(), ierrors.Context{
				Function: blockFuncName(v.Block()), Block: blockLabel(v.Block()),
			})
		}
		resultType := left.Type()
		if isBool {
			resultType = types.Bool()
		}
		folded := ir.NewConstant(resultType.(*types.Integer), result)
		if err := ir.ReplaceAllUses(v, folded); err != nil {
			return err
		}
		ir.DeleteDeep(v)
		ctx.InstrChanged()

	case *ir.UnaryOp:
		c, ok := v.Val.(*ir.Constant)
		if !ok {
			return nil
		}
		width := c.Type().(*types.Integer).Width
		result, err := ir.ComputeUnary(v.Op, width, c.IntValue)
		if err != nil {
			return ierrors.New(ierrors.ErrorFoldBadBool, err.Error(), ierrors.Context{
				Function: blockFuncName(v.Block()), Block: blockLabel(v.Block()),
			})
		}
		folded := ir.NewConstant(v.Type().(*types.Integer), result)
		if err := ir.ReplaceAllUses(v, folded); err != nil {
			return err
		}
		ir.DeleteDeep(v)
		ctx.InstrChanged()

	case *ir.Phi:
		var only ir.Value
		distinct := true
		for _, src := range v.Sources {
			if only == nil {
				only = src.Value
			} else if only != src.Value {
				distinct = false
				break
			}
		}
		if only == nil || !distinct {
			return nil
		}
		if err := ir.ReplaceAllUses(v, only); err != nil {
			return err
		}
		ir.DeleteDeep(v)
		ctx.InstrChanged()
	}
	return nil
}

// foldTerminator normalizes a block's terminator via normalizeBranch and
// reports the change to ctx.
func foldTerminator(b *ir.BasicBlock, ctx *optimizer.Context) error {
	changed, err := normalizeBranch(b)
	if err != nil {
		return err
	}
	if changed {
		ctx.GraphChanged()
	}
	return nil
}

func foldErrorCode(op ir.BinaryOpKind) string {
	if op == ir.Div || op == ir.Mod {
		return ierrors.ErrorFoldDivByZero
	}
	return ierrors.ErrorVerifierFailed
}
