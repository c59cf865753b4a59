package passes

import (
	ierrors "midir/internal/errors"
	"midir/internal/ir"
)

// normalizeBranch rewrites b's terminator into a Jump when it is a Branch
// whose targets are identical (regardless of the condition) or whose
// condition is a Constant 0/1 - the union of both fold variants. It reports whether a rewrite happened.
func normalizeBranch(b *ir.BasicBlock) (bool, error) {
	br, ok := b.Term.(*ir.Branch)
	if !ok {
		return false, nil
	}

	if br.IfTrue == br.IfFalse {
		ir.SetTerminator(b, ir.NewJump(br.IfTrue))
		return true, nil
	}

	c, ok := br.Cond.(*ir.Constant)
	if !ok {
		return false, nil
	}
	switch c.IntValue {
	case 1:
		ir.SetTerminator(b, ir.NewJump(br.IfTrue))
	case 0:
		ir.SetTerminator(b, ir.NewJump(br.IfFalse))
	default:
		return false, ierrors.New(ierrors.ErrorFoldBadBool, "branch condition constant is not 0 or 1", ierrors.Context{
			Function: blockFuncName(b), Block: b.Label,
		})
	}
	return true, nil
}

func blockFuncName(b *ir.BasicBlock) string {
	if b == nil || b.Fn == nil {
		return ""
	}
	return b.Fn.Name
}

func blockLabel(b *ir.BasicBlock) string {
	if b == nil {
		return ""
	}
	return b.Label
}
