package interp

import (
	ierrors "midir/internal/errors"
	"midir/internal/ir"
	"midir/internal/types"
)

// execInstr evaluates one non-terminator instruction and binds its result
// (if any) into fr.values.
func (in *Interp) execInstr(fr *frame, inst ir.Instruction) error {
	switch v := inst.(type) {
	case *ir.Alloc:
		fr.values[v] = NewBox(v.InnerType)
		return nil

	case *ir.Store:
		box, err := in.boxOf(fr, v.Pointer)
		if err != nil {
			return err
		}
		val, err := in.valueOf(fr, v.Val)
		if err != nil {
			return err
		}
		box.Store(val)
		return nil

	case *ir.Load:
		box, err := in.boxOf(fr, v.Pointer)
		if err != nil {
			return err
		}
		held, ok := box.Load()
		if !ok {
			return newTrap(ierrors.ErrorUseOfUninitialized, "load from a cell that was never stored to")
		}
		fr.values[v] = held
		return nil

	case *ir.BinaryOp:
		left, err := in.intOf(fr, v.Left)
		if err != nil {
			return err
		}
		right, err := in.intOf(fr, v.Right)
		if err != nil {
			return err
		}
		result, isBool, err := ir.ComputeBinary(v.Op, left.Width, left.V, right.V)
		if err != nil {
			return newTrap(divCode(v.Op), err.Error())
		}
		width := left.Width
		if isBool {
			width = 1
		}
		fr.values[v] = Integer{Width: width, V: result}
		return nil

	case *ir.UnaryOp:
		val, err := in.intOf(fr, v.Val)
		if err != nil {
			return err
		}
		result, err := ir.ComputeUnary(v.Op, val.Width, val.V)
		if err != nil {
			return newTrap(ierrors.ErrorBadBool, err.Error())
		}
		fr.values[v] = Integer{Width: val.Width, V: result}
		return nil

	case *ir.Phi:
		if fr.prevBlock == nil {
			return newTrap(ierrors.ErrorUnreachedPredecessor, "phi evaluated with no previous block")
		}
		src, ok := v.SourceFor(fr.prevBlock)
		if !ok {
			return newTrap(ierrors.ErrorUnreachedPredecessor, "phi has no source for the block control arrived from")
		}
		val, err := in.valueOf(fr, src)
		if err != nil {
			return err
		}
		fr.values[v] = val
		return nil

	}
	return ierrors.New(ierrors.ErrorVerifierFailed, "unknown instruction kind", ierrors.Context{})
}

// execCall evaluates a Call's arguments in the caller frame and pushes a new
// frame for its target - the interpreter's oracle role depends on this
// being observably identical whether or not FunctionInlining has since
// replaced the call site with a copy of the callee's body.
func (in *Interp) execCall(fr *frame, call *ir.Call) error {
	args := make([]Value, len(call.Args))
	for i, a := range call.Args {
		val, err := in.valueOf(fr, a)
		if err != nil {
			return err
		}
		args[i] = val
	}
	in.pushFrame(call.Target, args, call)
	return nil
}

// execTerm evaluates fr's block terminator, transferring control (possibly
// popping the frame on Return, or ending the whole run on Exit).
func (in *Interp) execTerm(fr *frame) error {
	switch t := fr.currBlock.Term.(type) {
	case *ir.Branch:
		cond, err := in.intOf(fr, t.Cond)
		if err != nil {
			return err
		}
		isTrue, ok := cond.IsTrue()
		if !ok {
			return newTrap(ierrors.ErrorBadBool, "branch condition is neither 0 nor 1")
		}
		next := t.IfFalse
		if isTrue {
			next = t.IfTrue
		}
		in.advance(fr, next)
		return nil

	case *ir.Jump:
		in.advance(fr, t.Target)
		return nil

	case *ir.Return:
		var val Value = Void{}
		if t.Val != nil {
			v, err := in.valueOf(fr, t.Val)
			if err != nil {
				return err
			}
			val = v
		}
		finished := fr
		in.frames = in.frames[:len(in.frames)-1]
		if len(in.frames) == 0 {
			in.result = val
			in.done = true
			return nil
		}
		caller := in.top()
		if finished.callSite != nil && finished.callSite.GetResult() != nil {
			caller.values[finished.callSite] = val
		}
		caller.pos++
		return nil

	case *ir.Exit:
		in.done = true
		in.result = Void{}
		return nil
	}
	return ierrors.New(ierrors.ErrorVerifierFailed, "block has no terminator", ierrors.Context{})
}

func (in *Interp) advance(fr *frame, next *ir.BasicBlock) {
	fr.prevBlock = fr.currBlock
	fr.currBlock = next
	fr.pos = 0
}

func (in *Interp) valueOf(fr *frame, v ir.Value) (Value, error) {
	switch val := v.(type) {
	case *ir.Constant:
		return Integer{Width: val.Type().(*types.Integer).Width, V: val.IntValue}, nil
	case *ir.Undef:
		return nil, ierrors.New(ierrors.ErrorUseOfUninitialized, "use of an explicitly undefined value", ierrors.Context{})
	default:
		rv, ok := fr.values[v]
		if !ok {
			return nil, ierrors.New(ierrors.ErrorNotFound, "value not yet bound in this frame", ierrors.Context{Function: fr.fn.Name})
		}
		return rv, nil
	}
}

func (in *Interp) boxOf(fr *frame, v ir.Value) (Box, error) {
	rv, err := in.valueOf(fr, v)
	if err != nil {
		return Box{}, err
	}
	box, ok := rv.(Box)
	if !ok {
		return Box{}, ierrors.New(ierrors.ErrorTypeMismatch, "expected a pointer value", ierrors.Context{})
	}
	return box, nil
}

func (in *Interp) intOf(fr *frame, v ir.Value) (Integer, error) {
	rv, err := in.valueOf(fr, v)
	if err != nil {
		return Integer{}, err
	}
	i, ok := rv.(Integer)
	if !ok {
		return Integer{}, ierrors.New(ierrors.ErrorTypeMismatch, "expected an integer value", ierrors.Context{})
	}
	return i, nil
}

func divCode(op ir.BinaryOpKind) string {
	if op == ir.Div || op == ir.Mod {
		return ierrors.ErrorDivByZero
	}
	return ierrors.ErrorBadBool
}
