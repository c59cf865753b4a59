package textir

import (
	"fmt"
	"strconv"
	"strings"

	ierrors "midir/internal/errors"
	"midir/internal/ir"
	"midir/internal/types"
)

// Build resolves a parsed File into a wired internal/ir Program. entryName
// names the function that becomes the Program's entry point.
//
// Construction happens in three passes so that forward references resolve
// correctly without requiring ir.Value nodes to exist before their type is
// known:
//
//  1. Every function's signature (params, return type) is built first, so
//     Call instructions can target a function declared later in the file.
//  2. Every function's blocks are created (empty) and indexed by label, so
//     Branch/Jump targets always resolve regardless of declaration order.
//  3. Each function's instructions are built in textual order. Phi
//     instructions are created with empty Sources and their source list is
//     deferred until the whole function body exists, since a Phi may name a
//     value defined in a loop body block that appears later in the text.
func Build(file *File, entryName string) (*ir.Program, error) {
	prog := ir.NewProgram(entryName)

	funcs := make(map[string]*ir.Function, len(file.Functions))
	for _, fd := range file.Functions {
		paramTypes := make([]types.Type, len(fd.Params))
		for i, p := range fd.Params {
			t, err := resolveType(p.Type)
			if err != nil {
				return nil, err
			}
			paramTypes[i] = t
		}
		ret := types.Type(types.VoidType())
		if fd.Ret != nil {
			t, err := resolveType(fd.Ret)
			if err != nil {
				return nil, err
			}
			ret = t
		}
		fn := ir.NewFunction(fd.Name, paramTypes, ret)
		for i, p := range fd.Params {
			fn.Params[i].Name = p.Name
		}
		funcs[fd.Name] = fn
		prog.AddFunction(fn)
	}

	for _, fd := range file.Functions {
		fn := funcs[fd.Name]
		blocks := make(map[string]*ir.BasicBlock, len(fd.Blocks))
		for _, bd := range fd.Blocks {
			b := ir.NewBasicBlock(bd.Label, fn)
			fn.AddBlock(b)
			blocks[bd.Label] = b
		}
		if err := buildFunctionBody(fd, fn, blocks, funcs); err != nil {
			return nil, err
		}
	}

	if prog.Entry() == nil {
		return nil, ierrors.New(ierrors.ErrorNotFound, fmt.Sprintf("entry function %q not found", entryName), ierrors.Context{})
	}
	return prog, nil
}

type deferredPhi struct {
	phi   *ir.Phi
	decl  *PhiInstr
	block *ir.BasicBlock
}

func buildFunctionBody(fd *FuncDecl, fn *ir.Function, blocks map[string]*ir.BasicBlock, funcs map[string]*ir.Function) error {
	values := make(map[string]ir.Value, 16)
	for _, p := range fn.Params {
		values[p.Name] = p
	}

	var deferred []deferredPhi

	for _, bd := range fd.Blocks {
		b := blocks[bd.Label]
		for _, id := range bd.Instrs {
			inst, dp, err := buildInstr(id, b, values, funcs)
			if err != nil {
				return err
			}
			if err := ir.PushBack(b, inst); err != nil {
				return err
			}
			if id.Result != nil {
				values[*id.Result] = inst.GetResult()
			}
			if dp != nil {
				dp.block = b
				deferred = append(deferred, *dp)
			}
		}
		term, err := buildTerm(bd.Term, blocks, values)
		if err != nil {
			return err
		}
		ir.SetTerminator(b, term)
	}

	for _, d := range deferred {
		for _, src := range d.decl.Sources {
			pred, ok := blocks[src.Pred]
			if !ok {
				return ierrors.New(ierrors.ErrorNotFound, fmt.Sprintf("phi names unknown predecessor %q", src.Pred), ierrors.Context{Function: fn.Name, Block: d.block.Label})
			}
			val, err := resolveOperand(src.Val, values)
			if err != nil {
				return err
			}
			d.phi.AddSource(pred, val)
		}
	}
	return nil
}

func buildInstr(id *InstrDecl, b *ir.BasicBlock, values map[string]ir.Value, funcs map[string]*ir.Function) (ir.Instruction, *deferredPhi, error) {
	body := id.Body
	switch {
	case body.Alloc != nil:
		t, err := resolveType(body.Alloc.Type)
		if err != nil {
			return nil, nil, err
		}
		return ir.NewAlloc(t), nil, nil

	case body.Store != nil:
		ptr, err := resolveOperand(body.Store.Ptr, values)
		if err != nil {
			return nil, nil, err
		}
		val, err := resolveOperand(body.Store.Val, values)
		if err != nil {
			return nil, nil, err
		}
		return ir.NewStore(ptr, val), nil, nil

	case body.Load != nil:
		ptr, err := resolveOperand(body.Load.Ptr, values)
		if err != nil {
			return nil, nil, err
		}
		return ir.NewLoad(ptr), nil, nil

	case body.Binary != nil:
		left, err := resolveOperand(body.Binary.Left, values)
		if err != nil {
			return nil, nil, err
		}
		right, err := resolveOperand(body.Binary.Right, values)
		if err != nil {
			return nil, nil, err
		}
		op, err := resolveBinaryOp(body.Binary.Op)
		if err != nil {
			return nil, nil, err
		}
		return ir.NewBinaryOp(op, left, right), nil, nil

	case body.Unary != nil:
		val, err := resolveOperand(body.Unary.Val, values)
		if err != nil {
			return nil, nil, err
		}
		op, err := resolveUnaryOp(body.Unary.Op)
		if err != nil {
			return nil, nil, err
		}
		return ir.NewUnaryOp(op, val), nil, nil

	case body.Phi != nil:
		t, err := resolveType(body.Phi.Type)
		if err != nil {
			return nil, nil, err
		}
		phi := ir.NewPhi(t)
		return phi, &deferredPhi{phi: phi, decl: body.Phi}, nil

	case body.Call != nil:
		target, ok := funcs[body.Call.Target]
		if !ok {
			return nil, nil, ierrors.New(ierrors.ErrorNotFound, fmt.Sprintf("call to unknown function @%s", body.Call.Target), ierrors.Context{})
		}
		args := make([]ir.Value, len(body.Call.Args))
		for i, a := range body.Call.Args {
			v, err := resolveOperand(a, values)
			if err != nil {
				return nil, nil, err
			}
			args[i] = v
		}
		return ir.NewCall(target, args), nil, nil
	}
	return nil, nil, ierrors.New(ierrors.ErrorParse, "empty instruction body", ierrors.Context{})
}

func buildTerm(td *TermDecl, blocks map[string]*ir.BasicBlock, values map[string]ir.Value) (ir.Terminator, error) {
	switch {
	case td.Branch != nil:
		cond, err := resolveOperand(td.Branch.Cond, values)
		if err != nil {
			return nil, err
		}
		ifTrue, ok := blocks[td.Branch.IfTrue]
		if !ok {
			return nil, ierrors.New(ierrors.ErrorNotFound, fmt.Sprintf("unknown block %q", td.Branch.IfTrue), ierrors.Context{})
		}
		ifFalse, ok := blocks[td.Branch.IfFalse]
		if !ok {
			return nil, ierrors.New(ierrors.ErrorNotFound, fmt.Sprintf("unknown block %q", td.Branch.IfFalse), ierrors.Context{})
		}
		return ir.NewBranch(cond, ifTrue, ifFalse), nil

	case td.Jump != nil:
		target, ok := blocks[td.Jump.Target]
		if !ok {
			return nil, ierrors.New(ierrors.ErrorNotFound, fmt.Sprintf("unknown block %q", td.Jump.Target), ierrors.Context{})
		}
		return ir.NewJump(target), nil

	case td.Return != nil:
		if td.Return.Val == nil {
			return ir.NewReturn(nil), nil
		}
		val, err := resolveOperand(td.Return.Val, values)
		if err != nil {
			return nil, err
		}
		return ir.NewReturn(val), nil

	case td.Exit != nil:
		return ir.NewExit(), nil
	}
	return nil, ierrors.New(ierrors.ErrorParse, "empty terminator", ierrors.Context{})
}

func resolveOperand(op *Operand, values map[string]ir.Value) (ir.Value, error) {
	switch {
	case op.Const != nil:
		t, err := resolveType(op.Const.Type)
		if err != nil {
			return nil, err
		}
		it, ok := t.(*types.Integer)
		if !ok {
			return nil, ierrors.New(ierrors.ErrorParse, "constant type must be an integer type", ierrors.Context{})
		}
		return ir.NewConstant(it, op.Const.Value), nil
	case op.Undef != nil:
		t, err := resolveType(op.Undef.Type)
		if err != nil {
			return nil, err
		}
		return ir.NewUndef(t), nil
	case op.Ref != nil:
		v, ok := values[*op.Ref]
		if !ok {
			return nil, ierrors.New(ierrors.ErrorNotFound, fmt.Sprintf("undefined value %%%s", *op.Ref), ierrors.Context{})
		}
		return v, nil
	}
	return nil, ierrors.New(ierrors.ErrorParse, "empty operand", ierrors.Context{})
}

func resolveType(t *TypeRef) (types.Type, error) {
	if t.Ptr != nil {
		inner, err := resolveType(t.Ptr)
		if err != nil {
			return nil, err
		}
		return &types.Pointer{Elem: inner}, nil
	}
	switch t.Name {
	case "bool":
		return types.Bool(), nil
	case "void":
		return types.VoidType(), nil
	default:
		if !strings.HasPrefix(t.Name, "i") {
			return nil, ierrors.New(ierrors.ErrorParse, fmt.Sprintf("unknown type %q", t.Name), ierrors.Context{})
		}
		width, err := strconv.Atoi(t.Name[1:])
		if err != nil {
			return nil, ierrors.New(ierrors.ErrorParse, fmt.Sprintf("malformed integer type %q", t.Name), ierrors.Context{})
		}
		return types.I(width), nil
	}
}

func resolveBinaryOp(s string) (ir.BinaryOpKind, error) {
	switch s {
	case "add":
		return ir.Add, nil
	case "sub":
		return ir.Sub, nil
	case "mul":
		return ir.Mul, nil
	case "div":
		return ir.Div, nil
	case "mod":
		return ir.Mod, nil
	case "and":
		return ir.And, nil
	case "or":
		return ir.Or, nil
	case "xor":
		return ir.Xor, nil
	case "shl":
		return ir.Shl, nil
	case "shr":
		return ir.Shr, nil
	case "eq":
		return ir.Eq, nil
	case "ne":
		return ir.Ne, nil
	case "lt":
		return ir.Lt, nil
	case "le":
		return ir.Le, nil
	case "gt":
		return ir.Gt, nil
	case "ge":
		return ir.Ge, nil
	}
	return 0, ierrors.New(ierrors.ErrorParse, fmt.Sprintf("unknown binary operator %q", s), ierrors.Context{})
}

func resolveUnaryOp(s string) (ir.UnaryOpKind, error) {
	switch s {
	case "neg":
		return ir.Neg, nil
	case "not":
		return ir.Not, nil
	}
	return 0, ierrors.New(ierrors.ErrorParse, fmt.Sprintf("unknown unary operator %q", s), ierrors.Context{})
}
