package textir

import (
	"fmt"
	"strings"

	"midir/internal/ir"
	"midir/internal/types"
)

// Print renders prog in the canonical textual IR format, one function
// definition per the grammar. Each Function gets its own ir.NameEnv scope.
func Print(prog *ir.Program) string {
	var b strings.Builder
	for _, fn := range prog.Functions {
		b.WriteString(PrintFunction(fn))
	}
	return b.String()
}

// PrintFunction renders a single Function through a fresh NameEnv.
func PrintFunction(fn *ir.Function) string {
	ne := ir.NewNameEnv()
	var b strings.Builder

	var params []string
	for _, p := range fn.Params {
		params = append(params, fmt.Sprintf("%s: %s", ne.NameOf(p), p.Type()))
	}
	b.WriteString(fmt.Sprintf("fun @%s(%s)", fn.Name, strings.Join(params, ", ")))
	if _, isVoid := fn.ReturnType.(*types.Void); !isVoid {
		b.WriteString(" : " + fn.ReturnType.String())
	}
	b.WriteString(" {\n")

	for _, blk := range fn.Blocks {
		b.WriteString("  " + ne.NameOf(blk) + ":\n")
		for _, inst := range blk.Instructions {
			b.WriteString("    " + printInstr(inst, ne) + "\n")
		}
		if blk.Term != nil {
			b.WriteString("    " + printTerm(blk.Term, ne) + "\n")
		}
	}
	b.WriteString("}\n")
	return b.String()
}

func printInstr(inst ir.Instruction, ne *ir.NameEnv) string {
	if result := inst.GetResult(); result != nil {
		return fmt.Sprintf("%s = %s", ne.NameOf(result), printBody(inst, ne))
	}
	return printBody(inst, ne)
}

func printBody(inst ir.Instruction, ne *ir.NameEnv) string {
	switch v := inst.(type) {
	case *ir.Alloc:
		return "alloc " + v.InnerType.String()
	case *ir.Store:
		return fmt.Sprintf("store %s, %s", printOperand(v.Pointer, ne), printOperand(v.Val, ne))
	case *ir.Load:
		return "load " + printOperand(v.Pointer, ne)
	case *ir.BinaryOp:
		return fmt.Sprintf("%s %s, %s", v.Op, printOperand(v.Left, ne), printOperand(v.Right, ne))
	case *ir.UnaryOp:
		return fmt.Sprintf("%s %s", v.Op, printOperand(v.Val, ne))
	case *ir.Phi:
		parts := make([]string, len(v.Sources))
		for i, src := range v.Sources {
			parts[i] = fmt.Sprintf("%s: %s", ne.NameOf(src.Pred), printOperand(src.Value, ne))
		}
		return fmt.Sprintf("phi %s [%s]", v.Type(), strings.Join(parts, ", "))
	case *ir.Call:
		args := make([]string, len(v.Args))
		for i, a := range v.Args {
			args[i] = printOperand(a, ne)
		}
		return fmt.Sprintf("call @%s(%s)", v.Target.Name, strings.Join(args, ", "))
	default:
		return inst.String()
	}
}

func printTerm(term ir.Terminator, ne *ir.NameEnv) string {
	switch v := term.(type) {
	case *ir.Branch:
		return fmt.Sprintf("branch %s, %s, %s", printOperand(v.Cond, ne), ne.NameOf(v.IfTrue), ne.NameOf(v.IfFalse))
	case *ir.Jump:
		return "jump " + ne.NameOf(v.Target)
	case *ir.Return:
		if v.Val == nil {
			return "return"
		}
		return "return " + printOperand(v.Val, ne)
	case *ir.Exit:
		return "exit"
	default:
		return term.String()
	}
}

func printOperand(v ir.Value, ne *ir.NameEnv) string {
	switch val := v.(type) {
	case *ir.Constant:
		return fmt.Sprintf("%d %s", val.IntValue, val.Type())
	case *ir.Undef:
		return "undef " + val.Type().String()
	default:
		return ne.NameOf(v)
	}
}
