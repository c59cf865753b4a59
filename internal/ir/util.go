package ir

import "fmt"

// formatOperand renders a Value as it would appear in an operand position
// for ad-hoc debug output (Instruction.String()). It is not the canonical
// textual form - that requires a NameEnv to assign stable names to
// instruction results, and lives in the textir package's Printer.
func formatOperand(v Value) string {
	if v == nil {
		return "<nil>"
	}
	switch val := v.(type) {
	case *Constant:
		return formatConstant(val)
	case *Parameter:
		return val.String()
	case *BasicBlock:
		return val.String()
	case *Function:
		return val.String()
	case *Undef:
		return val.String()
	default:
		return fmt.Sprintf("%%<%T:%p>", v, v)
	}
}

func formatConstant(c *Constant) string {
	return fmt.Sprintf("%d %s", c.IntValue, c.typ.String())
}
