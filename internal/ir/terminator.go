package ir

import (
	"fmt"

	"midir/internal/types"
)

// Terminator is the single instruction that ends a BasicBlock. Every
// Terminator's successors are the sole source of truth for the CFG's edges:
// predecessors/successors are always derived from them, never stored
// redundantly. Terminators' block-typed operand slots (Jump's Target,
// Branch's IfTrue/IfFalse) are registered as ordinary uses of the target
// BasicBlock Value, so replaceAllUses on a block rewires every
// terminator that names it exactly the way replaceAllUses on an
// instruction's result rewires every operand that names it.
type Terminator interface {
	Instruction
	Successors() []*BasicBlock
}

// Branch transfers control to IfTrue when Cond evaluates to 1, IfFalse when
// it evaluates to 0; any other runtime value is a BadBool trap.
type Branch struct {
	instBase
	Cond            Value
	IfTrue, IfFalse *BasicBlock
}

func NewBranch(cond Value, ifTrue, ifFalse *BasicBlock) *Branch {
	b := &Branch{Cond: cond, IfTrue: ifTrue, IfFalse: ifFalse}
	b.typ = types.VoidType()
	attachOperands(b)
	return b
}

func (b *Branch) GetResult() Value  { return nil }
func (b *Branch) Pure() bool        { return false }
func (b *Branch) Operands() []Value { return []Value{b.Cond, b.IfTrue, b.IfFalse} }
func (b *Branch) setOperand(i int, v Value) {
	switch i {
	case 0:
		b.Cond = v
	case 1:
		b.IfTrue = v.(*BasicBlock)
	case 2:
		b.IfFalse = v.(*BasicBlock)
	}
}
func (b *Branch) Successors() []*BasicBlock { return []*BasicBlock{b.IfTrue, b.IfFalse} }
func (b *Branch) String() string {
	return fmt.Sprintf("branch %s, %s, %s", formatOperand(b.Cond), b.IfTrue.Label, b.IfFalse.Label)
}

// Jump transfers control unconditionally to Target.
type Jump struct {
	instBase
	Target *BasicBlock
}

func NewJump(target *BasicBlock) *Jump {
	j := &Jump{Target: target}
	j.typ = types.VoidType()
	attachOperands(j)
	return j
}

func (j *Jump) GetResult() Value  { return nil }
func (j *Jump) Pure() bool        { return false }
func (j *Jump) Operands() []Value { return []Value{j.Target} }
func (j *Jump) setOperand(i int, v Value) {
	if i == 0 {
		j.Target = v.(*BasicBlock)
	}
}
func (j *Jump) Successors() []*BasicBlock { return []*BasicBlock{j.Target} }
func (j *Jump) String() string            { return "jump " + j.Target.Label }

// Return ends the enclosing Function, optionally carrying a value back to
// the caller frame.
type Return struct {
	instBase
	Val Value // nil for a void function
}

func NewReturn(val Value) *Return {
	r := &Return{Val: val}
	r.typ = types.VoidType()
	attachOperands(r)
	return r
}

func (r *Return) GetResult() Value { return nil }
func (r *Return) Pure() bool       { return false }
func (r *Return) Operands() []Value {
	if r.Val == nil {
		return nil
	}
	return []Value{r.Val}
}
func (r *Return) setOperand(i int, v Value) {
	if i == 0 {
		r.Val = v
	}
}
func (r *Return) Successors() []*BasicBlock { return nil }
func (r *Return) String() string {
	if r.Val == nil {
		return "return"
	}
	return "return " + formatOperand(r.Val)
}

// Exit halts the whole program (not just the current function) - there is
// no caller frame to return to.
type Exit struct {
	instBase
}

func NewExit() *Exit {
	e := &Exit{}
	e.typ = types.VoidType()
	return e
}

func (e *Exit) GetResult() Value          { return nil }
func (e *Exit) Pure() bool                { return false }
func (e *Exit) Operands() []Value         { return nil }
func (e *Exit) setOperand(int, Value)     {}
func (e *Exit) Successors() []*BasicBlock { return nil }
func (e *Exit) String() string            { return "exit" }
