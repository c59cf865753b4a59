package ir

import (
	"fmt"

	ierrors "midir/internal/errors"
)

// registerUse records that holder's operand slot i currently points at v,
// updating v's Users set. It is the write half of every use/def edge; the
// read half is simply holder.Operands()[i].
func registerUse(v Value, holder OperandHolder, i int) *Use {
	if v == nil {
		return nil
	}
	u := &Use{Holder: holder, Index: i}
	v.addUser(u)
	return u
}

// unregisterUse removes one specific use-site from v's Users set. Use
// identity (not value equality) disambiguates when the same holder+index
// shows up more than once, which cannot happen, but also when the same
// Value occupies two different slots of the same holder, which can.
func unregisterUse(v Value, holder OperandHolder, i int) {
	if v == nil {
		return
	}
	for _, u := range v.Users() {
		if u.Holder == holder && u.Index == i {
			v.removeUser(u)
			return
		}
	}
}

// attachOperands registers every non-nil operand currently held by holder.
// Constructors call it once after populating their fields so that every
// Instruction/Terminator is fully wired into the use/def graph from the
// moment it is built.
func attachOperands(holder OperandHolder) {
	for i, v := range holder.Operands() {
		registerUse(v, holder, i)
	}
}

// ReplaceOperand replaces the operand at holder's slot i with newVal,
// unregistering the old user and registering the new one atomically: no
// external observer can see a state where both, or neither, are
// registered.
func ReplaceOperand(holder OperandHolder, i int, newVal Value) error {
	ops := holder.Operands()
	if i < 0 || i >= len(ops) {
		return ierrors.New(ierrors.ErrorNotFound, fmt.Sprintf("operand index %d out of range", i), ierrors.Context{})
	}
	old := ops[i]
	unregisterUse(old, holder, i)
	holder.setOperand(i, newVal)
	registerUse(newVal, holder, i)
	return nil
}

// ReplaceAllUses rewrites every operand slot that currently holds old to
// hold new, across every Use registered on old. It fails with
// ErrorTypeMismatch if new's type does not match old's - the one check
// every replacement must pass to keep the IR well-typed.
func ReplaceAllUses(old, new Value) error {
	if old == new {
		return nil
	}
	if !old.Type().Equal(new.Type()) {
		return ierrors.New(ierrors.ErrorTypeMismatch,
			fmt.Sprintf("cannot replace uses of type %s with value of type %s", old.Type(), new.Type()),
			ierrors.Context{})
	}
	for _, u := range old.Users() {
		if err := ReplaceOperand(u.Holder, u.Index, new); err != nil {
			return err
		}
	}
	return nil
}

// InsertBefore places a freshly-constructed (unparented) instruction
// immediately before instr within instr's block.
func InsertBefore(instr Instruction, newInst Instruction) error {
	if newInst.Block() != nil {
		return ierrors.New(ierrors.ErrorAlreadyParented, "instruction already belongs to a block", ierrors.Context{})
	}
	b := instr.Block()
	idx := b.IndexOf(instr)
	b.Instructions = append(b.Instructions, nil)
	copy(b.Instructions[idx+1:], b.Instructions[idx:])
	b.Instructions[idx] = newInst
	newInst.setBlock(b)
	return nil
}

// InsertAfter places a freshly-constructed (unparented) instruction
// immediately after instr within instr's block.
func InsertAfter(instr Instruction, newInst Instruction) error {
	if newInst.Block() != nil {
		return ierrors.New(ierrors.ErrorAlreadyParented, "instruction already belongs to a block", ierrors.Context{})
	}
	b := instr.Block()
	idx := b.IndexOf(instr)
	b.Instructions = append(b.Instructions, nil)
	copy(b.Instructions[idx+2:], b.Instructions[idx+1:])
	b.Instructions[idx+1] = newInst
	newInst.setBlock(b)
	return nil
}

// PushFront inserts newInst at the top of b - the standard placement for a
// newly-inserted Phi.
func PushFront(b *BasicBlock, newInst Instruction) error {
	if newInst.Block() != nil {
		return ierrors.New(ierrors.ErrorAlreadyParented, "instruction already belongs to a block", ierrors.Context{})
	}
	b.Instructions = append([]Instruction{newInst}, b.Instructions...)
	newInst.setBlock(b)
	return nil
}

// PushBack appends newInst to the end of b's instruction list, before its
// terminator.
func PushBack(b *BasicBlock, newInst Instruction) error {
	if newInst.Block() != nil {
		return ierrors.New(ierrors.ErrorAlreadyParented, "instruction already belongs to a block", ierrors.Context{})
	}
	b.Instructions = append(b.Instructions, newInst)
	newInst.setBlock(b)
	return nil
}

// Remove detaches instr from its block without severing its operand edges.
// It fails with ErrorStillInUse if instr's result still has users; callers
// that want to tear an instruction down regardless should use DeleteDeep.
func Remove(instr Instruction) error {
	if len(instr.Users()) > 0 {
		return ierrors.New(ierrors.ErrorStillInUse, "instruction still has users", ierrors.Context{
			Function: blockFuncName(instr.Block()),
			Block:    blockLabel(instr.Block()),
		})
	}
	b := instr.Block()
	if b == nil {
		return nil
	}
	idx := b.IndexOf(instr)
	if idx >= 0 {
		b.Instructions = append(b.Instructions[:idx], b.Instructions[idx+1:]...)
	}
	instr.setBlock(nil)
	return nil
}

// DeleteDeep removes instr from its block (regardless of remaining users -
// callers are expected to have already redirected them), severs every
// outgoing operand edge it holds, and marks it deleted: reading any field
// of a deleted Value is subsequently a programming error.
func DeleteDeep(instr Instruction) {
	b := instr.Block()
	if b != nil {
		idx := b.IndexOf(instr)
		if idx >= 0 {
			b.Instructions = append(b.Instructions[:idx], b.Instructions[idx+1:]...)
		}
		instr.setBlock(nil)
	}
	for i, v := range instr.Operands() {
		unregisterUse(v, instr, i)
	}
	instr.markDeleted()
}

// SetTerminator replaces b's terminator with term, deep-deleting the old
// one (its operand edges, including any use of a successor BasicBlock, are
// severed).
func SetTerminator(b *BasicBlock, term Terminator) {
	if b.Term != nil {
		DeleteDeep(b.Term)
	}
	b.Term = term
	term.setBlock(b)
}

func blockLabel(b *BasicBlock) string {
	if b == nil {
		return ""
	}
	return b.Label
}

func blockFuncName(b *BasicBlock) string {
	if b == nil || b.Fn == nil {
		return ""
	}
	return b.Fn.Name
}
