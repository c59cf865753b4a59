// Package ir implements the typed, SSA-form intermediate representation: a
// control-flow graph of Values connected by bidirectional use/def edges,
// with strict structural invariants enforced by its mutation primitives.
//
// Values are never embedded by copy; every Value variant (Constant,
// Parameter, *Function, *BasicBlock, every Instruction, Undef) is a pointer
// whose identity is its SSA name. Use-edges are weak: a Value's Users set
// counts references but never implies ownership, so the graph can (and
// does) contain cycles - Phis referencing later values, blocks referencing
// each other via terminators - without anything owning anything else by a
// strong pointer.
package ir

import "midir/internal/types"

// Value is the capability set shared by every node that can appear as an
// operand: it has a Type and a set of Users (the reciprocal half of every
// use/def edge rooted at it). Deletion only sets the flag IsDeleted
// reports; the other accessors do not check it and keep answering.
type Value interface {
	Type() types.Type
	Users() []*Use
	IsDeleted() bool

	addUser(u *Use)
	removeUser(u *Use)
	markDeleted()
}

// Use is one use-site: Holder has an operand slot at Index whose current
// value is whatever Holder.Operands()[Index] returns. Use identity (not
// value equality) is what a Value's Users set tracks, since the same Value
// can legitimately occupy two different slots of the same holder (e.g. `x +
// x`).
type Use struct {
	Holder OperandHolder
	Index  int
}

// OperandHolder is implemented by every Instruction and Terminator: it owns
// a fixed- or variable-length list of operand slots that mutation
// primitives can read and overwrite.
type OperandHolder interface {
	Operands() []Value
	// setOperand overwrites slot i with v with no user-set bookkeeping;
	// callers go through ReplaceOperand (see mutate.go) to keep the
	// reciprocal Users sets correct.
	setOperand(i int, v Value)
}

// valueBase is embedded by every concrete Value to provide the common
// bookkeeping: its declared Type, the set of Uses that reference it, and
// whether it has been torn down by deleteDeep.
type valueBase struct {
	typ     types.Type
	users   []*Use
	deleted bool
}

func (v *valueBase) Type() types.Type { return v.typ }

func (v *valueBase) Users() []*Use {
	out := make([]*Use, len(v.users))
	copy(out, v.users)
	return out
}

func (v *valueBase) IsDeleted() bool { return v.deleted }

func (v *valueBase) addUser(u *Use) {
	v.users = append(v.users, u)
}

func (v *valueBase) removeUser(u *Use) {
	for i, existing := range v.users {
		if existing == u {
			v.users = append(v.users[:i], v.users[i+1:]...)
			return
		}
	}
}

func (v *valueBase) markDeleted() {
	v.deleted = true
}

// Constant is an integer literal of a declared width. Two Constants are
// never unified by identity: each construction site gets its own node, the
// way a freshly-lowered AST literal would.
type Constant struct {
	valueBase
	IntValue int64
}

// NewConstant builds a Constant of type typ holding value, truncated to
// typ's width per its two's-complement Wrap semantics.
func NewConstant(typ *types.Integer, value int64) *Constant {
	return &Constant{valueBase: valueBase{typ: typ}, IntValue: typ.Wrap(value)}
}

func (c *Constant) String() string { return formatConstant(c) }

// Undef represents an explicitly-unknown value of a declared type. It never
// appears from normal lowering; passes use it only to mark operand slots
// that have deliberately been left without a reaching definition (see
// AllocToPhi's handling of loads and Phi sources with no reaching Store).
type Undef struct {
	valueBase
}

func NewUndef(typ types.Type) *Undef {
	return &Undef{valueBase: valueBase{typ: typ}}
}

func (u *Undef) String() string { return "undef " + u.typ.String() }

// Parameter is one formal parameter of a Function. Like every other Value,
// it is usable as an operand anywhere its type matches.
type Parameter struct {
	valueBase
	Name  string
	Index int
	Fn    *Function
}

func (p *Parameter) String() string { return "%" + p.Name }
