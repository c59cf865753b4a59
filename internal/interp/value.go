// Package interp implements the deterministic, single-stepping reference
// interpreter: it evaluates the (unchanged) final Program one IR position
// at a time, doubling as the correctness oracle the optimizer's passes are
// checked against.
package interp

import (
	"fmt"

	"midir/internal/types"
)

// Value is a runtime value: one of Integer, Box, or Void in the closed
// RuntimeValue tag set.
type Value interface {
	Type() types.Type
	isRuntimeValue()
}

// Integer is a runtime integer (or bool, Integer(1)) of a declared width.
type Integer struct {
	Width int
	V     int64
}

func (Integer) isRuntimeValue()   {}
func (i Integer) Type() types.Type { return types.I(i.Width) }
func (i Integer) String() string   { return fmt.Sprintf("%d i%d", i.V, i.Width) }

// Bool returns b's canonical runtime representation, Integer(1).
func Bool(b bool) Integer {
	if b {
		return Integer{Width: 1, V: 1}
	}
	return Integer{Width: 1, V: 0}
}

// IsTrue reports whether i is the canonical 1-bit "true" encoding;
// anything other than 0 or 1 is neither true nor false - it is a BadBool
// trap for callers to raise.
func (i Integer) IsTrue() (bool, bool) {
	switch i.V {
	case 1:
		return true, true
	case 0:
		return false, true
	default:
		return false, false
	}
}

// Cell is the mutable memory cell an Alloc creates: an Option<Value>,
// modeled as a nil pointer for "empty".
type Cell struct {
	held *Value
}

// Box is a runtime pointer: the result of evaluating an Alloc. Every Box
// wraps exactly one Cell, created fresh each time the owning Alloc executes.
type Box struct {
	Inner types.Type
	cell  *Cell
}

func (Box) isRuntimeValue()    {}
func (b Box) Type() types.Type { return &types.Pointer{Elem: b.Inner} }

// NewBox allocates a fresh, empty-celled Box of the given inner type.
func NewBox(inner types.Type) Box {
	return Box{Inner: inner, cell: &Cell{}}
}

// Load reads the cell's held value; ok is false if it was never Stored to.
func (b Box) Load() (Value, bool) {
	if b.cell == nil || b.cell.held == nil {
		return nil, false
	}
	return *b.cell.held, true
}

// Store writes v into the cell.
func (b Box) Store(v Value) {
	held := v
	b.cell.held = &held
}

// Void is the runtime value of void-typed instructions and terminators.
type Void struct{}

func (Void) isRuntimeValue()    {}
func (Void) Type() types.Type   { return types.VoidType() }
