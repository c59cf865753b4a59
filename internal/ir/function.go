package ir

import (
	"strconv"

	"midir/internal/types"
)

// Function is a named entity with a signature, an entry BasicBlock, and the
// set of BasicBlocks reachable or not from it. Like BasicBlock, it is
// itself a Value (its Call instructions' Target operand) so that
// FunctionInlining and dead-function elimination can enumerate every
// call-site via Users().
type Function struct {
	valueBase
	Name       string
	Params     []*Parameter
	ReturnType types.Type
	Entry      *BasicBlock
	Blocks     []*BasicBlock

	// Effect is false when the function (transitively) performs no
	// impure instruction; Call instructions targeting it are then pure
	// too.
	Effect bool
}

func NewFunction(name string, paramTypes []types.Type, ret types.Type) *Function {
	f := &Function{Name: name, ReturnType: ret, Effect: true}
	f.typ = types.VoidType()
	for i, pt := range paramTypes {
		f.Params = append(f.Params, &Parameter{valueBase: valueBase{typ: pt}, Name: paramName(i), Index: i, Fn: f})
	}
	return f
}

func paramName(i int) string {
	letters := "pqrstuvwxyz"
	if i < len(letters) {
		return string(letters[i])
	}
	return "p" + strconv.Itoa(i)
}

// Pure reports whether calls to f can be treated as side-effect free.
func (f *Function) Pure() bool { return !f.Effect }

func (f *Function) String() string { return "@" + f.Name }

// AddBlock appends a freshly-constructed, unparented block to f.
func (f *Function) AddBlock(b *BasicBlock) {
	b.Fn = f
	f.Blocks = append(f.Blocks, b)
	if f.Entry == nil {
		f.Entry = b
	}
}

// RemoveBlock detaches b from f.Blocks. It does not sever b's internal
// edges; callers should deleteDeep b's instructions first (see
// DeleteBlock in mutate.go).
func (f *Function) RemoveBlock(b *BasicBlock) {
	for i, cur := range f.Blocks {
		if cur == b {
			f.Blocks = append(f.Blocks[:i], f.Blocks[i+1:]...)
			return
		}
	}
}

// BlockByLabel finds a block by its label, or nil.
func (f *Function) BlockByLabel(label string) *BasicBlock {
	for _, b := range f.Blocks {
		if b.Label == label {
			return b
		}
	}
	return nil
}
