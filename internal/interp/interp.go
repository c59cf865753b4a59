package interp

import (
	"fmt"

	ierrors "midir/internal/errors"
	"midir/internal/ir"
)

// Trap is a non-fatal interpreter failure: the step loop stops advancing
// but the caller gets back a full Snapshot of where it happened
// ("Interpreter traps are returned as a Trap(kind, snapshot) result, never
// silently swallowed").
type Trap struct {
	Code     string
	Message  string
	Snapshot Snapshot
}

func (t *Trap) Error() string {
	return fmt.Sprintf("[%s] %s: %s", t.Code, ierrors.Category(t.Code), t.Message)
}

// Snapshot is the state yielded after every Step: the current block, the
// block control arrived from (needed to resolve a Phi at the top of
// Current), and the position about to execute next.
type Snapshot struct {
	Function  *ir.Function
	CurrBlock *ir.BasicBlock
	PrevBlock *ir.BasicBlock
	// Pos indexes CurrBlock.Instructions; Pos == len(Instructions) means
	// the terminator is about to run.
	Pos  int
	Step int
	Done bool
}

// frame is one call's activation record: its own value bindings (so
// recursive or repeated calls never alias each other's Allocs) and its
// position in the CFG.
type frame struct {
	fn        *ir.Function
	values    map[ir.Value]Value
	currBlock *ir.BasicBlock
	prevBlock *ir.BasicBlock
	pos       int
	// callSite is the Call instruction in the caller's frame that pushed
	// this frame, nil for the outermost (entry) frame.
	callSite *ir.Call
}

// Interp is the reference interpreter: a pull iterator over Program whose
// entire state is this struct.
type Interp struct {
	prog    *ir.Program
	frames  []*frame
	step    int
	done    bool
	result  Value
	trapped *Trap
}

// New starts an interpreter at prog's entry function with args bound to its
// parameters.
func New(prog *ir.Program, args []Value) (*Interp, error) {
	fn := prog.Entry()
	if fn == nil {
		return nil, ierrors.New(ierrors.ErrorNotFound, "program has no entry function", ierrors.Context{})
	}
	if len(args) != len(fn.Params) {
		return nil, ierrors.New(ierrors.ErrorTypeMismatch, "wrong number of entry arguments", ierrors.Context{Function: fn.Name})
	}
	in := &Interp{prog: prog}
	in.pushFrame(fn, args, nil)
	return in, nil
}

func (in *Interp) pushFrame(fn *ir.Function, args []Value, callSite *ir.Call) {
	fr := &frame{fn: fn, values: make(map[ir.Value]Value), currBlock: fn.Entry, callSite: callSite}
	for i, p := range fn.Params {
		fr.values[p] = args[i]
	}
	in.frames = append(in.frames, fr)
}

func (in *Interp) top() *frame { return in.frames[len(in.frames)-1] }

// Done reports whether the program has run to Exit or its outermost
// Return.
func (in *Interp) Done() bool { return in.done }

// Trapped returns the trap that stopped execution, or nil.
func (in *Interp) Trapped() *Trap { return in.trapped }

// Result returns the value the entry function returned, once Done.
func (in *Interp) Result() Value { return in.result }

// Snapshot returns the current state without advancing.
func (in *Interp) Snapshot() Snapshot {
	if in.done || len(in.frames) == 0 {
		return Snapshot{Done: true, Step: in.step}
	}
	fr := in.top()
	return Snapshot{Function: fr.fn, CurrBlock: fr.currBlock, PrevBlock: fr.prevBlock, Pos: fr.pos, Step: in.step, Done: false}
}

// Step advances the interpreter by exactly one IR position: one
// non-terminator instruction, or one terminator. It returns the resulting
// Snapshot; if execution trapped, the same Trap is also available via
// Trapped() and further Step calls are no-ops returning the trapped
// snapshot.
func (in *Interp) Step() Snapshot {
	if in.done || in.trapped != nil {
		return in.Snapshot()
	}
	fr := in.top()
	in.step++

	if fr.pos < len(fr.currBlock.Instructions) {
		inst := fr.currBlock.Instructions[fr.pos]
		if call, ok := inst.(*ir.Call); ok {
			// Pushes a new frame; fr.pos advances only once the callee
			// returns (execTerm's *ir.Return case), so Call's own position
			// stays current until the callee frame is popped.
			if err := in.execCall(fr, call); err != nil {
				in.trap(err, fr)
			}
			return in.Snapshot()
		}
		if err := in.execInstr(fr, inst); err != nil {
			in.trap(err, fr)
			return in.Snapshot()
		}
		fr.pos++
		return in.Snapshot()
	}

	if err := in.execTerm(fr); err != nil {
		in.trap(err, fr)
	}
	return in.Snapshot()
}

func (in *Interp) trap(err error, fr *frame) {
	t, ok := err.(*Trap)
	if !ok {
		t = &Trap{Code: ierrors.ErrorUseOfUninitialized, Message: err.Error()}
	}
	t.Snapshot = Snapshot{Function: fr.fn, CurrBlock: fr.currBlock, PrevBlock: fr.prevBlock, Pos: fr.pos, Step: in.step}
	in.trapped = t
}

// Run steps the interpreter to completion or to the first trap, returning
// the final Snapshot. It is bounded only by the program itself - finite for
// terminating programs, never restarted.
func (in *Interp) Run() Snapshot {
	var snap Snapshot
	for !in.done && in.trapped == nil {
		snap = in.Step()
	}
	return snap
}

func newTrap(code, msg string) *Trap {
	return &Trap{Code: code, Message: msg}
}
