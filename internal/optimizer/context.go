// Package optimizer implements the fixed-point pass driver: it runs
// a configured sequence of passes over a Function or Program until none of
// them reports a change, handing each invocation an explicit Context rather
// than relying on ambient state.
package optimizer

import (
	"fmt"

	"midir/internal/dom"
	"midir/internal/ir"
	"midir/internal/verify"
)

// Context is passed to every pass invocation. It tracks whether the current
// pass invocation reported any change, at two granularities: instrChanged (a local
// rewrite that leaves the CFG shape alone) and graphChanged (a CFG-shaping
// edit, which invalidates the per-Function dominator cache).
type Context struct {
	changed bool
	domInfo map[*ir.Function]*dom.Info
}

// NewContext returns a fresh Context with an empty dominator cache.
func NewContext() *Context {
	return &Context{domInfo: make(map[*ir.Function]*dom.Info)}
}

// InstrChanged signals a local change that does not alter the CFG shape.
// It does not invalidate the dominator cache.
func (c *Context) InstrChanged() {
	c.changed = true
}

// GraphChanged signals a change to the CFG shape - a block or edge was
// added or removed. It invalidates the dominator cache for every Function,
// since a pass may have rewired blocks it does not itself hold a reference
// to (e.g. via a Call target).
func (c *Context) GraphChanged() {
	c.changed = true
	c.domInfo = make(map[*ir.Function]*dom.Info)
}

// DomInfo returns the current DominatorInfo for fn, computing and caching it
// on first request after construction or the last GraphChanged.
func (c *Context) DomInfo(fn *ir.Function) *dom.Info {
	if info, ok := c.domInfo[fn]; ok {
		return info
	}
	info := dom.Analyze(fn)
	c.domInfo[fn] = info
	return info
}

// reset clears the per-pass changed bit without touching the dominator
// cache; called by the Driver before every fixed-point pass invocation.
func (c *Context) reset() {
	c.changed = false
}

// FunctionPass mutates one Function at a time.
type FunctionPass interface {
	Name() string
	RunOnFunction(fn *ir.Function, ctx *Context) error
}

// ProgramPass mutates the whole Program - it may delete Functions or
// rewrite signatures, which a FunctionPass cannot do.
type ProgramPass interface {
	Name() string
	RunOnProgram(prog *ir.Program, ctx *Context) error
}

// VerifierFailedError wraps the diagnostics produced when a pass leaves the
// IR malformed; the driver aborts the whole run when this occurs.
type VerifierFailedError struct {
	Pass  string
	Diags []error
}

func (e *VerifierFailedError) Error() string {
	return fmt.Sprintf("verifier failed after pass %q (%d diagnostics)", e.Pass, len(e.Diags))
}

// verifyProgram runs the Verifier and turns any diagnostics into a fatal
// VerifierFailedError attributed to passName.
func verifyProgram(prog *ir.Program, passName string) error {
	diags := verify.Verify(prog)
	if len(diags) == 0 {
		return nil
	}
	errs := make([]error, len(diags))
	for i, d := range diags {
		errs[i] = fmt.Errorf("%s", d.Message)
	}
	return &VerifierFailedError{Pass: passName, Diags: errs}
}
