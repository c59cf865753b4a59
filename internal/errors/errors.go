package errors

import "fmt"

// Context pinpoints where in the IR an error occurred, so that parse,
// verification, and pass failures can be surfaced to the caller with the
// function name, block label, and instruction index.
type Context struct {
	Function string // enclosing function name, "" if not applicable
	Block    string // enclosing block label, "" if not applicable
	Index    int    // instruction index within the block, -1 if not applicable
}

func (c Context) String() string {
	if c.Function == "" {
		return ""
	}
	if c.Block == "" {
		return fmt.Sprintf("in @%s", c.Function)
	}
	if c.Index < 0 {
		return fmt.Sprintf("in @%s, block %s", c.Function, c.Block)
	}
	return fmt.Sprintf("in @%s, block %s, instruction #%d", c.Function, c.Block, c.Index)
}

// MiddleError is a structured, fatal error carrying one of the error codes
// in codes.go plus the IR location it happened at. Parse, verification, and
// pass errors are all MiddleErrors; interpreter traps are reported
// separately as a Trap (see the interp package) since they are not fatal to
// the calling process.
type MiddleError struct {
	Code    string
	Message string
	Ctx     Context
	// Line and Column locate the error in source text, 1-based. Zero means
	// no source position is available (most pass/verifier errors locate
	// only through Ctx, not through source text).
	Line   int
	Column int
}

func New(code, message string, ctx Context) *MiddleError {
	return &MiddleError{Code: code, Message: message, Ctx: ctx}
}

// NewAt is New plus a source position, for errors raised while scanning or
// parsing source text directly (see textir.ParseString).
func NewAt(code, message string, ctx Context, line, column int) *MiddleError {
	return &MiddleError{Code: code, Message: message, Ctx: ctx, Line: line, Column: column}
}

func (e *MiddleError) Error() string {
	loc := e.Ctx.String()
	if loc == "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, Category(e.Code), e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s (%s)", e.Code, Category(e.Code), e.Message, loc)
}

// Is allows errors.Is(err, &MiddleError{Code: errors.ErrorVerifierFailed}) style
// comparisons keyed only on Code.
func (e *MiddleError) Is(target error) bool {
	t, ok := target.(*MiddleError)
	return ok && t.Code == e.Code
}
