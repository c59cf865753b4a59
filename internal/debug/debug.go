// Package debug implements an interactive, single-stepping debugger shell:
// a bufio.Scanner over an io.Reader, one command per line, printing
// results to the Shell's writer. Rather than re-lexing and re-parsing a line
// of source on every iteration, this shell drives an already-built
// internal/interp.Interp one step at a time and renders it through
// internal/textir's printer.
package debug

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"midir/internal/interp"
	"midir/internal/textir"
)

// Prompt is printed before reading every command line.
const Prompt = "(midir) "

// Shell drives one Interp instance through the debugger commands.
type Shell struct {
	in          *interp.Interp
	out         io.Writer
	breakpoints map[string]bool // "function/block@pos" -> set
	width       int
}

// New returns a Shell over in, printing to out.
func New(in *interp.Interp, out io.Writer) *Shell {
	return &Shell{in: in, out: out, breakpoints: make(map[string]bool), width: 80}
}

// Run reads commands from r until q, EOF, or the program finishes.
func (s *Shell) Run(r io.Reader) {
	scanner := bufio.NewScanner(r)
	for {
		fmt.Fprint(s.out, Prompt)
		if !scanner.Scan() {
			return
		}
		if s.dispatch(strings.TrimSpace(scanner.Text())) {
			return
		}
	}
}

// dispatch executes one command line and reports whether the shell should
// quit.
func (s *Shell) dispatch(line string) bool {
	switch {
	case line == "":
		s.step()
	case line == "b":
		s.toggleBreakpoint()
	case line == "c":
		s.continueToBreakpoint()
	case line == "s":
		s.step()
		fmt.Fprintf(s.out, "step %d\n", s.in.Snapshot().Step)
	case line == "p":
		s.printFunction()
	case line == "q":
		return true
	case strings.HasPrefix(line, "w"):
		s.adjustWidth(strings.TrimSpace(line[1:]))
	default:
		fmt.Fprintln(s.out, color.YellowString("unrecognized command: %q", line))
	}
	if s.in.Done() {
		fmt.Fprintln(s.out, color.GreenString("program finished, result = %v", s.in.Result()))
		return true
	}
	if trap := s.in.Trapped(); trap != nil {
		fmt.Fprintln(s.out, color.RedString("trapped: %s", trap))
		return true
	}
	return false
}

func (s *Shell) step() {
	s.in.Step()
}

// currentKey names the interpreter's current position for breakpoint
// bookkeeping: function/block@instruction-index.
func (s *Shell) currentKey() string {
	snap := s.in.Snapshot()
	if snap.Done || snap.Function == nil {
		return ""
	}
	return fmt.Sprintf("%s/%s@%d", snap.Function.Name, snap.CurrBlock.Label, snap.Pos)
}

func (s *Shell) toggleBreakpoint() {
	key := s.currentKey()
	if key == "" {
		fmt.Fprintln(s.out, color.YellowString("no current position to break on"))
		return
	}
	if s.breakpoints[key] {
		delete(s.breakpoints, key)
		fmt.Fprintf(s.out, "breakpoint cleared at %s\n", key)
		return
	}
	s.breakpoints[key] = true
	fmt.Fprintf(s.out, "breakpoint set at %s\n", key)
}

func (s *Shell) continueToBreakpoint() {
	s.step()
	for !s.in.Done() && s.in.Trapped() == nil {
		if s.breakpoints[s.currentKey()] {
			fmt.Fprintf(s.out, "hit breakpoint at %s\n", s.currentKey())
			return
		}
		s.step()
	}
}

func (s *Shell) printFunction() {
	snap := s.in.Snapshot()
	if snap.Function == nil {
		fmt.Fprintln(s.out, "no function in scope")
		return
	}
	text := textir.PrintFunction(snap.Function)
	for _, line := range strings.Split(text, "\n") {
		if len(line) > s.width {
			line = line[:s.width]
		}
		fmt.Fprintln(s.out, line)
	}
}

func (s *Shell) adjustWidth(arg string) {
	if arg == "" {
		fmt.Fprintf(s.out, "width = %d\n", s.width)
		return
	}
	if arg[0] == '+' || arg[0] == '-' {
		delta, err := strconv.Atoi(arg)
		if err != nil {
			fmt.Fprintln(s.out, color.YellowString("bad width delta %q", arg))
			return
		}
		s.width += delta
	} else {
		n, err := strconv.Atoi(arg)
		if err != nil {
			fmt.Fprintln(s.out, color.YellowString("bad width %q", arg))
			return
		}
		s.width = n
	}
	if s.width < 1 {
		s.width = 1
	}
	fmt.Fprintf(s.out, "width = %d\n", s.width)
}
