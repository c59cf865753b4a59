package textir

import "strings"

// Fixture is one pass test case split out of a fixture file: the program
// before the pass runs and, depending on which annotation the fixture used,
// either the expected program after the pass runs or a marker that nothing
// should change.
type Fixture struct {
	Before    string
	After     string
	Unchanged bool
}

// SplitFixture parses the `//before` / `//after` / `//unchanged` annotations
// out of a pass test fixture's source text. Each annotation starts a new
// section that runs to the next annotation or end of input.
func SplitFixture(source string) Fixture {
	var fx Fixture
	section := ""
	var buf strings.Builder

	flush := func() {
		switch section {
		case "before":
			fx.Before = buf.String()
		case "after":
			fx.After = buf.String()
		case "unchanged":
			fx.Before = buf.String()
			fx.Unchanged = true
		}
		buf.Reset()
	}

	for _, line := range strings.Split(source, "\n") {
		trimmed := strings.TrimSpace(line)
		switch trimmed {
		case "//before":
			flush()
			section = "before"
			continue
		case "//after":
			flush()
			section = "after"
			continue
		case "//unchanged":
			flush()
			section = "unchanged"
			continue
		}
		buf.WriteString(line)
		buf.WriteString("\n")
	}
	flush()
	return fx
}
