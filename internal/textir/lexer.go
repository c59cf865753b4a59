package textir

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// Lexer tokenizes the canonical textual IR format as a single
// stateful-lexer "Root" state over the small token set the IR text form
// needs.
var Lexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		{"FixtureMarker", `//(before|after|unchanged)\b[^\n]*`, nil},
		{"Comment", `//[^\n]*`, nil},
		{"Ident", `[a-zA-Z_][a-zA-Z0-9_]*`, nil},
		{"Int", `-?[0-9]+`, nil},
		{"Punctuation", `[@%:,()\[\]{}<>]`, nil},
		{"Whitespace", `[ \t\r\n]+`, nil},
	},
})
