package textir

import (
	"github.com/alecthomas/participle/v2"

	ierrors "midir/internal/errors"
)

var participleParser = participle.MustBuild[File](
	participle.Lexer(Lexer),
	participle.Elide("Whitespace", "Comment"),
	participle.UseLookahead(2),
)

// ParseString parses the canonical textual IR format into the parse tree.
// Callers that want a wired ir.Program should follow with Build.
func ParseString(filename, source string) (*File, error) {
	file, err := participleParser.ParseString(filename, source)
	if err != nil {
		return nil, wrapParseError(err)
	}
	return file, nil
}

// wrapParseError turns a participle error into a fatal ParseError
// (ierrors.ErrorParse) carrying the offending source position, so that every
// caller - the CLI's caret-pointed Reporter, the LSP's publishDiagnostics -
// renders it in its own way instead of this package printing it itself.
func wrapParseError(err error) error {
	pe, ok := err.(participle.Error)
	if !ok {
		return ierrors.New(ierrors.ErrorParse, err.Error(), ierrors.Context{})
	}
	pos := pe.Position()
	return ierrors.NewAt(ierrors.ErrorParse, pe.Message(), ierrors.Context{}, pos.Line, pos.Column)
}
