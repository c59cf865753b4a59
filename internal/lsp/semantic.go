package lsp

import (
	"strings"

	"github.com/alecthomas/participle/v2/lexer"

	"midir/internal/textir"
)

// Semantic token type indices, matching the order of SemanticTokenTypes.
const (
	tokFunction = iota
	tokVariable
	tokKeyword
	tokType
	tokNumber
	tokComment
)

// SemanticTokenTypes is the legend advertised in Initialize. Unlike the
// teacher's Kanso legend (built by walking an AST with named declarations,
// attributes, and struct fields) this one only needs to describe what a
// token stream over the IR text form can classify.
var SemanticTokenTypes = []string{
	"function",
	"variable",
	"keyword",
	"type",
	"number",
	"comment",
}

// SemanticTokenModifiers is empty: the IR text form has no readonly/static/
// deprecated distinctions worth tagging.
var SemanticTokenModifiers = []string{}

// mnemonics is every reserved word the grammar recognizes, used both to
// classify semantic tokens and to drive completion.
var mnemonics = []string{
	"fun", "ptr", "alloc", "store", "load",
	"add", "sub", "mul", "div", "mod", "and", "or", "xor", "shl", "shr",
	"eq", "ne", "lt", "le", "gt", "ge", "neg", "not",
	"phi", "call", "branch", "jump", "return", "exit", "undef",
}

var isMnemonic = func() map[string]bool {
	m := make(map[string]bool, len(mnemonics))
	for _, k := range mnemonics {
		m[k] = true
	}
	return m
}()

var symbolNames = invertSymbols(textir.Lexer.Symbols())

func invertSymbols(syms map[string]lexer.TokenType) map[lexer.TokenType]string {
	out := make(map[lexer.TokenType]string, len(syms))
	for name, t := range syms {
		out[t] = name
	}
	return out
}

type semanticToken struct {
	Line      uint32
	StartChar uint32
	Length    uint32
	TokenType uint32
}

// collectSemanticTokens re-lexes source directly rather than walking a
// parsed tree: the token stream already carries everything a highlighter
// needs (an @name is always a function reference, a %name always a value
// reference) and re-lexing still produces useful highlighting over a file
// with a syntax error the parser would reject outright.
func collectSemanticTokens(source string) []semanticToken {
	lex, err := textir.Lexer.Lex("", strings.NewReader(source))
	if err != nil {
		return nil
	}

	var tokens []semanticToken
	sigil := byte(0) // '@', '%', or 0

	for {
		tok, err := lex.Next()
		if err != nil || tok.Type == lexer.EOF {
			return tokens
		}

		switch symbolNames[tok.Type] {
		case "Whitespace":
			continue
		case "Punctuation":
			if tok.Value == "@" || tok.Value == "%" {
				sigil = tok.Value[0]
			} else {
				sigil = 0
			}
			continue
		case "Comment", "FixtureMarker":
			tokens = append(tokens, newSemanticToken(tok, tokComment))
		case "Int":
			tokens = append(tokens, newSemanticToken(tok, tokNumber))
		case "Ident":
			switch {
			case sigil == '@':
				tokens = append(tokens, newSemanticToken(tok, tokFunction))
			case sigil == '%':
				tokens = append(tokens, newSemanticToken(tok, tokVariable))
			case isMnemonic[tok.Value]:
				tokens = append(tokens, newSemanticToken(tok, tokKeyword))
			default:
				tokens = append(tokens, newSemanticToken(tok, tokType))
			}
		}
		sigil = 0
	}
}

func newSemanticToken(tok lexer.Token, kind int) semanticToken {
	return semanticToken{
		Line:      uint32(tok.Pos.Line - 1),
		StartChar: uint32(tok.Pos.Column - 1),
		Length:    uint32(len(tok.Value)),
		TokenType: uint32(kind),
	}
}
