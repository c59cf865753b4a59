package lsp

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

const sampleSource = `
fun @main() : i32 {
  entry:
    %x = add 2 i32, 3 i32
    return %x
}
`

func TestCollectSemanticTokensClassifiesIdentifiers(t *testing.T) {
	tokens := collectSemanticTokens(sampleSource)
	require.NotEmpty(t, tokens)

	var sawFunction, sawVariable, sawKeyword, sawNumber bool
	for _, tok := range tokens {
		switch tok.TokenType {
		case tokFunction:
			sawFunction = true
		case tokVariable:
			sawVariable = true
		case tokKeyword:
			sawKeyword = true
		case tokNumber:
			sawNumber = true
		}
	}
	require.True(t, sawFunction, "expected a function token for @main")
	require.True(t, sawVariable, "expected a variable token for %x")
	require.True(t, sawKeyword, "expected a keyword token for add/return")
	require.True(t, sawNumber, "expected number tokens for the integer literals")
}

func TestHandlerDiagnoseReportsVerifierFindings(t *testing.T) {
	h := NewHandler()

	// A branch condition typed i32 instead of i1/bool fails verification.
	const badSource = `
fun @main(%c: i32) : i32 {
  entry:
    branch %c, a, b
  a:
    return 1 i32
  b:
    return 2 i32
}
`
	diags := h.diagnose("bad.mir", badSource)
	require.NotEmpty(t, diags, "expected the Verifier to flag a non-bool branch condition")
}

func TestHandlerDiagnoseAcceptsValidProgram(t *testing.T) {
	h := NewHandler()
	diags := h.diagnose("ok.mir", sampleSource)
	require.Empty(t, diags)
}

func TestHandlerTextDocumentSemanticTokensFull(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sample.mir")
	require.NoError(t, os.WriteFile(path, []byte(sampleSource), 0o644))

	h := NewHandler()
	uri := "file://" + filepath.ToSlash(path)

	ctx := &glsp.Context{}
	params := &protocol.SemanticTokensParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
	}

	tokens, err := h.TextDocumentSemanticTokensFull(ctx, params)
	require.NoError(t, err)
	require.NotNil(t, tokens)
	require.NotEmpty(t, tokens.Data)
	require.Zero(t, len(tokens.Data)%5, "encoded token data must be a multiple of 5")
}

func TestHandlerTextDocumentCompletionListsInstructionMnemonics(t *testing.T) {
	h := NewHandler()
	result, err := h.TextDocumentCompletion(&glsp.Context{}, &protocol.CompletionParams{})
	require.NoError(t, err)
	list, ok := result.(*protocol.CompletionList)
	require.True(t, ok)
	require.Len(t, list.Items, len(mnemonics))
}
