// Package lsp implements a language server that republishes verifier
// findings as `textDocument/publishDiagnostics` notifications and
// highlights the textual IR form, over tliron/glsp.
package lsp

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	ierrors "midir/internal/errors"
	"midir/internal/textir"
	"midir/internal/verify"
)

// Handler implements the LSP methods midir-lsp wires up.
type Handler struct {
	mu      sync.RWMutex
	content map[string]string // path -> last-known source
}

// NewHandler returns a Handler with empty state.
func NewHandler() *Handler {
	return &Handler{content: make(map[string]string)}
}

// Initialize responds to the client's initialize request and advertises the
// server's capabilities.
func (h *Handler) Initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	log.Println("LSP Initialize called")

	return &protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			TextDocumentSync: &protocol.TextDocumentSyncOptions{
				OpenClose: ptrBool(true),
				Change:    ptrSyncKind(protocol.TextDocumentSyncKindFull),
			},
			CompletionProvider: &protocol.CompletionOptions{
				ResolveProvider: ptrBool(false),
			},
			SemanticTokensProvider: &protocol.SemanticTokensOptions{
				Legend: protocol.SemanticTokensLegend{
					TokenTypes:     SemanticTokenTypes,
					TokenModifiers: SemanticTokenModifiers,
				},
				Full: ptrBool(true),
			},
		},
	}, nil
}

// Initialized is called once the client has the server's capabilities.
func (h *Handler) Initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	log.Println("midir LSP initialized")
	return nil
}

// Shutdown handles the LSP shutdown request.
func (h *Handler) Shutdown(ctx *glsp.Context) error {
	log.Println("midir LSP shutdown")
	return nil
}

// TextDocumentDidOpen handles file open notifications from the editor.
func (h *Handler) TextDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	log.Printf("opened file: %s\n", params.TextDocument.URI)
	return h.refresh(ctx, params.TextDocument.URI)
}

// TextDocumentDidChange handles file change notifications from the editor.
func (h *Handler) TextDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	log.Printf("changed file: %s\n", params.TextDocument.URI)
	return h.refresh(ctx, params.TextDocument.URI)
}

// TextDocumentDidClose handles file close notifications from the editor.
func (h *Handler) TextDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	log.Printf("closed file: %s\n", params.TextDocument.URI)

	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return fmt.Errorf("failed to convert URI %s: %w", params.TextDocument.URI, err)
	}

	h.mu.Lock()
	delete(h.content, path)
	h.mu.Unlock()
	return nil
}

// TextDocumentCompletion offers the grammar's reserved words as completion
// candidates - there is no richer symbol table to draw from at this level.
func (h *Handler) TextDocumentCompletion(ctx *glsp.Context, params *protocol.CompletionParams) (any, error) {
	items := make([]protocol.CompletionItem, 0, len(mnemonics))
	kind := protocol.CompletionItemKindKeyword
	for _, m := range mnemonics {
		text := m
		items = append(items, protocol.CompletionItem{
			Label: m,
			Kind:  &kind,
			InsertText: &text,
		})
	}
	return &protocol.CompletionList{IsIncomplete: false, Items: items}, nil
}

// TextDocumentSemanticTokensFull handles a full-document semantic token
// request by re-lexing whichever source the handler currently has cached
// for the file (falling back to disk if it has not been opened yet).
func (h *Handler) TextDocumentSemanticTokensFull(ctx *glsp.Context, params *protocol.SemanticTokensParams) (*protocol.SemanticTokens, error) {
	log.Println("semantic tokens requested for:", params.TextDocument.URI)

	source, err := h.sourceFor(params.TextDocument.URI)
	if err != nil {
		return nil, err
	}

	tokens := collectSemanticTokens(source)

	var data []uint32
	var prevLine, prevStart uint32
	for _, tok := range tokens {
		deltaLine := tok.Line - prevLine
		var deltaStart uint32
		if deltaLine == 0 {
			deltaStart = tok.StartChar - prevStart
		} else {
			deltaStart = tok.StartChar
		}
		data = append(data, deltaLine, deltaStart, tok.Length, tok.TokenType, 0)
		prevLine = tok.Line
		prevStart = tok.StartChar
	}

	return &protocol.SemanticTokens{Data: data}, nil
}

// refresh re-reads uri from disk, parses/builds/verifies it, caches the
// source, and publishes whatever diagnostics result - mirroring the
// teacher's updateAST, which also re-reads from disk on every open/change
// rather than trusting the editor's in-memory change events.
func (h *Handler) refresh(ctx *glsp.Context, uri protocol.DocumentUri) error {
	path, err := uriToPath(uri)
	if err != nil {
		return fmt.Errorf("failed to convert URI %s: %w", uri, err)
	}

	source, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", path, err)
	}

	h.mu.Lock()
	h.content[path] = string(source)
	h.mu.Unlock()

	diags := h.diagnose(path, string(source))
	sendDiagnosticNotification(ctx, uri, ConvertDiagnostics(diags))
	return nil
}

// diagnose parses, builds, and verifies source, collapsing a fatal
// parse/build failure down to the one diagnostic it produces.
func (h *Handler) diagnose(path, source string) []ierrors.Diagnostic {
	file, err := textir.ParseString(path, source)
	if err != nil {
		return []ierrors.Diagnostic{fatalDiagnostic(err)}
	}

	prog, err := textir.Build(file, "main")
	if err != nil {
		return []ierrors.Diagnostic{fatalDiagnostic(err)}
	}

	return verify.Verify(prog)
}

func fatalDiagnostic(err error) ierrors.Diagnostic {
	me, ok := err.(*ierrors.MiddleError)
	if !ok {
		return ierrors.Diagnostic{Level: ierrors.Error, Message: err.Error(), Line: 1, Column: 1}
	}
	return ierrors.Diagnostic{
		Level: ierrors.Error, Code: me.Code, Message: me.Message, Ctx: me.Ctx,
		Line: me.Line, Column: me.Column,
	}
}

func (h *Handler) sourceFor(uri protocol.DocumentUri) (string, error) {
	path, err := uriToPath(uri)
	if err != nil {
		return "", fmt.Errorf("failed to convert URI %s: %w", uri, err)
	}

	h.mu.RLock()
	source, ok := h.content[path]
	h.mu.RUnlock()
	if ok {
		return source, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read file %s: %w", path, err)
	}
	return string(raw), nil
}

// uriToPath converts a file:// URI to a platform-local file path.
func uriToPath(rawURI string) (string, error) {
	u, err := url.Parse(rawURI)
	if err != nil {
		return "", fmt.Errorf("invalid URI %s: %w", rawURI, err)
	}

	path := u.Path
	if runtime.GOOS == "windows" && strings.HasPrefix(path, "/") && len(path) > 3 && path[2] == ':' {
		path = path[1:]
	}
	return filepath.FromSlash(path), nil
}

func sendDiagnosticNotification(ctx *glsp.Context, uri protocol.URI, diagnostics []protocol.Diagnostic) {
	log.Printf("publishing %d diagnostic(s) for %s\n", len(diagnostics), uri)
	ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	})
}

func ptrBool(b bool) *bool {
	return &b
}

func ptrSyncKind(k protocol.TextDocumentSyncKind) *protocol.TextDocumentSyncKind {
	return &k
}
