// Command midir-lsp runs the language server: it parses, builds, and
// verifies a textual-IR document on open/change and republishes the
// verifier's findings as LSP diagnostics, over the same commonlog + glsp
// wiring used throughout this codebase's server commands.
package main

import (
	"log"
	"os"

	"github.com/tliron/commonlog"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"

	"midir/internal/lsp"
)

const serverName = "midir-lsp"

var version = "0.0.1"

func main() {
	commonlog.Configure(1, nil)

	h := lsp.NewHandler()

	handler := protocol.Handler{
		Initialize:                     h.Initialize,
		Initialized:                    h.Initialized,
		Shutdown:                       h.Shutdown,
		TextDocumentDidOpen:            h.TextDocumentDidOpen,
		TextDocumentDidClose:           h.TextDocumentDidClose,
		TextDocumentDidChange:          h.TextDocumentDidChange,
		TextDocumentCompletion:         h.TextDocumentCompletion,
		TextDocumentSemanticTokensFull: h.TextDocumentSemanticTokensFull,
	}

	s := server.NewServer(&handler, serverName, false)

	log.Printf("starting %s %s over stdio\n", serverName, version)
	if err := s.RunStdio(); err != nil {
		log.Println("error starting midir-lsp server:", err)
		os.Exit(1)
	}
}
