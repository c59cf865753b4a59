package lsp

import (
	"strings"
	"testing"

	protocol "github.com/tliron/glsp/protocol_3_16"

	ierrors "midir/internal/errors"
)

func TestConvertDiagnosticsMapsPositionAndSeverity(t *testing.T) {
	diags := []ierrors.Diagnostic{
		{Level: ierrors.Error, Code: ierrors.ErrorParse, Message: "unexpected token", Line: 3, Column: 5},
		{Level: ierrors.Warning, Message: "no position", Ctx: ierrors.Context{Function: "main", Block: "entry", Index: 2}},
	}

	out := ConvertDiagnostics(diags)
	if len(out) != 2 {
		t.Fatalf("expected 2 diagnostics, got %d", len(out))
	}

	first := out[0]
	if first.Range.Start.Line != 2 || first.Range.Start.Character != 4 {
		t.Fatalf("expected a 0-based position of (2,4), got (%d,%d)", first.Range.Start.Line, first.Range.Start.Character)
	}
	if *first.Severity != protocol.DiagnosticSeverityError {
		t.Fatalf("expected error severity")
	}

	second := out[1]
	if second.Range.Start.Line != 0 || second.Range.Start.Character != 0 {
		t.Fatalf("expected the no-position diagnostic to default to (0,0), got (%d,%d)", second.Range.Start.Line, second.Range.Start.Character)
	}
	if *second.Severity != protocol.DiagnosticSeverityWarning {
		t.Fatalf("expected warning severity")
	}
	if !strings.Contains(second.Message, "in @main, block entry, instruction #2") {
		t.Fatalf("expected the Ctx location folded into the message, got %q", second.Message)
	}
}
