package lsp

import (
	protocol "github.com/tliron/glsp/protocol_3_16"

	ierrors "midir/internal/errors"
)

// ConvertDiagnostics transforms Verifier/parse findings into LSP diagnostics.
// Diagnostics carry no source position when they come from the Verifier
// (they locate only through ierrors.Context - function/block/instruction),
// so those render on line 1; parse errors carry a real position (see
// textir.ParseString) and render there instead.
func ConvertDiagnostics(diags []ierrors.Diagnostic) []protocol.Diagnostic {
	out := make([]protocol.Diagnostic, 0, len(diags))
	for _, d := range diags {
		line, column := d.Line, d.Column
		if line <= 0 {
			line, column = 1, 1
		}
		length := d.Length
		if length <= 0 {
			length = 1
		}
		message := d.Message
		if loc := d.Ctx.String(); loc != "" {
			message = message + " (" + loc + ")"
		}
		out = append(out, protocol.Diagnostic{
			Range: protocol.Range{
				Start: protocol.Position{Line: uint32(line - 1), Character: uint32(column - 1)},
				End:   protocol.Position{Line: uint32(line - 1), Character: uint32(column - 1 + length)},
			},
			Severity: ptrSeverity(convertSeverity(d.Level)),
			Source:   ptrString("midir-verify"),
			Message:  message,
		})
	}
	return out
}

func convertSeverity(level ierrors.Level) protocol.DiagnosticSeverity {
	switch level {
	case ierrors.Error:
		return protocol.DiagnosticSeverityError
	case ierrors.Warning:
		return protocol.DiagnosticSeverityWarning
	case ierrors.Note:
		return protocol.DiagnosticSeverityInformation
	default:
		return protocol.DiagnosticSeverityError
	}
}

func ptrSeverity(s protocol.DiagnosticSeverity) *protocol.DiagnosticSeverity {
	return &s
}

func ptrString(s string) *string {
	return &s
}
