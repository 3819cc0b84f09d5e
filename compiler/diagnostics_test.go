// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package compiler

import "testing"

func TestParseDiagnosticsPositioned(t *testing.T) {
	out := `shader.wgsl:12:5: error: undeclared identifier 'turbulnce'
shader.wgsl:20:1: warning: unused variable 'uv2'`

	diags := ParseDiagnostics(out)
	if len(diags) != 2 {
		t.Fatalf("ParseDiagnostics() returned %d diagnostics, want 2", len(diags))
	}

	if d := diags[0]; d.Line != 12 || d.Column != 5 || d.Severity != SeverityError {
		t.Errorf("diags[0] = %+v, want line 12 col 5 error", d)
	}
	if diags[0].Suggestion == "" {
		t.Error("undeclared identifier should carry a spelling suggestion")
	}
	if d := diags[1]; d.Line != 20 || d.Severity != SeverityWarning {
		t.Errorf("diags[1] = %+v, want line 20 warning", d)
	}
}

func TestParseDiagnosticsNoFilePrefix(t *testing.T) {
	diags := ParseDiagnostics("3:14: error: type mismatch in assignment")
	if len(diags) != 1 {
		t.Fatalf("ParseDiagnostics() returned %d diagnostics, want 1", len(diags))
	}
	if diags[0].Line != 3 || diags[0].Column != 14 {
		t.Errorf("position = %d:%d, want 3:14", diags[0].Line, diags[0].Column)
	}
}

func TestParseDiagnosticsFallback(t *testing.T) {
	diags := ParseDiagnostics("internal compiler panic while lowering")
	if len(diags) != 1 {
		t.Fatalf("ParseDiagnostics() returned %d diagnostics, want 1", len(diags))
	}
	d := diags[0]
	if d.Line != 0 || d.Severity != SeverityError {
		t.Errorf("fallback diagnostic = %+v, want line 0 error", d)
	}
}

func TestParseDiagnosticsSkipsBlankLines(t *testing.T) {
	diags := ParseDiagnostics("\n\n1:1: error: expected ';' after statement\n\n")
	if len(diags) != 1 {
		t.Fatalf("ParseDiagnostics() returned %d diagnostics, want 1", len(diags))
	}
	if diags[0].Suggestion == "" {
		t.Error("missing-semicolon message should carry a suggestion")
	}
}

func TestErrorsWarningsSplit(t *testing.T) {
	diags := []Diagnostic{
		{Severity: SeverityError, Message: "a"},
		{Severity: SeverityWarning, Message: "b"},
		{Severity: SeverityError, Message: "c"},
	}
	if got := len(Errors(diags)); got != 2 {
		t.Errorf("Errors() = %d entries, want 2", got)
	}
	if got := len(Warnings(diags)); got != 1 {
		t.Errorf("Warnings() = %d entries, want 1", got)
	}
}

func TestSuggestForNoMatch(t *testing.T) {
	if s := suggestFor("completely novel failure mode"); s != "" {
		t.Errorf("suggestFor() = %q, want empty for unknown message", s)
	}
}
