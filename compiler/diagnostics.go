// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package compiler

import (
	"regexp"
	"strconv"
	"strings"
)

// Diagnostic severities.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// Diagnostic is one structured entry recovered from the compiler's textual
// output. Suggestion is a best-effort hint derived from the message text,
// not from the compiler.
type Diagnostic struct {
	Line       int    `json:"line"`
	Column     int    `json:"column"`
	Message    string `json:"message"`
	Severity   string `json:"severity"`
	Suggestion string `json:"suggestion,omitempty"`
}

// reDiagLine matches the conventional `file:line:col: severity: message`
// layout, with the file part optional.
var reDiagLine = regexp.MustCompile(`^(?:([\w./\\-]+):)?(\d+):(\d+):\s*(error|warning)\s*:\s*(.+)$`)

// ParseDiagnostics recovers structured diagnostics from compiler output.
// Lines that match the line-column pattern become positioned diagnostics;
// any other non-empty line becomes a fallback error at line 0. The result
// is never empty for non-empty input.
func ParseDiagnostics(output string) []Diagnostic {
	var diags []Diagnostic
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if m := reDiagLine.FindStringSubmatch(line); m != nil {
			ln, _ := strconv.Atoi(m[2])
			col, _ := strconv.Atoi(m[3])
			msg := strings.TrimSpace(m[5])
			diags = append(diags, Diagnostic{
				Line:       ln,
				Column:     col,
				Message:    msg,
				Severity:   m[4],
				Suggestion: suggestFor(msg),
			})
			continue
		}
		diags = append(diags, Diagnostic{
			Severity:   SeverityError,
			Message:    line,
			Suggestion: suggestFor(line),
		})
	}
	return diags
}

// Errors filters diagnostics down to errors.
func Errors(diags []Diagnostic) []Diagnostic {
	var out []Diagnostic
	for _, d := range diags {
		if d.Severity == SeverityError {
			out = append(out, d)
		}
	}
	return out
}

// Warnings filters diagnostics down to warnings.
func Warnings(diags []Diagnostic) []Diagnostic {
	var out []Diagnostic
	for _, d := range diags {
		if d.Severity == SeverityWarning {
			out = append(out, d)
		}
	}
	return out
}
