// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package compiler

import "strings"

// suggestion pairs a message keyword with a hint. Matching is plain
// substring search over the lowercased message.
type suggestion struct {
	keyword string
	hint    string
}

// suggestions is ordered; the first match wins.
var suggestions = []suggestion{
	{"undeclared identifier", "check the identifier's spelling, or declare it before use"},
	{"unknown identifier", "check the identifier's spelling, or declare it before use"},
	{"type mismatch", "check that both sides of the expression have the same type; WGSL does not convert implicitly"},
	{"cannot convert", "add an explicit conversion such as f32(...) or u32(...)"},
	{"expected ';'", "a statement above this line is probably missing its semicolon"},
	{"expected '}'", "a block above this line is probably missing its closing brace"},
	{"unknown attribute", "check the attribute name; common ones are @group, @binding, @compute, @workgroup_size"},
	{"invalid swizzle", "swizzle components must come from xyzw or rgba and fit the vector width"},
	{"no matching overload", "check the argument count and types against the builtin's signature"},
	{"redefinition", "the name is already declared in this scope; rename one of the declarations"},
}

// suggestFor returns a hint for a diagnostic message, or "" when no keyword
// matches. This is a convenience layer; absence of a suggestion carries no
// meaning.
func suggestFor(message string) string {
	lower := strings.ToLower(message)
	for _, s := range suggestions {
		if strings.Contains(lower, s.keyword) {
			return s.hint
		}
	}
	return ""
}
