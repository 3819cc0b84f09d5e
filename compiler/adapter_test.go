// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package compiler

import (
	"strings"
	"testing"
)

const shadeSnippet = `fn shade(uv : vec2<f32>, t : f32) -> vec4<f32> {
    return vec4<f32>(uv.x, uv.y, 0.5 + 0.5 * sin(t), 1.0);
}`

func TestEnsureEntryStageWrapsSnippet(t *testing.T) {
	full := EnsureEntryStage(shadeSnippet)
	if full == shadeSnippet {
		t.Fatal("snippet without a compute entry should be wrapped")
	}
	if !strings.Contains(full, "@compute") {
		t.Error("wrapped source is missing the compute entry stage")
	}
	if !strings.Contains(full, shadeSnippet) {
		t.Error("wrapped source must embed the snippet verbatim")
	}
	if !IsHarnessed(full) {
		t.Error("IsHarnessed() = false for harnessed source")
	}
}

func TestEnsureEntryStagePassThrough(t *testing.T) {
	src := `@compute @workgroup_size(1)
fn main() {}`
	if got := EnsureEntryStage(src); got != src {
		t.Error("source with a compute entry must pass through untouched")
	}
	if IsHarnessed(src) {
		t.Error("IsHarnessed() = true for unharnessed source")
	}
}

func TestCompileSnippet(t *testing.T) {
	p, diags := New().Compile(shadeSnippet)
	if p == nil {
		t.Fatalf("Compile() failed: %+v", diags)
	}
	if len(p.SPIRV) == 0 {
		t.Error("compiled pipeline has no SPIR-V words")
	}
	if p.EntryPoint != "main" {
		t.Errorf("entry point = %q, want main", p.EntryPoint)
	}
	if p.Hash != SourceHash(shadeSnippet) {
		t.Error("pipeline hash does not match SourceHash of the same snippet")
	}
}

func TestCompileFailureAlwaysHasDiagnostics(t *testing.T) {
	p, diags := New().Compile(`fn shade(uv : vec2<f32>, t : f32) -> vec4<f32> {
    return undeclared_thing;
}`)
	if p != nil {
		t.Fatal("Compile() of invalid source returned a pipeline")
	}
	if len(diags) == 0 {
		t.Fatal("failed compile must produce at least one diagnostic")
	}
	for _, d := range diags {
		if d.Message == "" {
			t.Error("diagnostic with empty message")
		}
	}
}

func TestSourceHashStable(t *testing.T) {
	a := SourceHash(shadeSnippet)
	b := SourceHash(shadeSnippet)
	if a != b {
		t.Errorf("SourceHash not stable: %s vs %s", a, b)
	}
	if a == SourceHash(shadeSnippet+" ") {
		t.Error("SourceHash did not change with the source")
	}
}
