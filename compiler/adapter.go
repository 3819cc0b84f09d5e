// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package compiler wraps the naga shader compiler behind a small adapter:
// source text goes in, an opaque renderable Pipeline or a list of structured
// diagnostics comes out. The compiler itself is a black box; diagnostics are
// recovered from its textual output and suggestions are keyword heuristics,
// not semantic analysis.
package compiler

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/gogpu/naga"
)

// Pipeline is an opaque compiled-shader handle. Hash identifies the exact
// source the SPIR-V was built from, so stores can detect stale artifacts.
type Pipeline struct {
	// Hash is the hex SHA-256 of the full (boilerplate-included) source.
	Hash string

	// SPIRV holds the compiled module as little-endian 32-bit words.
	SPIRV []uint32

	// EntryPoint is the compute entry the renderer dispatches.
	EntryPoint string

	// Source is the full source as compiled, including any prepended
	// boilerplate stage.
	Source string
}

// Adapter compiles shader source into pipelines. The zero value is ready
// to use.
type Adapter struct{}

// New returns a compiler adapter.
func New() *Adapter { return &Adapter{} }

// Compile turns shader source into a Pipeline. On failure it returns a nil
// pipeline and at least one diagnostic; it never returns (nil, empty).
//
// Fragment-style snippets that define `fn shade(...)` without a compute
// entry stage get the harness boilerplate prepended so they compile
// standalone (see EnsureEntryStage).
func (a *Adapter) Compile(source string) (*Pipeline, []Diagnostic) {
	full := EnsureEntryStage(source)

	spirvBytes, err := naga.Compile(full)
	if err != nil {
		diags := ParseDiagnostics(err.Error())
		if len(diags) == 0 {
			// A failed compile must always surface at least one error.
			diags = []Diagnostic{{Severity: SeverityError, Message: err.Error()}}
		}
		return nil, diags
	}

	// SPIR-V is little-endian 32-bit words.
	words := make([]uint32, len(spirvBytes)/4)
	for i := range words {
		words[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}

	sum := sha256.Sum256([]byte(full))
	return &Pipeline{
		Hash:       hex.EncodeToString(sum[:]),
		SPIRV:      words,
		EntryPoint: entryPointName,
		Source:     full,
	}, nil
}

// SourceHash returns the pipeline hash Compile would assign to source,
// without compiling. Stores use it to check whether a persisted artifact
// still matches its snapshot source.
func SourceHash(source string) string {
	sum := sha256.Sum256([]byte(EnsureEntryStage(source)))
	return hex.EncodeToString(sum[:])
}
