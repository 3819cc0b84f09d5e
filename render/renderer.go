// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package render defines the deterministic frame-rendering contract: a
// compiled pipeline plus a fully resolved uniform set in, pixels out.
//
// Rendering is a pure function of its inputs. Identical (pipeline, time,
// resolution, uniforms, seed) must produce byte-identical output; wall-clock
// defaults are resolved by the caller before a renderer ever runs.
package render

import (
	"errors"
	"fmt"
	"image"

	"github.com/gogpu/shaderbridge/compiler"
)

// ErrNoPipeline is returned when a render is requested before a successful
// compile. This is a precondition violation, reported, never a crash.
var ErrNoPipeline = errors.New("render: no compiled pipeline")

// CustomValue is one resolved custom uniform. Values are padded to four
// components so they map directly onto the harness param slots.
type CustomValue struct {
	Name  string
	Value [4]float64
}

// Inputs is the fully resolved uniform set for one frame. Custom values are
// sorted by name; their slice index is the param(i) slot the shader reads.
type Inputs struct {
	Time          float64
	Width, Height int
	Seed          uint32
	Mouse         [2]float64
	Custom        []CustomValue
}

// Validate reports obviously unusable inputs before they reach a backend.
func (in Inputs) Validate() error {
	if in.Width <= 0 || in.Height <= 0 {
		return fmt.Errorf("render: invalid resolution %dx%d", in.Width, in.Height)
	}
	if len(in.Custom) > MaxCustomValues {
		return fmt.Errorf("render: %d custom uniforms exceed the %d harness slots", len(in.Custom), MaxCustomValues)
	}
	return nil
}

// FrameRenderer renders one frame from a compiled pipeline.
//
// Implementations must honor the purity contract: no wall clock, no hidden
// global state, and identical inputs yield byte-identical pixels. They are
// not required to be goroutine-safe; the bridge dispatches sequentially.
type FrameRenderer interface {
	// RenderFrame renders a single frame. A nil pipeline is a
	// precondition violation and returns ErrNoPipeline.
	RenderFrame(p *compiler.Pipeline, in Inputs) (*image.RGBA, error)

	// Close releases backend resources.
	Close() error
}
