// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"context"
	"fmt"
	"image"
	"math"

	"github.com/gogpu/shaderbridge/compiler"
)

// SequenceSpec describes a fixed-step sequence export.
//
// frameCount = floor(duration * fps) and timeStep = duration / frameCount,
// so frame times are 0, timeStep, ..., (frameCount-1)*timeStep. The final
// frame time never reaches duration; callers must not assume it does.
type SequenceSpec struct {
	Duration float64 // seconds
	FPS      float64
}

// FrameCount returns floor(duration * fps).
func (s SequenceSpec) FrameCount() int {
	return int(math.Floor(s.Duration * s.FPS))
}

// TimeStep returns duration / frameCount. Only valid when FrameCount > 0.
func (s SequenceSpec) TimeStep() float64 {
	return s.Duration / float64(s.FrameCount())
}

// FrameTime returns the shader time for frame i.
func (s SequenceSpec) FrameTime(i int) float64 {
	return float64(i) * s.TimeStep()
}

// Validate rejects specs that produce no frames.
func (s SequenceSpec) Validate() error {
	if s.Duration <= 0 || s.FPS <= 0 {
		return fmt.Errorf("render: sequence needs positive duration and fps, got %gs at %g fps", s.Duration, s.FPS)
	}
	if s.FrameCount() < 1 {
		return fmt.Errorf("render: %gs at %g fps yields zero frames", s.Duration, s.FPS)
	}
	return nil
}

// Sequence renders a fixed-step sequence by repeated synchronous
// single-frame renders, invoking emit for each finished frame. Cancellation
// is checked between frames; frames already emitted are retained. It
// returns the number of frames emitted.
func Sequence(ctx context.Context, r FrameRenderer, p *compiler.Pipeline, base Inputs, spec SequenceSpec, emit func(i int, t float64, img *image.RGBA) error) (int, error) {
	if err := spec.Validate(); err != nil {
		return 0, err
	}
	count := spec.FrameCount()
	for i := 0; i < count; i++ {
		if err := ctx.Err(); err != nil {
			return i, fmt.Errorf("render: sequence interrupted after %d of %d frames: %w", i, count, err)
		}
		in := base
		in.Time = spec.FrameTime(i)
		img, err := r.RenderFrame(p, in)
		if err != nil {
			return i, fmt.Errorf("render: sequence frame %d: %w", i, err)
		}
		if err := emit(i, in.Time, img); err != nil {
			return i, fmt.Errorf("render: sequence frame %d: %w", i, err)
		}
	}
	return count, nil
}
