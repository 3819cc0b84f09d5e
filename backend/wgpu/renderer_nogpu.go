// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build nogpu

// Package wgpu renders compiled shader pipelines on the GPU. This stub
// build excludes the GPU path entirely.
package wgpu

import (
	"errors"
	"image"

	"github.com/gogpu/gpucontext"

	"github.com/gogpu/shaderbridge/compiler"
	"github.com/gogpu/shaderbridge/render"
)

// ErrDisabled reports that the binary was built with the nogpu tag.
var ErrDisabled = errors.New("wgpu: GPU support disabled in this build")

// DeviceProvider mirrors the GPU build's provider alias.
type DeviceProvider = gpucontext.DeviceProvider

// Renderer is a placeholder in nogpu builds.
type Renderer struct{}

var _ render.FrameRenderer = (*Renderer)(nil)

// New always fails in nogpu builds.
func New() (*Renderer, error) { return nil, ErrDisabled }

// NewWithProvider always fails in nogpu builds.
func NewWithProvider(DeviceProvider) (*Renderer, error) { return nil, ErrDisabled }

// RenderFrame always fails in nogpu builds.
func (*Renderer) RenderFrame(*compiler.Pipeline, render.Inputs) (*image.RGBA, error) {
	return nil, ErrDisabled
}

// DropPipeline is a no-op in nogpu builds.
func (*Renderer) DropPipeline(string) {}

// Close is a no-op in nogpu builds.
func (*Renderer) Close() error { return nil }
