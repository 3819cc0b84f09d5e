// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

// Package wgpu renders compiled shader pipelines on the GPU through
// wgpu/hal compute dispatch: one invocation per pixel shading a storage
// buffer, copied to a staging buffer and read back to the CPU.
package wgpu

import (
	"fmt"
	"image"
	"sync"
	"unsafe"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	// Import the Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"

	"github.com/gogpu/shaderbridge/compiler"
	"github.com/gogpu/shaderbridge/render"
)

// DeviceProvider is a host that shares its GPU device with the renderer,
// e.g. a gogpu window. Providers must also expose raw HAL handles through
// HalDevice() any / HalQueue() any.
type DeviceProvider = gpucontext.DeviceProvider

// Renderer is a GPU frame renderer. Compiled pipelines are cached per
// source hash so re-rendering the same shader skips module creation.
//
// Renderer is safe for use from the bridge's single dispatch goroutine;
// the internal mutex only guards against misuse, not for throughput.
type Renderer struct {
	mu sync.Mutex

	instance hal.Instance
	device   hal.Device
	queue    hal.Queue

	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout

	// cache maps compiler.Pipeline.Hash to ready compute pipelines.
	cache map[string]cachedPipeline

	externalDevice bool
	ready          bool
}

type cachedPipeline struct {
	module   hal.ShaderModule
	pipeline hal.ComputePipeline
}

var _ render.FrameRenderer = (*Renderer)(nil)

// New creates a GPU renderer with its own device on the first available
// Vulkan adapter.
func New() (*Renderer, error) {
	r := &Renderer{cache: make(map[string]cachedPipeline)}
	if err := r.initOwnDevice(); err != nil {
		r.Close()
		return nil, err
	}
	return r, nil
}

// NewWithProvider creates a GPU renderer on a shared device from the host
// application instead of opening its own.
func NewWithProvider(provider DeviceProvider) (*Renderer, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, fmt.Errorf("wgpu: provider does not expose HAL handles")
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("wgpu: provider HalDevice is not hal.Device")
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("wgpu: provider HalQueue is not hal.Queue")
	}

	r := &Renderer{
		cache:          make(map[string]cachedPipeline),
		device:         device,
		queue:          queue,
		externalDevice: true,
	}
	if err := r.createLayouts(); err != nil {
		return nil, err
	}
	r.ready = true
	slogger().Info("wgpu: renderer using shared GPU device")
	return r, nil
}

func (r *Renderer) initOwnDevice() error {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return fmt.Errorf("wgpu: vulkan backend not available")
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return fmt.Errorf("wgpu: create instance: %w", err)
	}
	r.instance = instance

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		return fmt.Errorf("wgpu: no GPU adapters found")
	}
	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}

	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		return fmt.Errorf("wgpu: open device: %w", err)
	}
	r.device = openDev.Device
	r.queue = openDev.Queue

	if err := r.createLayouts(); err != nil {
		return err
	}
	r.ready = true
	slogger().Info("wgpu: renderer initialized", "adapter", selected.Info.Name)
	return nil
}

// createLayouts creates the bind group layout and pipeline layout shared by
// every compiled pipeline: frame params at binding 0, pixel buffer at 1.
func (r *Renderer) createLayouts() error {
	bindLayout, err := r.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "shaderbridge_frame_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageCompute,
				Buffer: &gputypes.BufferBindingLayout{
					Type:           gputypes.BufferBindingTypeUniform,
					MinBindingSize: render.FrameParamsSize,
				},
			},
			{
				Binding:    1,
				Visibility: gputypes.ShaderStageCompute,
				Buffer: &gputypes.BufferBindingLayout{
					Type: gputypes.BufferBindingTypeStorage,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("wgpu: create bind group layout: %w", err)
	}
	r.bindLayout = bindLayout

	pipeLayout, err := r.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "shaderbridge_pipeline_layout",
		BindGroupLayouts: []hal.BindGroupLayout{r.bindLayout},
	})
	if err != nil {
		return fmt.Errorf("wgpu: create pipeline layout: %w", err)
	}
	r.pipeLayout = pipeLayout
	return nil
}

// pipelineFor returns (building if needed) the compute pipeline for a
// compiled shader.
func (r *Renderer) pipelineFor(p *compiler.Pipeline) (cachedPipeline, error) {
	if cp, ok := r.cache[p.Hash]; ok {
		return cp, nil
	}

	module, err := r.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "shader_" + p.Hash[:12],
		Source: hal.ShaderSource{SPIRV: p.SPIRV},
	})
	if err != nil {
		return cachedPipeline{}, fmt.Errorf("wgpu: create shader module: %w", err)
	}

	pipeline, err := r.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label:  "pipeline_" + p.Hash[:12],
		Layout: r.pipeLayout,
		Compute: hal.ComputeState{
			Module:     module,
			EntryPoint: p.EntryPoint,
		},
	})
	if err != nil {
		r.device.DestroyShaderModule(module)
		return cachedPipeline{}, fmt.Errorf("wgpu: create compute pipeline: %w", err)
	}

	cp := cachedPipeline{module: module, pipeline: pipeline}
	r.cache[p.Hash] = cp
	return cp, nil
}

// RenderFrame dispatches one compute pass over the full resolution and
// reads the shaded pixel buffer back into an image.
func (r *Renderer) RenderFrame(p *compiler.Pipeline, in render.Inputs) (*image.RGBA, error) {
	if p == nil {
		return nil, render.ErrNoPipeline
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.ready {
		return nil, fmt.Errorf("wgpu: renderer not initialized")
	}

	cp, err := r.pipelineFor(p)
	if err != nil {
		return nil, err
	}

	w, h := uint32(in.Width), uint32(in.Height)
	pixelBufSize := uint64(w) * uint64(h) * 4

	uniformBuf, err := r.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "frame_params", Size: render.FrameParamsSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create uniform buffer: %w", err)
	}
	defer r.device.DestroyBuffer(uniformBuf)

	storageBuf, err := r.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "pixels", Size: pixelBufSize,
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopySrc,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create storage buffer: %w", err)
	}
	defer r.device.DestroyBuffer(storageBuf)

	stagingBuf, err := r.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "staging", Size: pixelBufSize,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create staging buffer: %w", err)
	}
	defer r.device.DestroyBuffer(stagingBuf)

	if err := r.queue.WriteBuffer(uniformBuf, 0, render.Pack(in)); err != nil {
		return nil, fmt.Errorf("wgpu: write frame params: %w", err)
	}

	bindGroup, err := r.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "frame_bind",
		Layout: r.bindLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{Buffer: uniformBuf.NativeHandle(), Offset: 0, Size: render.FrameParamsSize}},
			{Binding: 1, Resource: gputypes.BufferBinding{Buffer: storageBuf.NativeHandle(), Offset: 0, Size: pixelBufSize}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create bind group: %w", err)
	}
	defer r.device.DestroyBindGroup(bindGroup)

	readback := make([]byte, pixelBufSize)
	if err := r.dispatch(cp, bindGroup, storageBuf, stagingBuf, w, h, pixelBufSize, readback); err != nil {
		return nil, err
	}

	img := image.NewRGBA(image.Rect(0, 0, in.Width, in.Height))
	copy(img.Pix, readback)
	return img, nil
}

// dispatch encodes, submits, and waits for one compute pass, then reads the
// staging buffer back.
func (r *Renderer) dispatch(cp cachedPipeline, bindGroup hal.BindGroup, storageBuf, stagingBuf hal.Buffer, w, h uint32, pixelBufSize uint64, readback []byte) error {
	encoder, err := r.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "frame_encoder"})
	if err != nil {
		return fmt.Errorf("wgpu: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("frame"); err != nil {
		return fmt.Errorf("wgpu: begin encoding: %w", err)
	}

	pass := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: "shade"})
	pass.SetPipeline(cp.pipeline)
	pass.SetBindGroup(0, bindGroup, nil)
	pass.Dispatch((w+7)/8, (h+7)/8, 1)
	pass.End()

	encoder.CopyBufferToBuffer(storageBuf, stagingBuf, []hal.BufferCopy{
		{SrcOffset: 0, DstOffset: 0, Size: pixelBufSize},
	})

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("wgpu: end encoding: %w", err)
	}
	defer r.device.FreeCommandBuffer(cmdBuf)

	subIdx, err := r.queue.Submit([]hal.CommandBuffer{cmdBuf})
	if err != nil {
		return fmt.Errorf("wgpu: submit: %w", err)
	}
	if err := r.device.WaitIdle(); err != nil {
		return fmt.Errorf("wgpu: wait for GPU: %w", err)
	}
	if completed := r.queue.PollCompleted(); completed < subIdx {
		return fmt.Errorf("wgpu: submission %d not completed (GPU at %d)", subIdx, completed)
	}

	mapping, err := r.device.MapBuffer(stagingBuf, 0, pixelBufSize)
	if err != nil {
		return fmt.Errorf("wgpu: map staging buffer: %w", err)
	}
	copy(readback, unsafe.Slice((*byte)(mapping.Ptr), pixelBufSize))
	if err := r.device.UnmapBuffer(stagingBuf); err != nil {
		return fmt.Errorf("wgpu: unmap staging buffer: %w", err)
	}
	return nil
}

// DropPipeline evicts one compiled pipeline from the cache and destroys its
// GPU resources. Unknown hashes are a no-op.
func (r *Renderer) DropPipeline(hash string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cp, ok := r.cache[hash]; ok {
		r.device.DestroyComputePipeline(cp.pipeline)
		r.device.DestroyShaderModule(cp.module)
		delete(r.cache, hash)
	}
}

// Close releases all GPU resources. Shared devices are not destroyed.
func (r *Renderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.device != nil {
		for hash, cp := range r.cache {
			r.device.DestroyComputePipeline(cp.pipeline)
			r.device.DestroyShaderModule(cp.module)
			delete(r.cache, hash)
		}
		if r.pipeLayout != nil {
			r.device.DestroyPipelineLayout(r.pipeLayout)
			r.pipeLayout = nil
		}
		if r.bindLayout != nil {
			r.device.DestroyBindGroupLayout(r.bindLayout)
			r.bindLayout = nil
		}
	}
	if !r.externalDevice {
		if r.device != nil {
			r.device.Destroy()
		}
		if r.instance != nil {
			r.instance.Destroy()
		}
	}
	r.device = nil
	r.queue = nil
	r.instance = nil
	r.ready = false
	return nil
}
