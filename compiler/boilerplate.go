// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package compiler

import "regexp"

// entryPointName is the compute entry the harness exposes and the renderer
// dispatches.
const entryPointName = "main"

// Entry-stage detection is a structural pattern match, not a parse.
var (
	reComputeEntry = regexp.MustCompile(`@compute\b`)
	reShadeFn      = regexp.MustCompile(`fn\s+shade\s*\(`)
)

// harnessPrelude declares the bindings every harnessed shader sees:
// frame parameters at binding 0 and the output pixel buffer at binding 1.
// Custom parameter values are packed four to a vec4 and read via param(i).
const harnessPrelude = `struct FrameParams {
    width : u32,
    height : u32,
    time : f32,
    seed : f32,
    mouse : vec2<f32>,
    _pad : vec2<f32>,
    custom : array<vec4<f32>, 16>,
}

@group(0) @binding(0) var<uniform> frame : FrameParams;
@group(0) @binding(1) var<storage, read_write> pixels : array<u32>;

fn param(i : u32) -> vec4<f32> {
    return frame.custom[i];
}

`

// harnessEpilogue is the compute entry stage: one invocation per pixel,
// shade() result packed as RGBA8 into the output buffer.
const harnessEpilogue = `
@compute @workgroup_size(8, 8, 1)
fn main(@builtin(global_invocation_id) gid : vec3<u32>) {
    if (gid.x >= frame.width || gid.y >= frame.height) {
        return;
    }
    let res = vec2<f32>(f32(frame.width), f32(frame.height));
    let uv = vec2<f32>(f32(gid.x), f32(gid.y)) / res;
    let rgba = clamp(shade(uv, frame.time), vec4<f32>(0.0), vec4<f32>(1.0));
    let r = u32(rgba.x * 255.0 + 0.5);
    let g = u32(rgba.y * 255.0 + 0.5);
    let b = u32(rgba.z * 255.0 + 0.5);
    let a = u32(rgba.w * 255.0 + 0.5);
    pixels[gid.y * frame.width + gid.x] = r | (g << 8u) | (b << 16u) | (a << 24u);
}
`

// EnsureEntryStage returns source ready for compilation. A module that
// already declares a compute entry passes through untouched. A fragment-only
// snippet declaring `fn shade(uv : vec2<f32>, t : f32) -> vec4<f32>` is
// wrapped in the harness so it compiles standalone. Anything else also
// passes through, and the compiler reports its own errors.
func EnsureEntryStage(source string) string {
	if reComputeEntry.MatchString(source) {
		return source
	}
	if reShadeFn.MatchString(source) {
		return harnessPrelude + source + harnessEpilogue
	}
	return source
}

// IsHarnessed reports whether full source was produced by wrapping a snippet
// with the harness.
func IsHarnessed(full string) bool {
	return len(full) > len(harnessPrelude) && full[:len(harnessPrelude)] == harnessPrelude
}
