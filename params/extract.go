// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package params statically extracts tunable parameters from shader source.
//
// Extraction is a documented heuristic, not a parse: layered regular
// expressions recover uniform-like declarations from source text in priority
// order, and name-substring matching assigns plausible numeric ranges.
// It trades exactness for robustness on snippets that a real frontend
// would reject.
package params

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/gogpu/shaderbridge/shader"
)

// Declaration patterns, in priority order. The first pattern that claims a
// name wins; later patterns cannot override it.
var (
	// constant-reference bindings: `constant float &turbulence [[buffer(3)]]`.
	reConstantRef = regexp.MustCompile(`constant\s+([A-Za-z_]\w*)\s*&\s*([A-Za-z_]\w*)\s*\[\[\s*buffer\(\d+\)\s*\]\]`)

	// inline constant declarations: `const speed: f32 = 1.5;` or `let zoom = 2.0;`.
	// Only literal initializers (a number or a vecN constructor) are claimed,
	// so computed locals inside function bodies are left alone.
	reInlineConst = regexp.MustCompile(`(?m)^\s*(?:const|let)\s+([A-Za-z_]\w*)\s*(?::\s*([A-Za-z_][\w<>, ]*))?\s*=\s*(-?\d+(?:\.\d+)?|vec[234][\w<>]*\([^)]*\))`)

	// legacy uniform-style declarations: `uniform float glow;` or
	// `var<uniform> glow : f32;`.
	reLegacyUniform = regexp.MustCompile(`(?m)^\s*uniform\s+([A-Za-z_]\w*)\s+([A-Za-z_]\w*)\s*;`)
	reVarUniform    = regexp.MustCompile(`var\s*<\s*uniform\s*>\s*([A-Za-z_]\w*)\s*:\s*([A-Za-z_][\w<>, ]*)`)
)

// Extract scans source for tunable parameter declarations and returns them
// sorted by name. Builtin uniforms (time, resolution, mouse and their
// aliases) are never returned. Each parameter carries a default value and a
// heuristic range; use Merge to preserve driver edits across re-extraction.
func Extract(source string) []shader.Parameter {
	seen := make(map[string]shader.Parameter)

	add := func(name string, typ shader.Type, value []float64) {
		if shader.IsBuiltinName(name) {
			return
		}
		if _, ok := seen[name]; ok {
			return
		}
		p := shader.Parameter{Name: name, Type: typ}
		p.Range = rangeForName(name, typ)
		if value != nil {
			p.Value = value
		} else {
			p.Value = defaultInRange(typ, p.Range)
		}
		seen[name] = p
	}

	for _, m := range reConstantRef.FindAllStringSubmatch(source, -1) {
		add(m[2], typeForToken(m[1]), nil)
	}
	for _, m := range reInlineConst.FindAllStringSubmatch(source, -1) {
		typ := typeForToken(m[2])
		if m[2] == "" {
			typ = typeForLiteral(m[3])
		}
		if v, err := strconv.ParseFloat(m[3], 64); err == nil && typ.Components() == 1 {
			add(m[1], typ, []float64{v})
		} else {
			add(m[1], typ, nil)
		}
	}
	for _, m := range reLegacyUniform.FindAllStringSubmatch(source, -1) {
		add(m[2], typeForToken(m[1]), nil)
	}
	for _, m := range reVarUniform.FindAllStringSubmatch(source, -1) {
		add(m[1], typeForToken(m[2]), nil)
	}

	out := make([]shader.Parameter, 0, len(seen))
	for _, p := range seen {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Merge overlays a previous extraction onto a fresh one: any parameter whose
// name and type survive keeps its previous value and range, so driver edits
// outlive source churn. Parameters only present in next keep their defaults.
func Merge(prev, next []shader.Parameter) []shader.Parameter {
	byName := make(map[string]shader.Parameter, len(prev))
	for _, p := range prev {
		byName[p.Name] = p
	}
	out := make([]shader.Parameter, len(next))
	for i, p := range next {
		if old, ok := byName[p.Name]; ok && old.Type == p.Type {
			p.Value = append([]float64(nil), old.Value...)
			p.Range = old.Range
		}
		out[i] = p
	}
	return out
}

// typeForToken maps a source type token to a parameter type. Both the C-ish
// spellings (float, float3) and the WGSL spellings (f32, vec3<f32>, vec3f)
// are recognized; unknown tokens default to float.
func typeForToken(tok string) shader.Type {
	tok = strings.ToLower(strings.TrimSpace(tok))
	switch tok {
	case "float", "f32", "f16", "half", "double":
		return shader.TypeFloat
	case "float2", "vec2", "vec2f", "half2":
		return shader.TypeFloat2
	case "float3", "vec3", "vec3f", "half3":
		return shader.TypeFloat3
	case "float4", "vec4", "vec4f", "half4":
		return shader.TypeFloat4
	case "int", "i32", "u32", "uint":
		return shader.TypeInt
	case "bool":
		return shader.TypeBool
	}
	switch {
	case strings.HasPrefix(tok, "vec2<"):
		return shader.TypeFloat2
	case strings.HasPrefix(tok, "vec3<"):
		return shader.TypeFloat3
	case strings.HasPrefix(tok, "vec4<"):
		return shader.TypeFloat4
	}
	return shader.TypeFloat
}

// typeForLiteral infers a parameter type from an initializer literal.
func typeForLiteral(lit string) shader.Type {
	switch {
	case strings.HasPrefix(lit, "vec2"):
		return shader.TypeFloat2
	case strings.HasPrefix(lit, "vec3"):
		return shader.TypeFloat3
	case strings.HasPrefix(lit, "vec4"):
		return shader.TypeFloat4
	case strings.ContainsRune(lit, '.'):
		return shader.TypeFloat
	}
	return shader.TypeInt
}
