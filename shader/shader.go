// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package shader defines the shader state model shared by the bridge,
// renderer, and stores: the current shader source, its metadata, and the
// tunable parameters discovered in it.
package shader

import "strings"

// Type identifies the value type of a tunable parameter.
type Type string

// Parameter types. These mirror the scalar and small-vector types a
// fragment-style shader can declare as tunable inputs.
const (
	TypeFloat  Type = "float"
	TypeFloat2 Type = "float2"
	TypeFloat3 Type = "float3"
	TypeFloat4 Type = "float4"
	TypeInt    Type = "int"
	TypeBool   Type = "bool"
)

// Components returns the number of scalar components for the type.
// Unknown types report 1 so callers always get a usable width.
func (t Type) Components() int {
	switch t {
	case TypeFloat2:
		return 2
	case TypeFloat3:
		return 3
	case TypeFloat4:
		return 4
	default:
		return 1
	}
}

// Parameter is one tunable shader input discovered by extraction or set by
// the driver. Value always holds Components() scalars; bool is 0 or 1.
type Parameter struct {
	Name      string     `json:"name"`
	Type      Type       `json:"type"`
	Value     []float64  `json:"value"`
	Range     [2]float64 `json:"range"`
	IsBuiltin bool       `json:"is_builtin"`
}

// Clone returns an independent copy of the parameter.
func (p Parameter) Clone() Parameter {
	c := p
	c.Value = append([]float64(nil), p.Value...)
	return c
}

// DefaultValue returns the zero-ish default for a parameter type:
// 0.5 for float scalars (mid-range for a unit slider), 0 elsewhere.
func DefaultValue(t Type) []float64 {
	n := t.Components()
	v := make([]float64, n)
	if t == TypeFloat {
		v[0] = 0.5
	}
	return v
}

// Metadata describes the current shader for drivers and snapshots.
type Metadata struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	FilePath    string `json:"file_path,omitempty"`
}

// State is the full mutable state of the shader being edited and rendered.
// Exactly one State is current at a time; all mutation goes through the
// bridge's single-threaded dispatch.
type State struct {
	Source     string         `json:"source"`
	Compiled   bool           `json:"compiled"`
	Metadata   Metadata       `json:"metadata"`
	Parameters []Parameter    `json:"parameters"`
	Uniforms   map[string]any `json:"uniforms,omitempty"`
	LastError  string         `json:"last_error,omitempty"`
}

// Clone returns a deep copy of the state. Snapshots persist clones so later
// edits to the live state never leak into the ledger.
func (s *State) Clone() *State {
	c := *s
	c.Parameters = make([]Parameter, len(s.Parameters))
	for i, p := range s.Parameters {
		c.Parameters[i] = p.Clone()
	}
	if s.Uniforms != nil {
		c.Uniforms = make(map[string]any, len(s.Uniforms))
		for k, v := range s.Uniforms {
			if vs, ok := v.([]float64); ok {
				c.Uniforms[k] = append([]float64(nil), vs...)
				continue
			}
			c.Uniforms[k] = v
		}
	}
	return &c
}

// Param returns the named parameter, or nil if the state has none.
func (s *State) Param(name string) *Parameter {
	for i := range s.Parameters {
		if s.Parameters[i].Name == name {
			return &s.Parameters[i]
		}
	}
	return nil
}

// builtinNames are uniform names the renderer supplies on every frame.
// They are never extracted as tunable parameters. The alias forms cover the
// Shadertoy-style and underscore-prefixed spellings seen in ported sources.
var builtinNames = map[string]bool{
	"time":         true,
	"resolution":   true,
	"mouse":        true,
	"itime":        true,
	"iresolution":  true,
	"imouse":       true,
	"u_time":       true,
	"u_resolution": true,
	"u_mouse":      true,
}

// IsBuiltinName reports whether name is a renderer-supplied builtin uniform
// (or one of its conventional aliases). The check is case-insensitive.
func IsBuiltinName(name string) bool {
	return builtinNames[strings.ToLower(name)]
}
