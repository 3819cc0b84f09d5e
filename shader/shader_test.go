// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package shader

import "testing"

func TestTypeComponents(t *testing.T) {
	tests := []struct {
		typ  Type
		want int
	}{
		{TypeFloat, 1},
		{TypeFloat2, 2},
		{TypeFloat3, 3},
		{TypeFloat4, 4},
		{TypeInt, 1},
		{TypeBool, 1},
		{Type("mystery"), 1},
	}
	for _, tt := range tests {
		if got := tt.typ.Components(); got != tt.want {
			t.Errorf("Components(%q) = %d, want %d", tt.typ, got, tt.want)
		}
	}
}

func TestDefaultValue(t *testing.T) {
	if v := DefaultValue(TypeFloat); len(v) != 1 || v[0] != 0.5 {
		t.Errorf("DefaultValue(float) = %v, want [0.5]", v)
	}
	if v := DefaultValue(TypeFloat3); len(v) != 3 || v[0] != 0 {
		t.Errorf("DefaultValue(float3) = %v, want [0 0 0]", v)
	}
	if v := DefaultValue(TypeBool); len(v) != 1 || v[0] != 0 {
		t.Errorf("DefaultValue(bool) = %v, want [0]", v)
	}
}

func TestStateCloneIndependence(t *testing.T) {
	s := &State{
		Source: "fn shade() {}",
		Parameters: []Parameter{
			{Name: "speed", Type: TypeFloat, Value: []float64{1.5}, Range: [2]float64{0, 5}},
		},
		Uniforms: map[string]any{"speed": []float64{1.5}},
	}

	c := s.Clone()
	c.Parameters[0].Value[0] = 9
	c.Uniforms["speed"].([]float64)[0] = 9
	c.Source = "changed"

	if s.Parameters[0].Value[0] != 1.5 {
		t.Errorf("clone mutation leaked into original parameter: %v", s.Parameters[0].Value)
	}
	if s.Uniforms["speed"].([]float64)[0] != 1.5 {
		t.Errorf("clone mutation leaked into original uniforms: %v", s.Uniforms["speed"])
	}
	if s.Source != "fn shade() {}" {
		t.Errorf("clone mutation leaked into original source")
	}
}

func TestParamLookup(t *testing.T) {
	s := &State{Parameters: []Parameter{
		{Name: "scale", Type: TypeFloat},
		{Name: "tint", Type: TypeFloat3},
	}}
	if p := s.Param("tint"); p == nil || p.Type != TypeFloat3 {
		t.Errorf("Param(tint) = %v, want float3 parameter", p)
	}
	if p := s.Param("absent"); p != nil {
		t.Errorf("Param(absent) = %v, want nil", p)
	}
}

func TestIsBuiltinName(t *testing.T) {
	for _, name := range []string{"time", "Resolution", "iTime", "u_mouse", "iResolution"} {
		if !IsBuiltinName(name) {
			t.Errorf("IsBuiltinName(%q) = false, want true", name)
		}
	}
	for _, name := range []string{"turbulence", "speed", "timer", ""} {
		if IsBuiltinName(name) {
			t.Errorf("IsBuiltinName(%q) = true, want false", name)
		}
	}
}
