// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"encoding/binary"
	"encoding/json"
	"math"
	"reflect"
	"testing"

	"github.com/gogpu/shaderbridge/shader"
)

func rawMap(t *testing.T, src string) map[string]json.RawMessage {
	t.Helper()
	var m map[string]json.RawMessage
	if err := json.Unmarshal([]byte(src), &m); err != nil {
		t.Fatalf("bad test JSON: %v", err)
	}
	return m
}

func TestOverridesApplyJSON(t *testing.T) {
	var o Overrides

	if err := o.ApplyJSON(rawMap(t, `{"time": 2.5, "resolution": [640, 480], "mouse": [0.1, 0.9], "turbulence": 0.7}`)); err != nil {
		t.Fatalf("ApplyJSON() error: %v", err)
	}
	if o.Time == nil || *o.Time != 2.5 {
		t.Errorf("time override = %v, want 2.5", o.Time)
	}
	if o.Resolution == nil || *o.Resolution != [2]int{640, 480} {
		t.Errorf("resolution override = %v, want [640 480]", o.Resolution)
	}
	if got := o.Custom["turbulence"]; len(got) != 1 || got[0] != 0.7 {
		t.Errorf("custom override = %v, want [0.7]", got)
	}

	// Absent keys leave prior overrides untouched.
	if err := o.ApplyJSON(rawMap(t, `{"mouse": [0.5, 0.5]}`)); err != nil {
		t.Fatalf("ApplyJSON() error: %v", err)
	}
	if o.Time == nil || *o.Time != 2.5 {
		t.Error("absent time key must not clear the time override")
	}

	// Explicit null clears.
	if err := o.ApplyJSON(rawMap(t, `{"time": null, "turbulence": null}`)); err != nil {
		t.Fatalf("ApplyJSON() error: %v", err)
	}
	if o.Time != nil {
		t.Error("explicit null must clear the time override")
	}
	if _, ok := o.Custom["turbulence"]; ok {
		t.Error("explicit null must clear the custom override")
	}
	if o.Resolution == nil {
		t.Error("untouched resolution override was lost")
	}
}

func TestOverridesApplyJSONBadValue(t *testing.T) {
	var o Overrides
	if err := o.ApplyJSON(rawMap(t, `{"resolution": "wide"}`)); err == nil {
		t.Error("ApplyJSON() accepted a non-array resolution")
	}
	if err := o.ApplyJSON(rawMap(t, `{"tint": {"r": 1}}`)); err == nil {
		t.Error("ApplyJSON() accepted an object custom value")
	}
}

func TestResolvePrecedence(t *testing.T) {
	defaults := Inputs{Time: 1, Width: 800, Height: 600}
	parameters := []shader.Parameter{
		{Name: "speed", Type: shader.TypeFloat, Value: []float64{1.5}},
		{Name: "tint", Type: shader.TypeFloat3, Value: []float64{1, 0.5, 0}},
	}
	tOver := 4.0
	o := Overrides{
		Time:   &tOver,
		Custom: map[string][]float64{"speed": {3}},
	}

	in := Resolve(defaults, parameters, o)
	if in.Time != 4 {
		t.Errorf("time = %g, want override 4", in.Time)
	}
	if in.Width != 800 || in.Height != 600 {
		t.Errorf("resolution = %dx%d, want defaults 800x600", in.Width, in.Height)
	}

	want := []CustomValue{
		{Name: "speed", Value: [4]float64{3}},
		{Name: "tint", Value: [4]float64{1, 0.5, 0}},
	}
	if !reflect.DeepEqual(in.Custom, want) {
		t.Errorf("custom = %+v, want %+v", in.Custom, want)
	}
}

func TestResolveIsPure(t *testing.T) {
	defaults := Inputs{Time: 0.5, Width: 64, Height: 64}
	parameters := []shader.Parameter{{Name: "glow", Type: shader.TypeFloat, Value: []float64{0.2}}}
	o := Overrides{Custom: map[string][]float64{"extra": {1, 2}}}

	a := Resolve(defaults, parameters, o)
	b := Resolve(defaults, parameters, o)
	if !reflect.DeepEqual(a, b) {
		t.Errorf("Resolve not deterministic: %+v vs %+v", a, b)
	}
}

func TestResolveSkipsBuiltinNames(t *testing.T) {
	in := Resolve(Inputs{Width: 1, Height: 1}, nil, Overrides{
		Custom: map[string][]float64{"time": {9}, "glow": {0.5}},
	})
	if len(in.Custom) != 1 || in.Custom[0].Name != "glow" {
		t.Errorf("custom = %+v, want only glow (builtins use their own channel)", in.Custom)
	}
}

func TestPackLayout(t *testing.T) {
	in := Inputs{
		Time: 1.5, Width: 640, Height: 480, Seed: 7,
		Mouse:  [2]float64{0.25, 0.75},
		Custom: []CustomValue{{Name: "a", Value: [4]float64{1, 2, 3, 4}}},
	}
	buf := Pack(in)
	if len(buf) != FrameParamsSize {
		t.Fatalf("Pack() = %d bytes, want %d", len(buf), FrameParamsSize)
	}

	le := binary.LittleEndian
	if w := le.Uint32(buf[0:]); w != 640 {
		t.Errorf("width word = %d, want 640", w)
	}
	if h := le.Uint32(buf[4:]); h != 480 {
		t.Errorf("height word = %d, want 480", h)
	}
	if tv := math.Float32frombits(le.Uint32(buf[8:])); tv != 1.5 {
		t.Errorf("time word = %g, want 1.5", tv)
	}
	if s := math.Float32frombits(le.Uint32(buf[12:])); s != 7 {
		t.Errorf("seed word = %g, want 7", s)
	}
	if my := math.Float32frombits(le.Uint32(buf[20:])); my != 0.75 {
		t.Errorf("mouse.y word = %g, want 0.75", my)
	}
	// First custom slot starts at byte 32.
	if c2 := math.Float32frombits(le.Uint32(buf[32+8:])); c2 != 3 {
		t.Errorf("custom[0].z word = %g, want 3", c2)
	}
}

func TestPackDeterministic(t *testing.T) {
	in := Inputs{Time: 0.1, Width: 8, Height: 8, Custom: []CustomValue{{Name: "x", Value: [4]float64{0.5}}}}
	a := Pack(in)
	b := Pack(in)
	if !reflect.DeepEqual(a, b) {
		t.Error("Pack not byte-identical for identical inputs")
	}
}

func TestInputsValidate(t *testing.T) {
	if err := (Inputs{Width: 0, Height: 10}).Validate(); err == nil {
		t.Error("Validate() accepted zero width")
	}
	bad := Inputs{Width: 1, Height: 1, Custom: make([]CustomValue, MaxCustomValues+1)}
	if err := bad.Validate(); err == nil {
		t.Error("Validate() accepted too many custom uniforms")
	}
	if err := (Inputs{Width: 64, Height: 64}).Validate(); err != nil {
		t.Errorf("Validate() rejected sane inputs: %v", err)
	}
}
