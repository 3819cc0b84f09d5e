// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"github.com/gogpu/shaderbridge/shader"
)

// MaxCustomValues is the number of vec4 custom-uniform slots the harness
// declares. Must match the FrameParams struct in the compiler boilerplate.
const MaxCustomValues = 16

// FrameParamsSize is the byte size of the packed FrameParams uniform
// buffer: 8 scalar/vec2 words plus 16 vec4 custom slots.
const FrameParamsSize = 32 + MaxCustomValues*16

// Overrides is the driver-controlled layer that takes precedence over
// computed defaults. A nil pointer field means "no override"; the renderer
// then uses the caller's default for that builtin.
type Overrides struct {
	Time       *float64
	Resolution *[2]int
	Mouse      *[2]float64

	// Custom maps a uniform name to an explicit value override.
	Custom map[string][]float64
}

// Clone returns an independent copy; mutating the clone never touches o.
func (o Overrides) Clone() Overrides {
	out := Overrides{}
	if o.Time != nil {
		t := *o.Time
		out.Time = &t
	}
	if o.Resolution != nil {
		r := *o.Resolution
		out.Resolution = &r
	}
	if o.Mouse != nil {
		m := *o.Mouse
		out.Mouse = &m
	}
	if o.Custom != nil {
		out.Custom = make(map[string][]float64, len(o.Custom))
		for k, v := range o.Custom {
			out.Custom[k] = append([]float64(nil), v...)
		}
	}
	return out
}

// ApplyJSON merges one uniform-override message into o. Absent keys leave
// the prior override untouched; an explicit JSON null clears it; anything
// else sets it. Builtin keys are time, resolution, mouse.
func (o *Overrides) ApplyJSON(updates map[string]json.RawMessage) error {
	for key, raw := range updates {
		isNull := len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
		switch key {
		case "time":
			if isNull {
				o.Time = nil
				continue
			}
			var v float64
			if err := json.Unmarshal(raw, &v); err != nil {
				return fmt.Errorf("render: override %q: %w", key, err)
			}
			o.Time = &v
		case "resolution":
			if isNull {
				o.Resolution = nil
				continue
			}
			var v [2]int
			if err := json.Unmarshal(raw, &v); err != nil {
				return fmt.Errorf("render: override %q: %w", key, err)
			}
			o.Resolution = &v
		case "mouse":
			if isNull {
				o.Mouse = nil
				continue
			}
			var v [2]float64
			if err := json.Unmarshal(raw, &v); err != nil {
				return fmt.Errorf("render: override %q: %w", key, err)
			}
			o.Mouse = &v
		default:
			if isNull {
				delete(o.Custom, key)
				continue
			}
			v, err := decodeScalarOrVector(raw)
			if err != nil {
				return fmt.Errorf("render: override %q: %w", key, err)
			}
			if o.Custom == nil {
				o.Custom = make(map[string][]float64)
			}
			o.Custom[key] = v
		}
	}
	return nil
}

// decodeScalarOrVector accepts a JSON number, bool, or number array.
func decodeScalarOrVector(raw json.RawMessage) ([]float64, error) {
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return []float64{f}, nil
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		if b {
			return []float64{1}, nil
		}
		return []float64{0}, nil
	}
	var vs []float64
	if err := json.Unmarshal(raw, &vs); err == nil && len(vs) >= 1 && len(vs) <= 4 {
		return vs, nil
	}
	return nil, fmt.Errorf("expected number, bool, or 1..4 number array, got %s", raw)
}

// Resolve builds the frame inputs from defaults, the extracted parameters,
// and the override layer. It is a pure function: given equal arguments it
// returns equal Inputs, which is what makes renders reproducible.
//
// Precedence per uniform: override > parameter value > default.
func Resolve(defaults Inputs, parameters []shader.Parameter, o Overrides) Inputs {
	in := defaults

	if o.Time != nil {
		in.Time = *o.Time
	}
	if o.Resolution != nil {
		in.Width, in.Height = o.Resolution[0], o.Resolution[1]
	}
	if o.Mouse != nil {
		in.Mouse = *o.Mouse
	}

	values := make(map[string][4]float64, len(parameters))
	names := make([]string, 0, len(parameters))
	for _, p := range parameters {
		if p.IsBuiltin || shader.IsBuiltinName(p.Name) {
			continue
		}
		values[p.Name] = pad4(p.Value)
		names = append(names, p.Name)
	}
	for name, v := range o.Custom {
		if shader.IsBuiltinName(name) {
			continue
		}
		if _, known := values[name]; !known {
			names = append(names, name)
		}
		values[name] = pad4(v)
	}

	sort.Strings(names)
	in.Custom = make([]CustomValue, len(names))
	for i, name := range names {
		in.Custom[i] = CustomValue{Name: name, Value: values[name]}
	}
	return in
}

func pad4(v []float64) [4]float64 {
	var out [4]float64
	copy(out[:], v)
	return out
}

// Pack serializes the inputs into the FrameParams uniform-buffer layout the
// harness declares: width, height, time, seed, mouse, padding, then the
// vec4 custom slots in name-sorted order.
func Pack(in Inputs) []byte {
	buf := make([]byte, FrameParamsSize)
	le := binary.LittleEndian

	le.PutUint32(buf[0:], uint32(in.Width))
	le.PutUint32(buf[4:], uint32(in.Height))
	le.PutUint32(buf[8:], math.Float32bits(float32(in.Time)))
	le.PutUint32(buf[12:], math.Float32bits(float32(in.Seed)))
	le.PutUint32(buf[16:], math.Float32bits(float32(in.Mouse[0])))
	le.PutUint32(buf[20:], math.Float32bits(float32(in.Mouse[1])))
	// buf[24:32] is the _pad vec2.

	for i, cv := range in.Custom {
		if i >= MaxCustomValues {
			break
		}
		off := 32 + i*16
		for c := 0; c < 4; c++ {
			le.PutUint32(buf[off+c*4:], math.Float32bits(float32(cv.Value[c])))
		}
	}
	return buf
}
