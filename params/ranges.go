// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package params

import (
	"math"
	"strings"

	"github.com/gogpu/shaderbridge/shader"
)

// nameRange maps a name substring to a plausible numeric range.
type nameRange struct {
	substrings []string
	min, max   float64
}

// rangeHeuristics assigns ranges by conventional parameter naming. Earlier
// entries win. This is a convenience for driver UIs, not a semantic claim
// about the shader.
var rangeHeuristics = []nameRange{
	{[]string{"scale", "zoom"}, 0.1, 10},
	{[]string{"speed", "rate"}, 0, 5},
	{[]string{"intensity", "strength", "amount", "threshold"}, 0, 1},
	{[]string{"frequency"}, 0.1, 20},
	{[]string{"rotation", "angle"}, 0, 2 * math.Pi},
	{[]string{"count", "iterations"}, 1, 100},
	{[]string{"size", "radius"}, 0.01, 2},
}

// typeRanges are the fallback ranges when no name heuristic matches.
var typeRanges = map[shader.Type][2]float64{
	shader.TypeFloat:  {0, 1},
	shader.TypeFloat2: {0, 1},
	shader.TypeFloat3: {0, 1},
	shader.TypeFloat4: {0, 1},
	shader.TypeInt:    {0, 10},
	shader.TypeBool:   {0, 1},
}

// rangeForName picks a range for a parameter by substring-matching its name,
// falling back to the type default.
func rangeForName(name string, typ shader.Type) [2]float64 {
	lower := strings.ToLower(name)
	for _, h := range rangeHeuristics {
		for _, sub := range h.substrings {
			if strings.Contains(lower, sub) {
				return [2]float64{h.min, h.max}
			}
		}
	}
	if r, ok := typeRanges[typ]; ok {
		return r
	}
	return [2]float64{0, 1}
}

// defaultInRange builds the default value for a type, clamped into the range
// so heuristic ranges like [1,100] never start out of bounds.
func defaultInRange(typ shader.Type, r [2]float64) []float64 {
	v := shader.DefaultValue(typ)
	for i := range v {
		if v[i] < r[0] {
			v[i] = r[0]
		}
		if v[i] > r[1] {
			v[i] = r[1]
		}
	}
	return v
}
