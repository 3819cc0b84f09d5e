// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package baseline

import (
	"image"
	"image/color"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	panelGap    = 4
	labelHeight = 16
)

var panelLabels = [3]string{"baseline", "current", "diff"}

// renderTriptych lays baseline, current, and heatmap side by side with a
// text label above each panel.
func renderTriptych(ref, cur, heat *image.RGBA) *image.RGBA {
	w := ref.Bounds().Dx()
	h := ref.Bounds().Dy()

	outW := 3*w + 2*panelGap
	outH := h + labelHeight
	out := image.NewRGBA(image.Rect(0, 0, outW, outH))
	xdraw.Draw(out, out.Bounds(), image.NewUniform(color.RGBA{32, 32, 32, 255}), image.Point{}, xdraw.Src)

	panels := [3]*image.RGBA{ref, cur, heat}
	for i, p := range panels {
		x0 := i * (w + panelGap)
		dst := image.Rect(x0, labelHeight, x0+w, labelHeight+h)
		xdraw.Copy(out, dst.Min, p, p.Bounds(), xdraw.Src, nil)
		drawLabel(out, panelLabels[i], x0+2, labelHeight-4)
	}
	return out
}

// drawLabel renders small text with the fixed 7x13 face; (x, y) is the
// text baseline.
func drawLabel(dst *image.RGBA, text string, x, y int) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(color.White),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}
