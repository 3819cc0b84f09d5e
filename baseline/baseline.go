// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package baseline stores reference renders and compares new frames
// against them, producing a pass/fail verdict and a labeled diff image.
package baseline

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// DefaultThreshold is the diff ratio above which a comparison fails when
// the caller does not supply a threshold.
const DefaultThreshold = 0.01

// channelTolerance is the per-channel difference below which two pixels
// still count as equal, absorbing rounding noise between runs.
const channelTolerance = 2

// ErrNoBaseline reports a comparison against a name that was never set.
var ErrNoBaseline = errors.New("baseline: no baseline recorded")

var reName = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// DiffResult is the outcome of comparing a frame to its baseline.
type DiffResult struct {
	Name       string  `json:"name"`
	DiffPixels int     `json:"diff_pixels"`
	TotalPixels int    `json:"total_pixels"`
	DiffRatio  float64 `json:"diff_ratio"`
	Threshold  float64 `json:"threshold"`
	Pass       bool    `json:"pass"`

	// DiffImagePath points at the labeled baseline/current/heatmap
	// triptych written for failed or passed comparisons alike.
	DiffImagePath string `json:"diff_image_path,omitempty"`
}

// Registry keeps named baselines as PNG files under one directory.
type Registry struct {
	dir string
}

// NewRegistry opens (creating if needed) a baseline registry rooted at dir.
func NewRegistry(dir string) (*Registry, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("baseline: create registry dir: %w", err)
	}
	return &Registry{dir: dir}, nil
}

// Set records img as the baseline for name, replacing any previous one.
func (r *Registry) Set(name string, img *image.RGBA) error {
	if err := validateName(name); err != nil {
		return err
	}
	if img == nil {
		return fmt.Errorf("baseline: nil image for %q", name)
	}
	if err := writePNG(r.baselinePath(name), img); err != nil {
		return err
	}
	slogger().Info("baseline: recorded", "name", name, "resolution",
		fmt.Sprintf("%dx%d", img.Bounds().Dx(), img.Bounds().Dy()))
	return nil
}

// Get loads the baseline image for name.
func (r *Registry) Get(name string) (*image.RGBA, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	f, err := os.Open(r.baselinePath(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("baseline: %q: %w", name, ErrNoBaseline)
		}
		return nil, fmt.Errorf("baseline: open %q: %w", name, err)
	}
	defer func() { _ = f.Close() }()

	src, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("baseline: decode %q: %w", name, err)
	}
	return toRGBA(src), nil
}

// Compare diffs img against the stored baseline for name. A negative
// threshold selects DefaultThreshold; zero demands a pixel-exact match
// beyond channelTolerance. Differing dimensions are a hard error, never
// a numeric diff.
func (r *Registry) Compare(name string, img *image.RGBA, threshold float64) (*DiffResult, error) {
	if img == nil {
		return nil, fmt.Errorf("baseline: nil image for %q", name)
	}
	ref, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	if threshold < 0 {
		threshold = DefaultThreshold
	}

	rb, cb := ref.Bounds(), img.Bounds()
	if rb.Dx() != cb.Dx() || rb.Dy() != cb.Dy() {
		return nil, fmt.Errorf("baseline: %q dimensions differ: baseline %dx%d, current %dx%d",
			name, rb.Dx(), rb.Dy(), cb.Dx(), cb.Dy())
	}

	w, h := rb.Dx(), rb.Dy()
	heat := image.NewRGBA(image.Rect(0, 0, w, h))
	diffPixels := 0
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			ri := ref.PixOffset(rb.Min.X+x, rb.Min.Y+y)
			ci := img.PixOffset(cb.Min.X+x, cb.Min.Y+y)
			d := pixelDelta(ref.Pix[ri:ri+4], img.Pix[ci:ci+4])
			hi := heat.PixOffset(x, y)
			if d > channelTolerance {
				diffPixels++
				// Hotter red for larger per-pixel error.
				heat.Pix[hi] = 255
				heat.Pix[hi+1] = uint8(255 - min(int(d), 255))
				heat.Pix[hi+2] = 0
			} else {
				heat.Pix[hi] = 16
				heat.Pix[hi+1] = 16
				heat.Pix[hi+2] = 16
			}
			heat.Pix[hi+3] = 255
		}
	}

	total := w * h
	res := &DiffResult{
		Name:        name,
		DiffPixels:  diffPixels,
		TotalPixels: total,
		DiffRatio:   float64(diffPixels) / float64(total),
		Threshold:   threshold,
	}
	res.Pass = res.DiffRatio <= threshold

	diffPath := r.diffPath(name)
	if err := writePNG(diffPath, renderTriptych(ref, img, heat)); err != nil {
		return nil, err
	}
	res.DiffImagePath = diffPath

	slogger().Info("baseline: compared", "name", name,
		"ratio", res.DiffRatio, "threshold", threshold, "pass", res.Pass)
	return res, nil
}

// List returns the recorded baseline names, sorted.
func (r *Registry) List() ([]string, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, fmt.Errorf("baseline: read registry dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		n := e.Name()
		if e.IsDir() || !strings.HasPrefix(n, "baseline_") || !strings.HasSuffix(n, ".png") {
			continue
		}
		names = append(names, strings.TrimSuffix(strings.TrimPrefix(n, "baseline_"), ".png"))
	}
	sort.Strings(names)
	return names, nil
}

func (r *Registry) baselinePath(name string) string {
	return filepath.Join(r.dir, "baseline_"+name+".png")
}

func (r *Registry) diffPath(name string) string {
	return filepath.Join(r.dir, "diff_"+name+".png")
}

func validateName(name string) error {
	if !reName.MatchString(name) {
		return fmt.Errorf("baseline: invalid name %q", name)
	}
	return nil
}

// pixelDelta returns the largest per-channel difference of two RGBA pixels.
func pixelDelta(a, b []uint8) int {
	max := 0
	for i := 0; i < 4; i++ {
		d := int(a[i]) - int(b[i])
		if d < 0 {
			d = -d
		}
		if d > max {
			max = d
		}
	}
	return max
}

func toRGBA(src image.Image) *image.RGBA {
	if rgba, ok := src.(*image.RGBA); ok {
		return rgba
	}
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			dst.Set(x, y, src.At(b.Min.X+x, b.Min.Y+y))
		}
	}
	return dst
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("baseline: create %s: %w", filepath.Base(path), err)
	}
	defer func() { _ = f.Close() }()
	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("baseline: encode %s: %w", filepath.Base(path), err)
	}
	return nil
}
