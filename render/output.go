// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/gogpu/shaderbridge/render/pngmeta"
)

// reUnsafe matches filename characters the artifact namer replaces.
var reUnsafe = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// ArtifactWriter writes rendered frames into the conventional output
// directory as `<timestamp>_<description>.png` with embedded metadata.
type ArtifactWriter struct {
	// Dir is the output directory, created on first write.
	Dir string

	// Now supplies timestamps; nil means time.Now. Tests inject a fixed
	// clock to get stable filenames.
	Now func() time.Time
}

// now returns the clock value in UTC.
func (w *ArtifactWriter) now() time.Time {
	if w.Now != nil {
		return w.Now().UTC()
	}
	return time.Now().UTC()
}

// WriteFrame stores one rendered frame and returns its path. The embedded
// metadata records the shader time, description, resolution, and export
// timestamp.
func (w *ArtifactWriter) WriteFrame(img *image.RGBA, description string, shaderTime float64) (string, error) {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return "", fmt.Errorf("render: output dir: %w", err)
	}

	ts := w.now()
	name := fmt.Sprintf("%s_%s.png", ts.Format("20060102T150405.000"), sanitizeDescription(description))
	path := filepath.Join(w.Dir, name)

	b := img.Bounds()
	meta := map[string]string{
		"time":             fmt.Sprintf("%g", shaderTime),
		"description":      description,
		"resolution":       fmt.Sprintf("%dx%d", b.Dx(), b.Dy()),
		"export_timestamp": ts.Format(time.RFC3339),
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("render: create artifact: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := pngmeta.Encode(f, img, meta); err != nil {
		return "", fmt.Errorf("render: write artifact: %w", err)
	}
	return path, nil
}

// sanitizeDescription makes a description safe for a filename.
func sanitizeDescription(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "frame"
	}
	s = reUnsafe.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if s == "" {
		return "frame"
	}
	if len(s) > 64 {
		s = s[:64]
	}
	return s
}
