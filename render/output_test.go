// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"image"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gogpu/shaderbridge/render/pngmeta"
)

func TestWriteFrame(t *testing.T) {
	dir := t.TempDir()
	fixed := time.Date(2026, 8, 25, 10, 30, 0, 0, time.UTC)
	w := &ArtifactWriter{Dir: filepath.Join(dir, "renders"), Now: func() time.Time { return fixed }}

	img := image.NewRGBA(image.Rect(0, 0, 32, 16))
	path, err := w.WriteFrame(img, "plasma sweep v2", 1.25)
	if err != nil {
		t.Fatalf("WriteFrame() error: %v", err)
	}

	wantName := "20260825T103000.000_plasma_sweep_v2.png"
	if filepath.Base(path) != wantName {
		t.Errorf("artifact name = %q, want %q", filepath.Base(path), wantName)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("artifact not written: %v", err)
	}
	defer f.Close()

	meta, err := pngmeta.Decode(f)
	if err != nil {
		t.Fatalf("pngmeta.Decode() error: %v", err)
	}
	if meta["time"] != "1.25" {
		t.Errorf("meta time = %q, want 1.25", meta["time"])
	}
	if meta["description"] != "plasma sweep v2" {
		t.Errorf("meta description = %q", meta["description"])
	}
	if meta["resolution"] != "32x16" {
		t.Errorf("meta resolution = %q, want 32x16", meta["resolution"])
	}
	if meta["export_timestamp"] != "2026-08-25T10:30:00Z" {
		t.Errorf("meta export_timestamp = %q", meta["export_timestamp"])
	}
}

func TestSanitizeDescription(t *testing.T) {
	tests := []struct{ in, want string }{
		{"plasma sweep", "plasma_sweep"},
		{"  ", "frame"},
		{"", "frame"},
		{"a/b\\c:d", "a_b_c_d"},
		{"___", "frame"},
		{"ok-name.v1", "ok-name.v1"},
	}
	for _, tt := range tests {
		if got := sanitizeDescription(tt.in); got != tt.want {
			t.Errorf("sanitizeDescription(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
