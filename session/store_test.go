// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package session

import (
	"errors"
	"image"
	"os"
	"testing"
	"time"

	"github.com/gogpu/shaderbridge/shader"
)

func testState() *shader.State {
	return &shader.State{
		Source:   "fn shade(uv: vec2<f32>, t: f32) -> vec4<f32> { return vec4<f32>(uv, t, 1.0); }",
		Compiled: true,
		Metadata: shader.Metadata{Name: "plasma"},
		Parameters: []shader.Parameter{
			{Name: "speed", Type: shader.TypeFloat, Value: []float64{1.5}, Range: [2]float64{0, 5}},
		},
		Uniforms: map[string]any{"speed": 1.5},
	}
}

func TestSaveAndGet(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() error: %v", err)
	}

	st := testState()
	snap, err := store.Save("checkpoint", "before color tweak", st, "abc123", nil)
	if err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if snap.ID == "" {
		t.Fatal("Save() returned empty id")
	}

	got, err := store.Get(snap.ID)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got.Name != "checkpoint" || got.Notes != "before color tweak" {
		t.Errorf("Get() = %q/%q, want checkpoint/before color tweak", got.Name, got.Notes)
	}
	if got.Shader.Source != st.Source {
		t.Error("snapshot lost the shader source")
	}
	if got.PipelineHash != "abc123" {
		t.Errorf("pipeline hash = %q, want abc123", got.PipelineHash)
	}
	if len(got.Shader.Parameters) != 1 || got.Shader.Parameters[0].Value[0] != 1.5 {
		t.Errorf("snapshot parameters = %+v", got.Shader.Parameters)
	}
}

func TestSaveDeepCopies(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() error: %v", err)
	}

	st := testState()
	snap, err := store.Save("a", "", st, "", nil)
	if err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	// Mutating the live state after save must not affect the snapshot.
	st.Parameters[0].Value[0] = 99
	st.Source = "mutated"

	got, err := store.Get(snap.ID)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got.Shader.Parameters[0].Value[0] != 1.5 {
		t.Errorf("snapshot value = %g, live-state mutation leaked in", got.Shader.Parameters[0].Value[0])
	}
	if got.Shader.Source == "mutated" {
		t.Error("snapshot source follows live state")
	}
}

func TestSaveWithFrame(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() error: %v", err)
	}

	frame := image.NewRGBA(image.Rect(0, 0, 8, 8))
	snap, err := store.Save("framed", "", testState(), "h", frame)
	if err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if snap.FramePath == "" {
		t.Fatal("Save() with frame recorded no frame path")
	}
	if _, err := os.Stat(snap.FramePath); err != nil {
		t.Errorf("frame not on disk: %v", err)
	}

	if err := store.Delete(snap.ID); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if _, err := os.Stat(snap.FramePath); !os.IsNotExist(err) {
		t.Error("Delete() left the frame behind")
	}
}

func TestListNewestFirst(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() error: %v", err)
	}
	base := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	i := 0
	store.now = func() time.Time {
		i++
		return base.Add(time.Duration(i) * time.Minute)
	}

	for _, name := range []string{"first", "second", "third"} {
		if _, err := store.Save(name, "", testState(), "", nil); err != nil {
			t.Fatalf("Save(%s) error: %v", name, err)
		}
	}

	snaps, err := store.List(0)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(snaps) != 3 {
		t.Fatalf("List() = %d snapshots, want 3", len(snaps))
	}
	if snaps[0].Name != "third" || snaps[2].Name != "first" {
		t.Errorf("List() order = %s,%s,%s, want newest first",
			snaps[0].Name, snaps[1].Name, snaps[2].Name)
	}

	limited, err := store.List(2)
	if err != nil {
		t.Fatalf("List(2) error: %v", err)
	}
	if len(limited) != 2 || limited[0].Name != "third" {
		t.Errorf("List(2) = %d snapshots starting %q", len(limited), limited[0].Name)
	}
}

func TestGetUnknown(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() error: %v", err)
	}
	if _, err := store.Get("no-such-id"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(unknown) = %v, want ErrNotFound", err)
	}
	if err := store.Delete("no-such-id"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete(unknown) = %v, want ErrNotFound", err)
	}
}

func TestListSkipsCorruptEntries(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore() error: %v", err)
	}
	if _, err := store.Save("good", "", testState(), "", nil); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if err := os.WriteFile(dir+"/broken.json", []byte("{nope"), 0o644); err != nil {
		t.Fatal(err)
	}

	snaps, err := store.List(0)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(snaps) != 1 || snaps[0].Name != "good" {
		t.Errorf("List() = %d snapshots, want the single good one", len(snaps))
	}
}
