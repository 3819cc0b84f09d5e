// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package session persists point-in-time snapshots of shader work so a
// session can be restored later, including edited source, parameter
// values, and an optional rendered frame.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gogpu/shaderbridge/shader"
)

// ErrNotFound reports an unknown snapshot id.
var ErrNotFound = errors.New("session: snapshot not found")

// Snapshot is one saved moment of a shader session. The shader state is a
// deep copy taken at save time, so later edits never leak into it.
type Snapshot struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`

	Shader       shader.State `json:"shader"`
	PipelineHash string       `json:"pipeline_hash,omitempty"`

	// FramePath is the sibling PNG of the frame rendered when the
	// snapshot was taken; empty when no frame was captured.
	FramePath string `json:"frame_path,omitempty"`
}

// Store keeps snapshots on disk, one JSON document per snapshot plus an
// optional PNG with the same id.
type Store struct {
	dir string
	now func() time.Time
}

// NewStore opens (creating if needed) a snapshot store rooted at dir.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("session: create store dir: %w", err)
	}
	return &Store{dir: dir, now: time.Now}, nil
}

// Save writes a new snapshot of the given shader state and returns it. The
// state is cloned before writing. A non-nil frame is stored alongside as
// `<id>.png`.
func (s *Store) Save(name, notes string, st *shader.State, pipelineHash string, frame *image.RGBA) (*Snapshot, error) {
	if st == nil {
		return nil, fmt.Errorf("session: nil shader state")
	}

	snap := &Snapshot{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(name),
		Notes:        notes,
		CreatedAt:    s.now().UTC(),
		Shader:       *st.Clone(),
		PipelineHash: pipelineHash,
	}
	if snap.Name == "" {
		snap.Name = "snapshot " + snap.CreatedAt.Format("2006-01-02 15:04:05")
	}

	if frame != nil {
		framePath := filepath.Join(s.dir, snap.ID+".png")
		if err := writePNG(framePath, frame); err != nil {
			return nil, err
		}
		snap.FramePath = framePath
	}

	if err := s.writeSnapshot(snap); err != nil {
		if snap.FramePath != "" {
			_ = os.Remove(snap.FramePath)
		}
		return nil, err
	}

	slogger().Info("session: snapshot saved", "id", snap.ID, "name", snap.Name)
	return snap, nil
}

// Get loads one snapshot by id.
func (s *Store) Get(id string) (*Snapshot, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, id+".json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("session: %q: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("session: read snapshot %q: %w", id, err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("session: decode snapshot %q: %w", id, err)
	}
	return &snap, nil
}

// List returns snapshots newest first. A limit of 0 returns everything.
func (s *Store) List(limit int) ([]*Snapshot, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("session: read store dir: %w", err)
	}

	var snaps []*Snapshot
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		id := strings.TrimSuffix(e.Name(), ".json")
		snap, err := s.Get(id)
		if err != nil {
			// Skip corrupt entries rather than failing the whole listing.
			slogger().Warn("session: skipping unreadable snapshot", "id", id, "err", err)
			continue
		}
		snaps = append(snaps, snap)
	}

	sort.Slice(snaps, func(i, j int) bool {
		if snaps[i].CreatedAt.Equal(snaps[j].CreatedAt) {
			return snaps[i].ID < snaps[j].ID
		}
		return snaps[i].CreatedAt.After(snaps[j].CreatedAt)
	})
	if limit > 0 && len(snaps) > limit {
		snaps = snaps[:limit]
	}
	return snaps, nil
}

// Delete removes a snapshot and its frame, if any.
func (s *Store) Delete(id string) error {
	snap, err := s.Get(id)
	if err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(s.dir, id+".json")); err != nil {
		return fmt.Errorf("session: delete snapshot %q: %w", id, err)
	}
	if snap.FramePath != "" {
		_ = os.Remove(snap.FramePath)
	}
	return nil
}

func (s *Store) writeSnapshot(snap *Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("session: encode snapshot: %w", err)
	}
	path := filepath.Join(s.dir, snap.ID+".json")
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("session: write snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("session: commit snapshot: %w", err)
	}
	return nil
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("session: create frame: %w", err)
	}
	defer func() { _ = f.Close() }()
	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("session: encode frame: %w", err)
	}
	return nil
}
