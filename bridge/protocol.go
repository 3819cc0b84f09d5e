// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package bridge carries shader commands from editor tooling to the
// engine over a local socket. Commands land in a single-slot mailbox and
// are executed one at a time by a polling dispatcher; the outcome of the
// most recent command is readable as a status record.
package bridge

import (
	"encoding/json"
	"time"
)

// Command actions understood by the engine dispatcher.
const (
	ActionSetShader         = "set_shader"
	ActionSetShaderWithMeta = "set_shader_with_meta"
	ActionGetShaderMeta     = "get_shader_meta"
	ActionUpdateUniforms    = "update_uniforms"
	ActionSaveSnapshot      = "save_snapshot"
	ActionListSnapshots     = "list_snapshots"
	ActionRestoreSnapshot   = "restore_snapshot"
	ActionExportFrame       = "export_frame"
	ActionExportSequence    = "export_sequence"
	ActionSetBaseline       = "set_baseline"
	ActionCompareBaseline   = "compare_baseline"
	ActionListLibrary       = "list_library_entries"
	ActionSetTab            = "set_tab"
)

// Command is one instruction for the engine. Only the fields relevant to
// its action are populated; the rest stay zero.
type Command struct {
	Action string `json:"action"`

	// Source is shader source for set_shader / set_shader_with_meta.
	Source string `json:"source,omitempty"`

	// Name names a shader, snapshot, baseline, or tab depending on the
	// action.
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	Notes       string `json:"notes,omitempty"`

	// FilePath records where the shader source lives on disk, when known.
	FilePath string `json:"file_path,omitempty"`

	// ID selects an existing snapshot for restore_snapshot.
	ID string `json:"id,omitempty"`

	// Uniforms carries raw per-name values for update_uniforms and the
	// render overrides of export actions. Raw messages preserve the
	// distinction between an absent key and an explicit null.
	Uniforms map[string]json.RawMessage `json:"uniforms,omitempty"`

	// Sequence export settings.
	Duration float64 `json:"duration,omitempty"`
	FPS      float64 `json:"fps,omitempty"`

	// Threshold tunes compare_baseline; nil means the default, an
	// explicit zero demands an exact match.
	Threshold *float64 `json:"threshold,omitempty"`

	// Limit caps list_snapshots results; zero means all.
	Limit int `json:"limit,omitempty"`

	// SubmittedAt is stamped by the server when the command is accepted.
	SubmittedAt time.Time `json:"submitted_at,omitempty"`
}

// StatusRecord describes the outcome of the most recently dispatched
// command. It is overwritten on every dispatch.
type StatusRecord struct {
	LastAction string         `json:"last_action"`
	Success    bool           `json:"success"`
	Error      string         `json:"error,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
	Data       map[string]any `json:"data,omitempty"`
}

// Request kinds on the wire.
const (
	KindSubmit = "submit"
	KindStatus = "status"
)

// Request is one newline-delimited JSON message from a client.
type Request struct {
	Kind    string   `json:"kind"`
	Command *Command `json:"command,omitempty"`
}

// Response answers one request. Status is set for status requests and for
// submit acknowledgements alike, reflecting the record current at reply
// time.
type Response struct {
	OK     bool          `json:"ok"`
	Error  string        `json:"error,omitempty"`
	Status *StatusRecord `json:"status,omitempty"`
}
