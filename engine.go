// Package shaderbridge connects shader editing tools to a GPU renderer
// through an asynchronous command bridge. Editors submit commands over a
// local socket; the engine compiles shader source, renders deterministic
// frames, persists session snapshots, and compares renders against
// recorded baselines.
package shaderbridge

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gogpu/shaderbridge/baseline"
	"github.com/gogpu/shaderbridge/bridge"
	"github.com/gogpu/shaderbridge/compiler"
	"github.com/gogpu/shaderbridge/params"
	"github.com/gogpu/shaderbridge/render"
	"github.com/gogpu/shaderbridge/session"
	"github.com/gogpu/shaderbridge/shader"
)

// Engine owns the single live shader state and executes bridge commands
// against it. All command handling runs on the dispatcher goroutine, so
// the engine never sees two commands at once. Hosts calling Handle
// directly must provide their own serialization.
type Engine struct {
	cfg      *Config
	adapter  *compiler.Adapter
	renderer render.FrameRenderer

	sessions  *session.Store
	baselines *baseline.Registry
	artifacts *render.ArtifactWriter

	state     *shader.State
	pipeline  *compiler.Pipeline
	overrides render.Overrides
	activeTab string
}

var _ bridge.Handler = (*Engine)(nil)

// NewEngine builds an engine around a frame renderer. The renderer is
// injected so hosts can share a GPU device and tests can substitute a
// deterministic fake.
func NewEngine(cfg *Config, renderer render.FrameRenderer) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	} else {
		cfg.defaults()
	}
	if renderer == nil {
		return nil, fmt.Errorf("shaderbridge: nil renderer")
	}

	sessions, err := session.NewStore(cfg.SessionDir)
	if err != nil {
		return nil, err
	}
	baselines, err := baseline.NewRegistry(cfg.BaselineDir)
	if err != nil {
		return nil, err
	}

	return &Engine{
		cfg:       cfg,
		adapter:   compiler.New(),
		renderer:  renderer,
		sessions:  sessions,
		baselines: baselines,
		artifacts: &render.ArtifactWriter{Dir: cfg.OutputDir},
		state:     &shader.State{},
	}, nil
}

// State returns a deep copy of the current shader state.
func (e *Engine) State() *shader.State { return e.state.Clone() }

// Close releases the renderer.
func (e *Engine) Close() error { return e.renderer.Close() }

// Handle executes one bridge command. Result data lands in the status
// record; a non-nil error marks the command failed.
func (e *Engine) Handle(ctx context.Context, cmd *bridge.Command) (map[string]any, error) {
	switch cmd.Action {
	case bridge.ActionSetShader:
		return e.setShader(cmd.Source, nil)
	case bridge.ActionSetShaderWithMeta:
		return e.setShader(cmd.Source, &shader.Metadata{
			Name:        cmd.Name,
			Description: cmd.Description,
			FilePath:    cmd.FilePath,
		})
	case bridge.ActionGetShaderMeta:
		return e.shaderMeta(), nil
	case bridge.ActionUpdateUniforms:
		return e.updateUniforms(cmd.Uniforms)
	case bridge.ActionSaveSnapshot:
		return e.saveSnapshot(cmd.Name, cmd.Notes)
	case bridge.ActionListSnapshots:
		return e.listSnapshots(cmd.Limit)
	case bridge.ActionRestoreSnapshot:
		return e.restoreSnapshot(cmd.ID)
	case bridge.ActionExportFrame:
		return e.exportFrame(cmd.Description, cmd.Uniforms)
	case bridge.ActionExportSequence:
		return e.exportSequence(ctx, cmd.Description, cmd.Duration, cmd.FPS, cmd.Uniforms)
	case bridge.ActionSetBaseline:
		return e.setBaseline(cmd.Name)
	case bridge.ActionCompareBaseline:
		return e.compareBaseline(cmd.Name, cmd.Threshold)
	case bridge.ActionListLibrary:
		return e.listLibrary()
	case bridge.ActionSetTab:
		e.activeTab = cmd.Name
		return map[string]any{"tab": e.activeTab}, nil
	default:
		return nil, bridge.ErrUnknownAction(cmd.Action)
	}
}

// setShader compiles new source and, on success, swaps it in as the live
// shader. Extracted parameters keep their edited values and ranges across
// recompiles. On failure the previous shader stays live and the
// diagnostics land in the status data and the diagnostics file.
func (e *Engine) setShader(source string, meta *shader.Metadata) (map[string]any, error) {
	if strings.TrimSpace(source) == "" {
		return nil, fmt.Errorf("shaderbridge: empty shader source")
	}

	pipeline, diags := e.adapter.Compile(source)
	e.writeDiagnostics(diags)
	if pipeline == nil {
		e.state.LastError = diags[0].Message
		return map[string]any{"diagnostics": diags}, fmt.Errorf(
			"shaderbridge: compile failed: %s", diags[0].Message)
	}

	extracted := params.Extract(source)
	merged := params.Merge(e.state.Parameters, extracted)

	e.state.Source = source
	e.state.Compiled = true
	e.state.LastError = ""
	e.state.Parameters = merged
	if meta != nil {
		e.state.Metadata = *meta
	}
	e.pipeline = pipeline

	data := map[string]any{
		"pipeline_hash": pipeline.Hash,
		"parameters":    len(merged),
	}
	if len(diags) > 0 {
		data["diagnostics"] = diags
	}
	return data, nil
}

func (e *Engine) shaderMeta() map[string]any {
	return map[string]any{
		"name":        e.state.Metadata.Name,
		"description": e.state.Metadata.Description,
		"file_path":   e.state.Metadata.FilePath,
		"compiled":    e.state.Compiled,
		"last_error":  e.state.LastError,
		"parameters":  e.state.Parameters,
		"tab":         e.activeTab,
	}
}

// updateUniforms folds raw values into the live overrides and into any
// matching extracted parameters. Absent names are untouched; explicit
// nulls clear.
func (e *Engine) updateUniforms(values map[string]json.RawMessage) (map[string]any, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("shaderbridge: update_uniforms without values")
	}
	if err := e.overrides.ApplyJSON(values); err != nil {
		return nil, err
	}

	if e.state.Uniforms == nil {
		e.state.Uniforms = make(map[string]any)
	}
	for name, vals := range e.overrides.Custom {
		e.state.Uniforms[name] = vals
		if p := e.state.Param(name); p != nil && len(vals) == len(p.Value) {
			copy(p.Value, vals)
		}
	}
	for name, raw := range values {
		if string(raw) == "null" {
			delete(e.state.Uniforms, name)
		}
	}
	return map[string]any{"uniforms": len(e.state.Uniforms)}, nil
}

func (e *Engine) saveSnapshot(name, notes string) (map[string]any, error) {
	hash := ""
	if e.pipeline != nil {
		hash = e.pipeline.Hash
	}

	// The preview frame is best effort: an uncompiled shader still
	// snapshots, just without an image.
	var frame *image.RGBA
	if img, _, err := e.renderWithOverrides(nil); err == nil {
		frame = img
	}

	snap, err := e.sessions.Save(name, notes, e.state, hash, frame)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"id":         snap.ID,
		"name":       snap.Name,
		"frame_path": snap.FramePath,
	}, nil
}

func (e *Engine) listSnapshots(limit int) (map[string]any, error) {
	snaps, err := e.sessions.List(limit)
	if err != nil {
		return nil, err
	}
	entries := make([]map[string]any, 0, len(snaps))
	for _, s := range snaps {
		entries = append(entries, map[string]any{
			"id":         s.ID,
			"name":       s.Name,
			"created_at": s.CreatedAt,
			"shader":     s.Shader.Metadata.Name,
		})
	}
	return map[string]any{"snapshots": entries}, nil
}

// restoreSnapshot swaps the saved state back in and recompiles its source
// so the live pipeline matches. A snapshot whose source no longer
// compiles fails the restore and leaves the current state untouched.
func (e *Engine) restoreSnapshot(id string) (map[string]any, error) {
	if id == "" {
		return nil, fmt.Errorf("shaderbridge: restore_snapshot without id")
	}
	snap, err := e.sessions.Get(id)
	if err != nil {
		return nil, err
	}

	var pipeline *compiler.Pipeline
	if snap.Shader.Source != "" {
		var diags []compiler.Diagnostic
		pipeline, diags = e.adapter.Compile(snap.Shader.Source)
		e.writeDiagnostics(diags)
		if pipeline == nil {
			return map[string]any{"diagnostics": diags}, fmt.Errorf(
				"shaderbridge: snapshot %s no longer compiles: %s", id, diags[0].Message)
		}
	}

	restored := snap.Shader.Clone()
	restored.Compiled = pipeline != nil
	restored.LastError = ""
	e.state = restored
	e.pipeline = pipeline
	e.overrides = render.Overrides{}

	data := map[string]any{"id": snap.ID, "name": snap.Name}
	if pipeline != nil {
		data["pipeline_hash"] = pipeline.Hash
		if snap.PipelineHash != "" && snap.PipelineHash != pipeline.Hash {
			data["pipeline_changed"] = true
		}
	}
	return data, nil
}

func (e *Engine) exportFrame(description string, uniforms map[string]json.RawMessage) (map[string]any, error) {
	img, in, err := e.renderWithOverrides(uniforms)
	if err != nil {
		return nil, err
	}
	path, err := e.artifacts.WriteFrame(img, description, in.Time)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"path":       path,
		"resolution": fmt.Sprintf("%dx%d", in.Width, in.Height),
		"time":       in.Time,
	}, nil
}

func (e *Engine) exportSequence(ctx context.Context, description string, duration, fps float64, uniforms map[string]json.RawMessage) (map[string]any, error) {
	spec := render.SequenceSpec{Duration: duration, FPS: fps}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if e.pipeline == nil {
		return nil, render.ErrNoPipeline
	}

	base, err := e.resolveInputs(uniforms)
	if err != nil {
		return nil, err
	}
	if description == "" {
		description = "sequence"
	}

	var paths []string
	n, err := render.Sequence(ctx, e.renderer, e.pipeline, base, spec,
		func(i int, t float64, img *image.RGBA) error {
			path, werr := e.artifacts.WriteFrame(img,
				fmt.Sprintf("%s_%04d", description, i), t)
			if werr != nil {
				return werr
			}
			paths = append(paths, path)
			return nil
		})
	data := map[string]any{"frames": n, "paths": paths}
	if err != nil {
		// Frames written before the failure stay on disk.
		return data, err
	}
	return data, nil
}

func (e *Engine) setBaseline(name string) (map[string]any, error) {
	img, _, err := e.renderWithOverrides(nil)
	if err != nil {
		return nil, err
	}
	if err := e.baselines.Set(name, img); err != nil {
		return nil, err
	}
	return map[string]any{"name": name}, nil
}

func (e *Engine) compareBaseline(name string, threshold *float64) (map[string]any, error) {
	img, _, err := e.renderWithOverrides(nil)
	if err != nil {
		return nil, err
	}
	t := -1.0
	if threshold != nil {
		t = *threshold
	}
	res, err := e.baselines.Compare(name, img, t)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"pass":        res.Pass,
		"diff_pixels": res.DiffPixels,
		"diff_ratio":  res.DiffRatio,
		"threshold":   res.Threshold,
		"diff_image":  res.DiffImagePath,
	}, nil
}

// listLibrary surfaces the reusable shader files under the configured
// library directory.
func (e *Engine) listLibrary() (map[string]any, error) {
	if e.cfg.LibraryDir == "" {
		return map[string]any{"entries": []map[string]any{}}, nil
	}
	dirEntries, err := os.ReadDir(e.cfg.LibraryDir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]any{"entries": []map[string]any{}}, nil
		}
		return nil, fmt.Errorf("shaderbridge: read library dir: %w", err)
	}

	var entries []map[string]any
	for _, de := range dirEntries {
		name := de.Name()
		if de.IsDir() || !strings.HasSuffix(name, ".wgsl") {
			continue
		}
		entries = append(entries, map[string]any{
			"name": strings.TrimSuffix(name, ".wgsl"),
			"path": filepath.Join(e.cfg.LibraryDir, name),
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i]["name"].(string) < entries[j]["name"].(string)
	})
	return map[string]any{"entries": entries}, nil
}

// renderWithOverrides renders one frame with per-command values layered
// over the live overrides.
func (e *Engine) renderWithOverrides(uniforms map[string]json.RawMessage) (*image.RGBA, render.Inputs, error) {
	if e.pipeline == nil {
		return nil, render.Inputs{}, render.ErrNoPipeline
	}
	in, err := e.resolveInputs(uniforms)
	if err != nil {
		return nil, render.Inputs{}, err
	}
	img, err := e.renderer.RenderFrame(e.pipeline, in)
	if err != nil {
		return nil, render.Inputs{}, err
	}
	return img, in, nil
}

func (e *Engine) resolveInputs(uniforms map[string]json.RawMessage) (render.Inputs, error) {
	o := e.overrides.Clone()
	if len(uniforms) > 0 {
		if err := o.ApplyJSON(uniforms); err != nil {
			return render.Inputs{}, err
		}
	}
	defaults := render.Inputs{
		Width:  e.cfg.Render.Width,
		Height: e.cfg.Render.Height,
	}
	return render.Resolve(defaults, e.state.Parameters, o), nil
}

// writeDiagnostics rewrites the diagnostics file after a compile. A clean
// compile writes an empty list so stale errors disappear from editors.
func (e *Engine) writeDiagnostics(diags []compiler.Diagnostic) {
	if e.cfg.DiagnosticsPath == "" {
		return
	}
	if diags == nil {
		diags = []compiler.Diagnostic{}
	}
	data, err := json.MarshalIndent(diags, "", "  ")
	if err != nil {
		return
	}
	if err := os.MkdirAll(filepath.Dir(e.cfg.DiagnosticsPath), 0o755); err != nil {
		Logger().Warn("shaderbridge: diagnostics dir", "err", err)
		return
	}
	if err := os.WriteFile(e.cfg.DiagnosticsPath, data, 0o644); err != nil {
		Logger().Warn("shaderbridge: write diagnostics", "err", err)
	}
}
