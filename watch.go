package shaderbridge

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/gogpu/shaderbridge/bridge"
)

// watchDebounce coalesces the burst of write events editors emit when
// saving a file.
const watchDebounce = 150 * time.Millisecond

// WatchFile follows one shader file and submits a set_shader_with_meta
// command whenever its contents change, so saving in any editor reloads
// the live shader. Blocks until ctx is done.
func WatchFile(ctx context.Context, path string, mailbox *bridge.Mailbox) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("shaderbridge: create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	// Watch the directory, not the file: editors that replace-on-save
	// (rename over the original) would otherwise drop the watch.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("shaderbridge: watch %s: %w", path, err)
	}
	Logger().Info("shaderbridge: watching", "path", path)

	// Load once at startup so the engine starts with the file's shader.
	submitFile(path, mailbox)

	var timer *time.Timer
	var timerC <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(watchDebounce)
				timerC = timer.C
			} else {
				timer.Reset(watchDebounce)
			}
		case <-timerC:
			timer = nil
			timerC = nil
			submitFile(path, mailbox)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			Logger().Warn("shaderbridge: watch error", "err", err)
		}
	}
}

func submitFile(path string, mailbox *bridge.Mailbox) {
	data, err := os.ReadFile(path)
	if err != nil {
		Logger().Warn("shaderbridge: read watched file", "path", path, "err", err)
		return
	}
	name := filepath.Base(path)
	mailbox.Put(&bridge.Command{
		Action:      bridge.ActionSetShaderWithMeta,
		Source:      string(data),
		Name:        name,
		FilePath:    path,
		SubmittedAt: time.Now().UTC(),
	})
	Logger().Info("shaderbridge: watched file queued", "path", path)
}
