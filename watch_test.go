package shaderbridge

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gogpu/shaderbridge/bridge"
)

func TestWatchFileQueuesOnSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "live.wgsl")
	if err := os.WriteFile(path, []byte("v1"), 0o644); err != nil {
		t.Fatal(err)
	}

	mailbox := bridge.NewMailbox()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = WatchFile(ctx, path, mailbox)
	}()

	// The initial load lands without any file event.
	cmd := takeWithin(t, mailbox, 2*time.Second)
	if cmd.Action != bridge.ActionSetShaderWithMeta || cmd.Source != "v1" {
		t.Fatalf("initial command = %+v", cmd)
	}
	if cmd.Name != "live.wgsl" || cmd.FilePath != path {
		t.Errorf("initial metadata = %q / %q", cmd.Name, cmd.FilePath)
	}

	if err := os.WriteFile(path, []byte("v2"), 0o644); err != nil {
		t.Fatal(err)
	}
	cmd = takeWithin(t, mailbox, 2*time.Second)
	if cmd.Source != "v2" {
		t.Errorf("after save, queued source = %q, want v2", cmd.Source)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Error("watcher did not stop on cancel")
	}
}

func TestWatchFileIgnoresSiblings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "live.wgsl")
	if err := os.WriteFile(path, []byte("v1"), 0o644); err != nil {
		t.Fatal(err)
	}

	mailbox := bridge.NewMailbox()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = WatchFile(ctx, path, mailbox) }()

	takeWithin(t, mailbox, 2*time.Second) // initial load

	if err := os.WriteFile(filepath.Join(dir, "other.wgsl"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(3 * watchDebounce)
	if cmd := mailbox.Take(); cmd != nil {
		t.Errorf("sibling file change queued %+v", cmd)
	}
}

func takeWithin(t *testing.T, m *bridge.Mailbox, d time.Duration) *bridge.Command {
	t.Helper()
	deadline := time.Now().Add(d)
	for {
		if cmd := m.Take(); cmd != nil {
			return cmd
		}
		if time.Now().After(deadline) {
			t.Fatal("no command queued in time")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
