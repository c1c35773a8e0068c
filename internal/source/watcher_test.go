package source

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcherStartBlocksUntilStop(t *testing.T) {
	t.Parallel()

	w, err := NewWatcher(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}

	done := make(chan struct{})
	go func() {
		w.Start()
		close(done)
	}()

	// Start owns the watch loop; callers run it on its own goroutine.
	select {
	case <-done:
		t.Fatal("Start returned before Stop")
	case <-time.After(100 * time.Millisecond):
	}

	w.Stop()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Start did not return after Stop")
	}
}

func TestWatcherNotifiesOnCreate(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	changes := make(chan struct{}, 8)
	w, err := NewWatcher(root, func() {
		select {
		case changes <- struct{}{}:
		default:
		}
	})
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}

	go w.Start()
	defer w.Stop()

	// Give the loop a moment to begin draining events.
	time.Sleep(50 * time.Millisecond)

	if err := os.WriteFile(filepath.Join(root, "new.jpg"), []byte("x"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	select {
	case <-changes:
	case <-time.After(2 * time.Second):
		t.Fatal("no change notification for a created file")
	}
}
