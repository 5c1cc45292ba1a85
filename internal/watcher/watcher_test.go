package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDetectsNewFile(t *testing.T) {
	dir := t.TempDir()

	changed := make(chan string, 1)
	w, err := New(20*time.Millisecond, func(path string) {
		select {
		case changed <- path:
		default:
		}
	})
	if err != nil {
		t.Fatalf("New() = %v", err)
	}
	if err := w.Watch(dir); err != nil {
		t.Fatalf("Watch() = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	if err := os.WriteFile(filepath.Join(dir, "incoming.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Fatal("no change notification for new file")
	}
}

func TestDebounceCollapsesBurst(t *testing.T) {
	dir := t.TempDir()

	notifications := make(chan string, 16)
	w, err := New(100*time.Millisecond, func(path string) {
		notifications <- path
	})
	if err != nil {
		t.Fatalf("New() = %v", err)
	}
	if err := w.Watch(dir); err != nil {
		t.Fatalf("Watch() = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	for i := 0; i < 10; i++ {
		name := filepath.Join(dir, "burst"+string(rune('0'+i))+".txt")
		if err := os.WriteFile(name, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	select {
	case <-notifications:
	case <-time.After(5 * time.Second):
		t.Fatal("no notification for burst")
	}

	// The burst should have collapsed; allow the debounce window to drain
	// and verify no flood followed.
	time.Sleep(300 * time.Millisecond)
	if extra := len(notifications); extra > 2 {
		t.Fatalf("burst produced %d extra notifications, want at most 2", extra)
	}
}

func TestWatchReplacesTree(t *testing.T) {
	first := t.TempDir()
	second := t.TempDir()

	changed := make(chan string, 16)
	w, err := New(20*time.Millisecond, func(path string) {
		changed <- path
	})
	if err != nil {
		t.Fatalf("New() = %v", err)
	}
	if err := w.Watch(first); err != nil {
		t.Fatalf("Watch(first) = %v", err)
	}
	if err := w.Watch(second); err != nil {
		t.Fatalf("Watch(second) = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	if err := os.WriteFile(filepath.Join(second, "b.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case path := <-changed:
		if filepath.Dir(path) != second {
			t.Fatalf("notification from %s, want tree under %s", path, second)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no notification after re-watching")
	}
}
