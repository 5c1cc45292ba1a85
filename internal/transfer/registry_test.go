package transfer

import (
	"fmt"
	"sync"
	"testing"
)

// TestStart verifies that new transfers get unique ids and start active with
// zero progress.
func TestStart(t *testing.T) {
	r := NewRegistry(0)

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		id := r.Start(fmt.Sprintf("file-%d.bin", i), 1024, "10.0.0.2")
		if id == "" {
			t.Fatal("Start() returned empty id")
		}
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}

	records := r.List()
	if len(records) != 50 {
		t.Fatalf("List() returned %d records, want 50", len(records))
	}
	for _, rec := range records {
		if rec.Status != StatusActive {
			t.Errorf("record %s status = %s, want active", rec.ID, rec.Status)
		}
		if rec.Sent != 0 {
			t.Errorf("record %s sent = %d, want 0", rec.ID, rec.Sent)
		}
	}
}

// TestUpdate verifies progress updates and that unknown ids are a no-op.
func TestUpdate(t *testing.T) {
	r := NewRegistry(0)
	id := r.Start("a.txt", 100, "peer")

	r.Update(id, 42)
	if got := r.List()[0].Sent; got != 42 {
		t.Fatalf("sent = %d, want 42", got)
	}

	// Must not panic or create a record.
	r.Update("no-such-id", 7)
	if len(r.List()) != 1 {
		t.Fatal("Update() with unknown id created a record")
	}
}

// TestPauseResume verifies the legal status transitions and the failure
// reporting for illegal ones.
func TestPauseResume(t *testing.T) {
	r := NewRegistry(0)
	id := r.Start("a.txt", 100, "peer")

	if r.IsPaused(id) {
		t.Fatal("new transfer reports paused")
	}

	if err := r.Resume(id); err != ErrUnknownTransfer {
		t.Fatalf("Resume() on active = %v, want ErrUnknownTransfer", err)
	}

	if err := r.Pause(id); err != nil {
		t.Fatalf("Pause() = %v", err)
	}
	if !r.IsPaused(id) {
		t.Fatal("transfer not paused after Pause()")
	}
	if err := r.Pause(id); err != ErrUnknownTransfer {
		t.Fatalf("second Pause() = %v, want ErrUnknownTransfer", err)
	}

	if err := r.Resume(id); err != nil {
		t.Fatalf("Resume() = %v", err)
	}
	if r.IsPaused(id) {
		t.Fatal("transfer still paused after Resume()")
	}

	if err := r.Pause("missing"); err != ErrUnknownTransfer {
		t.Fatalf("Pause(missing) = %v, want ErrUnknownTransfer", err)
	}
}

// TestCancel verifies that cancel forces the terminal state from any status
// and that the record then rejects pause and resume.
func TestCancel(t *testing.T) {
	tests := []struct {
		name  string
		setup func(r *Registry, id string)
	}{
		{name: "cancel while active", setup: func(r *Registry, id string) {}},
		{name: "cancel while paused", setup: func(r *Registry, id string) {
			if err := r.Pause(id); err != nil {
				t.Fatalf("Pause() = %v", err)
			}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry(0)
			id := r.Start("a.txt", 100, "peer")
			tt.setup(r, id)

			if err := r.Cancel(id); err != nil {
				t.Fatalf("Cancel() = %v", err)
			}
			if !r.IsDone(id) {
				t.Fatal("transfer not done after Cancel()")
			}
			if err := r.Pause(id); err != ErrUnknownTransfer {
				t.Fatalf("Pause() after cancel = %v, want ErrUnknownTransfer", err)
			}
			if err := r.Resume(id); err != ErrUnknownTransfer {
				t.Fatalf("Resume() after cancel = %v, want ErrUnknownTransfer", err)
			}
		})
	}

	if err := NewRegistry(0).Cancel("missing"); err != ErrUnknownTransfer {
		t.Fatalf("Cancel(missing) = %v, want ErrUnknownTransfer", err)
	}
}

// TestComplete verifies completion semantics: terminal state, sent pinned to
// size, and idempotence with cancel.
func TestComplete(t *testing.T) {
	r := NewRegistry(0)
	id := r.Start("a.txt", 100, "peer")
	r.Update(id, 60)

	r.Complete(id)

	rec := r.List()[0]
	if rec.Status != StatusDone {
		t.Fatalf("status = %s, want done", rec.Status)
	}
	if rec.Sent != 100 {
		t.Fatalf("sent = %d, want 100", rec.Sent)
	}

	// Cancel then complete must not fail or resurrect the record.
	id2 := r.Start("b.txt", 50, "peer")
	if err := r.Cancel(id2); err != nil {
		t.Fatalf("Cancel() = %v", err)
	}
	r.Complete(id2)
	if !r.IsDone(id2) {
		t.Fatal("transfer not done after Cancel()+Complete()")
	}
}

// TestRetention verifies that only the most recently started completed
// records survive pruning and active transfers are never evicted.
func TestRetention(t *testing.T) {
	r := NewRegistry(5)

	var ids []string
	for i := 0; i < 8; i++ {
		id := r.Start(fmt.Sprintf("f%d", i), 10, "peer")
		ids = append(ids, id)
		r.Complete(id)
	}
	active := r.Start("still-going", 10, "peer")

	records := r.List()
	if len(records) != 6 { // 5 done + 1 active
		t.Fatalf("List() returned %d records, want 6", len(records))
	}

	// The three oldest completed transfers must be gone.
	for _, id := range ids[:3] {
		for _, rec := range records {
			if rec.ID == id {
				t.Errorf("record %s survived pruning", id)
			}
		}
	}

	if r.IsDone(active) {
		t.Fatal("active transfer evicted or marked done")
	}
}

// TestConcurrentAccess exercises the registry from many goroutines; run with
// -race to verify the locking.
func TestConcurrentAccess(t *testing.T) {
	r := NewRegistry(0)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := r.Start("f", 1000, "peer")
			for n := int64(0); n < 100; n++ {
				r.Update(id, n)
				r.IsPaused(id)
				r.IsDone(id)
			}
			_ = r.Pause(id)
			_ = r.Resume(id)
			r.Complete(id)
		}()
	}
	wg.Wait()

	for _, rec := range r.List() {
		if rec.Status != StatusDone {
			t.Errorf("record %s status = %s, want done", rec.ID, rec.Status)
		}
	}
}
