// Package transfer tracks in-flight and recently-completed file transfers.
//
// The registry is the single synchronization point shared by streaming
// workers and the administrative pause/resume/cancel surface. One streamer
// owns each record's progress counter; any caller may flip its status. All
// operations take the registry lock for their full critical section and none
// of them performs I/O while holding it.
package transfer

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Status of a transfer record. Transitions are active→paused→active (any
// number of times) and active|paused→done; done is terminal.
type Status string

const (
	StatusActive Status = "active"
	StatusPaused Status = "paused"
	StatusDone   Status = "done"
)

// HistoryLimit is how many completed records are retained. Completion prunes
// the done bucket down to the most recently started entries; retention is
// purely count-based, never time-based.
const HistoryLimit = 20

// ErrUnknownTransfer is returned by control operations when the id is not in
// the registry or the record no longer accepts that operation.
var ErrUnknownTransfer = errors.New("transfer not found")

// Record is the tracked state of one streaming response.
type Record struct {
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	Size    int64     `json:"size"`
	Sent    int64     `json:"sent"`
	Status  Status    `json:"status"`
	Origin  string    `json:"origin"`
	Started time.Time `json:"started"`
}

// Registry is a concurrently-accessed table of transfer records.
type Registry struct {
	mu      sync.Mutex
	records map[string]*Record
	limit   int
}

// NewRegistry creates an empty registry retaining historyLimit completed
// records (HistoryLimit if <= 0).
func NewRegistry(historyLimit int) *Registry {
	if historyLimit <= 0 {
		historyLimit = HistoryLimit
	}
	return &Registry{
		records: make(map[string]*Record),
		limit:   historyLimit,
	}
}

// Start registers a new active transfer and returns its identifier.
func (r *Registry) Start(name string, size int64, origin string) string {
	id := uuid.NewString()[:8]

	r.mu.Lock()
	defer r.mu.Unlock()

	r.records[id] = &Record{
		ID:      id,
		Name:    name,
		Size:    size,
		Status:  StatusActive,
		Origin:  origin,
		Started: time.Now(),
	}
	return id
}

// Update overwrites the cumulative bytes sent for a transfer. Unknown ids
// are a no-op: the record may have been pruned while its streamer was still
// running.
func (r *Registry) Update(id string, sent int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if rec, ok := r.records[id]; ok {
		rec.Sent = sent
	}
}

// IsPaused reports whether the transfer is currently paused. This is the
// streamer's polling hook.
func (r *Registry) IsPaused(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[id]
	return ok && rec.Status == StatusPaused
}

// IsDone reports whether the transfer has reached its terminal state. The
// streamer checks this alongside IsPaused so a cancel stops the loop at the
// next checkpoint instead of after the next full chunk.
func (r *Registry) IsDone(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[id]
	return !ok || rec.Status == StatusDone
}

// Pause transitions an active transfer to paused. Any other state, or an
// unknown id, reports ErrUnknownTransfer.
func (r *Registry) Pause(id string) error {
	return r.transition(id, StatusActive, StatusPaused)
}

// Resume transitions a paused transfer back to active.
func (r *Registry) Resume(id string) error {
	return r.transition(id, StatusPaused, StatusActive)
}

func (r *Registry) transition(id string, from, to Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[id]
	if !ok || rec.Status != from {
		return ErrUnknownTransfer
	}
	rec.Status = to
	return nil
}

// Cancel forces a transfer to done regardless of its current state. The
// owning streamer observes the terminal state at its next checkpoint and
// stops. Returns ErrUnknownTransfer only when the id is not present at all.
func (r *Registry) Cancel(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[id]
	if !ok {
		return ErrUnknownTransfer
	}
	rec.Status = StatusDone
	return nil
}

// Complete marks a transfer done with its full size sent, then prunes the
// done bucket down to the retention limit, evicting the oldest records by
// start time. Idempotent: a cancel may already have marked the record done.
func (r *Registry) Complete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if rec, ok := r.records[id]; ok {
		rec.Status = StatusDone
		rec.Sent = rec.Size
	}

	done := make([]*Record, 0, len(r.records))
	for _, rec := range r.records {
		if rec.Status == StatusDone {
			done = append(done, rec)
		}
	}
	if len(done) <= r.limit {
		return
	}

	sort.Slice(done, func(i, j int) bool {
		return done[i].Started.After(done[j].Started)
	})
	for _, rec := range done[r.limit:] {
		delete(r.records, rec.ID)
	}
}

// List returns a snapshot of all records, most recently started first.
func (r *Registry) List() []Record {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Record, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, *rec)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Started.After(out[j].Started)
	})
	return out
}
