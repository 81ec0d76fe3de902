package audit

import (
	"context"
	"sync"
)

// MemoryRecorder keeps audit entries in memory. Used by tests and by the
// one-shot CLI, where history does not outlive the process.
type MemoryRecorder struct {
	mu      sync.Mutex
	entries []Entry
}

// NewMemoryRecorder creates an empty in-memory recorder.
func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{}
}

// Record stores the entry.
func (r *MemoryRecorder) Record(ctx context.Context, e Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
	return nil
}

// List returns the body's entries newest first.
func (r *MemoryRecorder) List(ctx context.Context, body uint64, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Entry
	for i := len(r.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if r.entries[i].Body == body {
			out = append(out, r.entries[i])
		}
	}
	return out, nil
}

// Close does nothing.
func (r *MemoryRecorder) Close(ctx context.Context) error { return nil }

var _ Recorder = (*MemoryRecorder)(nil)
