package fakeadbd

import "sync"

// Recorder is an ordered, append-only log shared between the daemon's
// connection goroutines (producers) and the caller (consumer). Snapshot and
// Clear are safe to call while the daemon is serving.
type Recorder[T any] struct {
	mu      sync.Mutex
	entries []T
}

func (r *Recorder[T]) append(entry T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
}

// Snapshot returns a copy of the recorded entries in append order.
func (r *Recorder[T]) Snapshot() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]T, len(r.entries))
	copy(out, r.entries)
	return out
}

// Clear discards all recorded entries.
func (r *Recorder[T]) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = nil
}

// SyncRequest is one recorded sync sub-protocol request. For SEND, Path
// carries the destination and the decimal POSIX mode joined by a comma, e.g.
// "/data/local/tmp/test,33188", exactly as it appeared on the wire. QUIT is
// recorded with an empty Path.
type SyncRequest struct {
	Op   Tag
	Path string
}
