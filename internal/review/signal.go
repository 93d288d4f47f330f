package review

import "sync"

// RecorderSignal is a set-once, consume-once flag one surface raises to tell
// another to open the voice recorder (e.g. a home-screen widget signaling the
// record screen). Consuming the signal clears it, so a re-read after handling
// never re-triggers recording.
type RecorderSignal struct {
	mu      sync.Mutex
	pending map[string]bool
}

// NewRecorderSignal creates an empty signal registry.
func NewRecorderSignal() *RecorderSignal {
	return &RecorderSignal{pending: make(map[string]bool)}
}

// Raise marks the recorder as requested for the user. Raising an
// already-raised signal is a no-op.
func (r *RecorderSignal) Raise(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending[userID] = true
}

// Consume reports whether the signal was raised and clears it in the same
// step.
func (r *RecorderSignal) Consume(userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	raised := r.pending[userID]
	delete(r.pending, userID)
	return raised
}
