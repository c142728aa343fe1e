package jobs

import (
	"sync"

	"github.com/sevigo/constraint-warden/internal/core"
)

// historyCapacity bounds the attempt log kept for introspection.
const historyCapacity = 100

// History is a fixed-capacity circular buffer of job attempts. Once full,
// each new attempt evicts the oldest one.
type History struct {
	mu    sync.Mutex
	ring  []core.Attempt
	next  int
	count int
}

// NewHistory creates a History holding at most capacity attempts.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = 1
	}
	return &History{ring: make([]core.Attempt, capacity)}
}

// Record appends an attempt, evicting the oldest when at capacity.
func (h *History) Record(attempt core.Attempt) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.ring[h.next] = attempt
	h.next = (h.next + 1) % len(h.ring)
	if h.count < len(h.ring) {
		h.count++
	}
}

// Snapshot returns the recorded attempts, most recent first.
func (h *History) Snapshot() []core.Attempt {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]core.Attempt, 0, h.count)
	for i := 1; i <= h.count; i++ {
		idx := (h.next - i + len(h.ring)) % len(h.ring)
		out = append(out, h.ring[idx])
	}
	return out
}

// Len reports how many attempts are currently held.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.count
}
