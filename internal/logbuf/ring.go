package logbuf

import (
	"sync"
	"time"
)

// DefaultCapacity bounds the in-memory log buffer.
const DefaultCapacity = 2000

// Entry is one captured log record.
type Entry struct {
	Time    time.Time `json:"time"`
	Level   string    `json:"level"`
	Logger  string    `json:"logger,omitempty"`
	Message string    `json:"message"`
}

// Ring is a fixed-capacity log buffer. When full, appending drops the
// oldest entry.
type Ring struct {
	mu      sync.Mutex
	entries []Entry
	start   int
	count   int
}

func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Ring{entries: make([]Entry, capacity)}
}

func (r *Ring) Append(e Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.count < len(r.entries) {
		r.entries[(r.start+r.count)%len(r.entries)] = e
		r.count++
		return
	}
	r.entries[r.start] = e
	r.start = (r.start + 1) % len(r.entries)
}

// Recent returns up to n of the newest entries ordered oldest first.
// n <= 0 returns everything buffered.
func (r *Ring) Recent(n int) []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	if n <= 0 || n > r.count {
		n = r.count
	}
	out := make([]Entry, n)
	first := r.start + r.count - n
	for i := 0; i < n; i++ {
		out[i] = r.entries[(first+i)%len(r.entries)]
	}
	return out
}

func (r *Ring) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}
