package session

// Ring is a fixed-capacity FIFO of strings. Appending to a full ring evicts
// the oldest element. The zero value is not usable; use NewRing.
type Ring struct {
	buf   []string
	start int
	size  int
}

// NewRing returns a ring holding at most capacity elements. Capacity must be
// positive.
func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		panic("session: ring capacity must be positive")
	}
	return &Ring{buf: make([]string, capacity)}
}

// Append adds v as the newest element, evicting the oldest when full.
func (r *Ring) Append(v string) {
	if r.size == len(r.buf) {
		r.buf[r.start] = v
		r.start = (r.start + 1) % len(r.buf)
		return
	}
	r.buf[(r.start+r.size)%len(r.buf)] = v
	r.size++
}

// Contains reports whether v is currently held.
func (r *Ring) Contains(v string) bool {
	for i := 0; i < r.size; i++ {
		if r.buf[(r.start+i)%len(r.buf)] == v {
			return true
		}
	}
	return false
}

// Items returns a copy of the contents, oldest first.
func (r *Ring) Items() []string {
	out := make([]string, r.size)
	for i := 0; i < r.size; i++ {
		out[i] = r.buf[(r.start+i)%len(r.buf)]
	}
	return out
}

// Len returns the number of elements currently held.
func (r *Ring) Len() int { return r.size }

// Cap returns the fixed capacity.
func (r *Ring) Cap() int { return len(r.buf) }
