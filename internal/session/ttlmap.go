package session

import (
	"sync"
	"time"
)

// TTLMap is a capacity- and time-bounded map keyed by string. Every entry
// carries a last-write stamp; an entry not written to for the configured TTL
// is treated as absent on all accessors, with actual removal happening lazily
// on access or through Sweep. Reads never extend an entry's lifetime; writes
// always reset it.
//
// When a new key is inserted at capacity, expired entries are dropped first
// and, if the map is still full, the entry with the stalest write wins
// eviction. Entries for live keys are never evicted by writes to other keys.
//
// All methods are safe for concurrent use. Closures passed to View, Mutate,
// Upsert and Range run while the map lock is held and must not block on I/O
// or call back into the map.
type TTLMap[V any] struct {
	mu      sync.Mutex
	ttl     time.Duration
	maxSize int
	now     func() time.Time
	entries map[string]*ttlEntry[V]
}

type ttlEntry[V any] struct {
	value     V
	lastWrite time.Time
}

// NewTTLMap returns a map bounded to maxSize entries with the given per-entry
// TTL. now is the clock used for stamps and expiry checks; pass nil for
// time.Now.
func NewTTLMap[V any](maxSize int, ttl time.Duration, now func() time.Time) *TTLMap[V] {
	if maxSize <= 0 {
		panic("session: ttlmap size must be positive")
	}
	if now == nil {
		now = time.Now
	}
	return &TTLMap[V]{
		ttl:     ttl,
		maxSize: maxSize,
		now:     now,
		entries: make(map[string]*ttlEntry[V], maxSize),
	}
}

func (m *TTLMap[V]) expired(e *ttlEntry[V], at time.Time) bool {
	return at.Sub(e.lastWrite) >= m.ttl
}

// live returns the entry for key, deleting and ignoring it if expired.
// Caller must hold m.mu.
func (m *TTLMap[V]) live(key string) *ttlEntry[V] {
	e, ok := m.entries[key]
	if !ok {
		return nil
	}
	if m.expired(e, m.now()) {
		delete(m.entries, key)
		return nil
	}
	return e
}

// Get returns the value for key. It does not refresh the entry's TTL.
func (m *TTLMap[V]) Get(key string) (V, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e := m.live(key); e != nil {
		return e.value, true
	}
	var zero V
	return zero, false
}

// View runs fn on the live value for key without refreshing its TTL.
// It returns false, without calling fn, when the key is absent or expired.
func (m *TTLMap[V]) View(key string, fn func(value V)) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := m.live(key)
	if e == nil {
		return false
	}
	fn(e.value)
	return true
}

// Set inserts or replaces the value for key and refreshes its TTL, evicting
// the stalest entry if a new key would exceed capacity.
func (m *TTLMap[V]) Set(key string, value V) {
	m.mu.Lock()
	defer m.mu.Unlock()

	at := m.now()
	if e, ok := m.entries[key]; ok && !m.expired(e, at) {
		e.value = value
		e.lastWrite = at
		return
	}
	m.insert(key, value, at)
}

// Mutate runs fn on the live value for key and refreshes its TTL. It returns
// false, without calling fn, when the key is absent or expired. The mutation
// runs under the map lock, so concurrent read-modify-write calls for one key
// never lose updates.
func (m *TTLMap[V]) Mutate(key string, fn func(value V)) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := m.live(key)
	if e == nil {
		return false
	}
	fn(e.value)
	e.lastWrite = m.now()
	return true
}

// Upsert mutates the live value for key, creating it with init first when
// absent or expired. The entry's TTL is refreshed either way.
func (m *TTLMap[V]) Upsert(key string, init func() V, fn func(value V)) {
	m.mu.Lock()
	defer m.mu.Unlock()

	at := m.now()
	e := m.live(key)
	if e == nil {
		e = m.insert(key, init(), at)
	} else {
		e.lastWrite = at
	}
	fn(e.value)
}

// Delete removes key and reports whether a live entry was removed.
func (m *TTLMap[V]) Delete(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := m.live(key)
	if e == nil {
		return false
	}
	delete(m.entries, key)
	return true
}

// Len counts live entries.
func (m *TTLMap[V]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	at := m.now()
	n := 0
	for _, e := range m.entries {
		if !m.expired(e, at) {
			n++
		}
	}
	return n
}

// Range calls fn for every live entry until fn returns false.
func (m *TTLMap[V]) Range(fn func(key string, value V) bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	at := m.now()
	for k, e := range m.entries {
		if m.expired(e, at) {
			continue
		}
		if !fn(k, e.value) {
			return
		}
	}
}

// Sweep removes expired entries eagerly and returns how many were removed.
// Correctness never depends on sweeping; accessors already treat expired
// entries as absent.
func (m *TTLMap[V]) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	at := m.now()
	removed := 0
	for k, e := range m.entries {
		if m.expired(e, at) {
			delete(m.entries, k)
			removed++
		}
	}
	return removed
}

// insert adds a new entry, making room first if needed. Caller must hold m.mu.
func (m *TTLMap[V]) insert(key string, value V, at time.Time) *ttlEntry[V] {
	if len(m.entries) >= m.maxSize {
		for k, e := range m.entries {
			if m.expired(e, at) {
				delete(m.entries, k)
			}
		}
	}
	if len(m.entries) >= m.maxSize {
		var oldestKey string
		var oldest time.Time
		first := true
		for k, e := range m.entries {
			if first || e.lastWrite.Before(oldest) {
				oldestKey, oldest = k, e.lastWrite
				first = false
			}
		}
		delete(m.entries, oldestKey)
	}
	e := &ttlEntry[V]{value: value, lastWrite: at}
	m.entries[key] = e
	return e
}
