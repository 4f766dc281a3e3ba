// internal/mirror/store.go

// Package mirror holds the local copy of remote dashboard data: one
// entry per resource key with its freshness status, last update time
// and the error behind any degradation. It is the single source of
// truth the render layer reads.
package mirror

import (
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/marketdeck/marketdeck/internal/core"
)

// Status represents entry freshness.
type Status string

const (
	StatusIdle     Status = "idle"
	StatusLoading  Status = "loading"
	StatusReady    Status = "ready"
	StatusDegraded Status = "degraded"
	StatusFailed   Status = "failed"
)

// Entry is the mirrored state for one resource key.
//
// Invariants: Ready implies a value and no error. Degraded implies a
// synthetic value plus the error that forced the substitution. Failed
// keeps the last known-good value (stale but shown) with the error
// recorded; LastUpdated still names the time that value arrived.
type Entry struct {
	Key         core.Key
	Value       any
	Status      Status
	LastUpdated time.Time
	Err         error
}

// HasValue reports whether the entry carries something renderable.
func (e Entry) HasValue() bool {
	return e.Value != nil
}

// Listener observes entry updates. Listeners run synchronously after
// each mutation, outside the store lock.
type Listener func(Entry)

// Store is the concurrency-safe entry map plus its listeners.
type Store struct {
	mu        sync.RWMutex
	entries   map[core.Key]*Entry
	listeners map[core.Key]map[int]Listener
	global    map[int]Listener
	nextID    int
	now       func() time.Time
	log       *zap.Logger
}

// NewStore creates an empty mirror.
func NewStore(log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		entries:   make(map[core.Key]*Entry),
		listeners: make(map[core.Key]map[int]Listener),
		global:    make(map[int]Listener),
		now:       time.Now,
		log:       log,
	}
}

// Get returns a snapshot of the entry. Reading a key that was never
// fetched is not an error: it yields an Idle entry with no value.
func (s *Store) Get(key core.Key) Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if e, ok := s.entries[key]; ok {
		return *e
	}
	return Entry{Key: key, Status: StatusIdle}
}

// Update is the only mutation path. fn receives the current entry
// (an Idle one for new keys) and edits it in place. Listeners for the
// key observe the result after the lock is released.
func (s *Store) Update(key core.Key, fn func(*Entry)) Entry {
	s.mu.Lock()
	e, ok := s.entries[key]
	if !ok {
		e = &Entry{Key: key, Status: StatusIdle}
		s.entries[key] = e
	}
	fn(e)
	e.Key = key
	snapshot := *e
	targets := s.collectListeners(key)
	s.mu.Unlock()

	s.notify(targets, snapshot)
	return snapshot
}

// SetReady records a successful fetch.
func (s *Store) SetReady(key core.Key, value any) Entry {
	return s.Update(key, func(e *Entry) {
		e.Value = value
		e.Status = StatusReady
		e.LastUpdated = s.now()
		e.Err = nil
	})
}

// SetDegraded records a failed fetch papered over with synthetic data.
func (s *Store) SetDegraded(key core.Key, value any, err error) Entry {
	return s.Update(key, func(e *Entry) {
		e.Value = value
		e.Status = StatusDegraded
		e.LastUpdated = s.now()
		e.Err = err
	})
}

// SetFailed records a failed fetch with nothing to substitute. The
// previous value and its LastUpdated stay visible.
func (s *Store) SetFailed(key core.Key, err error) Entry {
	return s.Update(key, func(e *Entry) {
		e.Status = StatusFailed
		e.Err = err
	})
}

// MarkLoading flags a first fetch in progress. Entries that already
// hold a value keep their status so refreshes do not blank the view.
func (s *Store) MarkLoading(key core.Key) Entry {
	return s.Update(key, func(e *Entry) {
		if e.Value == nil {
			e.Status = StatusLoading
		}
	})
}

// Subscribe registers a listener for one key and returns its
// unsubscribe function.
func (s *Store) Subscribe(key core.Key, l Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := s.nextID
	if s.listeners[key] == nil {
		s.listeners[key] = make(map[int]Listener)
	}
	s.listeners[key][id] = l

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if m, ok := s.listeners[key]; ok {
			delete(m, id)
			if len(m) == 0 {
				delete(s.listeners, key)
			}
		}
	}
}

// SubscribeAll registers a listener for every key, for whole-screen
// renderers.
func (s *Store) SubscribeAll(l Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := s.nextID
	s.global[id] = l

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.global, id)
	}
}

// Snapshot returns every entry, ordered by key for stable rendering.
func (s *Store) Snapshot() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Key.String() < out[j].Key.String()
	})
	return out
}

// Len returns the number of entries held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Evict drops an entry. Subsequent Gets see an Idle entry again.
func (s *Store) Evict(key core.Key) {
	s.mu.Lock()
	_, existed := s.entries[key]
	delete(s.entries, key)
	targets := s.collectListeners(key)
	s.mu.Unlock()

	if existed {
		s.notify(targets, Entry{Key: key, Status: StatusIdle})
	}
}

// collectListeners copies the listener set for a key. Caller holds the lock.
func (s *Store) collectListeners(key core.Key) []Listener {
	out := make([]Listener, 0, len(s.listeners[key])+len(s.global))
	for _, l := range s.listeners[key] {
		out = append(out, l)
	}
	for _, l := range s.global {
		out = append(out, l)
	}
	return out
}

// notify runs listeners synchronously. A panicking listener is logged
// and skipped so it cannot corrupt store state or starve its peers.
func (s *Store) notify(targets []Listener, e Entry) {
	for _, l := range targets {
		func() {
			defer func() {
				if r := recover(); r != nil {
					s.log.Warn("mirror listener panicked",
						zap.String("key", e.Key.String()),
						zap.Any("panic", r))
				}
			}()
			l(e)
		}()
	}
}
