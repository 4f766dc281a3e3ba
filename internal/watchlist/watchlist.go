// internal/watchlist/watchlist.go

// Package watchlist keeps the user's tracked instruments, persisted as
// a single JSON document. Mutations write through immediately; a write
// failure never loses the in-memory list.
package watchlist

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/marketdeck/marketdeck/internal/core"
	"github.com/marketdeck/marketdeck/internal/metrics"
	"github.com/marketdeck/marketdeck/internal/storage/document"
)

// schemaVersion is written into every saved document so future layout
// changes can migrate old files.
const schemaVersion = 1

// Entry is one tracked instrument.
type Entry struct {
	Symbol  string    `json:"symbol"`
	Name    string    `json:"name,omitempty"`
	Sector  string    `json:"sector,omitempty"`
	AddedAt time.Time `json:"added_at"`
}

// doc is the persisted document layout.
type doc struct {
	SchemaVersion int     `json:"schema_version"`
	Items         []Entry `json:"items"`
}

// Store holds the watchlist and writes it through to a document
// backend on every mutation.
type Store struct {
	mu       sync.RWMutex
	items    []Entry
	docs     document.Store
	name     string
	logger   *zap.Logger
	metrics  *metrics.Registry
	onChange func([]Entry)
	now      func() time.Time
}

// New creates a store backed by the named document and loads any
// existing list. Loading never fails: a missing or corrupt document
// logs a warning and starts empty.
func New(docs document.Store, name string, logger *zap.Logger, reg *metrics.Registry) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{
		items:   []Entry{},
		docs:    docs,
		name:    name,
		logger:  logger,
		metrics: reg,
		now:     time.Now,
	}
	s.load()
	s.metrics.SetWatchlistSize(len(s.items))
	return s
}

func (s *Store) load() {
	var d doc
	err := document.LoadJSON(context.Background(), s.docs, s.name, &d)
	switch {
	case err == nil:
		if d.SchemaVersion > schemaVersion {
			s.logger.Warn("watchlist written by a newer version",
				zap.Int("schema_version", d.SchemaVersion))
		}
		if d.Items != nil {
			s.items = d.Items
		}
	case errors.Is(err, core.ErrDocumentNotFound):
		// First run, nothing saved yet.
	default:
		s.logger.Warn("could not load watchlist, starting empty",
			zap.String("document", s.name),
			zap.Error(err))
	}
}

// OnChange registers a hook invoked with a copy of the list after
// every mutation. Used to mirror the watchlist into the local store.
func (s *Store) OnChange(fn func([]Entry)) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// Items returns a copy of the list in insertion order.
func (s *Store) Items() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.copyItems()
}

// Len returns the number of tracked instruments.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Contains reports whether a symbol is tracked.
func (s *Store) Contains(symbol string) bool {
	symbol = canonical(symbol)
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, it := range s.items {
		if it.Symbol == symbol {
			return true
		}
	}
	return false
}

// Add appends an instrument unless its symbol is already tracked.
// It reports whether the list changed.
func (s *Store) Add(e Entry) bool {
	e.Symbol = canonical(e.Symbol)
	if e.Symbol == "" {
		return false
	}

	s.mu.Lock()
	for _, it := range s.items {
		if it.Symbol == e.Symbol {
			s.mu.Unlock()
			return false
		}
	}
	if e.AddedAt.IsZero() {
		e.AddedAt = s.now()
	}
	s.items = append(s.items, e)
	items, hook := s.copyItems(), s.onChange
	s.mu.Unlock()

	s.flush(items, hook)
	return true
}

// Remove drops a symbol. It reports whether the list changed; removing
// an absent symbol is a no-op.
func (s *Store) Remove(symbol string) bool {
	symbol = canonical(symbol)

	s.mu.Lock()
	for i, it := range s.items {
		if it.Symbol == symbol {
			s.items = append(s.items[:i], s.items[i+1:]...)
			items, hook := s.copyItems(), s.onChange
			s.mu.Unlock()

			s.flush(items, hook)
			return true
		}
	}
	s.mu.Unlock()
	return false
}

// Clear empties the list.
func (s *Store) Clear() {
	s.mu.Lock()
	if len(s.items) == 0 {
		s.mu.Unlock()
		return
	}
	s.items = []Entry{}
	hook := s.onChange
	s.mu.Unlock()

	s.flush([]Entry{}, hook)
}

// Search returns entries whose symbol, name or sector contains the
// query, case-insensitively, preserving insertion order. An empty
// query returns the whole list.
func (s *Store) Search(query string) []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return s.copyItems()
	}

	var out []Entry
	for _, it := range s.items {
		if strings.Contains(strings.ToLower(it.Symbol), query) ||
			strings.Contains(strings.ToLower(it.Name), query) ||
			strings.Contains(strings.ToLower(it.Sector), query) {
			out = append(out, it)
		}
	}
	return out
}

// flush persists the list and fires the change hook. Persist failures
// are logged and swallowed so a broken disk never blocks edits.
func (s *Store) flush(items []Entry, hook func([]Entry)) {
	d := doc{SchemaVersion: schemaVersion, Items: items}
	if err := document.SaveJSON(context.Background(), s.docs, s.name, d); err != nil {
		s.logger.Error("could not persist watchlist",
			zap.String("document", s.name),
			zap.Error(err))
	}

	s.metrics.SetWatchlistSize(len(items))
	if hook != nil {
		hook(items)
	}
}

func (s *Store) copyItems() []Entry {
	out := make([]Entry, len(s.items))
	copy(out, s.items)
	return out
}

// canonical upper-cases symbols so identity checks ignore case.
func canonical(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
