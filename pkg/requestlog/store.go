package requestlog

import (
	"strings"
	"sync"

	"github.com/getmockd/mockd-contract/internal/id"
)

// DefaultMaxEntries bounds a memory store created with a non-positive size.
const DefaultMaxEntries = 1000

// Logger records entries.
type Logger interface {
	Log(entry *Entry)
}

// Store is a queryable request history.
type Store interface {
	Logger

	// Get retrieves an entry by ID, or nil.
	Get(id string) *Entry

	// List returns entries newest first, optionally filtered.
	List(filter *Filter) []*Entry

	// Clear removes all entries.
	Clear()

	// Count returns the number of entries held.
	Count() int
}

// Filter narrows List results. Zero fields match everything.
type Filter struct {
	Method string

	// Path matches by prefix.
	Path string

	Operation string
	Source    string
	Status    int

	// Unmatched keeps only requests no operation matched.
	Unmatched bool

	Limit  int
	Offset int
}

func (f *Filter) match(e *Entry) bool {
	if f == nil {
		return true
	}
	switch {
	case f.Method != "" && !strings.EqualFold(f.Method, e.Method):
		return false
	case f.Path != "" && !strings.HasPrefix(e.Path, f.Path):
		return false
	case f.Operation != "" && f.Operation != e.Operation:
		return false
	case f.Source != "" && f.Source != e.Source:
		return false
	case f.Status != 0 && f.Status != e.Status:
		return false
	case f.Unmatched && e.Matched():
		return false
	}
	return true
}

// MemoryStore is a fixed-size ring of entries. Once full, the oldest entry is
// evicted for each new one.
type MemoryStore struct {
	mu      sync.RWMutex
	entries []*Entry
	next    int
	full    bool
}

// NewMemoryStore creates a store holding at most maxEntries.
func NewMemoryStore(maxEntries int) *MemoryStore {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &MemoryStore{entries: make([]*Entry, maxEntries)}
}

// Log stores entry, assigning an ID when it has none.
func (s *MemoryStore) Log(entry *Entry) {
	if entry == nil {
		return
	}
	if entry.ID == "" {
		entry.ID = "req_" + id.Short()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[s.next] = entry
	s.next = (s.next + 1) % len(s.entries)
	if s.next == 0 {
		s.full = true
	}
}

// Get retrieves an entry by ID.
func (s *MemoryStore) Get(id string) *Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.entries {
		if e != nil && e.ID == id {
			return e
		}
	}
	return nil
}

// List returns matching entries newest first.
func (s *MemoryStore) List(filter *Filter) []*Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := s.countLocked()
	out := make([]*Entry, 0, n)
	skipped := 0
	for i := 1; i <= n; i++ {
		e := s.entries[(s.next-i+len(s.entries))%len(s.entries)]
		if !filter.match(e) {
			continue
		}
		if filter != nil && skipped < filter.Offset {
			skipped++
			continue
		}
		out = append(out, e)
		if filter != nil && filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out
}

// Clear removes all entries.
func (s *MemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.entries)
	s.next = 0
	s.full = false
}

// Count returns the number of entries held.
func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.countLocked()
}

func (s *MemoryStore) countLocked() int {
	if s.full {
		return len(s.entries)
	}
	return s.next
}

var _ Store = (*MemoryStore)(nil)
