package playlist

import (
	"sync"

	"gallery-player/internal/logging"
	"gallery-player/internal/media"
	"gallery-player/internal/metrics"
)

// Store owns the ordered item list, the current index, and a monotonic
// version counter. The version increases on every wholesale replacement;
// prefetch write-backs are validated against it so that work started under
// a superseded playlist can never mutate newer state.
//
// The current index is -1 while the playlist is empty and always in
// [0, len-1] otherwise.
type Store struct {
	mu       sync.RWMutex
	items    []Item
	version  uint64
	criteria Criteria
	current  int
}

// NewStore returns an empty store at version 0.
func NewStore() *Store {
	return &Store{current: -1}
}

// Replace swaps in a new item list wholesale, bumps the version, and
// resets the index to 0 unless anchorID resolves to an item in the new
// list, in which case the index lands on that item. It returns the new
// version and index.
func (s *Store) Replace(items []Item, criteria Criteria, anchorID string) (uint64, int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = items
	s.criteria = criteria
	s.version++

	s.current = -1
	if len(items) > 0 {
		s.current = 0
		if anchorID != "" {
			for i := range items {
				if items[i].ID == anchorID {
					s.current = i
					break
				}
			}
		}
	}

	metrics.PlaylistItems.Set(float64(len(items)))
	metrics.PlaylistVersion.Set(float64(s.version))
	logging.Debug("playlist replaced: %d items, version %d, index %d", len(items), s.version, s.current)

	return s.version, s.current
}

// ReplaceAt is Replace with an explicit starting index (used by session
// resume). The index is clamped into bounds.
func (s *Store) ReplaceAt(items []Item, criteria Criteria, index int) (uint64, int) {
	version, _ := s.Replace(items, criteria, "")

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.items) > 0 {
		if index < 0 {
			index = 0
		}
		if index >= len(s.items) {
			index = len(s.items) - 1
		}
		s.current = index
	}
	return version, s.current
}

// Version returns the current snapshot version.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Len returns the number of items in the active playlist.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Criteria returns the criteria that produced the active playlist.
func (s *Store) Criteria() Criteria {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.criteria
}

// CurrentIndex returns the current index, or -1 when the playlist is empty.
func (s *Store) CurrentIndex() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Current returns the current item and its index. ok is false when the
// playlist is empty.
func (s *Store) Current() (Item, int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current < 0 || s.current >= len(s.items) {
		return Item{}, -1, false
	}
	return s.items[s.current], s.current, true
}

// Item returns the item at index i.
func (s *Store) Item(i int) (Item, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i < 0 || i >= len(s.items) {
		return Item{}, false
	}
	return s.items[i], true
}

// Locators returns the locator of every item in the active playlist.
func (s *Store) Locators() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.items))
	for i := range s.items {
		out[i] = s.items[i].Locator
	}
	return out
}

// IDs returns the id of every item in the active playlist, in order.
func (s *Store) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.items))
	for i := range s.items {
		out[i] = s.items[i].ID
	}
	return out
}

// Advance moves the index forward by one, wrapping at the end. It is a
// no-op on an empty playlist. Returns the new index (-1 when empty).
func (s *Store) Advance() int {
	return s.step(1)
}

// Retreat moves the index backward by one, wrapping at the start. It is a
// no-op on an empty playlist. Returns the new index (-1 when empty).
func (s *Store) Retreat() int {
	return s.step(-1)
}

func (s *Store) step(delta int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.items)
	if n == 0 {
		return -1
	}
	s.current = ((s.current+delta)%n + n) % n
	return s.current
}

// AttachHandle writes a materialized handle back into the item at index i,
// but only if the store's version still equals version and the item still
// refers to locator. It reports whether the write-back was applied;
// a false return means the materialization raced a newer snapshot and was
// discarded at commit time.
func (s *Store) AttachHandle(version uint64, i int, locator string, h *media.Handle) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.version != version {
		return false
	}
	if i < 0 || i >= len(s.items) || s.items[i].Locator != locator {
		return false
	}

	s.items[i].Handle = h
	s.items[i].OrientationKnown = true
	s.items[i].Landscape = h.Landscape()
	return true
}

// StripHandle removes the handle reference from the item at index i and
// returns it. The caller decides whether the underlying resource is
// released (the cache may still reference it).
func (s *Store) StripHandle(i int) *media.Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.items) || s.items[i].Handle == nil {
		return nil
	}
	h := s.items[i].Handle
	s.items[i].Handle = nil
	return h
}
