package prefetch

import (
	"sync"

	"gallery-player/internal/media"
	"gallery-player/internal/metrics"
)

// ReserveState is the outcome of a cache reservation attempt.
type ReserveState int

const (
	// ReserveHit means the locator is already materialized; the returned
	// handle can be attached directly.
	ReserveHit ReserveState = iota
	// Reserved means the caller won the in-flight slot and must finish
	// with Commit or Release.
	Reserved
	// ReserveBusy means another materialization for this locator is in
	// flight; the caller backs off.
	ReserveBusy
)

// Cache is the locator-keyed store of materialized handles, shared across
// playlist replacements, plus the in-flight set that guarantees at most
// one outstanding materialization per locator.
type Cache struct {
	mu       sync.Mutex
	entries  map[string]*media.Handle
	inflight map[string]bool
	bytes    int64
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{
		entries:  make(map[string]*media.Handle),
		inflight: make(map[string]bool),
	}
}

// Get returns the materialized handle for locator, if any.
func (c *Cache) Get(locator string) (*media.Handle, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	h, ok := c.entries[locator]
	return h, ok
}

// Busy reports whether a materialization for locator is in flight.
func (c *Cache) Busy(locator string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inflight[locator]
}

// Reserve checks the cache and, on a miss, claims the in-flight slot for
// locator. Exactly one caller wins the slot; everyone else sees either
// the committed handle or ReserveBusy.
func (c *Cache) Reserve(locator string) (*media.Handle, ReserveState) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if h, ok := c.entries[locator]; ok {
		return h, ReserveHit
	}
	if c.inflight[locator] {
		return nil, ReserveBusy
	}
	c.inflight[locator] = true
	metrics.CacheInFlight.Set(float64(len(c.inflight)))
	return nil, Reserved
}

// Commit stores a materialized handle and clears the in-flight marker.
func (c *Cache) Commit(locator string, h *media.Handle) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.inflight, locator)
	if old, ok := c.entries[locator]; ok && old != h {
		c.bytes -= int64(old.Size())
		old.Release()
	}
	c.entries[locator] = h
	c.bytes += int64(h.Size())
	c.updateGauges()
}

// Release clears the in-flight marker without storing anything. Called on
// every failure path so a locator never sticks permanently "in progress".
func (c *Cache) Release(locator string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.inflight, locator)
	metrics.CacheInFlight.Set(float64(len(c.inflight)))
}

// RetainOnly releases and removes every entry whose locator is not in
// keep, except pinned handles. It returns the number of evicted entries.
// A nil keep set evicts everything unpinned.
func (c *Cache) RetainOnly(keep map[string]bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	evicted := 0
	for locator, h := range c.entries {
		if keep[locator] || h.Pinned {
			continue
		}
		c.bytes -= int64(h.Size())
		h.Release()
		delete(c.entries, locator)
		evicted++
	}
	if evicted > 0 {
		metrics.CacheEvictionsTotal.Add(float64(evicted))
		c.updateGauges()
	}
	return evicted
}

// Len returns the number of materialized entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// InFlightCount returns the number of in-flight materializations.
func (c *Cache) InFlightCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.inflight)
}

// Bytes returns the total byte size of materialized entries.
func (c *Cache) Bytes() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bytes
}

// updateGauges refreshes the exported cache gauges. Callers hold c.mu.
func (c *Cache) updateGauges() {
	metrics.CacheEntries.Set(float64(len(c.entries)))
	metrics.CacheBytes.Set(float64(c.bytes))
	metrics.CacheInFlight.Set(float64(len(c.inflight)))
}
