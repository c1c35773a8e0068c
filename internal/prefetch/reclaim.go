package prefetch

import (
	"gallery-player/internal/logging"
	"gallery-player/internal/metrics"
	"gallery-player/internal/playlist"
)

// Reclaimer evicts materialized resources that fall outside the keep
// window around the current index. It runs after navigation and after
// window-size changes.
type Reclaimer struct {
	store *playlist.Store
	cache *Cache

	// keepRadius is the preload radius plus a reserve margin; items
	// inside ±keepRadius of the current index retain their handles.
	keepRadius int
}

// NewReclaimer creates a reclaimer with the given keep radius.
func NewReclaimer(store *playlist.Store, cache *Cache, keepRadius int) *Reclaimer {
	if keepRadius < 1 {
		keepRadius = 1
	}
	return &Reclaimer{store: store, cache: cache, keepRadius: keepRadius}
}

// Reclaim runs one pass: descriptors outside the keep set lose their
// handle reference, and cache entries unreferenced by any in-keep-set
// descriptor are released. Pinned handles are exempt. It returns the
// number of stripped descriptors and evicted cache entries.
func (r *Reclaimer) Reclaim() (stripped, evicted int) {
	length := r.store.Len()
	current := r.store.CurrentIndex()

	if length == 0 || current < 0 {
		evicted = r.cache.RetainOnly(nil)
		return 0, evicted
	}

	keep := make(map[int]bool, 2*r.keepRadius+1)
	for d := -r.keepRadius; d <= r.keepRadius; d++ {
		keep[((current+d)%length+length)%length] = true
	}

	keepLocators := make(map[string]bool, len(keep))
	for i := range keep {
		if it, ok := r.store.Item(i); ok {
			keepLocators[it.Locator] = true
		}
	}

	for i := 0; i < length; i++ {
		if keep[i] {
			continue
		}
		it, ok := r.store.Item(i)
		if !ok || it.Handle == nil || it.Handle.Pinned {
			continue
		}
		// Strip the reference only; the cache owns the release.
		r.store.StripHandle(i)
		stripped++
	}

	evicted = r.cache.RetainOnly(keepLocators)

	if stripped > 0 {
		metrics.HandlesStrippedTotal.Add(float64(stripped))
	}
	if stripped > 0 || evicted > 0 {
		logging.Debug("reclaim pass: stripped %d handles, evicted %d cache entries", stripped, evicted)
	}
	return stripped, evicted
}

// DropUnreferenced releases every unpinned cache entry whose locator is
// not referenced by the active playlist. Called after a wholesale
// replacement to invalidate handles from the superseded list while
// keeping cross-snapshot reuse for locators both lists share.
func (r *Reclaimer) DropUnreferenced() int {
	keep := make(map[string]bool)
	for _, locator := range r.store.Locators() {
		keep[locator] = true
	}
	return r.cache.RetainOnly(keep)
}
