package engine

import (
	"context"
	"path"
	"sync"
	"sync/atomic"
	"time"

	"gallery-player/internal/logging"
	"gallery-player/internal/media"
	"gallery-player/internal/memory"
	"gallery-player/internal/metrics"
	"gallery-player/internal/playlist"
	"gallery-player/internal/prefetch"
	"gallery-player/internal/session"
	"gallery-player/internal/source"
)

// Config holds engine tuning.
type Config struct {
	// SlideInterval is the automatic advance period.
	SlideInterval time.Duration
	// Debounce is how long criteria edits settle before a list-fetch fires.
	Debounce time.Duration
	// PreloadRadius is how many items around the current index are
	// materialized ahead of need.
	PreloadRadius int
	// ReserveRadius widens the reclamation keep window beyond the preload
	// radius so recently shown items are not evicted immediately.
	ReserveRadius int
	// FetchTimeout bounds one list-fetch round trip.
	FetchTimeout time.Duration
	// RetrieveTimeout bounds one item retrieval.
	RetrieveTimeout time.Duration
}

// DefaultConfig returns the standard engine tuning.
func DefaultConfig() Config {
	return Config{
		SlideInterval:   5 * time.Second,
		Debounce:        300 * time.Millisecond,
		PreloadRadius:   3,
		ReserveRadius:   2,
		FetchTimeout:    30 * time.Second,
		RetrieveTimeout: 30 * time.Second,
	}
}

// Engine coordinates the playlist store, the prefetch machinery, session
// persistence, and the slideshow timer for one source.
type Engine struct {
	cfg      Config
	src      source.Source
	store    *playlist.Store
	cache    *prefetch.Cache
	sched    *prefetch.Scheduler
	reclaim  *prefetch.Reclaimer
	sessions *session.Store

	// fetchSeq tags list-fetches; a response whose tag is no longer the
	// newest is discarded without touching the playlist.
	fetchSeq atomic.Uint64

	mu      sync.Mutex
	desired playlist.Criteria
	overlay bool
	paused  bool

	// Debounce state. debounceTimer is non-nil while an edit is settling;
	// fetchInFlight marks a running list-fetch, and fetchQueued records
	// that edits arrived during it and one more fetch must follow.
	debounceTimer *time.Timer
	fetchInFlight bool
	fetchQueued   bool

	slideTimer *time.Timer

	stopped bool
}

// New wires an engine for src. sessions and mem may be nil.
func New(cfg Config, src source.Source, sessions *session.Store, mem *memory.Monitor) *Engine {
	if cfg.SlideInterval <= 0 {
		cfg.SlideInterval = 5 * time.Second
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = 300 * time.Millisecond
	}
	if cfg.PreloadRadius < 1 {
		cfg.PreloadRadius = 1
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 30 * time.Second
	}
	if cfg.RetrieveTimeout <= 0 {
		cfg.RetrieveTimeout = 30 * time.Second
	}

	e := &Engine{
		cfg:      cfg,
		src:      src,
		store:    playlist.NewStore(),
		cache:    prefetch.NewCache(),
		sessions: sessions,
	}

	e.sched = prefetch.NewScheduler(prefetch.Config{
		Radius:  cfg.PreloadRadius,
		Workers: 2,
		Timeout: cfg.RetrieveTimeout,
		Pinned:  src.Pinned(),
	}, e.store, e.cache, src.Retrieve, mem)

	e.reclaim = prefetch.NewReclaimer(e.store, e.cache, cfg.PreloadRadius+cfg.ReserveRadius)

	return e
}

// Store exposes the playlist store for read access.
func (e *Engine) Store() *playlist.Store { return e.store }

// Cache exposes the resource cache for read access.
func (e *Engine) Cache() *prefetch.Cache { return e.cache }

// Start resumes a previous session if one applies, performs a fresh
// list-fetch otherwise, and starts the prefetch workers and the slideshow
// timer.
func (e *Engine) Start(ctx context.Context, initial playlist.Criteria) {
	e.mu.Lock()
	e.desired = initial
	e.mu.Unlock()

	e.sched.Start()

	if res, ok := session.NewResumer(e.src, e.sessions).Resume(ctx, initial); ok {
		items := e.itemsFromIDs(res.IDs)
		version, index := e.store.ReplaceAt(items, initial, res.Index)
		logging.Info("session %s: %d items, version %d, index %d", res.Origin, len(items), version, index)
		e.persistSession()
		e.sched.Schedule()
	} else {
		e.runFetch(initial, "")
	}

	e.mu.Lock()
	e.armSlideTimerLocked()
	e.mu.Unlock()
}

// Stop halts the timer, the debounce, and the prefetch workers.
func (e *Engine) Stop() {
	e.mu.Lock()
	e.stopped = true
	if e.slideTimer != nil {
		e.slideTimer.Stop()
	}
	if e.debounceTimer != nil {
		e.debounceTimer.Stop()
		e.debounceTimer = nil
	}
	e.mu.Unlock()

	e.sched.Stop()
}

// runFetch performs one sequence-tagged list-fetch and applies the result
// unless a newer fetch was issued meanwhile.
func (e *Engine) runFetch(criteria playlist.Criteria, anchorID string) {
	seq := e.fetchSeq.Add(1)
	label := sourceLabel(e.src.ID())
	start := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), e.cfg.FetchTimeout)
	defer cancel()

	entries, err := e.src.List(ctx, source.ListRequest{
		Paths:       criteria.Paths,
		Sort:        criteria.Sort,
		Direction:   criteria.Direction,
		Orientation: criteria.Orientation,
		AnchorID:    anchorID,
	})

	metrics.PlaylistFetchDuration.WithLabelValues(label).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.PlaylistFetchesTotal.WithLabelValues(label, "error").Inc()
		logging.Error("playlist fetch failed: %v", err)
		return
	}

	// A later fetch was issued while this one was on the wire. Its result
	// will land instead; applying ours would resurrect superseded criteria.
	if seq != e.fetchSeq.Load() {
		metrics.PlaylistStaleDiscards.Inc()
		logging.Debug("discarding stale playlist fetch (seq %d)", seq)
		return
	}

	if len(entries) == 0 {
		metrics.PlaylistFetchesTotal.WithLabelValues(label, "empty").Inc()
		logging.Warn("playlist fetch returned no items")
	} else {
		metrics.PlaylistFetchesTotal.WithLabelValues(label, "success").Inc()
	}

	e.apply(entries, criteria, anchorID)
}

// apply installs a fetched playlist: wholesale replacement, session
// persistence, invalidation of handles the new list no longer references,
// and a fresh prefetch pass.
func (e *Engine) apply(entries []source.Entry, criteria playlist.Criteria, anchorID string) {
	items := make([]playlist.Item, len(entries))
	for i, entry := range entries {
		items[i] = playlist.Item{
			ID:               entry.ID,
			Locator:          e.src.Locator(entry.ID),
			DisplayName:      entry.DisplayName,
			OrientationKnown: entry.OrientationKnown,
			Landscape:        entry.Landscape,
		}
	}

	version, index := e.store.Replace(items, criteria, anchorID)
	logging.Info("playlist applied: %d items, version %d, index %d", len(items), version, index)

	e.persistSession()
	e.reclaim.DropUnreferenced()
	e.sched.Schedule()

	// A replacement may revive a playlist that went empty while the
	// timer was idle.
	e.mu.Lock()
	e.armSlideTimerLocked()
	e.mu.Unlock()
}

// itemsFromIDs rebuilds item descriptors from a bare id list, as produced
// by session resume. Orientation is unknown until materialization.
func (e *Engine) itemsFromIDs(ids []string) []playlist.Item {
	items := make([]playlist.Item, len(ids))
	for i, id := range ids {
		items[i] = playlist.Item{
			ID:          id,
			Locator:     e.src.Locator(id),
			DisplayName: path.Base(id),
		}
	}
	return items
}

// persistSession writes the current playlist and index to the session
// store so a restart can resume where the viewer left off.
func (e *Engine) persistSession() {
	if e.sessions == nil {
		return
	}
	criteria := e.store.Criteria()
	err := e.sessions.Save(e.src.ID(), session.Record{
		Signature:    criteria.Signature(),
		Playlist:     e.store.IDs(),
		CurrentIndex: e.store.CurrentIndex(),
	})
	if err != nil {
		logging.Warn("failed to persist session: %v", err)
	}
}

// CurrentImage returns the bytes and format of the current item,
// preferring the materialized handle and falling back to a direct
// retrieval when prefetch has not caught up. ok is false on an empty
// playlist.
func (e *Engine) CurrentImage(ctx context.Context) (playlist.Item, []byte, string, bool, error) {
	it, _, ok := e.store.Current()
	if !ok {
		return playlist.Item{}, nil, "", false, nil
	}

	if it.Handle != nil && !it.Handle.Released() {
		return it, it.Handle.Bytes(), it.Handle.Format, true, nil
	}
	if h, hit := e.cache.Get(it.Locator); hit && !h.Released() {
		return it, h.Bytes(), h.Format, true, nil
	}

	// Display-time fallback: the viewer outran the prefetcher.
	rctx, cancel := context.WithTimeout(ctx, e.cfg.RetrieveTimeout)
	defer cancel()
	data, err := e.src.Retrieve(rctx, it.ID)
	if err != nil {
		return it, nil, "", true, err
	}
	h, err := media.Materialize(it.Locator, data, e.src.Pinned())
	if err != nil {
		return it, nil, "", true, err
	}
	e.cache.Commit(it.Locator, h)
	return it, h.Bytes(), h.Format, true, nil
}

func sourceLabel(sourceID string) string {
	for _, label := range []string{"remote", "local", "demo"} {
		if len(sourceID) >= len(label) && sourceID[:len(label)] == label {
			return label
		}
	}
	return "unknown"
}
