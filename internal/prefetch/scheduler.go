package prefetch

import (
	"context"
	"errors"
	"sync"
	"time"

	"gallery-player/internal/logging"
	"gallery-player/internal/media"
	"gallery-player/internal/memory"
	"gallery-player/internal/metrics"
	"gallery-player/internal/playlist"
)

// RetrieveFunc fetches the raw bytes for an item id.
type RetrieveFunc func(ctx context.Context, id string) ([]byte, error)

// Config holds scheduler tuning.
type Config struct {
	// Radius is how many items ahead and behind the current index are
	// materialized.
	Radius int
	// Workers is the size of the drain pool behind the eager fetch.
	Workers int
	// Timeout bounds a single retrieval so a hung transfer cannot occupy
	// a worker slot indefinitely.
	Timeout time.Duration
	// Pinned marks handles produced by this scheduler as backed by a
	// stable local reference.
	Pinned bool
}

// DefaultConfig returns the standard scheduler tuning: one eager fetch
// plus two drain workers over a radius of three.
func DefaultConfig() Config {
	return Config{
		Radius:  3,
		Workers: 2,
		Timeout: 30 * time.Second,
	}
}

// target is one unit of materialization work, bound to the snapshot
// version it was computed under.
type target struct {
	index   int
	version uint64
}

// Scheduler computes look-ahead/behind targets around the current index
// and materializes them with bounded concurrency: the nearest missing
// item immediately, the rest through a small fixed worker pool.
//
// A newer scheduling pass supersedes the queue of the previous one but
// never cancels in-flight transfers; completed work still populates the
// cache, and the version check at write-back keeps stale results out of
// newer snapshots.
type Scheduler struct {
	cfg      Config
	store    *playlist.Store
	cache    *Cache
	retrieve RetrieveFunc
	mem      *memory.Monitor

	mu      sync.Mutex
	pass    uint64
	queue   []target
	stopped bool

	wake chan struct{}
	stop chan struct{}
	once sync.Once
	wg   sync.WaitGroup
}

// NewScheduler creates a scheduler. mem may be nil to disable memory
// backpressure.
func NewScheduler(cfg Config, store *playlist.Store, cache *Cache, retrieve RetrieveFunc, mem *memory.Monitor) *Scheduler {
	if cfg.Radius < 1 {
		cfg.Radius = 1
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Scheduler{
		cfg:      cfg,
		store:    store,
		cache:    cache,
		retrieve: retrieve,
		mem:      mem,
		wake:     make(chan struct{}, 1),
		stop:     make(chan struct{}),
	}
}

// Start launches the drain workers.
func (s *Scheduler) Start() {
	for i := 0; i < s.cfg.Workers; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}
}

// Stop halts the drain workers. In-flight materializations finish.
func (s *Scheduler) Stop() {
	s.once.Do(func() {
		s.mu.Lock()
		s.stopped = true
		s.mu.Unlock()
		close(s.stop)
	})
	s.wg.Wait()
}

// Schedule runs one scheduling pass for the current (index, version)
// state. It supersedes the queue of any previous pass.
func (s *Scheduler) Schedule() {
	version := s.store.Version()
	current := s.store.CurrentIndex()
	length := s.store.Len()

	if length == 0 || current < 0 {
		s.replaceQueue(nil)
		return
	}

	if s.mem.IsPaused() {
		logging.Debug("prefetch pass skipped: memory pressure")
		s.replaceQueue(nil)
		return
	}

	targets := s.expand(current, length, version)

	if len(targets) == 0 {
		s.replaceQueue(nil)
		return
	}

	// The nearest missing item jumps the queue.
	eager := targets[0]
	s.replaceQueue(targets[1:])

	// The Add must not race a Stop already waiting on the group.
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		s.materialize(eager)
	}()
}

// expand builds the target list: increasing distance, alternating forward
// then backward from current, deduplicated modulo length, excluding
// indices already materialized or in flight.
func (s *Scheduler) expand(current, length int, version uint64) []target {
	seen := make(map[int]bool, 2*s.cfg.Radius+1)
	var targets []target

	consider := func(offset int) {
		i := ((current+offset)%length + length) % length
		if seen[i] {
			return
		}
		seen[i] = true

		it, ok := s.store.Item(i)
		if !ok || it.Handle != nil {
			return
		}
		if s.cache.Busy(it.Locator) {
			return
		}
		targets = append(targets, target{index: i, version: version})
	}

	consider(0)
	for d := 1; d <= s.cfg.Radius; d++ {
		consider(d)
		consider(-d)
	}
	return targets
}

func (s *Scheduler) replaceQueue(targets []target) {
	s.mu.Lock()
	s.pass++
	s.queue = targets
	s.mu.Unlock()

	if len(targets) > 0 {
		select {
		case s.wake <- struct{}{}:
		default:
		}
	}
}

// pop removes the next target of the current pass, if any.
func (s *Scheduler) pop() (target, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) == 0 {
		return target{}, false
	}
	t := s.queue[0]
	s.queue = s.queue[1:]
	return t, true
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()
	logging.Debug("prefetch worker %d started", id)

	for {
		t, ok := s.pop()
		if !ok {
			select {
			case <-s.stop:
				logging.Debug("prefetch worker %d stopped", id)
				return
			case <-s.wake:
				// Let other idle workers see remaining work too.
				select {
				case s.wake <- struct{}{}:
				default:
				}
				continue
			}
		}
		s.materialize(t)
	}
}

// materialize resolves one target: cache hit, or retrieve + probe +
// commit. The in-flight marker is cleared on every outcome, and the
// write-back is validated against the snapshot version so work started
// under a superseded playlist never mutates newer state.
func (s *Scheduler) materialize(t target) {
	start := time.Now()
	defer func() {
		metrics.PrefetchDuration.Observe(time.Since(start).Seconds())
	}()

	it, ok := s.store.Item(t.index)
	if !ok || it.Handle != nil {
		return
	}
	if s.store.Version() != t.version {
		metrics.PrefetchTotal.WithLabelValues("stale").Inc()
		return
	}

	locator := it.Locator

	h, state := s.cache.Reserve(locator)
	switch state {
	case ReserveHit:
		if s.store.AttachHandle(t.version, t.index, locator, h) {
			metrics.PrefetchTotal.WithLabelValues("cache_hit").Inc()
		} else {
			metrics.PrefetchTotal.WithLabelValues("stale").Inc()
		}
		return

	case ReserveBusy:
		metrics.PrefetchTotal.WithLabelValues("busy").Inc()
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Timeout)
	defer cancel()

	data, err := s.retrieve(ctx, it.ID)
	if err != nil {
		s.cache.Release(locator)
		metrics.PrefetchTotal.WithLabelValues("transport_error").Inc()
		logging.Debug("prefetch retrieval failed for %s: %v", it.ID, err)
		return
	}

	handle, err := media.Materialize(locator, data, s.cfg.Pinned)
	if err != nil {
		// A bad image never aborts the pass; the item falls back to
		// direct retrieval at display time.
		s.cache.Release(locator)
		metrics.PrefetchTotal.WithLabelValues("decode_error").Inc()
		var derr *media.DecodeError
		if errors.As(err, &derr) {
			logging.Warn("undecodable image %s: %v", it.ID, derr.Err)
		}
		return
	}

	s.cache.Commit(locator, handle)

	if s.store.AttachHandle(t.version, t.index, locator, handle) {
		metrics.PrefetchTotal.WithLabelValues("fetched").Inc()
	} else {
		// The snapshot moved on while we were transferring. The handle
		// stays in the cache for the snapshot that now references it.
		metrics.PrefetchTotal.WithLabelValues("stale").Inc()
	}
}
