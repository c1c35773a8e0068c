package engine

import (
	"gallery-player/internal/logging"
	"gallery-player/internal/metrics"
	"gallery-player/internal/playlist"
)

// SetCriteria records a criteria edit and arms the debounce window. A
// burst of edits collapses to one list-fetch carrying the newest values;
// an edit that arrives while a fetch is on the wire queues exactly one
// follow-up fetch. Re-submitting the already-applied criteria with
// nothing pending is a no-op.
func (e *Engine) SetCriteria(c playlist.Criteria) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.stopped {
		return
	}

	if c.Equal(e.store.Criteria()) && e.debounceTimer == nil && !e.fetchInFlight {
		logging.Debug("criteria unchanged, skipping refetch")
		return
	}

	e.desired = c

	if e.fetchInFlight {
		if !e.fetchQueued {
			e.fetchQueued = true
		}
		metrics.CriteriaCoalescedTotal.Inc()
		return
	}

	if e.debounceTimer != nil {
		// Still settling; restart the window so rapid edits keep
		// collapsing into one fetch.
		e.debounceTimer.Reset(e.cfg.Debounce)
		metrics.CriteriaCoalescedTotal.Inc()
		return
	}

	e.debounceTimer = e.timerAfter(e.cfg.Debounce, e.debounceFired)
}

// Refresh forces a refetch under the current criteria, bypassing the
// equality short-circuit. Used when the underlying tree changed.
func (e *Engine) Refresh() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.stopped {
		return
	}
	if e.fetchInFlight {
		e.fetchQueued = true
		return
	}
	if e.debounceTimer != nil {
		e.debounceTimer.Reset(e.cfg.Debounce)
		return
	}
	e.debounceTimer = e.timerAfter(e.cfg.Debounce, e.debounceFired)
}

// debounceFired runs when the settle window elapses: it transitions to
// the in-flight state and launches the fetch with the newest criteria.
func (e *Engine) debounceFired() {
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return
	}
	e.debounceTimer = nil
	e.fetchInFlight = true
	criteria := e.desired
	e.mu.Unlock()

	anchorID := ""
	if it, _, ok := e.store.Current(); ok {
		anchorID = it.ID
	}

	go func() {
		e.runFetch(criteria, anchorID)
		e.fetchDone()
	}()
}

// fetchDone closes out one fetch. If edits queued up during it, exactly
// one follow-up fetch launches with the newest criteria.
func (e *Engine) fetchDone() {
	e.mu.Lock()
	if e.stopped {
		e.fetchInFlight = false
		e.fetchQueued = false
		e.mu.Unlock()
		return
	}
	if !e.fetchQueued {
		e.fetchInFlight = false
		e.mu.Unlock()
		return
	}
	e.fetchQueued = false
	criteria := e.desired
	e.mu.Unlock()

	anchorID := ""
	if it, _, ok := e.store.Current(); ok {
		anchorID = it.ID
	}

	go func() {
		e.runFetch(criteria, anchorID)
		e.fetchDone()
	}()
}

// Criteria returns the most recently requested criteria, which may not
// yet have been applied if a debounce window is open.
func (e *Engine) Criteria() playlist.Criteria {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.desired
}
