package engine

import (
	"time"

	"gallery-player/internal/metrics"
)

// Advance moves to the next item, wrapping at the end.
func (e *Engine) Advance(trigger string) int {
	return e.move(1, trigger)
}

// Retreat moves to the previous item, wrapping at the start.
func (e *Engine) Retreat(trigger string) int {
	return e.move(-1, trigger)
}

// move is the single index-update path for both manual and timer
// navigation: step, persist, reschedule prefetch, reclaim, and rearm
// the slideshow timer.
func (e *Engine) move(delta int, trigger string) int {
	var index int
	direction := "advance"
	if delta > 0 {
		index = e.store.Advance()
	} else {
		index = e.store.Retreat()
		direction = "retreat"
	}
	if index < 0 {
		return index
	}

	metrics.NavigationTotal.WithLabelValues(direction, trigger).Inc()

	if e.sessions != nil {
		e.sessions.UpdateIndex(e.src.ID(), index)
	}

	e.sched.Schedule()
	e.reclaim.Reclaim()

	e.mu.Lock()
	e.armSlideTimerLocked()
	e.mu.Unlock()

	return index
}

// TogglePause flips the automatic advance and returns the new state.
func (e *Engine) TogglePause() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.paused = !e.paused
	if e.paused {
		if e.slideTimer != nil {
			e.slideTimer.Stop()
		}
	} else {
		e.armSlideTimerLocked()
	}
	return e.paused
}

// Paused reports whether automatic advance is suspended.
func (e *Engine) Paused() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.paused
}

// SetInterval changes the automatic advance period and restarts the
// countdown. Non-positive values are ignored.
func (e *Engine) SetInterval(d time.Duration) time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()

	if d > 0 {
		e.cfg.SlideInterval = d
		e.armSlideTimerLocked()
	}
	return e.cfg.SlideInterval
}

// Interval returns the automatic advance period.
func (e *Engine) Interval() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg.SlideInterval
}

// ToggleOverlay flips the info overlay flag and returns the new state.
// An open overlay blocks automatic advance, so the timer is torn down
// while it shows and rearmed when it closes.
func (e *Engine) ToggleOverlay() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.overlay = !e.overlay
	if e.overlay {
		if e.slideTimer != nil {
			e.slideTimer.Stop()
		}
	} else {
		e.armSlideTimerLocked()
	}
	return e.overlay
}

// Overlay reports whether the info overlay is shown.
func (e *Engine) Overlay() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.overlay
}

// armSlideTimerLocked (re)starts the single slideshow timer. Stopping
// before rescheduling guarantees at most one pending expiry, so a manual
// navigation never stacks a second timer advance. Callers hold e.mu.
func (e *Engine) armSlideTimerLocked() {
	if e.stopped || e.paused || e.overlay {
		return
	}
	if e.slideTimer != nil {
		e.slideTimer.Stop()
	}
	e.slideTimer = e.timerAfter(e.cfg.SlideInterval, e.slideTimerFired)
}

func (e *Engine) slideTimerFired() {
	e.mu.Lock()
	skip := e.stopped || e.paused || e.overlay || e.store.Len() == 0
	e.mu.Unlock()

	if skip {
		// An empty playlist keeps the timer idle until the next
		// replacement rearms it.
		return
	}
	e.move(1, "timer")
}

func (e *Engine) timerAfter(d time.Duration, fn func()) *time.Timer {
	return time.AfterFunc(d, fn)
}
