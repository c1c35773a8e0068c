// Package engine coordinates one source's playlist lifecycle: debounced
// criteria edits, sequence-tagged list-fetches with stale discard,
// session persistence, windowed prefetch, reclamation, and the slideshow
// timer.
//
// All index movement funnels through one path so that manual and timer
// navigation share the same persistence, prefetch, and timer-rearm
// behavior.
package engine
