// Package prefetch implements the windowed look-ahead engine: a
// locator-keyed resource cache with an in-flight set, a bounded
// concurrency scheduler that materializes items around the current index,
// and a reclaimer that evicts resources leaving the keep window.
//
// Concurrency model: the cache is the only shared table, guarded by one
// mutex; reservations guarantee at most one outstanding materialization
// per locator. Supersession is cooperative: a new scheduling pass
// replaces the pending queue but in-flight transfers run to completion
// and commit to the cache, with the playlist store's version check
// deciding whether their write-back still applies.
package prefetch
