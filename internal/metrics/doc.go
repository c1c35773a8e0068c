// Package metrics provides Prometheus instrumentation for gallery-player.
//
// All metrics are prefixed with "gallery_player_" and registered with the
// default registry via promauto. Expose them by mounting promhttp.Handler()
// on the /metrics route.
//
// Categories:
//   - HTTP: request counts, durations, in-flight gauge (used by middleware)
//   - Playlist: list-fetch outcomes, stale discards, coalesced edits
//   - Prefetch/cache: materialization outcomes, cache size, evictions
//   - Navigation: index movements by direction and trigger
//   - Session: resume outcomes and snapshot saves
//   - Index/scan: local metadata index queries and scan probes
//   - Filesystem: NFS retry behavior
//   - Memory: heap pressure and prefetch pause state
package metrics
