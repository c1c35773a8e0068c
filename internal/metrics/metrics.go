package metrics

import (
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_player_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gallery_player_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gallery_player_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Playlist fetch metrics
var (
	PlaylistFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_player_playlist_fetches_total",
			Help: "Total number of playlist list-fetches",
		},
		[]string{"source", "status"}, // status: success, empty, error
	)

	PlaylistFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gallery_player_playlist_fetch_duration_seconds",
			Help:    "Playlist list-fetch duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"source"},
	)

	PlaylistStaleDiscards = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gallery_player_playlist_stale_discards_total",
			Help: "Playlist fetch responses discarded because a newer fetch was issued",
		},
	)

	PlaylistItems = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gallery_player_playlist_items",
			Help: "Number of items in the active playlist",
		},
	)

	PlaylistVersion = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gallery_player_playlist_version",
			Help: "Monotonic version of the active playlist",
		},
	)

	CriteriaCoalescedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gallery_player_criteria_coalesced_total",
			Help: "Criteria edits absorbed by debouncing/coalescing instead of fetching",
		},
	)
)

// Prefetch and cache metrics
var (
	PrefetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_player_prefetch_total",
			Help: "Total number of prefetch materializations by outcome",
		},
		[]string{"outcome"}, // cache_hit, fetched, transport_error, decode_error, stale, busy
	)

	PrefetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gallery_player_prefetch_duration_seconds",
			Help:    "Duration of a single item materialization in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	CacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gallery_player_cache_entries",
			Help: "Number of materialized entries held in the resource cache",
		},
	)

	CacheBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gallery_player_cache_bytes",
			Help: "Total byte size of materialized entries in the resource cache",
		},
	)

	CacheInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gallery_player_cache_in_flight",
			Help: "Number of locators currently being materialized",
		},
	)

	CacheEvictionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gallery_player_cache_evictions_total",
			Help: "Cache entries released by window reclamation or replacement",
		},
	)

	HandlesStrippedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gallery_player_handles_stripped_total",
			Help: "Item handles stripped because they left the keep window",
		},
	)
)

// Navigation metrics
var (
	NavigationTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_player_navigation_total",
			Help: "Index movements by direction and trigger",
		},
		[]string{"direction", "trigger"}, // direction: advance, retreat; trigger: manual, timer
	)
)

// Session metrics
var (
	SessionResumeTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_player_session_resume_total",
			Help: "Session resume attempts by outcome",
		},
		[]string{"outcome"}, // adopted, restored, miss, error
	)

	SessionSavesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gallery_player_session_saves_total",
			Help: "Session snapshot writes to the local store",
		},
	)
)

// Local index metrics
var (
	IndexQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_player_index_queries_total",
			Help: "Total number of metadata index queries",
		},
		[]string{"operation", "status"},
	)

	IndexQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gallery_player_index_query_duration_seconds",
			Help:    "Metadata index query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"operation"},
	)

	ScanFilesProbed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gallery_player_scan_files_probed_total",
			Help: "Image files whose dimensions were probed during a local scan",
		},
	)

	ScanDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gallery_player_scan_duration_seconds",
			Help:    "Local source scan duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60},
		},
	)

	WatcherEventsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gallery_player_watcher_events_total",
			Help: "Relevant filesystem events observed on the local photo tree",
		},
	)
)

// Filesystem retry metrics
var (
	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_player_filesystem_retry_attempts_total",
			Help: "Filesystem operations retried after a stale NFS handle",
		},
		[]string{"operation"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_player_filesystem_retry_failures_total",
			Help: "Filesystem operations that failed after exhausting retries",
		},
		[]string{"operation"},
	)

	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_player_filesystem_stale_errors_total",
			Help: "ESTALE errors observed on filesystem operations",
		},
		[]string{"operation"},
	)
)

// Memory metrics
var (
	MemoryUsageRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gallery_player_memory_usage_ratio",
			Help: "Heap usage as a ratio of the configured limit (0.0-1.0)",
		},
	)

	MemoryPaused = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gallery_player_memory_paused",
			Help: "Whether prefetching is paused due to memory pressure (0/1)",
		},
	)
)

// AppInfo exposes build information as constant labels.
var AppInfo = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "gallery_player_app_info",
		Help: "Application build information",
	},
	[]string{"version", "commit", "go_version"},
)

// SetAppInfo publishes the build information series.
func SetAppInfo(version, commit string) {
	AppInfo.WithLabelValues(version, commit, runtime.Version()).Set(1)
}
