package metrics

// InitializeMetrics pre-populates the expected label combinations so that
// every series is exported from the first Prometheus scrape.
// Call this once at startup.
func InitializeMetrics() {
	for _, src := range []string{"remote", "local", "demo"} {
		for _, status := range []string{"success", "empty", "error"} {
			PlaylistFetchesTotal.WithLabelValues(src, status)
		}
		PlaylistFetchDuration.WithLabelValues(src)
	}

	for _, outcome := range []string{"cache_hit", "fetched", "transport_error", "decode_error", "stale", "busy"} {
		PrefetchTotal.WithLabelValues(outcome)
	}

	for _, dir := range []string{"advance", "retreat"} {
		for _, trig := range []string{"manual", "timer"} {
			NavigationTotal.WithLabelValues(dir, trig)
		}
	}

	for _, outcome := range []string{"adopted", "restored", "miss", "error"} {
		SessionResumeTotal.WithLabelValues(outcome)
	}

	for _, op := range []string{"lookup", "upsert", "prune"} {
		IndexQueryTotal.WithLabelValues(op, "success")
		IndexQueryTotal.WithLabelValues(op, "error")
		IndexQueryDuration.WithLabelValues(op)
	}

	for _, op := range []string{"stat", "open", "read"} {
		FilesystemRetryAttempts.WithLabelValues(op)
		FilesystemRetryFailures.WithLabelValues(op)
		FilesystemStaleErrors.WithLabelValues(op)
	}
}
