package metrics

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	for _, op := range []string{"replace_share_files", "get_media_files", "get_media_file",
		"get_media_files_by_paths", "get_cache_stats", "create_playlist", "update_playlist",
		"get_playlists", "get_playlist", "delete_playlist", "vacuum"} {
		DBQueryTotal.WithLabelValues(op, "success")
		DBQueryTotal.WithLabelValues(op, "error")
		DBQueryDuration.WithLabelValues(op)
	}

	for _, r := range []string{"commit", "rollback"} {
		DBTransactionDuration.WithLabelValues(r)
	}

	for _, action := range []string{"description", "browse", "stream", "artwork"} {
		UPnPRequestsTotal.WithLabelValues(action, "success")
		UPnPRequestsTotal.WithLabelValues(action, "error")
		UPnPRequestDuration.WithLabelValues(action)
		UPnPRetryAttempts.WithLabelValues(action)
		UPnPRetryFailures.WithLabelValues(action)
	}

	for _, s := range []string{"success", "error", "skipped"} {
		ScanRunsTotal.WithLabelValues(s)
	}

	for _, ft := range []string{"audio", "video", "unknown"} {
		ScanItemsDiscovered.WithLabelValues(ft)
		MediaFilesTotal.WithLabelValues(ft)
	}

	for _, target := range []string{"download", "export"} {
		PlaylistDocumentsTotal.WithLabelValues(target, "success")
		PlaylistDocumentsTotal.WithLabelValues(target, "error")
	}

	for _, r := range []string{"hit", "miss", "error"} {
		ArtworkRequestsTotal.WithLabelValues(r)
	}

	for _, r := range []string{"upstream", "timeout", "client"} {
		StreamErrorsTotal.WithLabelValues(r)
	}

	for _, op := range []string{"read", "write"} {
		FilesystemRetryAttempts.WithLabelValues(op)
		FilesystemRetryFailures.WithLabelValues(op)
		FilesystemStaleErrors.WithLabelValues(op)
	}

	for _, s := range []string{"success", "failure"} {
		AuthAttemptsTotal.WithLabelValues(s)
	}
}
