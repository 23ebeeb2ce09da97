package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nas_media_catalog_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nas_media_catalog_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "nas_media_catalog_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	HTTPRateLimited = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nas_media_catalog_http_rate_limited_total",
			Help: "Total number of requests rejected by the rate limiter",
		},
		[]string{"path"},
	)
)

// Database metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nas_media_catalog_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nas_media_catalog_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	DBTransactionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nas_media_catalog_db_transaction_duration_seconds",
			Help:    "Database transaction duration in seconds",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
		},
		[]string{"result"},
	)

	DBRowsAffected = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nas_media_catalog_db_rows_affected",
			Help:    "Rows affected by write operations",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		},
		[]string{"operation"},
	)

	DBConnectionsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "nas_media_catalog_db_connections_open",
			Help: "Number of open database connections",
		},
	)

	DBSizeBytes = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "nas_media_catalog_db_size_bytes",
			Help: "Size of SQLite database files in bytes",
		},
		[]string{"file"}, // "main", "wal", "shm"
	)
)

// UPnP metrics
var (
	UPnPDiscoveryDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "nas_media_catalog_upnp_discovery_duration_seconds",
			Help:    "Duration of SSDP discovery runs in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30},
		},
	)

	UPnPServersDiscovered = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "nas_media_catalog_upnp_servers_discovered",
			Help: "Number of media servers found by the last discovery",
		},
	)

	UPnPConnected = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "nas_media_catalog_upnp_connected",
			Help: "Whether a media server is connected (1 = connected, 0 = not connected)",
		},
	)

	UPnPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nas_media_catalog_upnp_requests_total",
			Help: "Total number of requests sent to media servers",
		},
		[]string{"action", "status"},
	)

	UPnPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nas_media_catalog_upnp_request_duration_seconds",
			Help:    "Duration of requests sent to media servers in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"action"},
	)

	UPnPRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nas_media_catalog_upnp_retry_attempts_total",
			Help: "Total number of retried media server requests",
		},
		[]string{"action"},
	)

	UPnPRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nas_media_catalog_upnp_retry_failures_total",
			Help: "Total number of media server requests that failed after all retries",
		},
		[]string{"action"},
	)
)

// Scanner metrics
var (
	ScanRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nas_media_catalog_scan_runs_total",
			Help: "Total number of catalog scans",
		},
		[]string{"status"},
	)

	ScanLastRunTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "nas_media_catalog_scan_last_run_timestamp",
			Help: "Timestamp of the last completed scan",
		},
	)

	ScanLastRunDuration = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "nas_media_catalog_scan_last_run_duration_seconds",
			Help: "Duration of the last scan in seconds",
		},
	)

	ScanItemsDiscovered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nas_media_catalog_scan_items_discovered_total",
			Help: "Total number of media items found while scanning",
		},
		[]string{"type"},
	)

	ScanContainersBrowsed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nas_media_catalog_scan_containers_browsed_total",
			Help: "Total number of containers browsed while scanning",
		},
	)

	ScanErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nas_media_catalog_scan_errors_total",
			Help: "Total number of scan errors",
		},
	)

	ScanIsRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "nas_media_catalog_scan_running",
			Help: "Whether a scan is currently running (1 = running, 0 = idle)",
		},
	)
)

// Playlist metrics
var (
	PlaylistDocumentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nas_media_catalog_playlist_documents_total",
			Help: "Total number of generated playlist documents",
		},
		[]string{"target", "status"}, // target: "download" or "export"
	)

	PlaylistEntries = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "nas_media_catalog_playlist_entries",
			Help:    "Number of entries in generated playlist documents",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		},
	)

	PlaylistUnresolvedPaths = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nas_media_catalog_playlist_unresolved_paths_total",
			Help: "Total number of playlist paths missing from the cache at generation time",
		},
	)
)

// Artwork metrics
var (
	ArtworkRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nas_media_catalog_artwork_requests_total",
			Help: "Total number of album art requests",
		},
		[]string{"result"}, // "hit", "miss", "error"
	)

	ArtworkGenerationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "nas_media_catalog_artwork_generation_duration_seconds",
			Help:    "Album art fetch and resize duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
	)
)

// Streaming metrics
var (
	StreamsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "nas_media_catalog_streams_active",
			Help: "Number of media streams currently proxied",
		},
	)

	StreamBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nas_media_catalog_stream_bytes_total",
			Help: "Total number of bytes proxied to clients",
		},
	)

	StreamErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nas_media_catalog_stream_errors_total",
			Help: "Total number of proxied stream failures",
		},
		[]string{"reason"},
	)
)

// Catalog contents
var (
	MediaFilesTotal = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "nas_media_catalog_media_files_total",
			Help: "Number of cached media files by type",
		},
		[]string{"type"},
	)

	PlaylistsTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "nas_media_catalog_playlists_total",
			Help: "Number of stored playlists",
		},
	)

	SharesTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "nas_media_catalog_shares_total",
			Help: "Number of distinct sources in the media cache",
		},
	)
)

// Filesystem retry metrics for export and cache directories on network mounts
var (
	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nas_media_catalog_filesystem_retry_attempts_total",
			Help: "Filesystem operations retried after a stale file handle",
		},
		[]string{"operation"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nas_media_catalog_filesystem_retry_failures_total",
			Help: "Filesystem operations that failed after all retries",
		},
		[]string{"operation"},
	)

	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nas_media_catalog_filesystem_stale_errors_total",
			Help: "Stale file handle errors seen by filesystem operations",
		},
		[]string{"operation"},
	)
)

// Authentication metrics
var (
	AuthAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nas_media_catalog_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"status"},
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "nas_media_catalog_active_sessions",
			Help: "Number of active user sessions",
		},
	)
)

// Application info metric
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "nas_media_catalog_app_info",
			Help: "Application information",
		},
		[]string{"version", "commit", "go_version"},
	)
)

// SetAppInfo sets the application info metric
func SetAppInfo(version, commit, goVersion string) {
	AppInfo.WithLabelValues(version, commit, goVersion).Set(1)
}
