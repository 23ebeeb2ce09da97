// Package metrics provides Prometheus instrumentation for the catalog service.
//
// All metrics are prefixed with "nas_media_catalog_" and registered with the
// default registry through promauto, so they are exported by the handler returned from handlers.MetricsHandler.
//
// # Metric Categories
//
//   - HTTP: request counts, durations, in-flight requests, rate-limited requests
//   - Database: query counts and durations by operation, transactions, rows affected
//   - UPnP: discovery duration, servers found, connection state, requests and retries
//   - Scanner: runs, items found by type, containers browsed, errors
//   - Playlists: generated documents, entry counts, paths missing from the cache
//   - Artwork: cache hits and misses, generation duration
//   - Streaming: active streams, bytes proxied, failures
//   - Catalog: cached files by type, playlists, sources
//
// # Collector
//
// Collector polls a StatsProvider (the database) on an interval and updates
// the catalog gauges:
//
//	collector := metrics.NewCollector(db, time.Minute)
//	collector.Start()
//	defer collector.Stop()
//
// InitializeMetrics pre-populates label combinations so dashboards see every
// series from the first scrape.
package metrics
