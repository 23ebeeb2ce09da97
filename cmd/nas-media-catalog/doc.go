// Package main provides the entry point for the NAS Media Catalog service.
//
// NAS Media Catalog finds a UPnP/DLNA media server on the local network
// (a FRITZ!Box is preferred), caches its audio and video items in SQLite and
// serves playlists that open directly in VLC, pointing at either the UPnP
// resource URLs or equivalent SMB URLs.
//
// # Application Lifecycle
//
//  1. Memory Configuration: Sets GOMEMLIMIT from MEMORY_LIMIT and MEMORY_RATIO
//  2. Configuration Loading: Reads environment variables and prepares directories
//  3. Database Initialization: Opens the SQLite cache and playlist store
//  4. UPnP Connection: Runs SSDP discovery and connects to the preferred server
//  5. Indexer: Starts the initial scan and periodic rescans
//  6. HTTP Server Setup: Routes, middleware and the optional metrics server
//  7. Graceful Shutdown: Handles SIGINT/SIGTERM and stops all components
//
// A failed initial discovery is not fatal. The service starts without a
// server; /health reports 503 until POST /api/upnp/reconnect succeeds.
//
// # Background Services
//
//   - Indexer: Rescans the connected server every SCAN_INTERVAL
//   - Metrics Collector: Updates catalog gauges every minute
//   - Session Cleanup: Removes expired sessions hourly
//   - Vacuum: Compacts the database daily
//
// # HTTP Servers
//
//  1. Main Server (default port 8000): the catalog API, playlist downloads,
//     media streaming proxy and the optional web UI.
//  2. Metrics Server (default port 9090, optional): /metrics and /health.
//
// # Graceful Shutdown
//
//  1. Stop accepting new HTTP requests (30s timeout)
//  2. Stop the indexer, cancelling any running scan
//  3. Stop the metrics collector and metrics server
//  4. Stop background workers
//  5. Close the database
//
// See [nas-media-catalog/internal/startup] for the environment variables.
package main
