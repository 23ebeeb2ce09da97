// Package startup handles application initialization, configuration loading,
// and startup/shutdown logging.
//
// # Configuration
//
// All configuration is loaded from environment variables via [LoadConfig].
// A .env file is not read. The following variables are supported:
//
//   - HOST, PORT: Application listen address (default: 0.0.0.0, 8000)
//   - METRICS_ENABLED, METRICS_PORT: Prometheus server (default: true, 9090)
//   - DATABASE_DIR: Database directory, file media_catalog.db (default: ./data)
//   - CACHE_DIR: Cache directory, artwork under artwork/ (default: ./cache)
//   - EXPORT_DIR: Playlist export directory; export is disabled when empty
//   - STATIC_DIR: Web UI assets (default: ./static)
//   - UPNP_DISCOVERY_TIMEOUT: SSDP collection window (default: 10s)
//   - UPNP_SERVER_NAME: Preferred server name; empty selects automatically
//   - UPNP_BROWSE_RATE: Browse requests per second (default: 20)
//   - MAX_SCAN_DEPTH: Container depth walked by a scan (default: 5)
//   - AUTO_SCAN_ON_STARTUP: Scan once the server is connected (default: true)
//   - SCAN_INTERVAL: Periodic rescan interval; 0 disables (default: 0)
//   - SMB_ENABLED, SMB_HOSTNAME, SMB_USERNAME, SMB_PASSWORD, SMB_SHARE:
//     SMB URL generation for playlists (default share: Media)
//   - AUTH_ENABLED: Password protection of the API (default: false)
//   - LOG_LEVEL, DEBUG: Logging level (default: info)
//   - LOG_STATIC_FILES, LOG_HEALTH_CHECKS: Access log filters
//
// Durations accept Go syntax ("90s", "6h") or plain integers, read as seconds.
//
// # Directory Setup
//
//   - Database directory: Required, must be writable
//   - Cache directory: Optional, enables artwork thumbnails if writable
//   - Export directory: Optional, created on demand when configured
//   - Static directory: Checked but not created
//
// # Build Information
//
// Build-time variables are injected via ldflags and exposed via [GetBuildInfo].
//
// # Lifecycle Logging
//
//   - [LogDatabaseInit], [LogUPnPInit], [LogUPnPConnected], [LogArtworkInit],
//     [LogAuthInit], [LogIndexerInit]: component setup
//   - [LogHTTPRoutes]: Registered HTTP routes (debug level)
//   - [LogServerStarted]: Server endpoints and startup duration
//   - [LogShutdownInitiated], [LogShutdownComplete]: Graceful shutdown
package startup
