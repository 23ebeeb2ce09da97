// Package indexer caches the connected media server's audio and video items
// in the database.
//
// A scan browses the server's ContentDirectory from the root container down
// to the configured depth and replaces every cached row of the "UPnP" share
// in a single transaction. Files seen by an earlier scan keep their
// modification time; new files are stamped with the scan start.
//
// Scans run:
//   - once at startup, when enabled
//   - periodically, when an interval is configured
//   - on demand through Trigger (used by the HTTP API) or Index (used by the CLI)
//
// Only one scan runs at a time. Progress and the outcome of the last scan
// are reported by GetHealthStatus.
package indexer
