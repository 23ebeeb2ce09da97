// Package database provides SQLite persistence for the catalog.
//
// It handles storage and retrieval of:
//   - Media items cached from UPnP media servers, grouped by source share
//   - Playlists and their ordered file references
//   - The single user account and its authentication sessions
//   - Key/value metadata such as the time of the last scan
//
// The database uses WAL mode for improved concurrent read performance,
// enforces foreign keys, and initializes and migrates its schema on open.
// Every query records Prometheus metrics through the metrics package.
package database
