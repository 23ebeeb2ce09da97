// Package handlers provides the HTTP API of the media catalog.
//
// It includes handlers for:
//   - Media server discovery, connection and scans
//   - Cached media listing, streaming and album art
//   - Playlist management, import, VLC download and export
//   - Password authentication and sessions
//   - Health probes and build information
//
// [Handlers.Router] builds the route table; the caller adds middleware.
package handlers
