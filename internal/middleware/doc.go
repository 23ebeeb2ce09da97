// Package middleware provides the HTTP middleware of the catalog server:
//   - access logging in W3C Extended Log Format, with log-injection sanitizing
//   - Prometheus request metrics with bounded path labels
//   - gzip compression of JSON and text responses (playlists and streams
//     are never compressed)
//   - per-client rate limiting for expensive operations
package middleware
