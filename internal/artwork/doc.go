// Package artwork serves album art thumbnails for cached media.
//
// Art is fetched from the media server through a Fetcher, scaled to fit
// within 320x320 and stored as JPEG under the cache directory, keyed by the
// SHA-256 of the art URL. Cache writes are atomic.
package artwork
