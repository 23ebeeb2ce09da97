/*
Package filesystem wraps the few file operations the catalog performs on
directories that may live on a network mount: exported playlists and cached
artwork thumbnails.

NFS returns ESTALE when a file changed on the server while a handle to it
was cached. Such errors are retried with exponential backoff; every other
error is returned at once.

	err := filesystem.WriteFile(path, body, 0o644, filesystem.DefaultRetryConfig())

Writes go through renameio, so a reader never observes a partially written
playlist.
*/
package filesystem
