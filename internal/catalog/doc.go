// Package catalog turns stored playlists and cached media files into
// playlist documents. It validates playlist requests, resolves each stored
// path to a playable URL (UPnP or SMB), builds auto and smart playlist
// suggestions from the cache, and writes exported documents to disk.
package catalog
