// Package playlist reads and writes the playlist documents handed to media
// players.
//
// The writer produces extended M3U (EXTM3U) text aimed at VLC:
//   - a fixed header with the playlist name and opening instructions
//   - one #EXTINF line per track carrying the duration and a sanitized title
//   - the playable URL, emitted verbatim, on the following line
//
// Titles are passed through SanitizeTitle so that separators used by the
// M3U grammar (comma, colon, hash) never appear inside an #EXTINF line.
// SuggestedFilename returns a ".vlc.m3u" name because desktop environments
// commonly hand plain ".m3u" files to a different default player.
//
// The readers accept M3U and Windows Media Player (WPL) playlists and are
// used to import playlists created elsewhere.
package playlist
