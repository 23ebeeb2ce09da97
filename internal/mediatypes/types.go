package mediatypes

import "strings"

// FileType represents the kind of a cached media file.
type FileType string

const (
	// FileTypeAudio represents an audio item.
	FileTypeAudio FileType = "audio"
	// FileTypeVideo represents a video item.
	FileTypeVideo FileType = "video"
	// FileTypeUnknown represents anything the MIME type does not classify.
	FileTypeUnknown FileType = "unknown"
)

// SortField specifies which field to sort by.
type SortField string

// SortOrder specifies the direction of sorting.
type SortOrder string

const (
	// SortByName sorts results by title.
	SortByName SortField = "name"
	// SortByDate sorts results by modification time.
	SortByDate SortField = "date"
	// SortBySize sorts results by file size.
	SortBySize SortField = "size"
	// SortByType sorts results by file type.
	SortByType SortField = "type"

	// SortAsc sorts in ascending order.
	SortAsc SortOrder = "asc"
	// SortDesc sorts in descending order.
	SortDesc SortOrder = "desc"
)

// SupportedMIMETypes lists the resource MIME types accepted from media servers.
var SupportedMIMETypes = map[string]bool{
	// Video
	"video/mp4":        true,
	"video/avi":        true,
	"video/x-msvideo":  true,
	"video/quicktime":  true,
	"video/x-ms-wmv":   true,
	"video/x-flv":      true,
	"video/webm":       true,
	"video/x-matroska": true,

	// Audio
	"audio/mpeg":     true,
	"audio/mp3":      true,
	"audio/flac":     true,
	"audio/wav":      true,
	"audio/aac":      true,
	"audio/ogg":      true,
	"audio/x-ms-wma": true,
	"audio/mp4":      true,
}

// MimeTypes maps file extensions to their MIME types.
var MimeTypes = map[string]string{
	// Video
	".mp4":  "video/mp4",
	".m4v":  "video/mp4",
	".mkv":  "video/x-matroska",
	".avi":  "video/x-msvideo",
	".mov":  "video/quicktime",
	".wmv":  "video/x-ms-wmv",
	".flv":  "video/x-flv",
	".webm": "video/webm",

	// Audio
	".mp3":  "audio/mpeg",
	".flac": "audio/flac",
	".wav":  "audio/wav",
	".aac":  "audio/aac",
	".ogg":  "audio/ogg",
	".oga":  "audio/ogg",
	".wma":  "audio/x-ms-wma",
	".m4a":  "audio/mp4",

	// Playlists
	".m3u":  "audio/x-mpegurl",
	".m3u8": "application/vnd.apple.mpegurl",
	".wpl":  "application/vnd.ms-wpl",
}

// PlaylistExtensions maps file extensions to whether they are importable playlists.
var PlaylistExtensions = map[string]bool{
	".m3u":  true,
	".m3u8": true,
	".wpl":  true,
}

// NormalizeMIME lowercases a MIME type and strips any parameters.
func NormalizeMIME(mime string) string {
	mime, _, _ = strings.Cut(mime, ";")
	return strings.ToLower(strings.TrimSpace(mime))
}

// FileTypeFromMIME classifies a MIME type by its top-level type.
func FileTypeFromMIME(mime string) FileType {
	mime = NormalizeMIME(mime)
	switch {
	case strings.HasPrefix(mime, "video/"):
		return FileTypeVideo
	case strings.HasPrefix(mime, "audio/"):
		return FileTypeAudio
	default:
		return FileTypeUnknown
	}
}

// IsSupportedMIME returns true if resources of this MIME type are cataloged.
func IsSupportedMIME(mime string) bool {
	return SupportedMIMETypes[NormalizeMIME(mime)]
}

// GetMimeType returns the MIME type for a given file extension.
// The extension should be lowercase and include the leading dot (e.g., ".mp3").
// Returns "application/octet-stream" if the extension is not recognized.
func GetMimeType(ext string) string {
	if mime, ok := MimeTypes[ext]; ok {
		return mime
	}
	return "application/octet-stream"
}

// IsPlaylistFile returns true if the extension names an importable playlist.
func IsPlaylistFile(ext string) bool {
	return PlaylistExtensions[strings.ToLower(ext)]
}

// ParseFileType converts a query parameter to a FileType. The second
// return value is false for anything other than audio, video or unknown.
func ParseFileType(s string) (FileType, bool) {
	switch ft := FileType(strings.ToLower(strings.TrimSpace(s))); ft {
	case FileTypeAudio, FileTypeVideo, FileTypeUnknown:
		return ft, true
	default:
		return "", false
	}
}
