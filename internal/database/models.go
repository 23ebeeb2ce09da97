package database

import (
	"encoding/json"
	"errors"
	"time"

	"nas-media-catalog/internal/mediatypes"
)

var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrPlaylistExists is returned when a playlist name is already taken.
	ErrPlaylistExists = errors.New("playlist name already exists")
)

// MediaFile is a cached media server item.
type MediaFile struct {
	ID int64 `json:"id"`
	// Path is the resource URL reported by the media server and is unique
	// across the cache.
	Path        string              `json:"path"`
	Name        string              `json:"name"`
	ParentPath  string              `json:"parentPath,omitempty"`
	Size        int64               `json:"size"`
	Duration    time.Duration       `json:"-"`
	ModTime     time.Time           `json:"modTime"`
	Type        mediatypes.FileType `json:"fileType"`
	MimeType    string              `json:"mimeType,omitempty"`
	ShareName   string              `json:"shareName"`
	AlbumArtURL string              `json:"albumArtUrl,omitempty"`
	SMBURL      string              `json:"smbUrl,omitempty"`
	CachedAt    time.Time           `json:"cachedAt"`
}

// DurationSeconds is the duration in whole seconds, or zero when unknown.
func (m MediaFile) DurationSeconds() int64 {
	return int64(m.Duration / time.Second)
}

// MarshalJSON reports the duration in seconds.
func (m MediaFile) MarshalJSON() ([]byte, error) {
	type alias MediaFile
	return json.Marshal(struct {
		alias
		DurationSeconds int64 `json:"durationSeconds,omitempty"`
	}{alias(m), m.DurationSeconds()})
}

// MediaFilter narrows GetMediaFiles results. Zero values disable a filter.
type MediaFilter struct {
	Share     string
	Type      mediatypes.FileType
	Search    string
	SortField mediatypes.SortField
	SortOrder mediatypes.SortOrder
	Limit     int
	Offset    int
}

// Playlist is a named, ordered selection of cached file paths.
type Playlist struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	FilePaths   []string  `json:"filePaths"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// PlaylistInput carries the fields of a playlist create or replace request.
type PlaylistInput struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	FilePaths   []string `json:"filePaths"`
}

// CacheStats summarizes the media cache.
type CacheStats struct {
	TotalFiles int            `json:"totalFiles"`
	TotalSize  int64          `json:"totalSize"`
	ByShare    map[string]int `json:"byShare"`
	ByType     map[string]int `json:"byType"`
	LastScan   *time.Time     `json:"lastScan,omitempty"`
}
