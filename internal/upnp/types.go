package upnp

import (
	"errors"
	"time"
)

// Well-known identifiers used by discovery and browsing.
const (
	MediaServerType     = "urn:schemas-upnp-org:device:MediaServer:1"
	ContentDirectoryURN = "urn:schemas-upnp-org:service:ContentDirectory:1"
	RootObjectID        = "0"

	// ServerType is reported by Info for every connected server.
	ServerType = "UPnP/DLNA Media Server"
)

var (
	// ErrNoServers is returned when discovery found no usable media server.
	ErrNoServers = errors.New("no media servers discovered")
	// ErrServerNotFound is returned when no discovered server matches a requested name.
	ErrServerNotFound = errors.New("media server not found")
	// ErrNotConnected is returned when an operation needs a connected server.
	ErrNotConnected = errors.New("not connected to any media server")
)

// Server is a discovered media server with a ContentDirectory service.
type Server struct {
	Name                string `json:"name"`
	UDN                 string `json:"udn"`
	DeviceType          string `json:"deviceType"`
	Manufacturer        string `json:"manufacturer,omitempty"`
	ModelName           string `json:"modelName,omitempty"`
	Location            string `json:"baseUrl"`
	ContentDirectoryURL string `json:"contentDirectoryUrl"`
}

// ServerInfo describes the connected server for API responses.
type ServerInfo struct {
	Name                string `json:"name"`
	UDN                 string `json:"udn"`
	BaseURL             string `json:"base_url"`
	ContentDirectoryURL string `json:"content_directory_url"`
	Type                string `json:"type"`
}

// Info returns the API view of s.
func (s Server) Info() ServerInfo {
	return ServerInfo{
		Name:                s.Name,
		UDN:                 s.UDN,
		BaseURL:             s.Location,
		ContentDirectoryURL: s.ContentDirectoryURL,
		Type:                ServerType,
	}
}

// Container is a browsable DIDL-Lite container.
type Container struct {
	ID         string
	ParentID   string
	Title      string
	Class      string
	ChildCount int
}

// Resource is one <res> element of a DIDL-Lite item.
type Resource struct {
	URL          string
	ProtocolInfo string
	MIMEType     string
	Size         int64
	Duration     time.Duration
}

// Item is a DIDL-Lite item as returned by the server.
type Item struct {
	ID          string
	ParentID    string
	Title       string
	Class       string
	Artist      string
	Album       string
	AlbumArtURL string
	Resources   []Resource
}

// BrowseResult holds every child of one container.
type BrowseResult struct {
	Containers   []Container
	Items        []Item
	TotalMatches int
}

// MediaItem is a playable audio or video item found while browsing.
// Path equals URL; the resource URL is the item's identity in the catalog.
type MediaItem struct {
	ID          string
	Title       string
	Class       string
	MIMEType    string
	URL         string
	Path        string
	Size        int64
	Duration    time.Duration
	Artist      string
	Album       string
	AlbumArtURL string
	// Folder is the slash-joined container titles from the browse root.
	Folder string
}
