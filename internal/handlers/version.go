package handlers

import (
	"net/http"

	"nas-media-catalog/internal/startup"
	"nas-media-catalog/internal/upnp"
)

// APIInfo describes the service and its media server connection.
type APIInfo struct {
	Message       string           `json:"message"`
	Version       string           `json:"version"`
	UPnPConnected bool             `json:"upnpConnected"`
	UPnPServer    *upnp.ServerInfo `json:"upnpServer"`
}

// GetVersion returns the application version and build information
func (h *Handlers) GetVersion(w http.ResponseWriter, _ *http.Request) {
	buildInfo := startup.GetBuildInfo()

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	writeJSON(w, buildInfo)
}

// GetAPIInfo returns the service banner served at /api.
func (h *Handlers) GetAPIInfo(w http.ResponseWriter, _ *http.Request) {
	info := h.upnp.Info()

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, APIInfo{
		Message:       "NAS Media Catalog API",
		Version:       startup.Version,
		UPnPConnected: info != nil,
		UPnPServer:    info,
	})
}
