package handlers

import (
	"errors"
	"net/http"
	"strings"

	"nas-media-catalog/internal/logging"
	"nas-media-catalog/internal/upnp"
)

// DiscoverResponse lists the servers found by a fresh discovery.
type DiscoverResponse struct {
	Servers []upnp.ServerInfo `json:"servers"`
	Count   int               `json:"count"`
}

// ReconnectResponse reports the server connected by a reconnect.
type ReconnectResponse struct {
	Message string          `json:"message"`
	Server  upnp.ServerInfo `json:"server"`
}

// GetUPnPServer returns the connected media server.
func (h *Handlers) GetUPnPServer(w http.ResponseWriter, _ *http.Request) {
	info := h.upnp.Info()
	if info == nil {
		http.Error(w, "No UPnP server connected", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, info)
}

// DiscoverUPnPServers runs a fresh SSDP search. The connected server is
// not changed.
func (h *Handlers) DiscoverUPnPServers(w http.ResponseWriter, r *http.Request) {
	servers, err := h.upnp.Discover(r.Context())
	if err != nil {
		logging.Error("UPnP discovery failed: %v", err)
		http.Error(w, "Discovery failed", http.StatusInternalServerError)
		return
	}

	response := DiscoverResponse{Servers: make([]upnp.ServerInfo, 0, len(servers))}
	for _, s := range servers {
		response.Servers = append(response.Servers, s.Info())
	}
	response.Count = len(response.Servers)

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, response)
}

// ReconnectUPnP rediscovers and connects to the server named by the
// serverName query parameter, or to the automatically selected one.
func (h *Handlers) ReconnectUPnP(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.URL.Query().Get("serverName"))
	logging.Info("Reconnecting to UPnP media server (requested: %q)", name)

	server, err := h.upnp.Connect(r.Context(), name)
	switch {
	case errors.Is(err, upnp.ErrServerNotFound):
		http.Error(w, "Server '"+name+"' not found", http.StatusNotFound)
		return
	case errors.Is(err, upnp.ErrNoServers):
		http.Error(w, "No UPnP media servers found", http.StatusNotFound)
		return
	case err != nil:
		logging.Error("Error reconnecting to UPnP server: %v", err)
		http.Error(w, "Failed to establish UPnP connection", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, ReconnectResponse{
		Message: "Successfully reconnected to UPnP server",
		Server:  server.Info(),
	})
}
