package handlers

import (
	"errors"
	"net/http"

	"nas-media-catalog/internal/logging"
	"nas-media-catalog/internal/upnp"
)

// ScanResponse acknowledges a scan request.
type ScanResponse struct {
	Message string `json:"message"`
	ScanID  string `json:"scanId"`
	Started bool   `json:"started"`
}

// TriggerScan starts a background scan of the connected media server. A
// request made while a scan is running is answered with that scan's id.
func (h *Handlers) TriggerScan(w http.ResponseWriter, _ *http.Request) {
	id, started, err := h.indexer.Trigger()
	switch {
	case errors.Is(err, upnp.ErrNotConnected):
		http.Error(w, "UPnP server not connected", http.StatusServiceUnavailable)
		return
	case err != nil:
		logging.Error("Failed to start scan: %v", err)
		http.Error(w, "Failed to start scan", http.StatusServiceUnavailable)
		return
	}

	response := ScanResponse{
		Message: "UPnP media scan started in background",
		ScanID:  id,
		Started: started,
	}
	if !started {
		response.Message = "Scan already in progress"
	}
	writeJSONStatusCode(w, http.StatusAccepted, response)
}
