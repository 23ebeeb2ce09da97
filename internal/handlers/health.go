package handlers

import (
	"net/http"
	"runtime"
	"time"

	"nas-media-catalog/internal/indexer"
	"nas-media-catalog/internal/startup"
	"nas-media-catalog/internal/upnp"
)

const (
	statusHealthy  = "healthy"
	statusDegraded = "degraded"
)

// HealthResponse is the basic health probe. It fails when no media server is
// connected so container orchestrators restart or alert.
type HealthResponse struct {
	Status        string `json:"status"`
	UPnPConnected bool   `json:"upnpConnected"`
	Database      string `json:"database"`
	Error         string `json:"error,omitempty"`
}

// DetailedHealthResponse contains the detailed health check response
type DetailedHealthResponse struct {
	Status        string               `json:"status"`
	Version       string               `json:"version"`
	UPnPConnected bool                 `json:"upnpConnected"`
	UPnPServer    *upnp.ServerInfo     `json:"upnpServer"`
	UPnPError     string               `json:"upnpError,omitempty"`
	Database      string               `json:"database"`
	Scan          indexer.HealthStatus `json:"scan"`
	Timestamp     time.Time            `json:"timestamp"`

	// System info
	GoVersion    string `json:"goVersion"`
	NumCPU       int    `json:"numCpu"`
	NumGoroutine int    `json:"numGoroutine"`
}

// HealthCheck returns 200 when a media server is connected, else 503.
func (h *Handlers) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	if !h.upnp.Connected() {
		writeJSONStatusCode(w, http.StatusServiceUnavailable, HealthResponse{
			Status:   statusDegraded,
			Database: "connected",
			Error:    "UPnP server not connected",
		})
		return
	}

	writeJSONStatusCode(w, http.StatusOK, HealthResponse{
		Status:        statusHealthy,
		UPnPConnected: true,
		Database:      "connected",
	})
}

// DetailedHealthCheck reports connection, scan and runtime details. It always
// answers 200; a missing media server is reported as degraded.
func (h *Handlers) DetailedHealthCheck(w http.ResponseWriter, _ *http.Request) {
	info := h.upnp.Info()

	response := DetailedHealthResponse{
		Status:        statusHealthy,
		Version:       startup.Version,
		UPnPConnected: info != nil,
		UPnPServer:    info,
		Database:      "connected",
		Scan:          h.indexer.GetHealthStatus(),
		Timestamp:     h.now().UTC(),
		GoVersion:     runtime.Version(),
		NumCPU:        runtime.NumCPU(),
		NumGoroutine:  runtime.NumGoroutine(),
	}
	if info == nil {
		response.Status = statusDegraded
		response.UPnPError = "No UPnP server connected"
	}

	writeJSONStatusCode(w, http.StatusOK, response)
}

// LivenessCheck is a simple liveness probe (always returns 200 if server is running)
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	// For HEAD requests, only send headers (no body)
	if r.Method != http.MethodHead {
		writeJSON(w, map[string]string{
			"status": "alive",
		})
	}
}

// ReadinessCheck returns 200 once the initial scan has finished or was skipped
func (h *Handlers) ReadinessCheck(w http.ResponseWriter, _ *http.Request) {
	if h.indexer.IsReady() {
		writeJSONStatusCode(w, http.StatusOK, map[string]string{
			"status": "ready",
		})
		return
	}
	writeJSONStatusCode(w, http.StatusServiceUnavailable, map[string]string{
		"status": "not_ready",
	})
}
