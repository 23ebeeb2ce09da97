package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"nas-media-catalog/internal/middleware"
)

// RouterOptions selects optional parts of the route table.
type RouterOptions struct {
	// AuthEnabled registers the auth endpoints.
	AuthEnabled bool
	// StaticDir serves the web UI at / when non-empty.
	StaticDir string
}

// Router builds the application route table. Authentication is applied by
// wrapping the returned router with AuthMiddleware.
func (h *Handlers) Router(opts RouterOptions) *mux.Router {
	r := mux.NewRouter()

	// Probes and build info
	r.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/healthz", h.HealthCheck).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/health/detailed", h.DetailedHealthCheck).Methods(http.MethodGet)
	r.HandleFunc("/livez", h.LivenessCheck).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods(http.MethodGet)
	r.HandleFunc("/version", h.GetVersion).Methods(http.MethodGet)

	if opts.AuthEnabled {
		auth := r.PathPrefix("/api/auth").Subrouter()
		auth.HandleFunc("/setup-required", h.CheckSetupRequired).Methods(http.MethodGet)
		auth.HandleFunc("/setup", h.Setup).Methods(http.MethodPost)
		auth.HandleFunc("/login", h.Login).Methods(http.MethodPost)
		auth.HandleFunc("/logout", h.Logout).Methods(http.MethodPost)
		auth.HandleFunc("/check", h.CheckAuth).Methods(http.MethodGet)
		auth.HandleFunc("/keepalive", h.Keepalive).Methods(http.MethodPost)
		auth.HandleFunc("/password", h.ChangePassword).Methods(http.MethodPost)
	}

	r.HandleFunc("/api", h.GetAPIInfo).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.Handle("/scan", middleware.ScanRateLimit()(http.HandlerFunc(h.TriggerScan))).Methods(http.MethodPost)

	api.HandleFunc("/upnp/server", h.GetUPnPServer).Methods(http.MethodGet)
	api.HandleFunc("/upnp/discover", h.DiscoverUPnPServers).Methods(http.MethodGet)
	api.Handle("/upnp/reconnect", middleware.ScanRateLimit()(http.HandlerFunc(h.ReconnectUPnP))).Methods(http.MethodPost)

	api.HandleFunc("/media", h.ListMedia).Methods(http.MethodGet)
	api.HandleFunc("/media/{id:[0-9]+}/stream", h.StreamMedia).Methods(http.MethodGet, http.MethodHead)
	api.HandleFunc("/media/{id:[0-9]+}/artwork", h.GetArtwork).Methods(http.MethodGet)
	api.HandleFunc("/stats", h.GetStats).Methods(http.MethodGet)

	api.HandleFunc("/playlists", h.ListPlaylists).Methods(http.MethodGet)
	api.HandleFunc("/playlists", h.CreatePlaylist).Methods(http.MethodPost)
	api.HandleFunc("/playlists/import", h.ImportPlaylist).Methods(http.MethodPost)
	api.HandleFunc("/playlists/auto/generate", h.GenerateAutoPlaylists).Methods(http.MethodGet)
	api.HandleFunc("/playlists/{id:[0-9]+}", h.GetPlaylist).Methods(http.MethodGet)
	api.HandleFunc("/playlists/{id:[0-9]+}", h.UpdatePlaylist).Methods(http.MethodPut)
	api.HandleFunc("/playlists/{id:[0-9]+}", h.DeletePlaylist).Methods(http.MethodDelete)
	api.HandleFunc("/playlists/{id:[0-9]+}/download", h.DownloadPlaylist).Methods(http.MethodGet)
	api.HandleFunc("/playlists/{id:[0-9]+}/export", h.ExportPlaylist).Methods(http.MethodPost)

	if opts.StaticDir != "" {
		r.PathPrefix("/").Handler(http.FileServer(http.Dir(opts.StaticDir)))
	}

	return r
}
