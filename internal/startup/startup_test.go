package startup

import (
	"net/http"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/gorilla/mux"
)

func TestGetBuildInfo(t *testing.T) {
	info := GetBuildInfo()

	if info.Version == "" {
		t.Error("Expected Version to be set")
	}
	if info.OS == "" || info.Arch == "" {
		t.Errorf("Expected OS/Arch to be set, got %q/%q", info.OS, info.Arch)
	}
	if info.GoVersion != GoVersion {
		t.Errorf("Expected GoVersion=%s, got %s", GoVersion, info.GoVersion)
	}
}

func TestGetEnv(t *testing.T) {
	tests := []struct {
		name         string
		defaultValue string
		envValue     string
		want         string
	}{
		{name: "Returns default when env var not set", defaultValue: "default", want: "default"},
		{name: "Returns env value when set", defaultValue: "default", envValue: "custom", want: "custom"},
		{name: "Empty default stays empty", defaultValue: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_STARTUP_VAR", tt.envValue)
			if got := getEnv("TEST_STARTUP_VAR", tt.defaultValue); got != tt.want {
				t.Errorf("getEnv() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGetRoutes(t *testing.T) {
	noop := func(http.ResponseWriter, *http.Request) {}

	r := mux.NewRouter()
	r.HandleFunc("/health", noop).Methods(http.MethodGet).Name("health")
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/playlists/{id}", noop).Methods(http.MethodGet, http.MethodDelete)
	r.PathPrefix("/").Handler(http.NotFoundHandler())

	routes, err := GetRoutes(r)
	if err != nil {
		t.Fatalf("GetRoutes() error = %v", err)
	}

	want := []RouteInfo{
		{Method: "GET", Path: "/health", Name: "health"},
		{Method: "*", Path: "/api"},
		{Method: "GET", Path: "/api/playlists/{id}"},
		{Method: "DELETE", Path: "/api/playlists/{id}"},
		{Method: "*", Path: "/"},
	}
	if diff := cmp.Diff(want, routes); diff != "" {
		t.Errorf("GetRoutes() mismatch (-want +got):\n%s", diff)
	}
}

func TestGetRouteGroup(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want string
	}{
		{"/api/playlists/{id}/download", "api/playlists"},
		{"/api/scan", "api/scan"},
		{"/api", "api"},
		{"/health/detailed", "health"},
		{"/", ""},
	}

	for _, tt := range tests {
		if got := getRouteGroup(tt.path); got != tt.want {
			t.Errorf("getRouteGroup(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
