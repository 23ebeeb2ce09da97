package startup

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"nas-media-catalog/internal/logging"

	"github.com/gorilla/mux"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// RouteInfo contains information about a registered route
type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

// LogDatabaseInit logs database initialization
func LogDatabaseInit(duration time.Duration) {
	section("DATABASE INITIALIZATION")
	logging.Info("  [OK] Database initialized in %v", duration)
}

// LogUPnPInit logs the discovery settings before the first search
func LogUPnPInit(timeout time.Duration, serverName string) {
	section("UPNP DISCOVERY")
	logging.Info("  Discovery timeout: %v", timeout)
	if serverName != "" {
		logging.Info("  Preferred server:  %s", serverName)
	} else {
		logging.Info("  Preferred server:  auto (FRITZ!Box first)")
	}
}

// LogUPnPConnected logs the server the catalog will browse
func LogUPnPConnected(name, location string, found int) {
	logging.Info("  [OK] Found %d media server(s)", found)
	logging.Info("  Connected to: %s", name)
	logging.Debug("  Description:  %s", location)
}

// LogUPnPUnavailable logs a failed initial discovery. The service keeps
// running and can be connected later through the reconnect endpoint.
func LogUPnPUnavailable(err error) {
	logging.Warn("  No media server connected: %v", err)
	logging.Warn("  Use POST /api/upnp/reconnect once the server is reachable")
}

// LogArtworkInit logs artwork cache availability
func LogArtworkInit(enabled bool, dir string) {
	if !enabled {
		logging.Info("  Artwork disabled (cache directory not writable)")
		logging.Info("  Album art requests will return 404")
		return
	}
	logging.Debug("  Artwork cache: %s", dir)
}

// LogAuthInit logs whether authentication protects the API
func LogAuthInit(enabled, hasUsers bool) {
	section("AUTHENTICATION")
	if !enabled {
		logging.Info("  Authentication disabled (set AUTH_ENABLED=true to enable)")
		return
	}
	if hasUsers {
		logging.Info("  [OK] Password configured")
	} else {
		logging.Warn("  No password set; complete setup at /api/auth/setup")
	}
}

// LogIndexerInit logs indexer initialization
func LogIndexerInit(interval time.Duration, maxDepth int, scanOnStart bool) {
	section("INDEXER INITIALIZATION")
	if interval > 0 {
		logging.Info("  Scan interval:  %v", interval)
	} else {
		logging.Info("  Scan interval:  disabled")
	}
	logging.Info("  Max depth:      %d", maxDepth)
	logging.Info("  Initial scan:   %v", scanOnStart)
	logging.Info("  Starting indexer...")
}

// LogIndexerStarted logs successful indexer start
func LogIndexerStarted() {
	logging.Info("  [OK] Indexer started")
}

// GetRoutes extracts all registered routes from a mux.Router
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo

	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		pathTemplate, err := route.GetPathTemplate()
		if err != nil {
			return err
		}

		methods, err := route.GetMethods()
		if err != nil {
			// Route might not have methods specified (e.g., static file server)
			methods = []string{"*"}
		}

		name := route.GetName()

		for _, method := range methods {
			routes = append(routes, RouteInfo{
				Method: method,
				Path:   pathTemplate,
				Name:   name,
			})
		}

		return nil
	})

	return routes, err
}

// LogHTTPRoutes logs all registered HTTP routes dynamically
func LogHTTPRoutes(router *mux.Router, logStaticFiles, logHealthChecks bool) {
	section("HTTP SERVER SETUP")

	if logging.IsDebugEnabled() {
		routes, err := GetRoutes(router)
		if err != nil {
			logging.Warn("error walking routes: %v", err)
		}

		logging.Debug("  Registered routes (%d total):", len(routes))

		groups := make(map[string][]string)
		for _, route := range routes {
			group := getRouteGroup(route.Path)
			groups[group] = append(groups[group], fmt.Sprintf("%s %s", route.Method, route.Path))
		}
		keys := make([]string, 0, len(groups))
		for k := range groups {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, group := range keys {
			label := group
			if label == "" {
				label = "root"
			}
			logging.Debug("  [%s]", label)
			for _, line := range groups[group] {
				logging.Debug("    %s", line)
			}
		}
	}

	logging.Info("  HTTP logging enabled")
	if logStaticFiles {
		logging.Info("    Static file logging: ON")
	} else {
		logging.Info("    Static file logging: OFF (set LOG_STATIC_FILES=true to enable)")
	}
	if logHealthChecks {
		logging.Info("    Health check logging: ON")
	} else {
		logging.Info("    Health check logging: OFF (set LOG_HEALTH_CHECKS=true to enable)")
	}
}

// getRouteGroup extracts a group name from a route path
func getRouteGroup(path string) string {
	// Remove leading slash
	path = strings.TrimPrefix(path, "/")

	// Get first segment
	parts := strings.SplitN(path, "/", 2)
	if len(parts) == 0 {
		return ""
	}

	first := parts[0]

	// Special handling for API routes
	if first == "api" && len(parts) > 1 {
		subParts := strings.SplitN(parts[1], "/", 2)
		return "api/" + subParts[0]
	}

	return first
}

// ServerConfig holds what the startup summary reports.
type ServerConfig struct {
	Host            string
	Port            string
	MetricsPort     string
	MetricsEnabled  bool
	MediaServer     string
	ExportDir       string
	StartupDuration time.Duration
}

// LogServerStarted prints the endpoints and catalog state once both
// listeners are about to accept connections.
func LogServerStarted(config ServerConfig) {
	section("SERVER STARTED")
	logging.Info("  Startup time:    %v", config.StartupDuration)
	logging.Info("  Media server:    %s", valueOr(config.MediaServer, "not connected"))
	logging.Info("  Playlist export: %s", valueOr(config.ExportDir, "disabled"))
	logging.Info("")
	logging.Info("  Endpoints:")
	logging.Info("    Catalog API:   http://%s:%s/api", config.Host, config.Port)
	if config.MetricsEnabled {
		logging.Info("    Metrics:       http://%s:%s/metrics", config.Host, config.MetricsPort)
	} else {
		logging.Info("    Metrics:       disabled")
	}
	logging.Info("")
	logging.Info("  Press Ctrl+C to stop the server")
	logging.Info(rule)
	logging.Info("")
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(reason string) {
	section("SHUTDOWN INITIATED (%s)", reason)
}

// LogShutdownStep logs a shutdown step
func LogShutdownStep(step string) {
	logging.Debug("  %s...", step)
}

// LogShutdownStepComplete logs a completed shutdown step
func LogShutdownStepComplete(step string) {
	logging.Info("  [OK] %s", step)
}

// LogShutdownComplete logs shutdown completion
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

// LogFatal logs a fatal error and exits
func LogFatal(format string, args ...interface{}) {
	logging.Fatal(format, args...)
}

const rule = "------------------------------------------------------------"

// section starts a titled block of startup output.
func section(format string, args ...interface{}) {
	logging.Info("")
	logging.Info(rule)
	logging.Info(format, args...)
	logging.Info(rule)
}

func printBanner() {
	banner := `
------------------------------------------------------------
    _  _   _   ___   __  __        _ _         ___      _
   | \| | /_\ / __| |  \/  |___ __| (_)__ _   / __|__ _| |_
   | .` + "`" + ` |/ _ \\__ \ | |\/| / -_) _` + "`" + ` | / _` + "`" + ` | | (__/ _` + "`" + ` |  _|
   |_|\_/_/ \_\___/ |_|  |_\___\__,_|_\__,_|  \___\__,_|\__|

------------------------------------------------------------`
	fmt.Println(banner)
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
	logging.Info("")
}

func logSystemInfo() {
	logging.Info(rule)
	logging.Info("SYSTEM INFORMATION")
	logging.Info(rule)
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())
	logging.Info("  GOMAXPROCS:      %d", runtime.GOMAXPROCS(0))

	if runtime.GOMAXPROCS(0) < runtime.NumCPU() {
		logging.Info("  (Container CPU limit detected)")
	}

	if logging.IsDebugEnabled() {
		logging.Debug("  Goroutines:      %d", runtime.NumGoroutine())

		if wd, err := os.Getwd(); err == nil {
			logging.Debug("  Working dir:     %s", wd)
		}

		if hostname, err := os.Hostname(); err == nil {
			logging.Debug("  Hostname:        %s", hostname)
		}
	}

	logging.Info("")
}

func ensureDirectory(path, name string) error {
	logging.Debug("  Checking %s directory: %s", name, path)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		logging.Debug("    Directory does not exist, creating...")
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		logging.Debug("    [OK] Created directory: %s", path)
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}

	logging.Debug("    [OK] Directory exists")

	return nil
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("failed to remove write test file %s: %v", testFile, err)
		// Don't return error since write access was confirmed
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		logging.Warn("Invalid integer value for %s: %q, using default: %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

// getEnvDuration accepts Go durations ("90s", "1h30m") and plain integers,
// which are taken as seconds.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		logging.Warn("Invalid duration value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("Invalid boolean value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}
